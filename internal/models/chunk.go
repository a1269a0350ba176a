package models

// Chunk is one unit yielded by the black-box chunking engine: text plus
// whatever structural metadata the engine could supply.
type Chunk struct {
	Text     string
	Tokens   int
	Headings []string
}

// ChunkMetadata describes where a persisted chunk came from.
type ChunkMetadata struct {
	// Source is the path of the originating document.
	Source string `json:"source"`
	// Part labels the page-range partition ("p101-200"), empty for
	// unpartitioned documents.
	Part string `json:"part,omitempty"`
	// Headings is the section path the chunker reported, outermost first.
	Headings []string `json:"headings,omitempty"`
}

// ChunkRecord is one unit of output. Records are append-only once written.
type ChunkRecord struct {
	Text     string        `json:"text"`
	Tokens   int           `json:"tokens"`
	Metadata ChunkMetadata `json:"metadata"`
}

// Document is the structured result of converting one work unit.
type Document struct {
	// Source is the path of the file that was converted. For partitions
	// this is the materialized sub-document, not the original.
	Source string
	// Text is the extracted content.
	Text string
}
