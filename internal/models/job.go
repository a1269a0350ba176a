// Package models defines the data types shared across the docchunk pipeline.
package models

import (
	"fmt"
	"strconv"
	"strings"
)

// JobConfig is the immutable configuration for one invocation.
// It is persisted verbatim into the checkpoint record and the output
// document so a resumed run can be checked against the original settings.
type JobConfig struct {
	InputDir   string `json:"input_dir"`
	OutputFile string `json:"output_file"`

	MaxTokens  int  `json:"max_tokens"`
	MergePeers bool `json:"merge_peers"`

	// Enrichments
	EnableFormula               bool `json:"formula_enrichment"`
	EnablePictureClassification bool `json:"picture_classification"`
	EnablePictureDescription    bool `json:"picture_description"`
	EnableCodeEnrichment        bool `json:"code_enrichment"`
	EnableOCR                   bool `json:"ocr"`
	EnableTableStructure        bool `json:"table_structure"`

	PictureDescriptionMaxTokens int  `json:"picture_description_max_tokens"`
	Resume                      bool `json:"resume"`
	VisionBatchSize             int  `json:"vision_batch_size"`
	ProcessingBatchSize         int  `json:"processing_batch_size"`
}

// DefaultJobConfig returns the documented defaults for all optional
// parameters.
func DefaultJobConfig() JobConfig {
	return JobConfig{
		MaxTokens:                   512,
		MergePeers:                  true,
		EnableFormula:               true,
		EnablePictureClassification: false,
		EnablePictureDescription:    false,
		EnableCodeEnrichment:        false,
		EnableOCR:                   true,
		EnableTableStructure:        true,
		PictureDescriptionMaxTokens: 100,
		Resume:                      false,
		VisionBatchSize:             4,
		ProcessingBatchSize:         4,
	}
}

// EnrichmentCount returns the number of enabled enrichments. The heartbeat
// cost model scales the per-page estimate with this count.
func (c JobConfig) EnrichmentCount() int {
	n := 0
	for _, on := range []bool{
		c.EnableFormula,
		c.EnablePictureClassification,
		c.EnablePictureDescription,
		c.EnableCodeEnrichment,
		c.EnableOCR,
		c.EnableTableStructure,
	} {
		if on {
			n++
		}
	}
	return n
}

// ParseJobArgs builds a JobConfig from the positional CLI arguments after
// the input directory and output file. Missing trailing arguments keep
// their defaults. Malformed integers fall back to the default and are
// reported through the returned warnings.
func ParseJobArgs(inputDir, outputFile string, rest []string) (JobConfig, []string) {
	cfg := DefaultJobConfig()
	cfg.InputDir = inputDir
	cfg.OutputFile = outputFile

	var warnings []string

	intArg := func(pos int, name string, dst *int) {
		if pos >= len(rest) {
			return
		}
		v, err := strconv.Atoi(rest[pos])
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("invalid %s %q, using default %d", name, rest[pos], *dst))
			return
		}
		*dst = v
	}
	boolArg := func(pos int, dst *bool) {
		if pos >= len(rest) {
			return
		}
		*dst = ParseBool(rest[pos])
	}

	intArg(0, "max_tokens", &cfg.MaxTokens)
	boolArg(1, &cfg.MergePeers)
	boolArg(2, &cfg.EnableFormula)
	boolArg(3, &cfg.EnablePictureClassification)
	boolArg(4, &cfg.EnablePictureDescription)
	boolArg(5, &cfg.EnableCodeEnrichment)
	boolArg(6, &cfg.EnableOCR)
	boolArg(7, &cfg.EnableTableStructure)
	intArg(8, "picture_description_max_tokens", &cfg.PictureDescriptionMaxTokens)
	boolArg(9, &cfg.Resume)
	intArg(10, "vision_batch_size", &cfg.VisionBatchSize)
	intArg(11, "processing_batch_size", &cfg.ProcessingBatchSize)

	return cfg, warnings
}

// ParseBool parses the boolean CLI convention: the literal "true" in any
// case is true, everything else is false.
func ParseBool(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), "true")
}

// Result is the single JSON object written to stdout on completion.
type Result struct {
	Success        bool     `json:"success"`
	ChunksCount    int      `json:"chunks_count,omitempty"`
	FilesProcessed int      `json:"files_processed,omitempty"`
	OutputFile     string   `json:"output_file,omitempty"`
	Error          string   `json:"error,omitempty"`
	Resumable      bool     `json:"resumable,omitempty"`
	CompletedParts []string `json:"completed_parts,omitempty"`
}
