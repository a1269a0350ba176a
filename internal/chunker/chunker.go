// Package chunker wraps the token-aware chunking engine. Chunks are
// produced as a lazy, finite, single-pass stream, each consumable exactly
// once as it is generated.
package chunker

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
	"github.com/tmc/langchaingo/textsplitter"

	"github.com/raphaelgruber/docchunk-go/internal/models"
)

const encodingName = "cl100k_base"

// splitter is the slice of the text-splitting engine the chunker consumes.
type splitter interface {
	SplitText(text string) ([]string, error)
}

// counter estimates token counts for chunk records.
type counter interface {
	Count(text string) int
}

// Config controls chunk sizing and peer merging.
type Config struct {
	// MaxTokens caps the token count per chunk.
	MaxTokens int
	// MergePeers merges adjacent undersized chunks that share a heading
	// path, mirroring the hybrid chunking behavior.
	MergePeers bool
}

// Chunker splits converted documents into token-bounded chunks.
type Chunker struct {
	cfg   Config
	split splitter
	count counter
}

// New creates a chunker backed by the token splitter and tokenizer.
func New(cfg Config) (*Chunker, error) {
	if cfg.MaxTokens <= 0 {
		return nil, fmt.Errorf("max tokens must be positive, got %d", cfg.MaxTokens)
	}

	enc, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("load %s encoding: %w", encodingName, err)
	}

	split := textsplitter.NewTokenSplitter(
		textsplitter.WithChunkSize(cfg.MaxTokens),
		textsplitter.WithChunkOverlap(0),
		textsplitter.WithEncodingName(encodingName),
	)

	return newWith(cfg, split, tiktokenCounter{enc: enc}), nil
}

// newWith wires explicit engine implementations; tests inject fakes here.
func newWith(cfg Config, split splitter, count counter) *Chunker {
	return &Chunker{cfg: cfg, split: split, count: count}
}

// Chunk returns the lazy chunk stream for a document. Sections are split
// one at a time as the stream is drained.
func (c *Chunker) Chunk(doc *models.Document) *Stream {
	return &Stream{
		chunker:  c,
		sections: sectionize(doc.Text),
	}
}

// Stream yields chunks one at a time. Not safe for concurrent use, and
// each chunk is yielded exactly once.
type Stream struct {
	chunker  *Chunker
	sections []section
	idx      int
	pending  []models.Chunk
	err      error
}

// Next returns the next chunk, or false when the stream is exhausted or an
// error occurred. Check Err after the final Next.
func (s *Stream) Next() (models.Chunk, bool) {
	for len(s.pending) == 0 {
		if s.err != nil || s.idx >= len(s.sections) {
			return models.Chunk{}, false
		}
		sec := s.sections[s.idx]
		s.idx++
		if err := s.fill(sec); err != nil {
			s.err = err
			return models.Chunk{}, false
		}
	}

	chunk := s.pending[0]
	s.pending = s.pending[1:]
	return chunk, true
}

// Err returns the error that terminated the stream, if any.
func (s *Stream) Err() error {
	return s.err
}

// fill splits one section and queues its chunks, merging undersized peers
// when configured.
func (s *Stream) fill(sec section) error {
	parts, err := s.chunker.split.SplitText(sec.text)
	if err != nil {
		return fmt.Errorf("split section: %w", err)
	}

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		tokens := s.chunker.count.Count(part)

		if s.chunker.cfg.MergePeers && len(s.pending) > 0 {
			last := &s.pending[len(s.pending)-1]
			if equalHeadings(last.Headings, sec.headings) && last.Tokens+tokens <= s.chunker.cfg.MaxTokens {
				last.Text += "\n" + part
				last.Tokens += tokens
				continue
			}
		}

		s.pending = append(s.pending, models.Chunk{
			Text:     part,
			Tokens:   tokens,
			Headings: sec.headings,
		})
	}
	return nil
}

func equalHeadings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// tiktokenCounter counts tokens with the real tokenizer.
type tiktokenCounter struct {
	enc *tiktoken.Tiktoken
}

func (c tiktokenCounter) Count(text string) int {
	return len(c.enc.Encode(text, nil, nil))
}

// section is a run of text under one heading path.
type section struct {
	headings []string
	text     string
}

// sectionize splits converted text into heading-scoped sections. Converted
// output is frequently plain text; then the whole document is one section
// with no heading path.
func sectionize(text string) []section {
	var (
		sections []section
		headings []string
		buf      strings.Builder
	)

	flush := func() {
		content := strings.TrimSpace(buf.String())
		buf.Reset()
		if content == "" {
			return
		}
		path := make([]string, len(headings))
		copy(path, headings)
		sections = append(sections, section{headings: path, text: content})
	}

	for _, line := range strings.Split(text, "\n") {
		if level, title, ok := parseHeading(line); ok {
			flush()
			if level <= len(headings) {
				headings = headings[:level-1]
			}
			headings = append(headings, title)
			continue
		}
		buf.WriteString(line)
		buf.WriteString("\n")
	}
	flush()

	return sections
}

// parseHeading recognizes markdown ATX headings ("## Title").
func parseHeading(line string) (level int, title string, ok bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "#") {
		return 0, "", false
	}
	level = 0
	for level < len(trimmed) && trimmed[level] == '#' {
		level++
	}
	if level > 6 {
		return 0, "", false
	}
	rest := strings.TrimSpace(trimmed[level:])
	if rest == "" {
		return 0, "", false
	}
	return level, rest, true
}
