// Package output owns the result document on disk. The document is
// rewritten after every completed work unit so an interrupted job keeps
// everything appended so far.
package output

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/raphaelgruber/docchunk-go/internal/models"
)

// Method names the chunking strategy recorded in the document.
const Method = "hybrid-token"

// Stats summarizes the document for quick inspection.
type Stats struct {
	TotalChunks int     `json:"total_chunks"`
	TotalFiles  int     `json:"total_files"`
	AvgTokens   float64 `json:"avg_tokens"`
}

// Document is the persisted output: all chunk records plus the job
// configuration that produced them. Units tracks appended work unit ids so
// a replayed unit is never appended twice.
type Document struct {
	Method         string               `json:"method"`
	Config         models.JobConfig     `json:"config"`
	ProcessedFiles []string             `json:"processed_files"`
	Units          []string             `json:"units"`
	Chunks         []models.ChunkRecord `json:"chunks"`
	Stats          Stats                `json:"stats"`
}

// Writer appends chunk batches to the document and persists it atomically.
type Writer struct {
	path string
	doc  *Document
}

// NewWriter creates a writer for the given output path. Open must be
// called before Append.
func NewWriter(path string) *Writer {
	return &Writer{path: path}
}

// Open prepares the in-memory document. With resume set, an existing
// readable document at the path is loaded so prior units survive; a
// missing or corrupt file falls back to a fresh document.
func (w *Writer) Open(cfg models.JobConfig, resume bool) error {
	if resume {
		doc, err := Load(w.path)
		if err != nil {
			slog.Warn("existing output unreadable, starting fresh", "path", w.path, "error", err)
		} else if doc != nil {
			w.doc = doc
			w.doc.Config = cfg
			return nil
		}
	}

	w.doc = &Document{
		Method: Method,
		Config: cfg,
	}
	return nil
}

// Append records one completed work unit's chunks and persists the
// document. Appending a unit id already in the document is a no-op, which
// makes replays after a lost checkpoint write safe.
func (w *Writer) Append(unitID, sourceFile, part string, chunks []models.Chunk) error {
	if w.doc == nil {
		return fmt.Errorf("writer not opened")
	}
	if slices.Contains(w.doc.Units, unitID) {
		slog.Debug("skipping already appended unit", "unit", unitID)
		return nil
	}

	for _, c := range chunks {
		w.doc.Chunks = append(w.doc.Chunks, models.ChunkRecord{
			Text:   c.Text,
			Tokens: c.Tokens,
			Metadata: models.ChunkMetadata{
				Source:   sourceFile,
				Part:     part,
				Headings: c.Headings,
			},
		})
	}
	w.doc.Units = append(w.doc.Units, unitID)
	if !slices.Contains(w.doc.ProcessedFiles, sourceFile) {
		w.doc.ProcessedFiles = append(w.doc.ProcessedFiles, sourceFile)
	}
	w.refreshStats()

	return w.persist()
}

// ChunkCount returns the number of chunks in the document.
func (w *Writer) ChunkCount() int {
	if w.doc == nil {
		return 0
	}
	return len(w.doc.Chunks)
}

// FileCount returns the number of distinct source files in the document.
func (w *Writer) FileCount() int {
	if w.doc == nil {
		return 0
	}
	return len(w.doc.ProcessedFiles)
}

// HasUnit reports whether a work unit id was already appended.
func (w *Writer) HasUnit(unitID string) bool {
	return w.doc != nil && slices.Contains(w.doc.Units, unitID)
}

func (w *Writer) refreshStats() {
	total := 0
	for _, c := range w.doc.Chunks {
		total += c.Tokens
	}
	avg := 0.0
	if len(w.doc.Chunks) > 0 {
		avg = float64(total) / float64(len(w.doc.Chunks))
	}
	w.doc.Stats = Stats{
		TotalChunks: len(w.doc.Chunks),
		TotalFiles:  len(w.doc.ProcessedFiles),
		AvgTokens:   avg,
	}
}

// persist writes the document through a temp file in the same directory
// and renames it into place, so readers never observe a partial document.
func (w *Writer) persist() error {
	data, err := json.MarshalIndent(w.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}

	dir := filepath.Dir(w.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(w.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp output: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write output: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close output: %w", err)
	}
	if err := os.Rename(tmpPath, w.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace output: %w", err)
	}
	return nil
}

// Load reads a document from disk. A missing file returns (nil, nil).
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read output: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse output: %w", err)
	}
	return &doc, nil
}
