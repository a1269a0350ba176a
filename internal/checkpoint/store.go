// Package checkpoint persists resume state for interrupted jobs. The
// record lives beside the output file and maps the job to its completed
// work units; it is separate from the output and safe to delete.
package checkpoint

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/raphaelgruber/docchunk-go/internal/models"
)

// marker prefixes the checkpoint file name, derived from the output's base
// name so concurrent jobs with different outputs never collide.
const marker = ".checkpoint_"

// StaleAfter is the trust window. Older records are treated as absent: the
// input directory has likely changed too much for unit ids to be valid.
const StaleAfter = 7 * 24 * time.Hour

// Record is the persisted resume state for one job, keyed by output path.
type Record struct {
	OutputFile      string           `json:"output_file"`
	CompletedChunks []string         `json:"completed_chunks"`
	CurrentFileIdx  int              `json:"current_file_idx"`
	TotalFiles      int              `json:"total_files"`
	Config          models.JobConfig `json:"config"`
	Timestamp       int64            `json:"timestamp"`
}

// Completed reports whether a work unit id is recorded as done.
func (r *Record) Completed(unitID string) bool {
	return slices.Contains(r.CompletedChunks, unitID)
}

// MarkCompleted appends a unit id. The completed set is strictly
// append-only within a run.
func (r *Record) MarkCompleted(unitID string) {
	if !r.Completed(unitID) {
		r.CompletedChunks = append(r.CompletedChunks, unitID)
	}
}

// Store reads and writes checkpoint records.
type Store struct {
	// now is injectable for staleness tests.
	now func() time.Time
}

// NewStore creates a store using wall-clock time.
func NewStore() *Store {
	return &Store{now: time.Now}
}

// Path returns the checkpoint location for an output path: same directory,
// base name prefixed with the marker.
func (s *Store) Path(outputPath string) string {
	return filepath.Join(filepath.Dir(outputPath), marker+filepath.Base(outputPath))
}

// Save serializes the record, overwriting any prior one. The timestamp is
// stamped here. Failure leaves resume unavailable but must not abort the
// job; callers log and continue.
func (s *Store) Save(outputPath string, rec *Record) error {
	rec.OutputFile = outputPath
	rec.Timestamp = s.now().Unix()

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}
	if err := os.WriteFile(s.Path(outputPath), data, 0644); err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}
	return nil
}

// Load returns the record for an output path, or nil when none exists, it
// is unreadable, or it is older than the staleness window. A stale record
// is logged as discarded.
func (s *Store) Load(outputPath string) (*Record, error) {
	data, err := os.ReadFile(s.Path(outputPath))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read checkpoint: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parse checkpoint: %w", err)
	}

	age := s.now().Sub(time.Unix(rec.Timestamp, 0))
	if age > StaleAfter {
		slog.Warn("discarding stale checkpoint",
			"path", s.Path(outputPath),
			"age_hours", int(age.Hours()))
		return nil, nil
	}

	return &rec, nil
}

// Clear removes the record. Called only after the job reaches full,
// verified success.
func (s *Store) Clear(outputPath string) error {
	if err := os.Remove(s.Path(outputPath)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove checkpoint: %w", err)
	}
	return nil
}
