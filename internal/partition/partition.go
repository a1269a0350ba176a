// Package partition splits oversized documents into bounded page ranges so
// each unit of work fits in bounded memory when an expensive enrichment is
// enabled. Splitting is an optimization: any failure falls back to the
// whole document as a single work unit.
package partition

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/raphaelgruber/docchunk-go/internal/models"
)

// Materializer extracts a page range of a source document into a
// standalone sub-document file.
type Materializer interface {
	ExtractRange(src string, first, last int, dst string) error
}

// Config controls when and how documents are split.
type Config struct {
	// Enabled gates splitting entirely; the driver sets it only when a
	// memory-expensive enrichment is requested.
	Enabled bool
	// Threshold is the page count above which a document is split.
	Threshold int
	// RangeSize is the page count per partition.
	RangeSize int
}

// Planner decides whether a document is split and materializes the ranges.
type Planner struct {
	cfg Config
	mat Materializer
}

// NewPlanner creates a planner. mat may be nil when cfg.Enabled is false.
func NewPlanner(cfg Config, mat Materializer) *Planner {
	return &Planner{cfg: cfg, mat: mat}
}

// Ranges computes the page ranges for a document of pages pages split into
// ranges of size size: consecutive, non-overlapping, covering [1, pages]
// exactly, numbering ceil(pages/size). The last range absorbs the
// remainder.
func Ranges(pages, size int) []models.PageRange {
	if pages <= 0 || size <= 0 {
		return nil
	}
	count := (pages + size - 1) / size
	ranges := make([]models.PageRange, 0, count)
	for i := 0; i < count; i++ {
		first := i*size + 1
		last := first + size - 1
		if last > pages {
			last = pages
		}
		ranges = append(ranges, models.PageRange{First: first, Last: last})
	}
	return ranges
}

// Plan returns the work units for one document. A document is split only
// when splitting is enabled and its page count exceeds the threshold;
// otherwise it is returned unchanged as the sole unit. When splitting
// fails the whole document is returned as one unit and the error is
// advisory; the caller logs it and proceeds.
func (p *Planner) Plan(source string, index, pages int) ([]models.WorkUnit, error) {
	whole := []models.WorkUnit{{
		Source:   source,
		Path:     source,
		Index:    index,
		Siblings: 1,
		Pages:    pages,
	}}

	if !p.cfg.Enabled || pages <= p.cfg.Threshold || p.cfg.RangeSize <= 0 {
		return whole, nil
	}
	if p.mat == nil {
		return whole, fmt.Errorf("no materializer configured")
	}

	workDir := workDirFor(source)
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return whole, fmt.Errorf("create working directory: %w", err)
	}

	ranges := Ranges(pages, p.cfg.RangeSize)
	units := make([]models.WorkUnit, 0, len(ranges))
	for _, r := range ranges {
		sub := filepath.Join(workDir, fmt.Sprintf("%s_%s.txt", stem(source), r.Label()))
		if err := p.mat.ExtractRange(source, r.First, r.Last, sub); err != nil {
			return whole, fmt.Errorf("materialize %s: %w", r.Label(), err)
		}
		rr := r
		units = append(units, models.WorkUnit{
			Source:   source,
			Path:     sub,
			Index:    index,
			Siblings: len(ranges),
			Pages:    r.Pages(),
			Range:    &rr,
		})
	}
	return units, nil
}

// workDirFor returns the sibling working directory that holds a document's
// materialized sub-documents. Working artifacts, not job output.
func workDirFor(source string) string {
	return filepath.Join(filepath.Dir(source), stem(source)+"_parts")
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
