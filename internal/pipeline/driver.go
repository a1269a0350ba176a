// Package pipeline drives a chunking job end to end: enumerate, plan,
// convert, chunk, persist, checkpoint. Failures are document-scoped; one
// bad document never aborts the job.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/raphaelgruber/docchunk-go/internal/checkpoint"
	"github.com/raphaelgruber/docchunk-go/internal/events"
	"github.com/raphaelgruber/docchunk-go/internal/heartbeat"
	"github.com/raphaelgruber/docchunk-go/internal/models"
)

// supportedExtensions is the enumeration allow-list, matched
// case-insensitively against file extensions.
var supportedExtensions = map[string]bool{
	".pdf": true, ".docx": true, ".doc": true,
	".xlsx": true, ".xls": true, ".pptx": true, ".ppt": true,
	".md": true, ".txt": true, ".rst": true,
	".html": true, ".htm": true,
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".bmp": true, ".tiff": true, ".tif": true,
}

// heartbeatStopTimeout bounds the join on the heartbeat goroutine after a
// conversion returns.
const heartbeatStopTimeout = 2 * time.Second

// Converter turns one file into a structured document.
type Converter interface {
	Convert(ctx context.Context, path string) (*models.Document, error)
}

// ChunkStream yields a document's chunks one at a time.
type ChunkStream interface {
	Next() (models.Chunk, bool)
	Err() error
}

// Chunker produces a lazy chunk stream for a converted document.
type Chunker interface {
	Chunk(doc *models.Document) ChunkStream
}

// PageProber counts pages in page-oriented documents.
type PageProber interface {
	PageCount(path string) (int, error)
}

// Planner maps a document to its work units, splitting oversized ones.
type Planner interface {
	Plan(source string, index, pages int) ([]models.WorkUnit, error)
}

// Heartbeat brackets a blocking conversion call with estimated progress.
type Heartbeat interface {
	Start(p events.Progress, est heartbeat.Estimate)
	Stop(timeout time.Duration) bool
}

// Sink owns the result document on disk.
type Sink interface {
	Open(cfg models.JobConfig, resume bool) error
	Append(unitID, sourceFile, part string, chunks []models.Chunk) error
	HasUnit(unitID string) bool
	ChunkCount() int
	FileCount() int
}

// CheckpointStore persists resume state.
type CheckpointStore interface {
	Load(outputPath string) (*checkpoint.Record, error)
	Save(outputPath string, rec *checkpoint.Record) error
	Clear(outputPath string) error
}

// Deps are the components a driver runs. All are required except Prober,
// which may be nil when page counting is unavailable.
type Deps struct {
	Converter Converter
	Chunker   Chunker
	Prober    PageProber
	Planner   Planner
	Heartbeat Heartbeat
	Sink      Sink
	Store     CheckpointStore
	Emitter   *events.Emitter
}

// Driver executes one job.
type Driver struct {
	cfg  models.JobConfig
	deps Deps
}

// New creates a driver for one job configuration.
func New(cfg models.JobConfig, deps Deps) *Driver {
	return &Driver{cfg: cfg, deps: deps}
}

// Run executes the job and returns the result to print on stdout. The
// context is polled at document and unit boundaries; cancellation persists
// a checkpoint and reports a resumable failure.
func (d *Driver) Run(ctx context.Context) models.Result {
	files, err := d.enumerate()
	if err != nil {
		return d.failure(fmt.Errorf("enumerate input: %w", err))
	}
	if len(files) == 0 {
		return d.failure(fmt.Errorf("no supported files found in %s", d.cfg.InputDir))
	}

	rec := d.loadCheckpoint()
	resuming := rec != nil
	if rec == nil {
		rec = &checkpoint.Record{Config: d.cfg}
	}
	rec.TotalFiles = len(files)

	if err := d.deps.Sink.Open(d.cfg, resuming); err != nil {
		return d.failure(fmt.Errorf("open output: %w", err))
	}

	d.deps.Emitter.Emit(events.Info(fmt.Sprintf("processing %d files from %s", len(files), d.cfg.InputDir)))
	if resuming {
		d.deps.Emitter.Emit(events.Info(fmt.Sprintf("resuming: %d units already completed", len(rec.CompletedChunks))))
	}

	total := len(files)
	for i, path := range files {
		idx := i + 1
		if ctx.Err() != nil {
			return d.interrupted(rec)
		}
		// A resumed run skips every document that finished before the
		// recorded in-progress index; its units are all checkpointed.
		if resuming && idx < rec.CurrentFileIdx {
			slog.Debug("skipping document below resume index", "file", filepath.Base(path), "index", idx)
			continue
		}

		units := d.plan(path, idx)
		for _, unit := range units {
			if ctx.Err() != nil {
				return d.interrupted(rec)
			}
			if rec.Completed(unit.ID()) || d.deps.Sink.HasUnit(unit.ID()) {
				slog.Debug("skipping completed unit", "unit", unit.ID())
				continue
			}

			if err := d.processUnit(ctx, unit, idx, total); err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return d.interrupted(rec)
				}
				// Document-scoped failure: skip this document's remaining
				// units and move on.
				slog.Error("document failed", "file", filepath.Base(unit.Source), "error", err)
				break
			}

			rec.MarkCompleted(unit.ID())
			rec.CurrentFileIdx = idx
			if err := d.deps.Store.Save(d.cfg.OutputFile, rec); err != nil {
				d.deps.Emitter.Emit(events.Warning(fmt.Sprintf("checkpoint write failed: %v", err)))
			}
		}
	}

	if d.deps.Sink.ChunkCount() == 0 {
		return d.failure(fmt.Errorf("no chunks produced from %d files", total))
	}

	d.deps.Emitter.Emit(events.Info(fmt.Sprintf("finalizing output: %d chunks from %d files",
		d.deps.Sink.ChunkCount(), d.deps.Sink.FileCount())))
	d.deps.Emitter.Emit(events.Info(fmt.Sprintf("saving output to %s", d.cfg.OutputFile)))
	if err := d.deps.Store.Clear(d.cfg.OutputFile); err != nil {
		slog.Warn("checkpoint cleanup failed", "error", err)
	}

	return models.Result{
		Success:        true,
		ChunksCount:    d.deps.Sink.ChunkCount(),
		FilesProcessed: d.deps.Sink.FileCount(),
		OutputFile:     d.cfg.OutputFile,
	}
}

// processUnit runs one work unit through convert, chunk, and persist. A
// returned error is either a document-scoped failure or a context
// cancellation; nil means the unit completed and was persisted.
func (d *Driver) processUnit(ctx context.Context, unit models.WorkUnit, idx, total int) error {
	p := events.Progress{
		Current: idx,
		Total:   total,
		File:    filepath.Base(unit.Source),
		Part:    unit.PartLabel(),
	}

	d.deps.Emitter.Emit(events.Converting(p, unit.Pages))
	d.deps.Heartbeat.Start(p, heartbeat.Estimate{
		Pages:       unit.Pages,
		Enrichments: d.cfg.EnrichmentCount(),
	})

	doc, err := d.deps.Converter.Convert(ctx, unit.Path)

	if !d.deps.Heartbeat.Stop(heartbeatStopTimeout) {
		slog.Warn("heartbeat did not stop in time", "file", p.File)
	}
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		d.deps.Emitter.Emit(events.ErrorEvent(p, err))
		return err
	}
	d.deps.Emitter.Emit(events.Converted(p, unit.Pages))

	stream := d.deps.Chunker.Chunk(doc)
	var chunks []models.Chunk
	for {
		c, ok := stream.Next()
		if !ok {
			break
		}
		chunks = append(chunks, c)
		d.deps.Emitter.Emit(events.Chunking(p, len(chunks)))
	}
	if err := stream.Err(); err != nil {
		err = fmt.Errorf("chunk %s: %w", p.File, err)
		d.deps.Emitter.Emit(events.ErrorEvent(p, err))
		return err
	}

	if err := d.deps.Sink.Append(unit.ID(), unit.Source, unit.PartLabel(), chunks); err != nil {
		err = fmt.Errorf("persist %s: %w", p.File, err)
		d.deps.Emitter.Emit(events.ErrorEvent(p, err))
		return err
	}
	d.deps.Emitter.Emit(events.Saved(p, len(chunks), d.deps.Sink.ChunkCount()))

	return nil
}

// enumerate lists the supported files in the input directory, sorted by
// name for a stable unit order across runs.
func (d *Driver) enumerate() ([]string, error) {
	entries, err := os.ReadDir(d.cfg.InputDir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if supportedExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			files = append(files, filepath.Join(d.cfg.InputDir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// plan probes the page count and asks the planner for the document's work
// units. Probe and split failures degrade to the whole document.
func (d *Driver) plan(path string, idx int) []models.WorkUnit {
	pages := 0
	if d.deps.Prober != nil && strings.EqualFold(filepath.Ext(path), ".pdf") {
		n, err := d.deps.Prober.PageCount(path)
		if err != nil {
			slog.Debug("page count unavailable", "file", filepath.Base(path), "error", err)
		} else {
			pages = n
		}
	}

	units, err := d.deps.Planner.Plan(path, idx, pages)
	if err != nil {
		d.deps.Emitter.Emit(events.Warning(fmt.Sprintf("partitioning %s failed, processing whole document: %v",
			filepath.Base(path), err)))
	}
	return units
}

// loadCheckpoint returns the prior record when resume is requested and a
// usable record exists. A config mismatch is reported but the record is
// still honored; the persisted output is the source of truth for chunks.
func (d *Driver) loadCheckpoint() *checkpoint.Record {
	if !d.cfg.Resume {
		return nil
	}
	rec, err := d.deps.Store.Load(d.cfg.OutputFile)
	if err != nil {
		d.deps.Emitter.Emit(events.Warning(fmt.Sprintf("checkpoint unreadable, starting fresh: %v", err)))
		return nil
	}
	if rec == nil {
		return nil
	}
	if rec.Config.MaxTokens != d.cfg.MaxTokens || rec.Config.MergePeers != d.cfg.MergePeers {
		d.deps.Emitter.Emit(events.Warning("checkpoint was written with different chunking settings"))
	}
	return rec
}

// interrupted persists resume state and reports a resumable failure.
func (d *Driver) interrupted(rec *checkpoint.Record) models.Result {
	if err := d.deps.Store.Save(d.cfg.OutputFile, rec); err != nil {
		d.deps.Emitter.Emit(events.Warning(fmt.Sprintf("checkpoint write failed: %v", err)))
	}
	d.deps.Emitter.Emit(events.Warning("interrupted, partial results are resumable"))
	return models.Result{
		Success:        false,
		Error:          "interrupted before completion",
		Resumable:      true,
		CompletedParts: rec.CompletedChunks,
		OutputFile:     d.cfg.OutputFile,
	}
}

func (d *Driver) failure(err error) models.Result {
	d.deps.Emitter.Emit(events.ErrorEvent(events.Progress{}, err))
	return models.Result{Success: false, Error: err.Error()}
}
