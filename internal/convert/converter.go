// Package convert wraps the document-conversion library behind a narrow
// interface. Conversion is a black box: a blocking, unbounded-duration
// call with no progress hooks and no internal cancellation.
package convert

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"code.sajari.com/docconv"

	"github.com/raphaelgruber/docchunk-go/internal/models"
)

// Options mirrors the conversion library's pipeline configuration. Flags
// the library does not consume still shape the heartbeat cost model, so
// they are carried for contract fidelity.
type Options struct {
	EnableFormula               bool
	EnablePictureClassification bool
	EnablePictureDescription    bool
	EnableCodeEnrichment        bool
	EnableOCR                   bool
	EnableTableStructure        bool

	PictureDescriptionMaxTokens int
	VisionBatchSize             int
	ProcessingBatchSize         int
}

// OptionsFromJob maps a job configuration onto converter options.
func OptionsFromJob(cfg models.JobConfig) Options {
	return Options{
		EnableFormula:               cfg.EnableFormula,
		EnablePictureClassification: cfg.EnablePictureClassification,
		EnablePictureDescription:    cfg.EnablePictureDescription,
		EnableCodeEnrichment:        cfg.EnableCodeEnrichment,
		EnableOCR:                   cfg.EnableOCR,
		EnableTableStructure:        cfg.EnableTableStructure,
		PictureDescriptionMaxTokens: cfg.PictureDescriptionMaxTokens,
		VisionBatchSize:             cfg.VisionBatchSize,
		ProcessingBatchSize:         cfg.ProcessingBatchSize,
	}
}

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".bmp": true, ".tiff": true, ".tif": true,
}

// Converter converts files to structured documents via docconv.
type Converter struct {
	opts Options
}

// New creates a converter with the given pipeline options.
func New(opts Options) *Converter {
	return &Converter{opts: opts}
}

// Convert runs the blocking conversion of the file at path. The context is
// consulted only before the call starts; the library call itself cannot be
// interrupted safely once in flight.
func (c *Converter) Convert(ctx context.Context, path string) (*models.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(path))
	if imageExtensions[ext] && !c.opts.EnableOCR {
		return nil, fmt.Errorf("ocr disabled, cannot extract text from image %s", filepath.Base(path))
	}

	start := time.Now()
	res, err := docconv.ConvertPath(path)
	if err != nil {
		return nil, fmt.Errorf("convert %s: %w", filepath.Base(path), err)
	}
	if strings.TrimSpace(res.Body) == "" {
		return nil, fmt.Errorf("convert %s: no text extracted", filepath.Base(path))
	}

	slog.Debug("converted document",
		"file", filepath.Base(path),
		"chars", len(res.Body),
		"duration_ms", time.Since(start).Milliseconds())

	return &models.Document{Source: path, Text: res.Body}, nil
}
