package convert

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/docchunk-go/internal/models"
)

func TestOptionsFromJob(t *testing.T) {
	cfg := models.DefaultJobConfig()
	cfg.EnablePictureDescription = true
	cfg.VisionBatchSize = 2

	opts := OptionsFromJob(cfg)

	assert.True(t, opts.EnableFormula)
	assert.True(t, opts.EnablePictureDescription)
	assert.True(t, opts.EnableOCR)
	assert.Equal(t, 100, opts.PictureDescriptionMaxTokens)
	assert.Equal(t, 2, opts.VisionBatchSize)
}

func TestConvertRejectsImageWithoutOCR(t *testing.T) {
	c := New(Options{EnableOCR: false})

	_, err := c.Convert(context.Background(), "/in/scan.jpg")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "ocr disabled")
}

func TestConvertHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := New(Options{EnableOCR: true})
	_, err := c.Convert(ctx, "/in/doc.pdf")

	assert.ErrorIs(t, err, context.Canceled)
}

func TestConvertMissingFile(t *testing.T) {
	c := New(Options{EnableOCR: true})

	_, err := c.Convert(context.Background(), "/nonexistent/doc.txt")

	assert.Error(t, err)
}
