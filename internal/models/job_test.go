package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseJobArgsDefaults(t *testing.T) {
	cfg, warnings := ParseJobArgs("/in", "/out/chunks.json", nil)

	assert.Empty(t, warnings)
	assert.Equal(t, "/in", cfg.InputDir)
	assert.Equal(t, "/out/chunks.json", cfg.OutputFile)
	assert.Equal(t, 512, cfg.MaxTokens)
	assert.True(t, cfg.MergePeers)
	assert.True(t, cfg.EnableFormula)
	assert.False(t, cfg.EnablePictureDescription)
	assert.True(t, cfg.EnableOCR)
	assert.True(t, cfg.EnableTableStructure)
	assert.Equal(t, 100, cfg.PictureDescriptionMaxTokens)
	assert.False(t, cfg.Resume)
	assert.Equal(t, 4, cfg.VisionBatchSize)
	assert.Equal(t, 4, cfg.ProcessingBatchSize)
}

func TestParseJobArgsFull(t *testing.T) {
	rest := []string{
		"256", "false", "false", "true", "true", "true",
		"false", "false", "50", "true", "2", "8",
	}
	cfg, warnings := ParseJobArgs("/in", "/out.json", rest)

	assert.Empty(t, warnings)
	assert.Equal(t, 256, cfg.MaxTokens)
	assert.False(t, cfg.MergePeers)
	assert.False(t, cfg.EnableFormula)
	assert.True(t, cfg.EnablePictureClassification)
	assert.True(t, cfg.EnablePictureDescription)
	assert.True(t, cfg.EnableCodeEnrichment)
	assert.False(t, cfg.EnableOCR)
	assert.False(t, cfg.EnableTableStructure)
	assert.Equal(t, 50, cfg.PictureDescriptionMaxTokens)
	assert.True(t, cfg.Resume)
	assert.Equal(t, 2, cfg.VisionBatchSize)
	assert.Equal(t, 8, cfg.ProcessingBatchSize)
}

func TestParseJobArgsPartial(t *testing.T) {
	cfg, warnings := ParseJobArgs("/in", "/out.json", []string{"128", "false"})

	assert.Empty(t, warnings)
	assert.Equal(t, 128, cfg.MaxTokens)
	assert.False(t, cfg.MergePeers)
	// Untouched trailing options keep their defaults.
	assert.True(t, cfg.EnableFormula)
}

func TestParseJobArgsInvalidIntFallsBack(t *testing.T) {
	cfg, warnings := ParseJobArgs("/in", "/out.json", []string{"lots"})

	assert.Equal(t, 512, cfg.MaxTokens)
	assert.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "max_tokens")
	assert.Contains(t, warnings[0], "lots")
}

func TestParseBool(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"true", true},
		{"TRUE", true},
		{" True ", true},
		{"false", false},
		{"1", false},
		{"yes", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseBool(tt.in), tt.in)
	}
}

func TestEnrichmentCount(t *testing.T) {
	assert.Equal(t, 3, DefaultJobConfig().EnrichmentCount())
	assert.Equal(t, 0, JobConfig{}.EnrichmentCount())

	all := JobConfig{
		EnableFormula:               true,
		EnablePictureClassification: true,
		EnablePictureDescription:    true,
		EnableCodeEnrichment:        true,
		EnableOCR:                   true,
		EnableTableStructure:        true,
	}
	assert.Equal(t, 6, all.EnrichmentCount())
}
