package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/docchunk-go/internal/events"
	"github.com/raphaelgruber/docchunk-go/internal/models"
)

func TestAnnounceEnrichmentsOneEventPerOption(t *testing.T) {
	var buf bytes.Buffer
	emitter := events.NewEmitter(&buf, "test")

	cfg := models.DefaultJobConfig()
	announceEnrichments(emitter, cfg)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	// Six option events plus the chunking-settings event.
	require.Len(t, lines, 7)

	out := buf.String()
	assert.Contains(t, out, "formula enrichment: enabled")
	assert.Contains(t, out, "picture classification: disabled")
	assert.Contains(t, out, "picture description: disabled")
	assert.Contains(t, out, "code enrichment: disabled")
	assert.Contains(t, out, "ocr: enabled")
	assert.Contains(t, out, "table structure: enabled")
	assert.Contains(t, out, "max_tokens=512")
	assert.Contains(t, out, "merge_peers=true")
}

func TestAnnounceEnrichmentsAllDisabled(t *testing.T) {
	var buf bytes.Buffer
	emitter := events.NewEmitter(&buf, "test")

	announceEnrichments(emitter, models.JobConfig{MaxTokens: 512})

	// Disabled options are still announced.
	assert.Contains(t, buf.String(), "ocr: disabled")
	assert.NotContains(t, buf.String(), ": enabled")
}
