package output

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/docchunk-go/internal/models"
)

func newOpenWriter(t *testing.T) (*Writer, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chunks.json")
	w := NewWriter(path)
	require.NoError(t, w.Open(models.DefaultJobConfig(), false))
	return w, path
}

func TestAppendPersistsIncrementally(t *testing.T) {
	w, path := newOpenWriter(t)

	chunks := []models.Chunk{
		{Text: "alpha", Tokens: 10, Headings: []string{"Intro"}},
		{Text: "beta", Tokens: 20},
	}
	require.NoError(t, w.Append("/in/a.pdf", "/in/a.pdf", "", chunks))

	// The document on disk is complete after every append.
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"method": "hybrid-token"`)

	doc, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, Method, doc.Method)
	require.Len(t, doc.Chunks, 2)
	assert.Equal(t, "alpha", doc.Chunks[0].Text)
	assert.Equal(t, "/in/a.pdf", doc.Chunks[0].Metadata.Source)
	assert.Equal(t, []string{"Intro"}, doc.Chunks[0].Metadata.Headings)
	assert.Equal(t, []string{"/in/a.pdf"}, doc.ProcessedFiles)
	assert.Equal(t, 2, doc.Stats.TotalChunks)
	assert.Equal(t, 1, doc.Stats.TotalFiles)
	assert.Equal(t, 15.0, doc.Stats.AvgTokens)
}

func TestAppendDuplicateUnitIsNoop(t *testing.T) {
	w, _ := newOpenWriter(t)

	chunks := []models.Chunk{{Text: "alpha", Tokens: 5}}
	require.NoError(t, w.Append("/in/a.pdf#p1-100", "/in/a.pdf", "p1-100", chunks))
	require.NoError(t, w.Append("/in/a.pdf#p1-100", "/in/a.pdf", "p1-100", chunks))

	assert.Equal(t, 1, w.ChunkCount())
	assert.True(t, w.HasUnit("/in/a.pdf#p1-100"))
	assert.False(t, w.HasUnit("/in/a.pdf#p101-200"))
}

func TestPartitionedUnitsShareSourceFile(t *testing.T) {
	w, _ := newOpenWriter(t)

	require.NoError(t, w.Append("/in/a.pdf#p1-100", "/in/a.pdf", "p1-100",
		[]models.Chunk{{Text: "x", Tokens: 1}}))
	require.NoError(t, w.Append("/in/a.pdf#p101-150", "/in/a.pdf", "p101-150",
		[]models.Chunk{{Text: "y", Tokens: 1}}))

	assert.Equal(t, 2, w.ChunkCount())
	assert.Equal(t, 1, w.FileCount())
}

func TestOpenResumeLoadsExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chunks.json")

	first := NewWriter(path)
	require.NoError(t, first.Open(models.DefaultJobConfig(), false))
	require.NoError(t, first.Append("/in/a.pdf", "/in/a.pdf",
		"", []models.Chunk{{Text: "x", Tokens: 1}}))

	resumed := NewWriter(path)
	require.NoError(t, resumed.Open(models.DefaultJobConfig(), true))
	assert.Equal(t, 1, resumed.ChunkCount())
	assert.True(t, resumed.HasUnit("/in/a.pdf"))
}

func TestOpenResumeCorruptFallsBackFresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chunks.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	w := NewWriter(path)
	require.NoError(t, w.Open(models.DefaultJobConfig(), true))
	assert.Equal(t, 0, w.ChunkCount())
}

func TestOpenFreshIgnoresExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chunks.json")

	first := NewWriter(path)
	require.NoError(t, first.Open(models.DefaultJobConfig(), false))
	require.NoError(t, first.Append("/in/a.pdf", "/in/a.pdf",
		"", []models.Chunk{{Text: "x", Tokens: 1}}))

	fresh := NewWriter(path)
	require.NoError(t, fresh.Open(models.DefaultJobConfig(), false))
	assert.Equal(t, 0, fresh.ChunkCount())
}

func TestAppendBeforeOpen(t *testing.T) {
	w := NewWriter(filepath.Join(t.TempDir(), "chunks.json"))
	assert.Error(t, w.Append("/in/a.pdf", "/in/a.pdf", "", nil))
}

func TestLoadAbsent(t *testing.T) {
	doc, err := Load(filepath.Join(t.TempDir(), "chunks.json"))
	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestNoPartialDocumentOnDisk(t *testing.T) {
	w, path := newOpenWriter(t)
	require.NoError(t, w.Append("/in/a.pdf", "/in/a.pdf",
		"", []models.Chunk{{Text: "x", Tokens: 1}}))

	// No leftover temp files beside the output.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, filepath.Base(path), entries[0].Name())
}
