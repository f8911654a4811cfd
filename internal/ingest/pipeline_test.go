package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexbase/knowledged/internal/chunker"
	"github.com/lexbase/knowledged/internal/config"
	"github.com/lexbase/knowledged/internal/extract"
	"github.com/lexbase/knowledged/internal/logging"
	"github.com/lexbase/knowledged/internal/vectorstore"
)

// fakeEmbedder returns a fixed-size vector per input, or fails on texts
// containing failOn.
type fakeEmbedder struct {
	failOn string
	calls  int
}

func (f *fakeEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		if f.failOn != "" && strings.Contains(text, f.failOn) {
			return nil, errors.New("embedding backend unavailable")
		}
		vectors[i] = []float32{float32(len(text)), 1, 0}
	}
	return vectors, nil
}

func (f *fakeEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	return []float32{float32(len(text)), 1, 0}, nil
}

// fakeStore is an in-memory Store with per-id failure injection.
type fakeStore struct {
	entries     map[string]vectorstore.Entry
	failUpserts map[string]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		entries:     make(map[string]vectorstore.Entry),
		failUpserts: make(map[string]bool),
	}
}

func (s *fakeStore) EnsureCollection(context.Context, int) error { return nil }

func (s *fakeStore) Upsert(_ context.Context, entries []vectorstore.Entry) error {
	for _, entry := range entries {
		if s.failUpserts[entry.ID] {
			return errors.New("upsert rejected")
		}
		s.entries[entry.ID] = entry
	}
	return nil
}

func (s *fakeStore) Query(context.Context, []float32, int) ([]vectorstore.Match, error) {
	return nil, nil
}

func (s *fakeStore) Exists(_ context.Context, id string) (bool, error) {
	_, ok := s.entries[id]
	return ok, nil
}

func (s *fakeStore) Count(context.Context) (int, error) { return len(s.entries), nil }

func (s *fakeStore) Close() error { return nil }

func testConfig() config.IngestConfig {
	return config.IngestConfig{
		ChunkSize:   1000,
		Overlap:     200,
		OnDuplicate: config.DuplicateBlock,
	}
}

func newTestPipeline(store *fakeStore, cfg config.IngestConfig) *Pipeline {
	return NewPipeline(&fakeEmbedder{}, store, cfg, logging.NewNop())
}

func TestIngestText(t *testing.T) {
	store := newFakeStore()
	pipeline := newTestPipeline(store, testConfig())

	text := strings.Repeat("a", 2500)
	result, err := pipeline.IngestText(context.Background(), "handbook.pdf", text)
	require.NoError(t, err)

	assert.Equal(t, "handbook.pdf", result.Source)
	assert.Equal(t, 4, result.ChunksProduced)
	assert.Equal(t, 4, result.ChunksUploaded)
	assert.False(t, result.Replaced)
	assert.Len(t, store.entries, 4)

	first := store.entries[chunker.DeriveID("handbook.pdf", 0)]
	assert.Equal(t, "handbook.pdf", first.Payload.Source)
	assert.Equal(t, 0, first.Payload.ChunkIndex)
	assert.Equal(t, 4, first.Payload.TotalChunks)
	assert.Equal(t, first.ID, first.Payload.ID)
	assert.Len(t, first.Payload.Text, 1000)
}

func TestIngestTextEmpty(t *testing.T) {
	pipeline := newTestPipeline(newFakeStore(), testConfig())

	_, err := pipeline.IngestText(context.Background(), "blank.pdf", "")
	require.ErrorIs(t, err, ErrEmptyDocument)
}

func TestIngestTextDuplicateBlocked(t *testing.T) {
	store := newFakeStore()
	pipeline := newTestPipeline(store, testConfig())
	ctx := context.Background()

	_, err := pipeline.IngestText(ctx, "handbook.pdf", "some short document")
	require.NoError(t, err)

	_, err = pipeline.IngestText(ctx, "handbook.pdf", "some short document")
	require.ErrorIs(t, err, ErrAlreadyIngested)
	assert.Len(t, store.entries, 1)
}

func TestIngestTextDuplicateReplaced(t *testing.T) {
	store := newFakeStore()
	cfg := testConfig()
	cfg.OnDuplicate = config.DuplicateReplace
	pipeline := newTestPipeline(store, cfg)
	ctx := context.Background()

	_, err := pipeline.IngestText(ctx, "handbook.pdf", "original wording")
	require.NoError(t, err)

	result, err := pipeline.IngestText(ctx, "handbook.pdf", "revised wording!")
	require.NoError(t, err)
	assert.True(t, result.Replaced)
	assert.Len(t, store.entries, 1)
	assert.Equal(t, "revised wording!", store.entries[chunker.DeriveID("handbook.pdf", 0)].Payload.Text)
}

func TestIngestTextPartialFailure(t *testing.T) {
	store := newFakeStore()
	store.failUpserts[chunker.DeriveID("handbook.pdf", 2)] = true
	pipeline := newTestPipeline(store, testConfig())

	text := strings.Repeat("a", 2500)
	result, err := pipeline.IngestText(context.Background(), "handbook.pdf", text)
	require.NoError(t, err)

	assert.Equal(t, 4, result.ChunksProduced)
	assert.Equal(t, 3, result.ChunksUploaded)
	assert.Len(t, store.entries, 3)
}

func TestIngestTextAllChunksFail(t *testing.T) {
	store := newFakeStore()
	pipeline := NewPipeline(&fakeEmbedder{failOn: "a"}, store, testConfig(), logging.NewNop())

	_, err := pipeline.IngestText(context.Background(), "handbook.pdf", strings.Repeat("a", 1500))
	require.ErrorIs(t, err, ErrNoChunksUploaded)
	assert.Empty(t, store.entries)
}

func TestIngestUnsupportedFormat(t *testing.T) {
	pipeline := newTestPipeline(newFakeStore(), testConfig())

	_, err := pipeline.Ingest(context.Background(), "notes.docx", []byte("content"))
	require.ErrorIs(t, err, extract.ErrUnsupportedFormat)
}

func TestIngestCorruptPDF(t *testing.T) {
	pipeline := newTestPipeline(newFakeStore(), testConfig())

	_, err := pipeline.Ingest(context.Background(), "broken.pdf", []byte("not a pdf"))
	require.ErrorIs(t, err, ErrExtractionFailed)
}

func TestIndexText(t *testing.T) {
	store := newFakeStore()
	pipeline := newTestPipeline(store, testConfig())

	payload := vectorstore.Payload{Source: "manual-entry", ChunkIndex: 0, TotalChunks: 1}
	err := pipeline.IndexText(context.Background(), "custom-id", "severance pay rules", payload)
	require.NoError(t, err)

	entry := store.entries["custom-id"]
	assert.Equal(t, "severance pay rules", entry.Payload.Text)
	assert.Equal(t, "custom-id", entry.Payload.ID)
	assert.Equal(t, "manual-entry", entry.Payload.Source)
}

func TestIndexTextEmpty(t *testing.T) {
	pipeline := newTestPipeline(newFakeStore(), testConfig())

	err := pipeline.IndexText(context.Background(), "id", "", vectorstore.Payload{})
	require.ErrorIs(t, err, ErrEmptyDocument)
}

func TestExists(t *testing.T) {
	store := newFakeStore()
	pipeline := newTestPipeline(store, testConfig())
	ctx := context.Background()

	_, err := pipeline.IngestText(ctx, "handbook.pdf", "short document")
	require.NoError(t, err)

	exists, err := pipeline.Exists(ctx, chunker.DeriveID("handbook.pdf", 0))
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = pipeline.Exists(ctx, "missing-id")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestIngestAllIsolatesFailures(t *testing.T) {
	store := newFakeStore()
	pipeline := newTestPipeline(store, testConfig())

	results := pipeline.IngestAll(context.Background(), []File{
		{Name: "unsupported.txt", Content: []byte("plain text")},
		{Name: "broken.pdf", Content: []byte("garbage")},
	})

	require.Len(t, results, 2)
	assert.ErrorIs(t, results[0].Err, extract.ErrUnsupportedFormat)
	assert.ErrorIs(t, results[1].Err, ErrExtractionFailed)
}

func TestIngestAllCancelledContext(t *testing.T) {
	pipeline := newTestPipeline(newFakeStore(), testConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := pipeline.IngestAll(ctx, []File{{Name: "handbook.pdf"}})
	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Err, context.Canceled)
}
