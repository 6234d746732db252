package services

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-kb/internal/adapters/driven/embedding/hashing"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driven/storage/localfs"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-kb/internal/extractors"
	"github.com/custodia-labs/sercha-kb/internal/postprocessors"
)

type ingestFixture struct {
	ingest    *IngestService
	search    *SearchService
	index     *faultyIndex
	docs      *memory.DocumentStore
	fileDir   string
	analytics *mockAnalytics
}

func newIngestFixture(t *testing.T, chunkSize int) *ingestFixture {
	t.Helper()

	fileDir := t.TempDir()
	files, err := localfs.NewFileStore(fileDir, 0)
	require.NoError(t, err)

	pipeline, err := postprocessors.NewDefaultPipeline(domain.PipelineConfigFor(domain.ChunkingSettings{
		Size:    chunkSize,
		Overlap: 0,
	}))
	require.NoError(t, err)

	embedder := hashing.NewEmbeddingService(hashing.DefaultDimensions)
	index := newFaultyIndex()
	docs := memory.NewDocumentStore()
	analytics := &mockAnalytics{}

	return &ingestFixture{
		ingest: NewIngestService(files, extractors.NewDefaultRegistry(), pipeline,
			NewIndexer(embedder, index), index, docs, analytics),
		search:    NewSearchService(embedder, index),
		index:     index,
		docs:      docs,
		fileDir:   fileDir,
		analytics: analytics,
	}
}

func (f *ingestFixture) storedFiles(t *testing.T) []os.DirEntry {
	t.Helper()
	entries, err := os.ReadDir(f.fileDir)
	require.NoError(t, err)
	return entries
}

func TestIngestService_EndToEnd(t *testing.T) {
	f := newIngestFixture(t, 1000)
	ctx := context.Background()

	res, err := f.ingest.IngestFile(ctx, driving.IngestRequest{
		Filename:    "note.txt",
		ContentType: "text/plain",
		Body:        strings.NewReader("Hello world.\n\nThis is a test."),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.DocumentID)
	assert.Equal(t, 1, res.Chunks)

	hits, err := f.search.Retrieve(ctx, "hello world", domain.RetrieveOptions{})
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, res.DocumentID+":0", hits[0].ID)
	assert.Equal(t, "note.txt", hits[0].Metadata.Filename)
	assert.Greater(t, hits[0].Score, 0.0)

	doc, err := f.docs.GetDocument(ctx, res.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, "txt", doc.Ext)
	assert.Equal(t, 1, doc.ChunkCount)
	assert.Equal(t, int64(len("Hello world.\n\nThis is a test.")), doc.Size)
	assert.FileExists(t, doc.StoragePath)

	assert.Equal(t, []domain.UsageEventType{domain.UsageDocumentUploaded}, f.analytics.recorded())
}

func TestIngestService_MultipleChunks(t *testing.T) {
	f := newIngestFixture(t, 30)

	res, err := f.ingest.IngestText(context.Background(), "notes.md",
		"First paragraph here.\n\nSecond paragraph here.\n\nThird paragraph here.")
	require.NoError(t, err)
	assert.Equal(t, 3, res.Chunks)

	fetched, err := f.index.FetchByDocument(context.Background(), res.DocumentID, 10)
	require.NoError(t, err)
	require.Len(t, fetched, 3)
	for i, h := range fetched {
		assert.Equal(t, domain.ChunkID(res.DocumentID, i), h.ID)
	}
}

func TestIngestService_Validation(t *testing.T) {
	f := newIngestFixture(t, 1000)
	ctx := context.Background()

	_, err := f.ingest.IngestFile(ctx, driving.IngestRequest{Filename: "", Body: strings.NewReader("x")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.ingest.IngestFile(ctx, driving.IngestRequest{
		Filename: "big.txt",
		Size:     domain.MaxUploadSize + 1,
		Body:     strings.NewReader("x"),
	})
	assert.ErrorIs(t, err, domain.ErrFileTooLarge)

	_, err = f.ingest.IngestText(ctx, "empty.txt", "  \n ")
	assert.ErrorIs(t, err, domain.ErrExtractionEmpty)

	assert.Empty(t, f.storedFiles(t))
}

func TestIngestService_BlankExtractionRemovesFile(t *testing.T) {
	f := newIngestFixture(t, 1000)

	_, err := f.ingest.IngestFile(context.Background(), driving.IngestRequest{
		Filename: "blank.txt",
		Body:     strings.NewReader(" \n\t\n"),
	})
	assert.ErrorIs(t, err, domain.ErrExtractionEmpty)
	assert.Empty(t, f.storedFiles(t))
	assert.Equal(t, 0, f.index.Count())
}

func TestIngestService_ParseErrorIsIndexed(t *testing.T) {
	f := newIngestFixture(t, 1000)

	res, err := f.ingest.IngestFile(context.Background(), driving.IngestRequest{
		Filename: "broken.docx",
		Body:     strings.NewReader("not a zip archive"),
	})
	require.NoError(t, err)

	fetched, err := f.index.FetchByDocument(context.Background(), res.DocumentID, 10)
	require.NoError(t, err)
	require.Len(t, fetched, 1)
	assert.True(t, extractors.IsParseError(fetched[0].Text))
}

func TestIngestService_IndexFailureRollsBack(t *testing.T) {
	f := newIngestFixture(t, 1000)
	f.index.upsertErr = domain.ErrIndexUnavailable
	ctx := context.Background()

	_, err := f.ingest.IngestFile(ctx, driving.IngestRequest{
		Filename: "note.txt",
		Body:     strings.NewReader("Some text."),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrIndexUnavailable))

	_, total, err := f.docs.ListDocuments(ctx, domain.DocumentQuery{}.Normalise())
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.Equal(t, int32(1), f.index.deletes.Load())
	assert.Empty(t, f.storedFiles(t))
	assert.Empty(t, f.analytics.recorded())
}

func TestIndexer_Upsert(t *testing.T) {
	index := newFaultyIndex()
	x := NewIndexer(hashing.NewEmbeddingService(8), index)
	ctx := context.Background()

	err := x.Upsert(ctx, []string{"a:0"}, []string{"one", "two"}, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	require.NoError(t, x.Upsert(ctx, nil, nil, nil))

	meta := domain.ChunkMetadata{DocumentID: "a", ChunkIndex: 0, Filename: "a.txt"}
	require.NoError(t, x.Upsert(ctx, []string{"a:0"}, []string{"first"}, []domain.ChunkMetadata{meta}))
	require.NoError(t, x.Upsert(ctx, []string{"a:0"}, []string{"replaced"}, []domain.ChunkMetadata{meta}))

	fetched, err := index.FetchByDocument(ctx, "a", 10)
	require.NoError(t, err)
	require.Len(t, fetched, 1)
	assert.Equal(t, "replaced", fetched[0].Text)
}

func TestSearchService_Retrieve(t *testing.T) {
	f := newIngestFixture(t, 1000)
	ctx := context.Background()

	a, err := f.ingest.IngestText(ctx, "a.txt", "Cats purr softly.")
	require.NoError(t, err)
	_, err = f.ingest.IngestText(ctx, "b.txt", "Rockets reach orbit.")
	require.NoError(t, err)

	t.Run("blank query returns no hits", func(t *testing.T) {
		hits, err := f.search.Retrieve(ctx, "   ", domain.RetrieveOptions{})
		require.NoError(t, err)
		assert.NotNil(t, hits)
		assert.Empty(t, hits)
	})

	t.Run("ranks best match first", func(t *testing.T) {
		hits, err := f.search.Retrieve(ctx, "cats purr", domain.RetrieveOptions{TopK: 2})
		require.NoError(t, err)
		require.Len(t, hits, 2)
		assert.Equal(t, a.DocumentID+":0", hits[0].ID)
		assert.GreaterOrEqual(t, hits[0].Score, hits[1].Score)
	})

	t.Run("filters by document", func(t *testing.T) {
		hits, err := f.search.Retrieve(ctx, "rockets", domain.RetrieveOptions{DocumentID: a.DocumentID})
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, a.DocumentID, hits[0].Metadata.DocumentID)
	})
}
