package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-kb/internal/logger"
)

// Indexer embeds chunk texts and writes them to the vector index.
// It is the client-side half of the index contract: callers supply ids,
// texts and metadata, the indexer supplies the vectors.
type Indexer struct {
	embedder driven.EmbeddingService
	index    driven.VectorIndex
}

// NewIndexer creates a new indexer.
func NewIndexer(embedder driven.EmbeddingService, index driven.VectorIndex) *Indexer {
	return &Indexer{embedder: embedder, index: index}
}

// Upsert embeds texts and writes one record per id.
// The three slices must have equal length. Re-upserting an id replaces it.
func (x *Indexer) Upsert(ctx context.Context, ids, texts []string, metas []domain.ChunkMetadata) error {
	if len(ids) != len(texts) || len(ids) != len(metas) {
		return fmt.Errorf("%w: %d ids, %d texts, %d metadatas",
			domain.ErrInvalidInput, len(ids), len(texts), len(metas))
	}
	if len(ids) == 0 {
		return nil
	}

	vectors, err := x.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(texts) {
		return fmt.Errorf("%w: embedder returned %d vectors for %d texts",
			domain.ErrEmbeddingUnavailable, len(vectors), len(texts))
	}

	records := make([]domain.IndexRecord, len(ids))
	for i := range ids {
		records[i] = domain.IndexRecord{
			ID:       ids[i],
			Vector:   vectors[i],
			Text:     texts[i],
			Metadata: metas[i],
		}
	}

	logger.Debug("Upserting %d records (dim=%d)", len(records), x.embedder.Dimensions())
	if err := x.index.Upsert(ctx, records); err != nil {
		return fmt.Errorf("upsert records: %w", err)
	}
	return nil
}

// IndexChunks writes the chunks of one document with "<document_id>:<chunk_index>" ids.
func (x *Indexer) IndexChunks(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) error {
	ids := make([]string, len(chunks))
	texts := make([]string, len(chunks))
	metas := make([]domain.ChunkMetadata, len(chunks))
	for i, c := range chunks {
		ids[i] = domain.ChunkID(doc.ID, c.Index)
		texts[i] = c.Text
		metas[i] = domain.ChunkMetadata{
			DocumentID: doc.ID,
			ChunkIndex: c.Index,
			Filename:   doc.Filename,
		}
	}
	return x.Upsert(ctx, ids, texts, metas)
}
