// Package memory provides an in-process vector index using brute-force cosine similarity.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Index keeps records in a map guarded by a RWMutex.
// Suitable for development, tests and small corpora.
type Index struct {
	mu        sync.RWMutex
	records   map[string]domain.IndexRecord
	dimension int
}

// NewIndex creates an empty index. A dimension of zero accepts any vector length.
func NewIndex(dimension int) *Index {
	return &Index{
		records:   make(map[string]domain.IndexRecord),
		dimension: dimension,
	}
}

// Upsert stores records, replacing existing ones by ID.
func (idx *Index) Upsert(_ context.Context, records []domain.IndexRecord) error {
	for _, r := range records {
		if r.ID == "" {
			return fmt.Errorf("memory index: empty record id: %w", domain.ErrInvalidInput)
		}
		if idx.dimension > 0 && len(r.Vector) != idx.dimension {
			return fmt.Errorf("memory index: record %s has %d dimensions, want %d: %w",
				r.ID, len(r.Vector), idx.dimension, domain.ErrInvalidInput)
		}
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	for _, r := range records {
		r.Vector = append([]float32(nil), r.Vector...)
		idx.records[r.ID] = r
	}
	return nil
}

// Query ranks records by cosine similarity to vector.
func (idx *Index) Query(_ context.Context, vector []float32, topK int, documentID string) ([]domain.Hit, error) {
	if topK <= 0 {
		return []domain.Hit{}, nil
	}

	idx.mu.RLock()
	hits := make([]domain.Hit, 0, len(idx.records))
	for _, r := range idx.records {
		if documentID != "" && r.Metadata.DocumentID != documentID {
			continue
		}
		hits = append(hits, domain.Hit{
			ID:       r.ID,
			Text:     r.Text,
			Metadata: r.Metadata,
			Score:    CosineSimilarity(vector, r.Vector),
		})
	}
	idx.mu.RUnlock()

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ID < hits[j].ID
	})

	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// FetchByDocument returns up to limit records of one document in chunk order.
func (idx *Index) FetchByDocument(_ context.Context, documentID string, limit int) ([]domain.Hit, error) {
	idx.mu.RLock()
	hits := make([]domain.Hit, 0)
	for _, r := range idx.records {
		if r.Metadata.DocumentID == documentID {
			hits = append(hits, domain.Hit{ID: r.ID, Text: r.Text, Metadata: r.Metadata})
		}
	}
	idx.mu.RUnlock()

	sort.Slice(hits, func(i, j int) bool {
		return hits[i].Metadata.ChunkIndex < hits[j].Metadata.ChunkIndex
	})

	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// DeleteDocument removes every record of one document.
func (idx *Index) DeleteDocument(_ context.Context, documentID string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for id, r := range idx.records {
		if r.Metadata.DocumentID == documentID {
			delete(idx.records, id)
		}
	}
	return nil
}

// Count returns the number of stored records.
func (idx *Index) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.records)
}

// Close is a no-op for the in-memory index.
func (idx *Index) Close() error {
	return nil
}

// CosineSimilarity returns the cosine of the angle between a and b.
// Mismatched lengths and zero vectors score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
