package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-kb/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// SearchService embeds queries and ranks chunks by vector similarity.
type SearchService struct {
	embedder driven.EmbeddingService
	index    driven.VectorIndex
}

// NewSearchService creates a new search service.
func NewSearchService(embedder driven.EmbeddingService, index driven.VectorIndex) *SearchService {
	return &SearchService{embedder: embedder, index: index}
}

// Retrieve returns up to opts.TopK hits for query, best first.
// A blank query returns no hits.
func (s *SearchService) Retrieve(ctx context.Context, query string, opts domain.RetrieveOptions) ([]domain.Hit, error) {
	logger.Section("Retrieve")
	logger.Debug("Query: %q, document: %q, top_k: %d", query, opts.DocumentID, opts.TopK)

	query = strings.TrimSpace(query)
	if query == "" {
		logger.Debug("Empty query, returning no results")
		return []domain.Hit{}, nil
	}

	topK := opts.TopK
	if topK <= 0 {
		topK = domain.DefaultTopK
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := s.index.Query(ctx, vector, topK, opts.DocumentID)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}

	for i, h := range hits {
		logger.Debug("  [%d] %s score=%.4f", i+1, h.ID, h.Score)
	}
	return hits, nil
}
