package driven

import (
	"context"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// VectorIndex stores chunk vectors with metadata and answers nearest-neighbour queries.
// Failures talking to the backing service wrap domain.ErrIndexUnavailable.
// Implementations are shared by concurrent requests.
type VectorIndex interface {
	// Upsert writes records keyed by ID. Re-adding an ID replaces it.
	Upsert(ctx context.Context, records []domain.IndexRecord) error

	// Query returns up to topK hits ordered best first.
	// A non-empty documentID restricts the search to that document.
	// No matching records is an empty result, not an error.
	Query(ctx context.Context, vector []float32, topK int, documentID string) ([]domain.Hit, error)

	// FetchByDocument returns up to limit records of one document, unranked.
	FetchByDocument(ctx context.Context, documentID string, limit int) ([]domain.Hit, error)

	// DeleteDocument removes every record of one document.
	DeleteDocument(ctx context.Context, documentID string) error

	// Close releases resources.
	Close() error
}
