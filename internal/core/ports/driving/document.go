package driving

import (
	"context"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// DocumentService manages ingested documents.
type DocumentService interface {
	// List returns one page of documents, newest first.
	List(ctx context.Context, query domain.DocumentQuery) (*domain.DocumentPage, error)

	// Get retrieves a document by ID.
	Get(ctx context.Context, documentID string) (*domain.Document, error)

	// Delete removes a document, its index records and its stored file.
	Delete(ctx context.Context, documentID string) error
}

// AnalyticsService records and summarises usage.
type AnalyticsService interface {
	// Record stores a usage event. Failures are logged, never returned.
	Record(ctx context.Context, eventType domain.UsageEventType, payload map[string]any)

	// Summary aggregates usage over the last days (1 to 90).
	Summary(ctx context.Context, days int) (*domain.UsageSummary, error)
}
