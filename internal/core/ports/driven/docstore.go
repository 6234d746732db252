package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// DocumentStore persists document metadata.
// Backed by SQLite by default, or MongoDB.
type DocumentStore interface {
	// SaveDocument stores or updates a document.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// GetDocument retrieves a document by ID.
	// Returns domain.ErrNotFound when absent.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// DeleteDocument removes a document.
	DeleteDocument(ctx context.Context, id string) error

	// ListDocuments returns one page of documents newest first,
	// plus the total count matching the query.
	ListDocuments(ctx context.Context, query domain.DocumentQuery) ([]domain.Document, int, error)
}

// UsageStore persists usage analytics events.
type UsageStore interface {
	// RecordEvent stores one event.
	RecordEvent(ctx context.Context, event *domain.UsageEvent) error

	// CountEvents counts events of one type created at or after since.
	CountEvents(ctx context.Context, eventType domain.UsageEventType, since time.Time) (int, error)

	// CountPerDay counts events of all types per UTC day since, ascending by date.
	CountPerDay(ctx context.Context, since time.Time) ([]domain.DailyCount, error)
}
