package driving

import (
	"context"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// SearchService provides similarity retrieval to external actors.
type SearchService interface {
	// Retrieve returns hits for a query ordered best first, possibly empty.
	Retrieve(ctx context.Context, query string, opts domain.RetrieveOptions) ([]domain.Hit, error)
}
