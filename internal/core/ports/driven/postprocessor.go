package driven

import (
	"context"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// PostProcessor turns extracted text into chunks.
// PostProcessors are chained in a pipeline.
type PostProcessor interface {
	// Name returns the processor name for logging and configuration.
	Name() string

	// Process takes document text and returns chunks.
	// A processor that creates chunks (e.g., chunker) receives nil and returns new chunks.
	// A processor that rewrites chunks receives and returns them.
	Process(ctx context.Context, text string, chunks []domain.Chunk) ([]domain.Chunk, error)
}

// PostProcessorPipeline chains multiple PostProcessors.
type PostProcessorPipeline interface {
	// Process runs the text through all processors in order.
	// Returns the final chunks after all processing.
	Process(ctx context.Context, text string) ([]domain.Chunk, error)
}
