// Package hashing provides a model-free embedding service based on feature hashing.
//
// Each lower-cased alphanumeric token increments the coordinate
// adler32(token) mod dimensions, and the result is L2-normalised.
// Text without tokens maps to the zero vector.
package hashing

import (
	"context"
	"hash/adler32"
	"math"
	"regexp"
	"strings"

	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// DefaultDimensions is the default vector size.
const DefaultDimensions = 384

// ModelName identifies vectors produced by this service.
const ModelName = "hashing"

var tokenPattern = regexp.MustCompile(`[A-Za-z0-9]+`)

// EmbeddingService maps text to vectors without calling a model.
// It is stateless and safe for concurrent use.
type EmbeddingService struct {
	dimensions int
}

// NewEmbeddingService creates a hashing embedder. Non-positive dimensions use the default.
func NewEmbeddingService(dimensions int) *EmbeddingService {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	return &EmbeddingService{dimensions: dimensions}
}

// Embed returns the hashed vector for text.
func (s *EmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	return s.vector(text), nil
}

// EmbedBatch returns one hashed vector per text.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = s.vector(t)
	}
	return out, nil
}

func (s *EmbeddingService) vector(text string) []float32 {
	counts := make([]float64, s.dimensions)
	for _, tok := range tokenPattern.FindAllString(strings.ToLower(text), -1) {
		counts[adler32.Checksum([]byte(tok))%uint32(s.dimensions)]++
	}

	var sum float64
	for _, c := range counts {
		sum += c * c
	}
	norm := math.Sqrt(sum)

	v := make([]float32, s.dimensions)
	if norm == 0 {
		return v
	}
	for i, c := range counts {
		v[i] = float32(c / norm)
	}
	return v
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns "hashing".
func (s *EmbeddingService) ModelName() string {
	return ModelName
}

// Ping always succeeds; there is nothing to reach.
func (s *EmbeddingService) Ping(context.Context) error {
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}
