package domain

// Retrieval limits.
const (
	// DefaultTopK is the result count for plain retrieval.
	DefaultTopK = 5

	// AskTopK is the candidate count fetched for a grounded answer.
	AskTopK = 12

	// MaxContextHits caps the deduplicated hits used as prompt context.
	MaxContextHits = 8

	// SummarizeFetchLimit is how many chunks summarisation fetches.
	SummarizeFetchLimit = 100

	// SummarizeContextHits is how many fetched chunks summarisation uses.
	SummarizeContextHits = 20
)

// ChunkMetadata is stored alongside every indexed chunk.
type ChunkMetadata struct {
	DocumentID string
	ChunkIndex int
	Filename   string
}

// IndexRecord is a chunk as written to the vector index.
// Re-upserting the same ID replaces the record.
type IndexRecord struct {
	// ID is "<document_id>:<chunk_index>".
	ID string

	// Vector is the embedding of Text.
	Vector []float32

	// Text is the chunk content.
	Text string

	// Metadata links the record back to its document.
	Metadata ChunkMetadata
}

// Hit is a chunk returned by the vector index.
// Hits from a similarity query are ordered best first.
type Hit struct {
	ID       string
	Text     string
	Metadata ChunkMetadata

	// Score is the similarity when the backend reports one. Only rank order is guaranteed.
	Score float64
}

// Source returns the attribution for this hit.
func (h Hit) Source() Source {
	return Source{
		ID:         h.ID,
		Filename:   h.Metadata.Filename,
		ChunkIndex: h.Metadata.ChunkIndex,
	}
}

// Source attributes part of an answer to an indexed chunk.
type Source struct {
	ID         string
	Filename   string
	ChunkIndex int
}

// SourcesFromHits maps hits to their attributions, preserving order.
func SourcesFromHits(hits []Hit) []Source {
	out := make([]Source, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.Source())
	}
	return out
}

// RetrieveOptions configures a similarity query.
type RetrieveOptions struct {
	// TopK is the maximum number of hits. Zero means DefaultTopK.
	TopK int

	// DocumentID restricts the search to one document when set.
	DocumentID string
}
