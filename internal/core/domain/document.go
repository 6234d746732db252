package domain

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// MaxUploadSize is the largest file accepted for ingestion (100 MiB).
const MaxUploadSize int64 = 100 * 1024 * 1024

// Chunking defaults.
const (
	DefaultChunkSize    = 1200
	DefaultChunkOverlap = 200
)

// Document listing limits.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Document holds the metadata of an ingested file.
// The text itself lives in the vector index as chunks.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// Filename is the original upload name.
	Filename string

	// Ext is the lower-cased extension without the leading dot.
	Ext string

	// ContentType is the MIME type declared at upload.
	ContentType string

	// Size is the file size in bytes.
	Size int64

	// StoragePath is where the raw bytes were written.
	StoragePath string

	// UploadedAt is when the document was ingested (UTC).
	UploadedAt time.Time

	// ChunkCount is the number of chunks written to the index.
	ChunkCount int
}

// ExtFromFilename returns the lower-cased extension of name without the dot.
func ExtFromFilename(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}

// Chunk is a bounded passage of a document's text.
// Index values for one document form a dense sequence starting at 0.
type Chunk struct {
	// DocumentID links to the parent Document. Empty until ingestion assigns it.
	DocumentID string

	// Index is the 0-based position in emission order.
	Index int

	// Text is the passage content.
	Text string
}

// ID returns the index record key for this chunk.
func (c Chunk) ID() string {
	return ChunkID(c.DocumentID, c.Index)
}

// ChunkID builds the "<document_id>:<chunk_index>" record key.
func ChunkID(documentID string, index int) string {
	return fmt.Sprintf("%s:%d", documentID, index)
}

// DocumentQuery filters and paginates a document listing.
type DocumentQuery struct {
	// Search is a case-insensitive filename pattern.
	Search string

	// Ext restricts results to one extension (pdf, docx, txt, md).
	Ext string

	// DateFrom and DateTo bound UploadedAt, inclusive. Nil means unbounded.
	DateFrom *time.Time
	DateTo   *time.Time

	// Page is 1-based.
	Page int

	// Size is the page size, 1 to MaxPageSize.
	Size int
}

// Normalise clamps paging values and lower-cases the extension filter.
func (q DocumentQuery) Normalise() DocumentQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Size < 1 {
		q.Size = DefaultPageSize
	}
	if q.Size > MaxPageSize {
		q.Size = MaxPageSize
	}
	q.Ext = strings.ToLower(strings.TrimPrefix(q.Ext, "."))
	return q
}

// Offset returns the number of documents to skip.
func (q DocumentQuery) Offset() int {
	return (q.Page - 1) * q.Size
}

// DocumentPage is one page of a document listing.
type DocumentPage struct {
	Page  int
	Size  int
	Total int
	Items []Document
}

// ParseDate parses an ISO date or date-time.
// Accepts "2006-01-02" and RFC 3339. Returns nil for blank or invalid input.
func ParseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
