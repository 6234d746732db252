package driving

import (
	"context"
	"io"
)

// IngestService turns uploaded files into indexed chunks.
type IngestService interface {
	// IngestFile stores, extracts, chunks and indexes one file.
	IngestFile(ctx context.Context, req IngestRequest) (*IngestResult, error)

	// IngestText chunks and indexes text that is already extracted.
	IngestText(ctx context.Context, filename, text string) (*IngestResult, error)
}

// IngestRequest describes one uploaded file.
type IngestRequest struct {
	// Filename is the original upload name.
	Filename string

	// ContentType is the declared MIME type. May be empty.
	ContentType string

	// Size is the declared size in bytes, or 0 when unknown.
	Size int64

	// Body is the file content.
	Body io.Reader
}

// IngestResult reports what ingestion produced.
type IngestResult struct {
	DocumentID string
	Chunks     int
}
