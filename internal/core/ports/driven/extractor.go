package driven

import (
	"context"
	"io"
)

// ParseErrorMarker prefixes the text returned when extraction fails.
const ParseErrorMarker = "[PARSE_ERROR]"

// Extractor turns one file format into plain text.
type Extractor interface {
	// Name returns the extractor name for logging.
	Name() string

	// SupportedExtensions returns lower-case extensions without the dot.
	SupportedExtensions() []string

	// SupportedMIMETypes returns content type fragments this extractor handles.
	SupportedMIMETypes() []string

	// Extract reads the file at path and returns its text.
	Extract(ctx context.Context, path string) (string, error)
}

// ExtractorRegistry selects an extractor by extension, then content type.
type ExtractorRegistry interface {
	// Extract returns the file's text, or a string starting with
	// ParseErrorMarker when the selected extractor fails.
	Extract(ctx context.Context, path, contentType string) string

	// Register adds an extractor to the registry.
	Register(extractor Extractor)
}

// FileStore keeps uploaded file bytes.
type FileStore interface {
	// Save writes r under name and returns the stored path and byte count.
	Save(ctx context.Context, name string, r io.Reader) (path string, size int64, err error)

	// Remove deletes a stored file. Missing files are not an error.
	Remove(ctx context.Context, path string) error
}
