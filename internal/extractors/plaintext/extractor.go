// Package plaintext reads text and markdown files as UTF-8.
package plaintext

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles plain text. Markdown is kept as written.
type Extractor struct{}

// New creates a new plain text extractor.
func New() *Extractor {
	return &Extractor{}
}

// Name returns the extractor name.
func (e *Extractor) Name() string { return "plaintext" }

// SupportedExtensions returns the extensions this extractor handles.
func (e *Extractor) SupportedExtensions() []string {
	return []string{"txt", "md", "markdown", "text", "log", "csv"}
}

// SupportedMIMETypes returns content type fragments this extractor handles.
func (e *Extractor) SupportedMIMETypes() []string {
	return []string{"text/plain", "markdown"}
}

// Extract reads the file and drops invalid UTF-8 sequences.
func (e *Extractor) Extract(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return Decode(data), nil
}

// Decode converts bytes to a string, dropping invalid UTF-8.
func Decode(data []byte) string {
	return strings.ToValidUTF8(string(data), "")
}
