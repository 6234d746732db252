package extractors

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-kb/internal/logger"
)

// Ensure Registry implements the interface.
var _ driven.ExtractorRegistry = (*Registry)(nil)

// Registry dispatches files to registered extractors.
type Registry struct {
	mu         sync.RWMutex
	byExt      map[string]driven.Extractor
	extractors []driven.Extractor
	fallback   driven.Extractor
}

// NewRegistry creates a registry that uses fallback for unmatched files.
func NewRegistry(fallback driven.Extractor) *Registry {
	return &Registry{
		byExt:    make(map[string]driven.Extractor),
		fallback: fallback,
	}
}

// Register adds an extractor. Later registrations win for shared extensions.
func (r *Registry) Register(e driven.Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.extractors = append(r.extractors, e)
	for _, ext := range e.SupportedExtensions() {
		r.byExt[strings.ToLower(strings.TrimPrefix(ext, "."))] = e
	}
}

// Select returns the extractor for a file, or the fallback.
func (r *Registry) Select(path, contentType string) driven.Extractor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if e, ok := r.byExt[domain.ExtFromFilename(path)]; ok {
		return e
	}

	ctype := strings.ToLower(contentType)
	if ctype != "" {
		for _, e := range r.extractors {
			for _, m := range e.SupportedMIMETypes() {
				if strings.Contains(ctype, m) {
					return e
				}
			}
		}
	}
	return r.fallback
}

// Extract returns the text of the file at path.
// Failures come back as "[PARSE_ERROR] <reason>".
func (r *Registry) Extract(ctx context.Context, path, contentType string) string {
	e := r.Select(path, contentType)
	if e == nil {
		return fmt.Sprintf("%s no extractor for %s", driven.ParseErrorMarker, path)
	}

	text, err := e.Extract(ctx, path)
	if err != nil {
		logger.Warn("extractor %s failed on %s: %v", e.Name(), path, err)
		return fmt.Sprintf("%s %v", driven.ParseErrorMarker, err)
	}
	logger.Debug("extractor %s read %d bytes of text from %s", e.Name(), len(text), path)
	return text
}

// Names returns the registered extractor names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.extractors))
	for _, e := range r.extractors {
		names = append(names, e.Name())
	}
	return names
}

// IsParseError reports whether extracted text is a failure marker.
func IsParseError(text string) bool {
	return strings.HasPrefix(text, driven.ParseErrorMarker)
}
