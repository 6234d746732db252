package extractors

import (
	"github.com/custodia-labs/sercha-kb/internal/extractors/docx"
	"github.com/custodia-labs/sercha-kb/internal/extractors/eml"
	"github.com/custodia-labs/sercha-kb/internal/extractors/html"
	"github.com/custodia-labs/sercha-kb/internal/extractors/pdf"
	"github.com/custodia-labs/sercha-kb/internal/extractors/plaintext"
	"github.com/custodia-labs/sercha-kb/internal/extractors/xlsx"
)

// NewDefaultRegistry returns a registry with every built-in extractor.
// Plain text is the fallback for unknown types.
func NewDefaultRegistry() *Registry {
	text := plaintext.New()
	r := NewRegistry(text)
	r.Register(text)
	r.Register(pdf.New())
	r.Register(docx.New())
	r.Register(html.New())
	r.Register(xlsx.New())
	r.Register(eml.New())
	return r
}
