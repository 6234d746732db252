// Package html extracts readable text from HTML pages.
package html

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// blockSelector lists the elements whose text becomes one line each.
const blockSelector = "h1,h2,h3,h4,h5,h6,p,li,pre,blockquote,td,th"

// Extractor handles HTML documents.
type Extractor struct{}

// New creates a new HTML extractor.
func New() *Extractor {
	return &Extractor{}
}

// Name returns the extractor name.
func (e *Extractor) Name() string { return "html" }

// SupportedExtensions returns the extensions this extractor handles.
func (e *Extractor) SupportedExtensions() []string {
	return []string{"html", "htm", "xhtml"}
}

// SupportedMIMETypes returns content type fragments this extractor handles.
func (e *Extractor) SupportedMIMETypes() []string {
	return []string{"text/html", "xhtml"}
}

// Extract returns the page title followed by one line per block element.
func (e *Extractor) Extract(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("html: open %s: %w", path, err)
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return "", fmt.Errorf("html: parse: %w", err)
	}
	return Text(doc), nil
}

// Text flattens a parsed document. Pages with no block elements fall
// back to the whitespace-collapsed body text.
func Text(doc *goquery.Document) string {
	doc.Find("script,style,noscript,template").Remove()

	var lines []string
	if title := collapse(doc.Find("title").First().Text()); title != "" {
		lines = append(lines, title)
	}

	blocks := 0
	doc.Find("body").Find(blockSelector).Each(func(_ int, s *goquery.Selection) {
		// Nested blocks are emitted by their innermost element.
		if s.Find(blockSelector).Length() > 0 {
			return
		}
		blocks++
		if line := collapse(s.Text()); line != "" {
			lines = append(lines, line)
		}
	})

	if blocks == 0 {
		if body := collapse(doc.Find("body").Text()); body != "" {
			lines = append(lines, body)
		}
	}
	return strings.Join(lines, "\n")
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
