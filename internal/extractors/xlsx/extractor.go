// Package xlsx extracts cell text from Excel workbooks.
package xlsx

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles XLSX workbooks.
type Extractor struct{}

// New creates a new XLSX extractor.
func New() *Extractor {
	return &Extractor{}
}

// Name returns the extractor name.
func (e *Extractor) Name() string { return "xlsx" }

// SupportedExtensions returns the extensions this extractor handles.
func (e *Extractor) SupportedExtensions() []string {
	return []string{"xlsx", "xlsm"}
}

// SupportedMIMETypes returns content type fragments this extractor handles.
func (e *Extractor) SupportedMIMETypes() []string {
	return []string{"spreadsheetml.sheet"}
}

// Extract emits each sheet as a "# name" heading followed by one line per
// non-empty row with cells separated by tabs. Sheets are separated by a blank line.
func (e *Extractor) Extract(ctx context.Context, path string) (string, error) {
	x, err := excelize.OpenFile(path)
	if err != nil {
		return "", fmt.Errorf("xlsx: open: %w", err)
	}
	defer x.Close()

	var sheets []string
	for _, name := range x.GetSheetList() {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		rows, err := x.GetRows(name)
		if err != nil {
			return "", fmt.Errorf("xlsx: read sheet %s: %w", name, err)
		}

		lines := []string{"# " + name}
		for _, row := range rows {
			line := strings.TrimRight(strings.Join(row, "\t"), "\t ")
			if strings.TrimSpace(line) == "" {
				continue
			}
			lines = append(lines, line)
		}
		if len(lines) > 1 {
			sheets = append(sheets, strings.Join(lines, "\n"))
		}
	}
	return strings.Join(sheets, "\n\n"), nil
}
