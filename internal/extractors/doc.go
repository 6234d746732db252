// Package extractors turns uploaded files into plain text.
//
// Each sub-package implements driven.Extractor for one format. The Registry
// picks an extractor by file extension, then by content type, and falls back
// to plain text. Extraction failures are reported in-band as text starting
// with driven.ParseErrorMarker so ingestion can decide what to do with them.
package extractors
