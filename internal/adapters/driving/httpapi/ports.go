// Package httpapi provides the JSON and SSE HTTP API for sercha-kb, served with echo.
package httpapi

import (
	"errors"

	"github.com/custodia-labs/sercha-kb/internal/core/ports/driving"
)

// ErrMissingService is returned when a required service is not provided.
var ErrMissingService = errors.New("httpapi: ingest, search, answer and document services are required")

// Ports aggregates the driving ports served over HTTP.
type Ports struct {
	Ingest   driving.IngestService
	Search   driving.SearchService
	Answer   driving.AnswerService
	Document driving.DocumentService

	// Chat is optional: the /chat routes are omitted when nil.
	Chat driving.ChatService

	// Analytics is optional: /analytics/summary is omitted when nil.
	Analytics driving.AnalyticsService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Ingest == nil || p.Search == nil || p.Answer == nil || p.Document == nil {
		return ErrMissingService
	}
	return nil
}
