package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

type testAPI struct {
	ingest    *mockIngest
	search    *mockSearch
	answer    *mockAnswer
	documents *mockDocuments
	chat      *mockChat
	analytics *mockAnalytics
	server    *Server
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	api := &testAPI{
		ingest:    &mockIngest{},
		search:    &mockSearch{},
		answer:    &mockAnswer{},
		documents: &mockDocuments{},
		chat:      &mockChat{},
		analytics: &mockAnalytics{},
	}
	srv, err := NewServer(&Ports{
		Ingest:    api.ingest,
		Search:    api.search,
		Answer:    api.answer,
		Document:  api.documents,
		Chat:      api.chat,
		Analytics: api.analytics,
	}, domain.ServerSettings{AllowedOrigins: []string{"http://localhost:3000"}})
	require.NoError(t, err)
	api.server = srv
	return api
}

func (a *testAPI) do(method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	a.server.Handler().ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) postJSON(path, body string) *httptest.ResponseRecorder {
	return a.do(http.MethodPost, path, strings.NewReader(body), "application/json")
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestNewServer(t *testing.T) {
	t.Run("missing required services", func(t *testing.T) {
		_, err := NewServer(&Ports{Search: &mockSearch{}}, domain.ServerSettings{})
		assert.ErrorIs(t, err, ErrMissingService)
	})

	t.Run("optional routes omitted", func(t *testing.T) {
		srv, err := NewServer(&Ports{
			Ingest:   &mockIngest{},
			Search:   &mockSearch{},
			Answer:   &mockAnswer{},
			Document: &mockDocuments{},
		}, domain.ServerSettings{})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/api/chat/complete", strings.NewReader(`{}`))
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(http.MethodGet, "/api/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])
}

func TestCORS(t *testing.T) {
	api := newTestAPI(t)

	t.Run("allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/knowledge/ask", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rec := httptest.NewRecorder()
		api.server.Handler().ServeHTTP(rec, req)

		assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("other origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		req.Header.Set("Origin", "http://evil.example")
		rec := httptest.NewRecorder()
		api.server.Handler().ServeHTTP(rec, req)

		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"extraction", domain.ErrExtractionEmpty, http.StatusBadRequest, "No text extracted"},
		{"too large", domain.ErrFileTooLarge, http.StatusRequestEntityTooLarge, "File too large"},
		{"no context", domain.ErrNoContext, http.StatusNotFound, "No chunks for document"},
		{"not found", domain.ErrNotFound, http.StatusNotFound, "Not found"},
		{"index", domain.ErrIndexUnavailable, http.StatusServiceUnavailable, "Vector index unavailable"},
		{"providers", domain.ErrProviderUnavailable, http.StatusBadGateway, "provider_unavailable"},
		{"unknown", assert.AnError, http.StatusInternalServerError, "Internal error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, msg := errorStatus(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.msg, msg)
		})
	}
}

func TestFormatEvent(t *testing.T) {
	assert.Equal(t, "event: typing\ndata: start\n\n", formatEvent(domain.TypingEvent()))
	assert.Equal(t, "event: token\ndata: a\ndata: b\n\n", formatEvent(domain.TokenEvent("a\nb")))
	assert.Equal(t, "event: restart\ndata: fallback\n\n", formatEvent(domain.RestartEvent()))
}
