package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

func TestNewLLMService_Defaults(t *testing.T) {
	svc := NewLLMService(LLMConfig{})
	assert.Equal(t, DefaultLLMModel, svc.ModelName())
	assert.Equal(t, "ollama", svc.Name())
	assert.Equal(t, DefaultBaseURL, svc.baseURL)
	assert.False(t, svc.UsesGenerate())
}

func TestStream_ChatNDJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)

		var req chatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Stream)
		if assert.Len(t, req.Messages, 2) {
			assert.Equal(t, "system", req.Messages[0].Role)
			assert.Equal(t, "user", req.Messages[1].Role)
		}

		fmt.Fprintln(w, `{"message":{"role":"assistant","content":"Hel"},"done":false}`)
		fmt.Fprintln(w, ``)
		fmt.Fprintln(w, `not json`)
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":""},"done":false}`)
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":"lo"},"done":false}`)
		fmt.Fprintln(w, `{"done":true}`)
	}))
	defer server.Close()

	svc := NewLLMService(LLMConfig{BaseURL: server.URL})

	var fragments []string
	err := svc.Stream(context.Background(), domain.CompletionRequest{Prompt: "hi", System: "sys"}, func(s string) error {
		fragments = append(fragments, s)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Hel", "lo"}, fragments)
}

func TestComplete_SwitchesToGenerateOn404(t *testing.T) {
	var chatCalls, generateCalls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/chat":
			chatCalls.Add(1)
			w.WriteHeader(http.StatusNotFound)
		case "/api/generate":
			generateCalls.Add(1)
			var req generateRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "sys\n\nquestion", req.Prompt)
			assert.False(t, req.Stream)
			_, _ = w.Write([]byte(`{"response":"answer","done":true}`))
		}
	}))
	defer server.Close()

	svc := NewLLMService(LLMConfig{BaseURL: server.URL})

	got, err := svc.Complete(context.Background(), domain.CompletionRequest{Prompt: "question", System: "sys"})
	require.NoError(t, err)
	assert.Equal(t, "answer", got)
	assert.True(t, svc.UsesGenerate())

	_, err = svc.Complete(context.Background(), domain.CompletionRequest{Prompt: "question", System: "sys"})
	require.NoError(t, err)
	assert.Equal(t, int32(1), chatCalls.Load())
	assert.Equal(t, int32(2), generateCalls.Load())
}

func TestComplete_UseGenerateConfig(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		var req generateRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "just user", req.Prompt)
		_, _ = w.Write([]byte(`{"response":"ok","done":true}`))
	}))
	defer server.Close()

	svc := NewLLMService(LLMConfig{BaseURL: server.URL, UseGenerate: true})
	got, err := svc.Complete(context.Background(), domain.CompletionRequest{Prompt: "just user"})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
}

func TestStream_SinkErrorStops(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintln(w, `{"response":"a"}`)
		fmt.Fprintln(w, `{"response":"b"}`)
		fmt.Fprintln(w, `{"done":true}`)
	}))
	defer server.Close()

	svc := NewLLMService(LLMConfig{BaseURL: server.URL, UseGenerate: true})

	stop := errors.New("client gone")
	var seen int
	err := svc.Stream(context.Background(), domain.CompletionRequest{Prompt: "q"}, func(string) error {
		seen++
		return stop
	})
	assert.Same(t, stop, err)
	assert.Equal(t, 1, seen)
}

func TestComplete_StatusErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		kind   domain.FailureKind
	}{
		{"rate limited", http.StatusTooManyRequests, domain.FailureQuota},
		{"server error", http.StatusInternalServerError, domain.FailureUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			svc := NewLLMService(LLMConfig{BaseURL: server.URL})
			_, err := svc.Complete(context.Background(), domain.CompletionRequest{Prompt: "q"})
			require.Error(t, err)

			var pe *domain.ProviderError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.kind, pe.Kind)
			assert.Equal(t, tt.status, pe.StatusCode)
		})
	}
}

func TestComplete_InlineError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintln(w, `{"error":"model not found"}`)
	}))
	defer server.Close()

	svc := NewLLMService(LLMConfig{BaseURL: server.URL})
	_, err := svc.Complete(context.Background(), domain.CompletionRequest{Prompt: "q"})
	assert.True(t, errors.Is(err, domain.ErrProviderUnavailable))
}

func TestComplete_Unreachable(t *testing.T) {
	svc := NewLLMService(LLMConfig{BaseURL: "http://127.0.0.1:1"})
	_, err := svc.Complete(context.Background(), domain.CompletionRequest{Prompt: "q"})
	assert.True(t, errors.Is(err, domain.ErrProviderUnavailable))
}

func TestStream_OutlivesTimeoutWhileFragmentsFlow(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		flusher := w.(http.Flusher)
		for _, part := range []string{"a", "b", "c", "d"} {
			fmt.Fprintf(w, `{"message":{"role":"assistant","content":%q},"done":false}`+"\n", part)
			flusher.Flush()
			time.Sleep(40 * time.Millisecond)
		}
		fmt.Fprintln(w, `{"done":true}`)
	}))
	defer server.Close()

	svc := NewLLMService(LLMConfig{BaseURL: server.URL, Timeout: 100 * time.Millisecond})

	var got string
	err := svc.Stream(context.Background(), domain.CompletionRequest{Prompt: "q"}, func(s string) error {
		got += s
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "abcd", got)
}

func TestComplete_HeaderTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	svc := NewLLMService(LLMConfig{BaseURL: server.URL, Timeout: 50 * time.Millisecond})
	_, err := svc.Complete(context.Background(), domain.CompletionRequest{Prompt: "q"})
	require.Error(t, err)
	assert.Equal(t, domain.FailureTimeout, domain.FailureKindOf(err))
}

func TestPing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		_, _ = w.Write([]byte(`{"models":[]}`))
	}))
	defer server.Close()

	assert.NoError(t, NewLLMService(LLMConfig{BaseURL: server.URL}).Ping(context.Background()))
}

func TestComposePrompt(t *testing.T) {
	assert.Equal(t, "u", composePrompt("", "u"))
	assert.Equal(t, "s\n\nu", composePrompt("s", "u"))
}
