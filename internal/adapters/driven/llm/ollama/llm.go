// Package ollama provides an LLM service adapter using Ollama.
package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

// Ensure LLMService implements the streaming interface.
var _ driven.LLMStreamer = (*LLMService)(nil)

// ProviderName identifies this adapter in logs and provider errors.
const ProviderName = "ollama"

// Default configuration values.
const (
	DefaultBaseURL    = "http://127.0.0.1:11434"
	DefaultLLMModel   = "llama3.1:8b"
	DefaultLLMTimeout = 120 * time.Second
)

// maxLineSize bounds a single NDJSON line.
const maxLineSize = 1 << 20

// errChatMissing marks a 404 from /api/chat on servers without it.
var errChatMissing = errors.New("chat endpoint not found")

// LLMConfig holds configuration for the Ollama LLM service.
type LLMConfig struct {
	// BaseURL is the Ollama API base URL (default: http://127.0.0.1:11434).
	BaseURL string

	// Model is the LLM model to use (default: llama3.1:8b).
	Model string

	// Timeout bounds the wait for response headers (default: 120s).
	// A streamed body may take longer; the caller's context ends it.
	Timeout time.Duration

	// UseGenerate sends every request to /api/generate instead of /api/chat.
	UseGenerate bool
}

// LLMService completes and streams prompts using Ollama.
// Requests go to /api/chat until the server answers 404, after which
// the service switches to /api/generate for its lifetime.
type LLMService struct {
	client      *http.Client
	baseURL     string
	model       string
	useGenerate atomic.Bool
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// streamLine is one NDJSON object from either endpoint.
type streamLine struct {
	Message  *chatMessage `json:"message,omitempty"`
	Response string       `json:"response"`
	Done     bool         `json:"done"`
	Error    string       `json:"error,omitempty"`
}

func (l streamLine) text() string {
	if l.Message != nil {
		return l.Message.Content
	}
	return l.Response
}

// NewLLMService creates a new Ollama LLM service.
func NewLLMService(cfg LLMConfig) *LLMService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultLLMTimeout
	}

	s := &LLMService{
		client:  newHTTPClient(cfg.Timeout),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
	}
	s.useGenerate.Store(cfg.UseGenerate)
	return s
}

// Complete returns the full reply for a prompt.
func (s *LLMService) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	var sb strings.Builder
	err := s.run(ctx, req, false, func(fragment string) error {
		sb.WriteString(fragment)
		return nil
	})
	if err != nil {
		return "", err
	}
	return sb.String(), nil
}

// Stream calls onFragment for each non-empty fragment of the reply.
// An error returned by onFragment stops the stream and is returned as is.
func (s *LLMService) Stream(ctx context.Context, req domain.CompletionRequest, onFragment func(string) error) error {
	return s.run(ctx, req, true, onFragment)
}

func (s *LLMService) run(ctx context.Context, req domain.CompletionRequest, stream bool, onFragment func(string) error) error {
	var sinkErr error
	sink := func(fragment string) error {
		if err := onFragment(fragment); err != nil {
			sinkErr = err
			return err
		}
		return nil
	}

	status, err := s.do(ctx, req, stream, sink)
	if errors.Is(err, errChatMissing) {
		s.useGenerate.Store(true)
		status, err = s.do(ctx, req, stream, sink)
	}
	if err == nil {
		return nil
	}
	if sinkErr != nil && errors.Is(err, sinkErr) {
		return sinkErr
	}
	return domain.ClassifyProviderError(ProviderName, status, err)
}

func (s *LLMService) do(ctx context.Context, req domain.CompletionRequest, stream bool, sink func(string) error) (int, error) {
	generate := s.useGenerate.Load()
	path, body := s.buildRequest(req, stream, generate)

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return 0, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound && !generate {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return resp.StatusCode, errChatMissing
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return resp.StatusCode, fmt.Errorf("ollama error (status %d): %s", resp.StatusCode, string(msg))
	}

	return resp.StatusCode, readLines(resp.Body, sink)
}

func (s *LLMService) buildRequest(req domain.CompletionRequest, stream, generate bool) (string, any) {
	model := s.model
	if req.Model != "" {
		model = req.Model
	}

	if generate {
		return "/api/generate", generateRequest{
			Model:  model,
			Prompt: composePrompt(req.System, req.Prompt),
			Stream: stream,
		}
	}

	messages := make([]chatMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})
	return "/api/chat", chatRequest{Model: model, Messages: messages, Stream: stream}
}

// composePrompt joins system and user text for /api/generate.
func composePrompt(system, prompt string) string {
	if system == "" {
		return prompt
	}
	return system + "\n\n" + prompt
}

// readLines decodes NDJSON from r, passing each non-empty fragment to sink.
// Blank and undecodable lines are skipped.
func readLines(r io.Reader, sink func(string) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var obj streamLine
		if err := json.Unmarshal(line, &obj); err != nil {
			continue
		}
		if obj.Error != "" {
			return fmt.Errorf("ollama error: %s", obj.Error)
		}
		if text := obj.text(); text != "" {
			if err := sink(text); err != nil {
				return err
			}
		}
		if obj.Done {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	return nil
}

// Name returns the provider name.
func (s *LLMService) Name() string {
	return ProviderName
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// UsesGenerate reports whether requests currently go to /api/generate.
func (s *LLMService) UsesGenerate() bool {
	return s.useGenerate.Load()
}

// Ping validates the service is reachable by checking the /api/tags endpoint.
// This is a lightweight check that doesn't load the model into memory.
func (s *LLMService) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/api/tags", http.NoBody)
	if err != nil {
		return fmt.Errorf("ollama: failed to create ping request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama: ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama: server returned status %d", resp.StatusCode)
	}
	return nil
}

// Close releases resources.
func (s *LLMService) Close() error {
	return nil
}

// newHTTPClient has no whole-response deadline so long streams are not cut off.
func newHTTPClient(headerTimeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = headerTimeout
	return &http.Client{Transport: transport}
}
