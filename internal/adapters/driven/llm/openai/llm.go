// Package openai provides an LLM service adapter using the OpenAI chat completions API.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// ProviderName identifies this adapter in logs and provider errors.
const ProviderName = "openai"

// Default configuration values.
const (
	DefaultBaseURL     = "https://api.openai.com/v1"
	DefaultModel       = "o4-mini"
	DefaultTimeout     = 120 * time.Second
	DefaultTemperature = 0.2
)

// Config holds configuration for the OpenAI LLM service.
type Config struct {
	// APIKey is the OpenAI API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.openai.com/v1).
	// Can point at any OpenAI-compatible API.
	BaseURL string

	// Model is the chat model to use (default: o4-mini).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration

	// RequestsPerSecond throttles outgoing requests. Zero disables throttling.
	RequestsPerSecond float64
}

// LLMService completes prompts using the OpenAI API.
type LLMService struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
	limiter *rate.Limiter
}

type chatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []chatMsg `json:"messages"`
	Temperature *float64  `json:"temperature,omitempty"`
}

type chatMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error,omitempty"`
}

// NewLLMService creates a new OpenAI LLM service.
func NewLLMService(cfg Config) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	return &LLMService{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		limiter: rate.NewLimiter(limit, 1),
	}, nil
}

// Complete sends the request as a chat completion and returns the reply text.
func (s *LLMService) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	text, status, err := s.complete(ctx, req)
	if err != nil {
		return "", domain.ClassifyProviderError(ProviderName, status, err)
	}
	return text, nil
}

func (s *LLMService) complete(ctx context.Context, req domain.CompletionRequest) (string, int, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", 0, fmt.Errorf("rate limit wait: %w", err)
	}

	model := s.model
	if req.Model != "" {
		model = req.Model
	}

	messages := make([]chatMsg, 0, 2)
	if req.System != "" {
		messages = append(messages, chatMsg{Role: "system", Content: req.System})
	}
	messages = append(messages, chatMsg{Role: "user", Content: req.Prompt})

	reqBody := chatCompletionRequest{Model: model, Messages: messages}
	if supportsTemperature(model) {
		t := DefaultTemperature
		reqBody.Temperature = &t
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", 0, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return "", 0, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return "", 0, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", resp.StatusCode, fmt.Errorf("openai error (status %d): %s", resp.StatusCode, string(body))
	}

	var chatResp chatCompletionResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", resp.StatusCode, fmt.Errorf("decode response: %w", err)
	}
	if chatResp.Error != nil {
		return "", resp.StatusCode, fmt.Errorf("openai error: %s (%s)", chatResp.Error.Message, chatResp.Error.Code)
	}
	if len(chatResp.Choices) == 0 {
		return "", resp.StatusCode, fmt.Errorf("openai: no response choices returned")
	}

	return chatResp.Choices[0].Message.Content, resp.StatusCode, nil
}

// supportsTemperature reports whether the model accepts a temperature.
// Reasoning models (o1, o3, o4 families) reject anything but the default.
func supportsTemperature(model string) bool {
	return len(model) < 2 || model[0] != 'o' || model[1] < '0' || model[1] > '9'
}

// Name returns the provider name.
func (s *LLMService) Name() string {
	return ProviderName
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping validates the service is reachable by checking the /models endpoint.
// This validates the API key without running inference.
func (s *LLMService) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/models", http.NoBody)
	if err != nil {
		return fmt.Errorf("openai: failed to create ping request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("openai: ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("openai: API returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// Close releases resources.
func (s *LLMService) Close() error {
	return nil
}

// RequestsPerSecond returns the request throttle; rate.Inf means unthrottled.
func (s *LLMService) RequestsPerSecond() rate.Limit {
	return s.limiter.Limit()
}
