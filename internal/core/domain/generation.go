package domain

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// EventKind labels a streamed generation event.
type EventKind string

// Stream event kinds, in the order a stream may emit them.
const (
	// EventTyping is emitted exactly once, first.
	EventTyping EventKind = "typing"

	// EventToken carries an incremental text fragment.
	EventToken EventKind = "token"

	// EventRestart discards the tokens sent so far; the fallback's answer follows.
	EventRestart EventKind = "restart"

	// EventError replaces the remaining tokens when generation fails.
	EventError EventKind = "error"

	// EventDone is emitted exactly once, last.
	EventDone EventKind = "done"
)

// Fixed event payloads.
const (
	TypingStart     = "start"
	RestartFallback = "fallback"
	DoneEnd         = "end"
)

// Error event labels. Provider error text is never sent to callers.
const (
	ErrorLabelPrimaryFailed  = "openai_failed"
	ErrorLabelFallbackFailed = "ollama_failed"
	ErrorLabelUnavailable    = "provider_unavailable"
)

// PseudoTokenSize is the fragment length used when a full answer is
// replayed as a token stream.
const PseudoTokenSize = 64

// StreamEvent is one labelled unit of streamed output.
type StreamEvent struct {
	Kind EventKind
	Data string
}

// TypingEvent returns the opening event of a stream.
func TypingEvent() StreamEvent { return StreamEvent{Kind: EventTyping, Data: TypingStart} }

// TokenEvent returns a token event with carriage returns removed.
func TokenEvent(fragment string) StreamEvent {
	return StreamEvent{Kind: EventToken, Data: strings.ReplaceAll(fragment, "\r", "")}
}

// RestartEvent tells consumers to drop the partial answer before fallback tokens.
func RestartEvent() StreamEvent { return StreamEvent{Kind: EventRestart, Data: RestartFallback} }

// ErrorEvent returns an error event carrying a fixed label.
func ErrorEvent(label string) StreamEvent { return StreamEvent{Kind: EventError, Data: label} }

// DoneEvent returns the closing event of a stream.
func DoneEvent() StreamEvent { return StreamEvent{Kind: EventDone, Data: DoneEnd} }

// SplitFragments cuts text into fragments of at most size runes.
func SplitFragments(text string, size int) []string {
	if size < 1 {
		size = PseudoTokenSize
	}
	runes := []rune(text)
	out := make([]string, 0, len(runes)/size+1)
	for i := 0; i < len(runes); i += size {
		end := min(i+size, len(runes))
		out = append(out, string(runes[i:end]))
	}
	return out
}

// FailureKind classifies a provider failure.
type FailureKind string

// Provider failure kinds.
const (
	// FailureQuota is a quota or rate-limit rejection.
	FailureQuota FailureKind = "quota"

	// FailureTimeout is a read or request that exceeded its deadline.
	FailureTimeout FailureKind = "timeout"

	// FailureUnavailable is any other failure.
	FailureUnavailable FailureKind = "unavailable"
)

// ProviderError is the typed failure returned by completion providers.
type ProviderError struct {
	// Provider names the backend that failed.
	Provider string

	// Kind is the failure classification.
	Kind FailureKind

	// StatusCode is the HTTP status when one was received.
	StatusCode int

	// Err is the underlying cause. Never shown to end users.
	Err error
}

func (e *ProviderError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Provider, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Is maps the failure kind onto the domain sentinels.
func (e *ProviderError) Is(target error) bool {
	switch target {
	case ErrProviderQuotaExceeded:
		return e.Kind == FailureQuota
	case ErrProviderUnavailable:
		return e.Kind != FailureQuota
	default:
		return false
	}
}

// IsQuotaMessage reports whether an error message signals quota exhaustion.
func IsQuotaMessage(msg string) bool {
	return strings.Contains(msg, "429") || strings.Contains(msg, "insufficient_quota")
}

// ClassifyProviderError wraps err as a ProviderError.
// An existing ProviderError is returned unchanged.
func ClassifyProviderError(provider string, statusCode int, err error) *ProviderError {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe
	}

	kind := FailureUnavailable
	switch {
	case statusCode == 429, err != nil && IsQuotaMessage(err.Error()):
		kind = FailureQuota
	case isTimeout(err):
		kind = FailureTimeout
	}
	return &ProviderError{Provider: provider, Kind: kind, StatusCode: statusCode, Err: err}
}

// FailureKindOf returns the classification of err, or FailureUnavailable
// when err is not a ProviderError.
func FailureKindOf(err error) FailureKind {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	if isTimeout(err) {
		return FailureTimeout
	}
	if err != nil && IsQuotaMessage(err.Error()) {
		return FailureQuota
	}
	return FailureUnavailable
}

func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// FallbackPolicy decides which primary failures move generation to the
// fallback provider.
type FallbackPolicy int

const (
	// PolicyAnyError falls back on every primary failure.
	// Used by grounded answers, summaries and grounded streams.
	PolicyAnyError FallbackPolicy = iota

	// PolicyQuotaOnly falls back only on quota failures.
	// Used by raw chat completion.
	PolicyQuotaOnly
)

// ShouldFallback reports whether err permits a fallback attempt.
func (p FallbackPolicy) ShouldFallback(err error) bool {
	if err == nil {
		return false
	}
	if p == PolicyAnyError {
		return true
	}
	return FailureKindOf(err) == FailureQuota
}

// ShouldFallbackStream is ShouldFallback for streamed generation, where a
// read timeout also moves to the fallback under every policy.
func (p FallbackPolicy) ShouldFallbackStream(err error) bool {
	return p.ShouldFallback(err) || FailureKindOf(err) == FailureTimeout
}

// String returns the policy name.
func (p FallbackPolicy) String() string {
	switch p {
	case PolicyAnyError:
		return "any_error"
	case PolicyQuotaOnly:
		return "quota_only"
	default:
		return "unknown"
	}
}

// CompletionRequest is the input to a completion provider.
type CompletionRequest struct {
	// Prompt is the user message.
	Prompt string

	// System is an optional system instruction.
	System string

	// Model overrides the provider's configured model when set.
	Model string
}

// Answer is a grounded answer with the chunks it was built from.
type Answer struct {
	Text    string
	Sources []Source

	// Provider names the backend that produced Text.
	Provider string
}
