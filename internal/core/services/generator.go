package services

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-kb/internal/logger"
)

// streamBuffer is the event channel capacity.
const streamBuffer = 16

// generationState is the fallback state machine position.
type generationState int

const (
	stateTryPrimary generationState = iota
	stateUseFallback
)

func (s generationState) String() string {
	if s == stateTryPrimary {
		return "TRY_PRIMARY"
	}
	return "USE_FALLBACK"
}

// errorLabels names the error events of one stream flavour.
type errorLabels struct {
	// primary ends a stream whose primary failed without permitting fallback.
	primary string

	// fallback ends a stream whose last attempted provider failed.
	fallback string
}

// Grounded streams report one generic label. Raw chat streams name the role that failed.
var (
	groundedLabels = errorLabels{primary: domain.ErrorLabelUnavailable, fallback: domain.ErrorLabelUnavailable}
	chatLabels     = errorLabels{primary: domain.ErrorLabelPrimaryFailed, fallback: domain.ErrorLabelFallbackFailed}
)

// Generator runs completions through the primary and fallback providers.
// Providers are shared, read-only dependencies; all per-request state is local.
type Generator struct {
	primary  driven.LLMService
	fallback driven.LLMService
	timeout  time.Duration
}

// NewGenerator creates a generator. Either provider may be nil.
// A nil primary starts every request in USE_FALLBACK. A positive timeout
// bounds each non-streaming call and each read of a stream.
func NewGenerator(primary, fallback driven.LLMService, timeout time.Duration) *Generator {
	return &Generator{primary: primary, fallback: fallback, timeout: timeout}
}

// Available reports whether any provider is configured.
func (g *Generator) Available() bool {
	return g.primary != nil || g.fallback != nil
}

// Providers returns the configured provider names, primary first.
func (g *Generator) Providers() []string {
	var names []string
	if g.primary != nil {
		names = append(names, g.primary.Name())
	}
	if g.fallback != nil {
		names = append(names, g.fallback.Name())
	}
	return names
}

func (g *Generator) initialState() generationState {
	if g.primary != nil {
		return stateTryPrimary
	}
	return stateUseFallback
}

// Complete returns the full completion and the name of the provider that produced it.
//
// Errors never carry provider text at the top level:
//   - domain.ErrPrimaryFailed when the policy forbids fallback for the primary's failure
//   - domain.ErrProviderUnavailable when the fallback fails or is missing
//   - domain.ErrLLMUnavailable when no provider is configured
func (g *Generator) Complete(ctx context.Context, req domain.CompletionRequest, policy domain.FallbackPolicy) (string, string, error) {
	if !g.Available() {
		return "", "", domain.ErrLLMUnavailable
	}

	state := g.initialState()
	logger.Debug("Generation start: state=%s policy=%s", state, policy)

	if state == stateTryPrimary {
		text, err := g.completeWith(ctx, g.primary, req)
		if err == nil {
			return text, g.primary.Name(), nil
		}
		logger.Warn("Primary %s failed (%s): %v", g.primary.Name(), domain.FailureKindOf(err), err)
		if ctx.Err() != nil {
			return "", "", ctx.Err()
		}
		if !policy.ShouldFallback(err) {
			return "", g.primary.Name(), fmt.Errorf("%w: %s", domain.ErrPrimaryFailed, domain.FailureKindOf(err))
		}
		state = stateUseFallback
		logger.Debug("Generation transition: state=%s", state)
	}

	if g.fallback == nil {
		return "", "", domain.ErrProviderUnavailable
	}

	text, err := g.completeWith(ctx, g.fallback, req)
	if err != nil {
		logger.Warn("Fallback %s failed (%s): %v", g.fallback.Name(), domain.FailureKindOf(err), err)
		if ctx.Err() != nil {
			return "", "", ctx.Err()
		}
		return "", g.fallback.Name(), domain.ErrProviderUnavailable
	}
	return text, g.fallback.Name(), nil
}

func (g *Generator) completeWith(ctx context.Context, llm driven.LLMService, req domain.CompletionRequest) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	return llm.Complete(ctx, req)
}

// Stream runs the completion as an event stream: one typing event, tokens,
// an optional error event and one done event. The channel is closed after done.
// When the primary fails after sending tokens and fallback is permitted, a
// restart event precedes the fallback's tokens.
// Cancelling ctx stops provider reads; events after cancellation may be dropped.
func (g *Generator) Stream(ctx context.Context, req domain.CompletionRequest, policy domain.FallbackPolicy, labels errorLabels) <-chan domain.StreamEvent {
	out := make(chan domain.StreamEvent, streamBuffer)
	go func() {
		defer close(out)
		em := &emitter{ctx: ctx, out: out}
		em.send(domain.TypingEvent())
		if label := g.runStream(ctx, em, req, policy, labels); label != "" {
			em.send(domain.ErrorEvent(label))
		}
		em.send(domain.DoneEvent())
	}()
	return out
}

// runStream drives the state machine and returns the error label, if any.
func (g *Generator) runStream(ctx context.Context, em *emitter, req domain.CompletionRequest, policy domain.FallbackPolicy, labels errorLabels) string {
	state := g.initialState()
	logger.Debug("Stream start: state=%s policy=%s", state, policy)

	if state == stateTryPrimary {
		err := g.streamWith(ctx, em, g.primary, req)
		if err == nil {
			return ""
		}
		logger.Warn("Primary %s stream failed (%s): %v", g.primary.Name(), domain.FailureKindOf(err), err)
		if ctx.Err() != nil {
			return ""
		}
		if !policy.ShouldFallbackStream(err) {
			return labels.primary
		}
		// Consumers drop a partial primary answer before the fallback's tokens.
		if em.tokens > 0 {
			if !em.send(domain.RestartEvent()) {
				return ""
			}
			em.tokens = 0
		}
		state = stateUseFallback
		logger.Debug("Stream transition: state=%s", state)
	}

	if g.fallback == nil {
		return labels.fallback
	}
	if err := g.streamWith(ctx, em, g.fallback, req); err != nil {
		logger.Warn("Fallback %s stream failed (%s): %v", g.fallback.Name(), domain.FailureKindOf(err), err)
		if ctx.Err() != nil {
			return ""
		}
		return labels.fallback
	}
	return ""
}

// streamWith streams from providers that support it and replays a full
// completion as fixed-size fragments for those that do not.
func (g *Generator) streamWith(ctx context.Context, em *emitter, llm driven.LLMService, req domain.CompletionRequest) error {
	streamer, ok := llm.(driven.LLMStreamer)
	if !ok {
		text, err := g.completeWith(ctx, llm, req)
		if err != nil {
			return err
		}
		for _, frag := range domain.SplitFragments(text, domain.PseudoTokenSize) {
			if !em.token(frag) {
				return ctx.Err()
			}
		}
		return nil
	}

	readCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// The idle timer bounds the wait for each fragment, not the whole answer.
	var timedOut atomic.Bool
	var idle *time.Timer
	if g.timeout > 0 {
		idle = time.AfterFunc(g.timeout, func() {
			timedOut.Store(true)
			cancel()
		})
		defer idle.Stop()
	}

	// A slow consumer blocks em.token; that wait is not provider idleness.
	err := streamer.Stream(readCtx, req, func(frag string) error {
		if idle != nil {
			idle.Stop()
		}
		if !em.token(frag) {
			return ctx.Err()
		}
		if idle != nil && !timedOut.Load() {
			idle.Reset(g.timeout)
		}
		return nil
	})
	if err != nil && timedOut.Load() && ctx.Err() == nil {
		return &domain.ProviderError{Provider: llm.Name(), Kind: domain.FailureTimeout, Err: context.DeadlineExceeded}
	}
	return err
}

// emitter sends events without blocking past cancellation.
type emitter struct {
	ctx    context.Context
	out    chan<- domain.StreamEvent
	tokens int
}

func (e *emitter) send(ev domain.StreamEvent) bool {
	select {
	case e.out <- ev:
		return true
	case <-e.ctx.Done():
		return false
	}
}

// token sends a token event, skipping fragments that are empty once
// carriage returns are removed.
func (e *emitter) token(fragment string) bool {
	ev := domain.TokenEvent(fragment)
	if ev.Data == "" {
		return e.ctx.Err() == nil
	}
	if !e.send(ev) {
		return false
	}
	e.tokens++
	return true
}

// Drain collects a stream into its token text and error label.
func Drain(events <-chan domain.StreamEvent) (string, string) {
	var text strings.Builder
	var label string
	for ev := range events {
		switch ev.Kind {
		case domain.EventToken:
			text.WriteString(ev.Data)
		case domain.EventRestart:
			text.Reset()
		case domain.EventError:
			label = ev.Data
		}
	}
	return text.String(), label
}
