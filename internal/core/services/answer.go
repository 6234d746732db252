package services

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-kb/internal/logger"
)

// Ensure AnswerService implements the interface.
var _ driving.AnswerService = (*AnswerService)(nil)

// AnswerService answers questions from retrieved chunks.
// Grounded generation falls back to the secondary provider on any primary failure.
type AnswerService struct {
	search    driving.SearchService
	index     driven.VectorIndex
	generator *Generator
	prompts   driven.PromptStore
	analytics driving.AnalyticsService
}

// NewAnswerService creates a new answer service.
// The analytics service is optional (can be nil).
func NewAnswerService(
	search driving.SearchService,
	index driven.VectorIndex,
	generator *Generator,
	prompts driven.PromptStore,
	analytics driving.AnalyticsService,
) *AnswerService {
	return &AnswerService{
		search:    search,
		index:     index,
		generator: generator,
		prompts:   prompts,
		analytics: analytics,
	}
}

// SelectContext deduplicates hits by trimmed, lower-cased text.
// Blank hits are skipped, first occurrences win and at most limit hits are kept.
func SelectContext(hits []domain.Hit, limit int) []domain.Hit {
	seen := make(map[string]struct{}, len(hits))
	out := make([]domain.Hit, 0, min(len(hits), limit))
	for _, h := range hits {
		if len(out) >= limit {
			break
		}
		key := strings.ToLower(strings.TrimSpace(h.Text))
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, h)
	}
	return out
}

// ContextBlock numbers hits from 1 as "[i] text", separated by blank lines.
func ContextBlock(hits []domain.Hit) string {
	parts := make([]string, len(hits))
	for i, h := range hits {
		parts[i] = "[" + strconv.Itoa(i+1) + "] " + h.Text
	}
	return strings.Join(parts, "\n\n")
}

// Ask answers a question from the best matching chunks.
func (s *AnswerService) Ask(ctx context.Context, req driving.AskRequest) (*domain.Answer, error) {
	hits, completion, err := s.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	text, provider, err := s.generator.Complete(ctx, completion, domain.PolicyAnyError)
	if err != nil {
		return nil, err
	}

	return &domain.Answer{
		Text:     text,
		Sources:  domain.SourcesFromHits(hits),
		Provider: provider,
	}, nil
}

// AskStream answers a question as an event stream.
// Validation and retrieval errors are returned before streaming starts.
func (s *AnswerService) AskStream(ctx context.Context, req driving.AskRequest) (<-chan domain.StreamEvent, error) {
	_, completion, err := s.prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.generator.Stream(ctx, completion, domain.PolicyAnyError, groundedLabels), nil
}

// prepare retrieves, deduplicates and builds the grounded completion request.
func (s *AnswerService) prepare(ctx context.Context, req driving.AskRequest) ([]domain.Hit, domain.CompletionRequest, error) {
	logger.Section("Ask")

	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, domain.CompletionRequest{}, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}

	candidates, err := s.search.Retrieve(ctx, query, domain.RetrieveOptions{
		TopK:       domain.AskTopK,
		DocumentID: req.DocumentID,
	})
	if err != nil {
		return nil, domain.CompletionRequest{}, err
	}

	hits := SelectContext(candidates, domain.MaxContextHits)
	logger.Debug("Context: %d of %d candidates after dedup", len(hits), len(candidates))
	if len(hits) == 0 {
		return nil, domain.CompletionRequest{}, domain.ErrNoContext
	}

	if s.analytics != nil {
		s.analytics.Record(ctx, domain.UsageQuestionAsked, map[string]any{
			"query":       query,
			"document_id": req.DocumentID,
		})
	}

	completion, err := s.groundedRequest(hits, query)
	if err != nil {
		return nil, domain.CompletionRequest{}, err
	}
	return hits, completion, nil
}

// Summarize summarises a document from its first chunks.
func (s *AnswerService) Summarize(ctx context.Context, req driving.SummarizeRequest) (*domain.Answer, error) {
	logger.Section("Summarize")

	if strings.TrimSpace(req.DocumentID) == "" {
		return nil, fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}

	fetched, err := s.index.FetchByDocument(ctx, req.DocumentID, domain.SummarizeFetchLimit)
	if err != nil {
		return nil, fmt.Errorf("fetch chunks: %w", err)
	}
	if len(fetched) == 0 {
		return nil, domain.ErrNoContext
	}

	// Backends may return chunks unordered; summarise from the start of the document.
	sort.SliceStable(fetched, func(i, j int) bool {
		return fetched[i].Metadata.ChunkIndex < fetched[j].Metadata.ChunkIndex
	})
	hits := fetched[:min(len(fetched), domain.SummarizeContextHits)]
	logger.Debug("Summarizing %s from %d of %d chunks", req.DocumentID, len(hits), len(fetched))

	style := strings.TrimSpace(req.Style)
	if style == "" {
		if style, err = s.prompts.Load(driven.PromptSummarizeStyle); err != nil {
			return nil, fmt.Errorf("load prompt: %w", err)
		}
	}

	completion, err := s.groundedRequest(hits, style)
	if err != nil {
		return nil, err
	}

	text, provider, err := s.generator.Complete(ctx, completion, domain.PolicyAnyError)
	if err != nil {
		return nil, err
	}

	return &domain.Answer{
		Text:     text,
		Sources:  domain.SourcesFromHits(hits),
		Provider: provider,
	}, nil
}

func (s *AnswerService) groundedRequest(hits []domain.Hit, question string) (domain.CompletionRequest, error) {
	template, err := s.prompts.Load(driven.PromptGroundedAnswer)
	if err != nil {
		return domain.CompletionRequest{}, fmt.Errorf("load prompt: %w", err)
	}
	system, err := s.prompts.Load(driven.PromptGroundedSystem)
	if err != nil {
		return domain.CompletionRequest{}, fmt.Errorf("load prompt: %w", err)
	}

	return domain.CompletionRequest{
		Prompt: fmt.Sprintf(template, ContextBlock(hits), question),
		System: system,
	}, nil
}
