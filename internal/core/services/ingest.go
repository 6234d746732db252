package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-kb/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// IngestService stores, extracts, chunks and indexes uploaded files.
type IngestService struct {
	files      driven.FileStore
	extractors driven.ExtractorRegistry
	pipeline   driven.PostProcessorPipeline
	indexer    *Indexer
	index      driven.VectorIndex
	docStore   driven.DocumentStore
	analytics  driving.AnalyticsService

	now func() time.Time
}

// NewIngestService creates a new ingest service.
// The analytics service is optional (can be nil).
func NewIngestService(
	files driven.FileStore,
	extractors driven.ExtractorRegistry,
	pipeline driven.PostProcessorPipeline,
	indexer *Indexer,
	index driven.VectorIndex,
	docStore driven.DocumentStore,
	analytics driving.AnalyticsService,
) *IngestService {
	return &IngestService{
		files:      files,
		extractors: extractors,
		pipeline:   pipeline,
		indexer:    indexer,
		index:      index,
		docStore:   docStore,
		analytics:  analytics,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// IngestFile stores the upload, extracts its text and indexes the chunks.
func (s *IngestService) IngestFile(ctx context.Context, req driving.IngestRequest) (*driving.IngestResult, error) {
	logger.Section("Ingest")
	logger.Debug("File: %q (%s, %d bytes declared)", req.Filename, req.ContentType, req.Size)

	if strings.TrimSpace(req.Filename) == "" || req.Body == nil {
		return nil, fmt.Errorf("%w: filename and body are required", domain.ErrInvalidInput)
	}
	if req.Size > domain.MaxUploadSize {
		return nil, domain.ErrFileTooLarge
	}

	// 1. STORE RAW BYTES
	path, size, err := s.files.Save(ctx, req.Filename, req.Body)
	if err != nil {
		return nil, fmt.Errorf("store file: %w", err)
	}

	// 2. EXTRACT TEXT
	text := s.extractors.Extract(ctx, path, req.ContentType)
	if strings.HasPrefix(text, driven.ParseErrorMarker) {
		logger.Warn("Extraction failed for %s: %s", req.Filename, text)
	}
	if strings.TrimSpace(text) == "" {
		s.removeFile(ctx, path)
		return nil, domain.ErrExtractionEmpty
	}

	doc := &domain.Document{
		Filename:    req.Filename,
		ContentType: req.ContentType,
		Size:        size,
		StoragePath: path,
	}
	result, err := s.ingest(ctx, doc, text)
	if err != nil {
		s.removeFile(ctx, path)
		return nil, err
	}
	return result, nil
}

// IngestText chunks and indexes text that is already extracted.
func (s *IngestService) IngestText(ctx context.Context, filename, text string) (*driving.IngestResult, error) {
	logger.Section("Ingest")
	logger.Debug("Text: %q (%d bytes)", filename, len(text))

	if strings.TrimSpace(filename) == "" {
		return nil, fmt.Errorf("%w: filename is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(text) == "" {
		return nil, domain.ErrExtractionEmpty
	}

	doc := &domain.Document{
		Filename:    filename,
		ContentType: "text/plain",
		Size:        int64(len(text)),
	}
	return s.ingest(ctx, doc, text)
}

// ingest chunks text, saves the document record and indexes the chunks.
// An index failure removes the record and any partial index writes.
func (s *IngestService) ingest(ctx context.Context, doc *domain.Document, text string) (*driving.IngestResult, error) {
	// 3. CHUNK
	chunks, err := s.pipeline.Process(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("chunk: %w", err)
	}

	// 4. SAVE DOCUMENT RECORD
	doc.ID = uuid.New().String()
	doc.Ext = domain.ExtFromFilename(doc.Filename)
	doc.UploadedAt = s.now()
	doc.ChunkCount = len(chunks)
	if err := s.docStore.SaveDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}

	// 5. EMBED AND INDEX
	if err := s.indexer.IndexChunks(ctx, doc, chunks); err != nil {
		s.rollback(doc.ID)
		return nil, fmt.Errorf("index document: %w", err)
	}

	logger.Info("Ingested %s as %s (%d chunks)", doc.Filename, doc.ID, len(chunks))

	if s.analytics != nil {
		s.analytics.Record(ctx, domain.UsageDocumentUploaded, map[string]any{
			"document_id": doc.ID,
			"filename":    doc.Filename,
			"chunks":      len(chunks),
		})
	}

	return &driving.IngestResult{DocumentID: doc.ID, Chunks: len(chunks)}, nil
}

// rollback undoes a failed ingestion. It runs detached from the request
// context so a cancelled upload still cleans up.
func (s *IngestService) rollback(documentID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.index.DeleteDocument(ctx, documentID); err != nil {
		logger.Warn("Rollback: delete index records for %s: %v", documentID, err)
	}
	if err := s.docStore.DeleteDocument(ctx, documentID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		logger.Warn("Rollback: delete document %s: %v", documentID, err)
	}
}

func (s *IngestService) removeFile(ctx context.Context, path string) {
	if err := s.files.Remove(context.WithoutCancel(ctx), path); err != nil {
		logger.Warn("Remove stored file %s: %v", path, err)
	}
}
