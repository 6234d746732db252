// Package chroma provides a vector index backed by a Chroma server over its HTTP API.
//
// APIv1 targets Chroma 0.4 to 0.6 servers. APIv2 targets Chroma 0.6 and 1.x,
// where collections live under a tenant and database.
package chroma

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Default configuration values.
const (
	DefaultHost    = "localhost"
	DefaultPort    = 8001
	DefaultTimeout = 30 * time.Second

	// CollectionPrefix is joined with the embedding dimension to name the collection.
	CollectionPrefix = "bkp_chunks_"

	DefaultTenant   = "default_tenant"
	DefaultDatabase = "default_database"
)

// Supported HTTP API versions.
const (
	APIv1 = "v1"
	APIv2 = "v2"
)

// Config holds configuration for the Chroma index.
type Config struct {
	// Host and Port locate the Chroma server.
	Host string
	Port int

	// Dimension selects the collection, so indexes of different sizes never mix.
	Dimension int

	// Collection overrides the derived collection name.
	Collection string

	// Timeout is the per-request timeout.
	Timeout time.Duration

	// APIVersion selects the server API (default: APIv1).
	APIVersion string

	// Tenant and Database scope collections under APIv2.
	Tenant   string
	Database string
}

// Index talks to one Chroma collection. The collection is created on first use.
type Index struct {
	client      *http.Client
	baseURL     string
	collection  string
	heartbeat   string
	collections string

	mu           sync.Mutex
	collectionID string
}

// chromaMetadata is the metadata stored with every record.
type chromaMetadata struct {
	DocumentID string `json:"document_id"`
	ChunkIndex int    `json:"chunk_index"`
	Filename   string `json:"filename"`
}

func (m chromaMetadata) toDomain() domain.ChunkMetadata {
	return domain.ChunkMetadata{DocumentID: m.DocumentID, ChunkIndex: m.ChunkIndex, Filename: m.Filename}
}

type createCollectionRequest struct {
	Name        string            `json:"name"`
	GetOrCreate bool              `json:"get_or_create"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type collectionResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type upsertRequest struct {
	IDs        []string         `json:"ids"`
	Embeddings [][]float32      `json:"embeddings"`
	Documents  []string         `json:"documents"`
	Metadatas  []chromaMetadata `json:"metadatas"`
}

type queryRequest struct {
	QueryEmbeddings [][]float32       `json:"query_embeddings"`
	NResults        int               `json:"n_results"`
	Where           map[string]string `json:"where,omitempty"`
	Include         []string          `json:"include"`
}

type queryResponse struct {
	IDs       [][]string         `json:"ids"`
	Documents [][]string         `json:"documents"`
	Metadatas [][]chromaMetadata `json:"metadatas"`
	Distances [][]float64        `json:"distances"`
}

type getRequest struct {
	Where   map[string]string `json:"where"`
	Limit   int               `json:"limit,omitempty"`
	Include []string          `json:"include"`
}

type getResponse struct {
	IDs       []string         `json:"ids"`
	Documents []string         `json:"documents"`
	Metadatas []chromaMetadata `json:"metadatas"`
}

type deleteRequest struct {
	Where map[string]string `json:"where"`
}

// NewIndex creates a Chroma index client. No request is made until first use.
func NewIndex(cfg Config) (*Index, error) {
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Dimension <= 0 {
		cfg.Dimension = domain.DefaultEmbeddingDimensions
	}
	if cfg.Collection == "" {
		cfg.Collection = CollectionName(cfg.Dimension)
	}

	heartbeat, collections, err := apiPaths(cfg)
	if err != nil {
		return nil, err
	}

	return &Index{
		client:      &http.Client{Timeout: cfg.Timeout},
		baseURL:     "http://" + cfg.Host + ":" + strconv.Itoa(cfg.Port),
		collection:  cfg.Collection,
		heartbeat:   heartbeat,
		collections: collections,
	}, nil
}

// apiPaths returns the heartbeat and collections paths for the configured API.
func apiPaths(cfg Config) (string, string, error) {
	switch cfg.APIVersion {
	case "", APIv1:
		return "/api/v1/heartbeat", "/api/v1/collections", nil
	case APIv2:
		tenant, database := cfg.Tenant, cfg.Database
		if tenant == "" {
			tenant = DefaultTenant
		}
		if database == "" {
			database = DefaultDatabase
		}
		return "/api/v2/heartbeat",
			"/api/v2/tenants/" + url.PathEscape(tenant) + "/databases/" + url.PathEscape(database) + "/collections", nil
	default:
		return "", "", fmt.Errorf("%w: chroma: unsupported API version %q", domain.ErrInvalidInput, cfg.APIVersion)
	}
}

// newIndexWithURL targets an explicit base URL over APIv1. Used by tests.
func newIndexWithURL(baseURL, collection string) *Index {
	return &Index{
		client:      &http.Client{Timeout: DefaultTimeout},
		baseURL:     baseURL,
		collection:  collection,
		heartbeat:   "/api/v1/heartbeat",
		collections: "/api/v1/collections",
	}
}

// CollectionName returns the collection used for a given dimension.
func CollectionName(dimension int) string {
	return CollectionPrefix + strconv.Itoa(dimension)
}

// Collection returns the collection name.
func (idx *Index) Collection() string {
	return idx.collection
}

// Upsert writes records to the collection.
func (idx *Index) Upsert(ctx context.Context, records []domain.IndexRecord) error {
	if len(records) == 0 {
		return nil
	}

	req := upsertRequest{
		IDs:        make([]string, len(records)),
		Embeddings: make([][]float32, len(records)),
		Documents:  make([]string, len(records)),
		Metadatas:  make([]chromaMetadata, len(records)),
	}
	for i, r := range records {
		req.IDs[i] = r.ID
		req.Embeddings[i] = r.Vector
		req.Documents[i] = r.Text
		req.Metadatas[i] = chromaMetadata{
			DocumentID: r.Metadata.DocumentID,
			ChunkIndex: r.Metadata.ChunkIndex,
			Filename:   r.Metadata.Filename,
		}
	}

	return idx.collectionCall(ctx, "upsert", req, nil)
}

// Query returns the nearest records. Scores are 1 - cosine distance.
func (idx *Index) Query(ctx context.Context, vector []float32, topK int, documentID string) ([]domain.Hit, error) {
	if topK <= 0 {
		return []domain.Hit{}, nil
	}

	req := queryRequest{
		QueryEmbeddings: [][]float32{vector},
		NResults:        topK,
		Include:         []string{"documents", "metadatas", "distances"},
	}
	if documentID != "" {
		req.Where = map[string]string{"document_id": documentID}
	}

	var resp queryResponse
	if err := idx.collectionCall(ctx, "query", req, &resp); err != nil {
		return nil, err
	}

	hits := []domain.Hit{}
	if len(resp.IDs) == 0 {
		return hits, nil
	}
	for i, id := range resp.IDs[0] {
		hit := domain.Hit{ID: id}
		if len(resp.Documents) > 0 && i < len(resp.Documents[0]) {
			hit.Text = resp.Documents[0][i]
		}
		if len(resp.Metadatas) > 0 && i < len(resp.Metadatas[0]) {
			hit.Metadata = resp.Metadatas[0][i].toDomain()
		}
		if len(resp.Distances) > 0 && i < len(resp.Distances[0]) {
			hit.Score = 1 - resp.Distances[0][i]
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// FetchByDocument returns up to limit records of one document in server order.
func (idx *Index) FetchByDocument(ctx context.Context, documentID string, limit int) ([]domain.Hit, error) {
	req := getRequest{
		Where:   map[string]string{"document_id": documentID},
		Limit:   limit,
		Include: []string{"documents", "metadatas"},
	}

	var resp getResponse
	if err := idx.collectionCall(ctx, "get", req, &resp); err != nil {
		return nil, err
	}

	hits := make([]domain.Hit, 0, len(resp.IDs))
	for i, id := range resp.IDs {
		hit := domain.Hit{ID: id}
		if i < len(resp.Documents) {
			hit.Text = resp.Documents[i]
		}
		if i < len(resp.Metadatas) {
			hit.Metadata = resp.Metadatas[i].toDomain()
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// DeleteDocument removes every record of one document.
func (idx *Index) DeleteDocument(ctx context.Context, documentID string) error {
	return idx.collectionCall(ctx, "delete", deleteRequest{
		Where: map[string]string{"document_id": documentID},
	}, nil)
}

// Ping checks the server heartbeat.
func (idx *Index) Ping(ctx context.Context) error {
	return idx.call(ctx, http.MethodGet, idx.heartbeat, nil, nil)
}

// Close releases resources.
func (idx *Index) Close() error {
	idx.client.CloseIdleConnections()
	return nil
}

// resolveCollection returns the collection id, creating the collection if needed.
func (idx *Index) resolveCollection(ctx context.Context) (string, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.collectionID != "" {
		return idx.collectionID, nil
	}

	var resp collectionResponse
	err := idx.call(ctx, http.MethodPost, idx.collections, createCollectionRequest{
		Name:        idx.collection,
		GetOrCreate: true,
		Metadata:    map[string]string{"hnsw:space": "cosine"},
	}, &resp)
	if err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", fmt.Errorf("%w: chroma: collection %s has no id", domain.ErrIndexUnavailable, idx.collection)
	}

	idx.collectionID = resp.ID
	return resp.ID, nil
}

func (idx *Index) collectionCall(ctx context.Context, op string, body, out any) error {
	id, err := idx.resolveCollection(ctx)
	if err != nil {
		return err
	}
	return idx.call(ctx, http.MethodPost, idx.collections+"/"+url.PathEscape(id)+"/"+op, body, out)
}

func (idx *Index) call(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("chroma: marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, idx.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("chroma: create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := idx.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: chroma: %w", domain.ErrIndexUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: chroma: read response: %w", domain.ErrIndexUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: chroma error (status %d): %s", domain.ErrIndexUnavailable, resp.StatusCode, string(data))
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: chroma: decode response: %w", domain.ErrIndexUnavailable, err)
	}
	return nil
}
