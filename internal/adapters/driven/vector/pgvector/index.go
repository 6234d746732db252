// Package pgvector provides a vector index stored in PostgreSQL with the pgvector extension.
package pgvector

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	"github.com/pgvector/pgvector-go"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// TablePrefix is joined with the dimension to name the chunk table.
const TablePrefix = "bkp_chunks_"

// Index stores chunk vectors in a vector(dim) column with an HNSW cosine index.
type Index struct {
	db        *sql.DB
	table     string
	dimension int
}

// NewIndex connects to dsn and creates the extension, table and index if needed.
func NewIndex(ctx context.Context, dsn string, dimension int) (*Index, error) {
	if dimension <= 0 {
		dimension = domain.DefaultEmbeddingDimensions
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open database: %w", domain.ErrIndexUnavailable, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: ping database: %w", domain.ErrIndexUnavailable, err)
	}

	idx := &Index{db: db, table: TableName(dimension), dimension: dimension}
	if err := idx.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: migrate: %w", domain.ErrIndexUnavailable, err)
	}
	return idx, nil
}

// TableName returns the chunk table used for a given dimension.
func TableName(dimension int) string {
	return TablePrefix + strconv.Itoa(dimension)
}

func (idx *Index) migrate(ctx context.Context) error {
	for _, stmt := range migrations(idx.table, idx.dimension) {
		if _, err := idx.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("execute migration: %w", err)
		}
	}
	return nil
}

func migrations(table string, dimension int) []string {
	return []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			document_id TEXT NOT NULL,
			chunk_index INTEGER NOT NULL,
			filename TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL,
			embedding vector(%d) NOT NULL
		)`, table, dimension),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_document_idx ON %s (document_id)`, table, table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_embedding_idx ON %s USING hnsw (embedding vector_cosine_ops)`, table, table),
	}
}

// Upsert writes records in one transaction.
func (idx *Index) Upsert(ctx context.Context, records []domain.IndexRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := idx.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %w", domain.ErrIndexUnavailable, err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (id, document_id, chunk_index, filename, content, embedding)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			document_id = EXCLUDED.document_id,
			chunk_index = EXCLUDED.chunk_index,
			filename = EXCLUDED.filename,
			content = EXCLUDED.content,
			embedding = EXCLUDED.embedding`, idx.table))
	if err != nil {
		return fmt.Errorf("%w: prepare upsert: %w", domain.ErrIndexUnavailable, err)
	}
	defer stmt.Close()

	for _, r := range records {
		if len(r.Vector) != idx.dimension {
			return fmt.Errorf("pgvector: record %s has %d dimensions, want %d: %w",
				r.ID, len(r.Vector), idx.dimension, domain.ErrInvalidInput)
		}
		_, err := stmt.ExecContext(ctx, r.ID, r.Metadata.DocumentID, r.Metadata.ChunkIndex,
			r.Metadata.Filename, r.Text, pgvector.NewVector(r.Vector))
		if err != nil {
			return fmt.Errorf("%w: upsert %s: %w", domain.ErrIndexUnavailable, r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %w", domain.ErrIndexUnavailable, err)
	}
	return nil
}

// Query ranks records by cosine distance. Scores are 1 - distance.
// A document-scoped query ranks that document's rows exactly instead of
// post-filtering the HNSW candidates, which can return fewer than topK.
func (idx *Index) Query(ctx context.Context, vector []float32, topK int, documentID string) ([]domain.Hit, error) {
	if topK <= 0 {
		return []domain.Hit{}, nil
	}

	args := []any{pgvector.NewVector(vector), topK}
	if documentID != "" {
		args = append(args, documentID)
	}

	rows, err := idx.db.QueryContext(ctx, queryStatement(idx.table, documentID != ""), args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query: %w", domain.ErrIndexUnavailable, err)
	}
	return scanHits(rows, true)
}

// queryStatement takes $1 vector, $2 limit and, when scoped, $3 document id.
func queryStatement(table string, scoped bool) string {
	if !scoped {
		return fmt.Sprintf(`
		SELECT id, document_id, chunk_index, filename, content, 1 - (embedding <=> $1) AS score
		FROM %s
		ORDER BY embedding <=> $1
		LIMIT $2`, table)
	}
	// MATERIALIZED keeps the planner off the HNSW index for the scoped rows.
	return fmt.Sprintf(`
		WITH doc AS MATERIALIZED (
			SELECT id, document_id, chunk_index, filename, content, embedding
			FROM %s
			WHERE document_id = $3
		)
		SELECT id, document_id, chunk_index, filename, content, 1 - (embedding <=> $1) AS score
		FROM doc
		ORDER BY embedding <=> $1
		LIMIT $2`, table)
}

// FetchByDocument returns up to limit records of one document in chunk order.
func (idx *Index) FetchByDocument(ctx context.Context, documentID string, limit int) ([]domain.Hit, error) {
	if limit <= 0 {
		limit = domain.SummarizeFetchLimit
	}

	query := fmt.Sprintf(`
		SELECT id, document_id, chunk_index, filename, content
		FROM %s
		WHERE document_id = $1
		ORDER BY chunk_index
		LIMIT $2`, idx.table)

	rows, err := idx.db.QueryContext(ctx, query, documentID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch: %w", domain.ErrIndexUnavailable, err)
	}
	return scanHits(rows, false)
}

func scanHits(rows *sql.Rows, withScore bool) ([]domain.Hit, error) {
	defer rows.Close()

	hits := []domain.Hit{}
	for rows.Next() {
		var h domain.Hit
		dest := []any{&h.ID, &h.Metadata.DocumentID, &h.Metadata.ChunkIndex, &h.Metadata.Filename, &h.Text}
		if withScore {
			dest = append(dest, &h.Score)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("%w: scan row: %w", domain.ErrIndexUnavailable, err)
		}
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: rows: %w", domain.ErrIndexUnavailable, err)
	}
	return hits, nil
}

// DeleteDocument removes every record of one document.
func (idx *Index) DeleteDocument(ctx context.Context, documentID string) error {
	_, err := idx.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE document_id = $1`, idx.table), documentID)
	if err != nil {
		return fmt.Errorf("%w: delete: %w", domain.ErrIndexUnavailable, err)
	}
	return nil
}

// Close closes the database connection.
func (idx *Index) Close() error {
	return idx.db.Close()
}
