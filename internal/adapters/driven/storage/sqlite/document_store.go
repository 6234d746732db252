package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

const documentColumns = `id, filename, ext, content_type, size, storage_path, uploaded_at, chunk_count`

// SaveDocument stores or updates a document.
func (s *documentStore) SaveDocument(ctx context.Context, doc *domain.Document) error {
	if doc == nil || doc.ID == "" {
		return domain.ErrInvalidInput
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO documents (`+documentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			filename = excluded.filename,
			ext = excluded.ext,
			content_type = excluded.content_type,
			size = excluded.size,
			storage_path = excluded.storage_path,
			uploaded_at = excluded.uploaded_at,
			chunk_count = excluded.chunk_count
	`, doc.ID, doc.Filename, doc.Ext, doc.ContentType, doc.Size, doc.StoragePath,
		formatTime(doc.UploadedAt), doc.ChunkCount)
	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *documentStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)
	return scanDocument(row)
}

// DeleteDocument removes a document. Missing documents return domain.ErrNotFound.
func (s *documentStore) DeleteDocument(ctx context.Context, id string) error {
	res, err := s.store.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListDocuments returns one page of matching documents, newest first, and the total match count.
func (s *documentStore) ListDocuments(ctx context.Context, query domain.DocumentQuery) ([]domain.Document, int, error) {
	query = query.Normalise()
	where, args := buildDocumentFilter(query)

	var total int
	if err := s.store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting documents: %w", err)
	}

	pageArgs := append(append([]any{}, args...), query.Size, query.Offset())
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT `+documentColumns+` FROM documents`+where+`
		ORDER BY uploaded_at DESC, id
		LIMIT ? OFFSET ?`, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	docs := []domain.Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, 0, err
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating documents: %w", err)
	}

	return docs, total, nil
}

// buildDocumentFilter returns a WHERE clause (with leading space) and its arguments.
func buildDocumentFilter(q domain.DocumentQuery) (string, []any) {
	var conds []string
	var args []any

	if q.Search != "" {
		conds = append(conds, `LOWER(filename) LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(strings.ToLower(q.Search))+"%")
	}
	if q.Ext != "" {
		conds = append(conds, "ext = ?")
		args = append(args, q.Ext)
	}
	if q.DateFrom != nil {
		conds = append(conds, "uploaded_at >= ?")
		args = append(args, formatTime(*q.DateFrom))
	}
	if q.DateTo != nil {
		conds = append(conds, "uploaded_at <= ?")
		args = append(args, formatTime(*q.DateTo))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (*domain.Document, error) {
	var doc domain.Document
	var uploadedAt string

	err := row.Scan(&doc.ID, &doc.Filename, &doc.Ext, &doc.ContentType, &doc.Size,
		&doc.StoragePath, &uploadedAt, &doc.ChunkCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	doc.UploadedAt, err = parseTime(uploadedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing uploaded_at: %w", err)
	}
	return &doc, nil
}
