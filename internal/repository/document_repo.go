package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-env-manager/internal/model"
	"go-env-manager/internal/storage"
)

// DocumentRepository is the postgres implementation of storage.Store.
type DocumentRepository struct {
	pool *pgxpool.Pool
}

func NewDocumentRepository(pool *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{pool: pool}
}

func (r *DocumentRepository) Get(ctx context.Context, id string) (storage.Document, error) {
	doc := storage.Document{ID: id}
	err := r.pool.QueryRow(ctx,
		`SELECT data, revision FROM documents WHERE id = $1`, id).
		Scan(&doc.Data, &doc.Revision)

	if errors.Is(err, pgx.ErrNoRows) {
		return storage.Document{}, fmt.Errorf("get %q: %w", id, model.ErrDocumentNotFound)
	}
	if err != nil {
		return storage.Document{}, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

func (r *DocumentRepository) Put(ctx context.Context, id string, data []byte, expectedRevision string) (string, error) {
	if strings.TrimSpace(id) == "" {
		return "", fmt.Errorf("document id is empty")
	}

	if expectedRevision == "" {
		next := storage.NextRevision("")
		tag, err := r.pool.Exec(ctx,
			`INSERT INTO documents (id, data, revision, updated_at)
			 VALUES ($1, $2, $3, NOW())
			 ON CONFLICT (id) DO NOTHING`,
			id, data, next)
		if err != nil {
			return "", fmt.Errorf("create document: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return "", fmt.Errorf("create %q: already exists: %w", id, model.ErrConflict)
		}
		return next, nil
	}

	next := storage.NextRevision(expectedRevision)
	tag, err := r.pool.Exec(ctx,
		`UPDATE documents
		 SET data = $2, revision = $3, updated_at = NOW()
		 WHERE id = $1 AND revision = $4`,
		id, data, next, expectedRevision)
	if err != nil {
		return "", fmt.Errorf("update document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return "", fmt.Errorf("update %q: revision %s is stale: %w", id, expectedRevision, model.ErrConflict)
	}
	return next, nil
}

func (r *DocumentRepository) Remove(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("remove document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("remove %q: %w", id, model.ErrDocumentNotFound)
	}
	return nil
}

func (r *DocumentRepository) ScanPrefix(ctx context.Context, prefix string) ([]storage.Document, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, data, revision FROM documents
		 WHERE id LIKE $1 ESCAPE '\'
		 ORDER BY id`, escapeLike(prefix)+"%")
	if err != nil {
		return nil, fmt.Errorf("scan documents: %w", err)
	}
	defer rows.Close()

	docs := make([]storage.Document, 0)
	for rows.Next() {
		var doc storage.Document
		if err := rows.Scan(&doc.ID, &doc.Data, &doc.Revision); err != nil {
			return nil, fmt.Errorf("scan document row: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

// Close is a no-op; the pool is owned by database.DB.
func (r *DocumentRepository) Close() error {
	return nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

var _ storage.Store = (*DocumentRepository)(nil)
