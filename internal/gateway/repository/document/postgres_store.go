package document

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"l2wp/internal/types"
	"l2wp/internal/util/jsonutil"
)

type PostgresStore struct {
	db         *sql.DB
	schemaOnce sync.Once
	schemaErr  error
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) ensureSchema() error {
	if s == nil || s.db == nil {
		return fmt.Errorf("db is nil")
	}
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.Exec(`
CREATE TABLE IF NOT EXISTS l2wp_documents (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    type TEXT NOT NULL,
    version TEXT NOT NULL,
    content JSONB NOT NULL,
    meta JSONB NOT NULL DEFAULT '{}'::jsonb,
    created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_l2wp_documents_created ON l2wp_documents(created_at);
`)
	})
	return s.schemaErr
}

func (s *PostgresStore) Create(ctx context.Context, doc types.Document) (string, error) {
	if err := s.ensureSchema(); err != nil {
		return "", err
	}
	id, err := newID()
	if err != nil {
		return "", err
	}
	content, err := jsonutil.MarshalNoEscape(doc.Content)
	if err != nil {
		return "", fmt.Errorf("encode content: %w", err)
	}
	meta, err := jsonutil.MarshalNoEscape(copyDoc(doc).Meta)
	if err != nil {
		return "", fmt.Errorf("encode meta: %w", err)
	}
	created := doc.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO l2wp_documents (id, title, type, version, content, meta, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`, id, doc.Title, doc.Type, doc.Version, string(content), string(meta), created)
	if err != nil {
		return "", err
	}
	return id, nil
}

const selectDocument = `SELECT id, title, type, version, content, meta, created_at FROM l2wp_documents`

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (types.Document, error) {
	var (
		doc           types.Document
		content, meta []byte
	)
	if err := row.Scan(&doc.ID, &doc.Title, &doc.Type, &doc.Version, &content, &meta, &doc.CreatedAt); err != nil {
		return types.Document{}, err
	}
	if err := jsonutil.Decode("decode document content", content, &doc.Content); err != nil {
		return types.Document{}, err
	}
	if err := jsonutil.Decode("decode document meta", meta, &doc.Meta); err != nil {
		return types.Document{}, err
	}
	return doc, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (types.Document, error) {
	if err := s.ensureSchema(); err != nil {
		return types.Document{}, err
	}
	doc, err := scanDocument(s.db.QueryRowContext(ctx, selectDocument+` WHERE id=$1`, normalizeID(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return types.Document{}, ErrNotFound
	}
	return doc, err
}

func (s *PostgresStore) List(ctx context.Context) ([]types.Document, error) {
	if err := s.ensureSchema(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, selectDocument+` ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []types.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

func (s *PostgresStore) DeleteMeta(ctx context.Context, id string, keys ...string) error {
	if err := s.ensureSchema(); err != nil {
		return err
	}
	id = normalizeID(id)
	res, err := s.db.ExecContext(ctx, `UPDATE l2wp_documents SET meta = meta - $2::text[] WHERE id=$1`, id, keys)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
