package preference

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

type dialect struct {
	name   string
	schema string
	insert string
}

var (
	sqliteDialect = dialect{
		name: "sqlite3",
		schema: `
CREATE TABLE IF NOT EXISTS l2wp_preferences (
    functionality TEXT PRIMARY KEY,
    slug TEXT NOT NULL,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
)`,
		insert: `INSERT INTO l2wp_preferences (functionality, slug) VALUES (?, ?)`,
	}
	postgresDialect = dialect{
		name: "pgx",
		schema: `
CREATE TABLE IF NOT EXISTS l2wp_preferences (
    functionality TEXT PRIMARY KEY,
    slug TEXT NOT NULL,
    updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
)`,
		insert: `INSERT INTO l2wp_preferences (functionality, slug) VALUES ($1, $2)`,
	}
)

// SQLStore keeps preferences in one table. Save replaces the whole set in a
// transaction; concurrent writers are last-write-wins.
type SQLStore struct {
	db         *sql.DB
	d          dialect
	schemaOnce sync.Once
	schemaErr  error
}

func NewSQLiteStore(db *sql.DB) *SQLStore   { return &SQLStore{db: db, d: sqliteDialect} }
func NewPostgresStore(db *sql.DB) *SQLStore { return &SQLStore{db: db, d: postgresDialect} }

// OpenSQLite opens (creating if needed) the database file at path.
func OpenSQLite(path string) (*SQLStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer at a time avoids SQLITE_BUSY on the replace transaction.
	db.SetMaxOpenConns(1)
	return NewSQLiteStore(db), nil
}

func (s *SQLStore) ensureSchema(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("db is nil")
	}
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.ExecContext(ctx, s.d.schema)
	})
	return s.schemaErr
}

func (s *SQLStore) Load(ctx context.Context) (map[string]string, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT functionality, slug FROM l2wp_preferences`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]string{}
	for rows.Next() {
		var key, slug string
		if err := rows.Scan(&key, &slug); err != nil {
			return nil, err
		}
		out[key] = slug
	}
	return out, rows.Err()
}

func (s *SQLStore) Save(ctx context.Context, prefs map[string]string) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM l2wp_preferences`); err != nil {
		return err
	}
	keys := make([]string, 0, len(prefs))
	for k := range prefs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if strings.TrimSpace(k) == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, s.d.insert, k, prefs[k]); err != nil {
			return fmt.Errorf("save preference %s: %w", k, err)
		}
	}
	return tx.Commit()
}

func (s *SQLStore) Clear(ctx context.Context) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM l2wp_preferences`)
	return err
}

func (s *SQLStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
