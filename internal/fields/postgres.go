package fields

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"l2wp/internal/types"
	"l2wp/internal/util/jsonutil"
)

// Postgres serves one namespace's fields from two tables shared by every
// namespace.
type Postgres struct {
	db         *sql.DB
	namespace  string
	schemaOnce sync.Once
	schemaErr  error
}

func NewPostgres(db *sql.DB, namespace string) *Postgres {
	return &Postgres{db: db, namespace: namespace}
}

func (p *Postgres) ensureSchema() error {
	if p == nil || p.db == nil {
		return fmt.Errorf("db is nil")
	}
	p.schemaOnce.Do(func() {
		_, p.schemaErr = p.db.Exec(`
CREATE TABLE IF NOT EXISTS l2wp_field_defs (
    namespace TEXT NOT NULL,
    content_type TEXT NOT NULL,
    name TEXT NOT NULL,
    label TEXT NOT NULL DEFAULT '',
    type TEXT NOT NULL DEFAULT 'text',
    position INT NOT NULL DEFAULT 0,
    PRIMARY KEY(namespace, content_type, name)
);
CREATE TABLE IF NOT EXISTS l2wp_field_values (
    namespace TEXT NOT NULL,
    context_id TEXT NOT NULL,
    field TEXT NOT NULL,
    value JSONB NOT NULL,
    PRIMARY KEY(namespace, context_id, field)
);
`)
	})
	return p.schemaErr
}

func (p *Postgres) FieldValue(ctx context.Context, field, contextID string) (any, error) {
	if err := p.ensureSchema(); err != nil {
		return nil, err
	}
	var raw []byte
	err := p.db.QueryRowContext(ctx,
		`SELECT value FROM l2wp_field_values WHERE namespace=$1 AND context_id=$2 AND field=$3`,
		p.namespace, strings.TrimSpace(contextID), field).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var v any
	if err := jsonutil.Decode("field value", raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func (p *Postgres) ListFields(ctx context.Context, contentType string) ([]types.FieldDef, error) {
	if err := p.ensureSchema(); err != nil {
		return nil, err
	}
	rows, err := p.db.QueryContext(ctx,
		`SELECT name, label, type FROM l2wp_field_defs WHERE namespace=$1 AND content_type=$2 ORDER BY position, name`,
		p.namespace, strings.TrimSpace(contentType))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.FieldDef
	for rows.Next() {
		var d types.FieldDef
		if err := rows.Scan(&d.Name, &d.Label, &d.Type); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrUnknownContentType
	}
	return out, nil
}

// PutField upserts a field definition.
func (p *Postgres) PutField(ctx context.Context, contentType string, position int, d types.FieldDef) error {
	if err := p.ensureSchema(); err != nil {
		return err
	}
	_, err := p.db.ExecContext(ctx, `
INSERT INTO l2wp_field_defs (namespace, content_type, name, label, type, position)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (namespace, content_type, name)
DO UPDATE SET label=EXCLUDED.label, type=EXCLUDED.type, position=EXCLUDED.position
`, p.namespace, contentType, d.Name, d.Label, d.Type, position)
	return err
}

// PutValue upserts a field value for one context.
func (p *Postgres) PutValue(ctx context.Context, contextID, field string, value any) error {
	if err := p.ensureSchema(); err != nil {
		return err
	}
	raw, err := jsonutil.MarshalNoEscape(value)
	if err != nil {
		return err
	}
	_, err = p.db.ExecContext(ctx, `
INSERT INTO l2wp_field_values (namespace, context_id, field, value)
VALUES ($1, $2, $3, $4)
ON CONFLICT (namespace, context_id, field)
DO UPDATE SET value=EXCLUDED.value
`, p.namespace, contextID, field, string(raw))
	return err
}
