package fields

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"l2wp/internal/apperr"
	"l2wp/internal/types"
)

const staticYAML = `
acf:
  fields:
    product:
      - {name: price, label: Price, type: number}
      - {name: gallery, label: Gallery, type: image}
  values:
    "42":
      price: 9.5
      tags: [a, b]
mb:
  fields:
    product:
      - {name: color, label: Color}
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestLoadStatic_YAML(t *testing.T) {
	set := NewSet()
	require.NoError(t, LoadStatic(writeFile(t, "fields.yaml", staticYAML), set))
	ctx := context.Background()

	v, err := set.Provider(NamespaceACF).FieldValue(ctx, "price", "42")
	require.NoError(t, err)
	assert.Equal(t, 9.5, v)

	v, err = set.Provider(NamespaceACF).FieldValue(ctx, "price", "7")
	require.NoError(t, err)
	assert.Nil(t, v)

	defs, err := set.ListFields(ctx, "product")
	require.NoError(t, err)
	require.Len(t, defs, 3)
	assert.Equal(t, types.FieldDef{Name: "price", Label: "Price", Type: "number", Plugin: "acf", Placeholder: "{{acf.price}}"}, defs[0])
	assert.Equal(t, "metabox", defs[2].Plugin)
	assert.Equal(t, "text", defs[2].Type)
	assert.Equal(t, "{{mb.color}}", defs[2].Placeholder)
}

func TestLoadStatic_JSON(t *testing.T) {
	set := NewSet()
	p := writeFile(t, "fields.json", `{"jet": {"fields": {"event": [{"name": "venue", "label": "Venue", "type": "text"}]}}}`)
	require.NoError(t, LoadStatic(p, set))
	defs, err := set.ListFields(context.Background(), "event")
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, "{{jet.venue}}", defs[0].Placeholder)
}

func TestLoadStatic_Errors(t *testing.T) {
	err := LoadStatic(filepath.Join(t.TempDir(), "missing.yaml"), NewSet())
	assert.True(t, errors.Is(err, apperr.ErrFileNotFound))

	err = LoadStatic(writeFile(t, "bad.yaml", "pods:\n  fields: {}\n"), NewSet())
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	err = LoadStatic(writeFile(t, "bad.json", `{"acf": `), NewSet())
	assert.True(t, errors.Is(err, apperr.ErrMalformedInput))
}

func TestSet_UnknownContentType(t *testing.T) {
	_, err := NewSet().ListFields(context.Background(), "product")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

type failingProvider struct{ Null }

func (failingProvider) ListFields(context.Context, string) ([]types.FieldDef, error) {
	return nil, errors.New("connection refused")
}

func TestSet_ProviderFailure(t *testing.T) {
	set := NewSet().Register(NamespaceJet, failingProvider{})
	_, err := set.ListFields(context.Background(), "product")
	assert.True(t, errors.Is(err, apperr.ErrCollaborator))
	assert.Contains(t, err.Error(), "jet: connection refused")
}

func TestNullProvider(t *testing.T) {
	var s *Set
	v, err := s.Provider(NamespaceACF).FieldValue(context.Background(), "x", "1")
	assert.ErrorIs(t, err, ErrNoBackend)
	assert.Nil(t, v)

	v, err = NewSet().Register(NamespaceMB, nil).Provider(NamespaceMB).FieldValue(context.Background(), "x", "1")
	assert.ErrorIs(t, err, ErrNoBackend)
	assert.Nil(t, v)
}
