package signature

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"l2wp/internal/apperr"
)

func TestDefaultTable(t *testing.T) {
	tbl, err := Load("")
	require.NoError(t, err)
	require.Greater(t, tbl.Len(), 0)
	assert.Equal(t, "forms", tbl.Keys()[0])

	forms, ok := tbl.Lookup("forms")
	require.True(t, ok)
	assert.Contains(t, forms.Patterns, "react-hook-form")
	assert.Equal(t, "elementor-pro", forms.Solutions[0].Slug)

	_, ok = tbl.Lookup("popup_modal")
	assert.True(t, ok)
	_, ok = tbl.Lookup("animations")
	assert.True(t, ok)
}

func TestLoad_MissingFileIsEmpty(t *testing.T) {
	tbl, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 0, tbl.Len())
	_, ok := tbl.Lookup("forms")
	assert.False(t, ok)
}

func TestLoad_JSONKeepsOrder(t *testing.T) {
	p := filepath.Join(t.TempDir(), "mappings.json")
	body := `{"functionality_mappings":{
		"zeta":{"name":"Z","detector_patterns":["z"],"recommended_solutions":[]},
		"alpha":{"name":"A","detector_patterns":["a"],"recommended_solutions":[{"slug":"x","name":"X","type":"plugin","compatibility":10}]}
	}}`
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))

	tbl, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, []string{"zeta", "alpha"}, tbl.Keys())
	alpha, _ := tbl.Lookup("alpha")
	assert.Equal(t, 10, alpha.Solutions[0].Compatibility)
}

func TestLoad_MalformedJSON(t *testing.T) {
	p := filepath.Join(t.TempDir(), "mappings.json")
	require.NoError(t, os.WriteFile(p, []byte(`{"functionality_mappings": {`), 0o644))
	_, err := Load(p)
	assert.True(t, errors.Is(err, apperr.ErrMalformedInput))
}

func TestParse_DuplicateSlug(t *testing.T) {
	_, err := Parse([]byte(`
functionality_mappings:
  forms:
    name: Forms
    recommended_solutions:
      - {slug: a, name: A}
      - {slug: a, name: B}
`), "yaml")
	var ae *apperr.Error
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, []string{"forms/a"}, ae.Items)
}

func TestNilTable(t *testing.T) {
	var tbl *Table
	assert.Equal(t, 0, tbl.Len())
	assert.Nil(t, tbl.Keys())
	_, ok := tbl.Lookup("x")
	assert.False(t, ok)
}
