package document

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"l2wp/internal/translator"
	"l2wp/internal/types"
)

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	meta := translator.SourceMeta("page")
	id, err := s.Create(ctx, types.Document{Title: "Home", Type: "page", Meta: meta})
	require.NoError(t, err)
	assert.Len(t, id, 12)
	meta["injected"] = true

	doc, err := s.Get(ctx, " "+id+" ")
	require.NoError(t, err)
	assert.Equal(t, "Home", doc.Title)
	assert.False(t, doc.CreatedAt.IsZero())
	assert.NotContains(t, doc.Meta, "injected")

	id2, err := s.Create(ctx, types.Document{Title: "About"})
	require.NoError(t, err)
	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, id2, list[1].ID)

	require.NoError(t, s.DeleteMeta(ctx, id, translator.MetaSource))
	doc, _ = s.Get(ctx, id)
	assert.NotContains(t, doc.Meta, translator.MetaSource)
	assert.Contains(t, doc.Meta, translator.MetaEditMode)

	_, err = s.Get(ctx, "missing")
	assert.True(t, errors.Is(err, translator.ErrDocumentNotFound))
	assert.True(t, errors.Is(s.DeleteMeta(ctx, "missing"), ErrNotFound))
}

func TestMemoryStore_WithExporter(t *testing.T) {
	s := NewMemoryStore()
	ex := translator.NewExporter(translator.New(), s)
	ctx := context.Background()

	res, err := ex.Export(ctx, []byte(`{"title": "Landing", "sections": [{"columns": [{"widgets": [{"type": "heading", "content": "Hi"}]}]}]}`))
	require.NoError(t, err)
	listed, err := ex.List(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, res.ID, listed[0].ID)

	require.NoError(t, ex.Untag(ctx, res.ID))
	listed, _ = ex.List(ctx)
	assert.Empty(t, listed)
}
