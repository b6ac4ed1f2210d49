package converter

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"l2wp/internal/apperr"
	"l2wp/internal/archive"
	"l2wp/internal/cache/session"
	"l2wp/internal/detector"
	"l2wp/internal/fields"
	"l2wp/internal/gateway/repository/document"
	"l2wp/internal/gateway/repository/preference"
	"l2wp/internal/importer"
	"l2wp/internal/placeholder"
	"l2wp/internal/recommender"
	"l2wp/internal/registry"
	"l2wp/internal/signature"
	"l2wp/internal/translator"
	"l2wp/internal/types"
)

const tableYAML = `functionality_mappings:
  forms:
    name: Forms
    detector_patterns: ["react-hook-form", "<form"]
    recommended_solutions:
      - slug: contact-form-7
        name: Contact Form 7
        type: plugin
        compatibility: 90
`

func zipBytes(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func projectZip(t *testing.T) []byte {
	return zipBytes(t, map[string]string{
		"package.json":        `{"name":"shop","dependencies":{"react-hook-form":"^7.0.0"}}`,
		"src/pages/Index.tsx": `<section><h1>Shop</h1><form></form></section>`,
		"src/index.css":       ":root { --primary: 0 0% 0%; }",
		"public/robots.txt":   "x",
	})
}

func newService(t *testing.T) (*Service, *document.MemoryStore) {
	t.Helper()
	table, err := signature.Parse([]byte(tableYAML), "yaml")
	require.NoError(t, err)
	docs := document.NewMemoryStore()
	rec := recommender.New(table, registry.NewMemoryRegistry(), recommender.WithPreferences(preference.NewMemoryStore()))
	tr := translator.New()
	contexts := placeholder.NewMemoryContexts()
	contexts.Put("42", placeholder.Context{Title: "Hello"})
	sessions := session.New(4, 0)
	t.Cleanup(sessions.Close)
	svc := New(Deps{
		Analyzer:    &archive.Analyzer{TempDir: t.TempDir()},
		Validator:   archive.NewValidator(1 << 20),
		Sessions:    sessions,
		Detector:    detector.New(table),
		Recommender: rec,
		Translator:  tr,
		Exporter:    translator.NewExporter(tr, docs),
		Importer:    importer.New(rec, docs, importer.WithTranslator(tr)),
		Resolver:    placeholder.NewResolver(contexts, fields.NewSet()),
	})
	return svc, docs
}

func upload(t *testing.T, svc *Service, user string) *AnalyzeResult {
	t.Helper()
	data := projectZip(t)
	res, err := svc.Analyze(context.Background(), Upload{User: user, Name: "shop.zip", Size: int64(len(data)), Body: bytes.NewReader(data)})
	require.NoError(t, err)
	return res
}

func TestAnalyzeThenDetect(t *testing.T) {
	svc, _ := newService(t)
	res := upload(t, svc, "u1")
	assert.Equal(t, "shop", res.Model.Name)
	assert.Equal(t, 1, res.Detections.Total)
	require.Len(t, res.Style.Palette, 1)
	assert.Equal(t, "#000000", res.Style.Palette[0].Color)

	det, err := svc.Detect(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, det.Detections, 1)
	assert.Equal(t, "forms", det.Detections[0].Key)
	assert.Equal(t, "contact-form-7", det.Detections[0].Preferred)
	assert.Equal(t, 1, det.Stats.PluginsNeeded)

	_, err = svc.Detect(context.Background(), "someone-else")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestAnalyze_RejectsOversizedAndNonZip(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.Analyze(context.Background(), Upload{Name: "big.zip", Size: 2 << 20, Body: bytes.NewReader(nil)})
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	_, err = svc.Analyze(context.Background(), Upload{Name: "notes.txt", Body: bytes.NewReader([]byte("hello"))})
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	_, err = svc.Analyze(context.Background(), Upload{Name: "x.zip"})
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}

func TestAnalyze_MissingStructure(t *testing.T) {
	svc, _ := newService(t)
	data := zipBytes(t, map[string]string{"README.md": "x"})
	_, err := svc.Analyze(context.Background(), Upload{Name: "x.zip", Size: int64(len(data)), Body: bytes.NewReader(data)})
	var ae *apperr.Error
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, []string{"src/", "public/", "package.json"}, ae.Items)
}

func TestImportConsumesAnalysis(t *testing.T) {
	svc, docs := newService(t)
	upload(t, svc, "u1")

	res, err := svc.Import(context.Background(), "u1", ImportOptions{}, nil)
	require.NoError(t, err)
	assert.Equal(t, importer.StatusSuccess, res.Status)
	assert.Equal(t, 1, res.CreatedPages)

	all, err := docs.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = svc.Import(context.Background(), "u1", ImportOptions{}, nil)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestTranslateAndStyle(t *testing.T) {
	svc, _ := newService(t)
	upload(t, svc, "")

	trees, err := svc.Translate("")
	require.NoError(t, err)
	require.Len(t, trees, 1)
	assert.Equal(t, "Index", trees[0].Title)

	data, err := svc.Style("anonymous")
	require.NoError(t, err)
	v, ok := data.Colors.Get("primary")
	require.True(t, ok)
	assert.Equal(t, "0 0% 0%", v)
}

func TestExportListUntag(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	res, err := svc.Export(ctx, []byte(`{"title":"Landing","sections":[{"columns":[{"widgets":[{"type":"heading","title":"Hi"}]}]}]}`))
	require.NoError(t, err)
	assert.Equal(t, "Landing", res.Title)

	list, err := svc.ListExports(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, svc.Untag(ctx, res.ID))
	list, err = svc.ListExports(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestResolve(t *testing.T) {
	svc, _ := newService(t)
	out := svc.Resolve(context.Background(), "Title: {{post.title}}", "42")
	assert.Equal(t, "Title: Hello", out.Text)
	assert.Empty(t, out.Errors)

	out = svc.Resolve(context.Background(), "{{post.title}}", "missing")
	assert.Equal(t, "{{post.title}}", out.Text)
}

type staticFields map[string]any

func (f staticFields) FieldValue(_ context.Context, field, _ string) (any, error) {
	return f[field], nil
}

func (staticFields) ListFields(context.Context, string) ([]types.FieldDef, error) {
	return nil, fields.ErrUnknownContentType
}

func TestRenderDocument_BodyThenWidgets(t *testing.T) {
	tr := translator.New()
	docs := document.NewMemoryStore()
	contexts := placeholder.NewMemoryContexts()
	contexts.Put("42", placeholder.Context{Title: "Hello"})
	set := fields.NewSet().Register(fields.NamespaceACF, staticFields{
		"tagline": `Welcome to "{{post.title}}"`,
		"price":   9.5,
	})
	svc := New(Deps{
		Translator: tr,
		Exporter:   translator.NewExporter(tr, docs),
		Resolver:   placeholder.NewResolver(contexts, set),
	})
	ctx := context.Background()

	res, err := svc.Export(ctx, []byte(`{"title":"Page {{post.title}}","sections":[{"columns":[{"widgets":[
	  {"type":"heading","content":"{{acf.tagline}}"},
	  {"type":"button","text":"Buy {{acf.price}}","url":"/p/{{post.title}}"},
	  {"type":"text","content":"{{mb.sku}}"}
	]}]}]}`))
	require.NoError(t, err)

	out, err := svc.RenderDocument(ctx, res.ID, "42")
	require.NoError(t, err)
	assert.Empty(t, out.Errors)
	assert.Equal(t, "Page Hello", out.Document.Title)

	widgets := out.Document.Content[0].Children[0].Children
	require.Len(t, widgets, 3)
	title, _ := widgets[0].Settings.Get("title")
	assert.Equal(t, `Welcome to "Hello"`, title)
	text, _ := widgets[1].Settings.Get("text")
	assert.Equal(t, "Buy 9.5", text)
	link, _ := widgets[1].Settings.Get("link")
	assert.Equal(t, map[string]any{"url": "/p/Hello"}, link)
	editor, _ := widgets[2].Settings.Get("editor")
	assert.Equal(t, "{{mb.sku}}", editor)

	stored, err := docs.Get(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, "Page {{post.title}}", stored.Title)
	raw, _ := stored.Content[0].Children[0].Children[0].Settings.Get("title")
	assert.Equal(t, "{{acf.tagline}}", raw)
}

func TestRenderDocument_Errors(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	_, err := svc.RenderDocument(ctx, "nope", "42")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	res, err := svc.Export(ctx, []byte(`{"title":"{{post.title}}"}`))
	require.NoError(t, err)
	out, err := svc.RenderDocument(ctx, res.ID, "missing")
	require.NoError(t, err)
	assert.Equal(t, "{{post.title}}", out.Document.Title)

	_, err = New(Deps{}).RenderDocument(ctx, res.ID, "42")
	assert.True(t, errors.Is(err, apperr.ErrCollaborator))
}

func TestMissingCollaborators(t *testing.T) {
	svc := New(Deps{})
	_, err := svc.Export(context.Background(), []byte(`{}`))
	assert.True(t, errors.Is(err, apperr.ErrCollaborator))
	assert.Empty(t, svc.Solutions(context.Background(), "forms"))
	assert.Equal(t, "{{post.title}}", svc.Resolve(context.Background(), "{{post.title}}", "1").Text)
}
