package detector

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"l2wp/internal/signature"
	"l2wp/internal/types"
)

func table(t *testing.T) *signature.Table {
	t.Helper()
	tbl, err := signature.Parse([]byte(`
functionality_mappings:
  forms:
    name: Forms
    detector_patterns: [react-hook-form, "<form", onSubmit]
    recommended_solutions:
      - {slug: elementor-pro, name: Pro Forms, type: native, compatibility: 95}
      - {slug: contact-form-7, name: CF7, type: plugin, compatibility: 80}
  popup_modal:
    name: Popups
    detector_patterns: [Dialog]
    recommended_solutions:
      - {slug: popup-maker, name: Popup Maker, type: plugin, compatibility: 80}
  maps:
    name: Maps
    detector_patterns: [leaflet]
`), "yaml")
	require.NoError(t, err)
	return tbl
}

func manifest(runtime, dev map[string]string) types.DependencyManifest {
	m := types.DependencyManifest{Runtime: types.NewOrdered[string](), Dev: types.NewOrdered[string]()}
	for k, v := range runtime {
		m.Runtime.Set(k, v)
	}
	for k, v := range dev {
		m.Dev.Set(k, v)
	}
	return m
}

func TestDetect_DependencyOnly(t *testing.T) {
	model := types.ProjectModel{Dependencies: manifest(map[string]string{"react-hook-form": "^7.0.0"}, nil)}
	res := New(table(t)).Detect(model)

	require.Equal(t, []string{"forms"}, res.Keys())
	forms, ok := res.Lookup("forms")
	require.True(t, ok)
	assert.GreaterOrEqual(t, forms.Count, 1)
	require.Len(t, forms.Occurrences, 1)
	assert.Equal(t, types.Occurrence{Dependency: "react-hook-form", Pattern: "react-hook-form"}, forms.Occurrences[0])
	assert.Len(t, forms.Solutions, 2)
}

func TestDetect_FilesThenDependencies(t *testing.T) {
	model := types.ProjectModel{
		Pages: []types.SourceFile{{Name: "Contact", Content: `<FORM onSubmit={handle}><input/></FORM>`}},
		Components: []types.SourceFile{
			{Name: "Modal", Content: "import { Dialog } from './ui/dialog'"},
			{Name: "Plain", Content: "nothing here"},
		},
		Dependencies: manifest(nil, map[string]string{"@hookform/resolvers": "1", "react-hook-form": "7"}),
	}
	res := New(table(t)).Detect(model)

	assert.Equal(t, []string{"forms", "popup_modal"}, res.Keys())
	forms, _ := res.Lookup("forms")
	require.Len(t, forms.Occurrences, 3)
	assert.Equal(t, "Contact", forms.Occurrences[0].File)
	assert.Equal(t, "<form", forms.Occurrences[0].Pattern)
	assert.Equal(t, "onSubmit", forms.Occurrences[1].Pattern)
	assert.Equal(t, "react-hook-form", forms.Occurrences[2].Dependency)

	_, ok := res.Lookup("maps")
	assert.False(t, ok)
}

func TestDetect_CountMatchesOccurrences(t *testing.T) {
	model := types.ProjectModel{
		Pages: []types.SourceFile{
			{Name: "A", Content: strings.Repeat("Dialog onSubmit ", 50)},
			{Name: "B", Content: "<form>"},
		},
		Dependencies: manifest(map[string]string{"leaflet": "1"}, nil),
	}
	res := New(table(t)).Detect(model)
	require.Equal(t, 3, res.Len())
	res.Detections.Each(func(key string, d types.Detection) bool {
		assert.Equal(t, len(d.Occurrences), d.Count, key)
		for _, o := range d.Occurrences {
			assert.LessOrEqual(t, utf8.RuneCountInString(o.Context), 200)
		}
		return true
	})
}

func TestContext_Window(t *testing.T) {
	content := strings.Repeat("a", 150) + "MATCH" + strings.Repeat("b", 150)
	lower := strings.ToLower(content)
	ctx := Context(content, lower, strings.Index(lower, "match"))
	assert.Equal(t, 200, len(ctx))
	assert.True(t, strings.HasPrefix(ctx, strings.Repeat("a", 100)+"MATCH"))

	short := "  <form>  "
	assert.Equal(t, "<form>", Context(short, short, 2))

	multi := strings.Repeat("é", 120) + "Dialog" + strings.Repeat("ü", 120)
	lm := strings.ToLower(multi)
	got := Context(multi, lm, strings.Index(lm, "dialog"))
	assert.Equal(t, 200, utf8.RuneCountInString(got))
	assert.True(t, utf8.ValidString(got))
	assert.Contains(t, got, "Dialog")
}

func TestDetect_EmptyTable(t *testing.T) {
	res := New(nil).Detect(types.ProjectModel{Pages: []types.SourceFile{{Name: "A", Content: "<form>"}}})
	assert.Equal(t, 0, res.Len())
	assert.Equal(t, 0, res.Summary().Total)
}

func TestSummary(t *testing.T) {
	model := types.ProjectModel{Pages: []types.SourceFile{{Name: "A", Content: "<form> Dialog"}}}
	s := New(table(t)).Detect(model).Summary()
	assert.Equal(t, 2, s.Total)
	assert.Equal(t, types.FunctionalitySummary{Key: "forms", Name: "Forms", Count: 1, SolutionsAvailable: 2}, s.Functionalities[0])
	assert.Equal(t, types.FunctionalitySummary{Key: "popup_modal", Name: "Popups", Count: 1, SolutionsAvailable: 1}, s.Functionalities[1])
}
