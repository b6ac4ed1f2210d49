package archive

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"l2wp/internal/apperr"
	"l2wp/internal/types"
)

func writeZip(t *testing.T, files map[string]string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "project.zip")
	f, err := os.Create(p)
	if err != nil {
		t.Fatalf("create zip: %v", err)
	}
	zw := zip.NewWriter(f)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip entry %s: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("file close: %v", err)
	}
	return p
}

func sampleProject(prefix string) map[string]string {
	return map[string]string{
		prefix + "package.json":                  `{"name":"demo-app","version":"1.0.0","dependencies":{"react":"^18.0.0","react-hook-form":"^7.0.0"},"devDependencies":{"vite":"^5.0.0","react":"^18.0.0"}}`,
		prefix + "vite.config.ts":                "export default {}",
		prefix + "src/pages/Index.tsx":           `<section className="hero"><h1 className="title">Welcome</h1></section>`,
		prefix + "src/pages/About.jsx":           "<div>About</div>",
		prefix + "src/pages/notes.md":            "ignored",
		prefix + "src/pages/nested/Deep.tsx":     "not a page",
		prefix + "src/components/Header.tsx":     "header",
		prefix + "src/components/ui/Button.tsx":  "button",
		prefix + "src/components/ui/util.ts":     "ignored",
		prefix + "src/index.css":                 ":root { --primary: 222 47% 11%; }",
		prefix + "src/assets/hero.PNG":           "png",
		prefix + "public/fonts/Inter.woff2":      "font",
		prefix + "public/robots.txt":             "ignored",
		prefix + "project-structure.json":        `{"proyecto":{"nombre":"Demo","descripcion":"A demo","tecnologias":["react"],"diseño":{"colores":{"primario":"#000"}}}}`,
	}
}

func TestAnalyze_Counts(t *testing.T) {
	an := &Analyzer{TempDir: t.TempDir()}
	res, err := an.Analyze(writeZip(t, sampleProject("")))
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.Cleanup() })

	m := res.Model
	assert.Equal(t, "Demo", m.Name)
	assert.Equal(t, "A demo", m.Description)
	assert.Equal(t, types.BuildVite, m.Build.Tool)

	var pages []string
	for _, p := range m.Pages {
		pages = append(pages, p.Name)
	}
	assert.Equal(t, []string{"About", "Index"}, pages)
	assert.Len(t, m.Components, 2)
	assert.Equal(t, "src/components/ui/Button.tsx", m.Components[1].Path)

	assert.Equal(t, []string{"react", "react-hook-form", "vite"}, m.Dependencies.Names())
	assert.Equal(t, "demo-app", m.Dependencies.Name)

	require.Len(t, m.Assets.Images, 1)
	assert.Equal(t, "png", m.Assets.Images[0].Type)
	require.Len(t, m.Assets.Fonts, 1)
	require.Len(t, m.Assets.Stylesheets, 1)
	assert.Contains(t, m.Assets.Stylesheets[0].Content, "--primary")
	assert.NotNil(t, m.DesignTokens["colores"])
}

func TestAnalyze_WrappedArchiveDescendsOnce(t *testing.T) {
	an := &Analyzer{TempDir: t.TempDir()}
	res, err := an.Analyze(writeZip(t, sampleProject("my-app/")))
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.Cleanup() })
	assert.Len(t, res.Model.Pages, 2)
	assert.True(t, strings.HasSuffix(res.Project.Root(), "my-app"))
}

func TestAnalyze_DoublyWrappedFails(t *testing.T) {
	an := &Analyzer{TempDir: t.TempDir()}
	_, err := an.Analyze(writeZip(t, sampleProject("outer/inner/")))
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}

func TestAnalyze_DefaultsWithoutManifestOrMetadata(t *testing.T) {
	an := &Analyzer{TempDir: t.TempDir()}
	res, err := an.Analyze(writeZip(t, map[string]string{"index.html": "<html></html>"}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.Cleanup() })
	assert.Equal(t, "Lovable Project", res.Model.Name)
	assert.Equal(t, 0, res.Model.Dependencies.Runtime.Len())
	assert.Empty(t, res.Model.Pages)
	assert.Equal(t, types.BuildUnknown, res.Model.Build.Tool)
}

func TestAnalyze_MalformedManifest(t *testing.T) {
	an := &Analyzer{TempDir: t.TempDir()}
	_, err := an.Analyze(writeZip(t, map[string]string{"package.json": `{"name": `}))
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrMalformedInput))
	assert.Contains(t, err.Error(), "Invalid JSON: Syntax error, malformed JSON")
}

func TestAnalyze_MissingArchive(t *testing.T) {
	an := &Analyzer{TempDir: t.TempDir()}
	_, err := an.Analyze(filepath.Join(t.TempDir(), "nope.zip"))
	assert.True(t, errors.Is(err, apperr.ErrFileNotFound))
}

func TestAnalyze_CorruptArchive(t *testing.T) {
	p := filepath.Join(t.TempDir(), "bad.zip")
	require.NoError(t, os.WriteFile(p, []byte("not a zip"), 0o644))
	base := t.TempDir()
	an := &Analyzer{TempDir: base}
	_, err := an.Analyze(p)
	assert.True(t, errors.Is(err, apperr.ErrExtraction))

	entries, err := os.ReadDir(base)
	require.NoError(t, err)
	assert.Empty(t, entries, "failed analysis must not leave a workspace behind")
}

func TestAnalyze_UniqueWorkspaces(t *testing.T) {
	an := &Analyzer{TempDir: t.TempDir()}
	zipPath := writeZip(t, sampleProject(""))
	a, err := an.Analyze(zipPath)
	require.NoError(t, err)
	b, err := an.Analyze(zipPath)
	require.NoError(t, err)
	assert.NotEqual(t, a.Workspace.Root(), b.Workspace.Root())

	require.NoError(t, a.Cleanup())
	require.NoError(t, a.Cleanup())
	_, statErr := os.Stat(a.Workspace.Root())
	assert.True(t, os.IsNotExist(statErr))
	_, statErr = os.Stat(b.Workspace.Root())
	assert.NoError(t, statErr)
	require.NoError(t, b.Cleanup())
}

func TestExtract_SkipsTraversal(t *testing.T) {
	zipPath := writeZip(t, map[string]string{
		"../evil.txt":  "x",
		"src/main.tsx": "ok",
	})
	ws, err := NewWorkspace(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Cleanup() })

	warnings, err := Extract(zipPath, ws.FS(), 0)
	require.NoError(t, err)
	assert.True(t, ws.FS().Exists("src/main.tsx"))
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "../evil.txt")
	_, statErr := os.Stat(filepath.Join(filepath.Dir(ws.Root()), "evil.txt"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestExtract_SizeLimit(t *testing.T) {
	zipPath := writeZip(t, map[string]string{"src/big.txt": strings.Repeat("a", 1024)})
	ws, err := NewWorkspace(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Cleanup() })

	_, err = Extract(zipPath, ws.FS(), 100)
	assert.True(t, errors.Is(err, apperr.ErrExtraction))
}

func TestValidateStructure_NamesOnlyMissing(t *testing.T) {
	v := NewValidator(0)
	zipPath := writeZip(t, map[string]string{
		"src/main.tsx":      "x",
		"public/robots.txt": "x",
	})
	_, err := v.ValidateStructure(zipPath)
	require.Error(t, err)
	var ae *apperr.Error
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, []string{"package.json"}, ae.Items)
	assert.Equal(t, "Missing required files/directories: package.json", ae.Msg)
}

func TestValidateStructure_AllMissing(t *testing.T) {
	v := NewValidator(0)
	_, err := v.ValidateStructure(writeZip(t, map[string]string{"README.md": "x"}))
	var ae *apperr.Error
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, []string{"src/", "public/", "package.json"}, ae.Items)
}

func TestValidateStructure_Warnings(t *testing.T) {
	v := NewValidator(0)
	report, err := v.ValidateStructure(writeZip(t, map[string]string{
		"wrap/src/main.tsx":      "x",
		"wrap/public/index.html": "x",
		"wrap/package.json":      "{}",
		"wrap/scripts/run.sh":    "x",
	}))
	require.NoError(t, err)
	assert.Equal(t, 4, report.Entries)
	assert.Contains(t, report.Warnings, "Unexpected file extension: sh")
	assert.Contains(t, report.Warnings, "Potentially dangerous file detected: wrap/scripts/run.sh")
}

func TestValidateUpload(t *testing.T) {
	v := NewValidator(1 << 20)
	zipHead := []byte("PK\x03\x04\x14\x00\x00\x00")

	assert.NoError(t, v.ValidateUpload("site.ZIP", 10, zipHead))

	err := v.ValidateUpload("site.zip", 2<<20, zipHead)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "File size exceeds maximum allowed size of 1 MB")

	err = v.ValidateUpload("site.tar", 10, zipHead)
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	err = v.ValidateUpload("site.zip", 10, []byte("plain text"))
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}

func TestValidate_EndToEnd(t *testing.T) {
	v := NewValidator(0)
	p := writeZip(t, sampleProject(""))
	report, err := v.Validate("project.zip", p)
	require.NoError(t, err)
	assert.Greater(t, report.Entries, 0)
}
