package cli

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `preferences:
  backend: sqlite
  sqlite_path: prefs.db
upload:
  temp_dir: uploads
`

// workspace moves into a fresh directory holding l2wp.yaml and a project
// archive, and returns the archive path.
func workspace(t *testing.T) string {
	t.Helper()
	color.NoColor = true
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile("l2wp.yaml", []byte(testConfig), 0o644))

	p := filepath.Join(dir, "site.zip")
	f, err := os.Create(p)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, body := range map[string]string{
		"package.json":           `{"name":"site","dependencies":{"react-hook-form":"^7.0.0"}}`,
		"src/pages/Index.tsx":    `<section><h1>Welcome</h1><form onSubmit={send}></form></section>`,
		"src/pages/About.tsx":    `<section><h2>About</h2></section>`,
		"src/components/Nav.tsx": `<nav></nav>`,
		"public/favicon.ico":     "ico",
	} {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return p
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := RootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRootRegistersCommands(t *testing.T) {
	root := RootCmd()
	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"validate", "analyze", "detect", "solutions", "convert", "import", "export", "resolve", "render", "preferences", "serve"} {
		assert.True(t, names[want], want)
	}
}

func TestValidate(t *testing.T) {
	archive := workspace(t)
	out, err := run(t, "validate", archive)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ "+archive)

	require.NoError(t, os.WriteFile("notes.txt", []byte("hello"), 0o644))
	out, err = run(t, "validate", "notes.txt")
	require.Error(t, err)
	assert.Contains(t, out, "✗")
}

func TestAnalyze(t *testing.T) {
	archive := workspace(t)
	out, err := run(t, "analyze", archive)
	require.NoError(t, err)
	assert.Contains(t, out, "site\n")
	assert.Contains(t, out, "pages:      2")
	assert.Contains(t, out, "components: 1")
}

func TestDetect(t *testing.T) {
	archive := workspace(t)
	out, err := run(t, "detect", archive)
	require.NoError(t, err)
	assert.Contains(t, out, "forms")
	assert.Contains(t, out, "Forms")
}

func TestSolutions(t *testing.T) {
	workspace(t)
	out, err := run(t, "solutions", "forms")
	require.NoError(t, err)
	assert.Contains(t, out, "contact-form-7")

	out, err = run(t, "solutions", "teleport")
	require.NoError(t, err)
	assert.Contains(t, out, `No solutions known for "teleport"`)
}

func TestConvertWritesOneFilePerPage(t *testing.T) {
	archive := workspace(t)
	_, err := run(t, "convert", archive, "--out", "docs")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join("docs", "index.json"))
	assert.FileExists(t, filepath.Join("docs", "about.json"))
}

func TestImportRemembersChoices(t *testing.T) {
	archive := workspace(t)
	out, err := run(t, "import", archive, "--choice", "forms=skip", "--remember")
	require.NoError(t, err)
	assert.Contains(t, out, "success, 2 pages")

	out, err = run(t, "preferences")
	require.NoError(t, err)
	assert.Contains(t, out, "forms")
	assert.Contains(t, out, "skip")

	_, err = run(t, "preferences", "clear")
	require.NoError(t, err)
	out, err = run(t, "preferences")
	require.NoError(t, err)
	assert.Contains(t, out, "No saved preferences.")
}

func TestExport(t *testing.T) {
	workspace(t)
	require.NoError(t, os.WriteFile("design.json", []byte(`{"title":"Landing"}`), 0o644))
	out, err := run(t, "export", "design.json")
	require.NoError(t, err)
	assert.Contains(t, out, `exported "Landing"`)

	require.NoError(t, os.WriteFile("broken.json", []byte(`{"title": `), 0o644))
	_, err = run(t, "export", "broken.json")
	assert.Error(t, err)
}

func TestResolveWithoutContextKeepsTokens(t *testing.T) {
	workspace(t)
	out, err := run(t, "resolve", "Hi {{post.title}}")
	require.NoError(t, err)
	assert.Equal(t, "Hi {{post.title}}\n", out)
}

func TestRenderUnknownDocument(t *testing.T) {
	workspace(t)
	_, err := run(t, "render", "nope", "--context", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope")
}

func TestDocumentFileName(t *testing.T) {
	assert.Equal(t, "about-us.json", documentFileName("About Us", 0))
	assert.Equal(t, "page-3.json", documentFileName("  ", 2))
}
