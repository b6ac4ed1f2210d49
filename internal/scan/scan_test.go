package scan

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"l2wp/internal/safeio"
)

func write(t *testing.T, root, rel, content string) string {
	t.Helper()
	p := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

func newFS(t *testing.T, root string) *safeio.SafeFS {
	t.Helper()
	fs, err := safeio.NewSafeFS(root)
	if err != nil {
		t.Fatalf("safe fs: %v", err)
	}
	return fs
}

func TestWalk_FilesOnlyRecursive(t *testing.T) {
	root := t.TempDir()
	write(t, root, "src/components/Header.tsx", "h")
	write(t, root, "src/components/ui/button.tsx", "b")
	write(t, root, "src/components/node_modules/x.tsx", "ignored")
	write(t, root, "src/pages/Index.tsx", "i")

	var got []string
	err := Walk(newFS(t, root), "src/components", Options{FilesOnly: true}, func(f FileVisit) error {
		if f.IsDir {
			t.Fatalf("directory delivered with FilesOnly: %+v", f)
		}
		got = append(got, f.Path)
		return nil
	})
	if err != nil {
		t.Fatalf("walk: %v", err)
	}
	want := []string{"src/components/Header.tsx", "src/components/ui/button.tsx"}
	if !slices.Equal(got, want) {
		t.Fatalf("got=%v want=%v", got, want)
	}
}

func TestWalk_MaxDepthOne(t *testing.T) {
	root := t.TempDir()
	write(t, root, "src/pages/Index.tsx", "i")
	write(t, root, "src/pages/About.jsx", "a")
	write(t, root, "src/pages/nested/Deep.tsx", "d")

	var files, dirs []string
	err := Walk(newFS(t, root), "src/pages", Options{MaxDepth: 1}, func(f FileVisit) error {
		if f.IsDir {
			dirs = append(dirs, f.Path)
			return nil
		}
		if f.Depth != 1 {
			t.Fatalf("depth = %d for %s", f.Depth, f.Path)
		}
		files = append(files, f.Path)
		return nil
	})
	if err != nil {
		t.Fatalf("walk: %v", err)
	}
	if want := []string{"src/pages/About.jsx", "src/pages/Index.tsx"}; !slices.Equal(files, want) {
		t.Fatalf("files=%v want=%v", files, want)
	}
	if want := []string{"src/pages/nested"}; !slices.Equal(dirs, want) {
		t.Fatalf("dirs=%v want=%v", dirs, want)
	}
}

func TestWalk_MissingDirIsEmpty(t *testing.T) {
	called := false
	err := Walk(newFS(t, t.TempDir()), "public", Options{}, func(FileVisit) error {
		called = true
		return nil
	})
	if err != nil || called {
		t.Fatalf("err=%v called=%v", err, called)
	}
}

func TestExt(t *testing.T) {
	if got := Ext("public/Logo.PNG"); got != "png" {
		t.Fatalf("Ext = %q", got)
	}
	if got := Ext("Makefile"); got != "" {
		t.Fatalf("Ext = %q", got)
	}
}
