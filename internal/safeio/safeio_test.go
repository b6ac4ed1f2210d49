package safeio

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSafeFSAllowsAbsoluteUnderRoot(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(p, []byte("hello"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	fs, err := NewSafeFS(dir)
	if err != nil {
		t.Fatalf("NewSafeFS: %v", err)
	}
	if _, err := fs.SafeReadFile(p); err != nil {
		t.Fatalf("SafeReadFile absolute: %v", err)
	}
}

func TestSafeCreateRejectsTraversal(t *testing.T) {
	fs, err := NewSafeFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewSafeFS: %v", err)
	}
	for _, name := range []string{"../evil.txt", "a/../../evil.txt", "/etc/passwd"} {
		if _, err := fs.SafeCreate(name, strings.NewReader("x"), 0o644); !errors.Is(err, ErrTraversal) {
			t.Fatalf("SafeCreate(%q) err = %v, want ErrTraversal", name, err)
		}
	}
}

func TestSafeCreateWritesNestedFile(t *testing.T) {
	fs, err := NewSafeFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewSafeFS: %v", err)
	}
	n, err := fs.SafeCreate("src/pages/Index.tsx", strings.NewReader("export default 1"), 0o644)
	if err != nil {
		t.Fatalf("SafeCreate: %v", err)
	}
	if n != int64(len("export default 1")) {
		t.Fatalf("wrote %d bytes", n)
	}
	if !fs.IsDir("src/pages") {
		t.Fatalf("parent dir not created")
	}
	b, err := fs.SafeReadFile("src/pages/Index.tsx")
	if err != nil || string(b) != "export default 1" {
		t.Fatalf("read back %q, %v", b, err)
	}
}

func TestSymlinkOutsideRootIsRejected(t *testing.T) {
	outside := t.TempDir()
	if err := os.WriteFile(filepath.Join(outside, "secret"), []byte("s"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	root := t.TempDir()
	if err := os.Symlink(filepath.Join(outside, "secret"), filepath.Join(root, "link")); err != nil {
		t.Skipf("symlink unsupported: %v", err)
	}
	fs, err := NewSafeFS(root)
	if err != nil {
		t.Fatalf("NewSafeFS: %v", err)
	}
	if _, err := fs.SafeReadFile("link"); !errors.Is(err, ErrTraversal) {
		t.Fatalf("err = %v, want ErrTraversal", err)
	}
}
