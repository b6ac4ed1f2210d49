package archive

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"l2wp/internal/safeio"
)

const tokenAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// Workspace is a request-scoped temporary directory. Its name carries a
// random token so concurrent analyses never share a directory.
type Workspace struct {
	fs   *safeio.SafeFS
	once sync.Once
	err  error
}

// NewWorkspace creates l2wp-<token> below baseDir (os.TempDir() when empty).
func NewWorkspace(baseDir string) (*Workspace, error) {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create temp base: %w", err)
	}
	token, err := gonanoid.Generate(tokenAlphabet, 16)
	if err != nil {
		return nil, fmt.Errorf("failed to generate workspace token: %w", err)
	}
	dir := filepath.Join(baseDir, "l2wp-"+token)
	if err := os.Mkdir(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	fsys, err := safeio.NewSafeFS(dir)
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, err
	}
	return &Workspace{fs: fsys}, nil
}

// FS is the whole extraction tree.
func (w *Workspace) FS() *safeio.SafeFS {
	if w == nil {
		return nil
	}
	return w.fs
}

// Root is the absolute workspace path.
func (w *Workspace) Root() string { return w.FS().Root() }

// Cleanup removes the whole tree. Safe to call more than once.
func (w *Workspace) Cleanup() error {
	if w == nil {
		return nil
	}
	w.once.Do(func() {
		w.err = w.fs.RemoveAll()
		if w.err != nil {
			log.Printf("archive: cleanup %s failed: %v", w.fs.Root(), w.err)
		}
	})
	return w.err
}
