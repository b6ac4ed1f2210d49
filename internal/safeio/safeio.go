package safeio

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// ErrTraversal is returned for paths that escape the root.
var ErrTraversal = errors.New("safeio: path traversal not allowed")

// SafeFS provides file helpers that resolve paths relative to a fixed root.
// Each analysis workspace gets its own instance.
type SafeFS struct {
	absRoot string // absolute root with symlinks resolved
}

// NewSafeFS locks all future operations to the given root directory.
// The root path is resolved to an absolute, symlink-free directory.
func NewSafeFS(root string) (*SafeFS, error) {
	if root == "" {
		return nil, errors.New("safeio: empty root")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	abs, err = filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, errors.New("safeio: root is not a directory")
	}
	return &SafeFS{absRoot: abs}, nil
}

// Root returns the absolute root directory bound to this SafeFS.
func (s *SafeFS) Root() string {
	if s == nil {
		return ""
	}
	return s.absRoot
}

// Sub returns a SafeFS rooted at a directory below this root.
func (s *SafeFS) Sub(userPath string) (*SafeFS, error) {
	p, err := s.resolve(userPath)
	if err != nil {
		return nil, err
	}
	return NewSafeFS(p)
}

// SafeReadFile reads a file relative to the root.
func (s *SafeFS) SafeReadFile(userPath string) ([]byte, error) {
	p, err := s.resolve(userPath)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(p)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, errors.New("safeio: path is a directory")
	}
	return os.ReadFile(p)
}

// SafeOpen opens a file relative to the root for reading.
func (s *SafeFS) SafeOpen(userPath string) (*os.File, error) {
	p, err := s.resolve(userPath)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(p)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, errors.New("safeio: path is a directory")
	}
	return os.Open(p)
}

// SafeStat returns metadata for a file or directory under the root.
func (s *SafeFS) SafeStat(userPath string) (fs.FileInfo, error) {
	p, err := s.resolve(userPath)
	if err != nil {
		return nil, err
	}
	return os.Stat(p)
}

// Exists reports whether userPath resolves to an entry under the root.
func (s *SafeFS) Exists(userPath string) bool {
	_, err := s.SafeStat(userPath)
	return err == nil
}

// IsDir reports whether userPath is a directory under the root.
func (s *SafeFS) IsDir(userPath string) bool {
	info, err := s.SafeStat(userPath)
	return err == nil && info.IsDir()
}

// SafeReadDir lists entries for a directory relative to the root.
func (s *SafeFS) SafeReadDir(userPath string) ([]fs.DirEntry, error) {
	dir, err := s.resolve(userPath)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, errors.New("safeio: path is not a directory")
	}
	return os.ReadDir(dir)
}

// SafeCreate writes r to a new file at userPath, creating parent
// directories. The target may not exist yet, so containment is checked
// lexically and against the resolved parent directory.
func (s *SafeFS) SafeCreate(userPath string, r io.Reader, perm fs.FileMode) (int64, error) {
	target, err := s.Join(userPath)
	if err != nil {
		return 0, err
	}
	if err := s.SafeMkdirAll(filepath.Dir(target)); err != nil {
		return 0, err
	}
	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return 0, err
	}
	n, copyErr := io.Copy(f, r)
	closeErr := f.Close()
	if copyErr != nil {
		return n, copyErr
	}
	return n, closeErr
}

// SafeMkdirAll creates dir (absolute under the root, or root-relative).
func (s *SafeFS) SafeMkdirAll(dir string) error {
	abs, err := s.Join(dir)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return err
	}
	if !hasPathPrefix(resolved, s.absRoot) {
		return fmt.Errorf("%w (root=%s, path=%s)", ErrTraversal, s.absRoot, resolved)
	}
	return nil
}

// Join cleans userPath and returns its absolute location under the root
// without touching the filesystem.
func (s *SafeFS) Join(userPath string) (string, error) {
	if s == nil {
		return "", errors.New("safeio: filesystem not configured")
	}
	if userPath == "" {
		return "", errors.New("safeio: empty path")
	}
	clean := filepath.Clean(filepath.FromSlash(userPath))
	if clean == "." {
		return s.absRoot, nil
	}
	if isAbsPath(clean) {
		if hasPathPrefix(clean, s.absRoot) {
			return clean, nil
		}
		// The caller may hold the unresolved spelling of the root.
		if resolved, err := filepath.EvalSymlinks(clean); err == nil && hasPathPrefix(resolved, s.absRoot) {
			return resolved, nil
		}
		return "", ErrTraversal
	}
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", ErrTraversal
	}
	return filepath.Join(s.absRoot, clean), nil
}

// Open implements the fs.FS interface (names use "/" separators).
func (s *SafeFS) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, fs.ErrInvalid
	}
	if name == "." {
		return os.Open(s.absRoot)
	}
	p, err := s.resolve(filepath.FromSlash(name))
	if err != nil {
		return nil, err
	}
	return os.Open(p)
}

// RemoveAll deletes the root directory tree.
func (s *SafeFS) RemoveAll() error {
	if s == nil || s.absRoot == "" {
		return nil
	}
	return os.RemoveAll(s.absRoot)
}

func (s *SafeFS) resolve(userPath string) (string, error) {
	joined, err := s.Join(userPath)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(joined)
	if err != nil {
		return "", err
	}
	if !hasPathPrefix(resolved, s.absRoot) {
		return "", fmt.Errorf("%w (root=%s, path=%s)", ErrTraversal, s.absRoot, resolved)
	}
	return resolved, nil
}

func isAbsPath(p string) bool {
	return filepath.IsAbs(p) || (runtime.GOOS == "windows" && filepath.VolumeName(p) != "")
}

func hasPathPrefix(path, root string) bool {
	path = filepath.Clean(path)
	root = filepath.Clean(root)
	if runtime.GOOS == "windows" {
		path = strings.ToLower(path)
		root = strings.ToLower(root)
	}
	if len(root) == 0 {
		return true
	}
	if path == root {
		return true
	}
	sep := string(os.PathSeparator)
	if !strings.HasSuffix(root, sep) {
		root += sep
	}
	if !strings.HasSuffix(path, sep) {
		path += sep
	}
	return strings.HasPrefix(path, root)
}
