package media

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DiskStore writes assets below root. When baseURL is set, URL maps an
// asset to baseURL/<import>/<name>, for a web server exposing root.
type DiskStore struct {
	root    string
	baseURL string
}

func NewDiskStore(root, baseURL string) *DiskStore {
	return &DiskStore{root: strings.TrimSpace(root), baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/")}
}

func (s *DiskStore) Put(_ context.Context, importID, name string, content []byte) error {
	full, err := s.pathFor(importID, name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	return os.WriteFile(full, content, 0o644)
}

func (s *DiskStore) Get(_ context.Context, importID, name string) ([]byte, error) {
	full, err := s.pathFor(importID, name)
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return raw, err
}

func (s *DiskStore) List(_ context.Context, importID string) ([]string, error) {
	dir, err := s.pathFor(importID, ".")
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, 16)
	walkErr := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		out = append(out, filepath.ToSlash(rel))
		return nil
	})
	if walkErr != nil {
		if errors.Is(walkErr, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, walkErr
	}
	sort.Strings(out)
	return out, nil
}

func (s *DiskStore) URL(_ context.Context, importID, name string) (string, error) {
	if s.baseURL == "" {
		return "", nil
	}
	key, err := objectKey(importID, name)
	if err != nil {
		return "", err
	}
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return s.baseURL + "/" + strings.Join(parts, "/"), nil
}

func (s *DiskStore) pathFor(importID, name string) (string, error) {
	if s == nil || s.root == "" {
		return "", fmt.Errorf("root is required")
	}
	key, err := objectKey(importID, name)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, filepath.FromSlash(key)), nil
}
