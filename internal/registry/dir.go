package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"l2wp/internal/archive"
	"l2wp/internal/safeio"
)

const stateFile = "active.json"

// DirRegistry keeps plugins as directories (or single .php files) under a
// root and records active paths in active.json.
type DirRegistry struct {
	root *safeio.SafeFS
	// DownloadURL is a format string with one %s for the slug.
	DownloadURL string
	Client      *http.Client
	mu          sync.Mutex
}

func NewDirRegistry(dir, downloadURL string) (*DirRegistry, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, fmt.Errorf("plugins dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create plugins dir: %w", err)
	}
	root, err := safeio.NewSafeFS(dir)
	if err != nil {
		return nil, err
	}
	return &DirRegistry{
		root:        root,
		DownloadURL: strings.TrimSpace(downloadURL),
		Client:      &http.Client{Timeout: 60 * time.Second},
	}, nil
}

func (r *DirRegistry) Plugins(_ context.Context) ([]Plugin, error) {
	if r == nil {
		return nil, fmt.Errorf("registry is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	active, err := r.readState()
	if err != nil {
		return nil, err
	}
	entries, err := r.root.SafeReadDir(".")
	if err != nil {
		return nil, fmt.Errorf("list plugins: %w", err)
	}
	var out []Plugin
	for _, e := range entries {
		var p string
		switch {
		case e.IsDir():
			p = r.mainFile(e.Name())
		case strings.HasSuffix(e.Name(), ".php"):
			p = e.Name()
		default:
			continue
		}
		out = append(out, Plugin{Path: p, Active: slices.Contains(active, p)})
	}
	return out, nil
}

// mainFile prefers dir/dir.php, then the first .php file in dir.
func (r *DirRegistry) mainFile(dir string) string {
	preferred := path.Join(dir, dir+".php")
	if r.root.Exists(preferred) {
		return preferred
	}
	entries, err := r.root.SafeReadDir(dir)
	if err == nil {
		for _, e := range entries {
			if !e.IsDir() && strings.HasSuffix(e.Name(), ".php") {
				return path.Join(dir, e.Name())
			}
		}
	}
	return preferred
}

// Install downloads the plugin archive for slug and unpacks it into the
// plugin root.
func (r *DirRegistry) Install(ctx context.Context, slug string) error {
	if r == nil {
		return fmt.Errorf("registry is nil")
	}
	slug = strings.TrimSpace(slug)
	if slug == "" || strings.ContainsAny(slug, `/\`) {
		return fmt.Errorf("invalid plugin slug %q", slug)
	}
	if r.DownloadURL == "" {
		return fmt.Errorf("install %s: no download url configured", slug)
	}
	tmp, err := r.download(ctx, fmt.Sprintf(r.DownloadURL, slug))
	if err != nil {
		return fmt.Errorf("install %s: %w", slug, err)
	}
	defer os.Remove(tmp)

	r.mu.Lock()
	defer r.mu.Unlock()
	warnings, err := archive.Extract(tmp, r.root, 0)
	if err != nil {
		return fmt.Errorf("install %s: %w", slug, err)
	}
	for _, w := range warnings {
		log.Printf("registry: install %s: %s", slug, w)
	}
	return nil
}

func (r *DirRegistry) download(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := r.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download %s: status %d", url, resp.StatusCode)
	}
	f, err := os.CreateTemp("", "l2wp-plugin-*.zip")
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, io.LimitReader(resp.Body, archive.DefaultMaxBytes)); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

func (r *DirRegistry) Activate(_ context.Context, p string) error {
	if r == nil {
		return fmt.Errorf("registry is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	dir := path.Dir(p)
	if !r.root.Exists(p) && (dir == "." || !r.root.IsDir(dir)) {
		return fmt.Errorf("%s: %w", p, ErrNotInstalled)
	}
	active, err := r.readState()
	if err != nil {
		return err
	}
	if slices.Contains(active, p) {
		return nil
	}
	return r.writeState(append(active, p))
}

func (r *DirRegistry) readState() ([]string, error) {
	raw, err := r.root.SafeReadFile(stateFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read plugin state: %w", err)
	}
	var active []string
	if err := json.Unmarshal(raw, &active); err != nil {
		return nil, fmt.Errorf("decode plugin state: %w", err)
	}
	return active, nil
}

func (r *DirRegistry) writeState(active []string) error {
	raw, err := json.MarshalIndent(active, "", "  ")
	if err != nil {
		return err
	}
	full, err := r.root.Join(stateFile)
	if err != nil {
		return err
	}
	tmp := full + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write plugin state: %w", err)
	}
	return os.Rename(tmp, filepath.Clean(full))
}
