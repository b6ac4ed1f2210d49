package registry

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

type MemoryRegistry struct {
	mu      sync.RWMutex
	plugins map[string]bool
	// InstallErr, when set, makes every Install fail with it.
	InstallErr error
}

// NewMemoryRegistry seeds the registry with installed, inactive paths.
func NewMemoryRegistry(paths ...string) *MemoryRegistry {
	r := &MemoryRegistry{plugins: make(map[string]bool)}
	for _, p := range paths {
		r.plugins[strings.TrimSpace(p)] = false
	}
	return r
}

func (r *MemoryRegistry) Plugins(_ context.Context) ([]Plugin, error) {
	if r == nil {
		return nil, fmt.Errorf("registry is nil")
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Plugin, 0, len(r.plugins))
	for p, active := range r.plugins {
		out = append(out, Plugin{Path: p, Active: active})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func (r *MemoryRegistry) Install(_ context.Context, slug string) error {
	if r == nil {
		return fmt.Errorf("registry is nil")
	}
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return fmt.Errorf("slug is required")
	}
	if r.InstallErr != nil {
		return r.InstallErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	path := slug + "/" + slug + ".php"
	if _, ok := r.plugins[path]; !ok {
		r.plugins[path] = false
	}
	return nil
}

func (r *MemoryRegistry) Activate(_ context.Context, path string) error {
	if r == nil {
		return fmt.Errorf("registry is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.plugins[path]; !ok {
		return fmt.Errorf("%s: %w", path, ErrNotInstalled)
	}
	r.plugins[path] = true
	return nil
}
