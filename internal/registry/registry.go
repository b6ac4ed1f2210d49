// Package registry tracks which host plugins are installed and active.
package registry

import (
	"context"
	"errors"
	"strings"
)

var ErrNotInstalled = errors.New("plugin not installed")

// Plugin is one installed plugin entry. Path is the plugin's main file
// relative to the plugin root, e.g. "contact-form-7/wp-contact-form-7.php".
type Plugin struct {
	Path   string `json:"path"`
	Active bool   `json:"active"`
}

// Registry is the host's plugin catalogue.
type Registry interface {
	Plugins(ctx context.Context) ([]Plugin, error)
	// Install fetches and unpacks slug. It does not activate it.
	Install(ctx context.Context, slug string) error
	// Activate marks the plugin at path active.
	Activate(ctx context.Context, path string) error
}

// Matches reports whether path belongs to slug: either the plugin lives in
// a "slug/" directory or its file name contains "slug.php".
func Matches(path, slug string) bool {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return false
	}
	return strings.HasPrefix(path, slug+"/") || strings.Contains(path, slug+".php")
}

// Find returns the first plugin matching slug.
func Find(plugins []Plugin, slug string) (Plugin, bool) {
	for _, p := range plugins {
		if Matches(p.Path, slug) {
			return p, true
		}
	}
	return Plugin{}, false
}

// Lookup lists r and finds slug in it.
func Lookup(ctx context.Context, r Registry, slug string) (Plugin, bool, error) {
	if r == nil {
		return Plugin{}, false, nil
	}
	plugins, err := r.Plugins(ctx)
	if err != nil {
		return Plugin{}, false, err
	}
	p, ok := Find(plugins, slug)
	return p, ok, nil
}
