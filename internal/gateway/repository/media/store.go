// Package media stores assets imported from uploaded projects.
package media

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path"
	"strings"
)

// Store persists asset bytes grouped by import id.
type Store interface {
	Put(ctx context.Context, importID, name string, content []byte) error
	Get(ctx context.Context, importID, name string) ([]byte, error)
	List(ctx context.Context, importID string) ([]string, error)
	// URL returns where the asset can be fetched from; empty when the
	// backend does not serve assets.
	URL(ctx context.Context, importID, name string) (string, error)
}

var ErrNotFound = errors.New("media not found")

// ContentType guesses the MIME type from the asset extension.
func ContentType(name string) string {
	if ct := mime.TypeByExtension(strings.ToLower(path.Ext(name))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// objectKey joins import id and asset name, rejecting anything that could
// escape the import's prefix.
func objectKey(importID, name string) (string, error) {
	importID = strings.TrimSpace(importID)
	name = strings.TrimLeft(strings.TrimSpace(name), "/")
	if importID == "" {
		return "", fmt.Errorf("import_id is required")
	}
	if name == "" {
		return "", fmt.Errorf("name is required")
	}
	if strings.Contains(importID, "/") || strings.Contains(importID, "..") {
		return "", fmt.Errorf("invalid import_id: %s", importID)
	}
	if clean := path.Clean(name); clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("invalid name: %s", name)
	}
	return importID + "/" + path.Clean(name), nil
}
