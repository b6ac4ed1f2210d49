// Package fields provides custom-field backends for placeholder resolution
// and field listing.
package fields

import (
	"context"
	"errors"
	"fmt"
	"log"

	"l2wp/internal/apperr"
	"l2wp/internal/types"
)

var (
	// ErrUnknownContentType is returned by ListFields for content types a
	// provider has no fields for.
	ErrUnknownContentType = errors.New("unknown content type")
	// ErrNoBackend is returned by FieldValue when no backend serves the
	// namespace. Its tokens stay as written.
	ErrNoBackend = errors.New("no field backend")
)

// Provider is one custom-field backend. FieldValue returns nil for fields
// the context does not carry.
type Provider interface {
	FieldValue(ctx context.Context, field, contextID string) (any, error)
	ListFields(ctx context.Context, contentType string) ([]types.FieldDef, error)
}

// Null is the provider used when no backend is configured.
type Null struct{}

func (Null) FieldValue(context.Context, string, string) (any, error) { return nil, ErrNoBackend }

func (Null) ListFields(context.Context, string) ([]types.FieldDef, error) {
	return nil, ErrUnknownContentType
}

// Placeholder namespaces served by field providers.
const (
	NamespaceACF = "acf"
	NamespaceJet = "jet"
	NamespaceMB  = "mb"
)

// Namespaces lists the provider namespaces in resolution order.
var Namespaces = []string{NamespaceACF, NamespaceJet, NamespaceMB}

var pluginNames = map[string]string{
	NamespaceACF: "acf",
	NamespaceJet: "jetengine",
	NamespaceMB:  "metabox",
}

// Set routes each namespace to its provider. Namespaces without a provider
// use Null.
type Set struct {
	providers map[string]Provider
}

func NewSet() *Set {
	return &Set{providers: make(map[string]Provider, len(Namespaces))}
}

// Register binds p to namespace, replacing any previous provider.
func (s *Set) Register(namespace string, p Provider) *Set {
	if p == nil {
		p = Null{}
	}
	s.providers[namespace] = p
	return s
}

// Provider returns the provider for namespace.
func (s *Set) Provider(namespace string) Provider {
	if s == nil {
		return Null{}
	}
	if p, ok := s.providers[namespace]; ok {
		return p
	}
	return Null{}
}

// ListFields collects the fields every namespace knows for contentType,
// tagging each with its plugin and placeholder. A content type no provider
// knows is a NotFound error.
func (s *Set) ListFields(ctx context.Context, contentType string) ([]types.FieldDef, error) {
	const op = "list fields"
	var out []types.FieldDef
	known := false
	for _, ns := range Namespaces {
		defs, err := s.Provider(ns).ListFields(ctx, contentType)
		if errors.Is(err, ErrUnknownContentType) {
			continue
		}
		if err != nil {
			return nil, apperr.Collaborator(op, fmt.Errorf("%s: %w", ns, err))
		}
		known = true
		for _, d := range defs {
			if d.Type == "" {
				d.Type = "text"
			}
			d.Plugin = pluginNames[ns]
			d.Placeholder = fmt.Sprintf("{{%s.%s}}", ns, d.Name)
			out = append(out, d)
		}
	}
	if !known {
		return nil, apperr.NotFound(op, "content type", contentType)
	}
	log.Printf("fields: %d field(s) for %s", len(out), contentType)
	return out, nil
}
