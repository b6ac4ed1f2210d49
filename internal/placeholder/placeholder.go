// Package placeholder resolves {{namespace.field}} tokens against a content
// context and the configured field providers.
package placeholder

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"

	"l2wp/internal/apperr"
	"l2wp/internal/fields"
	"l2wp/internal/util/jsonutil"
)

// Pattern matches one placeholder token.
var Pattern = regexp.MustCompile(`\{\{([a-z]+)\.([a-zA-Z0-9_-]+)\}\}`)

const (
	NamespacePost     = "post"
	NamespaceTaxonomy = "taxonomy"
)

// Parse splits a placeholder token. ok is false unless token is exactly one
// placeholder.
func Parse(token string) (namespace, field string, ok bool) {
	m := Pattern.FindStringSubmatch(token)
	if m == nil || m[0] != token {
		return "", "", false
	}
	return m[1], m[2], true
}

// Resolver substitutes placeholders. It is safe for concurrent use when its
// sources are.
type Resolver struct {
	contexts ContextSource
	fields   *fields.Set
}

func NewResolver(contexts ContextSource, set *fields.Set) *Resolver {
	if set == nil {
		set = fields.NewSet()
	}
	return &Resolver{contexts: contexts, fields: set}
}

// Resolve replaces every recognised token in text using the context
// contextID. Unknown namespaces, unknown post attributes and namespaces
// without a field backend are left as they are. Text is returned unchanged
// when the context does not exist. Provider failures leave their tokens in
// place and are returned joined.
func (r *Resolver) Resolve(ctx context.Context, text, contextID string) (string, error) {
	return r.resolve(ctx, text, contextID, nil)
}

// ResolveJSON resolves the tokens inside the strings of a serialized JSON
// body. Values are escaped so the body stays valid JSON.
func (r *Resolver) ResolveJSON(ctx context.Context, body []byte, contextID string) ([]byte, error) {
	out, err := r.resolve(ctx, string(body), contextID, jsonString)
	return []byte(out), err
}

func jsonString(v string) string {
	b, err := jsonutil.MarshalNoEscape(v)
	if err != nil || len(b) < 2 {
		return ""
	}
	return string(b[1 : len(b)-1])
}

// resolve substitutes tokens, passing each value through quote when set.
func (r *Resolver) resolve(ctx context.Context, text, contextID string, quote func(string) string) (string, error) {
	if !strings.Contains(text, "{{") {
		return text, nil
	}
	var c *Context
	if r.contexts != nil {
		var err error
		c, err = r.contexts.Context(ctx, contextID)
		if err != nil {
			return text, apperr.Collaborator("resolve placeholders", err)
		}
	}
	if c == nil {
		return text, nil
	}
	if quote == nil {
		quote = func(v string) string { return v }
	}

	var errs []error
	text = replace(text, NamespacePost, func(field string) (string, bool) {
		v, ok := c.Attribute(field)
		return quote(v), ok
	})
	for _, ns := range fields.Namespaces {
		p := r.fields.Provider(ns)
		text = replace(text, ns, func(field string) (string, bool) {
			v, err := p.FieldValue(ctx, field, contextID)
			if errors.Is(err, fields.ErrNoBackend) {
				return "", false
			}
			if err != nil {
				errs = append(errs, apperr.Collaborator("resolve "+ns+"."+field, err))
				return "", false
			}
			return quote(Format(v)), true
		})
	}
	text = replace(text, NamespaceTaxonomy, func(taxonomy string) (string, bool) {
		return quote(strings.Join(c.Terms[taxonomy], ", ")), true
	})
	if len(errs) > 0 {
		log.Printf("placeholder: %d provider error(s) for context %s", len(errs), contextID)
	}
	return text, errors.Join(errs...)
}

// replace rewrites the tokens of one namespace. fn reports false to keep a
// token.
func replace(text, namespace string, fn func(field string) (string, bool)) string {
	return Pattern.ReplaceAllStringFunc(text, func(tok string) string {
		m := Pattern.FindStringSubmatch(tok)
		if m[1] != namespace {
			return tok
		}
		if v, ok := fn(m[2]); ok {
			return v
		}
		return tok
	})
}

// Format renders a field value: lists joined with ", ", objects as compact
// JSON, nil as empty.
func Format(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []string:
		return strings.Join(x, ", ")
	case []any:
		parts := make([]string, 0, len(x))
		for _, e := range x {
			parts = append(parts, Format(e))
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		b, err := jsonutil.MarshalNoEscape(x)
		if err != nil {
			return ""
		}
		return string(b)
	case float64:
		if x == float64(int64(x)) {
			return fmt.Sprintf("%d", int64(x))
		}
		return fmt.Sprintf("%g", x)
	default:
		return fmt.Sprint(x)
	}
}
