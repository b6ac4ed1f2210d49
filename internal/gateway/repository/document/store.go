// Package document persists translated builder documents.
package document

import (
	"maps"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"l2wp/internal/translator"
	"l2wp/internal/types"
)

// ErrNotFound is the store-level miss; it matches
// translator.ErrDocumentNotFound.
var ErrNotFound = translator.ErrDocumentNotFound

var (
	_ translator.DocumentStore = (*MemoryStore)(nil)
	_ translator.DocumentStore = (*PostgresStore)(nil)
)

const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

func newID() (string, error) {
	return gonanoid.Generate(idAlphabet, 12)
}

func normalizeID(id string) string { return strings.TrimSpace(id) }

func copyDoc(d types.Document) types.Document {
	d.Meta = maps.Clone(d.Meta)
	if d.Meta == nil {
		d.Meta = map[string]any{}
	}
	return d
}
