package translator

import (
	"context"
	"errors"
	"log"

	"l2wp/internal/apperr"
	"l2wp/internal/types"
)

// Metadata keys written on exported documents.
const (
	MetaTemplateType = "_elementor_template_type"
	MetaEditMode     = "_elementor_edit_mode"
	MetaSource       = "_lovable_source"
	MetaVersion      = "_lovable_version"
	MetaPageSettings = "_elementor_page_settings"
)

// SourceVersion tags documents produced by this converter.
const SourceVersion = "1.0.0"

// ErrDocumentNotFound is returned by document stores for unknown ids.
var ErrDocumentNotFound = errors.New("document not found")

// DocumentStore persists translated documents.
type DocumentStore interface {
	Create(ctx context.Context, doc types.Document) (string, error)
	Get(ctx context.Context, id string) (types.Document, error)
	List(ctx context.Context) ([]types.Document, error)
	DeleteMeta(ctx context.Context, id string, keys ...string) error
}

// SourceMeta is the metadata every converted document carries.
func SourceMeta(templateType string) map[string]any {
	return map[string]any{
		MetaTemplateType: templateType,
		MetaEditMode:     "builder",
		MetaSource:       true,
		MetaVersion:      SourceVersion,
	}
}

// IsSourced reports whether doc was produced by this converter.
func IsSourced(doc types.Document) bool {
	v, _ := doc.Meta[MetaSource].(bool)
	return v
}

// Exporter turns uploaded designs into stored documents.
type Exporter struct {
	t     *Translator
	store DocumentStore
}

func NewExporter(t *Translator, store DocumentStore) *Exporter {
	if t == nil {
		t = New()
	}
	return &Exporter{t: t, store: store}
}

// ExportResult identifies a stored export.
type ExportResult struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Type  string `json:"type"`
}

// Export parses data, translates it and stores the document.
func (e *Exporter) Export(ctx context.Context, data []byte) (ExportResult, error) {
	d, err := ParseDesign(data)
	if err != nil {
		return ExportResult{}, err
	}
	tree := e.t.Design(d)
	if err := CheckStructure(tree.Content); err != nil {
		return ExportResult{}, err
	}
	id, err := e.store.Create(ctx, types.Document{
		Title:   tree.Title,
		Type:    tree.Type,
		Version: tree.Version,
		Content: tree.Content,
		Meta:    SourceMeta(tree.Type),
	})
	if err != nil {
		return ExportResult{}, apperr.Collaborator("export", err)
	}
	log.Printf("export: stored %q as %s (%d sections)", tree.Title, id, len(tree.Content))
	return ExportResult{ID: id, Title: tree.Title, Type: tree.Type}, nil
}

// List returns the documents tagged as converted.
func (e *Exporter) List(ctx context.Context) ([]types.Document, error) {
	docs, err := e.store.List(ctx)
	if err != nil {
		return nil, apperr.Collaborator("list exports", err)
	}
	out := make([]types.Document, 0, len(docs))
	for _, d := range docs {
		if IsSourced(d) {
			out = append(out, d)
		}
	}
	return out, nil
}

// Get loads one stored document, converted or not.
func (e *Exporter) Get(ctx context.Context, id string) (types.Document, error) {
	return e.get(ctx, "get document", id)
}

func (e *Exporter) get(ctx context.Context, op, id string) (types.Document, error) {
	doc, err := e.store.Get(ctx, id)
	if errors.Is(err, ErrDocumentNotFound) {
		return types.Document{}, apperr.NotFound(op, "document", id)
	}
	if err != nil {
		return types.Document{}, apperr.Collaborator(op, err)
	}
	return doc, nil
}

// Untag drops the source tag so the document no longer lists as an export.
// The document itself is kept.
func (e *Exporter) Untag(ctx context.Context, id string) error {
	const op = "untag export"
	if _, err := e.get(ctx, op, id); err != nil {
		return err
	}
	if err := e.store.DeleteMeta(ctx, id, MetaSource, MetaVersion); err != nil {
		return apperr.Collaborator(op, err)
	}
	return nil
}
