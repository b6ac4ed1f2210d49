// Package translator turns page markup and design descriptions into
// builder document trees of sections, columns and widgets.
package translator

import (
	"bytes"
	"fmt"

	"l2wp/internal/apperr"
	"l2wp/internal/types"
	"l2wp/internal/util/jsonutil"
)

// DocumentVersion is the builder data version written on every tree.
const DocumentVersion = "0.4"

// Translator is safe for concurrent use. Node ids are unique across every
// tree it produces.
type Translator struct {
	ids     IDFunc
	used    *idSet
	version string
}

type Option func(*Translator)

// WithIDGenerator replaces the random node id source.
func WithIDGenerator(f IDFunc) Option {
	return func(t *Translator) {
		if f != nil {
			t.ids = f
		}
	}
}

func WithVersion(v string) Option {
	return func(t *Translator) {
		if v != "" {
			t.version = v
		}
	}
}

func New(opts ...Option) *Translator {
	t := &Translator{ids: RandomIDs(), version: DocumentVersion}
	for _, o := range opts {
		o(t)
	}
	t.used = newIDSet(t.ids)
	return t
}

func (t *Translator) newBuilder() *builder {
	return &builder{ids: t.used}
}

// Page translates one page file.
func (t *Translator) Page(page types.SourceFile) types.DocumentTree {
	return types.DocumentTree{
		Version: t.version,
		Title:   page.Name,
		Type:    "page",
		Content: t.Markup(page.Content),
	}
}

// Design is an uploaded design document. A project node selects the project
// schema; otherwise the generic sections are used.
type Design struct {
	Project  *ProjectDesign  `json:"proyecto,omitempty"`
	Title    string          `json:"title,omitempty"`
	Type     string          `json:"type,omitempty"`
	Sections []SectionDesign `json:"sections,omitempty"`
}

// DisplayTitle is the title stored with an exported design.
func (d Design) DisplayTitle() string {
	if d.Project != nil && d.Project.Name != "" {
		return d.Project.Name
	}
	return or(d.Title, "Lovable Design")
}

// ParseDesign decodes a design document. Non-object or empty input is a
// validation error; syntax problems are classified decode errors.
func ParseDesign(data []byte) (Design, error) {
	const op = "parse design"
	data = bytes.TrimSpace(data)
	var raw any
	if err := jsonutil.Decode(op, data, &raw); err != nil {
		return Design{}, err
	}
	if obj, ok := raw.(map[string]any); !ok || len(obj) == 0 {
		return Design{}, apperr.Validation(op, "Invalid design data structure")
	}
	var d Design
	if err := jsonutil.Decode(op, data, &d); err != nil {
		return Design{}, err
	}
	return d, nil
}

// Design translates whichever schema d carries.
func (t *Translator) Design(d Design) types.DocumentTree {
	if d.Project != nil {
		tree := t.Project(*d.Project)
		tree.Title = d.DisplayTitle()
		return tree
	}
	return types.DocumentTree{
		Version: t.version,
		Title:   d.DisplayTitle(),
		Type:    or(d.Type, "page"),
		Content: t.Generic(d.Sections),
	}
}

// CheckStructure verifies the nesting rules: sections at the top holding
// columns, columns holding widgets, widgets holding nothing.
func CheckStructure(content []*types.DocumentNode) error {
	const op = "check structure"
	var bad []string
	for _, sec := range content {
		if sec == nil || sec.Kind != types.KindSection {
			bad = append(bad, nodeLabel(sec))
			continue
		}
		for _, col := range sec.Children {
			if col == nil || col.Kind != types.KindColumn {
				bad = append(bad, nodeLabel(col))
				continue
			}
			for _, w := range col.Children {
				if w == nil || w.Kind != types.KindWidget || len(w.Children) > 0 {
					bad = append(bad, nodeLabel(w))
				}
			}
		}
	}
	if len(bad) > 0 {
		return apperr.Validation(op, fmt.Sprintf("%d misplaced node(s)", len(bad)), bad...)
	}
	return nil
}

func nodeLabel(n *types.DocumentNode) string {
	if n == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s:%s", n.Kind, n.ID)
}
