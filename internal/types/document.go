package types

import "time"

// NodeKind is the level of a node in the builder tree.
type NodeKind string

const (
	KindSection NodeKind = "section"
	KindColumn  NodeKind = "column"
	KindWidget  NodeKind = "widget"
)

// Settings keeps builder settings in the order they were assigned.
type Settings = Ordered[any]

func NewSettings() *Settings { return NewOrdered[any]() }

// DocumentNode is a section, column or widget. Only sections and columns
// have children; sections hold columns and columns hold widgets.
type DocumentNode struct {
	ID         string          `json:"id"`
	Kind       NodeKind        `json:"elType"`
	WidgetType string          `json:"widgetType,omitempty"`
	Settings   *Settings       `json:"settings"`
	Children   []*DocumentNode `json:"elements"`
}

// Walk visits n and its descendants depth first. parent is nil for n.
func (n *DocumentNode) Walk(fn func(node, parent *DocumentNode)) {
	var walk func(node, parent *DocumentNode)
	walk = func(node, parent *DocumentNode) {
		if node == nil {
			return
		}
		fn(node, parent)
		for _, c := range node.Children {
			walk(c, node)
		}
	}
	walk(n, nil)
}

// DocumentTree is the translated content plus the title and type hint the
// document store needs.
type DocumentTree struct {
	Version string          `json:"version"`
	Title   string          `json:"title"`
	Type    string          `json:"type"`
	Content []*DocumentNode `json:"content"`
}

// FieldDef describes a custom field exposed by a field provider.
type FieldDef struct {
	Name        string `json:"name" yaml:"name"`
	Label       string `json:"label" yaml:"label"`
	Type        string `json:"type" yaml:"type"`
	Plugin      string `json:"plugin,omitempty" yaml:"-"`
	Placeholder string `json:"placeholder,omitempty" yaml:"-"`
}

// Document is a translated tree as persisted by a document store. Meta holds
// store-level metadata such as the source tag.
type Document struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Type      string          `json:"type"`
	Version   string          `json:"version"`
	Content   []*DocumentNode `json:"content"`
	Meta      map[string]any  `json:"meta"`
	CreatedAt time.Time       `json:"created_at"`
}
