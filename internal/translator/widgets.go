package translator

import "l2wp/internal/types"

// Builder widget types.
const (
	WidgetHeading    = "heading"
	WidgetTextEditor = "text-editor"
	WidgetImage      = "image"
	WidgetButton     = "button"
	WidgetIcon       = "icon"
	WidgetIconBox    = "icon-box"
	WidgetVideo      = "video"
	WidgetHTML       = "html"
)

var widgetTypes = map[string]string{
	"heading":     WidgetHeading,
	"text":        WidgetTextEditor,
	"paragraph":   WidgetTextEditor,
	"image":       WidgetImage,
	"button":      WidgetButton,
	"divider":     "divider",
	"spacer":      "spacer",
	"icon":        WidgetIcon,
	"video":       WidgetVideo,
	"html":        WidgetHTML,
	"shortcode":   "shortcode",
	"icon-box":    WidgetIconBox,
	"image-box":   "image-box",
	"star-rating": "star-rating",
	"testimonial": "testimonial",
	"counter":     "counter",
	"progress":    "progress",
	"accordion":   "accordion",
	"tabs":        "tabs",
	"toggle":      "toggle",
}

// WidgetType normalizes a source element type. Unknown types become a text
// editor.
func WidgetType(source string) string {
	if wt, ok := widgetTypes[source]; ok {
		return wt
	}
	return WidgetTextEditor
}

// builder assembles one document from the Translator's id set.
type builder struct {
	ids *idSet
}

func (b *builder) node(kind types.NodeKind, widgetType string, settings *types.Settings, children []*types.DocumentNode) *types.DocumentNode {
	if settings == nil {
		settings = types.NewSettings()
	}
	if children == nil {
		children = []*types.DocumentNode{}
	}
	return &types.DocumentNode{
		ID:         b.ids.next(),
		Kind:       kind,
		WidgetType: widgetType,
		Settings:   settings,
		Children:   children,
	}
}

func (b *builder) section(settings *types.Settings, columns ...*types.DocumentNode) *types.DocumentNode {
	return b.node(types.KindSection, "", settings, columns)
}

func (b *builder) column(settings *types.Settings, widgets ...*types.DocumentNode) *types.DocumentNode {
	return b.node(types.KindColumn, "", settings, widgets)
}

func (b *builder) widget(widgetType string, settings *types.Settings) *types.DocumentNode {
	return b.node(types.KindWidget, widgetType, settings, nil)
}

// fullColumn is the single full-width column markup and project sections use.
func (b *builder) fullColumn(widgets ...*types.DocumentNode) *types.DocumentNode {
	s := types.NewSettings()
	s.Set("_column_size", 100)
	s.Set("css_classes", "lovable-column")
	return b.column(s, widgets...)
}

func boxedSection(classes string) *types.Settings {
	s := types.NewSettings()
	s.Set("layout", "boxed")
	s.Set("css_classes", joinClasses(classes, "lovable-section"))
	return s
}

func link(url string) map[string]any {
	return map[string]any{"url": url}
}
