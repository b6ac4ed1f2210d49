package translator

import (
	"math"

	"l2wp/internal/types"
)

// SectionDesign is a section of the generic design format.
type SectionDesign struct {
	Layout       string         `json:"layout,omitempty"`
	ContentWidth string         `json:"content_width,omitempty"`
	Gap          string         `json:"gap,omitempty"`
	Height       string         `json:"height,omitempty"`
	Classes      string         `json:"classes,omitempty"`
	Animation    any            `json:"animation,omitempty"`
	Background   *Background    `json:"background,omitempty"`
	Columns      []ColumnDesign `json:"columns"`
}

type ColumnDesign struct {
	// Width is a percentage; nil means full width.
	Width     *float64       `json:"width,omitempty"`
	Classes   string         `json:"classes,omitempty"`
	Animation any            `json:"animation,omitempty"`
	Widgets   []WidgetDesign `json:"widgets"`
}

// WidgetDesign carries the union of per-type widget fields.
type WidgetDesign struct {
	Type      string `json:"type"`
	Content   string `json:"content,omitempty"`
	Tag       string `json:"tag,omitempty"`
	Align     string `json:"align,omitempty"`
	Src       string `json:"src,omitempty"`
	Size      string `json:"size,omitempty"`
	Caption   string `json:"caption,omitempty"`
	Text      string `json:"text,omitempty"`
	URL       string `json:"url,omitempty"`
	Icon      string `json:"icon,omitempty"`
	View      string `json:"view,omitempty"`
	VideoType string `json:"video_type,omitempty"`
	Classes   string `json:"classes,omitempty"`
	Animation any    `json:"animation,omitempty"`
}

// Generic translates sections of the generic design format.
func (t *Translator) Generic(sections []SectionDesign) []*types.DocumentNode {
	b := t.newBuilder()
	out := make([]*types.DocumentNode, 0, len(sections))
	for _, sec := range sections {
		out = append(out, b.genericSection(sec))
	}
	return out
}

func (b *builder) genericSection(sec SectionDesign) *types.DocumentNode {
	s := types.NewSettings()
	s.Set("layout", or(sec.Layout, "boxed"))
	s.Set("content_width", or(sec.ContentWidth, "boxed"))
	s.Set("gap", or(sec.Gap, "default"))
	s.Set("height", or(sec.Height, "default"))
	s.Set("css_classes", joinClasses("lovable-section", sec.Classes))
	applyAnimation(s, "css_classes", sec.Animation)
	applyBackground(s, sec.Background)

	cols := make([]*types.DocumentNode, 0, len(sec.Columns))
	for _, col := range sec.Columns {
		cols = append(cols, b.genericColumn(col))
	}
	return b.section(s, cols...)
}

func (b *builder) genericColumn(col ColumnDesign) *types.DocumentNode {
	s := types.NewSettings()
	if col.Width != nil {
		s.Set("_column_size", number(*col.Width))
		s.Set("_inline_size", number(*col.Width))
	} else {
		s.Set("_column_size", 100)
		s.Set("_inline_size", nil)
	}
	s.Set("css_classes", joinClasses("lovable-column", col.Classes))
	applyAnimation(s, "css_classes", col.Animation)

	widgets := make([]*types.DocumentNode, 0, len(col.Widgets))
	for _, w := range col.Widgets {
		widgets = append(widgets, b.genericWidget(w))
	}
	return b.column(s, widgets...)
}

func (b *builder) genericWidget(w WidgetDesign) *types.DocumentNode {
	wt := WidgetType(w.Type)
	s := types.NewSettings()
	s.Set("_css_classes", joinClasses("lovable-widget", w.Classes))
	applyAnimation(s, "_css_classes", w.Animation)

	switch wt {
	case WidgetHeading:
		s.Set("title", w.Content)
		s.Set("header_size", or(w.Tag, "h2"))
		s.Set("align", or(w.Align, "left"))
	case WidgetTextEditor:
		s.Set("editor", w.Content)
	case WidgetImage:
		if w.Src != "" {
			s.Set("image", map[string]any{"url": w.Src})
		}
		s.Set("image_size", or(w.Size, "full"))
		s.Set("align", or(w.Align, "center"))
		s.Set("caption", w.Caption)
	case WidgetButton:
		s.Set("text", or(w.Text, "Click Here"))
		s.Set("link", link(or(w.URL, "#")))
		s.Set("size", or(w.Size, "md"))
		s.Set("align", or(w.Align, "left"))
	case WidgetIcon:
		s.Set("icon", map[string]any{"value": or(w.Icon, "fas fa-star")})
		s.Set("view", or(w.View, "default"))
	case WidgetVideo:
		s.Set("youtube_url", w.URL)
		s.Set("video_type", or(w.VideoType, "youtube"))
	case WidgetHTML:
		s.Set("html", w.Content)
	}
	return b.widget(wt, s)
}

// number keeps whole percentages integral in the serialized settings.
func number(f float64) any {
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return int(f)
	}
	return f
}
