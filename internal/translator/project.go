package translator

import (
	"strings"

	"l2wp/internal/types"
)

const defaultProjectTitle = "Lovable Project"

// ProjectDesign is the project description schema, keyed in Spanish as the
// generator emits it.
type ProjectDesign struct {
	Name      string          `json:"nombre"`
	Structure ProjectPageList `json:"estructura_paginas"`
}

type ProjectPageList struct {
	Pages []PageDesign `json:"paginas"`
}

type PageDesign struct {
	Name     string          `json:"nombre"`
	Sections []SeccionDesign `json:"secciones"`
}

// SeccionDesign is one described section. Elements are strings, rendered as
// text, or typed objects in the generic widget shape. Other values are
// skipped.
type SeccionDesign struct {
	Name     string       `json:"nombre"`
	Content  string       `json:"contenido"`
	Elements []any        `json:"elementos"`
	Cards    []CardDesign `json:"cards"`
	Buttons  []string     `json:"botones"`
}

type CardDesign struct {
	Title       string `json:"titulo"`
	Description string `json:"descripcion"`
	Icon        string `json:"icono"`
}

// Project translates a project description. Sections of every page are
// flattened into one document.
func (t *Translator) Project(p ProjectDesign) types.DocumentTree {
	b := t.newBuilder()
	var content []*types.DocumentNode
	for _, page := range p.Structure.Pages {
		for _, sec := range page.Sections {
			content = append(content, b.section(boxedSection(""), b.fullColumn(b.seccionWidgets(sec)...)))
		}
	}
	if content == nil {
		content = []*types.DocumentNode{}
	}
	return types.DocumentTree{
		Version: t.version,
		Title:   or(strings.TrimSpace(p.Name), defaultProjectTitle),
		Type:    "page",
		Content: content,
	}
}

func (b *builder) seccionWidgets(sec SeccionDesign) []*types.DocumentNode {
	var widgets []*types.DocumentNode

	s := types.NewSettings()
	s.Set("title", or(sec.Name, "Section"))
	s.Set("header_size", "h2")
	s.Set("_css_classes", "lovable-widget")
	applyAnimation(s, "_css_classes", "fadeInUp")
	widgets = append(widgets, b.widget(WidgetHeading, s))

	if sec.Content != "" {
		widgets = append(widgets, b.textWidget(sec.Content))
	}
	for _, el := range sec.Elements {
		switch v := el.(type) {
		case string:
			widgets = append(widgets, b.textWidget(v))
		case map[string]any:
			widgets = append(widgets, b.genericWidget(elementDesign(v)))
		}
	}
	for _, card := range sec.Cards {
		s := types.NewSettings()
		s.Set("title_text", card.Title)
		s.Set("description_text", card.Description)
		s.Set("icon", map[string]any{"value": "fas fa-" + strings.ToLower(card.Icon)})
		s.Set("_css_classes", "lovable-widget lovable-card")
		applyAnimation(s, "_css_classes", "fadeInUp")
		widgets = append(widgets, b.widget(WidgetIconBox, s))
	}
	for _, label := range sec.Buttons {
		s := types.NewSettings()
		s.Set("text", label)
		s.Set("link", link("#"))
		s.Set("_css_classes", "lovable-widget")
		applyAnimation(s, "_css_classes", "scaleUp")
		widgets = append(widgets, b.widget(WidgetButton, s))
	}
	return widgets
}

// elementDesign reads a typed element. Unknown types become text widgets.
func elementDesign(el map[string]any) WidgetDesign {
	str := func(keys ...string) string {
		for _, k := range keys {
			if s, ok := el[k].(string); ok && s != "" {
				return s
			}
		}
		return ""
	}
	return WidgetDesign{
		Type:      str("type", "tipo"),
		Content:   str("content", "contenido"),
		Tag:       str("tag"),
		Align:     str("align"),
		Src:       str("src"),
		Size:      str("size"),
		Caption:   str("caption"),
		Text:      str("text", "texto"),
		URL:       str("url"),
		Icon:      str("icon", "icono"),
		View:      str("view"),
		VideoType: str("video_type"),
		Classes:   str("classes"),
		Animation: el["animation"],
	}
}

func (b *builder) textWidget(text string) *types.DocumentNode {
	s := types.NewSettings()
	s.Set("editor", text)
	s.Set("_css_classes", "lovable-widget")
	return b.widget(WidgetTextEditor, s)
}
