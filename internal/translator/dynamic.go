package translator

import (
	"context"
	"fmt"

	"l2wp/internal/placeholder"
	"l2wp/internal/types"
)

// FieldLister is the part of a field provider the translator needs.
type FieldLister interface {
	ListFields(ctx context.Context, contentType string) ([]types.FieldDef, error)
}

// DynamicTag converts a placeholder token into the builder's dynamic tag
// shortcode. Anything that is not a known placeholder is returned as is.
func DynamicTag(token string) string {
	m := placeholder.Pattern.FindStringSubmatch(token)
	if m == nil {
		return token
	}
	ns, field := m[1], m[2]
	switch ns {
	case "acf":
		return fmt.Sprintf(`[elementor-tag id="acf" name="acf-field" settings='{"key":"%s"}']`, field)
	case "jet":
		return fmt.Sprintf(`[elementor-tag id="jet" name="jet-field" settings='{"field":"%s"}']`, field)
	case "mb":
		return fmt.Sprintf(`[elementor-tag id="metabox" name="metabox-field" settings='{"key":"%s"}']`, field)
	case "post":
		return fmt.Sprintf(`[elementor-tag id="post" name="post-%s"]`, field)
	case "taxonomy":
		return fmt.Sprintf(`[elementor-tag id="taxonomy" name="taxonomy" settings='{"taxonomy":"%s"}']`, field)
	default:
		return token
	}
}

// PlaceholderWidget builds a widget bound to the placeholder's dynamic tag.
// The widget type follows the field type reported by fields for
// contentType; unknown fields are treated as text. It returns nil when
// token is not a placeholder.
func (t *Translator) PlaceholderWidget(ctx context.Context, token, contentType string, fields FieldLister) (*types.DocumentNode, error) {
	m := placeholder.Pattern.FindStringSubmatch(token)
	if m == nil {
		return nil, nil
	}
	fieldType := "text"
	if fields != nil {
		defs, err := fields.ListFields(ctx, contentType)
		if err != nil {
			return nil, err
		}
		for _, d := range defs {
			if d.Name == m[2] && d.Type != "" {
				fieldType = d.Type
				break
			}
		}
	}

	tag := DynamicTag(token)
	b := t.newBuilder()
	s := types.NewSettings()
	switch fieldType {
	case "image":
		s.Set("dynamic", map[string]any{"image": tag})
		return b.widget(WidgetImage, s), nil
	case "wysiwyg", "textarea":
		s.Set("dynamic", map[string]any{"editor": tag})
		return b.widget(WidgetTextEditor, s), nil
	case "url", "link":
		s.Set("dynamic", map[string]any{"link": tag})
		return b.widget(WidgetButton, s), nil
	default:
		s.Set("editor", tag)
		return b.widget(WidgetTextEditor, s), nil
	}
}
