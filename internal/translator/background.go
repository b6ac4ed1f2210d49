package translator

import "l2wp/internal/types"

// Background is a section background declaration.
type Background struct {
	Type     string `json:"type"`
	Color    string `json:"color,omitempty"`
	ColorB   string `json:"color_b,omitempty"`
	Angle    *int   `json:"angle,omitempty"`
	Image    string `json:"image,omitempty"`
	Position string `json:"position,omitempty"`
	Size     string `json:"size,omitempty"`
}

// applyBackground writes background_* settings. Unknown types only record
// the type.
func applyBackground(s *types.Settings, bg *Background) {
	if bg == nil || bg.Type == "" {
		return
	}
	s.Set("background_background", bg.Type)
	switch bg.Type {
	case "color":
		s.Set("background_color", or(bg.Color, "#ffffff"))
	case "gradient":
		s.Set("background_color", or(bg.Color, "#ffffff"))
		s.Set("background_color_b", or(bg.ColorB, "#000000"))
		angle := 180
		if bg.Angle != nil {
			angle = *bg.Angle
		}
		s.Set("background_gradient_angle", angle)
	case "image":
		if bg.Image != "" {
			s.Set("background_image", map[string]any{"url": bg.Image})
		}
		s.Set("background_position", or(bg.Position, "center center"))
		s.Set("background_size", or(bg.Size, "cover"))
	}
}

func or(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
