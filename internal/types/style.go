package types

type FontSource string

const (
	FontGoogle FontSource = "google"
	FontCustom FontSource = "custom"
)

type Font struct {
	Name   string     `json:"name"`
	URL    string     `json:"url"`
	Source FontSource `json:"source"`
}

// TailwindConfig is copied verbatim from project design metadata.
type TailwindConfig struct {
	Colors     any `json:"colors,omitempty"`
	Typography any `json:"typography,omitempty"`
}

func (c TailwindConfig) Empty() bool {
	return c.Colors == nil && c.Typography == nil
}

// StyleData is the output of the style extractor.
type StyleData struct {
	Colors    *Ordered[string] `json:"colors"`
	Fonts     []Font           `json:"fonts"`
	CustomCSS string           `json:"custom_css"`
	Tailwind  TailwindConfig   `json:"tailwind_config"`
}

// PaletteEntry is a display-ready color.
type PaletteEntry struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Color string `json:"color"`
}
