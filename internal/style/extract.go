// Package style pulls color tokens, fonts and a cleaned stylesheet out of
// a project's CSS.
package style

import (
	"net/url"
	"regexp"
	"slices"
	"strings"

	"l2wp/internal/types"
)

var (
	customPropRe = regexp.MustCompile(`--([\w-]+):\s*([^;]+);`)
	rootBlockRe  = regexp.MustCompile(`:root\s*{([^}]+)}`)
	importRe     = regexp.MustCompile(`@import\s+url\(['"]?([^'"()]+)['"]?\);`)
	familyRe     = regexp.MustCompile(`family=([^:&]+)`)
	fontFamilyRe = regexp.MustCompile(`font-family:\s*([^;]+);`)

	tailwindRe  = regexp.MustCompile(`@tailwind\s+[^;]+;`)
	applyRe     = regexp.MustCompile(`@apply\s+[^;]+;`)
	layerOpenRe = regexp.MustCompile(`@layer\s+[\w\s,]+\s*{`)
	emptyRuleRe = regexp.MustCompile(`[^{}]+{\s*}`)
)

// colorNameHints are substrings that mark a custom property as a color
// token outside :root.
var colorNameHints = []string{"color", "background", "foreground", "primary", "secondary", "accent"}

var genericFamilies = []string{"sans-serif", "serif", "monospace"}

const googleFontsHost = "fonts.googleapis.com"

// Extract scans the model's stylesheets in inventory order. It has no side
// effects; equal input gives equal output.
func Extract(model types.ProjectModel) types.StyleData {
	css := Combine(model.Assets.Stylesheets)
	return types.StyleData{
		Colors:    Colors(css),
		Fonts:     Fonts(css),
		CustomCSS: Clean(css),
		Tailwind:  tailwindConfig(model.DesignTokens),
	}
}

// Combine joins stylesheet contents, each followed by a blank line.
func Combine(sheets []types.Asset) string {
	var b strings.Builder
	for _, s := range sheets {
		b.WriteString(s.Content)
		b.WriteString("\n\n")
	}
	return b.String()
}

// Colors collects color-like custom properties, then overlays every
// property of the first :root block.
func Colors(css string) *types.Ordered[string] {
	colors := types.NewOrdered[string]()
	for _, m := range customPropRe.FindAllStringSubmatch(css, -1) {
		if isColorName(m[1]) {
			colors.Set(m[1], strings.TrimSpace(m[2]))
		}
	}
	if root := rootBlockRe.FindStringSubmatch(css); root != nil {
		for _, m := range customPropRe.FindAllStringSubmatch(root[1], -1) {
			colors.Set(m[1], strings.TrimSpace(m[2]))
		}
	}
	return colors
}

func isColorName(name string) bool {
	for _, hint := range colorNameHints {
		if strings.Contains(name, hint) {
			return true
		}
	}
	return false
}

// Fonts returns Google Fonts imports followed by distinct font-family heads.
func Fonts(css string) []types.Font {
	fonts := []types.Font{}
	for _, m := range importRe.FindAllStringSubmatch(css, -1) {
		u := m[1]
		if !strings.Contains(u, googleFontsHost) {
			continue
		}
		fm := familyRe.FindStringSubmatch(u)
		if fm == nil {
			continue
		}
		name, err := url.QueryUnescape(fm[1])
		if err != nil {
			name = fm[1]
		}
		fonts = append(fonts, types.Font{Name: strings.ReplaceAll(name, "+", " "), URL: u, Source: types.FontGoogle})
	}
	for _, m := range fontFamilyRe.FindAllStringSubmatch(css, -1) {
		family := strings.Trim(m[1], `'"`)
		family, _, _ = strings.Cut(family, ",")
		family = strings.Trim(family, `'"`)
		if slices.Contains(genericFamilies, family) || hasFont(fonts, family) {
			continue
		}
		fonts = append(fonts, types.Font{Name: family, Source: types.FontCustom})
	}
	return fonts
}

func hasFont(fonts []types.Font, name string) bool {
	for _, f := range fonts {
		if f.Name == name {
			return true
		}
	}
	return false
}

// Clean strips utility-framework directives and empty rules. Only the
// opening "@layer x {" is removed; its closing brace stays in the output.
func Clean(css string) string {
	css = tailwindRe.ReplaceAllString(css, "")
	css = applyRe.ReplaceAllString(css, "")
	css = layerOpenRe.ReplaceAllString(css, "")
	css = emptyRuleRe.ReplaceAllString(css, "")
	return strings.TrimSpace(css)
}

func tailwindConfig(design map[string]any) types.TailwindConfig {
	var cfg types.TailwindConfig
	if design == nil {
		return cfg
	}
	if v, ok := design["colores"]; ok {
		cfg.Colors = v
	}
	if v, ok := design["tipografia"]; ok {
		cfg.Typography = v
	}
	return cfg
}
