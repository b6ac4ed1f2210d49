package style

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"l2wp/internal/types"
)

var hslRe = regexp.MustCompile(`(\d+)\s*,?\s*(\d+)%\s*,?\s*(\d+)%`)

const fallbackHex = "#000000"

// HSLToHex converts "H S% L%" (commas and an hsl() wrapper are tolerated)
// into #rrggbb. Hex and rgb() values pass through; anything else becomes
// #000000.
func HSLToHex(value string) string {
	if strings.HasPrefix(value, "#") || strings.HasPrefix(value, "rgb") {
		return value
	}
	m := hslRe.FindStringSubmatch(value)
	if m == nil {
		return fallbackHex
	}
	h := atof(m[1]) / 360
	s := atof(m[2]) / 100
	l := atof(m[3]) / 100

	var r, g, b float64
	if s == 0 {
		r, g, b = l, l, l
	} else {
		q := l + s - l*s
		if l < 0.5 {
			q = l * (1 + s)
		}
		p := 2*l - q
		r = hueToChannel(p, q, h+1.0/3)
		g = hueToChannel(p, q, h)
		b = hueToChannel(p, q, h-1.0/3)
	}
	return fmt.Sprintf("#%02x%02x%02x", channel(r), channel(g), channel(b))
}

func hueToChannel(p, q, t float64) float64 {
	if t < 0 {
		t++
	}
	if t > 1 {
		t--
	}
	switch {
	case t < 1.0/6:
		return p + (q-p)*6*t
	case t < 1.0/2:
		return q
	case t < 2.0/3:
		return p + (q-p)*(2.0/3-t)*6
	default:
		return p
	}
}

func channel(v float64) int {
	c := int(math.Round(v * 255))
	return max(0, min(255, c))
}

func atof(s string) float64 {
	n, _ := strconv.Atoi(s)
	return float64(n)
}

// Palette converts every retained color into a display entry.
func Palette(colors *types.Ordered[string]) []types.PaletteEntry {
	out := make([]types.PaletteEntry, 0, colors.Len())
	colors.Each(func(name, value string) bool {
		out = append(out, types.PaletteEntry{
			ID:    paletteID(name),
			Label: paletteLabel(name),
			Color: HSLToHex(value),
		})
		return true
	})
	return out
}

// paletteID keeps lowercase letters, digits, dashes and underscores.
func paletteID(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func paletteLabel(name string) string {
	words := strings.Split(strings.ReplaceAll(name, "-", " "), " ")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// BuilderCSS renders the color tokens as a :root block followed by the
// cleaned stylesheet.
func BuilderCSS(data types.StyleData) string {
	var b strings.Builder
	if data.Colors.Len() > 0 {
		b.WriteString(":root {\n")
		data.Colors.Each(func(name, value string) bool {
			fmt.Fprintf(&b, "  --%s: %s;\n", name, value)
			return true
		})
		b.WriteString("}\n\n")
	}
	b.WriteString(data.CustomCSS)
	return b.String()
}
