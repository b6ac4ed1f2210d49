package translator

import (
	"regexp"
	"strings"

	"l2wp/internal/types"
)

// Markup translation is pattern based. It recognizes a handful of element
// shapes and falls back to a raw html widget for anything else.
var (
	sectionRe   = regexp.MustCompile(`(?s)<section[^>]*className=["']([^"']*)["'][^>]*>(.*?)</section>`)
	paragraphRe = regexp.MustCompile(`(?s)<p[^>]*className=["']([^"']*)["'][^>]*>(.*?)</p>`)
	buttonRe    = regexp.MustCompile(`(?s)<Button[^>]*>(.*?)</Button>`)
	tagRe       = regexp.MustCompile(`<[^>]*>`)
	braceRe     = regexp.MustCompile(`\{[^}]+\}`)

	// One pattern per level; RE2 has no backreference to pair <hN> with </hN>.
	headingRes = func() []*regexp.Regexp {
		out := make([]*regexp.Regexp, 6)
		for i := range out {
			n := string(rune('1' + i))
			out[i] = regexp.MustCompile(`(?s)<h` + n + `[^>]*className=["']([^"']*)["'][^>]*>(.*?)</h` + n + `>`)
		}
		return out
	}()
)

type markupSection struct {
	classes string
	inner   string
}

// Markup translates page markup into sections. Content without any
// recognizable section becomes one implicit section.
func (t *Translator) Markup(content string) []*types.DocumentNode {
	b := t.newBuilder()
	return b.markup(content)
}

func (b *builder) markup(content string) []*types.DocumentNode {
	sections := splitSections(content)
	out := make([]*types.DocumentNode, 0, len(sections))
	for _, sec := range sections {
		out = append(out, b.section(boxedSection(sec.classes), b.fullColumn(b.markupWidgets(sec.inner)...)))
	}
	return out
}

func splitSections(content string) []markupSection {
	matches := sectionRe.FindAllStringSubmatch(content, -1)
	if len(matches) == 0 {
		return []markupSection{{classes: "lovable-section", inner: content}}
	}
	out := make([]markupSection, 0, len(matches))
	for _, m := range matches {
		out = append(out, markupSection{classes: m[1], inner: m[2]})
	}
	return out
}

// markupWidgets extracts headings, then paragraphs, then buttons. The order
// is by kind, not by position in the markup.
func (b *builder) markupWidgets(inner string) []*types.DocumentNode {
	var widgets []*types.DocumentNode
	for _, h := range findHeadings(inner) {
		s := types.NewSettings()
		s.Set("title", stripTags(h.text))
		s.Set("header_size", h.level)
		s.Set("_css_classes", joinClasses("lovable-widget", h.classes))
		widgets = append(widgets, b.widget(WidgetHeading, s))
	}
	for _, m := range paragraphRe.FindAllStringSubmatch(inner, -1) {
		s := types.NewSettings()
		s.Set("editor", m[2])
		s.Set("_css_classes", joinClasses("lovable-widget", m[1]))
		widgets = append(widgets, b.widget(WidgetTextEditor, s))
	}
	for _, m := range buttonRe.FindAllStringSubmatch(inner, -1) {
		s := types.NewSettings()
		s.Set("text", stripTags(m[1]))
		s.Set("link", link("#"))
		s.Set("_css_classes", "lovable-widget lovable-button")
		widgets = append(widgets, b.widget(WidgetButton, s))
	}
	if len(widgets) == 0 {
		s := types.NewSettings()
		s.Set("html", cleanMarkup(inner))
		s.Set("_css_classes", "lovable-widget lovable-html")
		widgets = append(widgets, b.widget(WidgetHTML, s))
	}
	return widgets
}

type heading struct {
	level   string
	classes string
	text    string
}

// findHeadings returns non-overlapping headings of any level in document
// order, taking the leftmost match at each step.
func findHeadings(s string) []heading {
	var out []heading
	pos := 0
	for pos < len(s) {
		best, bestLevel := []int(nil), 0
		for i, re := range headingRes {
			loc := re.FindStringSubmatchIndex(s[pos:])
			if loc == nil {
				continue
			}
			if best == nil || loc[0] < best[0] {
				best, bestLevel = loc, i+1
			}
		}
		if best == nil {
			break
		}
		out = append(out, heading{
			level:   "h" + string(rune('0'+bestLevel)),
			classes: s[pos+best[2] : pos+best[3]],
			text:    s[pos+best[4] : pos+best[5]],
		})
		pos += best[1]
	}
	return out
}

func stripTags(s string) string {
	return tagRe.ReplaceAllString(s, "")
}

// cleanMarkup turns component markup into something an html widget can
// render: interpolations dropped, class attributes renamed, self-closing
// slashes removed.
func cleanMarkup(s string) string {
	s = braceRe.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "className=", "class=")
	return strings.ReplaceAll(s, "/>", ">")
}
