package translator

import (
	"fmt"
	"html"
	"math"
	"strconv"
	"strings"

	"l2wp/internal/types"
)

const (
	AttrAnim     = "data-lovable-anim"
	AttrDelay    = "data-lovable-delay"
	AttrDuration = "data-lovable-duration"
	AttrOnce     = "data-lovable-once"

	// AnimateClass marks elements the front-end animation engine observes.
	AnimateClass = "lovable-animate"

	defaultAnimation = "fadeIn"
)

// DurationBuckets maps the duration attribute to milliseconds.
var DurationBuckets = map[string]int{"fast": 400, "normal": 800, "slow": 1200}

// CriticalCSS hides animated elements until the engine reveals them.
const CriticalCSS = ".lovable-section,.lovable-column,.lovable-widget{box-sizing:border-box}" +
	".lovable-section{position:relative;width:100%}" +
	"[data-lovable-anim]:not(.lovable-animated){opacity:0}" +
	".lovable-animated{opacity:1}"

// Animation is the normalized form of an animation declaration. A bare
// string names the type; an object may add delay, duration and once.
type Animation struct {
	Type     string
	DelayMS  int
	Duration string
	// Once is nil when unspecified, which means animate once.
	Once *bool
}

// ParseAnimation accepts a string or an object. ok is false when v carries
// no animation.
func ParseAnimation(v any) (Animation, bool) {
	switch a := v.(type) {
	case nil:
		return Animation{}, false
	case string:
		a = strings.TrimSpace(a)
		return Animation{Type: a}, a != ""
	case map[string]any:
		if len(a) == 0 {
			return Animation{}, false
		}
		anim := Animation{Type: defaultAnimation}
		if t, ok := a["type"].(string); ok && strings.TrimSpace(t) != "" {
			anim.Type = strings.TrimSpace(t)
		}
		anim.DelayMS = toInt(a["delay"])
		if d, ok := a["duration"].(string); ok {
			anim.Duration = strings.TrimSpace(d)
		}
		if o, ok := a["once"].(bool); ok {
			anim.Once = &o
		}
		return anim, true
	default:
		return Animation{}, false
	}
}

// Attributes returns the render attributes in a fixed order. Delay and
// duration are omitted when empty; once is only emitted to disable it.
func (a Animation) Attributes() [][2]string {
	attrs := [][2]string{{AttrAnim, a.Type}}
	if a.DelayMS > 0 {
		attrs = append(attrs, [2]string{AttrDelay, strconv.Itoa(a.DelayMS)})
	}
	if a.Duration != "" {
		attrs = append(attrs, [2]string{AttrDuration, a.Duration})
	}
	if a.Once != nil && !*a.Once {
		attrs = append(attrs, [2]string{AttrOnce, "false"})
	}
	return attrs
}

// HTML renders the attributes as name="value" pairs.
func (a Animation) HTML() string {
	parts := make([]string, 0, 4)
	for _, kv := range a.Attributes() {
		parts = append(parts, fmt.Sprintf(`%s="%s"`, kv[0], html.EscapeString(kv[1])))
	}
	return strings.Join(parts, " ")
}

// CustomAttributes renders the builder's "key|value" per line format.
func (a Animation) CustomAttributes() string {
	lines := make([]string, 0, 4)
	for _, kv := range a.Attributes() {
		lines = append(lines, kv[0]+"|"+kv[1])
	}
	return strings.Join(lines, "\n")
}

// DurationMS resolves the duration bucket, defaulting to normal.
func (a Animation) DurationMS() int {
	if ms, ok := DurationBuckets[a.Duration]; ok {
		return ms
	}
	return DurationBuckets["normal"]
}

// applyAnimation records raw under _lovable_animation, appends the trigger
// class to classKey and sets the render attributes.
func applyAnimation(s *types.Settings, classKey string, raw any) {
	anim, ok := ParseAnimation(raw)
	if !ok {
		return
	}
	s.Set("_lovable_animation", raw)
	cur, _ := s.Get(classKey)
	cls, _ := cur.(string)
	s.Set(classKey, joinClasses(cls, AnimateClass))
	s.Set("_attributes", anim.CustomAttributes())
}

func toInt(v any) int {
	switch n := v.(type) {
	case float64:
		return int(math.Round(n))
	case int:
		return n
	case string:
		i, _ := strconv.Atoi(strings.TrimSpace(n))
		return i
	default:
		return 0
	}
}

// joinClasses joins class lists, dropping blanks and repeats.
func joinClasses(lists ...string) string {
	seen := make(map[string]bool)
	var out []string
	for _, l := range lists {
		for _, c := range strings.Fields(l) {
			if seen[c] {
				continue
			}
			seen[c] = true
			out = append(out, c)
		}
	}
	return strings.Join(out, " ")
}
