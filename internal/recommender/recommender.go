// Package recommender ranks substitute components for detected
// functionalities.
package recommender

import (
	"context"
	"fmt"
	"log"
	"slices"
	"sort"
	"strings"

	"l2wp/internal/apperr"
	"l2wp/internal/registry"
	"l2wp/internal/signature"
	"l2wp/internal/types"
)

const (
	SlugBuilder    = "elementor"
	SlugBuilderPro = "elementor-pro"
	SlugCustomHTML = "custom_html"
	SlugCustomAnim = "custom_animations"

	genericConversion = "generic_conversion"
)

// alwaysPresent never need installing or activating.
var alwaysPresent = []string{SlugBuilder, SlugCustomHTML, SlugCustomAnim}

// Environment describes the pro tier of the host builder.
type Environment struct {
	ProInstalled bool
	ProActive    bool
}

// FilterTable decides which candidates survive when the pro tier is
// active. Replaces lists functionalities the pro tier fully covers;
// Supplements lists functionalities it covers partially, with the extra
// slugs to keep.
type FilterTable struct {
	Replaces    []string            `mapstructure:"replaces"`
	Supplements map[string][]string `mapstructure:"supplements"`
}

func DefaultFilterTable() FilterTable {
	return FilterTable{
		Replaces: []string{"popup_modal"},
		Supplements: map[string][]string{
			"animations": {"insert-headers-and-footers", SlugCustomAnim},
		},
	}
}

// PreferenceStore persists the functionality key -> slug choices.
type PreferenceStore interface {
	Load(ctx context.Context) (map[string]string, error)
	Save(ctx context.Context, prefs map[string]string) error
	Clear(ctx context.Context) error
}

type Recommender struct {
	table    *signature.Table
	registry registry.Registry
	prefs    PreferenceStore
	env      Environment
	filter   FilterTable
}

type Option func(*Recommender)

func WithEnvironment(env Environment) Option { return func(r *Recommender) { r.env = env } }
func WithFilterTable(f FilterTable) Option   { return func(r *Recommender) { r.filter = f } }
func WithPreferences(p PreferenceStore) Option {
	return func(r *Recommender) { r.prefs = p }
}

func New(table *signature.Table, reg registry.Registry, opts ...Option) *Recommender {
	if table == nil {
		table = signature.Empty()
	}
	r := &Recommender{table: table, registry: reg, filter: DefaultFilterTable()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Solutions returns the candidates for key with installed/active flags set,
// filtered for the pro tier and sorted. Unknown keys give an empty list.
func (r *Recommender) Solutions(ctx context.Context, key string) []types.SolutionCandidate {
	f, ok := r.table.Lookup(key)
	if !ok {
		return []types.SolutionCandidate{}
	}
	solutions := r.filterByCapabilities(key, slices.Clone(f.Solutions))
	if solutions == nil {
		return []types.SolutionCandidate{}
	}
	plugins := r.plugins(ctx)
	for i := range solutions {
		solutions[i].Installed, solutions[i].Active = r.status(plugins, solutions[i].Slug)
	}
	sortCandidates(solutions, r.env.ProActive)
	return solutions
}

func (r *Recommender) plugins(ctx context.Context) []registry.Plugin {
	if r.registry == nil {
		return nil
	}
	plugins, err := r.registry.Plugins(ctx)
	if err != nil {
		log.Printf("recommender: list plugins: %v", err)
		return nil
	}
	return plugins
}

func (r *Recommender) status(plugins []registry.Plugin, slug string) (installed, active bool) {
	switch {
	case slices.Contains(alwaysPresent, slug):
		return true, true
	case slug == SlugBuilderPro:
		return r.env.ProInstalled || r.env.ProActive, r.env.ProActive
	}
	p, ok := registry.Find(plugins, slug)
	return ok, ok && p.Active
}

func (r *Recommender) filterByCapabilities(key string, solutions []types.SolutionCandidate) []types.SolutionCandidate {
	if !r.env.ProActive {
		return solutions
	}
	if slices.Contains(r.filter.Replaces, key) {
		if kept := keep(solutions, nil); len(kept) > 0 {
			return kept
		}
	}
	if allowed, ok := r.filter.Supplements[key]; ok {
		if kept := keep(solutions, allowed); len(kept) > 0 {
			return kept
		}
	}
	return solutions
}

func keep(solutions []types.SolutionCandidate, allowed []string) []types.SolutionCandidate {
	var out []types.SolutionCandidate
	for _, s := range solutions {
		if isBuilderNative(s) || slices.Contains(allowed, s.Slug) {
			out = append(out, s)
		}
	}
	return out
}

func isBuilderNative(s types.SolutionCandidate) bool {
	return s.Slug == SlugBuilderPro || s.Slug == SlugBuilder ||
		(s.Type == types.CapabilityNative && strings.Contains(s.Slug, SlugBuilder))
}

// sortCandidates orders by active, installed, pro-tier slug (only when the
// pro tier is active) and compatibility, keeping input order on ties.
func sortCandidates(s []types.SolutionCandidate, proActive bool) {
	sort.SliceStable(s, func(i, j int) bool {
		a, b := s[i], s[j]
		if a.Active != b.Active {
			return a.Active
		}
		if a.Installed != b.Installed {
			return a.Installed
		}
		if proActive {
			aPro, bPro := a.Slug == SlugBuilderPro, b.Slug == SlugBuilderPro
			if aPro != bPro {
				return aPro
			}
		}
		return a.Compatibility > b.Compatibility
	})
}

// Preferred returns the saved choice for key when it is still a candidate,
// otherwise the top candidate, or nil when there is none.
func (r *Recommender) Preferred(ctx context.Context, key string) *types.SolutionCandidate {
	solutions := r.Solutions(ctx, key)
	if slug, ok := r.Preferences(ctx)[key]; ok {
		for i := range solutions {
			if solutions[i].Slug == slug {
				return &solutions[i]
			}
		}
	}
	if len(solutions) == 0 {
		return nil
	}
	return &solutions[0]
}

// ConversionMethod names how content for slug is converted.
func (r *Recommender) ConversionMethod(ctx context.Context, key, slug string) string {
	for _, s := range r.Solutions(ctx, key) {
		if s.Slug == slug && s.ConversionMethod != "" {
			return s.ConversionMethod
		}
	}
	return genericConversion
}

// InstallationStats aggregates the preferred candidate of every key.
func (r *Recommender) InstallationStats(ctx context.Context, keys []string) types.InstallationStats {
	stats := types.InstallationStats{TotalFunctionalities: len(keys)}
	for _, key := range keys {
		p := r.Preferred(ctx, key)
		if p == nil {
			continue
		}
		if p.Type == types.CapabilityNative {
			stats.NativeSolutions++
			continue
		}
		stats.PluginsNeeded++
		if p.Installed {
			stats.PluginsInstalled++
		}
		if p.Active {
			stats.PluginsActive++
		}
	}
	return stats
}

// Install is a no-op for built-in and already installed slugs.
func (r *Recommender) Install(ctx context.Context, slug string) error {
	const op = "install plugin"
	if slices.Contains(alwaysPresent, slug) {
		return nil
	}
	if slug == SlugBuilderPro && (r.env.ProInstalled || r.env.ProActive) {
		return nil
	}
	if r.registry == nil {
		return apperr.Collaborator(op, fmt.Errorf("no plugin registry configured"))
	}
	_, ok, err := registry.Lookup(ctx, r.registry, slug)
	if err != nil {
		return apperr.Collaborator(op, err)
	}
	if ok {
		return nil
	}
	return apperr.Collaborator(op, r.registry.Install(ctx, slug))
}

// Activate is a no-op for built-in and already active slugs.
func (r *Recommender) Activate(ctx context.Context, slug string) error {
	const op = "activate plugin"
	if slices.Contains(alwaysPresent, slug) {
		return nil
	}
	if slug == SlugBuilderPro && r.env.ProActive {
		return nil
	}
	if r.registry == nil {
		return apperr.Collaborator(op, fmt.Errorf("no plugin registry configured"))
	}
	p, ok, err := registry.Lookup(ctx, r.registry, slug)
	if err != nil {
		return apperr.Collaborator(op, err)
	}
	if !ok {
		return apperr.NotFound(op, "plugin", slug)
	}
	if p.Active {
		return nil
	}
	return apperr.Collaborator(op, r.registry.Activate(ctx, p.Path))
}

// Preferences never fails; a broken store reads as no preferences.
func (r *Recommender) Preferences(ctx context.Context) map[string]string {
	if r.prefs == nil {
		return map[string]string{}
	}
	prefs, err := r.prefs.Load(ctx)
	if err != nil {
		log.Printf("recommender: load preferences: %v", err)
		return map[string]string{}
	}
	if prefs == nil {
		prefs = map[string]string{}
	}
	return prefs
}

// SavePreferences replaces the stored choices.
func (r *Recommender) SavePreferences(ctx context.Context, prefs map[string]string) error {
	if r.prefs == nil {
		return apperr.Collaborator("save preferences", fmt.Errorf("no preference store configured"))
	}
	return apperr.Collaborator("save preferences", r.prefs.Save(ctx, prefs))
}

func (r *Recommender) ClearPreferences(ctx context.Context) error {
	if r.prefs == nil {
		return nil
	}
	return apperr.Collaborator("clear preferences", r.prefs.Clear(ctx))
}

// Environment reports the configured pro tier state.
func (r *Recommender) Environment() Environment { return r.env }
