// Package detector scans a project model for known functionality
// signatures.
package detector

import (
	"strings"
	"unicode/utf8"

	"l2wp/internal/signature"
	"l2wp/internal/types"
)

const (
	contextRadius = 100
	contextMax    = 200
)

// Detector is stateless; one instance can serve concurrent callers.
type Detector struct {
	table *signature.Table
}

// New accepts a nil table and then detects nothing.
func New(table *signature.Table) *Detector {
	if table == nil {
		table = signature.Empty()
	}
	return &Detector{table: table}
}

// Result holds detections keyed by functionality, in table order.
type Result struct {
	Detections *types.Ordered[types.Detection] `json:"detections"`
}

// Detect scans page and component content, then dependency names, for
// every pattern of every functionality. Only functionalities with at least
// one occurrence are returned.
func (d *Detector) Detect(model types.ProjectModel) *Result {
	files := make([]types.SourceFile, 0, len(model.Pages)+len(model.Components))
	files = append(files, model.Pages...)
	files = append(files, model.Components...)
	deps := model.Dependencies.Names()

	out := types.NewOrdered[types.Detection]()
	d.table.Each(func(key string, f types.Functionality) bool {
		if det, ok := detectOne(key, f, files, deps); ok {
			out.Set(key, det)
		}
		return true
	})
	return &Result{Detections: out}
}

func detectOne(key string, f types.Functionality, files []types.SourceFile, deps []string) (types.Detection, bool) {
	var occ []types.Occurrence
	for _, file := range files {
		lower := strings.ToLower(file.Content)
		for _, p := range f.Patterns {
			pos := strings.Index(lower, strings.ToLower(p))
			if pos < 0 {
				continue
			}
			occ = append(occ, types.Occurrence{
				File:    firstNonEmpty(file.Name, file.File),
				Pattern: p,
				Context: Context(file.Content, lower, pos),
			})
		}
	}
	for _, dep := range deps {
		lower := strings.ToLower(dep)
		for _, p := range f.Patterns {
			if strings.Contains(lower, strings.ToLower(p)) {
				occ = append(occ, types.Occurrence{Dependency: dep, Pattern: p})
			}
		}
	}
	if len(occ) == 0 {
		return types.Detection{}, false
	}
	solutions := f.Solutions
	if solutions == nil {
		solutions = []types.SolutionCandidate{}
	}
	return types.Detection{
		Key:         key,
		Name:        f.Name,
		Count:       len(occ),
		Occurrences: occ,
		Solutions:   solutions,
	}, true
}

// Context returns up to 200 characters starting 100 characters before the
// match. lower is strings.ToLower(content) and pos a byte offset into it.
func Context(content, lower string, pos int) string {
	// ToLower maps rune to rune, so rune offsets agree between the two.
	start := utf8.RuneCountInString(lower[:pos]) - contextRadius
	start = max(start, 0)
	runes := []rune(content)
	end := min(start+contextMax, len(runes))
	ctx := strings.TrimSpace(string(runes[start:end]))
	if utf8.RuneCountInString(ctx) > contextMax {
		ctx = string([]rune(ctx)[:contextMax-3]) + "..."
	}
	return ctx
}

// Lookup returns the detection for key.
func (r *Result) Lookup(key string) (types.Detection, bool) {
	if r == nil {
		return types.Detection{}, false
	}
	return r.Detections.Get(key)
}

func (r *Result) Keys() []string {
	if r == nil {
		return nil
	}
	return r.Detections.Keys()
}

func (r *Result) Len() int {
	if r == nil {
		return 0
	}
	return r.Detections.Len()
}

// Summary projects the result onto counts per functionality.
func (r *Result) Summary() types.DetectionSummary {
	s := types.DetectionSummary{Functionalities: []types.FunctionalitySummary{}}
	if r == nil {
		return s
	}
	r.Detections.Each(func(key string, det types.Detection) bool {
		s.Functionalities = append(s.Functionalities, types.FunctionalitySummary{
			Key:                key,
			Name:               det.Name,
			Count:              det.Count,
			SolutionsAvailable: len(det.Solutions),
		})
		return true
	})
	s.Total = len(s.Functionalities)
	return s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
