// Package converter composes the conversion pipeline behind the gateway
// surfaces: upload analysis, detection, recommendations, import, design
// export and placeholder rendering.
package converter

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"l2wp/internal/apperr"
	"l2wp/internal/archive"
	"l2wp/internal/cache/session"
	"l2wp/internal/detector"
	"l2wp/internal/fields"
	"l2wp/internal/importer"
	"l2wp/internal/placeholder"
	"l2wp/internal/recommender"
	"l2wp/internal/style"
	"l2wp/internal/translator"
	"l2wp/internal/types"
	"l2wp/internal/util/jsonutil"
)

type Deps struct {
	Analyzer    *archive.Analyzer
	Validator   *archive.Validator
	Sessions    *session.Cache
	Detector    *detector.Detector
	Recommender *recommender.Recommender
	Translator  *translator.Translator
	Exporter    *translator.Exporter
	Importer    *importer.Service
	Resolver    *placeholder.Resolver
	Fields      *fields.Set
}

type Service struct {
	d Deps
}

func New(d Deps) *Service {
	if d.Analyzer == nil {
		d.Analyzer = &archive.Analyzer{}
	}
	if d.Validator == nil {
		d.Validator = archive.NewValidator(0)
	}
	if d.Sessions == nil {
		d.Sessions = session.New(0, 0)
	}
	if d.Translator == nil {
		d.Translator = translator.New()
	}
	if d.Fields == nil {
		d.Fields = fields.NewSet()
	}
	return &Service{d: d}
}

// Upload is an archive received from a client.
type Upload struct {
	User string
	Name string
	Size int64
	Body io.Reader
}

// AnalyzeResult is what a client sees after uploading.
type AnalyzeResult struct {
	Model      types.ProjectModel     `json:"model"`
	Warnings   []string               `json:"warnings"`
	Detections types.DetectionSummary `json:"detections"`
	Style      StyleView              `json:"style"`
}

type StyleView struct {
	Palette []types.PaletteEntry `json:"palette"`
	Fonts   []types.Font         `json:"fonts"`
}

// Analyze validates and analyses an upload, then keeps the analysis for
// the user until import, replacement or expiry.
func (s *Service) Analyze(ctx context.Context, up Upload) (*AnalyzeResult, error) {
	const op = "analyze upload"
	tmp, err := s.spool(up)
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmp)

	report, err := s.d.Validator.Validate(up.Name, tmp)
	if err != nil {
		return nil, err
	}
	analysis, err := s.d.Analyzer.Analyze(tmp)
	if err != nil {
		return nil, err
	}
	analysis.Warnings = append(report.Warnings, analysis.Warnings...)
	s.d.Sessions.Put(up.User, analysis)
	log.Printf("%s: %s analysed for %s (%d pages)", op, up.Name, sessionUser(up.User), len(analysis.Model.Pages))
	return s.describe(ctx, analysis), nil
}

// AnalyzeFile analyses an archive already on disk without validation
// against upload rules. Used by the RPC surface and the CLI.
func (s *Service) AnalyzeFile(ctx context.Context, user, path string) (*AnalyzeResult, error) {
	analysis, err := s.d.Analyzer.Analyze(path)
	if err != nil {
		return nil, err
	}
	s.d.Sessions.Put(user, analysis)
	return s.describe(ctx, analysis), nil
}

func (s *Service) describe(_ context.Context, a *archive.Analysis) *AnalyzeResult {
	data := style.Extract(a.Model)
	warnings := a.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	return &AnalyzeResult{
		Model:      a.Model,
		Warnings:   warnings,
		Detections: s.detect(a).Summary(),
		Style:      StyleView{Palette: style.Palette(data.Colors), Fonts: data.Fonts},
	}
}

// spool copies the upload to a temp file, enforcing the size cap while
// reading so oversized bodies never reach disk completely.
func (s *Service) spool(up Upload) (string, error) {
	const op = "analyze upload"
	if up.Body == nil {
		return "", apperr.Validation(op, "No file uploaded", "file")
	}
	limit := s.d.Validator.MaxBytes
	if up.Size > limit {
		return "", s.d.Validator.ValidateUpload(up.Name, up.Size, nil)
	}
	dir := s.d.Analyzer.TempDir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	token, err := gonanoid.Generate("0123456789abcdefghijklmnopqrstuvwxyz", 12)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	p := filepath.Join(dir, "upload-"+token+".zip")
	f, err := os.OpenFile(p, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	n, err := io.Copy(f, io.LimitReader(up.Body, limit+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(p)
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if n > limit {
		_ = os.Remove(p)
		return "", s.d.Validator.ValidateUpload(up.Name, n, nil)
	}
	return p, nil
}

func (s *Service) analysis(user string) (*archive.Analysis, error) {
	a, ok := s.d.Sessions.Get(user)
	if !ok {
		return nil, apperr.NotFound("load analysis", "analysis", sessionUser(user))
	}
	return a, nil
}

func (s *Service) detect(a *archive.Analysis) *detector.Result {
	if s.d.Detector == nil {
		return detector.New(nil).Detect(a.Model)
	}
	return s.d.Detector.Detect(a.Model)
}

// DetectionView is one detection with the ranked candidates and the
// preferred choice.
type DetectionView struct {
	types.Detection
	Preferred string `json:"preferred,omitempty"`
}

type DetectResult struct {
	Detections []DetectionView         `json:"detections"`
	Stats      types.InstallationStats `json:"stats"`
	ProActive  bool                    `json:"pro_active"`
}

// Detect runs detection over the user's current analysis.
func (s *Service) Detect(ctx context.Context, user string) (*DetectResult, error) {
	a, err := s.analysis(user)
	if err != nil {
		return nil, err
	}
	res := s.detect(a)
	out := &DetectResult{Detections: make([]DetectionView, 0, res.Len())}
	for _, key := range res.Keys() {
		det, _ := res.Lookup(key)
		view := DetectionView{Detection: det}
		if s.d.Recommender != nil {
			view.Solutions = s.d.Recommender.Solutions(ctx, key)
			if p := s.d.Recommender.Preferred(ctx, key); p != nil {
				view.Preferred = p.Slug
			}
		}
		out.Detections = append(out.Detections, view)
	}
	if s.d.Recommender != nil {
		out.Stats = s.d.Recommender.InstallationStats(ctx, res.Keys())
		out.ProActive = s.d.Recommender.Environment().ProActive
	} else {
		out.Stats = types.InstallationStats{TotalFunctionalities: res.Len()}
	}
	return out, nil
}

// Solutions lists the ranked candidates for one functionality key.
func (s *Service) Solutions(ctx context.Context, key string) []types.SolutionCandidate {
	if s.d.Recommender == nil {
		return []types.SolutionCandidate{}
	}
	return s.d.Recommender.Solutions(ctx, strings.TrimSpace(key))
}

// Style returns the extracted style data of the user's analysis.
func (s *Service) Style(user string) (types.StyleData, error) {
	a, err := s.analysis(user)
	if err != nil {
		return types.StyleData{}, err
	}
	return style.Extract(a.Model), nil
}

// Translate converts every page of the user's analysis without storing
// anything.
func (s *Service) Translate(user string) ([]types.DocumentTree, error) {
	a, err := s.analysis(user)
	if err != nil {
		return nil, err
	}
	out := make([]types.DocumentTree, 0, len(a.Model.Pages))
	for _, p := range a.Model.Pages {
		out = append(out, s.d.Translator.Page(p))
	}
	return out, nil
}

type ImportOptions struct {
	Choices             map[string]string `json:"plugin_choice"`
	InstallPlugins      bool              `json:"install_plugins"`
	ImportAssets        bool              `json:"import_assets"`
	ApplyCSS            bool              `json:"apply_css"`
	RememberPreferences bool              `json:"remember_preferences"`
}

// Import consumes the user's analysis. The analysis is dropped whatever
// the outcome.
func (s *Service) Import(ctx context.Context, user string, opts ImportOptions, progress func(importer.Event)) (*importer.Result, error) {
	if s.d.Importer == nil {
		return nil, apperr.Collaborator("import", fmt.Errorf("importer is not configured"))
	}
	a, err := s.analysis(user)
	if err != nil {
		return nil, err
	}
	defer s.d.Sessions.Remove(user)
	return s.d.Importer.Import(ctx, importer.Request{
		Analysis:            a,
		Choices:             opts.Choices,
		InstallPlugins:      opts.InstallPlugins,
		ImportAssets:        opts.ImportAssets,
		ApplyCSS:            opts.ApplyCSS,
		RememberPreferences: opts.RememberPreferences,
		Progress:            progress,
	})
}

func (s *Service) exporter() (*translator.Exporter, error) {
	if s.d.Exporter == nil {
		return nil, apperr.Collaborator("export", fmt.Errorf("document store is not configured"))
	}
	return s.d.Exporter, nil
}

func (s *Service) Export(ctx context.Context, data []byte) (translator.ExportResult, error) {
	e, err := s.exporter()
	if err != nil {
		return translator.ExportResult{}, err
	}
	return e.Export(ctx, data)
}

func (s *Service) ListExports(ctx context.Context) ([]types.Document, error) {
	e, err := s.exporter()
	if err != nil {
		return nil, err
	}
	return e.List(ctx)
}

func (s *Service) Untag(ctx context.Context, id string) error {
	e, err := s.exporter()
	if err != nil {
		return err
	}
	return e.Untag(ctx, strings.TrimSpace(id))
}

// Rendered is placeholder output. Errors lists provider failures whose
// tokens were left in place.
type Rendered struct {
	Text   string   `json:"text"`
	Errors []string `json:"errors,omitempty"`
}

// Resolve renders placeholders in text. It never fails; a broken context
// source or provider keeps the affected tokens.
func (s *Service) Resolve(ctx context.Context, text, contextID string) Rendered {
	if s.d.Resolver == nil {
		return Rendered{Text: text}
	}
	out, err := s.d.Resolver.Resolve(ctx, text, contextID)
	r := Rendered{Text: out}
	if err != nil {
		for _, e := range unjoin(err) {
			r.Errors = append(r.Errors, e.Error())
		}
	}
	return r
}

// RenderedDocument is a stored document with its placeholders resolved.
type RenderedDocument struct {
	Document types.Document `json:"document"`
	Errors   []string       `json:"errors,omitempty"`
}

// RenderDocument resolves the placeholders of a stored document against a
// context. The serialized body is resolved first, then the settings of every
// widget, so field values that carry tokens of their own are filled too. The
// stored document is not changed.
func (s *Service) RenderDocument(ctx context.Context, docID, contextID string) (*RenderedDocument, error) {
	const op = "render document"
	e, err := s.exporter()
	if err != nil {
		return nil, err
	}
	doc, err := e.Get(ctx, strings.TrimSpace(docID))
	if err != nil {
		return nil, err
	}
	out := &RenderedDocument{Document: doc}
	if s.d.Resolver == nil {
		return out, nil
	}
	contextID = strings.TrimSpace(contextID)

	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, unjoin(err)...)
		}
	}

	body, err := jsonutil.MarshalNoEscape(doc.Content)
	if err != nil {
		return nil, apperr.Collaborator(op, err)
	}
	body, rerr := s.d.Resolver.ResolveJSON(ctx, body, contextID)
	collect(rerr)
	var content []*types.DocumentNode
	if err := jsonutil.Decode(op, body, &content); err != nil {
		return nil, err
	}
	title, rerr := s.d.Resolver.Resolve(ctx, doc.Title, contextID)
	collect(rerr)

	widgets := 0
	for _, sec := range content {
		sec.Walk(func(node, _ *types.DocumentNode) {
			if node.Kind != types.KindWidget {
				return
			}
			widgets++
			for _, k := range node.Settings.Keys() {
				v, _ := node.Settings.Get(k)
				node.Settings.Set(k, s.resolveSetting(ctx, v, contextID, collect))
			}
		})
	}

	out.Document.Title = title
	out.Document.Content = content
	for _, err := range errs {
		out.Errors = append(out.Errors, err.Error())
	}
	log.Printf("%s: %s against context %q (%d widgets, %d errors)", op, doc.ID, contextID, widgets, len(errs))
	return out, nil
}

// resolveSetting resolves the strings of one widget setting, descending into
// nested objects and lists.
func (s *Service) resolveSetting(ctx context.Context, v any, contextID string, collect func(error)) any {
	switch x := v.(type) {
	case string:
		text, err := s.d.Resolver.Resolve(ctx, x, contextID)
		collect(err)
		return text
	case map[string]any:
		for k, e := range x {
			x[k] = s.resolveSetting(ctx, e, contextID, collect)
		}
		return x
	case []any:
		for i, e := range x {
			x[i] = s.resolveSetting(ctx, e, contextID, collect)
		}
		return x
	default:
		return v
	}
}

func unjoin(err error) []error {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return j.Unwrap()
	}
	return []error{err}
}

// Fields lists the custom fields available for a content type.
func (s *Service) Fields(ctx context.Context, contentType string) ([]types.FieldDef, error) {
	return s.d.Fields.ListFields(ctx, strings.TrimSpace(contentType))
}

// PlaceholderWidget builds a dynamic widget for one placeholder token.
func (s *Service) PlaceholderWidget(ctx context.Context, token, contentType string) (*types.DocumentNode, error) {
	return s.d.Translator.PlaceholderWidget(ctx, token, contentType, s.d.Fields)
}

// Preferences exposes the saved plugin choices.
func (s *Service) Preferences(ctx context.Context) map[string]string {
	if s.d.Recommender == nil {
		return map[string]string{}
	}
	return s.d.Recommender.Preferences(ctx)
}

func (s *Service) ClearPreferences(ctx context.Context) error {
	if s.d.Recommender == nil {
		return nil
	}
	return s.d.Recommender.ClearPreferences(ctx)
}

// Close drops every cached analysis.
func (s *Service) Close() {
	s.d.Sessions.Close()
}

func sessionUser(user string) string {
	if strings.TrimSpace(user) == "" {
		return "anonymous"
	}
	return strings.TrimSpace(user)
}
