// Package importer turns an analysed project into stored documents,
// installed plugins and published assets.
package importer

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"l2wp/internal/apperr"
	"l2wp/internal/archive"
	"l2wp/internal/recommender"
	"l2wp/internal/style"
	"l2wp/internal/translator"
	"l2wp/internal/types"
)

const (
	StatusSuccess = "success"
	StatusPartial = "partial"

	// SkipChoice leaves a functionality without a plugin.
	SkipChoice = "skip"

	// CSSName is the object name of the published builder stylesheet.
	CSSName = "lovable-builder.css"

	MetaImport     = "_lovable_import_id"
	MetaImportedAt = "_lovable_import_timestamp"
	MetaSelections = "_lovable_plugin_selections"
)

const importIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// Stages reported through progress events.
const (
	StagePreferences = "preferences"
	StagePlugins     = "plugins"
	StagePages       = "pages"
	StageAssets      = "assets"
	StageCSS         = "css"
	StageDone        = "done"
)

// AssetStore receives imported assets. media.Store satisfies it.
type AssetStore interface {
	Put(ctx context.Context, importID, name string, content []byte) error
	URL(ctx context.Context, importID, name string) (string, error)
}

// Event reports import progress.
type Event struct {
	ImportID string `json:"import_id"`
	Stage    string `json:"stage"`
	Message  string `json:"message"`
	Done     int    `json:"done"`
	Total    int    `json:"total"`
	Error    string `json:"error,omitempty"`
}

// Request selects what an import does. Choices maps functionality key to
// the chosen slug.
type Request struct {
	Analysis            *archive.Analysis
	Choices             map[string]string
	InstallPlugins      bool
	ImportAssets        bool
	ApplyCSS            bool
	RememberPreferences bool
	// Progress, when set, is called synchronously for every event.
	Progress func(Event)
}

// Result summarises one import. Per-item failures land in Errors; they
// never abort the batch.
type Result struct {
	ImportID         string   `json:"import_id"`
	Status           string   `json:"status"`
	CreatedPages     int      `json:"created_pages"`
	Documents        []string `json:"documents"`
	InstalledPlugins []string `json:"installed_plugins"`
	ImportedAssets   int      `json:"imported_assets"`
	CSSPublished     bool     `json:"css_published"`
	CSSURL           string   `json:"css_url,omitempty"`
	Errors           []string `json:"errors"`
}

type Service struct {
	rec    *recommender.Recommender
	t      *translator.Translator
	docs   translator.DocumentStore
	assets AssetStore
	now    func() time.Time
}

type Option func(*Service)

func WithTranslator(t *translator.Translator) Option { return func(s *Service) { s.t = t } }
func WithAssetStore(a AssetStore) Option             { return func(s *Service) { s.assets = a } }
func WithClock(now func() time.Time) Option          { return func(s *Service) { s.now = now } }

func New(rec *recommender.Recommender, docs translator.DocumentStore, opts ...Option) *Service {
	s := &Service{rec: rec, docs: docs, t: translator.New(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// run carries the state of one Import call.
type run struct {
	req      Request
	res      *Result
	progress func(Event)
}

func (r *run) emit(stage, msg string, done, total int, err error) {
	if r.progress == nil {
		return
	}
	ev := Event{ImportID: r.res.ImportID, Stage: stage, Message: msg, Done: done, Total: total}
	if err != nil {
		ev.Error = apperr.Public(err)
	}
	r.progress(ev)
}

func (r *run) fail(msg string) {
	r.res.Errors = append(r.res.Errors, msg)
}

// Import runs the whole import. Only a missing analysis or document store
// fails the call; everything else is collected into Result.Errors. The
// analysis workspace is removed before Import returns.
func (s *Service) Import(ctx context.Context, req Request) (*Result, error) {
	const op = "import"
	if req.Analysis == nil {
		return nil, apperr.Validation(op, "No analysis data found. Please upload your ZIP file again.", "analysis")
	}
	defer func() {
		if err := req.Analysis.Cleanup(); err != nil {
			log.Printf("import: cleanup workspace: %v", err)
		}
	}()
	if s.docs == nil {
		return nil, apperr.Collaborator(op, fmt.Errorf("no document store configured"))
	}
	id, err := gonanoid.Generate(importIDAlphabet, 12)
	if err != nil {
		return nil, fmt.Errorf("%s: import id: %w", op, err)
	}
	r := &run{
		req:      req,
		res:      &Result{ImportID: id, Documents: []string{}, InstalledPlugins: []string{}, Errors: []string{}},
		progress: req.Progress,
	}
	model := req.Analysis.Model

	if req.RememberPreferences && len(req.Choices) > 0 {
		s.savePreferences(ctx, r)
	}
	if req.InstallPlugins && len(req.Choices) > 0 {
		s.installPlugins(ctx, r)
	}

	var css string
	if req.ApplyCSS {
		css = style.BuilderCSS(style.Extract(model)) + translator.CriticalCSS
	}
	// Without an asset store the stylesheet travels in the page settings.
	inline := css != "" && s.assets == nil
	s.createPages(ctx, r, model.Pages, inline, css)

	if req.ImportAssets {
		s.importAssets(ctx, r, model.Assets)
	}
	if css != "" {
		s.publishCSS(ctx, r, css, inline)
	}

	r.res.Status = StatusSuccess
	if len(r.res.Errors) > 0 {
		r.res.Status = StatusPartial
	}
	log.Printf("import: %s finished %s: pages=%d plugins=%d assets=%d errors=%d",
		id, r.res.Status, r.res.CreatedPages, len(r.res.InstalledPlugins), r.res.ImportedAssets, len(r.res.Errors))
	r.emit(StageDone, r.res.Status, 1, 1, nil)
	return r.res, nil
}

func (s *Service) savePreferences(ctx context.Context, r *run) {
	if s.rec == nil {
		return
	}
	err := s.rec.SavePreferences(ctx, r.req.Choices)
	if err != nil {
		log.Printf("import: save preferences: %v", err)
		r.fail("Failed to save preferences: " + apperr.Public(err))
	}
	r.emit(StagePreferences, "preferences saved", 1, 1, err)
}

// installPlugins walks the choices in key order so runs are repeatable.
func (s *Service) installPlugins(ctx context.Context, r *run) {
	keys := make([]string, 0, len(r.req.Choices))
	for k, slug := range r.req.Choices {
		if slug = strings.TrimSpace(slug); slug != "" && slug != SkipChoice {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for i, k := range keys {
		slug := strings.TrimSpace(r.req.Choices[k])
		err := s.installOne(ctx, slug)
		if err != nil {
			log.Printf("import: plugin %s failed: %v", slug, err)
			r.fail(fmt.Sprintf("Failed to install %s: %s", slug, apperr.Public(err)))
		} else {
			r.res.InstalledPlugins = append(r.res.InstalledPlugins, slug)
		}
		r.emit(StagePlugins, slug, i+1, len(keys), err)
	}
}

func (s *Service) installOne(ctx context.Context, slug string) error {
	if s.rec == nil {
		return fmt.Errorf("no plugin registry configured")
	}
	if err := s.rec.Install(ctx, slug); err != nil {
		return err
	}
	return s.rec.Activate(ctx, slug)
}

func (s *Service) createPages(ctx context.Context, r *run, pages []types.SourceFile, inline bool, css string) {
	stamp := s.now().UTC().Format(time.RFC3339)
	for i, page := range pages {
		tree := s.t.Page(page)
		meta := translator.SourceMeta(tree.Type)
		meta[MetaImport] = r.res.ImportID
		meta[MetaImportedAt] = stamp
		if len(r.req.Choices) > 0 {
			meta[MetaSelections] = r.req.Choices
		}
		if inline {
			meta[translator.MetaPageSettings] = map[string]any{"custom_css": css}
		}
		id, err := s.docs.Create(ctx, types.Document{
			Title:   tree.Title,
			Type:    tree.Type,
			Version: tree.Version,
			Content: tree.Content,
			Meta:    meta,
		})
		if err != nil {
			log.Printf("import: page %s failed: %v", page.Name, err)
			r.fail(fmt.Sprintf("Failed to create page %s: %s", page.Name, err))
		} else {
			r.res.CreatedPages++
			r.res.Documents = append(r.res.Documents, id)
		}
		r.emit(StagePages, page.Name, i+1, len(pages), err)
	}
}

// importAssets copies images and fonts out of the workspace. Stylesheets
// are published as builder CSS instead.
func (s *Service) importAssets(ctx context.Context, r *run, inv types.AssetInventory) {
	assets := append(append([]types.Asset{}, inv.Images...), inv.Fonts...)
	if len(assets) == 0 {
		return
	}
	if s.assets == nil {
		r.fail("Failed to import assets: no media store configured")
		r.emit(StageAssets, "no media store configured", 0, len(assets), nil)
		return
	}
	for i, a := range assets {
		err := s.importAsset(ctx, r, a)
		if err != nil {
			log.Printf("import: asset %s failed: %v", a.Path, err)
			r.fail(fmt.Sprintf("Failed to import %s: %s", a.Name, err))
		} else {
			r.res.ImportedAssets++
		}
		r.emit(StageAssets, a.Path, i+1, len(assets), err)
	}
}

func (s *Service) importAsset(ctx context.Context, r *run, a types.Asset) error {
	if r.req.Analysis.Project == nil {
		return fmt.Errorf("workspace is gone")
	}
	content, err := r.req.Analysis.Project.SafeReadFile(a.Path)
	if err != nil {
		return err
	}
	return s.assets.Put(ctx, r.res.ImportID, a.Path, content)
}

func (s *Service) publishCSS(ctx context.Context, r *run, css string, inline bool) {
	if inline {
		r.res.CSSPublished = r.res.CreatedPages > 0
		r.emit(StageCSS, "stylesheet stored in page settings", 1, 1, nil)
		return
	}
	err := s.assets.Put(ctx, r.res.ImportID, CSSName, []byte(css))
	if err == nil {
		r.res.CSSPublished = true
		r.res.CSSURL, err = s.assets.URL(ctx, r.res.ImportID, CSSName)
	}
	if err != nil {
		log.Printf("import: publish css: %v", err)
		r.fail("Failed to publish CSS: " + err.Error())
	}
	r.emit(StageCSS, CSSName, 1, 1, err)
}
