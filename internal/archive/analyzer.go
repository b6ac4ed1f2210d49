// Package archive turns an uploaded project archive into a ProjectModel.
package archive

import (
	"errors"
	"fmt"
	"os"
	"path"
	"slices"
	"strings"

	"l2wp/internal/apperr"
	"l2wp/internal/safeio"
	"l2wp/internal/scan"
	"l2wp/internal/types"
	"l2wp/internal/util/jsonutil"
)

const (
	manifestFile    = "package.json"
	descriptionFile = "project-structure.json"
	defaultName     = "Lovable Project"
)

var (
	pageExts  = []string{"tsx", "jsx"}
	imageExts = []string{"jpg", "jpeg", "png", "gif", "svg", "webp"}
	fontExts  = []string{"woff", "woff2", "ttf", "otf", "eot"}

	assetDirs       = []string{"public", "src/assets"}
	stylesheetFiles = []string{"src/index.css", "src/App.css"}

	buildMarkers = []struct {
		file string
		tool types.BuildTool
	}{
		{"vite.config.ts", types.BuildVite},
		{"vite.config.js", types.BuildVite},
		{"webpack.config.js", types.BuildWebpack},
		{"next.config.js", types.BuildNext},
	}
)

// Analyzer extracts archives into per-call workspaces.
type Analyzer struct {
	// TempDir is the parent of every workspace; empty means os.TempDir().
	TempDir string
	// MaxExtractBytes caps the uncompressed archive size.
	MaxExtractBytes int64
}

// Analysis is the result of one Analyze call. The caller owns the
// workspace and must call Cleanup once the extracted tree is no longer
// needed.
type Analysis struct {
	Model     types.ProjectModel `json:"model"`
	Warnings  []string           `json:"warnings,omitempty"`
	Workspace *Workspace         `json:"-"`
	// Project is the project root inside the workspace; it differs from the
	// workspace root for wrapped archives.
	Project *safeio.SafeFS `json:"-"`
}

func (a *Analysis) Cleanup() error {
	if a == nil {
		return nil
	}
	return a.Workspace.Cleanup()
}

// Analyze extracts archivePath and recovers the project model.
func (an *Analyzer) Analyze(archivePath string) (*Analysis, error) {
	const op = "analyze"
	if _, err := os.Stat(archivePath); err != nil {
		return nil, apperr.FileNotFound(op, archivePath)
	}
	ws, err := NewWorkspace(an.TempDir)
	if err != nil {
		return nil, err
	}
	res, err := an.analyzeInto(ws, archivePath)
	if err != nil {
		_ = ws.Cleanup()
		return nil, err
	}
	return res, nil
}

func (an *Analyzer) analyzeInto(ws *Workspace, archivePath string) (*Analysis, error) {
	const op = "analyze"
	warnings, err := Extract(archivePath, ws.FS(), an.MaxExtractBytes)
	if err != nil {
		return nil, err
	}
	project, err := projectRoot(ws.FS())
	if err != nil {
		return nil, err
	}
	if !hasProjectFiles(project) {
		return nil, apperr.Validation(op, "Unrecognized project layout: no package.json, src/ or index.html found", manifestFile, "src/", "index.html")
	}

	model := types.ProjectModel{
		Build: types.BuildMetadata{Tool: detectBuildTool(project)},
	}
	if model.Pages, err = collectSources(project, "src/pages", 1); err != nil {
		return nil, fmt.Errorf("%s: pages: %w", op, err)
	}
	if model.Components, err = collectSources(project, "src/components", 0); err != nil {
		return nil, fmt.Errorf("%s: components: %w", op, err)
	}
	if model.Dependencies, err = readManifest(project); err != nil {
		return nil, err
	}
	if model.Metadata, err = readDescription(project); err != nil {
		return nil, err
	}
	model.DesignTokens = model.Metadata.Design
	model.Name = firstNonEmpty(model.Metadata.Name, model.Dependencies.Name, defaultName)
	model.Description = model.Metadata.Description
	if model.Assets, err = collectAssets(project); err != nil {
		return nil, fmt.Errorf("%s: assets: %w", op, err)
	}
	return &Analysis{Model: model, Warnings: warnings, Workspace: ws, Project: project}, nil
}

// projectRoot descends once into a lone top-level directory when the
// extraction root itself holds no project files.
func projectRoot(root *safeio.SafeFS) (*safeio.SafeFS, error) {
	if hasProjectFiles(root) {
		return root, nil
	}
	entries, err := root.SafeReadDir(".")
	if err != nil {
		return nil, apperr.Extraction("analyze", err)
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() && !slices.Contains(scan.DefaultIgnoreDirs, e.Name()) {
			dirs = append(dirs, e.Name())
		}
	}
	if len(dirs) != 1 {
		return root, nil
	}
	return root.Sub(dirs[0])
}

func hasProjectFiles(fsys *safeio.SafeFS) bool {
	return fsys.Exists(manifestFile) || fsys.IsDir("src") || fsys.Exists("index.html")
}

func detectBuildTool(fsys *safeio.SafeFS) types.BuildTool {
	for _, m := range buildMarkers {
		if fsys.Exists(m.file) {
			return m.tool
		}
	}
	return types.BuildUnknown
}

// collectSources reads .tsx/.jsx files below dir. maxDepth 1 keeps to direct
// children; 0 recurses.
func collectSources(fsys *safeio.SafeFS, dir string, maxDepth int) ([]types.SourceFile, error) {
	out := []types.SourceFile{}
	err := scan.Walk(fsys, dir, scan.Options{MaxDepth: maxDepth, FilesOnly: true}, func(f scan.FileVisit) error {
		if !slices.Contains(pageExts, f.Ext) {
			return nil
		}
		content, err := fsys.SafeReadFile(f.Path)
		if err != nil {
			return err
		}
		out = append(out, types.SourceFile{
			Name:    strings.TrimSuffix(f.Name, path.Ext(f.Name)),
			File:    f.Name,
			Path:    f.Path,
			Content: string(content),
			Size:    int64(len(content)),
		})
		return nil
	})
	return out, err
}

type packageJSON struct {
	Name            string                 `json:"name"`
	Version         string                 `json:"version"`
	Dependencies    *types.Ordered[string] `json:"dependencies"`
	DevDependencies *types.Ordered[string] `json:"devDependencies"`
}

// readManifest returns an empty manifest when package.json is absent.
func readManifest(fsys *safeio.SafeFS) (types.DependencyManifest, error) {
	m := types.DependencyManifest{
		Runtime: types.NewOrdered[string](),
		Dev:     types.NewOrdered[string](),
	}
	raw, err := fsys.SafeReadFile(manifestFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return m, nil
		}
		return m, fmt.Errorf("read %s: %w", manifestFile, err)
	}
	var pkg packageJSON
	if err := jsonutil.Decode("read "+manifestFile, raw, &pkg); err != nil {
		return m, err
	}
	m.Name, m.Version = pkg.Name, pkg.Version
	if pkg.Dependencies != nil {
		m.Runtime = pkg.Dependencies
	}
	if pkg.DevDependencies != nil {
		m.Dev = pkg.DevDependencies
	}
	return m, nil
}

type descriptionJSON struct {
	Project *types.ProjectMetadata `json:"proyecto"`
}

// readDescription returns zero metadata when the description file is absent
// or carries no project node.
func readDescription(fsys *safeio.SafeFS) (types.ProjectMetadata, error) {
	raw, err := fsys.SafeReadFile(descriptionFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return types.ProjectMetadata{}, nil
		}
		return types.ProjectMetadata{}, fmt.Errorf("read %s: %w", descriptionFile, err)
	}
	var desc descriptionJSON
	if err := jsonutil.Decode("read "+descriptionFile, raw, &desc); err != nil {
		return types.ProjectMetadata{}, err
	}
	if desc.Project == nil {
		return types.ProjectMetadata{}, nil
	}
	return *desc.Project, nil
}

func collectAssets(fsys *safeio.SafeFS) (types.AssetInventory, error) {
	inv := types.AssetInventory{Images: []types.Asset{}, Fonts: []types.Asset{}, Stylesheets: []types.Asset{}}
	for _, dir := range assetDirs {
		err := scan.Walk(fsys, dir, scan.Options{FilesOnly: true}, func(f scan.FileVisit) error {
			asset := types.Asset{Name: f.Name, Path: f.Path, Size: f.Size, Type: f.Ext}
			switch {
			case slices.Contains(imageExts, f.Ext):
				asset.Kind = types.AssetImage
				inv.Images = append(inv.Images, asset)
			case slices.Contains(fontExts, f.Ext):
				asset.Kind = types.AssetFont
				inv.Fonts = append(inv.Fonts, asset)
			}
			return nil
		})
		if err != nil {
			return inv, err
		}
	}
	for _, p := range stylesheetFiles {
		content, err := fsys.SafeReadFile(p)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return inv, err
		}
		inv.Stylesheets = append(inv.Stylesheets, types.Asset{
			Name:    path.Base(p),
			Path:    p,
			Size:    int64(len(content)),
			Type:    "css",
			Kind:    types.AssetStylesheet,
			Content: string(content),
		})
	}
	return inv, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
