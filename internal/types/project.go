package types

// BuildTool is the bundler detected from the project root.
type BuildTool string

const (
	BuildVite    BuildTool = "vite"
	BuildWebpack BuildTool = "webpack"
	BuildNext    BuildTool = "next"
	BuildUnknown BuildTool = "unknown"
)

// ProjectModel is the structured result of analysing one uploaded archive.
type ProjectModel struct {
	Name         string             `json:"name"`
	Description  string             `json:"description"`
	Pages        []SourceFile       `json:"pages"`
	Components   []SourceFile       `json:"components"`
	Dependencies DependencyManifest `json:"dependencies"`
	Assets       AssetInventory     `json:"assets"`
	Build        BuildMetadata      `json:"build"`
	Metadata     ProjectMetadata    `json:"metadata"`
	// DesignTokens mirrors Metadata.Design; nil when the project has no
	// description file.
	DesignTokens map[string]any `json:"design_tokens,omitempty"`
}

// SourceFile is a page or component. Immutable once extracted.
type SourceFile struct {
	Name    string `json:"name"`
	File    string `json:"file"`
	Path    string `json:"path"`
	Content string `json:"content"`
	Size    int64  `json:"size"`
}

// DependencyManifest is the package manifest split into runtime and dev
// dependencies, both in manifest order.
type DependencyManifest struct {
	Name    string           `json:"name,omitempty"`
	Version string           `json:"version,omitempty"`
	Runtime *Ordered[string] `json:"dependencies"`
	Dev     *Ordered[string] `json:"devDependencies"`
}

// Names returns runtime then dev dependency names. A name present in both
// lists appears once, at its runtime position.
func (m DependencyManifest) Names() []string {
	seen := make(map[string]bool, m.Runtime.Len()+m.Dev.Len())
	out := make([]string, 0, m.Runtime.Len()+m.Dev.Len())
	for _, list := range []*Ordered[string]{m.Runtime, m.Dev} {
		for _, k := range list.Keys() {
			if seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}

// AssetKind classifies inventory entries.
type AssetKind string

const (
	AssetImage      AssetKind = "image"
	AssetFont       AssetKind = "font"
	AssetStylesheet AssetKind = "stylesheet"
)

// Asset is one inventory entry. Path is relative to the project root using
// forward slashes. Content is only populated for stylesheets.
type Asset struct {
	Name    string    `json:"name"`
	Path    string    `json:"path"`
	Size    int64     `json:"size"`
	Type    string    `json:"type"`
	Kind    AssetKind `json:"kind"`
	Content string    `json:"content,omitempty"`
}

type AssetInventory struct {
	Images      []Asset `json:"images"`
	Fonts       []Asset `json:"fonts"`
	Stylesheets []Asset `json:"stylesheets"`
}

// All returns images, fonts and stylesheets in that order.
func (a AssetInventory) All() []Asset {
	out := make([]Asset, 0, len(a.Images)+len(a.Fonts)+len(a.Stylesheets))
	out = append(out, a.Images...)
	out = append(out, a.Fonts...)
	out = append(out, a.Stylesheets...)
	return out
}

type BuildMetadata struct {
	Tool BuildTool `json:"tool"`
}

// ProjectMetadata comes from the optional project description file.
type ProjectMetadata struct {
	Name         string         `json:"nombre,omitempty"`
	Description  string         `json:"descripcion,omitempty"`
	Objective    string         `json:"objetivo,omitempty"`
	Audience     string         `json:"publico_objetivo,omitempty"`
	Technologies []string       `json:"tecnologias,omitempty"`
	Design       map[string]any `json:"diseño,omitempty"`
}
