package types

// CapabilityType tells whether a candidate ships with the builder or needs a
// separate component.
type CapabilityType string

const (
	CapabilityNative CapabilityType = "native"
	CapabilityPlugin CapabilityType = "plugin"
)

// SolutionCandidate is one substitute component for a functionality.
// Installed and Active are filled in at query time and never persisted.
type SolutionCandidate struct {
	Slug             string         `json:"slug" yaml:"slug"`
	Name             string         `json:"name" yaml:"name"`
	Provider         string         `json:"provider,omitempty" yaml:"provider,omitempty"`
	Type             CapabilityType `json:"type" yaml:"type"`
	Premium          bool           `json:"premium" yaml:"premium"`
	Compatibility    int            `json:"compatibility" yaml:"compatibility"`
	Features         []string       `json:"features,omitempty" yaml:"features,omitempty"`
	ConversionMethod string         `json:"conversion_method,omitempty" yaml:"conversion_method,omitempty"`

	Installed bool `json:"installed" yaml:"-"`
	Active    bool `json:"active" yaml:"-"`
}

// Functionality is one row of the signature table.
type Functionality struct {
	Name      string              `json:"name" yaml:"name"`
	Patterns  []string            `json:"detector_patterns" yaml:"detector_patterns"`
	Solutions []SolutionCandidate `json:"recommended_solutions" yaml:"recommended_solutions"`
}

// Occurrence is evidence for a detection. Exactly one of File or Dependency
// is set; dependency matches carry no context.
type Occurrence struct {
	File       string `json:"file,omitempty"`
	Dependency string `json:"dependency,omitempty"`
	Pattern    string `json:"pattern"`
	Context    string `json:"context,omitempty"`
}

// Detection exists only when Count > 0, and Count always equals
// len(Occurrences).
type Detection struct {
	Key         string              `json:"key"`
	Name        string              `json:"name"`
	Count       int                 `json:"count"`
	Occurrences []Occurrence        `json:"occurrences"`
	Solutions   []SolutionCandidate `json:"recommended_solutions"`
}

// DetectionSummary is a read projection over a detection set.
type DetectionSummary struct {
	Total           int                   `json:"total_functionalities"`
	Functionalities []FunctionalitySummary `json:"functionalities"`
}

type FunctionalitySummary struct {
	Key                string `json:"key"`
	Name               string `json:"name"`
	Count              int    `json:"count"`
	SolutionsAvailable int    `json:"solutions_available"`
}

// InstallationStats aggregates preferred solutions across detections.
type InstallationStats struct {
	TotalFunctionalities int `json:"total_functionalities"`
	PluginsNeeded        int `json:"plugins_needed"`
	PluginsInstalled     int `json:"plugins_installed"`
	PluginsActive        int `json:"plugins_active"`
	NativeSolutions      int `json:"native_solutions"`
}
