// Package signature loads the functionality signature table shared by the
// detector and the recommender.
package signature

import (
	_ "embed"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"l2wp/internal/apperr"
	"l2wp/internal/types"
	"l2wp/internal/util/jsonutil"
)

//go:embed default.yaml
var defaultTable []byte

// Table maps functionality keys to patterns and candidates, in file order.
type Table struct {
	Version  string                               `json:"version,omitempty" yaml:"version,omitempty"`
	Mappings *types.Ordered[types.Functionality] `json:"functionality_mappings" yaml:"functionality_mappings"`
}

// Empty is the degraded table used when no signature file is available.
func Empty() *Table {
	return &Table{Mappings: types.NewOrdered[types.Functionality]()}
}

// Default parses the packaged table.
func Default() (*Table, error) {
	return Parse(defaultTable, "yaml")
}

// Load reads path. An empty path selects the packaged table; a path that
// does not exist yields an empty table.
func Load(path string) (*Table, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Printf("signature: %s not found, detection disabled", path)
			return Empty(), nil
		}
		return nil, fmt.Errorf("read signature table: %w", err)
	}
	format := "yaml"
	if strings.EqualFold(filepath.Ext(path), ".json") {
		format = "json"
	}
	return Parse(data, format)
}

// Parse decodes a table in "json" or "yaml" form and validates it.
func Parse(data []byte, format string) (*Table, error) {
	const op = "parse signature table"
	t := &Table{}
	switch format {
	case "json":
		if err := jsonutil.Decode(op, data, t); err != nil {
			return nil, err
		}
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, t); err != nil {
			return nil, apperr.Validation(op, fmt.Sprintf("invalid signature table: %v", err))
		}
	default:
		return nil, fmt.Errorf("%s: unsupported format %q", op, format)
	}
	if t.Mappings == nil {
		t.Mappings = types.NewOrdered[types.Functionality]()
	}
	if err := t.validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Table) validate() error {
	var bad []string
	t.Mappings.Each(func(key string, f types.Functionality) bool {
		seen := make(map[string]bool, len(f.Solutions))
		for _, s := range f.Solutions {
			if strings.TrimSpace(s.Slug) == "" || seen[s.Slug] {
				bad = append(bad, fmt.Sprintf("%s/%s", key, s.Slug))
			}
			seen[s.Slug] = true
		}
		return true
	})
	if len(bad) > 0 {
		return apperr.Validation("parse signature table", "empty or duplicate solution slugs: "+strings.Join(bad, ", "), bad...)
	}
	return nil
}

// Keys lists functionality keys in table order.
func (t *Table) Keys() []string {
	if t == nil {
		return nil
	}
	return t.Mappings.Keys()
}

// Lookup returns the functionality for key.
func (t *Table) Lookup(key string) (types.Functionality, bool) {
	if t == nil {
		return types.Functionality{}, false
	}
	return t.Mappings.Get(key)
}

// Each visits functionalities in table order.
func (t *Table) Each(fn func(key string, f types.Functionality) bool) {
	if t == nil {
		return
	}
	t.Mappings.Each(fn)
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return t.Mappings.Len()
}
