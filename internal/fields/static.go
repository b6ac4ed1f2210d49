package fields

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"l2wp/internal/apperr"
	"l2wp/internal/types"
	"l2wp/internal/util/jsonutil"
)

// Static serves fields from a file loaded at startup.
type Static struct {
	// Fields maps content type to its field definitions.
	Fields map[string][]types.FieldDef `json:"fields" yaml:"fields"`
	// Values maps context id to field values.
	Values map[string]map[string]any `json:"values" yaml:"values"`
}

func (s *Static) FieldValue(_ context.Context, field, contextID string) (any, error) {
	if s == nil {
		return nil, nil
	}
	return s.Values[strings.TrimSpace(contextID)][field], nil
}

func (s *Static) ListFields(_ context.Context, contentType string) ([]types.FieldDef, error) {
	if s == nil {
		return nil, ErrUnknownContentType
	}
	defs, ok := s.Fields[strings.TrimSpace(contentType)]
	if !ok {
		return nil, ErrUnknownContentType
	}
	return append([]types.FieldDef(nil), defs...), nil
}

// LoadStatic reads a file keyed by namespace (acf, jet, mb), each holding a
// Static document, and registers one provider per namespace present. JSON
// files are recognised by extension; anything else is YAML.
func LoadStatic(path string, set *Set) error {
	const op = "load fields"
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return apperr.FileNotFound(op, path)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	byNS := map[string]*Static{}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		if err := jsonutil.Decode(op, raw, &byNS); err != nil {
			return err
		}
	} else if err := yaml.Unmarshal(raw, &byNS); err != nil {
		return apperr.Validation(op, fmt.Sprintf("invalid fields file: %v", err), path)
	}
	for ns, st := range byNS {
		if _, ok := pluginNames[ns]; !ok {
			return apperr.Validation(op, fmt.Sprintf("unknown field namespace %q", ns), ns)
		}
		set.Register(ns, st)
	}
	return nil
}
