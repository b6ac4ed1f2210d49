package types

import (
	"bytes"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gopkg.in/yaml.v3"
)

// Ordered is a string-keyed map that remembers insertion order.
// JSON and YAML round-trips keep the source key order. The zero value is
// ready to use.
type Ordered[V any] struct {
	m *orderedmap.OrderedMap[string, V]
}

func NewOrdered[V any]() *Ordered[V] {
	return &Ordered[V]{m: orderedmap.New[string, V]()}
}

// Set inserts or replaces key. Replacing keeps the original position.
func (o *Ordered[V]) Set(key string, v V) {
	if o.m == nil {
		o.m = orderedmap.New[string, V]()
	}
	o.m.Set(key, v)
}

func (o *Ordered[V]) Get(key string) (V, bool) {
	if o == nil || o.m == nil {
		var zero V
		return zero, false
	}
	return o.m.Get(key)
}

func (o *Ordered[V]) Has(key string) bool {
	_, ok := o.Get(key)
	return ok
}

func (o *Ordered[V]) Delete(key string) {
	if o == nil || o.m == nil {
		return
	}
	o.m.Delete(key)
}

// Keys returns a copy of the keys in insertion order.
func (o *Ordered[V]) Keys() []string {
	if o == nil || o.m == nil {
		return nil
	}
	keys := make([]string, 0, o.m.Len())
	for p := o.m.Oldest(); p != nil; p = p.Next() {
		keys = append(keys, p.Key)
	}
	return keys
}

func (o *Ordered[V]) Len() int {
	if o == nil || o.m == nil {
		return 0
	}
	return o.m.Len()
}

// Each visits entries in order until fn returns false.
func (o *Ordered[V]) Each(fn func(key string, v V) bool) {
	if o == nil || o.m == nil {
		return
	}
	for p := o.m.Oldest(); p != nil; p = p.Next() {
		if !fn(p.Key, p.Value) {
			return
		}
	}
}

// Merge copies every entry of other into o; later values win.
func (o *Ordered[V]) Merge(other *Ordered[V]) {
	other.Each(func(k string, v V) bool {
		o.Set(k, v)
		return true
	})
}

func (o *Ordered[V]) Clone() *Ordered[V] {
	out := NewOrdered[V]()
	out.Merge(o)
	return out
}

// MarshalJSON writes an empty object for a nil or empty map.
func (o *Ordered[V]) MarshalJSON() ([]byte, error) {
	if o == nil || o.m == nil || o.m.Len() == 0 {
		return []byte("{}"), nil
	}
	return o.m.MarshalJSON()
}

func (o *Ordered[V]) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*o = Ordered[V]{}
		return nil
	}
	if len(b) == 0 || b[0] != '{' {
		return fmt.Errorf("ordered: expected object, got %.20s", b)
	}
	m := orderedmap.New[string, V]()
	if err := m.UnmarshalJSON(b); err != nil {
		return fmt.Errorf("ordered: %w", err)
	}
	o.m = m
	return nil
}

func (o *Ordered[V]) MarshalYAML() (any, error) {
	if o == nil || o.m == nil {
		return map[string]V{}, nil
	}
	return o.m.MarshalYAML()
}

func (o *Ordered[V]) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("ordered: expected mapping at line %d", node.Line)
	}
	m := orderedmap.New[string, V]()
	if err := m.UnmarshalYAML(node); err != nil {
		return fmt.Errorf("ordered: line %d: %w", node.Line, err)
	}
	o.m = m
	return nil
}
