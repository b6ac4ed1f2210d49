package placeholder

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"l2wp/internal/apperr"
)

// Context is the content item placeholders are resolved against.
type Context struct {
	Title     string `json:"title" yaml:"title"`
	Content   string `json:"content" yaml:"content"`
	Excerpt   string `json:"excerpt" yaml:"excerpt"`
	Date      string `json:"date" yaml:"date"`
	Author    string `json:"author" yaml:"author"`
	Permalink string `json:"permalink" yaml:"permalink"`
	Thumbnail string `json:"thumbnail" yaml:"thumbnail"`
	// Terms maps taxonomy name to term names.
	Terms map[string][]string `json:"terms,omitempty" yaml:"terms"`
}

// Attribute returns a post attribute by placeholder name.
func (c *Context) Attribute(name string) (string, bool) {
	switch name {
	case "title":
		return c.Title, true
	case "content":
		return c.Content, true
	case "excerpt":
		return c.Excerpt, true
	case "date":
		return c.Date, true
	case "author":
		return c.Author, true
	case "permalink":
		return c.Permalink, true
	case "thumbnail":
		return c.Thumbnail, true
	default:
		return "", false
	}
}

// ContextSource looks up contexts by id. A missing context is (nil, nil).
type ContextSource interface {
	Context(ctx context.Context, id string) (*Context, error)
}

// MemoryContexts is a mutable in-process ContextSource.
type MemoryContexts struct {
	mu    sync.RWMutex
	items map[string]Context
}

func NewMemoryContexts() *MemoryContexts {
	return &MemoryContexts{items: make(map[string]Context)}
}

func (m *MemoryContexts) Put(id string, c Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[strings.TrimSpace(id)] = c
}

func (m *MemoryContexts) Context(_ context.Context, id string) (*Context, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.items[strings.TrimSpace(id)]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

// LoadContexts reads a YAML file mapping context id to Context.
func LoadContexts(path string) (*MemoryContexts, error) {
	const op = "load contexts"
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperr.FileNotFound(op, path)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var items map[string]Context
	if err := yaml.Unmarshal(raw, &items); err != nil {
		return nil, apperr.Validation(op, fmt.Sprintf("invalid contexts file: %v", err), path)
	}
	m := NewMemoryContexts()
	for id, c := range items {
		m.Put(id, c)
	}
	return m, nil
}
