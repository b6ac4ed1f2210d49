// Package preference persists the user's functionality -> solution choices.
package preference

import (
	"context"
	"maps"
	"sync"

	"l2wp/internal/recommender"
)

var (
	_ recommender.PreferenceStore = (*MemoryStore)(nil)
	_ recommender.PreferenceStore = (*SQLStore)(nil)
)

type MemoryStore struct {
	mu    sync.RWMutex
	prefs map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{prefs: map[string]string{}}
}

func (s *MemoryStore) Load(context.Context) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.prefs), nil
}

func (s *MemoryStore) Save(_ context.Context, prefs map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs = maps.Clone(prefs)
	if s.prefs == nil {
		s.prefs = map[string]string{}
	}
	return nil
}

func (s *MemoryStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs = map[string]string{}
	return nil
}
