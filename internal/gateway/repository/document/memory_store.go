package document

import (
	"context"
	"fmt"
	"sync"
	"time"

	"l2wp/internal/types"
)

type MemoryStore struct {
	mu    sync.RWMutex
	docs  map[string]types.Document
	order []string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]types.Document)}
}

func (s *MemoryStore) Create(_ context.Context, doc types.Document) (string, error) {
	if s == nil {
		return "", fmt.Errorf("store is nil")
	}
	id, err := newID()
	if err != nil {
		return "", err
	}
	doc = copyDoc(doc)
	doc.ID = id
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[id] = doc
	s.order = append(s.order, id)
	return id, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (types.Document, error) {
	if s == nil {
		return types.Document{}, fmt.Errorf("store is nil")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[normalizeID(id)]
	if !ok {
		return types.Document{}, ErrNotFound
	}
	return copyDoc(doc), nil
}

// List returns documents in creation order.
func (s *MemoryStore) List(context.Context) ([]types.Document, error) {
	if s == nil {
		return nil, fmt.Errorf("store is nil")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Document, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, copyDoc(s.docs[id]))
	}
	return out, nil
}

func (s *MemoryStore) DeleteMeta(_ context.Context, id string, keys ...string) error {
	if s == nil {
		return fmt.Errorf("store is nil")
	}
	id = normalizeID(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	if !ok {
		return ErrNotFound
	}
	doc = copyDoc(doc)
	for _, k := range keys {
		delete(doc.Meta, k)
	}
	s.docs[id] = doc
	return nil
}
