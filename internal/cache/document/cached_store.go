// Package document caches document store reads.
package document

import (
	"context"
	"maps"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"l2wp/internal/translator"
	"l2wp/internal/types"
)

type Store = translator.DocumentStore

const listKey = "all"

type CacheConfig struct {
	DocTTL        time.Duration
	DocMaxEntries int
	ListTTL       time.Duration
}

func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		DocTTL:        5 * time.Minute,
		DocMaxEntries: 512,
		ListTTL:       30 * time.Second,
	}
}

type MetricsSnapshot struct {
	DocHits        uint64
	DocMisses      uint64
	ListHits       uint64
	ListMisses     uint64
	OriginReads    uint64
	OriginWrites   uint64
	OriginReadErr  uint64
	OriginWriteErr uint64
}

type metrics struct {
	docHits        atomic.Uint64
	docMisses      atomic.Uint64
	listHits       atomic.Uint64
	listMisses     atomic.Uint64
	originReads    atomic.Uint64
	originWrites   atomic.Uint64
	originReadErr  atomic.Uint64
	originWriteErr atomic.Uint64
}

// CachedStore is a read-through cache in front of a document store. Writes
// go to the origin first and invalidate what they touch.
type CachedStore struct {
	origin Store
	docs   *expirable.LRU[string, types.Document]
	list   *expirable.LRU[string, []types.Document]
	m      metrics
}

func NewCachedStore(origin Store, cfg CacheConfig) *CachedStore {
	def := DefaultCacheConfig()
	if cfg.DocTTL <= 0 {
		cfg.DocTTL = def.DocTTL
	}
	if cfg.DocMaxEntries <= 0 {
		cfg.DocMaxEntries = def.DocMaxEntries
	}
	if cfg.ListTTL <= 0 {
		cfg.ListTTL = def.ListTTL
	}
	return &CachedStore{
		origin: origin,
		docs:   expirable.NewLRU[string, types.Document](cfg.DocMaxEntries, nil, cfg.DocTTL),
		list:   expirable.NewLRU[string, []types.Document](1, nil, cfg.ListTTL),
	}
}

func (s *CachedStore) Create(ctx context.Context, doc types.Document) (string, error) {
	s.m.originWrites.Add(1)
	id, err := s.origin.Create(ctx, doc)
	if err != nil {
		s.m.originWriteErr.Add(1)
		return "", err
	}
	s.list.Purge()
	return id, nil
}

func (s *CachedStore) Get(ctx context.Context, id string) (types.Document, error) {
	id = strings.TrimSpace(id)
	if doc, ok := s.docs.Get(id); ok {
		s.m.docHits.Add(1)
		return clone(doc), nil
	}
	s.m.docMisses.Add(1)
	s.m.originReads.Add(1)
	doc, err := s.origin.Get(ctx, id)
	if err != nil {
		s.m.originReadErr.Add(1)
		return types.Document{}, err
	}
	s.docs.Add(id, clone(doc))
	return doc, nil
}

func (s *CachedStore) List(ctx context.Context) ([]types.Document, error) {
	if list, ok := s.list.Get(listKey); ok {
		s.m.listHits.Add(1)
		return cloneAll(list), nil
	}
	s.m.listMisses.Add(1)
	s.m.originReads.Add(1)
	list, err := s.origin.List(ctx)
	if err != nil {
		s.m.originReadErr.Add(1)
		return nil, err
	}
	s.list.Add(listKey, cloneAll(list))
	return list, nil
}

func (s *CachedStore) DeleteMeta(ctx context.Context, id string, keys ...string) error {
	s.m.originWrites.Add(1)
	if err := s.origin.DeleteMeta(ctx, id, keys...); err != nil {
		s.m.originWriteErr.Add(1)
		return err
	}
	s.docs.Remove(strings.TrimSpace(id))
	s.list.Purge()
	return nil
}

func (s *CachedStore) Metrics() MetricsSnapshot {
	if s == nil {
		return MetricsSnapshot{}
	}
	return MetricsSnapshot{
		DocHits:        s.m.docHits.Load(),
		DocMisses:      s.m.docMisses.Load(),
		ListHits:       s.m.listHits.Load(),
		ListMisses:     s.m.listMisses.Load(),
		OriginReads:    s.m.originReads.Load(),
		OriginWrites:   s.m.originWrites.Load(),
		OriginReadErr:  s.m.originReadErr.Load(),
		OriginWriteErr: s.m.originWriteErr.Load(),
	}
}

// clone copies the metadata map, the only part of a document callers mutate.
func clone(d types.Document) types.Document {
	d.Meta = maps.Clone(d.Meta)
	return d
}

func cloneAll(list []types.Document) []types.Document {
	out := make([]types.Document, len(list))
	for i, d := range list {
		out[i] = clone(d)
	}
	return out
}
