// Package session keeps each user's latest archive analysis for a limited
// time. Dropping an analysis, for any reason, removes its workspace.
package session

import (
	"log"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"l2wp/internal/archive"
)

const (
	DefaultTTL        = time.Hour
	DefaultMaxEntries = 256
)

type Cache struct {
	lru *expirable.LRU[string, *archive.Analysis]
}

func New(maxEntries int, ttl time.Duration) *Cache {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	onEvict := func(user string, a *archive.Analysis) {
		if err := a.Cleanup(); err != nil {
			log.Printf("session: cleanup for %s failed: %v", user, err)
		}
	}
	return &Cache{lru: expirable.NewLRU[string, *archive.Analysis](maxEntries, onEvict, ttl)}
}

// Put stores a for user. A previous analysis for the same user is dropped;
// concurrent uploads by one user are last-write-wins.
func (c *Cache) Put(user string, a *archive.Analysis) {
	user = normalize(user)
	if old, ok := c.lru.Peek(user); ok && old != a {
		_ = old.Cleanup()
	}
	c.lru.Add(user, a)
}

func (c *Cache) Get(user string) (*archive.Analysis, bool) {
	return c.lru.Get(normalize(user))
}

// Remove drops user's analysis and its workspace.
func (c *Cache) Remove(user string) {
	c.lru.Remove(normalize(user))
}

func (c *Cache) Len() int { return c.lru.Len() }

// Close drops every analysis.
func (c *Cache) Close() {
	c.lru.Purge()
}

func normalize(user string) string {
	user = strings.TrimSpace(user)
	if user == "" {
		return "anonymous"
	}
	return user
}
