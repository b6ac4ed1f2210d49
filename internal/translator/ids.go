package translator

import (
	"strconv"
	"sync"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const idAlphabet = "0123456789abcdef"

// IDFunc returns a candidate node id.
type IDFunc func() string

// RandomIDs produces 8-character hex ids.
func RandomIDs() IDFunc {
	return func() string { return gonanoid.MustGenerate(idAlphabet, 8) }
}

// SequentialIDs produces prefix1, prefix2, ... and is meant for tests and
// reproducible output.
func SequentialIDs(prefix string) IDFunc {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return prefix + strconv.Itoa(n)
	}
}

// idSet hands out ids that are unique across every document of one
// Translator.
type idSet struct {
	gen  IDFunc
	mu   sync.Mutex
	used map[string]struct{}
}

func newIDSet(gen IDFunc) *idSet {
	return &idSet{gen: gen, used: make(map[string]struct{}, 256)}
}

func (s *idSet) next() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for {
		id := s.gen()
		if _, dup := s.used[id]; dup {
			continue
		}
		s.used[id] = struct{}{}
		return id
	}
}
