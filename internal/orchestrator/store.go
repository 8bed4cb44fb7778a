package orchestrator

import (
	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// DefaultCapacity is the entry bound of a registry scope when none is configured.
const DefaultCapacity = 1000

// Store is the recency-ordered map behind a Registry. Implementations need
// not be safe for concurrent use; the Registry serialises every call.
type Store[V any] interface {
	// Get returns the value for key and marks it most recently used.
	Get(key string) (V, bool)
	// Peek returns the value for key without touching it.
	Peek(key string) (V, bool)
	// Add inserts or replaces key as most recently used, evicting the least
	// recently used entry when the bound is exceeded.
	Add(key string, v V) (evicted bool)
	// Remove deletes key. It does not count as an eviction.
	Remove(key string) bool
	// Keys returns the keys from least to most recently used.
	Keys() []string
	Len() int
	Cap() int
}

// LRUStore is a bounded Store backed by simplelru.
type LRUStore[V any] struct {
	lru      *simplelru.LRU[string, V]
	size     int
	removing bool
	onEvict  func(key string, v V)
}

// NewLRUStore returns a store holding at most size entries. onEvict, if not
// nil, is called for each entry dropped to make room; explicit removals do
// not trigger it.
func NewLRUStore[V any](size int, onEvict func(key string, v V)) (*LRUStore[V], error) {
	s := &LRUStore[V]{size: size, onEvict: onEvict}
	l, err := simplelru.NewLRU[string, V](size, s.evicted)
	if err != nil {
		return nil, err
	}
	s.lru = l
	return s, nil
}

// simplelru reports explicit removals through the same callback.
func (s *LRUStore[V]) evicted(key string, v V) {
	if s.removing || s.onEvict == nil {
		return
	}
	s.onEvict(key, v)
}

// Get implements Store.Get.
func (s *LRUStore[V]) Get(key string) (V, bool) { return s.lru.Get(key) }

// Peek implements Store.Peek.
func (s *LRUStore[V]) Peek(key string) (V, bool) { return s.lru.Peek(key) }

// Add implements Store.Add.
func (s *LRUStore[V]) Add(key string, v V) bool { return s.lru.Add(key, v) }

// Remove implements Store.Remove.
func (s *LRUStore[V]) Remove(key string) bool {
	s.removing = true
	defer func() { s.removing = false }()
	return s.lru.Remove(key)
}

// Keys implements Store.Keys.
func (s *LRUStore[V]) Keys() []string { return s.lru.Keys() }

// Len implements Store.Len.
func (s *LRUStore[V]) Len() int { return s.lru.Len() }

// Cap implements Store.Cap.
func (s *LRUStore[V]) Cap() int { return s.size }
