// Package fontstore deduplicates font parsing across rendering workers.
//
// A Store maps a FontKey to one parsed font shared by every FontContext that
// registers the key. The store holds one reference to each entry and every
// context holds one more; an entry is evicted when a release leaves only the
// store's own reference.
//
// The store lock is never waited on by the rasterization path. Register,
// Adopt and Release use TryLock: when another goroutine holds the lock the
// call reports ErrUnavailable (or defers eviction) instead of blocking.
// Callers degrade to a private parse through Parse and later converge on
// the shared entry through Adopt.
package fontstore

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/gogpu/glyphraster"
)

// ErrUnavailable reports that the store lock was held by another goroutine.
var ErrUnavailable = errors.New("fontstore: store unavailable")

// ParseFunc parses font file bytes. index selects a face in a collection.
type ParseFunc[F any] func(data []byte, index uint32) (F, error)

// CachedFont is a parsed font plus its reference count.
type CachedFont[F any] struct {
	key      glyphraster.FontKey
	template glyphraster.FontTemplate
	font     F
	refs     atomic.Int32
	shared   bool
}

// Key returns the font identity.
func (c *CachedFont[F]) Key() glyphraster.FontKey { return c.key }

// Font returns the parsed font.
func (c *CachedFont[F]) Font() F { return c.font }

// Template returns the source the font was parsed from.
func (c *CachedFont[F]) Template() glyphraster.FontTemplate { return c.template }

// Refs returns the current reference count, including the store's own.
func (c *CachedFont[F]) Refs() int32 { return c.refs.Load() }

// Shared reports whether the font is owned by a store. A font returned by
// Parse is private to its caller until adopted.
func (c *CachedFont[F]) Shared() bool { return c.shared }

// Store is the shared font table. It is safe for concurrent use.
type Store[F any] struct {
	parse ParseFunc[F]

	mu    sync.Mutex
	fonts map[glyphraster.FontKey]*CachedFont[F]
}

// New creates an empty store.
func New[F any](parse ParseFunc[F]) *Store[F] {
	return &Store[F]{
		parse: parse,
		fonts: make(map[glyphraster.FontKey]*CachedFont[F]),
	}
}

// Register returns the shared font for key, parsing template on first use.
// The caller owns one reference and must pass it to Release.
//
// Register returns ErrUnavailable without blocking when the lock is held.
// A template that cannot be parsed panics with *glyphraster.FontParseError.
func (s *Store[F]) Register(key glyphraster.FontKey, template glyphraster.FontTemplate) (*CachedFont[F], error) {
	if !s.mu.TryLock() {
		glyphraster.Logger().Warn("fontstore: font store not available", "font", key)
		return nil, ErrUnavailable
	}
	defer s.mu.Unlock()

	if cf, ok := s.fonts[key]; ok {
		cf.refs.Add(1)
		return cf, nil
	}

	cf := s.load(key, template)
	cf.shared = true
	cf.refs.Store(2)
	s.fonts[key] = cf
	glyphraster.Logger().Debug("fontstore: registered font", "font", key, "index", template.Index())
	return cf, nil
}

// Parse parses template into a private CachedFont without touching the
// store. It is the fallback when Register reports ErrUnavailable.
func (s *Store[F]) Parse(key glyphraster.FontKey, template glyphraster.FontTemplate) *CachedFont[F] {
	cf := s.load(key, template)
	cf.refs.Store(1)
	return cf
}

// Acquire is Register with a private Parse fallback when the store is
// busy. It never blocks; a private result can later be passed to Adopt.
func (s *Store[F]) Acquire(key glyphraster.FontKey, template glyphraster.FontTemplate) *CachedFont[F] {
	cf, err := s.Register(key, template)
	if err != nil {
		return s.Parse(key, template)
	}
	return cf
}

// Adopt converges a private font onto the shared entry. If the store
// already has key, the shared font is returned with a new reference and
// the private one is dropped. Otherwise the private font becomes the shared
// entry. Shared fonts are returned unchanged.
func (s *Store[F]) Adopt(cf *CachedFont[F]) (*CachedFont[F], error) {
	if cf.shared {
		return cf, nil
	}
	if !s.mu.TryLock() {
		return cf, ErrUnavailable
	}
	defer s.mu.Unlock()

	if existing, ok := s.fonts[cf.key]; ok {
		existing.refs.Add(1)
		cf.refs.Add(-1)
		return existing, nil
	}
	cf.shared = true
	cf.refs.Add(1)
	s.fonts[cf.key] = cf
	return cf, nil
}

// Release drops one caller reference. When only the store's reference
// remains the entry is evicted. If the lock is busy eviction is left to a
// later Release or Sweep.
func (s *Store[F]) Release(cf *CachedFont[F]) {
	shared := cf.shared
	n := cf.refs.Add(-1)
	if !shared || n > 1 {
		return
	}
	if !s.mu.TryLock() {
		glyphraster.Logger().Warn("fontstore: font store not available, eviction deferred", "font", cf.key)
		return
	}
	defer s.mu.Unlock()
	s.evictLocked(cf)
}

// Sweep evicts every entry referenced only by the store and returns the
// number evicted. Unlike the other methods it waits for the lock.
func (s *Store[F]) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, cf := range s.fonts {
		if s.evictLocked(cf) {
			n++
		}
	}
	return n
}

// Lookup returns the shared font for key without taking a reference.
func (s *Store[F]) Lookup(key glyphraster.FontKey) (*CachedFont[F], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cf, ok := s.fonts[key]
	return cf, ok
}

// Len returns the number of shared fonts.
func (s *Store[F]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.fonts)
}

// evictLocked removes cf if the store holds the only reference.
// Caller must hold s.mu.
func (s *Store[F]) evictLocked(cf *CachedFont[F]) bool {
	if s.fonts[cf.key] != cf || cf.refs.Load() != 1 {
		return false
	}
	delete(s.fonts, cf.key)
	cf.refs.Store(0)
	glyphraster.Logger().Debug("fontstore: evicted font", "font", cf.key)
	return true
}

func (s *Store[F]) load(key glyphraster.FontKey, template glyphraster.FontTemplate) *CachedFont[F] {
	data, err := template.Bytes()
	if err == nil {
		var f F
		if f, err = s.parse(data, template.Index()); err == nil {
			return &CachedFont[F]{key: key, template: template, font: f}
		}
	}
	panic(&glyphraster.FontParseError{Font: key, Index: template.Index(), Err: err})
}
