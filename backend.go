package glyphraster

import (
	"fmt"
	"sort"
	"sync"
)

// Backend names registered by backend/outline and backend/scaler.
const (
	BackendOutline = "outline"
	BackendScaler  = "scaler"
)

// Backend is the per-context rasterization engine behind a FontContext.
// A Backend value belongs to exactly one FontContext and is never used
// concurrently.
type Backend interface {
	// Name returns the registry name.
	Name() string

	// AddFont records a local reference to the font under key. Adding a key
	// that is already known is a no-op. A template that cannot be parsed
	// panics with *FontParseError.
	AddFont(key FontKey, template FontTemplate)

	// DeleteFont drops the local reference and any cached images of the font.
	DeleteFont(key FontKey)

	// DeleteFontInstance drops cached images of one instance.
	DeleteFontInstance(instance *FontInstance)

	// GlyphIndex maps a character to a glyph index. It returns false for an
	// unknown font or a character mapped to the missing glyph.
	GlyphIndex(key FontKey, ch rune) (uint32, bool)

	// GlyphDimensions returns false for an unknown font or an empty extent.
	GlyphDimensions(instance *FontInstance, glyph GlyphKey) (GlyphDimensions, bool)

	// Rasterize renders a glyph into BGRA8 bytes.
	Rasterize(instance *FontInstance, glyph GlyphKey) (*RasterizedGlyph, error)

	// Close releases every font reference held by the backend.
	Close()
}

// BackendFactory creates a fresh Backend for one FontContext.
type BackendFactory func() Backend

var (
	registryMu sync.RWMutex
	backends   = make(map[string]BackendFactory)

	// backendPriority is the selection order of Default. The first
	// registered name wins.
	backendPriority = []string{BackendOutline, BackendScaler}
)

// RegisterBackend registers a factory under name, replacing any previous
// registration. Backend packages call it from init.
func RegisterBackend(name string, factory BackendFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	backends[name] = factory
}

// UnregisterBackend removes a backend from the registry.
func UnregisterBackend(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(backends, name)
}

// PreferBackend moves name to the front of the default selection order.
func PreferBackend(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	order := []string{name}
	for _, n := range backendPriority {
		if n != name {
			order = append(order, n)
		}
	}
	backendPriority = order
}

// AvailableBackends returns the registered backend names in sorted order.
func AvailableBackends() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewBackend creates a backend by name. It returns ErrUnknownBackend when
// the name is not registered.
func NewBackend(name string) (Backend, error) {
	registryMu.RLock()
	factory, ok := backends[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
	}
	return factory(), nil
}

// DefaultBackend creates the highest priority registered backend, falling
// back to any registered one. It returns ErrNoBackend when the registry is
// empty.
func DefaultBackend() (Backend, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	for _, name := range backendPriority {
		if factory, ok := backends[name]; ok {
			if b := factory(); b != nil {
				return b, nil
			}
		}
	}
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if b := backends[name](); b != nil {
			return b, nil
		}
	}
	return nil, ErrNoBackend
}
