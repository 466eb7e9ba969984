package scaler

import (
	"sync"

	"github.com/golang/freetype/raster"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/math/fixed"

	"github.com/gogpu/glyphraster"
	"github.com/gogpu/glyphraster/fontstore"
	"github.com/gogpu/glyphraster/internal/cache"
	"github.com/gogpu/glyphraster/internal/colorglyph"
)

func init() {
	glyphraster.RegisterBackend(glyphraster.BackendScaler, func() glyphraster.Backend {
		return New()
	})
}

// Font is a parsed font: hinted outlines plus the color glyph tables.
type Font struct {
	tt    *truetype.Font
	color *colorglyph.Font
}

// Parse parses face index of a TrueType font or collection.
func Parse(data []byte, index uint32) (*Font, error) {
	face, err := colorglyph.SelectFace(data, index)
	if err != nil {
		return nil, err
	}
	tt, err := truetype.Parse(face)
	if err != nil {
		return nil, err
	}
	color, err := colorglyph.Parse(data, index)
	if err != nil {
		return nil, err
	}
	return &Font{tt: tt, color: color}, nil
}

// Store is the font store type used by this backend.
type Store = fontstore.Store[*Font]

var sharedStore = sync.OnceValue(func() *Store {
	return fontstore.New(Parse)
})

// SharedStore returns the process-wide store of the backend.
func SharedStore() *Store { return sharedStore() }

// Option configures a Backend.
type Option func(*Backend)

// WithStore makes the backend share fonts through s.
func WithStore(s *Store) Option {
	return func(b *Backend) {
		b.store = s
	}
}

type imageKey struct {
	instance glyphraster.FontInstance
	glyph    glyphraster.GlyphKey
}

// Backend renders glyphs for one FontContext. It is not safe for
// concurrent use.
type Backend struct {
	store  *Store
	fonts  map[glyphraster.FontKey]*fontstore.CachedFont[*Font]
	images *cache.Cache[imageKey, *glyphImage]

	buf    truetype.GlyphBuf
	raster *raster.Rasterizer
	pts    []point
}

// New creates a backend.
func New(opts ...Option) *Backend {
	b := &Backend{
		fonts:  make(map[glyphraster.FontKey]*fontstore.CachedFont[*Font]),
		images: cache.New[imageKey, *glyphImage](),
		raster: raster.NewRasterizer(0, 0),
	}
	b.raster.UseNonZeroWinding = true
	for _, opt := range opts {
		opt(b)
	}
	if b.store == nil {
		b.store = sharedStore()
	}
	return b
}

// Name returns glyphraster.BackendScaler.
func (b *Backend) Name() string { return glyphraster.BackendScaler }

// AddFont registers a font. Known keys are ignored.
func (b *Backend) AddFont(key glyphraster.FontKey, template glyphraster.FontTemplate) {
	if _, ok := b.fonts[key]; ok {
		return
	}
	b.fonts[key] = b.store.Acquire(key, template)
}

// DeleteFont releases the font and drops every cached image rendered
// from it.
func (b *Backend) DeleteFont(key glyphraster.FontKey) {
	cf, ok := b.fonts[key]
	if !ok {
		return
	}
	delete(b.fonts, key)
	b.store.Release(cf)
	b.images.DeleteFunc(func(k imageKey, _ *glyphImage) bool {
		return k.instance.FontKey == key
	})
}

// DeleteFontInstance drops every cached image of the instance.
func (b *Backend) DeleteFontInstance(instance *glyphraster.FontInstance) {
	n := b.images.DeleteFunc(func(k imageKey, _ *glyphImage) bool {
		return k.instance.InstanceKey == instance.InstanceKey
	})
	glyphraster.Logger().Debug("scaler: deleted instance images", "instance", instance.InstanceKey, "images", n)
}

// Close releases every font and empties the image cache.
func (b *Backend) Close() {
	for key, cf := range b.fonts {
		delete(b.fonts, key)
		b.store.Release(cf)
	}
	st := b.images.Stats()
	glyphraster.Logger().Debug("scaler: closed", "images", st.Len, "hits", st.Hits, "misses", st.Misses)
	b.images.Clear()
}

// CachedImages returns the number of cached glyph images.
func (b *Backend) CachedImages() int { return b.images.Len() }

func (b *Backend) lookup(key glyphraster.FontKey) (*Font, bool) {
	cf, ok := b.fonts[key]
	if !ok {
		return nil, false
	}
	if !cf.Shared() {
		if adopted, err := b.store.Adopt(cf); err == nil {
			b.fonts[key] = adopted
			cf = adopted
		}
	}
	return cf.Font(), true
}

// GlyphIndex maps ch through the font's cmap. The notdef glyph counts as
// missing.
func (b *Backend) GlyphIndex(key glyphraster.FontKey, ch rune) (uint32, bool) {
	f, ok := b.lookup(key)
	if !ok {
		return 0, false
	}
	idx := f.tt.Index(ch)
	if idx == 0 {
		return 0, false
	}
	return uint32(idx), true
}

// GlyphDimensions renders the glyph through the image cache and returns its
// placement and advance.
func (b *Backend) GlyphDimensions(instance *glyphraster.FontInstance, key glyphraster.GlyphKey) (glyphraster.GlyphDimensions, bool) {
	f, ok := b.lookup(instance.FontKey)
	if !ok {
		return glyphraster.GlyphDimensions{}, false
	}
	img, err := b.image(f, instance, key)
	if err != nil || img.empty() {
		return glyphraster.GlyphDimensions{}, false
	}
	hm := f.tt.HMetric(toFixed(instance.Size), truetype.Index(key.Index))
	return glyphraster.GlyphDimensions{
		Left:    img.left,
		Top:     img.top,
		Width:   img.width,
		Height:  img.height,
		Advance: float32(hm.AdvanceWidth) / 64,
	}, true
}

// Rasterize returns the cached image of the glyph, rendering it first if
// needed, converted to BGRA.
func (b *Backend) Rasterize(instance *glyphraster.FontInstance, key glyphraster.GlyphKey) (*glyphraster.RasterizedGlyph, error) {
	f, ok := b.lookup(instance.FontKey)
	if !ok {
		return nil, glyphraster.LoadFailed(instance.FontKey, key.Index, "font not registered", nil)
	}
	img, err := b.image(f, instance, key)
	if err != nil {
		return nil, glyphraster.LoadFailed(instance.FontKey, key.Index, "render", err)
	}
	if img.empty() {
		return nil, glyphraster.LoadFailed(instance.FontKey, key.Index, "empty glyph", nil)
	}
	return img.toGlyph(instance), nil
}

// image returns the cached rendering of the glyph. Failed renders are not
// cached.
func (b *Backend) image(f *Font, instance *glyphraster.FontInstance, key glyphraster.GlyphKey) (*glyphImage, error) {
	k := imageKey{instance: *instance, glyph: key}
	return b.images.GetOrCreate(k, func() (*glyphImage, error) {
		return b.render(f, instance, key)
	})
}

func toFixed(v float32) fixed.Int26_6 {
	return fixed.Int26_6(v*64 + 0.5)
}
