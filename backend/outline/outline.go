package outline

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/go-text/typesetting/font"
	"golang.org/x/image/vector"

	"github.com/gogpu/glyphraster"
	"github.com/gogpu/glyphraster/fontstore"
	"github.com/gogpu/glyphraster/internal/colorglyph"
)

func init() {
	glyphraster.RegisterBackend(glyphraster.BackendOutline, func() glyphraster.Backend {
		return New()
	})
}

// Store is the font store type used by this backend.
type Store = fontstore.Store[*font.Font]

// sharedStore is the store used when no other is configured.
var sharedStore = sync.OnceValue(func() *Store {
	return fontstore.New(Parse)
})

// SharedStore returns the process-wide store of the backend.
func SharedStore() *Store { return sharedStore() }

// Parse parses face index of an OpenType font or collection.
func Parse(data []byte, index uint32) (*font.Font, error) {
	faces, err := font.ParseTTC(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if int(index) >= len(faces) {
		return nil, fmt.Errorf("outline: face %d of %d: %w", index, len(faces), colorglyph.ErrFaceIndex)
	}
	return faces[index].Font, nil
}

// Option configures a Backend.
type Option func(*Backend)

// WithStore makes the backend share fonts through s instead of the
// process-wide store.
func WithStore(s *Store) Option {
	return func(b *Backend) {
		b.store = s
	}
}

type entry struct {
	cf   *fontstore.CachedFont[*font.Font]
	face *font.Face
}

// Backend renders glyphs for one FontContext. It is not safe for
// concurrent use.
type Backend struct {
	store *Store
	fonts map[glyphraster.FontKey]*entry

	raster vector.Rasterizer
	segs   []segment
}

// New creates a backend.
func New(opts ...Option) *Backend {
	b := &Backend{fonts: make(map[glyphraster.FontKey]*entry)}
	for _, opt := range opts {
		opt(b)
	}
	if b.store == nil {
		b.store = sharedStore()
	}
	return b
}

// Name returns glyphraster.BackendOutline.
func (b *Backend) Name() string { return glyphraster.BackendOutline }

// AddFont registers a font. If the store is busy the font is parsed
// privately and handed to the store on a later lookup.
func (b *Backend) AddFont(key glyphraster.FontKey, template glyphraster.FontTemplate) {
	if _, ok := b.fonts[key]; ok {
		return
	}
	cf := b.store.Acquire(key, template)
	b.fonts[key] = &entry{cf: cf, face: font.NewFace(cf.Font())}
}

// DeleteFont drops this backend's reference to the font.
func (b *Backend) DeleteFont(key glyphraster.FontKey) {
	e, ok := b.fonts[key]
	if !ok {
		return
	}
	delete(b.fonts, key)
	b.store.Release(e.cf)
}

// DeleteFontInstance is a no-op; the backend keeps no per-instance state.
func (b *Backend) DeleteFontInstance(*glyphraster.FontInstance) {}

// Close releases every font.
func (b *Backend) Close() {
	for key := range b.fonts {
		b.DeleteFont(key)
	}
}

// lookup returns the font entry, moving a privately parsed font onto the
// shared store entry when the store is free.
func (b *Backend) lookup(key glyphraster.FontKey) (*entry, bool) {
	e, ok := b.fonts[key]
	if !ok {
		return nil, false
	}
	if !e.cf.Shared() {
		if cf, err := b.store.Adopt(e.cf); err == nil && cf != e.cf {
			e.cf = cf
			e.face = font.NewFace(cf.Font())
		}
	}
	return e, true
}

// GlyphIndex maps ch through the font's cmap. The notdef glyph counts as
// missing.
func (b *Backend) GlyphIndex(key glyphraster.FontKey, ch rune) (uint32, bool) {
	e, ok := b.lookup(key)
	if !ok {
		return 0, false
	}
	gid, ok := e.face.NominalGlyph(ch)
	if !ok || gid == 0 {
		return 0, false
	}
	return uint32(gid), true
}

// GlyphDimensions returns the pixel box the glyph's outline covers, or the
// scaled font extents of glyphs that only have an image.
func (b *Backend) GlyphDimensions(instance *glyphraster.FontInstance, key glyphraster.GlyphKey) (glyphraster.GlyphDimensions, bool) {
	e, ok := b.lookup(instance.FontKey)
	if !ok {
		return glyphraster.GlyphDimensions{}, false
	}
	gid := font.GID(key.Index)
	scale := instance.Size / float32(e.face.Upem())
	dim := glyphraster.GlyphDimensions{Advance: e.face.HorizontalAdvance(gid) * scale}

	if segs := outlineOf(b.glyphData(e, instance, gid)); len(segs) > 0 {
		b.segs = transformSegments(b.segs[:0], segs, scale, instance, key)
		box := boundsOf(b.segs, instance.BoldOffset())
		if !box.empty() {
			dim.Left, dim.Top = box.minX, box.maxY
			dim.Width, dim.Height = box.width(), box.height()
			return dim, true
		}
	}

	ext, ok := e.face.GlyphExtents(gid)
	if !ok || ext.Width == 0 || ext.Height == 0 {
		return glyphraster.GlyphDimensions{}, false
	}
	dim.Left = int32(floor(ext.XBearing * scale))
	dim.Top = int32(ceil(ext.YBearing * scale))
	dim.Width = int32(ceil((ext.XBearing+ext.Width)*scale)) - dim.Left
	dim.Height = dim.Top - int32(floor((ext.YBearing+ext.Height)*scale))
	return dim, dim.Width > 0 && dim.Height > 0
}

func (b *Backend) glyphData(e *entry, instance *glyphraster.FontInstance, gid font.GID) font.GlyphData {
	// Bitmap strike selection follows the face ppem.
	ppem := uint16(min(max(instance.Size, 1), 0xFFFF))
	if x, _ := e.face.Ppem(); x != ppem {
		e.face.SetPpem(ppem, ppem)
	}
	return e.face.GlyphData(gid)
}

// Rasterize renders the glyph. Outlines are tried first unless the
// instance prefers embedded bitmaps; glyphs with an empty outline fall back
// to their SVG document or bitmap.
func (b *Backend) Rasterize(instance *glyphraster.FontInstance, key glyphraster.GlyphKey) (*glyphraster.RasterizedGlyph, error) {
	e, ok := b.lookup(instance.FontKey)
	if !ok {
		return nil, glyphraster.LoadFailed(instance.FontKey, key.Index, "font not registered", nil)
	}
	gid := font.GID(key.Index)
	data := b.glyphData(e, instance, gid)

	bm, isBitmap := data.(font.GlyphBitmap)
	if isBitmap && instance.Flags.Contains(glyphraster.FlagEmbeddedBitmaps) {
		if g, err := b.rasterizeBitmap(e, instance, gid, bm); err == nil {
			return g, nil
		}
	}

	if segs := outlineOf(data); len(segs) > 0 {
		scale := instance.Size / float32(e.face.Upem())
		if g, ok := b.rasterizeOutline(instance, key, segs, scale); ok {
			return g, nil
		}
	}

	switch d := data.(type) {
	case font.GlyphSVG:
		return b.rasterizeSVG(instance, key, d)
	case font.GlyphBitmap:
		return b.rasterizeBitmap(e, instance, gid, d)
	case nil:
		return nil, glyphraster.LoadFailed(instance.FontKey, key.Index, "no glyph data", nil)
	default:
		return nil, glyphraster.LoadFailed(instance.FontKey, key.Index, "empty outline", nil)
	}
}

// outlineOf returns the outline segments carried by any glyph data kind.
func outlineOf(data font.GlyphData) []segment {
	switch d := data.(type) {
	case font.GlyphOutline:
		return d.Segments
	case font.GlyphSVG:
		return d.Outline.Segments
	case font.GlyphBitmap:
		if d.Outline != nil {
			return d.Outline.Segments
		}
	}
	return nil
}
