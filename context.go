package glyphraster

import (
	"errors"
	"log/slog"
)

// FontContext is the per-worker façade over a Backend. It is not safe for
// concurrent use; give every rendering goroutine its own context.
type FontContext struct {
	backend Backend
	logger  *slog.Logger
}

// NewFontContext creates a context using the configured or default backend.
func NewFontContext(opts ...Option) (*FontContext, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	b := o.backend
	if b == nil {
		var err error
		if o.backendName != "" {
			b, err = NewBackend(o.backendName)
		} else {
			b, err = DefaultBackend()
		}
		if err != nil {
			return nil, err
		}
	}
	return &FontContext{backend: b, logger: o.logger}, nil
}

func (c *FontContext) log() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return Logger()
}

// Backend returns the backend in use.
func (c *FontContext) Backend() Backend { return c.backend }

// DistributeAcrossThreads reports that rasterization may be sharded across
// goroutines, each with its own FontContext.
func (c *FontContext) DistributeAcrossThreads() bool { return true }

// AddRawFont registers font file bytes under key. Registering a known key is
// a no-op. Unparseable bytes panic with *FontParseError.
func (c *FontContext) AddRawFont(key FontKey, data []byte, index uint32) {
	c.backend.AddFont(key, RawTemplate(data, index))
}

// AddNativeFont registers a platform font handle under key.
func (c *FontContext) AddNativeFont(key FontKey, handle NativeFontHandle) {
	c.backend.AddFont(key, NativeTemplate(handle))
}

// DeleteFont drops this context's reference to the font. Glyphs already
// returned stay valid.
func (c *FontContext) DeleteFont(key FontKey) {
	c.backend.DeleteFont(key)
}

// DeleteFontInstance drops cached glyph images of the instance.
func (c *FontContext) DeleteFontInstance(instance *FontInstance) {
	c.backend.DeleteFontInstance(instance)
}

// GlyphIndex maps ch to a glyph index. It returns false for an unknown font
// or a character without a glyph.
func (c *FontContext) GlyphIndex(key FontKey, ch rune) (uint32, bool) {
	return c.backend.GlyphIndex(key, ch)
}

// GlyphDimensions returns the pixel extent of a glyph. It returns false for
// an unknown font, a non-positive size, the missing glyph (index 0) or an
// empty extent.
func (c *FontContext) GlyphDimensions(instance *FontInstance, glyph GlyphKey) (GlyphDimensions, bool) {
	if !(instance.Size > 0) || glyph.Index == 0 {
		return GlyphDimensions{}, false
	}
	dim, ok := c.backend.GlyphDimensions(instance, glyph)
	if !ok || dim.Width <= 0 || dim.Height <= 0 {
		return GlyphDimensions{}, false
	}
	return dim, true
}

// PrepareFont normalizes an instance before rasterization. Color is applied
// later in the pipeline, so every mode renders white. Mono rendering is not
// sub-pixel accurate and also loses sub-pixel positioning.
func PrepareFont(instance *FontInstance) {
	switch instance.RenderMode {
	case RenderMono:
		instance.Color = White
		instance.DisableSubpixelPosition()
	case RenderAlpha, RenderSubpixel:
		instance.Color = White
	}
}

// RasterizeGlyph renders one glyph. Every error matches ErrLoadFailed.
func (c *FontContext) RasterizeGlyph(instance *FontInstance, glyph GlyphKey) (*RasterizedGlyph, error) {
	if !(instance.Size > 0) {
		return nil, LoadFailed(instance.FontKey, glyph.Index, "non-positive size", nil)
	}

	g, err := c.backend.Rasterize(instance, glyph)
	if err != nil {
		var re *RasterError
		if !errors.As(err, &re) {
			err = LoadFailed(instance.FontKey, glyph.Index, c.backend.Name(), err)
		}
		c.log().Debug("glyphraster: rasterize failed",
			"font", instance.FontKey, "glyph", glyph.Index, "err", err)
		return nil, err
	}
	if err := g.Validate(); err != nil {
		return nil, LoadFailed(instance.FontKey, glyph.Index, "invalid output", err)
	}

	c.log().Debug("glyphraster: rasterized",
		"font", instance.FontKey,
		"glyph", glyph.Index,
		"size", instance.Size,
		"format", g.Format,
		"width", g.Width,
		"height", g.Height)
	return g, nil
}

// Close releases every font reference held by the context.
func (c *FontContext) Close() {
	c.backend.Close()
}
