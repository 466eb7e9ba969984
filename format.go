package glyphraster

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

const unknownStr = "Unknown"

// BytesPerPixel is the size of one pixel in RasterizedGlyph.Bytes.
const BytesPerPixel = 4

// GlyphFormat tells the texture cache how to sample and blend a glyph.
type GlyphFormat uint8

const (
	// FormatMono is 1-bit coverage replicated into all four channels.
	FormatMono GlyphFormat = iota

	// FormatAlpha is grayscale coverage replicated into all four channels.
	FormatAlpha

	// FormatSubpixel carries per-channel LCD coverage with alpha = max(B, G, R).
	FormatSubpixel

	// FormatColorBitmap is a premultiplied color image.
	FormatColorBitmap

	glyphFormatCount
)

// GlyphFormatInfo describes how a format's bytes are interpreted.
type GlyphFormatInfo struct {
	// Name is the display name.
	Name string

	// IsColor means the bytes carry real color instead of coverage.
	IsColor bool

	// PerChannelCoverage means each color channel blends independently.
	PerChannelCoverage bool

	// IsPremultiplied indicates premultiplied alpha.
	IsPremultiplied bool
}

var glyphFormatTable = [glyphFormatCount]GlyphFormatInfo{
	FormatMono:        {Name: "Mono"},
	FormatAlpha:       {Name: "Alpha"},
	FormatSubpixel:    {Name: "Subpixel", PerChannelCoverage: true},
	FormatColorBitmap: {Name: "ColorBitmap", IsColor: true, IsPremultiplied: true},
}

// Info returns the format's metadata. Unknown formats return a zero Info
// named "Unknown".
func (f GlyphFormat) Info() GlyphFormatInfo {
	if f >= glyphFormatCount {
		return GlyphFormatInfo{Name: unknownStr}
	}
	return glyphFormatTable[f]
}

// String returns the format name.
func (f GlyphFormat) String() string { return f.Info().Name }

// IsColor reports whether the glyph is a color image.
func (f GlyphFormat) IsColor() bool { return f.Info().IsColor }

// IsSubpixel reports whether channels carry independent LCD coverage.
func (f GlyphFormat) IsSubpixel() bool { return f.Info().PerChannelCoverage }

// RasterizedGlyph is a rendered glyph ready for texture upload.
type RasterizedGlyph struct {
	// Left and Top place the bitmap relative to the pen position. Top is the
	// distance from the baseline up to the first row.
	Left float32
	Top  float32

	Width  int32
	Height int32

	// Scale is 1 for outline glyphs. Embedded images are returned at their
	// natural size and Scale maps them to the requested size.
	Scale float32

	Format GlyphFormat

	// Bytes holds Width*Height BGRA8 pixels, rows top to bottom.
	Bytes []byte
}

// Validate checks the size invariant every successful rasterization upholds.
func (g *RasterizedGlyph) Validate() error {
	if g.Width <= 0 || g.Height <= 0 {
		return fmt.Errorf("%w: empty extent %dx%d", ErrLoadFailed, g.Width, g.Height)
	}
	if want := BytesPerPixel * int(g.Width) * int(g.Height); len(g.Bytes) != want {
		return fmt.Errorf("%w: %d bytes for %dx%d, want %d", ErrLoadFailed, len(g.Bytes), g.Width, g.Height, want)
	}
	return nil
}

// TextureFormat is the GPU format the bytes are laid out in.
func (g *RasterizedGlyph) TextureFormat() gputypes.TextureFormat {
	return gputypes.TextureFormatBGRA8Unorm
}

// UploadExtent is the texture region the bytes cover.
func (g *RasterizedGlyph) UploadExtent() gputypes.Extent3D {
	return gputypes.Extent3D{
		Width:              uint32(max(g.Width, 0)),  //nolint:gosec // clamped
		Height:             uint32(max(g.Height, 0)), //nolint:gosec // clamped
		DepthOrArrayLayers: 1,
	}
}

// BytesPerRow is the row pitch of Bytes.
func (g *RasterizedGlyph) BytesPerRow() int {
	return BytesPerPixel * int(g.Width)
}
