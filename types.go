package glyphraster

import (
	"fmt"
	"os"
)

// FontKey identifies a logical font resource independent of size.
type FontKey struct {
	Namespace uint32
	ID        uint32
}

// String returns the key as "namespace:id".
func (k FontKey) String() string {
	return fmt.Sprintf("%d:%d", k.Namespace, k.ID)
}

// FontInstanceKey identifies one registered FontInstance.
type FontInstanceKey struct {
	Namespace uint32
	ID        uint32
}

// NativeFontHandle locates a font that was resolved by the platform font
// system. Path is a font file on disk and Index selects a face inside a
// collection.
type NativeFontHandle struct {
	Path  string
	Index uint32
}

// FontTemplate is the immutable source of a font: raw bytes plus a
// collection index, or a native handle.
type FontTemplate struct {
	data   []byte
	index  uint32
	native *NativeFontHandle
}

// RawTemplate returns a template over font file bytes. The slice must not be
// modified after registration.
func RawTemplate(data []byte, index uint32) FontTemplate {
	return FontTemplate{data: data, index: index}
}

// NativeTemplate returns a template for a platform font handle.
func NativeTemplate(h NativeFontHandle) FontTemplate {
	return FontTemplate{index: h.Index, native: &h}
}

// Index returns the face index within a font collection.
func (t FontTemplate) Index() uint32 { return t.index }

// Native returns the platform handle, if the template has one.
func (t FontTemplate) Native() (NativeFontHandle, bool) {
	if t.native == nil {
		return NativeFontHandle{}, false
	}
	return *t.native, true
}

// Bytes returns the font file contents, reading the file behind a native
// handle on demand.
func (t FontTemplate) Bytes() ([]byte, error) {
	if t.native == nil {
		if len(t.data) == 0 {
			return nil, ErrEmptyFontData
		}
		return t.data, nil
	}
	data, err := os.ReadFile(t.native.Path)
	if err != nil {
		return nil, fmt.Errorf("glyphraster: read native font: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyFontData
	}
	return data, nil
}

// ColorU is an 8-bit per channel RGBA color.
type ColorU struct {
	R, G, B, A uint8
}

// White is opaque white.
var White = ColorU{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}

// FontTransform is a 2x2 matrix applied to glyph outlines in pixel space.
// The zero value is the identity.
type FontTransform struct {
	ScaleX float32
	SkewX  float32
	SkewY  float32
	ScaleY float32
}

// IsIdentity reports whether the transform leaves outlines unchanged.
func (t FontTransform) IsIdentity() bool {
	return t == FontTransform{} || t == FontTransform{ScaleX: 1, ScaleY: 1}
}

// Apply maps an outline point in y-up pixel units.
func (t FontTransform) Apply(x, y float32) (float32, float32) {
	if t.IsIdentity() {
		return x, y
	}
	return t.ScaleX*x + t.SkewX*y, t.SkewY*x + t.ScaleY*y
}

// RenderMode selects the anti-aliasing strategy.
type RenderMode uint8

const (
	// RenderMono produces 1-bit coverage, stored as 0 or 255.
	RenderMono RenderMode = iota

	// RenderAlpha produces 8-bit grayscale coverage.
	RenderAlpha

	// RenderSubpixel produces per-channel LCD coverage.
	RenderSubpixel
)

// String returns the render mode name.
func (m RenderMode) String() string {
	switch m {
	case RenderMono:
		return "Mono"
	case RenderAlpha:
		return "Alpha"
	case RenderSubpixel:
		return "Subpixel"
	default:
		return unknownStr
	}
}

// FontInstanceFlags toggle optional rendering behavior.
type FontInstanceFlags uint32

const (
	// FlagSyntheticBold emboldens outlines by drawing extra strikes.
	FlagSyntheticBold FontInstanceFlags = 1 << iota

	// FlagSyntheticItalics slants outlines.
	FlagSyntheticItalics

	// FlagEmbeddedBitmaps prefers embedded bitmap strikes over outlines.
	FlagEmbeddedBitmaps

	// FlagSubpixelBGR marks a display whose sub-pixels are ordered B, G, R.
	FlagSubpixelBGR

	// FlagTranspose swaps the glyph axes.
	FlagTranspose

	// FlagFlipX mirrors the glyph horizontally.
	FlagFlipX

	// FlagFlipY mirrors the glyph vertically.
	FlagFlipY

	// FlagNoHinting disables bytecode hinting where a backend supports it.
	FlagNoHinting
)

// Contains reports whether all bits in f are set.
func (fl FontInstanceFlags) Contains(f FontInstanceFlags) bool {
	return fl&f == f
}

// FontInstance describes one way of rendering a font. Instances are compared
// by value and used directly as map keys.
type FontInstance struct {
	FontKey     FontKey
	InstanceKey FontInstanceKey

	// Size is the requested pixel size of one em.
	Size float32

	Transform   FontTransform
	RenderMode  RenderMode
	SubpixelDir SubpixelDirection
	Color       ColorU
	Flags       FontInstanceFlags
}

// DisableSubpixelPosition snaps glyph origins to whole pixels.
func (fi *FontInstance) DisableSubpixelPosition() {
	fi.SubpixelDir = SubpixelNone
}

// GlyphFormat returns the format an outline rendered for this instance
// is reported with.
func (fi *FontInstance) GlyphFormat() GlyphFormat {
	switch fi.RenderMode {
	case RenderMono:
		return FormatMono
	case RenderSubpixel:
		return FormatSubpixel
	default:
		return FormatAlpha
	}
}

// GlyphOffset returns the sub-pixel offset of key on the axes SubpixelDir
// enables. Disabled axes, and every axis of a SubpixelNone instance, are 0.
func (fi *FontInstance) GlyphOffset(key GlyphKey) (dx, dy float32) {
	dx, dy = key.Offset()
	switch fi.SubpixelDir {
	case SubpixelHorizontal:
		return dx, 0
	case SubpixelVertical:
		return 0, dy
	case SubpixelMixed:
		return dx, dy
	default:
		return 0, 0
	}
}

// SyntheticItalicsSkew is the horizontal shear applied for FlagSyntheticItalics.
const SyntheticItalicsSkew = 0.2

// OutlineTransform returns the transform backends apply to outlines, folding
// the synthetic italics and flip flags into Transform.
func (fi *FontInstance) OutlineTransform() FontTransform {
	t := fi.Transform
	if t == (FontTransform{}) {
		t = FontTransform{ScaleX: 1, ScaleY: 1}
	}
	if fi.Flags.Contains(FlagSyntheticItalics) {
		t.ScaleX += SyntheticItalicsSkew * t.SkewY
		t.SkewX += SyntheticItalicsSkew * t.ScaleY
	}
	if fi.Flags.Contains(FlagFlipX) {
		t.ScaleX, t.SkewX = -t.ScaleX, -t.SkewX
	}
	if fi.Flags.Contains(FlagFlipY) {
		t.SkewY, t.ScaleY = -t.SkewY, -t.ScaleY
	}
	if fi.Flags.Contains(FlagTranspose) {
		t = FontTransform{ScaleX: t.SkewY, SkewX: t.ScaleY, SkewY: t.ScaleX, ScaleY: t.SkewX}
	}
	return t
}

// BoldOffset returns the horizontal pixel distance between the extra strikes
// used for FlagSyntheticBold, or 0 when the flag is not set.
func (fi *FontInstance) BoldOffset() float32 {
	if !fi.Flags.Contains(FlagSyntheticBold) {
		return 0
	}
	return max(fi.Size/48, 0.5)
}

// GlyphKey identifies one renderable glyph image within a FontInstance.
type GlyphKey struct {
	Index     uint32
	SubpixelX SubpixelOffset
	SubpixelY SubpixelOffset
}

// NewGlyphKey quantizes a glyph position to a GlyphKey. Only the axes
// enabled by dir keep a fractional offset.
func NewGlyphKey(index uint32, x, y float32, dir SubpixelDirection) GlyphKey {
	k := GlyphKey{Index: index}
	switch dir {
	case SubpixelHorizontal:
		k.SubpixelX = QuantizeOffset(x)
	case SubpixelVertical:
		k.SubpixelY = QuantizeOffset(y)
	case SubpixelMixed:
		k.SubpixelX = QuantizeOffset(x)
		k.SubpixelY = QuantizeOffset(y)
	}
	return k
}

// Offset returns the fractional pixel offset encoded in the key.
func (k GlyphKey) Offset() (dx, dy float32) {
	return k.SubpixelX.Fraction(), k.SubpixelY.Fraction()
}

// GlyphDimensions is the pixel extent of a glyph at an instance's size.
type GlyphDimensions struct {
	Left    int32
	Top     int32
	Width   int32
	Height  int32
	Advance float32
}
