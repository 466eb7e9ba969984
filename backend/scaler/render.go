package scaler

import (
	"errors"
	"image"
	"image/color"
	"math"

	"github.com/golang/freetype/raster"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/gogpu/glyphraster"
	"github.com/gogpu/glyphraster/internal/colorglyph"
	"github.com/gogpu/glyphraster/internal/pixels"
)

type content uint8

const (
	contentMask content = iota
	contentSubpixel
	contentColor
)

// glyphImage is a cached rendering before BGRA conversion. pix holds one
// coverage byte per pixel, packed R, G, B coverage, or premultiplied RGBA
// depending on content.
type glyphImage struct {
	left, top     int32
	width, height int32
	content       content
	pix           []byte
}

func (g *glyphImage) empty() bool { return g.width <= 0 || g.height <= 0 }

func (g *glyphImage) toGlyph(instance *glyphraster.FontInstance) *glyphraster.RasterizedGlyph {
	out := &glyphraster.RasterizedGlyph{
		Left:   float32(g.left),
		Top:    float32(g.top),
		Width:  g.width,
		Height: g.height,
		Scale:  1,
	}
	switch g.content {
	case contentSubpixel:
		out.Format = glyphraster.FormatSubpixel
		out.Bytes = pixels.SubpixelToBGRA(g.pix, instance.Flags.Contains(glyphraster.FlagSubpixelBGR))
	case contentColor:
		out.Format = glyphraster.FormatColorBitmap
		out.Bytes = pixels.RGBAToBGRA(g.pix)
	default:
		out.Format = instance.GlyphFormat()
		out.Bytes = pixels.MaskToBGRA(g.pix)
	}
	return out
}

// render tries the color layers, then the color bitmaps, then the outline.
// Instances with FlagEmbeddedBitmaps try a strike of exactly their size
// first.
func (b *Backend) render(f *Font, instance *glyphraster.FontInstance, key glyphraster.GlyphKey) (*glyphImage, error) {
	if key.Index <= math.MaxUint16 && f.color.HasColor(uint16(key.Index)) {
		gid := uint16(key.Index)
		if instance.Flags.Contains(glyphraster.FlagEmbeddedBitmaps) {
			if img, ok := renderStrike(f, instance, gid, colorglyph.StrikeExact); ok {
				return img, nil
			}
		}
		if layers, err := f.color.Layers(gid); err == nil {
			if img, err := b.renderLayers(f, instance, key, layers); err == nil {
				return img, nil
			}
		}
		if img, ok := renderStrike(f, instance, gid, colorglyph.StrikeBestFit); ok {
			return img, nil
		}
	}
	return b.renderOutline(f, instance, key)
}

func renderStrike(f *Font, instance *glyphraster.FontInstance, gid uint16, strategy colorglyph.StrikeStrategy) (*glyphImage, bool) {
	ppem := uint16(min(math.Round(float64(instance.Size)), math.MaxUint16))
	bm, err := f.color.Bitmap(gid, ppem, strategy)
	if err != nil {
		return nil, false
	}
	img, err := renderBitmap(bm, instance.Size)
	if err != nil {
		glyphraster.Logger().Warn("scaler: bitmap glyph decode failed",
			"font", instance.FontKey, "glyph", gid, "strike", strategy, "err", err)
		return nil, false
	}
	return img, true
}

// point is an outline point in y-up pixel space.
type point struct {
	x, y float32
	on   bool
}

// outline is a loaded, transformed glyph outline.
type outline struct {
	pts  []point
	ends []int
}

type box struct {
	minX, minY, maxX, maxY int32
}

func (b box) width() int32  { return b.maxX - b.minX }
func (b box) height() int32 { return b.maxY - b.minY }

func (b box) union(o box) box {
	if o.width() <= 0 || o.height() <= 0 {
		return b
	}
	if b.width() <= 0 || b.height() <= 0 {
		return o
	}
	return box{min(b.minX, o.minX), min(b.minY, o.minY), max(b.maxX, o.maxX), max(b.maxY, o.maxY)}
}

// load hints glyph index at the instance size and maps its points through
// the instance transform and sub-pixel offset. The returned outline shares
// the backend's scratch buffers until the next load.
func (b *Backend) load(f *Font, instance *glyphraster.FontInstance, index uint32, key glyphraster.GlyphKey) (outline, error) {
	if index >= uint32(f.color.NumGlyphs()) {
		return outline{}, errGlyphRange
	}
	hinting := font.HintingFull
	if instance.Flags.Contains(glyphraster.FlagNoHinting) {
		hinting = font.HintingNone
	}
	if err := b.buf.Load(f.tt, toFixed(instance.Size), truetype.Index(index), hinting); err != nil {
		return outline{}, err
	}

	t := instance.OutlineTransform()
	dx, dy := instance.GlyphOffset(key)
	b.pts = b.pts[:0]
	for _, p := range b.buf.Points {
		x, y := t.Apply(float32(p.X)/64, float32(p.Y)/64)
		b.pts = append(b.pts, point{x: x + dx, y: y - dy, on: p.Flags&0x01 != 0})
	}
	return outline{pts: b.pts, ends: b.buf.Ends}, nil
}

func (o outline) bounds(bold float32) box {
	if len(o.pts) == 0 {
		return box{}
	}
	minX, minY := float32(math.Inf(1)), float32(math.Inf(1))
	maxX, maxY := float32(math.Inf(-1)), float32(math.Inf(-1))
	for _, p := range o.pts {
		minX, maxX = min(minX, p.x), max(maxX, p.x)
		minY, maxY = min(minY, p.y), max(maxY, p.y)
	}
	return box{
		minX: int32(math.Floor(float64(minX))),
		minY: int32(math.Floor(float64(minY))),
		maxX: int32(math.Ceil(float64(maxX + bold))),
		maxY: int32(math.Ceil(float64(maxY))),
	}
}

// fill scan-converts o into a coverage mask over bb, with hscale samples
// per pixel horizontally and an optional second strike bold pixels right.
func (b *Backend) fill(o outline, bb box, hscale int, bold float32) *image.Alpha {
	w, h := int(bb.width())*hscale, int(bb.height())
	r := b.raster
	r.SetBounds(w, h)
	r.Clear()

	strike := func(shift float32) {
		ox, oy := float32(bb.minX), float32(bb.maxY)
		toRaster := func(p point) fixed.Point26_6 {
			return fixed.Point26_6{
				X: fixed.Int26_6(math.Round(float64((p.x + shift - ox) * float32(hscale) * 64))),
				Y: fixed.Int26_6(math.Round(float64((oy - p.y) * 64))),
			}
		}
		start := 0
		for _, end := range o.ends {
			drawContour(r, o.pts[start:end], toRaster)
			start = end
		}
	}
	strike(0)
	if bold > 0 {
		strike(bold)
	}

	mask := image.NewAlpha(image.Rect(0, 0, w, h))
	r.Rasterize(raster.NewAlphaSrcPainter(mask))
	return mask
}

func midpoint(a, b fixed.Point26_6) fixed.Point26_6 {
	return fixed.Point26_6{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
}

// drawContour adds one closed quadratic contour. Consecutive off-curve
// points imply an on-curve point halfway between them.
func drawContour(r *raster.Rasterizer, ps []point, conv func(point) fixed.Point26_6) {
	if len(ps) == 0 {
		return
	}
	var start fixed.Point26_6
	rest := ps
	switch first, last := ps[0], ps[len(ps)-1]; {
	case first.on:
		start, rest = conv(first), ps[1:]
	case last.on:
		start, rest = conv(last), ps[:len(ps)-1]
	default:
		start = midpoint(conv(first), conv(last))
	}

	r.Start(start)
	q0, on0 := start, true
	for _, p := range rest {
		q := conv(p)
		switch {
		case p.on && on0:
			r.Add1(q)
		case p.on:
			r.Add2(q0, q)
		case !on0:
			r.Add2(q0, midpoint(q0, q))
		}
		q0, on0 = q, p.on
	}
	if on0 {
		r.Add1(start)
	} else {
		r.Add2(q0, start)
	}
}

// renderOutline hints and rasterizes the glyph outline for the instance's
// render mode. Glyphs without contours yield an empty image.
func (b *Backend) renderOutline(f *Font, instance *glyphraster.FontInstance, key glyphraster.GlyphKey) (*glyphImage, error) {
	o, err := b.load(f, instance, key.Index, key)
	if err != nil {
		return nil, err
	}
	bold := instance.BoldOffset()
	bb := o.bounds(bold)
	img := &glyphImage{left: bb.minX, top: bb.maxY, width: bb.width(), height: bb.height()}
	if img.empty() {
		return &glyphImage{}, nil
	}

	switch instance.RenderMode {
	case glyphraster.RenderSubpixel:
		mask := b.fill(o, bb, 3, bold)
		img.content = contentSubpixel
		img.pix = pixels.FilterLCD(mask.Pix, mask.Rect.Dx(), mask.Rect.Dy())
	case glyphraster.RenderMono:
		mask := b.fill(o, bb, 1, bold)
		pixels.Threshold(mask.Pix)
		img.pix = mask.Pix
	default:
		img.pix = b.fill(o, bb, 1, bold).Pix
	}
	return img, nil
}

var (
	errGlyphRange = errors.New("scaler: glyph index out of range")
	errNoLayers   = errors.New("scaler: color glyph has no drawable layers")
)

// renderLayers composites COLR layers. Foreground layers use the instance
// color.
func (b *Backend) renderLayers(f *Font, instance *glyphraster.FontInstance, key glyphraster.GlyphKey, layers []colorglyph.Layer) (*glyphImage, error) {
	bold := instance.BoldOffset()
	outlines := make([]outline, len(layers))
	var bb box
	for i, l := range layers {
		o, err := b.load(f, instance, uint32(l.GlyphID), key)
		if err != nil {
			return nil, err
		}
		// load reuses its buffers.
		outlines[i] = outline{pts: append([]point(nil), o.pts...), ends: append([]int(nil), o.ends...)}
		bb = bb.union(o.bounds(bold))
	}
	if bb.width() <= 0 || bb.height() <= 0 {
		return nil, errNoLayers
	}

	masks := make([]*image.Alpha, len(outlines))
	for i, o := range outlines {
		if len(o.pts) > 0 {
			masks[i] = b.fill(o, bb, 1, bold)
		}
	}
	dst := image.NewRGBA(image.Rect(0, 0, int(bb.width()), int(bb.height())))
	c := instance.Color
	colorglyph.Composite(dst, layers, masks, color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A})

	return &glyphImage{
		left:    bb.minX,
		top:     bb.maxY,
		width:   bb.width(),
		height:  bb.height(),
		content: contentColor,
		pix:     dst.Pix,
	}, nil
}

// renderBitmap decodes a strike image and resamples it from the strike
// size to size pixels per em. Transforms and sub-pixel offsets do not
// apply to bitmaps.
func renderBitmap(bm *colorglyph.BitmapGlyph, size float32) (*glyphImage, error) {
	src, err := bm.Decode()
	if err != nil {
		return nil, err
	}
	k := float64(size) / float64(max(bm.PPEM, 1))
	sb := src.Bounds()
	w := max(int(math.Round(float64(sb.Dx())*k)), 1)
	h := max(int(math.Round(float64(sb.Dy())*k)), 1)

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, sb, draw.Src, nil)

	return &glyphImage{
		left:    int32(math.Round(float64(bm.BearingX) * k)),
		top:     int32(math.Round(float64(bm.BearingY) * k)),
		width:   int32(w),
		height:  int32(h),
		content: contentColor,
		pix:     dst.Pix,
	}, nil
}
