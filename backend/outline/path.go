package outline

import (
	"image"
	"image/draw"
	"math"

	ot "github.com/go-text/typesetting/font/opentype"
	"golang.org/x/image/vector"

	"github.com/gogpu/glyphraster"
	"github.com/gogpu/glyphraster/internal/pixels"
)

type segment = ot.Segment

func floor(v float32) float32 { return float32(math.Floor(float64(v))) }
func ceil(v float32) float32  { return float32(math.Ceil(float64(v))) }

func argCount(op ot.SegmentOp) int {
	switch op {
	case ot.SegmentOpQuadTo:
		return 2
	case ot.SegmentOpCubeTo:
		return 3
	default:
		return 1
	}
}

// transformSegments maps font-unit segments into y-up pixel space. Points
// are scaled, passed through the instance's outline transform and moved by
// the key's sub-pixel offset on the axes the instance enables. The offset
// is given in y-down raster space.
func transformSegments(dst, src []segment, scale float32, instance *glyphraster.FontInstance, key glyphraster.GlyphKey) []segment {
	t := instance.OutlineTransform()
	dx, dy := instance.GlyphOffset(key)
	for _, s := range src {
		for i := range argCount(s.Op) {
			x, y := t.Apply(s.Args[i].X*scale, s.Args[i].Y*scale)
			s.Args[i].X, s.Args[i].Y = x+dx, y-dy
		}
		dst = append(dst, s)
	}
	return dst
}

// box is an integer pixel rectangle in y-up space.
type box struct {
	minX, minY, maxX, maxY int32
}

func (b box) width() int32  { return b.maxX - b.minX }
func (b box) height() int32 { return b.maxY - b.minY }
func (b box) empty() bool   { return b.width() <= 0 || b.height() <= 0 }

// boundsOf returns the pixel box covering the control points, widened by
// the synthetic bold strike distance.
func boundsOf(segs []segment, bold float32) box {
	minX, minY := float32(math.Inf(1)), float32(math.Inf(1))
	maxX, maxY := float32(math.Inf(-1)), float32(math.Inf(-1))
	for _, s := range segs {
		for i := range argCount(s.Op) {
			p := s.Args[i]
			minX, maxX = min(minX, p.X), max(maxX, p.X)
			minY, maxY = min(minY, p.Y), max(maxY, p.Y)
		}
	}
	if minX > maxX {
		return box{}
	}
	return box{
		minX: int32(floor(minX)),
		minY: int32(floor(minY)),
		maxX: int32(ceil(maxX + bold)),
		maxY: int32(ceil(maxY)),
	}
}

// fill rasterizes segs into a coverage mask covering bb. With hscale 3 the
// mask has three samples per pixel for LCD filtering. A positive bold
// draws a second strike shifted right by that distance.
func fill(r *vector.Rasterizer, segs []segment, bb box, hscale int, bold float32) *image.Alpha {
	w, h := int(bb.width())*hscale, int(bb.height())
	r.Reset(w, h)
	r.DrawOp = draw.Src

	strike := func(shift float32) {
		hs := float32(hscale)
		ox, oy := float32(bb.minX), float32(bb.maxY)
		pt := func(p ot.SegmentPoint) (float32, float32) {
			return (p.X + shift - ox) * hs, oy - p.Y
		}
		started := false
		for _, s := range segs {
			switch s.Op {
			case ot.SegmentOpMoveTo:
				if started {
					r.ClosePath()
				}
				r.MoveTo(pt(s.Args[0]))
				started = true
			case ot.SegmentOpLineTo:
				r.LineTo(pt(s.Args[0]))
			case ot.SegmentOpQuadTo:
				cx, cy := pt(s.Args[0])
				x, y := pt(s.Args[1])
				r.QuadTo(cx, cy, x, y)
			case ot.SegmentOpCubeTo:
				c1x, c1y := pt(s.Args[0])
				c2x, c2y := pt(s.Args[1])
				x, y := pt(s.Args[2])
				r.CubeTo(c1x, c1y, c2x, c2y, x, y)
			}
		}
		if started {
			r.ClosePath()
		}
	}
	strike(0)
	if bold > 0 {
		strike(bold)
	}

	mask := image.NewAlpha(image.Rect(0, 0, w, h))
	r.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	return mask
}

// rasterizeOutline renders outline segments for the instance's render
// mode. It reports false when the outline covers no pixels.
func (b *Backend) rasterizeOutline(instance *glyphraster.FontInstance, key glyphraster.GlyphKey, src []segment, scale float32) (*glyphraster.RasterizedGlyph, bool) {
	b.segs = transformSegments(b.segs[:0], src, scale, instance, key)
	bold := instance.BoldOffset()
	bb := boundsOf(b.segs, bold)
	if bb.empty() {
		return nil, false
	}

	g := &glyphraster.RasterizedGlyph{
		Left:   float32(bb.minX),
		Top:    float32(bb.maxY),
		Width:  bb.width(),
		Height: bb.height(),
		Scale:  1,
		Format: instance.GlyphFormat(),
	}
	switch instance.RenderMode {
	case glyphraster.RenderSubpixel:
		mask := fill(&b.raster, b.segs, bb, 3, bold)
		rgb := pixels.FilterLCD(mask.Pix, mask.Rect.Dx(), mask.Rect.Dy())
		g.Bytes = pixels.SubpixelToBGRA(rgb, instance.Flags.Contains(glyphraster.FlagSubpixelBGR))
	case glyphraster.RenderMono:
		mask := fill(&b.raster, b.segs, bb, 1, bold)
		pixels.Threshold(mask.Pix)
		g.Bytes = pixels.MaskToBGRA(mask.Pix)
	default:
		mask := fill(&b.raster, b.segs, bb, 1, bold)
		g.Bytes = pixels.MaskToBGRA(mask.Pix)
	}
	return g, true
}
