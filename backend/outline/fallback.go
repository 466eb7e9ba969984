package outline

import (
	"bytes"
	"image"
	_ "image/jpeg" // embedded JPEG strikes
	_ "image/png"  // embedded PNG strikes
	"math"

	"github.com/go-text/typesetting/font"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	_ "golang.org/x/image/tiff" // embedded TIFF strikes

	"github.com/gogpu/glyphraster"
	"github.com/gogpu/glyphraster/internal/pixels"
)

// colorGlyph packages a premultiplied image whose bottom-left corner sits
// at (x, y) relative to the pen, y up. The consumer scales the image by
// Scale to reach the requested size.
func colorGlyph(img *image.RGBA, x, y, size float32) *glyphraster.RasterizedGlyph {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	return &glyphraster.RasterizedGlyph{
		Left:   x,
		Top:    float32(h) + y,
		Width:  int32(w),
		Height: int32(h),
		Scale:  size / float32(max(w, h)),
		Format: glyphraster.FormatColorBitmap,
		Bytes:  pixels.RGBAToBGRA(pixels.Tight(img)),
	}
}

// rasterizeSVG renders the glyph's SVG document so that its larger view box
// side spans the instance size. The image is placed at the pen position.
func (b *Backend) rasterizeSVG(instance *glyphraster.FontInstance, key glyphraster.GlyphKey, d font.GlyphSVG) (*glyphraster.RasterizedGlyph, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(d.Source), oksvg.IgnoreErrorMode)
	if err != nil {
		glyphraster.Logger().Error("outline: failed to parse svg glyph", "font", instance.FontKey, "glyph", key.Index, "err", err)
		return nil, glyphraster.LoadFailed(instance.FontKey, key.Index, "svg parse", err)
	}

	vw, vh := icon.ViewBox.W, icon.ViewBox.H
	if vw <= 0 || vh <= 0 {
		return nil, glyphraster.LoadFailed(instance.FontKey, key.Index, "svg without view box", nil)
	}
	k := float64(instance.Size) / max(vw, vh)
	w, h := int(math.Ceil(vw*k)), int(math.Ceil(vh*k))
	if w <= 0 || h <= 0 {
		return nil, glyphraster.LoadFailed(instance.FontKey, key.Index, "empty svg", nil)
	}

	icon.SetTarget(0, 0, float64(w), float64(h))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	scanner := rasterx.NewScannerGV(w, h, img, img.Bounds())
	icon.Draw(rasterx.NewDasher(w, h, scanner), 1)

	glyphraster.Logger().Debug("outline: glyph using svg", "font", instance.FontKey, "glyph", key.Index)
	return colorGlyph(img, 0, 0, instance.Size), nil
}

// rasterizeBitmap decodes an embedded strike image. Its placement comes
// from the font's glyph extents converted to strike pixels.
func (b *Backend) rasterizeBitmap(e *entry, instance *glyphraster.FontInstance, gid font.GID, d font.GlyphBitmap) (*glyphraster.RasterizedGlyph, error) {
	glyph := uint32(gid)
	switch d.Format {
	case font.PNG, font.JPG, font.TIFF:
	default:
		return nil, glyphraster.LoadFailed(instance.FontKey, glyph, "unsupported bitmap format", nil)
	}

	img, _, err := image.Decode(bytes.NewReader(d.Data))
	if err != nil {
		glyphraster.Logger().Error("outline: failed to decode bitmap glyph", "font", instance.FontKey, "glyph", glyph, "err", err)
		return nil, glyphraster.LoadFailed(instance.FontKey, glyph, "bitmap decode", err)
	}
	rgba := pixels.ToRGBA(img)
	h := rgba.Rect.Dy()
	if rgba.Rect.Empty() {
		return nil, glyphraster.LoadFailed(instance.FontKey, glyph, "empty bitmap", nil)
	}

	var x, y float32
	if ext, ok := e.face.GlyphExtents(gid); ok && ext.Height < 0 {
		ratio := float32(h) / -ext.Height
		x = ext.XBearing * ratio
		y = (ext.YBearing + ext.Height) * ratio
	}

	glyphraster.Logger().Debug("outline: glyph using bitmap", "font", instance.FontKey, "glyph", glyph)
	return colorGlyph(rgba, x, y, instance.Size), nil
}
