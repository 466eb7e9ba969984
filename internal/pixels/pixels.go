// Package pixels converts rasterizer output into the BGRA8 layout of
// glyphraster.RasterizedGlyph.
package pixels

import (
	"image"

	"golang.org/x/image/draw"
)

// MaskToBGRA replicates each coverage byte into four channels.
func MaskToBGRA(mask []byte) []byte {
	out := make([]byte, 4*len(mask))
	for i, a := range mask {
		o := out[4*i : 4*i+4 : 4*i+4]
		o[0], o[1], o[2], o[3] = a, a, a, a
	}
	return out
}

// SubpixelToBGRA converts packed R, G, B coverage triples into B, G, R, A
// pixels with A = max(R, G, B). When bgr is set the display's sub-pixels are
// ordered B, G, R and the red and blue coverage are swapped first.
func SubpixelToBGRA(rgb []byte, bgr bool) []byte {
	n := len(rgb) / 3
	out := make([]byte, 4*n)
	for i := range n {
		r, g, b := rgb[3*i], rgb[3*i+1], rgb[3*i+2]
		if bgr {
			r, b = b, r
		}
		o := out[4*i : 4*i+4 : 4*i+4]
		o[0], o[1], o[2], o[3] = b, g, r, max(b, g, r)
	}
	return out
}

// RGBAToBGRA reorders RGBA pixels into BGRA, preserving alpha.
func RGBAToBGRA(rgba []byte) []byte {
	out := make([]byte, len(rgba))
	for i := 0; i+3 < len(rgba); i += 4 {
		out[i], out[i+1], out[i+2], out[i+3] = rgba[i+2], rgba[i+1], rgba[i], rgba[i+3]
	}
	return out
}

// Threshold turns a coverage mask into 1-bit coverage in place: values at
// or above 128 become 255, the rest 0.
func Threshold(mask []byte) {
	for i, a := range mask {
		if a >= 0x80 {
			mask[i] = 0xFF
		} else {
			mask[i] = 0
		}
	}
}

// lcdFilter is a 5-tap FIR filter over horizontally tripled coverage.
// The weights sum to 256.
var lcdFilter = [5]uint32{0x08, 0x4D, 0x56, 0x4D, 0x08}

// FilterLCD turns a coverage mask rendered at three times the horizontal
// resolution into packed R, G, B triples of width w/3. Each sub-pixel is
// smoothed with its neighbours to limit color fringing.
func FilterLCD(cov []byte, w, h int) []byte {
	ow := w / 3
	out := make([]byte, 3*ow*h)
	for y := range h {
		row := cov[y*w : (y+1)*w]
		dst := out[y*3*ow : (y+1)*3*ow]
		for x := range 3 * ow {
			var sum uint32
			for k, weight := range lcdFilter {
				sx := x + k - 2
				if sx >= 0 && sx < w {
					sum += weight * uint32(row[sx])
				}
			}
			dst[x] = uint8(min(sum>>8, 0xFF))
		}
	}
	return out
}

// ToRGBA converts any image into a premultiplied RGBA image anchored at the
// origin.
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// Tight returns the pixel rows of an RGBA image with no stride padding.
func Tight(img *image.RGBA) []byte {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if img.Stride == 4*w {
		return img.Pix[:4*w*h]
	}
	out := make([]byte, 0, 4*w*h)
	for y := range h {
		off := y * img.Stride
		out = append(out, img.Pix[off:off+4*w]...)
	}
	return out
}
