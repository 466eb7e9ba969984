package colorglyph

import (
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"sort"
)

var (
	// ErrInvalidCOLRData indicates a malformed COLR table.
	ErrInvalidCOLRData = errors.New("colorglyph: invalid COLR table data")

	// ErrInvalidCPALData indicates a malformed CPAL table.
	ErrInvalidCPALData = errors.New("colorglyph: invalid CPAL table data")

	// ErrGlyphNotInCOLR indicates the glyph has no color layers.
	ErrGlyphNotInCOLR = errors.New("colorglyph: glyph not found in COLR table")
)

// ForegroundPalette is the palette index that means "use the text color".
const ForegroundPalette = 0xFFFF

// Layer is one outline of a layered color glyph, bottom to top.
type Layer struct {
	GlyphID      uint16
	PaletteIndex uint16

	// Color is the resolved palette entry. It is zero for foreground layers.
	Color color.NRGBA
}

// IsForeground reports whether the layer is drawn in the text color.
func (l Layer) IsForeground() bool { return l.PaletteIndex == ForegroundPalette }

// COLRParser reads version 0 COLR layer lists and their CPAL palettes.
type COLRParser struct {
	bases    []colrBase
	layers   []colrLayer
	palettes [][]color.NRGBA
}

type colrBase struct {
	glyph, first, count uint16
}

type colrLayer struct {
	glyph, palette uint16
}

// NewCOLRParser parses the COLR and CPAL tables. Only the version 0
// records are read; COLRv1 paint graphs are ignored.
func NewCOLRParser(colr, cpal []byte) (*COLRParser, error) {
	if len(colr) < 14 {
		return nil, ErrInvalidCOLRData
	}
	numBase := int(binary.BigEndian.Uint16(colr[2:4]))
	baseOff := int(binary.BigEndian.Uint32(colr[4:8]))
	layerOff := int(binary.BigEndian.Uint32(colr[8:12]))
	numLayers := int(binary.BigEndian.Uint16(colr[12:14]))
	if baseOff+6*numBase > len(colr) || layerOff+4*numLayers > len(colr) {
		return nil, ErrInvalidCOLRData
	}

	p := &COLRParser{
		bases:  make([]colrBase, numBase),
		layers: make([]colrLayer, numLayers),
	}
	for i := range p.bases {
		b := colr[baseOff+6*i:]
		p.bases[i] = colrBase{
			glyph: binary.BigEndian.Uint16(b[0:2]),
			first: binary.BigEndian.Uint16(b[2:4]),
			count: binary.BigEndian.Uint16(b[4:6]),
		}
	}
	for i := range p.layers {
		b := colr[layerOff+4*i:]
		p.layers[i] = colrLayer{glyph: binary.BigEndian.Uint16(b[0:2]), palette: binary.BigEndian.Uint16(b[2:4])}
	}

	palettes, err := parseCPAL(cpal)
	if err != nil {
		return nil, err
	}
	p.palettes = palettes
	return p, nil
}

func parseCPAL(data []byte) ([][]color.NRGBA, error) {
	if len(data) < 12 {
		return nil, ErrInvalidCPALData
	}
	numEntries := int(binary.BigEndian.Uint16(data[2:4]))
	numPalettes := int(binary.BigEndian.Uint16(data[4:6]))
	recordsOff := int(binary.BigEndian.Uint32(data[8:12]))
	if 12+2*numPalettes > len(data) {
		return nil, ErrInvalidCPALData
	}

	palettes := make([][]color.NRGBA, numPalettes)
	for i := range palettes {
		first := int(binary.BigEndian.Uint16(data[12+2*i:]))
		end := recordsOff + 4*(first+numEntries)
		if end > len(data) {
			return nil, ErrInvalidCPALData
		}
		pal := make([]color.NRGBA, numEntries)
		for j := range pal {
			// Records are stored blue first.
			c := data[recordsOff+4*(first+j):]
			pal[j] = color.NRGBA{B: c[0], G: c[1], R: c[2], A: c[3]}
		}
		palettes[i] = pal
	}
	return palettes, nil
}

// HasGlyph reports whether the glyph has color layers.
func (p *COLRParser) HasGlyph(glyphID uint16) bool {
	_, ok := p.find(glyphID)
	return ok
}

// Layers returns the glyph's layers with colors resolved from palette.
func (p *COLRParser) Layers(glyphID uint16, palette int) ([]Layer, error) {
	base, ok := p.find(glyphID)
	if !ok {
		return nil, ErrGlyphNotInCOLR
	}
	if int(base.first)+int(base.count) > len(p.layers) {
		return nil, ErrInvalidCOLRData
	}

	var colors []color.NRGBA
	if palette >= 0 && palette < len(p.palettes) {
		colors = p.palettes[palette]
	}
	out := make([]Layer, base.count)
	for i, l := range p.layers[base.first : base.first+base.count] {
		out[i] = Layer{GlyphID: l.glyph, PaletteIndex: l.palette}
		if l.palette != ForegroundPalette && int(l.palette) < len(colors) {
			out[i].Color = colors[l.palette]
		}
	}
	return out, nil
}

// find does a binary search; base records are sorted by glyph id.
func (p *COLRParser) find(glyphID uint16) (colrBase, bool) {
	i := sort.Search(len(p.bases), func(i int) bool { return p.bases[i].glyph >= glyphID })
	if i < len(p.bases) && p.bases[i].glyph == glyphID {
		return p.bases[i], true
	}
	return colrBase{}, false
}

// Composite draws each layer's coverage mask over dst in the layer color.
// Masks must share dst's coordinate space; nil masks are skipped.
func Composite(dst *image.RGBA, layers []Layer, masks []*image.Alpha, foreground color.NRGBA) {
	for i, l := range layers {
		if i >= len(masks) || masks[i] == nil {
			continue
		}
		c := l.Color
		if l.IsForeground() {
			c = foreground
		}
		draw.DrawMask(dst, dst.Bounds(), image.NewUniform(c), image.Point{}, masks[i], dst.Bounds().Min, draw.Over)
	}
}
