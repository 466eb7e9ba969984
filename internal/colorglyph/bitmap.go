package colorglyph

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/tiff"
)

const unknownStr = "Unknown"

var (
	// ErrGlyphNotInBitmap indicates the glyph has no bitmap in the table.
	ErrGlyphNotInBitmap = errors.New("colorglyph: glyph not found in bitmap table")

	// ErrUnsupportedBitmapFormat indicates image data that cannot be decoded.
	ErrUnsupportedBitmapFormat = errors.New("colorglyph: unsupported bitmap format")

	// ErrInvalidSBIXData indicates a malformed sbix table.
	ErrInvalidSBIXData = errors.New("colorglyph: invalid sbix table data")
)

// BitmapFormat is the encoding of embedded bitmap data.
type BitmapFormat uint8

const (
	FormatPNG BitmapFormat = iota
	FormatJPEG
	FormatTIFF
	// FormatDupe marks an sbix record that reuses another glyph's image.
	FormatDupe
)

var bitmapFormatNames = [...]string{
	FormatPNG:  "PNG",
	FormatJPEG: "JPEG",
	FormatTIFF: "TIFF",
	FormatDupe: "Dupe",
}

// String returns the format name.
func (f BitmapFormat) String() string {
	if int(f) < len(bitmapFormatNames) {
		return bitmapFormatNames[f]
	}
	return unknownStr
}

// BitmapGlyph is an embedded glyph image from a CBDT or sbix strike.
type BitmapGlyph struct {
	GlyphID uint16
	Data    []byte
	Format  BitmapFormat

	// Width and Height are the strike metrics in pixels. They may be zero
	// for sbix, where only the decoded image knows its size.
	Width  int
	Height int

	// BearingX is the distance from the origin to the left edge and
	// BearingY from the baseline up to the top edge, in strike pixels.
	BearingX float32
	BearingY float32

	// PPEM is the pixel size of the strike.
	PPEM uint16
}

// Decode decodes the image data.
func (b *BitmapGlyph) Decode() (image.Image, error) {
	r := bytes.NewReader(b.Data)
	switch b.Format {
	case FormatPNG:
		return png.Decode(r)
	case FormatJPEG:
		return jpeg.Decode(r)
	case FormatTIFF:
		return tiff.Decode(r)
	default:
		return nil, ErrUnsupportedBitmapFormat
	}
}

// SBIXParser reads Apple's sbix bitmap table.
type SBIXParser struct {
	data      []byte
	numGlyphs uint16
	strikes   []sbixStrike
}

type sbixStrike struct {
	ppem    uint16
	offset  uint32
	offsets []uint32 // numGlyphs+1 glyph data offsets
}

// NewSBIXParser parses the strike list. numGlyphs comes from maxp.
func NewSBIXParser(data []byte, numGlyphs uint16) (*SBIXParser, error) {
	if len(data) < 8 || binary.BigEndian.Uint16(data[0:2]) != 1 {
		return nil, ErrInvalidSBIXData
	}
	numStrikes := int(binary.BigEndian.Uint32(data[4:8]))
	if 8+4*numStrikes > len(data) {
		return nil, ErrInvalidSBIXData
	}

	p := &SBIXParser{data: data, numGlyphs: numGlyphs, strikes: make([]sbixStrike, numStrikes)}
	for i := range numStrikes {
		off := binary.BigEndian.Uint32(data[8+4*i:])
		n := int(numGlyphs) + 1
		if int(off)+4+4*n > len(data) {
			return nil, ErrInvalidSBIXData
		}
		s := &p.strikes[i]
		s.ppem = binary.BigEndian.Uint16(data[off:])
		s.offset = off
		s.offsets = make([]uint32, n)
		for g := range n {
			s.offsets[g] = binary.BigEndian.Uint32(data[int(off)+4+4*g:])
		}
	}
	return p, nil
}

// NumStrikes returns the number of strikes.
func (p *SBIXParser) NumStrikes() int { return len(p.strikes) }

// StrikePPEM returns a strike's pixel size, or 0 when out of range.
func (p *SBIXParser) StrikePPEM(i int) uint16 {
	if i < 0 || i >= len(p.strikes) {
		return 0
	}
	return p.strikes[i].ppem
}

// SelectStrike picks a strike for ppem using the given strategy, or -1.
func (p *SBIXParser) SelectStrike(ppem uint16, strategy StrikeStrategy) int {
	ppems := make([]uint16, len(p.strikes))
	for i := range p.strikes {
		ppems[i] = p.strikes[i].ppem
	}
	return selectStrike(ppems, ppem, strategy)
}

// GetGlyph extracts a glyph image from a strike, following one level of
// "dupe" indirection.
func (p *SBIXParser) GetGlyph(glyphID uint16, strike int) (*BitmapGlyph, error) {
	return p.getGlyph(glyphID, strike, true)
}

func (p *SBIXParser) getGlyph(glyphID uint16, strike int, followDupe bool) (*BitmapGlyph, error) {
	if strike < 0 || strike >= len(p.strikes) || glyphID >= p.numGlyphs {
		return nil, ErrGlyphNotInBitmap
	}
	s := &p.strikes[strike]
	start, end := s.offsets[glyphID], s.offsets[glyphID+1]
	if end <= start {
		return nil, ErrGlyphNotInBitmap
	}

	rec := int(s.offset + start)
	stop := int(s.offset + end)
	if rec+8 > stop || stop > len(p.data) {
		return nil, ErrInvalidSBIXData
	}
	originX := int16(binary.BigEndian.Uint16(p.data[rec:]))   //nolint:gosec // signed font field
	originY := int16(binary.BigEndian.Uint16(p.data[rec+2:])) //nolint:gosec // signed font field
	payload := p.data[rec+8 : stop]

	g := &BitmapGlyph{
		GlyphID:  glyphID,
		Data:     payload,
		BearingX: float32(originX),
		PPEM:     s.ppem,
	}
	switch string(p.data[rec+4 : rec+8]) {
	case "png ":
		g.Format = FormatPNG
	case "jpg ":
		g.Format = FormatJPEG
	case "tiff":
		g.Format = FormatTIFF
	case "dupe":
		if !followDupe || len(payload) < 2 {
			return nil, ErrInvalidSBIXData
		}
		return p.getGlyph(binary.BigEndian.Uint16(payload), strike, false)
	default:
		return nil, ErrUnsupportedBitmapFormat
	}

	// sbix stores the bottom-left origin offset; the height is only known
	// from the image itself.
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(payload)); err == nil {
		g.Width, g.Height = cfg.Width, cfg.Height
	}
	g.BearingY = float32(originY) + float32(g.Height)
	return g, nil
}
