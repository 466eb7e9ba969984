package colorglyph

// Font bundles the color tables of one face. A face without color tables
// parses to a Font whose lookups all miss.
type Font struct {
	upem      uint16
	numGlyphs uint16
	cbdt *CBDTExtractor
	sbix *SBIXParser
	colr *COLRParser
}

// Parse reads face index of data. A missing or malformed color table is
// skipped rather than failing the whole face.
func Parse(data []byte, index uint32) (*Font, error) {
	tables, err := ReadTables(data, index)
	if err != nil {
		return nil, err
	}
	f := &Font{upem: tables.UnitsPerEm(), numGlyphs: tables.NumGlyphs()}
	if cbdt, cblc := tables["CBDT"], tables["CBLC"]; cbdt != nil && cblc != nil {
		f.cbdt, _ = NewCBDTExtractor(cbdt, cblc)
	}
	if sbix := tables["sbix"]; sbix != nil {
		f.sbix, _ = NewSBIXParser(sbix, tables.NumGlyphs())
	}
	if colr, cpal := tables["COLR"], tables["CPAL"]; colr != nil && cpal != nil {
		f.colr, _ = NewCOLRParser(colr, cpal)
	}
	return f, nil
}

// UnitsPerEm returns the head table design grid size.
func (f *Font) UnitsPerEm() uint16 { return f.upem }

// NumGlyphs returns the maxp glyph count.
func (f *Font) NumGlyphs() uint16 { return f.numGlyphs }

// HasBitmaps reports whether the face has CBDT or sbix strikes.
func (f *Font) HasBitmaps() bool {
	return (f.cbdt != nil && f.cbdt.NumStrikes() > 0) || (f.sbix != nil && f.sbix.NumStrikes() > 0)
}

// HasLayers reports whether the face has COLR layer records.
func (f *Font) HasLayers() bool { return f.colr != nil }

// HasColor reports whether the glyph may have a color rendering: COLR
// layers, a CBDT image in any strike, or an sbix table. sbix strikes are
// only checked by Bitmap.
func (f *Font) HasColor(glyphID uint16) bool {
	switch {
	case f.colr != nil && f.colr.HasGlyph(glyphID):
		return true
	case f.cbdt != nil && f.cbdt.HasGlyph(glyphID):
		return true
	default:
		return f.sbix != nil && f.sbix.NumStrikes() > 0
	}
}

// Bitmap returns the strike image of a glyph for ppem from the strike
// strategy picks. CBDT is tried before sbix.
func (f *Font) Bitmap(glyphID, ppem uint16, strategy StrikeStrategy) (*BitmapGlyph, error) {
	if f.cbdt != nil {
		if g, err := f.cbdt.GetGlyphWithStrategy(glyphID, ppem, strategy); err == nil {
			return g, nil
		}
	}
	if f.sbix != nil {
		if g, err := f.sbix.GetGlyph(glyphID, f.sbix.SelectStrike(ppem, strategy)); err == nil {
			return g, nil
		}
	}
	return nil, ErrGlyphNotInBitmap
}

// Layers returns the glyph's COLR layers resolved against palette 0.
func (f *Font) Layers(glyphID uint16) ([]Layer, error) {
	if f.colr == nil {
		return nil, ErrGlyphNotInCOLR
	}
	return f.colr.Layers(glyphID, 0)
}
