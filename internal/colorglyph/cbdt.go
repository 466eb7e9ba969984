package colorglyph

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	// ErrInvalidCBLCData indicates a malformed CBLC table.
	ErrInvalidCBLCData = errors.New("colorglyph: invalid CBLC table data")

	// ErrInvalidCBDTData indicates a malformed CBDT table.
	ErrInvalidCBDTData = errors.New("colorglyph: invalid CBDT table data")

	// ErrUnsupportedIndexFormat indicates an unknown CBLC index subtable format.
	ErrUnsupportedIndexFormat = errors.New("colorglyph: unsupported index subtable format")

	// ErrNoStrikeAvailable indicates no strike matched the request.
	ErrNoStrikeAvailable = errors.New("colorglyph: no bitmap strike available")
)

// StrikeStrategy selects a bitmap strike for a requested size.
type StrikeStrategy uint8

const (
	// StrikeBestFit picks the smallest strike at least as large as the
	// request, or the largest strike if none is.
	StrikeBestFit StrikeStrategy = iota

	// StrikeExact only accepts an exact size match.
	StrikeExact
)

// String returns the strategy name.
func (s StrikeStrategy) String() string {
	switch s {
	case StrikeBestFit:
		return "BestFit"
	case StrikeExact:
		return "Exact"
	default:
		return unknownStr
	}
}

// selectStrike returns the index into ppems chosen by strategy, or -1.
func selectStrike(ppems []uint16, ppem uint16, strategy StrikeStrategy) int {
	if len(ppems) == 0 {
		return -1
	}
	largest := 0
	for i, p := range ppems {
		if p > ppems[largest] {
			largest = i
		}
	}
	switch strategy {
	case StrikeExact:
		for i, p := range ppems {
			if p == ppem {
				return i
			}
		}
		return -1
	default:
		best := -1
		for i, p := range ppems {
			if p >= ppem && (best < 0 || p < ppems[best]) {
				best = i
			}
		}
		if best < 0 {
			return largest
		}
		return best
	}
}

// CBLC index subtable formats.
const (
	indexFormat1 = 1 // variable metrics, 32-bit offsets
	indexFormat2 = 2 // constant metrics, no offsets
	indexFormat3 = 3 // variable metrics, 16-bit offsets
	indexFormat4 = 4 // variable metrics, sparse glyph ids
	indexFormat5 = 5 // constant metrics, sparse glyph ids
)

// CBDT image formats.
const (
	imageFormat17 = 17 // small metrics + PNG
	imageFormat18 = 18 // big metrics + PNG
	imageFormat19 = 19 // metrics in CBLC + PNG
)

// CBDTExtractor reads Google's CBDT/CBLC color bitmap tables.
type CBDTExtractor struct {
	cbdt    []byte
	cblc    []byte
	strikes []cbdtStrike
}

type cbdtStrike struct {
	listOffset uint32
	numLists   uint32
	firstGlyph uint16
	lastGlyph  uint16
	ppem       uint8
	bitDepth   uint8

	// subtables are parsed on first use.
	subtables []indexSubtable
}

type indexSubtable struct {
	first, last uint16
	indexFormat uint16
	imageFormat uint16
	dataOffset  uint32

	offsets   []uint32 // formats 1 and 3, widened
	imageSize uint32   // formats 2 and 5
	metrics   *glyphMetrics
	sparse    []sparseEntry // formats 4 and 5
}

type sparseEntry struct {
	glyph  uint16
	offset uint32
}

// glyphMetrics holds the horizontal fields shared by the small and big
// metric records, which agree on their first four bytes.
type glyphMetrics struct {
	width, height      uint8
	bearingX, bearingY int8
}

func readMetrics(b []byte) *glyphMetrics {
	return &glyphMetrics{height: b[0], width: b[1], bearingX: int8(b[2]), bearingY: int8(b[3])} //nolint:gosec // signed font fields
}

// NewCBDTExtractor parses the CBLC strike list.
func NewCBDTExtractor(cbdt, cblc []byte) (*CBDTExtractor, error) {
	if len(cbdt) < 4 {
		return nil, ErrInvalidCBDTData
	}
	if len(cblc) < 8 {
		return nil, ErrInvalidCBLCData
	}
	if major := binary.BigEndian.Uint16(cblc[0:2]); major != 3 {
		return nil, fmt.Errorf("colorglyph: unsupported CBLC version %d.%d", major, binary.BigEndian.Uint16(cblc[2:4]))
	}

	const recordSize = 48
	numSizes := int(binary.BigEndian.Uint32(cblc[4:8]))
	if 8+numSizes*recordSize > len(cblc) {
		return nil, ErrInvalidCBLCData
	}

	e := &CBDTExtractor{cbdt: cbdt, cblc: cblc, strikes: make([]cbdtStrike, numSizes)}
	for i := range numSizes {
		r := cblc[8+i*recordSize : 8+(i+1)*recordSize]
		// Line metrics at 16..40 and flags are not needed.
		e.strikes[i] = cbdtStrike{
			listOffset: binary.BigEndian.Uint32(r[0:4]),
			numLists:   binary.BigEndian.Uint32(r[8:12]),
			firstGlyph: binary.BigEndian.Uint16(r[40:42]),
			lastGlyph:  binary.BigEndian.Uint16(r[42:44]),
			ppem:       r[44],
			bitDepth:   r[46],
		}
	}
	return e, nil
}

// NumStrikes returns the number of strikes.
func (e *CBDTExtractor) NumStrikes() int { return len(e.strikes) }

// StrikePPEM returns a strike's pixel size, or 0 when out of range.
func (e *CBDTExtractor) StrikePPEM(i int) uint16 {
	if i < 0 || i >= len(e.strikes) {
		return 0
	}
	return uint16(e.strikes[i].ppem)
}

// AvailablePPEMs lists the strike sizes in table order.
func (e *CBDTExtractor) AvailablePPEMs() []uint16 {
	ppems := make([]uint16, len(e.strikes))
	for i := range e.strikes {
		ppems[i] = uint16(e.strikes[i].ppem)
	}
	return ppems
}

// SelectStrike picks a strike for ppem, or -1.
func (e *CBDTExtractor) SelectStrike(ppem uint16, strategy StrikeStrategy) int {
	return selectStrike(e.AvailablePPEMs(), ppem, strategy)
}

// HasGlyph reports whether any strike has an image for the glyph.
func (e *CBDTExtractor) HasGlyph(glyphID uint16) bool {
	for i := range e.strikes {
		if _, err := e.subtableFor(glyphID, i); err == nil {
			return true
		}
	}
	return false
}

// GetGlyphWithStrategy extracts the glyph from the strike chosen by strategy.
func (e *CBDTExtractor) GetGlyphWithStrategy(glyphID, ppem uint16, strategy StrikeStrategy) (*BitmapGlyph, error) {
	i := e.SelectStrike(ppem, strategy)
	if i < 0 {
		return nil, ErrNoStrikeAvailable
	}
	return e.GetGlyphAtStrike(glyphID, i)
}

// GetGlyphAtStrike extracts the glyph from one strike.
func (e *CBDTExtractor) GetGlyphAtStrike(glyphID uint16, strike int) (*BitmapGlyph, error) {
	if strike < 0 || strike >= len(e.strikes) {
		return nil, ErrNoStrikeAvailable
	}
	ist, err := e.subtableFor(glyphID, strike)
	if err != nil {
		return nil, err
	}
	off, size, metrics, err := ist.locate(glyphID)
	if err != nil {
		return nil, err
	}
	if size == 0 {
		return nil, ErrGlyphNotInBitmap
	}
	if uint64(off)+uint64(size) > uint64(len(e.cbdt)) {
		return nil, ErrInvalidCBDTData
	}
	return decodeImageRecord(glyphID, e.cbdt[off:off+size], ist.imageFormat, metrics, uint16(e.strikes[strike].ppem))
}

func (e *CBDTExtractor) subtableFor(glyphID uint16, strike int) (*indexSubtable, error) {
	s := &e.strikes[strike]
	if glyphID < s.firstGlyph || glyphID > s.lastGlyph {
		return nil, ErrGlyphNotInBitmap
	}
	if s.subtables == nil {
		if err := e.parseSubtables(s); err != nil {
			return nil, err
		}
	}
	for i := range s.subtables {
		if ist := &s.subtables[i]; glyphID >= ist.first && glyphID <= ist.last {
			return ist, nil
		}
	}
	return nil, ErrGlyphNotInBitmap
}

func (e *CBDTExtractor) parseSubtables(s *cbdtStrike) error {
	data := e.cblc
	list := int(s.listOffset)
	if list+int(s.numLists)*8 > len(data) {
		return ErrInvalidCBLCData
	}
	subtables := make([]indexSubtable, s.numLists)
	for i := range subtables {
		rec := data[list+8*i:]
		ist := &subtables[i]
		ist.first = binary.BigEndian.Uint16(rec[0:2])
		ist.last = binary.BigEndian.Uint16(rec[2:4])
		if ist.last < ist.first {
			return ErrInvalidCBLCData
		}
		if err := parseSubtable(data, list+int(binary.BigEndian.Uint32(rec[4:8])), ist); err != nil {
			return err
		}
	}
	s.subtables = subtables
	return nil
}

func parseSubtable(data []byte, pos int, ist *indexSubtable) error {
	if pos+8 > len(data) {
		return ErrInvalidCBLCData
	}
	ist.indexFormat = binary.BigEndian.Uint16(data[pos:])
	ist.imageFormat = binary.BigEndian.Uint16(data[pos+2:])
	ist.dataOffset = binary.BigEndian.Uint32(data[pos+4:])
	body := pos + 8
	count := int(ist.last-ist.first) + 1

	switch ist.indexFormat {
	case indexFormat1, indexFormat3:
		width := 4
		if ist.indexFormat == indexFormat3 {
			width = 2
		}
		if body+(count+1)*width > len(data) {
			return ErrInvalidCBLCData
		}
		ist.offsets = make([]uint32, count+1)
		for i := range ist.offsets {
			p := body + i*width
			if width == 4 {
				ist.offsets[i] = binary.BigEndian.Uint32(data[p:])
			} else {
				ist.offsets[i] = uint32(binary.BigEndian.Uint16(data[p:]))
			}
		}
	case indexFormat2:
		if body+12 > len(data) {
			return ErrInvalidCBLCData
		}
		ist.imageSize = binary.BigEndian.Uint32(data[body:])
		ist.metrics = readMetrics(data[body+4 : body+12])
	case indexFormat4:
		if body+4 > len(data) {
			return ErrInvalidCBLCData
		}
		n := int(binary.BigEndian.Uint32(data[body:])) + 1
		if body+4+4*n > len(data) {
			return ErrInvalidCBLCData
		}
		ist.sparse = make([]sparseEntry, n)
		for i := range ist.sparse {
			p := body + 4 + 4*i
			ist.sparse[i] = sparseEntry{
				glyph:  binary.BigEndian.Uint16(data[p:]),
				offset: uint32(binary.BigEndian.Uint16(data[p+2:])),
			}
		}
	case indexFormat5:
		if body+16 > len(data) {
			return ErrInvalidCBLCData
		}
		ist.imageSize = binary.BigEndian.Uint32(data[body:])
		ist.metrics = readMetrics(data[body+4 : body+12])
		n := int(binary.BigEndian.Uint32(data[body+12:]))
		if body+16+2*n > len(data) {
			return ErrInvalidCBLCData
		}
		ist.sparse = make([]sparseEntry, n)
		for i := range ist.sparse {
			ist.sparse[i] = sparseEntry{
				glyph:  binary.BigEndian.Uint16(data[body+16+2*i:]),
				offset: uint32(i) * ist.imageSize, //nolint:gosec // bounded by table size
			}
		}
	default:
		return ErrUnsupportedIndexFormat
	}
	return nil
}

// locate returns the CBDT byte range of a glyph record.
func (ist *indexSubtable) locate(glyphID uint16) (off, size uint32, metrics *glyphMetrics, err error) {
	i := int(glyphID) - int(ist.first)
	switch ist.indexFormat {
	case indexFormat1, indexFormat3:
		if i < 0 || i+1 >= len(ist.offsets) || ist.offsets[i+1] < ist.offsets[i] {
			return 0, 0, nil, ErrGlyphNotInBitmap
		}
		return ist.dataOffset + ist.offsets[i], ist.offsets[i+1] - ist.offsets[i], nil, nil
	case indexFormat2:
		return ist.dataOffset + uint32(i)*ist.imageSize, ist.imageSize, ist.metrics, nil //nolint:gosec // i within [first, last]
	case indexFormat4:
		for j := 0; j+1 < len(ist.sparse); j++ {
			if ist.sparse[j].glyph == glyphID {
				return ist.dataOffset + ist.sparse[j].offset, ist.sparse[j+1].offset - ist.sparse[j].offset, nil, nil
			}
		}
	case indexFormat5:
		for _, s := range ist.sparse {
			if s.glyph == glyphID {
				return ist.dataOffset + s.offset, ist.imageSize, ist.metrics, nil
			}
		}
	default:
		return 0, 0, nil, ErrUnsupportedIndexFormat
	}
	return 0, 0, nil, ErrGlyphNotInBitmap
}

func decodeImageRecord(glyphID uint16, rec []byte, format uint16, shared *glyphMetrics, ppem uint16) (*BitmapGlyph, error) {
	var (
		m      = shared
		header int
	)
	switch format {
	case imageFormat17:
		if len(rec) < 9 {
			return nil, ErrInvalidCBDTData
		}
		m, header = readMetrics(rec[0:5]), 5
	case imageFormat18:
		if len(rec) < 12 {
			return nil, ErrInvalidCBDTData
		}
		m, header = readMetrics(rec[0:8]), 8
	case imageFormat19:
		if len(rec) < 4 {
			return nil, ErrInvalidCBDTData
		}
	default:
		return nil, ErrUnsupportedBitmapFormat
	}

	n := binary.BigEndian.Uint32(rec[header:])
	start := header + 4
	if uint64(start)+uint64(n) > uint64(len(rec)) {
		return nil, ErrInvalidCBDTData
	}
	g := &BitmapGlyph{
		GlyphID: glyphID,
		Data:    rec[start : start+int(n)],
		Format:  FormatPNG,
		PPEM:    ppem,
	}
	if m != nil {
		g.Width, g.Height = int(m.width), int(m.height)
		g.BearingX, g.BearingY = float32(m.bearingX), float32(m.bearingY)
	}
	return g, nil
}
