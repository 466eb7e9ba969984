package colorglyph

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	// ErrInvalidFont indicates a malformed table directory.
	ErrInvalidFont = errors.New("colorglyph: invalid font data")

	// ErrFaceIndex indicates a collection index past the last face.
	ErrFaceIndex = errors.New("colorglyph: face index out of range")
)

const tagCollection = "ttcf"

// IsCollection reports whether data is a font collection.
func IsCollection(data []byte) bool {
	return len(data) >= 4 && string(data[:4]) == tagCollection
}

// FaceOffset returns the byte offset of the table directory of face index.
// Plain fonts only have face 0 at offset 0.
func FaceOffset(data []byte, index uint32) (int, error) {
	if !IsCollection(data) {
		if index != 0 {
			return 0, ErrFaceIndex
		}
		return 0, nil
	}
	if len(data) < 12 {
		return 0, ErrInvalidFont
	}
	numFonts := binary.BigEndian.Uint32(data[8:12])
	if index >= numFonts {
		return 0, fmt.Errorf("%w: %d of %d", ErrFaceIndex, index, numFonts)
	}
	pos := 12 + 4*int(index)
	if pos+4 > len(data) {
		return 0, ErrInvalidFont
	}
	return int(binary.BigEndian.Uint32(data[pos : pos+4])), nil
}

// Tables maps table tags to table bytes for one face of a font or
// collection. Offsets in a collection are relative to the file start.
type Tables map[string][]byte

// ReadTables reads the table directory of face index.
func ReadTables(data []byte, index uint32) (Tables, error) {
	base, err := FaceOffset(data, index)
	if err != nil {
		return nil, err
	}
	if base+12 > len(data) {
		return nil, ErrInvalidFont
	}
	numTables := int(binary.BigEndian.Uint16(data[base+4 : base+6]))
	tables := make(Tables, numTables)
	for i := range numTables {
		rec := base + 12 + 16*i
		if rec+16 > len(data) {
			return nil, ErrInvalidFont
		}
		tag := string(data[rec : rec+4])
		off := uint64(binary.BigEndian.Uint32(data[rec+8 : rec+12]))
		n := uint64(binary.BigEndian.Uint32(data[rec+12 : rec+16]))
		if off+n > uint64(len(data)) {
			return nil, fmt.Errorf("%w: table %q out of bounds", ErrInvalidFont, tag)
		}
		tables[tag] = data[off : off+n]
	}
	return tables, nil
}

// NumGlyphs reads the glyph count from the maxp table.
func (t Tables) NumGlyphs() uint16 {
	maxp := t["maxp"]
	if len(maxp) < 6 {
		return 0
	}
	return binary.BigEndian.Uint16(maxp[4:6])
}

// UnitsPerEm reads the design grid size from the head table.
func (t Tables) UnitsPerEm() uint16 {
	head := t["head"]
	if len(head) < 20 {
		return 0
	}
	return binary.BigEndian.Uint16(head[18:20])
}

// SelectFace returns a copy of a collection whose first directory entry
// points at face index, so parsers that only read the first face of a
// collection see the requested one. Plain fonts are returned unchanged.
func SelectFace(data []byte, index uint32) ([]byte, error) {
	off, err := FaceOffset(data, index)
	if err != nil {
		return nil, err
	}
	if !IsCollection(data) || index == 0 {
		return data, nil
	}
	out := make([]byte, len(data))
	copy(out, data)
	binary.BigEndian.PutUint32(out[12:16], uint32(off)) //nolint:gosec // read from a uint32 field
	return out, nil
}
