package colorglyph

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"sort"
	"testing"
)

var be = binary.BigEndian

func makePNG(t *testing.T, w, h int, c color.NRGBA) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}
	return buf.Bytes()
}

func makeHead(upem uint16) []byte {
	head := make([]byte, 54)
	be.PutUint16(head[18:], upem)
	return head
}

func makeMaxp(numGlyphs uint16) []byte {
	maxp := make([]byte, 6)
	be.PutUint32(maxp[0:], 0x00005000)
	be.PutUint16(maxp[4:], numGlyphs)
	return maxp
}

// makeFont lays out one or more faces. With collection set the output is a
// TTC whose faces do not share table data.
func makeFont(collection bool, faces ...map[string][]byte) []byte {
	header := 0
	if collection {
		header = 12 + 4*len(faces)
	}
	dirs := 0
	for _, f := range faces {
		dirs += 12 + 16*len(f)
	}

	out := make([]byte, 0, header+dirs)
	if collection {
		out = append(out, "ttcf"...)
		out = be.AppendUint32(out, 0x00010000)
		out = be.AppendUint32(out, uint32(len(faces)))
		pos := header
		for _, f := range faces {
			out = be.AppendUint32(out, uint32(pos))
			pos += 12 + 16*len(f)
		}
	}

	var data []byte
	dataStart := header + dirs
	for _, f := range faces {
		tags := make([]string, 0, len(f))
		for tag := range f {
			tags = append(tags, tag)
		}
		sort.Strings(tags)

		out = be.AppendUint32(out, 0x00010000)
		out = be.AppendUint16(out, uint16(len(tags)))
		out = append(out, make([]byte, 6)...)
		for _, tag := range tags {
			out = append(out, tag...)
			out = be.AppendUint32(out, 0)
			out = be.AppendUint32(out, uint32(dataStart+len(data)))
			out = be.AppendUint32(out, uint32(len(f[tag])))
			data = append(data, f[tag]...)
		}
	}
	return append(out, data...)
}

// makeCBLC builds an empty-strike CBLC with one size record per ppem.
func makeCBLC(ppems ...uint8) []byte {
	out := be.AppendUint16(nil, 3)
	out = be.AppendUint16(out, 0)
	out = be.AppendUint32(out, uint32(len(ppems)))
	for _, ppem := range ppems {
		rec := make([]byte, 48)
		be.PutUint16(rec[40:], 1)
		be.PutUint16(rec[42:], 1)
		rec[44], rec[45], rec[46] = ppem, ppem, 32
		out = append(out, rec...)
	}
	return out
}

type testBitmap struct {
	png                []byte
	width, height      uint8
	bearingX, bearingY int8
}

// makeCBDT builds one strike holding consecutive glyphs from first, using
// index format 1 and image format 17.
func makeCBDT(ppem uint8, first uint16, glyphs []testBitmap) (cbdt, cblc []byte) {
	cbdt = []byte{0, 3, 0, 0}
	offsets := []uint32{0}
	for _, g := range glyphs {
		cbdt = append(cbdt, g.height, g.width, byte(g.bearingX), byte(g.bearingY), g.width)
		cbdt = be.AppendUint32(cbdt, uint32(len(g.png)))
		cbdt = append(cbdt, g.png...)
		offsets = append(offsets, uint32(len(cbdt)-4))
	}

	last := first + uint16(len(glyphs)) - 1
	cblc = be.AppendUint16(nil, 3)
	cblc = be.AppendUint16(cblc, 0)
	cblc = be.AppendUint32(cblc, 1)
	size := make([]byte, 48)
	be.PutUint32(size[0:], 56)
	be.PutUint32(size[8:], 1)
	be.PutUint16(size[40:], first)
	be.PutUint16(size[42:], last)
	size[44], size[45], size[46] = ppem, ppem, 32
	cblc = append(cblc, size...)

	// Subtable array at 56, subtable right after it.
	cblc = be.AppendUint16(cblc, first)
	cblc = be.AppendUint16(cblc, last)
	cblc = be.AppendUint32(cblc, 8)
	cblc = be.AppendUint16(cblc, indexFormat1)
	cblc = be.AppendUint16(cblc, imageFormat17)
	cblc = be.AppendUint32(cblc, 4)
	for _, off := range offsets {
		cblc = be.AppendUint32(cblc, off)
	}
	return cbdt, cblc
}

type testSBIXGlyph struct {
	originX, originY int16
	graphic          string
	data             []byte
}

// makeSBIX builds a single strike. Nil entries are empty glyphs.
func makeSBIX(ppem uint16, glyphs []*testSBIXGlyph) []byte {
	out := be.AppendUint16(nil, 1)
	out = be.AppendUint16(out, 0)
	out = be.AppendUint32(out, 1)
	out = be.AppendUint32(out, 12)

	var records []byte
	strikeHeader := 4 + 4*(len(glyphs)+1)
	out = be.AppendUint16(out, ppem)
	out = be.AppendUint16(out, 72)
	for _, g := range glyphs {
		out = be.AppendUint32(out, uint32(strikeHeader+len(records)))
		if g == nil {
			continue
		}
		records = be.AppendUint16(records, uint16(g.originX))
		records = be.AppendUint16(records, uint16(g.originY))
		records = append(records, g.graphic...)
		records = append(records, g.data...)
	}
	out = be.AppendUint32(out, uint32(strikeHeader+len(records)))
	return append(out, records...)
}

type testBase struct {
	glyph  uint16
	layers [][2]uint16 // glyph, palette index
}

func makeCOLR(bases ...testBase) []byte {
	numLayers := 0
	for _, b := range bases {
		numLayers += len(b.layers)
	}
	out := be.AppendUint16(nil, 0)
	out = be.AppendUint16(out, uint16(len(bases)))
	out = be.AppendUint32(out, 14)
	out = be.AppendUint32(out, uint32(14+6*len(bases)))
	out = be.AppendUint16(out, uint16(numLayers))

	var layers []byte
	first := 0
	for _, b := range bases {
		out = be.AppendUint16(out, b.glyph)
		out = be.AppendUint16(out, uint16(first))
		out = be.AppendUint16(out, uint16(len(b.layers)))
		for _, l := range b.layers {
			layers = be.AppendUint16(layers, l[0])
			layers = be.AppendUint16(layers, l[1])
		}
		first += len(b.layers)
	}
	return append(out, layers...)
}

func makeCPAL(palettes ...[]color.NRGBA) []byte {
	entries := 0
	if len(palettes) > 0 {
		entries = len(palettes[0])
	}
	out := be.AppendUint16(nil, 0)
	out = be.AppendUint16(out, uint16(entries))
	out = be.AppendUint16(out, uint16(len(palettes)))
	out = be.AppendUint16(out, uint16(entries*len(palettes)))
	out = be.AppendUint32(out, uint32(12+2*len(palettes)))
	for i := range palettes {
		out = be.AppendUint16(out, uint16(i*entries))
	}
	for _, p := range palettes {
		for _, c := range p {
			out = append(out, c.B, c.G, c.R, c.A)
		}
	}
	return out
}
