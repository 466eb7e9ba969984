package colorglyph

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"testing"
)

func TestStrikeStrategy_String(t *testing.T) {
	tests := []struct {
		s    StrikeStrategy
		want string
	}{
		{StrikeBestFit, "BestFit"},
		{StrikeExact, "Exact"},
		{StrikeStrategy(99), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("StrikeStrategy(%d).String() = %q, want %q", tt.s, got, tt.want)
		}
	}
}

func TestSelectStrike(t *testing.T) {
	ppems := []uint16{20, 64, 136, 109}
	tests := []struct {
		name     string
		ppem     uint16
		strategy StrikeStrategy
		want     int
	}{
		{"best fit rounds up", 50, StrikeBestFit, 1},
		{"best fit exact", 109, StrikeBestFit, 3},
		{"best fit too large", 200, StrikeBestFit, 2},
		{"best fit tiny", 1, StrikeBestFit, 0},
		{"exact hit", 64, StrikeExact, 1},
		{"exact miss", 50, StrikeExact, -1},
		{"exact unordered", 109, StrikeExact, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := selectStrike(ppems, tt.ppem, tt.strategy); got != tt.want {
				t.Errorf("selectStrike(%d, %v) = %d, want %d", tt.ppem, tt.strategy, got, tt.want)
			}
		})
	}
	if got := selectStrike(nil, 16, StrikeBestFit); got != -1 {
		t.Errorf("selectStrike(nil) = %d, want -1", got)
	}
}

func TestBitmapFormat_String(t *testing.T) {
	tests := []struct {
		f    BitmapFormat
		want string
	}{
		{FormatPNG, "PNG"},
		{FormatJPEG, "JPEG"},
		{FormatTIFF, "TIFF"},
		{FormatDupe, "Dupe"},
		{BitmapFormat(42), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.f.String(); got != tt.want {
			t.Errorf("BitmapFormat(%d).String() = %q, want %q", tt.f, got, tt.want)
		}
	}
}

func TestBitmapGlyph_Decode(t *testing.T) {
	g := &BitmapGlyph{Data: makePNG(t, 3, 2, color.NRGBA{R: 255, A: 255}), Format: FormatPNG}
	img, err := g.Decode()
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got := img.Bounds().Size(); got != (image.Point{X: 3, Y: 2}) {
		t.Errorf("Decode() size = %v, want (3,2)", got)
	}

	g.Format = FormatDupe
	if _, err := g.Decode(); !errors.Is(err, ErrUnsupportedBitmapFormat) {
		t.Errorf("Decode(dupe) error = %v, want %v", err, ErrUnsupportedBitmapFormat)
	}
}

func TestReadTables(t *testing.T) {
	data := makeFont(false, map[string][]byte{"head": makeHead(2048), "maxp": makeMaxp(7)})
	tables, err := ReadTables(data, 0)
	if err != nil {
		t.Fatalf("ReadTables() error = %v", err)
	}
	if got := tables.UnitsPerEm(); got != 2048 {
		t.Errorf("UnitsPerEm() = %d, want 2048", got)
	}
	if got := tables.NumGlyphs(); got != 7 {
		t.Errorf("NumGlyphs() = %d, want 7", got)
	}
	if IsCollection(data) {
		t.Error("IsCollection(plain) = true, want false")
	}
	if _, err := ReadTables(data, 1); !errors.Is(err, ErrFaceIndex) {
		t.Errorf("ReadTables(index 1) error = %v, want %v", err, ErrFaceIndex)
	}
	if _, err := ReadTables(data[:8], 0); !errors.Is(err, ErrInvalidFont) {
		t.Errorf("ReadTables(truncated) error = %v, want %v", err, ErrInvalidFont)
	}
}

func TestReadTables_Collection(t *testing.T) {
	data := makeFont(true,
		map[string][]byte{"head": makeHead(1000)},
		map[string][]byte{"head": makeHead(2048), "maxp": makeMaxp(3)},
	)
	if !IsCollection(data) {
		t.Fatal("IsCollection() = false, want true")
	}
	for index, want := range []uint16{1000, 2048} {
		tables, err := ReadTables(data, uint32(index))
		if err != nil {
			t.Fatalf("ReadTables(%d) error = %v", index, err)
		}
		if got := tables.UnitsPerEm(); got != want {
			t.Errorf("ReadTables(%d).UnitsPerEm() = %d, want %d", index, got, want)
		}
	}
	if _, err := ReadTables(data, 2); !errors.Is(err, ErrFaceIndex) {
		t.Errorf("ReadTables(2) error = %v, want %v", err, ErrFaceIndex)
	}
}

func TestSelectFace(t *testing.T) {
	data := makeFont(true,
		map[string][]byte{"head": makeHead(1000)},
		map[string][]byte{"head": makeHead(2048)},
	)
	out, err := SelectFace(data, 1)
	if err != nil {
		t.Fatalf("SelectFace() error = %v", err)
	}
	tables, err := ReadTables(out, 0)
	if err != nil {
		t.Fatalf("ReadTables() error = %v", err)
	}
	if got := tables.UnitsPerEm(); got != 2048 {
		t.Errorf("first face UnitsPerEm() = %d, want 2048", got)
	}
	if orig, _ := ReadTables(data, 0); orig.UnitsPerEm() != 1000 {
		t.Error("SelectFace() modified its input")
	}

	plain := makeFont(false, map[string][]byte{"head": makeHead(1000)})
	if same, err := SelectFace(plain, 0); err != nil || !bytes.Equal(same, plain) {
		t.Errorf("SelectFace(plain) = %v, %v; want input unchanged", len(same), err)
	}
}

func TestCBDTExtractor(t *testing.T) {
	red := makePNG(t, 4, 5, color.NRGBA{R: 255, A: 255})
	blue := makePNG(t, 2, 2, color.NRGBA{B: 255, A: 255})
	cbdt, cblc := makeCBDT(109, 3, []testBitmap{
		{png: red, width: 4, height: 5, bearingX: 1, bearingY: 9},
		{png: blue, width: 2, height: 2, bearingX: -1, bearingY: 2},
	})

	e, err := NewCBDTExtractor(cbdt, cblc)
	if err != nil {
		t.Fatalf("NewCBDTExtractor() error = %v", err)
	}
	if got := e.NumStrikes(); got != 1 {
		t.Errorf("NumStrikes() = %d, want 1", got)
	}
	if got := e.StrikePPEM(0); got != 109 {
		t.Errorf("StrikePPEM(0) = %d, want 109", got)
	}

	g, err := e.GetGlyphWithStrategy(3, 32, StrikeBestFit)
	if err != nil {
		t.Fatalf("GetGlyphWithStrategy(3) error = %v", err)
	}
	if !bytes.Equal(g.Data, red) {
		t.Error("GetGlyphWithStrategy(3) data differs from stored image")
	}
	if g.Width != 4 || g.Height != 5 || g.BearingX != 1 || g.BearingY != 9 || g.PPEM != 109 {
		t.Errorf("GetGlyphWithStrategy(3) = %dx%d bearing (%v,%v) ppem %d, want 4x5 (1,9) 109",
			g.Width, g.Height, g.BearingX, g.BearingY, g.PPEM)
	}

	g, err = e.GetGlyphWithStrategy(4, 109, StrikeExact)
	if err != nil {
		t.Fatalf("GetGlyphWithStrategy(4, exact 109) error = %v", err)
	}
	if !bytes.Equal(g.Data, blue) || g.BearingX != -1 {
		t.Errorf("GetGlyphWithStrategy(4) bearingX = %v, want -1 and blue image", g.BearingX)
	}

	if !e.HasGlyph(4) || e.HasGlyph(5) {
		t.Error("HasGlyph() disagrees with the strike range 3..4")
	}
	if _, err := e.GetGlyphWithStrategy(9, 109, StrikeBestFit); !errors.Is(err, ErrGlyphNotInBitmap) {
		t.Errorf("GetGlyphWithStrategy(9) error = %v, want %v", err, ErrGlyphNotInBitmap)
	}
	if _, err := e.GetGlyphWithStrategy(3, 64, StrikeExact); !errors.Is(err, ErrNoStrikeAvailable) {
		t.Errorf("GetGlyphWithStrategy(exact 64) error = %v, want %v", err, ErrNoStrikeAvailable)
	}
	if _, err := e.GetGlyphAtStrike(3, 1); !errors.Is(err, ErrNoStrikeAvailable) {
		t.Errorf("GetGlyphAtStrike(strike 1) error = %v, want %v", err, ErrNoStrikeAvailable)
	}
}

func TestNewCBDTExtractor_Errors(t *testing.T) {
	cbdt := []byte{0, 3, 0, 0}
	tests := []struct {
		name       string
		cbdt, cblc []byte
		want       error
	}{
		{"no cbdt", nil, makeCBLC(20), ErrInvalidCBDTData},
		{"no cblc", cbdt, nil, ErrInvalidCBLCData},
		{"truncated sizes", cbdt, makeCBLC(20, 40)[:60], ErrInvalidCBLCData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewCBDTExtractor(tt.cbdt, tt.cblc); !errors.Is(err, tt.want) {
				t.Errorf("NewCBDTExtractor() error = %v, want %v", err, tt.want)
			}
		})
	}

	bad := makeCBLC(20)
	bad[1] = 2
	if _, err := NewCBDTExtractor(cbdt, bad); err == nil {
		t.Error("NewCBDTExtractor(version 2) error = nil, want error")
	}
}

func TestCBDTExtractor_AvailablePPEMs(t *testing.T) {
	e, err := NewCBDTExtractor([]byte{0, 3, 0, 0}, makeCBLC(20, 109, 64))
	if err != nil {
		t.Fatalf("NewCBDTExtractor() error = %v", err)
	}
	got := e.AvailablePPEMs()
	want := []uint16{20, 109, 64}
	if len(got) != len(want) {
		t.Fatalf("AvailablePPEMs() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("AvailablePPEMs()[%d] = %d, want %d", i, got[i], want[i])
		}
	}
	if got := e.SelectStrike(30, StrikeBestFit); got != 2 {
		t.Errorf("SelectStrike(30) = %d, want 2", got)
	}
	if got := e.StrikePPEM(5); got != 0 {
		t.Errorf("StrikePPEM(5) = %d, want 0", got)
	}
}

func TestSBIXParser(t *testing.T) {
	img := makePNG(t, 6, 4, color.NRGBA{G: 255, A: 255})
	data := makeSBIX(64, []*testSBIXGlyph{
		nil,
		{originX: 2, originY: -3, graphic: "png ", data: img},
		{graphic: "dupe", data: []byte{0, 1}},
		{graphic: "pdf ", data: []byte{1, 2, 3}},
	})

	p, err := NewSBIXParser(data, 4)
	if err != nil {
		t.Fatalf("NewSBIXParser() error = %v", err)
	}
	if got := p.NumStrikes(); got != 1 {
		t.Errorf("NumStrikes() = %d, want 1", got)
	}
	if got := p.StrikePPEM(0); got != 64 {
		t.Errorf("StrikePPEM(0) = %d, want 64", got)
	}
	if got := p.SelectStrike(200, StrikeBestFit); got != 0 {
		t.Errorf("SelectStrike(200) = %d, want 0", got)
	}

	g, err := p.GetGlyph(1, 0)
	if err != nil {
		t.Fatalf("GetGlyph(1) error = %v", err)
	}
	if g.Format != FormatPNG || g.Width != 6 || g.Height != 4 {
		t.Errorf("GetGlyph(1) = %v %dx%d, want PNG 6x4", g.Format, g.Width, g.Height)
	}
	if g.BearingX != 2 || g.BearingY != 1 {
		t.Errorf("GetGlyph(1) bearing = (%v,%v), want (2,1)", g.BearingX, g.BearingY)
	}

	dupe, err := p.GetGlyph(2, 0)
	if err != nil {
		t.Fatalf("GetGlyph(dupe) error = %v", err)
	}
	if !bytes.Equal(dupe.Data, img) {
		t.Error("GetGlyph(dupe) did not resolve to the referenced image")
	}

	if _, err := p.GetGlyph(0, 0); !errors.Is(err, ErrGlyphNotInBitmap) {
		t.Errorf("GetGlyph(empty) error = %v, want %v", err, ErrGlyphNotInBitmap)
	}
	if _, err := p.GetGlyph(3, 0); !errors.Is(err, ErrUnsupportedBitmapFormat) {
		t.Errorf("GetGlyph(pdf) error = %v, want %v", err, ErrUnsupportedBitmapFormat)
	}
	if _, err := p.GetGlyph(1, 3); !errors.Is(err, ErrGlyphNotInBitmap) {
		t.Errorf("GetGlyph(strike 3) error = %v, want %v", err, ErrGlyphNotInBitmap)
	}
}

func TestNewSBIXParser_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"short", []byte{0, 1, 0, 0}},
		{"bad version", []byte{0, 2, 0, 0, 0, 0, 0, 0}},
		{"missing offsets", []byte{0, 1, 0, 0, 0, 0, 0, 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewSBIXParser(tt.data, 1); !errors.Is(err, ErrInvalidSBIXData) {
				t.Errorf("NewSBIXParser() error = %v, want %v", err, ErrInvalidSBIXData)
			}
		})
	}
}

var (
	testRed   = color.NRGBA{R: 255, A: 255}
	testGreen = color.NRGBA{G: 255, A: 255}
)

func TestCOLRParser(t *testing.T) {
	colr := makeCOLR(
		testBase{glyph: 5, layers: [][2]uint16{{10, 1}, {11, ForegroundPalette}}},
		testBase{glyph: 9, layers: [][2]uint16{{12, 0}}},
	)
	cpal := makeCPAL([]color.NRGBA{testRed, testGreen}, []color.NRGBA{testGreen, testRed})

	p, err := NewCOLRParser(colr, cpal)
	if err != nil {
		t.Fatalf("NewCOLRParser() error = %v", err)
	}
	if !p.HasGlyph(5) || !p.HasGlyph(9) || p.HasGlyph(6) {
		t.Error("HasGlyph() disagrees with base records 5 and 9")
	}

	layers, err := p.Layers(5, 0)
	if err != nil {
		t.Fatalf("Layers(5) error = %v", err)
	}
	want := []Layer{
		{GlyphID: 10, PaletteIndex: 1, Color: testGreen},
		{GlyphID: 11, PaletteIndex: ForegroundPalette},
	}
	if len(layers) != len(want) {
		t.Fatalf("Layers(5) = %v, want %v", layers, want)
	}
	for i := range want {
		if layers[i] != want[i] {
			t.Errorf("Layers(5)[%d] = %+v, want %+v", i, layers[i], want[i])
		}
	}
	if !layers[1].IsForeground() || layers[0].IsForeground() {
		t.Error("IsForeground() wrong for layers of glyph 5")
	}

	alt, _ := p.Layers(5, 1)
	if alt[0].Color != testRed {
		t.Errorf("Layers(5, palette 1)[0].Color = %v, want %v", alt[0].Color, testRed)
	}
	if _, err := p.Layers(6, 0); !errors.Is(err, ErrGlyphNotInCOLR) {
		t.Errorf("Layers(6) error = %v, want %v", err, ErrGlyphNotInCOLR)
	}
}

func TestNewCOLRParser_Errors(t *testing.T) {
	cpal := makeCPAL([]color.NRGBA{testRed})
	colr := makeCOLR(testBase{glyph: 1, layers: [][2]uint16{{2, 0}}})
	if _, err := NewCOLRParser(colr[:10], cpal); !errors.Is(err, ErrInvalidCOLRData) {
		t.Errorf("NewCOLRParser(short colr) error = %v, want %v", err, ErrInvalidCOLRData)
	}
	if _, err := NewCOLRParser(colr[:len(colr)-2], cpal); !errors.Is(err, ErrInvalidCOLRData) {
		t.Errorf("NewCOLRParser(truncated layers) error = %v, want %v", err, ErrInvalidCOLRData)
	}
	if _, err := NewCOLRParser(colr, cpal[:len(cpal)-1]); !errors.Is(err, ErrInvalidCPALData) {
		t.Errorf("NewCOLRParser(truncated cpal) error = %v, want %v", err, ErrInvalidCPALData)
	}
}

func TestComposite(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 2, 1))
	full := &image.Alpha{Pix: []byte{0xFF, 0xFF}, Stride: 2, Rect: dst.Rect}
	right := &image.Alpha{Pix: []byte{0x00, 0xFF}, Stride: 2, Rect: dst.Rect}
	layers := []Layer{
		{GlyphID: 1, PaletteIndex: 0, Color: testRed},
		{GlyphID: 2, PaletteIndex: ForegroundPalette},
		{GlyphID: 3, PaletteIndex: 1, Color: testGreen},
	}
	fg := color.NRGBA{B: 255, A: 255}

	Composite(dst, layers, []*image.Alpha{full, right, nil}, fg)

	want := []byte{255, 0, 0, 255, 0, 0, 255, 255}
	if !bytes.Equal(dst.Pix, want) {
		t.Errorf("Composite() pixels = %v, want %v", dst.Pix, want)
	}
}

func TestParse(t *testing.T) {
	img := makePNG(t, 2, 2, testRed)
	cbdt, cblc := makeCBDT(32, 1, []testBitmap{{png: img, width: 2, height: 2, bearingY: 2}})
	data := makeFont(false, map[string][]byte{
		"head": makeHead(1000),
		"maxp": makeMaxp(4),
		"CBDT": cbdt,
		"CBLC": cblc,
		"COLR": makeCOLR(testBase{glyph: 2, layers: [][2]uint16{{3, 0}}}),
		"CPAL": makeCPAL([]color.NRGBA{testGreen}),
	})

	f, err := Parse(data, 0)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := f.UnitsPerEm(); got != 1000 {
		t.Errorf("UnitsPerEm() = %d, want 1000", got)
	}
	if !f.HasBitmaps() || !f.HasLayers() {
		t.Errorf("HasBitmaps() = %v, HasLayers() = %v, want both true", f.HasBitmaps(), f.HasLayers())
	}
	g, err := f.Bitmap(1, 16, StrikeBestFit)
	if err != nil {
		t.Fatalf("Bitmap(1) error = %v", err)
	}
	if g.PPEM != 32 || !bytes.Equal(g.Data, img) {
		t.Errorf("Bitmap(1) ppem = %d, want 32 and stored image", g.PPEM)
	}
	if _, err := f.Bitmap(1, 16, StrikeExact); !errors.Is(err, ErrGlyphNotInBitmap) {
		t.Errorf("Bitmap(1, exact 16) error = %v, want %v", err, ErrGlyphNotInBitmap)
	}
	if g, err := f.Bitmap(1, 32, StrikeExact); err != nil || g.PPEM != 32 {
		t.Errorf("Bitmap(1, exact 32) = %v, %v; want the 32 ppem strike", g, err)
	}
	if _, err := f.Bitmap(2, 16, StrikeBestFit); !errors.Is(err, ErrGlyphNotInBitmap) {
		t.Errorf("Bitmap(2) error = %v, want %v", err, ErrGlyphNotInBitmap)
	}
	for gid, want := range map[uint16]bool{1: true, 2: true, 3: false} {
		if got := f.HasColor(gid); got != want {
			t.Errorf("HasColor(%d) = %v, want %v", gid, got, want)
		}
	}
	layers, err := f.Layers(2)
	if err != nil || len(layers) != 1 || layers[0].Color != testGreen {
		t.Errorf("Layers(2) = %v, %v; want one green layer", layers, err)
	}
}

func TestParse_NoColorTables(t *testing.T) {
	f, err := Parse(makeFont(false, map[string][]byte{"head": makeHead(2048)}), 0)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if f.HasBitmaps() || f.HasLayers() || f.HasColor(1) {
		t.Error("plain face reports color tables")
	}
	if _, err := f.Bitmap(1, 16, StrikeBestFit); !errors.Is(err, ErrGlyphNotInBitmap) {
		t.Errorf("Bitmap() error = %v, want %v", err, ErrGlyphNotInBitmap)
	}
	if _, err := f.Layers(1); !errors.Is(err, ErrGlyphNotInCOLR) {
		t.Errorf("Layers() error = %v, want %v", err, ErrGlyphNotInCOLR)
	}
}

func TestParse_SBIX(t *testing.T) {
	img := makePNG(t, 3, 3, testGreen)
	data := makeFont(false, map[string][]byte{
		"head": makeHead(1000),
		"maxp": makeMaxp(2),
		"sbix": makeSBIX(20, []*testSBIXGlyph{nil, {graphic: "png ", data: img}}),
	})

	f, err := Parse(data, 0)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !f.HasBitmaps() || !f.HasColor(1) {
		t.Errorf("HasBitmaps() = %v, HasColor(1) = %v, want both true", f.HasBitmaps(), f.HasColor(1))
	}
	if g, err := f.Bitmap(1, 20, StrikeExact); err != nil || !bytes.Equal(g.Data, img) {
		t.Errorf("Bitmap(1, exact 20) = %v, %v; want the stored image", g, err)
	}
	if _, err := f.Bitmap(1, 40, StrikeExact); !errors.Is(err, ErrGlyphNotInBitmap) {
		t.Errorf("Bitmap(1, exact 40) error = %v, want %v", err, ErrGlyphNotInBitmap)
	}
	if g, err := f.Bitmap(1, 40, StrikeBestFit); err != nil || g.PPEM != 20 {
		t.Errorf("Bitmap(1, best fit 40) = %v, %v; want the 20 ppem strike", g, err)
	}
}
