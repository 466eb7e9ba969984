// Command glyphdump rasterizes a string with glyphraster and writes one PNG
// per glyph.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/unicode/runenames"

	"github.com/gogpu/glyphraster"
	_ "github.com/gogpu/glyphraster/backend/builtin"
)

var fontKey = glyphraster.FontKey{Namespace: 1, ID: 1}

type config struct {
	fontPath string
	index    uint
	text     string
	size     float64
	mode     string
	backends []string
	outDir   string
	zoom     int
	bgr      bool
	bold     bool
	italic   bool
}

func main() {
	var (
		cfg     config
		backend = flag.String("backend", "", "backend name (default: registry default)")
		compare = flag.Bool("compare", false, "rasterize with every registered backend")
		verbose = flag.Bool("v", false, "debug logging")
	)
	flag.StringVar(&cfg.fontPath, "font", "", "font file (default: Go Regular)")
	flag.UintVar(&cfg.index, "index", 0, "face index within a collection")
	flag.StringVar(&cfg.text, "text", "Hello", "text to rasterize")
	flag.Float64Var(&cfg.size, "size", 32, "pixel size")
	flag.StringVar(&cfg.mode, "mode", "alpha", "render mode: mono, alpha or subpixel")
	flag.StringVar(&cfg.outDir, "out", "glyphs", "output directory")
	flag.IntVar(&cfg.zoom, "zoom", 4, "integer upscale of written images")
	flag.BoolVar(&cfg.bgr, "bgr", false, "BGR sub-pixel order")
	flag.BoolVar(&cfg.bold, "bold", false, "synthetic bold")
	flag.BoolVar(&cfg.italic, "italic", false, "synthetic italics")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	glyphraster.SetLogger(logger)

	switch {
	case *compare:
		cfg.backends = glyphraster.AvailableBackends()
	case *backend != "":
		cfg.backends = []string{*backend}
	default:
		cfg.backends = []string{""}
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("glyphdump failed", "err", err)
		os.Exit(1)
	}
}

func run(cfg config, logger *slog.Logger) error {
	data := goregular.TTF
	if cfg.fontPath != "" {
		var err error
		if data, err = os.ReadFile(cfg.fontPath); err != nil {
			return err
		}
	}
	mode, err := parseMode(cfg.mode)
	if err != nil {
		return err
	}

	inst := glyphraster.FontInstance{
		FontKey:     fontKey,
		InstanceKey: glyphraster.FontInstanceKey{Namespace: 1, ID: 1},
		Size:        float32(cfg.size),
		RenderMode:  mode,
	}
	if cfg.bgr {
		inst.Flags |= glyphraster.FlagSubpixelBGR
	}
	if cfg.bold {
		inst.Flags |= glyphraster.FlagSyntheticBold
	}
	if cfg.italic {
		inst.Flags |= glyphraster.FlagSyntheticItalics
	}
	glyphraster.PrepareFont(&inst)

	text := norm.NFC.String(cfg.text)

	// One context per goroutine; the parsed font is shared through the
	// backend's store.
	var g errgroup.Group
	for _, name := range cfg.backends {
		g.Go(func() error {
			return dump(cfg, logger, name, data, inst, text)
		})
	}
	return g.Wait()
}

func parseMode(s string) (glyphraster.RenderMode, error) {
	switch s {
	case "mono":
		return glyphraster.RenderMono, nil
	case "alpha":
		return glyphraster.RenderAlpha, nil
	case "subpixel":
		return glyphraster.RenderSubpixel, nil
	}
	return 0, fmt.Errorf("unknown render mode %q", s)
}

func dump(cfg config, logger *slog.Logger, backend string, data []byte, inst glyphraster.FontInstance, text string) error {
	var opts []glyphraster.Option
	if backend != "" {
		opts = append(opts, glyphraster.WithBackend(backend))
	}
	ctx, err := glyphraster.NewFontContext(opts...)
	if err != nil {
		return err
	}
	defer ctx.Close()
	ctx.AddRawFont(fontKey, data, uint32(cfg.index))

	dir := filepath.Join(cfg.outDir, ctx.Backend().Name())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	log := logger.With("backend", ctx.Backend().Name())
	for i, r := range []rune(text) {
		gid, ok := ctx.GlyphIndex(fontKey, r)
		if !ok {
			log.Warn("no glyph", "rune", fmt.Sprintf("%U", r), "name", runenames.Name(r))
			continue
		}
		g, err := ctx.RasterizeGlyph(&inst, glyphraster.GlyphKey{Index: gid})
		if err != nil {
			log.Info("skipped", "rune", fmt.Sprintf("%U", r), "glyph", gid, "err", err)
			continue
		}
		log.Info("glyph",
			"rune", fmt.Sprintf("%U", r),
			"name", runenames.Name(r),
			"glyph", gid,
			"left", g.Left,
			"top", g.Top,
			"width", g.Width,
			"height", g.Height,
			"scale", g.Scale,
			"format", g.Format)

		path := filepath.Join(dir, fmt.Sprintf("%03d_%04x.png", i, r))
		if err := writePNG(path, g, cfg.zoom); err != nil {
			return err
		}
	}
	return nil
}

// writePNG converts the BGRA glyph to RGBA and writes it upscaled by zoom.
func writePNG(path string, g *glyphraster.RasterizedGlyph, zoom int) error {
	src := image.NewRGBA(image.Rect(0, 0, int(g.Width), int(g.Height)))
	for i := 0; i+3 < len(g.Bytes); i += 4 {
		src.Pix[i], src.Pix[i+1], src.Pix[i+2], src.Pix[i+3] = g.Bytes[i+2], g.Bytes[i+1], g.Bytes[i], g.Bytes[i+3]
	}
	zoom = max(zoom, 1)
	dst := image.NewRGBA(image.Rect(0, 0, src.Rect.Dx()*zoom, src.Rect.Dy()*zoom))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, dst); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
