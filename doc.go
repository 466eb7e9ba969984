// Package glyphraster rasterizes text glyphs into 4-byte-per-pixel buffers
// ready for upload into a GPU glyph texture cache.
//
// # Overview
//
// Rendering workers each own a [FontContext]. A context registers fonts by
// [FontKey], answers character-to-glyph and glyph-metric queries, and turns a
// ([FontInstance], [GlyphKey]) pair into a [RasterizedGlyph] whose bytes are
// laid out as BGRA8, one pixel per four bytes.
//
// Parsed fonts are shared across contexts through a process-wide font store
// (see package fontstore). The store never blocks a rendering worker: when its
// lock is held by another goroutine the calling context falls back to a
// private parse instead of waiting.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/glyphraster"
//	    _ "github.com/gogpu/glyphraster/backend/builtin"
//	)
//
//	ctx, err := glyphraster.NewFontContext()
//	if err != nil {
//	    return err
//	}
//	key := glyphraster.FontKey{Namespace: 1, ID: 1}
//	ctx.AddRawFont(key, ttf, 0)
//
//	inst := glyphraster.FontInstance{FontKey: key, Size: 16, RenderMode: glyphraster.RenderAlpha}
//	glyphraster.PrepareFont(&inst)
//
//	gid, _ := ctx.GlyphIndex(key, 'g')
//	glyph, err := ctx.RasterizeGlyph(&inst, glyphraster.GlyphKey{Index: gid})
//
// # Backends
//
// Two interchangeable backends implement [Backend]:
//   - backend/outline: go-text/typesetting outlines rasterized with
//     x/image/vector, falling back to embedded SVG and bitmap glyphs
//   - backend/scaler: hinted TrueType outlines via golang/freetype with color
//     bitmap and layered color glyph support and a per-instance image cache
//
// Import backend/builtin to register both. The outline backend is the default;
// build with the glyphraster_scaler tag to prefer the scaler.
//
// # Concurrency
//
// A FontContext is not safe for concurrent use. Create one per worker, or use
// [Pool] which owns one context per worker goroutine.
package glyphraster
