// Package outline is the default glyph backend. It rasterizes TrueType and
// CFF outlines with golang.org/x/image/vector and falls back to embedded
// SVG documents and bitmap strikes for glyphs without an outline.
//
// Parsed fonts are shared between contexts through a process-wide
// fontstore.Store. Each Backend keeps its own font.Face per font, since
// faces are not safe for concurrent use.
//
// Importing the package registers the backend under
// glyphraster.BackendOutline.
package outline
