// Package scaler is the hinting glyph backend. Outlines are grid-fitted by
// the TrueType bytecode interpreter of github.com/golang/freetype and
// scan-converted by its rasterizer. Color glyphs are taken from COLR layers
// first, then from CBDT or sbix strikes, then from the plain outline.
//
// Rendered images are cached per (FontInstance, GlyphKey) until the font or
// the instance is deleted. The cache has no size bound.
//
// Importing the package registers the backend under
// glyphraster.BackendScaler. Only TrueType-flavored fonts are supported;
// registering a CFF font panics like any other unparseable font.
package scaler
