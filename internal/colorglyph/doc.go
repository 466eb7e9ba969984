// Package colorglyph reads the color glyph tables of an OpenType font:
// CBDT/CBLC and sbix embedded bitmaps and COLR/CPAL layered glyphs.
//
// The scaler backend uses it because its outline parser has no color
// support. Only the table directory and the color tables are parsed;
// outlines come from the caller.
package colorglyph
