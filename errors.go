package glyphraster

import (
	"errors"
	"fmt"
)

var (
	// ErrLoadFailed is the only per-glyph failure kind. Callers substitute a
	// placeholder box for the glyph.
	ErrLoadFailed = errors.New("glyphraster: glyph load failed")

	// ErrEmptyFontData is returned for a template without bytes.
	ErrEmptyFontData = errors.New("glyphraster: empty font data")

	// ErrUnknownBackend is returned when a named backend is not registered.
	ErrUnknownBackend = errors.New("glyphraster: unknown backend")

	// ErrNoBackend is returned when no backend has been registered.
	ErrNoBackend = errors.New("glyphraster: no backend registered")
)

// RasterError reports why a glyph could not be rasterized. It always
// matches ErrLoadFailed with errors.Is.
type RasterError struct {
	Font   FontKey
	Glyph  uint32
	Reason string
	Err    error
}

func (e *RasterError) Error() string {
	msg := fmt.Sprintf("glyphraster: rasterize glyph %d of font %s: %s", e.Glyph, e.Font, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *RasterError) Unwrap() error { return e.Err }

// Is reports ErrLoadFailed as a match.
func (e *RasterError) Is(target error) bool { return target == ErrLoadFailed }

// LoadFailed builds a RasterError for the given glyph.
func LoadFailed(font FontKey, glyph uint32, reason string, cause error) *RasterError {
	return &RasterError{Font: font, Glyph: glyph, Reason: reason, Err: cause}
}

// FontParseError is the panic value raised when a font template cannot be
// parsed at registration. A font that fails to parse cannot serve any glyph.
type FontParseError struct {
	Font  FontKey
	Index uint32
	Err   error
}

func (e *FontParseError) Error() string {
	return fmt.Sprintf("glyphraster: parse font %s (index %d): %v", e.Font, e.Index, e.Err)
}

// Unwrap returns the parser error.
func (e *FontParseError) Unwrap() error { return e.Err }
