package glyphraster

import "math"

// SubpixelDirection selects which axes keep fractional glyph positions.
type SubpixelDirection uint8

const (
	// SubpixelNone snaps glyphs to whole pixels on both axes.
	SubpixelNone SubpixelDirection = iota

	// SubpixelHorizontal keeps fractional x positions.
	SubpixelHorizontal

	// SubpixelVertical keeps fractional y positions.
	SubpixelVertical

	// SubpixelMixed keeps fractional positions on both axes.
	SubpixelMixed
)

// String returns the direction name.
func (d SubpixelDirection) String() string {
	switch d {
	case SubpixelNone:
		return "None"
	case SubpixelHorizontal:
		return "Horizontal"
	case SubpixelVertical:
		return "Vertical"
	case SubpixelMixed:
		return "Mixed"
	default:
		return unknownStr
	}
}

// SubpixelOffset is a glyph origin offset quantized to quarter pixels.
type SubpixelOffset uint8

const (
	SubpixelZero SubpixelOffset = iota
	SubpixelQuarter
	SubpixelHalf
	SubpixelThreeQuarters
)

// subpixelDivisions is the number of distinct offsets per pixel.
const subpixelDivisions = 4

// QuantizeOffset rounds the fractional part of pos to the nearest quarter.
// Fractions of 7/8 and above wrap to SubpixelZero, since the integer part
// is expected to be rounded up by the caller in that case.
//
// For example:
//   - pos=10.0  returns SubpixelZero
//   - pos=10.2  returns SubpixelQuarter
//   - pos=10.5  returns SubpixelHalf
//   - pos=10.7  returns SubpixelThreeQuarters
//   - pos=10.95 returns SubpixelZero
func QuantizeOffset(pos float32) SubpixelOffset {
	frac := float64(pos) - math.Floor(float64(pos))
	eighths := int(frac * 2 * subpixelDivisions)
	switch eighths {
	case 1, 2:
		return SubpixelQuarter
	case 3, 4:
		return SubpixelHalf
	case 5, 6:
		return SubpixelThreeQuarters
	default:
		return SubpixelZero
	}
}

// Fraction returns the offset in pixels: 0, 0.25, 0.5 or 0.75.
func (o SubpixelOffset) Fraction() float32 {
	if o >= subpixelDivisions {
		return 0
	}
	return float32(o) / subpixelDivisions
}
