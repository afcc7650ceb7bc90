// Package colorscale maps a normalized share to a continuous blue gradient.
package colorscale

import (
	"fmt"
	"math"

	"github.com/rotisserie/eris"
)

// Color is an 8-bit RGB triple.
type Color struct {
	R, G, B uint8
}

// String renders the color in CSS rgb() notation.
func (c Color) String() string {
	return fmt.Sprintf("rgb(%d,%d,%d)", c.R, c.G, c.B)
}

// Hex renders the color as #rrggbb.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// MarshalText encodes the color as #rrggbb.
func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.Hex()), nil
}

// UnmarshalText decodes #rrggbb.
func (c *Color) UnmarshalText(text []byte) error {
	if _, err := fmt.Sscanf(string(text), "#%02x%02x%02x", &c.R, &c.G, &c.B); err != nil {
		return eris.Wrapf(err, "colorscale: parse color %q", text)
	}
	return nil
}

// Anchors are the gradient breakpoints at 0.0, 0.2, 0.4, 0.6, 0.8 and 1.0.
var Anchors = [6]Color{
	{239, 243, 255},
	{189, 215, 231},
	{107, 174, 214},
	{49, 130, 189},
	{8, 81, 156},
	{8, 48, 107},
}

// Neutral is used when a share is missing.
var Neutral = Color{204, 204, 204}

// Uniform fills every polygon when the active field is an absolute count.
var Uniform = Color{0x2b, 0x54, 0x7e}

// At interpolates the gradient at v. Values outside [0,1] are clamped and NaN
// maps to Neutral.
func At(v float64) Color {
	if math.IsNaN(v) {
		return Neutral
	}
	v = math.Max(0, math.Min(1, v))

	last := len(Anchors) - 1
	idx := v * float64(last)
	lo := int(math.Floor(idx))
	if lo >= last {
		return Anchors[last]
	}
	frac := idx - float64(lo)
	a, b := Anchors[lo], Anchors[lo+1]
	return Color{
		R: lerp(a.R, b.R, frac),
		G: lerp(a.G, b.G, frac),
		B: lerp(a.B, b.B, frac),
	}
}

// For is At with an explicit presence flag: a missing value maps to Neutral.
func For(v float64, ok bool) Color {
	if !ok {
		return Neutral
	}
	return At(v)
}

// lerp rounds half up so channel values match browser Math.round.
func lerp(a, b uint8, frac float64) uint8 {
	return uint8(math.Floor(float64(a) + (float64(b)-float64(a))*frac + 0.5))
}
