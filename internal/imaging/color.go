package imaging

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// ParseColor converts a CSS-style hex color into a non-premultiplied color
// with the given opacity.
//
// Parameters:
//   - hex: "#RGB" or "#RRGGBB", case insensitive. The leading '#' is optional.
//   - opacity: 0-1. Values outside the range are clamped.
//
// Returns:
//   - color.NRGBA: The parsed color with A = round(opacity*255).
//   - error: Non-nil if hex is empty or not a valid hex color.
//
// # Example
//
//	fill, err := imaging.ParseColor("#0000ff", 0.2) // {0 0 255 51}
func ParseColor(hex string, opacity float64) (color.NRGBA, error) {
	s := strings.TrimSpace(hex)
	if s == "" {
		return color.NRGBA{}, fmt.Errorf("empty color string")
	}
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	if len(s) != 4 && len(s) != 7 {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: want #RGB or #RRGGBB", hex)
	}

	c, err := colorful.Hex(strings.ToLower(s))
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: %w", hex, err)
	}

	r, g, b := c.Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: alpha8(opacity)}, nil
}

// MustParseColor is ParseColor for colors known at compile time. It falls
// back to opaque black instead of failing.
func MustParseColor(hex string, opacity float64) color.NRGBA {
	c, err := ParseColor(hex, opacity)
	if err != nil {
		return color.NRGBA{A: alpha8(opacity)}
	}
	return c
}

func alpha8(opacity float64) uint8 {
	switch {
	case opacity <= 0:
		return 0
	case opacity >= 1:
		return 255
	}
	return uint8(opacity*255 + 0.5)
}
