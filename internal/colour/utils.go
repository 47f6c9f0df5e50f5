// Package colour provides colour math, swatch quantization and palette targets.
package colour

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"
)

// ContrastThreshold is the minimum contrast ratio a colour needs against a
// background to be considered legible.
const ContrastThreshold = 3.0

var (
	// White is opaque white.
	White = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	// Black is opaque black.
	Black = color.NRGBA{A: 255}
)

// ToNRGBA converts any color.Color to non-premultiplied RGBA.
func ToNRGBA(c color.Color) color.NRGBA {
	if n, ok := c.(color.NRGBA); ok {
		return n
	}
	return color.NRGBAModel.Convert(c).(color.NRGBA)
}

// Luminance calculates the relative luminance of a colour according to WCAG 2.0.
// Alpha is ignored. Returns a value between 0 (darkest) and 1 (lightest).
// https://www.w3.org/TR/WCAG20/#relativeluminancedef.
func Luminance(c color.Color) float64 {
	n := ToNRGBA(c)

	rf := gammaCorrect(float64(n.R) / 255.0)
	rg := gammaCorrect(float64(n.G) / 255.0)
	rb := gammaCorrect(float64(n.B) / 255.0)

	return 0.2126*rf + 0.7152*rg + 0.0722*rb
}

// gammaCorrect linearises an sRGB channel.
func gammaCorrect(v float64) float64 {
	if v <= 0.04045 {
		return v / 12.92
	}
	return math.Pow((v+0.055)/1.055, 2.4)
}

// ContrastRatio calculates the contrast ratio between two colours according to WCAG 2.0.
// Both colours are treated as opaque. Returns a value between 1 and 21.
// https://www.w3.org/TR/WCAG20/#contrast-ratiodef.
func ContrastRatio(c1, c2 color.Color) float64 {
	l1 := Luminance(c1) + 0.05
	l2 := Luminance(c2) + 0.05

	return math.Max(l1, l2) / math.Min(l1, l2)
}

// Contrast returns the contrast ratio of foreground drawn on background.
// A translucent foreground is composited over the background first, so the
// measured colour is the one a reader would actually see. The blend stays
// in floating point; CompositeOver's 8-bit rounding could move a ratio
// across the threshold.
func Contrast(foreground, background color.Color) float64 {
	fg := ToNRGBA(foreground)
	bg := ToNRGBA(background)

	lf := Luminance(fg)
	if fg.A < 255 {
		lf = compositeLuminance(fg, bg)
	}
	lf += 0.05
	lb := Luminance(bg) + 0.05

	return math.Max(lf, lb) / math.Min(lf, lb)
}

// compositeLuminance is the luminance of foreground blended over
// background with source-over alpha.
func compositeLuminance(fg, bg color.NRGBA) float64 {
	fa := float64(fg.A) / 255.0
	ba := float64(bg.A) / 255.0
	a := fa + ba*(1-fa)
	if a == 0 {
		return 0
	}

	channel := func(f, b uint8) float64 {
		v := (float64(f)*fa + float64(b)*ba*(1-fa)) / a / 255.0
		return gammaCorrect(math.Max(0, math.Min(1, v)))
	}
	return 0.2126*channel(fg.R, bg.R) + 0.7152*channel(fg.G, bg.G) + 0.0722*channel(fg.B, bg.B)
}

// CompositeOver blends foreground onto background with source-over alpha.
func CompositeOver(foreground, background color.Color) color.NRGBA {
	fg := ToNRGBA(foreground)
	bg := ToNRGBA(background)

	fa := float64(fg.A) / 255.0
	ba := float64(bg.A) / 255.0
	a := fa + ba*(1-fa)
	if a == 0 {
		return color.NRGBA{}
	}

	blend := func(f, b uint8) uint8 {
		v := (float64(f)*fa + float64(b)*ba*(1-fa)) / a
		return uint8(math.Round(math.Max(0, math.Min(255, v))))
	}

	return color.NRGBA{
		R: blend(fg.R, bg.R),
		G: blend(fg.G, bg.G),
		B: blend(fg.B, bg.B),
		A: uint8(math.Round(a * 255)),
	}
}

// WithAlpha returns c with its alpha channel replaced.
func WithAlpha(c color.Color, alpha uint8) color.NRGBA {
	n := ToNRGBA(c)
	n.A = alpha
	return n
}

// HSL holds hue (0-360), saturation (0-1) and lightness (0-1).
type HSL struct {
	H, S, L float64
}

// ToHSL converts a colour to HSL colour space.
func ToHSL(c color.Color) HSL {
	n := ToNRGBA(c)
	r := float64(n.R) / 255.0
	g := float64(n.G) / 255.0
	b := float64(n.B) / 255.0

	maxVal := math.Max(r, math.Max(g, b))
	minVal := math.Min(r, math.Min(g, b))
	delta := maxVal - minVal

	l := (maxVal + minVal) / 2.0
	if delta == 0 {
		return HSL{L: l}
	}

	s := delta / (1 - math.Abs(2*l-1))

	var h float64
	switch maxVal {
	case r:
		h = math.Mod((g-b)/delta, 6)
	case g:
		h = (b-r)/delta + 2
	default:
		h = (r-g)/delta + 4
	}
	h *= 60
	if h < 0 {
		h += 360
	}

	return HSL{H: h, S: s, L: l}
}

// Hex formats a colour as #rrggbb, or #rrggbbaa when translucent.
func Hex(c color.Color) string {
	n := ToNRGBA(c)
	if n.A == 255 {
		return fmt.Sprintf("#%02x%02x%02x", n.R, n.G, n.B)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", n.R, n.G, n.B, n.A)
}

// ParseHex parses #rgb, #rrggbb or #rrggbbaa (leading # optional).
func ParseHex(s string) (color.NRGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return color.NRGBA{}, fmt.Errorf("invalid hex colour: %q", s)
	}

	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid hex colour %q: %w", s, err)
	}

	return color.NRGBA{
		R: uint8(v >> 24),
		G: uint8(v >> 16),
		B: uint8(v >> 8),
		A: uint8(v),
	}, nil
}
