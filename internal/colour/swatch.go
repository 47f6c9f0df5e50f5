package colour

import (
	"fmt"
	"image/color"
)

const (
	// MinContrastTitleText is the contrast a swatch's title text colour must reach.
	MinContrastTitleText = 3.0

	// MinContrastBodyText is the contrast a swatch's body text colour must reach.
	MinContrastBodyText = 4.5

	// alphaSearchIterations bounds the binary search for a minimum text alpha.
	alphaSearchIterations = 10
)

// Swatch is a representative colour cluster with its pixel population and
// two text colours that stay legible when drawn on top of it.
type Swatch struct {
	RGB            color.NRGBA `json:"rgb"`
	Population     int         `json:"population"`
	TitleTextColor color.NRGBA `json:"title_text"`
	BodyTextColor  color.NRGBA `json:"body_text"`
}

// NewSwatch builds a swatch for an opaque colour and derives its text colours.
func NewSwatch(c color.Color, population int) Swatch {
	rgb := ToNRGBA(c)
	rgb.A = 255

	title, body := textColours(rgb)
	return Swatch{
		RGB:            rgb,
		Population:     population,
		TitleTextColor: title,
		BodyTextColor:  body,
	}
}

// HSL returns the swatch colour in HSL space.
func (s Swatch) HSL() HSL {
	return ToHSL(s.RGB)
}

// String returns a short human-readable description of the swatch.
func (s Swatch) String() string {
	return fmt.Sprintf("%s (population: %d, title: %s, body: %s)",
		Hex(s.RGB), s.Population, Hex(s.TitleTextColor), Hex(s.BodyTextColor))
}

// textColours picks white text when it can reach both contrasts, then black,
// and otherwise mixes whichever of the two works for each role.
func textColours(bg color.NRGBA) (title, body color.NRGBA) {
	lightBody := MinimumAlpha(White, bg, MinContrastBodyText)
	lightTitle := MinimumAlpha(White, bg, MinContrastTitleText)
	if lightBody != -1 && lightTitle != -1 {
		return WithAlpha(White, uint8(lightTitle)), WithAlpha(White, uint8(lightBody))
	}

	darkBody := MinimumAlpha(Black, bg, MinContrastBodyText)
	darkTitle := MinimumAlpha(Black, bg, MinContrastTitleText)
	if darkBody != -1 && darkTitle != -1 {
		return WithAlpha(Black, uint8(darkTitle)), WithAlpha(Black, uint8(darkBody))
	}

	return pickText(lightTitle, darkTitle), pickText(lightBody, darkBody)
}

// pickText prefers white text; one of white or black always reaches the body
// and title contrasts, so an opaque black is only a guard.
func pickText(lightAlpha, darkAlpha int) color.NRGBA {
	if lightAlpha != -1 {
		return WithAlpha(White, uint8(lightAlpha))
	}
	if darkAlpha != -1 {
		return WithAlpha(Black, uint8(darkAlpha))
	}
	return Black
}

// MinimumAlpha returns the lowest alpha (0-255) at which foreground, composited
// over the opaque background, reaches minContrast. Returns -1 when even the
// fully opaque foreground falls short.
func MinimumAlpha(foreground, background color.Color, minContrast float64) int {
	bg := ToNRGBA(background)
	bg.A = 255

	if ContrastRatio(CompositeOver(WithAlpha(foreground, 255), bg), bg) < minContrast {
		return -1
	}

	minAlpha, maxAlpha := 0, 255
	for i := 0; i <= alphaSearchIterations && maxAlpha-minAlpha > 1; i++ {
		test := (minAlpha + maxAlpha) / 2
		composite := CompositeOver(WithAlpha(foreground, uint8(test)), bg)
		if ContrastRatio(composite, bg) < minContrast {
			minAlpha = test
		} else {
			maxAlpha = test
		}
	}
	return maxAlpha
}
