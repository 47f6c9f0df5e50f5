// Package theme derives foreground theme colours from artwork.
package theme

import (
	"encoding/json"
	"fmt"
	"image/color"
	"math/rand/v2"

	"github.com/jmylchreest/posterhue/internal/colour"
)

// Colors are the application theme colours. The selector measures contrast
// against Background and falls back to PrimaryVariant and Secondary.
type Colors struct {
	PrimaryVariant color.NRGBA
	Secondary      color.NRGBA
	Background     color.NRGBA
}

// DefaultColors returns the Material baseline light theme.
func DefaultColors() Colors {
	return Colors{
		PrimaryVariant: color.NRGBA{R: 0x37, G: 0x00, B: 0xb3, A: 0xff},
		Secondary:      color.NRGBA{R: 0x03, G: 0xda, B: 0xc6, A: 0xff},
		Background:     color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
	}
}

// DominantColors is a derived colour triple with the luminance used to
// pick contrasting content on top of it.
type DominantColors struct {
	MainColor   color.NRGBA
	FirstColor  color.NRGBA
	SecondColor color.NRGBA
	Luminance   float64

	// FromImage is false for theme fallbacks.
	FromImage bool
}

// Fallback builds theme-only colours, picking each slot independently from
// the primary variant and secondary colours. Duplicates are expected.
// A nil rng uses the global source.
func Fallback(colors Colors, rng *rand.Rand) DominantColors {
	intn := rand.IntN
	if rng != nil {
		intn = rng.IntN
	}
	pick := func() color.NRGBA {
		if intn(2) == 0 {
			return colors.PrimaryVariant
		}
		return colors.Secondary
	}

	return DominantColors{
		MainColor:   pick(),
		FirstColor:  pick(),
		SecondColor: pick(),
	}
}

// String returns a one-line description.
func (d DominantColors) String() string {
	source := "theme"
	if d.FromImage {
		source = "image"
	}
	return fmt.Sprintf("main=%s first=%s second=%s luminance=%.3f source=%s",
		colour.Hex(d.MainColor), colour.Hex(d.FirstColor), colour.Hex(d.SecondColor), d.Luminance, source)
}

// DominantColorsJSON is the serialised form of DominantColors, used for
// both JSON and YAML output.
type DominantColorsJSON struct {
	MainColor   string  `json:"main_color" yaml:"main_color"`
	FirstColor  string  `json:"first_color" yaml:"first_color"`
	SecondColor string  `json:"second_color" yaml:"second_color"`
	Luminance   float64 `json:"luminance" yaml:"luminance"`
	FromImage   bool    `json:"from_image" yaml:"from_image"`
}

func (d DominantColors) encoded() DominantColorsJSON {
	return DominantColorsJSON{
		MainColor:   colour.Hex(d.MainColor),
		FirstColor:  colour.Hex(d.FirstColor),
		SecondColor: colour.Hex(d.SecondColor),
		Luminance:   d.Luminance,
		FromImage:   d.FromImage,
	}
}

// MarshalJSON encodes colours as hex strings.
func (d DominantColors) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.encoded())
}

// MarshalYAML implements yaml.Marshaler with the same hex encoding.
func (d DominantColors) MarshalYAML() (any, error) {
	return d.encoded(), nil
}
