package colour

import (
	"cmp"
	"encoding/json"
	"fmt"
	"image/color"
	"slices"
)

// Palette is the result of quantizing an image: the swatches found and the
// swatch each target resolved to.
type Palette struct {
	swatches []Swatch
	selected map[string]Swatch
}

// NewPalette resolves targets against the swatches. A nil targets slice uses
// DefaultTargets.
func NewPalette(swatches []Swatch, targets []Target) *Palette {
	if targets == nil {
		targets = DefaultTargets()
	}

	p := &Palette{
		swatches: slices.Clone(swatches),
		selected: make(map[string]Swatch, len(targets)),
	}

	maxPopulation := 0
	if dominant, ok := p.Dominant(); ok {
		maxPopulation = dominant.Population
	}

	used := make(map[RGB]bool)
	for _, t := range targets {
		best, ok := p.bestFor(t, maxPopulation, used)
		if !ok {
			continue
		}
		p.selected[t.Name] = best
		if t.Exclusive {
			used[ToRGB(best.RGB)] = true
		}
	}

	return p
}

// bestFor returns the highest scoring unused swatch inside the target's ranges.
func (p *Palette) bestFor(t Target, maxPopulation int, used map[RGB]bool) (Swatch, bool) {
	var best Swatch
	bestScore := -1.0
	for _, s := range p.swatches {
		if used[ToRGB(s.RGB)] || !t.accepts(s) {
			continue
		}
		if score := t.score(s, maxPopulation); score > bestScore {
			best, bestScore = s, score
		}
	}
	return best, bestScore >= 0
}

// Len returns the number of swatches in the palette.
func (p *Palette) Len() int {
	return len(p.swatches)
}

// Swatches returns a copy of the swatches in quantizer order.
func (p *Palette) Swatches() []Swatch {
	return slices.Clone(p.swatches)
}

// ByPopulation returns the swatches ordered by descending population.
// Equal populations keep quantizer order.
func (p *Palette) ByPopulation() []Swatch {
	sorted := slices.Clone(p.swatches)
	slices.SortStableFunc(sorted, func(a, b Swatch) int {
		return cmp.Compare(b.Population, a.Population)
	})
	return sorted
}

// Dominant returns the swatch with the largest population.
func (p *Palette) Dominant() (Swatch, bool) {
	if len(p.swatches) == 0 {
		return Swatch{}, false
	}
	return p.ByPopulation()[0], true
}

// Target returns the swatch resolved for the named target.
func (p *Palette) Target(name string) (Swatch, bool) {
	s, ok := p.selected[name]
	return s, ok
}

// Vibrant returns the most vibrant swatch, if the image has one.
func (p *Palette) Vibrant() (Swatch, bool) {
	return p.Target(TargetVibrant.Name)
}

// RGB represents a color in RGB format.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// String returns the RGB color as a string in the format "rgb(r, g, b)".
func (rgb RGB) String() string {
	return fmt.Sprintf("rgb(%d, %d, %d)", rgb.R, rgb.G, rgb.B)
}

// Hex returns the RGB color as a hex string (e.g., "#1a2b3c").
func (rgb RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", rgb.R, rgb.G, rgb.B)
}

// ToRGB drops alpha from a colour, keeping its non-premultiplied channels.
func ToRGB(c color.Color) RGB {
	n := ToNRGBA(c)
	return RGB{R: n.R, G: n.G, B: n.B}
}

// RGBToColor converts an RGB value to an opaque colour.
func RGBToColor(rgb RGB) color.NRGBA {
	return color.NRGBA{R: rgb.R, G: rgb.G, B: rgb.B, A: 255}
}

// SwatchJSON represents a swatch in JSON and YAML output.
type SwatchJSON struct {
	Hex        string `json:"hex" yaml:"hex"`
	RGB        RGB    `json:"rgb" yaml:"rgb,flow"`
	Population int    `json:"population" yaml:"population"`
	TitleText  string `json:"title_text" yaml:"title_text"`
	BodyText   string `json:"body_text" yaml:"body_text"`
}

// PaletteJSON represents the palette in JSON and YAML output.
type PaletteJSON struct {
	Count    int                   `json:"count" yaml:"count"`
	Swatches []SwatchJSON          `json:"swatches" yaml:"swatches"`
	Targets  map[string]SwatchJSON `json:"targets,omitempty" yaml:"targets,omitempty"`
}

func swatchJSON(s Swatch) SwatchJSON {
	return SwatchJSON{
		Hex:        Hex(s.RGB),
		RGB:        ToRGB(s.RGB),
		Population: s.Population,
		TitleText:  Hex(s.TitleTextColor),
		BodyText:   Hex(s.BodyTextColor),
	}
}

// Export returns the serialisable form of the palette, swatches by
// descending population.
func (p *Palette) Export() PaletteJSON {
	sorted := p.ByPopulation()
	out := PaletteJSON{
		Count:    len(sorted),
		Swatches: make([]SwatchJSON, len(sorted)),
		Targets:  make(map[string]SwatchJSON, len(p.selected)),
	}
	for i, s := range sorted {
		out.Swatches[i] = swatchJSON(s)
	}
	for name, s := range p.selected {
		out.Targets[name] = swatchJSON(s)
	}
	return out
}

// ToJSON converts the palette to indented JSON.
func (p *Palette) ToJSON() ([]byte, error) {
	return json.MarshalIndent(p.Export(), "", "  ")
}

// String returns a human-readable string representation of the palette.
func (p *Palette) String() string {
	if len(p.swatches) == 0 {
		return "Empty palette"
	}

	result := fmt.Sprintf("Palette with %d swatches:\n", len(p.swatches))
	for i, s := range p.ByPopulation() {
		result += fmt.Sprintf("  %2d: %s\n", i+1, s)
	}
	return result
}
