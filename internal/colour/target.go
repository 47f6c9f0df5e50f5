package colour

import "math"

// Target describes the kind of swatch a palette should pick for a role:
// acceptable saturation and lightness ranges, their ideal values, and how
// much saturation, lightness and population weigh when scoring candidates.
type Target struct {
	Name string

	MinSaturation, TargetSaturation, MaxSaturation float64
	MinLightness, TargetLightness, MaxLightness    float64

	SaturationWeight, LightnessWeight, PopulationWeight float64

	// Exclusive targets claim their swatch so later targets cannot reuse it.
	Exclusive bool
}

const (
	weightSaturation = 0.24
	weightLightness  = 0.52
	weightPopulation = 0.24
)

func newTarget(name string, sat, light [3]float64) Target {
	return Target{
		Name:             name,
		MinSaturation:    sat[0],
		TargetSaturation: sat[1],
		MaxSaturation:    sat[2],
		MinLightness:     light[0],
		TargetLightness:  light[1],
		MaxLightness:     light[2],
		SaturationWeight: weightSaturation,
		LightnessWeight:  weightLightness,
		PopulationWeight: weightPopulation,
		Exclusive:        true,
	}
}

var (
	vibrantSaturation = [3]float64{0.35, 1, 1}
	mutedSaturation   = [3]float64{0, 0.3, 0.4}

	lightLightness  = [3]float64{0.55, 0.74, 1}
	normalLightness = [3]float64{0.3, 0.5, 0.7}
	darkLightness   = [3]float64{0, 0.26, 0.45}
)

// Default targets, in the order palettes resolve them.
var (
	TargetLightVibrant = newTarget("light-vibrant", vibrantSaturation, lightLightness)
	TargetVibrant      = newTarget("vibrant", vibrantSaturation, normalLightness)
	TargetDarkVibrant  = newTarget("dark-vibrant", vibrantSaturation, darkLightness)
	TargetLightMuted   = newTarget("light-muted", mutedSaturation, lightLightness)
	TargetMuted        = newTarget("muted", mutedSaturation, normalLightness)
	TargetDarkMuted    = newTarget("dark-muted", mutedSaturation, darkLightness)
)

// DefaultTargets returns the six standard targets.
func DefaultTargets() []Target {
	return []Target{
		TargetLightVibrant,
		TargetVibrant,
		TargetDarkVibrant,
		TargetLightMuted,
		TargetMuted,
		TargetDarkMuted,
	}
}

// accepts reports whether the swatch falls inside the target's ranges.
func (t Target) accepts(s Swatch) bool {
	hsl := s.HSL()
	return hsl.S >= t.MinSaturation && hsl.S <= t.MaxSaturation &&
		hsl.L >= t.MinLightness && hsl.L <= t.MaxLightness
}

// score rates a swatch for this target; maxPopulation normalises population.
func (t Target) score(s Swatch, maxPopulation int) float64 {
	hsl := s.HSL()

	total := t.SaturationWeight + t.LightnessWeight + t.PopulationWeight
	if total <= 0 {
		return 0
	}

	var score float64
	if t.SaturationWeight > 0 {
		score += t.SaturationWeight / total * (1 - math.Abs(hsl.S-t.TargetSaturation))
	}
	if t.LightnessWeight > 0 {
		score += t.LightnessWeight / total * (1 - math.Abs(hsl.L-t.TargetLightness))
	}
	if t.PopulationWeight > 0 && maxPopulation > 0 {
		score += t.PopulationWeight / total * (float64(s.Population) / float64(maxPopulation))
	}
	return score
}
