package colour

// Filter decides whether a quantized colour may become a swatch.
type Filter func(rgb RGB, hsl HSL) bool

const (
	blackMaxLightness = 0.05
	whiteMinLightness = 0.95
)

// DefaultFilter rejects colours close to black, close to white, and the
// red-orange "I-line" band that skin tones fall into.
func DefaultFilter(_ RGB, hsl HSL) bool {
	return !isBlack(hsl) && !isWhite(hsl) && !isNearRedILine(hsl)
}

func isBlack(hsl HSL) bool {
	return hsl.L <= blackMaxLightness
}

func isWhite(hsl HSL) bool {
	return hsl.L >= whiteMinLightness
}

func isNearRedILine(hsl HSL) bool {
	return hsl.H >= 10 && hsl.H <= 37 && hsl.S <= 0.82
}

// Allowed reports whether every filter accepts the colour.
func Allowed(filters []Filter, rgb RGB) bool {
	if len(filters) == 0 {
		return true
	}
	hsl := ToHSL(RGBToColor(rgb))
	for _, f := range filters {
		if !f(rgb, hsl) {
			return false
		}
	}
	return true
}
