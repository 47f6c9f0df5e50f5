package colour

import (
	"context"
	"fmt"
	"image"
	"math"

	"golang.org/x/image/draw"
)

// Quantizer reduces an image to a bounded set of representative swatches.
type Quantizer interface {
	// Quantize builds a palette of at most opts.MaxColors swatches.
	Quantize(ctx context.Context, img image.Image, opts Options) (*Palette, error)
}

// Algorithm represents the quantization algorithm type.
type Algorithm string

const (
	// AlgorithmMedianCut splits a 5-bit colour histogram into boxes by volume.
	AlgorithmMedianCut Algorithm = "mediancut"

	// AlgorithmKMeans uses k-means clustering for color extraction.
	AlgorithmKMeans Algorithm = "kmeans"
)

// ValidAlgorithms returns a list of valid algorithm names.
func ValidAlgorithms() []Algorithm {
	return []Algorithm{
		AlgorithmMedianCut,
		AlgorithmKMeans,
	}
}

// IsValidAlgorithm checks if the given algorithm name is valid.
func IsValidAlgorithm(alg Algorithm) bool {
	for _, valid := range ValidAlgorithms() {
		if alg == valid {
			return true
		}
	}
	return false
}

// NewQuantizer creates a new Quantizer based on the specified algorithm.
func NewQuantizer(alg Algorithm) (Quantizer, error) {
	switch alg {
	case AlgorithmMedianCut:
		return NewMedianCutQuantizer(), nil
	case AlgorithmKMeans:
		return NewKMeansQuantizer(), nil
	default:
		return nil, fmt.Errorf("unknown algorithm: %s (valid algorithms: %v)", alg, ValidAlgorithms())
	}
}

// DefaultResizeArea is the pixel area images are scaled down to before
// quantizing when no caller preference is given.
const DefaultResizeArea = 112 * 112

// Options holds per-call quantization settings.
type Options struct {
	// MaxColors caps the number of swatches.
	MaxColors int

	// ResizeArea downscales larger images to roughly this many pixels first.
	// Zero disables resizing.
	ResizeArea int

	// Filters reject colours before they become swatches. Nil applies none.
	Filters []Filter

	// Targets resolved on the resulting palette. Nil uses DefaultTargets.
	Targets []Target
}

// DefaultOptions returns the general purpose quantizer settings.
func DefaultOptions() Options {
	return Options{
		MaxColors:  16,
		ResizeArea: DefaultResizeArea,
		Filters:    []Filter{DefaultFilter},
	}
}

// Validate validates the quantizer options.
func (o Options) Validate() error {
	if o.MaxColors < 1 {
		return fmt.Errorf("color count must be at least 1, got %d", o.MaxColors)
	}
	if o.MaxColors > 256 {
		return fmt.Errorf("color count too large: %d (maximum: 256)", o.MaxColors)
	}
	if o.ResizeArea < 0 {
		return fmt.Errorf("resize area cannot be negative, got %d", o.ResizeArea)
	}
	return nil
}

// prepare validates the input and returns the pixels to quantize, scaled to
// the requested area when the image is larger.
func prepare(img image.Image, opts Options) ([]RGB, error) {
	if img == nil {
		return nil, fmt.Errorf("image cannot be nil")
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	area := bounds.Dx() * bounds.Dy()
	if area == 0 {
		return nil, fmt.Errorf("no pixels found in image")
	}

	if opts.ResizeArea > 0 && area > opts.ResizeArea {
		scale := math.Sqrt(float64(opts.ResizeArea) / float64(area))
		w := max(int(math.Round(float64(bounds.Dx())*scale)), 1)
		h := max(int(math.Round(float64(bounds.Dy())*scale)), 1)
		scaled := image.NewNRGBA(image.Rect(0, 0, w, h))
		draw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), img, bounds, draw.Src, nil)
		img = scaled
		bounds = scaled.Bounds()
	}

	pixels := make([]RGB, 0, bounds.Dx()*bounds.Dy())
	if nrgba, ok := img.(*image.NRGBA); ok {
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			row := nrgba.Pix[nrgba.PixOffset(bounds.Min.X, y):nrgba.PixOffset(bounds.Max.X, y)]
			for i := 0; i+3 < len(row); i += 4 {
				pixels = append(pixels, RGB{R: row[i], G: row[i+1], B: row[i+2]})
			}
		}
		return pixels, nil
	}

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			pixels = append(pixels, ToRGB(img.At(x, y)))
		}
	}
	return pixels, nil
}
