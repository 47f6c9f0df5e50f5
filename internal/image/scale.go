package image

import (
	"fmt"
	"image"
	"math"

	"golang.org/x/image/draw"
)

// ScaleMode controls how an image is fitted to a target size.
type ScaleMode int

const (
	// ScaleFill scales so the shorter side matches the target (cover).
	ScaleFill ScaleMode = iota
	// ScaleFit scales so the longer side matches the target (contain).
	ScaleFit
)

// String returns the mode name.
func (m ScaleMode) String() string {
	switch m {
	case ScaleFill:
		return "fill"
	case ScaleFit:
		return "fit"
	default:
		return fmt.Sprintf("ScaleMode(%d)", int(m))
	}
}

// ParseScaleMode parses "fill" or "fit".
func ParseScaleMode(s string) (ScaleMode, error) {
	switch s {
	case "fill", "":
		return ScaleFill, nil
	case "fit":
		return ScaleFit, nil
	default:
		return 0, fmt.Errorf("invalid scale mode: %s (valid: fill, fit)", s)
	}
}

// Scale downsizes src towards size x size using mode and returns a fresh
// NRGBA buffer. Images already within the target are copied, never enlarged.
// A size of zero or less only copies.
func Scale(src image.Image, size int, mode ScaleMode) *image.NRGBA {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	factor := 1.0
	if size > 0 && w > 0 && h > 0 {
		fx := float64(size) / float64(w)
		fy := float64(size) / float64(h)
		if mode == ScaleFit {
			factor = math.Min(fx, fy)
		} else {
			factor = math.Max(fx, fy)
		}
	}

	if factor >= 1 {
		dst := image.NewNRGBA(image.Rect(0, 0, w, h))
		draw.Draw(dst, dst.Bounds(), src, bounds.Min, draw.Src)
		return dst
	}

	dw := max(int(math.Round(float64(w)*factor)), 1)
	dh := max(int(math.Round(float64(h)*factor)), 1)
	dst := image.NewNRGBA(image.Rect(0, 0, dw, dh))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, bounds, draw.Src, nil)
	return dst
}
