package plugin

import (
	"image"
	"image/color"
	"math"
	"testing"
)

func TestQuantizeRequestImage(t *testing.T) {
	src := image.NewRGBA(image.Rect(10, 20, 13, 22))
	src.Set(10, 20, color.RGBA{R: 255, A: 255})
	src.Set(12, 21, color.RGBA{B: 128, A: 255})

	req := NewQuantizeRequest(src, 8, 0)
	if req.Width != 3 || req.Height != 2 || len(req.Pix) != 24 || req.MaxColors != 8 {
		t.Fatalf("NewQuantizeRequest() = %dx%d, %d bytes, max %d", req.Width, req.Height, len(req.Pix), req.MaxColors)
	}

	img, err := req.Image()
	if err != nil {
		t.Fatalf("Image() error = %v", err)
	}
	if got := img.NRGBAAt(0, 0); got != (color.NRGBA{R: 255, A: 255}) {
		t.Errorf("pixel (0,0) = %v", got)
	}
	if got := img.NRGBAAt(2, 1); got != (color.NRGBA{B: 128, A: 255}) {
		t.Errorf("pixel (2,1) = %v", got)
	}
}

func TestQuantizeRequestNRGBAShared(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	req := NewQuantizeRequest(src, 4, 0)
	if &req.Pix[0] != &src.Pix[0] {
		t.Error("tightly packed NRGBA should not be copied")
	}
}

func TestQuantizeRequestImageInvalid(t *testing.T) {
	tests := []struct {
		name string
		req  QuantizeRequest
	}{
		{name: "zero size", req: QuantizeRequest{}},
		{name: "short pixels", req: QuantizeRequest{Width: 2, Height: 2, Pix: make([]byte, 15)}},
		{name: "long pixels", req: QuantizeRequest{Width: 1, Height: 1, Pix: make([]byte, 8)}},
		{name: "area overflows", req: QuantizeRequest{Width: math.MaxInt32, Height: math.MaxInt32}},
		{name: "over pixel budget", req: QuantizeRequest{Width: MaxImagePixels, Height: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.req.Image(); err == nil {
				t.Error("expected error")
			}
		})
	}
}
