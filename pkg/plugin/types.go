package plugin

import (
	"fmt"
	"image"
	"image/draw"
)

// PluginInfo contains metadata about a plugin, printed as JSON in reply to
// --plugin-info.
type PluginInfo struct {
	Name            string `json:"name"`
	Version         string `json:"version"`
	ProtocolVersion string `json:"protocol_version"`
	Description     string `json:"description"`
	PluginProtocol  string `json:"plugin_protocol"` // "json-stdio" or "go-plugin"
}

// MaxImagePixels caps the bitmap area a request may declare.
const MaxImagePixels = 1 << 26

// QuantizeRequest carries a bitmap and the quantizer limits. Pix holds
// non-premultiplied RGBA rows with a stride of 4*Width.
type QuantizeRequest struct {
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Pix        []byte `json:"pix"`
	MaxColors  int    `json:"max_colors"`
	ResizeArea int    `json:"resize_area"`
}

// SwatchData is one quantized colour and its pixel population. Text colours
// and palette targets are derived by the host.
type SwatchData struct {
	R          uint8 `json:"r"`
	G          uint8 `json:"g"`
	B          uint8 `json:"b"`
	Population int   `json:"population"`
}

// NewQuantizeRequest copies img into a request as non-premultiplied RGBA.
func NewQuantizeRequest(img image.Image, maxColors, resizeArea int) QuantizeRequest {
	b := img.Bounds()
	nrgba, ok := img.(*image.NRGBA)
	if !ok || nrgba.Stride != 4*b.Dx() || len(nrgba.Pix) != 4*b.Dx()*b.Dy() || b.Min != (image.Point{}) {
		nrgba = image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(nrgba, nrgba.Bounds(), img, b.Min, draw.Src)
	}
	return QuantizeRequest{
		Width:      b.Dx(),
		Height:     b.Dy(),
		Pix:        nrgba.Pix,
		MaxColors:  maxColors,
		ResizeArea: resizeArea,
	}
}

// Image returns the request bitmap. The pixels are shared, not copied.
func (r QuantizeRequest) Image() (*image.NRGBA, error) {
	if r.Width <= 0 || r.Height <= 0 {
		return nil, fmt.Errorf("invalid image size %dx%d", r.Width, r.Height)
	}
	if r.Width > MaxImagePixels/r.Height {
		return nil, fmt.Errorf("image too large: %dx%d (maximum %d pixels)", r.Width, r.Height, MaxImagePixels)
	}
	if want := 4 * r.Width * r.Height; len(r.Pix) != want {
		return nil, fmt.Errorf("pixel data is %d bytes, want %d for %dx%d", len(r.Pix), want, r.Width, r.Height)
	}
	return &image.NRGBA{
		Pix:    r.Pix,
		Stride: 4 * r.Width,
		Rect:   image.Rect(0, 0, r.Width, r.Height),
	}, nil
}
