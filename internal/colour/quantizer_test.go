package colour

import (
	"context"
	"image"
	"image/color"
	"testing"
)

// bandedImage stacks horizontal bands of solid colour, one row per entry.
func bandedImage(width int, rows []color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, len(rows)))
	for y, c := range rows {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func repeat(c color.NRGBA, n int) []color.NRGBA {
	rows := make([]color.NRGBA, n)
	for i := range rows {
		rows[i] = c
	}
	return rows
}

var (
	red   = color.NRGBA{R: 255, A: 255}
	green = color.NRGBA{G: 255, A: 255}
	blue  = color.NRGBA{B: 255, A: 255}
)

// threeBands is 50% red, 30% green and 20% blue.
func threeBands() *image.NRGBA {
	rows := append(repeat(red, 5), repeat(green, 3)...)
	rows = append(rows, repeat(blue, 2)...)
	return bandedImage(10, rows)
}

func unfiltered(maxColors int) Options {
	return Options{MaxColors: maxColors}
}

func TestNewQuantizer(t *testing.T) {
	for _, alg := range ValidAlgorithms() {
		q, err := NewQuantizer(alg)
		if err != nil || q == nil {
			t.Errorf("NewQuantizer(%s) = %v, %v", alg, q, err)
		}
	}

	if _, err := NewQuantizer("octree"); err == nil {
		t.Error("expected error for unknown algorithm")
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{name: "defaults", opts: DefaultOptions()},
		{name: "zero colours", opts: Options{MaxColors: 0}, wantErr: true},
		{name: "too many colours", opts: Options{MaxColors: 257}, wantErr: true},
		{name: "negative area", opts: Options{MaxColors: 8, ResizeArea: -1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.opts.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestQuantizersRejectBadInput(t *testing.T) {
	for _, alg := range ValidAlgorithms() {
		q, _ := NewQuantizer(alg)
		t.Run(string(alg), func(t *testing.T) {
			if _, err := q.Quantize(context.Background(), nil, unfiltered(8)); err == nil {
				t.Error("expected error for nil image")
			}
			empty := image.NewNRGBA(image.Rect(0, 0, 0, 0))
			if _, err := q.Quantize(context.Background(), empty, unfiltered(8)); err == nil {
				t.Error("expected error for empty image")
			}
			if _, err := q.Quantize(context.Background(), threeBands(), unfiltered(0)); err == nil {
				t.Error("expected error for zero max colours")
			}
		})
	}
}

func TestMedianCutFewColours(t *testing.T) {
	palette, err := NewMedianCutQuantizer().Quantize(context.Background(), threeBands(), unfiltered(8))
	if err != nil {
		t.Fatalf("Quantize() error = %v", err)
	}

	got := palette.ByPopulation()
	if len(got) != 3 {
		t.Fatalf("expected 3 swatches, got %d", len(got))
	}

	want := []struct {
		rgb        RGB
		population int
	}{
		{RGB{R: 248}, 50},
		{RGB{G: 248}, 30},
		{RGB{B: 248}, 20},
	}
	for i, w := range want {
		if ToRGB(got[i].RGB) != w.rgb || got[i].Population != w.population {
			t.Errorf("swatch %d = %s/%d, want %s/%d", i, Hex(got[i].RGB), got[i].Population, w.rgb.Hex(), w.population)
		}
	}

	vibrant, ok := palette.Vibrant()
	if !ok {
		t.Fatal("expected a vibrant swatch")
	}
	if ToRGB(vibrant.RGB) != (RGB{R: 248}) {
		t.Errorf("Vibrant() = %s, want the populous red", Hex(vibrant.RGB))
	}
}

func TestMedianCutSplitsToMaxColours(t *testing.T) {
	// 16x16 gradient: 256 distinct 5-bit colours.
	img := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 16), G: uint8(y * 16), B: uint8((x + y) * 8), A: 255})
		}
	}

	for _, maxColors := range []int{1, 4, 8} {
		palette, err := NewMedianCutQuantizer().Quantize(context.Background(), img, unfiltered(maxColors))
		if err != nil {
			t.Fatalf("Quantize() error = %v", err)
		}
		if palette.Len() == 0 || palette.Len() > maxColors {
			t.Errorf("maxColors %d: got %d swatches", maxColors, palette.Len())
		}

		total := 0
		for _, s := range palette.Swatches() {
			total += s.Population
		}
		if total != 256 {
			t.Errorf("maxColors %d: populations sum to %d, want 256", maxColors, total)
		}
	}
}

func TestMedianCutDefaultFilter(t *testing.T) {
	rows := append(repeat(Black, 5), repeat(White, 3)...)
	rows = append(rows, repeat(red, 2)...)
	img := bandedImage(10, rows)

	palette, err := NewMedianCutQuantizer().Quantize(context.Background(), img, Options{
		MaxColors: 8,
		Filters:   []Filter{DefaultFilter},
	})
	if err != nil {
		t.Fatalf("Quantize() error = %v", err)
	}

	if palette.Len() != 1 {
		t.Fatalf("expected only red to survive filtering, got %s", palette)
	}
	if s := palette.Swatches()[0]; ToRGB(s.RGB) != (RGB{R: 248}) {
		t.Errorf("remaining swatch = %s", Hex(s.RGB))
	}
}

func TestQuantizeResizeArea(t *testing.T) {
	img := bandedImage(100, repeat(green, 100))

	for _, alg := range ValidAlgorithms() {
		q, _ := NewQuantizer(alg)
		t.Run(string(alg), func(t *testing.T) {
			palette, err := q.Quantize(context.Background(), img, Options{MaxColors: 8, ResizeArea: 100})
			if err != nil {
				t.Fatalf("Quantize() error = %v", err)
			}
			dominant, ok := palette.Dominant()
			if !ok || dominant.Population != 100 {
				t.Errorf("expected one swatch of 100 pixels after resize, got %s", palette)
			}
		})
	}
}

func TestKMeansFewColours(t *testing.T) {
	palette, err := NewKMeansQuantizer().Quantize(context.Background(), threeBands(), unfiltered(8))
	if err != nil {
		t.Fatalf("Quantize() error = %v", err)
	}

	got := palette.ByPopulation()
	if len(got) != 3 {
		t.Fatalf("expected 3 swatches, got %d", len(got))
	}
	if ToRGB(got[0].RGB) != ToRGB(red) || got[0].Population != 50 {
		t.Errorf("dominant = %s/%d, want red/50", Hex(got[0].RGB), got[0].Population)
	}
}

func TestKMeansClusters(t *testing.T) {
	q := NewKMeansQuantizer().WithSeed(42)

	palette, err := q.Quantize(context.Background(), threeBands(), unfiltered(2))
	if err != nil {
		t.Fatalf("Quantize() error = %v", err)
	}
	if palette.Len() == 0 || palette.Len() > 2 {
		t.Fatalf("expected 1-2 swatches, got %d", palette.Len())
	}

	total := 0
	for _, s := range palette.Swatches() {
		total += s.Population
	}
	if total != 100 {
		t.Errorf("populations sum to %d, want 100", total)
	}

	again, err := NewKMeansQuantizer().WithSeed(42).Quantize(context.Background(), threeBands(), unfiltered(2))
	if err != nil {
		t.Fatalf("Quantize() error = %v", err)
	}
	if again.String() != palette.String() {
		t.Errorf("same seed produced different palettes:\n%s\n%s", palette, again)
	}
}

func TestKMeansHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewKMeansQuantizer().Quantize(ctx, threeBands(), unfiltered(2)); err == nil {
		t.Error("expected error from cancelled context")
	}
}
