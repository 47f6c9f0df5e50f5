package theme

import (
	"cmp"
	"context"
	"errors"
	stdimage "image"
	"image/color"
	"math"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/jmylchreest/posterhue/internal/colour"
	"github.com/jmylchreest/posterhue/internal/image"
)

var (
	white     = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	black     = color.NRGBA{A: 255}
	navy      = color.NRGBA{B: 128, A: 255}
	darkRed   = color.NRGBA{R: 100, A: 255}
	charcoal  = color.NRGBA{R: 30, G: 30, B: 30, A: 255}
	nearWhite = color.NRGBA{R: 250, G: 250, B: 250, A: 255}
)

// stubFetcher serves solid images by source and fails for unknown sources.
type stubFetcher struct {
	images map[string]*stdimage.NRGBA

	mu    sync.Mutex
	calls []string
}

func (f *stubFetcher) Fetch(ctx context.Context, req image.Request) (*stdimage.NRGBA, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req.Source)
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img, ok := f.images[req.Source]
	if !ok {
		return nil, errors.New("not found")
	}
	return img, nil
}

func (f *stubFetcher) sources() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

// stubQuantizer returns a fixed palette.
type stubQuantizer struct {
	palette *colour.Palette
	err     error
	opts    colour.Options
}

func (q *stubQuantizer) Quantize(_ context.Context, _ stdimage.Image, opts colour.Options) (*colour.Palette, error) {
	q.opts = opts
	return q.palette, q.err
}

// stubSet is a swatch set with an optional vibrant swatch. When scanFatal is
// set, reading the population order fails the test.
type stubSet struct {
	t         *testing.T
	vibrant   *colour.Swatch
	swatches  []colour.Swatch
	scanFatal bool
}

func (s stubSet) Vibrant() (colour.Swatch, bool) {
	if s.vibrant == nil {
		return colour.Swatch{}, false
	}
	return *s.vibrant, true
}

func (s stubSet) ByPopulation() []colour.Swatch {
	if s.scanFatal {
		s.t.Fatal("population scan must not run")
	}
	sorted := slices.Clone(s.swatches)
	slices.SortStableFunc(sorted, func(a, b colour.Swatch) int {
		return cmp.Compare(b.Population, a.Population)
	})
	return sorted
}

func swatch(rgb, title, body color.NRGBA, population int) colour.Swatch {
	return colour.Swatch{RGB: rgb, Population: population, TitleTextColor: title, BodyTextColor: body}
}

func solid(c color.NRGBA) *stdimage.NRGBA {
	img := stdimage.NewNRGBA(stdimage.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func newTestSelector(t *testing.T, cfg SelectorConfig) *Selector {
	t.Helper()
	if cfg.Fetcher == nil {
		cfg.Fetcher = &stubFetcher{}
	}
	s, err := NewSelector(cfg)
	if err != nil {
		t.Fatalf("NewSelector() error = %v", err)
	}
	return s
}

func TestSelectorConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     SelectorConfig
		wantErr bool
	}{
		{name: "defaults", cfg: SelectorConfig{Fetcher: &stubFetcher{}}},
		{name: "missing fetcher", cfg: SelectorConfig{}, wantErr: true},
		{name: "negative threshold", cfg: SelectorConfig{Fetcher: &stubFetcher{}, Threshold: -1}, wantErr: true},
		{name: "too many colours", cfg: SelectorConfig{Fetcher: &stubFetcher{}, MaxColors: 300}, wantErr: true},
		{name: "negative workers", cfg: SelectorConfig{Fetcher: &stubFetcher{}, Workers: -2}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestChooseVibrantAllPass(t *testing.T) {
	s := newTestSelector(t, SelectorConfig{})
	vibrant := swatch(navy, black, charcoal, 5)

	got, ok := s.choose(stubSet{t: t, vibrant: &vibrant, scanFatal: true}, white)
	if !ok {
		t.Fatal("expected success")
	}
	if got.MainColor != navy || got.FirstColor != black || got.SecondColor != charcoal {
		t.Errorf("got %s", got)
	}
	if !got.FromImage {
		t.Error("FromImage should be true")
	}
	if want := colour.Luminance(navy); got.Luminance != want {
		t.Errorf("Luminance = %v, want %v", got.Luminance, want)
	}
}

func TestChooseThresholdBoundary(t *testing.T) {
	tests := []struct {
		name     string
		contrast float64
		wantOK   bool
	}{
		{name: "exactly at threshold is accepted", contrast: 3.0, wantOK: true},
		{name: "just below threshold is rejected", contrast: math.Nextafter(3.0, 0), wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSelector(t, SelectorConfig{})
			s.contrast = func(_, _ color.Color) float64 { return tt.contrast }
			vibrant := swatch(navy, black, charcoal, 1)

			_, ok := s.choose(stubSet{t: t, vibrant: &vibrant}, white)
			if ok != tt.wantOK {
				t.Errorf("ok = %v, want %v", ok, tt.wantOK)
			}
		})
	}
}

func TestChooseVibrantPrecedence(t *testing.T) {
	s := newTestSelector(t, SelectorConfig{})
	passing := swatch(darkRed, black, charcoal, 100)

	t.Run("all vibrant colours pass", func(t *testing.T) {
		vibrant := swatch(navy, black, charcoal, 1)
		set := stubSet{t: t, vibrant: &vibrant, swatches: []colour.Swatch{passing}, scanFatal: true}
		got, ok := s.choose(set, white)
		if !ok || got.MainColor != navy {
			t.Errorf("got %s, %v; want vibrant navy", got, ok)
		}
	})

	t.Run("partial vibrant result does not fall through", func(t *testing.T) {
		vibrant := swatch(navy, white, white, 1)
		set := stubSet{t: t, vibrant: &vibrant, swatches: []colour.Swatch{passing}, scanFatal: true}
		if got, ok := s.choose(set, white); ok {
			t.Errorf("got %s; want no result", got)
		}
	})
}

func TestChoosePopulationOrder(t *testing.T) {
	s := newTestSelector(t, SelectorConfig{})
	set := stubSet{t: t, swatches: []colour.Swatch{
		swatch(darkRed, black, charcoal, 10),
		swatch(nearWhite, black, black, 500),
		swatch(navy, black, charcoal, 50),
		swatch(navy, white, charcoal, 200),
	}}

	got, ok := s.choose(set, white)
	if !ok {
		t.Fatal("expected success")
	}
	// 500 fails on its own colour and 200 on its title; 50 is the first full pass.
	if got.MainColor != navy || got.FirstColor != black || got.SecondColor != charcoal {
		t.Errorf("got %s; want the population 50 swatch", got)
	}
}

func TestChooseNoSwatches(t *testing.T) {
	s := newTestSelector(t, SelectorConfig{})
	if _, ok := s.choose(stubSet{t: t}, white); ok {
		t.Error("empty swatch set should yield no result")
	}
}

func TestChooseAcceptanceGate(t *testing.T) {
	tests := []struct {
		name    string
		vibrant colour.Swatch
		wantOK  bool
	}{
		{name: "main without first", vibrant: swatch(navy, white, charcoal, 1), wantOK: false},
		{name: "first without main", vibrant: swatch(nearWhite, black, charcoal, 1), wantOK: false},
		{name: "main and first without second", vibrant: swatch(navy, black, white, 1), wantOK: true},
	}

	s := newTestSelector(t, SelectorConfig{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := s.choose(stubSet{t: t, vibrant: &tt.vibrant}, white)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got.SecondColor != got.FirstColor {
				t.Errorf("SecondColor = %s, want FirstColor %s", colour.Hex(got.SecondColor), colour.Hex(got.FirstColor))
			}
		})
	}
}

func TestChooseLuminance(t *testing.T) {
	grey := color.NRGBA{R: 170, G: 170, B: 170, A: 255}
	tests := []struct {
		name    string
		vibrant colour.Swatch
		want    float64
	}{
		{name: "main nonzero", vibrant: swatch(grey, black, black, 1), want: colour.Luminance(grey)},
		{name: "main zero uses first", vibrant: swatch(black, grey, white, 1), want: colour.Luminance(grey)},
		{name: "main and first zero use second", vibrant: swatch(black, black, white, 1), want: 1},
	}

	s := newTestSelector(t, SelectorConfig{})
	s.contrast = func(_, _ color.Color) float64 { return 21 }
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := s.choose(stubSet{t: t, vibrant: &tt.vibrant}, white)
			if !ok {
				t.Fatal("expected success")
			}
			if math.Abs(got.Luminance-tt.want) > 1e-9 {
				t.Errorf("Luminance = %v, want %v", got.Luminance, tt.want)
			}
		})
	}

	if l := colour.Luminance(grey); math.Abs(l-0.4) > 0.01 {
		t.Fatalf("test grey luminance = %v, want about 0.4", l)
	}
}

func TestDeriveVibrantBlueOnNearWhite(t *testing.T) {
	blue := color.NRGBA{B: 255, A: 255}
	lightGrey := color.NRGBA{R: 240, G: 240, B: 240, A: 255}
	palette := colour.NewPalette([]colour.Swatch{swatch(blue, white, lightGrey, 256)}, nil)
	if v, ok := palette.Vibrant(); !ok || v.RGB != blue {
		t.Fatalf("expected blue to be the vibrant swatch, got %v %v", v, ok)
	}

	q := &stubQuantizer{palette: palette}
	s := newTestSelector(t, SelectorConfig{
		Fetcher:   &stubFetcher{images: map[string]*stdimage.NRGBA{"backdrop": solid(blue)}},
		Quantizer: q,
	})

	if got, ok := s.Derive(context.Background(), "backdrop", nearWhite); ok {
		t.Errorf("Derive() = %s; want no result", got)
	}

	if q.opts.MaxColors != DefaultMaxColors || q.opts.ResizeArea != 0 || q.opts.Filters != nil {
		t.Errorf("quantizer options = %+v; want 8 colours, no resize, no filters", q.opts)
	}
}

func TestDeriveWithMedianCut(t *testing.T) {
	green := color.NRGBA{G: 128, A: 255}
	s := newTestSelector(t, SelectorConfig{
		Fetcher: &stubFetcher{images: map[string]*stdimage.NRGBA{"poster": solid(green)}},
	})

	got, ok := s.Derive(context.Background(), "poster", black)
	if !ok {
		t.Fatal("expected success")
	}
	if got.MainColor != green {
		t.Errorf("MainColor = %s, want %s", colour.Hex(got.MainColor), colour.Hex(green))
	}
	for name, c := range map[string]color.NRGBA{
		"main":   got.MainColor,
		"first":  got.FirstColor,
		"second": got.SecondColor,
	} {
		if ratio := colour.Contrast(c, black); ratio < colour.ContrastThreshold {
			t.Errorf("%s colour %s contrast = %.2f, below threshold", name, colour.Hex(c), ratio)
		}
	}
	if got.Luminance != colour.Luminance(green) {
		t.Errorf("Luminance = %v, want %v", got.Luminance, colour.Luminance(green))
	}
}

func TestDeriveFailures(t *testing.T) {
	tests := []struct {
		name      string
		source    string
		quantizer colour.Quantizer
	}{
		{name: "fetch failure", source: "missing"},
		{name: "quantizer error", source: "ok", quantizer: &stubQuantizer{err: errors.New("boom")}},
		{name: "nil palette", source: "ok", quantizer: &stubQuantizer{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSelector(t, SelectorConfig{
				Fetcher:   &stubFetcher{images: map[string]*stdimage.NRGBA{"ok": solid(navy)}},
				Quantizer: tt.quantizer,
			})
			if got, ok := s.Derive(context.Background(), tt.source, white); ok {
				t.Errorf("Derive() = %s; want no result", got)
			}
		})
	}
}

func TestFallback(t *testing.T) {
	colors := DefaultColors()
	for i := 0; i < 20; i++ {
		got := Fallback(colors, nil)
		if got.FromImage {
			t.Fatal("fallback must not claim image provenance")
		}
		if got.Luminance != 0 {
			t.Errorf("Luminance = %v, want 0", got.Luminance)
		}
		for _, c := range []color.NRGBA{got.MainColor, got.FirstColor, got.SecondColor} {
			if c != colors.PrimaryVariant && c != colors.Secondary {
				t.Errorf("unexpected fallback colour %s", colour.Hex(c))
			}
		}
	}
}

func TestRequest(t *testing.T) {
	colors := Colors{PrimaryVariant: navy, Secondary: darkRed, Background: black}
	green := color.NRGBA{G: 128, A: 255}

	t.Run("replaces fallback on success", func(t *testing.T) {
		s := newTestSelector(t, SelectorConfig{
			Fetcher: &stubFetcher{images: map[string]*stdimage.NRGBA{"backdrop": solid(green)}},
		})
		p := s.Request(context.Background(), colors, "backdrop")
		if p.Current().FromImage {
			t.Error("initial value should be the fallback")
		}

		got, err := p.Wait(context.Background())
		if err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
		if !got.FromImage || got.MainColor != green {
			t.Errorf("Wait() = %s; want image colours", got)
		}
	})

	t.Run("fetch failure keeps fallback", func(t *testing.T) {
		s := newTestSelector(t, SelectorConfig{Fetcher: &stubFetcher{}})
		p := s.Request(context.Background(), colors, "backdrop")
		before := p.Current()

		got, err := p.Wait(context.Background())
		if err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
		if got != before {
			t.Errorf("fallback changed from %s to %s", before, got)
		}
	})

	t.Run("tries next source only after fetch failure", func(t *testing.T) {
		f := &stubFetcher{images: map[string]*stdimage.NRGBA{"poster": solid(green)}}
		s := newTestSelector(t, SelectorConfig{Fetcher: f})

		got, _ := s.Request(context.Background(), colors, "backdrop", "poster").Wait(context.Background())
		if !got.FromImage {
			t.Error("expected poster colours")
		}
		if calls := f.sources(); !slices.Equal(calls, []string{"backdrop", "poster"}) {
			t.Errorf("fetched %v", calls)
		}
	})

	t.Run("no retry when artwork has no legible colours", func(t *testing.T) {
		f := &stubFetcher{images: map[string]*stdimage.NRGBA{
			"backdrop": solid(black),
			"poster":   solid(green),
		}}
		s := newTestSelector(t, SelectorConfig{Fetcher: f})

		got, _ := s.Request(context.Background(), colors, "backdrop", "poster").Wait(context.Background())
		if got.FromImage {
			t.Errorf("got %s; want fallback", got)
		}
		if calls := f.sources(); !slices.Equal(calls, []string{"backdrop"}) {
			t.Errorf("fetched %v; want only backdrop", calls)
		}
	})

	t.Run("cancelled request discards result", func(t *testing.T) {
		s := newTestSelector(t, SelectorConfig{
			Fetcher: &stubFetcher{images: map[string]*stdimage.NRGBA{"backdrop": solid(green)}},
		})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		p := s.Request(ctx, colors, "backdrop")
		select {
		case <-p.Done():
		case <-time.After(time.Second):
			t.Fatal("request did not finish")
		}
		if p.Current().FromImage {
			t.Error("cancelled request must keep the fallback")
		}
	})
}

func TestPendingWaitContext(t *testing.T) {
	p := newPending(Fallback(DefaultColors(), nil))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	got, err := p.Wait(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait() error = %v, want deadline exceeded", err)
	}
	if got.FromImage {
		t.Error("unresolved pending value should be the fallback")
	}
}

func TestDominantColorsJSON(t *testing.T) {
	d := DominantColors{MainColor: navy, FirstColor: black, SecondColor: white, Luminance: 0.5, FromImage: true}
	data, err := d.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON() error = %v", err)
	}
	want := `{"main_color":"#000080","first_color":"#000000","second_color":"#ffffff","luminance":0.5,"from_image":true}`
	if string(data) != want {
		t.Errorf("MarshalJSON() = %s, want %s", data, want)
	}
}
