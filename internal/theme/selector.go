package theme

import (
	"context"
	"fmt"
	stdimage "image"
	"image/color"
	"runtime"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/semaphore"

	"github.com/jmylchreest/posterhue/internal/colour"
	"github.com/jmylchreest/posterhue/internal/image"
)

// Default selector settings.
const (
	DefaultMaxColors = 8
	DefaultSize      = image.DefaultSize
)

// SelectorConfig configures a Selector.
type SelectorConfig struct {
	// Fetcher loads artwork. Required.
	Fetcher image.Fetcher

	// Quantizer reduces artwork to swatches. If nil, median cut is used.
	Quantizer colour.Quantizer

	// Threshold is the minimum contrast ratio against the background.
	// If zero, colour.ContrastThreshold is used.
	Threshold float64

	// Size is the edge length artwork is fetched at. If zero, DefaultSize.
	Size int

	// MaxColors caps the swatch count. If zero, DefaultMaxColors.
	MaxColors int

	// Workers bounds concurrent quantizations. If zero, GOMAXPROCS.
	Workers int

	// Logger receives diagnostics. Nil discards them.
	Logger hclog.Logger
}

// Validate checks the configuration.
func (c SelectorConfig) Validate() error {
	if c.Fetcher == nil {
		return fmt.Errorf("fetcher is required")
	}
	if c.Threshold < 0 {
		return fmt.Errorf("contrast threshold must be non-negative, got %.2f", c.Threshold)
	}
	if c.Size < 0 {
		return fmt.Errorf("size must be non-negative, got %d", c.Size)
	}
	if c.MaxColors < 0 || c.MaxColors > 256 {
		return fmt.Errorf("max colors must be between 1 and 256, got %d", c.MaxColors)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", c.Workers)
	}
	return nil
}

// Selector derives DominantColors from artwork. It is safe for concurrent use.
type Selector struct {
	fetcher   image.Fetcher
	quantizer colour.Quantizer
	threshold float64
	size      int
	maxColors int
	workers   *semaphore.Weighted
	logger    hclog.Logger

	// contrast measures a foreground against the background.
	contrast func(fg, bg color.Color) float64
}

// NewSelector creates a Selector from cfg, applying defaults.
func NewSelector(cfg SelectorConfig) (*Selector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid selector config: %w", err)
	}

	s := &Selector{
		fetcher:   cfg.Fetcher,
		quantizer: cfg.Quantizer,
		threshold: cfg.Threshold,
		size:      cfg.Size,
		maxColors: cfg.MaxColors,
		logger:    cfg.Logger,
		contrast:  colour.Contrast,
	}
	if s.quantizer == nil {
		s.quantizer = colour.NewMedianCutQuantizer()
	}
	if s.threshold == 0 {
		s.threshold = colour.ContrastThreshold
	}
	if s.size == 0 {
		s.size = DefaultSize
	}
	if s.maxColors == 0 {
		s.maxColors = DefaultMaxColors
	}
	if s.logger == nil {
		s.logger = hclog.NewNullLogger()
	}
	workers := cfg.Workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	s.workers = semaphore.NewWeighted(int64(workers))

	return s, nil
}

// Derive fetches source and selects colours legible on background. It
// reports false when the artwork cannot be fetched or no colours pass;
// callers keep whatever colours they already show.
func (s *Selector) Derive(ctx context.Context, source string, background color.Color) (DominantColors, bool) {
	_, result, ok := s.derive(ctx, source, background)
	return result, ok
}

// derive is Derive that also reports whether the fetch itself succeeded.
func (s *Selector) derive(ctx context.Context, source string, background color.Color) (fetched bool, result DominantColors, ok bool) {
	img, err := s.fetcher.Fetch(ctx, image.Request{Source: source, Size: s.size, Scale: image.ScaleFill})
	if err != nil {
		s.logger.Debug("artwork unavailable", "source", source, "error", err)
		return false, DominantColors{}, false
	}

	palette, err := s.quantize(ctx, img)
	if err != nil {
		s.logger.Debug("failed to quantize artwork", "source", source, "error", err)
		return true, DominantColors{}, false
	}
	if palette == nil {
		s.logger.Debug("quantizer returned no palette", "source", source)
		return true, DominantColors{}, false
	}

	result, ok = s.choose(palette, background)
	if !ok {
		s.logger.Debug("no legible colours in artwork, using theme colours", "source", source)
		return true, DominantColors{}, false
	}
	s.logger.Debug("derived colours", "source", source, "colours", result.String())
	return true, result, true
}

// quantize runs the quantizer on the worker pool.
func (s *Selector) quantize(ctx context.Context, img *stdimage.NRGBA) (*colour.Palette, error) {
	if err := s.workers.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer s.workers.Release(1)

	// The artwork is already fetched at analysis size, and the unfiltered
	// dominant colours are wanted.
	return s.quantizer.Quantize(ctx, img, colour.Options{
		MaxColors:  s.maxColors,
		ResizeArea: 0,
		Filters:    nil,
	})
}

// swatchSet is the part of a palette the selection policy reads.
type swatchSet interface {
	Vibrant() (colour.Swatch, bool)
	ByPopulation() []colour.Swatch
}

// choose applies the selection policy. A vibrant swatch, when present, is
// the only candidate: its colours are tested one by one and the
// population scan is never consulted, even if some of them fail.
func (s *Selector) choose(swatches swatchSet, background color.Color) (DominantColors, bool) {
	var main, first, second *color.NRGBA

	if vibrant, ok := swatches.Vibrant(); ok {
		if s.legible(vibrant.RGB, background) {
			main = &vibrant.RGB
		}
		if s.legible(vibrant.TitleTextColor, background) {
			first = &vibrant.TitleTextColor
		}
		if s.legible(vibrant.BodyTextColor, background) {
			second = &vibrant.BodyTextColor
		}
		s.logger.Trace("vibrant swatch", "swatch", vibrant.String(),
			"main", main != nil, "first", first != nil, "second", second != nil)
	} else {
		for _, sw := range swatches.ByPopulation() {
			if s.legible(sw.RGB, background) &&
				s.legible(sw.TitleTextColor, background) &&
				s.legible(sw.BodyTextColor, background) {
				s.logger.Trace("population swatch", "swatch", sw.String())
				main, first, second = &sw.RGB, &sw.TitleTextColor, &sw.BodyTextColor
				break
			}
		}
	}

	if main == nil || first == nil {
		return DominantColors{}, false
	}
	if second == nil {
		second = first
	}

	result := DominantColors{
		MainColor:   *main,
		FirstColor:  *first,
		SecondColor: *second,
		FromImage:   true,
	}
	switch {
	case colour.Luminance(result.MainColor) != 0:
		result.Luminance = colour.Luminance(result.MainColor)
	case colour.Luminance(result.FirstColor) != 0:
		result.Luminance = colour.Luminance(result.FirstColor)
	default:
		result.Luminance = colour.Luminance(result.SecondColor)
	}
	return result, true
}

func (s *Selector) legible(fg, background color.Color) bool {
	return s.contrast(fg, background) >= s.threshold
}
