// Package image fetches artwork from files or HTTP(S) URLs and decodes it
// into small CPU pixel buffers ready for colour analysis.
package image

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format
	_ "image/jpeg" // Register JPEG format
	_ "image/png"  // Register PNG format
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	_ "golang.org/x/image/webp" // Register WebP format
	"golang.org/x/sync/singleflight"

	httputil "github.com/jmylchreest/posterhue/internal/util/http"
	"github.com/jmylchreest/posterhue/internal/security"
	"github.com/jmylchreest/posterhue/internal/util/imagecache"
)

// DefaultSize is the edge length artwork is scaled to before analysis.
// Palette extraction gains nothing from full resolution.
const DefaultSize = 128

// DefaultMaxPixels bounds the declared size of an image before it is
// decoded.
const DefaultMaxPixels = 1 << 26

// Request describes the artwork to fetch and how to size it.
type Request struct {
	// Source is a local file path or an HTTP(S) URL.
	Source string

	// Size is the target edge length. If zero, DefaultSize is used.
	Size int

	// Scale selects fill (cover) or fit (contain) sizing.
	Scale ScaleMode
}

// Fetcher resolves a source to a decoded, downscaled bitmap. The result is
// always a plain NRGBA buffer whose pixels can be read directly.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) (*image.NRGBA, error)
}

// FetcherOptions configures a SmartFetcher.
type FetcherOptions struct {
	// Cache stores downloaded URLs on disk. Nil disables caching.
	Cache *imagecache.Cache

	// Timeout bounds a single fetch including decoding.
	// If zero, httputil.DefaultTimeout is used.
	Timeout time.Duration

	// Client overrides the HTTP client.
	Client *http.Client

	// MaxPixels refuses images declaring a larger area.
	// If zero, DefaultMaxPixels is used.
	MaxPixels int

	// Logger receives debug output. Nil discards it.
	Logger hclog.Logger
}

// SmartFetcher loads images from both local files and HTTP(S) URLs.
// Concurrent fetches of the same request share one download and decode.
type SmartFetcher struct {
	cache     *imagecache.Cache
	timeout   time.Duration
	maxPixels int
	client    *http.Client
	logger    hclog.Logger
	group     singleflight.Group
}

// NewSmartFetcher creates a new SmartFetcher instance.
func NewSmartFetcher(opts FetcherOptions) *SmartFetcher {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = httputil.DefaultTimeout
	}
	maxPixels := opts.MaxPixels
	if maxPixels == 0 {
		maxPixels = DefaultMaxPixels
	}
	logger := opts.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	return &SmartFetcher{
		cache:     opts.Cache,
		timeout:   timeout,
		maxPixels: maxPixels,
		client:    opts.Client,
		logger:    logger,
	}
}

// Fetch implements Fetcher.
func (f *SmartFetcher) Fetch(ctx context.Context, req Request) (*image.NRGBA, error) {
	if req.Source == "" {
		return nil, fmt.Errorf("image source cannot be empty")
	}
	if req.Size == 0 {
		req.Size = DefaultSize
	}

	key := fmt.Sprintf("%s|%d|%s", req.Source, req.Size, req.Scale)
	// The shared load must not die with whichever caller started it.
	loadCtx := context.WithoutCancel(ctx)
	ch := f.group.DoChan(key, func() (any, error) {
		return f.load(loadCtx, req)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		img := res.Val.(*image.NRGBA)
		if res.Shared {
			// Each caller owns its bitmap.
			return Scale(img, 0, req.Scale), nil
		}
		return img, nil
	}
}

// load reads, decodes and scales one source within the fetch timeout.
func (f *SmartFetcher) load(ctx context.Context, req Request) (*image.NRGBA, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	start := time.Now()
	data, err := f.read(ctx, req.Source)
	if err != nil {
		return nil, err
	}

	img, format, err := f.decode(data)
	if err != nil {
		f.evict(req.Source)
		return nil, err
	}

	scaled := Scale(img, req.Size, req.Scale)
	f.logger.Debug("fetched image",
		"source", req.Source,
		"format", format,
		"original", img.Bounds().Size(),
		"scaled", scaled.Bounds().Size(),
		"elapsed", time.Since(start))

	return scaled, nil
}

// decode checks the declared dimensions against the pixel budget before
// decoding the full image.
func (f *SmartFetcher) decode(data []byte) (image.Image, string, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, format, fmt.Errorf("failed to decode image (format: %s): %w", format, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, format, fmt.Errorf("image has no pixels: %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.Width > f.maxPixels/cfg.Height {
		return nil, format, fmt.Errorf("image too large: %dx%d (maximum %d pixels)", cfg.Width, cfg.Height, f.maxPixels)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, format, fmt.Errorf("failed to decode image (format: %s): %w", format, err)
	}
	return img, format, nil
}

// evict drops a cached download that could not be decoded, so the next
// fetch downloads it again.
func (f *SmartFetcher) evict(source string) {
	if f.cache == nil || !IsURL(source) {
		return
	}
	if err := f.cache.Remove(source); err != nil {
		f.logger.Warn("failed to evict undecodable image", "source", source, "error", err)
		return
	}
	f.logger.Debug("evicted undecodable image from cache", "source", source)
}

// read returns the raw bytes of a file or URL.
func (f *SmartFetcher) read(ctx context.Context, source string) ([]byte, error) {
	if !IsURL(source) {
		return readFile(source)
	}

	download := func(ctx context.Context, url string) ([]byte, error) {
		return httputil.Fetch(ctx, url, httputil.FetchOptions{Timeout: f.timeout, Client: f.client})
	}

	if f.cache == nil {
		data, err := download(ctx, source)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch image from URL: %w", err)
		}
		return data, nil
	}

	data, hit, err := f.cache.Get(ctx, source, download)
	if err != nil && data == nil {
		return nil, err
	}
	if err != nil {
		f.logger.Warn("failed to cache image", "source", source, "error", err)
	}
	f.logger.Trace("image cache lookup", "source", source, "hit", hit)
	return data, nil
}

// readFile loads a local image file.
func readFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("image file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to stat image file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", path)
	}

	data, err := os.ReadFile(path) // #nosec G304 - User-specified image path, intended to be read
	if err != nil {
		return nil, fmt.Errorf("failed to open image file: %w", err)
	}
	return data, nil
}

// IsURL reports whether source is an HTTP(S) URL.
func IsURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// ValidateSource checks a source before fetching. URLs are only checked for
// shape; local files must exist and carry a decodable image header.
func ValidateSource(source string) error {
	if source == "" {
		return fmt.Errorf("image source cannot be empty")
	}
	if IsURL(source) {
		return security.ValidateImageURL(source)
	}

	file, err := os.Open(source) // #nosec G304 - User-specified image path, intended to be read
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("image file not found: %s", source)
		}
		return fmt.Errorf("failed to open image file: %w", err)
	}
	defer file.Close()

	if _, _, err := image.DecodeConfig(file); err != nil {
		return fmt.Errorf("unsupported or invalid image format: %w", err)
	}
	return nil
}

// SupportedImageExtensions returns a list of supported image file extensions.
func SupportedImageExtensions() []string {
	return []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}
}
