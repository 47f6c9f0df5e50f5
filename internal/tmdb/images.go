// Package tmdb builds TMDB image URLs.
package tmdb

import (
	"fmt"
	"slices"
	"strings"
)

// DefaultImageBaseURL is the TMDB image CDN root.
const DefaultImageBaseURL = "https://image.tmdb.org/t/p/"

// Image sizes TMDB serves. Original is the unscaled upload.
const (
	SizeOriginal = "original"
)

// BackdropSizes are the widths TMDB serves backdrops at.
var BackdropSizes = []string{"w300", "w780", "w1280", SizeOriginal}

// PosterSizes are the widths TMDB serves posters at.
var PosterSizes = []string{"w92", "w154", "w185", "w342", "w500", "w780", SizeOriginal}

// Default sizes. Colour analysis only needs a small image.
const (
	DefaultBackdropSize = "w300"
	DefaultPosterSize   = "w185"
)

// Images builds artwork URLs against a configured base and sizes.
type Images struct {
	BaseURL      string
	BackdropSize string
	PosterSize   string
}

// DefaultImages returns the public CDN with the small default sizes.
func DefaultImages() Images {
	return Images{
		BaseURL:      DefaultImageBaseURL,
		BackdropSize: DefaultBackdropSize,
		PosterSize:   DefaultPosterSize,
	}
}

// Validate checks the sizes against those TMDB serves.
func (i Images) Validate() error {
	if i.BaseURL == "" {
		return fmt.Errorf("image base URL cannot be empty")
	}
	if !slices.Contains(BackdropSizes, i.BackdropSize) {
		return fmt.Errorf("invalid backdrop size: %s (valid: %s)", i.BackdropSize, strings.Join(BackdropSizes, ", "))
	}
	if !slices.Contains(PosterSizes, i.PosterSize) {
		return fmt.Errorf("invalid poster size: %s (valid: %s)", i.PosterSize, strings.Join(PosterSizes, ", "))
	}
	return nil
}

// BackdropURL returns the backdrop URL for a TMDB file path, or "" if the
// title has none.
func (i Images) BackdropURL(path string) string {
	return ImageURL(i.BaseURL, i.BackdropSize, path)
}

// PosterURL returns the poster URL for a TMDB file path, or "" if the title
// has none.
func (i Images) PosterURL(path string) string {
	return ImageURL(i.BaseURL, i.PosterSize, path)
}

// ImageURL joins base, size and a TMDB file path such as "/abc.jpg".
// An empty path yields "".
func ImageURL(base, size, path string) string {
	if path == "" {
		return ""
	}
	if size == "" {
		size = SizeOriginal
	}
	return strings.TrimSuffix(base, "/") + "/" + size + "/" + strings.TrimPrefix(path, "/")
}
