// Package imagecache keeps downloaded artwork on disk so repeated theming of
// the same title does not hit the network.
package imagecache

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Cache is a directory of downloaded images keyed by URL.
type Cache struct {
	dir string
}

// DefaultCacheDir returns the default cache directory path.
func DefaultCacheDir() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		// Fallback to home directory if cache dir not available.
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to determine cache directory: %w", err)
		}
		return filepath.Join(home, ".cache", "posterhue", "images"), nil
	}
	return filepath.Join(cacheDir, "posterhue", "images"), nil
}

// New creates a cache rooted at dir, creating the directory if needed.
// An empty dir uses DefaultCacheDir.
func New(dir string) (*Cache, error) {
	if dir == "" {
		defaultDir, err := DefaultCacheDir()
		if err != nil {
			return nil, err
		}
		dir = defaultDir
	}

	if err := os.MkdirAll(dir, 0o755); err != nil { // #nosec G301 - Cache directory needs standard permissions
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &Cache{dir: dir}, nil
}

// Dir returns the cache directory.
func (c *Cache) Dir() string {
	return c.dir
}

// Path returns where the image for url is stored.
func (c *Cache) Path(url string) string {
	return filepath.Join(c.dir, filename(url))
}

// filename creates a deterministic filename from a URL: the first 16 bytes of
// its SHA256 in hex plus the original extension.
func filename(url string) string {
	hash := sha256.Sum256([]byte(url))

	ext := filepath.Ext(url)
	if idx := strings.IndexAny(ext, "?#"); idx != -1 {
		ext = ext[:idx]
	}
	if ext == "" || len(ext) > 5 || strings.ContainsRune(ext, '/') {
		ext = ".img"
	}

	return fmt.Sprintf("%x%s", hash[:16], strings.ToLower(ext))
}

// Get returns the cached bytes for url, calling download and storing its
// result on a miss. A failed write still returns the downloaded bytes.
func (c *Cache) Get(ctx context.Context, url string, download func(context.Context, string) ([]byte, error)) ([]byte, bool, error) {
	path := c.Path(url)

	data, err := os.ReadFile(path) // #nosec G304 - Path is derived from a hash inside the cache directory
	if err == nil {
		return data, true, nil
	}
	if !os.IsNotExist(err) {
		return nil, false, fmt.Errorf("failed to read cached image: %w", err)
	}

	data, err = download(ctx, url)
	if err != nil {
		return nil, false, fmt.Errorf("failed to download image: %w", err)
	}

	return data, false, c.store(path, data)
}

// Remove deletes the cached image for url. A missing entry is not an error.
func (c *Cache) Remove(url string) error {
	if err := os.Remove(c.Path(url)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove cached image: %w", err)
	}
	return nil
}

// store writes through a temporary file so readers never see partial images.
func (c *Cache) store(path string, data []byte) error {
	tmp, err := os.CreateTemp(c.dir, ".download-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write cached image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write cached image: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to store cached image: %w", err)
	}
	return nil
}

// Stats summarises the cache contents.
type Stats struct {
	Entries int
	Bytes   int64
	Oldest  time.Time
	Newest  time.Time
}

// entries lists cached images, skipping in-flight temporary files.
func (c *Cache) entries() ([]os.DirEntry, error) {
	all, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read cache directory: %w", err)
	}
	kept := all[:0]
	for _, e := range all {
		if e.Type().IsRegular() && !strings.HasPrefix(e.Name(), ".") {
			kept = append(kept, e)
		}
	}
	return kept, nil
}

// Stats counts cached images and their total size.
func (c *Cache) Stats() (Stats, error) {
	entries, err := c.entries()
	if err != nil {
		return Stats{}, err
	}

	var s Stats
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			continue
		}
		s.Entries++
		s.Bytes += info.Size()
		if mod := info.ModTime(); s.Oldest.IsZero() || mod.Before(s.Oldest) {
			s.Oldest = mod
		}
		if mod := info.ModTime(); mod.After(s.Newest) {
			s.Newest = mod
		}
	}
	return s, nil
}

// Clear removes every cached image and returns how many were removed.
func (c *Cache) Clear() (int, error) {
	entries, err := c.entries()
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, e := range entries {
		if err := os.Remove(filepath.Join(c.dir, e.Name())); err != nil {
			return removed, fmt.Errorf("failed to remove %s: %w", e.Name(), err)
		}
		removed++
	}
	return removed, nil
}
