package imagecache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFilename(t *testing.T) {
	tests := []struct {
		url     string
		wantExt string
	}{
		{url: "https://image.tmdb.org/t/p/w780/abc.jpg", wantExt: ".jpg"},
		{url: "https://example.com/poster.PNG?size=large", wantExt: ".png"},
		{url: "https://example.com/artwork", wantExt: ".img"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got := filename(tt.url)
			if !strings.HasSuffix(got, tt.wantExt) {
				t.Errorf("filename(%q) = %q, want suffix %q", tt.url, got, tt.wantExt)
			}
			if got != filename(tt.url) {
				t.Error("filename is not deterministic")
			}
		})
	}

	if filename("https://a/x.jpg") == filename("https://b/x.jpg") {
		t.Error("different URLs share a filename")
	}
}

func TestCacheGet(t *testing.T) {
	cache, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	calls := 0
	download := func(_ context.Context, url string) ([]byte, error) {
		calls++
		return []byte("bytes of " + url), nil
	}

	const url = "https://image.tmdb.org/t/p/w780/backdrop.jpg"

	data, hit, err := cache.Get(context.Background(), url, download)
	if err != nil || hit {
		t.Fatalf("first Get() = hit %v, err %v; want miss", hit, err)
	}
	if string(data) != "bytes of "+url {
		t.Errorf("first Get() data = %q", data)
	}

	data, hit, err = cache.Get(context.Background(), url, download)
	if err != nil || !hit {
		t.Fatalf("second Get() = hit %v, err %v; want hit", hit, err)
	}
	if string(data) != "bytes of "+url {
		t.Errorf("second Get() data = %q", data)
	}
	if calls != 1 {
		t.Errorf("download called %d times, want 1", calls)
	}

	entries, _ := os.ReadDir(cache.Dir())
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".download-") {
			t.Errorf("temporary file left behind: %s", e.Name())
		}
	}
	if _, err := os.Stat(filepath.Join(cache.Dir(), filename(url))); err != nil {
		t.Errorf("cached file missing: %v", err)
	}
}

func TestCacheGetDownloadError(t *testing.T) {
	cache, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	boom := errors.New("boom")
	_, _, err = cache.Get(context.Background(), "https://example.com/x.jpg", func(context.Context, string) ([]byte, error) {
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("Get() error = %v, want wrapped boom", err)
	}
	if _, statErr := os.Stat(cache.Path("https://example.com/x.jpg")); !os.IsNotExist(statErr) {
		t.Error("failed download must not be cached")
	}
}

func TestCacheStatsAndClear(t *testing.T) {
	cache, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	stats, err := cache.Stats()
	if err != nil || stats.Entries != 0 || stats.Bytes != 0 {
		t.Fatalf("empty Stats() = %+v, %v", stats, err)
	}

	for _, url := range []string{"https://a/1.jpg", "https://a/2.jpg"} {
		if _, _, err := cache.Get(context.Background(), url, func(context.Context, string) ([]byte, error) {
			return []byte("12345"), nil
		}); err != nil {
			t.Fatalf("Get(%s) error = %v", url, err)
		}
	}
	// In-flight downloads are not counted.
	if err := os.WriteFile(filepath.Join(cache.Dir(), ".download-123"), []byte("partial"), 0o600); err != nil {
		t.Fatal(err)
	}

	stats, err = cache.Stats()
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.Entries != 2 || stats.Bytes != 10 {
		t.Errorf("Stats() = %+v, want 2 entries of 10 bytes", stats)
	}
	if stats.Oldest.IsZero() || stats.Newest.Before(stats.Oldest) {
		t.Errorf("Stats() times = %v..%v", stats.Oldest, stats.Newest)
	}

	removed, err := cache.Clear()
	if err != nil || removed != 2 {
		t.Fatalf("Clear() = %d, %v; want 2", removed, err)
	}
	if stats, _ := cache.Stats(); stats.Entries != 0 {
		t.Errorf("Stats() after Clear = %+v", stats)
	}
	if _, err := os.Stat(filepath.Join(cache.Dir(), ".download-123")); err != nil {
		t.Errorf("Clear() removed a temporary file: %v", err)
	}
}

func TestCacheRemove(t *testing.T) {
	cache, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	const url = "https://image.tmdb.org/t/p/w300/error-page.jpg"
	calls := 0
	download := func(context.Context, string) ([]byte, error) {
		calls++
		return []byte("<html>502</html>"), nil
	}

	if _, _, err := cache.Get(context.Background(), url, download); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if err := cache.Remove(url); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if _, err := os.Stat(cache.Path(url)); !os.IsNotExist(err) {
		t.Errorf("entry still present after Remove(): %v", err)
	}
	if _, hit, _ := cache.Get(context.Background(), url, download); hit || calls != 2 {
		t.Errorf("Get() after Remove() = hit %v, %d downloads; want a fresh download", hit, calls)
	}

	if err := cache.Remove("https://example.com/never-cached.jpg"); err != nil {
		t.Errorf("Remove() of a missing entry error = %v", err)
	}
}
