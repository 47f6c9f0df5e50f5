package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			w.Write([]byte(r.Header.Get("User-Agent") + "|" + r.Header.Get("X-Test")))
		case "/big":
			w.Write([]byte(strings.Repeat("x", 64)))
		case "/slow":
			time.Sleep(200 * time.Millisecond)
			w.Write([]byte("late"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	t.Run("success", func(t *testing.T) {
		data, err := Fetch(context.Background(), server.URL+"/ok", FetchOptions{
			Headers: map[string]string{"X-Test": "yes"},
		})
		if err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
		agent, header, _ := strings.Cut(string(data), "|")
		if !strings.HasPrefix(agent, UserAgentName+"/") {
			t.Errorf("User-Agent = %q", agent)
		}
		if header != "yes" {
			t.Errorf("X-Test header = %q, want yes", header)
		}
	})

	t.Run("not found", func(t *testing.T) {
		if _, err := Fetch(context.Background(), server.URL+"/missing", FetchOptions{}); err == nil {
			t.Error("expected error for 404")
		}
	})

	t.Run("too large", func(t *testing.T) {
		_, err := Fetch(context.Background(), server.URL+"/big", FetchOptions{MaxBytes: 16})
		if !errors.Is(err, ErrTooLarge) {
			t.Errorf("Fetch() error = %v, want ErrTooLarge", err)
		}
	})

	t.Run("timeout", func(t *testing.T) {
		if _, err := Fetch(context.Background(), server.URL+"/slow", FetchOptions{Timeout: 20 * time.Millisecond}); err == nil {
			t.Error("expected timeout error")
		}
	})
}
