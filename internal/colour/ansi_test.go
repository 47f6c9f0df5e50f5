package colour

import (
	"image/color"
	"strings"
	"testing"
)

func withColourOutput(t *testing.T, enabled bool) {
	t.Helper()
	prev := DisableColourOutput
	DisableColourOutput = !enabled
	t.Cleanup(func() { DisableColourOutput = prev })
}

func TestColourPreview(t *testing.T) {
	c := color.NRGBA{R: 30, G: 136, B: 229, A: 255}

	withColourOutput(t, true)
	got := ColourPreview(c, 3)
	if want := "\033[48;2;30;136;229m   \033[0m"; got != want {
		t.Errorf("ColourPreview() = %q, want %q", got, want)
	}
	if got := ColourPreview(c, 0); !strings.Contains(got, strings.Repeat(" ", defaultWidth)) {
		t.Errorf("ColourPreview() with zero width = %q", got)
	}

	withColourOutput(t, false)
	if got := ColourPreview(c, 3); got != "" {
		t.Errorf("ColourPreview() disabled = %q, want empty", got)
	}
}

func TestColourPreviewWithText(t *testing.T) {
	withColourOutput(t, false)
	tests := []struct {
		text  string
		width int
		want  string
	}{
		{"Aa", 6, "  Aa  "},
		{"Title", 7, " Title "},
		{"Overflow", 4, "Over"},
	}
	for _, tt := range tests {
		if got := ColourPreviewWithText(Black, White, tt.text, tt.width); got != tt.want {
			t.Errorf("ColourPreviewWithText(%q, %d) = %q, want %q", tt.text, tt.width, got, tt.want)
		}
	}

	withColourOutput(t, true)
	// Half-transparent white on black is drawn as the composited grey.
	got := ColourPreviewWithText(Black, WithAlpha(White, 128), "x", 1)
	if want := "\033[48;2;0;0;0m\033[38;2;128;128;128mx\033[0m"; got != want {
		t.Errorf("ColourPreviewWithText() = %q, want %q", got, want)
	}
}

func TestSwatchPreview(t *testing.T) {
	s := NewSwatch(color.NRGBA{B: 200, A: 255}, 10)

	withColourOutput(t, false)
	if got := SwatchPreview(s); got != "" {
		t.Errorf("SwatchPreview() disabled = %q", got)
	}

	withColourOutput(t, true)
	got := SwatchPreview(s)
	if !strings.Contains(got, "Title") || !strings.Contains(got, "Body") {
		t.Errorf("SwatchPreview() = %q", got)
	}
}
