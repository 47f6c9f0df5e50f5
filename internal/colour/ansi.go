package colour

import (
	"fmt"
	"image/color"
	"strings"
)

// ANSI escape codes for terminal colours.
const (
	ansiReset    = "\033[0m"
	ansiFgPrefix = "\033[38;2;"
	ansiBgPrefix = "\033[48;2;"
	ansiSuffix   = "m"
	defaultWidth = 8
)

// DisableColourOutput can be used to disable colour output.
var DisableColourOutput = false

func ansiBg(c color.NRGBA) string {
	return fmt.Sprintf("%s%d;%d;%d%s", ansiBgPrefix, c.R, c.G, c.B, ansiSuffix)
}

func ansiFg(c color.NRGBA) string {
	return fmt.Sprintf("%s%d;%d;%d%s", ansiFgPrefix, c.R, c.G, c.B, ansiSuffix)
}

// ColourPreview returns an ANSI-coloured block for a colour, or an empty
// string when colour output is disabled.
func ColourPreview(c color.Color, width int) string {
	if DisableColourOutput {
		return ""
	}
	if width <= 0 {
		width = defaultWidth
	}

	return ansiBg(ToNRGBA(c)) + strings.Repeat(" ", width) + ansiReset
}

// ColourPreviewWithText draws text in foreground on background. A translucent
// foreground is composited first, as it would be on screen.
func ColourPreviewWithText(background, foreground color.Color, text string, width int) string {
	if width <= 0 {
		width = defaultWidth
	}

	// Pad or truncate text to fit width.
	displayText := text
	if len(text) > width {
		displayText = text[:width]
	} else if len(text) < width {
		padding := (width - len(text)) / 2
		displayText = strings.Repeat(" ", padding) + text + strings.Repeat(" ", width-len(text)-padding)
	}

	if DisableColourOutput {
		return displayText
	}

	bg := ToNRGBA(background)
	bg.A = 255
	fg := CompositeOver(foreground, bg)

	return ansiBg(bg) + ansiFg(fg) + displayText + ansiReset
}

// SwatchPreview shows a swatch with its title and body text colours drawn
// on it, or an empty string when colour output is disabled.
func SwatchPreview(s Swatch) string {
	if DisableColourOutput {
		return ""
	}
	return ColourPreviewWithText(s.RGB, s.TitleTextColor, "Title", 7) +
		ColourPreviewWithText(s.RGB, s.BodyTextColor, "Body", 6)
}
