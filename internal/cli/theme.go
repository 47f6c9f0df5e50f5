package cli

import (
	"errors"
	"fmt"
	"image/color"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/posterhue/internal/colour"
	"github.com/jmylchreest/posterhue/internal/theme"
)

var themeOpts struct {
	format   string
	output   string
	preview  string
	backdrop string
	poster   string
	strict   bool
}

// themeCmd represents the theme command.
var themeCmd = &cobra.Command{
	Use:   "theme [image...]",
	Short: "Pick theme colours from artwork",
	Long: `Pick a main colour and two accents from artwork that stay legible against
the configured background.

Sources are tried in order, and the next one is only used when the previous
could not be fetched. TMDB backdrop and poster paths are expanded to full
image URLs and tried before any positional sources. When no colours pass,
the configured theme colours are printed instead.

Examples:
  # Theme from a local backdrop on a dark UI
  posterhue theme --background '#121212' backdrop.jpg

  # TMDB backdrop, falling back to the poster if the backdrop is missing
  posterhue theme --backdrop /kqjL17yufvn9OVLyXYpvtyrFfak.jpg --poster /abc.jpg

  # Fail instead of printing theme colours
  posterhue theme --strict --format json backdrop.jpg`,
	RunE: runTheme,
}

func init() {
	rootCmd.AddCommand(themeCmd)

	themeCmd.Flags().StringVarP(&themeOpts.format, "format", "f", "text", "output format (text, json, yaml)")
	themeCmd.Flags().StringVarP(&themeOpts.output, "output", "o", "", "output file (default: stdout)")
	themeCmd.Flags().StringVar(&themeOpts.preview, "preview", previewAuto, "colour previews (auto, always, never)")
	themeCmd.Flags().StringVar(&themeOpts.backdrop, "backdrop", "", "TMDB backdrop path")
	themeCmd.Flags().StringVar(&themeOpts.poster, "poster", "", "TMDB poster path")
	themeCmd.Flags().BoolVar(&themeOpts.strict, "strict", false, "exit with an error when no artwork colours pass")
}

// errNoThemeColours is returned in strict mode when the fallback was used.
var errNoThemeColours = errors.New("no legible colours found in artwork")

// runTheme executes the theme command.
func runTheme(cmd *cobra.Command, args []string) error {
	images := cfg.Images()
	sources := make([]string, 0, len(args)+2)
	if themeOpts.backdrop != "" {
		sources = append(sources, images.BackdropURL(themeOpts.backdrop))
	}
	if themeOpts.poster != "" {
		sources = append(sources, images.PosterURL(themeOpts.poster))
	}
	sources = append(sources, args...)
	if len(sources) == 0 {
		return fmt.Errorf("no artwork given: pass an image or --backdrop/--poster")
	}

	colors, err := cfg.Colors()
	if err != nil {
		return err
	}
	preview, err := usePreview(themeOpts.preview, cmd.OutOrStdout(), themeOpts.output != "")
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	selector, release, err := newSelector(ctx)
	if err != nil {
		return err
	}
	defer release()

	logger.Debug("requesting theme", "sources", sources)
	result, err := selector.Request(ctx, colors, sources...).Wait(ctx)
	if err != nil {
		logger.Warn("theme request did not finish", "error", err)
	}

	if themeOpts.strict && !result.FromImage {
		return errNoThemeColours
	}

	output, err := withPreview(preview, func() (string, error) {
		return formatTheme(result, colors, themeOpts.format, preview)
	})
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	return writeOutput(cmd, themeOpts.output, output)
}

// formatTheme renders the selected colours.
func formatTheme(result theme.DominantColors, colors theme.Colors, format string, showPreview bool) (string, error) {
	switch format {
	case "text", "":
		source := "theme fallback"
		if result.FromImage {
			source = "artwork"
		}

		var b strings.Builder
		fmt.Fprintf(&b, "Source:     %s\n", source)
		for _, row := range []struct {
			label string
			c     color.NRGBA
		}{
			{"Main:", result.MainColor},
			{"First:", result.FirstColor},
			{"Second:", result.SecondColor},
		} {
			fmt.Fprintf(&b, "%-11s %s", row.label, colour.Hex(row.c))
			if showPreview {
				b.WriteString(" " + colour.ColourPreviewWithText(colors.Background, row.c, "Aa", 6))
			}
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "Luminance:  %.3f\n", result.Luminance)
		return b.String(), nil
	case "json", "yaml":
		return encode(result, format)
	default:
		return "", fmt.Errorf("unsupported format: %s (supported: text, json, yaml)", format)
	}
}
