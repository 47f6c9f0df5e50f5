package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/posterhue/internal/colour"
	"github.com/jmylchreest/posterhue/internal/image"
)

var extractOpts struct {
	format     string
	output     string
	preview    string
	filter     bool
	scale      string
	resizeArea int
}

// extractCmd represents the extract command.
var extractCmd = &cobra.Command{
	Use:   "extract <image>",
	Short: "Extract a swatch palette from artwork",
	Long: `Extract a swatch palette from a local image or an HTTP(S) URL.

Each swatch carries its population and the white or black text colour, at
the lowest opacity that stays readable, for titles and body text. The
palette also resolves the six vibrant and muted targets.

Supported image formats: JPEG, PNG, GIF, WebP

Examples:
  # Swatches and targets as a table
  posterhue extract backdrop.jpg

  # Sixteen swatches with k-means, as JSON
  posterhue extract -c 16 -a kmeans --format json backdrop.jpg

  # Skip near-black, near-white and skin tones
  posterhue extract --filter https://image.tmdb.org/t/p/w300/abc.jpg`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringVarP(&extractOpts.format, "format", "f", "text", "output format (text, hex, rgb, json, yaml)")
	extractCmd.Flags().StringVarP(&extractOpts.output, "output", "o", "", "output file (default: stdout)")
	extractCmd.Flags().StringVar(&extractOpts.preview, "preview", previewAuto, "colour previews (auto, always, never)")
	extractCmd.Flags().BoolVar(&extractOpts.filter, "filter", false, "drop near-black, near-white and skin-tone colours")
	extractCmd.Flags().StringVar(&extractOpts.scale, "scale", "fill", "how artwork is sized before analysis (fill, fit)")
	extractCmd.Flags().IntVar(&extractOpts.resizeArea, "resize-area", 0, "further downscale to this pixel area before quantizing (0 = off)")
}

// runExtract executes the extract command.
func runExtract(cmd *cobra.Command, args []string) error {
	source := args[0]
	if err := image.ValidateSource(source); err != nil {
		return fmt.Errorf("invalid image source: %w", err)
	}

	scale, err := image.ParseScaleMode(extractOpts.scale)
	if err != nil {
		return err
	}
	preview, err := usePreview(extractOpts.preview, cmd.OutOrStdout(), extractOpts.output != "")
	if err != nil {
		return err
	}

	opts := colour.Options{
		MaxColors:  cfg.MaxColors,
		ResizeArea: extractOpts.resizeArea,
	}
	if extractOpts.filter {
		opts.Filters = []colour.Filter{colour.DefaultFilter}
	}
	if err := opts.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	fetcher, err := newFetcher()
	if err != nil {
		return err
	}

	logger.Debug("loading image", "source", source, "size", cfg.TargetSize, "scale", scale)
	img, err := fetcher.Fetch(ctx, image.Request{Source: source, Size: cfg.TargetSize, Scale: scale})
	if err != nil {
		return fmt.Errorf("failed to load image: %w", err)
	}

	quantizer, release, err := newQuantizer(ctx)
	if err != nil {
		return err
	}
	defer release()

	logger.Debug("extracting colours", "max_colors", opts.MaxColors, "algorithm", cfg.Algorithm)
	palette, err := quantizer.Quantize(ctx, img, opts)
	if err != nil {
		return fmt.Errorf("failed to extract colours: %w", err)
	}
	logger.Debug("extracted colours", "swatches", palette.Len())

	output, err := withPreview(preview, func() (string, error) {
		return formatPalette(palette, extractOpts.format, preview)
	})
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}

	return writeOutput(cmd, extractOpts.output, output)
}

// formatPalette formats the palette according to the specified format.
func formatPalette(palette *colour.Palette, format string, showPreview bool) (string, error) {
	switch format {
	case "text", "":
		return formatTable(palette, showPreview), nil
	case "hex":
		return formatSwatches(palette, showPreview, func(s colour.Swatch) string { return colour.Hex(s.RGB) }), nil
	case "rgb":
		return formatSwatches(palette, showPreview, func(s colour.Swatch) string { return colour.ToRGB(s.RGB).String() }), nil
	case "json", "yaml":
		return encode(palette.Export(), format)
	default:
		return "", fmt.Errorf("unsupported format: %s (supported: text, hex, rgb, json, yaml)", format)
	}
}

// formatSwatches prints one swatch per line, most populous first.
func formatSwatches(palette *colour.Palette, showPreview bool, label func(colour.Swatch) string) string {
	var b strings.Builder
	for _, s := range palette.ByPopulation() {
		if showPreview {
			b.WriteString(colour.ColourPreview(s.RGB, 8) + "  ")
		}
		b.WriteString(label(s) + "\n")
	}
	return b.String()
}

// formatTable renders swatches with their text colours, then the resolved
// targets.
func formatTable(palette *colour.Palette, showPreview bool) string {
	if palette.Len() == 0 {
		return "No swatches found\n"
	}

	headers := []string{"Hex", "RGB", "Population", "Title", "Body"}
	if showPreview {
		headers = append([]string{"Preview"}, headers...)
	}

	swatches := NewTable(headers)
	for _, s := range palette.ByPopulation() {
		row := []string{
			colour.Hex(s.RGB),
			colour.ToRGB(s.RGB).String(),
			strconv.Itoa(s.Population),
			colour.Hex(s.TitleTextColor),
			colour.Hex(s.BodyTextColor),
		}
		if showPreview {
			row = append([]string{colour.SwatchPreview(s)}, row...)
		}
		swatches.AddRow(row)
	}

	targets := NewTable([]string{"Target", "Hex", "Population"})
	for _, t := range colour.DefaultTargets() {
		s, ok := palette.Target(t.Name)
		if !ok {
			targets.AddRow([]string{t.Name, "-", "-"})
			continue
		}
		hex := colour.Hex(s.RGB)
		if showPreview {
			hex = colour.ColourPreview(s.RGB, 2) + " " + hex
		}
		targets.AddRow([]string{t.Name, hex, strconv.Itoa(s.Population)})
	}

	return swatches.Render() + "\n" + targets.Render()
}
