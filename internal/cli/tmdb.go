package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/posterhue/internal/tmdb"
)

var tmdbOpts struct {
	kind string
	size string
}

// tmdbURLCmd represents the tmdb-url command.
var tmdbURLCmd = &cobra.Command{
	Use:   "tmdb-url <path>",
	Short: "Build a TMDB image URL",
	Long: `Build a full TMDB image URL from an image path as returned by the TMDB API.

The size defaults to the configured backdrop or poster size.

Examples:
  posterhue tmdb-url /kqjL17yufvn9OVLyXYpvtyrFfak.jpg
  posterhue tmdb-url --kind poster --image-size w500 /abc.jpg`,
	Args: cobra.ExactArgs(1),
	RunE: runTMDBURL,
}

func init() {
	rootCmd.AddCommand(tmdbURLCmd)

	tmdbURLCmd.Flags().StringVar(&tmdbOpts.kind, "kind", "backdrop", "image kind (backdrop, poster)")
	tmdbURLCmd.Flags().StringVar(&tmdbOpts.size, "image-size", "", fmt.Sprintf("image size (backdrop: %s; poster: %s)",
		strings.Join(tmdb.BackdropSizes, ", "), strings.Join(tmdb.PosterSizes, ", ")))
}

func runTMDBURL(cmd *cobra.Command, args []string) error {
	images := cfg.Images()
	if cmd.Flags().Changed("image-size") {
		switch tmdbOpts.kind {
		case "backdrop":
			images.BackdropSize = tmdbOpts.size
		case "poster":
			images.PosterSize = tmdbOpts.size
		}
		if err := images.Validate(); err != nil {
			return err
		}
	}

	var url string
	switch tmdbOpts.kind {
	case "backdrop":
		url = images.BackdropURL(args[0])
	case "poster":
		url = images.PosterURL(args[0])
	default:
		return fmt.Errorf("invalid kind: %s (valid: backdrop, poster)", tmdbOpts.kind)
	}
	if url == "" {
		return fmt.Errorf("image path cannot be empty")
	}

	fmt.Fprintln(cmd.OutOrStdout(), url)
	return nil
}
