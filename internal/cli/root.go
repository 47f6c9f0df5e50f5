// Package cli provides the command-line interface for posterhue.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/posterhue/internal/colour"
	"github.com/jmylchreest/posterhue/internal/config"
	"github.com/jmylchreest/posterhue/internal/image"
	"github.com/jmylchreest/posterhue/internal/plugin/executor"
	"github.com/jmylchreest/posterhue/internal/security"
	"github.com/jmylchreest/posterhue/internal/theme"
	"github.com/jmylchreest/posterhue/internal/util/imagecache"
	"github.com/jmylchreest/posterhue/internal/version"
)

// Global configuration and state.
var (
	cfg        *config.Config
	logger     hclog.Logger
	globalOpts struct {
		verbose         bool
		quiet           bool
		configPath      string
		background      string
		threshold       float64
		algorithm       string
		maxColors       int
		size            int
		workers         int
		timeout         string
		cacheDir        string
		noCache         bool
		quantizerPlugin string
	}

	// rootCmd represents the base command when called without any subcommands.
	rootCmd = &cobra.Command{
		Use:   "posterhue",
		Short: "Pick legible theme colours from movie artwork",
		Long: `posterhue extracts dominant colours from movie and TV artwork and picks
the ones that stay readable against your UI background.

Artwork can be a local file, an HTTP(S) URL, or a TMDB image path. The
built-in median cut quantizer can be swapped for an external plugin.`,
		Version:           version.Short(),
		SilenceUsage:      true,
		PersistentPreRunE: setup,
	}
)

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// NewRootCmd returns the root command with every subcommand registered.
func NewRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&globalOpts.verbose, "verbose", "v", false, "enable verbose output")
	flags.BoolVarP(&globalOpts.quiet, "quiet", "q", false, "suppress non-error output")
	flags.StringVar(&globalOpts.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/posterhue/config.toml)")
	flags.StringVar(&globalOpts.background, "background", "", "UI background colour as hex")
	flags.Float64Var(&globalOpts.threshold, "threshold", 0, "minimum contrast ratio against the background")
	flags.StringVarP(&globalOpts.algorithm, "algorithm", "a", "", "quantization algorithm (mediancut, kmeans)")
	flags.IntVarP(&globalOpts.maxColors, "colours", "c", 0, "maximum number of swatches (1-256)")
	flags.IntVar(&globalOpts.size, "size", 0, "edge length artwork is scaled to before analysis")
	flags.IntVar(&globalOpts.workers, "workers", 0, "concurrent quantizations (0 = GOMAXPROCS)")
	flags.StringVar(&globalOpts.timeout, "timeout", "", "fetch timeout, e.g. 10s")
	flags.StringVar(&globalOpts.cacheDir, "cache-dir", "", "directory for downloaded artwork")
	flags.BoolVar(&globalOpts.noCache, "no-cache", false, "do not cache downloaded artwork")
	flags.StringVar(&globalOpts.quantizerPlugin, "quantizer-plugin", "", "path to an external quantizer plugin")

	rootCmd.SetVersionTemplate(version.String() + "\n")

	rootCmd.AddCommand(versionCmd)
}

// setup loads configuration, applies flag overrides, and builds the logger.
func setup(cmd *cobra.Command, _ []string) error {
	logger = newLogger(cmd.ErrOrStderr(), globalOpts.verbose, globalOpts.quiet)

	loaded, err := config.Load(globalOpts.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyFlags(cmd, loaded)

	if err := loaded.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	cfg = loaded

	logger.Debug("configuration loaded",
		"algorithm", cfg.Algorithm,
		"max_colors", cfg.MaxColors,
		"threshold", cfg.ContrastThreshold,
		"plugin", cfg.QuantizerPlugin)
	return nil
}

// applyFlags copies explicitly set persistent flags over file and
// environment values.
func applyFlags(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("background") {
		c.Background = globalOpts.background
	}
	if flags.Changed("threshold") {
		c.ContrastThreshold = globalOpts.threshold
	}
	if flags.Changed("algorithm") {
		c.Algorithm = globalOpts.algorithm
	}
	if flags.Changed("colours") {
		c.MaxColors = globalOpts.maxColors
	}
	if flags.Changed("size") {
		c.TargetSize = globalOpts.size
	}
	if flags.Changed("workers") {
		c.Workers = globalOpts.workers
	}
	if flags.Changed("timeout") {
		c.FetchTimeout = globalOpts.timeout
	}
	if flags.Changed("cache-dir") {
		c.CacheDir = globalOpts.cacheDir
	}
	if flags.Changed("quantizer-plugin") {
		c.QuantizerPlugin = globalOpts.quantizerPlugin
	}
}

// newLogger builds the root logger: debug when verbose, silent when quiet,
// warnings otherwise.
func newLogger(w io.Writer, verbose, quiet bool) hclog.Logger {
	level := hclog.Warn
	switch {
	case quiet:
		level = hclog.Off
	case verbose:
		level = hclog.Debug
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:   "posterhue",
		Output: w,
		Level:  level,
	})
}

// newFetcher builds the artwork fetcher, with a disk cache unless disabled.
func newFetcher() (*image.SmartFetcher, error) {
	timeout, err := cfg.Timeout()
	if err != nil {
		return nil, err
	}

	var cache *imagecache.Cache
	if !globalOpts.noCache {
		cache, err = imagecache.New(cfg.CacheDir)
		if err != nil {
			return nil, err
		}
	}

	return image.NewSmartFetcher(image.FetcherOptions{
		Cache:   cache,
		Timeout: timeout,
		Logger:  logger.Named("fetcher"),
	}), nil
}

// newQuantizer returns the configured quantizer and a function releasing it.
func newQuantizer(ctx context.Context) (colour.Quantizer, func(), error) {
	if cfg.QuantizerPlugin == "" {
		q, err := colour.NewQuantizer(colour.Algorithm(cfg.Algorithm))
		return q, func() {}, err
	}

	if err := security.ValidatePluginPath(cfg.QuantizerPlugin); err != nil {
		return nil, nil, fmt.Errorf("invalid quantizer plugin: %w", err)
	}

	pe, err := executor.New(ctx, executor.Config{
		Path:   cfg.QuantizerPlugin,
		Logger: logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load quantizer plugin: %w", err)
	}
	return pe, pe.Close, nil
}

// newSelector wires the fetcher and quantizer into a theme selector.
func newSelector(ctx context.Context) (*theme.Selector, func(), error) {
	fetcher, err := newFetcher()
	if err != nil {
		return nil, nil, err
	}

	quantizer, release, err := newQuantizer(ctx)
	if err != nil {
		return nil, nil, err
	}

	selector, err := theme.NewSelector(theme.SelectorConfig{
		Fetcher:   fetcher,
		Quantizer: quantizer,
		Threshold: cfg.ContrastThreshold,
		Size:      cfg.TargetSize,
		MaxColors: cfg.MaxColors,
		Workers:   cfg.Workers,
		Logger:    logger.Named("selector"),
	})
	if err != nil {
		release()
		return nil, nil, err
	}
	return selector, release, nil
}

// commandContext bounds a command by the fetch timeout plus headroom for
// quantization.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	timeout, err := cfg.Timeout()
	if err != nil {
		timeout = 10 * time.Second
	}
	return context.WithTimeout(cmd.Context(), 2*timeout)
}

// versionCmd represents the version command.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print detailed version information including build date, commit hash, and Go version.`,
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.String())
	},
}
