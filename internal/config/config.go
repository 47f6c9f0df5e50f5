// Package config handles configuration file loading and parsing.
package config

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/jmylchreest/posterhue/internal/colour"
	"github.com/jmylchreest/posterhue/internal/theme"
	"github.com/jmylchreest/posterhue/internal/tmdb"
)

// Default configuration values.
const (
	DefaultPrimaryVariant = "#3700b3"
	DefaultSecondary      = "#03dac6"
	DefaultBackground     = "#ffffff"
	DefaultFetchTimeout   = "10s"
	DefaultAlgorithm      = string(colour.AlgorithmMedianCut)
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "POSTERHUE_"

// Config represents the posterhue configuration.
type Config struct {
	PrimaryVariant    string  `toml:"primary_variant"`
	Secondary         string  `toml:"secondary"`
	Background        string  `toml:"background"`
	ContrastThreshold float64 `toml:"contrast_threshold"`
	TargetSize        int     `toml:"target_size"`
	MaxColors         int     `toml:"max_colors"`
	Algorithm         string  `toml:"algorithm"`        // mediancut, kmeans
	FetchTimeout      string  `toml:"fetch_timeout"`    // Go duration
	CacheDir          string  `toml:"cache_dir"`        // Empty = user cache dir
	Workers           int     `toml:"workers"`          // 0 = GOMAXPROCS
	QuantizerPlugin   string  `toml:"quantizer_plugin"` // Empty = built-in

	TMDB TMDBConfig `toml:"tmdb"`
}

// TMDBConfig holds TMDB image URL settings.
type TMDBConfig struct {
	ImageBaseURL string `toml:"image_base_url"`
	BackdropSize string `toml:"backdrop_size"`
	PosterSize   string `toml:"poster_size"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		PrimaryVariant:    DefaultPrimaryVariant,
		Secondary:         DefaultSecondary,
		Background:        DefaultBackground,
		ContrastThreshold: colour.ContrastThreshold,
		TargetSize:        theme.DefaultSize,
		MaxColors:         theme.DefaultMaxColors,
		Algorithm:         DefaultAlgorithm,
		FetchTimeout:      DefaultFetchTimeout,
		TMDB: TMDBConfig{
			ImageBaseURL: tmdb.DefaultImageBaseURL,
			BackdropSize: tmdb.DefaultBackdropSize,
			PosterSize:   tmdb.DefaultPosterSize,
		},
	}
}

// Path returns the path to the config file.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config.
func Path() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "posterhue", "config.toml")
}

// Load reads configuration from path, then applies environment overrides.
// If path is empty the default path is used, and a missing file there
// leaves the defaults in place.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = Path()
	}

	cfg := Default()

	data, err := os.ReadFile(path) // #nosec G304 - user-specified config path
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to path, creating parent directories.
func (c *Config) Save(path string) error {
	if path == "" {
		path = Path()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return os.WriteFile(path, data, 0o600)
}

// ApplyEnv overrides fields from POSTERHUE_* environment variables.
func (c *Config) ApplyEnv() error {
	strs := map[string]*string{
		"PRIMARY_VARIANT":     &c.PrimaryVariant,
		"SECONDARY":           &c.Secondary,
		"BACKGROUND":          &c.Background,
		"ALGORITHM":           &c.Algorithm,
		"FETCH_TIMEOUT":       &c.FetchTimeout,
		"CACHE_DIR":           &c.CacheDir,
		"QUANTIZER_PLUGIN":    &c.QuantizerPlugin,
		"TMDB_IMAGE_BASE_URL": &c.TMDB.ImageBaseURL,
		"TMDB_BACKDROP_SIZE":  &c.TMDB.BackdropSize,
		"TMDB_POSTER_SIZE":    &c.TMDB.PosterSize,
	}
	for name, field := range strs {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok {
			*field = v
		}
	}

	ints := map[string]*int{
		"TARGET_SIZE": &c.TargetSize,
		"MAX_COLORS":  &c.MaxColors,
		"WORKERS":     &c.Workers,
	}
	for name, field := range ints {
		v, ok := os.LookupEnv(EnvPrefix + name)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s%s: %w", EnvPrefix, name, err)
		}
		*field = n
	}

	if v, ok := os.LookupEnv(EnvPrefix + "CONTRAST_THRESHOLD"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid %sCONTRAST_THRESHOLD: %w", EnvPrefix, err)
		}
		c.ContrastThreshold = f
	}

	return nil
}

// Validate checks that every value is usable.
func (c *Config) Validate() error {
	if _, err := c.Colors(); err != nil {
		return err
	}
	if c.ContrastThreshold < 1 || c.ContrastThreshold > 21 {
		return fmt.Errorf("contrast threshold must be between 1 and 21, got %.2f", c.ContrastThreshold)
	}
	if c.TargetSize < 1 {
		return fmt.Errorf("target size must be positive, got %d", c.TargetSize)
	}
	if c.MaxColors < 1 || c.MaxColors > 256 {
		return fmt.Errorf("max colors must be between 1 and 256, got %d", c.MaxColors)
	}
	if !colour.IsValidAlgorithm(colour.Algorithm(c.Algorithm)) {
		return fmt.Errorf("invalid algorithm: %s (valid: %v)", c.Algorithm, colour.ValidAlgorithms())
	}
	if _, err := c.Timeout(); err != nil {
		return err
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", c.Workers)
	}
	if err := c.Images().Validate(); err != nil {
		return fmt.Errorf("invalid tmdb config: %w", err)
	}
	return nil
}

// Colors parses the configured theme colours.
func (c *Config) Colors() (theme.Colors, error) {
	var colors theme.Colors
	fields := []struct {
		name  string
		value string
		dst   *color.NRGBA
	}{
		{"primary_variant", c.PrimaryVariant, &colors.PrimaryVariant},
		{"secondary", c.Secondary, &colors.Secondary},
		{"background", c.Background, &colors.Background},
	}
	for _, f := range fields {
		parsed, err := colour.ParseHex(f.value)
		if err != nil {
			return theme.Colors{}, fmt.Errorf("invalid %s colour: %w", f.name, err)
		}
		*f.dst = parsed
	}
	return colors, nil
}

// Timeout parses the fetch timeout.
func (c *Config) Timeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.FetchTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid fetch timeout %q: %w", c.FetchTimeout, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("fetch timeout must be positive, got %s", d)
	}
	return d, nil
}

// Images returns the TMDB URL builder for this configuration.
func (c *Config) Images() tmdb.Images {
	return tmdb.Images{
		BaseURL:      c.TMDB.ImageBaseURL,
		BackdropSize: c.TMDB.BackdropSize,
		PosterSize:   c.TMDB.PosterSize,
	}
}
