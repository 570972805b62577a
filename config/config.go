// Package config loads scraper settings from an optional config file and
// GAMESCRAPER_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"gamescraper/models"
)

// EnvPrefix is the prefix of environment variable overrides.
const EnvPrefix = "GAMESCRAPER"

// Load reads settings. An empty path looks for config.{toml,yaml,json} in
// the default config directory; a missing file is not an error.
func Load(path string) (*models.Settings, error) {
	v := viper.New()
	setDefaults(v, models.DefaultSettings())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("unable to read config file: %w", err)
		}
	} else {
		dir, err := DefaultConfigDir()
		if err == nil {
			v.AddConfigPath(dir)
			v.SetConfigName("config")
			if err := v.ReadInConfig(); err != nil {
				var notFound viper.ConfigFileNotFoundError
				if !errors.As(err, &notFound) {
					return nil, fmt.Errorf("unable to read config file: %w", err)
				}
			}
		}
	}

	// defaults come from viper; decoding into a filled struct would merge
	// lists such as rom_extensions with the default ones
	cfg := &models.Settings{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to unmarshal config: %w", err)
	}
	if err := Normalize(cfg); err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d *models.Settings) {
	v.SetDefault("output_dir", d.OutputDir)
	v.SetDefault("cache_dir", d.CacheDir)
	v.SetDefault("cache_backend", d.CacheBackend)
	v.SetDefault("cache_max_age", d.CacheMaxAge)
	v.SetDefault("verbose", d.Verbose)
	v.SetDefault("debug_dump", d.DebugDump)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("base_url", d.BaseURL)
	v.SetDefault("user_agent", d.UserAgent)
	v.SetDefault("request_timeout", d.RequestTimeout)
	v.SetDefault("retries", d.Retries)
	v.SetDefault("rate_per_second", d.RatePerSecond)
	v.SetDefault("cloudflare_bypass", d.CloudflareBypass)
	v.SetDefault("rom_extensions", d.ROMExtensions)
	v.SetDefault("asset_max_width", d.AssetMaxWidth)
	v.SetDefault("asset_max_height", d.AssetMaxHeight)
}

// DefaultConfigDir returns ~/.config/gamescraper (or the OS equivalent).
func DefaultConfigDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("unable to get config dir: %w", err)
	}
	return filepath.Join(dir, "gamescraper"), nil
}

// DefaultCacheDir returns ~/.cache/gamescraper (or the OS equivalent).
func DefaultCacheDir() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("unable to get cache dir: %w", err)
	}
	return filepath.Join(dir, "gamescraper"), nil
}

// Normalize fills derived paths and expands "~".
func Normalize(cfg *models.Settings) error {
	var err error
	if cfg.CacheDir, err = expandHome(cfg.CacheDir); err != nil {
		return err
	}
	if cfg.OutputDir, err = expandHome(cfg.OutputDir); err != nil {
		return err
	}
	if cfg.CacheDir == "" {
		if cfg.CacheDir, err = DefaultCacheDir(); err != nil {
			return err
		}
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = filepath.Join(cfg.CacheDir, "output")
	}
	cfg.CacheBackend = strings.ToLower(strings.TrimSpace(cfg.CacheBackend))
	if cfg.CacheBackend == "" {
		cfg.CacheBackend = models.CacheBackendJSON
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	for i, ext := range cfg.ROMExtensions {
		cfg.ROMExtensions[i] = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
	}
	return nil
}

// Validate rejects settings the scraper cannot run with.
func Validate(cfg *models.Settings) error {
	var errs []error
	switch cfg.CacheBackend {
	case models.CacheBackendJSON, models.CacheBackendSQLite:
	default:
		errs = append(errs, fmt.Errorf("cache_backend must be %q or %q, got %q",
			models.CacheBackendJSON, models.CacheBackendSQLite, cfg.CacheBackend))
	}
	if cfg.BaseURL == "" {
		errs = append(errs, errors.New("base_url is required"))
	}
	if cfg.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request_timeout must be positive"))
	}
	if cfg.Retries < 0 {
		errs = append(errs, errors.New("retries must not be negative"))
	}
	if cfg.RatePerSecond < 0 {
		errs = append(errs, errors.New("rate_per_second must not be negative"))
	}
	if cfg.CacheMaxAge < 0 {
		errs = append(errs, errors.New("cache_max_age must not be negative"))
	}
	return errors.Join(errs...)
}

func expandHome(p string) (string, error) {
	p = strings.TrimSpace(p)
	if !strings.HasPrefix(p, "~") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("unable to get home dir: %w", err)
	}
	return filepath.Join(home, p[1:]), nil
}
