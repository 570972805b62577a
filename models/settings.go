package models

import "time"

// Settings represents scraper settings
type Settings struct {
	OutputDir    string        `mapstructure:"output_dir"` // debug dumps
	CacheDir     string        `mapstructure:"cache_dir"`
	CacheBackend string        `mapstructure:"cache_backend"` // "json" or "sqlite"
	CacheMaxAge  time.Duration `mapstructure:"cache_max_age"` // 0 = never expire
	Verbose      bool          `mapstructure:"verbose"`
	DebugDump    bool          `mapstructure:"debug_dump"`
	LogLevel     string        `mapstructure:"log_level"`

	BaseURL          string        `mapstructure:"base_url"`
	UserAgent        string        `mapstructure:"user_agent"`
	RequestTimeout   time.Duration `mapstructure:"request_timeout"`
	Retries          int           `mapstructure:"retries"`
	RatePerSecond    float64       `mapstructure:"rate_per_second"`
	CloudflareBypass bool          `mapstructure:"cloudflare_bypass"` // browser-like TLS and headers

	ROMExtensions  []string `mapstructure:"rom_extensions"`
	AssetMaxWidth  int      `mapstructure:"asset_max_width"`
	AssetMaxHeight int      `mapstructure:"asset_max_height"`
}

const (
	CacheBackendJSON   = "json"
	CacheBackendSQLite = "sqlite"
)

// DefaultUserAgent mimics a desktop browser; GameFAQs rejects bare Go clients.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

// DefaultSettings returns default scraper settings
func DefaultSettings() *Settings {
	return &Settings{
		OutputDir:        "",
		CacheDir:         "",
		CacheBackend:     CacheBackendJSON,
		CacheMaxAge:      0,
		LogLevel:         "info",
		BaseURL:          "https://gamefaqs.gamespot.com",
		UserAgent:        DefaultUserAgent,
		RequestTimeout:   30 * time.Second,
		Retries:          2,
		RatePerSecond:    1,
		CloudflareBypass: true,
		ROMExtensions: []string{
			"zip", "7z", "iso", "cue", "chd", "bin", "smc", "sfc", "md", "gen",
			"smd", "nes", "gb", "gbc", "gba", "n64", "z64", "v64", "sms", "gg",
		},
		AssetMaxWidth:  800,  // max width for cover art
		AssetMaxHeight: 1200, // max height for cover art
	}
}
