package cli

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the forgestats configuration, read from
// ~/.config/forgestats/config.toml. Every field is optional; flags and
// environment variables override file values.
type Config struct {
	// Token authenticates against the forge. The FORGESTATS_TOKEN and
	// GITHUB_TOKEN environment variables override this.
	Token string `toml:"token"`

	// BaseURL overrides the forge API endpoint.
	BaseURL string `toml:"base_url"`

	// Concurrency bounds parallel category fetches.
	Concurrency int `toml:"concurrency"`

	// Retries is the maximum attempts per request.
	Retries int `toml:"retries"`

	// PageCeiling stops list categories after this many pages.
	PageCeiling int `toml:"page_ceiling"`

	// ProactiveRPS throttles outgoing requests client-side. Zero disables.
	ProactiveRPS float64 `toml:"proactive_rps"`

	// Cache selects the snapshot store backend: "file" (default),
	// "redis", or "none".
	Cache string `toml:"cache"`

	// CacheDir overrides the file store location.
	CacheDir string `toml:"cache_dir"`

	Redis RedisConfig `toml:"redis"`
}

// RedisConfig configures the Redis snapshot store backend.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// configPath returns the config file location.
func configPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "forgestats", "config.toml"), nil
}

// cacheDir returns the default file store location.
func cacheDir() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "forgestats"), nil
}

// loadConfig reads the config file and applies environment overrides.
// A missing file yields the zero config without error.
func loadConfig() (Config, error) {
	var cfg Config

	path, err := configPath()
	if err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil && !os.IsNotExist(err) {
			return Config{}, err
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

// applyEnv lets environment variables override file values.
func applyEnv(cfg *Config) {
	if tok := os.Getenv("FORGESTATS_TOKEN"); tok != "" {
		cfg.Token = tok
	} else if tok := os.Getenv("GITHUB_TOKEN"); tok != "" && cfg.Token == "" {
		cfg.Token = tok
	}
	if url := os.Getenv("FORGESTATS_BASE_URL"); url != "" {
		cfg.BaseURL = url
	}
}
