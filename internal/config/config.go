package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type DaemonConfig struct {
	Expiration time.Duration `mapstructure:"expiration"`
}

type DocsConfig struct {
	// BaseURL is the site root that relative index links resolve against,
	// e.g. https://example.com/api/latest/
	BaseURL string `mapstructure:"base_url"`
}

type FetchConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

type SearchConfig struct {
	Limit int `mapstructure:"limit"`
}

type CacheConfig struct {
	MaxEntries int           `mapstructure:"max_entries"`
	TTL        time.Duration `mapstructure:"ttl"`
}

type Config struct {
	Daemon DaemonConfig `mapstructure:"daemon"`
	Docs   DocsConfig   `mapstructure:"docs"`
	Fetch  FetchConfig  `mapstructure:"fetch"`
	Search SearchConfig `mapstructure:"search"`
	Cache  CacheConfig  `mapstructure:"cache"`
}

// cacheBase returns the base cache directory for scaladex.
// Checks XDG_CACHE_HOME, then ~/.cache, then /tmp/scaladex as fallback.
func cacheBase() string {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, "scaladex")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".cache", "scaladex")
	}
	return filepath.Join(os.TempDir(), "scaladex")
}

// DBPath returns the path to the DuckDB database file.
func DBPath() string {
	return filepath.Join(cacheBase(), "index.db")
}

// CASDir returns the path to the snapshot store.
func CASDir() string {
	return filepath.Join(cacheBase(), "cas")
}

// SourceCacheDir returns the directory holding the last fetched bytes of each source.
func SourceCacheDir() string {
	return filepath.Join(cacheBase(), "sources")
}

// LogPath returns the path to the daemon's log file.
func LogPath() string {
	return filepath.Join(cacheBase(), "daemon.log")
}

// SocketPath returns the path to the daemon's unix socket.
func SocketPath() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "scaladex", "daemon.sock")
	}
	return filepath.Join(fmt.Sprintf("/run/user/%d", os.Getuid()), "scaladex", "daemon.sock")
}

// InitializeViper registers config paths, defaults and the SCALADEX_ env prefix.
func InitializeViper(v *viper.Viper) error {
	v.SetConfigName("config")
	v.SetConfigType("toml")

	v.AddConfigPath(".")
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		v.AddConfigPath(filepath.Join(xdg, "scaladex"))
	} else if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "scaladex"))
	}

	v.SetDefault("daemon.expiration", "10m")
	v.SetDefault("docs.base_url", "")
	v.SetDefault("fetch.timeout", "60s")
	v.SetDefault("search.limit", 20)
	v.SetDefault("cache.max_entries", 32)
	v.SetDefault("cache.ttl", "30m")

	v.SetEnvPrefix("SCALADEX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return nil
}

// Load reads the config file and environment into a Config.
func Load() (*Config, error) {
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	if err := InitializeViper(v); err != nil {
		return nil, err
	}

	var config Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		Result:           &config,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	if err := decoder.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) validate() error {
	if c.Daemon.Expiration <= 0 {
		c.Daemon.Expiration = 10 * time.Minute
	}
	if c.Fetch.Timeout <= 0 {
		c.Fetch.Timeout = 60 * time.Second
	}
	if c.Search.Limit <= 0 {
		c.Search.Limit = 20
	}
	if c.Cache.MaxEntries <= 0 {
		return fmt.Errorf("cache.max_entries must be positive, got %d", c.Cache.MaxEntries)
	}
	if c.Docs.BaseURL != "" && !strings.HasSuffix(c.Docs.BaseURL, "/") {
		c.Docs.BaseURL += "/"
	}
	return nil
}
