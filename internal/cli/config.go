package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/crateview/pkg/crate"
	cverrors "github.com/matzehuels/crateview/pkg/errors"
)

// Config defaults.
const (
	DefaultThreshold      = 0.4
	DefaultMinTokenLength = 2
	DefaultSearchLimit    = 20
	DefaultFetchTimeout   = 10 * time.Second
	DefaultFetchRetries   = 3
	DefaultCacheEntries   = 256
	DefaultAddr           = ":8080"
	DefaultSessionTTL     = 30 * time.Minute
	DefaultDebounce       = 300 * time.Millisecond
)

// Config is the optional config.toml.
type Config struct {
	Search SearchConfig `toml:"search"`
	Fetch  FetchConfig  `toml:"fetch"`
	Cache  CacheConfig  `toml:"cache"`
	JSONLD JSONLDConfig `toml:"jsonld"`
	Server ServerConfig `toml:"server"`
	Watch  WatchConfig  `toml:"watch"`
}

type SearchConfig struct {
	Threshold      float64 `toml:"threshold"`
	MinTokenLength int     `toml:"min_token_length"`
	Limit          int     `toml:"limit"`
}

type FetchConfig struct {
	Timeout      Duration `toml:"timeout"`
	Retries      int      `toml:"retries"`
	MetadataFile string   `toml:"metadata_file"`
	UserAgent    string   `toml:"user_agent"`
	RateLimit    float64  `toml:"rate_limit"` // requests per second per host
}

type CacheConfig struct {
	MaxEntries int `toml:"max_entries"`
}

// JSONLDConfig maps remote context URLs to local files.
type JSONLDConfig struct {
	Disabled bool              `toml:"disabled"`
	Contexts map[string]string `toml:"contexts"`
}

type ServerConfig struct {
	Addr       string   `toml:"addr"`
	SessionTTL Duration `toml:"session_ttl"`
}

type WatchConfig struct {
	Debounce Duration `toml:"debounce"`
}

// Duration is a time.Duration written as "10s" in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// LoadConfig reads path, or the default location when path is empty.
// A missing default file yields the defaults; a missing explicit file is an
// error.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}
	explicit := path != ""
	if !explicit {
		dir, err := configDir()
		if err == nil {
			path = filepath.Join(dir, "config.toml")
		}
	}

	if path != "" {
		_, err := toml.DecodeFile(path, cfg)
		switch {
		case errors.Is(err, fs.ErrNotExist) && !explicit:
		case err != nil:
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// SetDefaults fills zero values.
func (c *Config) SetDefaults() {
	if c.Search.Threshold == 0 {
		c.Search.Threshold = DefaultThreshold
	}
	if c.Search.MinTokenLength == 0 {
		c.Search.MinTokenLength = DefaultMinTokenLength
	}
	if c.Search.Limit == 0 {
		c.Search.Limit = DefaultSearchLimit
	}
	if c.Fetch.Timeout.Duration == 0 {
		c.Fetch.Timeout.Duration = DefaultFetchTimeout
	}
	if c.Fetch.Retries == 0 {
		c.Fetch.Retries = DefaultFetchRetries
	}
	if c.Fetch.MetadataFile == "" {
		c.Fetch.MetadataFile = crate.MetadataSuffix
	}
	if c.Fetch.UserAgent == "" {
		c.Fetch.UserAgent = appName
	}
	if c.Cache.MaxEntries == 0 {
		c.Cache.MaxEntries = DefaultCacheEntries
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Server.SessionTTL.Duration == 0 {
		c.Server.SessionTTL.Duration = DefaultSessionTTL
	}
	if c.Watch.Debounce.Duration == 0 {
		c.Watch.Debounce.Duration = DefaultDebounce
	}
}

// Validate reports the first out-of-range value.
func (c *Config) Validate() error {
	if err := cverrors.ValidateMetadataFilename(c.Fetch.MetadataFile); err != nil {
		return fmt.Errorf("fetch.metadata_file: %s", cverrors.UserMessage(err))
	}
	switch {
	case c.Search.Threshold < 0 || c.Search.Threshold > 1:
		return fmt.Errorf("search.threshold %v must be within [0, 1]", c.Search.Threshold)
	case c.Search.MinTokenLength < 1:
		return fmt.Errorf("search.min_token_length must be positive")
	case c.Search.Limit < 1:
		return fmt.Errorf("search.limit must be positive")
	case c.Fetch.Timeout.Duration < 0:
		return fmt.Errorf("fetch.timeout must not be negative")
	case c.Fetch.Retries < 1:
		return fmt.Errorf("fetch.retries must be positive")
	case c.Fetch.RateLimit < 0:
		return fmt.Errorf("fetch.rate_limit must not be negative")
	case !crate.IsMetadataFilename(c.Fetch.MetadataFile):
		return fmt.Errorf("fetch.metadata_file %q must end with %s", c.Fetch.MetadataFile, crate.MetadataSuffix)
	case c.Cache.MaxEntries < 1:
		return fmt.Errorf("cache.max_entries must be positive")
	case c.Server.SessionTTL.Duration < time.Second:
		return fmt.Errorf("server.session_ttl must be at least 1s")
	}
	for url, file := range c.JSONLD.Contexts {
		if url == "" || file == "" {
			return fmt.Errorf("jsonld.contexts entries need both a URL and a file")
		}
	}
	return nil
}

// configDir returns the config directory using XDG standard (~/.config/crateview/).
func configDir() (string, error) {
	if home := os.Getenv("XDG_CONFIG_HOME"); home != "" {
		return filepath.Join(home, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}
