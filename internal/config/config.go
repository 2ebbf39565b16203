package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address.
	Listen string `yaml:"listen" json:"listen"`

	// UpstreamURL is the upstream GraphQL endpoint.
	UpstreamURL string `yaml:"upstream_url" json:"upstream_url"`

	// Origin is the absolute origin used to build event links from the
	// relative content paths upstream returns.
	Origin string `yaml:"origin" json:"origin"`

	// UIDSuffix is the domain suffix for calendar entry UIDs.
	UIDSuffix string `yaml:"uid_suffix" json:"uid_suffix"`

	// CalendarName is the feed's display name (X-WR-CALNAME).
	CalendarName string `yaml:"calendar_name" json:"calendar_name"`

	// ProductID is the PRODID written into every exported calendar.
	ProductID string `yaml:"product_id" json:"product_id"`

	// CacheDir is the root of the upstream response cache.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`

	// CacheTTLSeconds is how long cached upstream responses stay fresh.
	CacheTTLSeconds int `yaml:"cache_ttl_seconds" json:"cache_ttl_seconds"`

	// PruneCron is a cron-style schedule for sweeping expired cache
	// entries (e.g. "0 * * * *").
	PruneCron string `yaml:"prune_cron" json:"prune_cron"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:          "127.0.0.1:8080",
		UpstreamURL:     "https://ra.co/graphql",
		Origin:          "https://ra.co",
		UIDSuffix:       "ra.co",
		CalendarName:    "RA Events",
		ProductID:       "-//racal//RA Events//EN",
		CacheDir:        "./var/ra-cache",
		CacheTTLSeconds: 3600,
		PruneCron:       "0 * * * *",
	}
}

// Normalize fills in missing/zero values with defaults so partially-filled
// configs still behave correctly.
func (c *Config) Normalize() {
	def := DefaultConfig()
	if c.Listen == "" {
		c.Listen = def.Listen
	}
	if c.UpstreamURL == "" {
		c.UpstreamURL = def.UpstreamURL
	}
	if c.Origin == "" {
		c.Origin = def.Origin
	}
	if c.UIDSuffix == "" {
		c.UIDSuffix = def.UIDSuffix
	}
	if c.CalendarName == "" {
		c.CalendarName = def.CalendarName
	}
	if c.ProductID == "" {
		c.ProductID = def.ProductID
	}
	if c.CacheDir == "" {
		c.CacheDir = def.CacheDir
	}
	if c.CacheTTLSeconds <= 0 {
		c.CacheTTLSeconds = def.CacheTTLSeconds
	}
	if c.PruneCron == "" {
		c.PruneCron = def.PruneCron
	}
}

// Load loads configuration from the given YAML path.
//
// If the file does not exist, a default config is written there (parent
// directory created as needed) and returned.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the configuration atomically (temp file + rename) with 0600
// permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".racal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save delegates to the package-level Save.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
