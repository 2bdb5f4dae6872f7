// Package config provides configuration management for videostation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/ini.v1"
)

// Config holds every tunable the engine needs. It is constructed once and
// injected; no package reads configuration globals.
//
// INI format:
//
//	[storage]
//	region = auto
//	endpoint = https://s3.example.net
//	access_key = AKIAEXAMPLE
//	secret_key = secret
//	bucket = videos
//	domain = s3.example.net
//	custom_domain = media.example.net
//	base_prefix = XOVideos/
//	max_keys = 10000
//
//	[metadata]
//	api_base_url = https://station.example.net
//	catalog_path = /api/xovideos
//	retry_max = 2
//	retry_base_delay_ms = 500
//	batch_size = 3
//
//	[thumbnails]
//	img_cdn = https://cdn.jsdelivr.net/gh
//	gh_owner = viper373
//	gh_repo = picx-images-hosting
//
//	[search]
//	max_results = 50
//	debounce_ms = 300
//
// Environment variables of the form VIDEOSTATION_<SECTION>_<KEY>
// (e.g. VIDEOSTATION_STORAGE_BUCKET) override file values.
type Config struct {
	Storage    StorageConfig
	Metadata   MetadataConfig
	Thumbnails ThumbnailConfig
	Search     SearchConfig
}

// StorageConfig configures the S3-compatible listing client.
type StorageConfig struct {
	Region    string `ini:"region"`
	Endpoint  string `ini:"endpoint"`
	AccessKey string `ini:"access_key"`
	SecretKey string `ini:"secret_key"`
	Bucket    string `ini:"bucket"`

	// Domain/CustomDomain drive media URL rewriting: occurrences of Domain
	// in Endpoint are replaced with CustomDomain when building playback
	// URLs. CustomDomain falls back to Domain when empty.
	Domain       string `ini:"domain"`
	CustomDomain string `ini:"custom_domain"`

	// BasePrefix is the single prefix-derivation rule: every user-facing
	// path is resolved beneath it. The legacy clients disagreed on this;
	// it is configurable here and applied in exactly one place.
	BasePrefix string `ini:"base_prefix"`

	// MaxKeys is the listing page size (S3 caps it at 10000).
	MaxKeys int32 `ini:"max_keys"`
}

// MetadataConfig configures the metadata service client.
type MetadataConfig struct {
	APIBaseURL  string `ini:"api_base_url"`
	CatalogPath string `ini:"catalog_path"`

	// RetryMax is the number of additional attempts after the first.
	RetryMax int `ini:"retry_max"`
	// RetryBaseDelay grows by x1.5 per attempt.
	RetryBaseDelay time.Duration `ini:"-"`
	// BatchSize bounds concurrent author fetches.
	BatchSize int `ini:"batch_size"`
}

// ThumbnailConfig configures derived thumbnail URLs
// ({img_cdn}/{gh_owner}/{gh_repo}/{author}/{title}.jpg).
type ThumbnailConfig struct {
	ImgCDN  string `ini:"img_cdn"`
	GhOwner string `ini:"gh_owner"`
	GhRepo  string `ini:"gh_repo"`
}

// SearchConfig configures the fuzzy search engine.
type SearchConfig struct {
	MaxResults int `ini:"max_results"`
	// Debounce is the quiescence window before a query executes.
	Debounce time.Duration `ini:"-"`
}

// Default returns a Config with every default applied.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			Region:     "auto",
			BasePrefix: "XOVideos/",
			MaxKeys:    10000,
		},
		Metadata: MetadataConfig{
			CatalogPath:    "/api/xovideos",
			RetryMax:       2,
			RetryBaseDelay: 500 * time.Millisecond,
			BatchSize:      3,
		},
		Search: SearchConfig{
			MaxResults: 50,
			Debounce:   300 * time.Millisecond,
		},
	}
}

// DefaultPath returns the default config file location
// (~/.config/videostation/config.ini).
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "videostation", "config.ini"), nil
}

// Load reads the config file at path (optional), then applies environment
// overrides. A missing file is not an error; env-only setups are common in
// deployment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFile(cfg, path); err != nil {
			return nil, err
		}
	}
	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(cfg *Config, path string) error {
	file, err := ini.Load(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("load config %s: %w", path, err)
	}

	if err := file.Section("storage").MapTo(&cfg.Storage); err != nil {
		return fmt.Errorf("parse [storage]: %w", err)
	}
	if err := file.Section("metadata").MapTo(&cfg.Metadata); err != nil {
		return fmt.Errorf("parse [metadata]: %w", err)
	}
	if err := file.Section("thumbnails").MapTo(&cfg.Thumbnails); err != nil {
		return fmt.Errorf("parse [thumbnails]: %w", err)
	}
	if err := file.Section("search").MapTo(&cfg.Search); err != nil {
		return fmt.Errorf("parse [search]: %w", err)
	}

	// Durations are stored as integer milliseconds in the file.
	if key, err := file.Section("metadata").GetKey("retry_base_delay_ms"); err == nil {
		if ms, err := key.Int(); err == nil && ms > 0 {
			cfg.Metadata.RetryBaseDelay = time.Duration(ms) * time.Millisecond
		}
	}
	if key, err := file.Section("search").GetKey("debounce_ms"); err == nil {
		if ms, err := key.Int(); err == nil && ms >= 0 {
			cfg.Search.Debounce = time.Duration(ms) * time.Millisecond
		}
	}
	return nil
}

func applyEnv(cfg *Config) {
	envString("VIDEOSTATION_STORAGE_REGION", &cfg.Storage.Region)
	envString("VIDEOSTATION_STORAGE_ENDPOINT", &cfg.Storage.Endpoint)
	envString("VIDEOSTATION_STORAGE_ACCESS_KEY", &cfg.Storage.AccessKey)
	envString("VIDEOSTATION_STORAGE_SECRET_KEY", &cfg.Storage.SecretKey)
	envString("VIDEOSTATION_STORAGE_BUCKET", &cfg.Storage.Bucket)
	envString("VIDEOSTATION_STORAGE_DOMAIN", &cfg.Storage.Domain)
	envString("VIDEOSTATION_STORAGE_CUSTOM_DOMAIN", &cfg.Storage.CustomDomain)
	envString("VIDEOSTATION_STORAGE_BASE_PREFIX", &cfg.Storage.BasePrefix)
	if v, ok := envInt("VIDEOSTATION_STORAGE_MAX_KEYS"); ok && v > 0 {
		cfg.Storage.MaxKeys = int32(v)
	}

	envString("VIDEOSTATION_METADATA_API_BASE_URL", &cfg.Metadata.APIBaseURL)
	envString("VIDEOSTATION_METADATA_CATALOG_PATH", &cfg.Metadata.CatalogPath)
	if v, ok := envInt("VIDEOSTATION_METADATA_RETRY_MAX"); ok && v >= 0 {
		cfg.Metadata.RetryMax = v
	}
	if v, ok := envInt("VIDEOSTATION_METADATA_RETRY_BASE_DELAY_MS"); ok && v > 0 {
		cfg.Metadata.RetryBaseDelay = time.Duration(v) * time.Millisecond
	}
	if v, ok := envInt("VIDEOSTATION_METADATA_BATCH_SIZE"); ok && v > 0 {
		cfg.Metadata.BatchSize = v
	}

	envString("VIDEOSTATION_THUMBNAILS_IMG_CDN", &cfg.Thumbnails.ImgCDN)
	envString("VIDEOSTATION_THUMBNAILS_GH_OWNER", &cfg.Thumbnails.GhOwner)
	envString("VIDEOSTATION_THUMBNAILS_GH_REPO", &cfg.Thumbnails.GhRepo)

	if v, ok := envInt("VIDEOSTATION_SEARCH_MAX_RESULTS"); ok && v > 0 {
		cfg.Search.MaxResults = v
	}
	if v, ok := envInt("VIDEOSTATION_SEARCH_DEBOUNCE_MS"); ok && v >= 0 {
		cfg.Search.Debounce = time.Duration(v) * time.Millisecond
	}
}

func envString(name string, dst *string) {
	if v := os.Getenv(name); v != "" {
		*dst = v
	}
}

func envInt(name string) (int, bool) {
	v := os.Getenv(name)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Validate checks invariants that would otherwise surface as confusing
// request failures deep inside the SDK.
func (c *Config) Validate() error {
	if c.Storage.MaxKeys < 1 || c.Storage.MaxKeys > 10000 {
		return fmt.Errorf("storage.max_keys must be in [1, 10000], got %d", c.Storage.MaxKeys)
	}
	if c.Metadata.RetryMax < 0 {
		return fmt.Errorf("metadata.retry_max must not be negative, got %d", c.Metadata.RetryMax)
	}
	if c.Metadata.BatchSize < 1 {
		return fmt.Errorf("metadata.batch_size must be at least 1, got %d", c.Metadata.BatchSize)
	}
	if c.Search.MaxResults < 1 {
		return fmt.Errorf("search.max_results must be at least 1, got %d", c.Search.MaxResults)
	}
	return nil
}
