// Package config reads the pipeline's configuration once at startup:
// environment variables (a .env file is honored when present), plus an
// optional YAML overlay for tuning knobs that have no business being env
// vars. Source endpoints for Infopark and Technopark are overridable; the
// Cyberpark feed and the UL Cyberpark board are fixed public endpoints.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Fixed public endpoints.
const (
	CyberparkFeedURL = "https://www.cyberparkkerala.org/?feed=job_feed"
	ULCyberparkURL   = "https://www.ulcyberpark.com/jobs/index"
)

// Overridable defaults.
const (
	defaultInfoparkURL   = "https://infopark.in/companies/job-search"
	defaultTechnoparkURL = "https://technopark.org/api/paginated-jobs"
)

type Config struct {
	Port    int
	DataDir string

	InfoparkURL   string
	TechnoparkURL string

	SupabaseURL string
	SupabaseKey string

	Scrape struct {
		DetailConcurrency int
		FetchTimeout      time.Duration
		HostReqPerSec     float64
	}
}

// overlay is the YAML tuning file's shape. Durations are plain seconds so
// the file stays trivially hand-editable.
type overlay struct {
	Port    int    `yaml:"port"`
	DataDir string `yaml:"data_dir"`
	Scrape  struct {
		DetailConcurrency   int     `yaml:"detail_concurrency"`
		FetchTimeoutSeconds int     `yaml:"fetch_timeout_seconds"`
		HostReqPerSec       float64 `yaml:"host_req_per_sec"`
	} `yaml:"scrape"`
}

// Load builds the configuration from the process environment. When
// ENGINE_CONFIG names a YAML file, its tuning values are applied before the
// environment is consulted.
func Load() (Config, error) {
	// Same convenience the original deployment relied on: a local .env is
	// loaded when present and ignored when not.
	_ = godotenv.Load()

	cfg := Config{
		Port:          8090,
		DataDir:       ".",
		InfoparkURL:   defaultInfoparkURL,
		TechnoparkURL: defaultTechnoparkURL,
	}
	cfg.Scrape.DetailConcurrency = 6
	cfg.Scrape.FetchTimeout = 30 * time.Second
	cfg.Scrape.HostReqPerSec = 4

	if path := os.Getenv("ENGINE_CONFIG"); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config overlay: %w", err)
		}
		var ov overlay
		if err := yaml.Unmarshal(b, &ov); err != nil {
			return cfg, fmt.Errorf("parse config overlay %s: %w", path, err)
		}
		if ov.Port > 0 {
			cfg.Port = ov.Port
		}
		if ov.DataDir != "" {
			cfg.DataDir = ov.DataDir
		}
		if ov.Scrape.DetailConcurrency > 0 {
			cfg.Scrape.DetailConcurrency = ov.Scrape.DetailConcurrency
		}
		if ov.Scrape.FetchTimeoutSeconds > 0 {
			cfg.Scrape.FetchTimeout = time.Duration(ov.Scrape.FetchTimeoutSeconds) * time.Second
		}
		if ov.Scrape.HostReqPerSec > 0 {
			cfg.Scrape.HostReqPerSec = ov.Scrape.HostReqPerSec
		}
	}

	if v := os.Getenv("ENGINE_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("ENGINE_PORT: %w", err)
		}
		cfg.Port = port
	}
	if v := os.Getenv("ENGINE_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("INFOPARK_URL"); v != "" {
		cfg.InfoparkURL = v
	}
	if v := os.Getenv("TECHNOPARK_URL"); v != "" {
		cfg.TechnoparkURL = v
	}
	cfg.SupabaseURL = os.Getenv("SUPABASE_URL")
	cfg.SupabaseKey = os.Getenv("SUPABASE_KEY")

	if cfg.Scrape.DetailConcurrency <= 0 {
		cfg.Scrape.DetailConcurrency = 6
	}
	if cfg.Scrape.FetchTimeout <= 0 {
		cfg.Scrape.FetchTimeout = 30 * time.Second
	}

	return cfg, nil
}

// MirrorEnabled reports whether both mirror credentials are present.
func (c Config) MirrorEnabled() bool {
	return c.SupabaseURL != "" && c.SupabaseKey != ""
}
