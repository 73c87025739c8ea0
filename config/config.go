package config

import (
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Input struct {
		Path          string        `yaml:"path"`
		URL           string        `yaml:"url"`
		MinInterval   time.Duration `yaml:"min_interval"`
		RetryAttempts int           `yaml:"retry_attempts"`
	} `yaml:"input"`

	Geocode struct {
		Provider      string        `yaml:"provider"` // nominatim | google | none
		APIKey        string        `yaml:"api_key"`
		BaseURL       string        `yaml:"base_url"`
		CachePath     string        `yaml:"cache_path"`
		BatchSize     int           `yaml:"batch_size"`
		BatchDelay    time.Duration `yaml:"batch_delay"`
		CallTimeout   time.Duration `yaml:"call_timeout"`
		MaxAge        time.Duration `yaml:"max_age"`
		RatePerSecond float64       `yaml:"rate_per_second"`
		ForceRefresh  bool          `yaml:"force_refresh"`
	} `yaml:"geocode"`

	Sample struct {
		Size int   `yaml:"size"` // 0 disables sampling
		Seed int64 `yaml:"seed"` // 0 seeds from the clock
	} `yaml:"sample"`

	Output struct {
		Dir         string `yaml:"dir"`
		XLSX        string `yaml:"xlsx"`
		RejectedDir string `yaml:"rejected_dir"`
		RunsDir     string `yaml:"runs_dir"`
		StatePath   string `yaml:"state_path"`
	} `yaml:"output"`

	Store struct {
		Driver string `yaml:"driver"` // sqlite | postgres | "" (disabled)
		DSN    string `yaml:"dsn"`
	} `yaml:"store"`

	Server struct {
		Addr      string `yaml:"addr"`
		RefreshAt string `yaml:"refresh_at"` // HH:MM daily reload, empty disables
	} `yaml:"server"`

	Log struct {
		Level       string `yaml:"level"`
		Development bool   `yaml:"development"`
	} `yaml:"log"`
}

func Default() Config {
	var cfg Config
	cfg.Input.Path = "data/icn.json"
	cfg.Input.MinInterval = 200 * time.Millisecond
	cfg.Input.RetryAttempts = 3

	cfg.Geocode.Provider = "nominatim"
	cfg.Geocode.CachePath = "data/geocode_cache.json"
	cfg.Geocode.BatchSize = 10
	cfg.Geocode.BatchDelay = 100 * time.Millisecond
	cfg.Geocode.CallTimeout = 10 * time.Second
	cfg.Geocode.RatePerSecond = 1

	cfg.Output.Dir = "data/out"
	cfg.Output.RejectedDir = "data/rejected"
	cfg.Output.RunsDir = "data/runs"
	cfg.Output.StatePath = "data/run_state.json"

	cfg.Server.Addr = ":8080"
	cfg.Log.Level = "info"
	return cfg
}

// Load reads path over the defaults and applies environment overrides. An
// empty path yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, eris.Wrapf(err, "config: read %s", path)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, eris.Wrapf(err, "config: parse %s", path)
		}
	}
	ApplyEnv(&cfg, os.Getenv)
	return cfg, nil
}

// ApplyEnv overrides fields from ICN_* variables.
func ApplyEnv(cfg *Config, getenv func(string) string) {
	if cfg == nil || getenv == nil {
		return
	}
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&cfg.Input.Path, "ICN_INPUT_PATH")
	set(&cfg.Input.URL, "ICN_INPUT_URL")
	set(&cfg.Geocode.APIKey, "ICN_GEOCODE_API_KEY")
	set(&cfg.Store.DSN, "ICN_STORE_DSN")
	set(&cfg.Log.Level, "ICN_LOG_LEVEL")
}
