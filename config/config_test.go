package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Validate(Default()))
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
input:
  path: export.json
geocode:
  provider: google
  api_key: k
  batch_delay: 250ms
  max_age: 720h
sample:
  size: 200
  seed: 7
store:
  driver: sqlite
  dsn: data/icn.db
`), 0o644))

	t.Setenv("ICN_LOG_LEVEL", "debug")
	t.Setenv("ICN_INPUT_PATH", "")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "export.json", cfg.Input.Path)
	assert.Equal(t, "google", cfg.Geocode.Provider)
	assert.Equal(t, 250*time.Millisecond, cfg.Geocode.BatchDelay)
	assert.Equal(t, 720*time.Hour, cfg.Geocode.MaxAge)
	assert.Equal(t, 10, cfg.Geocode.BatchSize)
	assert.Equal(t, 200, cfg.Sample.Size)
	assert.Equal(t, int64(7), cfg.Sample.Seed)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.NoError(t, Validate(cfg))
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yml")
	require.NoError(t, os.WriteFile(path, []byte("input: [oops"), 0o644))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"ICN_INPUT_URL":       "https://example.test/icn.json",
		"ICN_GEOCODE_API_KEY": "secret",
		"ICN_STORE_DSN":       "postgres://localhost/icn",
	}
	cfg := Default()
	ApplyEnv(&cfg, func(key string) string { return env[key] })
	assert.Equal(t, "https://example.test/icn.json", cfg.Input.URL)
	assert.Equal(t, "secret", cfg.Geocode.APIKey)
	assert.Equal(t, "postgres://localhost/icn", cfg.Store.DSN)
	assert.Equal(t, "data/icn.json", cfg.Input.Path)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "no input", mutate: func(c *Config) { c.Input.Path = "" }},
		{name: "unknown provider", mutate: func(c *Config) { c.Geocode.Provider = "bing" }},
		{name: "google without key", mutate: func(c *Config) { c.Geocode.Provider = "google" }},
		{name: "zero batch", mutate: func(c *Config) { c.Geocode.BatchSize = 0 }},
		{name: "negative delay", mutate: func(c *Config) { c.Geocode.BatchDelay = -time.Second }},
		{name: "unknown driver", mutate: func(c *Config) { c.Store.Driver = "mysql" }},
		{name: "driver without dsn", mutate: func(c *Config) { c.Store.Driver = "sqlite" }},
		{name: "bad refresh", mutate: func(c *Config) { c.Server.RefreshAt = "25:00" }},
		{name: "bad level", mutate: func(c *Config) { c.Log.Level = "loud" }},
		{name: "negative sample", mutate: func(c *Config) { c.Sample.Size = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, Validate(cfg))
		})
	}
}

func TestParseClock(t *testing.T) {
	h, m, err := ParseClock("06:30")
	require.NoError(t, err)
	assert.Equal(t, 6, h)
	assert.Equal(t, 30, m)

	for _, bad := range []string{"", "6", "aa:10", "10:60", "24:00"} {
		_, _, err := ParseClock(bad)
		assert.Error(t, err, bad)
	}
}
