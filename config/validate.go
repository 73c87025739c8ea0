package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

func Validate(cfg Config) error {
	var errs []string
	addErr := func(format string, args ...any) {
		errs = append(errs, fmt.Sprintf(format, args...))
	}

	if strings.TrimSpace(cfg.Input.Path) == "" && strings.TrimSpace(cfg.Input.URL) == "" {
		addErr("input.path or input.url is required")
	}
	if cfg.Input.MinInterval < 0 {
		addErr("input.min_interval must be >= 0")
	}

	switch cfg.Geocode.Provider {
	case "nominatim", "none":
	case "google":
		if strings.TrimSpace(cfg.Geocode.APIKey) == "" {
			addErr("geocode.api_key is required for the google provider")
		}
	default:
		addErr("geocode.provider %q is not one of nominatim, google, none", cfg.Geocode.Provider)
	}
	if cfg.Geocode.BatchSize <= 0 {
		addErr("geocode.batch_size must be > 0")
	}
	if cfg.Geocode.BatchDelay < 0 {
		addErr("geocode.batch_delay must be >= 0")
	}
	if cfg.Geocode.CallTimeout < 0 {
		addErr("geocode.call_timeout must be >= 0")
	}
	if cfg.Geocode.MaxAge < 0 {
		addErr("geocode.max_age must be >= 0")
	}
	if cfg.Sample.Size < 0 {
		addErr("sample.size must be >= 0")
	}

	switch cfg.Store.Driver {
	case "":
	case "sqlite", "postgres":
		if strings.TrimSpace(cfg.Store.DSN) == "" {
			addErr("store.dsn is required when store.driver is set")
		}
	default:
		addErr("store.driver %q is not one of sqlite, postgres", cfg.Store.Driver)
	}

	if cfg.Server.RefreshAt != "" {
		if _, _, err := ParseClock(cfg.Server.RefreshAt); err != nil {
			addErr("server.refresh_at: %v", err)
		}
	}
	switch strings.ToLower(cfg.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		addErr("log.level %q is not one of debug, info, warn, error", cfg.Log.Level)
	}

	if len(errs) > 0 {
		return eris.New("config validation failed:\n- " + strings.Join(errs, "\n- "))
	}
	return nil
}

// ParseClock parses a daily HH:MM time.
func ParseClock(value string) (int, int, error) {
	parts := strings.Split(value, ":")
	if len(parts) != 2 {
		return 0, 0, eris.Errorf("invalid clock format: %s", value)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, eris.Errorf("invalid clock hour: %s", value)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, eris.Errorf("invalid clock minute: %s", value)
	}
	return hour, minute, nil
}
