package config

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// envOverrides are environment knobs that take precedence over the file.
// Secrets in particular belong in the environment, not in the config file.
type envOverrides struct {
	PlatformToken string `envconfig:"PLATFORM_TOKEN"`
	DatabasePath  string `envconfig:"DATABASE_PATH"`
	LogLevel      string `envconfig:"LOG_LEVEL"`
}

// ApplyEnv overlays environment variables onto cfg.
//
// Variables are read with the ROOMKEEPER_ prefix first, then bare
// (e.g. ROOMKEEPER_PLATFORM_TOKEN, falling back to PLATFORM_TOKEN).
func ApplyEnv(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config: nil config")
	}
	var e envOverrides
	if err := envconfig.Process("roomkeeper", &e); err != nil {
		return fmt.Errorf("config: env overlay: %w", err)
	}
	if v := strings.TrimSpace(e.PlatformToken); v != "" {
		cfg.Platform.Token = v
	}
	if v := strings.TrimSpace(e.DatabasePath); v != "" {
		cfg.Storage.Path = v
	}
	if v := strings.TrimSpace(e.LogLevel); v != "" {
		cfg.Logging.Level = v
	}
	return nil
}

// Validate checks the fields the process cannot run without.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config: nil config")
	}
	if strings.TrimSpace(cfg.Platform.Driver) == "" {
		return fmt.Errorf("config: platform.driver is required")
	}
	if strings.TrimSpace(cfg.Platform.Token) == "" {
		return fmt.Errorf("config: platform.token is required (file or PLATFORM_TOKEN)")
	}
	if strings.TrimSpace(cfg.Storage.Driver) == "" {
		return fmt.Errorf("config: storage.driver is required")
	}
	if strings.TrimSpace(cfg.Storage.Path) == "" {
		return fmt.Errorf("config: storage.path is required (file or DATABASE_PATH)")
	}
	if _, err := ParseDurationField("storage.busy_timeout", cfg.Storage.BusyTimeout); err != nil {
		return err
	}
	return nil
}
