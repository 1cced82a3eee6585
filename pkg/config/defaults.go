package config

import (
	"strings"
	"time"

	"github.com/emudecky/emudecky/internal/telemetry"
	"github.com/emudecky/emudecky/pkg/controlplane/api"
	"github.com/emudecky/emudecky/pkg/controlplane/models"
	"github.com/emudecky/emudecky/pkg/controlplane/runtime"
	"github.com/emudecky/emudecky/pkg/controlplane/settings"
	"github.com/emudecky/emudecky/pkg/controlplane/store"
	"github.com/emudecky/emudecky/pkg/modules/emuchievements"
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// Default Strategy:
//   - Zero values (0, "", false, nil) are replaced with defaults
//   - Explicit values are preserved
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyShutdownTimeoutDefaults(cfg)
	applySettingsDefaults(&cfg.Settings)
	applyDatabaseDefaults(&cfg.Database)
	applyModulesDefaults(&cfg.Modules)
	applyMetricsDefaults(&cfg.Metrics)
	applyAPIDefaults(&cfg.API)
	applyEmuchievementsDefaults(&cfg.Emuchievements)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

// applyTelemetryDefaults sets OpenTelemetry defaults.
func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4317"
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 1.0
	}

	applyProfilingDefaults(&cfg.Profiling)
}

// applyProfilingDefaults sets Pyroscope profiling defaults.
func applyProfilingDefaults(cfg *ProfilingConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "http://localhost:4040"
	}
	if len(cfg.ProfileTypes) == 0 {
		cfg.ProfileTypes = append([]string(nil), telemetry.DefaultProfileTypes...)
	}
}

func applyShutdownTimeoutDefaults(cfg *Config) {
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
}

func applySettingsDefaults(cfg *SettingsConfig) {
	if cfg.Namespace == "" {
		cfg.Namespace = settings.DefaultNamespace
	}
}

func applyDatabaseDefaults(cfg *store.Config) {
	cfg.ApplyDefaults()
}

func applyModulesDefaults(cfg *ModulesConfig) {
	if cfg.PollInterval == 0 {
		cfg.PollInterval = runtime.DefaultPollInterval
	}
}

// applyMetricsDefaults sets metrics defaults. Metrics stay opt-in.
func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Enabled && cfg.Port == 0 {
		cfg.Port = 9090
	}
}

func applyAPIDefaults(cfg *api.APIConfig) {
	cfg.ApplyDefaults()
}

func applyEmuchievementsDefaults(cfg *EmuchievementsConfig) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = emuchievements.DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = emuchievements.DefaultTimeout
	}
}

// DefaultModuleFlags converts the configured defaults into module flags.
// Names match case-insensitively since viper lowercases map keys. Known
// modules absent from the map are enabled and unknown names are dropped.
// It returns nil when no defaults are configured, selecting the
// coordinator's built-in defaults.
func (c *ModulesConfig) DefaultModuleFlags() models.ModuleFlags {
	if len(c.Defaults) == 0 {
		return nil
	}
	flags := make(models.ModuleFlags, len(c.Defaults))
	for name, enabled := range c.Defaults {
		if n, err := models.ParseModuleName(name); err == nil {
			flags[n] = enabled
		}
	}
	return flags.Normalize()
}

// GetDefaultConfig returns a Config struct with all default values applied.
//
// This is useful for:
//   - Generating sample configuration files
//   - Testing
//   - Documentation
func GetDefaultConfig() *Config {
	cfg := &Config{
		Database: store.Config{
			Type: store.DatabaseTypeSQLite,
		},
	}

	ApplyDefaults(cfg)
	return cfg
}
