package config

import (
	"github.com/emudecky/emudecky/internal/logger"
	"github.com/emudecky/emudecky/pkg/metrics"
)

// MetricsResult holds what InitializeMetrics produced. All fields are nil
// when metrics are disabled.
type MetricsResult struct {
	Server    *metrics.Server
	Lifecycle metrics.LifecycleMetrics
	Settings  metrics.SettingsMetrics
}

// InitializeMetrics creates the Prometheus registry, the metric sets and the
// metrics HTTP server when metrics are enabled. The prometheus package must
// be linked in (blank import) for the metric sets to be non-nil.
func InitializeMetrics(cfg *Config) MetricsResult {
	if !cfg.Metrics.Enabled {
		return MetricsResult{}
	}

	metrics.InitRegistry()
	result := MetricsResult{
		Server:    metrics.NewServer(cfg.Metrics.Port),
		Lifecycle: metrics.NewLifecycleMetrics(),
		Settings:  metrics.NewSettingsMetrics(),
	}
	logger.Debug("Metrics initialized", "port", cfg.Metrics.Port)
	return result
}
