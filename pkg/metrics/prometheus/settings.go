package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/emudecky/emudecky/pkg/metrics"
)

func init() {
	metrics.RegisterSettingsMetricsConstructor(func() metrics.SettingsMetrics {
		return NewSettingsMetrics()
	})
}

// settingsMetrics is the Prometheus implementation of metrics.SettingsMetrics.
type settingsMetrics struct {
	commits        *prometheus.CounterVec
	commitDuration prometheus.Histogram
	committedKeys  prometheus.Counter
	persists       *prometheus.CounterVec
}

// NewSettingsMetrics creates a new Prometheus-backed settings metrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewSettingsMetrics() *settingsMetrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &settingsMetrics{
		commits: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "emudecky_settings_commits_total",
				Help: "Total number of settings working-set flushes",
			},
			[]string{"result"},
		),
		commitDuration: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "emudecky_settings_commit_duration_seconds",
				Help:    "Duration of settings flushes",
				Buckets: prometheus.DefBuckets,
			},
		),
		committedKeys: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "emudecky_settings_committed_keys_total",
				Help: "Total number of keys written or removed by flushes",
			},
		),
		persists: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "emudecky_settings_persists_total",
				Help: "Total number of single-key write-throughs",
			},
			[]string{"key", "result"},
		),
	}
}

func (m *settingsMetrics) ObserveCommit(keys int, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.commits.WithLabelValues(metrics.Result(err)).Inc()
	m.commitDuration.Observe(duration.Seconds())
	if err == nil {
		m.committedKeys.Add(float64(keys))
	}
}

func (m *settingsMetrics) ObservePersist(key string, err error) {
	if m == nil {
		return
	}
	m.persists.WithLabelValues(key, metrics.Result(err)).Inc()
}
