package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/emudecky/emudecky/pkg/metrics"
)

func init() {
	metrics.RegisterLifecycleMetricsConstructor(func() metrics.LifecycleMetrics {
		return NewLifecycleMetrics()
	})
}

// coordinatorStates lists every state so the gauge can zero the inactive ones.
var coordinatorStates = []string{"uninitialized", "loading", "running", "shutting_down", "stopped", "failed"}

// lifecycleMetrics is the Prometheus implementation of metrics.LifecycleMetrics.
type lifecycleMetrics struct {
	hooks           *prometheus.CounterVec
	hookDuration    *prometheus.HistogramVec
	calls           *prometheus.CounterVec
	callDuration    *prometheus.HistogramVec
	state           *prometheus.GaugeVec
	restartRequired prometheus.Gauge
}

// NewLifecycleMetrics creates a new Prometheus-backed lifecycle metrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewLifecycleMetrics() *lifecycleMetrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &lifecycleMetrics{
		hooks: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "emudecky_module_hooks_total",
				Help: "Total number of module lifecycle hook runs",
			},
			[]string{"module", "hook", "result"},
		),
		hookDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "emudecky_module_hook_duration_seconds",
				Help:    "Duration of module lifecycle hooks",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"module", "hook"},
		),
		calls: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "emudecky_routed_calls_total",
				Help: "Total number of feature calls routed to modules",
			},
			[]string{"module", "method", "result"},
		),
		callDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "emudecky_routed_call_duration_seconds",
				Help:    "Duration of routed feature calls",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"module", "method"},
		),
		state: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "emudecky_coordinator_state",
				Help: "Current coordinator state (1 for the active state, 0 otherwise)",
			},
			[]string{"state"},
		),
		restartRequired: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "emudecky_restart_required",
				Help: "1 when persisted module flags differ from the running modules",
			},
		),
	}
}

func (m *lifecycleMetrics) ObserveHook(module, hook string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.hooks.WithLabelValues(module, hook, metrics.Result(err)).Inc()
	m.hookDuration.WithLabelValues(module, hook).Observe(duration.Seconds())
}

func (m *lifecycleMetrics) ObserveCall(module, method string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.calls.WithLabelValues(module, method, metrics.Result(err)).Inc()
	m.callDuration.WithLabelValues(module, method).Observe(duration.Seconds())
}

func (m *lifecycleMetrics) SetState(state string) {
	if m == nil {
		return
	}
	for _, s := range coordinatorStates {
		v := 0.0
		if s == state {
			v = 1
		}
		m.state.WithLabelValues(s).Set(v)
	}
}

func (m *lifecycleMetrics) SetRestartRequired(required bool) {
	if m == nil {
		return
	}
	if required {
		m.restartRequired.Set(1)
	} else {
		m.restartRequired.Set(0)
	}
}
