package metrics

import "time"

// LifecycleMetrics records module hook runs, routed calls and coordinator state.
type LifecycleMetrics interface {
	// ObserveHook records one start or stop hook run.
	ObserveHook(module, hook string, duration time.Duration, err error)

	// ObserveCall records one routed feature call.
	ObserveCall(module, method string, duration time.Duration, err error)

	// SetState publishes the current coordinator state.
	SetState(state string)

	// SetRestartRequired publishes whether persisted flags differ from the running set.
	SetRestartRequired(required bool)
}

// SettingsMetrics records settings store traffic.
type SettingsMetrics interface {
	// ObserveCommit records a flush of the working set.
	ObserveCommit(keys int, duration time.Duration, err error)

	// ObservePersist records a single-key write-through.
	ObservePersist(key string, err error)
}

var (
	newPrometheusLifecycleMetrics func() LifecycleMetrics
	newPrometheusSettingsMetrics  func() SettingsMetrics
)

// RegisterLifecycleMetricsConstructor is called by pkg/metrics/prometheus during init.
func RegisterLifecycleMetricsConstructor(constructor func() LifecycleMetrics) {
	newPrometheusLifecycleMetrics = constructor
}

// RegisterSettingsMetricsConstructor is called by pkg/metrics/prometheus during init.
func RegisterSettingsMetricsConstructor(constructor func() SettingsMetrics) {
	newPrometheusSettingsMetrics = constructor
}

// NewLifecycleMetrics returns the Prometheus implementation, or nil when
// metrics are disabled or the prometheus package was not linked in.
func NewLifecycleMetrics() LifecycleMetrics {
	if !IsEnabled() || newPrometheusLifecycleMetrics == nil {
		return nil
	}
	return newPrometheusLifecycleMetrics()
}

// NewSettingsMetrics returns the Prometheus implementation, or nil when
// metrics are disabled or the prometheus package was not linked in.
func NewSettingsMetrics() SettingsMetrics {
	if !IsEnabled() || newPrometheusSettingsMetrics == nil {
		return nil
	}
	return newPrometheusSettingsMetrics()
}

// Result returns "error" or "success" for metric labels.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
