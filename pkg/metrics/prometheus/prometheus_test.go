package prometheus

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emudecky/emudecky/pkg/metrics"
)

func TestDisabledMetricsAreNil(t *testing.T) {
	metrics.Reset()

	assert.Nil(t, NewLifecycleMetrics())
	assert.Nil(t, NewSettingsMetrics())
	assert.Nil(t, metrics.NewLifecycleMetrics())

	var m *lifecycleMetrics
	assert.NotPanics(t, func() {
		m.ObserveHook("MetaDeck", "start", time.Millisecond, nil)
		m.SetState("running")
	})
}

func TestLifecycleMetrics(t *testing.T) {
	metrics.InitRegistry()
	t.Cleanup(metrics.Reset)

	m := NewLifecycleMetrics()
	require.NotNil(t, m)

	m.ObserveHook("MetaDeck", "start", time.Millisecond, nil)
	m.ObserveHook("MetaDeck", "stop", time.Millisecond, errors.New("boom"))
	m.ObserveCall("SteamlessTimes", "get_playtimes", time.Millisecond, nil)
	m.SetState("running")
	m.SetRestartRequired(true)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.hooks.WithLabelValues("MetaDeck", "start", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.hooks.WithLabelValues("MetaDeck", "stop", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.calls.WithLabelValues("SteamlessTimes", "get_playtimes", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.state.WithLabelValues("running")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.state.WithLabelValues("loading")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.restartRequired))
}

func TestSettingsMetrics(t *testing.T) {
	metrics.InitRegistry()
	t.Cleanup(metrics.Reset)

	m := metrics.NewSettingsMetrics()
	require.NotNil(t, m)

	m.ObserveCommit(3, time.Millisecond, nil)
	m.ObserveCommit(2, time.Millisecond, errors.New("disk full"))
	m.ObservePersist("modules", nil)

	impl := m.(*settingsMetrics)
	assert.Equal(t, 1.0, testutil.ToFloat64(impl.commits.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(impl.commits.WithLabelValues("error")))
	assert.Equal(t, 3.0, testutil.ToFloat64(impl.committedKeys))
	assert.Equal(t, 1.0, testutil.ToFloat64(impl.persists.WithLabelValues("modules", "success")))
}
