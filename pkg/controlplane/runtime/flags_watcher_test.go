package runtime

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emudecky/emudecky/pkg/controlplane/models"
	"github.com/emudecky/emudecky/pkg/controlplane/settings"
)

type recordingMetrics struct {
	mu      sync.Mutex
	restart []bool
}

func (m *recordingMetrics) ObserveHook(string, string, time.Duration, error) {}
func (m *recordingMetrics) ObserveCall(string, string, time.Duration, error) {}
func (m *recordingMetrics) SetState(string)                                  {}

func (m *recordingMetrics) SetRestartRequired(required bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.restart = append(m.restart, required)
}

func (m *recordingMetrics) calls() []bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]bool(nil), m.restart...)
}

func TestFlagsWatcherDetectsDivergence(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	running := models.DefaultModuleFlags()
	w := NewFlagsWatcher(s, settings.DefaultNamespace, func() models.ModuleFlags { return running }, 0)
	m := &recordingMetrics{}
	w.SetMetrics(m)

	require.NoError(t, w.Poll(ctx))
	assert.False(t, w.RestartRequired())
	assert.Nil(t, w.Durable())

	require.NoError(t, s.SetSetting(ctx, settings.DefaultNamespace, models.ModulesSettingKey,
		`{"Emuchievements":true,"MetaDeck":false,"SteamlessTimes":true}`))
	require.NoError(t, w.Poll(ctx))
	assert.True(t, w.RestartRequired())
	assert.False(t, w.Durable()[models.ModuleMetaDeck])

	// A second poll with the same value does not re-report.
	require.NoError(t, w.Poll(ctx))

	require.NoError(t, s.SetSetting(ctx, settings.DefaultNamespace, models.ModulesSettingKey,
		`{"Emuchievements":true,"MetaDeck":true}`))
	require.NoError(t, w.Poll(ctx))
	assert.False(t, w.RestartRequired())

	assert.Equal(t, []bool{true, false}, m.calls())
}

func TestFlagsWatcherSkipsBeforeLoad(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	w := NewFlagsWatcher(s, settings.DefaultNamespace, func() models.ModuleFlags { return nil }, 0)

	require.NoError(t, s.SetSetting(ctx, settings.DefaultNamespace, models.ModulesSettingKey, `{"MetaDeck":false}`))
	require.NoError(t, w.Poll(ctx))
	assert.False(t, w.RestartRequired())
	assert.NotNil(t, w.Durable())
}

func TestFlagsWatcherMalformedValue(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	w := NewFlagsWatcher(s, settings.DefaultNamespace, models.DefaultModuleFlags, 0)

	require.NoError(t, s.SetSetting(ctx, settings.DefaultNamespace, models.ModulesSettingKey, `"oops"`))
	assert.Error(t, w.Poll(ctx))
	assert.False(t, w.RestartRequired())
}

func TestFlagsWatcherPollsInBackground(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	w := NewFlagsWatcher(s, settings.DefaultNamespace, models.DefaultModuleFlags, 10*time.Millisecond)

	w.Start(ctx)
	defer w.Stop()

	require.NoError(t, s.SetSetting(ctx, settings.DefaultNamespace, models.ModulesSettingKey, `{"SteamlessTimes":false}`))
	assert.Eventually(t, w.RestartRequired, 2*time.Second, 10*time.Millisecond)
}

func TestFlagsWatcherStopWithoutStart(t *testing.T) {
	w := NewFlagsWatcher(newTestStore(t), settings.DefaultNamespace, models.DefaultModuleFlags, 0)
	w.Stop()
	w.Stop()
}
