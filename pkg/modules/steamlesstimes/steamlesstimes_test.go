package steamlesstimes

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emudecky/emudecky/pkg/controlplane/runtime/modules"
	"github.com/emudecky/emudecky/pkg/controlplane/settings"
	"github.com/emudecky/emudecky/pkg/controlplane/store"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func setup(t *testing.T) (*Module, *fakeClock, *modules.Host, store.Store) {
	t.Helper()
	s, err := store.NewBadgerStore(&store.BadgerConfig{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	mgr := settings.NewManager(s, settings.DefaultNamespace)
	require.NoError(t, mgr.Read(context.Background()))

	clock := &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	return New(WithClock(clock.Now)), clock, modules.NewHost(mgr), s
}

func stopped(appID uint32) LifetimeNotification {
	return LifetimeNotification{AppID: appID, InstanceID: 1, Running: false}
}

func TestSessionRecordsMinutes(t *testing.T) {
	ctx := context.Background()
	m, clock, host, _ := setup(t)

	require.NoError(t, m.OnGameStartCallback(ctx, host, 0, "123", ActionLaunch))
	clock.Advance(30 * time.Minute)
	require.NoError(t, m.OnLifetimeCallback(ctx, host, stopped(123)))

	times, err := m.GetPlaytimes(ctx, host)
	require.NoError(t, err)
	assert.InDelta(t, 30.0, times["123"], 0.001)
}

func TestSessionsAccumulate(t *testing.T) {
	ctx := context.Background()
	m, clock, host, _ := setup(t)

	for range 2 {
		require.NoError(t, m.OnGameStartCallback(ctx, host, 0, "123", ActionLaunch))
		clock.Advance(15 * time.Minute)
		require.NoError(t, m.OnLifetimeCallback(ctx, host, stopped(123)))
	}

	times, err := m.GetPlaytimes(ctx, host)
	require.NoError(t, err)
	assert.InDelta(t, 30.0, times["123"], 0.001)
}

func TestNonLaunchActionIgnored(t *testing.T) {
	ctx := context.Background()
	m, clock, host, _ := setup(t)

	require.NoError(t, m.OnGameStartCallback(ctx, host, 0, "123", "InstallApp"))
	clock.Advance(10 * time.Minute)
	require.NoError(t, m.OnLifetimeCallback(ctx, host, stopped(123)))

	times, err := m.GetPlaytimes(ctx, host)
	require.NoError(t, err)
	assert.Empty(t, times)
}

func TestRunningNotificationOpensSession(t *testing.T) {
	ctx := context.Background()
	m, clock, host, _ := setup(t)

	require.NoError(t, m.OnLifetimeCallback(ctx, host, LifetimeNotification{AppID: 9, Running: true}))
	clock.Advance(5 * time.Minute)
	require.NoError(t, m.OnLifetimeCallback(ctx, host, stopped(9)))

	times, err := m.GetPlaytimes(ctx, host)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, times["9"], 0.001)
}

func TestRepeatedLaunchKeepsSessionStart(t *testing.T) {
	ctx := context.Background()
	m, clock, host, _ := setup(t)

	require.NoError(t, m.OnLifetimeCallback(ctx, host, LifetimeNotification{AppID: 123, Running: true}))
	clock.Advance(20 * time.Minute)
	require.NoError(t, m.OnGameStartCallback(ctx, host, 0, "123", ActionLaunch))
	clock.Advance(10 * time.Minute)
	require.NoError(t, m.OnGameStartCallback(ctx, host, 0, "123", ActionLaunch))
	clock.Advance(5 * time.Minute)
	require.NoError(t, m.OnLifetimeCallback(ctx, host, stopped(123)))

	times, err := m.GetPlaytimes(ctx, host)
	require.NoError(t, err)
	assert.InDelta(t, 35.0, times["123"], 0.001)
}

func TestSuspendedTimeExcluded(t *testing.T) {
	ctx := context.Background()
	m, clock, host, _ := setup(t)

	require.NoError(t, m.OnGameStartCallback(ctx, host, 0, "123", ActionLaunch))
	clock.Advance(10 * time.Minute)
	require.NoError(t, m.OnSuspendCallback(ctx, host))
	clock.Advance(8 * time.Hour)
	require.NoError(t, m.OnResumeCallback(ctx, host))
	clock.Advance(5 * time.Minute)
	require.NoError(t, m.OnLifetimeCallback(ctx, host, stopped(123)))

	times, err := m.GetPlaytimes(ctx, host)
	require.NoError(t, err)
	assert.InDelta(t, 15.0, times["123"], 0.001)
}

func TestResumeWithoutSuspendIsNoop(t *testing.T) {
	m, _, host, _ := setup(t)
	assert.NoError(t, m.OnResumeCallback(context.Background(), host))
}

func TestResetPlaytime(t *testing.T) {
	ctx := context.Background()
	m, clock, host, _ := setup(t)

	require.NoError(t, m.OnGameStartCallback(ctx, host, 0, "1", ActionLaunch))
	require.NoError(t, m.OnGameStartCallback(ctx, host, 0, "2", ActionLaunch))
	clock.Advance(10 * time.Minute)
	require.NoError(t, m.OnLifetimeCallback(ctx, host, stopped(1)))
	require.NoError(t, m.OnLifetimeCallback(ctx, host, stopped(2)))

	require.NoError(t, m.ResetPlaytime(ctx, host, "1"))

	times, err := m.GetPlaytimes(ctx, host)
	require.NoError(t, err)
	assert.NotContains(t, times, "1")
	assert.InDelta(t, 10.0, times["2"], 0.001)
}

func TestPlaytimesStayInWorkingSetUntilStop(t *testing.T) {
	ctx := context.Background()
	m, clock, host, s := setup(t)
	require.NoError(t, m.Start(ctx, host))

	require.NoError(t, m.OnGameStartCallback(ctx, host, 0, "123", ActionLaunch))
	clock.Advance(20 * time.Minute)
	require.NoError(t, m.OnLifetimeCallback(ctx, host, stopped(123)))

	_, err := s.GetSetting(ctx, settings.DefaultNamespace, KeyPlaytimes)
	assert.Error(t, err)

	require.NoError(t, m.Stop(ctx, host))

	raw, err := s.GetSetting(ctx, settings.DefaultNamespace, KeyPlaytimes)
	require.NoError(t, err)
	var durable Playtimes
	require.NoError(t, json.Unmarshal([]byte(raw), &durable))
	assert.InDelta(t, 20.0, durable["123"], 0.001)
}

func TestStopClosesOpenSessions(t *testing.T) {
	ctx := context.Background()
	m, clock, host, _ := setup(t)

	require.NoError(t, m.OnGameStartCallback(ctx, host, 0, "77", ActionLaunch))
	clock.Advance(12 * time.Minute)
	require.NoError(t, m.Stop(ctx, host))

	times, err := m.GetPlaytimes(ctx, host)
	require.NoError(t, err)
	assert.InDelta(t, 12.0, times["77"], 0.001)
}

func TestStopDuringSuspendExcludesSleep(t *testing.T) {
	ctx := context.Background()
	m, clock, host, _ := setup(t)

	require.NoError(t, m.OnGameStartCallback(ctx, host, 0, "77", ActionLaunch))
	clock.Advance(4 * time.Minute)
	require.NoError(t, m.OnSuspendCallback(ctx, host))
	clock.Advance(time.Hour)
	require.NoError(t, m.Stop(ctx, host))

	times, err := m.GetPlaytimes(ctx, host)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, times["77"], 0.001)
}

func TestLifetimeNotificationDecoding(t *testing.T) {
	var n LifetimeNotification
	require.NoError(t, json.Unmarshal([]byte(`{"unAppID":3253913152,"nInstanceID":42,"bRunning":false}`), &n))
	assert.Equal(t, "3253913152", n.GameID())
	assert.False(t, n.Running)
}
