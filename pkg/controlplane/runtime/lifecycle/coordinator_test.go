package lifecycle

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emudecky/emudecky/pkg/controlplane/models"
	"github.com/emudecky/emudecky/pkg/controlplane/runtime/modules"
	"github.com/emudecky/emudecky/pkg/controlplane/settings"
	"github.com/emudecky/emudecky/pkg/controlplane/store"
)

// journal records hook invocations across fake modules.
type journal struct {
	mu      sync.Mutex
	entries []string
}

func (j *journal) add(entry string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, entry)
}

func (j *journal) list() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.entries...)
}

type fakeModule struct {
	name       models.ModuleName
	journal    *journal
	startErr   error
	stopErr    error
	startPanic bool
}

func (m *fakeModule) Name() models.ModuleName { return m.name }

func (m *fakeModule) Start(_ context.Context, _ *modules.Host) error {
	m.journal.add(string(m.name) + ".start")
	if m.startPanic {
		panic("boom")
	}
	return m.startErr
}

func (m *fakeModule) Stop(_ context.Context, _ *modules.Host) error {
	m.journal.add(string(m.name) + ".stop")
	return m.stopErr
}

type fixture struct {
	store   store.Store
	host    *modules.Host
	journal *journal
	mods    map[models.ModuleName]*fakeModule
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s, err := store.NewBadgerStore(&store.BadgerConfig{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	j := &journal{}
	f := &fixture{
		store:   s,
		host:    modules.NewHost(settings.NewManager(s, settings.DefaultNamespace)),
		journal: j,
		mods:    make(map[models.ModuleName]*fakeModule),
	}
	for _, name := range models.KnownModules() {
		f.mods[name] = &fakeModule{name: name, journal: j}
	}
	return f
}

func (f *fixture) persistFlags(t *testing.T, raw string) {
	t.Helper()
	require.NoError(t, f.store.SetSetting(context.Background(), settings.DefaultNamespace, models.ModulesSettingKey, raw))
}

func (f *fixture) coordinator(t *testing.T, opts ...Option) *Coordinator {
	t.Helper()
	impls := make([]modules.Module, 0, len(f.mods))
	// Reverse registration order must not affect start order.
	known := models.KnownModules()
	for i := len(known) - 1; i >= 0; i-- {
		impls = append(impls, f.mods[known[i]])
	}
	c, err := NewCoordinator(f.host, impls, opts...)
	require.NoError(t, err)
	return c
}

func TestInitializeStartsEnabledModulesInOrder(t *testing.T) {
	f := newFixture(t)
	f.persistFlags(t, `{"Emuchievements":true,"MetaDeck":false,"SteamlessTimes":true}`)
	c := f.coordinator(t)

	require.NoError(t, c.Initialize(context.Background()))

	assert.Equal(t, StateRunning, c.State())
	assert.Equal(t, []string{"Emuchievements.start", "SteamlessTimes.start"}, f.journal.list())
	assert.Equal(t, []models.ModuleName{models.ModuleEmuchievements, models.ModuleSteamlessTimes}, c.Started())
}

func TestInitializeAdoptsDefaultsWhenNothingPersisted(t *testing.T) {
	f := newFixture(t)
	c := f.coordinator(t)

	require.NoError(t, c.Initialize(context.Background()))

	assert.Equal(t, []string{"Emuchievements.start", "MetaDeck.start", "SteamlessTimes.start"}, f.journal.list())
	assert.Equal(t, models.DefaultModuleFlags(), f.host.Modules.Get())
	assert.Equal(t, models.DefaultModuleFlags(), c.LoadedFlags())
}

func TestInitializeWithCustomDefaults(t *testing.T) {
	f := newFixture(t)
	defaults := models.ModuleFlags{
		models.ModuleEmuchievements: false,
		models.ModuleMetaDeck:       true,
		models.ModuleSteamlessTimes: false,
	}
	c := f.coordinator(t, WithDefaults(defaults))

	require.NoError(t, c.Initialize(context.Background()))

	assert.Equal(t, []string{"MetaDeck.start"}, f.journal.list())
}

func TestInitializeAllDisabledStartsNothing(t *testing.T) {
	f := newFixture(t)
	f.persistFlags(t, `{"Emuchievements":false,"MetaDeck":false,"SteamlessTimes":false}`)
	c := f.coordinator(t)

	require.NoError(t, c.Initialize(context.Background()))
	require.NoError(t, c.Shutdown(context.Background()))

	assert.Empty(t, f.journal.list())
	assert.Equal(t, StateStopped, c.State())
}

func TestInitializeFailFast(t *testing.T) {
	f := newFixture(t)
	errStart := errors.New("metadeck unavailable")
	f.mods[models.ModuleMetaDeck].startErr = errStart
	c := f.coordinator(t)

	err := c.Initialize(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errStart)

	var hookErr *HookError
	require.ErrorAs(t, err, &hookErr)
	assert.Equal(t, models.ModuleMetaDeck, hookErr.Module)
	assert.Equal(t, HookStart, hookErr.Hook)

	assert.Equal(t, StateFailed, c.State())
	assert.Equal(t, []string{"Emuchievements.start", "MetaDeck.start"}, f.journal.list())
	assert.Equal(t, []models.ModuleName{models.ModuleEmuchievements}, c.Started())
}

func TestInitializeRecoversHookPanic(t *testing.T) {
	f := newFixture(t)
	f.mods[models.ModuleEmuchievements].startPanic = true
	c := f.coordinator(t)

	err := c.Initialize(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic: boom")
	assert.Equal(t, StateFailed, c.State())
	assert.Equal(t, []string{"Emuchievements.start"}, f.journal.list())
}

func TestInitializeTwiceIsRejected(t *testing.T) {
	f := newFixture(t)
	c := f.coordinator(t)

	require.NoError(t, c.Initialize(context.Background()))
	err := c.Initialize(context.Background())
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Len(t, f.journal.list(), 3)
}

func TestShutdownStopsStartedModulesInOrder(t *testing.T) {
	f := newFixture(t)
	f.persistFlags(t, `{"Emuchievements":true,"MetaDeck":false,"SteamlessTimes":true}`)
	c := f.coordinator(t)
	require.NoError(t, c.Initialize(context.Background()))

	require.NoError(t, c.Shutdown(context.Background()))

	assert.Equal(t, []string{
		"Emuchievements.start", "SteamlessTimes.start",
		"Emuchievements.stop", "SteamlessTimes.stop",
	}, f.journal.list())
	assert.Equal(t, StateStopped, c.State())
	assert.Empty(t, c.Started())
}

func TestShutdownContinuesPastStopFailure(t *testing.T) {
	f := newFixture(t)
	f.persistFlags(t, `{"Emuchievements":true,"MetaDeck":false,"SteamlessTimes":true}`)
	errStop := errors.New("flush failed")
	f.mods[models.ModuleEmuchievements].stopErr = errStop
	c := f.coordinator(t)
	require.NoError(t, c.Initialize(context.Background()))

	err := c.Shutdown(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errStop)

	assert.Contains(t, f.journal.list(), "SteamlessTimes.stop")
	assert.Equal(t, StateStopped, c.State())
}

func TestShutdownAfterFailedInitStopsStartedOnly(t *testing.T) {
	f := newFixture(t)
	f.mods[models.ModuleSteamlessTimes].startErr = errors.New("no clock")
	c := f.coordinator(t)
	require.Error(t, c.Initialize(context.Background()))

	require.NoError(t, c.Shutdown(context.Background()))

	assert.Equal(t, []string{
		"Emuchievements.start", "MetaDeck.start", "SteamlessTimes.start",
		"Emuchievements.stop", "MetaDeck.stop",
	}, f.journal.list())
	assert.Equal(t, StateFailed, c.State())
}

func TestShutdownBeforeInitializeIsRejected(t *testing.T) {
	f := newFixture(t)
	c := f.coordinator(t)

	assert.ErrorIs(t, c.Shutdown(context.Background()), ErrInvalidState)
	assert.Equal(t, StateUninitialized, c.State())
}

func TestShutdownTwiceIsRejected(t *testing.T) {
	f := newFixture(t)
	c := f.coordinator(t)
	require.NoError(t, c.Initialize(context.Background()))
	require.NoError(t, c.Shutdown(context.Background()))

	assert.ErrorIs(t, c.Shutdown(context.Background()), ErrInvalidState)
	assert.Len(t, f.journal.list(), 6)
}

func TestNewCoordinatorRejectsDuplicates(t *testing.T) {
	f := newFixture(t)
	a := f.mods[models.ModuleMetaDeck]

	_, err := NewCoordinator(f.host, []modules.Module{a, a})
	assert.ErrorIs(t, err, ErrDuplicateModule)
}

func TestNewCoordinatorRejectsUnknownModule(t *testing.T) {
	f := newFixture(t)
	bad := &fakeModule{name: "Bogus", journal: f.journal}

	_, err := NewCoordinator(f.host, []modules.Module{bad})
	assert.ErrorIs(t, err, models.ErrUnknownModule)
}

func TestMissingImplementationIsSkipped(t *testing.T) {
	f := newFixture(t)
	c, err := NewCoordinator(f.host, []modules.Module{f.mods[models.ModuleSteamlessTimes]})
	require.NoError(t, err)

	require.NoError(t, c.Initialize(context.Background()))
	assert.Equal(t, []string{"SteamlessTimes.start"}, f.journal.list())
}

func TestSettingsAreWorkingSetUntilCommit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.coordinator(t)
	require.NoError(t, c.Initialize(ctx))

	require.NoError(t, f.host.Settings.Set(ctx, "username", "retro"))

	v, err := settings.Get(ctx, f.host.Settings, "username", "")
	require.NoError(t, err)
	assert.Equal(t, "retro", v)

	_, err = f.store.GetSetting(ctx, settings.DefaultNamespace, "username")
	assert.ErrorIs(t, err, models.ErrSettingNotFound)

	require.NoError(t, c.Commit(ctx))

	raw, err := f.store.GetSetting(ctx, settings.DefaultNamespace, "username")
	require.NoError(t, err)
	assert.JSONEq(t, `"retro"`, raw)
}

func TestCommitPersistsFlagsAcrossRestart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.coordinator(t)
	require.NoError(t, c.Initialize(ctx))

	flags := models.ModuleFlags{
		models.ModuleEmuchievements: false,
		models.ModuleMetaDeck:       true,
		models.ModuleSteamlessTimes: true,
	}
	require.NoError(t, f.host.Modules.Set(ctx, flags))
	require.NoError(t, c.Commit(ctx))
	require.NoError(t, c.Shutdown(ctx))

	// A fresh process over the same store sees the committed flags.
	host := modules.NewHost(settings.NewManager(f.store, settings.DefaultNamespace))
	j := &journal{}
	var impls []modules.Module
	for _, name := range models.KnownModules() {
		impls = append(impls, &fakeModule{name: name, journal: j})
	}
	c2, err := NewCoordinator(host, impls)
	require.NoError(t, err)
	require.NoError(t, c2.Initialize(ctx))

	assert.Equal(t, flags, host.Modules.Get())
	assert.Equal(t, []string{"MetaDeck.start", "SteamlessTimes.start"}, j.list())
}

func TestCommitAdoptsFlagsStagedAsSetting(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.coordinator(t)
	require.NoError(t, c.Initialize(ctx))

	flags := models.ModuleFlags{
		models.ModuleEmuchievements: false,
		models.ModuleMetaDeck:       true,
		models.ModuleSteamlessTimes: true,
	}
	require.NoError(t, f.host.Settings.Set(ctx, models.ModulesSettingKey, flags))
	require.NoError(t, c.Commit(ctx))
	assert.Equal(t, flags, f.host.Modules.Get())
	require.NoError(t, c.Shutdown(ctx))

	host := modules.NewHost(settings.NewManager(f.store, settings.DefaultNamespace))
	require.NoError(t, host.Settings.Read(ctx))
	loaded, err := host.Modules.Load(ctx, models.DefaultModuleFlags())
	require.NoError(t, err)
	assert.Equal(t, flags, loaded)
}

func TestRouteIgnoresEnablement(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.persistFlags(t, `{"Emuchievements":false,"MetaDeck":true,"SteamlessTimes":true}`)
	c := f.coordinator(t)
	require.NoError(t, c.Initialize(ctx))

	got, err := Route(ctx, c, models.ModuleEmuchievements, "isLogin", func(ctx context.Context, host *modules.Host) (bool, error) {
		assert.Same(t, f.host, host)
		return true, nil
	})
	require.NoError(t, err)
	assert.True(t, got)
	assert.NotContains(t, f.journal.list(), "Emuchievements.start")
}

func TestRoutePropagatesError(t *testing.T) {
	f := newFixture(t)
	c := f.coordinator(t)
	errCall := errors.New("not logged in")

	_, err := Route(context.Background(), c, models.ModuleEmuchievements, "Login", func(context.Context, *modules.Host) (struct{}, error) {
		return struct{}{}, errCall
	})
	assert.ErrorIs(t, err, errCall)
}

func TestRouteBeforeInitializeWaitsForSettings(t *testing.T) {
	f := newFixture(t)
	c := f.coordinator(t)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := Route(ctx, c, models.ModuleSteamlessTimes, "get_playtimes", func(ctx context.Context, host *modules.Host) (int, error) {
		return settings.Get(ctx, host.Settings, "playtimes", 0)
	})
	assert.ErrorIs(t, err, settings.ErrNotLoaded)

	done := make(chan error, 1)
	go func() {
		_, err := Route(context.Background(), c, models.ModuleSteamlessTimes, "get_playtimes", func(ctx context.Context, host *modules.Host) (int, error) {
			return settings.Get(ctx, host.Settings, "playtimes", 0)
		})
		done <- err
	}()

	require.NoError(t, c.Initialize(context.Background()))
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("routed call did not complete after initialization")
	}
}

func TestStateStrings(t *testing.T) {
	assert.Equal(t, "uninitialized", StateUninitialized.String())
	assert.Equal(t, "shutting_down", StateShuttingDown.String())
	assert.Equal(t, "failed", StateFailed.String())
	assert.True(t, StateStopped.Terminal())
	assert.True(t, StateFailed.Terminal())
	assert.False(t, StateRunning.Terminal())
}
