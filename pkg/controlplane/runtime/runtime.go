// Package runtime assembles the host shim: the settings working set, the
// module registry, the lifecycle coordinator, the feature modules and the
// flags watcher, behind one facade used by the API server and the CLI.
package runtime

import (
	"context"
	"encoding/json"
	"time"

	"github.com/emudecky/emudecky/internal/logger"
	"github.com/emudecky/emudecky/pkg/controlplane/models"
	"github.com/emudecky/emudecky/pkg/controlplane/runtime/lifecycle"
	"github.com/emudecky/emudecky/pkg/controlplane/runtime/modules"
	"github.com/emudecky/emudecky/pkg/controlplane/settings"
	"github.com/emudecky/emudecky/pkg/controlplane/store"
	"github.com/emudecky/emudecky/pkg/metrics"
	"github.com/emudecky/emudecky/pkg/modules/emuchievements"
	"github.com/emudecky/emudecky/pkg/modules/metadeck"
	"github.com/emudecky/emudecky/pkg/modules/steamlesstimes"
)

// Options configures a Runtime. Zero values select the defaults.
type Options struct {
	// Namespace is the settings namespace. Default: settings.DefaultNamespace.
	Namespace string

	// Defaults are the flags adopted when none are persisted. Default: all enabled.
	Defaults models.ModuleFlags

	// AchievementsClient queries RetroAchievements. Default: HTTP client for the public API.
	AchievementsClient emuchievements.Client

	// Clock drives playtime tracking. Default: time.Now.
	Clock func() time.Time

	// PollInterval is the flags watcher interval. Default: DefaultPollInterval.
	PollInterval time.Duration

	LifecycleMetrics metrics.LifecycleMetrics
	SettingsMetrics  metrics.SettingsMetrics
}

// Runtime is the host shim facade.
type Runtime struct {
	store   store.Store
	host    *modules.Host
	coord   *lifecycle.Coordinator
	watcher *FlagsWatcher

	emuchievements *emuchievements.Module
	metadeck       *metadeck.Module
	steamlessTimes *steamlesstimes.Module
}

// New wires a runtime over s. Nothing is read from the store until Load.
func New(s store.Store, opts Options) (*Runtime, error) {
	if opts.Namespace == "" {
		opts.Namespace = settings.DefaultNamespace
	}
	if opts.AchievementsClient == nil {
		opts.AchievementsClient = emuchievements.NewHTTPClient("", 0)
	}

	var timesOpts []steamlesstimes.Option
	if opts.Clock != nil {
		timesOpts = append(timesOpts, steamlesstimes.WithClock(opts.Clock))
	}

	rt := &Runtime{
		store:          s,
		emuchievements: emuchievements.New(opts.AchievementsClient),
		metadeck:       metadeck.New(),
		steamlessTimes: steamlesstimes.New(timesOpts...),
	}

	mgr := settings.NewManager(s, opts.Namespace, settings.WithMetrics(opts.SettingsMetrics))
	rt.host = modules.NewHost(mgr)

	coordOpts := []lifecycle.Option{lifecycle.WithMetrics(opts.LifecycleMetrics)}
	if opts.Defaults != nil {
		coordOpts = append(coordOpts, lifecycle.WithDefaults(opts.Defaults))
	}
	coord, err := lifecycle.NewCoordinator(rt.host, []modules.Module{
		rt.emuchievements,
		rt.metadeck,
		rt.steamlessTimes,
	}, coordOpts...)
	if err != nil {
		return nil, err
	}
	rt.coord = coord

	rt.watcher = NewFlagsWatcher(s, opts.Namespace, coord.LoadedFlags, opts.PollInterval)
	rt.watcher.SetMetrics(opts.LifecycleMetrics)

	return rt, nil
}

// Store returns the persistent settings store.
func (r *Runtime) Store() store.Store {
	return r.store
}

// Host returns the shared host context.
func (r *Runtime) Host() *modules.Host {
	return r.host
}

// Coordinator returns the lifecycle coordinator.
func (r *Runtime) Coordinator() *lifecycle.Coordinator {
	return r.coord
}

// Watcher returns the flags watcher.
func (r *Runtime) Watcher() *FlagsWatcher {
	return r.watcher
}

// ============================================================================
// Lifecycle
// ============================================================================

// Load initializes the coordinator and starts the enabled modules.
func (r *Runtime) Load(ctx context.Context) error {
	return r.coord.Initialize(ctx)
}

// Unload stops the started modules.
func (r *Runtime) Unload(ctx context.Context) error {
	return r.coord.Shutdown(ctx)
}

// Serve runs the runtime under svc until ctx is cancelled.
func (r *Runtime) Serve(ctx context.Context, svc *lifecycle.Service) error {
	return svc.Serve(ctx, r.coord, r.watcher)
}

// State returns the coordinator state.
func (r *Runtime) State() lifecycle.State {
	return r.coord.State()
}

// RestartRequired reports whether persisted module flags differ from the
// flags the running modules were started with.
func (r *Runtime) RestartRequired() bool {
	return r.watcher.RestartRequired()
}

// ============================================================================
// Modules and settings
// ============================================================================

// GetModules returns the module flags, waiting for them to be loaded.
func (r *Runtime) GetModules(ctx context.Context) (models.ModuleFlags, error) {
	return r.host.Modules.GetContext(ctx)
}

// SetModules replaces and persists the module flags. Running modules are
// not started or stopped; the change applies on the next Load.
func (r *Runtime) SetModules(ctx context.Context, flags models.ModuleFlags) error {
	if err := r.host.Modules.Set(ctx, flags); err != nil {
		return err
	}
	// Refresh the restart notice now instead of on the next tick.
	if err := r.watcher.Poll(ctx); err != nil {
		logger.WarnCtx(ctx, "Flags watcher: poll failed", logger.KeyError, err)
	}
	return nil
}

// GetSetting returns the working-set value of key.
func (r *Runtime) GetSetting(ctx context.Context, key string) (json.RawMessage, bool, error) {
	return r.host.Settings.GetRaw(ctx, key)
}

// SetSetting updates key in the working set. It is durable after Commit.
func (r *Runtime) SetSetting(ctx context.Context, key string, value any) error {
	return r.host.Settings.Set(ctx, key, value)
}

// DeleteSetting removes key from the working set. It is durable after Commit.
func (r *Runtime) DeleteSetting(ctx context.Context, key string) error {
	return r.host.Settings.Delete(ctx, key)
}

// Settings returns a copy of the working set.
func (r *Runtime) Settings(ctx context.Context) (map[string]json.RawMessage, error) {
	return r.host.Settings.Snapshot(ctx)
}

// Commit writes the module flags and flushes the working set.
func (r *Runtime) Commit(ctx context.Context) error {
	return r.coord.Commit(ctx)
}
