package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/emudecky/emudecky/internal/logger"
	"github.com/emudecky/emudecky/internal/telemetry"
	"github.com/emudecky/emudecky/pkg/controlplane/models"
	"github.com/emudecky/emudecky/pkg/controlplane/runtime/modules"
	"github.com/emudecky/emudecky/pkg/metrics"
)

// Coordinator owns the module lifecycle.
//
// Initialize and Shutdown are meant to be driven by a single owner goroutine;
// they are serialized internally. Route and the settings accessors may be
// called from any goroutine at any time.
type Coordinator struct {
	host     *modules.Host
	modules  map[models.ModuleName]modules.Module
	defaults models.ModuleFlags
	metrics  metrics.LifecycleMetrics

	mu      sync.Mutex
	state   atomic.Int32
	started []models.ModuleName
	loaded  models.ModuleFlags
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithMetrics attaches lifecycle metrics. A nil value disables them.
func WithMetrics(m metrics.LifecycleMetrics) Option {
	return func(c *Coordinator) {
		c.metrics = m
	}
}

// WithDefaults overrides the flags adopted when none are persisted.
func WithDefaults(flags models.ModuleFlags) Option {
	return func(c *Coordinator) {
		c.defaults = flags.Clone()
	}
}

// NewCoordinator creates a coordinator for the given module implementations.
// Every implementation must name a distinct known module. A known module
// without an implementation is skipped at startup.
func NewCoordinator(host *modules.Host, impls []modules.Module, opts ...Option) (*Coordinator, error) {
	c := &Coordinator{
		host:     host,
		modules:  make(map[models.ModuleName]modules.Module, len(impls)),
		defaults: models.DefaultModuleFlags(),
	}
	for _, m := range impls {
		name := m.Name()
		if !name.IsValid() {
			return nil, fmt.Errorf("%w: %q", models.ErrUnknownModule, name)
		}
		if _, dup := c.modules[name]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateModule, name)
		}
		c.modules[name] = m
	}
	for _, opt := range opts {
		opt(c)
	}
	c.setState(StateUninitialized)
	return c, nil
}

// Host returns the shared host context.
func (c *Coordinator) Host() *modules.Host {
	return c.host
}

// State returns the current state.
func (c *Coordinator) State() State {
	return State(c.state.Load())
}

// Started returns the modules whose start hook succeeded, in start order.
func (c *Coordinator) Started() []models.ModuleName {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.ModuleName(nil), c.started...)
}

// LoadedFlags returns the flags the modules were started with, or nil before
// Initialize has loaded them.
func (c *Coordinator) LoadedFlags() models.ModuleFlags {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded.Clone()
}

func (c *Coordinator) setState(s State) {
	c.state.Store(int32(s))
	if c.metrics != nil {
		c.metrics.SetState(s.String())
	}
}

// Initialize reads the settings, loads the module flags and starts every
// enabled module in lifecycle order. The first failing start hook aborts the
// remaining starts and leaves the coordinator Failed; modules already started
// stay running until Shutdown.
func (c *Coordinator) Initialize(ctx context.Context) (err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if s := c.State(); s != StateUninitialized {
		return fmt.Errorf("%w: initialize called in state %s", ErrInvalidState, s)
	}

	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanInitialize)
	defer func() { telemetry.EndSpan(span, err) }()

	start := time.Now()
	c.setState(StateLoading)

	if err := c.host.Settings.Read(ctx); err != nil {
		c.setState(StateFailed)
		return err
	}

	flags, err := c.host.Modules.Load(ctx, c.defaults)
	if err != nil {
		c.setState(StateFailed)
		return err
	}
	c.loaded = flags
	logger.InfoCtx(ctx, "Module flags loaded", logger.KeyFlags, flags)

	for _, name := range models.KnownModules() {
		if !flags.Enabled(name) {
			logger.InfoCtx(ctx, "Module disabled, not starting", logger.KeyModule, name)
			continue
		}
		mod, ok := c.modules[name]
		if !ok {
			logger.WarnCtx(ctx, "Module enabled but not available", logger.KeyModule, name)
			continue
		}

		if err := c.runHook(ctx, mod, HookStart); err != nil {
			c.setState(StateFailed)
			logger.ErrorCtx(ctx, "Initialization aborted",
				logger.KeyModule, name, logger.KeyError, err,
				"started", c.started)
			return err
		}
		c.started = append(c.started, name)
	}

	c.setState(StateRunning)
	logger.InfoCtx(ctx, "Coordinator running",
		"started", c.started,
		logger.KeyDurationMs, logger.Duration(start))
	return nil
}

// Shutdown stops every started module in lifecycle order. Every stop hook is
// attempted; failures are logged and returned together.
//
// From Running the coordinator moves to Stopped. From Failed the modules that
// did start are stopped and the coordinator stays Failed.
func (c *Coordinator) Shutdown(ctx context.Context) (err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev := c.State()
	switch prev {
	case StateRunning:
		c.setState(StateShuttingDown)
	case StateFailed:
		// Stop what did start; the state stays Failed.
	default:
		return fmt.Errorf("%w: shutdown called in state %s", ErrInvalidState, prev)
	}

	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanShutdown)
	defer func() { telemetry.EndSpan(span, err) }()

	var errs []error
	for _, name := range c.started {
		if hookErr := c.runHook(ctx, c.modules[name], HookStop); hookErr != nil {
			logger.WarnCtx(ctx, "Module stop failed, continuing", logger.KeyModule, name, logger.KeyError, hookErr)
			errs = append(errs, hookErr)
		}
	}
	c.started = nil

	if prev == StateRunning {
		c.setState(StateStopped)
	}
	logger.InfoCtx(ctx, "Coordinator stopped", logger.KeyState, c.State().String(), "failures", len(errs))
	return errors.Join(errs...)
}

// Commit writes the current module flags into the settings working set and
// flushes the working set to the store.
func (c *Coordinator) Commit(ctx context.Context) (err error) {
	ctx, span := telemetry.StartSettingsSpan(ctx, telemetry.SpanCommit, c.host.Settings.Namespace())
	defer func() { telemetry.EndSpan(span, err) }()

	if err := c.host.Modules.WriteBack(ctx); err != nil {
		return fmt.Errorf("failed to stage module flags: %w", err)
	}
	return c.host.Settings.Commit(ctx)
}

// runHook runs one hook with tracing, metrics and panic containment.
func (c *Coordinator) runHook(ctx context.Context, mod modules.Module, hook string) (err error) {
	name := mod.Name()
	ctx, span := telemetry.StartHookSpan(ctx, string(name), hook)
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		if err != nil {
			err = &HookError{Module: name, Hook: hook, Err: err}
		}
		if c.metrics != nil {
			c.metrics.ObserveHook(string(name), hook, time.Since(start), err)
		}
		telemetry.EndSpan(span, err)
	}()

	logger.DebugCtx(ctx, "Running module hook", logger.KeyModule, name, logger.KeyHook, hook)
	if hook == HookStart {
		err = mod.Start(ctx, c.host)
	} else {
		err = mod.Stop(ctx, c.host)
	}
	if err == nil {
		logger.InfoCtx(ctx, "Module hook completed",
			logger.KeyModule, name, logger.KeyHook, hook,
			logger.KeyDurationMs, logger.Duration(start))
	}
	return err
}
