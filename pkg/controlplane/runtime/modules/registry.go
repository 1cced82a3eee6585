package modules

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/emudecky/emudecky/internal/logger"
	"github.com/emudecky/emudecky/pkg/controlplane/models"
)

// Backing is the settings surface the registry reads from and persists into.
// *settings.Manager implements it.
type Backing interface {
	GetRaw(ctx context.Context, key string) (json.RawMessage, bool, error)
	Set(ctx context.Context, key string, value any) error
	Persist(ctx context.Context, key string, value any) error
}

// Registry holds the module enablement flags.
//
// There is a single writer (the coordinator during Load, or an explicit Set);
// any number of goroutines may call Get concurrently, including before the
// first value is installed.
type Registry struct {
	backing Backing

	mu    sync.RWMutex
	flags models.ModuleFlags
	// synced is the value last read from or written to the working set.
	synced models.ModuleFlags

	ready     chan struct{}
	readyOnce sync.Once
}

// NewRegistry creates an uninitialized registry.
func NewRegistry(backing Backing) *Registry {
	return &Registry{
		backing: backing,
		ready:   make(chan struct{}),
	}
}

// Get blocks until the registry is initialized and returns a copy of the flags.
// There is no timeout: a caller that arrives before Load or Set waits until
// one of them runs.
func (r *Registry) Get() models.ModuleFlags {
	<-r.ready
	return r.current()
}

// GetContext is Get bounded by ctx.
func (r *Registry) GetContext(ctx context.Context) (models.ModuleFlags, error) {
	select {
	case <-r.ready:
		return r.current(), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Ready reports whether a value has been installed.
func (r *Registry) Ready() bool {
	select {
	case <-r.ready:
		return true
	default:
		return false
	}
}

// Enabled reports whether the module is enabled, waiting for initialization.
func (r *Registry) Enabled(name models.ModuleName) bool {
	return r.Get().Enabled(name)
}

// Set replaces the whole flags map and immediately persists it under
// models.ModulesSettingKey. The in-memory value is replaced even when
// persisting fails; the error is returned to the caller.
func (r *Registry) Set(ctx context.Context, flags models.ModuleFlags) error {
	installed := r.install(flags)

	if err := r.backing.Persist(ctx, models.ModulesSettingKey, installed); err != nil {
		return fmt.Errorf("failed to persist module flags: %w", err)
	}
	r.markSynced(installed)

	logger.InfoCtx(ctx, "Module flags updated", logger.KeyFlags, installed)
	return nil
}

// Load reads the persisted flags, falling back to defaults when none are
// stored, installs them and marks the registry initialized.
func (r *Registry) Load(ctx context.Context, defaults models.ModuleFlags) (models.ModuleFlags, error) {
	raw, ok, err := r.backing.GetRaw(ctx, models.ModulesSettingKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load module flags: %w", err)
	}

	flags := defaults
	if ok {
		var persisted models.ModuleFlags
		if err := json.Unmarshal(raw, &persisted); err != nil {
			logger.WarnCtx(ctx, "Ignoring malformed module flags, using defaults",
				logger.KeyKey, models.ModulesSettingKey, logger.KeyError, err)
		} else {
			flags = persisted
			r.markSynced(persisted.Normalize())
		}
	}

	installed := r.install(flags)
	if unknown := installed.Unknown(); len(unknown) > 0 {
		logger.WarnCtx(ctx, "Ignoring unknown modules in flags", "unknown", unknown)
	}
	return installed.Clone(), nil
}

// WriteBack stores the current flags in the settings working set. The value
// becomes durable with the next settings commit.
//
// A staged value under models.ModulesSettingKey that differs from the last
// value the registry read or wrote was written through the settings working
// set directly. That value is adopted as the new flags before staging.
func (r *Registry) WriteBack(ctx context.Context) error {
	if !r.Ready() {
		return nil
	}

	raw, ok, err := r.backing.GetRaw(ctx, models.ModulesSettingKey)
	if err != nil {
		return fmt.Errorf("failed to read staged module flags: %w", err)
	}
	if ok {
		var staged models.ModuleFlags
		if err := json.Unmarshal(raw, &staged); err != nil {
			logger.WarnCtx(ctx, "Ignoring malformed staged module flags",
				logger.KeyKey, models.ModulesSettingKey, logger.KeyError, err)
		} else if synced := r.lastSynced(); synced == nil || !staged.Normalize().Equal(synced) {
			installed := r.install(staged)
			logger.InfoCtx(ctx, "Adopted staged module flags", logger.KeyFlags, installed)
		}
	}

	flags := r.current()
	if err := r.backing.Set(ctx, models.ModulesSettingKey, flags); err != nil {
		return err
	}
	r.markSynced(flags)
	return nil
}

func (r *Registry) markSynced(flags models.ModuleFlags) {
	r.mu.Lock()
	r.synced = flags.Clone()
	r.mu.Unlock()
}

func (r *Registry) lastSynced() models.ModuleFlags {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.synced
}

func (r *Registry) install(flags models.ModuleFlags) models.ModuleFlags {
	normalized := flags.Normalize()

	r.mu.Lock()
	r.flags = normalized
	r.mu.Unlock()

	r.readyOnce.Do(func() { close(r.ready) })
	return normalized.Clone()
}

func (r *Registry) current() models.ModuleFlags {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.flags.Clone()
}
