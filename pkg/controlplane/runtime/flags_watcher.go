package runtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/emudecky/emudecky/internal/logger"
	"github.com/emudecky/emudecky/pkg/controlplane/models"
	"github.com/emudecky/emudecky/pkg/controlplane/store"
	"github.com/emudecky/emudecky/pkg/metrics"
)

// DefaultPollInterval is the default interval for polling the store for flag changes.
const DefaultPollInterval = 10 * time.Second

// FlagsWatcher polls the durable module flags and reports when they differ
// from the flags the running modules were started with. Module changes only
// take effect on the next start, so a divergence means a restart is required.
//
// The watcher never touches the registry.
type FlagsWatcher struct {
	mu        sync.RWMutex
	store     store.Store
	namespace string
	baseline  func() models.ModuleFlags
	metrics   metrics.LifecycleMetrics

	durable         models.ModuleFlags
	restartRequired bool

	pollInterval time.Duration
	startOnce    sync.Once
	started      bool
	stopCh       chan struct{}
	stopped      chan struct{} // closed when polling goroutine exits
}

// NewFlagsWatcher creates a watcher comparing the durable "modules" value of
// namespace against baseline. A nil baseline result means nothing is running
// yet and no comparison is made. If pollInterval is 0, DefaultPollInterval is used.
func NewFlagsWatcher(s store.Store, namespace string, baseline func() models.ModuleFlags, pollInterval time.Duration) *FlagsWatcher {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	return &FlagsWatcher{
		store:        s,
		namespace:    namespace,
		baseline:     baseline,
		pollInterval: pollInterval,
		stopCh:       make(chan struct{}),
		stopped:      make(chan struct{}),
	}
}

// SetMetrics attaches the restart-required gauge. Must be called before Start.
func (w *FlagsWatcher) SetMetrics(m metrics.LifecycleMetrics) {
	w.metrics = m
}

// Start begins the background polling goroutine. It runs until Stop is
// called or ctx is cancelled.
func (w *FlagsWatcher) Start(ctx context.Context) {
	w.startOnce.Do(func() {
		w.mu.Lock()
		w.started = true
		w.mu.Unlock()

		go func() {
			defer close(w.stopped)

			ticker := time.NewTicker(w.pollInterval)
			defer ticker.Stop()

			logger.Info("Flags watcher started", "poll_interval", w.pollInterval)

			for {
				select {
				case <-ctx.Done():
					logger.Debug("Flags watcher stopping (context cancelled)")
					return
				case <-w.stopCh:
					logger.Debug("Flags watcher stopping (stop signal)")
					return
				case <-ticker.C:
					if err := w.Poll(ctx); err != nil {
						logger.Warn("Flags watcher: poll failed", logger.KeyError, err)
					}
				}
			}
		}()
	})
}

// Stop signals the polling goroutine to stop and waits for it to exit.
func (w *FlagsWatcher) Stop() {
	select {
	case <-w.stopCh:
		return
	default:
		close(w.stopCh)
	}

	w.mu.RLock()
	started := w.started
	w.mu.RUnlock()
	if started {
		<-w.stopped
	}
	logger.Debug("Flags watcher stopped")
}

// Poll reads the durable flags once and updates the restart-required state.
func (w *FlagsWatcher) Poll(ctx context.Context) error {
	raw, err := w.store.GetSetting(ctx, w.namespace, models.ModulesSettingKey)
	if errors.Is(err, models.ErrSettingNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	var durable models.ModuleFlags
	if err := json.Unmarshal([]byte(raw), &durable); err != nil {
		return fmt.Errorf("malformed %q setting: %w", models.ModulesSettingKey, err)
	}
	durable = durable.Normalize()

	running := w.baseline()

	w.mu.Lock()
	w.durable = durable
	if running == nil {
		w.mu.Unlock()
		return nil
	}
	diverged := !durable.Equal(running.Normalize())
	changed := diverged != w.restartRequired
	w.restartRequired = diverged
	w.mu.Unlock()

	if !changed {
		return nil
	}
	if w.metrics != nil {
		w.metrics.SetRestartRequired(diverged)
	}
	if diverged {
		logger.Info("Module flags changed, restart required to apply",
			"running", running, "persisted", durable)
	} else {
		logger.Info("Persisted module flags match running modules again")
	}
	return nil
}

// RestartRequired reports whether the durable flags differ from the running set.
func (w *FlagsWatcher) RestartRequired() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.restartRequired
}

// Durable returns the flags seen by the last successful poll, or nil.
func (w *FlagsWatcher) Durable() models.ModuleFlags {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.durable.Clone()
}
