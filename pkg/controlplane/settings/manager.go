// Package settings implements the namespaced settings working set.
//
// A Manager mirrors one namespace of the durable store in memory. Reads and
// writes touch only the working set; nothing reaches the store until Commit
// flushes the pending changes, or Persist writes a single key through.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/emudecky/emudecky/internal/logger"
	"github.com/emudecky/emudecky/internal/telemetry"
	"github.com/emudecky/emudecky/pkg/controlplane/models"
	"github.com/emudecky/emudecky/pkg/controlplane/store"
	"github.com/emudecky/emudecky/pkg/metrics"
)

// DefaultNamespace is the namespace used by the host shim.
const DefaultNamespace = "emudecky"

// ErrNotLoaded is returned when a caller gives up waiting for Read.
var ErrNotLoaded = errors.New("settings not loaded")

// Manager is the in-memory working set of a settings namespace.
//
// Callers that arrive before Read has completed wait for it (bounded by their
// context) instead of observing an empty set.
type Manager struct {
	store     store.Store
	namespace string
	metrics   metrics.SettingsMetrics

	mu      sync.RWMutex
	values  map[string]json.RawMessage
	dirty   map[string]struct{}
	deleted map[string]struct{}

	loaded   chan struct{}
	loadOnce sync.Once
}

// Option configures a Manager.
type Option func(*Manager)

// WithMetrics attaches settings metrics. A nil value disables them.
func WithMetrics(m metrics.SettingsMetrics) Option {
	return func(mgr *Manager) {
		mgr.metrics = m
	}
}

// NewManager creates a Manager for namespace backed by s.
func NewManager(s store.Store, namespace string, opts ...Option) *Manager {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	m := &Manager{
		store:     s,
		namespace: namespace,
		values:    make(map[string]json.RawMessage),
		dirty:     make(map[string]struct{}),
		deleted:   make(map[string]struct{}),
		loaded:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Namespace returns the namespace this manager mirrors.
func (m *Manager) Namespace() string {
	return m.namespace
}

// Read replaces the working set with the durable contents of the namespace
// and discards pending changes. The first successful Read releases waiters.
func (m *Manager) Read(ctx context.Context) (err error) {
	ctx, span := telemetry.StartSettingsSpan(ctx, telemetry.SpanRead, m.namespace)
	defer func() { telemetry.EndSpan(span, err) }()

	m.mu.Lock()
	defer m.mu.Unlock()

	rows, err := m.store.ListSettings(ctx, m.namespace)
	if err != nil {
		return fmt.Errorf("failed to read settings %q: %w", m.namespace, err)
	}

	values := make(map[string]json.RawMessage, len(rows))
	for _, row := range rows {
		if !json.Valid([]byte(row.Value)) {
			logger.Warn("Skipping malformed setting", logger.KeyNamespace, m.namespace, logger.KeyKey, row.Key)
			continue
		}
		values[row.Key] = json.RawMessage(row.Value)
	}

	m.values = values
	m.dirty = make(map[string]struct{})
	m.deleted = make(map[string]struct{})
	m.loadOnce.Do(func() { close(m.loaded) })

	logger.Debug("Settings loaded", logger.KeyNamespace, m.namespace, logger.KeyCount, len(values))
	return nil
}

// Loaded reports whether Read has completed at least once.
func (m *Manager) Loaded() bool {
	select {
	case <-m.loaded:
		return true
	default:
		return false
	}
}

// WaitLoaded blocks until Read has completed or ctx is done.
func (m *Manager) WaitLoaded(ctx context.Context) error {
	select {
	case <-m.loaded:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrNotLoaded, ctx.Err())
	}
}

// GetRaw returns the encoded value of key and whether it is present.
func (m *Manager) GetRaw(ctx context.Context, key string) (json.RawMessage, bool, error) {
	if err := m.WaitLoaded(ctx); err != nil {
		return nil, false, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.values[key]
	if !ok {
		return nil, false, nil
	}
	return append(json.RawMessage(nil), v...), true, nil
}

// Get decodes the value of key into T, returning def when the key is absent.
// A value that cannot be decoded into T yields def and an error.
func Get[T any](ctx context.Context, m *Manager, key string, def T) (T, error) {
	raw, ok, err := m.GetRaw(ctx, key)
	if err != nil || !ok {
		return def, err
	}

	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return def, fmt.Errorf("failed to decode setting %q: %w", key, err)
	}
	return v, nil
}

// Set stores value under key in the working set. It is not durable until Commit.
func (m *Manager) Set(ctx context.Context, key string, value any) error {
	if key == "" {
		return models.ErrInvalidKey
	}
	raw, err := encode(value)
	if err != nil {
		return fmt.Errorf("failed to encode setting %q: %w", key, err)
	}
	if err := m.WaitLoaded(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[key] = raw
	m.dirty[key] = struct{}{}
	delete(m.deleted, key)
	return nil
}

// Delete removes key from the working set. The removal is flushed by Commit.
func (m *Manager) Delete(ctx context.Context, key string) error {
	if err := m.WaitLoaded(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.values[key]; !ok {
		return models.ErrSettingNotFound
	}
	delete(m.values, key)
	delete(m.dirty, key)
	m.deleted[key] = struct{}{}
	return nil
}

// Keys returns the keys of the working set, sorted.
func (m *Manager) Keys(ctx context.Context) ([]string, error) {
	if err := m.WaitLoaded(ctx); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.values))
	for k := range m.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Snapshot returns a copy of the working set.
func (m *Manager) Snapshot(ctx context.Context) (map[string]json.RawMessage, error) {
	if err := m.WaitLoaded(ctx); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]json.RawMessage, len(m.values))
	for k, v := range m.values {
		out[k] = append(json.RawMessage(nil), v...)
	}
	return out, nil
}

// Dirty reports whether the working set has changes not yet committed.
func (m *Manager) Dirty() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.dirty) > 0 || len(m.deleted) > 0
}

// Commit flushes pending changes to the store in one batch. On failure the
// changes stay pending and a later Commit retries them.
func (m *Manager) Commit(ctx context.Context) error {
	if err := m.WaitLoaded(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	upserts := make(map[string]string, len(m.dirty))
	for k := range m.dirty {
		upserts[k] = string(m.values[k])
	}
	deletes := make([]string, 0, len(m.deleted))
	for k := range m.deleted {
		deletes = append(deletes, k)
	}
	sort.Strings(deletes)

	start := time.Now()
	err := m.store.ApplySettings(ctx, m.namespace, upserts, deletes)
	if m.metrics != nil {
		m.metrics.ObserveCommit(len(upserts)+len(deletes), time.Since(start), err)
	}
	if err != nil {
		return fmt.Errorf("failed to commit settings %q: %w", m.namespace, err)
	}

	m.dirty = make(map[string]struct{})
	m.deleted = make(map[string]struct{})

	logger.Debug("Settings committed",
		logger.KeyNamespace, m.namespace,
		logger.KeyCount, len(upserts)+len(deletes),
		logger.KeyDurationMs, logger.Duration(start))
	return nil
}

// Persist writes a single key straight to the store and mirrors it into the
// working set. Other pending changes are left untouched. It does not wait for
// Read: a later Read picks the value up from the store.
func (m *Manager) Persist(ctx context.Context, key string, value any) error {
	if key == "" {
		return models.ErrInvalidKey
	}
	raw, err := encode(value)
	if err != nil {
		return fmt.Errorf("failed to encode setting %q: %w", key, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	err = m.store.SetSetting(ctx, m.namespace, key, string(raw))
	if m.metrics != nil {
		m.metrics.ObservePersist(key, err)
	}
	if err != nil {
		return fmt.Errorf("failed to persist setting %q: %w", key, err)
	}

	m.values[key] = raw
	delete(m.dirty, key)
	delete(m.deleted, key)
	return nil
}

func encode(value any) (json.RawMessage, error) {
	if raw, ok := value.(json.RawMessage); ok {
		if !json.Valid(raw) {
			return nil, fmt.Errorf("invalid JSON")
		}
		return append(json.RawMessage(nil), raw...), nil
	}
	return json.Marshal(value)
}
