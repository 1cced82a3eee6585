// Package steamlesstimes implements the SteamlessTimes module, which tracks
// playtime for non-Steam shortcuts from the client's app lifetime events.
//
// Sessions open when a game launches and close when its lifetime notification
// reports it stopped. Time spent suspended is excluded. Accumulated minutes
// live in the settings working set under "playtimes" and are persisted when
// the module stops.
package steamlesstimes

import (
	"context"
	"fmt"
	"maps"
	"strconv"
	"sync"
	"time"

	"github.com/emudecky/emudecky/internal/logger"
	"github.com/emudecky/emudecky/pkg/controlplane/models"
	"github.com/emudecky/emudecky/pkg/controlplane/runtime/modules"
	"github.com/emudecky/emudecky/pkg/controlplane/settings"
)

// KeyPlaytimes is the settings key holding minutes played per game ID.
const KeyPlaytimes = "playtimes"

// ActionLaunch is the game-start action that opens a session.
const ActionLaunch = "LaunchApp"

// Playtimes maps game IDs to minutes played.
type Playtimes map[string]float64

// LifetimeNotification is the client's app lifetime event.
type LifetimeNotification struct {
	AppID      uint32 `json:"unAppID"`
	InstanceID int    `json:"nInstanceID"`
	Running    bool   `json:"bRunning"`
}

// GameID returns the app ID in the form used as playtime key.
func (n LifetimeNotification) GameID() string {
	return strconv.FormatUint(uint64(n.AppID), 10)
}

// Module is the SteamlessTimes feature module.
type Module struct {
	now func() time.Time

	mu          sync.Mutex
	sessions    map[string]time.Time
	suspendedAt time.Time
}

// Option configures a Module.
type Option func(*Module)

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) Option {
	return func(m *Module) {
		m.now = now
	}
}

func New(opts ...Option) *Module {
	m := &Module{
		now:      time.Now,
		sessions: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Module) Name() models.ModuleName {
	return models.ModuleSteamlessTimes
}

func (m *Module) Start(ctx context.Context, host *modules.Host) error {
	times, err := m.GetPlaytimes(ctx, host)
	if err != nil {
		return err
	}
	logger.InfoCtx(ctx, "SteamlessTimes started", "tracked_games", len(times))
	return nil
}

// Stop closes open sessions and persists the accumulated playtimes.
func (m *Module) Stop(ctx context.Context, host *modules.Host) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	times, err := m.load(ctx, host)
	if err != nil {
		return err
	}
	now := m.now()
	for gameID, started := range m.sessions {
		times[gameID] += m.elapsed(started, now)
	}
	m.sessions = make(map[string]time.Time)
	m.suspendedAt = time.Time{}

	if err := host.Settings.Persist(ctx, KeyPlaytimes, times); err != nil {
		return fmt.Errorf("failed to persist playtimes: %w", err)
	}
	logger.InfoCtx(ctx, "SteamlessTimes stopped", "tracked_games", len(times))
	return nil
}

// OnLifetimeCallback closes the session of an app that stopped running.
func (m *Module) OnLifetimeCallback(ctx context.Context, host *modules.Host, n LifetimeNotification) error {
	gameID := n.GameID()

	m.mu.Lock()
	defer m.mu.Unlock()

	if n.Running {
		if _, open := m.sessions[gameID]; !open {
			m.sessions[gameID] = m.now()
		}
		return nil
	}

	started, open := m.sessions[gameID]
	if !open {
		logger.DebugCtx(ctx, "Lifetime end without session", logger.KeyGameID, gameID)
		return nil
	}
	delete(m.sessions, gameID)

	minutes := m.elapsed(started, m.now())
	times, err := m.load(ctx, host)
	if err != nil {
		return err
	}
	times[gameID] += minutes
	if err := host.Settings.Set(ctx, KeyPlaytimes, times); err != nil {
		return err
	}
	logger.InfoCtx(ctx, "Session recorded",
		logger.KeyGameID, gameID,
		"minutes", minutes,
		"total_minutes", times[gameID])
	return nil
}

// OnGameStartCallback opens a session when a game launches.
func (m *Module) OnGameStartCallback(ctx context.Context, _ *modules.Host, _ int, gameID, action string) error {
	if action != ActionLaunch {
		logger.DebugCtx(ctx, "Ignoring game action", logger.KeyGameID, gameID, "action", action)
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, open := m.sessions[gameID]; open {
		logger.DebugCtx(ctx, "Session already open", logger.KeyGameID, gameID)
		return nil
	}
	m.sessions[gameID] = m.now()
	logger.DebugCtx(ctx, "Session opened", logger.KeyGameID, gameID)
	return nil
}

// OnSuspendCallback marks the device suspended.
func (m *Module) OnSuspendCallback(ctx context.Context, _ *modules.Host) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.suspendedAt.IsZero() {
		m.suspendedAt = m.now()
	}
	logger.DebugCtx(ctx, "Suspended", "open_sessions", len(m.sessions))
	return nil
}

// OnResumeCallback shifts open sessions past the suspended interval.
func (m *Module) OnResumeCallback(ctx context.Context, _ *modules.Host) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.suspendedAt.IsZero() {
		return nil
	}
	now := m.now()
	slept := now.Sub(m.suspendedAt)
	for gameID, started := range m.sessions {
		shifted := started.Add(slept)
		if shifted.After(now) {
			shifted = now
		}
		m.sessions[gameID] = shifted
	}
	m.suspendedAt = time.Time{}
	logger.DebugCtx(ctx, "Resumed", "suspended_ms", slept.Milliseconds())
	return nil
}

// GetPlaytimes returns the recorded minutes per game. Open sessions are not
// included until they close.
func (m *Module) GetPlaytimes(ctx context.Context, host *modules.Host) (Playtimes, error) {
	return m.load(ctx, host)
}

// ResetPlaytime forgets the recorded time of gameID. An open session for the
// game restarts from now.
func (m *Module) ResetPlaytime(ctx context.Context, host *modules.Host, gameID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	times, err := m.load(ctx, host)
	if err != nil {
		return err
	}
	delete(times, gameID)
	if _, open := m.sessions[gameID]; open {
		m.sessions[gameID] = m.now()
	}
	if err := host.Settings.Set(ctx, KeyPlaytimes, times); err != nil {
		return err
	}
	logger.InfoCtx(ctx, "Playtime reset", logger.KeyGameID, gameID)
	return nil
}

func (m *Module) load(ctx context.Context, host *modules.Host) (Playtimes, error) {
	times, err := settings.Get(ctx, host.Settings, KeyPlaytimes, Playtimes{})
	if err != nil {
		return nil, err
	}
	if times == nil {
		return Playtimes{}, nil
	}
	return maps.Clone(times), nil
}

// elapsed returns the minutes between started and now, excluding a
// suspension still in progress.
func (m *Module) elapsed(started, now time.Time) float64 {
	end := now
	if !m.suspendedAt.IsZero() && m.suspendedAt.Before(end) {
		end = m.suspendedAt
	}
	if end.Before(started) {
		return 0
	}
	return end.Sub(started).Minutes()
}

var _ modules.Module = (*Module)(nil)
