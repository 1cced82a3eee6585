package runtime

import (
	"context"

	"github.com/emudecky/emudecky/pkg/controlplane/models"
	"github.com/emudecky/emudecky/pkg/controlplane/runtime/lifecycle"
	"github.com/emudecky/emudecky/pkg/controlplane/runtime/modules"
	"github.com/emudecky/emudecky/pkg/modules/emuchievements"
	"github.com/emudecky/emudecky/pkg/modules/steamlesstimes"
)

// none is the result type of routed calls without a return value.
type none = struct{}

// ============================================================================
// Emuchievements
// ============================================================================

func (r *Runtime) Hash(ctx context.Context, path string) (string, error) {
	return lifecycle.Route(ctx, r.coord, models.ModuleEmuchievements, MethodHash,
		func(ctx context.Context, _ *modules.Host) (string, error) {
			return r.emuchievements.Hash(ctx, path)
		})
}

func (r *Runtime) Login(ctx context.Context, username, apiKey string) error {
	_, err := lifecycle.Route(ctx, r.coord, models.ModuleEmuchievements, MethodLogin,
		func(ctx context.Context, host *modules.Host) (none, error) {
			return none{}, r.emuchievements.Login(ctx, host, username, apiKey)
		})
	return err
}

func (r *Runtime) IsLogin(ctx context.Context) (bool, error) {
	return lifecycle.Route(ctx, r.coord, models.ModuleEmuchievements, MethodIsLogin,
		func(ctx context.Context, host *modules.Host) (bool, error) {
			return r.emuchievements.IsLogin(ctx, host)
		})
}

func (r *Runtime) Hidden(ctx context.Context, hidden bool) error {
	_, err := lifecycle.Route(ctx, r.coord, models.ModuleEmuchievements, MethodHidden,
		func(ctx context.Context, host *modules.Host) (none, error) {
			return none{}, r.emuchievements.Hidden(ctx, host, hidden)
		})
	return err
}

func (r *Runtime) IsHidden(ctx context.Context) (bool, error) {
	return lifecycle.Route(ctx, r.coord, models.ModuleEmuchievements, MethodIsHidden,
		func(ctx context.Context, host *modules.Host) (bool, error) {
			return r.emuchievements.IsHidden(ctx, host)
		})
}

func (r *Runtime) GetUserRecentlyPlayedGames(ctx context.Context, count *int) ([]emuchievements.Game, error) {
	return lifecycle.Route(ctx, r.coord, models.ModuleEmuchievements, MethodRecentlyPlayed,
		func(ctx context.Context, host *modules.Host) ([]emuchievements.Game, error) {
			return r.emuchievements.GetUserRecentlyPlayedGames(ctx, host, count)
		})
}

func (r *Runtime) GetGameInfoAndUserProgress(ctx context.Context, gameID int) (*emuchievements.Game, error) {
	return lifecycle.Route(ctx, r.coord, models.ModuleEmuchievements, MethodGameProgress,
		func(ctx context.Context, host *modules.Host) (*emuchievements.Game, error) {
			return r.emuchievements.GetGameInfoAndUserProgress(ctx, host, gameID)
		})
}

// ============================================================================
// SteamlessTimes
// ============================================================================

func (r *Runtime) OnLifetimeCallback(ctx context.Context, data steamlesstimes.LifetimeNotification) error {
	_, err := lifecycle.Route(ctx, r.coord, models.ModuleSteamlessTimes, MethodOnLifetime,
		func(ctx context.Context, host *modules.Host) (none, error) {
			return none{}, r.steamlessTimes.OnLifetimeCallback(ctx, host, data)
		})
	return err
}

func (r *Runtime) OnGameStartCallback(ctx context.Context, idk int, gameID, action string) error {
	_, err := lifecycle.Route(ctx, r.coord, models.ModuleSteamlessTimes, MethodOnGameStart,
		func(ctx context.Context, host *modules.Host) (none, error) {
			return none{}, r.steamlessTimes.OnGameStartCallback(ctx, host, idk, gameID, action)
		})
	return err
}

func (r *Runtime) OnSuspendCallback(ctx context.Context) error {
	_, err := lifecycle.Route(ctx, r.coord, models.ModuleSteamlessTimes, MethodOnSuspend,
		func(ctx context.Context, host *modules.Host) (none, error) {
			return none{}, r.steamlessTimes.OnSuspendCallback(ctx, host)
		})
	return err
}

func (r *Runtime) OnResumeCallback(ctx context.Context) error {
	_, err := lifecycle.Route(ctx, r.coord, models.ModuleSteamlessTimes, MethodOnResume,
		func(ctx context.Context, host *modules.Host) (none, error) {
			return none{}, r.steamlessTimes.OnResumeCallback(ctx, host)
		})
	return err
}

func (r *Runtime) GetPlaytimes(ctx context.Context) (steamlesstimes.Playtimes, error) {
	return lifecycle.Route(ctx, r.coord, models.ModuleSteamlessTimes, MethodGetPlaytimes,
		func(ctx context.Context, host *modules.Host) (steamlesstimes.Playtimes, error) {
			return r.steamlessTimes.GetPlaytimes(ctx, host)
		})
}

func (r *Runtime) ResetPlaytime(ctx context.Context, gameID string) error {
	_, err := lifecycle.Route(ctx, r.coord, models.ModuleSteamlessTimes, MethodResetPlaytime,
		func(ctx context.Context, host *modules.Host) (none, error) {
			return none{}, r.steamlessTimes.ResetPlaytime(ctx, host, gameID)
		})
	return err
}
