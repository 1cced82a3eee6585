package runtime

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/emudecky/emudecky/pkg/controlplane/models"
	"github.com/emudecky/emudecky/pkg/modules/steamlesstimes"
)

// Method names accepted by Call. They match the names the frontend invokes.
const (
	MethodHash           = "Hash"
	MethodLogin          = "Login"
	MethodIsLogin        = "isLogin"
	MethodHidden         = "Hidden"
	MethodIsHidden       = "isHidden"
	MethodRecentlyPlayed = "GetUserRecentlyPlayedGames"
	MethodGameProgress   = "GetGameInfoAndUserProgress"

	MethodOnLifetime    = "on_lifetime_callback"
	MethodOnGameStart   = "on_game_start_callback"
	MethodOnSuspend     = "on_suspend_callback"
	MethodOnResume      = "on_resume_callback"
	MethodGetPlaytimes  = "get_playtimes"
	MethodResetPlaytime = "reset_playtime"

	MethodGetModules = "get_modules"
	MethodSetModules = "set_modules"
)

var (
	// ErrUnknownMethod is returned by Call for a name not in the dispatch table.
	ErrUnknownMethod = errors.New("unknown method")

	// ErrInvalidArguments is returned by Call when the arguments do not decode.
	ErrInvalidArguments = errors.New("invalid arguments")
)

type callHandler func(ctx context.Context, r *Runtime, args json.RawMessage) (any, error)

var callTable = map[string]callHandler{
	MethodHash: func(ctx context.Context, r *Runtime, raw json.RawMessage) (any, error) {
		var args struct {
			Path string `json:"path"`
		}
		if err := decodeArgs(raw, &args); err != nil {
			return nil, err
		}
		return r.Hash(ctx, args.Path)
	},
	MethodLogin: func(ctx context.Context, r *Runtime, raw json.RawMessage) (any, error) {
		var args struct {
			Username string `json:"username"`
			APIKey   string `json:"api_key"`
		}
		if err := decodeArgs(raw, &args); err != nil {
			return nil, err
		}
		return nil, r.Login(ctx, args.Username, args.APIKey)
	},
	MethodIsLogin: func(ctx context.Context, r *Runtime, _ json.RawMessage) (any, error) {
		return r.IsLogin(ctx)
	},
	MethodHidden: func(ctx context.Context, r *Runtime, raw json.RawMessage) (any, error) {
		var args struct {
			Hidden bool `json:"hidden"`
		}
		if err := decodeArgs(raw, &args); err != nil {
			return nil, err
		}
		return nil, r.Hidden(ctx, args.Hidden)
	},
	MethodIsHidden: func(ctx context.Context, r *Runtime, _ json.RawMessage) (any, error) {
		return r.IsHidden(ctx)
	},
	MethodRecentlyPlayed: func(ctx context.Context, r *Runtime, raw json.RawMessage) (any, error) {
		var args struct {
			Count *int `json:"count"`
		}
		if err := decodeArgs(raw, &args); err != nil {
			return nil, err
		}
		return r.GetUserRecentlyPlayedGames(ctx, args.Count)
	},
	MethodGameProgress: func(ctx context.Context, r *Runtime, raw json.RawMessage) (any, error) {
		var args struct {
			GameID int `json:"game_id"`
		}
		if err := decodeArgs(raw, &args); err != nil {
			return nil, err
		}
		return r.GetGameInfoAndUserProgress(ctx, args.GameID)
	},

	MethodOnLifetime: func(ctx context.Context, r *Runtime, raw json.RawMessage) (any, error) {
		var args struct {
			Data steamlesstimes.LifetimeNotification `json:"data"`
		}
		if err := decodeArgs(raw, &args); err != nil {
			return nil, err
		}
		return nil, r.OnLifetimeCallback(ctx, args.Data)
	},
	MethodOnGameStart: func(ctx context.Context, r *Runtime, raw json.RawMessage) (any, error) {
		var args struct {
			Idk    int    `json:"idk"`
			GameID string `json:"game_id"`
			Action string `json:"action"`
		}
		if err := decodeArgs(raw, &args); err != nil {
			return nil, err
		}
		return nil, r.OnGameStartCallback(ctx, args.Idk, args.GameID, args.Action)
	},
	MethodOnSuspend: func(ctx context.Context, r *Runtime, _ json.RawMessage) (any, error) {
		return nil, r.OnSuspendCallback(ctx)
	},
	MethodOnResume: func(ctx context.Context, r *Runtime, _ json.RawMessage) (any, error) {
		return nil, r.OnResumeCallback(ctx)
	},
	MethodGetPlaytimes: func(ctx context.Context, r *Runtime, _ json.RawMessage) (any, error) {
		return r.GetPlaytimes(ctx)
	},
	MethodResetPlaytime: func(ctx context.Context, r *Runtime, raw json.RawMessage) (any, error) {
		var args struct {
			GameID string `json:"game_id"`
		}
		if err := decodeArgs(raw, &args); err != nil {
			return nil, err
		}
		return nil, r.ResetPlaytime(ctx, args.GameID)
	},

	MethodGetModules: func(ctx context.Context, r *Runtime, _ json.RawMessage) (any, error) {
		return r.GetModules(ctx)
	},
	MethodSetModules: func(ctx context.Context, r *Runtime, raw json.RawMessage) (any, error) {
		var args struct {
			Modules models.ModuleFlags `json:"modules"`
		}
		if err := decodeArgs(raw, &args); err != nil {
			return nil, err
		}
		if args.Modules == nil {
			return nil, fmt.Errorf("%w: modules is required", ErrInvalidArguments)
		}
		return nil, r.SetModules(ctx, args.Modules)
	},
}

// Call invokes a method by name with JSON object arguments and returns its
// result, or nil for methods without one.
func (r *Runtime) Call(ctx context.Context, method string, args json.RawMessage) (any, error) {
	handler, ok := callTable[method]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}
	return handler(ctx, r, args)
}

// Methods returns the names accepted by Call, sorted.
func Methods() []string {
	names := make([]string, 0, len(callTable))
	for name := range callTable {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func decodeArgs(raw json.RawMessage, v any) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		raw = []byte("{}")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArguments, err)
	}
	return nil
}
