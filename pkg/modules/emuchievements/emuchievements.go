// Package emuchievements implements the RetroAchievements module: ROM
// hashing, account login and achievement queries for emulated games.
package emuchievements

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/emudecky/emudecky/internal/logger"
	"github.com/emudecky/emudecky/pkg/controlplane/models"
	"github.com/emudecky/emudecky/pkg/controlplane/runtime/modules"
	"github.com/emudecky/emudecky/pkg/controlplane/settings"
)

// Settings keys owned by this module.
const (
	KeyUsername = "username"
	KeyAPIKey   = "api_key"
	KeyHidden   = "hidden"
)

var (
	// ErrNotLoggedIn is returned by queries made without stored credentials.
	ErrNotLoggedIn = errors.New("not logged in to RetroAchievements")

	// ErrInvalidCredentials is returned when Login receives an empty field.
	ErrInvalidCredentials = errors.New("username and API key are required")
)

// Game is a game with the user's achievement progress.
type Game struct {
	ID              int           `json:"id"`
	Title           string        `json:"title"`
	ConsoleID       int           `json:"console_id"`
	ConsoleName     string        `json:"console_name"`
	ImageIcon       string        `json:"image_icon,omitempty"`
	LastPlayed      string        `json:"last_played,omitempty"`
	NumAchievements int           `json:"num_achievements"`
	NumAwarded      int           `json:"num_awarded"`
	PossibleScore   int           `json:"possible_score,omitempty"`
	ScoreAchieved   int           `json:"score_achieved,omitempty"`
	Achievements    []Achievement `json:"achievements,omitempty"`
}

// Achievement is one achievement of a game. DateEarned is empty while locked.
type Achievement struct {
	ID           int    `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Points       int    `json:"points"`
	BadgeName    string `json:"badge_name"`
	DisplayOrder int    `json:"display_order"`
	DateEarned   string `json:"date_earned,omitempty"`
}

// Earned reports whether the user unlocked the achievement.
func (a Achievement) Earned() bool {
	return a.DateEarned != ""
}

// Module is the Emuchievements feature module.
type Module struct {
	client Client
}

// New creates the module backed by client.
func New(client Client) *Module {
	return &Module{client: client}
}

func (m *Module) Name() models.ModuleName {
	return models.ModuleEmuchievements
}

func (m *Module) Start(ctx context.Context, host *modules.Host) error {
	creds, err := m.credentials(ctx, host)
	if err != nil && !errors.Is(err, ErrNotLoggedIn) {
		return err
	}
	logger.InfoCtx(ctx, "Emuchievements started",
		"logged_in", err == nil,
		logger.KeyUsername, creds.Username)
	return nil
}

func (m *Module) Stop(ctx context.Context, _ *modules.Host) error {
	logger.DebugCtx(ctx, "Emuchievements stopped")
	return nil
}

// Hash returns the hex MD5 digest of the file at path.
func (m *Module) Hash(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}
	sum := hex.EncodeToString(h.Sum(nil))
	logger.DebugCtx(ctx, "Hashed ROM", logger.KeyPath, path, "md5", sum)
	return sum, nil
}

// Login stores the credentials durably.
func (m *Module) Login(ctx context.Context, host *modules.Host, username, apiKey string) error {
	username = strings.TrimSpace(username)
	apiKey = strings.TrimSpace(apiKey)
	if username == "" || apiKey == "" {
		return ErrInvalidCredentials
	}
	if err := host.Settings.Persist(ctx, KeyUsername, username); err != nil {
		return err
	}
	if err := host.Settings.Persist(ctx, KeyAPIKey, apiKey); err != nil {
		return err
	}
	logger.InfoCtx(ctx, "RetroAchievements login stored", logger.KeyUsername, username)
	return nil
}

// IsLogin reports whether credentials are stored.
func (m *Module) IsLogin(ctx context.Context, host *modules.Host) (bool, error) {
	_, err := m.credentials(ctx, host)
	if errors.Is(err, ErrNotLoggedIn) {
		return false, nil
	}
	return err == nil, err
}

// Hidden stores whether locked achievements are hidden.
func (m *Module) Hidden(ctx context.Context, host *modules.Host, hidden bool) error {
	return host.Settings.Persist(ctx, KeyHidden, hidden)
}

// IsHidden reports whether locked achievements are hidden. Defaults to false.
func (m *Module) IsHidden(ctx context.Context, host *modules.Host) (bool, error) {
	return settings.Get(ctx, host.Settings, KeyHidden, false)
}

// GetUserRecentlyPlayedGames lists the user's recently played games. A nil
// count leaves the page size to the web API.
func (m *Module) GetUserRecentlyPlayedGames(ctx context.Context, host *modules.Host, count *int) ([]Game, error) {
	if count != nil && *count < 0 {
		return nil, fmt.Errorf("count must not be negative, got %d", *count)
	}
	creds, err := m.credentials(ctx, host)
	if err != nil {
		return nil, err
	}
	return m.client.GetUserRecentlyPlayedGames(ctx, creds, count)
}

// GetGameInfoAndUserProgress returns one game with the user's progress.
func (m *Module) GetGameInfoAndUserProgress(ctx context.Context, host *modules.Host, gameID int) (*Game, error) {
	creds, err := m.credentials(ctx, host)
	if err != nil {
		return nil, err
	}
	return m.client.GetGameInfoAndUserProgress(ctx, creds, gameID)
}

func (m *Module) credentials(ctx context.Context, host *modules.Host) (Credentials, error) {
	username, err := settings.Get(ctx, host.Settings, KeyUsername, "")
	if err != nil {
		return Credentials{}, err
	}
	apiKey, err := settings.Get(ctx, host.Settings, KeyAPIKey, "")
	if err != nil {
		return Credentials{}, err
	}
	if username == "" || apiKey == "" {
		return Credentials{Username: username}, ErrNotLoggedIn
	}
	return Credentials{Username: username, APIKey: apiKey}, nil
}

var _ modules.Module = (*Module)(nil)
