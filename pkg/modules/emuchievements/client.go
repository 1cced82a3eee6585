package emuchievements

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// DefaultBaseURL is the RetroAchievements web API root.
const DefaultBaseURL = "https://retroachievements.org/API"

// DefaultTimeout bounds a single web API request.
const DefaultTimeout = 30 * time.Second

// Credentials authenticate against the RetroAchievements web API.
type Credentials struct {
	Username string
	APIKey   string
}

// Client queries RetroAchievements on behalf of a user.
type Client interface {
	GetUserRecentlyPlayedGames(ctx context.Context, creds Credentials, count *int) ([]Game, error)
	GetGameInfoAndUserProgress(ctx context.Context, creds Credentials, gameID int) (*Game, error)
}

// APIError is a non-2xx response from the web API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("retroachievements: HTTP %d: %s", e.StatusCode, e.Message)
}

// HTTPClient is the web API client.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPClient creates a client for baseURL. Zero values select the defaults.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *HTTPClient) GetUserRecentlyPlayedGames(ctx context.Context, creds Credentials, count *int) ([]Game, error) {
	params := url.Values{"u": {creds.Username}}
	if count != nil {
		params.Set("c", strconv.Itoa(*count))
	}

	var raw []recentGame
	if err := c.get(ctx, "API_GetUserRecentlyPlayedGames.php", creds, params, &raw); err != nil {
		return nil, err
	}

	games := make([]Game, 0, len(raw))
	for _, r := range raw {
		games = append(games, r.toGame())
	}
	return games, nil
}

func (c *HTTPClient) GetGameInfoAndUserProgress(ctx context.Context, creds Credentials, gameID int) (*Game, error) {
	params := url.Values{
		"u": {creds.Username},
		"g": {strconv.Itoa(gameID)},
	}

	var raw gameProgress
	if err := c.get(ctx, "API_GetGameInfoAndUserProgress.php", creds, params, &raw); err != nil {
		return nil, err
	}
	return raw.toGame()
}

// get performs an authenticated GET and decodes the JSON response.
func (c *HTTPClient) get(ctx context.Context, endpoint string, creds Credentials, params url.Values, result any) error {
	params.Set("z", creds.Username)
	params.Set("y", creds.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Wire shapes of the web API.

type recentGame struct {
	GameID                  int    `json:"GameID"`
	ConsoleID               int    `json:"ConsoleID"`
	ConsoleName             string `json:"ConsoleName"`
	Title                   string `json:"Title"`
	ImageIcon               string `json:"ImageIcon"`
	LastPlayed              string `json:"LastPlayed"`
	NumPossibleAchievements int    `json:"NumPossibleAchievements"`
	PossibleScore           int    `json:"PossibleScore"`
	NumAchieved             int    `json:"NumAchieved"`
	ScoreAchieved           int    `json:"ScoreAchieved"`
}

func (r recentGame) toGame() Game {
	return Game{
		ID:              r.GameID,
		Title:           r.Title,
		ConsoleID:       r.ConsoleID,
		ConsoleName:     r.ConsoleName,
		ImageIcon:       r.ImageIcon,
		LastPlayed:      r.LastPlayed,
		NumAchievements: r.NumPossibleAchievements,
		NumAwarded:      r.NumAchieved,
		PossibleScore:   r.PossibleScore,
		ScoreAchieved:   r.ScoreAchieved,
	}
}

type gameProgress struct {
	ID               int             `json:"ID"`
	Title            string          `json:"Title"`
	ConsoleID        int             `json:"ConsoleID"`
	ConsoleName      string          `json:"ConsoleName"`
	ImageIcon        string          `json:"ImageIcon"`
	NumAchievements  int             `json:"NumAchievements"`
	NumAwardedToUser int             `json:"NumAwardedToUser"`
	Achievements     json.RawMessage `json:"Achievements"`
}

type rawAchievement struct {
	ID           int    `json:"ID"`
	Title        string `json:"Title"`
	Description  string `json:"Description"`
	Points       int    `json:"Points"`
	BadgeName    string `json:"BadgeName"`
	DisplayOrder int    `json:"DisplayOrder"`
	DateEarned   string `json:"DateEarned"`
}

func (g gameProgress) toGame() (*Game, error) {
	game := &Game{
		ID:              g.ID,
		Title:           g.Title,
		ConsoleID:       g.ConsoleID,
		ConsoleName:     g.ConsoleName,
		ImageIcon:       g.ImageIcon,
		NumAchievements: g.NumAchievements,
		NumAwarded:      g.NumAwardedToUser,
		Achievements:    []Achievement{},
	}

	// The API encodes an empty achievement set as [] and a populated one as
	// an object keyed by achievement ID.
	trimmed := strings.TrimSpace(string(g.Achievements))
	if trimmed == "" || trimmed == "null" || trimmed == "[]" {
		return game, nil
	}

	var byID map[string]rawAchievement
	if err := json.Unmarshal(g.Achievements, &byID); err != nil {
		return nil, fmt.Errorf("failed to decode achievements: %w", err)
	}
	for _, a := range byID {
		game.Achievements = append(game.Achievements, Achievement{
			ID:           a.ID,
			Title:        a.Title,
			Description:  a.Description,
			Points:       a.Points,
			BadgeName:    a.BadgeName,
			DisplayOrder: a.DisplayOrder,
			DateEarned:   a.DateEarned,
		})
	}
	sort.Slice(game.Achievements, func(i, j int) bool {
		a, b := game.Achievements[i], game.Achievements[j]
		if a.DisplayOrder != b.DisplayOrder {
			return a.DisplayOrder < b.DisplayOrder
		}
		return a.ID < b.ID
	})
	return game, nil
}

var _ Client = (*HTTPClient)(nil)
