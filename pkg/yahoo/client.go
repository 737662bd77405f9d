// Package yahoo is a thin client for the Yahoo Fantasy API: roster and
// free-agent snapshots for one league team. OAuth token acquisition is the
// caller's concern; the client only attaches the bearer token it was given.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/blueline-sports/streamer-cli/internal/resilience"
)

// Client fetches roster state from the fantasy provider.
type Client interface {
	FetchRoster(ctx context.Context) ([]Player, error)
	FetchFreeAgents(ctx context.Context, count int) ([]Player, error)
}

// GamePoints is one game's fantasy-point tally.
type GamePoints struct {
	Date   string  `json:"date"`
	Points float64 `json:"points"`
}

// Player is the provider's view of a player.
type Player struct {
	ID           string       `json:"player_id"`
	Name         string       `json:"name"`
	Team         string       `json:"editorial_team_abbr"`
	Positions    []string     `json:"eligible_positions"`
	SeasonPoints float64      `json:"season_points"`
	SeasonGames  int          `json:"season_games"`
	RecentGames  []GamePoints `json:"recent_games"`
	Status       string       `json:"status"`
	OnIR         bool         `json:"on_ir"`
}

// Option configures the client.
type Option func(*httpClient)

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	baseURL     string
	accessToken string
	leagueKey   string
	teamKey     string
	http        *http.Client
}

// NewClient creates a Yahoo Fantasy API client for one league team.
func NewClient(baseURL, accessToken, leagueKey, teamKey string, opts ...Option) Client {
	c := &httpClient{
		baseURL:     baseURL,
		accessToken: accessToken,
		leagueKey:   leagueKey,
		teamKey:     teamKey,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) FetchRoster(ctx context.Context) ([]Player, error) {
	url := fmt.Sprintf("%s/team/%s/roster/players/stats?format=json", c.baseURL, c.teamKey)
	var out struct {
		Players []Player `json:"players"`
	}
	if err := c.get(ctx, url, &out); err != nil {
		return nil, eris.Wrap(err, "yahoo: fetch roster")
	}
	return out.Players, nil
}

func (c *httpClient) FetchFreeAgents(ctx context.Context, count int) ([]Player, error) {
	url := fmt.Sprintf("%s/league/%s/players;status=FA;sort=PTS;count=%d/stats?format=json",
		c.baseURL, c.leagueKey, count)
	var out struct {
		Players []Player `json:"players"`
	}
	if err := c.get(ctx, url, &out); err != nil {
		return nil, eris.Wrap(err, "yahoo: fetch free agents")
	}
	return out.Players, nil
}

func (c *httpClient) get(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return eris.Wrap(err, "create request")
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "read response")
	}
	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return resilience.NewTransientError(err, resp.StatusCode)
		}
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrap(err, "unmarshal response")
	}
	return nil
}
