// Package nhl is a thin client for the NHL web API, used to pull team game
// schedules within the planning horizon. Calls are rate limited client-side;
// the public API has no auth but throttles aggressive callers.
package nhl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/blueline-sports/streamer-cli/internal/resilience"
)

// Client fetches team schedules.
type Client interface {
	TeamSchedule(ctx context.Context, team string, start, end time.Time) ([]Game, error)
}

// Game is one scheduled game for a team.
type Game struct {
	Date     string `json:"gameDate"`
	Opponent string `json:"opponent"`
	Home     bool   `json:"home"`
}

// Option configures the client.
type Option func(*httpClient)

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit overrides the default request rate.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

type httpClient struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates an NHL API client.
func NewClient(baseURL string, opts ...Option) Client {
	c := &httpClient{
		baseURL: baseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(4), 1),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) TeamSchedule(ctx context.Context, team string, start, end time.Time) ([]Game, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "nhl: rate limit wait")
	}

	url := fmt.Sprintf("%s/club-schedule-season/%s/now", c.baseURL, team)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, eris.Wrap(err, "nhl: create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "nhl: send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "nhl: read response")
	}
	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("nhl: unexpected status %d: %s", resp.StatusCode, string(body))
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(err, resp.StatusCode)
		}
		return nil, err
	}

	var payload struct {
		Games []struct {
			GameDate     string `json:"gameDate"`
			HomeTeam     struct{ Abbrev string `json:"abbrev"` } `json:"homeTeam"`
			AwayTeam     struct{ Abbrev string `json:"abbrev"` } `json:"awayTeam"`
		} `json:"games"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, eris.Wrap(err, "nhl: unmarshal response")
	}

	startStr := start.Format("2006-01-02")
	endStr := end.Format("2006-01-02")

	games := make([]Game, 0, len(payload.Games))
	for _, g := range payload.Games {
		if g.GameDate < startStr || g.GameDate > endStr {
			continue
		}
		home := g.HomeTeam.Abbrev == team
		opponent := g.HomeTeam.Abbrev
		if home {
			opponent = g.AwayTeam.Abbrev
		}
		games = append(games, Game{Date: g.GameDate, Opponent: opponent, Home: home})
	}
	return games, nil
}
