// Package ingest builds the immutable per-run snapshots: the roster and
// free-agent pool from the fantasy provider and the schedule windows from the
// NHL API. The engine never talks to providers directly.
package ingest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/blueline-sports/streamer-cli/internal/mapper"
	"github.com/blueline-sports/streamer-cli/internal/model"
	"github.com/blueline-sports/streamer-cli/internal/resilience"
	"github.com/blueline-sports/streamer-cli/pkg/nhl"
	"github.com/blueline-sports/streamer-cli/pkg/yahoo"
)

// defaultFreeAgentCount bounds the free-agent pool requested per run.
const defaultFreeAgentCount = 50

// Fetcher assembles run snapshots from the two providers. Provider calls are
// retried on transient failures under the injected retry configuration.
type Fetcher struct {
	roster   yahoo.Client
	schedule nhl.Client
	faCount  int
	retry    resilience.RetryConfig
}

// NewFetcher creates a snapshot fetcher. faCount <= 0 uses the default pool
// size.
func NewFetcher(roster yahoo.Client, schedule nhl.Client, faCount int) *Fetcher {
	if faCount <= 0 {
		faCount = defaultFreeAgentCount
	}
	return &Fetcher{
		roster:   roster,
		schedule: schedule,
		faCount:  faCount,
		retry:    resilience.DefaultRetryConfig(),
	}
}

// retryFor returns the fetcher's retry configuration with per-operation
// logging attached.
func (f *Fetcher) retryFor(service, operation string) resilience.RetryConfig {
	cfg := f.retry
	cfg.OnRetry = resilience.RetryLogger(service, operation)
	return cfg
}

// Snapshot fetches the roster, free agents and all needed team schedules for
// one run. The schedule covers [now, now+horizonDays].
func (f *Fetcher) Snapshot(ctx context.Context, horizonDays int) (model.RosterSnapshot, model.ScheduleSnapshot, error) {
	var rosterPlayers, freeAgents []yahoo.Player

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rosterPlayers, err = resilience.DoVal(gctx, f.retryFor("yahoo", "fetch_roster"),
			func(ctx context.Context) ([]yahoo.Player, error) {
				return f.roster.FetchRoster(ctx)
			})
		return err
	})
	g.Go(func() error {
		var err error
		freeAgents, err = resilience.DoVal(gctx, f.retryFor("yahoo", "fetch_free_agents"),
			func(ctx context.Context) ([]yahoo.Player, error) {
				return f.roster.FetchFreeAgents(ctx, f.faCount)
			})
		return err
	})
	if err := g.Wait(); err != nil {
		return model.RosterSnapshot{}, model.ScheduleSnapshot{}, eris.Wrap(err, "ingest: fetch roster state")
	}

	snap := model.RosterSnapshot{
		Roster:     convertPlayers(rosterPlayers, model.StatusOwned),
		FreeAgents: convertPlayers(freeAgents, model.StatusFreeAgent),
		FetchedAt:  time.Now().UTC(),
	}

	start := snap.FetchedAt.Truncate(24 * time.Hour)
	end := start.AddDate(0, 0, horizonDays)
	sched, err := f.fetchSchedules(ctx, snap, start, end)
	if err != nil {
		return model.RosterSnapshot{}, model.ScheduleSnapshot{}, err
	}

	zap.L().Info("snapshot assembled",
		zap.Int("roster", len(snap.Roster)),
		zap.Int("free_agents", len(snap.FreeAgents)),
		zap.Int("teams", len(sched.Windows)))
	return snap, sched, nil
}

// fetchSchedules pulls one window per distinct team across the roster and
// free-agent pool. Fetches run concurrently; the NHL client rate-limits
// itself.
func (f *Fetcher) fetchSchedules(ctx context.Context, snap model.RosterSnapshot, start, end time.Time) (model.ScheduleSnapshot, error) {
	teams := map[string]bool{}
	for _, p := range append(append([]model.Player(nil), snap.Roster...), snap.FreeAgents...) {
		if p.Team != "" {
			teams[p.Team] = true
		}
	}

	sched := model.ScheduleSnapshot{Start: start, End: end}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for team := range teams {
		g.Go(func() error {
			games, err := resilience.DoVal(gctx, f.retryFor("nhl", "team_schedule"),
				func(ctx context.Context) ([]nhl.Game, error) {
					return f.schedule.TeamSchedule(ctx, team, start, end)
				})
			if err != nil {
				return eris.Wrapf(err, "ingest: schedule for %s", team)
			}
			win := model.ScheduleWindow{Team: team}
			for _, gm := range games {
				d, err := time.Parse("2006-01-02", gm.Date)
				if err != nil {
					return eris.Wrapf(err, "ingest: parse game date %q", gm.Date)
				}
				win.Dates = append(win.Dates, d)
			}
			sort.Slice(win.Dates, func(i, j int) bool { return win.Dates[i].Before(win.Dates[j]) })

			mu.Lock()
			sched.Windows = append(sched.Windows, win)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return model.ScheduleSnapshot{}, err
	}

	sort.Slice(sched.Windows, func(i, j int) bool { return sched.Windows[i].Team < sched.Windows[j].Team })
	return sched, nil
}

func convertPlayers(players []yahoo.Player, status model.RosterStatus) []model.Player {
	out := make([]model.Player, 0, len(players))
	for _, p := range players {
		out = append(out, convertPlayer(p, status))
	}
	return out
}

// injuredStatuses are provider status codes that exclude a player from both
// assessment and the free-agent pool.
var injuredStatuses = map[string]bool{
	"IR": true, "IR-LT": true, "O": true, "DTD": false, "NA": true,
}

func convertPlayer(p yahoo.Player, status model.RosterStatus) model.Player {
	positions := make([]model.Position, 0, len(p.Positions))
	for _, pos := range p.Positions {
		positions = append(positions, model.Position(pos))
	}

	recent := make([]model.GameLine, 0, len(p.RecentGames))
	for _, g := range p.RecentGames {
		d, err := time.Parse("2006-01-02", g.Date)
		if err != nil {
			// A malformed date loses the line, not the player.
			zap.L().Warn("ingest: bad game date", zap.String("player", p.Name), zap.String("date", g.Date))
			continue
		}
		recent = append(recent, model.GameLine{Date: d, FantasyPoints: g.Points})
	}

	return model.Player{
		ID:           p.ID,
		Name:         p.Name,
		Team:         mapper.NormalizeTeam(p.Team),
		Positions:    positions,
		RecentGames:  recent,
		SeasonPoints: p.SeasonPoints,
		SeasonGames:  p.SeasonGames,
		Status:       status,
		Injured:      injuredStatuses[p.Status],
		OnIR:         p.OnIR,
	}
}
