package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/blueline-sports/streamer-cli/internal/model"
	"github.com/blueline-sports/streamer-cli/internal/resilience"
	"github.com/blueline-sports/streamer-cli/pkg/nhl"
	"github.com/blueline-sports/streamer-cli/pkg/yahoo"
)

type fakeRoster struct {
	roster     []yahoo.Player
	freeAgents []yahoo.Player
	err        error
	faCount    int
}

func (f *fakeRoster) FetchRoster(context.Context) ([]yahoo.Player, error) {
	return f.roster, f.err
}

func (f *fakeRoster) FetchFreeAgents(_ context.Context, count int) ([]yahoo.Player, error) {
	f.faCount = count
	return f.freeAgents, f.err
}

type fakeSchedule struct {
	games map[string][]nhl.Game
	err   error
}

func (f *fakeSchedule) TeamSchedule(_ context.Context, team string, _, _ time.Time) ([]nhl.Game, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.games[team], nil
}

func TestSnapshotAssemblesRosterAndSchedule(t *testing.T) {
	roster := &fakeRoster{
		roster: []yahoo.Player{{
			ID: "p1", Name: "Cold Center", Team: "TB",
			Positions:    []string{"C"},
			SeasonPoints: 20, SeasonGames: 30,
			RecentGames: []yahoo.GamePoints{{Date: "2026-01-03", Points: 1.5}},
		}},
		freeAgents: []yahoo.Player{{
			ID: "fa1", Name: "Hot Winger", Team: "BOS", Positions: []string{"LW"},
		}},
	}
	sched := &fakeSchedule{games: map[string][]nhl.Game{
		"TBL": {{Date: "2026-01-08"}, {Date: "2026-01-06"}},
		"BOS": {{Date: "2026-01-07"}},
	}}

	f := NewFetcher(roster, sched, 25)
	snap, schedSnap, err := f.Snapshot(context.Background(), 14)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	if roster.faCount != 25 {
		t.Errorf("free-agent count = %d, want 25", roster.faCount)
	}
	if len(snap.Roster) != 1 || len(snap.FreeAgents) != 1 {
		t.Fatalf("snapshot sizes = %d/%d, want 1/1", len(snap.Roster), len(snap.FreeAgents))
	}
	if snap.Roster[0].Team != "TBL" {
		t.Errorf("team = %s, want normalized TBL", snap.Roster[0].Team)
	}
	if snap.Roster[0].Status != model.StatusOwned {
		t.Errorf("roster status = %s, want owned", snap.Roster[0].Status)
	}
	if snap.FreeAgents[0].Status != model.StatusFreeAgent {
		t.Errorf("FA status = %s, want free_agent", snap.FreeAgents[0].Status)
	}

	if len(schedSnap.Windows) != 2 {
		t.Fatalf("windows = %d, want 2 distinct teams", len(schedSnap.Windows))
	}
	// Windows sorted by team, dates sorted ascending.
	if schedSnap.Windows[0].Team != "BOS" || schedSnap.Windows[1].Team != "TBL" {
		t.Errorf("window order = %s, %s; want BOS, TBL", schedSnap.Windows[0].Team, schedSnap.Windows[1].Team)
	}
	tbl := schedSnap.Windows[1]
	if len(tbl.Dates) != 2 || !tbl.Dates[0].Before(tbl.Dates[1]) {
		t.Errorf("TBL dates not sorted ascending: %v", tbl.Dates)
	}
}

// flakyRoster fails the first rosterFailures FetchRoster calls with a
// transient error, then delegates to the wrapped fake.
type flakyRoster struct {
	fakeRoster
	rosterFailures int
	rosterCalls    int
}

func (f *flakyRoster) FetchRoster(ctx context.Context) ([]yahoo.Player, error) {
	f.rosterCalls++
	if f.rosterCalls <= f.rosterFailures {
		return nil, resilience.NewTransientError(errors.New("service unavailable"), 503)
	}
	return f.fakeRoster.FetchRoster(ctx)
}

func TestSnapshotRetriesTransientProviderFailure(t *testing.T) {
	roster := &flakyRoster{
		fakeRoster: fakeRoster{
			roster: []yahoo.Player{{ID: "p1", Name: "Anyone", Team: "BOS", Positions: []string{"C"}}},
		},
		rosterFailures: 1,
	}
	sched := &fakeSchedule{games: map[string][]nhl.Game{
		"BOS": {{Date: "2026-01-07"}},
	}}

	f := NewFetcher(roster, sched, 0)
	f.retry = resilience.RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		Multiplier:     2,
	}

	snap, _, err := f.Snapshot(context.Background(), 14)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if roster.rosterCalls != 2 {
		t.Errorf("roster calls = %d, want 2 (one retry)", roster.rosterCalls)
	}
	if len(snap.Roster) != 1 {
		t.Errorf("roster size = %d, want 1 after retry", len(snap.Roster))
	}
}

func TestSnapshotPropagatesRosterError(t *testing.T) {
	f := NewFetcher(&fakeRoster{err: errors.New("yahoo down")}, &fakeSchedule{}, 0)

	_, _, err := f.Snapshot(context.Background(), 14)
	if err == nil {
		t.Fatal("expected error when the roster provider fails")
	}
}

func TestSnapshotPropagatesScheduleError(t *testing.T) {
	roster := &fakeRoster{
		roster: []yahoo.Player{{ID: "p1", Name: "Anyone", Team: "TOR", Positions: []string{"C"}}},
	}
	f := NewFetcher(roster, &fakeSchedule{err: errors.New("nhl down")}, 0)

	_, _, err := f.Snapshot(context.Background(), 14)
	if err == nil {
		t.Fatal("expected error when the schedule provider fails")
	}
}

func TestConvertPlayerInjuryStatuses(t *testing.T) {
	cases := []struct {
		status string
		want   bool
	}{
		{"IR", true},
		{"IR-LT", true},
		{"O", true},
		{"NA", true},
		{"DTD", false},
		{"", false},
	}
	for _, tc := range cases {
		got := convertPlayer(yahoo.Player{Status: tc.status}, model.StatusOwned)
		if got.Injured != tc.want {
			t.Errorf("status %q: injured = %v, want %v", tc.status, got.Injured, tc.want)
		}
	}
}

func TestConvertPlayerDropsBadGameDate(t *testing.T) {
	p := convertPlayer(yahoo.Player{
		ID: "p1", Name: "Anyone",
		RecentGames: []yahoo.GamePoints{
			{Date: "2026-01-03", Points: 2},
			{Date: "not-a-date", Points: 3},
		},
	}, model.StatusOwned)

	if len(p.RecentGames) != 1 {
		t.Fatalf("recent games = %d, want 1 (bad date dropped)", len(p.RecentGames))
	}
	if p.RecentGames[0].FantasyPoints != 2 {
		t.Errorf("kept the wrong line: %+v", p.RecentGames[0])
	}
}
