package nhl

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/blueline-sports/streamer-cli/internal/resilience"
)

const scheduleBody = `{
	"games": [
		{"gameDate": "2026-01-04", "homeTeam": {"abbrev": "BOS"}, "awayTeam": {"abbrev": "TOR"}},
		{"gameDate": "2026-01-06", "homeTeam": {"abbrev": "BOS"}, "awayTeam": {"abbrev": "MTL"}},
		{"gameDate": "2026-01-08", "homeTeam": {"abbrev": "NYR"}, "awayTeam": {"abbrev": "BOS"}},
		{"gameDate": "2026-02-01", "homeTeam": {"abbrev": "BOS"}, "awayTeam": {"abbrev": "DET"}}
	]
}`

func TestTeamScheduleFiltersHorizon(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/club-schedule-season/BOS/now" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(scheduleBody))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithRateLimit(1000))
	start := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 1, 19, 0, 0, 0, 0, time.UTC)

	games, err := c.TeamSchedule(context.Background(), "BOS", start, end)
	if err != nil {
		t.Fatalf("TeamSchedule: %v", err)
	}
	if len(games) != 2 {
		t.Fatalf("games = %d, want 2 within horizon", len(games))
	}
	if games[0].Date != "2026-01-06" || !games[0].Home || games[0].Opponent != "MTL" {
		t.Errorf("first game = %+v", games[0])
	}
	if games[1].Date != "2026-01-08" || games[1].Home || games[1].Opponent != "NYR" {
		t.Errorf("second game = %+v", games[1])
	}
}

func TestTeamScheduleNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "throttled", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithRateLimit(1000))
	_, err := c.TeamSchedule(context.Background(), "BOS", time.Now(), time.Now().AddDate(0, 0, 14))
	if err == nil {
		t.Fatal("expected error on 429")
	}
	if !resilience.IsTransient(err) {
		t.Fatalf("err = %v, want transient classification on 429", err)
	}
}

func TestTeamScheduleNotFoundIsPermanent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unknown club", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithRateLimit(1000))
	_, err := c.TeamSchedule(context.Background(), "XXX", time.Now(), time.Now().AddDate(0, 0, 14))
	if err == nil {
		t.Fatal("expected error on 404")
	}
	if resilience.IsTransient(err) {
		t.Error("404 must not be classified transient")
	}
}
