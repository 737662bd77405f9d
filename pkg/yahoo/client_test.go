package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/blueline-sports/streamer-cli/internal/resilience"
)

func TestFetchRoster(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("auth header = %q", got)
		}
		if r.URL.Path != "/team/nhl.l.123.t.4/roster/players/stats" {
			t.Errorf("path = %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"players": []Player{{
				ID: "p1", Name: "Cold Center", Team: "TB",
				Positions:    []string{"C", "LW"},
				SeasonPoints: 22.5, SeasonGames: 30,
				Status: "DTD",
			}},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", "nhl.l.123", "nhl.l.123.t.4")
	players, err := c.FetchRoster(context.Background())
	if err != nil {
		t.Fatalf("FetchRoster: %v", err)
	}
	if len(players) != 1 {
		t.Fatalf("players = %d, want 1", len(players))
	}
	if players[0].Name != "Cold Center" || players[0].SeasonPoints != 22.5 {
		t.Errorf("player = %+v", players[0])
	}
}

func TestFetchFreeAgentsRequestShape(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode(map[string]any{"players": []Player{}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", "nhl.l.123", "nhl.l.123.t.4")
	if _, err := c.FetchFreeAgents(context.Background(), 50); err != nil {
		t.Fatalf("FetchFreeAgents: %v", err)
	}
	want := "/league/nhl.l.123/players;status=FA;sort=PTS;count=50/stats"
	if gotPath != want {
		t.Errorf("path = %s, want %s", gotPath, want)
	}
}

func TestFetchRosterNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "token expired", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", "lk", "tk")
	_, err := c.FetchRoster(context.Background())
	if err == nil {
		t.Fatal("expected error on 401")
	}
	if resilience.IsTransient(err) {
		t.Error("401 must not be classified transient")
	}
}

func TestFetchRosterServerErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", "lk", "tk")
	_, err := c.FetchRoster(context.Background())
	if err == nil {
		t.Fatal("expected error on 503")
	}
	if !resilience.IsTransient(err) {
		t.Fatalf("err = %v, want transient classification", err)
	}
	var transient *resilience.TransientError
	if !errors.As(err, &transient) || transient.StatusCode != 503 {
		t.Errorf("transient status = %+v, want 503", transient)
	}
}
