package engine

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/blueline-sports/streamer-cli/internal/config"
	"github.com/blueline-sports/streamer-cli/internal/model"
	"github.com/blueline-sports/streamer-cli/internal/resilience"
)

type stubRetriever struct {
	records []model.HistoricalRecord
	err     error
	calls   int
}

func (s *stubRetriever) Query(_ context.Context, _ string, _ int) ([]model.HistoricalRecord, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.records, nil
}

// fakeHistory implements store.Store for analyst fallback tests; only
// ReadHistory matters.
type fakeHistory struct {
	records []model.HistoricalRecord
	err     error

	appended []model.HistoricalRecord
}

func (f *fakeHistory) CreateRun(context.Context) (*model.Run, error) {
	return &model.Run{ID: "fake"}, nil
}
func (f *fakeHistory) UpdateRunStatus(context.Context, string, model.RunStatus) error { return nil }
func (f *fakeHistory) UpdateRunResult(context.Context, string, *model.RunResult) error {
	return nil
}
func (f *fakeHistory) GetRun(context.Context, string) (*model.Run, error) { return nil, nil }
func (f *fakeHistory) ListRuns(context.Context, int) ([]model.Run, error) { return nil, nil }
func (f *fakeHistory) AppendHistory(_ context.Context, rec model.HistoricalRecord) error {
	f.appended = append(f.appended, rec)
	return nil
}
func (f *fakeHistory) ReadHistory(context.Context, time.Time) ([]model.HistoricalRecord, error) {
	return f.records, f.err
}
func (f *fakeHistory) Migrate(context.Context) error { return nil }
func (f *fakeHistory) Close() error                  { return nil }

func testEngineCfg() config.EngineConfig {
	return config.EngineConfig{
		CallTimeoutSecs:  5,
		MaxRetryAttempts: 2,
		RecencyLimitDays: 120,
	}
}

func recallSnapshot() model.RosterSnapshot {
	return model.RosterSnapshot{
		Roster: []model.Player{
			makePlayer("p1", "Slumping Center", "TOR", []model.Position{model.PositionCenter}, []float64{1, 1, 1}, 40, 20),
		},
		FreeAgents: []model.Player{
			makePlayer("fa", "Hot Prospect", "BOS", []model.Position{model.PositionCenter}, []float64{2, 2, 2}, 30, 20),
		},
	}
}

func TestRecallOrdersAndLimits(t *testing.T) {
	now := time.Now().UTC()
	r := &stubRetriever{records: []model.HistoricalRecord{
		{ID: "a", Timestamp: now.AddDate(0, 0, -1), Similarity: 0.4},
		{ID: "b", Timestamp: now.AddDate(0, 0, -2), Similarity: 0.9},
		{ID: "stale", Timestamp: now.AddDate(0, 0, -300), Similarity: 0.99},
	}}
	a := NewAnalyst(r, &fakeHistory{}, testEngineCfg(), 2)

	got, err := a.Recall(context.Background(), "situation")
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2", len(got))
	}
	if got[0].ID != "b" || got[1].ID != "a" {
		t.Errorf("order = %s,%s, want b,a (stale record excluded)", got[0].ID, got[1].ID)
	}
}

func TestRecallNilRetrieverDegrades(t *testing.T) {
	a := NewAnalyst(nil, &fakeHistory{}, testEngineCfg(), 5)

	_, err := a.Recall(context.Background(), "situation")
	if !errors.Is(err, resilience.ErrDegraded) {
		t.Fatalf("err = %v, want ErrDegraded", err)
	}
}

func TestFallbackRanksByOverlap(t *testing.T) {
	now := time.Now().UTC()
	hist := &fakeHistory{records: []model.HistoricalRecord{
		{ID: "match", Timestamp: now.AddDate(0, 0, -5),
			Players: []string{"Slumping Center"}, Decision: "dropped Slumping Center during a cold stretch"},
		{ID: "unrelated", Timestamp: now.AddDate(0, 0, -5),
			Players: []string{"Someone Else"}, Decision: "held steady"},
	}}
	a := NewAnalyst(nil, hist, testEngineCfg(), 5)

	situation := a.Situation(recallSnapshot())
	got, err := a.Fallback(context.Background(), situation)
	if err != nil {
		t.Fatalf("Fallback: %v", err)
	}
	if len(got) != 1 || got[0].ID != "match" {
		t.Fatalf("got %+v, want only the overlapping record", got)
	}
	if got[0].Similarity <= 0 {
		t.Errorf("fallback similarity = %v, want > 0", got[0].Similarity)
	}
}

func TestSituationMentionsRosterAndPool(t *testing.T) {
	a := NewAnalyst(nil, &fakeHistory{}, testEngineCfg(), 5)

	s := a.Situation(recallSnapshot())
	for _, want := range []string{"Slumping Center", "Hot Prospect"} {
		if !strings.Contains(s, want) {
			t.Errorf("situation missing %q: %s", want, s)
		}
	}
}

func TestRecallCircuitOpensAfterRepeatedFailures(t *testing.T) {
	r := &stubRetriever{err: resilience.NewTransientError(resilience.ErrDegraded, 503)}
	a := NewAnalyst(r, &fakeHistory{}, testEngineCfg(), 5)

	var lastErr error
	for i := 0; i < 6; i++ {
		_, lastErr = a.Recall(context.Background(), "situation")
	}
	if !errors.Is(lastErr, resilience.ErrCircuitOpen) {
		t.Fatalf("err after repeated failures = %v, want ErrCircuitOpen", lastErr)
	}
	if r.calls >= 6 {
		t.Errorf("retriever called %d times, want breaker to short-circuit", r.calls)
	}
}
