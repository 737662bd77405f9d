package engine

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/blueline-sports/streamer-cli/internal/model"
	"github.com/blueline-sports/streamer-cli/internal/registry"
	"github.com/blueline-sports/streamer-cli/internal/resilience"
)

func synthesisInput() SynthesisInput {
	drop := makePlayer("d1", "Cold Center", "TOR", []model.Position{model.PositionCenter}, []float64{0, 0, 0}, 10, 20)
	add := hotFA("a1", "Hot Center", "BOS", model.PositionCenter, 2.0)

	return SynthesisInput{
		Snapshot: model.RosterSnapshot{
			Roster:     []model.Player{drop},
			FreeAgents: []model.Player{add},
		},
		Assessments: []model.DroppabilityAssessment{
			{PlayerID: "d1", PlayerName: "Cold Center", Confidence: 0.7, Rationale: "cold"},
		},
		Plan: model.StreamingPlan{
			Entries: []model.PlanEntry{{
				Date:               day(6),
				DropPlayerID:       "d1",
				DropPlayerName:     "Cold Center",
				AddPlayerID:        "a1",
				AddPlayerName:      "Hot Center",
				ExpectedValueDelta: 4.0,
			}},
			TotalGain: 4.0,
		},
	}
}

func TestSynthesizeProducesHashedRecommendation(t *testing.T) {
	s := NewSynthesizer(nil, registry.DefaultPrompts())

	rec, err := s.Synthesize(context.Background(), synthesisInput())
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if rec.ContentHash == "" {
		t.Error("content hash not set")
	}
	if rec.HistoricalCaveats == nil {
		t.Error("caveats must be non-nil")
	}
	if !strings.Contains(rec.Summary, "Hot Center") {
		t.Errorf("summary missing first move: %s", rec.Summary)
	}
}

func TestSynthesizeIdempotentHash(t *testing.T) {
	s := NewSynthesizer(nil, registry.DefaultPrompts())

	a, err := s.Synthesize(context.Background(), synthesisInput())
	if err != nil {
		t.Fatalf("first Synthesize: %v", err)
	}
	b, err := s.Synthesize(context.Background(), synthesisInput())
	if err != nil {
		t.Fatalf("second Synthesize: %v", err)
	}
	if a.ContentHash != b.ContentHash {
		t.Errorf("hashes differ for identical input: %s vs %s", a.ContentHash, b.ContentHash)
	}

	// A changed plan produces a different hash.
	in := synthesisInput()
	in.Plan.Entries[0].ExpectedValueDelta = 5.0
	c, err := s.Synthesize(context.Background(), in)
	if err != nil {
		t.Fatalf("third Synthesize: %v", err)
	}
	if c.ContentHash == a.ContentHash {
		t.Error("hash unchanged after plan change")
	}
}

func TestSynthesizeConsistencyViolations(t *testing.T) {
	s := NewSynthesizer(nil, registry.DefaultPrompts())

	unassessed := synthesisInput()
	unassessed.Assessments = nil
	if _, err := s.Synthesize(context.Background(), unassessed); !resilience.IsConsistency(err) {
		t.Errorf("unassessed drop: err = %v, want ConsistencyError", err)
	}

	phantomAdd := synthesisInput()
	phantomAdd.Snapshot.FreeAgents = nil
	if _, err := s.Synthesize(context.Background(), phantomAdd); !resilience.IsConsistency(err) {
		t.Errorf("phantom add: err = %v, want ConsistencyError", err)
	}
}

func TestSynthesizeCaveatsFromBadOutcomes(t *testing.T) {
	s := NewSynthesizer(nil, registry.DefaultPrompts())

	in := synthesisInput()
	in.History = []model.HistoricalRecord{
		{
			ID: "h1", Timestamp: time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC),
			Players: []string{"Cold Center"}, Decision: "dropped Cold Center",
			Outcome: &model.Outcome{Reversed: true, Positive: false, Note: "scored a hat trick next night"},
		},
		{
			// Good outcome, no caveat.
			ID: "h2", Timestamp: time.Date(2025, 12, 8, 0, 0, 0, 0, time.UTC),
			Players: []string{"Hot Center"}, Decision: "added Hot Center",
			Outcome: &model.Outcome{Reversed: false, Positive: true},
		},
		{
			// Bad outcome but unrelated player.
			ID: "h3", Timestamp: time.Date(2025, 12, 15, 0, 0, 0, 0, time.UTC),
			Players: []string{"Someone Else"}, Decision: "dropped Someone Else",
			Outcome: &model.Outcome{Reversed: true, Positive: false},
		},
	}

	rec, err := s.Synthesize(context.Background(), in)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if len(rec.HistoricalCaveats) != 1 {
		t.Fatalf("got %d caveats, want 1: %v", len(rec.HistoricalCaveats), rec.HistoricalCaveats)
	}
	if !strings.Contains(rec.HistoricalCaveats[0], "Cold Center") {
		t.Errorf("caveat missing player: %s", rec.HistoricalCaveats[0])
	}
	if !strings.Contains(rec.HistoricalCaveats[0], "hat trick") {
		t.Errorf("caveat missing note: %s", rec.HistoricalCaveats[0])
	}
}

func TestSynthesizeDegradedNoted(t *testing.T) {
	s := NewSynthesizer(nil, registry.DefaultPrompts())

	in := synthesisInput()
	in.Degraded = true
	rec, err := s.Synthesize(context.Background(), in)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if !rec.Degraded {
		t.Error("degraded flag not carried")
	}
	if !strings.Contains(rec.Summary, "unavailable") {
		t.Errorf("summary does not note degradation: %s", rec.Summary)
	}
}

func TestSynthesizePolishFailureKeepsHeuristicSummary(t *testing.T) {
	r := &stubReasoner{response: "garbage, no json"}
	s := NewSynthesizer(r, registry.DefaultPrompts())

	rec, err := s.Synthesize(context.Background(), synthesisInput())
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if rec.Summary == "" {
		t.Error("heuristic summary lost after polish failure")
	}
}

func TestSynthesizePolishedSummaryUsed(t *testing.T) {
	r := &stubReasoner{response: `{"summary": "Stream Hot Center in for the three-game week."}`}
	s := NewSynthesizer(r, registry.DefaultPrompts())

	rec, err := s.Synthesize(context.Background(), synthesisInput())
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if rec.Summary != "Stream Hot Center in for the three-game week." {
		t.Errorf("summary = %q, want polished text", rec.Summary)
	}
}
