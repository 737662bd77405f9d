package engine

import (
	"testing"
	"time"

	"github.com/blueline-sports/streamer-cli/internal/model"
)

var planNow = time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC) // Monday, ISO week 2

func day(d int) time.Time {
	return time.Date(2026, 1, d, 0, 0, 0, 0, time.UTC)
}

func window(team string, days ...int) model.ScheduleWindow {
	w := model.ScheduleWindow{Team: team}
	for _, d := range days {
		w.Dates = append(w.Dates, day(d))
	}
	return w
}

// coldPlayer is a roster player with no recent production and no remaining
// games, so replacing them costs nothing.
func coldPlayer(id, name, team string, pos model.Position) model.Player {
	return makePlayer(id, name, team, []model.Position{pos}, []float64{0, 0, 0}, 10, 20)
}

func hotFA(id, name, team string, pos model.Position, ppg float64) model.Player {
	p := makePlayer(id, name, team, []model.Position{pos}, []float64{ppg, ppg, ppg}, 30, 20)
	p.Status = model.StatusFreeAgent
	return p
}

func assessAll(players ...model.Player) []model.DroppabilityAssessment {
	out := make([]model.DroppabilityAssessment, len(players))
	for i, p := range players {
		out[i] = model.DroppabilityAssessment{PlayerID: p.ID, PlayerName: p.Name, Confidence: 0.7}
	}
	return out
}

func TestPlanPicksHighestGainsWithinWeeklyLimit(t *testing.T) {
	league := testLeague()
	league.AcquisitionLimitPerWeek = 2
	p := NewPlanner(league)

	d1 := coldPlayer("d1", "Cold Center", "TOR", model.PositionCenter)
	d2 := coldPlayer("d2", "Cold Winger", "MTL", model.PositionLeftWing)
	d3 := coldPlayer("d3", "Cold Defense", "OTT", model.PositionDefense)
	a1 := hotFA("a1", "Hot Center", "BOS", model.PositionCenter, 3.0)
	a2 := hotFA("a2", "Hot Winger", "DET", model.PositionLeftWing, 2.0)
	a3 := hotFA("a3", "Hot Defense", "BUF", model.PositionDefense, 1.0)

	snap := model.RosterSnapshot{
		Roster:     []model.Player{d1, d2, d3},
		FreeAgents: []model.Player{a1, a2, a3},
	}
	sched := model.ScheduleSnapshot{
		Start: planNow, End: planNow.AddDate(0, 0, 14),
		Windows: []model.ScheduleWindow{
			window("BOS", 6, 8, 10),
			window("DET", 6, 8),
			window("BUF", 6),
		},
	}

	plan := p.Plan(snap, assessAll(d1, d2, d3), sched, planNow)

	if len(plan.Entries) != 2 {
		t.Fatalf("got %d entries, want 2 (weekly limit)", len(plan.Entries))
	}
	adds := map[string]bool{}
	for _, e := range plan.Entries {
		adds[e.AddPlayerID] = true
	}
	if !adds["a1"] || !adds["a2"] {
		t.Errorf("picked %v, want a1 and a2", adds)
	}
	// a1: 3.0 ppg x 3 games + a2: 2.0 ppg x 2 games.
	if !almostEqual(plan.TotalGain, 13.0) {
		t.Errorf("total gain = %v, want 13.0", plan.TotalGain)
	}
}

func TestPlanWeeklyLimitSpansWeeks(t *testing.T) {
	league := testLeague()
	league.AcquisitionLimitPerWeek = 1
	p := NewPlanner(league)

	d1 := coldPlayer("d1", "Cold Center", "TOR", model.PositionCenter)
	d2 := coldPlayer("d2", "Cold Winger", "MTL", model.PositionLeftWing)
	a1 := hotFA("a1", "Hot Center", "BOS", model.PositionCenter, 2.0)
	a2 := hotFA("a2", "Hot Winger", "DET", model.PositionLeftWing, 2.0)

	snap := model.RosterSnapshot{
		Roster:     []model.Player{d1, d2},
		FreeAgents: []model.Player{a1, a2},
	}
	// BOS plays in week 2, DET only in week 3: both moves fit under a
	// limit of one add per week.
	sched := model.ScheduleSnapshot{
		Start: planNow, End: planNow.AddDate(0, 0, 14),
		Windows: []model.ScheduleWindow{
			window("BOS", 6, 8),
			window("DET", 13, 15),
		},
	}

	plan := p.Plan(snap, assessAll(d1, d2), sched, planNow)

	if len(plan.Entries) != 2 {
		t.Fatalf("got %d entries, want 2 across two weeks", len(plan.Entries))
	}
	for week, adds := range plan.AddsPerWeek() {
		if adds > 1 {
			t.Errorf("week %v has %d adds, want <= 1", week, adds)
		}
	}
	// Entries ordered by date.
	if !plan.Entries[0].Date.Before(plan.Entries[1].Date) {
		t.Errorf("entries not in chronological order: %v", plan.Entries)
	}
}

func TestPlanEqualGainTieFavorsEarlierDate(t *testing.T) {
	league := testLeague()
	league.AcquisitionLimitPerWeek = 1
	p := NewPlanner(league)

	d1 := coldPlayer("d1", "Cold Center", "TOR", model.PositionCenter)
	// Identical production, one game each in the same week. IDs run against
	// the schedule order so an ID-based tie-break would pick the wrong add.
	early := hotFA("z-early", "Early Center", "BOS", model.PositionCenter, 2.0)
	late := hotFA("a-late", "Late Center", "DET", model.PositionCenter, 2.0)

	snap := model.RosterSnapshot{
		Roster:     []model.Player{d1},
		FreeAgents: []model.Player{early, late},
	}
	sched := model.ScheduleSnapshot{
		Start: planNow, End: planNow.AddDate(0, 0, 14),
		Windows: []model.ScheduleWindow{
			window("BOS", 8),
			window("DET", 10),
		},
	}

	plan := p.Plan(snap, assessAll(d1), sched, planNow)

	if len(plan.Entries) != 1 {
		t.Fatalf("got %d entries, want 1 (weekly limit)", len(plan.Entries))
	}
	e := plan.Entries[0]
	if e.AddPlayerID != "z-early" {
		t.Errorf("added %s, want z-early (earlier-scheduled game wins the tie)", e.AddPlayerID)
	}
	if !e.Date.Equal(day(8)) {
		t.Errorf("date = %v, want %v", e.Date, day(8))
	}
	if !almostEqual(e.ExpectedValueDelta, 2.0) {
		t.Errorf("gain = %v, want 2.0", e.ExpectedValueDelta)
	}
}

func TestPlanAddAndDropAtMostOnce(t *testing.T) {
	p := NewPlanner(testLeague())

	d1 := coldPlayer("d1", "Cold Center", "TOR", model.PositionCenter)
	d2 := coldPlayer("d2", "Other Cold Center", "MTL", model.PositionCenter)
	a1 := hotFA("a1", "Hot Center", "BOS", model.PositionCenter, 2.0)

	snap := model.RosterSnapshot{
		Roster:     []model.Player{d1, d2},
		FreeAgents: []model.Player{a1},
	}
	sched := model.ScheduleSnapshot{
		Start: planNow, End: planNow.AddDate(0, 0, 14),
		Windows: []model.ScheduleWindow{window("BOS", 6, 8, 10)},
	}

	plan := p.Plan(snap, assessAll(d1, d2), sched, planNow)

	if len(plan.Entries) != 1 {
		t.Fatalf("got %d entries, want 1 (single free agent)", len(plan.Entries))
	}
	if plan.Entries[0].AddPlayerID != "a1" {
		t.Errorf("added %s, want a1", plan.Entries[0].AddPlayerID)
	}
}

func TestPlanSkipsNonPositiveAndIncompatible(t *testing.T) {
	p := NewPlanner(testLeague())

	// Producing drop: replacing them loses points.
	producing := makePlayer("d1", "Producing Center", "TOR", []model.Position{model.PositionCenter}, []float64{3, 3, 3}, 60, 20)
	skaterDrop := coldPlayer("d2", "Cold Winger", "MTL", model.PositionLeftWing)

	weakAdd := hotFA("a1", "Weak Center", "BOS", model.PositionCenter, 0.5)
	goalieAdd := hotFA("a2", "Hot Goalie", "DET", model.PositionGoalie, 3.0)
	hurtAdd := hotFA("a3", "Hurt Winger", "BUF", model.PositionLeftWing, 3.0)
	hurtAdd.Injured = true

	snap := model.RosterSnapshot{
		Roster:     []model.Player{producing, skaterDrop},
		FreeAgents: []model.Player{weakAdd, goalieAdd, hurtAdd},
	}
	sched := model.ScheduleSnapshot{
		Start: planNow, End: planNow.AddDate(0, 0, 14),
		Windows: []model.ScheduleWindow{
			window("TOR", 6, 8, 10),
			window("BOS", 6, 8, 10),
			window("DET", 6, 8, 10),
			window("BUF", 6, 8, 10),
		},
	}

	plan := p.Plan(snap, assessAll(producing, skaterDrop), sched, planNow)

	if !plan.Empty() {
		t.Fatalf("got %d entries, want empty plan: %+v", len(plan.Entries), plan.Entries)
	}
}

func TestPlanClipsHorizon(t *testing.T) {
	p := NewPlanner(testLeague()) // 14-day horizon

	d1 := coldPlayer("d1", "Cold Center", "TOR", model.PositionCenter)
	a1 := hotFA("a1", "Hot Center", "BOS", model.PositionCenter, 2.0)

	snap := model.RosterSnapshot{
		Roster:     []model.Player{d1},
		FreeAgents: []model.Player{a1},
	}
	// One game inside the horizon, one past it.
	sched := model.ScheduleSnapshot{
		Start: planNow, End: planNow.AddDate(0, 0, 14),
		Windows: []model.ScheduleWindow{window("BOS", 18, 25)},
	}

	plan := p.Plan(snap, assessAll(d1), sched, planNow)

	if len(plan.Entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(plan.Entries))
	}
	// Only the Jan 18 game counts: 2.0 ppg x 1 game.
	if !almostEqual(plan.Entries[0].ExpectedValueDelta, 2.0) {
		t.Errorf("gain = %v, want 2.0 (game past horizon excluded)", plan.Entries[0].ExpectedValueDelta)
	}
}

func TestPlanEmptyInputs(t *testing.T) {
	p := NewPlanner(testLeague())

	if got := p.Plan(model.RosterSnapshot{}, nil, model.ScheduleSnapshot{}, planNow); !got.Empty() {
		t.Errorf("empty inputs produced entries: %+v", got.Entries)
	}
	if got := p.Plan(model.RosterSnapshot{}, nil, model.ScheduleSnapshot{}, planNow); got.TotalGain != 0 {
		t.Errorf("empty plan gain = %v, want 0", got.TotalGain)
	}
}
