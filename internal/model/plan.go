package model

import "time"

// PlanEntry is a single dated drop/add action within a streaming plan.
type PlanEntry struct {
	Date               time.Time `json:"date"`
	DropPlayerID       string    `json:"drop_player_id"`
	DropPlayerName     string    `json:"drop_player_name"`
	AddPlayerID        string    `json:"add_player_id"`
	AddPlayerName      string    `json:"add_player_name"`
	ExpectedValueDelta float64   `json:"expected_value_delta"`
}

// StreamingPlan is an ordered sequence of drop/add actions. Within any single
// calendar week the number of add actions never exceeds the league's
// per-week acquisition limit.
type StreamingPlan struct {
	Entries   []PlanEntry `json:"entries"`
	TotalGain float64     `json:"total_gain"`
}

// AddsPerWeek buckets the plan's add actions by ISO week.
func (p StreamingPlan) AddsPerWeek() map[[2]int]int {
	counts := make(map[[2]int]int)
	for _, e := range p.Entries {
		y, w := WeekOf(e.Date)
		counts[[2]int{y, w}]++
	}
	return counts
}

// Empty reports whether the plan contains no actions.
func (p StreamingPlan) Empty() bool {
	return len(p.Entries) == 0
}
