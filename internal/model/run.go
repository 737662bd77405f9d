package model

import "time"

// RunStatus tracks an orchestration run through its lifecycle.
type RunStatus string

const (
	RunStatusQueued       RunStatus = "queued"
	RunStatusRecalling    RunStatus = "recalling"
	RunStatusEvaluating   RunStatus = "evaluating"
	RunStatusPlanning     RunStatus = "planning"
	RunStatusSynthesizing RunStatus = "synthesizing"
	RunStatusComplete     RunStatus = "complete"
	RunStatusFailed       RunStatus = "failed"
)

// Run is one recorded orchestration run.
type Run struct {
	ID        string     `json:"id"`
	Status    RunStatus  `json:"status"`
	Result    *RunResult `json:"result,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// RunResult is the persisted outcome of a completed run.
type RunResult struct {
	ContentHash    string  `json:"content_hash"`
	DroppableCount int     `json:"droppable_count"`
	PlanEntries    int     `json:"plan_entries"`
	TotalGain      float64 `json:"total_gain"`
	Rounds         int     `json:"rounds"`
	Degraded       bool    `json:"degraded"`
	Summary        string  `json:"summary"`
}
