package model

// DroppabilityAssessment scores how safely one roster player can be released.
// Created by the evaluator, consumed by the planner; never mutated after
// creation. Confidence is always within [0,1].
type DroppabilityAssessment struct {
	PlayerID   string  `json:"player_id"`
	PlayerName string  `json:"player_name"`
	Confidence float64 `json:"confidence"`
	Rationale  string  `json:"rationale"`
}
