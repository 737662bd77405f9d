package model

import "time"

// Outcome records what actually happened after a past recommendation, when
// tracked. Absent until an outcome is observed.
type Outcome struct {
	Reversed bool   `json:"reversed"`
	Positive bool   `json:"positive"`
	Note     string `json:"note,omitempty"`
}

// HistoricalRecord is one past recommendation decision. The history store is
// append-only: a run reads many records and creates at most one new record
// after it completes.
type HistoricalRecord struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Players   []string  `json:"players"`
	Decision  string    `json:"decision"`
	Outcome   *Outcome  `json:"outcome,omitempty"`

	// Similarity is populated by the retrieval backend on recall; zero when
	// the record was read directly from the persistence fallback.
	Similarity float64 `json:"similarity,omitempty"`
}

// MentionsAll reports whether the record involves every one of the given
// player names.
func (r HistoricalRecord) MentionsAll(names []string) bool {
	for _, n := range names {
		found := false
		for _, p := range r.Players {
			if p == n {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
