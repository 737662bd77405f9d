package model

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/rotisserie/eris"
)

// Recommendation is the final artifact of one orchestration run. It is owned
// by the synthesizer; after hand-off to the mail and persistence
// collaborators the engine discards it.
type Recommendation struct {
	Droppable         []DroppabilityAssessment `json:"droppable"`
	Plan              StreamingPlan            `json:"streaming_plan"`
	HistoricalCaveats []string                 `json:"historical_caveats"`
	Summary           string                   `json:"summary"`
	ContentHash       string                   `json:"content_hash"`

	// Degraded is set when the run proceeded without historical retrieval.
	Degraded bool `json:"degraded,omitempty"`
}

// wire types define the external JSON shape of a recommendation. Field order
// is fixed so canonical serialization is stable across runs.
type wireRecommendation struct {
	Droppable         []wireDroppable `json:"droppable"`
	StreamingPlan     []wirePlanEntry `json:"streamingPlan"`
	HistoricalCaveats []string        `json:"historicalCaveats"`
	Summary           string          `json:"summary"`
	ContentHash       string          `json:"contentHash,omitempty"`
}

type wireDroppable struct {
	PlayerID   string  `json:"playerId"`
	Confidence float64 `json:"confidence"`
	Rationale  string  `json:"rationale"`
}

type wirePlanEntry struct {
	Date               string  `json:"date"`
	Drop               string  `json:"drop"`
	Add                string  `json:"add"`
	ExpectedValueDelta float64 `json:"expectedValueDelta"`
}

func (r Recommendation) toWire(includeHash bool) wireRecommendation {
	w := wireRecommendation{
		Droppable:         make([]wireDroppable, 0, len(r.Droppable)),
		StreamingPlan:     make([]wirePlanEntry, 0, len(r.Plan.Entries)),
		HistoricalCaveats: r.HistoricalCaveats,
		Summary:           r.Summary,
	}
	if w.HistoricalCaveats == nil {
		w.HistoricalCaveats = []string{}
	}
	for _, d := range r.Droppable {
		w.Droppable = append(w.Droppable, wireDroppable{
			PlayerID:   d.PlayerID,
			Confidence: d.Confidence,
			Rationale:  d.Rationale,
		})
	}
	for _, e := range r.Plan.Entries {
		w.StreamingPlan = append(w.StreamingPlan, wirePlanEntry{
			Date:               e.Date.Format("2006-01-02"),
			Drop:               e.DropPlayerID,
			Add:                e.AddPlayerID,
			ExpectedValueDelta: e.ExpectedValueDelta,
		})
	}
	if includeHash {
		w.ContentHash = r.ContentHash
	}
	return w
}

// CanonicalJSON serializes the recommendation deterministically, excluding
// the content hash itself. Identical inputs always produce byte-identical
// output.
func (r Recommendation) CanonicalJSON() ([]byte, error) {
	data, err := json.Marshal(r.toWire(false))
	if err != nil {
		return nil, eris.Wrap(err, "model: canonical serialize recommendation")
	}
	return data, nil
}

// ComputeHash returns the hex SHA-256 digest of the canonical serialization.
func (r Recommendation) ComputeHash() (string, error) {
	data, err := r.CanonicalJSON()
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// WireJSON serializes the recommendation in its external JSON shape,
// including the content hash.
func (r Recommendation) WireJSON() ([]byte, error) {
	data, err := json.Marshal(r.toWire(true))
	if err != nil {
		return nil, eris.Wrap(err, "model: serialize recommendation")
	}
	return data, nil
}
