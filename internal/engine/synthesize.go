package engine

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/blueline-sports/streamer-cli/internal/model"
	"github.com/blueline-sports/streamer-cli/internal/registry"
	"github.com/blueline-sports/streamer-cli/internal/resilience"
)

// Synthesizer merges component outputs into the final recommendation. It is
// the only component that constructs a Recommendation, and it refuses to emit
// one that violates cross-component consistency.
type Synthesizer struct {
	reasoner Reasoner
	prompts  registry.Prompts
}

// NewSynthesizer creates a recommendation synthesizer. reasoner may be nil,
// in which case the summary stays heuristic.
func NewSynthesizer(reasoner Reasoner, prompts registry.Prompts) *Synthesizer {
	return &Synthesizer{reasoner: reasoner, prompts: prompts}
}

// SynthesisInput carries everything the synthesizer merges.
type SynthesisInput struct {
	Snapshot    model.RosterSnapshot
	Assessments []model.DroppabilityAssessment
	Plan        model.StreamingPlan
	History     []model.HistoricalRecord
	Degraded    bool
}

// Synthesize builds the final recommendation. A consistency violation
// between the plan and the assessments is fatal; a failure to polish the
// summary text is not, the heuristic summary is kept instead.
func (s *Synthesizer) Synthesize(ctx context.Context, in SynthesisInput) (*model.Recommendation, error) {
	if err := s.checkConsistency(in); err != nil {
		return nil, err
	}

	rec := &model.Recommendation{
		Droppable:         in.Assessments,
		Plan:              in.Plan,
		HistoricalCaveats: s.caveats(in),
		Degraded:          in.Degraded,
	}
	rec.Summary = s.heuristicSummary(in)

	if s.reasoner != nil {
		if polished, err := s.polishSummary(ctx, rec); err != nil {
			// Summary polish is cosmetic. Keep the heuristic text rather
			// than degrading an otherwise complete recommendation.
			zap.L().Warn("synthesizer: summary polish failed, keeping heuristic summary", zap.Error(err))
		} else if polished != "" {
			rec.Summary = polished
		}
	}

	hash, err := rec.ComputeHash()
	if err != nil {
		return nil, err
	}
	rec.ContentHash = hash
	return rec, nil
}

// checkConsistency enforces the contract between planner and evaluator
// outputs: every planned drop must be an assessed player and every planned
// add must come from the free-agent pool of the same snapshot.
func (s *Synthesizer) checkConsistency(in SynthesisInput) error {
	assessed := make(map[string]bool, len(in.Assessments))
	for _, a := range in.Assessments {
		assessed[a.PlayerID] = true
	}
	available := make(map[string]bool, len(in.Snapshot.FreeAgents))
	for _, fa := range in.Snapshot.FreeAgents {
		available[fa.ID] = true
	}

	for _, e := range in.Plan.Entries {
		if !assessed[e.DropPlayerID] {
			return resilience.NewConsistencyError(
				fmt.Sprintf("plan drops %s (%s) without a droppability assessment", e.DropPlayerName, e.DropPlayerID))
		}
		if !available[e.AddPlayerID] {
			return resilience.NewConsistencyError(
				fmt.Sprintf("plan adds %s (%s) who is not in the free-agent pool", e.AddPlayerName, e.AddPlayerID))
		}
	}
	return nil
}

// caveats surfaces past records where a similar move went badly: a reversed
// drop, or an explicitly negative outcome, involving a player the plan
// touches. Always returns a non-nil slice.
func (s *Synthesizer) caveats(in SynthesisInput) []string {
	caveats := []string{}

	planned := map[string]bool{}
	for _, e := range in.Plan.Entries {
		planned[e.DropPlayerName] = true
		planned[e.AddPlayerName] = true
	}

	for _, rec := range in.History {
		if rec.Outcome == nil {
			continue
		}
		if !rec.Outcome.Reversed && rec.Outcome.Positive {
			continue
		}
		mentioned := ""
		for _, name := range rec.Players {
			if planned[name] {
				mentioned = name
				break
			}
		}
		if mentioned == "" {
			continue
		}
		c := fmt.Sprintf("%s: a similar move involving %s on %s", rec.Decision, mentioned,
			rec.Timestamp.Format("2006-01-02"))
		if rec.Outcome.Reversed {
			c += " was later reversed"
		} else {
			c += " had a negative outcome"
		}
		if rec.Outcome.Note != "" {
			c += " (" + rec.Outcome.Note + ")"
		}
		caveats = append(caveats, c)
	}
	return caveats
}

func (s *Synthesizer) heuristicSummary(in SynthesisInput) string {
	var b strings.Builder
	switch {
	case len(in.Plan.Entries) == 0 && len(in.Assessments) == 0:
		b.WriteString("No eligible roster moves this window.")
	case len(in.Plan.Entries) == 0:
		fmt.Fprintf(&b, "%d droppable candidate(s) identified, but no positive-value streaming move fits the current schedule.",
			len(in.Assessments))
	default:
		fmt.Fprintf(&b, "%d streaming move(s) over the horizon for a projected +%.1f fantasy points.",
			len(in.Plan.Entries), in.Plan.TotalGain)
		first := in.Plan.Entries[0]
		fmt.Fprintf(&b, " First: drop %s for %s on %s.",
			first.DropPlayerName, first.AddPlayerName, first.Date.Format("Jan 2"))
	}
	if in.Degraded {
		b.WriteString(" Historical context was unavailable for this run.")
	}
	return b.String()
}

// polishSummary asks the reasoning capability for a short narrative summary
// of the full recommendation.
func (s *Synthesizer) polishSummary(ctx context.Context, rec *model.Recommendation) (string, error) {
	var prompt strings.Builder
	prompt.WriteString("Write a 2-3 sentence summary of this recommendation. Respond with JSON: {\"summary\": \"...\"}.\n")
	for _, a := range rec.Droppable {
		fmt.Fprintf(&prompt, "droppable: %s (confidence %.2f) %s\n", a.PlayerName, a.Confidence, a.Rationale)
	}
	for _, e := range rec.Plan.Entries {
		fmt.Fprintf(&prompt, "move %s: drop %s, add %s, +%.1f projected\n",
			e.Date.Format("2006-01-02"), e.DropPlayerName, e.AddPlayerName, e.ExpectedValueDelta)
	}
	for _, c := range rec.HistoricalCaveats {
		fmt.Fprintf(&prompt, "caveat: %s\n", c)
	}

	text, err := s.reasoner.Reason(ctx, s.prompts.Synthesizer, prompt.String())
	if err != nil {
		return "", err
	}
	var out struct {
		Summary string `json:"summary"`
	}
	if err := parseJSONResponse(string(resilience.ComponentSynthesizer), text, &out); err != nil {
		return "", err
	}
	return strings.TrimSpace(out.Summary), nil
}
