package engine

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/blueline-sports/streamer-cli/internal/config"
	"github.com/blueline-sports/streamer-cli/internal/mapper"
	"github.com/blueline-sports/streamer-cli/internal/model"
	"github.com/blueline-sports/streamer-cli/internal/registry"
	"github.com/blueline-sports/streamer-cli/internal/resilience"
)

const (
	// trendScale is the per-game fantasy-point swing that saturates the
	// trend term at its extremes.
	trendScale = 2.0

	// scarcityWeight is the maximum confidence penalty for a position with
	// no available free agents.
	scarcityWeight = 0.2

	// scarcityPool is the free-agent count at which a position is
	// considered fully replaceable (no penalty).
	scarcityPool = 5

	// dampFactor pulls confidence toward 0.5 when outcome damping applies.
	dampFactor = 0.5
)

// Evaluator computes droppability assessments for the current roster.
type Evaluator struct {
	reasoner Reasoner
	prompts  registry.Prompts
	league   config.LeagueConfig
}

// NewEvaluator creates a player evaluator. reasoner may be nil, in which
// case assessments carry heuristic rationale only.
func NewEvaluator(reasoner Reasoner, prompts registry.Prompts, league config.LeagueConfig) *Evaluator {
	return &Evaluator{reasoner: reasoner, prompts: prompts, league: league}
}

// Assess scores every eligible roster player and returns assessments ordered
// by descending confidence. Ties break toward the lower season aggregate.
// When no roster player is eligible it returns ErrInsufficientData, which the
// orchestrator converts to an empty sequence.
//
// With augment set and a reasoner available, per-player rationale is
// rewritten by the reasoning capability; a malformed response surfaces as a
// ValidationError so the policy can retry or fall back.
func (e *Evaluator) Assess(ctx context.Context, snap model.RosterSnapshot, history []model.HistoricalRecord, augment bool) ([]model.DroppabilityAssessment, error) {
	var assessments []model.DroppabilityAssessment

	for _, p := range snap.Roster {
		if p.Injured || p.OnIR {
			continue
		}
		if len(p.RecentGames) < e.league.MinGamesPlayedThreshold {
			// Too little signal to score; excluded rather than given an
			// extreme confidence.
			continue
		}

		conf, rationale := e.score(p, snap.FreeAgents, history)
		assessments = append(assessments, model.DroppabilityAssessment{
			PlayerID:   p.ID,
			PlayerName: p.Name,
			Confidence: conf,
			Rationale:  rationale,
		})
	}

	if len(assessments) == 0 {
		return nil, resilience.ErrInsufficientData
	}

	seasonPoints := make(map[string]float64, len(snap.Roster))
	for _, p := range snap.Roster {
		seasonPoints[p.ID] = p.SeasonPoints
	}
	sort.SliceStable(assessments, func(i, j int) bool {
		if assessments[i].Confidence != assessments[j].Confidence {
			return assessments[i].Confidence > assessments[j].Confidence
		}
		return seasonPoints[assessments[i].PlayerID] < seasonPoints[assessments[j].PlayerID]
	})

	if augment && e.reasoner != nil {
		if err := e.augmentRationale(ctx, assessments); err != nil {
			return nil, err
		}
	}

	return assessments, nil
}

// score computes one player's confidence and heuristic rationale.
func (e *Evaluator) score(p model.Player, freeAgents []model.Player, history []model.HistoricalRecord) (float64, string) {
	recent := p.RecentPerGame()
	season := p.SeasonPerGame()

	// Trend term: current-window production minus season baseline,
	// normalized to [-1,1] and rescaled to [0,1]. A slump raises
	// droppability, a surge lowers it.
	delta := recent - season
	trend := clamp(delta/trendScale, -1, 1)
	conf := (1 - trend) / 2

	// Scarcity penalty: positions with few available free agents are
	// harder to justify dropping.
	available := 0
	for _, fa := range freeAgents {
		if fa.Injured || fa.OnIR {
			continue
		}
		if fa.SharesPosition(p) {
			available++
		}
	}
	penalty := scarcityWeight * (1 - math.Min(float64(available), scarcityPool)/scarcityPool)
	conf = clamp(conf-penalty, 0, 1)

	rationale := fmt.Sprintf("%.1f FP/G over last %d games vs %.1f season baseline (delta %+.1f); %d comparable free agents available",
		recent, len(p.RecentGames), season, delta, available)

	// Outcome damping is opt-in: when a near-identical drop was previously
	// reversed with a positive outcome, pull confidence toward neutral.
	if e.league.OutcomeDamping {
		if damped, rec := dampForOutcome(conf, p, history); rec != nil {
			conf = damped
			rationale += fmt.Sprintf("; confidence damped: a similar drop on %s was reversed with a positive outcome",
				rec.Timestamp.Format("2006-01-02"))
		}
	}

	return conf, rationale
}

func dampForOutcome(conf float64, p model.Player, history []model.HistoricalRecord) (float64, *model.HistoricalRecord) {
	for i := range history {
		rec := history[i]
		if rec.Outcome == nil || !rec.Outcome.Reversed || !rec.Outcome.Positive {
			continue
		}
		if !strings.Contains(strings.ToLower(rec.Decision), "drop") {
			continue
		}
		for _, name := range rec.Players {
			if mapper.SameName(name, p.Name) {
				return conf + (0.5-conf)*dampFactor, &rec
			}
		}
	}
	return conf, nil
}

// augmentRationale asks the reasoning capability to rewrite rationale text
// for the assessed players in one call. The structured response must be a
// JSON object keyed by player ID.
func (e *Evaluator) augmentRationale(ctx context.Context, assessments []model.DroppabilityAssessment) error {
	var prompt strings.Builder
	prompt.WriteString("Rewrite the rationale for each player. Respond with JSON mapping player ID to rationale.\n")
	for _, a := range assessments {
		fmt.Fprintf(&prompt, "- %s (%s): confidence %.2f, %s\n", a.PlayerName, a.PlayerID, a.Confidence, a.Rationale)
	}

	text, err := e.reasoner.Reason(ctx, e.prompts.Evaluator, prompt.String())
	if err != nil {
		return err
	}

	var rationales map[string]string
	if err := parseJSONResponse(string(resilience.ComponentEvaluator), text, &rationales); err != nil {
		return err
	}

	for i := range assessments {
		if r, ok := rationales[assessments[i].PlayerID]; ok && r != "" {
			assessments[i].Rationale = r
		}
	}
	zap.L().Debug("evaluator: rationale augmented", zap.Int("players", len(assessments)))
	return nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
