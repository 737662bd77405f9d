package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/blueline-sports/streamer-cli/internal/config"
	"github.com/blueline-sports/streamer-cli/internal/mapper"
	"github.com/blueline-sports/streamer-cli/internal/model"
	"github.com/blueline-sports/streamer-cli/internal/resilience"
	"github.com/blueline-sports/streamer-cli/internal/store"
)

// Analyst recalls past recommendation records similar to the current roster
// situation. The primary path is the semantic retrieval service behind a
// circuit breaker; the fallback ranks the local history by keyword overlap.
type Analyst struct {
	retriever Retriever
	history   store.Store
	breaker   *resilience.CircuitBreaker
	engine    config.EngineConfig
	topK      int
}

// NewAnalyst creates a historical analyst. retriever may be nil, in which
// case every recall goes through the local fallback.
func NewAnalyst(retriever Retriever, history store.Store, engine config.EngineConfig, topK int) *Analyst {
	breaker := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		OnStateChange: func(from, to resilience.CircuitState) {
			zap.L().Warn("analyst: retrieval circuit state change",
				zap.Stringer("from", from), zap.Stringer("to", to))
		},
	})
	return &Analyst{
		retriever: retriever,
		history:   history,
		breaker:   breaker,
		engine:    engine,
		topK:      topK,
	}
}

// Situation renders the current roster state as retrieval query text:
// the underperformers and the strongest available replacements.
func (a *Analyst) Situation(snap model.RosterSnapshot) string {
	var b strings.Builder
	b.WriteString("fantasy hockey streaming decision. roster:")
	for _, p := range snap.Roster {
		fmt.Fprintf(&b, " %s (%s, %.1f FP/G recent, %.1f season)",
			p.Name, joinPositions(p.Positions), p.RecentPerGame(), p.SeasonPerGame())
	}
	b.WriteString(" free agents:")
	for _, p := range snap.FreeAgents {
		fmt.Fprintf(&b, " %s (%s, %.1f FP/G recent)",
			p.Name, joinPositions(p.Positions), p.RecentPerGame())
	}
	return b.String()
}

// Recall queries the retrieval service for records similar to the situation.
// Results are filtered to the recency window and ordered by similarity.
// Circuit-open and transient failures surface unwrapped so the degradation
// policy can choose retry or fallback.
func (a *Analyst) Recall(ctx context.Context, situation string) ([]model.HistoricalRecord, error) {
	if a.retriever == nil {
		return nil, resilience.ErrDegraded
	}

	var records []model.HistoricalRecord
	err := a.breaker.Execute(ctx, func(ctx context.Context) error {
		var err error
		records, err = a.retriever.Query(ctx, situation, a.topK)
		return err
	})
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -a.engine.RecencyLimitDays)
	kept := records[:0]
	for _, rec := range records {
		if rec.Timestamp.Before(cutoff) {
			continue
		}
		kept = append(kept, rec)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Similarity > kept[j].Similarity
	})
	if len(kept) > a.topK {
		kept = kept[:a.topK]
	}
	zap.L().Debug("analyst: recalled records", zap.Int("count", len(kept)))
	return kept, nil
}

// Fallback ranks the locally stored history by token overlap with the
// situation text. It is used when the retrieval service is unavailable;
// results carry an overlap ratio in place of a semantic similarity score.
func (a *Analyst) Fallback(ctx context.Context, situation string) ([]model.HistoricalRecord, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -a.engine.RecencyLimitDays)
	records, err := a.history.ReadHistory(ctx, cutoff)
	if err != nil {
		return nil, err
	}

	query := tokenize(situation)
	type scored struct {
		rec   model.HistoricalRecord
		score float64
	}
	var ranked []scored
	for _, rec := range records {
		text := rec.Decision + " " + strings.Join(rec.Players, " ")
		s := overlap(query, tokenize(text))
		if s == 0 {
			continue
		}
		rec.Similarity = s
		ranked = append(ranked, scored{rec: rec, score: s})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})
	if len(ranked) > a.topK {
		ranked = ranked[:a.topK]
	}

	out := make([]model.HistoricalRecord, 0, len(ranked))
	for _, s := range ranked {
		out = append(out, s.rec)
	}
	zap.L().Info("analyst: retrieval degraded, using local history",
		zap.Int("candidates", len(records)), zap.Int("matched", len(out)))
	return out, nil
}

func joinPositions(positions []model.Position) string {
	parts := make([]string, len(positions))
	for i, p := range positions {
		parts[i] = string(p)
	}
	return strings.Join(parts, "/")
}

// stopwords excluded from overlap scoring; everything here appears in nearly
// every situation rendering and would dominate the ratio.
var stopwords = map[string]bool{
	"fantasy": true, "hockey": true, "streaming": true, "decision": true,
	"roster": true, "free": true, "agents": true, "recent": true,
	"season": true, "the": true, "and": true, "for": true,
}

func tokenize(text string) map[string]bool {
	tokens := map[string]bool{}
	for _, f := range strings.Fields(strings.ToLower(mapper.NormalizeName(text))) {
		f = strings.Trim(f, ".,()%:;")
		if len(f) < 3 || stopwords[f] {
			continue
		}
		tokens[f] = true
	}
	return tokens
}

// overlap is the share of query tokens present in the candidate.
func overlap(query, candidate map[string]bool) float64 {
	if len(query) == 0 {
		return 0
	}
	n := 0
	for tok := range query {
		if candidate[tok] {
			n++
		}
	}
	return float64(n) / float64(len(query))
}
