// Package monitoring aggregates run outcomes into a point-in-time health
// snapshot for the status command and the serve endpoint.
package monitoring

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/blueline-sports/streamer-cli/internal/model"
	"github.com/blueline-sports/streamer-cli/internal/store"
)

// MetricsSnapshot holds a point-in-time view of engine health.
type MetricsSnapshot struct {
	// Run metrics within the lookback window.
	RunsTotal    int     `json:"runs_total"`
	RunsComplete int     `json:"runs_complete"`
	RunsFailed   int     `json:"runs_failed"`
	RunsPending  int     `json:"runs_pending"`
	FailRate     float64 `json:"fail_rate"`

	// Share of completed runs that proceeded without historical retrieval.
	DegradedShare float64 `json:"degraded_share"`

	// Averages over completed runs.
	AvgRounds      float64 `json:"avg_rounds"`
	AvgPlanEntries float64 `json:"avg_plan_entries"`
	AvgTotalGain   float64 `json:"avg_total_gain"`

	LookbackHours int       `json:"lookback_hours"`
	CollectedAt   time.Time `json:"collected_at"`
}

// Collector gathers metrics from the run store.
type Collector struct {
	store store.Store
}

// NewCollector creates a metrics collector.
func NewCollector(st store.Store) *Collector {
	return &Collector{store: st}
}

// Collect gathers a snapshot of run metrics over the given lookback window.
func (c *Collector) Collect(ctx context.Context, lookbackHours int) (*MetricsSnapshot, error) {
	snap := &MetricsSnapshot{
		LookbackHours: lookbackHours,
		CollectedAt:   time.Now().UTC(),
	}
	cutoff := snap.CollectedAt.Add(-time.Duration(lookbackHours) * time.Hour)

	runs, err := c.store.ListRuns(ctx, 10000)
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: list runs")
	}

	var degraded, roundSum, entrySum int
	var gainSum float64
	for _, r := range runs {
		if r.CreatedAt.Before(cutoff) {
			continue
		}
		snap.RunsTotal++

		switch r.Status {
		case model.RunStatusComplete:
			snap.RunsComplete++
			if r.Result != nil {
				if r.Result.Degraded {
					degraded++
				}
				roundSum += r.Result.Rounds
				entrySum += r.Result.PlanEntries
				gainSum += r.Result.TotalGain
			}
		case model.RunStatusFailed:
			snap.RunsFailed++
		default:
			snap.RunsPending++
		}
	}

	if finished := snap.RunsComplete + snap.RunsFailed; finished > 0 {
		snap.FailRate = float64(snap.RunsFailed) / float64(finished)
	}
	if snap.RunsComplete > 0 {
		snap.DegradedShare = float64(degraded) / float64(snap.RunsComplete)
		snap.AvgRounds = float64(roundSum) / float64(snap.RunsComplete)
		snap.AvgPlanEntries = float64(entrySum) / float64(snap.RunsComplete)
		snap.AvgTotalGain = gainSum / float64(snap.RunsComplete)
	}
	return snap, nil
}
