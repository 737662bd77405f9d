package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/blueline-sports/streamer-cli/internal/config"
	"github.com/blueline-sports/streamer-cli/internal/model"
	"github.com/blueline-sports/streamer-cli/internal/resilience"
	"github.com/blueline-sports/streamer-cli/internal/store"
)

// OrchestrationFailure is the terminal error of a failed run: which task
// broke, after how many rounds, and why. No partial recommendation
// accompanies it.
type OrchestrationFailure struct {
	RunID  string
	Task   Task
	Rounds int
	Err    error
}

func (f *OrchestrationFailure) Error() string {
	return fmt.Sprintf("orchestration failed at %s after %d round(s): %v", f.Task, f.Rounds, f.Err)
}

func (f *OrchestrationFailure) Unwrap() error {
	return f.Err
}

// Result is a completed run's output.
type Result struct {
	Recommendation *model.Recommendation
	Rounds         int
	Degraded       bool
}

// Orchestrator drives the bounded reason-then-act loop over the four
// capabilities. Each round gathers historical context and assessments,
// plans, and synthesizes; a round whose artifact fails validation triggers
// another round until the cap.
type Orchestrator struct {
	analyst     *Analyst
	evaluator   *Evaluator
	planner     *Planner
	synthesizer *Synthesizer
	policy      *resilience.Policy
	retry       resilience.RetryConfig
	runs        store.Store
	league      config.LeagueConfig
	engine      config.EngineConfig
	now         func() time.Time
}

// NewOrchestrator wires the four capabilities under the degradation policy.
// runs may be nil when no status tracking is wanted (tests, dry runs).
func NewOrchestrator(analyst *Analyst, evaluator *Evaluator, planner *Planner, synthesizer *Synthesizer, runs store.Store, league config.LeagueConfig, engineCfg config.EngineConfig) *Orchestrator {
	policy := resilience.NewPolicy()
	if engineCfg.MaxRetryAttempts > 0 {
		policy.MaxTransientAttempts = engineCfg.MaxRetryAttempts
	}
	return &Orchestrator{
		analyst:     analyst,
		evaluator:   evaluator,
		planner:     planner,
		synthesizer: synthesizer,
		policy:      policy,
		retry:       resilience.DefaultRetryConfig(),
		runs:        runs,
		league:      league,
		engine:      engineCfg,
		now:         time.Now,
	}
}

// runContext is the explicit state record for one run. Every round reads and
// rewrites it; nothing is carried in component fields between rounds.
type runContext struct {
	runID       string
	round       int
	snapshot    model.RosterSnapshot
	schedule    model.ScheduleSnapshot
	history     []model.HistoricalRecord
	assessments []model.DroppabilityAssessment
	plan        model.StreamingPlan
	degraded    bool

	// fallbacks records tasks whose capability was dropped for the rest of
	// the run; a fallback never un-happens across rounds.
	fallbacks map[Task]bool
}

// Run executes one orchestration. On success the recommendation is complete,
// hashed and validated; on failure the error is an *OrchestrationFailure and
// no partial artifact is returned.
func (o *Orchestrator) Run(ctx context.Context, runID string, snap model.RosterSnapshot, schedule model.ScheduleSnapshot) (*Result, error) {
	if err := o.league.Validate(); err != nil {
		return nil, &OrchestrationFailure{RunID: runID, Task: TaskSynthesize, Rounds: 0, Err: err}
	}

	rc := &runContext{
		runID:     runID,
		snapshot:  snap,
		schedule:  schedule,
		fallbacks: map[Task]bool{},
	}

	var lastErr error
	for rc.round = 1; rc.round <= o.league.MaxOrchestrationRounds; rc.round++ {
		rec, err := o.runRound(ctx, rc)
		if err != nil {
			var fail *OrchestrationFailure
			if errors.As(err, &fail) {
				o.setStatus(ctx, rc.runID, model.RunStatusFailed)
				return nil, fail
			}
			// Round-level validation miss: reason again.
			lastErr = err
			zap.L().Warn("round produced invalid artifact, re-reasoning",
				zap.String("run_id", rc.runID), zap.Int("round", rc.round), zap.Error(err))
			continue
		}

		zap.L().Info("run complete",
			zap.String("run_id", rc.runID),
			zap.Int("rounds", rc.round),
			zap.Bool("degraded", rc.degraded),
			zap.String("content_hash", rec.ContentHash))
		return &Result{Recommendation: rec, Rounds: rc.round, Degraded: rc.degraded}, nil
	}

	o.setStatus(ctx, rc.runID, model.RunStatusFailed)
	return nil, &OrchestrationFailure{
		RunID:  runID,
		Task:   TaskSynthesize,
		Rounds: o.league.MaxOrchestrationRounds,
		Err:    fmt.Errorf("round cap reached without a valid recommendation: %w", lastErr),
	}
}

// runRound executes one reason-then-act pass. A returned
// *OrchestrationFailure is terminal; any other error sends the loop into the
// next round.
func (o *Orchestrator) runRound(ctx context.Context, rc *runContext) (*model.Recommendation, error) {
	// Reason: gather history and assessments. The two are independent
	// unless outcome damping feeds history into scoring, so they fan out
	// when the configuration allows it.
	if o.engine.ParallelFanOut && !o.league.OutcomeDamping {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { return o.recall(gctx, rc) })
		g.Go(func() error { return o.assess(gctx, rc) })
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		if err := o.recall(ctx, rc); err != nil {
			return nil, err
		}
		if err := o.assess(ctx, rc); err != nil {
			return nil, err
		}
	}

	// Plan: pure computation over the snapshot, assessments and schedule.
	o.setStatus(ctx, rc.runID, model.RunStatusPlanning)
	rc.plan = o.planner.Plan(rc.snapshot, rc.assessments, rc.schedule, o.now().UTC())

	// Act: synthesize and validate the artifact.
	o.setStatus(ctx, rc.runID, model.RunStatusSynthesizing)
	var rec *model.Recommendation
	err := o.invoke(ctx, rc, TaskSynthesize, func(ctx context.Context) error {
		var err error
		rec, err = o.synthesizer.Synthesize(ctx, SynthesisInput{
			Snapshot:    rc.snapshot,
			Assessments: rc.assessments,
			Plan:        rc.plan,
			History:     rc.history,
			Degraded:    rc.degraded,
		})
		return err
	}, nil)
	if err != nil {
		return nil, err
	}

	if err := o.validate(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (o *Orchestrator) recall(ctx context.Context, rc *runContext) error {
	if rc.fallbacks[TaskRecall] {
		return nil
	}
	o.setStatus(ctx, rc.runID, model.RunStatusRecalling)

	situation := o.analyst.Situation(rc.snapshot)
	return o.invoke(ctx, rc, TaskRecall,
		func(ctx context.Context) error {
			records, err := o.analyst.Recall(ctx, situation)
			if err != nil {
				return err
			}
			rc.history = records
			return nil
		},
		func(ctx context.Context) error {
			records, err := o.analyst.Fallback(ctx, situation)
			if err != nil {
				// Local history is best-effort; an empty context is
				// acceptable in degraded mode.
				zap.L().Warn("analyst: local history fallback failed", zap.Error(err))
				records = nil
			}
			rc.history = records
			rc.degraded = true
			return nil
		})
}

func (o *Orchestrator) assess(ctx context.Context, rc *runContext) error {
	o.setStatus(ctx, rc.runID, model.RunStatusEvaluating)

	augment := !rc.fallbacks[TaskAssess]
	err := o.invoke(ctx, rc, TaskAssess,
		func(ctx context.Context) error {
			assessments, err := o.evaluator.Assess(ctx, rc.snapshot, rc.history, augment)
			if err != nil {
				return err
			}
			rc.assessments = assessments
			return nil
		},
		func(ctx context.Context) error {
			assessments, err := o.evaluator.Assess(ctx, rc.snapshot, rc.history, false)
			if err != nil {
				return err
			}
			rc.assessments = assessments
			return nil
		})
	if err != nil && resilience.IsInsufficientData(err) {
		// No eligible players is an empty result, not a failure.
		rc.assessments = nil
		return nil
	}
	return err
}

// invoke runs one capability call under the degradation policy: per-call
// timeout, transient retry on the injected backoff schedule, fallback, or
// terminal failure.
func (o *Orchestrator) invoke(ctx context.Context, rc *runContext, task Task, fn, fallback func(ctx context.Context) error) error {
	component := taskComponents[task]

	for attempt := 1; ; attempt++ {
		err := o.callWithTimeout(ctx, fn)
		if err == nil {
			return nil
		}
		if resilience.IsInsufficientData(err) {
			return err
		}
		if ctx.Err() != nil {
			return &OrchestrationFailure{RunID: rc.runID, Task: task, Rounds: rc.round, Err: err}
		}

		decision := o.policy.OnFailure(component, err, attempt)
		zap.L().Warn("capability failure",
			zap.String("run_id", rc.runID),
			zap.String("task", string(task)),
			zap.Int("attempt", attempt),
			zap.Stringer("decision", decision),
			zap.Error(err))

		switch decision {
		case resilience.Retry:
			timer := time.NewTimer(o.retry.Backoff(attempt - 1))
			select {
			case <-ctx.Done():
				timer.Stop()
				return &OrchestrationFailure{RunID: rc.runID, Task: task, Rounds: rc.round, Err: ctx.Err()}
			case <-timer.C:
			}

		case resilience.FallbackToHeuristic:
			rc.fallbacks[task] = true
			if fallback == nil {
				return &OrchestrationFailure{RunID: rc.runID, Task: task, Rounds: rc.round, Err: err}
			}
			return o.callWithTimeout(ctx, fallback)

		default: // Abort
			return &OrchestrationFailure{RunID: rc.runID, Task: task, Rounds: rc.round, Err: err}
		}
	}
}

func (o *Orchestrator) callWithTimeout(ctx context.Context, fn func(ctx context.Context) error) error {
	if o.engine.CallTimeoutSecs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(o.engine.CallTimeoutSecs)*time.Second)
		defer cancel()
	}
	return fn(ctx)
}

// validate checks the finished artifact against the league constraints the
// planner promised to honor. A violation here means a component bug; the
// round is re-run rather than shipping a bad plan.
func (o *Orchestrator) validate(rec *model.Recommendation) error {
	if rec.ContentHash == "" {
		return resilience.NewConsistencyError("recommendation missing content hash")
	}
	if rec.HistoricalCaveats == nil {
		return resilience.NewConsistencyError("historical caveats must be present, possibly empty")
	}

	for week, adds := range rec.Plan.AddsPerWeek() {
		if adds > o.league.AcquisitionLimitPerWeek {
			return resilience.NewConsistencyError(
				fmt.Sprintf("plan schedules %d adds in week %d-W%d, limit is %d", adds, week[0], week[1], o.league.AcquisitionLimitPerWeek))
		}
	}

	seenAdds := map[string]bool{}
	seenDrops := map[string]bool{}
	for _, e := range rec.Plan.Entries {
		if seenAdds[e.AddPlayerID] {
			return resilience.NewConsistencyError(fmt.Sprintf("plan adds %s more than once", e.AddPlayerName))
		}
		if seenDrops[e.DropPlayerID] {
			return resilience.NewConsistencyError(fmt.Sprintf("plan drops %s more than once", e.DropPlayerName))
		}
		seenAdds[e.AddPlayerID] = true
		seenDrops[e.DropPlayerID] = true
	}
	return nil
}

func (o *Orchestrator) setStatus(ctx context.Context, runID string, status model.RunStatus) {
	if o.runs == nil || runID == "" {
		return
	}
	if err := o.runs.UpdateRunStatus(ctx, runID, status); err != nil {
		zap.L().Warn("run status update failed",
			zap.String("run_id", runID), zap.String("status", string(status)), zap.Error(err))
	}
}

