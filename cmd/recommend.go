package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/blueline-sports/streamer-cli/internal/engine"
	"github.com/blueline-sports/streamer-cli/internal/model"
	"github.com/blueline-sports/streamer-cli/pkg/retrieval"
)

var (
	recommendDryRun  bool
	recommendPrompts string
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Produce this week's streaming recommendation",
	Long:  "Fetches the roster and schedule, runs the orchestration, and on success emails the recommendation and records it in history. --dry-run prints the recommendation without any side effects.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, recommendPrompts)
		if err != nil {
			return err
		}
		defer env.Close()

		snap, sched, err := env.Fetcher.Snapshot(ctx, cfg.League.PlanningHorizonDays)
		if err != nil {
			return eris.Wrap(err, "fetch snapshot")
		}

		runID := ""
		if !recommendDryRun {
			run, err := env.Store.CreateRun(ctx)
			if err != nil {
				return eris.Wrap(err, "create run")
			}
			runID = run.ID
		}

		result, err := env.Orchestrator.Run(ctx, runID, snap, sched)
		if err != nil {
			return eris.Wrap(err, "orchestration")
		}
		rec := result.Recommendation

		if !recommendDryRun {
			if err := persistOutcome(ctx, env, runID, result); err != nil {
				return err
			}
		}

		zap.L().Info("recommendation ready",
			zap.Int("droppable", len(rec.Droppable)),
			zap.Int("plan_entries", len(rec.Plan.Entries)),
			zap.Float64("total_gain", rec.Plan.TotalGain),
			zap.Bool("degraded", rec.Degraded),
			zap.Bool("dry_run", recommendDryRun))

		wire, err := rec.WireJSON()
		if err != nil {
			return err
		}
		var pretty map[string]any
		if err := json.Unmarshal(wire, &pretty); err != nil {
			return eris.Wrap(err, "reformat recommendation")
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(pretty)
	},
}

// persistOutcome records the completed run, appends the history record,
// indexes it for future retrieval, and emails the recommendation. History
// append failure is fatal; mail and indexing failures are logged only.
func persistOutcome(ctx context.Context, e *env, runID string, result *engine.Result) error {
	rec := result.Recommendation

	if err := e.Store.UpdateRunResult(ctx, runID, &model.RunResult{
		ContentHash:    rec.ContentHash,
		DroppableCount: len(rec.Droppable),
		PlanEntries:    len(rec.Plan.Entries),
		TotalGain:      rec.Plan.TotalGain,
		Rounds:         result.Rounds,
		Degraded:       result.Degraded,
		Summary:        rec.Summary,
	}); err != nil {
		return eris.Wrap(err, "record run result")
	}

	record := historyRecord(rec)
	if err := e.Store.AppendHistory(ctx, record); err != nil {
		return eris.Wrap(err, "append history")
	}

	if e.Retrieval != nil {
		doc, err := json.Marshal(record)
		if err == nil {
			err = e.Retrieval.Upsert(ctx, retrieval.UpsertRequest{
				ID:       record.ID,
				Text:     record.Decision,
				Document: doc,
			})
		}
		if err != nil {
			zap.L().Warn("retrieval index update failed", zap.Error(err))
		}
	}

	if e.Mailer != nil {
		subject := fmt.Sprintf("Streaming recommendation %s", time.Now().Format("Jan 2"))
		if err := e.Mailer.Send(subject, renderHTML(rec)); err != nil {
			zap.L().Warn("recommendation email failed", zap.Error(err))
		}
	}
	return nil
}

// historyRecord converts a recommendation into its append-only history form.
func historyRecord(rec *model.Recommendation) model.HistoricalRecord {
	seen := map[string]bool{}
	var players []string
	addPlayer := func(name string) {
		if name != "" && !seen[name] {
			seen[name] = true
			players = append(players, name)
		}
	}
	for _, e := range rec.Plan.Entries {
		addPlayer(e.DropPlayerName)
		addPlayer(e.AddPlayerName)
	}
	for _, d := range rec.Droppable {
		addPlayer(d.PlayerName)
	}

	return model.HistoricalRecord{
		ID:        uuid.New().String(),
		Timestamp: time.Now().UTC(),
		Players:   players,
		Decision:  rec.Summary,
	}
}

func init() {
	recommendCmd.Flags().BoolVar(&recommendDryRun, "dry-run", false, "print the recommendation without email, history or run records")
	recommendCmd.Flags().StringVar(&recommendPrompts, "prompts", "", "YAML file overriding the built-in prompts")
	rootCmd.AddCommand(recommendCmd)
}
