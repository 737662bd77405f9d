package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/blueline-sports/streamer-cli/internal/model"
	"github.com/blueline-sports/streamer-cli/internal/monitoring"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect orchestration runs",
	Long:  "Commands for listing and viewing orchestration runs.",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List orchestration runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		limit, _ := cmd.Flags().GetInt("limit")
		runs, err := st.ListRuns(ctx, limit)
		if err != nil {
			return eris.Wrap(err, "runs list")
		}

		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		formatRunsList(os.Stdout, runs)
		return nil
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show full details of a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		run, err := st.GetRun(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "runs show")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(run)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show aggregate engine health",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		lookback, _ := cmd.Flags().GetInt("lookback-hours")
		snap, err := monitoring.NewCollector(st).Collect(ctx, lookback)
		if err != nil {
			return err
		}

		formatStatus(os.Stdout, snap)
		return nil
	},
}

func formatRunsList(out io.Writer, runs []model.Run) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tSTATUS\tROUNDS\tMOVES\tGAIN\tDEGRADED\tCREATED")
	_, _ = fmt.Fprintln(w, "--\t------\t------\t-----\t----\t--------\t-------")

	for _, r := range runs {
		rounds, moves, gain, degraded := "", "", "", ""
		if r.Result != nil {
			rounds = fmt.Sprintf("%d", r.Result.Rounds)
			moves = fmt.Sprintf("%d", r.Result.PlanEntries)
			gain = fmt.Sprintf("%+.1f", r.Result.TotalGain)
			if r.Result.Degraded {
				degraded = "yes"
			}
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			truncateID(r.ID),
			r.Status,
			rounds,
			moves,
			gain,
			degraded,
			r.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	_ = w.Flush()
}

func formatStatus(out io.Writer, snap *monitoring.MetricsSnapshot) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Window:\tlast %dh\n", snap.LookbackHours)
	_, _ = fmt.Fprintf(w, "Total runs:\t%d\n", snap.RunsTotal)
	_, _ = fmt.Fprintf(w, "Complete:\t%d\n", snap.RunsComplete)
	_, _ = fmt.Fprintf(w, "Failed:\t%d\n", snap.RunsFailed)
	_, _ = fmt.Fprintf(w, "Pending:\t%d\n", snap.RunsPending)
	_, _ = fmt.Fprintf(w, "Failure rate:\t%.1f%%\n", snap.FailRate*100)
	_, _ = fmt.Fprintf(w, "Degraded share:\t%.1f%%\n", snap.DegradedShare*100)
	if snap.RunsComplete > 0 {
		_, _ = fmt.Fprintf(w, "Avg rounds:\t%.1f\n", snap.AvgRounds)
		_, _ = fmt.Fprintf(w, "Avg moves:\t%.1f\n", snap.AvgPlanEntries)
		_, _ = fmt.Fprintf(w, "Avg projected gain:\t%+.1f\n", snap.AvgTotalGain)
	}
	_ = w.Flush()
}

func init() {
	runsListCmd.Flags().Int("limit", 50, "max number of runs to display")
	statusCmd.Flags().Int("lookback-hours", 7*24, "metrics window in hours")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(statusCmd)
}
