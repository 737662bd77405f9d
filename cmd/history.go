package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/blueline-sports/streamer-cli/internal/model"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect the recommendation history",
	Long:  "Commands for listing past recommendations and recording their observed outcomes.",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List past recommendation records",
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

		since, _ := cmd.Flags().GetDuration("since")
		asJSON, _ := cmd.Flags().GetBool("json")

		records, err := st.ReadHistory(ctx, time.Now().Add(-since))
		if err != nil {
			return eris.Wrap(err, "history list")
		}

		if len(records) == 0 {
			fmt.Fprintln(os.Stderr, "No history records found.")
			return nil
		}

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(records)
		}

		formatHistory(os.Stdout, records)
		return nil
	},
}

var historyOutcomeCmd = &cobra.Command{
	Use:   "outcome <record-id>",
	Short: "Record the observed outcome of a past recommendation",
	Long:  "Appends a corrected copy of the record carrying the outcome; the original record is never mutated.",
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

		reversed, _ := cmd.Flags().GetBool("reversed")
		positive, _ := cmd.Flags().GetBool("positive")
		note, _ := cmd.Flags().GetString("note")

		// Locate the original within the last year.
		records, err := st.ReadHistory(ctx, time.Now().AddDate(-1, 0, 0))
		if err != nil {
			return eris.Wrap(err, "history outcome")
		}
		var original *model.HistoricalRecord
		for i := range records {
			if records[i].ID == args[0] {
				original = &records[i]
				break
			}
		}
		if original == nil {
			return eris.Errorf("history record %s not found", args[0])
		}

		updated := *original
		updated.ID = ""
		updated.Timestamp = time.Now().UTC()
		updated.Outcome = &model.Outcome{Reversed: reversed, Positive: positive, Note: note}

		if err := st.AppendHistory(ctx, updated); err != nil {
			return eris.Wrap(err, "append outcome record")
		}
		fmt.Fprintf(os.Stdout, "Outcome recorded for %s\n", args[0])
		return nil
	},
}

func formatHistory(out io.Writer, records []model.HistoricalRecord) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tDATE\tPLAYERS\tOUTCOME\tDECISION")
	_, _ = fmt.Fprintln(w, "--\t----\t-------\t-------\t--------")

	for _, r := range records {
		outcome := ""
		if r.Outcome != nil {
			switch {
			case r.Outcome.Reversed && r.Outcome.Positive:
				outcome = "reversed+"
			case r.Outcome.Reversed:
				outcome = "reversed"
			case r.Outcome.Positive:
				outcome = "positive"
			default:
				outcome = "negative"
			}
		}

		players := fmt.Sprintf("%d", len(r.Players))
		decision := r.Decision
		if len(decision) > 60 {
			decision = decision[:57] + "..."
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			truncateID(r.ID),
			r.Timestamp.Format("2006-01-02"),
			players,
			outcome,
			decision,
		)
	}
	_ = w.Flush()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func init() {
	historyListCmd.Flags().Duration("since", 90*24*time.Hour, "time window (e.g. 720h)")
	historyListCmd.Flags().Bool("json", false, "emit records as JSON")

	historyOutcomeCmd.Flags().Bool("reversed", false, "the recommended move was later reversed")
	historyOutcomeCmd.Flags().Bool("positive", false, "the outcome was positive for the roster")
	historyOutcomeCmd.Flags().String("note", "", "free-form outcome note")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyOutcomeCmd)
	rootCmd.AddCommand(historyCmd)
}
