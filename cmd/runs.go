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

	"github.com/lakeshore-group/coastline-cli/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect run history",
	Long:  "Commands for listing, viewing, and pruning recorded scoring runs.",
}

// -- runs list --

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded runs",
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

		kind, _ := cmd.Flags().GetString("kind")
		limit, _ := cmd.Flags().GetInt("limit")

		runs, err := st.ListRuns(ctx, store.RunFilter{
			Kind:  store.RunKind(kind),
			Limit: limit,
		})
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

// -- runs show --

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

// -- runs segments --

var runsSegmentsCmd = &cobra.Command{
	Use:   "segments <run-id>",
	Short: "Show the per-segment scores of a run",
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

		scores, err := st.SegmentScores(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "runs segments")
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "SEGMENT\tCATEGORY\tSCORE")
		for _, s := range scores {
			_, _ = fmt.Fprintf(w, "%d\t%d\t%.3f\n", s.SegmentID, s.Category, s.Score)
		}
		_ = w.Flush()
		_, _ = printer.Fprintf(os.Stdout, "%d segments\n", len(scores))
		return nil
	},
}

// -- runs prune --

var runsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete runs older than a retention window",
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

		olderThan, _ := cmd.Flags().GetDuration("older-than")
		n, err := st.DeleteRunsBefore(ctx, time.Now().Add(-olderThan))
		if err != nil {
			return eris.Wrap(err, "runs prune")
		}

		_, _ = printer.Fprintf(os.Stdout, "Deleted %d runs.\n", n)
		return nil
	},
}

func init() {
	runsListCmd.Flags().String("kind", "", "filter by run kind (units, similarity)")
	runsListCmd.Flags().Int("limit", 50, "max number of runs to display")

	runsPruneCmd.Flags().Duration("older-than", 30*24*time.Hour, "retention window (e.g. 24h, 720h)")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsSegmentsCmd)
	runsCmd.AddCommand(runsPruneCmd)
	rootCmd.AddCommand(runsCmd)
}

// formatRunsList writes a tabular list of runs to out.
func formatRunsList(out io.Writer, runs []store.Run) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tKIND\tCREATED")
	_, _ = fmt.Fprintln(w, "--\t----\t-------")
	for _, r := range runs {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n",
			truncateID(r.ID),
			r.Kind,
			r.CreatedAt.Format("2006-01-02 15:04"),
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
