package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/linkforge/internal/model"
	"github.com/sells-group/linkforge/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect pipeline run history",
	Long:  "Commands for listing and viewing pipeline runs and their artifacts.",
}

// -- runs list --

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List pipeline runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		state, _ := cmd.Flags().GetString("state")
		publisher, _ := cmd.Flags().GetString("publisher")
		limit, _ := cmd.Flags().GetInt("limit")

		runs, err := st.ListRuns(ctx, store.RunFilter{
			FinalState: model.PipelineState(state),
			Publisher:  publisher,
			Limit:      limit,
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
	Use:   "show <job-id>",
	Short: "Show full details of a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		run, err := st.GetRun(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "runs show")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(run)
	},
}

// -- runs artifact --

var runsArtifactCmd = &cobra.Command{
	Use:   "artifact <job-id> <kind>",
	Short: "Print one persisted artifact of a run",
	Long:  "Kinds: job_specification, article, extensions, qc_report, execution_log.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		data, err := st.GetArtifact(ctx, args[0], model.ArtifactKind(args[1]))
		if err != nil {
			return eris.Wrap(err, "runs artifact")
		}
		_, err = os.Stdout.Write(append(data, '\n'))
		return err
	},
}

func init() {
	runsListCmd.Flags().String("state", "", "filter by final state (DELIVER, ABORT)")
	runsListCmd.Flags().String("publisher", "", "filter by publisher domain")
	runsListCmd.Flags().Int("limit", 50, "max number of runs to display")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsArtifactCmd)
	rootCmd.AddCommand(runsCmd)
}

// formatRunsList writes a tabular list of runs to w.
func formatRunsList(out io.Writer, runs []model.Run) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "JOB_ID\tPUBLISHER\tTARGET\tSTATE\tQC\tCREATED")
	_, _ = fmt.Fprintln(w, "------\t---------\t------\t-----\t--\t-------")

	for _, r := range runs {
		qcStatus := ""
		if r.Result != nil && r.Result.QCReport != nil {
			qcStatus = string(r.Result.QCReport.Status)
		}

		target := r.Input.TargetURL
		if len(target) > 40 {
			target = target[:37] + "..."
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			truncateID(r.JobID),
			r.Input.PublisherDomain,
			target,
			r.FinalState,
			qcStatus,
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
