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

	"github.com/moorhen-labs/hexfeatures/internal/store"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Inspect fetch run history and recorded artifacts",
	Long:  "Commands for listing fetch runs, showing a single run, and listing the archives a run produced.",
}

// -- status runs --

var statusRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List fetch runs",
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

		status, _ := cmd.Flags().GetString("status")
		dataset, _ := cmd.Flags().GetString("dataset")
		limit, _ := cmd.Flags().GetInt("limit")

		runs, err := st.ListRuns(ctx, store.RunFilter{
			Status:  status,
			Dataset: dataset,
			Limit:   limit,
		})
		if err != nil {
			return eris.Wrap(err, "status runs")
		}

		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		formatRuns(os.Stdout, runs)
		return nil
	},
}

// -- status show --

var statusShowCmd = &cobra.Command{
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
			return eris.Wrap(err, "status show")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(run)
	},
}

// -- status artifacts --

var statusArtifactsCmd = &cobra.Command{
	Use:   "artifacts",
	Short: "List recorded artifacts",
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

		runID, _ := cmd.Flags().GetString("run")
		kind, _ := cmd.Flags().GetString("kind")
		year, _ := cmd.Flags().GetInt("year")
		limit, _ := cmd.Flags().GetInt("limit")

		artifacts, err := st.ListArtifacts(ctx, store.ArtifactFilter{
			RunID: runID,
			Kind:  kind,
			Year:  year,
			Limit: limit,
		})
		if err != nil {
			return eris.Wrap(err, "status artifacts")
		}

		if len(artifacts) == 0 {
			fmt.Fprintln(os.Stderr, "No artifacts found.")
			return nil
		}

		formatArtifacts(os.Stdout, artifacts)
		return nil
	},
}

func init() {
	statusRunsCmd.Flags().String("status", "", "filter by run status (running, complete, failed)")
	statusRunsCmd.Flags().String("dataset", "", "filter by dataset name")
	statusRunsCmd.Flags().Int("limit", 50, "max number of runs to display")

	statusArtifactsCmd.Flags().String("run", "", "filter by run id")
	statusArtifactsCmd.Flags().String("kind", "", "filter by artifact kind (archive, netcdf)")
	statusArtifactsCmd.Flags().Int("year", 0, "filter by data year")
	statusArtifactsCmd.Flags().Int("limit", 100, "max number of artifacts to display")

	statusCmd.AddCommand(statusRunsCmd)
	statusCmd.AddCommand(statusShowCmd)
	statusCmd.AddCommand(statusArtifactsCmd)
	rootCmd.AddCommand(statusCmd)
}

// formatRuns writes a tabular list of runs to w.
func formatRuns(out io.Writer, runs []store.Run) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tDATASET\tSTATUS\tCREATED\tDURATION")
	_, _ = fmt.Fprintln(w, "--\t-------\t------\t-------\t--------")

	for _, r := range runs {
		dur := r.UpdatedAt.Sub(r.CreatedAt).Round(time.Second).String()
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			truncateID(r.ID),
			r.Dataset,
			r.Status,
			r.CreatedAt.Format("2006-01-02 15:04"),
			dur,
		)
	}
	_ = w.Flush()
}

// formatArtifacts writes a tabular list of artifacts to w.
func formatArtifacts(out io.Writer, artifacts []store.Artifact) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tRUN\tKIND\tYEAR\tVERSION\tPATH")
	_, _ = fmt.Fprintln(w, "--\t---\t----\t----\t-------\t----")

	for _, a := range artifacts {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			truncateID(a.ID),
			truncateID(a.RunID),
			a.Kind,
			a.Year,
			a.Version,
			a.Path,
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
