package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/boreal-data/transfers-cli/internal/monitoring"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show dataset freshness",
	Long:  "Displays the latest stored snapshot and whether it is stale relative to the configured maximum age.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		st, err := env.Collector.Collect(ctx)
		if err != nil {
			return err
		}

		if !st.HasSnapshot {
			zap.L().Info("no snapshot stored, run 'transfers-cli scrape' to fetch the dataset")
			return nil
		}

		formatStatus(cmd.OutOrStdout(), st)
		return nil
	},
}

// formatStatus writes a tabular representation of the dataset status to w.
func formatStatus(out io.Writer, st *monitoring.DatasetStatus) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "SNAPSHOT\tSCRAPED\tAGE\tTABLES\tROWS\tSTALE")
	_, _ = fmt.Fprintln(w, "--------\t-------\t---\t------\t----\t-----")
	_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%t\n",
		st.SnapshotID,
		st.ScrapedAt.Format("2006-01-02 15:04"),
		st.Age,
		st.TableCount,
		st.RowCount,
		st.Stale,
	)
	_ = w.Flush()
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
