package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/boreal-data/transfers-cli/internal/export"
	"github.com/boreal-data/transfers-cli/internal/transform"
)

var (
	exportFormat string
	exportOut    string
	exportYear   string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the latest snapshot to a file",
	Long:  "Writes the latest stored snapshot as an xlsx workbook (one sheet per jurisdiction) or a long-format CSV, optionally filtered to one fiscal year.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		format, err := export.ParseFormat(exportFormat)
		if err != nil {
			return err
		}

		year := exportYear
		if year != "" {
			year, err = transform.NormalizeFiscalYear(year)
			if err != nil {
				return err
			}
		}

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		if year != "" && !env.Catalog.HasFiscalYear(year) {
			return eris.Errorf("fiscal year %s is not in the dataset", year)
		}

		snap, err := env.Store.LatestSnapshot(ctx, env.Catalog.SourceURL)
		if err != nil {
			return err
		}
		if snap == nil {
			return eris.New("no snapshot stored, run 'transfers-cli scrape' first")
		}

		records, err := env.Store.Transfers(ctx, snap.ID)
		if err != nil {
			return err
		}

		if err := export.Write(exportOut, format, records, year); err != nil {
			return err
		}

		zap.L().Info("export complete",
			zap.String("path", exportOut),
			zap.String("format", string(format)),
			zap.String("snapshot_id", snap.ID),
		)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "xlsx", "Output format: xlsx or csv")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "Output file path")
	exportCmd.Flags().StringVar(&exportYear, "year", "", "Restrict the export to one fiscal year, e.g. 2024-25")
	_ = exportCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(exportCmd)
}
