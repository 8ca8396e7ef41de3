package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/seung-gu/factset-report-analyzer/internal/report"
	"github.com/seung-gu/factset-report-analyzer/internal/storage"
)

var chartsCmd = &cobra.Command{
	Use:   "charts",
	Short: "Export the EPS history chart from each report PDF",
	Long: `Scans every stored report PDF for the bottom-up EPS history chart
page and saves the chart image as {YYYYMMDD}.png. Reports whose chart
already exists are skipped.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg := GetConfig()
		logger := slog.Default()

		reports, err := storage.NewDirStore(cfg.ReportsDir)
		if err != nil {
			return err
		}
		charts, err := storage.NewDirStore(cfg.ChartsDir)
		if err != nil {
			return err
		}

		pdfs, err := reports.List(cmd.Context(), ".pdf")
		if err != nil {
			return fmt.Errorf("list reports: %w", err)
		}

		extractor := report.NewExtractor(charts, logger)
		var extracted, skipped, failed int
		for _, name := range pdfs {
			if err := cmd.Context().Err(); err != nil {
				return err
			}
			date, err := report.DateFromPDFName(name)
			if err != nil {
				logger.Warn("skipping report with unparseable name", "report", name, "error", err)
				failed++
				continue
			}
			exists, err := charts.Exists(cmd.Context(), date.Format("20060102")+".png")
			if err != nil {
				return err
			}
			if exists {
				skipped++
				continue
			}
			if _, err := extractor.ExtractChart(cmd.Context(), reports.Path(name)); err != nil {
				logger.Warn("chart extraction failed", "report", name, "error", err)
				failed++
				continue
			}
			extracted++
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Charts: %d extracted, %d skipped, %d failed\n", extracted, skipped, failed)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(chartsCmd)
}
