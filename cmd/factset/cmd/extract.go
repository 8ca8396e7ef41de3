package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/seung-gu/factset-report-analyzer/internal/extract"
	"github.com/seung-gu/factset-report-analyzer/internal/matcher"
	"github.com/seung-gu/factset-report-analyzer/internal/ocr"
	"github.com/seung-gu/factset-report-analyzer/internal/runner"
	"github.com/seung-gu/factset-report-analyzer/internal/storage"
)

var extractProgress bool

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "OCR the stored charts and update the EPS tables",
	Long: `Runs OCR over every chart image whose report date is not yet in
the EPS table, matches quarter labels to values, classifies each bar's
fill, and rewrites the EPS and confidence CSVs after every chart.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg := GetConfig()
		logger := slog.Default()

		charts, err := storage.NewDirStore(cfg.ChartsDir)
		if err != nil {
			return err
		}
		data, err := storage.NewDirStore(cfg.DataDir)
		if err != nil {
			return err
		}

		tessCfg := ocr.TesseractConfig{
			Language:       cfg.OCR.Language,
			MinImageHeight: cfg.OCR.MinImageHeight,
		}
		provider := ocr.NewTesseract(tessCfg, logger)

		matchCfg := matcher.Config{
			BottomPercent: cfg.Matcher.BottomPercent,
			YTolerance:    cfg.Matcher.YTolerance,
			XTolerance:    cfg.Matcher.XTolerance,
		}
		processor := extract.NewProcessor(provider, matchCfg, logger)

		var progress runner.ProgressCallback = runner.NewLogProgressCallback(logger, 10)
		if extractProgress {
			progress = runner.NewConsoleProgressCallback(cmd.ErrOrStderr(), "extract ")
		}

		r := runner.New(processor, charts, data, progress, logger)
		summary, err := r.Run(cmd.Context())
		if err != nil {
			return fmt.Errorf("extraction run: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(),
			"Charts: %d total, %d processed, %d skipped, %d empty, %d failed, table rows: %d\n",
			summary.Total, summary.Processed, summary.Skipped, summary.Empty, summary.Failed, summary.Rows)
		return nil
	},
}

func init() {
	extractCmd.Flags().BoolVar(&extractProgress, "progress", false, "show a console progress bar")
	rootCmd.AddCommand(extractCmd)
}
