package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/seung-gu/factset-report-analyzer/internal/downloader"
	"github.com/seung-gu/factset-report-analyzer/internal/storage"
)

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Fetch Earnings Insight report PDFs",
	Long: `Probes the publisher's per-date report URLs backwards from today
and stores every PDF not yet present in the reports directory.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg := GetConfig()

		store, err := storage.NewDirStore(cfg.ReportsDir)
		if err != nil {
			return err
		}

		dlCfg := downloader.Config{
			BaseURL:           cfg.Downloader.BaseURL,
			RequestsPerSecond: cfg.Downloader.RequestsPerSecond,
			MinDate:           cfg.MinDateTime(),
		}
		d := downloader.New(dlCfg, store, nil, slog.Default())

		fetched, err := d.Sync(cmd.Context(), time.Now().UTC())
		if err != nil {
			return fmt.Errorf("sync reports: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Downloaded %d new reports to %s\n", len(fetched), store.Root())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(downloadCmd)
}
