package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/riskibarqy/livescore-sync/internal/app"
	"github.com/riskibarqy/livescore-sync/internal/observability"
	"github.com/riskibarqy/livescore-sync/internal/usecase"
)

var (
	runRepeat   bool
	runInterval time.Duration
	runExport   bool
)

func init() {
	runCmd.Flags().BoolVar(&runRepeat, "repeat", false, "Keep scraping every --interval until interrupted.")
	runCmd.Flags().DurationVar(&runInterval, "interval", 0, "Interval between cycles in repeat mode (defaults to SCRAPER_INTERVAL).")
	runCmd.Flags().BoolVar(&runExport, "export", false, "Write a full JSON export and a summary when the run ends.")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run [--repeat] [--interval <duration>] [--export]",
	Short: "Renders the live page and stores the matches found on it.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := env.cfg
		logger := env.logger

		if cmd.Flags().Changed("repeat") {
			cfg.ScraperRepeatEnabled = runRepeat
		}
		if runInterval > 0 {
			cfg.ScraperInterval = runInterval
		}
		if cfg.ScraperRepeatEnabled && cfg.ScraperInterval < 5*time.Second {
			return fmt.Errorf("interval must be at least 5s, got %s", cfg.ScraperInterval)
		}

		profiling, err := observability.StartProfiling(cfg, logger)
		if err != nil {
			return err
		}
		defer func() { _ = profiling.Stop(context.Background()) }()

		stores, err := app.OpenStores(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer stores.Close()

		scraper, err := app.NewScraper(cfg, stores, logger)
		if err != nil {
			return err
		}
		defer scraper.Close()

		if cfg.ScraperRepeatEnabled {
			logger.Info("repeat mode started", "interval", cfg.ScraperInterval, "url", cfg.ScraperURL)
			if err := scraper.Runner.Run(ctx); err != nil {
				return err
			}
			logger.Info("repeat mode stopped")
		} else {
			report, err := scraper.Runner.RunOnce(ctx)
			if err != nil {
				return err
			}
			if err := usecase.WriteJSON(cmd.OutOrStdout(), report); err != nil {
				return err
			}
		}

		if !runExport {
			return nil
		}
		return writeExports(cmd, usecase.NewExportService(stores.Matches), cfg.ExportDir, "", true)
	},
}
