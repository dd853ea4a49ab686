package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/riskibarqy/livescore-sync/internal/app"
	"github.com/riskibarqy/livescore-sync/internal/usecase"
)

var (
	extractOut string
	extractRef string
)

func init() {
	extractCmd.Flags().StringVar(&extractOut, "out", "", "Write the export to this file instead of stdout.")
	extractCmd.Flags().StringVar(&extractRef, "ref", "", "Reference time (RFC3339) used for match dates. Defaults to now.")
	rootCmd.AddCommand(extractCmd)
}

var extractCmd = &cobra.Command{
	Use:   "extract <page.html> [--out <file>] [--ref <RFC3339>]",
	Short: "Runs the pipeline on a saved page against an in-memory store.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		ref, err := parseRef(extractRef)
		if err != nil {
			return err
		}
		doc, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read page: %w", err)
		}

		stores := app.NewMemoryStores()
		defer stores.Close()

		service, err := app.NewScrapeService(env.cfg, stores, nil, env.logger)
		if err != nil {
			return err
		}
		report, err := service.RunCycle(ctx, doc, ref)
		if err != nil {
			return err
		}
		env.logger.Info("extract finished",
			"fragments", report.Fragments,
			"normalized", report.Normalized,
			"rejected", len(report.Rejections),
		)

		export, err := usecase.NewExportService(stores.Matches).Export(ctx, "")
		if err != nil {
			return err
		}

		if extractOut == "" {
			return usecase.WriteJSON(cmd.OutOrStdout(), export)
		}
		_, err = writeJSONFile(extractOut, export)
		return err
	},
}

func parseRef(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	ref, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --ref %q: %w", raw, err)
	}
	return ref, nil
}

