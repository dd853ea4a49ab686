package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/riskibarqy/livescore-sync/internal/app"
	"github.com/riskibarqy/livescore-sync/internal/usecase"
)

var (
	exportStatus  string
	exportSummary bool
	exportDir     string
)

func init() {
	exportCmd.Flags().StringVar(&exportStatus, "status", "", "Only export matches in this status (live, finished, scheduled, ...).")
	exportCmd.Flags().BoolVar(&exportSummary, "summary", false, "Also write the per-status summary.")
	exportCmd.Flags().StringVar(&exportDir, "dir", "", "Output directory (defaults to EXPORT_DIR).")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export [--status <status>] [--summary] [--dir <path>]",
	Short: "Writes the stored matches to timestamped JSON files.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := env.cfg

		dir := exportDir
		if dir == "" {
			dir = cfg.ExportDir
		}

		stores, err := app.OpenStores(ctx, cfg, env.logger)
		if err != nil {
			return err
		}
		defer stores.Close()

		return writeExports(cmd, usecase.NewExportService(stores.Matches), dir, exportStatus, exportSummary)
	},
}

func writeExports(cmd *cobra.Command, service *usecase.ExportService, dir, status string, summary bool) error {
	ctx := cmd.Context()
	now := time.Now()

	full, err := service.Export(ctx, status)
	if err != nil {
		return err
	}
	path, err := writeJSONFile(usecase.ExportPath(dir, strings.ToLower(status), now), full)
	if err != nil {
		return err
	}
	env.logger.Info("export written", "path", path, "total_matches", full.TotalMatches)

	if !summary {
		return nil
	}
	sum, err := service.Summary(ctx)
	if err != nil {
		return err
	}
	path, err = writeJSONFile(usecase.ExportPath(dir, "summary", now), sum)
	if err != nil {
		return err
	}
	env.logger.Info("summary written", "path", path, "total_matches", sum.TotalMatches)
	return nil
}

func writeJSONFile(path string, v any) (string, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create export file: %w", err)
	}
	if err := usecase.WriteJSON(f, v); err != nil {
		_ = f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close export file: %w", err)
	}
	return path, nil
}
