package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/riskibarqy/livescore-sync/internal/config"
	"github.com/riskibarqy/livescore-sync/internal/observability"
	"github.com/riskibarqy/livescore-sync/internal/platform/logging"
)

type runtimeEnv struct {
	cfg      config.Config
	logger   *logging.Logger
	shutdown func(context.Context) error
}

var env runtimeEnv

var rootCmd = &cobra.Command{
	Use:           "scraper",
	Short:         "scraper collects live football matches and stores them.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		logger := logging.NewConsole(cfg.LogLevel, cmd.ErrOrStderr())
		logger, shutdown, err := observability.InitUptrace(cfg, logger)
		if err != nil {
			return fmt.Errorf("init uptrace: %w", err)
		}
		logging.SetDefault(logger)

		env = runtimeEnv{cfg: cfg, logger: logger, shutdown: shutdown}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		defer func() { _ = env.logger.Sync() }()
		if env.shutdown == nil {
			return nil
		}
		return env.shutdown(context.Background())
	},
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
