package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/livescore-sync/internal/config"
	"github.com/riskibarqy/livescore-sync/internal/platform/logging"
)

func TestUptraceOffReason(t *testing.T) {
	require.Equal(t, "UPTRACE_ENABLED=false", uptraceOffReason(config.Config{UptraceDSN: "https://x@uptrace.dev/1"}))
	require.Equal(t, "UPTRACE_DSN empty", uptraceOffReason(config.Config{UptraceEnabled: true, UptraceDSN: "  "}))
	require.Empty(t, uptraceOffReason(config.Config{UptraceEnabled: true, UptraceDSN: "https://x@uptrace.dev/1"}))
}

func TestInitUptrace_DisabledReturnsLoggerUnchanged(t *testing.T) {
	cfg := config.Config{
		ServiceName:    "livescore-sync",
		ServiceVersion: "dev",
		AppEnv:         config.EnvDev,
	}
	base := logging.NewNop()

	logger, shutdown, err := InitUptrace(cfg, base)
	require.NoError(t, err)
	require.Same(t, base, logger)
	require.NoError(t, shutdown(context.Background()))
}
