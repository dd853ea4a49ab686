package observability

import (
	"context"
	"strings"

	"github.com/riskibarqy/livescore-sync/internal/config"
	"github.com/riskibarqy/livescore-sync/internal/platform/logging"
	"github.com/uptrace/uptrace-go/uptrace"
	"go.opentelemetry.io/otel/attribute"
	otellog "go.opentelemetry.io/otel/log"
	otelglobal "go.opentelemetry.io/otel/log/global"
)

// ShutdownFunc flushes and stops exporters started by InitUptrace.
type ShutdownFunc func(context.Context) error

func noopShutdown(context.Context) error { return nil }

// uptraceOffReason reports why export stays off, or "" when it is on.
func uptraceOffReason(cfg config.Config) string {
	switch {
	case !cfg.UptraceEnabled:
		return "UPTRACE_ENABLED=false"
	case strings.TrimSpace(cfg.UptraceDSN) == "":
		return "UPTRACE_DSN empty"
	default:
		return ""
	}
}

// InitUptrace installs the global OpenTelemetry providers. When log export is
// on, the returned logger also writes every entry to the OTel log pipeline;
// otherwise logger is returned as is.
func InitUptrace(cfg config.Config, logger *logging.Logger) (*logging.Logger, ShutdownFunc, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if reason := uptraceOffReason(cfg); reason != "" {
		logger.Info("uptrace disabled", "reason", reason)
		return logger, noopShutdown, nil
	}

	uptrace.ConfigureOpentelemetry(
		uptrace.WithDSN(cfg.UptraceDSN),
		uptrace.WithServiceName(cfg.ServiceName),
		uptrace.WithServiceVersion(cfg.ServiceVersion),
		uptrace.WithDeploymentEnvironment(cfg.AppEnv),
		uptrace.WithResourceAttributes(attribute.String("livescore.store_driver", cfg.StoreDriver)),
		uptrace.WithLoggingEnabled(cfg.UptraceLogsEnabled),
	)

	if cfg.UptraceLogsEnabled {
		otelLogger := otelglobal.Logger(uptraceLogInstrumentation,
			otellog.WithInstrumentationVersion(cfg.ServiceVersion))
		logger = logger.WithCore(newOTelLogCore(otelLogger, cfg.LogLevel))
	}
	logger.Info("uptrace enabled",
		"service_name", cfg.ServiceName,
		"environment", cfg.AppEnv,
		"logs_enabled", cfg.UptraceLogsEnabled,
	)
	return logger, uptrace.Shutdown, nil
}
