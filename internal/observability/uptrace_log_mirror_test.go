package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/embedded"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/riskibarqy/livescore-sync/internal/platform/logging"
)

type recordingOTelLogger struct {
	embedded.Logger
	records []otellog.Record
}

func (l *recordingOTelLogger) Emit(_ context.Context, record otellog.Record) {
	l.records = append(l.records, record)
}

func (l *recordingOTelLogger) Enabled(context.Context, otellog.EnabledParameters) bool {
	return true
}

func recordAttributes(record otellog.Record) map[string]otellog.Value {
	out := make(map[string]otellog.Value)
	record.WalkAttributes(func(kv otellog.KeyValue) bool {
		out[kv.Key] = kv.Value
		return true
	})
	return out
}

func TestOTelLogCore_MirrorsEntries(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	sink := &recordingOTelLogger{}
	logger := logging.FromZap(zap.New(core)).
		WithCore(newOTelLogCore(sink, zapcore.InfoLevel)).
		Named("scrape").
		With("cycle", 7)

	logger.Debug("fragment parsed", "source_id", "KMICP6x0")
	logger.Warn("fragment rejected", "source_id", "SRC00012", "error", errors.New("away_team_name: required"))

	require.Equal(t, 2, logs.Len(), "base core keeps both entries")
	require.Len(t, sink.records, 1, "only the warn entry is exported")

	record := sink.records[0]
	require.Equal(t, "fragment rejected", record.Body().AsString())
	require.Equal(t, otellog.SeverityWarn, record.Severity())

	attrs := recordAttributes(record)
	require.Equal(t, "scrape", attrs["logger"].AsString())
	require.Equal(t, int64(7), attrs["cycle"].AsInt64())
	require.Equal(t, "SRC00012", attrs["source_id"].AsString())
	require.Equal(t, "away_team_name: required", attrs["error"].AsString())
}

func TestOTelLogCore_NeverExportsDebug(t *testing.T) {
	sink := &recordingOTelLogger{}
	logger := logging.NewNop().WithCore(newOTelLogCore(sink, zapcore.DebugLevel))

	logger.Debug("http_request", "http_path", "/api/health", "http_status", 200)
	logger.Info("http_request", "http_path", "/api/matches", "http_status", 200)

	require.Len(t, sink.records, 1)
	require.Equal(t, "/api/matches", recordAttributes(sink.records[0])["http_path"].AsString())
}

func TestFieldValue(t *testing.T) {
	cases := []struct {
		name  string
		field zapcore.Field
		kind  otellog.Kind
		want  any
	}{
		{name: "string", field: zap.String("k", "v"), kind: otellog.KindString, want: "v"},
		{name: "bool", field: zap.Bool("k", true), kind: otellog.KindBool, want: true},
		{name: "int", field: zap.Int("k", 19), kind: otellog.KindInt64, want: int64(19)},
		{name: "float", field: zap.Float64("k", 0.5), kind: otellog.KindFloat64, want: 0.5},
		{name: "duration", field: zap.Duration("k", 1500 * time.Millisecond), kind: otellog.KindString, want: "1.5s"},
		{name: "nil", field: zap.Any("k", nil), kind: otellog.KindEmpty},
		{name: "struct", field: zap.Any("k", struct{ A int }{A: 1}), kind: otellog.KindString},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := fieldValue(tc.field)
			require.Equal(t, tc.kind, v.Kind())
			switch want := tc.want.(type) {
			case string:
				require.Equal(t, want, v.AsString())
			case bool:
				require.Equal(t, want, v.AsBool())
			case int64:
				require.Equal(t, want, v.AsInt64())
			case float64:
				require.InDelta(t, want, v.AsFloat64(), 1e-9)
			}
		})
	}
}
