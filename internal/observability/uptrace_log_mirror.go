package observability

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	"go.uber.org/zap/zapcore"
)

const uptraceLogInstrumentation = "livescore-sync/internal/platform/logging"

// otelLogCore is a zapcore.Core that re-emits entries as OTel log records.
// Debug entries are never exported, whatever the configured level.
type otelLogCore struct {
	zapcore.LevelEnabler
	logger otellog.Logger
	attrs  []otellog.KeyValue
}

func newOTelLogCore(logger otellog.Logger, level zapcore.Level) zapcore.Core {
	return &otelLogCore{LevelEnabler: max(level, zapcore.InfoLevel), logger: logger}
}

func (c *otelLogCore) With(fields []zapcore.Field) zapcore.Core {
	attrs := make([]otellog.KeyValue, 0, len(c.attrs)+len(fields))
	attrs = append(attrs, c.attrs...)
	attrs = append(attrs, fieldAttrs(fields)...)
	return &otelLogCore{LevelEnabler: c.LevelEnabler, logger: c.logger, attrs: attrs}
}

func (c *otelLogCore) Check(entry zapcore.Entry, checked *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !c.Enabled(entry.Level) {
		return checked
	}
	return checked.AddCore(entry, c)
}

func (c *otelLogCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	ctx := context.Background()
	severity := otelSeverity(entry.Level)
	if !c.logger.Enabled(ctx, otellog.EnabledParameters{Severity: severity, EventName: entry.Message}) {
		return nil
	}

	var record otellog.Record
	record.SetTimestamp(entry.Time)
	record.SetObservedTimestamp(time.Now())
	record.SetSeverity(severity)
	record.SetSeverityText(strings.ToUpper(entry.Level.String()))
	record.SetEventName(entry.Message)
	record.SetBody(otellog.StringValue(entry.Message))
	if entry.LoggerName != "" {
		record.AddAttributes(otellog.String("logger", entry.LoggerName))
	}
	record.AddAttributes(c.attrs...)
	record.AddAttributes(fieldAttrs(fields)...)

	c.logger.Emit(ctx, record)
	return nil
}

func (c *otelLogCore) Sync() error { return nil }

func otelSeverity(level zapcore.Level) otellog.Severity {
	switch level {
	case zapcore.DebugLevel:
		return otellog.SeverityDebug
	case zapcore.InfoLevel:
		return otellog.SeverityInfo
	case zapcore.WarnLevel:
		return otellog.SeverityWarn
	case zapcore.ErrorLevel:
		return otellog.SeverityError
	default:
		return otellog.SeverityFatal
	}
}

func fieldAttrs(fields []zapcore.Field) []otellog.KeyValue {
	out := make([]otellog.KeyValue, 0, len(fields))
	for _, f := range fields {
		if f.Type == zapcore.SkipType {
			continue
		}
		out = append(out, otellog.KeyValue{Key: f.Key, Value: fieldValue(f)})
	}
	return out
}

// fieldValue maps the scalar zap field types directly. Anything else goes
// through zap's own map encoder and is flattened to a string.
func fieldValue(f zapcore.Field) otellog.Value {
	switch f.Type {
	case zapcore.StringType:
		return otellog.StringValue(f.String)
	case zapcore.BoolType:
		return otellog.BoolValue(f.Integer == 1)
	case zapcore.Int64Type, zapcore.Int32Type, zapcore.Int16Type, zapcore.Int8Type:
		return otellog.Int64Value(f.Integer)
	case zapcore.Uint32Type, zapcore.Uint16Type, zapcore.Uint8Type:
		return otellog.Int64Value(f.Integer)
	case zapcore.Uint64Type, zapcore.UintptrType:
		if u := uint64(f.Integer); u <= math.MaxInt64 {
			return otellog.Int64Value(int64(u))
		}
		return otellog.StringValue(fmt.Sprint(uint64(f.Integer)))
	case zapcore.Float64Type:
		return otellog.Float64Value(math.Float64frombits(uint64(f.Integer)))
	case zapcore.Float32Type:
		return otellog.Float64Value(float64(math.Float32frombits(uint32(f.Integer))))
	case zapcore.DurationType:
		return otellog.StringValue(time.Duration(f.Integer).String())
	case zapcore.ErrorType:
		if err, ok := f.Interface.(error); ok && err != nil {
			return otellog.StringValue(err.Error())
		}
		return otellog.Value{}
	case zapcore.StringerType:
		if s, ok := f.Interface.(fmt.Stringer); ok && s != nil {
			return otellog.StringValue(s.String())
		}
		return otellog.Value{}
	case zapcore.BinaryType, zapcore.ByteStringType:
		if b, ok := f.Interface.([]byte); ok {
			return otellog.BytesValue(append([]byte(nil), b...))
		}
	case zapcore.ReflectType:
		if f.Interface == nil {
			return otellog.Value{}
		}
	}

	enc := zapcore.NewMapObjectEncoder()
	f.AddTo(enc)
	if v, ok := enc.Fields[f.Key]; ok && v != nil {
		return otellog.StringValue(fmt.Sprint(v))
	}
	return otellog.Value{}
}
