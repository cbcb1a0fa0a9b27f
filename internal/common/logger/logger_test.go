package logger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func createObservedLogger(level zapcore.Level) (Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return NewZapAdapter(zap.New(core)), logs
}

func TestNew_Level(t *testing.T) {
	tests := []struct {
		level string
		want  zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"", zapcore.InfoLevel},
		{"verbose", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			l := New(tt.level, "json")
			assert.True(t, l.Core().Enabled(tt.want))
			if tt.want > zapcore.DebugLevel {
				assert.False(t, l.Core().Enabled(tt.want-1))
			}
		})
	}
}

func TestZapAdapter_Fields(t *testing.T) {
	log, logs := createObservedLogger(zapcore.DebugLevel)

	log.WithFields(map[string]interface{}{"userId": "user-1"}).
		Warn("channel failed", map[string]interface{}{"channel": "email", "cause": errors.New("smtp down")})

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	fields := entry.ContextMap()
	assert.Equal(t, "user-1", fields["userId"])
	assert.Equal(t, "email", fields["channel"])
	assert.Equal(t, "smtp down", fields["cause"])
}

func TestWithTrace(t *testing.T) {
	log, logs := createObservedLogger(zapcore.InfoLevel)

	WithTrace(context.Background(), log).Info("no span", nil)
	assert.NotContains(t, logs.All()[0].ContextMap(), "traceId")

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: trace.TraceID{1},
		SpanID:  trace.SpanID{2},
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)
	WithTrace(ctx, log).Info("with span", nil)

	fields := logs.All()[1].ContextMap()
	assert.Equal(t, sc.TraceID().String(), fields["traceId"])
	assert.Equal(t, sc.SpanID().String(), fields["spanId"])
}
