package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// TestParseLogLevel verifies mapping from strings to zapcore.Level and handling of unknown values.
func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]zapcore.Level{
		"debug":  zapcore.DebugLevel,
		" INFO ": zapcore.InfoLevel,
		"warn":   zapcore.WarnLevel,
		"error":  zapcore.ErrorLevel,
		"fatal":  zapcore.FatalLevel,
	}
	for s, lvl := range cases {
		got, ok := ParseLogLevel(s)
		require.True(t, ok)
		require.Equal(t, lvl, got)
	}

	_, ok := ParseLogLevel("unknown")
	require.False(t, ok)
}

// TestContextLogger verifies that loggers travel through contexts with their fields.
func TestContextLogger(t *testing.T) {
	t.Parallel()

	require.Same(t, Logger(), FromContext(context.Background()))

	core, logs := observer.New(zapcore.DebugLevel)
	ctx := ToContext(context.Background(), zap.New(core).Sugar())
	ctx = WithName(ctx, "arbiter")
	ctx = WithKV(ctx, "alert_id", "alert-1")

	InfoKV(ctx, "Submission resolved", "outcome", "accepted")

	entries := logs.All()
	require.Len(t, entries, 1)
	require.Equal(t, "arbiter", entries[0].LoggerName)
	require.Equal(t, "alert-1", entries[0].ContextMap()["alert_id"])
	require.Equal(t, "accepted", entries[0].ContextMap()["outcome"])
}

// TestConfigure rejects unknown level names.
func TestConfigure(t *testing.T) {
	t.Parallel()

	require.True(t, Configure(""))
	require.False(t, Configure("loud"))
}
