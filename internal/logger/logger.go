package logger

import (
	"context"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// global is the process-wide logger; contexts without a logger fall back to it.
	//nolint:gochecknoglobals // Every service logs through the same sink.
	global *zap.SugaredLogger
	// level is shared by every logger built with New, so Configure affects them all.
	//nolint:gochecknoglobals // Level changes at startup must reach loggers created earlier.
	level = zap.NewAtomicLevelAt(zap.InfoLevel)
)

func init() { //nolint:gochecknoinits // Packages log before main has parsed flags.
	global = New(nil)
}

// New builds a console logger writing to stdout.
// A nil enabler means the shared level controlled by Configure.
func New(enabler zapcore.LevelEnabler, options ...zap.Option) *zap.SugaredLogger {
	if enabler == nil {
		enabler = level
	}

	//nolint:exhaustruct // Time and name keys are filled below.
	encoderConfig := zapcore.EncoderConfig{
		MessageKey:       "message",
		LevelKey:         "level",
		NameKey:          "logger",
		CallerKey:        "caller",
		StacktraceKey:    "stacktrace",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeLevel:      zapcore.CapitalColorLevelEncoder,
		EncodeDuration:   zapcore.StringDurationEncoder,
		EncodeCaller:     zapcore.ShortCallerEncoder,
		EncodeName:       zapcore.FullNameEncoder,
		ConsoleSeparator: " | ",
	}
	encoderConfig.TimeKey = "time"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.Lock(os.Stdout), enabler)

	return zap.New(core, options...).Sugar()
}

// ParseLogLevel converts a level name such as "warn" or " INFO " to a zap level.
func ParseLogLevel(s string) (zapcore.Level, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return zapcore.InfoLevel, false
	}

	parsed, err := zapcore.ParseLevel(s)
	if err != nil {
		return zapcore.InfoLevel, false
	}

	return parsed, true
}

// Logger returns the global logger.
func Logger() *zap.SugaredLogger {
	return global
}

// Configure applies a textual level such as "debug" or "warn".
// Unknown values keep the current level and report false.
func Configure(name string) bool {
	if name == "" {
		return true
	}

	parsed, ok := ParseLogLevel(name)
	if !ok {
		return false
	}

	level.SetLevel(parsed)

	return true
}

// Debug writes a debug message with the context logger.
func Debug(ctx context.Context, args ...any) {
	FromContext(ctx).Debug(args...)
}

// DebugKV writes a debug message with key-value pairs.
func DebugKV(ctx context.Context, message string, kvs ...any) {
	FromContext(ctx).Debugw(message, kvs...)
}

// Info writes an info message with the context logger.
func Info(ctx context.Context, args ...any) {
	FromContext(ctx).Info(args...)
}

// InfoKV writes an info message with key-value pairs.
func InfoKV(ctx context.Context, message string, kvs ...any) {
	FromContext(ctx).Infow(message, kvs...)
}

// Warn writes a warning with the context logger.
func Warn(ctx context.Context, args ...any) {
	FromContext(ctx).Warn(args...)
}

// WarnKV writes a warning with key-value pairs.
func WarnKV(ctx context.Context, message string, kvs ...any) {
	FromContext(ctx).Warnw(message, kvs...)
}

// ErrorKV writes an error message with key-value pairs.
func ErrorKV(ctx context.Context, message string, kvs ...any) {
	FromContext(ctx).Errorw(message, kvs...)
}
