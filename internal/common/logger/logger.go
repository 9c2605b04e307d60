// internal/common/logger/logger.go
package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
)

// Logger is the structured logging interface passed through the engine.
// Fields are plain maps so packages stay decoupled from the zap types.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})

	// WithFields returns a child logger carrying the fields on every entry.
	WithFields(fields map[string]interface{}) Logger
	// WithError returns a child logger carrying err as an "error" field.
	WithError(err error) Logger
	// With is an alias for WithFields kept for call-site brevity.
	With(fields map[string]interface{}) Logger
}

// New builds the process-wide zap core. Format "json" selects the
// production encoder; anything else gets the console development encoder.
func New(level, format string) *zap.Logger {
	var lvl zapcore.Level
	switch level {
	case "debug":
		lvl = zap.DebugLevel
	case "warn":
		lvl = zap.WarnLevel
	case "error":
		lvl = zap.ErrorLevel
	default:
		lvl = zap.InfoLevel
	}

	var cfg zap.Config
	if format == "json" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	zl, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return zap.NewNop()
	}
	return zl
}

// NewZapAdapter wraps an already-built zap logger in the Logger interface.
func NewZapAdapter(zl *zap.Logger) Logger {
	return &zapLogger{zl: zl}
}

// NewTestLogger returns a Logger whose output goes through the test runner,
// so log lines show up only when a test fails or -v is set.
func NewTestLogger(t testing.TB) Logger {
	return &zapLogger{zl: zaptest.NewLogger(t)}
}

// NewNoOpLogger returns a Logger that discards everything.
func NewNoOpLogger() Logger {
	return &zapLogger{zl: zap.NewNop()}
}

type zapLogger struct {
	zl *zap.Logger
}

func (l *zapLogger) Debug(msg string, fields map[string]interface{}) {
	l.zl.Debug(msg, toZapFields(fields)...)
}

func (l *zapLogger) Info(msg string, fields map[string]interface{}) {
	l.zl.Info(msg, toZapFields(fields)...)
}

func (l *zapLogger) Warn(msg string, fields map[string]interface{}) {
	l.zl.Warn(msg, toZapFields(fields)...)
}

func (l *zapLogger) Error(msg string, fields map[string]interface{}) {
	l.zl.Error(msg, toZapFields(fields)...)
}

func (l *zapLogger) WithFields(fields map[string]interface{}) Logger {
	if len(fields) == 0 {
		return l
	}
	return &zapLogger{zl: l.zl.With(toZapFields(fields)...)}
}

func (l *zapLogger) WithError(err error) Logger {
	if err == nil {
		return l
	}
	return &zapLogger{zl: l.zl.With(zap.Error(err))}
}

func (l *zapLogger) With(fields map[string]interface{}) Logger {
	return l.WithFields(fields)
}

func toZapFields(fields map[string]interface{}) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(fields))
	for k, v := range fields {
		out = append(out, zap.Any(k, v))
	}
	return out
}
