// Package log provides the structured logger used by every Hootenanny
// process. It wraps zap behind a small interface so call sites never
// import zap directly, and so tests can swap in a no-op implementation.
package log

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the structured logging interface shared by hootenanny,
// chaosgarden, and holler.
type Logger interface {
	With(fields ...zap.Field) Logger
	Debug(msg string, fields ...zap.Field)
	Info(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
	Error(msg string, fields ...zap.Field)
	Sync() error
}

type zapLogger struct {
	l *zap.Logger
}

// New builds a production logger: JSON to stdout at the given level.
func New(level zapcore.Level, component string) Logger {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.OutputPaths = []string{"stdout"}
	l, err := cfg.Build()
	if err != nil {
		// Fall back to a bare core rather than panic; logging must never
		// take a process down.
		core := zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), zapcore.AddSync(os.Stdout), level)
		l = zap.New(core)
	}
	return &zapLogger{l: l.With(zap.String("component", component))}
}

func (z *zapLogger) With(fields ...zap.Field) Logger { return &zapLogger{l: z.l.With(fields...)} }
func (z *zapLogger) Debug(msg string, fields ...zap.Field) { z.l.Debug(msg, fields...) }
func (z *zapLogger) Info(msg string, fields ...zap.Field)  { z.l.Info(msg, fields...) }
func (z *zapLogger) Warn(msg string, fields ...zap.Field)  { z.l.Warn(msg, fields...) }
func (z *zapLogger) Error(msg string, fields ...zap.Field) { z.l.Error(msg, fields...) }
func (z *zapLogger) Sync() error                           { return z.l.Sync() }

// noOp is a logger that discards everything. Used by tests and by any
// process run with logging disabled.
type noOp struct{}

// NewNoOp returns a logger that discards all output.
func NewNoOp() Logger { return noOp{} }

func (noOp) With(fields ...zap.Field) Logger          { return noOp{} }
func (noOp) Debug(msg string, fields ...zap.Field) {}
func (noOp) Info(msg string, fields ...zap.Field)  {}
func (noOp) Warn(msg string, fields ...zap.Field)  {}
func (noOp) Error(msg string, fields ...zap.Field) {}
func (noOp) Sync() error                           { return nil }
