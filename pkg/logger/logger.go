// Package logger builds the *zap.SugaredLogger used throughout shmvault.
// Every subsystem (driver, backup/restore pipelines, worker pool) takes a
// logger by constructor injection rather than reaching for a package-level
// global, so tests can swap in an observed or discard logger freely.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a production-configured *zap.SugaredLogger tagged with the
// given service name. Verbose callers (the "-v" CLI flag) should use
// NewAt(zapcore.DebugLevel, service) instead.
func New(service string) *zap.SugaredLogger {
	return NewAt(zapcore.InfoLevel, service)
}

// NewAt builds a *zap.SugaredLogger at the given minimum level, tagged with
// the given service name. Encoder output goes to stderr so stdout stays
// free for the analyze-mode table and progress lines.
func NewAt(level zapcore.Level, service string) *zap.SugaredLogger {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	log, err := cfg.Build()
	if err != nil {
		// Building a zap.Config from known-good defaults cannot realistically
		// fail; fall back to a no-op core rather than panic in a CLI tool.
		log = zap.NewNop()
	}

	return log.Sugar().Named(service)
}

// Discard returns a logger that drops everything, for use in tests that
// don't want to assert on or print log output.
func Discard() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
