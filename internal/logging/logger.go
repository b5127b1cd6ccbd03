// Package logging provides the process-wide structured logger for judgecore.
package logging

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logger *zap.Logger
	sugar  *zap.SugaredLogger
	once   sync.Once
)

// Init initializes the global logger at the given level. Passing quiet=true
// silences all output regardless of level. Safe to call multiple times;
// only the first call takes effect.
func Init(level zapcore.Level, quiet bool) {
	once.Do(func() {
		if quiet {
			logger = zap.NewNop()
			sugar = logger.Sugar()
			return
		}

		var cfg zap.Config
		if os.Getenv("JUDGECORE_ENV") == "production" {
			cfg = zap.NewProductionConfig()
			cfg.EncoderConfig.TimeKey = "ts"
			cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		} else {
			cfg = zap.NewDevelopmentConfig()
			cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
		cfg.Level = zap.NewAtomicLevelAt(level)

		built, err := cfg.Build(zap.AddCallerSkip(1))
		if err != nil {
			built = zap.NewNop()
		}
		logger = built
		sugar = logger.Sugar()
	})
}

// L returns the global structured logger, initializing it at Warn level if
// Init was never called.
func L() *zap.Logger {
	if logger == nil {
		Init(zapcore.WarnLevel, false)
	}
	return logger
}

// S returns the global sugared (printf-style) logger.
func S() *zap.SugaredLogger {
	if sugar == nil {
		Init(zapcore.WarnLevel, false)
	}
	return sugar
}

// Sync flushes any buffered log entries. Call before process exit.
func Sync() {
	if logger != nil {
		_ = logger.Sync()
	}
}

// LevelForVerbosity maps the CLI's repeated -v count to a zap level. The
// caller is expected to check --quiet separately (see Init) since quiet
// always wins regardless of how many -v were given.
func LevelForVerbosity(verbosity int) zapcore.Level {
	switch {
	case verbosity <= 0:
		return zapcore.WarnLevel
	case verbosity == 1:
		return zapcore.InfoLevel
	default:
		return zapcore.DebugLevel
	}
}
