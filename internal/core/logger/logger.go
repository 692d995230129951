package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var globalLogger *zap.Logger

// Init builds the process wide logger.
// "production" emits JSON at the requested level, anything else emits colored
// console output. An unparsable level keeps the preset's default.
func Init(environment string, level string) error {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	if environment == "production" {
		cfg = zap.NewProductionConfig()
	}

	if l, err := zapcore.ParseLevel(level); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(l)
	}

	built, err := cfg.Build(zap.Fields(zap.String("env", environment)))
	if err != nil {
		return err
	}

	globalLogger = built
	return nil
}

// Get returns the global logger, or a no-op logger before Init.
func Get() *zap.Logger {
	if globalLogger == nil {
		return zap.NewNop()
	}
	return globalLogger
}

// Named returns a child of the global logger tagged with a component name.
func Named(component string) *zap.Logger {
	return Get().Named(component)
}

// Audit returns the logger used for irreversible operations such as hard deletes.
func Audit() *zap.Logger {
	return Get().Named("audit").With(zap.Bool("audit", true))
}

// Sync flushes any buffered log entries.
func Sync() {
	if globalLogger != nil {
		_ = globalLogger.Sync()
	}
}
