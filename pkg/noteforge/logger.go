package noteforge

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps a zap.SugaredLogger so engine code can attach structured
// fields without depending on zap types directly.
type Logger struct {
	sugar *zap.SugaredLogger
	debug bool
}

var (
	globalLogger     *Logger
	globalLoggerOnce sync.Once
	globalLoggerMu   sync.RWMutex
)

func initGlobalLogger() {
	globalLoggerOnce.Do(func() {
		config := GetGlobalConfig()
		globalLogger = NewLogger(config.LogLevel)
	})
}

// NewLogger builds a Logger at the given level (debug, info, warn, error,
// off). Unknown levels fall back to info.
func NewLogger(level string) *Logger {
	zl := zapcore.InfoLevel
	switch level {
	case "debug":
		zl = zapcore.DebugLevel
	case "info":
		zl = zapcore.InfoLevel
	case "warn":
		zl = zapcore.WarnLevel
	case "error":
		zl = zapcore.ErrorLevel
	case "off":
		return &Logger{sugar: zap.NewNop().Sugar()}
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zl)
	cfg.DisableStacktrace = true
	logger, err := cfg.Build()
	if err != nil {
		logger = zap.NewNop()
	}
	return &Logger{sugar: logger.Sugar(), debug: zl == zapcore.DebugLevel}
}

// NewLoggerFromZap wraps an existing zap logger, for callers that already
// run zap and want engine logs routed through it.
func NewLoggerFromZap(logger *zap.Logger) *Logger {
	return &Logger{
		sugar: logger.Sugar(),
		debug: logger.Core().Enabled(zapcore.DebugLevel),
	}
}

// IsDebugMode reports whether debug-level logging is enabled. Hot paths
// check this before assembling field maps.
func (l *Logger) IsDebugMode() bool {
	return l.debug
}

// With returns a child logger with the key/value pairs attached.
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{sugar: l.sugar.With(keysAndValues...), debug: l.debug}
}

func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Infow(msg, keysAndValues...)
}

func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.sugar.Warnw(msg, keysAndValues...)
}

func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, keysAndValues...)
}

// SetLogger replaces the engine-global logger.
func SetLogger(logger *Logger) {
	globalLoggerMu.Lock()
	globalLogger = logger
	globalLoggerMu.Unlock()
}

// GetLogger returns the engine-global logger, initializing it from the
// global configuration on first use.
func GetLogger() *Logger {
	initGlobalLogger()
	globalLoggerMu.RLock()
	defer globalLoggerMu.RUnlock()
	return globalLogger
}
