package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger is used when stdout is not a terminal (CI, pipes, log collectors).
type ZapLogger struct {
	log *zap.SugaredLogger
}

func NewZapLogger(verbose bool) *ZapLogger {
	level := DefaultLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	return NewZapLoggerWithLevel(level)
}

func NewZapLoggerWithLevel(level zapcore.Level) *ZapLogger {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.DisableStacktrace = true
	cfg.DisableCaller = true

	log, err := cfg.Build()
	if err != nil {
		log = zap.NewNop()
	}
	return &ZapLogger{log: log.Sugar()}
}

func (z *ZapLogger) Title(msg string, args ...any) {
	z.log.Infof(msg, args...)
}

func (z *ZapLogger) Info(msg string, args ...any) {
	z.log.Infof(msg, args...)
}

func (z *ZapLogger) Warn(msg string, args ...any) {
	z.log.Warnf(msg, args...)
}

func (z *ZapLogger) Error(msg string, args ...any) {
	z.log.Errorf(msg, args...)
}

func (z *ZapLogger) Debug(msg string, args ...any) {
	z.log.Debugf(msg, args...)
}

// Sync flushes buffered entries.
func (z *ZapLogger) Sync() {
	_ = z.log.Sync()
}
