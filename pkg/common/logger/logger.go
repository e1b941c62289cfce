package logger

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"go.uber.org/zap/zapcore"
)

// Logger writes human readable lines to a terminal.
type Logger struct {
	level zapcore.Level
	out   io.Writer
	err   io.Writer
}

func NewLogger(verbose bool) *Logger {
	level := DefaultLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	return NewLoggerWithLevel(level)
}

func NewLoggerWithLevel(level zapcore.Level) *Logger {
	return &Logger{
		level: level,
		out:   os.Stdout,
		err:   os.Stderr,
	}
}

func (l *Logger) Title(msg string, args ...any) {
	if !l.level.Enabled(zapcore.InfoLevel) {
		return
	}
	_, _ = fmt.Fprintln(l.out)
	_, _ = color.New(color.Bold).Fprintln(l.out, fmt.Sprintf(msg, args...))
}

func (l *Logger) Info(msg string, args ...any) {
	if !l.level.Enabled(zapcore.InfoLevel) {
		return
	}
	_, _ = fmt.Fprintln(l.out, fmt.Sprintf(msg, args...))
}

func (l *Logger) Warn(msg string, args ...any) {
	if !l.level.Enabled(zapcore.WarnLevel) {
		return
	}
	_, _ = color.New(color.FgYellow).Fprintln(l.err, "Warning: "+fmt.Sprintf(msg, args...))
}

func (l *Logger) Error(msg string, args ...any) {
	if !l.level.Enabled(zapcore.ErrorLevel) {
		return
	}
	_, _ = color.New(color.FgRed).Fprintln(l.err, "Error: "+fmt.Sprintf(msg, args...))
}

func (l *Logger) Debug(msg string, args ...any) {
	if !l.level.Enabled(zapcore.DebugLevel) {
		return
	}
	_, _ = color.New(color.Faint).Fprintln(l.out, fmt.Sprintf(msg, args...))
}
