package logger

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap/zapcore"
)

// LevelEnvVar selects the log verbosity, 0 (most verbose) to 5 (silent).
const LevelEnvVar = "RELAY_LOG_LEVEL"

// DefaultLevel is used when LevelEnvVar is absent or invalid.
const DefaultLevel = zapcore.InfoLevel

// LevelNone disables every log line.
const LevelNone = zapcore.FatalLevel + 1

// numeric verbosity -> zap level
var verbosityLevels = []zapcore.Level{
	zapcore.DebugLevel, // 0 debug
	zapcore.DebugLevel, // 1 log
	zapcore.InfoLevel,  // 2 info
	zapcore.WarnLevel,  // 3 warning
	zapcore.ErrorLevel, // 4 error
	LevelNone,          // 5 none
}

// ParseLevel converts a numeric verbosity into a zap level. An empty value yields
// DefaultLevel with no error. A non-numeric or out-of-range value yields DefaultLevel
// together with an error describing why it was ignored; callers log it as a warning.
func ParseLevel(raw string) (zapcore.Level, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultLevel, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return DefaultLevel, fmt.Errorf("invalid %s %q: not a number, using default level %s", LevelEnvVar, raw, DefaultLevel)
	}
	if n < 0 || n >= len(verbosityLevels) {
		return DefaultLevel, fmt.Errorf("invalid %s %d: must be between 0 and %d, using default level %s", LevelEnvVar, n, len(verbosityLevels)-1, DefaultLevel)
	}
	return verbosityLevels[n], nil
}
