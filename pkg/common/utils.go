package common

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"regexp"
	"strings"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"github.com/relaykit/relayctl/pkg/common/iface"
	"github.com/relaykit/relayctl/pkg/common/logger"
)

// loggerContextKey is used to store the logger in the context
type loggerContextKey struct{}

// GetLoggerFromCLIContext creates a logger based on the CLI context
// It checks the verbose flag and returns the appropriate logger
func GetLoggerFromCLIContext(cCtx *cli.Context) iface.Logger {
	verbose := cCtx.Bool("verbose")
	return GetLogger(verbose)
}

// GetLogger picks a terminal or structured logger. The level comes from RELAY_LOG_LEVEL
// unless verbose forces debug; an invalid RELAY_LOG_LEVEL is reported as a warning.
func GetLogger(verbose bool) iface.Logger {
	level, levelErr := logger.ParseLevel(os.Getenv(logger.LevelEnvVar))
	if verbose {
		level = zapcore.DebugLevel
	}

	var log iface.Logger
	if IsTTY() {
		log = logger.NewLoggerWithLevel(level)
	} else {
		log = logger.NewZapLoggerWithLevel(level)
	}

	if levelErr != nil {
		log.Warn("%v", levelErr)
	}
	return log
}

// IsTTY reports whether stdout is attached to a terminal.
func IsTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// isCI checks if the code is running in a CI environment like GitHub Actions.
func isCI() bool {
	return os.Getenv("CI") == "true"
}

// WithLogger stores the logger in the context
func WithLogger(ctx context.Context, logger iface.Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey{}, logger)
}

// LoggerFromContext retrieves the logger from the context
// If no logger is found, it returns a logger according to the verbose flag
func LoggerFromContext(cCtx *cli.Context) iface.Logger {
	if logger, ok := cCtx.Context.Value(loggerContextKey{}).(iface.Logger); ok {
		return logger
	}
	return GetLoggerFromCLIContext(cCtx)
}

// PeelBoolFromFlags reports whether a boolean CLI flag is set anywhere in args,
// It supports these forms:
//
//	--verbose
//	--verbose=true|false|1|0|yes|no|t|f
//	--verbose true|false|1|0|yes|no|t|f
//	-v
//	-v=true|false|1|0|yes|no|t|f
//	-v true|false|1|0|yes|no|t|f
//
// The last occurrence wins. If a flag is present without an explicit value, it is treated as true.
func PeelBoolFromFlags(args []string, longFlag, shortFlag string) bool {
	isBoolLiteral := func(s string) (ok bool, value bool) {
		switch strings.ToLower(s) {
		case "1", "t", "true", "yes", "y":
			return true, true
		case "0", "f", "false", "no", "n":
			return true, false
		default:
			return false, false
		}
	}

	value := false

	for i := 0; i < len(args); i++ {
		token := args[i]

		switch {
		case token == longFlag || token == shortFlag:
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				if ok, v := isBoolLiteral(args[i+1]); ok {
					value = v
					i++
					continue
				}
			}
			value = true

		case strings.HasPrefix(token, longFlag+"="):
			if ok, v := isBoolLiteral(strings.TrimPrefix(token, longFlag+"=")); ok {
				value = v
			} else {
				value = true
			}

		case strings.HasPrefix(token, shortFlag+"="):
			if ok, v := isBoolLiteral(strings.TrimPrefix(token, shortFlag+"=")); ok {
				value = v
			} else {
				value = true
			}
		}
	}

	return value
}

var walletNamePattern = regexp.MustCompile(`^[a-z0-9_-]+$`)

// ValidateWalletName validates a friendly smart-wallet name
func ValidateWalletName(name string) error {
	if name == "" {
		return fmt.Errorf("wallet name cannot be empty")
	}
	if len(name) < 2 {
		return fmt.Errorf("wallet name must be at least 2 characters long")
	}
	if len(name) > 64 {
		return fmt.Errorf("wallet name must be 64 characters or less")
	}
	if strings.HasPrefix(name, "0x") {
		return fmt.Errorf("wallet name cannot start with 0x")
	}
	if !walletNamePattern.MatchString(name) {
		return fmt.Errorf("wallet name can only contain lowercase letters, numbers, hyphens (-), and underscores (_)")
	}
	return nil
}

// IsMainnetNetwork checks if the given network is a mainnet network
func IsMainnetNetwork(network string) bool {
	return strings.Contains(network, "mainnet")
}

// FormatNative converts a wei amount to whole native-currency units and formats it as a readable string
func FormatNative(weiAmount *big.Int) string {
	if weiAmount == nil {
		return "0"
	}
	amount := new(big.Float).Quo(new(big.Float).SetInt(weiAmount), big.NewFloat(1e18))
	text := amount.Text('f', 6)

	trimmed := strings.TrimRight(strings.TrimRight(text, "0"), ".")

	if trimmed == "0" && weiAmount.Sign() > 0 {
		return "<0.000001"
	}
	return trimmed
}
