package common

import (
	"fmt"

	"github.com/relaykit/relayctl/pkg/common/iface"
)

// TelemetryPromptOptions controls how the telemetry prompt behaves
type TelemetryPromptOptions struct {
	// EnableTelemetry enables telemetry without prompting (--enable-telemetry)
	EnableTelemetry bool
	// DisableTelemetry disables telemetry without prompting (--disable-telemetry)
	DisableTelemetry bool
	// SkipPromptInCI disables telemetry when CI=true
	SkipPromptInCI bool
}

// ShowTelemetryNotice prints the first-run notice and returns the resulting preference.
// Explicit flags win over everything else.
func ShowTelemetryNotice(logger iface.Logger, opts TelemetryPromptOptions) bool {
	if opts.EnableTelemetry {
		fmt.Println("✅ Telemetry enabled via --enable-telemetry flag")
		return true
	}
	if opts.DisableTelemetry {
		fmt.Println("❌ Telemetry disabled via --disable-telemetry flag")
		return false
	}

	if opts.SkipPromptInCI && isCI() {
		logger.Debug("CI environment detected, telemetry disabled by default")
		return false
	}

	fmt.Println()
	fmt.Println("📊 Telemetry is enabled to help us improve relayctl")
	fmt.Println("   Only command names, durations and outcomes are collected. Never private keys.")
	fmt.Println()
	fmt.Println("   To opt out: relayctl telemetry --disable")
	fmt.Println("   View status: relayctl telemetry --status")
	fmt.Println()
	return true
}
