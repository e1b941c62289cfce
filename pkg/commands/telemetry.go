package commands

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/relaykit/relayctl/pkg/common"
	"github.com/relaykit/relayctl/pkg/common/iface"
	"github.com/relaykit/relayctl/pkg/telemetry"
)

// TelemetryCommand allows users to manage telemetry settings
var TelemetryCommand = &cli.Command{
	Name:  "telemetry",
	Usage: "Manage telemetry settings",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "enable",
			Usage: "Enable telemetry collection",
		},
		&cli.BoolFlag{
			Name:  "disable",
			Usage: "Disable telemetry collection",
		},
		&cli.BoolFlag{
			Name:  "status",
			Usage: "Show current telemetry status",
		},
	},
	Action: func(cCtx *cli.Context) error {
		logger := common.LoggerFromContext(cCtx)

		enable := cCtx.Bool("enable")
		disable := cCtx.Bool("disable")
		status := cCtx.Bool("status")

		selected := 0
		for _, set := range []bool{enable, disable, status} {
			if set {
				selected++
			}
		}
		if selected != 1 {
			return fmt.Errorf("specify exactly one of --enable, --disable, or --status")
		}

		switch {
		case enable:
			return setTelemetry(logger, true)
		case disable:
			return setTelemetry(logger, false)
		default:
			return showTelemetryStatus(logger)
		}
	},
}

func showTelemetryStatus(logger iface.Logger) error {
	preference, err := common.GetGlobalTelemetryPreference()
	if err != nil {
		return fmt.Errorf("failed to get global telemetry preference: %w", err)
	}

	switch {
	case preference == nil:
		logger.Info("Telemetry: Not set (defaults to disabled)")
	case *preference:
		logger.Info("Telemetry: Enabled")
	default:
		logger.Info("Telemetry: Disabled")
	}

	if destination := telemetry.Destination(); destination != "" {
		logger.Info("Metrics endpoint: %s", destination)
	} else {
		logger.Info("Metrics endpoint: none (set %s to send metrics)", telemetry.PostHogKeyEnvVar)
	}

	if dir, err := common.GetGlobalConfigDir(); err == nil {
		logger.Debug("Preference stored in %s", dir)
	}
	return nil
}

func setTelemetry(logger iface.Logger, enabled bool) error {
	if err := common.SetGlobalTelemetryPreference(enabled); err != nil {
		return fmt.Errorf("failed to update telemetry preference: %w", err)
	}

	if enabled {
		logger.Info("✅ Telemetry enabled")
	} else {
		logger.Info("❌ Telemetry disabled")
	}
	return nil
}
