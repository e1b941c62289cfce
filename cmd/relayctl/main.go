package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/relaykit/relayctl/pkg/commands"
	"github.com/relaykit/relayctl/pkg/commands/version"
	"github.com/relaykit/relayctl/pkg/common"
	"github.com/relaykit/relayctl/pkg/hooks"
)

func validateBuildEnvironment() {
	if common.Build == "" {
		log.Fatal("Build environment not properly configured")
	}
}

func main() {
	validateBuildEnvironment()

	ctx := common.WithShutdown(context.Background())

	app := &cli.App{
		Name:  "relayctl",
		Usage: "Deploy smart wallets and relay transactions on RSK",
		Flags: common.GlobalFlags,
		Before: func(cCtx *cli.Context) error {
			err := hooks.LoadEnvFile(cCtx)
			if err != nil {
				return err
			}
			common.WithCLIEnvironment(cCtx)

			// Parse verbose flags from raw argv to capture from subcommand flags
			verbose := common.PeelBoolFromFlags(os.Args[1:], "--verbose", "-v")
			if verbose {
				err := cCtx.Set("verbose", "true")
				if err != nil {
					return fmt.Errorf("failed to set verbose flag globally: %w", err)
				}
			}

			logger := common.GetLoggerFromCLIContext(cCtx)
			cCtx.Context = common.WithLogger(cCtx.Context, logger)

			// Handle first-run setup (network + telemetry)
			if cCtx.Command.Name != "help" && cCtx.Command.Name != "version" && cCtx.Command.Name != "network" && cCtx.Command.Name != "telemetry" {
				if err := hooks.WithFirstRunSetup(cCtx); err != nil {
					logger.Debug("First-run setup failed: %v", err)
				}
			}

			return hooks.WithCommandMetricsContext(cCtx)
		},
		Commands: []*cli.Command{
			commands.WalletCommand,
			commands.RelayCommand,
			commands.TokenCommand,
			commands.EstimateCommand,
			commands.ClaimCommand,
			commands.AuthCommand,
			commands.NetworkCommand,
			version.VersionCommand,
			commands.TelemetryCommand,
		},
		UseShortOptionHandling: true,
	}

	actionChain := hooks.NewActionChain()
	actionChain.Use(hooks.WithMetricEmission)

	hooks.ApplyMiddleware(app.Commands, actionChain)

	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
