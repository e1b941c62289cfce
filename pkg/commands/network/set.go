package network

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/relaykit/relayctl/pkg/commands/utils"
	"github.com/relaykit/relayctl/pkg/common"
)

var SetCommand = &cli.Command{
	Name:      "set",
	Usage:     "Set the default network",
	ArgsUsage: "<network>",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "yes",
			Usage: "Skip confirmation prompts (for automation)",
		},
		&cli.StringFlag{
			Name:  "env-file",
			Usage: "Write " + common.NetworkEnvVar + " and " + common.RPCURLEnvVar + " to this dotenv file instead of the global config",
		},
	},
	Action: func(cCtx *cli.Context) error {
		logger := common.LoggerFromContext(cCtx)

		if cCtx.NArg() > 1 {
			return fmt.Errorf("too many arguments - expected at most one network name")
		}

		name, err := utils.GetNetworkInteractive(cCtx, 0)
		if err != nil {
			return fmt.Errorf("failed to get network: %w", err)
		}

		config, exists := common.NetworkConfigs[name]
		if !exists {
			return fmt.Errorf("unknown network: %s\nRun 'relayctl network list' to see available networks", name)
		}

		if common.IsMainnetNetwork(name) && !cCtx.Bool("yes") {
			if err := utils.ConfirmMainnetNetwork(name); err != nil {
				return err
			}
		}

		if envFile := cCtx.String("env-file"); envFile != "" {
			vars := map[string]string{common.NetworkEnvVar: name}
			if config.DefaultRPCURL != "" {
				vars[common.RPCURLEnvVar] = config.DefaultRPCURL
			}
			if err := utils.SetEnvFileVariables(envFile, vars); err != nil {
				return err
			}
			logger.Info("✅ Network set to %s in %s", name, envFile)
			return nil
		}

		if err := common.SetDefaultNetwork(name); err != nil {
			return fmt.Errorf("failed to set network: %w", err)
		}

		logger.Info("✅ Network set to %s", name)
		return nil
	},
}
