package network

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/relaykit/relayctl/pkg/commands/utils"
	"github.com/relaykit/relayctl/pkg/common"
)

var ShowCommand = &cli.Command{
	Name:  "show",
	Usage: "Show the active network",
	Flags: []cli.Flag{common.NetworkFlag, common.RpcUrlFlag},
	Action: func(cCtx *cli.Context) error {
		logger := common.LoggerFromContext(cCtx)

		config, err := utils.GetNetworkConfig(cCtx)
		if err != nil {
			return fmt.Errorf("failed to get network config: %w", err)
		}

		defaultNetwork, err := common.GetDefaultNetwork()
		if err != nil {
			logger.Debug("Failed to get default network from global config: %v", err)
		}

		if defaultNetwork != "" || cCtx.String(common.NetworkFlag.Name) != "" {
			logger.Info("Active network: %s", config.Name)
		} else {
			logger.Info("Active network: %s (fallback default)", config.Name)
			logger.Info("Run 'relayctl network set <network>' to set your preferred network")
		}
		logger.Info("Chain ID: %d", config.ChainID)
		logger.Info("RPC URL: %s", config.DefaultRPCURL)
		for _, relay := range config.PreferredRelays {
			logger.Info("Relay: %s", relay)
		}

		if addrs, err := common.ResolveAddresses(config.ChainID); err == nil {
			logger.Info("Relay hub: %s", addrs.RelayHub.Hex())
			logger.Info("Smart wallet factory: %s", addrs.SmartWalletFactory.Hex())
		}
		return nil
	},
}
