package network

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/relaykit/relayctl/pkg/commands/utils"
	"github.com/relaykit/relayctl/pkg/common"
)

var ListCommand = &cli.Command{
	Name:  "list",
	Usage: "List available networks",
	Flags: []cli.Flag{common.NetworkFlag, common.RpcUrlFlag},
	Action: func(cCtx *cli.Context) error {
		logger := common.LoggerFromContext(cCtx)

		active, err := utils.GetNetworkConfig(cCtx)
		if err != nil {
			return fmt.Errorf("failed to get active network: %w", err)
		}

		logger.Info("Available networks:")
		for _, name := range utils.NetworkNames() {
			config := common.NetworkConfigs[name]
			marker := ""
			if name == active.Name {
				marker = " (active)"
			}
			logger.Info("  • %s %s [chain %d]%s", name, utils.GetNetworkDescription(name, config.Name, true), config.ChainID, marker)
		}
		return nil
	},
}
