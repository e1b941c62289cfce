package wallet

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/relaykit/relayctl/pkg/commands/utils"
	"github.com/relaykit/relayctl/pkg/common"
)

var ListCommand = &cli.Command{
	Name:   "list",
	Usage:  "List saved smart wallets for the active network",
	Flags:  append(append([]cli.Flag{}, common.GlobalFlags...), common.NetworkFlag, common.RpcUrlFlag),
	Action: listAction,
}

func listAction(cCtx *cli.Context) error {
	logger := common.LoggerFromContext(cCtx)

	network, err := utils.GetNetworkConfig(cCtx)
	if err != nil {
		return fmt.Errorf("failed to get network config: %w", err)
	}

	names, wallets, err := common.ListWalletNames(network.Name)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		logger.Info("No saved wallets on %s", network.Name)
		logger.Info("Save one with: relayctl wallet generate --name <name>")
		return nil
	}

	logger.Info("Saved wallets on %s:", network.Name)
	for _, name := range names {
		wallet := wallets[name]
		logger.Info("  %s  %s  index=%d  %s",
			color.New(color.Bold).Sprint(name), wallet.Address, wallet.Index, utils.DeployedLabel(wallet.Deployed))
	}
	return nil
}
