package wallet

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/relaykit/relayctl/pkg/commands/utils"
	"github.com/relaykit/relayctl/pkg/common"
)

var StatusCommand = &cli.Command{
	Name:      "status",
	Usage:     "Check whether a smart wallet is deployed",
	ArgsUsage: "[name|address]",
	Flags:     common.WithChainFlags(),
	Action:    statusAction,
}

func statusAction(cCtx *cli.Context) error {
	ctx := cCtx.Context
	logger := common.LoggerFromContext(cCtx)

	preflightCtx, err := utils.DoPreflightChecks(cCtx)
	if err != nil {
		return err
	}
	defer preflightCtx.Close()
	network := preflightCtx.Network.Name

	address, entry, err := utils.GetWalletInteractive(cCtx, 0, network)
	if err != nil {
		return fmt.Errorf("failed to get wallet: %w", err)
	}

	deployed, err := preflightCtx.Service.IsSmartWalletDeployed(ctx, address)
	if err != nil {
		return fmt.Errorf("failed to check deployment: %w", err)
	}

	logger.Info("Smart wallet: %s", common.FormatWalletDisplay(network, address))
	logger.Info("Status: %s", utils.DeployedLabel(deployed))
	if entry == nil {
		return nil
	}

	logger.Info("Index: %d", entry.Index)
	if entry.Token != "" {
		logger.Info("Fee token: %s", entry.Token)
	}
	if entry.DeployTx != "" {
		logger.Info("Deploy transaction: %s", entry.DeployTx)
	}
	if deployed != entry.Deployed {
		entry.Deployed = deployed
		name := common.GetWalletName(network, address)
		if err := common.SaveWallet(network, name, *entry); err != nil {
			logger.Warn("Failed to update saved wallet %s: %v", name, err)
		}
	}
	return nil
}
