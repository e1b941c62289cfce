package wallet

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/relaykit/relayctl/pkg/commands/utils"
	"github.com/relaykit/relayctl/pkg/common"
)

var GenerateCommand = &cli.Command{
	Name:   "generate",
	Usage:  "Compute the smart wallet address for the owner and an index",
	Flags:  common.WithChainFlags(common.IndexFlag, common.NameFlag),
	Action: generateAction,
}

func generateAction(cCtx *cli.Context) error {
	ctx := cCtx.Context
	logger := common.LoggerFromContext(cCtx)

	name := cCtx.String(common.NameFlag.Name)
	if name != "" {
		if err := common.ValidateWalletName(name); err != nil {
			return err
		}
	}

	preflightCtx, err := utils.DoPreflightChecks(cCtx)
	if err != nil {
		return err
	}
	defer preflightCtx.Close()

	index := cCtx.Uint64(common.IndexFlag.Name)
	wallet, err := preflightCtx.Service.GenerateSmartWallet(ctx, index)
	if err != nil {
		return err
	}

	deployed, err := preflightCtx.Service.IsSmartWalletDeployed(ctx, wallet.Address)
	if err != nil {
		return fmt.Errorf("failed to check deployment: %w", err)
	}

	owner, err := preflightCtx.Service.AccountAddress()
	if err != nil {
		return err
	}

	if name != "" {
		entry := common.WalletEntry{
			Address:  wallet.Address.Hex(),
			Index:    index,
			Deployed: deployed,
		}
		if err := common.SaveWallet(preflightCtx.Network.Name, name, entry); err != nil {
			return fmt.Errorf("failed to save wallet: %w", err)
		}
	}

	logger.Info("Smart wallet: %s", common.FormatWalletDisplay(preflightCtx.Network.Name, wallet.Address))
	logger.Info("Owner: %s", owner.Hex())
	logger.Info("Index: %d", index)
	logger.Info("Status: %s", utils.DeployedLabel(deployed))
	if !deployed {
		logger.Info("Deploy it with: relayctl wallet deploy %s", walletRef(name, wallet.Address.Hex(), index))
	}
	return nil
}

func walletRef(name, address string, index uint64) string {
	if name != "" {
		return name
	}
	return fmt.Sprintf("%s --index %d", address, index)
}
