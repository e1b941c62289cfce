package wallet

import (
	"errors"
	"fmt"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/urfave/cli/v2"

	"github.com/relaykit/relayctl/pkg/commands/utils"
	"github.com/relaykit/relayctl/pkg/common"
	"github.com/relaykit/relayctl/pkg/relaying"
)

var DeployCommand = &cli.Command{
	Name:      "deploy",
	Usage:     "Deploy a smart wallet through the relay network",
	ArgsUsage: "[name|address]",
	Flags: common.WithChainFlags(
		common.IndexFlag,
		common.TokenFlag,
		common.TokenAmountFlag,
		common.TokenGasFlag,
		common.VerifierFlag,
		common.ForwarderFlag,
		common.RecovererFlag,
		common.ForceFlagWithUsage("Deploy on mainnet without confirmation"),
	),
	Action: deployAction,
}

func deployAction(cCtx *cli.Context) error {
	ctx := cCtx.Context
	logger := common.LoggerFromContext(cCtx)

	opts, err := deployOptions(cCtx)
	if err != nil {
		return err
	}

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
	index, err := utils.WalletIndex(cCtx, address, entry)
	if err != nil {
		return err
	}
	wallet, err := utils.VerifyWalletAddress(cCtx, preflightCtx, address, index)
	if err != nil {
		return err
	}

	if !cCtx.Bool(common.ForceFlag.Name) {
		if err := utils.ConfirmMainnetNetwork(network); err != nil {
			return err
		}
	}

	formatted := common.FormatWalletDisplay(network, address)
	logger.Info("Deploying smart wallet %s...", formatted)

	deployed, err := preflightCtx.Service.DeploySmartWallet(ctx, *wallet, opts)
	if err != nil {
		if errors.Is(err, relaying.ErrAlreadyDeployed) {
			markDeployed(cCtx, network, address, ethcommon.Address{}, ethcommon.Hash{})
		}
		return err
	}

	txHash := deployed.DeployTransaction.Hash
	markDeployed(cCtx, network, address, deployed.TokenAddress, txHash)

	logger.Info("✅ Smart wallet %s deployed", formatted)
	logger.Info("Transaction: %s", txHash.Hex())
	if receipt := deployed.DeployTransaction.Receipt; receipt != nil {
		logger.Info("Block: %s, gas used: %d", receipt.BlockNumber, receipt.GasUsed)
	}
	return nil
}

func deployOptions(cCtx *cli.Context) (relaying.DeployOptions, error) {
	var opts relaying.DeployOptions
	var err error

	if opts.TokenAddress, err = utils.OptionalAddress(cCtx, common.TokenFlag.Name); err != nil {
		return opts, err
	}
	if opts.TokenAmount, err = utils.OptionalBigInt(cCtx, common.TokenAmountFlag.Name); err != nil {
		return opts, err
	}
	if opts.TokenGas, err = utils.OptionalBigInt(cCtx, common.TokenGasFlag.Name); err != nil {
		return opts, err
	}
	if opts.CallVerifier, err = utils.OptionalAddress(cCtx, common.VerifierFlag.Name); err != nil {
		return opts, err
	}
	if opts.CallForwarder, err = utils.OptionalAddress(cCtx, common.ForwarderFlag.Name); err != nil {
		return opts, err
	}
	if opts.Recoverer, err = utils.OptionalAddress(cCtx, common.RecovererFlag.Name); err != nil {
		return opts, err
	}
	opts.OnlyPreferredRelays = utils.OptionalBool(cCtx, common.OnlyPreferredRelaysFlag.Name)
	return opts, nil
}

// markDeployed only logs on failure; the deployment itself already happened.
func markDeployed(cCtx *cli.Context, network string, address, token ethcommon.Address, txHash ethcommon.Hash) {
	if err := common.MarkWalletDeployed(network, address, token, txHash); err != nil {
		common.LoggerFromContext(cCtx).Warn("Failed to update saved wallet: %v", err)
	}
}
