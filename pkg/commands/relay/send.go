package relay

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/relaykit/relayctl/pkg/commands/utils"
	"github.com/relaykit/relayctl/pkg/common"
	"github.com/relaykit/relayctl/pkg/relaying"
)

var SendCommand = &cli.Command{
	Name:  "send",
	Usage: "Relay a call through a deployed smart wallet",
	Flags: common.WithChainFlags(
		common.WalletFlag,
		common.ToFlag,
		common.DataFlag,
		common.ValueFlag,
		common.FeeFlag,
		common.TokenFlag,
		common.GasFlag,
		common.TokenGasFlag,
		common.ForceFlagWithUsage("Relay on mainnet without confirmation"),
	),
	Action: sendAction,
}

func sendAction(cCtx *cli.Context) error {
	ctx := cCtx.Context
	logger := common.LoggerFromContext(cCtx)

	opts, err := relayOptions(cCtx)
	if err != nil {
		return err
	}

	preflightCtx, err := utils.DoPreflightChecks(cCtx)
	if err != nil {
		return err
	}
	defer preflightCtx.Close()
	network := preflightCtx.Network.Name

	address, entry, err := common.ResolveWallet(network, cCtx.String(common.WalletFlag.Name))
	if err != nil {
		return err
	}
	opts.SmartWallet = utils.SmartWalletFor(address, entry)

	if !cCtx.Bool(common.ForceFlag.Name) {
		if err := utils.ConfirmMainnetNetwork(network); err != nil {
			return err
		}
	}

	logger.Info("Relaying call from %s to %s...", common.FormatWalletDisplay(network, address), opts.To.Hex())
	receipt, err := preflightCtx.Service.RelayTransaction(ctx, opts)
	if err != nil {
		return err
	}

	logger.Info("✅ Transaction relayed")
	logger.Info("Transaction: %s", receipt.TxHash.Hex())
	logger.Info("Block: %s, gas used: %d", receipt.BlockNumber, receipt.GasUsed)
	return nil
}

func relayOptions(cCtx *cli.Context) (relaying.RelayOptions, error) {
	var opts relaying.RelayOptions
	var err error

	to := cCtx.String(common.ToFlag.Name)
	if to == "" {
		return opts, fmt.Errorf("--%s is required", common.ToFlag.Name)
	}
	if opts.To, err = utils.ParseAddress(to, common.ToFlag.Name); err != nil {
		return opts, err
	}
	if opts.Data, err = utils.ParseCallData(cCtx.String(common.DataFlag.Name)); err != nil {
		return opts, err
	}
	if opts.Value, err = utils.OptionalBigInt(cCtx, common.ValueFlag.Name); err != nil {
		return opts, err
	}
	if opts.Gas, err = utils.OptionalBigInt(cCtx, common.GasFlag.Name); err != nil {
		return opts, err
	}
	if opts.TokenGas, err = utils.OptionalBigInt(cCtx, common.TokenGasFlag.Name); err != nil {
		return opts, err
	}
	if opts.TokenAddress, err = utils.OptionalAddress(cCtx, common.TokenFlag.Name); err != nil {
		return opts, err
	}

	opts.Fee = cCtx.String(common.FeeFlag.Name)
	if _, err := relaying.ToWei(opts.Fee); err != nil {
		return opts, fmt.Errorf("invalid --%s: %w", common.FeeFlag.Name, err)
	}
	opts.OnlyPreferredRelays = utils.OptionalBool(cCtx, common.OnlyPreferredRelaysFlag.Name)
	return opts, nil
}
