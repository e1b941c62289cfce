package commands

import (
	"fmt"
	"math/big"

	"github.com/urfave/cli/v2"

	"github.com/relaykit/relayctl/pkg/commands/utils"
	"github.com/relaykit/relayctl/pkg/common"
	"github.com/relaykit/relayctl/pkg/relaying"
)

var (
	deployEstimateFlag = &cli.BoolFlag{
		Name:  "deploy",
		Usage: "Estimate a smart wallet deploy instead of a relayed call",
	}
	linearFitFlag = &cli.BoolFlag{
		Name:  "linear-fit",
		Usage: "Use the linear fit over the destination call cost",
	}
	workerFlag = &cli.StringFlag{
		Name:     "worker",
		Usage:    "Relay worker that receives the fee",
		Required: true,
	}
)

// EstimateCommand prices the worst case of a relay or deploy.
var EstimateCommand = &cli.Command{
	Name:  "estimate",
	Usage: "Estimate the maximum cost of a relayed call or deploy",
	Flags: common.WithChainFlags(
		deployEstimateFlag,
		linearFitFlag,
		common.WalletFlag,
		common.IndexFlag,
		common.ToFlag,
		common.DataFlag,
		common.ValueFlag,
		common.FeeFlag,
		common.TokenFlag,
		workerFlag,
		common.VerifierFlag,
		common.ForwarderFlag,
		common.RecovererFlag,
	),
	Action: estimateAction,
}

func estimateAction(cCtx *cli.Context) error {
	logger := common.LoggerFromContext(cCtx)

	opts, err := estimateOptions(cCtx)
	if err != nil {
		return err
	}

	preflightCtx, err := utils.DoPreflightChecks(cCtx)
	if err != nil {
		return err
	}
	defer preflightCtx.Close()

	address, entry, err := common.ResolveWallet(preflightCtx.Network.Name, cCtx.String(common.WalletFlag.Name))
	if err != nil {
		return err
	}
	opts.SmartWallet = utils.SmartWalletFor(address, entry)
	if opts.IsDeploy {
		if opts.SmartWallet.Index, err = utils.WalletIndex(cCtx, address, entry); err != nil {
			return err
		}
	}

	var cost *big.Int
	if cCtx.Bool(linearFitFlag.Name) {
		cost, err = preflightCtx.Service.EstimateMaxPossibleRelayGasWithLinearFit(cCtx.Context, opts)
	} else {
		cost, err = preflightCtx.Service.EstimateMaxPossibleRelayGas(cCtx.Context, opts)
	}
	if err != nil {
		return err
	}

	kind := "relay"
	if opts.IsDeploy {
		kind = "deploy"
	}
	logger.Info("Maximum %s cost: %s wei (%s)", kind, cost.String(), common.FormatNative(cost))
	return nil
}

func estimateOptions(cCtx *cli.Context) (relaying.EstimateOptions, error) {
	opts := relaying.EstimateOptions{IsDeploy: cCtx.Bool(deployEstimateFlag.Name)}
	var err error

	if to := cCtx.String(common.ToFlag.Name); to != "" {
		if opts.To, err = utils.ParseAddress(to, common.ToFlag.Name); err != nil {
			return opts, err
		}
	} else if !opts.IsDeploy {
		return opts, fmt.Errorf("--%s is required", common.ToFlag.Name)
	}
	if opts.RelayWorker, err = utils.ParseAddress(cCtx.String(workerFlag.Name), workerFlag.Name); err != nil {
		return opts, err
	}
	if opts.Data, err = utils.ParseCallData(cCtx.String(common.DataFlag.Name)); err != nil {
		return opts, err
	}
	if opts.Value, err = utils.OptionalBigInt(cCtx, common.ValueFlag.Name); err != nil {
		return opts, err
	}
	if opts.TokenAddress, err = utils.OptionalAddress(cCtx, common.TokenFlag.Name); err != nil {
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

	opts.Fee = cCtx.String(common.FeeFlag.Name)
	if _, err := relaying.ToWei(opts.Fee); err != nil {
		return opts, fmt.Errorf("invalid --%s: %w", common.FeeFlag.Name, err)
	}
	opts.OnlyPreferredRelays = utils.OptionalBool(cCtx, common.OnlyPreferredRelaysFlag.Name)
	return opts, nil
}
