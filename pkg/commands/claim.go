package commands

import (
	"fmt"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/urfave/cli/v2"

	"github.com/relaykit/relayctl/pkg/commands/utils"
	"github.com/relaykit/relayctl/pkg/common"
)

var ClaimCommand = &cli.Command{
	Name:      "claim",
	Usage:     "Penalize a relay manager for a misbehaving transaction",
	ArgsUsage: "[tx-hash]",
	Flags:     common.WithChainFlags(),
	Action:    claimAction,
}

func claimAction(cCtx *cli.Context) error {
	preflightCtx, err := utils.DoPreflightChecks(cCtx)
	if err != nil {
		return err
	}
	defer preflightCtx.Close()

	var receipt *types.Receipt
	if cCtx.NArg() > 0 {
		raw, err := hexutil.Decode(cCtx.Args().First())
		if err != nil || len(raw) != 32 {
			return fmt.Errorf("invalid transaction hash: %q", cCtx.Args().First())
		}
		receipt, err = preflightCtx.Caller.TransactionReceipt(cCtx.Context, ethcommon.BytesToHash(raw))
		if err != nil {
			return fmt.Errorf("failed to fetch receipt: %w", err)
		}
	}

	return preflightCtx.Service.Claim(cCtx.Context, receipt)
}
