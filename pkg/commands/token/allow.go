package token

import (
	"fmt"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/urfave/cli/v2"

	"github.com/relaykit/relayctl/pkg/commands/utils"
	"github.com/relaykit/relayctl/pkg/common"
)

var accountFlag = &cli.StringFlag{
	Name:  "account",
	Usage: "Verifier owner sending the transactions; defaults to the signing account",
}

var AllowCommand = &cli.Command{
	Name:      "allow",
	Usage:     "Add a token to the deploy and relay verifiers",
	ArgsUsage: "<token>",
	Flags: common.WithChainFlags(
		accountFlag,
		common.ForceFlagWithUsage("Allow on mainnet without confirmation"),
	),
	Action: allowAction,
}

func allowAction(cCtx *cli.Context) error {
	logger := common.LoggerFromContext(cCtx)

	if cCtx.NArg() != 1 {
		return fmt.Errorf("expected exactly one token address")
	}
	token, err := utils.ParseAddress(cCtx.Args().First(), "token")
	if err != nil {
		return err
	}
	account, err := utils.OptionalAddress(cCtx, accountFlag.Name)
	if err != nil {
		return err
	}

	preflightCtx, err := utils.DoPreflightChecks(cCtx)
	if err != nil {
		return err
	}
	defer preflightCtx.Close()

	if !cCtx.Bool(common.ForceFlag.Name) {
		if err := utils.ConfirmMainnetNetwork(preflightCtx.Network.Name); err != nil {
			return err
		}
	}

	var from ethcommon.Address
	if account != nil {
		from = *account
	}
	if err := preflightCtx.Service.AllowToken(cCtx.Context, token, from); err != nil {
		return err
	}

	logger.Info("✅ Token %s allowed on %s", token.Hex(), preflightCtx.Network.Name)
	return nil
}
