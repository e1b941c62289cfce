package token

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/relaykit/relayctl/pkg/commands/utils"
	"github.com/relaykit/relayctl/pkg/common"
)

var CheckCommand = &cli.Command{
	Name:      "check",
	Usage:     "Check whether both verifiers accept a token",
	ArgsUsage: "<token>",
	Flags:     common.WithChainFlags(),
	Action:    checkAction,
}

func checkAction(cCtx *cli.Context) error {
	logger := common.LoggerFromContext(cCtx)

	if cCtx.NArg() != 1 {
		return fmt.Errorf("expected exactly one token address")
	}
	token, err := utils.ParseAddress(cCtx.Args().First(), "token")
	if err != nil {
		return err
	}

	preflightCtx, err := utils.DoPreflightChecks(cCtx)
	if err != nil {
		return err
	}
	defer preflightCtx.Close()

	allowed, err := preflightCtx.Service.IsAllowedToken(cCtx.Context, token)
	if err != nil {
		return err
	}
	if allowed {
		logger.Info("Token %s is %s", token.Hex(), color.GreenString("allowed"))
	} else {
		logger.Info("Token %s is %s", token.Hex(), color.RedString("not allowed"))
	}
	return nil
}
