package token

import (
	"github.com/urfave/cli/v2"

	"github.com/relaykit/relayctl/pkg/commands/utils"
	"github.com/relaykit/relayctl/pkg/common"
)

var ListCommand = &cli.Command{
	Name:   "list",
	Usage:  "List tokens accepted by the verifiers",
	Flags:  common.WithChainFlags(),
	Action: listAction,
}

func listAction(cCtx *cli.Context) error {
	logger := common.LoggerFromContext(cCtx)

	preflightCtx, err := utils.DoPreflightChecks(cCtx)
	if err != nil {
		return err
	}
	defer preflightCtx.Close()

	tokens, err := preflightCtx.Service.GetAllowedTokens(cCtx.Context)
	if err != nil {
		return err
	}
	if len(tokens) == 0 {
		logger.Info("No tokens accepted on %s", preflightCtx.Network.Name)
		return nil
	}

	logger.Info("Accepted tokens on %s:", preflightCtx.Network.Name)
	for _, token := range tokens {
		logger.Info("  %s", token.Hex())
	}
	return nil
}
