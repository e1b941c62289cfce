package auth

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/relaykit/relayctl/pkg/common"
	"github.com/relaykit/relayctl/pkg/common/output"
)

var LogoutCommand = &cli.Command{
	Name:   "logout",
	Usage:  "Remove private key from OS keyring",
	Flags:  append(append([]cli.Flag{}, common.GlobalFlags...), common.NetworkFlag, common.ForceFlag),
	Action: logoutAction,
}

func logoutAction(cCtx *cli.Context) error {
	logger := common.LoggerFromContext(cCtx)
	network := keyNetwork(cCtx)

	if _, err := common.GetPrivateKey(network); err != nil {
		return fmt.Errorf("no key found for '%s'", network)
	}

	if !cCtx.Bool(common.ForceFlag.Name) {
		confirmed, err := output.Confirm(fmt.Sprintf("Remove private key for '%s'?", network))
		if err != nil {
			return fmt.Errorf("failed to get confirmation: %w", err)
		}
		if !confirmed {
			logger.Info("Logout cancelled")
			return nil
		}
	}

	if err := common.DeletePrivateKey(network); err != nil {
		return fmt.Errorf("failed to remove private key from keyring: %w", err)
	}

	logger.Info("Successfully logged out (removed key: %s)", network)
	return nil
}
