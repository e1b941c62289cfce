package auth

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/relaykit/relayctl/pkg/common"
	"github.com/relaykit/relayctl/pkg/common/output"
)

var LoginCommand = &cli.Command{
	Name:   "login",
	Usage:  "Store an existing private key in OS keyring",
	Flags:  append(append([]cli.Flag{}, common.GlobalFlags...), common.NetworkFlag),
	Action: loginAction,
}

func loginAction(cCtx *cli.Context) error {
	logger := common.LoggerFromContext(cCtx)
	network := keyNetwork(cCtx)

	proceed, err := confirmOverwrite(network)
	if err != nil {
		return err
	}
	if !proceed {
		logger.Info("Login cancelled - existing key preserved")
		return nil
	}

	fmt.Println("Enter your private key. Input will be hidden for security.")
	privateKey, err := output.InputHiddenString(
		"Private key:",
		"The smart wallet owner key used to sign relay requests (input will be hidden)",
		common.ValidatePrivateKey,
	)
	if err != nil {
		return fmt.Errorf("failed to get private key: %w", err)
	}

	address, err := common.GetAddressFromPrivateKey(privateKey)
	if err != nil {
		return err
	}

	if err := common.StorePrivateKey(network, privateKey); err != nil {
		return fmt.Errorf("failed to store private key in keyring: %w", err)
	}

	logger.Info("Successfully logged in")
	logger.Info("Address: %s", address.Hex())
	logger.Info("Stored as: %s", network)
	return nil
}
