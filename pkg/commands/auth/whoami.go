package auth

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/relaykit/relayctl/pkg/common"
)

var WhoamiCommand = &cli.Command{
	Name:   "whoami",
	Usage:  "Show current authentication status and address",
	Flags:  append(append([]cli.Flag{}, common.GlobalFlags...), common.NetworkFlag, common.PrivateKeyFlag),
	Action: whoamiAction,
}

func whoamiAction(cCtx *cli.Context) error {
	privateKey, source, err := GetPrivateKeyWithSource(cCtx)
	if err != nil {
		fmt.Println("Not authenticated")
		fmt.Println("Commands will sign with the node's first unlocked account.")
		fmt.Println("")
		fmt.Println("To authenticate, use one of:")
		fmt.Println("  relayctl auth login                      # Store key in keyring")
		fmt.Printf("  export %s=0x...                   # Use environment variable\n", common.PrivateKeyEnvVar)
		fmt.Println("  relayctl <command> --private-key 0x...   # Use flag")
		return nil
	}

	address, err := common.GetAddressFromPrivateKey(privateKey)
	if err != nil {
		return fmt.Errorf("failed to get address from private key: %w", err)
	}

	fmt.Printf("Address: %s\n", address.Hex())
	fmt.Printf("Source:  %s\n", source)

	network := keyNetwork(cCtx)
	if stored, err := common.GetPrivateKey(network); err == nil {
		if storedAddress, err := common.GetAddressFromPrivateKey(stored); err == nil && storedAddress != address {
			fmt.Printf("Note: Different key available for %s: %s\n", network, storedAddress.Hex())
		}
	}
	return nil
}
