package auth

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/relaykit/relayctl/pkg/common"
)

var ListCommand = &cli.Command{
	Name:   "list",
	Usage:  "List all stored private keys by network",
	Flags:  common.GlobalFlags,
	Action: listAction,
}

func listAction(_ *cli.Context) error {
	keys := ListStoredKeys()

	if len(keys) == 0 {
		fmt.Println("No keys stored in keyring")
		fmt.Println("")
		fmt.Println("To store a key, use:")
		fmt.Println("  relayctl auth login")
		return nil
	}

	fmt.Println("Stored private keys:")
	fmt.Println("")
	for _, network := range sortedNetworks(keys) {
		fmt.Printf("  %-12s %s\n", network, keys[network].Hex())
	}

	fmt.Println("")
	fmt.Println("Usage:")
	fmt.Println("  relayctl auth login                      # Store key for the active network")
	fmt.Println("  relayctl auth logout                     # Remove key for the active network")
	fmt.Println("  relayctl <command> --network <network>   # Use a different network")
	return nil
}
