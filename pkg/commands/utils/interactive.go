package utils

import (
	"fmt"
	"strings"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/urfave/cli/v2"

	"github.com/relaykit/relayctl/pkg/common"
	"github.com/relaykit/relayctl/pkg/common/output"
)

// GetWalletInteractive resolves the wallet argument, or asks the user to pick a saved
// wallet when none was given.
func GetWalletInteractive(cCtx *cli.Context, argIndex int, network string) (ethcommon.Address, *common.WalletEntry, error) {
	if cCtx.Args().Len() > argIndex {
		return common.ResolveWallet(network, cCtx.Args().Get(argIndex))
	}

	names, wallets, err := common.ListWalletNames(network)
	if err != nil {
		return ethcommon.Address{}, nil, err
	}
	if len(names) == 0 {
		return ethcommon.Address{}, nil, fmt.Errorf("no saved wallets on %s, run: relayctl wallet generate --name <name>", network)
	}
	if !common.IsTTY() {
		return ethcommon.Address{}, nil, fmt.Errorf("wallet name or address required")
	}

	options := make([]string, 0, len(names))
	for _, name := range names {
		entry := wallets[name]
		status := "not deployed"
		if entry.Deployed {
			status = "deployed"
		}
		options = append(options, fmt.Sprintf("%s (%s) - %s", name, entry.Address, status))
	}

	selected, err := output.SelectString("Select wallet:", options)
	if err != nil {
		return ethcommon.Address{}, nil, fmt.Errorf("failed to select wallet: %w", err)
	}
	for i, option := range options {
		if option == selected {
			return common.ResolveWallet(network, names[i])
		}
	}
	return ethcommon.Address{}, nil, fmt.Errorf("failed to find selected wallet")
}

// GetNetworkInteractive gets the network from args or interactive selection
func GetNetworkInteractive(cCtx *cli.Context, argIndex int) (string, error) {
	if cCtx.Args().Len() > argIndex {
		return cCtx.Args().Get(argIndex), nil
	}

	var options []string
	names := NetworkNames()
	for _, name := range names {
		options = append(options, fmt.Sprintf("%s - %s", name, GetNetworkDescription(name, name, false)))
	}
	if len(options) == 0 {
		return "", fmt.Errorf("no networks available")
	}

	selected, err := output.SelectString("Select network:", options)
	if err != nil {
		return "", fmt.Errorf("failed to select network: %w", err)
	}
	for i, option := range options {
		if option == selected {
			return names[i], nil
		}
	}
	return "", fmt.Errorf("failed to find selected network")
}

// ConfirmMainnetNetwork asks before an on-chain write to a mainnet network.
func ConfirmMainnetNetwork(network string) error {
	if !common.IsMainnetNetwork(network) {
		return nil
	}

	fmt.Println()
	fmt.Println("⚠️  WARNING: You selected", strings.ToUpper(network))
	fmt.Println("⚠️  This network uses real funds")
	fmt.Println()

	confirmed, err := output.Confirm("Are you sure you want to use mainnet?")
	if err != nil {
		return fmt.Errorf("failed to get confirmation: %w", err)
	}
	if !confirmed {
		return fmt.Errorf("mainnet selection cancelled")
	}
	return nil
}
