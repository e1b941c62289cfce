package auth

import (
	"errors"
	"fmt"
	"os"
	"sort"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/urfave/cli/v2"

	"github.com/relaykit/relayctl/pkg/commands/utils"
	"github.com/relaykit/relayctl/pkg/common"
	"github.com/relaykit/relayctl/pkg/common/output"
)

// keyNetwork is the network whose keyring slot a command reads or writes.
func keyNetwork(cCtx *cli.Context) string {
	if network, err := utils.GetNetworkConfig(cCtx); err == nil {
		return network.Name
	}
	return common.FallbackNetwork
}

// ListStoredKeys maps every network of this build that has a valid stored key to its address.
func ListStoredKeys() map[string]ethcommon.Address {
	result := make(map[string]ethcommon.Address)
	for network := range common.NetworkConfigs {
		privateKey, err := common.GetPrivateKey(network)
		if err != nil {
			continue
		}
		if addr, err := common.GetAddressFromPrivateKey(privateKey); err == nil {
			result[network] = addr
		}
	}
	return result
}

func sortedNetworks(keys map[string]ethcommon.Address) []string {
	names := make([]string, 0, len(keys))
	for name := range keys {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetPrivateKeyWithSource reports which source supplies the signing key.
func GetPrivateKeyWithSource(cCtx *cli.Context) (string, string, error) {
	envKey := os.Getenv(common.PrivateKeyEnvVar)
	if flagKey := cCtx.String(common.PrivateKeyFlag.Name); flagKey != "" && flagKey != envKey {
		return flagKey, "command flag", nil
	}
	if envKey != "" {
		return envKey, "environment variable", nil
	}

	network := keyNetwork(cCtx)
	privateKey, err := common.GetPrivateKey(network)
	if err == nil {
		return privateKey, fmt.Sprintf("stored credentials (%s)", network), nil
	}

	msg := fmt.Sprintf(`Private key required. Please provide it via:
  • Keyring: relayctl auth login
  • Flag: --private-key YOUR_KEY
  • Environment: export %s=YOUR_KEY`, common.PrivateKeyEnvVar)
	if !errors.Is(err, common.ErrKeyNotFound) {
		return "", "", fmt.Errorf("%s\n\nKeyring issue for %s: %w", msg, network, err)
	}
	return "", "", errors.New(msg)
}

// generatePrivateKey returns a fresh 0x-prefixed secp256k1 key and its checksummed address.
func generatePrivateKey() (string, string, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return "", "", err
	}
	return hexutil.Encode(crypto.FromECDSA(key)), crypto.PubkeyToAddress(key.PublicKey).Hex(), nil
}

// confirmOverwrite warns before a stored key is replaced. It returns true when
// there is nothing to overwrite.
func confirmOverwrite(network string) (bool, error) {
	if _, err := common.GetPrivateKey(network); err != nil {
		return true, nil
	}

	fmt.Printf("\n⚠️  WARNING: A private key for '%s' already exists in your keyring!\n", network)
	fmt.Println("⚠️  If you continue, the existing key will be PERMANENTLY REPLACED and CANNOT BE RECOVERED.")
	fmt.Println("⚠️  Smart wallets are derived from the owner key, so wallets of the old key become unreachable.")
	fmt.Println()

	confirmed, err := output.Confirm("Are you absolutely sure you want to overwrite the existing key?")
	if err != nil {
		return false, fmt.Errorf("failed to get confirmation: %w", err)
	}
	return confirmed, nil
}

// showPrivateKey pages content through less/more. Without a pager the user may
// abort or print and clear. displayed=false means nothing was shown.
func showPrivateKey(content string) (displayed bool, err error) {
	if pager := output.DetectPager(); pager != "" {
		if err := output.RunPager(pager, content); err != nil {
			return false, fmt.Errorf("pager error: %w", err)
		}
		return true, nil
	}

	fmt.Println("\nNo pager (less/more) found on PATH.")
	fmt.Println("For security, avoid printing private keys to the terminal.")

	choice, err := output.SelectString("Choose an option:", []string{
		"Abort (recommended)",
		"Print and clear screen",
	})
	if err != nil {
		return false, fmt.Errorf("failed to get selection: %w", err)
	}
	if choice != "Print and clear screen" {
		return false, nil
	}

	fmt.Println(content)
	_, _ = output.InputString("Press Enter after you have securely saved the key. The screen will be cleared...", "", "", nil)
	output.ClearTerminal()
	return true, nil
}
