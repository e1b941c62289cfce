package common

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

const (
	WalletRegistryVersion = "1.0.0"
	walletRegistryDir     = "wallets"
)

// WalletRegistry maps friendly names to smart wallets for one network.
type WalletRegistry struct {
	Version string                 `yaml:"version"`
	Wallets map[string]WalletEntry `yaml:"wallets"`
}

type WalletEntry struct {
	Address   string    `yaml:"address"`
	Index     uint64    `yaml:"index"`
	Deployed  bool      `yaml:"deployed"`
	Token     string    `yaml:"token,omitempty"`
	DeployTx  string    `yaml:"deploy_tx,omitempty"`
	CreatedAt time.Time `yaml:"created_at"`
	UpdatedAt time.Time `yaml:"updated_at"`
}

// GetWalletRegistryPath returns ~/.relayctl/wallets/<network>.yaml.
func GetWalletRegistryPath(network string) (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ConfigDirName, walletRegistryDir, fmt.Sprintf("%s.yaml", network)), nil
}

// LoadWalletRegistry reads the registry for network; a missing file is an empty registry.
func LoadWalletRegistry(network string) (*WalletRegistry, error) {
	path, err := GetWalletRegistryPath(network)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &WalletRegistry{Version: WalletRegistryVersion, Wallets: make(map[string]WalletEntry)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read wallet registry: %w", err)
	}

	var registry WalletRegistry
	if err := yaml.Unmarshal(data, &registry); err != nil {
		return nil, fmt.Errorf("failed to parse wallet registry: %w", err)
	}
	if registry.Wallets == nil {
		registry.Wallets = make(map[string]WalletEntry)
	}
	return &registry, nil
}

func SaveWalletRegistry(network string, registry *WalletRegistry) error {
	path, err := GetWalletRegistryPath(network)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := yaml.Marshal(registry)
	if err != nil {
		return fmt.Errorf("failed to marshal wallet registry: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write wallet registry: %w", err)
	}
	return nil
}

// SaveWallet stores entry under name, replacing any other name that points at the same address.
func SaveWallet(network, name string, entry WalletEntry) error {
	if err := ValidateWalletName(name); err != nil {
		return err
	}
	registry, err := LoadWalletRegistry(network)
	if err != nil {
		return err
	}

	now := time.Now()
	entry.CreatedAt = now
	for existing, wallet := range registry.Wallets {
		if strings.EqualFold(wallet.Address, entry.Address) {
			if existing == name && !wallet.CreatedAt.IsZero() {
				entry.CreatedAt = wallet.CreatedAt
			}
			delete(registry.Wallets, existing)
		}
	}
	entry.UpdatedAt = now
	registry.Wallets[name] = entry

	return SaveWalletRegistry(network, registry)
}

// MarkWalletDeployed records a deployment for every entry with address.
func MarkWalletDeployed(network string, address common.Address, token common.Address, deployTx common.Hash) error {
	registry, err := LoadWalletRegistry(network)
	if err != nil {
		return err
	}

	changed := false
	for name, wallet := range registry.Wallets {
		if strings.EqualFold(wallet.Address, address.Hex()) {
			wallet.Deployed = true
			wallet.DeployTx = deployTx.Hex()
			if token != (common.Address{}) {
				wallet.Token = token.Hex()
			}
			wallet.UpdatedAt = time.Now()
			registry.Wallets[name] = wallet
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return SaveWalletRegistry(network, registry)
}

// ResolveWallet accepts a wallet name or a hex address.
func ResolveWallet(network, nameOrAddress string) (common.Address, *WalletEntry, error) {
	registry, err := LoadWalletRegistry(network)
	if err != nil {
		return common.Address{}, nil, err
	}

	if wallet, ok := registry.Wallets[nameOrAddress]; ok {
		return common.HexToAddress(wallet.Address), &wallet, nil
	}

	if !common.IsHexAddress(nameOrAddress) {
		return common.Address{}, nil, fmt.Errorf("wallet not found: %s", nameOrAddress)
	}
	address := common.HexToAddress(nameOrAddress)
	for _, wallet := range registry.Wallets {
		if strings.EqualFold(wallet.Address, address.Hex()) {
			return address, &wallet, nil
		}
	}
	return address, nil, nil
}

// GetWalletName returns the registered name for address, or "".
func GetWalletName(network string, address common.Address) string {
	registry, err := LoadWalletRegistry(network)
	if err != nil {
		return ""
	}
	for name, wallet := range registry.Wallets {
		if strings.EqualFold(wallet.Address, address.Hex()) {
			return name
		}
	}
	return ""
}

// ListWalletNames returns the registered names in sorted order.
func ListWalletNames(network string) ([]string, map[string]WalletEntry, error) {
	registry, err := LoadWalletRegistry(network)
	if err != nil {
		return nil, nil, err
	}
	names := make([]string, 0, len(registry.Wallets))
	for name := range registry.Wallets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, registry.Wallets, nil
}

// FormatWalletDisplay returns "name (0x...)" when address is registered, else the address.
func FormatWalletDisplay(network string, address common.Address) string {
	if name := GetWalletName(network, address); name != "" {
		return fmt.Sprintf("%s (%s)", name, address.Hex())
	}
	return address.Hex()
}
