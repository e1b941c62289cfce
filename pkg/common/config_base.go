package common

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"

	"github.com/relaykit/relayctl/config"
)

// NetworkConfig defines the configuration for a specific network
type NetworkConfig struct {
	Name            string
	ChainID         uint64
	DefaultRPCURL   string
	PreferredRelays []string
}

// ChainAddressSet is the fixed set of relaying contract addresses deployed on a chain.
type ChainAddressSet struct {
	Penalizer                       common.Address
	RelayHub                        common.Address
	SmartWallet                     common.Address
	SmartWalletFactory              common.Address
	SmartWalletDeployVerifier       common.Address
	SmartWalletRelayVerifier        common.Address
	CustomSmartWallet               common.Address
	CustomSmartWalletFactory        common.Address
	CustomSmartWalletDeployVerifier common.Address
	CustomSmartWalletRelayVerifier  common.Address
	SampleRecipient                 common.Address
	TestToken                       common.Address
}

const (
	// Chain IDs
	MainnetChainID uint64 = 30
	TestnetChainID uint64 = 31
	RegtestChainID uint64 = 33
)

var (
	// Default network for each chain ID
	DefaultNetworkForChainID = map[uint64]string{
		MainnetChainID: "mainnet",
		TestnetChainID: "testnet",
		RegtestChainID: "regtest",
	}
)

// ConfigurationError reports an unknown chain or a missing required address mapping.
type ConfigurationError struct {
	ChainID uint64
	Reason  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error for chain %d: %s", e.ChainID, e.Reason)
}

// addressFile is the on-disk layout of contract-addresses.yaml
type addressFile struct {
	Chains map[uint64]addressEntry `yaml:"chains"`
}

type addressEntry struct {
	Penalizer                       string `yaml:"penalizer"`
	RelayHub                        string `yaml:"relayHub"`
	SmartWallet                     string `yaml:"smartWallet"`
	SmartWalletFactory              string `yaml:"smartWalletFactory"`
	SmartWalletDeployVerifier       string `yaml:"smartWalletDeployVerifier"`
	SmartWalletRelayVerifier        string `yaml:"smartWalletRelayVerifier"`
	CustomSmartWallet               string `yaml:"customSmartWallet"`
	CustomSmartWalletFactory        string `yaml:"customSmartWalletFactory"`
	CustomSmartWalletDeployVerifier string `yaml:"customSmartWalletDeployVerifier"`
	CustomSmartWalletRelayVerifier  string `yaml:"customSmartWalletRelayVerifier"`
	SampleRecipient                 string `yaml:"sampleRecipient"`
	TestToken                       string `yaml:"testToken"`
}

func (e addressEntry) toSet() ChainAddressSet {
	return ChainAddressSet{
		Penalizer:                       common.HexToAddress(e.Penalizer),
		RelayHub:                        common.HexToAddress(e.RelayHub),
		SmartWallet:                     common.HexToAddress(e.SmartWallet),
		SmartWalletFactory:              common.HexToAddress(e.SmartWalletFactory),
		SmartWalletDeployVerifier:       common.HexToAddress(e.SmartWalletDeployVerifier),
		SmartWalletRelayVerifier:        common.HexToAddress(e.SmartWalletRelayVerifier),
		CustomSmartWallet:               common.HexToAddress(e.CustomSmartWallet),
		CustomSmartWalletFactory:        common.HexToAddress(e.CustomSmartWalletFactory),
		CustomSmartWalletDeployVerifier: common.HexToAddress(e.CustomSmartWalletDeployVerifier),
		CustomSmartWalletRelayVerifier:  common.HexToAddress(e.CustomSmartWalletRelayVerifier),
		SampleRecipient:                 common.HexToAddress(e.SampleRecipient),
		TestToken:                       common.HexToAddress(e.TestToken),
	}
}

var (
	registryOnce    sync.Once
	registryLoadErr error
	registryMu      sync.RWMutex
	chainAddresses  = map[uint64]ChainAddressSet{}
)

func loadEmbeddedAddresses() {
	registryOnce.Do(func() {
		sets, err := parseAddressFile(config.ContractAddresses)
		if err != nil {
			registryLoadErr = fmt.Errorf("failed to parse embedded contract addresses: %w", err)
			return
		}
		registryMu.Lock()
		defer registryMu.Unlock()
		for id, set := range sets {
			if _, exists := chainAddresses[id]; !exists {
				chainAddresses[id] = set
			}
		}
	})
}

func parseAddressFile(data []byte) (map[uint64]ChainAddressSet, error) {
	var file addressFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	sets := make(map[uint64]ChainAddressSet, len(file.Chains))
	for id, entry := range file.Chains {
		sets[id] = entry.toSet()
	}
	return sets, nil
}

// ResolveAddresses returns the contract addresses registered for chainID.
func ResolveAddresses(chainID uint64) (ChainAddressSet, error) {
	loadEmbeddedAddresses()
	if registryLoadErr != nil {
		return ChainAddressSet{}, &ConfigurationError{ChainID: chainID, Reason: registryLoadErr.Error()}
	}

	registryMu.RLock()
	defer registryMu.RUnlock()
	set, ok := chainAddresses[chainID]
	if !ok {
		return ChainAddressSet{}, &ConfigurationError{ChainID: chainID, Reason: "no contract addresses registered"}
	}
	return set, nil
}

// RegisterAddresses adds or replaces the address set for chainID.
func RegisterAddresses(chainID uint64, set ChainAddressSet) {
	loadEmbeddedAddresses()
	registryMu.Lock()
	defer registryMu.Unlock()
	chainAddresses[chainID] = set
}

// LoadAddressFile registers every chain found in a YAML file laid out like the embedded registry.
func LoadAddressFile(path string) ([]uint64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read address file: %w", err)
	}
	sets, err := parseAddressFile(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse address file %s: %w", path, err)
	}

	ids := make([]uint64, 0, len(sets))
	for id, set := range sets {
		RegisterAddresses(id, set)
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// KnownChainIDs lists every chain with registered addresses.
func KnownChainIDs() []uint64 {
	loadEmbeddedAddresses()
	registryMu.RLock()
	defer registryMu.RUnlock()
	ids := make([]uint64, 0, len(chainAddresses))
	for id := range chainAddresses {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// MergeAddresses overlays overrides on defaults field by field. A non-zero override wins.
func MergeAddresses(overrides *ChainAddressSet, defaults ChainAddressSet) ChainAddressSet {
	if overrides == nil {
		return defaults
	}
	pick := func(override, def common.Address) common.Address {
		if override != (common.Address{}) {
			return override
		}
		return def
	}
	return ChainAddressSet{
		Penalizer:                       pick(overrides.Penalizer, defaults.Penalizer),
		RelayHub:                        pick(overrides.RelayHub, defaults.RelayHub),
		SmartWallet:                     pick(overrides.SmartWallet, defaults.SmartWallet),
		SmartWalletFactory:              pick(overrides.SmartWalletFactory, defaults.SmartWalletFactory),
		SmartWalletDeployVerifier:       pick(overrides.SmartWalletDeployVerifier, defaults.SmartWalletDeployVerifier),
		SmartWalletRelayVerifier:        pick(overrides.SmartWalletRelayVerifier, defaults.SmartWalletRelayVerifier),
		CustomSmartWallet:               pick(overrides.CustomSmartWallet, defaults.CustomSmartWallet),
		CustomSmartWalletFactory:        pick(overrides.CustomSmartWalletFactory, defaults.CustomSmartWalletFactory),
		CustomSmartWalletDeployVerifier: pick(overrides.CustomSmartWalletDeployVerifier, defaults.CustomSmartWalletDeployVerifier),
		CustomSmartWalletRelayVerifier:  pick(overrides.CustomSmartWalletRelayVerifier, defaults.CustomSmartWalletRelayVerifier),
		SampleRecipient:                 pick(overrides.SampleRecipient, defaults.SampleRecipient),
		TestToken:                       pick(overrides.TestToken, defaults.TestToken),
	}
}

// Validate checks the addresses the relaying core cannot run without.
func (s ChainAddressSet) Validate(chainID uint64) error {
	required := []struct {
		name string
		addr common.Address
	}{
		{"relayHub", s.RelayHub},
		{"smartWalletFactory", s.SmartWalletFactory},
		{"smartWalletDeployVerifier", s.SmartWalletDeployVerifier},
		{"smartWalletRelayVerifier", s.SmartWalletRelayVerifier},
	}
	for _, r := range required {
		if r.addr == (common.Address{}) {
			return &ConfigurationError{ChainID: chainID, Reason: fmt.Sprintf("missing required address mapping %s", r.name)}
		}
	}
	return nil
}
