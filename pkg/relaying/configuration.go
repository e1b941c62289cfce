package relaying

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	relaycommon "github.com/relaykit/relayctl/pkg/common"
)

const (
	DefaultRelayLookupWindowBlocks = 100000
	DefaultGasPriceFactorPercent   = 0
	DefaultRelayURL                = "http://localhost:8090"
)

// EnvelopingConfig is the resolved relaying configuration, read-only after Initialize.
type EnvelopingConfig struct {
	ChainID                   uint64
	RelayHubAddress           common.Address
	RelayVerifierAddress      common.Address
	DeployVerifierAddress     common.Address
	SmartWalletFactoryAddress common.Address
	OnlyPreferredRelays       bool
	PreferredRelays           []string
	GasPriceFactorPercent     int
	RelayLookupWindowBlocks   uint64

	MinGasPrice       *big.Int
	MaxRelayNonceGap  uint64
	SliceSize         int
	RelayTimeoutGrace time.Duration
}

// EnvelopingOverrides carries caller-supplied values; nil fields are absent.
type EnvelopingOverrides struct {
	ChainID                   *uint64
	RelayHubAddress           *common.Address
	RelayVerifierAddress      *common.Address
	DeployVerifierAddress     *common.Address
	SmartWalletFactoryAddress *common.Address
	OnlyPreferredRelays       *bool
	PreferredRelays           []string
	GasPriceFactorPercent     *int
	RelayLookupWindowBlocks   *uint64
}

// ChainIDReader reads the id of the connected chain.
type ChainIDReader interface {
	ChainID(ctx context.Context) (*big.Int, error)
}

// DefaultConfiguration returns the defaults for a chain and its address set.
// The hub is left unset; BuildConfiguration reinstates it after resolution.
func DefaultConfiguration(chainID uint64, addrs relaycommon.ChainAddressSet) EnvelopingConfig {
	return EnvelopingConfig{
		ChainID:                   chainID,
		RelayVerifierAddress:      addrs.SmartWalletRelayVerifier,
		DeployVerifierAddress:     addrs.SmartWalletDeployVerifier,
		SmartWalletFactoryAddress: addrs.SmartWalletFactory,
		OnlyPreferredRelays:       true,
		PreferredRelays:           []string{DefaultRelayURL},
		GasPriceFactorPercent:     DefaultGasPriceFactorPercent,
		RelayLookupWindowBlocks:   DefaultRelayLookupWindowBlocks,
	}
}

// Apply replaces each default with the override value when it is present.
func (o EnvelopingOverrides) Apply(cfg EnvelopingConfig) EnvelopingConfig {
	if o.ChainID != nil {
		cfg.ChainID = *o.ChainID
	}
	if o.RelayHubAddress != nil {
		cfg.RelayHubAddress = *o.RelayHubAddress
	}
	if o.RelayVerifierAddress != nil {
		cfg.RelayVerifierAddress = *o.RelayVerifierAddress
	}
	if o.DeployVerifierAddress != nil {
		cfg.DeployVerifierAddress = *o.DeployVerifierAddress
	}
	if o.SmartWalletFactoryAddress != nil {
		cfg.SmartWalletFactoryAddress = *o.SmartWalletFactoryAddress
	}
	if o.OnlyPreferredRelays != nil {
		cfg.OnlyPreferredRelays = *o.OnlyPreferredRelays
	}
	if o.PreferredRelays != nil {
		cfg.PreferredRelays = append([]string(nil), o.PreferredRelays...)
	}
	if o.GasPriceFactorPercent != nil {
		cfg.GasPriceFactorPercent = *o.GasPriceFactorPercent
	}
	if o.RelayLookupWindowBlocks != nil {
		cfg.RelayLookupWindowBlocks = *o.RelayLookupWindowBlocks
	}
	return cfg
}

// BuildConfiguration merges overrides into the defaults, hands the result to the
// resolver, and sets the hub from the override or else the registry.
// A nil resolver returns the merged configuration as is.
func BuildConfiguration(
	ctx context.Context,
	chain ChainIDReader,
	resolver ConfigResolver,
	addrs relaycommon.ChainAddressSet,
	overrides EnvelopingOverrides,
) (EnvelopingConfig, error) {
	chainID, err := chain.ChainID(ctx)
	if err != nil {
		return EnvelopingConfig{}, fmt.Errorf("failed to get chain ID: %w", err)
	}

	partial := overrides.Apply(DefaultConfiguration(chainID.Uint64(), addrs))

	resolved := partial
	if resolver != nil {
		resolved, err = resolver.ResolveConfiguration(ctx, partial)
		if err != nil {
			return EnvelopingConfig{}, fmt.Errorf("failed to resolve enveloping configuration: %w", err)
		}
	}

	if overrides.RelayHubAddress != nil {
		resolved.RelayHubAddress = *overrides.RelayHubAddress
	} else {
		resolved.RelayHubAddress = addrs.RelayHub
	}
	return resolved, nil
}
