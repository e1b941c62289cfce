package utils

import (
	"context"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/urfave/cli/v2"

	"github.com/relaykit/relayctl/pkg/common"
)

// GetNetworkConfig resolves the network: flag, then the chain id behind --rpc-url,
// then the user's default, then the build fallback.
func GetNetworkConfig(cCtx *cli.Context) (common.NetworkConfig, error) {
	if network := cCtx.String(common.NetworkFlag.Name); network != "" {
		return getNetworkByName(network)
	}

	if rpcURL := cCtx.String(common.RpcUrlFlag.Name); rpcURL != "" {
		if network, err := detectNetworkFromRPC(cCtx.Context, rpcURL); err == nil {
			return getNetworkByName(network)
		}
	}

	if defaultNetwork, err := common.GetDefaultNetwork(); err == nil && defaultNetwork != "" {
		return getNetworkByName(defaultNetwork)
	}

	return getNetworkByName(common.FallbackNetwork)
}

// GetNetworkDescription returns a human-readable description for a network
func GetNetworkDescription(name, fallback string, withPrefix bool) string {
	var description string
	switch name {
	case "regtest":
		description = "Local RSK regtest node"
	case "testnet":
		description = "RSK testnet"
	case "mainnet":
		description = "RSK mainnet (⚠️  real funds at risk)"
	default:
		description = fallback
	}

	if withPrefix {
		return "- " + description
	}
	return description
}

// NetworkNames lists the networks of this build, sorted.
func NetworkNames() []string {
	names := make([]string, 0, len(common.NetworkConfigs))
	for name := range common.NetworkConfigs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func getNetworkByName(name string) (common.NetworkConfig, error) {
	config, exists := common.NetworkConfigs[name]
	if !exists {
		return common.NetworkConfig{}, fmt.Errorf("unknown network: %s", name)
	}
	return config, nil
}

func detectNetworkFromRPC(ctx context.Context, rpcURL string) (string, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return "", fmt.Errorf("failed to connect to RPC: %w", err)
	}
	defer client.Close()

	chainID, err := client.ChainID(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get chain ID: %w", err)
	}

	network, ok := common.DefaultNetworkForChainID[chainID.Uint64()]
	if !ok {
		return "", fmt.Errorf("no default network for chain ID %s", chainID.String())
	}
	return network, nil
}

func getRPCURL(cCtx *cli.Context, network common.NetworkConfig) (string, error) {
	if rpcURL := cCtx.String(common.RpcUrlFlag.Name); rpcURL != "" {
		return rpcURL, nil
	}
	if network.DefaultRPCURL == "" {
		return "", fmt.Errorf("no RPC URL configured for network %s, pass --%s", network.Name, common.RpcUrlFlag.Name)
	}
	return network.DefaultRPCURL, nil
}
