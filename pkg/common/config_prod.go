//go:build prod
// +build prod

package common

// Build-specific constants for prod environment
const (
	BuildSuffix        = ""
	KeyringServiceName = "relayctl"
	Build              = "prod"

	// Fallback network used if no user-defined default is found
	FallbackNetwork = "testnet"
)

// NetworkConfigs contains all networks available in prod builds
var NetworkConfigs = map[string]NetworkConfig{
	"testnet": {
		Name:          "testnet",
		ChainID:       TestnetChainID,
		DefaultRPCURL: "https://public-node.testnet.rsk.co",
	},
	"mainnet": {
		Name:          "mainnet",
		ChainID:       MainnetChainID,
		DefaultRPCURL: "https://public-node.rsk.co",
	},
}
