//go:build !prod
// +build !prod

package common

// Build-specific constants for dev environment
const (
	BuildSuffix        = "-dev"
	KeyringServiceName = "relayctl-dev"
	Build              = "dev"

	// Fallback network used if no user-defined default is found
	FallbackNetwork = "regtest"
)

// NetworkConfigs contains all networks available in dev builds
var NetworkConfigs = map[string]NetworkConfig{
	"regtest": {
		Name:            "regtest",
		ChainID:         RegtestChainID,
		DefaultRPCURL:   "http://localhost:4444",
		PreferredRelays: []string{"http://localhost:8090"},
	},
	"testnet": {
		Name:            "testnet",
		ChainID:         TestnetChainID,
		DefaultRPCURL:   "https://public-node.testnet.rsk.co",
		PreferredRelays: []string{"http://localhost:8090"},
	},
}
