package common

import ethcommon "github.com/ethereum/go-ethereum/common"

const (
	// ConfigDirName is the directory under the user's home holding relayctl state
	ConfigDirName = ".relayctl"

	// GlobalConfigFile is the name of the global YAML used to store global config details (eg, user_id)
	GlobalConfigFile = "config.yaml"

	// Environment variable names
	PrivateKeyEnvVar      = "PRIVATE_KEY"
	RPCURLEnvVar          = "RPC_URL"
	NetworkEnvVar         = "RELAY_NETWORK"
	PreferredRelaysEnvVar = "RELAY_PREFERRED_RELAYS"
	AddressesFileEnvVar   = "RELAY_ADDRESSES_FILE"

	// ReceiptPollIntervalMilliseconds is the interval between receipt lookups while waiting for a transaction
	ReceiptPollIntervalMilliseconds = 1000
)

// ZeroAddress is used as the call target of deployments and as the default recoverer
var ZeroAddress = ethcommon.Address{}
