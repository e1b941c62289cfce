package common

import "github.com/urfave/cli/v2"

// Common flag definitions
var (
	NetworkFlag = &cli.StringFlag{
		Name:    "network",
		Usage:   "Network to use (regtest, testnet, mainnet)",
		EnvVars: []string{NetworkEnvVar},
	}

	RpcUrlFlag = &cli.StringFlag{
		Name:    "rpc-url",
		Usage:   "RPC URL of the RSK node",
		EnvVars: []string{RPCURLEnvVar},
	}

	PrivateKeyFlag = &cli.StringFlag{
		Name:    "private-key",
		Usage:   "Private key of the wallet owner; the node's first account is used when unset",
		EnvVars: []string{PrivateKeyEnvVar},
	}

	PreferredRelaysFlag = &cli.StringSliceFlag{
		Name:    "preferred-relays",
		Usage:   "Relay server URLs to try, in order",
		EnvVars: []string{PreferredRelaysEnvVar},
	}

	OnlyPreferredRelaysFlag = &cli.BoolFlag{
		Name:  "only-preferred-relays",
		Usage: "Use only the preferred relays",
	}

	AddressesFileFlag = &cli.StringFlag{
		Name:    "addresses-file",
		Usage:   "YAML file with contract addresses per chain id",
		EnvVars: []string{AddressesFileEnvVar},
	}

	ForceFlag = &cli.BoolFlag{
		Name:  "force",
		Usage: "Force operation without confirmation",
	}

	WalletFlag = &cli.StringFlag{
		Name:     "wallet",
		Usage:    "Smart wallet name or address",
		Required: true,
	}

	IndexFlag = &cli.Uint64Flag{
		Name:  "index",
		Usage: "Smart wallet index for the owner",
	}

	NameFlag = &cli.StringFlag{
		Name:  "name",
		Usage: "Friendly name for the smart wallet",
	}

	TokenFlag = &cli.StringFlag{
		Name:  "token",
		Usage: "ERC20 token used to pay the relay",
	}

	FeeFlag = &cli.StringFlag{
		Name:  "fee",
		Usage: "Fee paid to the relay, in whole tokens (e.g. 0.5)",
	}

	TokenAmountFlag = &cli.StringFlag{
		Name:  "token-amount",
		Usage: "Deploy fee in the token's smallest unit",
	}

	TokenGasFlag = &cli.StringFlag{
		Name:  "token-gas",
		Usage: "Gas limit for the fee transfer; estimated when unset",
	}

	VerifierFlag = &cli.StringFlag{
		Name:  "verifier",
		Usage: "Verifier contract; defaults to the network's deploy or relay verifier",
	}

	ForwarderFlag = &cli.StringFlag{
		Name:  "forwarder",
		Usage: "Forwarder contract; defaults to the factory or the smart wallet",
	}

	RecovererFlag = &cli.StringFlag{
		Name:  "recoverer",
		Usage: "Recovery address stored in the smart wallet",
	}

	ToFlag = &cli.StringFlag{
		Name:  "to",
		Usage: "Destination contract of the relayed call",
	}

	DataFlag = &cli.StringFlag{
		Name:  "data",
		Usage: "Hex-encoded call data",
	}

	ValueFlag = &cli.StringFlag{
		Name:  "value",
		Usage: "Native value in wei sent with the call",
	}

	GasFlag = &cli.StringFlag{
		Name:  "gas",
		Usage: "Gas limit for the destination call; estimated when unset",
	}
)

// ChainFlags are shared by every command that talks to a node.
var ChainFlags = []cli.Flag{
	NetworkFlag,
	RpcUrlFlag,
	PrivateKeyFlag,
	PreferredRelaysFlag,
	OnlyPreferredRelaysFlag,
	AddressesFileFlag,
}

// GlobalFlags defines flags that apply to the entire application (global flags).
var GlobalFlags = []cli.Flag{
	&cli.BoolFlag{
		Name:    "verbose",
		Aliases: []string{"v"},
		Usage:   "Enable verbose logging",
	},
	&cli.BoolFlag{
		Name:  "enable-telemetry",
		Usage: "Enable telemetry collection on first run without prompting",
	},
	&cli.BoolFlag{
		Name:  "disable-telemetry",
		Usage: "Disable telemetry collection on first run without prompting",
	},
}

func ForceFlagWithUsage(usage string) *cli.BoolFlag {
	requiredFlag := *ForceFlag
	requiredFlag.Usage = usage
	return &requiredFlag
}

// WithChainFlags returns the global and chain flags followed by extra.
func WithChainFlags(extra ...cli.Flag) []cli.Flag {
	flags := make([]cli.Flag, 0, len(GlobalFlags)+len(ChainFlags)+len(extra))
	flags = append(flags, GlobalFlags...)
	flags = append(flags, ChainFlags...)
	return append(flags, extra...)
}
