package utils

import (
	"errors"
	"fmt"
	"strings"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/urfave/cli/v2"

	"github.com/relaykit/relayctl/pkg/common"
	"github.com/relaykit/relayctl/pkg/relayclient"
	"github.com/relaykit/relayctl/pkg/relaying"
)

// PreflightContext contains the connected, initialized collaborators a command needs.
type PreflightContext struct {
	Caller  *common.ContractCaller
	Network common.NetworkConfig
	Service *relaying.Service
}

// Close releases the RPC connection.
func (p *PreflightContext) Close() {
	if p != nil && p.Caller != nil {
		p.Caller.Close()
	}
}

// DoPreflightChecks connects to the node and initializes the relaying service.
// Commands that touch the chain call it first.
func DoPreflightChecks(cCtx *cli.Context) (*PreflightContext, error) {
	logger := common.LoggerFromContext(cCtx)

	logger.Debug("Determining network...")
	network, err := GetNetworkConfig(cCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to get network config: %w", err)
	}

	logger.Debug("Checking signing key...")
	privateKey, err := GetPrivateKey(cCtx, network.Name)
	if err != nil {
		return nil, err
	}
	if privateKey == "" {
		logger.Debug("No private key configured, the node's accounts will sign")
	}

	if path := cCtx.String(common.AddressesFileFlag.Name); path != "" {
		chainIDs, err := common.LoadAddressFile(path)
		if err != nil {
			return nil, err
		}
		logger.Debug("Loaded addresses for chains %v from %s", chainIDs, path)
	}

	rpcURL, err := getRPCURL(cCtx, network)
	if err != nil {
		return nil, err
	}

	logger.Debug("Testing network connectivity...")
	caller, err := common.DialContractCaller(cCtx.Context, rpcURL, privateKey, network, logger)
	if err != nil {
		return nil, fmt.Errorf("cannot connect to %s RPC at %s: %w", network.Name, rpcURL, err)
	}

	httpClient := relayclient.NewHTTPClient(relayclient.DefaultHTTPTimeout, logger)
	service, err := relaying.NewService(relaying.Config{
		Chain:       caller,
		Resolver:    relayclient.NewResolver(caller),
		NewProvider: relayclient.NewFactory(caller, httpClient, logger),
		Account:     caller.PrivateKey(),
		Logger:      logger,
	})
	if err != nil {
		caller.Close()
		return nil, err
	}

	if err := service.Initialize(cCtx.Context, BuildOverrides(cCtx, network), nil); err != nil {
		caller.Close()
		return nil, fmt.Errorf("failed to initialize relaying services: %w", err)
	}

	return &PreflightContext{
		Caller:  caller,
		Network: network,
		Service: service,
	}, nil
}

// BuildOverrides maps the relay flags onto configuration overrides. The network's
// relays stand in when no --preferred-relays are given.
func BuildOverrides(cCtx *cli.Context, network common.NetworkConfig) relaying.EnvelopingOverrides {
	var overrides relaying.EnvelopingOverrides

	relays := splitRelayList(cCtx.StringSlice(common.PreferredRelaysFlag.Name))
	if len(relays) == 0 {
		relays = network.PreferredRelays
	}
	if len(relays) > 0 {
		overrides.PreferredRelays = append([]string{}, relays...)
	}

	if cCtx.IsSet(common.OnlyPreferredRelaysFlag.Name) {
		only := cCtx.Bool(common.OnlyPreferredRelaysFlag.Name)
		overrides.OnlyPreferredRelays = &only
	}
	return overrides
}

// splitRelayList accepts both repeated flags and comma separated env values.
func splitRelayList(values []string) []string {
	var relays []string
	for _, value := range values {
		for _, relay := range strings.Split(value, ",") {
			if relay = strings.TrimSpace(relay); relay != "" {
				relays = append(relays, relay)
			}
		}
	}
	return relays
}

// GetPrivateKey looks in the flag (or PRIVATE_KEY) and then the keyring. An empty
// result means the node's unlocked accounts sign.
func GetPrivateKey(cCtx *cli.Context, network string) (string, error) {
	if privateKey := cCtx.String(common.PrivateKeyFlag.Name); privateKey != "" {
		if err := common.ValidatePrivateKey(privateKey); err != nil {
			return "", fmt.Errorf("invalid private key format: %w", err)
		}
		return privateKey, nil
	}

	privateKey, err := common.GetPrivateKey(network)
	if err != nil {
		if errors.Is(err, common.ErrKeyNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read keyring for %s: %w", network, err)
	}
	if err := common.ValidatePrivateKey(privateKey); err != nil {
		return "", fmt.Errorf("invalid private key in keyring for %s: %w", network, err)
	}
	return privateKey, nil
}

// GetPrivateKeyOrFail is GetPrivateKey for commands that cannot fall back to node accounts.
func GetPrivateKeyOrFail(cCtx *cli.Context, network string) (string, error) {
	privateKey, err := GetPrivateKey(cCtx, network)
	if err != nil {
		return "", err
	}
	if privateKey == "" {
		return "", fmt.Errorf(`private key required. Please provide it via:
  • Keyring: relayctl auth login
  • Flag: --private-key YOUR_KEY
  • Environment: export %s=YOUR_KEY`, common.PrivateKeyEnvVar)
	}
	return privateKey, nil
}

// GetOwnerAddress returns the address of the configured signing key without touching the node.
func GetOwnerAddress(cCtx *cli.Context) (ethcommon.Address, error) {
	network, err := GetNetworkConfig(cCtx)
	if err != nil {
		return ethcommon.Address{}, err
	}
	privateKey, err := GetPrivateKeyOrFail(cCtx, network.Name)
	if err != nil {
		return ethcommon.Address{}, err
	}
	return common.GetAddressFromPrivateKey(privateKey)
}
