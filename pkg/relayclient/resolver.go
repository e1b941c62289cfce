package relayclient

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/relaykit/relayctl/pkg/relaying"
)

// Protocol defaults filled in by the resolver when the partial configuration leaves them unset.
const (
	DefaultMinGasPrice       = 60000000
	DefaultMaxRelayNonceGap  = 3
	DefaultSliceSize         = 3
	DefaultRelayTimeoutGrace = 1800 * time.Second
)

// Resolver completes a partial configuration against the connected chain.
type Resolver struct {
	chain relaying.ChainIDReader
}

var _ relaying.ConfigResolver = (*Resolver)(nil)

func NewResolver(chain relaying.ChainIDReader) *Resolver {
	return &Resolver{chain: chain}
}

func (r *Resolver) ResolveConfiguration(ctx context.Context, partial relaying.EnvelopingConfig) (relaying.EnvelopingConfig, error) {
	cfg := partial

	chainID, err := r.chain.ChainID(ctx)
	if err != nil {
		return relaying.EnvelopingConfig{}, fmt.Errorf("failed to read chain id: %w", err)
	}
	if cfg.ChainID == 0 {
		cfg.ChainID = chainID.Uint64()
	} else if !chainID.IsUint64() || chainID.Uint64() != cfg.ChainID {
		return relaying.EnvelopingConfig{}, fmt.Errorf("configured chain id %d does not match connected chain %s", cfg.ChainID, chainID)
	}

	relays := make([]string, 0, len(cfg.PreferredRelays))
	for _, relayURL := range cfg.PreferredRelays {
		trimmed := strings.TrimRight(strings.TrimSpace(relayURL), "/")
		if trimmed != "" {
			relays = append(relays, trimmed)
		}
	}
	cfg.PreferredRelays = relays
	if cfg.OnlyPreferredRelays && len(relays) == 0 {
		return relaying.EnvelopingConfig{}, errors.New("onlyPreferredRelays is set but no preferred relays are configured")
	}

	if cfg.MinGasPrice == nil {
		cfg.MinGasPrice = big.NewInt(DefaultMinGasPrice)
	} else {
		cfg.MinGasPrice = new(big.Int).Set(cfg.MinGasPrice)
	}
	if cfg.MaxRelayNonceGap == 0 {
		cfg.MaxRelayNonceGap = DefaultMaxRelayNonceGap
	}
	if cfg.SliceSize <= 0 {
		cfg.SliceSize = DefaultSliceSize
	}
	if cfg.RelayTimeoutGrace <= 0 {
		cfg.RelayTimeoutGrace = DefaultRelayTimeoutGrace
	}
	return cfg, nil
}
