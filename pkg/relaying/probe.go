package relaying

import (
	"bytes"
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// noCodeSentinel is what some nodes return instead of empty code for unused accounts.
var noCodeSentinel = []byte{0x00}

// CodeReader is the part of the chain client the probe needs.
type CodeReader interface {
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)
}

// HasDeployedCode reports whether address holds contract code at the latest block.
// It always queries the chain.
func HasDeployedCode(ctx context.Context, reader CodeReader, address common.Address) (bool, error) {
	code, err := reader.CodeAt(ctx, address, nil)
	if err != nil {
		return false, fmt.Errorf("failed to get code at %s: %w", address.Hex(), err)
	}
	if len(code) == 0 || bytes.Equal(code, noCodeSentinel) {
		return false, nil
	}
	return true, nil
}
