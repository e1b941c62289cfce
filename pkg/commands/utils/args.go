package utils

import (
	"fmt"
	"math/big"
	"strings"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/urfave/cli/v2"
)

// ParseAddress validates a hex address given for field.
func ParseAddress(value, field string) (ethcommon.Address, error) {
	value = strings.TrimSpace(value)
	if !ethcommon.IsHexAddress(value) {
		return ethcommon.Address{}, fmt.Errorf("invalid %s address: %q", field, value)
	}
	return ethcommon.HexToAddress(value), nil
}

// OptionalAddress returns nil when the flag is unset.
func OptionalAddress(cCtx *cli.Context, flag string) (*ethcommon.Address, error) {
	value := cCtx.String(flag)
	if value == "" {
		return nil, nil
	}
	address, err := ParseAddress(value, flag)
	if err != nil {
		return nil, err
	}
	return &address, nil
}

// OptionalBigInt parses a decimal or 0x-prefixed integer flag, nil when unset.
func OptionalBigInt(cCtx *cli.Context, flag string) (*big.Int, error) {
	value := strings.TrimSpace(cCtx.String(flag))
	if value == "" {
		return nil, nil
	}
	n, ok := math.ParseBig256(value)
	if !ok || n.Sign() < 0 {
		return nil, fmt.Errorf("invalid --%s value: %q", flag, value)
	}
	return n, nil
}

// OptionalBool returns nil when the flag was not given on the command line.
func OptionalBool(cCtx *cli.Context, flag string) *bool {
	if !cCtx.IsSet(flag) {
		return nil
	}
	value := cCtx.Bool(flag)
	return &value
}

// ParseCallData decodes 0x-prefixed calldata; empty input is an empty call.
func ParseCallData(value string) ([]byte, error) {
	value = strings.TrimSpace(value)
	if value == "" || value == "0x" {
		return []byte{}, nil
	}
	if !strings.HasPrefix(value, "0x") {
		value = "0x" + value
	}
	data, err := hexutil.Decode(value)
	if err != nil {
		return nil, fmt.Errorf("invalid call data: %w", err)
	}
	return data, nil
}
