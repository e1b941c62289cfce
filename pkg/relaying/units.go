package relaying

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/holiman/uint256"
)

// TokenDecimals is the fixed-point scale applied to human-denominated fees.
const TokenDecimals = 18

// ToWei scales a decimal amount such as "1.5" by 10^18. An empty amount is zero.
func ToWei(amount string) (*big.Int, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return new(big.Int), nil
	}
	if strings.HasPrefix(amount, "-") {
		return nil, fmt.Errorf("invalid amount %q: must not be negative", amount)
	}

	whole, frac, hasFrac := strings.Cut(amount, ".")
	if whole == "" && frac == "" {
		return nil, fmt.Errorf("invalid amount %q: no digits", amount)
	}
	if !isDecimal(whole) || !isDecimal(frac) {
		return nil, fmt.Errorf("invalid amount %q: expected decimal digits with an optional fraction", amount)
	}
	if hasFrac && len(frac) > TokenDecimals {
		return nil, fmt.Errorf("invalid amount %q: at most %d decimals", amount, TokenDecimals)
	}
	frac += strings.Repeat("0", TokenDecimals-len(frac))

	digits := strings.TrimLeft(whole+frac, "0")
	if digits == "" {
		return new(big.Int), nil
	}
	value, err := uint256.FromDecimal(digits)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: too large for a 256-bit token amount", amount)
	}
	return value.ToBig(), nil
}

func isDecimal(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
