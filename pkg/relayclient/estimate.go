package relayclient

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/relaykit/relayctl/pkg/relaying"
)

// Gas model constants. Overheads cover the hub, verifier and forwarder work around the
// destination call; the linear fit is in basis points of the combined internal gas.
const (
	RelayOverheadGas  = 75000
	DeployOverheadGas = 175000

	// InternalCallCorrection is subtracted from eth_estimateGas results, which include the
	// intrinsic cost of a top-level transaction the relayed call does not pay.
	InternalCallCorrection = 21000

	relayFitSlopeBps       = 10276
	relayFitIntercept      = 35095
	deployFitSlopeBps      = 10276
	deployFitIntercept     = 193100
	basisPointsDenominator = 10000
)

var erc20ABI = mustParseABI(relaying.ERC20ABI)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(err)
	}
	return parsed
}

// InternalCallCost estimates the destination call as executed by the forwarder.
// A deploy without a destination call costs nothing here.
func (p *Provider) InternalCallCost(ctx context.Context, envelope *relaying.RelayEnvelope) (*big.Int, error) {
	if envelope.To == (common.Address{}) {
		return new(big.Int), nil
	}
	from := envelope.CallForwarder
	if envelope.IsSmartWalletDeploy && envelope.SmartWalletAddress != nil {
		from = *envelope.SmartWalletAddress
	}

	msg := ethereum.CallMsg{From: from, To: &envelope.To, Data: envelope.Data}
	if envelope.Value != nil {
		msg.Value = envelope.Value.ToInt()
	}
	gas, err := p.backend.EstimateGas(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("failed to estimate destination call: %w", err)
	}
	return correctInternalGas(gas), nil
}

// EstimateTokenTransferGas estimates the fee transfer to the relay worker. It is zero
// when no token or no amount is set.
func (p *Provider) EstimateTokenTransferGas(ctx context.Context, envelope *relaying.RelayEnvelope, relayWorker common.Address) (*big.Int, error) {
	amount := new(big.Int)
	if envelope.TokenAmount != nil {
		amount = envelope.TokenAmount.ToInt()
	}
	if envelope.TokenContract == (common.Address{}) || amount.Sign() == 0 {
		return new(big.Int), nil
	}

	payer := envelope.CallForwarder
	if envelope.IsSmartWalletDeploy && envelope.SmartWalletAddress != nil {
		payer = *envelope.SmartWalletAddress
	}

	data, err := erc20ABI.Pack("transfer", relayWorker, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to pack token transfer: %w", err)
	}
	gas, err := p.backend.EstimateGas(ctx, ethereum.CallMsg{From: payer, To: &envelope.TokenContract, Data: data})
	if err != nil {
		return nil, fmt.Errorf("failed to estimate token transfer: %w", err)
	}
	return correctInternalGas(gas), nil
}

// EstimateMaxPossibleRelayGas adds the fixed relay or deploy overhead to the internal gas.
func (p *Provider) EstimateMaxPossibleRelayGas(ctx context.Context, envelope *relaying.RelayEnvelope, relayWorker common.Address) (*big.Int, error) {
	internal, err := p.internalGas(ctx, envelope, relayWorker)
	if err != nil {
		return nil, err
	}
	overhead := int64(RelayOverheadGas)
	if envelope.IsSmartWalletDeploy {
		overhead = DeployOverheadGas
	}
	return internal.Add(internal, big.NewInt(overhead)), nil
}

// EstimateMaxPossibleRelayGasWithLinearFit applies ceil(slope * internal) + intercept.
func (p *Provider) EstimateMaxPossibleRelayGasWithLinearFit(ctx context.Context, envelope *relaying.RelayEnvelope, relayWorker common.Address) (*big.Int, error) {
	internal, err := p.internalGas(ctx, envelope, relayWorker)
	if err != nil {
		return nil, err
	}
	slope, intercept := int64(relayFitSlopeBps), int64(relayFitIntercept)
	if envelope.IsSmartWalletDeploy {
		slope, intercept = deployFitSlopeBps, deployFitIntercept
	}
	return LinearFit(internal, slope, intercept), nil
}

// CalculateGasPrice scales the node's suggested price by the configured factor, floored
// at the configured minimum.
func (p *Provider) CalculateGasPrice(ctx context.Context) (*big.Int, error) {
	suggested, err := p.backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to suggest gas price: %w", err)
	}
	return ApplyGasPriceFactor(suggested, p.cfg.GasPriceFactorPercent, p.cfg.MinGasPrice), nil
}

// internalGas is the destination gas plus the token transfer gas, estimating whichever
// the envelope does not already carry.
func (p *Provider) internalGas(ctx context.Context, envelope *relaying.RelayEnvelope, relayWorker common.Address) (*big.Int, error) {
	var callGas *big.Int
	if envelope.Gas != nil {
		callGas = new(big.Int).Set(envelope.Gas.ToInt())
	} else {
		var err error
		if callGas, err = p.InternalCallCost(ctx, envelope); err != nil {
			return nil, err
		}
	}

	var tokenGas *big.Int
	if envelope.TokenGas != nil {
		tokenGas = new(big.Int).Set(envelope.TokenGas.ToInt())
	} else {
		var err error
		if tokenGas, err = p.EstimateTokenTransferGas(ctx, envelope, relayWorker); err != nil {
			return nil, err
		}
	}
	return callGas.Add(callGas, tokenGas), nil
}

// LinearFit returns ceil(x * slopeBps / 10000) + intercept.
func LinearFit(x *big.Int, slopeBps, intercept int64) *big.Int {
	scaled := new(big.Int).Mul(x, big.NewInt(slopeBps))
	scaled.Add(scaled, big.NewInt(basisPointsDenominator-1))
	scaled.Div(scaled, big.NewInt(basisPointsDenominator))
	return scaled.Add(scaled, big.NewInt(intercept))
}

// ApplyGasPriceFactor returns price * (100 + factorPercent) / 100, at least minPrice.
func ApplyGasPriceFactor(price *big.Int, factorPercent int, minPrice *big.Int) *big.Int {
	adjusted := new(big.Int).Mul(price, big.NewInt(int64(100+factorPercent)))
	adjusted.Div(adjusted, big.NewInt(100))
	if minPrice != nil && adjusted.Cmp(minPrice) < 0 {
		return new(big.Int).Set(minPrice)
	}
	return adjusted
}

func correctInternalGas(estimate uint64) *big.Int {
	if estimate > InternalCallCorrection {
		estimate -= InternalCallCorrection
	}
	return new(big.Int).SetUint64(estimate)
}
