package relaying

import (
	"context"
	"crypto/ecdsa"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ChainClient is the chain RPC the relaying core depends on.
type ChainClient interface {
	CodeReader
	ContractCallBackend
	ChainID(ctx context.Context) (*big.Int, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	Accounts(ctx context.Context) ([]common.Address, error)
	SendAndWait(ctx context.Context, description string, msg *ethereum.CallMsg) (*types.Receipt, error)
}

// RelayCallback receives the outcome of Send exactly once.
type RelayCallback func(err error, resp *JSONRPCResponse)

// RelayProvider submits envelopes to the relay network and prices them.
type RelayProvider interface {
	DeploySmartWallet(ctx context.Context, envelope *RelayEnvelope) (*TransactionHandle, error)
	Send(ctx context.Context, request *JSONRPCRequest, callback RelayCallback)
	EstimateMaxPossibleRelayGas(ctx context.Context, envelope *RelayEnvelope, relayWorker common.Address) (*big.Int, error)
	EstimateMaxPossibleRelayGasWithLinearFit(ctx context.Context, envelope *RelayEnvelope, relayWorker common.Address) (*big.Int, error)
	CalculateGasPrice(ctx context.Context) (*big.Int, error)
	InternalCallCost(ctx context.Context, envelope *RelayEnvelope) (*big.Int, error)
	EstimateTokenTransferGas(ctx context.Context, envelope *RelayEnvelope, relayWorker common.Address) (*big.Int, error)
	AddAccount(key *ecdsa.PrivateKey)
}

// ConfigResolver completes a partial configuration with protocol parameters.
type ConfigResolver interface {
	ResolveConfiguration(ctx context.Context, partial EnvelopingConfig) (EnvelopingConfig, error)
}

// ProviderFactory builds the relay provider once the configuration is resolved.
type ProviderFactory func(cfg EnvelopingConfig) (RelayProvider, error)
