package common

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/relaykit/relayctl/pkg/common/iface"
	"github.com/relaykit/relayctl/pkg/common/output"
)

const (
	gasLimitOverestimationPercentage = 20  // 20%
	gasPriceOverestimationPercentage = 100 // 100%, dynamic fee chains only
)

// ContractCaller is the chain client used by the relaying core. It signs locally when a
// private key is configured and otherwise lets the node sign with its unlocked accounts.
type ContractCaller struct {
	*ethclient.Client

	rpcClient    *rpc.Client
	privateKey   *ecdsa.PrivateKey
	chainID      *big.Int
	network      NetworkConfig
	logger       iface.Logger
	pollInterval time.Duration

	// SelfAddress is the signing account, zero when the node signs.
	SelfAddress common.Address
}

// DialContractCaller connects to rpcURL and builds a ContractCaller for network.
// An empty privateKeyHex selects node-managed accounts.
func DialContractCaller(ctx context.Context, rpcURL, privateKeyHex string, network NetworkConfig, logger iface.Logger) (*ContractCaller, error) {
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", rpcURL, err)
	}
	client := ethclient.NewClient(rpcClient)

	chainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to get chain ID: %w", err)
	}

	caller, err := NewContractCaller(privateKeyHex, chainID, network, rpcClient, logger)
	if err != nil {
		client.Close()
		return nil, err
	}
	return caller, nil
}

func NewContractCaller(privateKeyHex string, chainID *big.Int, network NetworkConfig, rpcClient *rpc.Client, logger iface.Logger) (*ContractCaller, error) {
	cc := &ContractCaller{
		Client:       ethclient.NewClient(rpcClient),
		rpcClient:    rpcClient,
		chainID:      chainID,
		network:      network,
		logger:       logger,
		pollInterval: ReceiptPollIntervalMilliseconds * time.Millisecond,
	}

	if privateKeyHex != "" {
		privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
		if err != nil {
			return nil, fmt.Errorf("invalid private key: %w", err)
		}
		cc.privateKey = privateKey
		cc.SelfAddress = crypto.PubkeyToAddress(privateKey.PublicKey)
	}
	return cc, nil
}

// PrivateKey returns the configured signing key, nil when the node signs.
func (cc *ContractCaller) PrivateKey() *ecdsa.PrivateKey {
	return cc.privateKey
}

// Accounts lists the accounts the node manages (eth_accounts).
func (cc *ContractCaller) Accounts(ctx context.Context) ([]common.Address, error) {
	var accounts []common.Address
	if err := cc.rpcClient.CallContext(ctx, &accounts, "eth_accounts"); err != nil {
		return nil, fmt.Errorf("failed to get accounts: %w", err)
	}
	return accounts, nil
}

// SignTypedData asks the node to sign EIP-712 data with one of its unlocked accounts.
func (cc *ContractCaller) SignTypedData(ctx context.Context, account common.Address, typedData apitypes.TypedData) ([]byte, error) {
	var sig hexutil.Bytes
	if err := cc.rpcClient.CallContext(ctx, &sig, "eth_signTypedData_v4", account, typedData); err != nil {
		return nil, fmt.Errorf("failed to sign typed data with %s: %w", account.Hex(), err)
	}
	return sig, nil
}

/// TX SENDING

// SendAndWait submits callMsg and waits until it is mined. A reverted transaction is
// returned as a receipt with a failed status rather than as an error.
func (cc *ContractCaller) SendAndWait(ctx context.Context, txDescription string, callMsg *ethereum.CallMsg) (*types.Receipt, error) {
	if cc.privateKey == nil {
		return cc.sendFromNodeAccount(ctx, txDescription, callMsg)
	}

	// if from is not set, use self address
	if callMsg.From == (common.Address{}) {
		callMsg.From = cc.SelfAddress
	}

	params, err := cc.getTxParams(ctx, *callMsg)
	if err != nil {
		return nil, err
	}

	if cc.isMainnet() {
		maxCostWei := new(big.Int).Mul(new(big.Int).SetUint64(params.gas), params.maxPrice())
		if err := cc.showConfirmationPrompt(txDescription, FormatNative(maxCostWei)); err != nil {
			return nil, err
		}
	}

	tx := params.toTx(cc.chainID, *callMsg)

	signer := types.LatestSignerForChainID(cc.chainID)
	signedTx, err := types.SignTx(tx, signer, cc.privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := cc.SendTransaction(ctx, signedTx); err != nil {
		return nil, fmt.Errorf("failed to send transaction: %w", err)
	}
	cc.logger.Debug("Sent %s transaction %s", txDescription, signedTx.Hash().Hex())

	return cc.waitForReceipt(ctx, txDescription, signedTx.Hash())
}

// sendFromNodeAccount lets the node sign with one of its unlocked accounts.
func (cc *ContractCaller) sendFromNodeAccount(ctx context.Context, txDescription string, callMsg *ethereum.CallMsg) (*types.Receipt, error) {
	if callMsg.From == (common.Address{}) {
		accounts, err := cc.Accounts(ctx)
		if err != nil {
			return nil, err
		}
		if len(accounts) == 0 {
			return nil, fmt.Errorf("no signing key configured and the node manages no accounts")
		}
		callMsg.From = accounts[0]
	}

	gasEstimate, err := cc.estimateGas(ctx, *callMsg)
	if err != nil {
		return nil, err
	}

	args := map[string]any{
		"from": callMsg.From,
		"data": hexutil.Bytes(callMsg.Data),
		"gas":  hexutil.Uint64(gasEstimate),
	}
	if callMsg.To != nil {
		args["to"] = callMsg.To
	}
	if callMsg.Value != nil {
		args["value"] = (*hexutil.Big)(callMsg.Value)
	}

	var txHash common.Hash
	if err := cc.rpcClient.CallContext(ctx, &txHash, "eth_sendTransaction", args); err != nil {
		return nil, fmt.Errorf("failed to send transaction: %w", err)
	}
	cc.logger.Debug("Sent %s transaction %s from node account %s", txDescription, txHash.Hex(), callMsg.From.Hex())

	return cc.waitForReceipt(ctx, txDescription, txHash)
}

func (cc *ContractCaller) waitForReceipt(ctx context.Context, txDescription string, txHash common.Hash) (*types.Receipt, error) {
	ticker := time.NewTicker(cc.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := cc.TransactionReceipt(ctx, txHash)
		if err == nil {
			if receipt.Status == types.ReceiptStatusFailed {
				cc.logger.Error("%s transaction (hash: %s) reverted", txDescription, txHash.Hex())
			}
			return receipt, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			cc.logger.Error("Waiting for %s transaction (hash: %s) failed: %v", txDescription, txHash.Hex(), err)
			return nil, fmt.Errorf("waiting for %s transaction (hash: %s): %w", txDescription, txHash.Hex(), err)
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for %s transaction (hash: %s): %w", txDescription, txHash.Hex(), ctx.Err())
		case <-ticker.C:
		}
	}
}

// showConfirmationPrompt displays a simplified confirmation dialog
func (cc *ContractCaller) showConfirmationPrompt(txDescription string, cost string) error {
	fmt.Println()
	fmt.Printf("%s on \033[1m%s\033[0m (max cost: %s RBTC)\n", txDescription, cc.network.Name, cost)
	fmt.Println()

	confirmed, err := output.Confirm("Continue?")
	if err != nil {
		return fmt.Errorf("failed to get confirmation: %w", err)
	}
	if !confirmed {
		return fmt.Errorf("operation cancelled")
	}

	fmt.Println()
	return nil
}

// txParams holds the fee fields of a transaction. BaseFee is nil on chains without
// EIP-1559, in which case a legacy transaction is built.
type txParams struct {
	nonce     uint64
	gas       uint64
	gasPrice  *big.Int
	gasTipCap *big.Int
	gasFeeCap *big.Int
}

func (p txParams) maxPrice() *big.Int {
	if p.gasFeeCap != nil {
		return p.gasFeeCap
	}
	return p.gasPrice
}

func (p txParams) toTx(chainID *big.Int, callMsg ethereum.CallMsg) *types.Transaction {
	if p.gasFeeCap == nil {
		return types.NewTx(&types.LegacyTx{
			Nonce:    p.nonce,
			GasPrice: p.gasPrice,
			Gas:      p.gas,
			To:       callMsg.To,
			Value:    callMsg.Value,
			Data:     callMsg.Data,
		})
	}
	return types.NewTx(&types.DynamicFeeTx{
		ChainID:    chainID,
		Nonce:      p.nonce,
		GasTipCap:  p.gasTipCap,
		GasFeeCap:  p.gasFeeCap,
		Gas:        p.gas,
		To:         callMsg.To,
		Value:      callMsg.Value,
		Data:       callMsg.Data,
		AccessList: callMsg.AccessList,
	})
}

func (cc *ContractCaller) getTxParams(ctx context.Context, callMsg ethereum.CallMsg) (txParams, error) {
	nonce, err := cc.PendingNonceAt(ctx, callMsg.From)
	if err != nil {
		return txParams{}, fmt.Errorf("failed to get nonce: %w", err)
	}

	head, err := cc.HeaderByNumber(ctx, nil)
	if err != nil {
		return txParams{}, fmt.Errorf("failed to get block by number: %w", err)
	}

	gasEstimate, err := cc.estimateGas(ctx, callMsg)
	if err != nil {
		return txParams{}, err
	}
	params := txParams{nonce: nonce, gas: gasEstimate}

	if head.BaseFee == nil {
		gasPrice, err := cc.SuggestGasPrice(ctx)
		if err != nil {
			return txParams{}, fmt.Errorf("failed to suggest gas price: %w", err)
		}
		params.gasPrice = gasPrice
		return params, nil
	}

	gasTipCap, err := cc.SuggestGasTipCap(ctx)
	if err != nil {
		return txParams{}, fmt.Errorf("failed to suggest gas tip cap: %w", err)
	}
	gasFeeCap := new(big.Int).Add(head.BaseFee, gasTipCap)
	gasFeeCap = new(big.Int).Mul(gasFeeCap, big.NewInt(100+gasPriceOverestimationPercentage))
	gasFeeCap = new(big.Int).Div(gasFeeCap, big.NewInt(100))

	params.gasTipCap = gasTipCap
	params.gasFeeCap = gasFeeCap
	return params, nil
}

func (cc *ContractCaller) estimateGas(ctx context.Context, callMsg ethereum.CallMsg) (uint64, error) {
	gasEstimate, err := cc.EstimateGas(ctx, callMsg)
	if err != nil {
		return 0, parseEstimateGasError(err)
	}
	return gasEstimate * (100 + gasLimitOverestimationPercentage) / 100, nil
}

// parseEstimateGasError surfaces the revert reason of a failed estimate while keeping
// the RPC error, and its revert data, in the chain.
func parseEstimateGasError(err error) error {
	if reason, ok := DecodeRevertReason(err); ok {
		return fmt.Errorf("failed to estimate gas: execution reverted: %s: %w", reason, err)
	}
	return fmt.Errorf("failed to estimate gas: %w", err)
}

// isMainnet checks if the connected chain is RSK mainnet
func (cc *ContractCaller) isMainnet() bool {
	return cc.chainID != nil && cc.chainID.Uint64() == MainnetChainID
}
