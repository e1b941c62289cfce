package relaying

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
)

const (
	JSONRPCVersion        = "2.0"
	MethodSendTransaction = "eth_sendTransaction"
)

// RelayEnvelope is the payload handed to the relay provider for a deploy or a forwarded call.
type RelayEnvelope struct {
	From                common.Address  `json:"from"`
	To                  common.Address  `json:"to"`
	Value               *hexutil.Big    `json:"value,omitempty"`
	Data                hexutil.Bytes   `json:"data"`
	Gas                 *hexutil.Big    `json:"gas,omitempty"`
	CallVerifier        common.Address  `json:"callVerifier"`
	CallForwarder       common.Address  `json:"callForwarder"`
	TokenContract       common.Address  `json:"tokenContract"`
	TokenAmount         *hexutil.Big    `json:"tokenAmount"`
	TokenGas            *hexutil.Big    `json:"tokenGas,omitempty"`
	OnlyPreferredRelays bool            `json:"onlyPreferredRelays"`
	RelayHub            common.Address  `json:"relayHub"`
	IsSmartWalletDeploy bool            `json:"isSmartWalletDeploy"`
	Index               *hexutil.Big    `json:"index,omitempty"`
	Recoverer           *common.Address `json:"recoverer,omitempty"`
	SmartWalletAddress  *common.Address `json:"smartWalletAddress,omitempty"`
}

// TransactionHandle is what a provider hands back for a submitted transaction.
// Receipt is set only when the provider waited for it.
type TransactionHandle struct {
	Hash    common.Hash    `json:"hash"`
	Receipt *types.Receipt `json:"receipt,omitempty"`
}

// SmartWallet is a deterministic wallet address plus its deployment metadata.
type SmartWallet struct {
	Index             uint64             `json:"index"`
	Address           common.Address     `json:"address"`
	Deployed          bool               `json:"deployed"`
	DeployTransaction *TransactionHandle `json:"deployTransaction,omitempty"`
	TokenAddress      common.Address     `json:"tokenAddress"`
}

type JSONRPCRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type JSONRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *JSONRPCError) Error() string {
	return e.Message
}

type JSONRPCResponse struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Result  common.Hash   `json:"result"`
	Error   *JSONRPCError `json:"error,omitempty"`
}

// DeployOptions customises a deploy envelope. Nil fields take their defaults.
type DeployOptions struct {
	TokenAddress        *common.Address
	TokenAmount         *big.Int
	TokenGas            *big.Int
	CallVerifier        *common.Address
	CallForwarder       *common.Address
	Recoverer           *common.Address
	OnlyPreferredRelays *bool
}

// RelayOptions describes a call forwarded through a deployed smart wallet.
// Fee is a whole-token decimal amount, scaled by 10^18 before sending.
type RelayOptions struct {
	SmartWallet         SmartWallet
	To                  common.Address
	Data                []byte
	Value               *big.Int
	Gas                 *big.Int
	Fee                 string
	TokenAddress        *common.Address
	TokenGas            *big.Int
	OnlyPreferredRelays *bool
}

// EstimateOptions selects deploy or relay defaults through IsDeploy.
type EstimateOptions struct {
	IsDeploy            bool
	SmartWallet         SmartWallet
	To                  common.Address
	Data                []byte
	Value               *big.Int
	Fee                 string
	TokenAddress        *common.Address
	RelayWorker         common.Address
	CallVerifier        *common.Address
	CallForwarder       *common.Address
	Recoverer           *common.Address
	OnlyPreferredRelays *bool
}

func bigOrZero(v *big.Int) *hexutil.Big {
	if v == nil {
		return (*hexutil.Big)(new(big.Int))
	}
	return (*hexutil.Big)(new(big.Int).Set(v))
}

func bigOrNil(v *big.Int) *hexutil.Big {
	if v == nil {
		return nil
	}
	return (*hexutil.Big)(new(big.Int).Set(v))
}

func addressOr(v *common.Address, fallback common.Address) common.Address {
	if v == nil {
		return fallback
	}
	return *v
}

func boolOr(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}
