package relaying

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/mock"

	relaycommon "github.com/relaykit/relayctl/pkg/common"
)

var (
	ownerAddress = common.HexToAddress("0xAAAaAAAaaAAAAaaaaAAAaAaAaAAaaaaaaAAaAaaa")
	tokenAddress = common.HexToAddress("0x726ECC75d5D51356AA4d0a5B648790cC345985ED")
	tokenA       = common.HexToAddress("0x000000000000000000000000000000000000000A")
	tokenB       = common.HexToAddress("0x000000000000000000000000000000000000000B")
)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(err)
	}
	return parsed
}

var (
	factoryABI  = mustParseABI(SmartWalletFactoryABI)
	verifierABI = mustParseABI(VerifierABI)
	erc20ABI    = mustParseABI(ERC20ABI)
)

// rpcError mimics a node error carrying revert data.
type rpcError struct {
	msg  string
	data string
}

func (e *rpcError) Error() string          { return e.msg }
func (e *rpcError) ErrorData() interface{} { return e.data }

func revertError(reason string) error {
	stringType, _ := abi.NewType("string", "", nil)
	packed, _ := abi.Arguments{{Type: stringType}}.Pack(reason)
	data := append(crypto.Keccak256([]byte("Error(string)"))[:4], packed...)
	return &rpcError{msg: "execution reverted: " + reason, data: hexutil.Encode(data)}
}

type sendResult struct {
	receipt *types.Receipt
	err     error
}

// fakeChain answers the calls the relaying core makes against a registry address set.
type fakeChain struct {
	mu sync.Mutex

	chainID   *big.Int
	accounts  []common.Address
	addresses relaycommon.ChainAddressSet

	code           map[common.Address][]byte
	balances       map[common.Address]*big.Int
	relayTokens    []common.Address
	deployTokens   []common.Address
	receipts       map[common.Hash]*types.Receipt
	pendingPolls   int
	sendResults    []sendResult
	replayErr      error
	accountsErr    error
	codeLookups    int
	receiptLookups int
	sent           []ethereum.CallMsg
}

func newFakeChain(chainID uint64, addresses relaycommon.ChainAddressSet) *fakeChain {
	return &fakeChain{
		chainID:   new(big.Int).SetUint64(chainID),
		accounts:  []common.Address{ownerAddress},
		addresses: addresses,
		code:      map[common.Address][]byte{},
		balances:  map[common.Address]*big.Int{},
		receipts:  map[common.Hash]*types.Receipt{},
	}
}

func (f *fakeChain) setCode(address common.Address, code []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.code[address] = code
}

func (f *fakeChain) addReceipt(receipt *types.Receipt) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.receipts[receipt.TxHash] = receipt
}

func (f *fakeChain) CodeAt(_ context.Context, account common.Address, _ *big.Int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.codeLookups++
	return f.code[account], nil
}

func (f *fakeChain) ChainID(context.Context) (*big.Int, error) {
	return f.chainID, nil
}

func (f *fakeChain) SuggestGasPrice(context.Context) (*big.Int, error) {
	return big.NewInt(60000000), nil
}

func (f *fakeChain) Accounts(context.Context) ([]common.Address, error) {
	return f.accounts, f.accountsErr
}

func (f *fakeChain) TransactionReceipt(_ context.Context, txHash common.Hash) (*types.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.receiptLookups++
	if f.pendingPolls > 0 {
		f.pendingPolls--
		return nil, ethereum.NotFound
	}
	receipt, ok := f.receipts[txHash]
	if !ok {
		return nil, ethereum.NotFound
	}
	return receipt, nil
}

func (f *fakeChain) SendAndWait(_ context.Context, _ string, msg *ethereum.CallMsg) (*types.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, *msg)
	if len(f.sendResults) > 0 {
		next := f.sendResults[0]
		f.sendResults = f.sendResults[1:]
		return next.receipt, next.err
	}
	return &types.Receipt{
		Status:      types.ReceiptStatusSuccessful,
		TxHash:      common.BigToHash(big.NewInt(int64(len(f.sent)))),
		BlockNumber: big.NewInt(10),
	}, nil
}

func (f *fakeChain) CallContract(_ context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if call.To == nil || len(call.Data) < 4 {
		return nil, fmt.Errorf("malformed call")
	}

	switch *call.To {
	case f.addresses.SmartWalletFactory:
		method, args, err := decodeCall(factoryABI, call.Data)
		if err != nil {
			return nil, err
		}
		switch method.Name {
		case "getSmartWalletAddress":
			return method.Outputs.Pack(deriveWalletAddress(args[0].(common.Address), args[1].(common.Address), args[2].(*big.Int)))
		case "nonce":
			return method.Outputs.Pack(big.NewInt(0))
		}
	case f.addresses.SmartWalletRelayVerifier, f.addresses.SmartWalletDeployVerifier:
		if blockNumber != nil {
			return nil, f.replayErr
		}
		method, args, err := decodeCall(verifierABI, call.Data)
		if err != nil {
			return nil, err
		}
		tokens := f.deployTokens
		if *call.To == f.addresses.SmartWalletRelayVerifier {
			tokens = f.relayTokens
		}
		switch method.Name {
		case "acceptsToken":
			token := args[0].(common.Address)
			for _, t := range tokens {
				if t == token {
					return method.Outputs.Pack(true)
				}
			}
			return method.Outputs.Pack(false)
		case "getAcceptedTokens":
			return method.Outputs.Pack(tokens)
		}
	default:
		method, args, err := decodeCall(erc20ABI, call.Data)
		if err != nil {
			return nil, err
		}
		if method.Name == "balanceOf" {
			balance, ok := f.balances[args[0].(common.Address)]
			if !ok {
				balance = new(big.Int)
			}
			return method.Outputs.Pack(balance)
		}
	}
	return nil, fmt.Errorf("unexpected call to %s", call.To.Hex())
}

func decodeCall(contractABI abi.ABI, data []byte) (*abi.Method, []any, error) {
	method, err := contractABI.MethodById(data[:4])
	if err != nil {
		return nil, nil, err
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, nil, err
	}
	return method, args, nil
}

// deriveWalletAddress stands in for the factory's create2 derivation.
func deriveWalletAddress(owner, recoverer common.Address, index *big.Int) common.Address {
	hash := crypto.Keccak256(owner.Bytes(), recoverer.Bytes(), common.BigToHash(index).Bytes())
	return common.BytesToAddress(hash[12:])
}

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) DeploySmartWallet(ctx context.Context, envelope *RelayEnvelope) (*TransactionHandle, error) {
	args := m.Called(ctx, envelope)
	handle, _ := args.Get(0).(*TransactionHandle)
	return handle, args.Error(1)
}

func (m *mockProvider) Send(ctx context.Context, request *JSONRPCRequest, callback RelayCallback) {
	m.Called(ctx, request, callback)
}

func (m *mockProvider) EstimateMaxPossibleRelayGas(ctx context.Context, envelope *RelayEnvelope, relayWorker common.Address) (*big.Int, error) {
	args := m.Called(ctx, envelope, relayWorker)
	gas, _ := args.Get(0).(*big.Int)
	return gas, args.Error(1)
}

func (m *mockProvider) EstimateMaxPossibleRelayGasWithLinearFit(ctx context.Context, envelope *RelayEnvelope, relayWorker common.Address) (*big.Int, error) {
	args := m.Called(ctx, envelope, relayWorker)
	gas, _ := args.Get(0).(*big.Int)
	return gas, args.Error(1)
}

func (m *mockProvider) CalculateGasPrice(ctx context.Context) (*big.Int, error) {
	args := m.Called(ctx)
	price, _ := args.Get(0).(*big.Int)
	return price, args.Error(1)
}

func (m *mockProvider) InternalCallCost(ctx context.Context, envelope *RelayEnvelope) (*big.Int, error) {
	args := m.Called(ctx, envelope)
	gas, _ := args.Get(0).(*big.Int)
	return gas, args.Error(1)
}

func (m *mockProvider) EstimateTokenTransferGas(ctx context.Context, envelope *RelayEnvelope, relayWorker common.Address) (*big.Int, error) {
	args := m.Called(ctx, envelope, relayWorker)
	gas, _ := args.Get(0).(*big.Int)
	return gas, args.Error(1)
}

func (m *mockProvider) AddAccount(key *ecdsa.PrivateKey) {
	m.Called(key)
}
