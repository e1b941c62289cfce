package relayclient

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/relaykit/relayctl/pkg/common/logger"
	"github.com/relaykit/relayctl/pkg/relaying"
)

var (
	hubAddress      = common.HexToAddress("0x00000000000000000000000000000000000000A1")
	workerAddress   = common.HexToAddress("0x00000000000000000000000000000000000000B2")
	feesReceiver    = common.HexToAddress("0x00000000000000000000000000000000000000C3")
	walletAddress   = common.HexToAddress("0x00000000000000000000000000000000000000D4")
	factoryAddress  = common.HexToAddress("0x00000000000000000000000000000000000000E5")
	verifierAddress = common.HexToAddress("0x00000000000000000000000000000000000000F6")
	targetAddress   = common.HexToAddress("0x0000000000000000000000000000000000000107")
	tokenAddress    = common.HexToAddress("0x0000000000000000000000000000000000000218")

	walletABI  = mustParseABI(relaying.SmartWalletABI)
	factoryABI = mustParseABI(relaying.SmartWalletFactoryABI)
)

// fakeBackend answers nonce reads and estimates with fixed values.
type fakeBackend struct {
	mu             sync.Mutex
	estimate       uint64
	estimateErr    error
	gasPrice       *big.Int
	walletNonce    int64
	factoryNonce   int64
	workerNonce    uint64
	pendingPolls   int
	receiptStatus  uint64
	estimateCalls  []ethereum.CallMsg
	nonceCallees   []common.Address
	receiptLookups int
	head           uint64
	logs           []types.Log
	logsErr        error
	filterQueries  []ethereum.FilterQuery
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		estimate:      50000,
		gasPrice:      big.NewInt(65000000),
		walletNonce:   4,
		factoryNonce:  2,
		workerNonce:   5,
		receiptStatus: types.ReceiptStatusSuccessful,
		head:          1000,
	}
}

func (b *fakeBackend) CallContract(_ context.Context, call ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if call.To != nil {
		b.nonceCallees = append(b.nonceCallees, *call.To)
	}
	switch {
	case bytes.HasPrefix(call.Data, walletABI.Methods["nonce"].ID):
		return walletABI.Methods["nonce"].Outputs.Pack(big.NewInt(b.walletNonce))
	case bytes.HasPrefix(call.Data, factoryABI.Methods["nonce"].ID):
		return factoryABI.Methods["nonce"].Outputs.Pack(big.NewInt(b.factoryNonce))
	}
	return nil, fmt.Errorf("unexpected call %x", call.Data)
}

func (b *fakeBackend) EstimateGas(_ context.Context, call ethereum.CallMsg) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.estimateCalls = append(b.estimateCalls, call)
	return b.estimate, b.estimateErr
}

func (b *fakeBackend) SuggestGasPrice(context.Context) (*big.Int, error) {
	return new(big.Int).Set(b.gasPrice), nil
}

func (b *fakeBackend) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	return b.workerNonce, nil
}

func (b *fakeBackend) TransactionReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.receiptLookups++
	if b.pendingPolls > 0 {
		b.pendingPolls--
		return nil, ethereum.NotFound
	}
	return &types.Receipt{Status: b.receiptStatus, TxHash: hash, BlockNumber: big.NewInt(10)}, nil
}

func (b *fakeBackend) BlockNumber(context.Context) (uint64, error) {
	return b.head, nil
}

// FilterLogs returns the configured logs that fall inside the query's block range.
func (b *fakeBackend) FilterLogs(_ context.Context, query ethereum.FilterQuery) ([]types.Log, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.filterQueries = append(b.filterQueries, query)
	if b.logsErr != nil {
		return nil, b.logsErr
	}
	var out []types.Log
	for _, log := range b.logs {
		if query.FromBlock != nil && log.BlockNumber < query.FromBlock.Uint64() {
			continue
		}
		if query.ToBlock != nil && log.BlockNumber > query.ToBlock.Uint64() {
			continue
		}
		out = append(out, log)
	}
	return out, nil
}

// registrationLog builds a RelayServerRegistered log emitted by hubAddress.
func registrationLog(t *testing.T, manager common.Address, relayURL string, block uint64) types.Log {
	t.Helper()
	event := relayHubABI.Events[relayRegisteredEvent]
	data, err := event.Inputs.NonIndexed().Pack(relayURL)
	require.NoError(t, err)
	return types.Log{
		Address:     hubAddress,
		Topics:      []common.Hash{event.ID, common.BytesToHash(manager.Bytes())},
		Data:        data,
		BlockNumber: block,
	}
}

// fakeRelay is a relay server that records what it was asked to relay.
type fakeRelay struct {
	mu       sync.Mutex
	ping     PingResponse
	txHash   common.Hash
	signedTx []byte
	reject   string
	requests []RelayTransactionRequest
}

func newFakeRelay(t *testing.T, txHash common.Hash, opts ...func(*fakeRelay)) (*fakeRelay, string) {
	t.Helper()
	relay := &fakeRelay{
		ping: PingResponse{
			RelayWorkerAddress: workerAddress,
			RelayHubAddress:    hubAddress,
			FeesReceiver:       feesReceiver,
			MinGasPrice:        "70000000",
			ChainID:            "33",
			Ready:              true,
			Version:            "2.0.1",
		},
		txHash: txHash,
	}
	for _, opt := range opts {
		opt(relay)
	}
	server := httptest.NewServer(relay)
	t.Cleanup(server.Close)
	return relay, server.URL
}

func (r *fakeRelay) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")

	switch req.URL.Path {
	case "/getaddr":
		_ = json.NewEncoder(w).Encode(r.ping)
	case "/relay":
		var body RelayTransactionRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		r.requests = append(r.requests, body)
		_ = json.NewEncoder(w).Encode(RelayTransactionResponse{
			SignedTx:        r.signedTx,
			TransactionHash: r.txHash,
			Error:           r.reject,
		})
	default:
		http.NotFound(w, req)
	}
}

func (r *fakeRelay) relayed() []RelayTransactionRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]RelayTransactionRequest(nil), r.requests...)
}

func testConfig(relays ...string) relaying.EnvelopingConfig {
	return relaying.EnvelopingConfig{
		ChainID:               33,
		RelayHubAddress:       hubAddress,
		OnlyPreferredRelays:   true,
		PreferredRelays:       relays,
		GasPriceFactorPercent: 0,
		MinGasPrice:           big.NewInt(DefaultMinGasPrice),
		MaxRelayNonceGap:      DefaultMaxRelayNonceGap,
		RelayTimeoutGrace:     DefaultRelayTimeoutGrace,
	}
}

func newTestProvider(cfg relaying.EnvelopingConfig, backend *fakeBackend) *Provider {
	log := logger.NewNoopLogger()
	client := NewHTTPClient(time.Second, log).WithRetry(1, time.Millisecond)
	p := NewProvider(cfg, backend, client, log)
	p.pollInterval = time.Millisecond
	p.now = func() time.Time { return time.Unix(1700000000, 0) }
	return p
}

func mustKey(t *testing.T) (*ecdsa.PrivateKey, common.Address) {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return key, crypto.PubkeyToAddress(key.PublicKey)
}
