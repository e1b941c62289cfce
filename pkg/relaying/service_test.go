package relaying

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	relaycommon "github.com/relaykit/relayctl/pkg/common"
	"github.com/relaykit/relayctl/pkg/common/logger"
)

func regtestAddresses(t *testing.T) relaycommon.ChainAddressSet {
	t.Helper()
	addrs, err := relaycommon.ResolveAddresses(relaycommon.RegtestChainID)
	require.NoError(t, err)
	return addrs
}

func newTestService(t *testing.T, chain *fakeChain, provider *mockProvider, log *logger.NoopLogger) *Service {
	t.Helper()
	svc, err := NewService(Config{
		Chain: chain,
		NewProvider: func(EnvelopingConfig) (RelayProvider, error) {
			return provider, nil
		},
		Logger:              log,
		ReceiptPollInterval: time.Millisecond,
	})
	require.NoError(t, err)
	require.NoError(t, svc.Initialize(context.Background(), EnvelopingOverrides{}, nil))
	return svc
}

func setup(t *testing.T) (*Service, *fakeChain, *mockProvider, *logger.NoopLogger) {
	t.Helper()
	chain := newFakeChain(relaycommon.RegtestChainID, regtestAddresses(t))
	provider := &mockProvider{}
	log := logger.NewNoopLogger()
	return newTestService(t, chain, provider, log), chain, provider, log
}

// respondWith makes Send answer through the callback the way a relay client does.
func respondWith(provider *mockProvider, txHash common.Hash, cbErr error) *mock.Call {
	return provider.On("Send", mock.Anything, mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		request := args.Get(1).(*JSONRPCRequest)
		callback := args.Get(2).(RelayCallback)
		go func() {
			if cbErr != nil {
				callback(cbErr, nil)
				return
			}
			callback(nil, &JSONRPCResponse{JSONRPC: JSONRPCVersion, ID: request.ID, Result: txHash})
		}()
	})
}

func TestNewService(t *testing.T) {
	t.Run("requires chain client", func(t *testing.T) {
		_, err := NewService(Config{NewProvider: func(EnvelopingConfig) (RelayProvider, error) { return nil, nil }})
		assert.Error(t, err)
	})

	t.Run("requires provider factory", func(t *testing.T) {
		_, err := NewService(Config{Chain: newFakeChain(33, relaycommon.ChainAddressSet{})})
		assert.Error(t, err)
	})

	t.Run("operations fail before initialize", func(t *testing.T) {
		svc, err := NewService(Config{
			Chain:       newFakeChain(33, relaycommon.ChainAddressSet{}),
			NewProvider: func(EnvelopingConfig) (RelayProvider, error) { return &mockProvider{}, nil },
		})
		require.NoError(t, err)

		_, err = svc.GenerateSmartWallet(context.Background(), 0)
		assert.ErrorIs(t, err, ErrNotInitialized)
		_, err = svc.GetAllowedTokens(context.Background())
		assert.ErrorIs(t, err, ErrNotInitialized)
	})
}

func TestInitialize(t *testing.T) {
	ctx := context.Background()
	newSvc := func(chain *fakeChain, provider *mockProvider) *Service {
		svc, err := NewService(Config{
			Chain:       chain,
			NewProvider: func(EnvelopingConfig) (RelayProvider, error) { return provider, nil },
		})
		require.NoError(t, err)
		return svc
	}

	t.Run("builds configuration from registry", func(t *testing.T) {
		addrs := regtestAddresses(t)
		svc := newSvc(newFakeChain(relaycommon.RegtestChainID, addrs), &mockProvider{})
		require.NoError(t, svc.Initialize(ctx, EnvelopingOverrides{}, nil))

		cfg := svc.Configuration()
		assert.Equal(t, uint64(relaycommon.RegtestChainID), cfg.ChainID)
		assert.Equal(t, addrs.RelayHub, cfg.RelayHubAddress)
		assert.Equal(t, addrs.SmartWalletRelayVerifier, cfg.RelayVerifierAddress)
		assert.Equal(t, addrs.SmartWalletDeployVerifier, cfg.DeployVerifierAddress)
		assert.Equal(t, addrs.SmartWalletFactory, cfg.SmartWalletFactoryAddress)
		assert.True(t, cfg.OnlyPreferredRelays)
		assert.Equal(t, []string{DefaultRelayURL}, cfg.PreferredRelays)
		assert.Equal(t, addrs, svc.Contracts().Addresses())
	})

	t.Run("unknown chain is a configuration error", func(t *testing.T) {
		svc := newSvc(newFakeChain(999999, relaycommon.ChainAddressSet{}), &mockProvider{})
		err := svc.Initialize(ctx, EnvelopingOverrides{}, nil)

		var cfgErr *relaycommon.ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, uint64(999999), cfgErr.ChainID)
	})

	t.Run("unknown chain with full address overrides", func(t *testing.T) {
		addrs := regtestAddresses(t)
		svc := newSvc(newFakeChain(999999, addrs), &mockProvider{})
		require.NoError(t, svc.Initialize(ctx, EnvelopingOverrides{}, &addrs))
		assert.Equal(t, addrs.RelayHub, svc.Configuration().RelayHubAddress)
	})

	t.Run("unknown chain with partial overrides is rejected", func(t *testing.T) {
		partial := relaycommon.ChainAddressSet{RelayHub: common.HexToAddress("0x01")}
		svc := newSvc(newFakeChain(999999, relaycommon.ChainAddressSet{}), &mockProvider{})
		err := svc.Initialize(ctx, EnvelopingOverrides{}, &partial)

		var cfgErr *relaycommon.ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
		assert.Contains(t, cfgErr.Error(), "smartWalletFactory")
	})

	t.Run("hub override survives resolution", func(t *testing.T) {
		hub := common.HexToAddress("0x00000000000000000000000000000000000000FF")
		svc := newSvc(newFakeChain(relaycommon.RegtestChainID, regtestAddresses(t)), &mockProvider{})
		require.NoError(t, svc.Initialize(ctx, EnvelopingOverrides{RelayHubAddress: &hub}, nil))
		assert.Equal(t, hub, svc.Configuration().RelayHubAddress)
	})

	t.Run("signing account is handed to the provider", func(t *testing.T) {
		key, err := crypto.GenerateKey()
		require.NoError(t, err)
		provider := &mockProvider{}
		provider.On("AddAccount", key).Once()

		chain := newFakeChain(relaycommon.RegtestChainID, regtestAddresses(t))
		chain.accountsErr = errors.New("eth_accounts disabled")
		svc, err := NewService(Config{
			Chain:       chain,
			NewProvider: func(EnvelopingConfig) (RelayProvider, error) { return provider, nil },
			Account:     key,
		})
		require.NoError(t, err)
		require.NoError(t, svc.Initialize(ctx, EnvelopingOverrides{}, nil))

		addr, err := svc.AccountAddress()
		require.NoError(t, err)
		assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey), addr)
		provider.AssertExpectations(t)
	})

	t.Run("provider factory failure", func(t *testing.T) {
		svc, err := NewService(Config{
			Chain:       newFakeChain(relaycommon.RegtestChainID, regtestAddresses(t)),
			NewProvider: func(EnvelopingConfig) (RelayProvider, error) { return nil, errors.New("boom") },
		})
		require.NoError(t, err)
		err = svc.Initialize(ctx, EnvelopingOverrides{}, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "boom")
	})
}

func TestGenerateSmartWallet(t *testing.T) {
	svc, chain, _, _ := setup(t)
	ctx := context.Background()

	first, err := svc.GenerateSmartWallet(ctx, 7)
	require.NoError(t, err)
	second, err := svc.GenerateSmartWallet(ctx, 7)
	require.NoError(t, err)
	other, err := svc.GenerateSmartWallet(ctx, 8)
	require.NoError(t, err)

	assert.Equal(t, first.Address, second.Address)
	assert.NotEqual(t, first.Address, other.Address)
	assert.Equal(t, uint64(7), first.Index)
	assert.False(t, first.Deployed)
	assert.Equal(t, deriveWalletAddress(ownerAddress, common.Address{}, big.NewInt(7)), first.Address)
	assert.Zero(t, chain.codeLookups, "generating must not probe code")
}

func TestIsSmartWalletDeployed(t *testing.T) {
	svc, chain, _, _ := setup(t)
	ctx := context.Background()
	addr := common.HexToAddress("0x1234")

	deployed, err := svc.IsSmartWalletDeployed(ctx, addr)
	require.NoError(t, err)
	assert.False(t, deployed)

	chain.setCode(addr, []byte{0x60, 0x80})
	deployed, err = svc.IsSmartWalletDeployed(ctx, addr)
	require.NoError(t, err)
	assert.True(t, deployed)
	assert.Equal(t, 2, chain.codeLookups)
}

func TestDeploySmartWallet(t *testing.T) {
	ctx := context.Background()

	t.Run("deploys once then reports already deployed", func(t *testing.T) {
		svc, chain, provider, _ := setup(t)
		addrs := chain.addresses
		chain.balances[deriveWalletAddress(ownerAddress, common.Address{}, big.NewInt(0))] = big.NewInt(100)

		wallet, err := svc.GenerateSmartWallet(ctx, 0)
		require.NoError(t, err)

		txHash := common.HexToHash("0xdead")
		var captured *RelayEnvelope
		provider.On("DeploySmartWallet", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
			captured = args.Get(1).(*RelayEnvelope)
			chain.setCode(wallet.Address, []byte{0x60})
		}).Return(&TransactionHandle{Hash: txHash}, nil).Once()

		token := tokenAddress
		deployed, err := svc.DeploySmartWallet(ctx, *wallet, DeployOptions{TokenAddress: &token})
		require.NoError(t, err)

		assert.True(t, deployed.Deployed)
		assert.Equal(t, token, deployed.TokenAddress)
		require.NotNil(t, deployed.DeployTransaction)
		assert.Equal(t, txHash, deployed.DeployTransaction.Hash)
		assert.False(t, wallet.Deployed, "input wallet is not mutated")

		require.NotNil(t, captured)
		assert.True(t, captured.IsSmartWalletDeploy)
		assert.Equal(t, common.Address{}, captured.To)
		assert.Equal(t, common.Address{}, *captured.Recoverer)
		assert.Equal(t, wallet.Address, *captured.SmartWalletAddress)
		assert.Equal(t, addrs.SmartWalletDeployVerifier, captured.CallVerifier)
		assert.Equal(t, addrs.SmartWalletFactory, captured.CallForwarder)
		assert.Equal(t, addrs.RelayHub, captured.RelayHub)
		assert.Equal(t, ownerAddress, captured.From)
		assert.Equal(t, int64(0), captured.Index.ToInt().Int64())
		assert.Equal(t, int64(0), captured.TokenAmount.ToInt().Int64())
		assert.True(t, captured.OnlyPreferredRelays)

		_, err = svc.DeploySmartWallet(ctx, *wallet, DeployOptions{TokenAddress: &token})
		var already *AlreadyDeployedError
		require.ErrorAs(t, err, &already)
		assert.ErrorIs(t, err, ErrAlreadyDeployed)
		assert.Equal(t, wallet.Address, already.Address)
		provider.AssertNumberOfCalls(t, "DeploySmartWallet", 1)
	})

	t.Run("zero balance warns and proceeds", func(t *testing.T) {
		svc, _, provider, log := setup(t)
		wallet, err := svc.GenerateSmartWallet(ctx, 1)
		require.NoError(t, err)

		provider.On("DeploySmartWallet", mock.Anything, mock.Anything).
			Return(&TransactionHandle{Hash: common.HexToHash("0x01")}, nil).Once()

		token := tokenAddress
		deployed, err := svc.DeploySmartWallet(ctx, *wallet, DeployOptions{TokenAddress: &token})
		require.NoError(t, err)
		assert.True(t, deployed.Deployed)

		warnings := log.EntriesAt("warn")
		require.Len(t, warnings, 1)
		assert.Contains(t, warnings[0].Message, "subsidized deploy")
	})

	t.Run("without token skips balance check", func(t *testing.T) {
		svc, _, provider, log := setup(t)
		wallet, err := svc.GenerateSmartWallet(ctx, 2)
		require.NoError(t, err)

		var captured *RelayEnvelope
		provider.On("DeploySmartWallet", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
			captured = args.Get(1).(*RelayEnvelope)
		}).Return(&TransactionHandle{Hash: common.HexToHash("0x02")}, nil).Once()

		deployed, err := svc.DeploySmartWallet(ctx, *wallet, DeployOptions{})
		require.NoError(t, err)
		assert.Equal(t, common.Address{}, deployed.TokenAddress)
		assert.Equal(t, common.Address{}, captured.TokenContract)
		assert.Empty(t, log.EntriesAt("warn"))
	})

	t.Run("caller overrides are honored", func(t *testing.T) {
		svc, _, provider, _ := setup(t)
		wallet, err := svc.GenerateSmartWallet(ctx, 3)
		require.NoError(t, err)

		verifier := common.HexToAddress("0x0101")
		forwarder := common.HexToAddress("0x0202")
		recoverer := common.HexToAddress("0x0303")
		onlyPreferred := false

		var captured *RelayEnvelope
		provider.On("DeploySmartWallet", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
			captured = args.Get(1).(*RelayEnvelope)
		}).Return(&TransactionHandle{Hash: common.HexToHash("0x03")}, nil).Once()

		_, err = svc.DeploySmartWallet(ctx, *wallet, DeployOptions{
			TokenAmount:         big.NewInt(5),
			CallVerifier:        &verifier,
			CallForwarder:       &forwarder,
			Recoverer:           &recoverer,
			OnlyPreferredRelays: &onlyPreferred,
		})
		require.NoError(t, err)
		assert.Equal(t, verifier, captured.CallVerifier)
		assert.Equal(t, forwarder, captured.CallForwarder)
		assert.Equal(t, recoverer, *captured.Recoverer)
		assert.False(t, captured.OnlyPreferredRelays)
		assert.Equal(t, int64(5), captured.TokenAmount.ToInt().Int64())
	})

	t.Run("failed deploy receipt", func(t *testing.T) {
		svc, _, provider, _ := setup(t)
		wallet, err := svc.GenerateSmartWallet(ctx, 4)
		require.NoError(t, err)

		txHash := common.HexToHash("0x04")
		provider.On("DeploySmartWallet", mock.Anything, mock.Anything).Return(&TransactionHandle{
			Hash:    txHash,
			Receipt: &types.Receipt{TxHash: txHash, Status: types.ReceiptStatusFailed},
		}, nil).Once()

		_, err = svc.DeploySmartWallet(ctx, *wallet, DeployOptions{})
		var relayErr *RelayTransportError
		require.ErrorAs(t, err, &relayErr)
		assert.Equal(t, txHash, relayErr.TxHash)
	})

	t.Run("provider error is wrapped", func(t *testing.T) {
		svc, _, provider, _ := setup(t)
		wallet, err := svc.GenerateSmartWallet(ctx, 5)
		require.NoError(t, err)

		providerErr := errors.New("no relay available")
		provider.On("DeploySmartWallet", mock.Anything, mock.Anything).Return(nil, providerErr).Once()

		_, err = svc.DeploySmartWallet(ctx, *wallet, DeployOptions{})
		assert.ErrorIs(t, err, providerErr)
	})
}

func TestRelayTransaction(t *testing.T) {
	ctx := context.Background()
	deployedWallet := func(chain *fakeChain) SmartWallet {
		addr := deriveWalletAddress(ownerAddress, common.Address{}, big.NewInt(0))
		chain.setCode(addr, []byte{0x60})
		return SmartWallet{Index: 0, Address: addr, Deployed: true, TokenAddress: tokenAddress}
	}

	t.Run("undeployed wallet never reaches the send path", func(t *testing.T) {
		svc, _, provider, _ := setup(t)
		wallet := SmartWallet{Address: common.HexToAddress("0xBEEF")}

		_, err := svc.RelayTransaction(ctx, RelayOptions{SmartWallet: wallet})
		var notDeployed *NotDeployedError
		require.ErrorAs(t, err, &notDeployed)
		assert.ErrorIs(t, err, ErrNotDeployed)
		assert.Contains(t, err.Error(), wallet.Address.Hex())
		provider.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("relays and waits for the receipt", func(t *testing.T) {
		svc, chain, provider, _ := setup(t)
		wallet := deployedWallet(chain)
		addrs := chain.addresses

		txHash := common.HexToHash("0xabc")
		chain.addReceipt(&types.Receipt{TxHash: txHash, Status: types.ReceiptStatusSuccessful, BlockNumber: big.NewInt(5)})
		chain.pendingPolls = 2

		var request *JSONRPCRequest
		provider.On("Send", mock.Anything, mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
			request = args.Get(1).(*JSONRPCRequest)
			callback := args.Get(2).(RelayCallback)
			callback(nil, &JSONRPCResponse{JSONRPC: JSONRPCVersion, ID: request.ID, Result: txHash})
		})

		recipient := common.HexToAddress("0x0404")
		receipt, err := svc.RelayTransaction(ctx, RelayOptions{
			SmartWallet: wallet,
			To:          recipient,
			Data:        []byte{0xa9, 0x05, 0x9c, 0xbb},
			Fee:         "1.5",
		})
		require.NoError(t, err)
		assert.Equal(t, txHash, receipt.TxHash)
		assert.Equal(t, 3, chain.receiptLookups)

		require.NotNil(t, request)
		assert.Equal(t, JSONRPCVersion, request.JSONRPC)
		assert.Equal(t, MethodSendTransaction, request.Method)
		require.Len(t, request.Params, 1)

		envelope := request.Params[0].(*RelayEnvelope)
		assert.Equal(t, addrs.SmartWalletRelayVerifier, envelope.CallVerifier)
		assert.Equal(t, wallet.Address, envelope.CallForwarder)
		assert.Equal(t, addrs.RelayHub, envelope.RelayHub)
		assert.Equal(t, recipient, envelope.To)
		assert.Equal(t, tokenAddress, envelope.TokenContract)
		assert.Equal(t, "1500000000000000000", envelope.TokenAmount.ToInt().String())
		assert.False(t, envelope.IsSmartWalletDeploy)
		assert.Nil(t, envelope.Index)
	})

	t.Run("callback error is returned unchanged", func(t *testing.T) {
		svc, chain, provider, _ := setup(t)
		wallet := deployedWallet(chain)

		cbErr := errors.New("relay server rejected the request")
		respondWith(provider, common.Hash{}, cbErr)

		_, err := svc.RelayTransaction(ctx, RelayOptions{SmartWallet: wallet, To: common.HexToAddress("0x05")})
		assert.Same(t, cbErr, err)
		assert.Zero(t, chain.receiptLookups)
	})

	t.Run("failed receipt is a relay error", func(t *testing.T) {
		svc, chain, provider, _ := setup(t)
		wallet := deployedWallet(chain)

		txHash := common.HexToHash("0xbad")
		chain.addReceipt(&types.Receipt{TxHash: txHash, Status: types.ReceiptStatusFailed})
		respondWith(provider, txHash, nil)

		_, err := svc.RelayTransaction(ctx, RelayOptions{SmartWallet: wallet})
		var relayErr *RelayTransportError
		require.ErrorAs(t, err, &relayErr)
		assert.Equal(t, txHash, relayErr.TxHash)
		assert.Contains(t, err.Error(), "relay error")
	})

	t.Run("request ids increase", func(t *testing.T) {
		svc, chain, provider, _ := setup(t)
		wallet := deployedWallet(chain)

		txHash := common.HexToHash("0x0c")
		chain.addReceipt(&types.Receipt{TxHash: txHash, Status: types.ReceiptStatusSuccessful})

		var ids []uint64
		provider.On("Send", mock.Anything, mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
			request := args.Get(1).(*JSONRPCRequest)
			ids = append(ids, request.ID)
			args.Get(2).(RelayCallback)(nil, &JSONRPCResponse{ID: request.ID, Result: txHash})
		})

		for i := 0; i < 3; i++ {
			_, err := svc.RelayTransaction(ctx, RelayOptions{SmartWallet: wallet})
			require.NoError(t, err)
		}
		require.Len(t, ids, 3)
		assert.Less(t, ids[0], ids[1])
		assert.Less(t, ids[1], ids[2])
	})

	t.Run("invalid fee", func(t *testing.T) {
		svc, chain, provider, _ := setup(t)
		wallet := deployedWallet(chain)

		_, err := svc.RelayTransaction(ctx, RelayOptions{SmartWallet: wallet, Fee: "abc"})
		assert.Error(t, err)
		provider.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("cancelled context stops waiting for the callback", func(t *testing.T) {
		svc, chain, provider, _ := setup(t)
		wallet := deployedWallet(chain)
		provider.On("Send", mock.Anything, mock.Anything, mock.Anything)

		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := svc.RelayTransaction(cctx, RelayOptions{SmartWallet: wallet})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestTokenAllowList(t *testing.T) {
	svc, chain, _, _ := setup(t)
	ctx := context.Background()
	chain.relayTokens = []common.Address{tokenA}
	chain.deployTokens = []common.Address{tokenA, tokenB}

	tokens, err := svc.GetAllowedTokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, []common.Address{tokenA, tokenB}, tokens)

	allowed, err := svc.IsAllowedToken(ctx, tokenA)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = svc.IsAllowedToken(ctx, tokenB)
	require.NoError(t, err)
	assert.False(t, allowed)

	allowed, err = svc.IsAllowedToken(ctx, common.HexToAddress("0x0C"))
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestAllowToken(t *testing.T) {
	ctx := context.Background()

	t.Run("deploy verifier first then relay verifier", func(t *testing.T) {
		svc, chain, _, _ := setup(t)
		require.NoError(t, svc.AllowToken(ctx, tokenA, common.Address{}))

		require.Len(t, chain.sent, 2)
		assert.Equal(t, chain.addresses.SmartWalletDeployVerifier, *chain.sent[0].To)
		assert.Equal(t, chain.addresses.SmartWalletRelayVerifier, *chain.sent[1].To)
		assert.Equal(t, ownerAddress, chain.sent[0].From)
	})

	t.Run("explicit account", func(t *testing.T) {
		svc, chain, _, _ := setup(t)
		admin := common.HexToAddress("0x0A0A")
		require.NoError(t, svc.AllowToken(ctx, tokenA, admin))
		assert.Equal(t, admin, chain.sent[0].From)
		assert.Equal(t, admin, chain.sent[1].From)
	})

	t.Run("reverted second leg keeps the first applied", func(t *testing.T) {
		svc, chain, _, _ := setup(t)
		txHash := common.HexToHash("0x0f")
		chain.sendResults = []sendResult{
			{receipt: &types.Receipt{Status: types.ReceiptStatusSuccessful, BlockNumber: big.NewInt(9)}},
			{receipt: &types.Receipt{Status: types.ReceiptStatusFailed, TxHash: txHash, BlockNumber: big.NewInt(10)}},
		}
		chain.replayErr = revertError("Ownable: caller is not the owner")

		err := svc.AllowToken(ctx, tokenA, common.Address{})
		var reverted *RevertedCallError
		require.ErrorAs(t, err, &reverted)
		assert.Equal(t, RoleRelayVerifier.String(), reverted.Contract)
		assert.Equal(t, "acceptToken", reverted.Method)
		assert.Equal(t, "Ownable: caller is not the owner", reverted.Reason)
		assert.Equal(t, txHash, reverted.TxHash)
		assert.Len(t, chain.sent, 2)
	})

	t.Run("replay without revert data uses the raw error", func(t *testing.T) {
		svc, chain, _, _ := setup(t)
		chain.sendResults = []sendResult{
			{receipt: &types.Receipt{Status: types.ReceiptStatusFailed, BlockNumber: big.NewInt(10)}},
		}
		chain.replayErr = errors.New("missing trie node")

		err := svc.AllowToken(ctx, tokenA, common.Address{})
		var reverted *RevertedCallError
		require.ErrorAs(t, err, &reverted)
		assert.Equal(t, RoleDeployVerifier.String(), reverted.Contract)
		assert.Equal(t, "missing trie node", reverted.Reason)
		assert.Len(t, chain.sent, 1)
	})

	t.Run("replay that succeeds cannot explain the revert", func(t *testing.T) {
		svc, chain, _, _ := setup(t)
		chain.sendResults = []sendResult{
			{receipt: &types.Receipt{Status: types.ReceiptStatusFailed, BlockNumber: big.NewInt(10)}},
		}

		err := svc.AllowToken(ctx, tokenA, common.Address{})
		var reverted *RevertedCallError
		require.ErrorAs(t, err, &reverted)
		assert.Equal(t, relaycommon.CannotGetReason, reverted.Reason)
	})

	t.Run("revert during submission", func(t *testing.T) {
		svc, chain, _, _ := setup(t)
		chain.sendResults = []sendResult{{err: revertError("token already accepted")}}

		err := svc.AllowToken(ctx, tokenA, common.Address{})
		var reverted *RevertedCallError
		require.ErrorAs(t, err, &reverted)
		assert.Equal(t, "token already accepted", reverted.Reason)
	})

	t.Run("transport failure is wrapped", func(t *testing.T) {
		svc, chain, _, _ := setup(t)
		sendErr := errors.New("connection refused")
		chain.sendResults = []sendResult{{err: sendErr}}

		err := svc.AllowToken(ctx, tokenA, common.Address{})
		assert.ErrorIs(t, err, sendErr)
		var reverted *RevertedCallError
		assert.False(t, errors.As(err, &reverted))
	})
}

func TestEstimateMaxPossibleRelayGas(t *testing.T) {
	ctx := context.Background()
	worker := common.HexToAddress("0x0909")

	t.Run("relay estimate", func(t *testing.T) {
		svc, chain, provider, _ := setup(t)
		wallet := SmartWallet{Address: common.HexToAddress("0x5555"), TokenAddress: tokenAddress}

		var captured *RelayEnvelope
		provider.On("InternalCallCost", mock.Anything, mock.Anything).Return(big.NewInt(50000), nil).Once()
		provider.On("EstimateTokenTransferGas", mock.Anything, mock.Anything, worker).Return(big.NewInt(20000), nil).Once()
		provider.On("EstimateMaxPossibleRelayGas", mock.Anything, mock.Anything, worker).Run(func(args mock.Arguments) {
			captured = args.Get(1).(*RelayEnvelope)
		}).Return(big.NewInt(100000), nil).Once()
		provider.On("CalculateGasPrice", mock.Anything).Return(big.NewInt(60000000), nil).Once()

		cost, err := svc.EstimateMaxPossibleRelayGas(ctx, EstimateOptions{
			SmartWallet: wallet,
			To:          common.HexToAddress("0x06"),
			Fee:         "1",
			RelayWorker: worker,
		})
		require.NoError(t, err)
		assert.Equal(t, "6000000000000", cost.String())

		assert.Equal(t, chain.addresses.SmartWalletRelayVerifier, captured.CallVerifier)
		assert.Equal(t, wallet.Address, captured.CallForwarder)
		assert.Equal(t, tokenAddress, captured.TokenContract)
		assert.Equal(t, int64(50000), captured.Gas.ToInt().Int64())
		assert.Equal(t, int64(20000), captured.TokenGas.ToInt().Int64())
		provider.AssertExpectations(t)
	})

	t.Run("deploy estimate with linear fit", func(t *testing.T) {
		svc, chain, provider, _ := setup(t)
		wallet := SmartWallet{Index: 2, Address: common.HexToAddress("0x6666")}

		var captured *RelayEnvelope
		provider.On("EstimateTokenTransferGas", mock.Anything, mock.Anything, worker).Return(big.NewInt(0), nil).Once()
		provider.On("EstimateMaxPossibleRelayGasWithLinearFit", mock.Anything, mock.Anything, worker).Run(func(args mock.Arguments) {
			captured = args.Get(1).(*RelayEnvelope)
		}).Return(big.NewInt(200000), nil).Once()
		provider.On("CalculateGasPrice", mock.Anything).Return(big.NewInt(2), nil).Once()

		cost, err := svc.EstimateMaxPossibleRelayGasWithLinearFit(ctx, EstimateOptions{
			IsDeploy:    true,
			SmartWallet: wallet,
			RelayWorker: worker,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(400000), cost.Int64())

		assert.True(t, captured.IsSmartWalletDeploy)
		assert.Equal(t, chain.addresses.SmartWalletDeployVerifier, captured.CallVerifier)
		assert.Equal(t, chain.addresses.SmartWalletFactory, captured.CallForwarder)
		assert.Equal(t, int64(2), captured.Index.ToInt().Int64())
		provider.AssertNotCalled(t, "InternalCallCost", mock.Anything, mock.Anything)
		provider.AssertNotCalled(t, "EstimateMaxPossibleRelayGas", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("gas price failure", func(t *testing.T) {
		svc, _, provider, _ := setup(t)
		priceErr := errors.New("node unavailable")
		provider.On("InternalCallCost", mock.Anything, mock.Anything).Return(big.NewInt(1), nil)
		provider.On("EstimateTokenTransferGas", mock.Anything, mock.Anything, mock.Anything).Return(big.NewInt(1), nil)
		provider.On("EstimateMaxPossibleRelayGas", mock.Anything, mock.Anything, mock.Anything).Return(big.NewInt(1), nil)
		provider.On("CalculateGasPrice", mock.Anything).Return(nil, priceErr)

		_, err := svc.EstimateMaxPossibleRelayGas(ctx, EstimateOptions{RelayWorker: worker})
		assert.ErrorIs(t, err, priceErr)
	})
}

func TestClaim(t *testing.T) {
	svc, _, _, _ := setup(t)
	err := svc.Claim(context.Background(), &types.Receipt{})
	assert.ErrorIs(t, err, ErrNotImplemented)
	assert.Contains(t, err.Error(), "NOT IMPLEMENTED")
}

func TestAccountAddress(t *testing.T) {
	svc, err := NewService(Config{
		Chain:       newFakeChain(33, relaycommon.ChainAddressSet{}),
		NewProvider: func(EnvelopingConfig) (RelayProvider, error) { return &mockProvider{}, nil },
	})
	require.NoError(t, err)
	_, err = svc.AccountAddress()
	assert.ErrorIs(t, err, ErrNoAccount)
}

func TestRegtestScenario(t *testing.T) {
	svc, chain, provider, _ := setup(t)
	ctx := context.Background()

	wallet, err := svc.GenerateSmartWallet(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, deriveWalletAddress(ownerAddress, common.Address{}, big.NewInt(0)), wallet.Address)

	deployed, err := svc.IsSmartWalletDeployed(ctx, wallet.Address)
	require.NoError(t, err)
	assert.False(t, deployed)

	provider.On("DeploySmartWallet", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		chain.setCode(wallet.Address, []byte{0x60, 0x80, 0x60, 0x40})
	}).Return(&TransactionHandle{Hash: common.HexToHash("0x33")}, nil).Once()

	token := tokenAddress
	result, err := svc.DeploySmartWallet(ctx, SmartWallet{Address: wallet.Address, Index: 0}, DeployOptions{TokenAddress: &token})
	require.NoError(t, err)
	assert.True(t, result.Deployed)
	assert.Equal(t, tokenAddress, result.TokenAddress)
	assert.NotEqual(t, common.Hash{}, result.DeployTransaction.Hash)

	deployed, err = svc.IsSmartWalletDeployed(ctx, wallet.Address)
	require.NoError(t, err)
	assert.True(t, deployed)
}
