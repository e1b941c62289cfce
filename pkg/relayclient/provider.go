package relayclient

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	relaycommon "github.com/relaykit/relayctl/pkg/common"
	"github.com/relaykit/relayctl/pkg/common/iface"
	"github.com/relaykit/relayctl/pkg/relaying"
)

var (
	ErrNoRelays       = errors.New("no preferred relays configured")
	ErrNoRelaysFound  = errors.New("no preferred or registered relays found")
	ErrNoSigningKey   = errors.New("no signing key for the request sender")
	ErrUnsupportedRPC = errors.New("unsupported relay request")
)

// Backend is the chain access the provider needs for nonces, estimates and receipts.
type Backend interface {
	relaying.ContractCallBackend
	EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	BlockNumber(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error)
}

// Provider relays envelopes through the configured relay servers.
type Provider struct {
	cfg          relaying.EnvelopingConfig
	backend      Backend
	http         *HTTPClient
	logger       iface.Logger
	pollInterval time.Duration
	now          func() time.Time

	mu   sync.RWMutex
	keys map[common.Address]*ecdsa.PrivateKey
}

var _ relaying.RelayProvider = (*Provider)(nil)

func NewProvider(cfg relaying.EnvelopingConfig, backend Backend, client *HTTPClient, logger iface.Logger) *Provider {
	if client == nil {
		client = NewHTTPClient(DefaultHTTPTimeout, logger)
	}
	return &Provider{
		cfg:          cfg,
		backend:      backend,
		http:         client,
		logger:       logger,
		pollInterval: time.Duration(relaycommon.ReceiptPollIntervalMilliseconds) * time.Millisecond,
		now:          time.Now,
		keys:         make(map[common.Address]*ecdsa.PrivateKey),
	}
}

// NewFactory adapts NewProvider to relaying.ProviderFactory.
func NewFactory(backend Backend, client *HTTPClient, logger iface.Logger) relaying.ProviderFactory {
	return func(cfg relaying.EnvelopingConfig) (relaying.RelayProvider, error) {
		if backend == nil {
			return nil, errors.New("relay provider requires a chain backend")
		}
		return NewProvider(cfg, backend, client, logger), nil
	}
}

func (p *Provider) AddAccount(key *ecdsa.PrivateKey) {
	if key == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys[crypto.PubkeyToAddress(key.PublicKey)] = key
}

// DeploySmartWallet relays a deploy request and waits for it to be mined.
func (p *Provider) DeploySmartWallet(ctx context.Context, envelope *relaying.RelayEnvelope) (*relaying.TransactionHandle, error) {
	if !envelope.IsSmartWalletDeploy {
		return nil, fmt.Errorf("%w: envelope is not a deploy", ErrUnsupportedRPC)
	}
	hash, err := p.relay(ctx, envelope)
	if err != nil {
		return nil, err
	}
	receipt, err := p.waitForReceipt(ctx, hash)
	if err != nil {
		return nil, err
	}
	return &relaying.TransactionHandle{Hash: hash, Receipt: receipt}, nil
}

// Send relays the envelope carried by request on its own goroutine. callback is
// invoked exactly once.
func (p *Provider) Send(ctx context.Context, request *relaying.JSONRPCRequest, callback relaying.RelayCallback) {
	go func() {
		envelope, err := envelopeFrom(request)
		if err != nil {
			callback(err, nil)
			return
		}
		hash, err := p.relay(ctx, envelope)
		if err != nil {
			callback(err, nil)
			return
		}
		callback(nil, &relaying.JSONRPCResponse{
			JSONRPC: relaying.JSONRPCVersion,
			ID:      request.ID,
			Result:  hash,
		})
	}()
}

func envelopeFrom(request *relaying.JSONRPCRequest) (*relaying.RelayEnvelope, error) {
	if request == nil {
		return nil, fmt.Errorf("%w: nil request", ErrUnsupportedRPC)
	}
	if request.Method != relaying.MethodSendTransaction {
		return nil, fmt.Errorf("%w: method %q", ErrUnsupportedRPC, request.Method)
	}
	if len(request.Params) != 1 {
		return nil, fmt.Errorf("%w: expected one param, got %d", ErrUnsupportedRPC, len(request.Params))
	}
	envelope, ok := request.Params[0].(*relaying.RelayEnvelope)
	if !ok || envelope == nil {
		return nil, fmt.Errorf("%w: param is %T, not a relay envelope", ErrUnsupportedRPC, request.Params[0])
	}
	return envelope, nil
}

// relay tries each preferred relay in order and returns the hash from the first that accepts.
// Unless the envelope is limited to preferred relays, relays registered on the hub are
// tried after them.
func (p *Provider) relay(ctx context.Context, envelope *relaying.RelayEnvelope) (common.Hash, error) {
	if envelope.OnlyPreferredRelays && len(p.cfg.PreferredRelays) == 0 {
		return common.Hash{}, ErrNoRelays
	}

	var failures []error
	for _, relayURL := range p.cfg.PreferredRelays {
		hash, err := p.relayThrough(ctx, relayURL, envelope)
		if err == nil {
			p.logger.Debug("Relay %s accepted the request: %s", relayURL, hash.Hex())
			return hash, nil
		}
		if ctx.Err() != nil {
			return common.Hash{}, ctx.Err()
		}
		p.logger.Debug("Relay %s failed: %v", relayURL, err)
		failures = append(failures, fmt.Errorf("%s: %w", relayURL, err))
	}

	if !envelope.OnlyPreferredRelays {
		hash, err := p.relayDiscovered(ctx, envelope, &failures)
		if err != nil || hash != (common.Hash{}) {
			return hash, err
		}
	}

	if len(failures) == 0 {
		return common.Hash{}, ErrNoRelaysFound
	}
	return common.Hash{}, fmt.Errorf("no relay accepted the request: %w", errors.Join(failures...))
}

// relayDiscovered tries the relays registered on the hub. It returns a zero hash and nil
// error when none accepted, having appended the reasons to failures.
func (p *Provider) relayDiscovered(ctx context.Context, envelope *relaying.RelayEnvelope, failures *[]error) (common.Hash, error) {
	hub := envelope.RelayHub
	if hub == (common.Address{}) {
		hub = p.cfg.RelayHubAddress
	}
	urls, err := p.discoverRelays(ctx, hub, p.cfg.PreferredRelays)
	if err != nil {
		if ctx.Err() != nil {
			return common.Hash{}, ctx.Err()
		}
		p.logger.Warn("Relay discovery failed: %v", err)
		*failures = append(*failures, err)
		return common.Hash{}, nil
	}
	p.logger.Debug("Discovered %d registered relays on hub %s", len(urls), hub.Hex())

	ready, skipped := p.pingRelays(ctx, urls, envelope.RelayHub)
	*failures = append(*failures, skipped...)
	for _, c := range ready {
		hash, err := p.relayWithPing(ctx, c.url, c.ping, envelope)
		if err == nil {
			p.logger.Debug("Relay %s accepted the request: %s", c.url, hash.Hex())
			return hash, nil
		}
		if ctx.Err() != nil {
			return common.Hash{}, ctx.Err()
		}
		p.logger.Debug("Relay %s failed: %v", c.url, err)
		*failures = append(*failures, fmt.Errorf("%s: %w", c.url, err))
	}
	return common.Hash{}, nil
}

func (p *Provider) relayThrough(ctx context.Context, relayURL string, envelope *relaying.RelayEnvelope) (common.Hash, error) {
	ping, err := p.http.GetAddress(ctx, relayURL)
	if err != nil {
		return common.Hash{}, err
	}
	if err := p.checkRelay(ping, envelope.RelayHub); err != nil {
		return common.Hash{}, err
	}
	return p.relayWithPing(ctx, relayURL, ping, envelope)
}

func (p *Provider) relayWithPing(ctx context.Context, relayURL string, ping *PingResponse, envelope *relaying.RelayEnvelope) (common.Hash, error) {
	req, err := p.buildRequest(ctx, envelope, ping)
	if err != nil {
		return common.Hash{}, err
	}

	typedData := BuildTypedData(req, p.cfg.ChainID, envelope.IsSmartWalletDeploy)
	signature, err := p.sign(ctx, envelope.From, typedData)
	if err != nil {
		return common.Hash{}, err
	}

	workerNonce, err := p.backend.PendingNonceAt(ctx, ping.RelayWorkerAddress)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to read relay worker nonce: %w", err)
	}

	body := &RelayTransactionRequest{
		Metadata: RelayMetadata{
			RelayHubAddress: envelope.RelayHub,
			RelayMaxNonce:   workerNonce + p.cfg.MaxRelayNonceGap,
			Signature:       signature,
		},
	}
	if envelope.IsSmartWalletDeploy {
		body.DeployRequest = req
	} else {
		body.RelayRequest = req
	}

	resp, err := p.http.Relay(ctx, relayURL, body)
	if err != nil {
		return common.Hash{}, err
	}
	return transactionHash(resp)
}

func (p *Provider) checkRelay(ping *PingResponse, hub common.Address) error {
	if !ping.Ready {
		return errors.New("relay is not ready")
	}
	if hub != (common.Address{}) && ping.RelayHubAddress != hub {
		return fmt.Errorf("relay serves hub %s, expected %s", ping.RelayHubAddress.Hex(), hub.Hex())
	}
	if chainID := ping.ChainIDValue(); chainID != 0 && chainID != p.cfg.ChainID {
		return fmt.Errorf("relay serves chain %d, expected %d", chainID, p.cfg.ChainID)
	}
	return nil
}

func (p *Provider) buildRequest(ctx context.Context, envelope *relaying.RelayEnvelope, ping *PingResponse) (*EnvelopingRequest, error) {
	gasPrice, err := p.CalculateGasPrice(ctx)
	if err != nil {
		return nil, err
	}
	if relayMin := ping.MinGasPriceValue(); gasPrice.Cmp(relayMin) < 0 {
		gasPrice = relayMin
	}

	nonce, err := p.forwarderNonce(ctx, envelope)
	if err != nil {
		return nil, err
	}

	tokenGas := new(big.Int)
	if envelope.TokenGas != nil {
		tokenGas.Set(envelope.TokenGas.ToInt())
	} else if tokenGas, err = p.EstimateTokenTransferGas(ctx, envelope, ping.RelayWorkerAddress); err != nil {
		return nil, err
	}

	tokenAmount := new(big.Int)
	if envelope.TokenAmount != nil {
		tokenAmount = envelope.TokenAmount.ToInt()
	}
	value := new(big.Int)
	if envelope.Value != nil {
		value = envelope.Value.ToInt()
	}
	validUntil := p.now().Add(p.cfg.RelayTimeoutGrace).Unix()

	request := ForwardRequest{
		RelayHub:       envelope.RelayHub,
		From:           envelope.From,
		To:             envelope.To,
		TokenContract:  envelope.TokenContract,
		Value:          value.String(),
		Nonce:          nonce.String(),
		TokenAmount:    tokenAmount.String(),
		TokenGas:       tokenGas.String(),
		ValidUntilTime: fmt.Sprintf("%d", validUntil),
		Data:           append([]byte{}, envelope.Data...),
	}

	if envelope.IsSmartWalletDeploy {
		recoverer := common.Address{}
		if envelope.Recoverer != nil {
			recoverer = *envelope.Recoverer
		}
		index := new(big.Int)
		if envelope.Index != nil {
			index = envelope.Index.ToInt()
		}
		request.Recoverer = &recoverer
		request.Index = index.String()
	} else {
		gas := new(big.Int)
		if envelope.Gas != nil {
			gas.Set(envelope.Gas.ToInt())
		} else if gas, err = p.InternalCallCost(ctx, envelope); err != nil {
			return nil, err
		}
		request.Gas = gas.String()
	}

	return &EnvelopingRequest{
		Request: request,
		RelayData: RelayData{
			GasPrice:      gasPrice.String(),
			FeesReceiver:  ping.FeesReceiver,
			CallForwarder: envelope.CallForwarder,
			CallVerifier:  envelope.CallVerifier,
		},
	}, nil
}

// forwarderNonce reads nonce() from a smart wallet, or nonce(from) from the factory for a deploy.
func (p *Provider) forwarderNonce(ctx context.Context, envelope *relaying.RelayEnvelope) (*big.Int, error) {
	var (
		out []any
		err error
	)
	if envelope.IsSmartWalletDeploy {
		factory, herr := relaying.NewContractHandle(relaying.RoleFactory.String(), envelope.CallForwarder, relaying.SmartWalletFactoryABI)
		if herr != nil {
			return nil, herr
		}
		out, err = factory.Call(ctx, p.backend, "nonce", envelope.From)
	} else {
		wallet, herr := relaying.NewContractHandle("smart wallet", envelope.CallForwarder, relaying.SmartWalletABI)
		if herr != nil {
			return nil, herr
		}
		out, err = wallet.Call(ctx, p.backend, "nonce")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read forwarder nonce: %w", err)
	}
	nonce, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected nonce type %T", out[0])
	}
	return nonce, nil
}

// sign prefers a key added with AddAccount and falls back to a backend that signs typed data.
func (p *Provider) sign(ctx context.Context, from common.Address, typedData apitypes.TypedData) ([]byte, error) {
	p.mu.RLock()
	key := p.keys[from]
	p.mu.RUnlock()
	if key != nil {
		return SignTypedData(typedData, key)
	}
	if signer, ok := p.backend.(TypedDataSigner); ok {
		return signer.SignTypedData(ctx, from, typedData)
	}
	return nil, fmt.Errorf("%w %s", ErrNoSigningKey, from.Hex())
}

func transactionHash(resp *RelayTransactionResponse) (common.Hash, error) {
	if resp.TransactionHash != (common.Hash{}) {
		return resp.TransactionHash, nil
	}
	if len(resp.SignedTx) == 0 {
		return common.Hash{}, errors.New("relay returned neither a transaction hash nor a signed transaction")
	}
	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(resp.SignedTx); err != nil {
		return common.Hash{}, fmt.Errorf("failed to decode signed transaction from relay: %w", err)
	}
	return tx.Hash(), nil
}

func (p *Provider) waitForReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()
	for {
		receipt, err := p.backend.TransactionReceipt(ctx, hash)
		if err == nil {
			return receipt, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			return nil, fmt.Errorf("failed to get receipt for %s: %w", hash.Hex(), err)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
