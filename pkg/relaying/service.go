package relaying

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	relaycommon "github.com/relaykit/relayctl/pkg/common"
	"github.com/relaykit/relayctl/pkg/common/iface"
	"github.com/relaykit/relayctl/pkg/common/logger"
)

// Config holds everything a Service needs. Nothing is read from the environment.
type Config struct {
	Chain               ChainClient
	Resolver            ConfigResolver
	NewProvider         ProviderFactory
	Account             *ecdsa.PrivateKey
	Logger              iface.Logger
	ReceiptPollInterval time.Duration
}

// Service deploys smart wallets and relays transactions through them.
// Initialize must succeed before any other operation.
type Service struct {
	chain        ChainClient
	resolver     ConfigResolver
	newProvider  ProviderFactory
	account      *ecdsa.PrivateKey
	logger       iface.Logger
	pollInterval time.Duration

	provider     RelayProvider
	contracts    *Contracts
	config       EnvelopingConfig
	nodeAccounts []common.Address

	requestID atomic.Uint64
}

// NewService validates cfg and returns an uninitialized Service; call Initialize before use.
func NewService(cfg Config) (*Service, error) {
	if cfg.Chain == nil {
		return nil, fmt.Errorf("chain client is required")
	}
	if cfg.NewProvider == nil {
		return nil, fmt.Errorf("relay provider factory is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNoopLogger()
	}
	if cfg.ReceiptPollInterval <= 0 {
		cfg.ReceiptPollInterval = relaycommon.ReceiptPollIntervalMilliseconds * time.Millisecond
	}

	return &Service{
		chain:        cfg.Chain,
		resolver:     cfg.Resolver,
		newProvider:  cfg.NewProvider,
		account:      cfg.Account,
		logger:       cfg.Logger,
		pollInterval: cfg.ReceiptPollInterval,
	}, nil
}

// Initialize resolves the contract addresses of the connected chain, builds the
// enveloping configuration and creates the relay provider.
func (s *Service) Initialize(ctx context.Context, overrides EnvelopingOverrides, addressOverrides *relaycommon.ChainAddressSet) error {
	chainIDBig, err := s.chain.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("failed to get chain ID: %w", err)
	}
	chainID := chainIDBig.Uint64()

	defaults, err := relaycommon.ResolveAddresses(chainID)
	if err != nil {
		if addressOverrides == nil {
			return err
		}
		s.logger.Debug("No registered addresses for chain %d, using overrides only", chainID)
		defaults = relaycommon.ChainAddressSet{}
	}
	addrs := relaycommon.MergeAddresses(addressOverrides, defaults)
	if err := addrs.Validate(chainID); err != nil {
		return err
	}

	contracts := NewContracts(addrs)
	if _, err := contracts.Factory(); err != nil {
		return err
	}
	if _, err := contracts.RelayVerifier(); err != nil {
		return err
	}
	if _, err := contracts.DeployVerifier(); err != nil {
		return err
	}

	if s.account == nil {
		accounts, err := s.chain.Accounts(ctx)
		if err != nil {
			return fmt.Errorf("failed to get node accounts: %w", err)
		}
		s.nodeAccounts = accounts
	}

	envelopingConfig, err := BuildConfiguration(ctx, s.chain, s.resolver, addrs, overrides)
	if err != nil {
		return err
	}

	provider, err := s.newProvider(envelopingConfig)
	if err != nil {
		return fmt.Errorf("failed to create relay provider: %w", err)
	}
	if s.account != nil {
		provider.AddAccount(s.account)
	}

	s.contracts = contracts
	s.config = envelopingConfig
	s.provider = provider
	s.logger.Debug("Relaying services initialized for chain %d (hub %s)", chainID, envelopingConfig.RelayHubAddress.Hex())
	return nil
}

// Configuration returns the resolved enveloping configuration.
func (s *Service) Configuration() EnvelopingConfig {
	return s.config
}

// Contracts returns the contract handle cache, nil before Initialize.
func (s *Service) Contracts() *Contracts {
	return s.contracts
}

// AccountAddress returns the signing account, else the first node account.
func (s *Service) AccountAddress() (common.Address, error) {
	if s.account != nil {
		return crypto.PubkeyToAddress(s.account.PublicKey), nil
	}
	if len(s.nodeAccounts) > 0 {
		return s.nodeAccounts[0], nil
	}
	return common.Address{}, ErrNoAccount
}

func (s *Service) ensureInitialized() error {
	if s.provider == nil || s.contracts == nil {
		return ErrNotInitialized
	}
	return nil
}

// GenerateSmartWallet computes the deterministic wallet address for the owner account and index.
func (s *Service) GenerateSmartWallet(ctx context.Context, index uint64) (*SmartWallet, error) {
	if err := s.ensureInitialized(); err != nil {
		return nil, err
	}
	s.logger.Debug("generateSmartWallet params: index=%d", index)

	owner, err := s.AccountAddress()
	if err != nil {
		return nil, err
	}
	factory, err := s.contracts.Factory()
	if err != nil {
		return nil, err
	}

	out, err := factory.Call(ctx, s.chain, "getSmartWalletAddress", owner, relaycommon.ZeroAddress, new(big.Int).SetUint64(index))
	if err != nil {
		return nil, fmt.Errorf("failed to compute smart wallet address: %w", err)
	}
	address, ok := out[0].(common.Address)
	if !ok {
		return nil, fmt.Errorf("failed to compute smart wallet address: unexpected output %T", out[0])
	}

	return &SmartWallet{Index: index, Address: address}, nil
}

// IsSmartWalletDeployed reports whether address has contract code on chain.
func (s *Service) IsSmartWalletDeployed(ctx context.Context, address common.Address) (bool, error) {
	s.logger.Debug("isSmartWalletDeployed params: address=%s", address.Hex())
	return HasDeployedCode(ctx, s.chain, address)
}

// DeploySmartWallet sends a single deploy request for wallet through the relay provider.
func (s *Service) DeploySmartWallet(ctx context.Context, wallet SmartWallet, opts DeployOptions) (*SmartWallet, error) {
	if err := s.ensureInitialized(); err != nil {
		return nil, err
	}
	token := addressOr(opts.TokenAddress, relaycommon.ZeroAddress)
	s.logger.Debug("deploySmartWallet params: address=%s index=%d token=%s amount=%v",
		wallet.Address.Hex(), wallet.Index, token.Hex(), opts.TokenAmount)

	s.logger.Debug("Checking if the wallet already exists")
	deployed, err := HasDeployedCode(ctx, s.chain, wallet.Address)
	if err != nil {
		return nil, err
	}
	if deployed {
		return nil, &AlreadyDeployedError{Address: wallet.Address}
	}

	if token != relaycommon.ZeroAddress {
		s.checkTokenBalance(ctx, token, wallet.Address)
	}

	from, err := s.AccountAddress()
	if err != nil {
		return nil, err
	}

	recoverer := addressOr(opts.Recoverer, relaycommon.ZeroAddress)
	walletAddress := wallet.Address
	envelope := &RelayEnvelope{
		From:                from,
		To:                  relaycommon.ZeroAddress,
		Value:               bigOrZero(nil),
		Data:                hexutil.Bytes{},
		CallVerifier:        addressOr(opts.CallVerifier, s.config.DeployVerifierAddress),
		CallForwarder:       addressOr(opts.CallForwarder, s.config.SmartWalletFactoryAddress),
		TokenContract:       token,
		TokenAmount:         bigOrZero(opts.TokenAmount),
		TokenGas:            bigOrNil(opts.TokenGas),
		OnlyPreferredRelays: boolOr(opts.OnlyPreferredRelays, s.config.OnlyPreferredRelays),
		RelayHub:            s.config.RelayHubAddress,
		IsSmartWalletDeploy: true,
		Index:               (*hexutil.Big)(new(big.Int).SetUint64(wallet.Index)),
		Recoverer:           &recoverer,
		SmartWalletAddress:  &walletAddress,
	}

	s.logger.Debug("Deploying smart wallet for address %s", wallet.Address.Hex())
	handle, err := s.provider.DeploySmartWallet(ctx, envelope)
	if err != nil {
		return nil, fmt.Errorf("failed to deploy smart wallet %s: %w", wallet.Address.Hex(), err)
	}
	if handle == nil {
		return nil, fmt.Errorf("failed to deploy smart wallet %s: relay provider returned no transaction", wallet.Address.Hex())
	}
	if handle.Receipt != nil && handle.Receipt.Status != types.ReceiptStatusSuccessful {
		return nil, &RelayTransportError{TxHash: handle.Hash, Err: errors.New("deploy transaction failed")}
	}
	s.logger.Debug("Smart wallet successfully deployed in %s", handle.Hash.Hex())

	result := wallet
	result.Deployed = true
	result.DeployTransaction = handle
	result.TokenAddress = token
	return &result, nil
}

// checkTokenBalance only logs; a deploy without funds is subsidized.
func (s *Service) checkTokenBalance(ctx context.Context, token, wallet common.Address) {
	erc20, err := NewContractHandle("token", token, ERC20ABI)
	if err != nil {
		s.logger.Warn("Could not read token balance: %v", err)
		return
	}
	out, err := erc20.Call(ctx, s.chain, "balanceOf", wallet)
	if err != nil {
		s.logger.Warn("Could not read token balance of %s: %v", wallet.Hex(), err)
		return
	}
	balance, ok := out[0].(*big.Int)
	if !ok || balance.Sign() <= 0 {
		s.logger.Warn("Smart Wallet doesn't have funds so this will be a subsidized deploy.")
	}
}

// RelayTransaction forwards a call through a deployed smart wallet and waits for its receipt.
func (s *Service) RelayTransaction(ctx context.Context, opts RelayOptions) (*types.Receipt, error) {
	if err := s.ensureInitialized(); err != nil {
		return nil, err
	}
	wallet := opts.SmartWallet
	s.logger.Debug("relayTransaction params: wallet=%s to=%s fee=%q", wallet.Address.Hex(), opts.To.Hex(), opts.Fee)

	s.logger.Debug("Checking if the wallet exists")
	deployed, err := HasDeployedCode(ctx, s.chain, wallet.Address)
	if err != nil {
		return nil, err
	}
	if !deployed {
		return nil, &NotDeployedError{Address: wallet.Address}
	}

	tokenAmount, err := ToWei(opts.Fee)
	if err != nil {
		return nil, err
	}
	from, err := s.AccountAddress()
	if err != nil {
		return nil, err
	}

	envelope := &RelayEnvelope{
		From:                from,
		To:                  opts.To,
		Value:               bigOrZero(opts.Value),
		Data:                append(hexutil.Bytes{}, opts.Data...),
		Gas:                 bigOrNil(opts.Gas),
		CallVerifier:        s.config.RelayVerifierAddress,
		CallForwarder:       wallet.Address,
		TokenContract:       addressOr(opts.TokenAddress, wallet.TokenAddress),
		TokenAmount:         (*hexutil.Big)(tokenAmount),
		TokenGas:            bigOrNil(opts.TokenGas),
		OnlyPreferredRelays: boolOr(opts.OnlyPreferredRelays, s.config.OnlyPreferredRelays),
		RelayHub:            s.config.RelayHubAddress,
	}

	request := &JSONRPCRequest{
		JSONRPC: JSONRPCVersion,
		ID:      s.requestID.Add(1),
		Method:  MethodSendTransaction,
		Params:  []any{envelope},
	}

	resp, err := s.send(ctx, request)
	if err != nil {
		return nil, err
	}

	receipt, err := s.waitForReceipt(ctx, resp.Result)
	if err != nil {
		return nil, err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		s.logger.Debug("Error relaying transaction %s", receipt.TxHash.Hex())
		return nil, &RelayTransportError{TxHash: receipt.TxHash}
	}
	return receipt, nil
}

// send bridges the provider callback into a single result.
func (s *Service) send(ctx context.Context, request *JSONRPCRequest) (*JSONRPCResponse, error) {
	type outcome struct {
		resp *JSONRPCResponse
		err  error
	}
	done := make(chan outcome, 1)
	var once sync.Once

	s.provider.Send(ctx, request, func(err error, resp *JSONRPCResponse) {
		once.Do(func() {
			done <- outcome{resp: resp, err: err}
		})
	})

	select {
	case out := <-done:
		if out.err != nil {
			return nil, out.err
		}
		if out.resp == nil {
			return nil, fmt.Errorf("failed to relay request %d: empty response", request.ID)
		}
		if out.resp.Error != nil {
			return nil, out.resp.Error
		}
		if out.resp.ID != request.ID {
			return nil, fmt.Errorf("failed to relay request %d: response carries id %d", request.ID, out.resp.ID)
		}
		return out.resp, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// waitForReceipt polls until the transaction is mined or ctx is done.
func (s *Service) waitForReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := s.chain.TransactionReceipt(ctx, txHash)
		if err == nil {
			return receipt, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			return nil, fmt.Errorf("failed to get receipt for %s: %w", txHash.Hex(), err)
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("failed to get receipt for %s: %w", txHash.Hex(), ctx.Err())
		case <-ticker.C:
		}
	}
}

// IsAllowedToken reports whether both verifiers accept token.
func (s *Service) IsAllowedToken(ctx context.Context, token common.Address) (bool, error) {
	if err := s.ensureInitialized(); err != nil {
		return false, err
	}
	s.logger.Debug("isAllowedToken params: token=%s", token.Hex())

	relayAccepts, err := s.acceptsToken(ctx, s.contracts.RelayVerifier, token)
	if err != nil {
		return false, err
	}
	deployAccepts, err := s.acceptsToken(ctx, s.contracts.DeployVerifier, token)
	if err != nil {
		return false, err
	}
	return relayAccepts && deployAccepts, nil
}

func (s *Service) acceptsToken(ctx context.Context, verifier func() (*ContractHandle, error), token common.Address) (bool, error) {
	handle, err := verifier()
	if err != nil {
		return false, err
	}
	out, err := handle.Call(ctx, s.chain, "acceptsToken", token)
	if err != nil {
		return false, err
	}
	accepted, ok := out[0].(bool)
	if !ok {
		return false, fmt.Errorf("failed to read %s.acceptsToken: unexpected output %T", handle.Name, out[0])
	}
	return accepted, nil
}

// GetAllowedTokens returns the tokens accepted by either verifier, relay verifier first.
func (s *Service) GetAllowedTokens(ctx context.Context) ([]common.Address, error) {
	if err := s.ensureInitialized(); err != nil {
		return nil, err
	}

	relayTokens, err := s.acceptedTokens(ctx, s.contracts.RelayVerifier)
	if err != nil {
		return nil, err
	}
	deployTokens, err := s.acceptedTokens(ctx, s.contracts.DeployVerifier)
	if err != nil {
		return nil, err
	}

	seen := make(map[common.Address]struct{}, len(relayTokens)+len(deployTokens))
	tokens := make([]common.Address, 0, len(relayTokens)+len(deployTokens))
	for _, token := range append(relayTokens, deployTokens...) {
		if _, ok := seen[token]; ok {
			continue
		}
		seen[token] = struct{}{}
		tokens = append(tokens, token)
	}
	return tokens, nil
}

func (s *Service) acceptedTokens(ctx context.Context, verifier func() (*ContractHandle, error)) ([]common.Address, error) {
	handle, err := verifier()
	if err != nil {
		return nil, err
	}
	out, err := handle.Call(ctx, s.chain, "getAcceptedTokens")
	if err != nil {
		return nil, err
	}
	tokens, ok := out[0].([]common.Address)
	if !ok {
		return nil, fmt.Errorf("failed to read %s.getAcceptedTokens: unexpected output %T", handle.Name, out[0])
	}
	return tokens, nil
}

// AllowToken adds token to the deploy verifier and then to the relay verifier.
// A failure on the second leg leaves the first one applied.
func (s *Service) AllowToken(ctx context.Context, token, account common.Address) error {
	if err := s.ensureInitialized(); err != nil {
		return err
	}
	s.logger.Debug("allowToken params: token=%s account=%s", token.Hex(), account.Hex())

	from := account
	if from == relaycommon.ZeroAddress {
		var err error
		if from, err = s.AccountAddress(); err != nil {
			return err
		}
	}

	for _, verifier := range []func() (*ContractHandle, error){s.contracts.DeployVerifier, s.contracts.RelayVerifier} {
		handle, err := verifier()
		if err != nil {
			return err
		}
		if err := s.acceptToken(ctx, handle, token, from); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) acceptToken(ctx context.Context, handle *ContractHandle, token, from common.Address) error {
	data, err := handle.Pack("acceptToken", token)
	if err != nil {
		return err
	}
	to := handle.Address
	msg := ethereum.CallMsg{From: from, To: &to, Data: data}

	receipt, err := s.chain.SendAndWait(ctx, fmt.Sprintf("%s.acceptToken", handle.Name), &msg)
	if err != nil {
		if _, reverted := relaycommon.RevertData(err); !reverted {
			return fmt.Errorf("failed to send %s.acceptToken: %w", handle.Name, err)
		}
		reason, ok := relaycommon.DecodeRevertReason(err)
		if !ok {
			reason = relaycommon.CannotGetReason
		}
		return &RevertedCallError{Contract: handle.Name, Method: "acceptToken", Reason: reason, Err: err}
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		reason := s.replayRevertReason(ctx, msg, receipt.BlockNumber)
		s.logger.Debug("Error sending allowToken transaction %s: %s", receipt.TxHash.Hex(), reason)
		return &RevertedCallError{Contract: handle.Name, Method: "acceptToken", Reason: reason, TxHash: receipt.TxHash}
	}
	return nil
}

// replayRevertReason re-executes msg at the block that included the failed transaction.
func (s *Service) replayRevertReason(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) string {
	_, err := s.chain.CallContract(ctx, msg, blockNumber)
	if err == nil {
		return relaycommon.CannotGetReason
	}
	if reason, ok := relaycommon.DecodeRevertReason(err); ok {
		return reason
	}
	return err.Error()
}

// EstimateMaxPossibleRelayGas prices the worst-case gas of a relay or deploy in wei.
func (s *Service) EstimateMaxPossibleRelayGas(ctx context.Context, opts EstimateOptions) (*big.Int, error) {
	return s.estimate(ctx, opts, false)
}

// EstimateMaxPossibleRelayGasWithLinearFit uses the provider's linear fit instead of the fixed overhead.
func (s *Service) EstimateMaxPossibleRelayGasWithLinearFit(ctx context.Context, opts EstimateOptions) (*big.Int, error) {
	return s.estimate(ctx, opts, true)
}

func (s *Service) estimate(ctx context.Context, opts EstimateOptions, linearFit bool) (*big.Int, error) {
	if err := s.ensureInitialized(); err != nil {
		return nil, err
	}
	s.logger.Debug("estimate params: deploy=%t wallet=%s worker=%s linearFit=%t",
		opts.IsDeploy, opts.SmartWallet.Address.Hex(), opts.RelayWorker.Hex(), linearFit)

	envelope, err := s.estimateEnvelope(opts)
	if err != nil {
		return nil, err
	}

	if !opts.IsDeploy || opts.To != relaycommon.ZeroAddress {
		internalGas, err := s.provider.InternalCallCost(ctx, envelope)
		if err != nil {
			return nil, fmt.Errorf("failed to estimate internal call cost: %w", err)
		}
		envelope.Gas = (*hexutil.Big)(internalGas)
	}

	tokenGas, err := s.provider.EstimateTokenTransferGas(ctx, envelope, opts.RelayWorker)
	if err != nil {
		return nil, fmt.Errorf("failed to estimate token transfer gas: %w", err)
	}
	envelope.TokenGas = (*hexutil.Big)(tokenGas)

	var gas *big.Int
	if linearFit {
		gas, err = s.provider.EstimateMaxPossibleRelayGasWithLinearFit(ctx, envelope, opts.RelayWorker)
	} else {
		gas, err = s.provider.EstimateMaxPossibleRelayGas(ctx, envelope, opts.RelayWorker)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to estimate max possible relay gas: %w", err)
	}

	gasPrice, err := s.provider.CalculateGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate gas price: %w", err)
	}
	return new(big.Int).Mul(gas, gasPrice), nil
}

func (s *Service) estimateEnvelope(opts EstimateOptions) (*RelayEnvelope, error) {
	tokenAmount, err := ToWei(opts.Fee)
	if err != nil {
		return nil, err
	}
	from, err := s.AccountAddress()
	if err != nil {
		return nil, err
	}
	wallet := opts.SmartWallet

	envelope := &RelayEnvelope{
		From:                from,
		To:                  opts.To,
		Value:               bigOrZero(opts.Value),
		Data:                append(hexutil.Bytes{}, opts.Data...),
		TokenContract:       addressOr(opts.TokenAddress, wallet.TokenAddress),
		TokenAmount:         (*hexutil.Big)(tokenAmount),
		OnlyPreferredRelays: boolOr(opts.OnlyPreferredRelays, s.config.OnlyPreferredRelays),
		RelayHub:            s.config.RelayHubAddress,
	}

	if opts.IsDeploy {
		recoverer := addressOr(opts.Recoverer, relaycommon.ZeroAddress)
		walletAddress := wallet.Address
		envelope.CallVerifier = addressOr(opts.CallVerifier, s.config.DeployVerifierAddress)
		envelope.CallForwarder = addressOr(opts.CallForwarder, s.config.SmartWalletFactoryAddress)
		envelope.IsSmartWalletDeploy = true
		envelope.Index = (*hexutil.Big)(new(big.Int).SetUint64(wallet.Index))
		envelope.Recoverer = &recoverer
		envelope.SmartWalletAddress = &walletAddress
	} else {
		envelope.CallVerifier = addressOr(opts.CallVerifier, s.config.RelayVerifierAddress)
		envelope.CallForwarder = addressOr(opts.CallForwarder, wallet.Address)
	}
	return envelope, nil
}

// Claim is reserved for penalizing unresponsive relay managers.
func (s *Service) Claim(ctx context.Context, receipt *types.Receipt) error {
	if receipt != nil {
		s.logger.Debug("claim params: tx=%s", receipt.TxHash.Hex())
	}
	return ErrNotImplemented
}
