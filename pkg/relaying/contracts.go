package relaying

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync/atomic"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	relaycommon "github.com/relaykit/relayctl/pkg/common"
)

// ContractRole names the contracts whose handles are cached.
type ContractRole int

const (
	RoleFactory ContractRole = iota
	RoleRelayVerifier
	RoleDeployVerifier
	numRoles
)

func (r ContractRole) String() string {
	switch r {
	case RoleFactory:
		return "smart wallet factory"
	case RoleRelayVerifier:
		return "relay verifier"
	case RoleDeployVerifier:
		return "deploy verifier"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

var roleABIs = map[ContractRole]string{
	RoleFactory:        SmartWalletFactoryABI,
	RoleRelayVerifier:  VerifierABI,
	RoleDeployVerifier: VerifierABI,
}

// ContractCallBackend executes read-only calls.
type ContractCallBackend interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// ContractHandle binds a parsed ABI to a deployed address.
type ContractHandle struct {
	Name    string
	Address common.Address
	ABI     abi.ABI
}

// NewContractHandle parses abiJSON and binds it to address.
func NewContractHandle(name string, address common.Address, abiJSON string) (*ContractHandle, error) {
	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s ABI: %w", name, err)
	}
	return &ContractHandle{Name: name, Address: address, ABI: parsed}, nil
}

// Pack encodes a call to method.
func (h *ContractHandle) Pack(method string, args ...any) ([]byte, error) {
	data, err := h.ABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s.%s: %w", h.Name, method, err)
	}
	return data, nil
}

// Call runs a read-only call against the latest block and unpacks its outputs.
func (h *ContractHandle) Call(ctx context.Context, backend ContractCallBackend, method string, args ...any) ([]any, error) {
	data, err := h.Pack(method, args...)
	if err != nil {
		return nil, err
	}

	out, err := backend.CallContract(ctx, ethereum.CallMsg{To: &h.Address, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to call %s.%s: %w", h.Name, method, err)
	}

	values, err := h.ABI.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s.%s: %w", h.Name, method, err)
	}
	return values, nil
}

// Contracts lazily builds and memoizes one handle per role.
// Concurrent first calls may each build a handle; the first stored one wins.
type Contracts struct {
	addresses relaycommon.ChainAddressSet
	handles   [numRoles]atomic.Pointer[ContractHandle]
}

func NewContracts(addresses relaycommon.ChainAddressSet) *Contracts {
	return &Contracts{addresses: addresses}
}

// Addresses returns the resolved address set the handles are bound to.
func (c *Contracts) Addresses() relaycommon.ChainAddressSet {
	return c.addresses
}

func (c *Contracts) Factory() (*ContractHandle, error) {
	return c.get(RoleFactory)
}

func (c *Contracts) RelayVerifier() (*ContractHandle, error) {
	return c.get(RoleRelayVerifier)
}

func (c *Contracts) DeployVerifier() (*ContractHandle, error) {
	return c.get(RoleDeployVerifier)
}

func (c *Contracts) addressFor(role ContractRole) common.Address {
	switch role {
	case RoleFactory:
		return c.addresses.SmartWalletFactory
	case RoleRelayVerifier:
		return c.addresses.SmartWalletRelayVerifier
	case RoleDeployVerifier:
		return c.addresses.SmartWalletDeployVerifier
	default:
		return common.Address{}
	}
}

func (c *Contracts) get(role ContractRole) (*ContractHandle, error) {
	slot := &c.handles[role]
	if h := slot.Load(); h != nil {
		return h, nil
	}

	h, err := NewContractHandle(role.String(), c.addressFor(role), roleABIs[role])
	if err != nil {
		return nil, err
	}
	if slot.CompareAndSwap(nil, h) {
		return h, nil
	}
	return slot.Load(), nil
}
