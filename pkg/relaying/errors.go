package relaying

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrAlreadyDeployed = errors.New("smart wallet already deployed")
	ErrNotDeployed     = errors.New("smart wallet not deployed")
	ErrNotImplemented  = errors.New("NOT IMPLEMENTED: this will be available with arbiter integration")
	ErrNotInitialized  = errors.New("relaying services not initialized")
	ErrNoAccount       = errors.New("no account available: configure a signing key or unlock a node account")
)

// AlreadyDeployedError is returned when a deploy targets an address that already has code.
type AlreadyDeployedError struct {
	Address common.Address
}

func (e *AlreadyDeployedError) Error() string {
	return fmt.Sprintf("Smart Wallet already deployed at %s", e.Address.Hex())
}

func (e *AlreadyDeployedError) Is(target error) bool {
	return target == ErrAlreadyDeployed
}

// NotDeployedError is returned when a relay targets an address without code.
type NotDeployedError struct {
	Address common.Address
}

func (e *NotDeployedError) Error() string {
	return fmt.Sprintf("Smart Wallet is not deployed or the address %s is not a smart wallet", e.Address.Hex())
}

func (e *NotDeployedError) Is(target error) bool {
	return target == ErrNotDeployed
}

// RelayTransportError reports a relayed transaction whose receipt has a failed status,
// or a deploy the relay provider reported as failed.
type RelayTransportError struct {
	TxHash common.Hash
	Err    error
}

func (e *RelayTransportError) Error() string {
	msg := "relay error"
	if e.TxHash != (common.Hash{}) {
		msg = fmt.Sprintf("%s (tx %s)", msg, e.TxHash.Hex())
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *RelayTransportError) Unwrap() error {
	return e.Err
}

// RevertedCallError is a direct contract call that reverted, with its best-effort reason.
type RevertedCallError struct {
	Contract string
	Method   string
	Reason   string
	TxHash   common.Hash
	Err      error
}

func (e *RevertedCallError) Error() string {
	msg := fmt.Sprintf("%s.%s reverted: %s", e.Contract, e.Method, e.Reason)
	if e.TxHash != (common.Hash{}) {
		msg = fmt.Sprintf("%s (tx %s)", msg, e.TxHash.Hex())
	}
	return msg
}

func (e *RevertedCallError) Unwrap() error {
	return e.Err
}
