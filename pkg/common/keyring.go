package common

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/zalando/go-keyring"
)

const (
	KeyPrefix = "relayctl-"
)

var ErrKeyNotFound = errors.New("key not found")

// wrapKeyringError maps backend "not found" variants onto ErrKeyNotFound.
func wrapKeyringError(err error, network string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrKeyNotFound, network)
	}
	errStr := strings.ToLower(err.Error())
	if strings.Contains(errStr, "not found") {
		return fmt.Errorf("%w: %s", ErrKeyNotFound, network)
	}
	return err
}

// KeyringStore holds one signing key per network.
type KeyringStore interface {
	StorePrivateKey(network, privateKey string) error
	GetPrivateKey(network string) (string, error)
	DeletePrivateKey(network string) error
}

type OSKeyringStore struct{}

func keyringAccount(network string) string {
	return KeyPrefix + network
}

func (o *OSKeyringStore) StorePrivateKey(network, privateKey string) error {
	return keyring.Set(KeyringServiceName, keyringAccount(network), privateKey)
}

func (o *OSKeyringStore) GetPrivateKey(network string) (string, error) {
	key, err := keyring.Get(KeyringServiceName, keyringAccount(network))
	return key, wrapKeyringError(err, network)
}

func (o *OSKeyringStore) DeletePrivateKey(network string) error {
	err := keyring.Delete(KeyringServiceName, keyringAccount(network))
	return wrapKeyringError(err, network)
}

var DefaultKeyringStore KeyringStore = &OSKeyringStore{}

func StorePrivateKey(network, privateKey string) error {
	return DefaultKeyringStore.StorePrivateKey(network, privateKey)
}

func GetPrivateKey(network string) (string, error) {
	return DefaultKeyringStore.GetPrivateKey(network)
}

func DeletePrivateKey(network string) error {
	return DefaultKeyringStore.DeletePrivateKey(network)
}

// ValidatePrivateKey checks that key parses as a secp256k1 private key.
func ValidatePrivateKey(key string) error {
	_, err := GetAddressFromPrivateKey(key)
	return err
}

// GetAddressFromPrivateKey returns the account controlled by a hex private key, with or without 0x.
func GetAddressFromPrivateKey(privateKeyHex string) (common.Address, error) {
	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(privateKeyHex), "0x"))
	if err != nil {
		return common.Address{}, fmt.Errorf("invalid private key: %w", err)
	}
	return crypto.PubkeyToAddress(privateKey.PublicKey), nil
}
