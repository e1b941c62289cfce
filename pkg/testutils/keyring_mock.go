package testutils

import (
	"testing"

	"github.com/zalando/go-keyring"

	"github.com/relaykit/relayctl/pkg/common"
)

// MockKeyring swaps the OS keyring for the in-memory mock for one test.
type MockKeyring struct {
	t *testing.T
}

func SetupMockKeyring(t *testing.T) *MockKeyring {
	keyring.MockInit()

	mock := &MockKeyring{t: t}
	mock.Clear()
	t.Cleanup(mock.Clear)

	return mock
}

// StorePrivateKey goes through the real store, which talks to the mock.
func (m *MockKeyring) StorePrivateKey(network, privateKey string) error {
	return common.StorePrivateKey(network, privateKey)
}

func (m *MockKeyring) Clear() {
	_ = keyring.DeleteAll(common.KeyringServiceName)
}
