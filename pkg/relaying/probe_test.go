package relaying

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type codeReaderFunc func(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)

func (f codeReaderFunc) CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error) {
	return f(ctx, account, blockNumber)
}

func TestHasDeployedCode(t *testing.T) {
	tests := []struct {
		name string
		code []byte
		want bool
	}{
		{"empty code", []byte{}, false},
		{"nil code", nil, false},
		{"single zero byte", []byte{0x00}, false},
		{"two zero bytes count as code", []byte{0x00, 0x00}, true},
		{"runtime bytecode", []byte{0x60, 0x80, 0x60, 0x40}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := codeReaderFunc(func(context.Context, common.Address, *big.Int) ([]byte, error) {
				return tt.code, nil
			})
			got, err := HasDeployedCode(context.Background(), reader, common.HexToAddress("0x01"))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("queries latest block every time", func(t *testing.T) {
		calls := 0
		reader := codeReaderFunc(func(_ context.Context, _ common.Address, blockNumber *big.Int) ([]byte, error) {
			calls++
			assert.Nil(t, blockNumber)
			return nil, nil
		})
		for i := 0; i < 3; i++ {
			_, err := HasDeployedCode(context.Background(), reader, common.HexToAddress("0x01"))
			require.NoError(t, err)
		}
		assert.Equal(t, 3, calls)
	})

	t.Run("rpc failure", func(t *testing.T) {
		rpcErr := errors.New("connection refused")
		reader := codeReaderFunc(func(context.Context, common.Address, *big.Int) ([]byte, error) {
			return nil, rpcErr
		})
		_, err := HasDeployedCode(context.Background(), reader, common.HexToAddress("0x01"))
		assert.ErrorIs(t, err, rpcErr)
	})
}
