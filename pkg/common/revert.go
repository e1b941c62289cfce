package common

import (
	"errors"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// CannotGetReason is reported when a reverted call carries no decodable reason.
const CannotGetReason = "cannot get reason"

// dataError is implemented by go-ethereum RPC errors carrying revert data.
type dataError interface {
	ErrorData() interface{}
}

// RevertData extracts the raw revert payload from an RPC error, if any.
func RevertData(err error) ([]byte, bool) {
	if err == nil {
		return nil, false
	}

	var rpcErr dataError
	if !errors.As(err, &rpcErr) {
		return nil, false
	}

	switch v := rpcErr.ErrorData().(type) {
	case string:
		data := common.FromHex(v)
		return data, len(data) > 0
	case []byte:
		return v, len(v) > 0
	default:
		return nil, false
	}
}

// DecodeRevertReason returns the Error(string) reason carried by an RPC error.
func DecodeRevertReason(err error) (string, bool) {
	data, ok := RevertData(err)
	if !ok || len(data) < 4 {
		return "", false
	}
	reason, unpackErr := abi.UnpackRevert(data)
	if unpackErr != nil {
		return "", false
	}
	return reason, true
}
