package relayclient

import (
	"context"
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

const (
	DomainName    = "RSK Enveloping Transaction"
	DomainVersion = "2"
)

var eip712DomainType = []apitypes.Type{
	{Name: "name", Type: "string"},
	{Name: "version", Type: "string"},
	{Name: "chainId", Type: "uint256"},
	{Name: "verifyingContract", Type: "address"},
}

var relayDataType = []apitypes.Type{
	{Name: "gasPrice", Type: "uint256"},
	{Name: "feesReceiver", Type: "address"},
	{Name: "callForwarder", Type: "address"},
	{Name: "callVerifier", Type: "address"},
}

var relayRequestType = []apitypes.Type{
	{Name: "relayHub", Type: "address"},
	{Name: "from", Type: "address"},
	{Name: "to", Type: "address"},
	{Name: "tokenContract", Type: "address"},
	{Name: "value", Type: "uint256"},
	{Name: "gas", Type: "uint256"},
	{Name: "nonce", Type: "uint256"},
	{Name: "tokenAmount", Type: "uint256"},
	{Name: "tokenGas", Type: "uint256"},
	{Name: "validUntilTime", Type: "uint256"},
	{Name: "data", Type: "bytes"},
	{Name: "relayData", Type: "RelayData"},
}

var deployRequestType = []apitypes.Type{
	{Name: "relayHub", Type: "address"},
	{Name: "from", Type: "address"},
	{Name: "to", Type: "address"},
	{Name: "tokenContract", Type: "address"},
	{Name: "recoverer", Type: "address"},
	{Name: "value", Type: "uint256"},
	{Name: "nonce", Type: "uint256"},
	{Name: "tokenAmount", Type: "uint256"},
	{Name: "tokenGas", Type: "uint256"},
	{Name: "validUntilTime", Type: "uint256"},
	{Name: "index", Type: "uint256"},
	{Name: "data", Type: "bytes"},
	{Name: "relayData", Type: "RelayData"},
}

// TypedDataSigner signs EIP-712 data with an account held elsewhere, such as an unlocked node account.
type TypedDataSigner interface {
	SignTypedData(ctx context.Context, account common.Address, typedData apitypes.TypedData) ([]byte, error)
}

// BuildTypedData lays out req for signing. The forwarder is the verifying contract.
func BuildTypedData(req *EnvelopingRequest, chainID uint64, isDeploy bool) apitypes.TypedData {
	r := req.Request
	message := apitypes.TypedDataMessage{
		"relayHub":       r.RelayHub.Hex(),
		"from":           r.From.Hex(),
		"to":             r.To.Hex(),
		"tokenContract":  r.TokenContract.Hex(),
		"value":          orZero(r.Value),
		"nonce":          orZero(r.Nonce),
		"tokenAmount":    orZero(r.TokenAmount),
		"tokenGas":       orZero(r.TokenGas),
		"validUntilTime": orZero(r.ValidUntilTime),
		"data":           hexutil.Encode(r.Data),
		"relayData": map[string]interface{}{
			"gasPrice":      orZero(req.RelayData.GasPrice),
			"feesReceiver":  req.RelayData.FeesReceiver.Hex(),
			"callForwarder": req.RelayData.CallForwarder.Hex(),
			"callVerifier":  req.RelayData.CallVerifier.Hex(),
		},
	}

	primaryType := "RelayRequest"
	requestType := relayRequestType
	if isDeploy {
		primaryType = "DeployRequest"
		requestType = deployRequestType
		recoverer := common.Address{}
		if r.Recoverer != nil {
			recoverer = *r.Recoverer
		}
		message["recoverer"] = recoverer.Hex()
		message["index"] = orZero(r.Index)
	} else {
		message["gas"] = orZero(r.Gas)
	}

	return apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": eip712DomainType,
			"RelayData":    relayDataType,
			primaryType:    requestType,
		},
		PrimaryType: primaryType,
		Domain: apitypes.TypedDataDomain{
			Name:              DomainName,
			Version:           DomainVersion,
			ChainId:           math.NewHexOrDecimal256(int64(chainID)),
			VerifyingContract: req.RelayData.CallForwarder.Hex(),
		},
		Message: message,
	}
}

// SignTypedData returns a 65-byte signature with V in {27, 28}.
func SignTypedData(typedData apitypes.TypedData, key *ecdsa.PrivateKey) ([]byte, error) {
	hash, _, err := apitypes.TypedDataAndHash(typedData)
	if err != nil {
		return nil, fmt.Errorf("failed to hash typed data: %w", err)
	}
	sig, err := crypto.Sign(hash, key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign typed data: %w", err)
	}
	sig[crypto.RecoveryIDOffset] += 27
	return sig, nil
}

// RecoverTypedDataSigner returns the address that produced sig over typedData.
func RecoverTypedDataSigner(typedData apitypes.TypedData, sig []byte) (common.Address, error) {
	if len(sig) != crypto.SignatureLength {
		return common.Address{}, fmt.Errorf("invalid signature length %d", len(sig))
	}
	hash, _, err := apitypes.TypedDataAndHash(typedData)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to hash typed data: %w", err)
	}
	normalized := append([]byte(nil), sig...)
	if normalized[crypto.RecoveryIDOffset] >= 27 {
		normalized[crypto.RecoveryIDOffset] -= 27
	}
	pub, err := crypto.SigToPub(hash, normalized)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to recover signer: %w", err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

func orZero(v string) string {
	if v == "" {
		return "0"
	}
	return v
}
