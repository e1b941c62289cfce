package relayclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/relaykit/relayctl/pkg/common/iface"
)

const (
	DefaultHTTPTimeout  = 30 * time.Second
	DefaultHTTPAttempts = 3
	DefaultRetryDelay   = 500 * time.Millisecond
	maxErrorBodyLen     = 512
)

// PingResponse is what a relay server reports on GET /getaddr.
type PingResponse struct {
	RelayWorkerAddress  common.Address `json:"relayWorkerAddress"`
	RelayManagerAddress common.Address `json:"relayManagerAddress"`
	RelayHubAddress     common.Address `json:"relayHubAddress"`
	FeesReceiver        common.Address `json:"feesReceiver"`
	MinGasPrice         string         `json:"minGasPrice"`
	ChainID             string         `json:"chainId"`
	NetworkID           string         `json:"networkId"`
	Ready               bool           `json:"ready"`
	Version             string         `json:"version"`
}

// MinGasPriceValue parses MinGasPrice, zero when absent or malformed.
func (p *PingResponse) MinGasPriceValue() *big.Int {
	v, ok := new(big.Int).SetString(strings.TrimSpace(p.MinGasPrice), 0)
	if !ok {
		return new(big.Int)
	}
	return v
}

// ChainIDValue parses ChainID, zero when absent or malformed.
func (p *PingResponse) ChainIDValue() uint64 {
	v, ok := new(big.Int).SetString(strings.TrimSpace(p.ChainID), 0)
	if !ok || !v.IsUint64() {
		return 0
	}
	return v.Uint64()
}

// ForwardRequest is the request half of a relay or deploy request. Numbers are decimal strings.
type ForwardRequest struct {
	RelayHub       common.Address  `json:"relayHub"`
	From           common.Address  `json:"from"`
	To             common.Address  `json:"to"`
	TokenContract  common.Address  `json:"tokenContract"`
	Recoverer      *common.Address `json:"recoverer,omitempty"`
	Value          string          `json:"value"`
	Gas            string          `json:"gas,omitempty"`
	Nonce          string          `json:"nonce"`
	TokenAmount    string          `json:"tokenAmount"`
	TokenGas       string          `json:"tokenGas"`
	ValidUntilTime string          `json:"validUntilTime"`
	Index          string          `json:"index,omitempty"`
	Data           hexutil.Bytes   `json:"data"`
}

type RelayData struct {
	GasPrice      string         `json:"gasPrice"`
	FeesReceiver  common.Address `json:"feesReceiver"`
	CallForwarder common.Address `json:"callForwarder"`
	CallVerifier  common.Address `json:"callVerifier"`
}

type EnvelopingRequest struct {
	Request   ForwardRequest `json:"request"`
	RelayData RelayData      `json:"relayData"`
}

type RelayMetadata struct {
	RelayHubAddress common.Address `json:"relayHubAddress"`
	RelayMaxNonce   uint64         `json:"relayMaxNonce"`
	Signature       hexutil.Bytes  `json:"signature"`
}

// RelayTransactionRequest is the body of POST /relay. Exactly one request field is set.
type RelayTransactionRequest struct {
	RelayRequest  *EnvelopingRequest `json:"relayRequest,omitempty"`
	DeployRequest *EnvelopingRequest `json:"deployRequest,omitempty"`
	Metadata      RelayMetadata      `json:"metadata"`
}

type RelayTransactionResponse struct {
	SignedTx        hexutil.Bytes `json:"signedTx,omitempty"`
	TransactionHash common.Hash   `json:"transactionHash"`
	Error           string        `json:"error,omitempty"`
}

// HTTPStatusError is a non-2xx answer from a relay server.
type HTTPStatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("relay %s returned HTTP %d: %s", e.URL, e.StatusCode, e.Body)
}

// Retryable reports whether the status may succeed on a later attempt.
func (e *HTTPStatusError) Retryable() bool {
	return e.StatusCode >= http.StatusInternalServerError || e.StatusCode == http.StatusTooManyRequests
}

// HTTPClient talks to relay servers. Every call is retried with backoff unless the
// server rejected the request outright or the context is done.
type HTTPClient struct {
	httpClient *http.Client
	attempts   uint
	delay      time.Duration
	logger     iface.Logger
}

func NewHTTPClient(timeout time.Duration, logger iface.Logger) *HTTPClient {
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}
	return &HTTPClient{
		httpClient: &http.Client{Timeout: timeout},
		attempts:   DefaultHTTPAttempts,
		delay:      DefaultRetryDelay,
		logger:     logger,
	}
}

// WithRetry overrides the attempt count and the base delay between attempts.
func (c *HTTPClient) WithRetry(attempts uint, delay time.Duration) *HTTPClient {
	c.attempts = attempts
	c.delay = delay
	return c
}

// GetAddress pings a relay server.
func (c *HTTPClient) GetAddress(ctx context.Context, relayURL string) (*PingResponse, error) {
	var ping PingResponse
	if err := c.do(ctx, http.MethodGet, joinURL(relayURL, "/getaddr"), nil, &ping); err != nil {
		return nil, err
	}
	return &ping, nil
}

// Relay submits a signed relay or deploy request.
func (c *HTTPClient) Relay(ctx context.Context, relayURL string, req *RelayTransactionRequest) (*RelayTransactionResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode relay request: %w", err)
	}

	var resp RelayTransactionResponse
	if err := c.do(ctx, http.MethodPost, joinURL(relayURL, "/relay"), body, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("relay %s rejected the request: %s", relayURL, resp.Error)
	}
	return &resp, nil
}

func (c *HTTPClient) do(ctx context.Context, method, url string, body []byte, out any) error {
	attempt := 0
	_, err := retry.DoWithData(
		func() (struct{}, error) {
			attempt++
			return struct{}{}, c.doOnce(ctx, method, url, body, out)
		},
		retry.RetryIf(func(err error) bool {
			if ctx.Err() != nil {
				return false
			}
			var statusErr *HTTPStatusError
			if errors.As(err, &statusErr) {
				return statusErr.Retryable()
			}
			return true
		}),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Debug("%s %s attempt %d failed: %v", method, url, n+1, err)
		}),
		retry.LastErrorOnly(true),
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.DelayType(retry.BackOffDelay),
		retry.Context(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to %s %s after %d attempt(s): %w", method, url, attempt, err)
	}
	return nil
}

func (c *HTTPClient) doOnce(ctx context.Context, method, url string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		excerpt := string(data)
		if len(excerpt) > maxErrorBodyLen {
			excerpt = excerpt[:maxErrorBodyLen]
		}
		return &HTTPStatusError{URL: url, StatusCode: resp.StatusCode, Body: strings.TrimSpace(excerpt)}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", url, err)
	}
	return nil
}

func joinURL(base, path string) string {
	return strings.TrimRight(base, "/") + path
}
