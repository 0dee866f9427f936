package iotarpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"crowdfund-client-go/internal/models"

	"go.uber.org/zap"
	"golang.org/x/net/http2"
)

// Sentinel errors returned by the read and finality calls
var (
	ErrQuery             = errors.New("ledger query failed")
	ErrUnexpectedShape   = errors.New("unexpected object shape")
	ErrFinalityTimeout   = errors.New("timed out waiting for transaction finality")
	ErrTransactionFailed = errors.New("transaction execution failed")
)

// RPCError is a JSON-RPC error object returned by the fullnode
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

type rpcRequest struct {
	JsonRpc string `json:"jsonrpc"`
	Id      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcResponse struct {
	Id     uint64          `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
}

// Service is a JSON-RPC client for an IOTA fullnode. It provides the
// read-query and finality-wait capabilities.
type Service struct {
	httpClient   *http.Client
	rpcUrl       string
	nextId       atomic.Uint64
	finality     time.Duration
	pollInterval time.Duration
}

// Option tunes a Service
type Option func(*Service)

// WithFinality sets the finality wait timeout and poll interval
func WithFinality(timeout, pollInterval time.Duration) Option {
	return func(s *Service) {
		if timeout > 0 {
			s.finality = timeout
		}
		if pollInterval > 0 {
			s.pollInterval = pollInterval
		}
	}
}

// NewService creates a fullnode client over an HTTP/2 capable transport
func NewService(cfg models.NetworkConfig, opts ...Option) (*Service, error) {
	if cfg.RpcUrl == "" {
		return nil, fmt.Errorf("rpc url cannot be empty")
	}

	httpClient, err := createCustomHttpClient(cfg.RpcTimeout)
	if err != nil {
		return nil, fmt.Errorf("unable to create custom http client: %w", err)
	}

	return NewServiceWithHTTP(httpClient, cfg.RpcUrl, opts...), nil
}

// NewServiceWithHTTP creates a client with a caller supplied HTTP client
func NewServiceWithHTTP(httpClient *http.Client, rpcUrl string, opts ...Option) *Service {
	s := &Service{
		httpClient:   httpClient,
		rpcUrl:       rpcUrl,
		finality:     60 * time.Second,
		pollInterval: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func createCustomHttpClient(timeout time.Duration) (*http.Client, error) {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	tr := &http.Transport{
		ResponseHeaderTimeout: timeout,
		Proxy:                 http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			KeepAlive: 30 * time.Second,
			Timeout:   15 * time.Second,
		}).DialContext,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		MaxIdleConnsPerHost:   5,
		ExpectContinueTimeout: 5 * time.Second,
	}

	if err := http2.ConfigureTransport(tr); err != nil {
		return nil, err
	}

	return &http.Client{
		Transport: tr,
		Timeout:   2 * timeout,
	}, nil
}

// call performs one JSON-RPC request and decodes the result into out
func (s *Service) call(ctx context.Context, method string, params []any, out any) error {
	req := rpcRequest{
		JsonRpc: "2.0",
		Id:      s.nextId.Add(1),
		Method:  method,
		Params:  params,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal %s request: %w", method, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.rpcUrl, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s: unexpected status code %d: %s", method, resp.StatusCode, bytes.TrimSpace(snippet))
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return fmt.Errorf("decoding %s response: %w", method, err)
	}
	if rpcResp.Error != nil {
		return fmt.Errorf("%s: %w", method, rpcResp.Error)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(rpcResp.Result, out); err != nil {
		return fmt.Errorf("decoding %s result: %w", method, err)
	}

	zap.L().Debug("RPC call completed",
		zap.String("method", method),
		zap.Uint64("id", req.Id))

	return nil
}
