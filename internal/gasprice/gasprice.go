// Package gasprice reads the network gas price consumed by the deposit-safety
// simulator.
package gasprice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"AutoVault/internal/model"
)

// Source returns the latest gas price in wei.
type Source interface {
	LatestGasPrice(ctx context.Context) (sdkmath.Int, error)
}

// Static serves a fixed gas price. Useful for tests and offline simulation.
type Static struct {
	mu    sync.RWMutex
	price sdkmath.Int
}

func NewStatic(price sdkmath.Int) *Static {
	return &Static{price: price}
}

func (s *Static) Set(price sdkmath.Int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.price = price
}

func (s *Static) LatestGasPrice(context.Context) (sdkmath.Int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.price.IsNil() || s.price.IsNegative() {
		return sdkmath.Int{}, fmt.Errorf("%w: no gas price configured", model.ErrInvalidParameters)
	}
	return s.price, nil
}

// RPCSource reads eth_gasPrice from a JSON-RPC node.
type RPCSource struct {
	Endpoint string
	Client   *http.Client
}

// NewRPCSource creates a source with optional proxy support.
func NewRPCSource(endpoint, proxyURL string) *RPCSource {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &RPCSource{
		Endpoint: endpoint,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
	ID      int    `json:"id"`
}

type rpcResponse struct {
	Result string `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (s *RPCSource) LatestGasPrice(ctx context.Context) (sdkmath.Int, error) {
	payload, err := json.Marshal(rpcRequest{JSONRPC: "2.0", Method: "eth_gasPrice", Params: []any{}, ID: 1})
	if err != nil {
		return sdkmath.Int{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return sdkmath.Int{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return sdkmath.Int{}, fmt.Errorf("fetch gas price: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return sdkmath.Int{}, fmt.Errorf("fetch gas price: status %d, body: %s", resp.StatusCode, string(body))
	}

	var out rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return sdkmath.Int{}, fmt.Errorf("decode gas price: %w", err)
	}
	if out.Error != nil {
		return sdkmath.Int{}, fmt.Errorf("fetch gas price: rpc error %d: %s", out.Error.Code, out.Error.Message)
	}
	wei, err := hexutil.DecodeBig(out.Result)
	if err != nil {
		return sdkmath.Int{}, fmt.Errorf("decode gas price %q: %w", out.Result, err)
	}
	return sdkmath.NewIntFromBigInt(wei), nil
}
