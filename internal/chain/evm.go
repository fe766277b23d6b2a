// Package chain talks to balance sources: an EVM JSON-RPC node and an
// Esplora-compatible bitcoin API.
package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"time"

	"wallet_portfolio/internal/domain"
	"wallet_portfolio/internal/rpc"
)

// balanceOf(address) selector
const balanceOfSelector = "0x70a08231"

// EVMClient reads native and ERC-20 balances over JSON-RPC
type EVMClient struct {
	c *rpc.Client
}

func NewEVMClient(url string, timeout time.Duration) *EVMClient {
	return &EVMClient{c: rpc.NewClient("evm", url, timeout, nil)}
}

// Balance returns the balance of holder in base units for a native or
// ERC-20 asset
func (e *EVMClient) Balance(ctx context.Context, asset domain.Asset, holder string) (*big.Int, error) {
	switch asset.Source {
	case domain.SourceNative:
		return e.NativeBalance(ctx, holder)
	case domain.SourceERC20:
		return e.TokenBalance(ctx, asset.Contract, holder)
	default:
		return nil, fmt.Errorf("%w: evm client cannot serve source %q", domain.ErrUnsupportedAsset, asset.Source)
	}
}

// NativeBalance calls eth_getBalance at the latest block
func (e *EVMClient) NativeBalance(ctx context.Context, holder string) (*big.Int, error) {
	result, err := e.c.CallRPC(ctx, "eth_getBalance", []any{holder, "latest"})
	if err != nil {
		return nil, fmt.Errorf("eth_getBalance failed: %w", err)
	}
	return decodeQuantity(result)
}

// TokenBalance calls balanceOf(holder) on an ERC-20 contract
func (e *EVMClient) TokenBalance(ctx context.Context, contract, holder string) (*big.Int, error) {
	call := map[string]string{
		"to":   contract,
		"data": EncodeBalanceOf(holder),
	}
	result, err := e.c.CallRPC(ctx, "eth_call", []any{call, "latest"})
	if err != nil {
		return nil, fmt.Errorf("eth_call balanceOf failed: %w", err)
	}
	return decodeQuantity(result)
}

// EncodeBalanceOf builds balanceOf calldata with the holder left-padded to
// 32 bytes
func EncodeBalanceOf(holder string) string {
	addr := strings.ToLower(strings.TrimPrefix(holder, "0x"))
	return balanceOfSelector + strings.Repeat("0", 64-len(addr)) + addr
}

// decodeQuantity parses a hex string result ("0x1a", "0x000..01") into a big.Int
func decodeQuantity(raw json.RawMessage) (*big.Int, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("unmarshal quantity: %w", err)
	}
	s = strings.TrimPrefix(s, "0x")
	if s == "" {
		return new(big.Int), nil
	}
	n, ok := new(big.Int).SetString(s, 16)
	if !ok {
		return nil, fmt.Errorf("invalid hex quantity %q", s)
	}
	return n, nil
}
