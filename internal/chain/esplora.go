package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/url"
	"time"

	"wallet_portfolio/internal/domain"
	"wallet_portfolio/internal/rpc"
)

// addressStats is the subset of /address/{addr} the client reads
type addressStats struct {
	Address    string `json:"address"`
	ChainStats struct {
		FundedTxoSum int64 `json:"funded_txo_sum"`
		SpentTxoSum  int64 `json:"spent_txo_sum"`
	} `json:"chain_stats"`
}

// EsploraClient reads confirmed bitcoin balances from an Esplora REST API
// (blockstream.info, mempool.space)
type EsploraClient struct {
	c *rpc.Client
}

func NewEsploraClient(baseURL string, timeout time.Duration) *EsploraClient {
	return &EsploraClient{c: rpc.NewClient("esplora", baseURL, timeout, nil)}
}

// Balance returns the confirmed balance of addr in satoshis
func (e *EsploraClient) Balance(ctx context.Context, asset domain.Asset, addr string) (*big.Int, error) {
	if asset.Source != domain.SourceEsplora {
		return nil, fmt.Errorf("%w: esplora client cannot serve source %q", domain.ErrUnsupportedAsset, asset.Source)
	}
	raw, err := e.c.Do(ctx, http.MethodGet, "/address/"+url.PathEscape(addr), nil)
	if err != nil {
		return nil, fmt.Errorf("esplora address lookup failed: %w", err)
	}
	var stats addressStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		return nil, fmt.Errorf("unmarshal address stats: %w", err)
	}
	sats := stats.ChainStats.FundedTxoSum - stats.ChainStats.SpentTxoSum
	return big.NewInt(sats), nil
}
