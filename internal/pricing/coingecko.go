package pricing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"wallet_portfolio/internal/rpc"
)

// Quote is one upstream price
type Quote struct {
	USD       decimal.Decimal
	UpdatedAt time.Time
}

// Source returns USD quotes keyed by market-data id in a single call
type Source interface {
	Quotes(ctx context.Context, ids []string) (map[string]Quote, error)
}

// CoinGecko queries the simple/price endpoint
type CoinGecko struct {
	c *rpc.Client
}

func NewCoinGecko(baseURL, apiKey string, timeout time.Duration) *CoinGecko {
	var headers map[string]string
	if apiKey != "" {
		headers = map[string]string{"x-cg-demo-api-key": apiKey}
	}
	return &CoinGecko{c: rpc.NewClient("coingecko", baseURL, timeout, headers)}
}

type simplePrice struct {
	USD           json.Number `json:"usd"`
	LastUpdatedAt int64       `json:"last_updated_at"`
}

func (c *CoinGecko) Quotes(ctx context.Context, ids []string) (map[string]Quote, error) {
	q := url.Values{}
	q.Set("ids", strings.Join(ids, ","))
	q.Set("vs_currencies", "usd")
	q.Set("include_last_updated_at", "true")

	body, err := c.c.Do(ctx, http.MethodGet, "/simple/price?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("price API: %w", err)
	}

	var raw map[string]simplePrice
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode prices: %w", err)
	}

	now := time.Now().UTC()
	out := make(map[string]Quote, len(raw))
	for id, p := range raw {
		if p.USD == "" {
			continue
		}
		v, err := decimal.NewFromString(p.USD.String())
		if err != nil {
			return nil, fmt.Errorf("price for %s: %w", id, err)
		}
		asOf := now
		if p.LastUpdatedAt > 0 {
			asOf = time.Unix(p.LastUpdatedAt, 0).UTC()
		}
		out[id] = Quote{USD: v, UpdatedAt: asOf}
	}
	logrus.WithFields(logrus.Fields{"ids": ids, "quoted": len(out)}).Debug("Price request")
	return out, nil
}
