// Package balance aggregates per-asset wallet balances from independent
// sources.
package balance

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"wallet_portfolio/internal/assets"
	"wallet_portfolio/internal/domain"
)

// Source returns the balance of holder for asset in chain base units
type Source interface {
	Balance(ctx context.Context, asset domain.Asset, holder string) (*big.Int, error)
}

// Wallet carries the canonical address of each family for one user
type Wallet struct {
	EVM     string `json:"evm,omitempty"`
	Bitcoin string `json:"bitcoin,omitempty"`
}

// For returns the wallet address used for a given family
func (w Wallet) For(f domain.Family) string {
	if f == domain.FamilyBitcoin {
		return w.Bitcoin
	}
	return w.EVM
}

// Balance is one asset's entry in a Result
type Balance struct {
	Asset     string          `json:"asset"`
	Value     string          `json:"value,omitempty"` // display-precision decimal string
	Exact     decimal.Decimal `json:"-"`               // full chain precision
	Available bool            `json:"available"`
	Reason    string          `json:"reason,omitempty"`
}

// Result is the outcome of one Aggregate call. Seq is taken when the call
// starts, so a larger Seq always means a later-started call.
type Result struct {
	Seq       uint64    `json:"seq"`
	Wallet    Wallet    `json:"wallet"`
	Balances  []Balance `json:"balances"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Get returns the entry for symbol
func (r Result) Get(symbol string) (Balance, bool) {
	for _, b := range r.Balances {
		if b.Asset == symbol {
			return b, true
		}
	}
	return Balance{}, false
}

// Aggregator fans balance queries out to their sources
type Aggregator struct {
	registry *assets.Registry
	sources  map[string]Source // keyed by domain.Source* kind
	timeout  time.Duration
	seq      atomic.Uint64
}

func NewAggregator(registry *assets.Registry, sources map[string]Source, timeout time.Duration) *Aggregator {
	return &Aggregator{registry: registry, sources: sources, timeout: timeout}
}

// NextSeq reserves a sequence number without fetching
func (a *Aggregator) NextSeq() uint64 {
	return a.seq.Add(1)
}

// Aggregate queries every requested asset concurrently. A failing or slow
// source marks only its asset unavailable. The error return is reserved for
// invalid requests (unknown or repeated symbols).
func (a *Aggregator) Aggregate(ctx context.Context, wallet Wallet, symbols []string) (Result, error) {
	list, err := a.registry.Resolve(symbols)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		Seq:      a.NextSeq(),
		Wallet:   wallet,
		Balances: make([]Balance, len(list)),
	}

	var wg sync.WaitGroup
	for i, asset := range list {
		wg.Add(1)
		go func(i int, asset domain.Asset) {
			defer wg.Done()
			res.Balances[i] = a.fetchOne(ctx, wallet, asset)
		}(i, asset)
	}
	wg.Wait()
	res.FetchedAt = time.Now().UTC()
	return res, nil
}

func (a *Aggregator) fetchOne(ctx context.Context, wallet Wallet, asset domain.Asset) Balance {
	out := Balance{Asset: asset.Symbol}

	holder := wallet.For(asset.Family)
	if holder == "" {
		out.Reason = fmt.Sprintf("no %s address linked", asset.Family)
		return out
	}
	src, ok := a.sources[asset.Source]
	if !ok {
		out.Reason = "no balance source configured"
		return out
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	raw, err := src.Balance(ctx, asset, holder)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			out.Reason = "timeout"
		} else {
			out.Reason = domain.ErrSourceUnavailable.Error()
		}
		logrus.WithFields(logrus.Fields{
			"asset":   asset.Symbol,
			"address": holder,
			"error":   err.Error(),
		}).Warn("Balance source failed")
		return out
	}

	out.Exact = decimal.NewFromBigInt(raw, -asset.Decimals)
	out.Value = Format(raw, asset.Decimals, asset.DisplayDecimals)
	out.Available = true
	return out
}

// Format converts base units into a fixed-precision decimal string.
// Extra precision is truncated, never rounded up.
func Format(raw *big.Int, decimals, display int32) string {
	v := decimal.NewFromBigInt(raw, -decimals)
	return v.Truncate(display).StringFixed(display)
}
