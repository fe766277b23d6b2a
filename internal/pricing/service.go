// Package pricing fetches USD unit prices and keeps the last good snapshot.
package pricing

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"wallet_portfolio/internal/assets"
	"wallet_portfolio/internal/domain"
	"wallet_portfolio/internal/metrics"
)

// Price is the USD unit price of one asset
type Price struct {
	UnitUSD decimal.Decimal `json:"unit_usd"`
	AsOf    time.Time       `json:"as_of"`
}

// Snapshot is a symbol keyed set of prices. Stale marks a snapshot served
// from the last successful fetch after the source failed.
type Snapshot struct {
	Seq    uint64           `json:"seq"`
	Prices map[string]Price `json:"prices"`
	Stale  bool             `json:"stale"`
}

// Unit returns the unit price of symbol
func (s Snapshot) Unit(symbol string) (decimal.Decimal, bool) {
	p, ok := s.Prices[symbol]
	return p.UnitUSD, ok
}

// SnapshotStore persists the last successful snapshot across restarts
type SnapshotStore interface {
	Load(ctx context.Context) (Snapshot, bool, error)
	Save(ctx context.Context, s Snapshot) error
}

// Service batches price lookups and retains the last good result
type Service struct {
	registry *assets.Registry
	source   Source
	store    SnapshotStore // optional
	timeout  time.Duration
	seq      atomic.Uint64

	mu      sync.Mutex
	last    map[string]Price
	lastSeq map[string]uint64 // per symbol; calls for different symbols overlap
	loaded  bool
}

func NewService(registry *assets.Registry, source Source, store SnapshotStore, timeout time.Duration) *Service {
	return &Service{
		registry: registry,
		source:   source,
		store:    store,
		timeout:  timeout,
		last:     make(map[string]Price),
		lastSeq:  make(map[string]uint64),
	}
}

// NextSeq reserves a sequence number without fetching
func (s *Service) NextSeq() uint64 {
	return s.seq.Add(1)
}

// FetchPrices looks up every requested symbol in one upstream call. On any
// upstream failure it returns the retained prices for those symbols with
// Stale set, together with an error wrapping domain.ErrSourceUnavailable.
func (s *Service) FetchPrices(ctx context.Context, symbols []string) (Snapshot, error) {
	list, err := s.registry.Resolve(symbols)
	if err != nil {
		return Snapshot{}, err
	}
	seq := s.NextSeq()

	ids := make([]string, 0, len(list))
	for _, a := range list {
		ids = append(ids, a.PriceID)
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
	quotes, err := s.source.Quotes(fetchCtx, ids)
	cancel()
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"seq":   seq,
			"ids":   ids,
			"error": err.Error(),
		}).Warn("Price source failed, serving last snapshot")
		metrics.PriceSourceFailures.Inc()
		metrics.StalePriceSnapshots.Inc()
		return s.stale(ctx, seq, list), fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}

	snap := Snapshot{Seq: seq, Prices: make(map[string]Price, len(list))}
	for _, a := range list {
		q, ok := quotes[a.PriceID]
		if !ok {
			continue // Left unpriced
		}
		snap.Prices[a.Symbol] = Price{UnitUSD: q.USD, AsOf: q.UpdatedAt}
	}

	s.ensureLoaded(ctx)
	s.mu.Lock()
	for sym, p := range snap.Prices {
		if seq > s.lastSeq[sym] {
			s.last[sym] = p
			s.lastSeq[sym] = seq
		}
	}
	s.loaded = true
	retained := Snapshot{Prices: copyPrices(s.last)}
	s.mu.Unlock()

	if s.store != nil {
		if err := s.store.Save(ctx, retained); err != nil {
			logrus.WithError(err).Warn("Failed to persist price snapshot")
		}
	}
	return snap, nil
}

// Last returns the retained snapshot without calling the source
func (s *Service) Last(ctx context.Context) Snapshot {
	s.ensureLoaded(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{Prices: copyPrices(s.last), Stale: true}
}

func (s *Service) stale(ctx context.Context, seq uint64, list []domain.Asset) Snapshot {
	s.ensureLoaded(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{Seq: seq, Prices: make(map[string]Price), Stale: true}
	for _, a := range list {
		if p, ok := s.last[a.Symbol]; ok {
			snap.Prices[a.Symbol] = p
		}
	}
	return snap
}

// ensureLoaded seeds the in-memory snapshot from the store once
func (s *Service) ensureLoaded(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded || s.store == nil {
		return
	}
	snap, ok, err := s.store.Load(ctx)
	if err != nil {
		logrus.WithError(err).Warn("Failed to load price snapshot")
		return
	}
	s.loaded = true
	if !ok {
		return
	}
	for sym, p := range snap.Prices {
		if _, have := s.last[sym]; !have {
			s.last[sym] = p
		}
	}
}

func copyPrices(in map[string]Price) map[string]Price {
	out := make(map[string]Price, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
