package portfolio

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"wallet_portfolio/internal/balance"
	"wallet_portfolio/internal/domain"
	"wallet_portfolio/internal/metrics"
	"wallet_portfolio/internal/pricing"
)

// BalanceFetcher is satisfied by *balance.Aggregator
type BalanceFetcher interface {
	Aggregate(ctx context.Context, wallet balance.Wallet, symbols []string) (balance.Result, error)
}

// PriceFetcher is satisfied by *pricing.Service
type PriceFetcher interface {
	FetchPrices(ctx context.Context, symbols []string) (pricing.Snapshot, error)
}

// Manager owns the open sessions and refreshes them
type Manager struct {
	balances BalanceFetcher
	prices   PriceFetcher
	symbols  []string // nil means every registered asset

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewManager(balances BalanceFetcher, prices PriceFetcher, symbols []string) *Manager {
	return &Manager{
		balances: balances,
		prices:   prices,
		symbols:  symbols,
		sessions: make(map[string]*Session),
	}
}

// WalletOf returns the addresses recorded on u
func WalletOf(u *domain.User) balance.Wallet {
	var w balance.Wallet
	if u.PrimaryAddress != nil {
		w.EVM = *u.PrimaryAddress
	}
	if u.SecondaryAddress != nil {
		w.Bitcoin = *u.SecondaryAddress
	}
	return w
}

// Connect opens a fresh session for u. A session already open for the same
// user is closed first, so its in-flight results are discarded.
func (m *Manager) Connect(u *domain.User) *Session {
	s := newSession(u.ID, WalletOf(u), u.BalanceOverride)

	m.mu.Lock()
	old := m.sessions[u.ID]
	m.sessions[u.ID] = s
	metrics.SessionsOpen.Set(float64(len(m.sessions)))
	m.mu.Unlock()

	if old != nil {
		old.Close()
	}
	logrus.WithFields(logrus.Fields{"user_id": u.ID, "evm": s.wallet.EVM, "bitcoin": s.wallet.Bitcoin}).Info("Session opened")
	return s
}

// Disconnect closes and forgets the user's session
func (m *Manager) Disconnect(userID string) bool {
	m.mu.Lock()
	s, ok := m.sessions[userID]
	delete(m.sessions, userID)
	metrics.SessionsOpen.Set(float64(len(m.sessions)))
	m.mu.Unlock()

	if ok {
		s.Close()
		logrus.WithField("user_id", userID).Info("Session closed")
	}
	return ok
}

// Get returns the open session of userID
func (m *Manager) Get(userID string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[userID]
	return s, ok
}

// Sync pushes profile changes of u into its open session, if any
func (m *Manager) Sync(u *domain.User) {
	if s, ok := m.Get(u.ID); ok {
		s.Update(WalletOf(u), u.BalanceOverride)
	}
}

// Len returns the number of open sessions
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Refresh fetches balances and prices for the user's session in parallel
// and applies each result independently. An unavailable price source is
// not an error: the stale snapshot it returns is applied instead.
func (m *Manager) Refresh(ctx context.Context, userID string) (View, error) {
	s, ok := m.Get(userID)
	if !ok {
		return View{}, domain.ErrNotFound
	}
	start := time.Now()
	defer func() { metrics.SessionRefreshSeconds.Observe(time.Since(start).Seconds()) }()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res, err := m.balances.Aggregate(gctx, s.Wallet(), m.symbols)
		if err != nil {
			return err
		}
		if !s.ApplyBalances(res) {
			metrics.RecordDiscarded("balances")
			logrus.WithFields(logrus.Fields{"user_id": userID, "seq": res.Seq}).Debug("Discarded balance result")
		}
		return nil
	})
	g.Go(func() error {
		snap, err := m.prices.FetchPrices(gctx, m.symbols)
		if err != nil && !errors.Is(err, domain.ErrSourceUnavailable) {
			return err
		}
		if snap.Seq == 0 {
			return nil
		}
		if !s.ApplyPrices(snap) {
			metrics.RecordDiscarded("prices")
			logrus.WithFields(logrus.Fields{"user_id": userID, "seq": snap.Seq}).Debug("Discarded price snapshot")
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return View{}, err
	}
	return s.View(), nil
}

// RefreshAll refreshes every open session
func (m *Manager) RefreshAll(ctx context.Context) {
	m.mu.RLock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if _, err := m.Refresh(ctx, id); err != nil && !errors.Is(err, domain.ErrNotFound) {
				logrus.WithFields(logrus.Fields{"user_id": id, "error": err.Error()}).Warn("Session refresh failed")
			}
		}(id)
	}
	wg.Wait()
}

// Run refreshes all sessions every interval until ctx is done
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.RefreshAll(ctx)
		}
	}
}
