package portfolio

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"wallet_portfolio/internal/balance"
	"wallet_portfolio/internal/pricing"
)

// Session is the server-side state of one connected wallet. It is created
// on connect and closed on disconnect; results are applied only while it is
// open and only when newer than what it already holds.
type Session struct {
	UserID string

	mu        sync.RWMutex
	wallet    balance.Wallet
	override  decimal.NullDecimal
	balances  balance.Result
	prices    pricing.Snapshot
	closed    bool
	openedAt  time.Time
	updatedAt time.Time
}

// View is a consistent copy of a session
type View struct {
	UserID     string           `json:"user_id"`
	Wallet     balance.Wallet   `json:"wallet"`
	BalanceSeq uint64           `json:"balance_seq"`
	PriceSeq   uint64           `json:"price_seq"`
	Balances   balance.Result   `json:"balances"`
	Prices     pricing.Snapshot `json:"prices"`
	Valuation  Valuation        `json:"valuation"`
	OpenedAt   time.Time        `json:"opened_at"`
	UpdatedAt  time.Time        `json:"updated_at,omitempty"`
}

func newSession(userID string, wallet balance.Wallet, override decimal.NullDecimal) *Session {
	return &Session{
		UserID:   userID,
		wallet:   wallet,
		override: override,
		openedAt: time.Now().UTC(),
	}
}

// Wallet returns the addresses the session queries
func (s *Session) Wallet() balance.Wallet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.wallet
}

// ApplyBalances stores r if the session is open, r was fetched for the
// session's current wallet and it is newer than the held result. It reports
// whether r was applied.
func (s *Session) ApplyBalances(r balance.Result) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || r.Wallet != s.wallet || r.Seq <= s.balances.Seq {
		return false
	}
	s.balances = r
	s.updatedAt = time.Now().UTC()
	return true
}

// ApplyPrices stores p under the same rules as ApplyBalances
func (s *Session) ApplyPrices(p pricing.Snapshot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || p.Seq <= s.prices.Seq {
		return false
	}
	s.prices = p
	s.updatedAt = time.Now().UTC()
	return true
}

// Update replaces the wallet addresses and override after a profile change.
// Balances of a changed wallet are dropped so stale figures are not shown.
func (s *Session) Update(wallet balance.Wallet, override decimal.NullDecimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if wallet != s.wallet {
		s.balances = balance.Result{Seq: s.balances.Seq, Wallet: wallet}
	}
	s.wallet = wallet
	s.override = override
}

// Close marks the session disconnected
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// Closed reports whether the session was disconnected
func (s *Session) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// View returns the current state with its valuation
func (s *Session) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return View{
		UserID:     s.UserID,
		Wallet:     s.wallet,
		BalanceSeq: s.balances.Seq,
		PriceSeq:   s.prices.Seq,
		Balances:   s.balances,
		Prices:     s.prices,
		Valuation:  Valuate(s.balances.Balances, s.prices, s.override),
		OpenedAt:   s.openedAt,
		UpdatedAt:  s.updatedAt,
	}
}
