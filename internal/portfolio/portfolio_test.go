package portfolio

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet_portfolio/internal/balance"
	"wallet_portfolio/internal/domain"
	"wallet_portfolio/internal/metrics"
	"wallet_portfolio/internal/pricing"
)

func snapshot(seq uint64, prices map[string]string) pricing.Snapshot {
	s := pricing.Snapshot{Seq: seq, Prices: map[string]pricing.Price{}}
	for sym, v := range prices {
		s.Prices[sym] = pricing.Price{UnitUSD: decimal.RequireFromString(v), AsOf: time.Unix(1, 0)}
	}
	return s
}

func bal(asset, value string) balance.Balance {
	return balance.Balance{Asset: asset, Value: value, Available: true}
}

func TestValuate_Sum(t *testing.T) {
	v := Valuate(
		[]balance.Balance{bal("ETH", "0.5000"), bal("USDT", "100.00")},
		snapshot(1, map[string]string{"ETH": "3000", "USDT": "1"}),
		decimal.NullDecimal{},
	)
	assert.True(t, decimal.RequireFromString("1600").Equal(v.Total))
	assert.True(t, v.Total.Equal(v.Computed))
	assert.False(t, v.OverrideApplied)
	require.Len(t, v.Assets, 2)
	assert.True(t, v.Assets[0].Priced)
	assert.True(t, decimal.RequireFromString("1500").Equal(v.Assets[0].ValueUSD.Decimal))
}

func TestValuate_MissingPriceExcluded(t *testing.T) {
	v := Valuate(
		[]balance.Balance{bal("ETH", "1.0000"), bal("BTC", "2.00000000")},
		snapshot(1, map[string]string{"ETH": "3000"}),
		decimal.NullDecimal{},
	)
	assert.True(t, decimal.RequireFromString("3000").Equal(v.Total))

	btc := v.Assets[1]
	assert.Equal(t, "BTC", btc.Asset)
	assert.False(t, btc.Priced)
	assert.False(t, btc.ValueUSD.Valid, "unpriced line carries no value, not zero")
}

func TestValuate_UnavailableBalanceExcluded(t *testing.T) {
	v := Valuate(
		[]balance.Balance{bal("ETH", "1.0000"), {Asset: "BTC", Available: false, Reason: "timeout"}},
		snapshot(1, map[string]string{"ETH": "3000", "BTC": "60000"}),
		decimal.NullDecimal{},
	)
	assert.True(t, decimal.RequireFromString("3000").Equal(v.Total))
	assert.True(t, v.Assets[1].Priced)
	assert.False(t, v.Assets[1].Available)
	assert.False(t, v.Assets[1].ValueUSD.Valid)
}

func TestValuate_OverrideWins(t *testing.T) {
	v := Valuate(
		[]balance.Balance{bal("ETH", "1.0000")},
		snapshot(1, map[string]string{"ETH": "3000"}),
		decimal.NewNullDecimal(decimal.RequireFromString("12.50")),
	)
	assert.True(t, v.OverrideApplied)
	assert.True(t, decimal.RequireFromString("12.50").Equal(v.Total))
	assert.True(t, decimal.RequireFromString("3000").Equal(v.Computed))

	empty := Valuate(nil, pricing.Snapshot{}, decimal.NewNullDecimal(decimal.Zero))
	assert.True(t, empty.OverrideApplied)
	assert.True(t, empty.Total.IsZero())
}

func TestValuate_Monotonic(t *testing.T) {
	base := []balance.Balance{bal("ETH", "1.5000"), bal("BTC", "0.25000000"), bal("USDC", "10.00")}
	prices := map[string]string{"ETH": "2000", "BTC": "50000", "USDC": "1"}
	total := Valuate(base, snapshot(1, prices), decimal.NullDecimal{}).Total

	for i := range base {
		more := append([]balance.Balance(nil), base...)
		amt := decimal.RequireFromString(more[i].Value).Add(decimal.RequireFromString("0.01"))
		more[i].Value = amt.String()
		assert.True(t, Valuate(more, snapshot(1, prices), decimal.NullDecimal{}).Total.GreaterThan(total), more[i].Asset)
	}
	for sym := range prices {
		bumped := map[string]string{}
		for k, v := range prices {
			bumped[k] = v
		}
		bumped[sym] = decimal.RequireFromString(prices[sym]).Add(decimal.NewFromInt(1)).String()
		assert.True(t, Valuate(base, snapshot(1, bumped), decimal.NullDecimal{}).Total.GreaterThan(total), sym)
	}
}

func TestSession_NewerSequenceWins(t *testing.T) {
	s := newSession("u1", balance.Wallet{EVM: "0xabc"}, decimal.NullDecimal{})

	w := balance.Wallet{EVM: "0xabc"}
	six := balance.Result{Seq: 6, Wallet: w, Balances: []balance.Balance{bal("ETH", "6.0000")}}
	five := balance.Result{Seq: 5, Wallet: w, Balances: []balance.Balance{bal("ETH", "5.0000")}}

	assert.True(t, s.ApplyBalances(six))
	assert.False(t, s.ApplyBalances(five), "sequence 5 completed late")

	v := s.View()
	assert.Equal(t, uint64(6), v.BalanceSeq)
	assert.Equal(t, "6.0000", v.Balances.Balances[0].Value)

	assert.True(t, s.ApplyPrices(snapshot(2, map[string]string{"ETH": "2"})))
	assert.False(t, s.ApplyPrices(snapshot(1, map[string]string{"ETH": "1"})))
	assert.True(t, decimal.NewFromInt(12).Equal(s.View().Valuation.Total))
}

func TestSession_ClosedDiscards(t *testing.T) {
	s := newSession("u1", balance.Wallet{EVM: "0xabc"}, decimal.NullDecimal{})
	s.Close()
	assert.True(t, s.Closed())
	assert.False(t, s.ApplyBalances(balance.Result{Seq: 1, Wallet: balance.Wallet{EVM: "0xabc"}}))
	assert.False(t, s.ApplyPrices(snapshot(1, nil)))
}

func TestSession_UpdateDropsBalancesOfOldWallet(t *testing.T) {
	old := balance.Wallet{EVM: "0xabc"}
	s := newSession("u1", old, decimal.NullDecimal{})
	require.True(t, s.ApplyBalances(balance.Result{Seq: 3, Wallet: old, Balances: []balance.Balance{bal("ETH", "1.0000")}}))

	linked := balance.Wallet{EVM: "0xabc", Bitcoin: "bc1qxyz"}
	s.Update(linked, decimal.NewNullDecimal(decimal.NewFromInt(5)))
	v := s.View()
	assert.Empty(t, v.Balances.Balances)
	assert.Equal(t, uint64(3), v.BalanceSeq)
	assert.Equal(t, "bc1qxyz", v.Wallet.Bitcoin)
	assert.True(t, v.Valuation.OverrideApplied)

	assert.False(t, s.ApplyBalances(balance.Result{Seq: 3, Wallet: linked}))
	assert.True(t, s.ApplyBalances(balance.Result{Seq: 4, Wallet: linked}))
}

func TestSession_ResultForReplacedWalletIsDiscarded(t *testing.T) {
	old := balance.Wallet{EVM: "0xabc"}
	s := newSession("u1", old, decimal.NullDecimal{})
	s.Update(balance.Wallet{EVM: "0xdef"}, decimal.NullDecimal{})

	assert.False(t, s.ApplyBalances(balance.Result{Seq: 9, Wallet: old, Balances: []balance.Balance{bal("ETH", "1.0000")}}))
	v := s.View()
	assert.Zero(t, v.BalanceSeq)
	assert.Empty(t, v.Balances.Balances)
}

// gatedBalances hands out increasing sequence numbers and lets a test decide
// when each call returns
type gatedBalances struct {
	seq     atomic.Uint64
	mu      sync.Mutex
	gates   map[uint64]chan struct{}
	started chan uint64
}

func newGatedBalances(start uint64) *gatedBalances {
	g := &gatedBalances{gates: map[uint64]chan struct{}{}, started: make(chan uint64, 8)}
	g.seq.Store(start)
	return g
}

func (g *gatedBalances) gate(seq uint64) chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.gates[seq] == nil {
		g.gates[seq] = make(chan struct{})
	}
	return g.gates[seq]
}

func (g *gatedBalances) Aggregate(ctx context.Context, w balance.Wallet, symbols []string) (balance.Result, error) {
	seq := g.seq.Add(1)
	gate := g.gate(seq)
	g.started <- seq
	<-gate
	return balance.Result{Seq: seq, Wallet: w, Balances: []balance.Balance{bal("ETH", decimal.NewFromInt(int64(seq)).StringFixed(4))}}, nil
}

type staticPrices struct {
	seq atomic.Uint64
	err error
}

func (p *staticPrices) FetchPrices(ctx context.Context, symbols []string) (pricing.Snapshot, error) {
	s := snapshot(p.seq.Add(1), map[string]string{"ETH": "10"})
	if p.err != nil {
		s.Stale = true
	}
	return s, p.err
}

func user(id string) *domain.User {
	evm := "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"
	return &domain.User{ID: id, PrimaryAddress: &evm}
}

func TestManager_LateOlderRefreshIsDiscarded(t *testing.T) {
	balances := newGatedBalances(4)
	m := NewManager(balances, &staticPrices{}, []string{"ETH"})
	m.Connect(user("u1"))

	type out struct {
		view View
		err  error
	}
	first := make(chan out, 1)
	go func() {
		v, err := m.Refresh(context.Background(), "u1")
		first <- out{v, err}
	}()
	require.Equal(t, uint64(5), <-balances.started)

	second := make(chan out, 1)
	go func() {
		v, err := m.Refresh(context.Background(), "u1")
		second <- out{v, err}
	}()
	require.Equal(t, uint64(6), <-balances.started)

	close(balances.gate(6))
	r6 := <-second
	require.NoError(t, r6.err)
	assert.Equal(t, uint64(6), r6.view.BalanceSeq)

	close(balances.gate(5))
	r5 := <-first
	require.NoError(t, r5.err)

	s, ok := m.Get("u1")
	require.True(t, ok)
	v := s.View()
	assert.Equal(t, uint64(6), v.BalanceSeq)
	assert.Equal(t, "6.0000", v.Balances.Balances[0].Value)
	assert.True(t, decimal.NewFromInt(60).Equal(v.Valuation.Total))
}

func TestManager_ResultAfterDisconnectIsDiscarded(t *testing.T) {
	balances := newGatedBalances(0)
	m := NewManager(balances, &staticPrices{}, []string{"ETH"})
	s := m.Connect(user("u1"))

	done := make(chan error, 1)
	go func() {
		_, err := m.Refresh(context.Background(), "u1")
		done <- err
	}()
	seq := <-balances.started

	assert.True(t, m.Disconnect("u1"))
	close(balances.gate(seq))
	require.NoError(t, <-done)

	assert.Zero(t, s.View().BalanceSeq)
	_, ok := m.Get("u1")
	assert.False(t, ok)
	assert.False(t, m.Disconnect("u1"))

	_, err := m.Refresh(context.Background(), "u1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestManager_ReconnectClosesOldSession(t *testing.T) {
	m := NewManager(newGatedBalances(0), &staticPrices{}, nil)
	old := m.Connect(user("u1"))
	fresh := m.Connect(user("u1"))

	assert.True(t, old.Closed())
	assert.False(t, fresh.Closed())
	assert.Equal(t, 1, m.Len())
}

func TestManager_StalePricesStillApplied(t *testing.T) {
	balances := newGatedBalances(0)
	prices := &staticPrices{err: errors.Join(domain.ErrSourceUnavailable, errors.New("down"))}
	m := NewManager(balances, prices, []string{"ETH"})
	m.Connect(user("u1"))

	go func() { close(balances.gate(<-balances.started)) }()
	v, err := m.Refresh(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, v.Prices.Stale)
	assert.True(t, decimal.NewFromInt(10).Equal(v.Valuation.Total))
}

func TestManager_RefreshForReplacedWalletIsDiscarded(t *testing.T) {
	balances := newGatedBalances(0)
	m := NewManager(balances, &staticPrices{}, []string{"ETH"})
	u := user("u1")
	s := m.Connect(u)
	discarded := metrics.DiscardedResults.WithLabelValues("balances")
	before := testutil.ToFloat64(discarded)

	done := make(chan error, 1)
	go func() {
		_, err := m.Refresh(context.Background(), "u1")
		done <- err
	}()
	seq := <-balances.started

	replacement := "0x1111111111111111111111111111111111111111"
	u.PrimaryAddress = &replacement
	m.Sync(u)

	close(balances.gate(seq))
	require.NoError(t, <-done)

	v := s.View()
	assert.Equal(t, replacement, v.Wallet.EVM)
	assert.Zero(t, v.BalanceSeq)
	assert.Empty(t, v.Balances.Balances)
	assert.True(t, v.Valuation.Computed.IsZero())
	assert.Equal(t, before+1, testutil.ToFloat64(discarded))
}

func TestManager_SyncUpdatesWallet(t *testing.T) {
	m := NewManager(newGatedBalances(0), &staticPrices{}, nil)
	u := user("u1")
	m.Connect(u)

	btc := "bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq"
	u.SecondaryAddress = &btc
	m.Sync(u)

	s, _ := m.Get("u1")
	assert.Equal(t, btc, s.Wallet().Bitcoin)
}
