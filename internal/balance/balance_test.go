package balance

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet_portfolio/internal/assets"
	"wallet_portfolio/internal/domain"
)

const (
	evmAddr = "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"
	btcAddr = "bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq"
)

type fixedSource map[string]*big.Int

func (f fixedSource) Balance(ctx context.Context, asset domain.Asset, holder string) (*big.Int, error) {
	v, ok := f[asset.Symbol]
	if !ok {
		return nil, errors.New("unknown")
	}
	return v, nil
}

// hangingSource blocks until the context gives up
type hangingSource struct{}

func (hangingSource) Balance(ctx context.Context, asset domain.Asset, holder string) (*big.Int, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

type failingSource struct{}

func (failingSource) Balance(ctx context.Context, asset domain.Asset, holder string) (*big.Int, error) {
	return nil, errors.New("HTTP 502")
}

func wei(s string) *big.Int {
	n, _ := new(big.Int).SetString(s, 10)
	return n
}

func TestAggregate_BTCTimeoutDoesNotBlockETH(t *testing.T) {
	agg := NewAggregator(assets.Default(), map[string]Source{
		domain.SourceNative:  fixedSource{"ETH": wei("1234567890000000000")},
		domain.SourceEsplora: hangingSource{},
	}, 30*time.Millisecond)

	res, err := agg.Aggregate(context.Background(), Wallet{EVM: evmAddr, Bitcoin: btcAddr}, []string{"ETH", "BTC"})
	require.NoError(t, err)
	require.Len(t, res.Balances, 2)

	eth, ok := res.Get("ETH")
	require.True(t, ok)
	assert.True(t, eth.Available)
	assert.Equal(t, "1.2345", eth.Value)
	assert.Equal(t, "1.23456789", eth.Exact.String())

	btc, ok := res.Get("BTC")
	require.True(t, ok)
	assert.False(t, btc.Available)
	assert.Empty(t, btc.Value)
	assert.Equal(t, "timeout", btc.Reason)
}

func TestAggregate_FormatsPerAsset(t *testing.T) {
	agg := NewAggregator(assets.Default(), map[string]Source{
		domain.SourceNative:  fixedSource{"ETH": wei("500000000000000000")},
		domain.SourceERC20:   fixedSource{"USDT": wei("12345678"), "USDC": wei("0")},
		domain.SourceEsplora: fixedSource{"BTC": wei("123456789")},
	}, time.Second)

	res, err := agg.Aggregate(context.Background(), Wallet{EVM: evmAddr, Bitcoin: btcAddr}, nil)
	require.NoError(t, err)

	want := map[string]string{"ETH": "0.5000", "BTC": "1.23456789", "USDT": "12.34", "USDC": "0.00"}
	assert.Len(t, res.Balances, len(want))
	for _, b := range res.Balances {
		assert.True(t, b.Available, b.Asset)
		assert.Equal(t, want[b.Asset], b.Value, b.Asset)
	}
	assert.Equal(t, []string{"ETH", "BTC", "USDT", "USDC"}, []string{
		res.Balances[0].Asset, res.Balances[1].Asset, res.Balances[2].Asset, res.Balances[3].Asset,
	})
}

func TestAggregate_MissingAddressAndFailure(t *testing.T) {
	agg := NewAggregator(assets.Default(), map[string]Source{
		domain.SourceNative:  failingSource{},
		domain.SourceEsplora: fixedSource{"BTC": wei("1")},
	}, time.Second)

	res, err := agg.Aggregate(context.Background(), Wallet{EVM: evmAddr}, []string{"ETH", "BTC", "USDT"})
	require.NoError(t, err)

	eth, _ := res.Get("ETH")
	assert.False(t, eth.Available)
	assert.Equal(t, domain.ErrSourceUnavailable.Error(), eth.Reason)

	btc, _ := res.Get("BTC")
	assert.False(t, btc.Available)
	assert.Contains(t, btc.Reason, "bitcoin")

	usdt, _ := res.Get("USDT")
	assert.False(t, usdt.Available)
	assert.Equal(t, "no balance source configured", usdt.Reason)
}

func TestAggregate_InvalidRequest(t *testing.T) {
	agg := NewAggregator(assets.Default(), nil, time.Second)

	_, err := agg.Aggregate(context.Background(), Wallet{EVM: evmAddr}, []string{"ETH", "ETH"})
	assert.ErrorIs(t, err, domain.ErrInvalidFormat)

	_, err = agg.Aggregate(context.Background(), Wallet{EVM: evmAddr}, []string{"SOL"})
	assert.ErrorIs(t, err, domain.ErrUnsupportedAsset)
}

func TestAggregate_SeqMonotonic(t *testing.T) {
	agg := NewAggregator(assets.Default(), map[string]Source{
		domain.SourceNative: fixedSource{"ETH": wei("1")},
	}, time.Second)

	const n = 20
	seqs := make([]uint64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := agg.Aggregate(context.Background(), Wallet{EVM: evmAddr}, []string{"ETH"})
			require.NoError(t, err)
			seqs[i] = res.Seq
		}(i)
	}
	wg.Wait()

	seen := map[uint64]bool{}
	for _, s := range seqs {
		assert.False(t, seen[s], "duplicate seq %d", s)
		assert.NotZero(t, s)
		seen[s] = true
	}

	first, _ := agg.Aggregate(context.Background(), Wallet{EVM: evmAddr}, []string{"ETH"})
	second, _ := agg.Aggregate(context.Background(), Wallet{EVM: evmAddr}, []string{"ETH"})
	assert.Greater(t, second.Seq, first.Seq)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "0.0000", Format(big.NewInt(0), 18, 4))
	assert.Equal(t, "0.9999", Format(wei("999999999999999999"), 18, 4))
	assert.Equal(t, "0.00000001", Format(big.NewInt(1), 8, 8))
	assert.Equal(t, "1000000.00", Format(wei("1000000000000"), 6, 2))
}
