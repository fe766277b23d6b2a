package trading

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayoutFor(t *testing.T) {
	table := Default()
	cases := map[int]int{
		1:     20,
		60:    20,
		61:    30,
		120:   30,
		180:   40,
		300:   50,
		360:   50,
		361:   60,
		7200:  60,
		7201:  80,
		86400: 80,
	}
	for seconds, want := range cases {
		assert.Equal(t, want, table.PayoutFor(seconds), "timeframe %ds", seconds)
	}
}

func TestPotentialReturn(t *testing.T) {
	got := Default().PotentialReturn(decimal.NewFromInt(250), 90)
	assert.True(t, decimal.NewFromInt(75).Equal(got), got.String())
}

func TestStrategies(t *testing.T) {
	table := Default()
	require.Len(t, table.Strategies, 3)

	s, ok := table.Strategy("balanced")
	require.True(t, ok)
	assert.Equal(t, "medium", s.RiskLevel)
	assert.True(t, decimal.NewFromInt(500).Equal(s.MinInvestment))

	_, ok = table.Strategy("yolo")
	assert.False(t, ok)
}

func TestParse_SortsAndValidates(t *testing.T) {
	table, err := Parse([]byte(`
payouts:
  - {max_seconds: 300, percent: 50}
  - {max_seconds: 30, percent: 10}
default_percent: 90
`))
	require.NoError(t, err)
	assert.Equal(t, 10, table.PayoutFor(30))
	assert.Equal(t, 50, table.PayoutFor(31))
	assert.Equal(t, 90, table.PayoutFor(301))

	_, err = Parse([]byte("payouts: []\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("default_percent: 80\npayouts:\n  - {max_seconds: 0, percent: 5}\n"))
	assert.Error(t, err)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load("/nonexistent/trading.yaml")
	assert.Error(t, err)

	table, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 80, table.DefaultPercent)
}
