// Package trading serves the static payout table and strategy catalog shown
// on the trading screen. Nothing here places or settles trades.
package trading

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed trading.yaml
var defaultTable []byte

// Tier pays Percent for timeframes up to MaxSeconds
type Tier struct {
	MaxSeconds int `yaml:"max_seconds" json:"max_seconds"`
	Percent    int `yaml:"percent" json:"percent"`
}

// Strategy is a catalog entry
type Strategy struct {
	ID             string          `yaml:"id" json:"id"`
	Name           string          `yaml:"name" json:"name"`
	Description    string          `yaml:"description" json:"description"`
	RiskLevel      string          `yaml:"risk_level" json:"risk_level"`
	ExpectedReturn string          `yaml:"expected_return" json:"expected_return"`
	MinInvestment  decimal.Decimal `yaml:"min_investment" json:"min_investment"`
	MaxInvestment  decimal.Decimal `yaml:"max_investment" json:"max_investment"`
	Active         bool            `yaml:"active" json:"active"`
}

// Table holds the payout tiers and strategies
type Table struct {
	Payouts        []Tier     `yaml:"payouts" json:"payouts"`
	DefaultPercent int        `yaml:"default_percent" json:"default_percent"`
	Strategies     []Strategy `yaml:"strategies" json:"strategies"`
}

// Default returns the embedded table
func Default() *Table {
	t, err := Parse(defaultTable)
	if err != nil {
		panic(fmt.Sprintf("embedded trading.yaml: %v", err))
	}
	return t
}

// Load reads a table from path, or the embedded one when path is empty
func Load(path string) (*Table, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read trading file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a table and sorts its tiers
func Parse(data []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decode trading table: %w", err)
	}
	if t.DefaultPercent <= 0 {
		return nil, fmt.Errorf("default_percent must be positive")
	}
	for _, tier := range t.Payouts {
		if tier.MaxSeconds <= 0 || tier.Percent <= 0 {
			return nil, fmt.Errorf("invalid payout tier %+v", tier)
		}
	}
	sort.Slice(t.Payouts, func(i, j int) bool { return t.Payouts[i].MaxSeconds < t.Payouts[j].MaxSeconds })
	return &t, nil
}

// PayoutFor returns the payout percent for a timeframe in seconds
func (t *Table) PayoutFor(seconds int) int {
	for _, tier := range t.Payouts {
		if seconds <= tier.MaxSeconds {
			return tier.Percent
		}
	}
	return t.DefaultPercent
}

// PotentialReturn is the amount paid on top of stake for a winning trade
func (t *Table) PotentialReturn(stake decimal.Decimal, seconds int) decimal.Decimal {
	pct := decimal.NewFromInt(int64(t.PayoutFor(seconds)))
	return stake.Mul(pct).Div(decimal.NewFromInt(100))
}

// Strategy looks a catalog entry up by id
func (t *Table) Strategy(id string) (Strategy, bool) {
	for _, s := range t.Strategies {
		if s.ID == id {
			return s, true
		}
	}
	return Strategy{}, false
}
