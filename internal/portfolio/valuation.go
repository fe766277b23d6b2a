// Package portfolio values aggregated balances and tracks connected
// wallet sessions.
package portfolio

import (
	"github.com/shopspring/decimal"

	"wallet_portfolio/internal/balance"
	"wallet_portfolio/internal/pricing"
)

// AssetValue is one asset line of a Valuation
type AssetValue struct {
	Asset     string              `json:"asset"`
	Balance   string              `json:"balance,omitempty"`
	Available bool                `json:"available"`
	Priced    bool                `json:"priced"`
	UnitUSD   decimal.NullDecimal `json:"unit_usd"`
	ValueUSD  decimal.NullDecimal `json:"value_usd"`
}

// Valuation is the USD view of a portfolio. Computed is the sum over lines
// that are both available and priced. Total is what a client should show.
type Valuation struct {
	Assets          []AssetValue    `json:"assets"`
	Computed        decimal.Decimal `json:"computed"`
	Total           decimal.Decimal `json:"total"`
	OverrideApplied bool            `json:"override_applied"`
}

// Valuate multiplies each balance by its unit price. Lines without a price
// or without a balance are flagged and left out of the sum rather than
// counted as zero. A valid override replaces the total.
func Valuate(balances []balance.Balance, prices pricing.Snapshot, override decimal.NullDecimal) Valuation {
	v := Valuation{Assets: make([]AssetValue, 0, len(balances))}

	for _, b := range balances {
		line := AssetValue{Asset: b.Asset, Balance: b.Value, Available: b.Available}

		unit, priced := prices.Unit(b.Asset)
		line.Priced = priced
		if priced {
			line.UnitUSD = decimal.NewNullDecimal(unit)
		}

		if b.Available && priced {
			amount, err := decimal.NewFromString(b.Value)
			if err != nil {
				line.Available = false
			} else {
				value := amount.Mul(unit)
				line.ValueUSD = decimal.NewNullDecimal(value)
				v.Computed = v.Computed.Add(value)
			}
		}
		v.Assets = append(v.Assets, line)
	}

	v.Total = v.Computed
	if override.Valid {
		v.Total = override.Decimal
		v.OverrideApplied = true
	}
	return v
}
