// Package models defines the contract types flowing through the screening pipeline.
package models

import (
	"time"
)

const sharesPerContract = 100.0

// OptionType represents the type of option contract
type OptionType string

const (
	// OptionTypePut represents a put option contract
	OptionTypePut OptionType = "put"
	// OptionTypeCall represents a call option contract
	OptionTypeCall OptionType = "call"
)

// Valid returns true if the OptionType is one of the defined constants
func (t OptionType) Valid() bool {
	switch t {
	case OptionTypePut, OptionTypeCall:
		return true
	default:
		return false
	}
}

// OptionContract is a raw option-chain row as returned by the market data
// provider. It is immutable once fetched.
type OptionContract struct {
	Symbol       string     `json:"symbol"`
	ContractID   string     `json:"contract"`
	Expiration   time.Time  `json:"expiration"`
	Strike       float64    `json:"strike"`
	Bid          float64    `json:"bid"`
	Ask          float64    `json:"ask"`
	Last         float64    `json:"last"`
	Delta        float64    `json:"delta"`
	IV           float64    `json:"iv"`
	OpenInterest int64      `json:"open_interest"`
	Volume       int64      `json:"volume"`
	Type         OptionType `json:"type"`
}

// ScreenedContract is an OptionContract plus the derived decision fields.
// It is a pure function of the raw contract and the evaluation date; it has
// no identity of its own and is discarded after display.
type ScreenedContract struct {
	OptionContract

	// DTE is the number of UTC calendar days until expiration.
	DTE int `json:"dte"`
	// Mid is the bid/ask midpoint, the assumed fill price. Missing bid or
	// ask quotes are treated as 0 before averaging.
	Mid float64 `json:"mid"`
	// CapitalRequired is the cash needed to secure one contract (strike x 100).
	CapitalRequired float64 `json:"capital_required"`
	// Breakeven is the underlying price at which the position breaks even
	// at expiration: strike - mid for puts, strike + mid for calls.
	Breakeven float64 `json:"breakeven"`
	// AnnualizedYield is (mid / capital) * (365 / DTE) * 100, a percentage.
	// Rows where the yield would be undefined (DTE <= 0 or strike <= 0)
	// never become ScreenedContracts; they are excluded during screening.
	AnnualizedYield float64 `json:"annualized_yield"`
	// YieldPerDollar is mid / capital, an unscaled fraction.
	YieldPerDollar float64 `json:"yield_per_dollar"`
	// PoP is the delta-heuristic probability of profit, in [0,1].
	PoP float64 `json:"pop"`
	// EV is the expected value in dollars given PoP and max gain/loss.
	EV float64 `json:"ev"`
}

// CapitalFor returns the cash-secured capital for a strike under the
// standard 100-share contract multiplier.
func CapitalFor(strike float64) float64 {
	return strike * sharesPerContract
}

// AbsDelta returns the magnitude of the contract's delta.
func (c *OptionContract) AbsDelta() float64 {
	if c.Delta < 0 {
		return -c.Delta
	}
	return c.Delta
}

// DTEFrom calculates the number of calendar days between asOf and the
// contract's expiration, both truncated to UTC midnight. The result is
// negative for expired contracts.
func (c *OptionContract) DTEFrom(asOf time.Time) int {
	now := asOf.UTC().Truncate(24 * time.Hour)
	exp := c.Expiration.UTC().Truncate(24 * time.Hour)
	return int(exp.Sub(now).Hours() / 24)
}

// FilterSettings holds the caller-supplied screening thresholds.
// Immutable per run.
type FilterSettings struct {
	MinBid     float64 `json:"min_bid" yaml:"min_bid"`
	MinDTE     int     `json:"min_dte" yaml:"min_dte"`
	MaxDTE     int     `json:"max_dte" yaml:"max_dte"`
	MinDelta   float64 `json:"min_delta" yaml:"min_delta"`
	MaxDelta   float64 `json:"max_delta" yaml:"max_delta"`
	MaxCapital float64 `json:"max_capital" yaml:"max_capital"`
}
