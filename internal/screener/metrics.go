// Package screener implements the metrics, filtering, ranking, and run
// orchestration for the wheel-strategy screening pipeline.
package screener

import (
	"time"

	"github.com/eddiefleurent/schrute_wheel/internal/models"
)

// Screen derives the decision fields for each raw contract as of the given
// evaluation date. Rows with non-positive DTE are excluded (expired or stale
// data), as are rows that fail domain validation (delta outside [-1,1],
// non-positive strike). Missing bid or ask quotes degrade the mid price to a
// one-sided average rather than dropping the row.
func Screen(contracts []models.OptionContract, asOf time.Time) []models.ScreenedContract {
	out := make([]models.ScreenedContract, 0, len(contracts))
	for i := range contracts {
		sc, ok := screenOne(&contracts[i], asOf)
		if !ok {
			continue
		}
		out = append(out, sc)
	}
	return out
}

func screenOne(c *models.OptionContract, asOf time.Time) (models.ScreenedContract, bool) {
	// Expired or same-day rows would divide by zero in the annualized
	// yield; exclude them rather than propagate NaN.
	dte := c.DTEFrom(asOf)
	if dte <= 0 {
		return models.ScreenedContract{}, false
	}

	// A non-positive strike means zero secured capital; the row is
	// malformed upstream data, not a screening candidate.
	capital := models.CapitalFor(c.Strike)
	if capital <= 0 {
		return models.ScreenedContract{}, false
	}

	pop, err := PoP(c.Delta)
	if err != nil {
		return models.ScreenedContract{}, false
	}

	mid := (c.Bid + c.Ask) / 2
	ev, err := EV(mid, capital, pop)
	if err != nil {
		return models.ScreenedContract{}, false
	}

	return models.ScreenedContract{
		OptionContract:  *c,
		DTE:             dte,
		Mid:             mid,
		CapitalRequired: capital,
		Breakeven:       breakeven(c.Type, c.Strike, mid),
		AnnualizedYield: (mid / capital) * (365.0 / float64(dte)) * 100,
		YieldPerDollar:  mid / capital,
		PoP:             pop,
		EV:              ev,
	}, true
}

// breakeven is the one type-dependent branch in the pipeline: puts break
// even below the strike by the premium collected, calls above it.
func breakeven(t models.OptionType, strike, mid float64) float64 {
	if t == models.OptionTypeCall {
		return strike + mid
	}
	return strike - mid
}
