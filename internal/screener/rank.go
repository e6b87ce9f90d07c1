package screener

import (
	"fmt"
	"sort"

	"github.com/eddiefleurent/schrute_wheel/internal/models"
)

// SortKey selects the metric a screening run is ranked by.
type SortKey string

// Supported sort keys.
const (
	SortAnnualizedYield SortKey = "annualized_yield"
	SortYieldPerDollar  SortKey = "yield_per_dollar"
	SortBreakeven       SortKey = "breakeven"
	SortDTE             SortKey = "dte"
	SortCapital         SortKey = "capital_required"
	SortOpenInterest    SortKey = "open_interest"
	SortVolume          SortKey = "volume"
	SortDelta           SortKey = "delta"
	SortEV              SortKey = "ev"
	SortPoP             SortKey = "pop"
)

// sortSpec fixes, per key, the value extracted and whether smaller is
// better. Yield, liquidity, EV, and PoP rank descending; breakeven, DTE,
// and capital rank ascending.
type sortSpec struct {
	value     func(*models.ScreenedContract) float64
	ascending bool
}

var sortSpecs = map[SortKey]sortSpec{
	SortAnnualizedYield: {value: func(c *models.ScreenedContract) float64 { return c.AnnualizedYield }},
	SortYieldPerDollar:  {value: func(c *models.ScreenedContract) float64 { return c.YieldPerDollar }},
	SortOpenInterest:    {value: func(c *models.ScreenedContract) float64 { return float64(c.OpenInterest) }},
	SortVolume:          {value: func(c *models.ScreenedContract) float64 { return float64(c.Volume) }},
	SortDelta:           {value: func(c *models.ScreenedContract) float64 { return c.AbsDelta() }},
	SortEV:              {value: func(c *models.ScreenedContract) float64 { return c.EV }},
	SortPoP:             {value: func(c *models.ScreenedContract) float64 { return c.PoP }},
	SortBreakeven:       {value: func(c *models.ScreenedContract) float64 { return c.Breakeven }, ascending: true},
	SortDTE:             {value: func(c *models.ScreenedContract) float64 { return float64(c.DTE) }, ascending: true},
	SortCapital:         {value: func(c *models.ScreenedContract) float64 { return c.CapitalRequired }, ascending: true},
}

// Valid returns true if the key is a supported sort key.
func (k SortKey) Valid() bool {
	_, ok := sortSpecs[k]
	return ok
}

// SortBy sorts rows in place by the given key with its direction policy.
// The sort is stable: ties preserve input order. An unknown key is an error.
func SortBy(rows []models.ScreenedContract, key SortKey) error {
	spec, ok := sortSpecs[key]
	if !ok {
		return fmt.Errorf("unknown sort key %q", key)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := spec.value(&rows[i]), spec.value(&rows[j])
		if spec.ascending {
			return a < b
		}
		return a > b
	})
	return nil
}
