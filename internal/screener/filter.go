package screener

import (
	"github.com/eddiefleurent/schrute_wheel/internal/models"
)

// Predicate is a single screening criterion over a derived contract row.
type Predicate func(*models.ScreenedContract) bool

// Predicates builds the standard criterion list for the given settings.
// Each threshold is an independent predicate so criteria can be added or
// removed without touching the others.
func Predicates(s models.FilterSettings) []Predicate {
	return []Predicate{
		func(c *models.ScreenedContract) bool { return c.Mid >= s.MinBid },
		func(c *models.ScreenedContract) bool { return c.DTE >= s.MinDTE && c.DTE <= s.MaxDTE },
		func(c *models.ScreenedContract) bool {
			d := c.AbsDelta()
			return d >= s.MinDelta && d <= s.MaxDelta
		},
		func(c *models.ScreenedContract) bool { return c.CapitalRequired <= s.MaxCapital },
	}
}

// Apply returns the subset of rows satisfying every predicate. Empty input
// or an empty result is not an error.
func Apply(rows []models.ScreenedContract, preds []Predicate) []models.ScreenedContract {
	out := make([]models.ScreenedContract, 0, len(rows))
	for i := range rows {
		if passesAll(&rows[i], preds) {
			out = append(out, rows[i])
		}
	}
	return out
}

// Filter applies the standard criterion list for the given settings.
func Filter(rows []models.ScreenedContract, s models.FilterSettings) []models.ScreenedContract {
	return Apply(rows, Predicates(s))
}

func passesAll(c *models.ScreenedContract, preds []Predicate) bool {
	for _, p := range preds {
		if !p(c) {
			return false
		}
	}
	return true
}
