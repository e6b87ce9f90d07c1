// Package util provides common utility functions for price calculations.
package util

import "math"

// RoundTo rounds x to the given number of decimal places.
// For example, RoundTo(0.84149, 4) is 0.8415.
func RoundTo(x float64, places int) float64 {
	if places < 0 {
		return x
	}
	pow := math.Pow(10, float64(places))
	return math.Round(x*pow) / pow
}
