package models

import "fmt"

// FetchError reports a per-ticker upstream failure. The screening run
// recovers it locally: the ticker is skipped with a warning and the run
// continues with the remaining tickers.
type FetchError struct {
	Ticker string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching %s: %v", e.Ticker, e.Err)
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// ValidationError reports a contract row with out-of-domain data, such as a
// delta outside [-1,1] or a non-positive strike. Rows failing validation are
// excluded from results rather than silently coerced.
type ValidationError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
}
