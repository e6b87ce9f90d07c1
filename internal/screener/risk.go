package screener

import (
	"math"

	"github.com/eddiefleurent/schrute_wheel/internal/models"
	"github.com/eddiefleurent/schrute_wheel/internal/util"
)

const sharesPerContract = 100.0

// PoP estimates the probability of profit for a short option from its delta.
// The estimate is the delta heuristic 1 - |delta|, rounded to 4 decimals.
// A delta outside [-1,1] indicates malformed upstream data and is rejected
// with a ValidationError rather than clamped.
func PoP(delta float64) (float64, error) {
	if math.IsNaN(delta) || math.Abs(delta) > 1 {
		return 0, &models.ValidationError{
			Field:  "delta",
			Value:  delta,
			Reason: "must be in [-1, 1]",
		}
	}
	return util.RoundTo(1-math.Abs(delta), 4), nil
}

// EV computes the expected value in dollars of a short position given the
// per-share premium, the capital securing the contract, and the probability
// of profit. Max gain is the premium collected; max loss is the secured
// capital less that premium. The result is rounded to cents.
func EV(premium, capital, pop float64) (float64, error) {
	if premium < 0 {
		return 0, &models.ValidationError{
			Field:  "premium",
			Value:  premium,
			Reason: "must be >= 0",
		}
	}
	if capital <= 0 {
		return 0, &models.ValidationError{
			Field:  "capital",
			Value:  capital,
			Reason: "must be > 0",
		}
	}
	maxGain := premium * sharesPerContract
	maxLoss := capital - maxGain
	return util.RoundTo(pop*maxGain-(1-pop)*maxLoss, 2), nil
}
