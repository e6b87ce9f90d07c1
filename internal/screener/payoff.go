package screener

import (
	"github.com/eddiefleurent/schrute_wheel/internal/models"
)

// DefaultPayoffSamples is the number of points on a payoff curve when the
// caller does not specify one.
const DefaultPayoffSamples = 100

// PayoffPoint is one sample of a profit/loss curve at expiration.
type PayoffPoint struct {
	Price float64 `json:"price"`
	PnL   float64 `json:"pnl"`
}

// PayoffCurve samples the expiration profit/loss of a short option over the
// price range [0.8*strike, 1.2*strike]. For a short put the loss grows as
// the underlying falls below the strike and is capped at the premium
// collected once the price is at or above it; a short call mirrors that
// around the strike. Premium is per share; P/L is per contract.
func PayoffCurve(strike, premium float64, optType models.OptionType, samples int) []PayoffPoint {
	if samples < 2 {
		samples = DefaultPayoffSamples
	}
	lo := strike * 0.8
	hi := strike * 1.2
	step := (hi - lo) / float64(samples-1)

	curve := make([]PayoffPoint, samples)
	credit := premium * sharesPerContract
	for i := range curve {
		price := lo + step*float64(i)
		pnl := credit
		switch optType {
		case models.OptionTypePut:
			if price < strike {
				pnl = (strike-price)*sharesPerContract + credit
			}
		case models.OptionTypeCall:
			if price > strike {
				pnl = (price-strike)*sharesPerContract + credit
			}
		}
		curve[i] = PayoffPoint{Price: price, PnL: pnl}
	}
	return curve
}
