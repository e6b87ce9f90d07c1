// Package marketdata provides option-chain data clients for the screener.
// It includes the EODHD options API client implementation.
package marketdata

import (
	"context"

	"github.com/eddiefleurent/schrute_wheel/internal/models"
)

// Provider defines the interface for fetching option-chain data.
//
// FetchChain returns the raw contract rows for one underlying symbol and
// option type, up to limit rows. Network, auth, and payload parsing are the
// provider's concern; the screening pipeline only sees a populated slice or
// an error.
type Provider interface {
	FetchChain(ctx context.Context, symbol string, optType models.OptionType, limit int) ([]models.OptionContract, error)
}
