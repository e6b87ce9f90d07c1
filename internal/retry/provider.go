// Package retry wraps a market data provider with transient-error retries.
package retry

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"strings"
	"time"

	"github.com/eddiefleurent/schrute_wheel/internal/marketdata"
	"github.com/eddiefleurent/schrute_wheel/internal/models"
)

// Config controls retry behavior for chain fetches.
type Config struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultConfig is tuned for a rate-limited market data API: few attempts,
// quick initial backoff.
var DefaultConfig = Config{
	MaxRetries:     2,
	InitialBackoff: 500 * time.Millisecond,
	MaxBackoff:     10 * time.Second,
}

// Provider retries transient failures of an underlying provider.
type Provider struct {
	provider marketdata.Provider
	logger   *log.Logger
	config   Config
}

// NewProvider wraps the given provider. Pass an optional Config to override
// DefaultConfig.
func NewProvider(provider marketdata.Provider, logger *log.Logger, config ...Config) *Provider {
	cfg := DefaultConfig
	if len(config) > 0 {
		cfg = config[0]
	}
	return &Provider{
		provider: provider,
		logger:   logger,
		config:   cfg,
	}
}

// Ensure Provider implements marketdata.Provider at compile time.
var _ marketdata.Provider = (*Provider)(nil)

// FetchChain fetches the chain, retrying transient failures with backoff
// and jitter. Permanent failures (4xx other than 429) return immediately.
func (p *Provider) FetchChain(ctx context.Context, symbol string, optType models.OptionType, limit int) ([]models.OptionContract, error) {
	var lastErr error
	backoff := p.config.InitialBackoff

	for attempt := 0; attempt <= p.config.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("fetch canceled: %w", err)
		}

		contracts, err := p.provider.FetchChain(ctx, symbol, optType, limit)
		if err == nil {
			return contracts, nil
		}

		lastErr = err
		if !isTransientError(err) || attempt == p.config.MaxRetries {
			break
		}

		p.logger.Printf("Fetch attempt %d for %s failed (%v), retrying in %v",
			attempt+1, symbol, err, backoff)
		select {
		case <-time.After(backoff):
			backoff = p.nextBackoff(backoff)
		case <-ctx.Done():
			return nil, fmt.Errorf("fetch canceled during backoff: %w", ctx.Err())
		}
	}

	return nil, lastErr
}

func (p *Provider) nextBackoff(current time.Duration) time.Duration {
	backoff := time.Duration(float64(current) * 1.5)
	if backoff > p.config.MaxBackoff {
		backoff = p.config.MaxBackoff
	}

	maxJitter := int64(backoff / 4)
	if maxJitter > 0 {
		jitterVal, err := rand.Int(rand.Reader, big.NewInt(maxJitter))
		if err != nil {
			p.logger.Printf("Failed to generate jitter: %v", err)
		} else {
			backoff += time.Duration(jitterVal.Int64())
		}
	}

	return backoff
}

// isTransientError reports whether a fetch failure is worth retrying.
// Client errors other than 429 are permanent.
func isTransientError(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *marketdata.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Status == 429 {
			return true
		}
		return apiErr.Status >= 500
	}

	errStr := strings.ToLower(err.Error())
	transientPatterns := []string{
		"timeout",
		"connection refused",
		"connection reset",
		"temporary failure",
		"network",
		"dns",
		"tcp",
	}
	for _, pattern := range transientPatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}
