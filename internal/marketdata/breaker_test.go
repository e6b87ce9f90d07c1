package marketdata

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/eddiefleurent/schrute_wheel/internal/models"
)

// flakyProvider fails a fixed number of calls before succeeding
type flakyProvider struct {
	failures int
	calls    int
	chain    []models.OptionContract
}

var _ Provider = (*flakyProvider)(nil)

func (f *flakyProvider) FetchChain(context.Context, string, models.OptionType, int) ([]models.OptionContract, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("upstream down")
	}
	return f.chain, nil
}

func TestCircuitBreakerPassesThroughSuccess(t *testing.T) {
	inner := &flakyProvider{chain: []models.OptionContract{{Symbol: "AAPL"}}}
	cb := NewCircuitBreakerProvider(inner)

	contracts, err := cb.FetchChain(context.Background(), "AAPL", models.OptionTypePut, 20)
	if err != nil {
		t.Fatalf("FetchChain returned error: %v", err)
	}
	if len(contracts) != 1 || contracts[0].Symbol != "AAPL" {
		t.Errorf("unexpected contracts: %+v", contracts)
	}
}

func TestCircuitBreakerOpensAfterFailures(t *testing.T) {
	inner := &flakyProvider{failures: 100}
	cb := NewCircuitBreakerProviderWithSettings(inner, CircuitBreakerSettings{
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      time.Minute,
		MinRequests:  3,
		FailureRatio: 0.6,
	})

	for i := 0; i < 5; i++ {
		_, _ = cb.FetchChain(context.Background(), "AAPL", models.OptionTypePut, 20)
	}

	callsBefore := inner.calls
	if _, err := cb.FetchChain(context.Background(), "AAPL", models.OptionTypePut, 20); err == nil {
		t.Fatal("expected error from open circuit")
	}
	if inner.calls != callsBefore {
		t.Errorf("open circuit still reached the provider (%d calls)", inner.calls-callsBefore)
	}
}
