package dashboard

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eddiefleurent/schrute_wheel/internal/marketdata"
	"github.com/eddiefleurent/schrute_wheel/internal/models"
	"github.com/eddiefleurent/schrute_wheel/internal/ratelimit"
	"github.com/eddiefleurent/schrute_wheel/internal/screener"
	"github.com/eddiefleurent/schrute_wheel/internal/universe"
)

// staticProvider serves one fixed chain for every symbol
type staticProvider struct {
	chain []models.OptionContract
}

var _ marketdata.Provider = (*staticProvider)(nil)

func (s *staticProvider) FetchChain(context.Context, string, models.OptionType, int) ([]models.OptionContract, error) {
	return s.chain, nil
}

func newTestServer(t *testing.T, authToken string) *Server {
	t.Helper()

	asOf := time.Now().UTC()
	provider := &staticProvider{chain: []models.OptionContract{{
		Symbol:     "AAPL",
		ContractID: "AAPL-PUT-50",
		Expiration: asOf.AddDate(0, 0, 30),
		Strike:     50,
		Bid:        1.9,
		Ask:        2.1,
		Delta:      -0.25,
		Type:       models.OptionTypePut,
	}}}
	u := universe.New([]string{"AAPL"})
	runner := screener.NewRunner(provider, u, ratelimit.NewNopLimiter(), log.New(io.Discard, "", 0))

	defaults := screener.Params{
		MaxTickers: 1,
		Type:       models.OptionTypePut,
		Filters: models.FilterSettings{
			MinBid: 0.30, MinDTE: 10, MaxDTE: 60,
			MinDelta: 0.15, MaxDelta: 0.40, MaxCapital: 10000,
		},
		SortKey: screener.SortAnnualizedYield,
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewServer(Config{Port: 0, AuthToken: authToken}, runner, defaults, logger)
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(t, "")

	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestHandleScreen(t *testing.T) {
	srv := newTestServer(t, "")

	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/screen", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var result screener.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, screener.OutcomeOK, result.Outcome)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, "AAPL-PUT-50", result.Rows[0].ContractID)
	assert.InDelta(t, 48.0, result.Rows[0].Breakeven, 1e-9)
}

func TestHandleScreenFilterOverrides(t *testing.T) {
	srv := newTestServer(t, "")

	// min_bid above the fixture's bid filters the only row out
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/screen?ticker=AAPL&min_bid=99", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var result screener.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, screener.OutcomeAllFiltered, result.Outcome)
	assert.Empty(t, result.Rows)

	// a loosened max_capital keeps the row that the default would drop
	tight := srv.defaults
	tight.Filters.MaxCapital = 1000
	srv.defaults = tight

	rec = httptest.NewRecorder()
	srv.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/screen?max_capital=10000", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	result = screener.Result{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Len(t, result.Rows, 1)
	assert.Equal(t, "AAPL-PUT-50", result.Rows[0].ContractID)
}

func TestHandleScreenBadParams(t *testing.T) {
	srv := newTestServer(t, "")

	tests := []struct {
		name string
		url  string
	}{
		{name: "bad type", url: "/api/screen?type=straddle"},
		{name: "bad sort", url: "/api/screen?sort=sharpe"},
		{name: "bad max_tickers", url: "/api/screen?max_tickers=-1"},
		{name: "unknown ticker", url: "/api/screen?ticker=TSLA"},
		{name: "non-numeric min_bid", url: "/api/screen?min_bid=lots"},
		{name: "inverted dte range", url: "/api/screen?min_dte=90"},
		{name: "delta above one", url: "/api/screen?max_delta=1.5"},
		{name: "zero max_capital", url: "/api/screen?max_capital=0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			srv.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.url, nil))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestHandlePayoff(t *testing.T) {
	srv := newTestServer(t, "")

	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/payoff?strike=100&premium=3&type=put", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var curve []screener.PayoffPoint
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &curve))
	require.Len(t, curve, screener.DefaultPayoffSamples)
	assert.InDelta(t, 80.0, curve[0].Price, 1e-9)
	assert.InDelta(t, 120.0, curve[len(curve)-1].Price, 1e-9)
}

func TestHandlePayoffBadParams(t *testing.T) {
	srv := newTestServer(t, "")

	for _, url := range []string{
		"/api/payoff",
		"/api/payoff?strike=-5&premium=1",
		"/api/payoff?strike=100&premium=-1",
		"/api/payoff?strike=100&premium=1&type=straddle",
	} {
		rec := httptest.NewRecorder()
		srv.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, url)
	}
}

func TestAuthMiddleware(t *testing.T) {
	srv := newTestServer(t, "sekrit")

	// health stays open
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	// missing token is rejected
	rec = httptest.NewRecorder()
	srv.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/screen", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// header token is accepted
	req := httptest.NewRequest(http.MethodGet, "/api/screen", nil)
	req.Header.Set("X-Auth-Token", "sekrit")
	rec = httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// query token works too
	rec = httptest.NewRecorder()
	srv.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/screen?token=sekrit", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
