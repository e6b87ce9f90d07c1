// Package dashboard exposes screening runs over a small JSON HTTP API.
package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/eddiefleurent/schrute_wheel/internal/models"
	"github.com/eddiefleurent/schrute_wheel/internal/screener"
)

// Config holds the server settings.
type Config struct {
	Port      int
	AuthToken string
}

// Server serves screening results as JSON. Each request triggers a fresh
// run; there is no cached or persisted state.
type Server struct {
	router    *chi.Mux
	server    *http.Server
	runner    *screener.Runner
	defaults  screener.Params
	logger    *logrus.Logger
	port      int
	authToken string
}

// NewServer builds a server around a runner. The defaults supply the
// configured run parameters; query parameters override them per request.
func NewServer(cfg Config, runner *screener.Runner, defaults screener.Params, logger *logrus.Logger) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		runner:    runner,
		defaults:  defaults,
		logger:    logger,
		port:      cfg.Port,
		authToken: cfg.AuthToken,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(5 * time.Minute))

	if s.authToken != "" {
		s.router.Use(s.authMiddleware)
	}

	s.router.Get("/health", s.handleHealth)
	s.router.Get("/api/screen", s.handleScreen)
	s.router.Get("/api/payoff", s.handlePayoff)
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		token := r.Header.Get("X-Auth-Token")
		if token == "" {
			token = r.URL.Query().Get("token")
		}

		if token != s.authToken {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Start begins serving. It blocks until the server stops.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Infof("Starting screener API server on port %d", s.port)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	health := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(health); err != nil {
		s.logger.WithError(err).Error("Failed to encode health response")
	}
}

func (s *Server) handleScreen(w http.ResponseWriter, r *http.Request) {
	params, err := s.paramsFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := s.runner.Run(r.Context(), params)
	if err != nil {
		s.logger.WithError(err).Error("Screening run failed")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		s.logger.WithError(err).Error("Failed to encode screening result")
	}
}

func (s *Server) handlePayoff(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	strike, err := strconv.ParseFloat(q.Get("strike"), 64)
	if err != nil || strike <= 0 {
		http.Error(w, "strike must be a positive number", http.StatusBadRequest)
		return
	}
	premium, err := strconv.ParseFloat(q.Get("premium"), 64)
	if err != nil || premium < 0 {
		http.Error(w, "premium must be a non-negative number", http.StatusBadRequest)
		return
	}
	optType := models.OptionTypePut
	if t := q.Get("type"); t != "" {
		optType = models.OptionType(t)
		if !optType.Valid() {
			http.Error(w, "type must be 'put' or 'call'", http.StatusBadRequest)
			return
		}
	}

	curve := screener.PayoffCurve(strike, premium, optType, screener.DefaultPayoffSamples)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(curve); err != nil {
		s.logger.WithError(err).Error("Failed to encode payoff curve")
	}
}

// paramsFromQuery applies query-string overrides on top of the configured
// run defaults.
func (s *Server) paramsFromQuery(r *http.Request) (screener.Params, error) {
	params := s.defaults
	q := r.URL.Query()

	if ticker := q.Get("ticker"); ticker != "" {
		params.Ticker = ticker
	}
	if t := q.Get("type"); t != "" {
		optType := models.OptionType(t)
		if !optType.Valid() {
			return params, fmt.Errorf("type must be 'put' or 'call'")
		}
		params.Type = optType
	}
	if sortBy := q.Get("sort"); sortBy != "" {
		key := screener.SortKey(sortBy)
		if !key.Valid() {
			return params, fmt.Errorf("unknown sort key %q", sortBy)
		}
		params.SortKey = key
	}
	if raw := q.Get("max_tickers"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return params, fmt.Errorf("max_tickers must be a positive integer")
		}
		params.MaxTickers = n
	}
	if err := applyFilterOverrides(&params.Filters, q); err != nil {
		return params, err
	}

	return params, nil
}

// applyFilterOverrides layers per-request threshold overrides onto the
// configured filter defaults and re-checks range consistency, since an
// override of one bound can invalidate the pair.
func applyFilterOverrides(f *models.FilterSettings, q url.Values) error {
	if err := overrideFloat(q, "min_bid", &f.MinBid); err != nil {
		return err
	}
	if err := overrideInt(q, "min_dte", &f.MinDTE); err != nil {
		return err
	}
	if err := overrideInt(q, "max_dte", &f.MaxDTE); err != nil {
		return err
	}
	if err := overrideFloat(q, "min_delta", &f.MinDelta); err != nil {
		return err
	}
	if err := overrideFloat(q, "max_delta", &f.MaxDelta); err != nil {
		return err
	}
	if err := overrideFloat(q, "max_capital", &f.MaxCapital); err != nil {
		return err
	}

	if f.MinBid < 0 {
		return fmt.Errorf("min_bid must be >= 0")
	}
	if f.MinDTE <= 0 || f.MaxDTE <= 0 || f.MinDTE > f.MaxDTE {
		return fmt.Errorf("dte range must be positive with min_dte <= max_dte")
	}
	if f.MinDelta < 0 || f.MaxDelta > 1 || f.MinDelta > f.MaxDelta {
		return fmt.Errorf("delta range must satisfy 0 <= min_delta <= max_delta <= 1")
	}
	if f.MaxCapital <= 0 {
		return fmt.Errorf("max_capital must be > 0")
	}
	return nil
}

func overrideFloat(q url.Values, name string, dst *float64) error {
	raw := q.Get(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("%s must be a number", name)
	}
	*dst = v
	return nil
}

func overrideInt(q url.Values, name string, dst *int) error {
	raw := q.Get(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("%s must be an integer", name)
	}
	*dst = v
	return nil
}
