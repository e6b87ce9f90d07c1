package screener

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/eddiefleurent/schrute_wheel/internal/marketdata"
	"github.com/eddiefleurent/schrute_wheel/internal/models"
	"github.com/eddiefleurent/schrute_wheel/internal/ratelimit"
	"github.com/eddiefleurent/schrute_wheel/internal/universe"
)

// Outcome distinguishes the ways a run can come back empty.
type Outcome string

const (
	// OutcomeOK means at least one contract passed the filters.
	OutcomeOK Outcome = "ok"
	// OutcomeNoFetches means zero tickers fetched successfully.
	OutcomeNoFetches Outcome = "no_fetches_succeeded"
	// OutcomeAllFiltered means fetches succeeded but every row was
	// filtered out.
	OutcomeAllFiltered Outcome = "all_filtered_out"
)

// Warning records a recovered per-ticker failure. The run continues past it.
type Warning struct {
	Ticker string `json:"ticker"`
	Err    string `json:"error"`
}

// Params configures a single screening run.
type Params struct {
	// Ticker, when set, screens exactly this symbol. It must be a member
	// of the universe.
	Ticker string
	// MaxTickers bounds the universe prefix scanned when Ticker is empty.
	MaxTickers int
	// Type selects puts (cash-secured) or calls (covered).
	Type models.OptionType
	// Filters are the per-run thresholds.
	Filters models.FilterSettings
	// SortKey ranks the aggregated rows. Defaults to annualized yield.
	SortKey SortKey
	// ChainLimit bounds the rows fetched per ticker.
	ChainLimit int
	// Parallelism bounds concurrent fetches. Values below 2 run
	// sequentially, matching the upstream-friendly default.
	Parallelism int
	// AsOf is the evaluation date for DTE. Zero means now.
	AsOf time.Time
}

// Result is the aggregate outcome of one screening run. The run boundary
// never raises per-ticker failures; they are folded into Warnings.
type Result struct {
	RunID    string                    `json:"run_id"`
	Rows     []models.ScreenedContract `json:"rows"`
	Warnings []Warning                 `json:"warnings"`
	Fetched  int                       `json:"fetched"`
	Failed   int                       `json:"failed"`
	Outcome  Outcome                   `json:"outcome"`
}

// Runner orchestrates fetch, compute, filter, and sort for a set of tickers.
type Runner struct {
	provider marketdata.Provider
	universe *universe.Universe
	limiter  ratelimit.Limiter
	logger   *log.Logger
}

// NewRunner wires a runner from its collaborators. The limiter is shared
// across all fetches of a run, so parallel fetchers contend for one budget.
func NewRunner(provider marketdata.Provider, u *universe.Universe, limiter ratelimit.Limiter, logger *log.Logger) *Runner {
	return &Runner{
		provider: provider,
		universe: u,
		limiter:  limiter,
		logger:   logger,
	}
}

// Run executes one screening pass. Fetch failures skip the ticker with a
// warning; an aborted context stops scheduling further tickers but keeps
// the rows gathered so far.
func (r *Runner) Run(ctx context.Context, params Params) (*Result, error) {
	symbols, err := r.resolveSymbols(params)
	if err != nil {
		return nil, err
	}
	if !params.Type.Valid() {
		return nil, fmt.Errorf("invalid option type %q", params.Type)
	}

	sortKey := params.SortKey
	if sortKey == "" {
		sortKey = SortAnnualizedYield
	}
	if !sortKey.Valid() {
		return nil, fmt.Errorf("unknown sort key %q", sortKey)
	}

	asOf := params.AsOf
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}

	// Empty slices, not nil, so the JSON boundary serves [] rather than null.
	result := &Result{
		RunID:    uuid.New().String(),
		Rows:     []models.ScreenedContract{},
		Warnings: []Warning{},
	}
	r.logger.Printf("[run %s] screening %d ticker(s) for %ss", result.RunID, len(symbols), params.Type)

	perTicker := make([][]models.ScreenedContract, len(symbols))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	limit := params.Parallelism
	if limit < 1 {
		limit = 1
	}
	g.SetLimit(limit)

	for i, symbol := range symbols {
		if gctx.Err() != nil {
			break // user aborted; stop scheduling further fetches
		}
		i, symbol := i, symbol
		g.Go(func() error {
			rows, ferr := r.screenTicker(gctx, symbol, params, asOf)

			mu.Lock()
			defer mu.Unlock()
			if ferr != nil {
				// A sibling's failure must not cancel the rest of
				// the run, so fold it into the result instead of
				// returning it to the group.
				result.Failed++
				result.Warnings = append(result.Warnings, Warning{Ticker: symbol, Err: ferr.Error()})
				r.logger.Printf("[run %s] warning: %v", result.RunID, ferr)
				return nil
			}
			result.Fetched++
			perTicker[i] = rows
			return nil
		})
	}

	// Goroutines only observe ctx errors through their own fetches, so
	// Wait cannot fail; keep the check for future-proofing.
	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return nil, err
	}

	for _, rows := range perTicker {
		result.Rows = append(result.Rows, rows...)
	}
	if err := SortBy(result.Rows, sortKey); err != nil {
		return nil, err
	}

	switch {
	case result.Fetched == 0:
		result.Outcome = OutcomeNoFetches
	case len(result.Rows) == 0:
		result.Outcome = OutcomeAllFiltered
	default:
		result.Outcome = OutcomeOK
	}

	r.logger.Printf("[run %s] done: %d row(s), %d fetched, %d failed",
		result.RunID, len(result.Rows), result.Fetched, result.Failed)
	return result, nil
}

func (r *Runner) screenTicker(ctx context.Context, symbol string, params Params, asOf time.Time) ([]models.ScreenedContract, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, &models.FetchError{Ticker: symbol, Err: err}
	}

	contracts, err := r.provider.FetchChain(ctx, symbol, params.Type, params.ChainLimit)
	if err != nil {
		return nil, &models.FetchError{Ticker: symbol, Err: err}
	}

	// An empty chain is not a failure: the ticker simply contributes no
	// rows and no warning.
	screened := Screen(contracts, asOf)
	return Filter(screened, params.Filters), nil
}

func (r *Runner) resolveSymbols(params Params) ([]string, error) {
	if params.Ticker != "" {
		symbol := strings.ToUpper(strings.TrimSpace(params.Ticker))
		if !r.universe.Contains(symbol) {
			return nil, fmt.Errorf("%s is not in the screening universe", symbol)
		}
		return []string{symbol}, nil
	}
	symbols := r.universe.Prefix(params.MaxTickers)
	if len(symbols) == 0 {
		return nil, fmt.Errorf("no tickers to screen")
	}
	return symbols, nil
}
