package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/sirupsen/logrus"

	"github.com/eddiefleurent/schrute_wheel/internal/config"
	"github.com/eddiefleurent/schrute_wheel/internal/dashboard"
	"github.com/eddiefleurent/schrute_wheel/internal/marketdata"
	"github.com/eddiefleurent/schrute_wheel/internal/models"
	"github.com/eddiefleurent/schrute_wheel/internal/ratelimit"
	"github.com/eddiefleurent/schrute_wheel/internal/retry"
	"github.com/eddiefleurent/schrute_wheel/internal/screener"
	"github.com/eddiefleurent/schrute_wheel/internal/universe"
)

func main() {
	var (
		configPath string
		ticker     string
		optType    string
		sortBy     string
		maxTickers int
		listen     bool
	)
	flag.StringVar(&configPath, "config", "config.yaml", "Path to configuration file")
	flag.StringVar(&ticker, "ticker", "", "Screen a single ticker instead of the universe prefix")
	flag.StringVar(&optType, "type", "", "Option type: put or call (default from config)")
	flag.StringVar(&sortBy, "sort", "", "Sort key (default from config)")
	flag.IntVar(&maxTickers, "max-tickers", 0, "Number of universe tickers to scan (default from config)")
	flag.BoolVar(&listen, "listen", false, "Serve the JSON API instead of a one-shot run")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Create logger
	logger := log.New(os.Stdout, "[SCREENER] ", log.LstdFlags)

	// Initialize universe
	u, err := universe.Load(cfg.Universe.Path)
	if err != nil {
		logger.Fatalf("Failed to load ticker universe: %v", err)
	}
	logger.Printf("Loaded %d eligible tickers from %s", u.Len(), cfg.Universe.Path)

	// Initialize market data provider: EODHD client wrapped with a circuit
	// breaker and transient-error retries.
	client := marketdata.NewEODHDClientWithBaseURL(cfg.MarketData.APIToken, cfg.MarketData.APIEndpoint)
	var provider marketdata.Provider = marketdata.NewCircuitBreakerProvider(client)
	provider = retry.NewProvider(provider, logger)

	// A single rate gate is shared by all fetches of a run.
	limiter := ratelimit.NewIntervalGate(cfg.GetRateInterval())

	runner := screener.NewRunner(provider, u, limiter, logger)

	params := screener.Params{
		Ticker:      ticker,
		MaxTickers:  cfg.Screener.MaxTickers,
		Type:        cfg.OptionType(),
		Filters:     cfg.Screener.Filters,
		SortKey:     cfg.SortKey(),
		ChainLimit:  cfg.MarketData.ChainLimit,
		Parallelism: cfg.Screener.Parallelism,
	}
	if optType != "" {
		params.Type = models.OptionType(optType)
	}
	if sortBy != "" {
		params.SortKey = screener.SortKey(sortBy)
	}
	if maxTickers > 0 {
		params.MaxTickers = maxTickers
	}

	// Set up signal handling for graceful abort
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Println("Shutdown signal received, stopping run...")
		cancel()
	}()

	if listen {
		serve(ctx, cfg, runner, params)
		return
	}

	result, err := runner.Run(ctx, params)
	if err != nil {
		logger.Fatalf("Screening run failed: %v", err)
	}

	printResult(result, params.Type, cfg.Screener.TopN)
}

func serve(ctx context.Context, cfg *config.Config, runner *screener.Runner, defaults screener.Params) {
	srvLogger := logrus.New()
	if cfg.Environment.LogLevel != "" {
		if level, err := logrus.ParseLevel(cfg.Environment.LogLevel); err == nil {
			srvLogger.SetLevel(level)
		}
	}

	srv := dashboard.NewServer(dashboard.Config{
		Port:      cfg.Dashboard.Port,
		AuthToken: cfg.Dashboard.AuthToken,
	}, runner, defaults, srvLogger)

	go func() {
		<-ctx.Done()
		if err := srv.Shutdown(context.Background()); err != nil {
			srvLogger.WithError(err).Error("Server shutdown failed")
		}
	}()

	if err := srv.Start(); err != nil && ctx.Err() == nil {
		srvLogger.WithError(err).Fatal("Server error")
	}
}

func printResult(result *screener.Result, optType models.OptionType, topN int) {
	for _, warning := range result.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s: %s\n", warning.Ticker, warning.Err)
	}

	switch result.Outcome {
	case screener.OutcomeNoFetches:
		fmt.Println("No candidates: no tickers fetched successfully.")
		return
	case screener.OutcomeAllFiltered:
		fmt.Println("No candidates met the filter criteria.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SYMBOL\tCONTRACT\tSTRIKE\tMID\tBREAKEVEN\tDTE\tDELTA\tIV\tOI\tVOL\tCAPITAL\tANN.YIELD%\tYIELD/$")
	for i := range result.Rows {
		row := &result.Rows[i]
		fmt.Fprintf(w, "%s\t%s\t%.2f\t%.2f\t%.2f\t%d\t%.3f\t%.3f\t%d\t%d\t%.0f\t%.2f\t%.5f\n",
			row.Symbol, row.ContractID, row.Strike, row.Mid, row.Breakeven, row.DTE,
			row.Delta, row.IV, row.OpenInterest, row.Volume, row.CapitalRequired,
			row.AnnualizedYield, row.YieldPerDollar)
	}
	_ = w.Flush()

	if topN > len(result.Rows) {
		topN = len(result.Rows)
	}
	if topN == 0 {
		return
	}

	fmt.Printf("\nTrade analysis (top %d):\n", topN)
	for i := 0; i < topN; i++ {
		row := &result.Rows[i]
		fmt.Printf("  %s %.2f @ $%.2f: PoP %.1f%%, EV $%.2f\n",
			row.Symbol, row.Strike, row.Mid, row.PoP*100, row.EV)
		printPayoffSummary(row, optType)
	}
}

// printPayoffSummary prints the expiration P/L at the curve endpoints and
// the strike, a coarse text stand-in for the payoff diagram.
func printPayoffSummary(row *models.ScreenedContract, optType models.OptionType) {
	curve := screener.PayoffCurve(row.Strike, row.Mid, optType, screener.DefaultPayoffSamples)
	if len(curve) == 0 {
		return
	}
	lo, hi := curve[0], curve[len(curve)-1]
	fmt.Printf("    P/L: $%.0f at %.2f, $%.0f at strike, $%.0f at %.2f\n",
		lo.PnL, lo.Price, row.Mid*100, hi.PnL, hi.Price)
}
