package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/eddiefleurent/schrute_wheel/internal/models"
)

func validConfig() *Config {
	return &Config{
		Environment: EnvironmentConfig{LogLevel: "info"},
		MarketData: MarketDataConfig{
			Provider:     "eodhd",
			APIToken:     "test-token",
			ChainLimit:   20,
			RateInterval: "1200ms",
		},
		Universe: UniverseConfig{Path: "universe.csv"},
		Screener: ScreenerConfig{
			OptionType:  "put",
			MaxTickers:  10,
			Parallelism: 1,
			SortBy:      "annualized_yield",
			TopN:        5,
			Filters: models.FilterSettings{
				MinBid:     0.30,
				MinDTE:     10,
				MaxDTE:     60,
				MinDelta:   0.15,
				MaxDelta:   0.40,
				MaxCapital: 1000,
			},
		},
	}
}

func TestLoadExample(t *testing.T) {
	t.Setenv("EODHD_API_TOKEN", "test-token")

	configPath := filepath.Join("..", "..", "config.yaml.example")
	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Expected example config to load, got error: %v", err)
	}
	if cfg.MarketData.APIToken != "test-token" {
		t.Errorf("APIToken = %q, expected env expansion", cfg.MarketData.APIToken)
	}
	if cfg.GetRateInterval() != 1200*time.Millisecond {
		t.Errorf("GetRateInterval = %v, expected 1.2s", cfg.GetRateInterval())
	}
}

func TestLoadInvalidPath(t *testing.T) {
	if _, err := Load("nonexistent.yaml"); err == nil {
		t.Error("Expected error when loading nonexistent config file, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid config",
			mutate: func(*Config) {},
		},
		{
			name:    "missing api token",
			mutate:  func(c *Config) { c.MarketData.APIToken = "" },
			wantErr: "api_token",
		},
		{
			name:    "bad rate interval",
			mutate:  func(c *Config) { c.MarketData.RateInterval = "fast" },
			wantErr: "rate_interval",
		},
		{
			name:    "missing universe path",
			mutate:  func(c *Config) { c.Universe.Path = "" },
			wantErr: "universe.path",
		},
		{
			name:    "bad option type",
			mutate:  func(c *Config) { c.Screener.OptionType = "straddle" },
			wantErr: "option_type",
		},
		{
			name:    "bad sort key",
			mutate:  func(c *Config) { c.Screener.SortBy = "sharpe" },
			wantErr: "sort_by",
		},
		{
			name: "inverted dte range",
			mutate: func(c *Config) {
				c.Screener.Filters.MinDTE = 60
				c.Screener.Filters.MaxDTE = 10
			},
			wantErr: "dte range",
		},
		{
			name:    "delta above one",
			mutate:  func(c *Config) { c.Screener.Filters.MaxDelta = 1.5 },
			wantErr: "delta range",
		},
		{
			name:    "non-positive max capital",
			mutate:  func(c *Config) { c.Screener.Filters.MaxCapital = 0 },
			wantErr: "max_capital",
		},
		{
			name: "bad dashboard port",
			mutate: func(c *Config) {
				c.Dashboard.Enabled = true
				c.Dashboard.Port = 0
			},
			wantErr: "dashboard.port",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate returned error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateAppliesDefaults(t *testing.T) {
	cfg := &Config{
		MarketData: MarketDataConfig{APIToken: "test-token"},
		Universe:   UniverseConfig{Path: "universe.csv"},
	}
	cfg.Screener.Filters = validConfig().Screener.Filters

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if cfg.MarketData.ChainLimit != 20 {
		t.Errorf("ChainLimit default = %d, expected 20", cfg.MarketData.ChainLimit)
	}
	if cfg.MarketData.RateInterval != "1200ms" {
		t.Errorf("RateInterval default = %q, expected 1200ms", cfg.MarketData.RateInterval)
	}
	if cfg.Screener.OptionType != "put" {
		t.Errorf("OptionType default = %q, expected put", cfg.Screener.OptionType)
	}
	if cfg.Screener.SortBy != "annualized_yield" {
		t.Errorf("SortBy default = %q, expected annualized_yield", cfg.Screener.SortBy)
	}
	if cfg.Screener.Parallelism != 1 || cfg.Screener.TopN != 5 || cfg.Screener.MaxTickers != 10 {
		t.Errorf("screener defaults not applied: %+v", cfg.Screener)
	}
}
