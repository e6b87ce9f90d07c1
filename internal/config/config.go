// Package config provides configuration management for the screener.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/eddiefleurent/schrute_wheel/internal/models"
	"github.com/eddiefleurent/schrute_wheel/internal/screener"
)

const (
	// defaultChainLimit is used when marketdata.chain_limit is unset
	defaultChainLimit = 20
	// defaultRateInterval matches the upstream API's one-request-per-1.2s budget
	defaultRateInterval = "1200ms"
	// defaultTopN is the number of top results given a full risk breakdown
	defaultTopN = 5
	// defaultMaxTickers bounds the universe prefix when unset
	defaultMaxTickers = 10
)

// Config represents the complete application configuration.
type Config struct {
	Environment EnvironmentConfig `yaml:"environment"`
	MarketData  MarketDataConfig  `yaml:"marketdata"`
	Universe    UniverseConfig    `yaml:"universe"`
	Screener    ScreenerConfig    `yaml:"screener"`
	Dashboard   DashboardConfig   `yaml:"dashboard"`
}

// EnvironmentConfig defines the environment settings.
type EnvironmentConfig struct {
	LogLevel string `yaml:"log_level"` // debug | info | warn | error
}

// MarketDataConfig defines upstream API settings.
type MarketDataConfig struct {
	Provider    string `yaml:"provider"`
	APIToken    string `yaml:"api_token"`
	APIEndpoint string `yaml:"api_endpoint"`
	ChainLimit  int    `yaml:"chain_limit"`
	// RateInterval is the minimum spacing between chain requests,
	// e.g. "1200ms". The limiter is shared across parallel fetches.
	RateInterval string `yaml:"rate_interval"`
}

// UniverseConfig locates the eligible-ticker file.
type UniverseConfig struct {
	Path string `yaml:"path"`
}

// ScreenerConfig defines screening run defaults.
type ScreenerConfig struct {
	OptionType  string                `yaml:"option_type"` // put | call
	MaxTickers  int                   `yaml:"max_tickers"`
	Parallelism int                   `yaml:"parallelism"`
	SortBy      string                `yaml:"sort_by"`
	TopN        int                   `yaml:"top_n"`
	Filters     models.FilterSettings `yaml:"filters"`
}

// DashboardConfig defines the JSON API server settings.
type DashboardConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Port      int    `yaml:"port"`
	AuthToken string `yaml:"auth_token"`
}

// Load reads and parses the configuration file from the specified path.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- configPath is a user-provided config file path
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var config Config
	dec := yaml.NewDecoder(strings.NewReader(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(&config); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	// Validate config
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// Validate checks that all configuration values are valid and consistent.
func (c *Config) Validate() error {
	c.normalize()

	// Market data validation
	if c.MarketData.APIToken == "" {
		return fmt.Errorf("marketdata.api_token is required")
	}
	if _, err := time.ParseDuration(c.MarketData.RateInterval); err != nil {
		return fmt.Errorf("marketdata.rate_interval invalid: %w", err)
	}
	if c.MarketData.ChainLimit <= 0 {
		return fmt.Errorf("marketdata.chain_limit must be > 0")
	}

	// Universe validation
	if c.Universe.Path == "" {
		return fmt.Errorf("universe.path is required")
	}

	// Screener validation
	if !models.OptionType(c.Screener.OptionType).Valid() {
		return fmt.Errorf("screener.option_type must be 'put' or 'call'")
	}
	if !screener.SortKey(c.Screener.SortBy).Valid() {
		return fmt.Errorf("screener.sort_by %q is not a supported sort key", c.Screener.SortBy)
	}
	if c.Screener.MaxTickers <= 0 {
		return fmt.Errorf("screener.max_tickers must be > 0")
	}
	if c.Screener.Parallelism <= 0 {
		return fmt.Errorf("screener.parallelism must be > 0")
	}
	if c.Screener.TopN <= 0 {
		return fmt.Errorf("screener.top_n must be > 0")
	}

	// Filter threshold validation
	f := c.Screener.Filters
	if f.MinBid < 0 {
		return fmt.Errorf("screener.filters.min_bid must be >= 0")
	}
	if f.MinDTE <= 0 || f.MaxDTE <= 0 || f.MinDTE > f.MaxDTE {
		return fmt.Errorf("screener.filters dte range must be positive with min_dte <= max_dte")
	}
	if f.MinDelta < 0 || f.MaxDelta > 1 || f.MinDelta > f.MaxDelta {
		return fmt.Errorf("screener.filters delta range must satisfy 0 <= min_delta <= max_delta <= 1")
	}
	if f.MaxCapital <= 0 {
		return fmt.Errorf("screener.filters.max_capital must be > 0")
	}

	// Dashboard validation
	if c.Dashboard.Enabled && (c.Dashboard.Port <= 0 || c.Dashboard.Port > 65535) {
		return fmt.Errorf("dashboard.port must be in (0, 65535]")
	}

	return nil
}

// normalize sets defaults for unset optional values
func (c *Config) normalize() {
	if c.MarketData.Provider == "" {
		c.MarketData.Provider = "eodhd"
	}
	if c.MarketData.ChainLimit == 0 {
		c.MarketData.ChainLimit = defaultChainLimit
	}
	if c.MarketData.RateInterval == "" {
		c.MarketData.RateInterval = defaultRateInterval
	}
	if c.Screener.OptionType == "" {
		c.Screener.OptionType = string(models.OptionTypePut)
	}
	if c.Screener.SortBy == "" {
		c.Screener.SortBy = string(screener.SortAnnualizedYield)
	}
	if c.Screener.MaxTickers == 0 {
		c.Screener.MaxTickers = defaultMaxTickers
	}
	if c.Screener.Parallelism == 0 {
		c.Screener.Parallelism = 1
	}
	if c.Screener.TopN == 0 {
		c.Screener.TopN = defaultTopN
	}
}

// GetRateInterval returns the configured request spacing duration.
func (c *Config) GetRateInterval() time.Duration {
	d, err := time.ParseDuration(c.MarketData.RateInterval)
	if err != nil {
		return 1200 * time.Millisecond // default
	}
	return d
}

// OptionType returns the configured default option type.
func (c *Config) OptionType() models.OptionType {
	return models.OptionType(c.Screener.OptionType)
}

// SortKey returns the configured default sort key.
func (c *Config) SortKey() screener.SortKey {
	return screener.SortKey(c.Screener.SortBy)
}
