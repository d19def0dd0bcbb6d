package config

import (
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"PaperTrader/internal/collector"
	"PaperTrader/internal/model"
	"PaperTrader/internal/portfolio"
	"PaperTrader/internal/scanner"
	"PaperTrader/internal/strategy"
)

// Config holds all application configuration.
//
// Percent-style fields follow the config surface convention: strategy targets
// and trailing stops are whole percents (2.0 = 2%), while transaction cost and
// slippage are decimal fractions (0.002 = 0.2%).
type Config struct {
	DataSource struct {
		Provider          string   `yaml:"provider"` // "alpaca" or "mock"
		Watchlist         []string `yaml:"watchlist"`
		PriceCacheSeconds int      `yaml:"price_cache_seconds"`
		MaxPriceAgeHours  float64  `yaml:"max_price_age_hours"`
		RateLimitRequests int      `yaml:"rate_limit_requests"`
	} `yaml:"data_source"`
	Market struct {
		Timezone string `yaml:"timezone"`
		Open     string `yaml:"open"`
		Close    string `yaml:"close"`
	} `yaml:"market"`
	Strategy struct {
		BuyThreshold    float64    `yaml:"buy_threshold"`
		SellThreshold   float64    `yaml:"sell_threshold"`
		MinBullishVotes int        `yaml:"min_bullish_votes"`
		TrendBias       float64    `yaml:"trend_bias"`
		Weights         weightsCfg `yaml:"weights"`
		HighVolWeights  weightsCfg `yaml:"high_volatility_weights"`
		LowVolWeights   weightsCfg `yaml:"low_volatility_weights"`
		VolatilityHigh  float64    `yaml:"volatility_high"`
		VolatilityLow   float64    `yaml:"volatility_low"`
		TargetPercent   float64    `yaml:"target_percent"`
		StopPercent     float64    `yaml:"stop_percent"`
	} `yaml:"strategy"`
	Portfolio struct {
		InitialCapital            float64 `yaml:"initial_capital"`
		MaxRiskPerTrade           float64 `yaml:"max_risk_per_trade"`
		MaxPositions              int     `yaml:"max_positions"`
		TransactionCost           float64 `yaml:"transaction_cost"`
		Slippage                  float64 `yaml:"slippage"`
		TrailingStopEnabled       *bool   `yaml:"trailing_stop_enabled"`
		TrailingStopPercent       float64 `yaml:"trailing_stop_percent"`
		TrailingActivationPercent float64 `yaml:"trailing_activation_percent"`
		DayRollover               string  `yaml:"day_rollover"` // "reset" or "carry"
		StateFile                 string  `yaml:"state_file"`
	} `yaml:"portfolio"`
	Scan struct {
		IntervalMinutes int     `yaml:"interval_minutes"`
		SessionHours    float64 `yaml:"session_hours"`
		MaxNewPositions int     `yaml:"max_new_positions"`
	} `yaml:"scan"`
	Schedule struct {
		SessionCron string `yaml:"session_cron"`
		EODCron     string `yaml:"eod_cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Log struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"log"`
}

type weightsCfg struct {
	Daily    float64 `yaml:"daily"`
	Hourly   float64 `yaml:"60min"`
	Intraday float64 `yaml:"15min"`
}

func (w weightsCfg) zero() bool { return w.Daily == 0 && w.Hourly == 0 && w.Intraday == 0 }

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("DATA_PROVIDER"); v != "" {
		cfg.DataSource.Provider = v
	}
	if v := os.Getenv("WATCHLIST"); v != "" {
		cfg.DataSource.Watchlist = splitList(v)
	}
	if v := os.Getenv("INITIAL_CAPITAL"); v != "" {
		var capital float64
		if _, err := fmt.Sscanf(v, "%f", &capital); err == nil {
			cfg.Portfolio.InitialCapital = capital
		}
	}
	if v := os.Getenv("STATE_FILE"); v != "" {
		cfg.Portfolio.StateFile = v
	}
	if v := os.Getenv("SESSION_CRON"); v != "" {
		cfg.Schedule.SessionCron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}

	// Defaults
	if cfg.DataSource.Provider == "" {
		cfg.DataSource.Provider = "alpaca"
	}
	if len(cfg.DataSource.Watchlist) == 0 {
		cfg.DataSource.Watchlist = []string{"AAPL", "MSFT", "NVDA", "AMZN", "GOOGL"}
	}
	if cfg.DataSource.PriceCacheSeconds == 0 {
		cfg.DataSource.PriceCacheSeconds = 30
	}
	if cfg.DataSource.MaxPriceAgeHours == 0 {
		cfg.DataSource.MaxPriceAgeHours = 24
	}
	if cfg.DataSource.RateLimitRequests == 0 {
		cfg.DataSource.RateLimitRequests = 2
	}
	if cfg.Market.Timezone == "" {
		cfg.Market.Timezone = "America/New_York"
	}
	if cfg.Market.Open == "" {
		cfg.Market.Open = "09:30"
	}
	if cfg.Market.Close == "" {
		cfg.Market.Close = "16:00"
	}
	if cfg.Strategy.BuyThreshold == 0 {
		cfg.Strategy.BuyThreshold = 55
	}
	if cfg.Strategy.SellThreshold == 0 {
		cfg.Strategy.SellThreshold = 45
	}
	if cfg.Strategy.MinBullishVotes == 0 {
		cfg.Strategy.MinBullishVotes = 2
	}
	if cfg.Strategy.TrendBias == 0 {
		cfg.Strategy.TrendBias = 10
	}
	if cfg.Strategy.Weights.zero() {
		cfg.Strategy.Weights = weightsCfg{Daily: 0.30, Hourly: 0.40, Intraday: 0.30}
	}
	if cfg.Strategy.HighVolWeights.zero() {
		cfg.Strategy.HighVolWeights = weightsCfg{Daily: 0.20, Hourly: 0.35, Intraday: 0.45}
	}
	if cfg.Strategy.LowVolWeights.zero() {
		cfg.Strategy.LowVolWeights = weightsCfg{Daily: 0.40, Hourly: 0.40, Intraday: 0.20}
	}
	if cfg.Strategy.VolatilityHigh == 0 {
		cfg.Strategy.VolatilityHigh = 2.0
	}
	if cfg.Strategy.VolatilityLow == 0 {
		cfg.Strategy.VolatilityLow = 0.5
	}
	if cfg.Strategy.TargetPercent == 0 {
		cfg.Strategy.TargetPercent = 3.0
	}
	if cfg.Strategy.StopPercent == 0 {
		cfg.Strategy.StopPercent = 2.0
	}
	if cfg.Portfolio.InitialCapital == 0 {
		cfg.Portfolio.InitialCapital = 250000
	}
	if cfg.Portfolio.MaxRiskPerTrade == 0 {
		cfg.Portfolio.MaxRiskPerTrade = 0.01
	}
	if cfg.Portfolio.MaxPositions == 0 {
		cfg.Portfolio.MaxPositions = 20
	}
	if cfg.Portfolio.TransactionCost == 0 {
		cfg.Portfolio.TransactionCost = 0.002
	}
	if cfg.Portfolio.Slippage == 0 {
		cfg.Portfolio.Slippage = 0.001
	}
	if cfg.Portfolio.TrailingStopEnabled == nil {
		enabled := true
		cfg.Portfolio.TrailingStopEnabled = &enabled
	}
	if cfg.Portfolio.TrailingStopPercent == 0 {
		cfg.Portfolio.TrailingStopPercent = 2.0
	}
	if cfg.Portfolio.TrailingActivationPercent == 0 {
		cfg.Portfolio.TrailingActivationPercent = 1.5
	}
	if cfg.Portfolio.DayRollover == "" {
		cfg.Portfolio.DayRollover = string(portfolio.RolloverReset)
	}
	if cfg.Portfolio.StateFile == "" {
		cfg.Portfolio.StateFile = "data/portfolio_state.json"
	}
	if cfg.Scan.IntervalMinutes == 0 {
		cfg.Scan.IntervalMinutes = 10
	}
	if cfg.Scan.SessionHours == 0 {
		cfg.Scan.SessionHours = 4
	}
	if cfg.Scan.MaxNewPositions == 0 {
		cfg.Scan.MaxNewPositions = 3
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/paper_trader.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	return cfg, nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks that all required fields are set and consistent.
func (c *Config) Validate() error {
	switch c.DataSource.Provider {
	case "alpaca", "mock":
	default:
		return fmt.Errorf("data_source.provider must be alpaca or mock, got %q", c.DataSource.Provider)
	}
	if len(c.DataSource.Watchlist) == 0 {
		return fmt.Errorf("data_source.watchlist is required")
	}
	if c.Strategy.BuyThreshold <= c.Strategy.SellThreshold {
		return fmt.Errorf("strategy.buy_threshold must exceed sell_threshold")
	}
	for name, w := range map[string]weightsCfg{
		"weights":                 c.Strategy.Weights,
		"high_volatility_weights": c.Strategy.HighVolWeights,
		"low_volatility_weights":  c.Strategy.LowVolWeights,
	} {
		if sum := w.Daily + w.Hourly + w.Intraday; math.Abs(sum-1.0) > 1e-6 {
			return fmt.Errorf("strategy.%s must sum to 1.0, got %.6f", name, sum)
		}
	}
	if c.Portfolio.InitialCapital <= 0 {
		return fmt.Errorf("portfolio.initial_capital must be positive")
	}
	if c.Portfolio.MaxRiskPerTrade <= 0 || c.Portfolio.MaxRiskPerTrade >= 1 {
		return fmt.Errorf("portfolio.max_risk_per_trade must be a fraction in (0, 1)")
	}
	switch portfolio.RolloverPolicy(c.Portfolio.DayRollover) {
	case portfolio.RolloverReset, portfolio.RolloverCarry:
	default:
		return fmt.Errorf("portfolio.day_rollover must be reset or carry, got %q", c.Portfolio.DayRollover)
	}
	return nil
}

// StrategySettings maps the config onto the strategy engine's settings.
func (c *Config) StrategySettings() strategy.Settings {
	s := strategy.DefaultSettings()
	s.BuyThreshold = c.Strategy.BuyThreshold
	s.SellThreshold = c.Strategy.SellThreshold
	s.MinVotes = c.Strategy.MinBullishVotes
	s.TrendBias = c.Strategy.TrendBias
	s.DefaultWeights = model.Weights{Daily: c.Strategy.Weights.Daily, Hourly: c.Strategy.Weights.Hourly, Intraday: c.Strategy.Weights.Intraday}
	s.HighVolWeights = model.Weights{Daily: c.Strategy.HighVolWeights.Daily, Hourly: c.Strategy.HighVolWeights.Hourly, Intraday: c.Strategy.HighVolWeights.Intraday}
	s.LowVolWeights = model.Weights{Daily: c.Strategy.LowVolWeights.Daily, Hourly: c.Strategy.LowVolWeights.Hourly, Intraday: c.Strategy.LowVolWeights.Intraday}
	s.VolatilityHigh = c.Strategy.VolatilityHigh
	s.VolatilityLow = c.Strategy.VolatilityLow
	s.TargetPercent = c.Strategy.TargetPercent
	s.StopPercent = c.Strategy.StopPercent
	return s
}

// PortfolioSettings maps the config onto the ledger's settings, converting
// whole-percent trailing values to decimal fractions.
func (c *Config) PortfolioSettings() portfolio.Settings {
	return portfolio.Settings{
		InitialCapital:    c.Portfolio.InitialCapital,
		RiskPerTrade:      c.Portfolio.MaxRiskPerTrade,
		MaxPositions:      c.Portfolio.MaxPositions,
		TransactionCost:   c.Portfolio.TransactionCost,
		Slippage:          c.Portfolio.Slippage,
		TrailingEnabled:   *c.Portfolio.TrailingStopEnabled,
		TrailingPercent:   c.Portfolio.TrailingStopPercent / 100,
		ActivationPercent: c.Portfolio.TrailingActivationPercent / 100,
		DayRollover:       portfolio.RolloverPolicy(c.Portfolio.DayRollover),
	}
}

// ScannerSettings maps the config onto the scan loop's settings.
func (c *Config) ScannerSettings() scanner.Settings {
	return scanner.Settings{
		Watchlist:       c.DataSource.Watchlist,
		Interval:        time.Duration(c.Scan.IntervalMinutes) * time.Minute,
		SessionDuration: time.Duration(c.Scan.SessionHours * float64(time.Hour)),
		MaxNewPositions: c.Scan.MaxNewPositions,
	}
}

// PriceSourceSettings maps the config onto the price source's limits.
func (c *Config) PriceSourceSettings() collector.PriceSourceSettings {
	s := collector.DefaultPriceSourceSettings()
	s.CacheTTL = time.Duration(c.DataSource.PriceCacheSeconds) * time.Second
	s.MaxPriceAge = time.Duration(c.DataSource.MaxPriceAgeHours * float64(time.Hour))
	s.MaxRequests = c.DataSource.RateLimitRequests
	return s
}
