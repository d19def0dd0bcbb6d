package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"PaperTrader/internal/collector"
	"PaperTrader/internal/config"
	"PaperTrader/internal/market"
	"PaperTrader/internal/portfolio"
	"PaperTrader/internal/recorder"
	"PaperTrader/internal/scanner"
	"PaperTrader/internal/scheduler"
	"PaperTrader/internal/strategy"
)

func main() {
	_ = godotenv.Load()

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		boot := zerolog.New(os.Stderr)
		boot.Fatal().Err(err).Msg("load config")
	}
	logger := newLogger(cfg)
	logger.Info().Str("config", cfgPath).Msg("PaperTrader starting")

	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("config validation")
	}

	// Market calendar
	cal, err := market.NewCalendar(cfg.Market.Timezone, cfg.Market.Open, cfg.Market.Close)
	if err != nil {
		logger.Fatal().Err(err).Msg("init market calendar")
	}

	// Init fetcher
	var fetcher collector.Fetcher
	if cfg.DataSource.Provider == "mock" {
		fetcher = &collector.MockFetcher{Price: 100}
	} else {
		fetcher = collector.NewAlpacaFetcher()
	}
	logger.Info().Str("provider", fetcher.Name()).Msg("data source ready")

	// Init data plumbing and strategy engine
	col := collector.NewCollector(fetcher, logger)
	prices := collector.NewPriceSource(fetcher, cfg.PriceSourceSettings(), logger)
	col.OnIntraday(prices.Seed)
	engine := strategy.NewEngine(cfg.StrategySettings(), col, cal, logger)

	// Init portfolio ledger
	ledger, err := portfolio.NewLedger(cfg.Portfolio.StateFile, cfg.PortfolioSettings(), cal.Location, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("init ledger")
	}

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("sqlite recorder unavailable, using noop")
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	// Cancelled on SIGINT/SIGTERM so every run mode shuts down through the
	// scanner's persist-then-exit path.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sc := scanner.New(engine, prices, ledger, rec, cal, cfg.ScannerSettings(), logger)

	// No session cron means one session now, then exit.
	if cfg.Schedule.SessionCron == "" {
		if err := sc.RunSession(ctx); err != nil {
			logger.Fatal().Err(err).Msg("session failed")
		}
		logger.Info().Msg("PaperTrader done")
		return
	}

	sched := scheduler.NewScheduler(ctx, sc, ledger, logger)
	if err := sched.RegisterAll(cfg.Schedule.SessionCron, cfg.Schedule.EODCron); err != nil {
		logger.Fatal().Err(err).Msg("register cron tasks")
	}
	sched.Start()

	if os.Getenv("RUN_ON_START") == "true" {
		logger.Info().Msg("RUN_ON_START enabled, starting session now")
		go sched.RunSessionNow()
	}

	logger.Info().Str("session_cron", cfg.Schedule.SessionCron).Msg("PaperTrader running, Ctrl+C to stop")

	<-ctx.Done()

	logger.Info().Msg("shutdown signal received, stopping")
	// Stop waits for an in-flight session to finish its final persist.
	sched.Stop()
	logger.Info().Msg("PaperTrader stopped")
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	var w io.Writer = os.Stderr
	if cfg.Log.Pretty {
		w = zerolog.ConsoleWriter{Out: os.Stderr}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
