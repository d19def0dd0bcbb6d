package scanner

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"PaperTrader/internal/collector"
	"PaperTrader/internal/market"
	"PaperTrader/internal/model"
	"PaperTrader/internal/portfolio"
	"PaperTrader/internal/recorder"
	"PaperTrader/internal/strategy"
)

// Settings configures a trading session.
type Settings struct {
	Watchlist       []string
	Interval        time.Duration // time between scan cycles
	SessionDuration time.Duration // cap when the market stays open longer
	MaxNewPositions int           // BUY executions per cycle
}

// DefaultSettings returns the stock session configuration.
func DefaultSettings() Settings {
	return Settings{
		Interval:        10 * time.Minute,
		SessionDuration: 4 * time.Hour,
		MaxNewPositions: 3,
	}
}

// Scanner drives the scan→decide→execute→persist cycle. Single-threaded:
// symbols are evaluated sequentially and the ledger is mutated only from
// RunSession's goroutine. The marks map is additionally read by the
// end-of-day task, so it sits behind its own mutex.
type Scanner struct {
	engine *strategy.Engine
	prices *collector.PriceSource
	ledger *portfolio.Ledger
	rec    recorder.Recorder
	cal    *market.Calendar
	cfg    Settings
	log    zerolog.Logger

	scanCount int
	marksMu   sync.Mutex
	lastMarks map[string]float64
}

// New creates a Scanner.
func New(engine *strategy.Engine, prices *collector.PriceSource, ledger *portfolio.Ledger,
	rec recorder.Recorder, cal *market.Calendar, cfg Settings, logger zerolog.Logger) *Scanner {
	return &Scanner{
		engine:    engine,
		prices:    prices,
		ledger:    ledger,
		rec:       rec,
		cal:       cal,
		cfg:       cfg,
		log:       logger.With().Str("component", "scanner").Logger(),
		lastMarks: make(map[string]float64),
	}
}

// Marks returns a copy of the latest observed price per symbol, for valuing
// open positions outside the scan loop.
func (s *Scanner) Marks() map[string]float64 {
	s.marksMu.Lock()
	defer s.marksMu.Unlock()
	out := make(map[string]float64, len(s.lastMarks))
	for sym, price := range s.lastMarks {
		out[sym] = price
	}
	return out
}

func (s *Scanner) setMark(symbol string, price float64) {
	s.marksMu.Lock()
	s.lastMarks[symbol] = price
	s.marksMu.Unlock()
}

// RunSession runs scan cycles until the session end (the sooner of market
// close and the configured duration) or until ctx is cancelled. Every exit
// path persists final state; open positions are intentionally left open.
func (s *Scanner) RunSession(ctx context.Context) error {
	now := s.cal.Now()
	end := now.Add(s.cfg.SessionDuration)
	if s.cal.IsOpen(now) {
		if close := s.cal.CloseAt(now); close.Before(end) {
			end = close
		}
	} else {
		s.log.Warn().Msg("market is closed, running against latest available data")
	}
	s.log.Info().
		Time("session_end", end).
		Int("watchlist", len(s.cfg.Watchlist)).
		Dur("interval", s.cfg.Interval).
		Msg("session started")

	var runErr error
	for s.cal.Now().Before(end) {
		if err := ctx.Err(); err != nil {
			s.log.Info().Msg("cancellation received, shutting down")
			break
		}

		s.scanCount++
		if err := s.runCycle(ctx); err != nil {
			// A cycle error here means the durable-snapshot invariant is at
			// risk; stop trading rather than continue with unpersisted state.
			s.log.Error().Err(err).Int("scan", s.scanCount).Msg("cycle failed, aborting session")
			runErr = err
			break
		}

		remaining := end.Sub(s.cal.Now())
		if remaining <= 0 {
			break
		}
		wait := s.cfg.Interval
		if remaining < wait {
			wait = remaining
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.log.Info().Msg("cancellation received, shutting down")
		case <-timer.C:
		}
		if ctx.Err() != nil {
			break
		}
	}

	s.finish()
	return runErr
}

// finish persists final state. Positions are not force-closed at session end.
func (s *Scanner) finish() {
	now := s.cal.Now()
	endOfDay := !s.cal.IsOpen(now) || !now.Before(s.cal.CloseAt(now))
	if err := s.ledger.Persist(endOfDay, s.Marks()); err != nil {
		s.log.Error().Err(err).Msg("final snapshot failed")
	}

	total, winning, available, initial := s.ledger.Stats()
	open := len(s.ledger.Positions())
	if open > 0 {
		s.log.Info().Int("positions", open).Msg("keeping positions open past session end")
	}
	winRate := 0.0
	if total > 0 {
		winRate = float64(winning) / float64(total) * 100
	}
	s.log.Info().
		Int("scans", s.scanCount).
		Int("trades", total).
		Float64("win_rate", winRate).
		Float64("available", available).
		Float64("initial", initial).
		Msg("session complete")
}

type buyCandidate struct {
	sig *model.Signal
}

// runCycle performs one full pass: trailing stops and exits for open
// positions, fresh signals for the rest of the watchlist, ranked buys, then
// a durable snapshot.
func (s *Scanner) runCycle(ctx context.Context) error {
	now := s.cal.Now()
	s.log.Info().Int("scan", s.scanCount).Msg("market scan")
	signalsFound := 0

	// Open positions first: trailing update, then stop/target exits.
	for sym := range s.ledger.Positions() {
		price, err := s.prices.Price(sym, now)
		if err != nil {
			// Never force an exit on a missing or stale price; skip the
			// symbol for this cycle.
			if errors.Is(err, collector.ErrStalePrice) || errors.Is(err, collector.ErrNoPrice) {
				s.log.Warn().Err(err).Str("symbol", sym).Msg("no usable price, skipping position")
				continue
			}
			s.log.Warn().Err(err).Str("symbol", sym).Msg("price lookup failed, skipping position")
			continue
		}
		s.setMark(sym, price)

		s.ledger.ApplyTrailing(sym, price)
		pos, ok := s.ledger.Position(sym)
		if !ok {
			continue
		}
		reason, hit := portfolio.ExitReason(&pos, price)
		if !hit {
			continue
		}
		record, err := s.ledger.ClosePosition(sym, price, reason)
		if err != nil {
			return err
		}
		if record != nil {
			signalsFound++
			s.recordTrade(&recorder.TradeEvent{
				Symbol: sym,
				Side:   "SELL",
				Shares: pos.Shares,
				Price:  price,
				Reason: string(reason),
				PnL:    record.PnL,
				PnLPct: record.PnLPct,
			})
		}
	}

	// Fresh signals for symbols without positions.
	var candidates []buyCandidate
	for _, sym := range s.cfg.Watchlist {
		if ctx.Err() != nil {
			break
		}
		if s.ledger.HasPosition(sym) {
			continue
		}
		sig := s.engine.Analyze(sym)
		if sig.Action == model.ActionHold {
			continue
		}
		s.recordSignal(sig)
		if sig.Action == model.ActionBuy {
			candidates = append(candidates, buyCandidate{sig: sig})
		}
	}

	// Rank BUY candidates by score and open the best few; the ledger applies
	// the capital and position-cap checks.
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].sig.Score > candidates[j].sig.Score
	})
	opened := 0
	for _, c := range candidates {
		if opened >= s.cfg.MaxNewPositions || ctx.Err() != nil {
			break
		}
		ok, err := s.ledger.OpenPosition(c.sig)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		opened++
		signalsFound++
		pos, _ := s.ledger.Position(c.sig.Symbol)
		s.recordTrade(&recorder.TradeEvent{
			Symbol: c.sig.Symbol,
			Side:   "BUY",
			Shares: pos.Shares,
			Price:  c.sig.EntryPrice,
		})
	}

	// One durable snapshot per cycle even without capital mutations, so
	// trailing-stop changes reach disk.
	if err := s.ledger.Persist(false, s.Marks()); err != nil {
		return err
	}

	s.reportStatus(signalsFound)
	return nil
}

func (s *Scanner) reportStatus(signalsFound int) {
	total, winning, available, initial := s.ledger.Stats()
	positions := s.ledger.Positions()
	marks := s.Marks()

	totalValue := available
	for sym, pos := range positions {
		mark := pos.EntryPrice
		if m, ok := marks[sym]; ok && m > 0 {
			mark = m
		}
		totalValue += float64(pos.Shares) * mark
	}
	totalReturn := 0.0
	if initial > 0 {
		totalReturn = (totalValue - initial) / initial * 100
	}

	s.log.Info().
		Int("scan", s.scanCount).
		Int("signals", signalsFound).
		Int("positions", len(positions)).
		Float64("value", totalValue).
		Float64("cash", available).
		Float64("return_pct", totalReturn).
		Msg("cycle complete")

	if err := s.rec.RecordCycle(&recorder.CycleEvent{
		ScanNumber:       s.scanCount,
		SymbolsScanned:   len(s.cfg.Watchlist),
		SignalsFound:     signalsFound,
		OpenPositions:    len(positions),
		AvailableCapital: available,
		TotalValue:       totalValue,
		TotalTrades:      total,
		WinningTrades:    winning,
	}); err != nil {
		s.log.Error().Err(err).Msg("record cycle")
	}
}

func (s *Scanner) recordSignal(sig *model.Signal) {
	if err := s.rec.RecordSignal(&recorder.SignalEvent{
		Symbol:        sig.Symbol,
		Action:        sig.Action,
		Score:         sig.Score,
		DailyScore:    sig.Components.Daily,
		HourlyScore:   sig.Components.Hourly,
		IntradayScore: sig.Components.Intraday,
		Votes:         sig.Votes,
		Confidence:    sig.Confidence,
		Trend:         sig.Trend,
		EntryPrice:    sig.EntryPrice,
		StopLoss:      sig.StopLoss,
		Target:        sig.Target,
	}); err != nil {
		s.log.Error().Err(err).Str("symbol", sig.Symbol).Msg("record signal")
	}
}

func (s *Scanner) recordTrade(evt *recorder.TradeEvent) {
	if err := s.rec.RecordTrade(evt); err != nil {
		s.log.Error().Err(err).Str("symbol", evt.Symbol).Msg("record trade")
	}
}
