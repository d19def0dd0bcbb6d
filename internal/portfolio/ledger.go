package portfolio

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"PaperTrader/internal/model"
)

const saveAttempts = 3

// Ledger owns the portfolio's capital and position state. Every
// capital-mutating operation synchronously persists a full snapshot before
// reporting success; a persist failure rolls the mutation back and surfaces
// as a hard error. All mutations are serialized behind one mutex.
type Ledger struct {
	mu sync.Mutex

	initialCapital   float64
	availableCapital float64
	positions        map[string]*model.Position
	history          []model.TradeRecord
	totalTrades      int
	winningTrades    int

	statePath string
	cfg       Settings
	loc       *time.Location
	log       zerolog.Logger
}

// NewLedger creates a Ledger, restoring the most recent valid snapshot.
// Across a new trading day the configured rollover policy applies; a corrupt
// snapshot is logged and replaced by a fresh portfolio.
func NewLedger(statePath string, cfg Settings, loc *time.Location, logger zerolog.Logger) (*Ledger, error) {
	l := &Ledger{
		initialCapital:   cfg.InitialCapital,
		availableCapital: cfg.InitialCapital,
		positions:        make(map[string]*model.Position),
		statePath:        statePath,
		cfg:              cfg,
		loc:              loc,
		log:              logger.With().Str("component", "ledger").Logger(),
	}

	snap, err := LoadSnapshot(statePath)
	if err != nil {
		l.log.Warn().Err(err).Msg("snapshot unreadable, starting fresh")
	} else if snap != nil {
		l.restore(snap)
	}

	if err := l.persistLocked(false, nil); err != nil {
		return nil, fmt.Errorf("persist initial state: %w", err)
	}
	return l, nil
}

func (l *Ledger) restore(snap *model.PortfolioSnapshot) {
	now := time.Now().In(l.loc)
	then := snap.Timestamp.In(l.loc)
	sameDay := now.Year() == then.Year() && now.YearDay() == then.YearDay()

	if sameDay || l.cfg.DayRollover == RolloverCarry {
		l.initialCapital = snap.InitialCapital
		l.availableCapital = snap.AvailableCapital
		l.positions = snap.Positions
		l.history = snap.TradeHistory
		l.totalTrades = snap.TotalTrades
		l.winningTrades = snap.WinningTrades
		l.log.Info().
			Float64("available", l.availableCapital).
			Int("positions", len(l.positions)).
			Bool("same_day", sameDay).
			Msg("portfolio restored")
		return
	}

	// New trading day under the reset policy: yesterday's end-of-day balance
	// becomes today's starting capital, with no overnight positions.
	balance := snap.EndOfDayBalance
	if balance <= 0 {
		balance = snap.AvailableCapital
	}
	l.initialCapital = balance
	l.availableCapital = balance
	l.log.Info().
		Float64("balance", balance).
		Time("previous_session", then).
		Msg("new trading day, starting from prior end-of-day balance")
}

// OpenPosition opens a long position from a BUY signal. Business rejections
// (position cap, duplicate symbol, zero size, insufficient capital) return
// (false, nil); only a persistence failure is an error.
func (l *Ledger) OpenPosition(sig *model.Signal) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.positions) >= l.cfg.MaxPositions {
		return false, nil
	}
	if _, exists := l.positions[sig.Symbol]; exists {
		return false, nil
	}
	if sig.EntryPrice <= 0 {
		return false, nil
	}

	shares := SizePosition(l.availableCapital, l.cfg.RiskPerTrade, sig.EntryPrice, sig.StopLoss)
	if shares <= 0 {
		return false, nil
	}
	cost := EntryCost(shares, sig.EntryPrice, l.cfg)
	if cost > l.availableCapital {
		return false, nil
	}

	pos := &model.Position{
		Symbol:            sig.Symbol,
		EntryTime:         time.Now().In(l.loc),
		EntryPrice:        sig.EntryPrice,
		Shares:            shares,
		StopLoss:          sig.StopLoss,
		OriginalStopLoss:  sig.StopLoss,
		Target:            sig.Target,
		Score:             sig.Score,
		HighestPrice:      sig.EntryPrice,
		TrailingActivated: false,
	}
	l.positions[sig.Symbol] = pos
	l.availableCapital -= cost
	l.totalTrades++

	if err := l.persistLocked(false, nil); err != nil {
		delete(l.positions, sig.Symbol)
		l.availableCapital += cost
		l.totalTrades--
		return false, fmt.Errorf("persist after buy %s: %w", sig.Symbol, err)
	}

	l.log.Info().Str("symbol", sig.Symbol).
		Int("shares", shares).
		Float64("entry", sig.EntryPrice).
		Float64("stop", sig.StopLoss).
		Float64("target", sig.Target).
		Msg("BUY")
	return true, nil
}

// ClosePosition liquidates a position at the quoted price and appends a
// trade record. Returns the record, or an error when the snapshot could not
// be persisted (the close is rolled back).
func (l *Ledger) ClosePosition(symbol string, quotedPrice float64, reason model.CloseReason) (*model.TradeRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	pos, ok := l.positions[symbol]
	if !ok {
		return nil, nil
	}

	proceeds, pnl, pnlPct := Liquidation(pos, quotedPrice, l.cfg)
	record := model.TradeRecord{
		Symbol:   symbol,
		PnL:      pnl,
		PnLPct:   pnlPct,
		Reason:   reason,
		ClosedAt: time.Now().In(l.loc),
	}

	delete(l.positions, symbol)
	l.availableCapital += proceeds
	won := pnl > 0
	if won {
		l.winningTrades++
	}
	l.history = append(l.history, record)

	if err := l.persistLocked(false, nil); err != nil {
		l.positions[symbol] = pos
		l.availableCapital -= proceeds
		if won {
			l.winningTrades--
		}
		l.history = l.history[:len(l.history)-1]
		return nil, fmt.Errorf("persist after sell %s: %w", symbol, err)
	}

	l.log.Info().Str("symbol", symbol).
		Str("reason", string(reason)).
		Float64("exit", quotedPrice).
		Float64("pnl", pnl).
		Float64("pnl_pct", pnlPct).
		Msg("SELL")
	return &record, nil
}

// ApplyTrailing runs the trailing-stop update for one position. The raised
// stop becomes durable with the next snapshot (cycle end at the latest).
func (l *Ledger) ApplyTrailing(symbol string, currentPrice float64) (activated, raised bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	pos, ok := l.positions[symbol]
	if !ok {
		return false, false
	}
	activated, raised = UpdateTrailing(pos, currentPrice, l.cfg)
	if activated {
		l.log.Info().Str("symbol", symbol).Float64("price", currentPrice).Msg("trailing stop armed")
	}
	if raised {
		l.log.Info().Str("symbol", symbol).Float64("stop", pos.StopLoss).Msg("trailing stop raised")
	}
	return activated, raised
}

// Positions returns a copy of the open positions map.
func (l *Ledger) Positions() map[string]model.Position {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]model.Position, len(l.positions))
	for sym, pos := range l.positions {
		out[sym] = *pos
	}
	return out
}

// Position returns a copy of one open position.
func (l *Ledger) Position(symbol string) (model.Position, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	pos, ok := l.positions[symbol]
	if !ok {
		return model.Position{}, false
	}
	return *pos, true
}

// HasPosition reports whether the symbol has an open position.
func (l *Ledger) HasPosition(symbol string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.positions[symbol]
	return ok
}

// Stats returns the session counters and capital figures.
func (l *Ledger) Stats() (totalTrades, winningTrades int, available, initial float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.totalTrades, l.winningTrades, l.availableCapital, l.initialCapital
}

// Snapshot builds a consistent point-in-time copy of the portfolio. Open
// positions are marked with marks[symbol] when present, entry price otherwise.
func (l *Ledger) Snapshot(marks map[string]float64) model.PortfolioSnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshotLocked(false, marks)
}

func (l *Ledger) snapshotLocked(endOfDay bool, marks map[string]float64) model.PortfolioSnapshot {
	positions := make(map[string]*model.Position, len(l.positions))
	totalValue := l.availableCapital
	for sym, pos := range l.positions {
		cp := *pos
		positions[sym] = &cp
		mark := pos.EntryPrice
		if m, ok := marks[sym]; ok && m > 0 {
			mark = m
		}
		totalValue += float64(pos.Shares) * mark
	}

	history := make([]model.TradeRecord, len(l.history))
	copy(history, l.history)

	snap := model.PortfolioSnapshot{
		Timestamp:        time.Now().In(l.loc),
		InitialCapital:   l.initialCapital,
		AvailableCapital: l.availableCapital,
		Positions:        positions,
		TradeHistory:     history,
		TotalTrades:      l.totalTrades,
		WinningTrades:    l.winningTrades,
		TotalValue:       totalValue,
		EndOfDayBalance:  l.availableCapital,
	}
	if endOfDay {
		snap.EndOfDayBalance = totalValue
	}
	return snap
}

// Persist writes a durable snapshot, marking open positions with the given
// prices. endOfDay records the full marked value as the balance the next
// session starts from.
func (l *Ledger) Persist(endOfDay bool, marks map[string]float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.persistLocked(endOfDay, marks)
}

// persistLocked saves with bounded backoff. Callers hold l.mu.
func (l *Ledger) persistLocked(endOfDay bool, marks map[string]float64) error {
	snap := l.snapshotLocked(endOfDay, marks)

	var err error
	backoff := 100 * time.Millisecond
	for attempt := 1; attempt <= saveAttempts; attempt++ {
		if err = SaveSnapshot(l.statePath, &snap); err == nil {
			return nil
		}
		l.log.Error().Err(err).Int("attempt", attempt).Msg("snapshot save failed")
		if attempt < saveAttempts {
			time.Sleep(backoff)
			backoff *= 2
		}
	}
	return fmt.Errorf("save snapshot after %d attempts: %w", saveAttempts, err)
}
