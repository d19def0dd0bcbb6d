package portfolio

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"PaperTrader/internal/model"
)

func newTestLedger(t *testing.T, cfg Settings) (*Ledger, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "portfolio_state.json")
	l, err := NewLedger(path, cfg, time.UTC, zerolog.Nop())
	if err != nil {
		t.Fatalf("new ledger: %v", err)
	}
	return l, path
}

func buySignal(symbol string, entry, stop, target float64) *model.Signal {
	return &model.Signal{
		Symbol:     symbol,
		Action:     model.ActionBuy,
		Score:      75,
		EntryPrice: entry,
		StopLoss:   stop,
		Target:     target,
	}
}

func TestOpenPosition_DebitsCapitalAndPersists(t *testing.T) {
	cfg := DefaultSettings()
	l, path := newTestLedger(t, cfg)

	ok, err := l.OpenPosition(buySignal("AAPL", 100, 98, 103))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if !ok {
		t.Fatal("expected position to open")
	}

	pos, found := l.Position("AAPL")
	if !found {
		t.Fatal("expected AAPL position")
	}
	// 250000 * 1% risk / 2 risk-per-share = 1250 shares.
	if pos.Shares != 1250 {
		t.Errorf("expected 1250 shares, got %d", pos.Shares)
	}

	total, _, available, _ := l.Stats()
	wantAvailable := 250000 - 1250*100*1.002
	if math.Abs(available-wantAvailable) > 1e-6 {
		t.Errorf("expected available %.2f, got %.2f", wantAvailable, available)
	}
	if total != 1 {
		t.Errorf("expected total_trades 1, got %d", total)
	}

	// The snapshot must already be on disk.
	snap, err := LoadSnapshot(path)
	if err != nil || snap == nil {
		t.Fatalf("load snapshot: %v", err)
	}
	if _, ok := snap.Positions["AAPL"]; !ok {
		t.Error("persisted snapshot missing the new position")
	}
}

func TestOpenPosition_BusinessRejections(t *testing.T) {
	cfg := DefaultSettings()
	cfg.MaxPositions = 1
	l, _ := newTestLedger(t, cfg)

	if ok, _ := l.OpenPosition(buySignal("AAPL", 100, 98, 103)); !ok {
		t.Fatal("first open should succeed")
	}
	_, _, before, _ := l.Stats()

	// Position cap reached: rejected without touching capital.
	ok, err := l.OpenPosition(buySignal("MSFT", 200, 196, 206))
	if err != nil {
		t.Fatalf("cap rejection must not be an error: %v", err)
	}
	if ok {
		t.Error("expected rejection at the position cap")
	}
	_, _, after, _ := l.Stats()
	if after != before {
		t.Errorf("capital changed on a rejected buy: %.2f -> %.2f", before, after)
	}

	cfg2 := DefaultSettings()
	l2, _ := newTestLedger(t, cfg2)
	l2.OpenPosition(buySignal("AAPL", 100, 98, 103))
	if ok, _ := l2.OpenPosition(buySignal("AAPL", 101, 99, 104)); ok {
		t.Error("expected duplicate symbol rejection")
	}
	if ok, _ := l2.OpenPosition(buySignal("TSLA", 100, 101, 103)); ok {
		t.Error("expected rejection when the stop is not below the entry")
	}
}

func TestClosePosition_RealizesPnL(t *testing.T) {
	cfg := DefaultSettings()
	l, _ := newTestLedger(t, cfg)

	l.OpenPosition(buySignal("AAPL", 100, 98, 103))
	_, _, afterBuy, _ := l.Stats()

	record, err := l.ClosePosition("AAPL", 103, model.CloseTarget)
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if record == nil {
		t.Fatal("expected a trade record")
	}

	wantPnL := 1250 * (103*0.999*0.998 - 100*1.002)
	if math.Abs(record.PnL-wantPnL) > 1e-6 {
		t.Errorf("expected pnl %.4f, got %.4f", wantPnL, record.PnL)
	}
	if record.Reason != model.CloseTarget {
		t.Errorf("expected TARGET close, got %s", record.Reason)
	}

	if l.HasPosition("AAPL") {
		t.Error("position should be gone after close")
	}
	total, winning, available, _ := l.Stats()
	if total != 1 || winning != 1 {
		t.Errorf("expected 1 trade / 1 win, got %d/%d", total, winning)
	}
	wantAvailable := afterBuy + 1250*103*0.999*0.998
	if math.Abs(available-wantAvailable) > 1e-6 {
		t.Errorf("expected available %.2f, got %.2f", wantAvailable, available)
	}

	// Closing an unknown symbol is a no-op.
	if rec, err := l.ClosePosition("MSFT", 50, model.CloseStop); rec != nil || err != nil {
		t.Errorf("expected nil record for unknown symbol, got %v/%v", rec, err)
	}
}

func TestLedger_SameDayRestore(t *testing.T) {
	cfg := DefaultSettings()
	path := filepath.Join(t.TempDir(), "state.json")

	l1, err := NewLedger(path, cfg, time.UTC, zerolog.Nop())
	if err != nil {
		t.Fatalf("ledger: %v", err)
	}
	l1.OpenPosition(buySignal("AAPL", 100, 98, 103))
	_, _, available1, _ := l1.Stats()

	l2, err := NewLedger(path, cfg, time.UTC, zerolog.Nop())
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	pos, ok := l2.Position("AAPL")
	if !ok {
		t.Fatal("expected position restored on the same day")
	}
	if pos.Shares != 1250 || pos.EntryPrice != 100 {
		t.Errorf("restored position mismatch: %+v", pos)
	}
	total, _, available2, _ := l2.Stats()
	if total != 1 {
		t.Errorf("expected restored trade counter 1, got %d", total)
	}
	if math.Abs(available2-available1) > 1e-6 {
		t.Errorf("restored capital mismatch: %.2f vs %.2f", available2, available1)
	}
}

func writeAgedSnapshot(t *testing.T, path string, daysAgo int) {
	t.Helper()
	snap := &model.PortfolioSnapshot{
		Timestamp:        time.Now().UTC().AddDate(0, 0, -daysAgo),
		InitialCapital:   250000,
		AvailableCapital: 240000,
		Positions: map[string]*model.Position{
			"AAPL": {Symbol: "AAPL", EntryPrice: 100, Shares: 100, StopLoss: 98, Target: 103, HighestPrice: 100},
		},
		TradeHistory:    []model.TradeRecord{{Symbol: "MSFT", PnL: 500, Reason: model.CloseTarget}},
		TotalTrades:     3,
		WinningTrades:   2,
		EndOfDayBalance: 260000,
	}
	if err := SaveSnapshot(path, snap); err != nil {
		t.Fatalf("seed snapshot: %v", err)
	}
}

func TestLedger_NewDayReset(t *testing.T) {
	cfg := DefaultSettings() // RolloverReset
	path := filepath.Join(t.TempDir(), "state.json")
	writeAgedSnapshot(t, path, 1)

	l, err := NewLedger(path, cfg, time.UTC, zerolog.Nop())
	if err != nil {
		t.Fatalf("ledger: %v", err)
	}

	if len(l.Positions()) != 0 {
		t.Error("reset rollover must not carry positions overnight")
	}
	total, winning, available, initial := l.Stats()
	if available != 260000 || initial != 260000 {
		t.Errorf("expected prior end-of-day balance 260000, got available=%.2f initial=%.2f", available, initial)
	}
	if total != 0 || winning != 0 {
		t.Errorf("expected fresh counters, got %d/%d", total, winning)
	}
}

func TestLedger_NewDayCarry(t *testing.T) {
	cfg := DefaultSettings()
	cfg.DayRollover = RolloverCarry
	path := filepath.Join(t.TempDir(), "state.json")
	writeAgedSnapshot(t, path, 1)

	l, err := NewLedger(path, cfg, time.UTC, zerolog.Nop())
	if err != nil {
		t.Fatalf("ledger: %v", err)
	}

	if !l.HasPosition("AAPL") {
		t.Error("carry rollover must keep overnight positions")
	}
	total, winning, available, _ := l.Stats()
	if available != 240000 || total != 3 || winning != 2 {
		t.Errorf("carry restore mismatch: available=%.2f total=%d winning=%d", available, total, winning)
	}
}

func TestLedger_CorruptSnapshotStartsFresh(t *testing.T) {
	cfg := DefaultSettings()
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	l, err := NewLedger(path, cfg, time.UTC, zerolog.Nop())
	if err != nil {
		t.Fatalf("corrupt snapshot must not be fatal: %v", err)
	}
	_, _, available, _ := l.Stats()
	if available != cfg.InitialCapital {
		t.Errorf("expected fresh portfolio, got %.2f", available)
	}
}

func TestSnapshot_EndOfDayMarksValue(t *testing.T) {
	cfg := DefaultSettings()
	l, path := newTestLedger(t, cfg)
	l.OpenPosition(buySignal("AAPL", 100, 98, 103))

	marks := map[string]float64{"AAPL": 104}
	if err := l.Persist(true, marks); err != nil {
		t.Fatalf("persist: %v", err)
	}

	snap, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	_, _, available, _ := l.Stats()
	wantBalance := available + 1250*104.0
	if math.Abs(snap.EndOfDayBalance-wantBalance) > 1e-6 {
		t.Errorf("expected end-of-day balance %.2f, got %.2f", wantBalance, snap.EndOfDayBalance)
	}
	if snap.TotalValue != snap.EndOfDayBalance {
		t.Errorf("end-of-day total value mismatch: %.2f vs %.2f", snap.TotalValue, snap.EndOfDayBalance)
	}
}

func TestLoadSnapshot_MissingFile(t *testing.T) {
	snap, err := LoadSnapshot(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil || snap != nil {
		t.Errorf("expected (nil, nil) for a missing snapshot, got %v/%v", snap, err)
	}
}
