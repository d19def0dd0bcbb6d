package scheduler

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"PaperTrader/internal/collector"
	"PaperTrader/internal/market"
	"PaperTrader/internal/model"
	"PaperTrader/internal/portfolio"
	"PaperTrader/internal/recorder"
	"PaperTrader/internal/scanner"
	"PaperTrader/internal/strategy"
)

func testScheduler(t *testing.T, ctx context.Context, price float64, scanCfg scanner.Settings) (*Scheduler, *portfolio.Ledger, string) {
	t.Helper()
	cal, err := market.NewCalendar("UTC", "00:00", "23:59")
	if err != nil {
		t.Fatalf("calendar: %v", err)
	}
	fetcher := &collector.MockFetcher{Price: price}
	col := collector.NewCollector(fetcher, zerolog.Nop())
	engine := strategy.NewEngine(strategy.DefaultSettings(), col, cal, zerolog.Nop())
	prices := collector.NewPriceSource(fetcher, collector.DefaultPriceSourceSettings(), zerolog.Nop())
	col.OnIntraday(prices.Seed)

	statePath := filepath.Join(t.TempDir(), "state.json")
	ledger, err := portfolio.NewLedger(statePath, portfolio.DefaultSettings(), cal.Location, zerolog.Nop())
	if err != nil {
		t.Fatalf("ledger: %v", err)
	}

	sc := scanner.New(engine, prices, ledger, recorder.NewNoopRecorder(), cal, scanCfg, zerolog.Nop())
	return NewScheduler(ctx, sc, ledger, zerolog.Nop()), ledger, statePath
}

func TestStop_WaitsForInFlightSession(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := scanner.Settings{
		Watchlist:       []string{"AAPL"},
		Interval:        time.Hour,
		SessionDuration: time.Hour,
		MaxNewPositions: 3,
	}
	sched, _, _ := testScheduler(t, ctx, 100, cfg)

	go sched.RunSessionNow()

	deadline := time.Now().Add(2 * time.Second)
	for !sched.running.Load() {
		if time.Now().After(deadline) {
			t.Fatal("session never started")
		}
		time.Sleep(time.Millisecond)
	}

	// Cancellation wakes the session; Stop must not return before the
	// session has finished its final persist and exited.
	cancel()
	sched.Stop()
	if sched.running.Load() {
		t.Error("Stop returned while a session was still running")
	}
}

func TestEndOfDaySnapshot_UsesSessionMarks(t *testing.T) {
	cfg := scanner.Settings{
		Watchlist:       []string{"AAPL"},
		Interval:        10 * time.Millisecond,
		SessionDuration: 30 * time.Millisecond,
		MaxNewPositions: 3,
	}
	sched, ledger, statePath := testScheduler(t, context.Background(), 101, cfg)

	// 1250 shares at 100; at 101 the position neither hits the target nor
	// arms the trailing stop, so the session leaves it open.
	opened, err := ledger.OpenPosition(&model.Signal{
		Symbol:     "AAPL",
		Action:     model.ActionBuy,
		Score:      75,
		EntryPrice: 100,
		StopLoss:   98,
		Target:     103,
	})
	if err != nil || !opened {
		t.Fatalf("seed position: %v/%v", opened, err)
	}

	sched.RunSessionNow()
	sched.eodTask()

	snap, err := portfolio.LoadSnapshot(statePath)
	if err != nil || snap == nil {
		t.Fatalf("expected end-of-day snapshot, got %v", err)
	}
	// Cash after the buy plus the position marked at the session's last
	// observed price, not its entry price.
	want := 124750.0 + 1250*101
	if snap.EndOfDayBalance != want {
		t.Errorf("expected end-of-day balance %.0f marked at the last session price, got %.0f", want, snap.EndOfDayBalance)
	}
}
