package strategy

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"PaperTrader/internal/collector"
	"PaperTrader/internal/model"
)

func TestDecide_AlignedBullishTimeframes(t *testing.T) {
	s := DefaultSettings()
	daily := model.AnalysisResult{Score: 75, Trend: model.TrendUp}
	hourly := model.AnalysisResult{Score: 80, Support: 95, Resistance: 110}
	intraday := model.AnalysisResult{Score: 70}

	sig := Decide("AAPL", daily, hourly, intraday, s.DefaultWeights, 100, time.Now(), s)

	// 0.30*75 + 0.40*80 + 0.30*70 + 10 trend bias
	want := 85.5
	if math.Abs(sig.Score-want) > 1e-9 {
		t.Errorf("expected score %.1f, got %.4f", want, sig.Score)
	}
	if sig.Action != model.ActionBuy {
		t.Fatalf("expected BUY, got %s (%s)", sig.Action, sig.Reason)
	}
	if sig.Votes != 3 || sig.Confidence != model.ConfidenceHigh {
		t.Errorf("expected 3 votes / high confidence, got %d / %s", sig.Votes, sig.Confidence)
	}
	if sig.StopLoss != 95 {
		t.Errorf("expected stop at hourly support 95, got %.2f", sig.StopLoss)
	}
	if math.Abs(sig.Target-103) > 1e-9 {
		t.Errorf("expected target 103, got %.4f", sig.Target)
	}
}

func TestDecide_DefaultStopWithoutSupport(t *testing.T) {
	s := DefaultSettings()
	daily := model.AnalysisResult{Score: 75, Trend: model.TrendUp}
	hourly := model.AnalysisResult{Score: 80}
	intraday := model.AnalysisResult{Score: 70}

	sig := Decide("AAPL", daily, hourly, intraday, s.DefaultWeights, 100, time.Now(), s)
	if sig.Action != model.ActionBuy {
		t.Fatalf("expected BUY, got %s", sig.Action)
	}
	if math.Abs(sig.StopLoss-98) > 1e-9 {
		t.Errorf("expected percentage stop 98, got %.4f", sig.StopLoss)
	}
}

func TestDecide_UptrendBlocksSell(t *testing.T) {
	s := DefaultSettings()
	daily := model.AnalysisResult{Score: 40, Trend: model.TrendUp}
	hourly := model.AnalysisResult{Score: 30}
	intraday := model.AnalysisResult{Score: 30}

	sig := Decide("AAPL", daily, hourly, intraday, s.DefaultWeights, 100, time.Now(), s)
	if sig.Action != model.ActionHold {
		t.Fatalf("a SELL against an UP daily trend must be suppressed, got %s", sig.Action)
	}
	if sig.Reason != model.HoldTrendFilter {
		t.Errorf("expected TREND_FILTER, got %s", sig.Reason)
	}
}

func TestDecide_DowntrendBlocksBuy(t *testing.T) {
	s := DefaultSettings()
	daily := model.AnalysisResult{Score: 60, Trend: model.TrendDown}
	hourly := model.AnalysisResult{Score: 80}
	intraday := model.AnalysisResult{Score: 80}

	sig := Decide("AAPL", daily, hourly, intraday, s.DefaultWeights, 100, time.Now(), s)
	if sig.Action != model.ActionHold || sig.Reason != model.HoldTrendFilter {
		t.Errorf("expected TREND_FILTER hold, got %s (%s)", sig.Action, sig.Reason)
	}
}

func TestDecide_UnanimousBearishSell(t *testing.T) {
	s := DefaultSettings()
	daily := model.AnalysisResult{Score: 25, Trend: model.TrendDown}
	hourly := model.AnalysisResult{Score: 30, Support: 90, Resistance: 105}
	intraday := model.AnalysisResult{Score: 40}

	sig := Decide("AAPL", daily, hourly, intraday, s.DefaultWeights, 100, time.Now(), s)
	if sig.Action != model.ActionSell {
		t.Fatalf("expected SELL, got %s (%s)", sig.Action, sig.Reason)
	}
	if sig.Votes != 0 || sig.Confidence != model.ConfidenceHigh {
		t.Errorf("expected 0 votes / high confidence, got %d / %s", sig.Votes, sig.Confidence)
	}
	if sig.StopLoss != 105 {
		t.Errorf("expected stop at hourly resistance 105, got %.2f", sig.StopLoss)
	}
	if math.Abs(sig.Target-97) > 1e-9 {
		t.Errorf("expected target 97, got %.4f", sig.Target)
	}
}

func TestDecide_ThresholdMiss(t *testing.T) {
	s := DefaultSettings()
	// Three bullish votes but the weighted score never crosses the buy line.
	daily := model.AnalysisResult{Score: 51, Trend: model.TrendNeutral}
	hourly := model.AnalysisResult{Score: 51}
	intraday := model.AnalysisResult{Score: 51}

	sig := Decide("AAPL", daily, hourly, intraday, s.DefaultWeights, 100, time.Now(), s)
	if sig.Action != model.ActionHold || sig.Reason != model.HoldThresholdMiss {
		t.Errorf("expected THRESHOLD_MISS hold, got %s (%s)", sig.Action, sig.Reason)
	}
}

type stubLoader struct {
	data      model.MTFData
	err       error
	refreshes int
}

func (s *stubLoader) LoadMTF(string) (model.MTFData, error) { return s.data, s.err }

func (s *stubLoader) Refresh(string, []model.Timeframe) bool {
	s.refreshes++
	return true
}

func TestAnalyze_LoadFailureHolds(t *testing.T) {
	cal := testCalendar(t)
	loader := &stubLoader{err: errors.New("provider down")}
	e := NewEngine(DefaultSettings(), loader, cal, zerolog.Nop())

	sig := e.Analyze("AAPL")
	if sig == nil {
		t.Fatal("Analyze must never return nil")
	}
	if sig.Action != model.ActionHold || sig.Reason != model.HoldAnalysisError {
		t.Errorf("expected ANALYSIS_ERROR hold, got %s (%s)", sig.Action, sig.Reason)
	}
}

func TestAnalyze_InsufficientDataRefreshesOnce(t *testing.T) {
	cal := testCalendar(t)
	loader := &stubLoader{data: model.MTFData{Symbol: "AAPL"}} // all series empty
	e := NewEngine(DefaultSettings(), loader, cal, zerolog.Nop())

	sig := e.Analyze("AAPL")
	if sig.Action != model.ActionHold || sig.Reason != model.HoldInsufficientData {
		t.Fatalf("expected INSUFFICIENT_DATA hold, got %s (%s)", sig.Action, sig.Reason)
	}
	if loader.refreshes != 1 {
		t.Errorf("expected exactly one refill attempt, got %d", loader.refreshes)
	}

	// Subsequent cycles keep holding without hammering the provider.
	e.Analyze("AAPL")
	e.Analyze("AAPL")
	if loader.refreshes != 1 {
		t.Errorf("refill must not repeat once reported, got %d attempts", loader.refreshes)
	}
}

func TestAnalyze_FullPipelineWithMockData(t *testing.T) {
	cal := testCalendar(t)
	col := collector.NewCollector(&collector.MockFetcher{Price: 100}, zerolog.Nop())
	e := NewEngine(DefaultSettings(), col, cal, zerolog.Nop())

	sig := e.Analyze("AAPL")
	if sig == nil {
		t.Fatal("Analyze must never return nil")
	}
	if sig.Symbol != "AAPL" {
		t.Errorf("expected symbol AAPL, got %q", sig.Symbol)
	}
	switch sig.Action {
	case model.ActionBuy, model.ActionSell, model.ActionHold:
	default:
		t.Errorf("unexpected action %q", sig.Action)
	}
	if sig.Action != model.ActionHold && (sig.EntryPrice <= 0 || sig.StopLoss <= 0 || sig.Target <= 0) {
		t.Errorf("actionable signal must carry pricing, got entry=%.2f stop=%.2f target=%.2f",
			sig.EntryPrice, sig.StopLoss, sig.Target)
	}
}
