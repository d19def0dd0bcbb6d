package recorder

import "PaperTrader/internal/model"

// SignalEvent captures one actionable (non-HOLD) signal.
type SignalEvent struct {
	Symbol        string
	Action        model.Action
	Score         float64
	DailyScore    float64
	HourlyScore   float64
	IntradayScore float64
	Votes         int
	Confidence    model.Confidence
	Trend         model.Trend
	EntryPrice    float64
	StopLoss      float64
	Target        float64
}

// TradeEvent captures one executed virtual order.
type TradeEvent struct {
	Symbol string
	Side   string // "BUY" or "SELL"
	Shares int
	Price  float64
	Reason string // close reason for sells, empty for buys
	PnL    float64
	PnLPct float64
}

// CycleEvent captures the portfolio at the end of one scan cycle.
type CycleEvent struct {
	ScanNumber       int
	SymbolsScanned   int
	SignalsFound     int
	OpenPositions    int
	AvailableCapital float64
	TotalValue       float64
	TotalTrades      int
	WinningTrades    int
}

// Recorder persists historical data for analysis.
type Recorder interface {
	RecordSignal(evt *SignalEvent) error
	RecordTrade(evt *TradeEvent) error
	RecordCycle(evt *CycleEvent) error
	Close() error
}
