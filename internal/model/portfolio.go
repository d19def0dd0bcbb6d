package model

import "time"

// CloseReason records why a position was exited.
type CloseReason string

const (
	CloseStop   CloseReason = "STOP"
	CloseTarget CloseReason = "TARGET"
)

// Position is one open long position. At most one per symbol.
// StopLoss only moves upward once TrailingActivated is true.
type Position struct {
	Symbol            string    `json:"symbol"`
	EntryTime         time.Time `json:"entry_time"`
	EntryPrice        float64   `json:"entry_price"`
	Shares            int       `json:"shares"`
	StopLoss          float64   `json:"stop_loss"`
	OriginalStopLoss  float64   `json:"original_stop_loss"`
	Target            float64   `json:"target"`
	Score             float64   `json:"score"`
	HighestPrice      float64   `json:"highest_price"`
	TrailingActivated bool      `json:"trailing_activated"`
}

// TradeRecord is one realized round trip. Append-only history.
type TradeRecord struct {
	Symbol   string      `json:"symbol"`
	PnL      float64     `json:"pnl"`
	PnLPct   float64     `json:"pnl_pct"`
	Reason   CloseReason `json:"reason"`
	ClosedAt time.Time   `json:"closed_at"`
}

// PortfolioSnapshot is the full durable portfolio state, written atomically
// after every capital-mutating operation and restored once at process start.
type PortfolioSnapshot struct {
	Timestamp        time.Time            `json:"timestamp"`
	InitialCapital   float64              `json:"initial_capital"`
	AvailableCapital float64              `json:"available_capital"`
	Positions        map[string]*Position `json:"positions"`
	TradeHistory     []TradeRecord        `json:"trade_history"`
	TotalTrades      int                  `json:"total_trades"`
	WinningTrades    int                  `json:"winning_trades"`
	TotalValue       float64              `json:"total_portfolio_value"`
	EndOfDayBalance  float64              `json:"end_of_day_balance"`
}
