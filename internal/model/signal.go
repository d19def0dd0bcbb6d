package model

import "time"

// Trend is the daily-timeframe trend classification.
type Trend string

const (
	TrendUp      Trend = "UP"
	TrendDown    Trend = "DOWN"
	TrendNeutral Trend = "NEUTRAL"
)

// Action is the final trading decision for a symbol.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// Confidence grades a non-HOLD signal by vote unanimity.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// HoldReason explains why a cycle produced no actionable signal.
// Machine-readable so the scan loop can log and record it without parsing text.
type HoldReason string

const (
	HoldNone             HoldReason = ""
	HoldInsufficientData HoldReason = "INSUFFICIENT_DATA"
	HoldAnalysisError    HoldReason = "ANALYSIS_ERROR"
	HoldTrendFilter      HoldReason = "TREND_FILTER"
	HoldThresholdMiss    HoldReason = "THRESHOLD_MISS"
	HoldInconclusive     HoldReason = "INCONCLUSIVE"
)

// AnalysisResult is the output of a single-timeframe scorer.
// Trend is populated by the daily scorer only; Support and Resistance by the
// hourly scorer only.
type AnalysisResult struct {
	Score      float64 // 0-100
	Trend      Trend
	Support    float64
	Resistance float64
}

// Weights is the per-timeframe weight triple selected by the volatility regime.
type Weights struct {
	Daily    float64 `yaml:"daily"`
	Hourly   float64 `yaml:"60min"`
	Intraday float64 `yaml:"15min"`
}

// Sum returns the total of all three weights.
func (w Weights) Sum() float64 { return w.Daily + w.Hourly + w.Intraday }

// ComponentScores carries the raw 0-100 score of each timeframe.
type ComponentScores struct {
	Daily    float64
	Hourly   float64
	Intraday float64
}

// Signal is the decision engine output for one symbol in one cycle.
// Pure value, derived fresh each cycle; it has no persisted identity.
type Signal struct {
	Symbol     string
	Timestamp  time.Time
	Action     Action
	Score      float64
	Components ComponentScores
	Votes      int // bullish component count, 0-3
	Confidence Confidence
	Trend      Trend
	Weights    Weights
	EntryPrice float64
	StopLoss   float64
	Target     float64
	Reason     HoldReason
}
