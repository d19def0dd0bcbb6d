package portfolio

import (
	"math"

	"PaperTrader/internal/model"
)

// RolloverPolicy decides what a restored portfolio keeps across a new
// trading day.
type RolloverPolicy string

const (
	// RolloverReset starts a new day from the prior end-of-day balance with
	// no positions and fresh session counters.
	RolloverReset RolloverPolicy = "reset"
	// RolloverCarry restores the snapshot unchanged, positions included.
	RolloverCarry RolloverPolicy = "carry"
)

// Settings is the immutable portfolio configuration.
// TransactionCost, Slippage, TrailingPercent, and ActivationPercent are
// decimal fractions (0.002 = 0.2%).
type Settings struct {
	InitialCapital    float64
	RiskPerTrade      float64
	MaxPositions      int
	TransactionCost   float64
	Slippage          float64
	TrailingEnabled   bool
	TrailingPercent   float64
	ActivationPercent float64
	DayRollover       RolloverPolicy
}

// DefaultSettings returns the stock portfolio configuration.
func DefaultSettings() Settings {
	return Settings{
		InitialCapital:    250000,
		RiskPerTrade:      0.01,
		MaxPositions:      20,
		TransactionCost:   0.002,
		Slippage:          0.001,
		TrailingEnabled:   true,
		TrailingPercent:   0.02,
		ActivationPercent: 0.015,
		DayRollover:       RolloverReset,
	}
}

// SizePosition returns the share count for a new entry: the capital at risk
// divided by the per-share risk, floored. Zero when the stop is not below the
// entry.
func SizePosition(availableCapital, riskPerTrade, entryPrice, stopLoss float64) int {
	riskPerShare := entryPrice - stopLoss
	if riskPerShare <= 0 {
		return 0
	}
	return int(math.Floor(availableCapital * riskPerTrade / riskPerShare))
}

// UpdateTrailing advances the trailing-stop state machine for one tick:
// tracks the high-water mark, arms trailing once unrealized profit reaches
// the activation fraction (idempotent), and while armed ratchets the stop to
// highest*(1-trailing) — upward only.
func UpdateTrailing(pos *model.Position, currentPrice float64, s Settings) (activated, raised bool) {
	if !s.TrailingEnabled || currentPrice <= 0 {
		return false, false
	}

	if currentPrice > pos.HighestPrice {
		pos.HighestPrice = currentPrice
	}

	profit := (currentPrice - pos.EntryPrice) / pos.EntryPrice
	if !pos.TrailingActivated && profit >= s.ActivationPercent {
		pos.TrailingActivated = true
		activated = true
	}

	if pos.TrailingActivated {
		newStop := pos.HighestPrice * (1 - s.TrailingPercent)
		if newStop > pos.StopLoss {
			pos.StopLoss = newStop
			raised = true
		}
	}
	return activated, raised
}

// ExitReason reports whether the position must close at the current price.
// Stop takes precedence over target.
func ExitReason(pos *model.Position, currentPrice float64) (model.CloseReason, bool) {
	switch {
	case currentPrice <= pos.StopLoss:
		return model.CloseStop, true
	case currentPrice >= pos.Target:
		return model.CloseTarget, true
	}
	return "", false
}

// Liquidation computes the cash proceeds and realized P&L of closing a
// position at the quoted price, net of slippage and transaction costs on
// both legs.
func Liquidation(pos *model.Position, quotedPrice float64, s Settings) (proceeds, pnl, pnlPct float64) {
	exitPrice := quotedPrice * (1 - s.Slippage)
	shares := float64(pos.Shares)
	proceeds = shares * exitPrice * (1 - s.TransactionCost)
	cost := shares * pos.EntryPrice * (1 + s.TransactionCost)
	pnl = proceeds - cost
	if cost != 0 {
		pnlPct = pnl / cost * 100
	}
	return proceeds, pnl, pnlPct
}

// EntryCost returns the cash required to open the position, transaction cost
// included.
func EntryCost(shares int, entryPrice float64, s Settings) float64 {
	return float64(shares) * entryPrice * (1 + s.TransactionCost)
}
