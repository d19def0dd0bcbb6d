package strategy

import (
	"PaperTrader/internal/calculator"
	"PaperTrader/internal/model"
)

// AnalyzeHourly scores the intermediate trend from RSI, MACD momentum,
// Bollinger position, and volume confirmation. Each sub-indicator only
// contributes when its minimum bar count is met, so a short series degrades
// toward the neutral 50 instead of failing.
func AnalyzeHourly(bars []model.Bar) model.AnalysisResult {
	result := model.AnalysisResult{Score: 50}
	closes := model.Closes(bars)
	score := 50.0

	// RSI(14): oversold/overbought jumps, linear pull toward neutral otherwise.
	if len(closes) >= 15 {
		if rsi, err := calculator.CalculateRSI(closes, 14); err == nil {
			switch {
			case rsi < 30:
				score += 20
			case rsi > 70:
				score -= 20
			default:
				score += (50 - rsi) / 2
			}
		}
	}

	// MACD histogram sign and acceleration.
	if hist, err := calculator.CalculateMACDHistogram(closes, 12, 26, 9); err == nil && len(hist) >= 2 {
		last, prev := hist[len(hist)-1], hist[len(hist)-2]
		if last > 0 && last > prev {
			score += 15
		} else if last < 0 && last < prev {
			score -= 15
		}
	}

	// Bollinger Bands double as the support/resistance estimate.
	if upper, _, lower, err := calculator.CalculateBollinger(closes, 20, 2); err == nil {
		result.Support = lower
		result.Resistance = upper
		current := closes[len(closes)-1]
		if current < lower {
			score += 15
		} else if current > upper {
			score -= 15
		}
	}

	// Volume confirmation: expansion beyond 1.5x average in the direction of
	// the latest close-over-close move.
	if len(bars) >= 20 {
		volumes := make([]float64, len(bars))
		for i, b := range bars {
			volumes[i] = b.Volume
		}
		if volSMA, err := calculator.CalculateSMA(volumes, 20); err == nil && volSMA > 0 {
			if volumes[len(volumes)-1] > volSMA*1.5 && len(closes) >= 2 {
				if closes[len(closes)-1] > closes[len(closes)-2] {
					score += 10
				} else {
					score -= 10
				}
			}
		}
	}

	result.Score = clampScore(score)
	return result
}

func clampScore(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}
