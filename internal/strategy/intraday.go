package strategy

import (
	"PaperTrader/internal/calculator"
	"PaperTrader/internal/model"
)

// AnalyzeIntraday scores short-term entry conditions on the 15-minute series:
// 5-bar momentum, RSI(9), the slow stochastic, and 10/20 SMA alignment.
func AnalyzeIntraday(bars []model.Bar) model.AnalysisResult {
	result := model.AnalysisResult{Score: 50}
	closes := model.Closes(bars)
	score := 50.0

	if len(closes) >= 10 {
		// 5-bar return beyond +/-0.5%.
		recentMove := (closes[len(closes)-1] - closes[len(closes)-5]) / closes[len(closes)-5] * 100
		if recentMove > 0.5 {
			score += 10
		} else if recentMove < -0.5 {
			score -= 10
		}

		if rsi, err := calculator.CalculateRSI(closes, 9); err == nil {
			if rsi < 35 {
				score += 15
			} else if rsi > 65 {
				score -= 15
			}
		}
	}

	// Slow stochastic: oversold/overbought plus a bullish %K/%D crossover.
	if slowK, slowD, err := calculator.CalculateStochastic(bars, 14, 3, 3); err == nil && len(slowK) >= 2 {
		k, d := slowK[len(slowK)-1], slowD[len(slowD)-1]
		if k < 20 {
			score += 15
		} else if k > 80 {
			score -= 15
		}
		kPrev, dPrev := slowK[len(slowK)-2], slowD[len(slowD)-2]
		if k > d && kPrev <= dPrev {
			score += 10
		}
	}

	// 10/20 SMA alignment with price.
	if len(closes) >= 20 {
		sma10, err1 := calculator.CalculateSMA(closes, 10)
		sma20, err2 := calculator.CalculateSMA(closes, 20)
		if err1 == nil && err2 == nil {
			current := closes[len(closes)-1]
			if current > sma10 && sma10 > sma20 {
				score += 10
			} else if current < sma10 && sma10 < sma20 {
				score -= 10
			}
		}
	}

	result.Score = clampScore(score)
	return result
}
