package strategy

import (
	"PaperTrader/internal/calculator"
	"PaperTrader/internal/model"
)

// AnalyzeDaily classifies the primary trend from moving-average ordering.
// With 200+ bars it uses the 50/200 pair; with 50-199 bars it falls back to
// the 20/50 pair at slightly weaker scores; below 50 bars it stays neutral.
func AnalyzeDaily(bars []model.Bar) model.AnalysisResult {
	result := model.AnalysisResult{Score: 50, Trend: model.TrendNeutral}

	closes := model.Closes(bars)
	switch {
	case len(closes) >= 200:
		ma50, err1 := calculator.CalculateSMA(closes, 50)
		ma200, err2 := calculator.CalculateSMA(closes, 200)
		if err1 != nil || err2 != nil {
			return result
		}
		current := closes[len(closes)-1]
		if current > ma50 && ma50 > ma200 {
			result.Trend = model.TrendUp
			result.Score = 75
		} else if current < ma50 && ma50 < ma200 {
			result.Trend = model.TrendDown
			result.Score = 25
		}
	case len(closes) >= 50:
		ma20, err1 := calculator.CalculateSMA(closes, 20)
		ma50, err2 := calculator.CalculateSMA(closes, 50)
		if err1 != nil || err2 != nil {
			return result
		}
		current := closes[len(closes)-1]
		if current > ma20 && ma20 > ma50 {
			result.Trend = model.TrendUp
			result.Score = 70
		} else if current < ma20 && ma20 < ma50 {
			result.Trend = model.TrendDown
			result.Score = 30
		}
	}
	return result
}
