package strategy

import (
	"PaperTrader/internal/calculator"
	"PaperTrader/internal/model"
)

const volatilityMinBars = 20

// SelectWeights picks the timeframe weight triple for the current volatility
// regime, measured as the stdev of 15-minute percentage returns. Deterministic:
// the same series and settings always yield the same profile, and a series too
// short to measure falls back to the default profile.
func SelectWeights(intradayCloses []float64, s Settings) model.Weights {
	vol, err := calculator.ReturnVolatility(intradayCloses, volatilityMinBars)
	if err != nil {
		return s.DefaultWeights
	}
	return profileFor(vol, s)
}

// profileFor maps a volatility reading onto a weight profile. Both cutoffs
// are exclusive: a reading sitting exactly on a threshold keeps the default
// profile.
func profileFor(vol float64, s Settings) model.Weights {
	switch {
	case vol > s.VolatilityHigh:
		return s.HighVolWeights
	case vol < s.VolatilityLow:
		return s.LowVolWeights
	default:
		return s.DefaultWeights
	}
}
