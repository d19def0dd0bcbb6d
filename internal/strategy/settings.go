package strategy

import "PaperTrader/internal/model"

// Settings is the immutable strategy configuration passed into the engine.
// Values mirror the configuration surface: thresholds, votes, bias, weight
// profiles, volatility cutoffs, and default target/stop percentages.
type Settings struct {
	BuyThreshold   float64
	SellThreshold  float64
	MinVotes       int
	TrendBias      float64
	DefaultWeights model.Weights
	HighVolWeights model.Weights
	LowVolWeights  model.Weights
	VolatilityHigh float64
	VolatilityLow  float64
	TargetPercent  float64 // e.g. 3.0 means +3%
	StopPercent    float64 // e.g. 2.0 means -2%
	MinRows        map[model.Timeframe]int
}

// DefaultSettings returns the stock configuration.
func DefaultSettings() Settings {
	return Settings{
		BuyThreshold:   55,
		SellThreshold:  45,
		MinVotes:       2,
		TrendBias:      10,
		DefaultWeights: model.Weights{Daily: 0.30, Hourly: 0.40, Intraday: 0.30},
		HighVolWeights: model.Weights{Daily: 0.20, Hourly: 0.35, Intraday: 0.45},
		LowVolWeights:  model.Weights{Daily: 0.40, Hourly: 0.40, Intraday: 0.20},
		VolatilityHigh: 2.0,
		VolatilityLow:  0.5,
		TargetPercent:  3.0,
		StopPercent:    2.0,
		MinRows: map[model.Timeframe]int{
			model.TimeframeDaily: 20,
			model.Timeframe60Min: 40,
			model.Timeframe15Min: 40,
		},
	}
}

// MinRowsFor returns the minimum bar count required for the timeframe.
func (s Settings) MinRowsFor(tf model.Timeframe) int {
	if n, ok := s.MinRows[tf]; ok {
		return n
	}
	return 20
}
