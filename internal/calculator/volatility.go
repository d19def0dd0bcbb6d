package calculator

import (
	"errors"
	"math"
)

// ReturnVolatility computes the population standard deviation of bar-to-bar
// percentage returns, expressed as a percentage. Requires at least minBars
// prices.
func ReturnVolatility(prices []float64, minBars int) (float64, error) {
	if len(prices) < minBars || len(prices) < 2 {
		return 0, errors.New("not enough data for volatility calculation")
	}

	returns := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] == 0 {
			return 0, errors.New("zero price in series")
		}
		returns = append(returns, (prices[i]-prices[i-1])/prices[i-1])
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(returns))

	return math.Sqrt(variance) * 100.0, nil
}
