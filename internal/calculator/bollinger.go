package calculator

import (
	"errors"
	"math"
)

// CalculateBollinger computes Bollinger Bands over the most recent period
// prices: the middle band (SMA) plus upper/lower bands at width population
// standard deviations.
func CalculateBollinger(prices []float64, period int, width float64) (upper, middle, lower float64, err error) {
	if period <= 0 {
		return 0, 0, 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, 0, 0, errors.New("not enough data for Bollinger calculation")
	}

	window := prices[len(prices)-period:]
	sum := 0.0
	for _, p := range window {
		sum += p
	}
	middle = sum / float64(period)

	variance := 0.0
	for _, p := range window {
		d := p - middle
		variance += d * d
	}
	sd := math.Sqrt(variance / float64(period))

	return middle + width*sd, middle, middle - width*sd, nil
}
