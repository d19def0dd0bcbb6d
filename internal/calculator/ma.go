package calculator

import "errors"

// CalculateSMA computes the simple moving average of the given prices over the
// specified period.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}

// SMASeries returns the rolling simple moving average. The first period-1
// entries are left at zero.
func SMASeries(prices []float64, period int) []float64 {
	out := make([]float64, len(prices))
	if period <= 0 || len(prices) < period {
		return out
	}
	sum := 0.0
	for i, p := range prices {
		sum += p
		if i >= period {
			sum -= prices[i-period]
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// EMASeries returns the exponential moving average series seeded with the
// first price.
func EMASeries(prices []float64, period int) []float64 {
	if len(prices) == 0 || period <= 1 {
		return nil
	}
	k := 2.0 / (float64(period) + 1.0)
	out := make([]float64, len(prices))
	out[0] = prices[0]
	for i := 1; i < len(prices); i++ {
		out[i] = k*prices[i] + (1-k)*out[i-1]
	}
	return out
}
