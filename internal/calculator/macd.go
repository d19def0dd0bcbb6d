package calculator

import "errors"

// CalculateMACDHistogram computes the MACD histogram series (MACD line minus
// its signal line) with the conventional 12/26/9 parameters.
// Requires at least slow+1 prices so the histogram has two usable points for
// acceleration checks.
func CalculateMACDHistogram(prices []float64, fast, slow, signal int) ([]float64, error) {
	if fast <= 0 || slow <= fast || signal <= 0 {
		return nil, errors.New("invalid MACD periods")
	}
	if len(prices) < slow+1 {
		return nil, errors.New("not enough data for MACD calculation")
	}

	fastEMA := EMASeries(prices, fast)
	slowEMA := EMASeries(prices, slow)

	macd := make([]float64, len(prices))
	for i := range prices {
		macd[i] = fastEMA[i] - slowEMA[i]
	}

	signalLine := EMASeries(macd, signal)
	hist := make([]float64, len(prices))
	for i := range prices {
		hist[i] = macd[i] - signalLine[i]
	}
	return hist, nil
}
