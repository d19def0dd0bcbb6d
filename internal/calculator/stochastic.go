package calculator

import (
	"errors"

	"PaperTrader/internal/model"
)

// CalculateStochastic computes the slow stochastic oscillator: raw %K over
// kPeriod highs/lows, smoothed by smoothK, with %D as a smoothD-period SMA of
// slow %K. The returned slices are aligned and at least two entries long when
// enough data is present.
func CalculateStochastic(bars []model.Bar, kPeriod, smoothK, smoothD int) (slowK, slowD []float64, err error) {
	if kPeriod <= 0 || smoothK <= 0 || smoothD <= 0 {
		return nil, nil, errors.New("periods must be positive")
	}
	need := kPeriod + smoothK + smoothD - 2
	if len(bars) < need+1 {
		return nil, nil, errors.New("not enough data for stochastic calculation")
	}

	fastK := make([]float64, 0, len(bars)-kPeriod+1)
	for i := kPeriod - 1; i < len(bars); i++ {
		hi, lo := bars[i].High, bars[i].Low
		for j := i - kPeriod + 1; j <= i; j++ {
			if bars[j].High > hi {
				hi = bars[j].High
			}
			if bars[j].Low < lo {
				lo = bars[j].Low
			}
		}
		if hi == lo {
			fastK = append(fastK, 50.0)
			continue
		}
		fastK = append(fastK, (bars[i].Close-lo)/(hi-lo)*100.0)
	}

	slowK = rollingMean(fastK, smoothK)
	slowD = rollingMean(slowK, smoothD)
	// Align %K to %D length (drop the leading values %D could not cover).
	slowK = slowK[len(slowK)-len(slowD):]
	return slowK, slowD, nil
}

func rollingMean(vals []float64, period int) []float64 {
	out := make([]float64, 0, len(vals)-period+1)
	sum := 0.0
	for i, v := range vals {
		sum += v
		if i >= period {
			sum -= vals[i-period]
		}
		if i >= period-1 {
			out = append(out, sum/float64(period))
		}
	}
	return out
}
