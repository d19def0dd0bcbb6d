package collector

import (
	"time"

	"PaperTrader/internal/model"
)

// Fetcher defines the interface to an external market data provider.
// Bars are returned ascending by timestamp.
type Fetcher interface {
	FetchBars(symbol string, tf model.Timeframe, limit int) ([]model.Bar, error)
	FetchLatestPrice(symbol string) (price float64, at time.Time, err error)
	Name() string
}

// MockFetcher returns controllable synthetic data for development and testing.
type MockFetcher struct {
	Price float64
	Bars  map[model.Timeframe][]model.Bar
	Err   error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchBars(_ string, tf model.Timeframe, limit int) ([]model.Bar, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if bars, ok := m.Bars[tf]; ok {
		return bars, nil
	}
	return GenerateBars(m.Price, limit, stepFor(tf)), nil
}

func (m *MockFetcher) FetchLatestPrice(_ string) (float64, time.Time, error) {
	if m.Err != nil {
		return 0, time.Time{}, m.Err
	}
	return m.Price, time.Now(), nil
}

func stepFor(tf model.Timeframe) time.Duration {
	switch tf {
	case model.TimeframeDaily:
		return 24 * time.Hour
	case model.Timeframe60Min:
		return time.Hour
	default:
		return 15 * time.Minute
	}
}

// GenerateBars builds a gently trending synthetic series ending now.
func GenerateBars(basePrice float64, count int, step time.Duration) []model.Bar {
	bars := make([]model.Bar, count)
	now := time.Now().Truncate(step)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.Bar{
			Time:   now.Add(-time.Duration(count-1-i) * step),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}
