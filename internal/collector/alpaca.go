package collector

import (
	"fmt"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"PaperTrader/internal/model"
)

// AlpacaFetcher implements Fetcher using the Alpaca market data API.
// Credentials are read from the APCA_* environment variables by the client.
type AlpacaFetcher struct {
	client *marketdata.Client
}

// NewAlpacaFetcher creates a fetcher backed by Alpaca market data.
func NewAlpacaFetcher() *AlpacaFetcher {
	return &AlpacaFetcher{client: marketdata.NewClient(marketdata.ClientOpts{})}
}

func (f *AlpacaFetcher) Name() string { return "alpaca" }

// FetchBars pulls up to limit bars for the timeframe, ending at the latest
// available bar.
func (f *AlpacaFetcher) FetchBars(symbol string, tf model.Timeframe, limit int) ([]model.Bar, error) {
	var frame marketdata.TimeFrame
	var barsPerDay int
	switch tf {
	case model.TimeframeDaily:
		frame = marketdata.OneDay
		barsPerDay = 1
	case model.Timeframe60Min:
		frame = marketdata.OneHour
		barsPerDay = 7
	case model.Timeframe15Min:
		frame = marketdata.NewTimeFrame(15, marketdata.Min)
		barsPerDay = 26
	default:
		return nil, fmt.Errorf("unknown timeframe %q", tf)
	}

	// Start far enough back that weekends and holidays still leave `limit`
	// bars between start and now.
	tradingDays := limit/barsPerDay + 1
	calendarDays := tradingDays*7/5 + 5
	start := time.Now().AddDate(0, 0, -calendarDays)

	raw, err := f.client.GetBars(symbol, marketdata.GetBarsRequest{
		TimeFrame: frame,
		Start:     start,
	})
	if err != nil {
		return nil, fmt.Errorf("alpaca bars %s/%s: %w", symbol, tf, err)
	}

	if len(raw) > limit {
		raw = raw[len(raw)-limit:]
	}
	bars := make([]model.Bar, len(raw))
	for i, b := range raw {
		bars[i] = model.Bar{
			Time:   b.Timestamp,
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: float64(b.Volume),
		}
	}
	return bars, nil
}

// FetchLatestPrice returns the most recent trade price.
func (f *AlpacaFetcher) FetchLatestPrice(symbol string) (float64, time.Time, error) {
	trade, err := f.client.GetLatestTrade(symbol, marketdata.GetLatestTradeRequest{})
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("alpaca latest trade %s: %w", symbol, err)
	}
	if trade == nil {
		return 0, time.Time{}, fmt.Errorf("no trade for %s", symbol)
	}
	return trade.Price, trade.Timestamp, nil
}
