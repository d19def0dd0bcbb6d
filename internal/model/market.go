package model

import "time"

// Timeframe identifies one of the three analysis resolutions.
type Timeframe string

const (
	TimeframeDaily Timeframe = "daily"
	Timeframe60Min Timeframe = "60min"
	Timeframe15Min Timeframe = "15min"
)

// Timeframes lists all resolutions in descending bar size.
var Timeframes = []Timeframe{TimeframeDaily, Timeframe60Min, Timeframe15Min}

// Bar represents a single OHLCV candlestick. Immutable once produced.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// MTFData holds the three bar series for one symbol, each ascending by timestamp.
type MTFData struct {
	Symbol   string
	Daily    []Bar
	Hourly   []Bar
	Intraday []Bar // 15-minute bars
}

// Series returns the bar slice for the given timeframe.
func (d *MTFData) Series(tf Timeframe) []Bar {
	switch tf {
	case TimeframeDaily:
		return d.Daily
	case Timeframe60Min:
		return d.Hourly
	default:
		return d.Intraday
	}
}

// SetSeries replaces the bar slice for the given timeframe.
func (d *MTFData) SetSeries(tf Timeframe, bars []Bar) {
	switch tf {
	case TimeframeDaily:
		d.Daily = bars
	case Timeframe60Min:
		d.Hourly = bars
	default:
		d.Intraday = bars
	}
}

// Closes extracts the close column from a bar series.
func Closes(bars []Bar) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}
