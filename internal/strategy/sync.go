package strategy

import (
	"time"

	"PaperTrader/internal/market"
	"PaperTrader/internal/model"
)

// Synchronize aligns the three independently refreshed series to a common
// as-of view anchored at the latest 15-minute bar, so no returned bar carries
// information not yet available at that instant. The hourly series is cut at
// the last fully closed hour and the daily series at the last market close.
// If any series is empty the inputs are returned unchanged and downstream
// validation rejects the insufficiency.
func Synchronize(data model.MTFData, cal *market.Calendar) model.MTFData {
	if len(data.Intraday) == 0 || len(data.Hourly) == 0 || len(data.Daily) == 0 {
		return data
	}
	ref := data.Intraday[len(data.Intraday)-1].Time

	out := data
	out.Hourly = barsThrough(data.Hourly, cal.HourBoundary(ref))
	out.Daily = barsThrough(data.Daily, cal.DailyBoundary(ref))
	return out
}

// barsThrough returns the prefix of an ascending series whose timestamps are
// at or before cutoff.
func barsThrough(bars []model.Bar, cutoff time.Time) []model.Bar {
	for i := len(bars) - 1; i >= 0; i-- {
		if !bars[i].Time.After(cutoff) {
			return bars[:i+1]
		}
	}
	return bars[:0]
}
