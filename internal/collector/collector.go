package collector

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"PaperTrader/internal/model"
)

// Default bar counts requested per timeframe. Daily covers the 200-period
// moving average with headroom.
var defaultLimits = map[model.Timeframe]int{
	model.TimeframeDaily: 300,
	model.Timeframe60Min: 120,
	model.Timeframe15Min: 120,
}

const refillTTL = 10 * time.Minute

type refill struct {
	bars      []model.Bar
	fetchedAt time.Time
}

// Collector fetches multi-timeframe series through a Fetcher and implements
// the strategy engine's DataLoader, including the one-shot extended refill
// used when a symbol comes up short.
type Collector struct {
	fetcher    Fetcher
	log        zerolog.Logger
	refills    map[string]refill // symbol/timeframe -> extended fetch
	onIntraday func(symbol string, bars []model.Bar)
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, logger zerolog.Logger) *Collector {
	return &Collector{
		fetcher: fetcher,
		log:     logger.With().Str("component", "collector").Logger(),
		refills: make(map[string]refill),
	}
}

// OnIntraday registers a callback invoked with every 15-minute series loaded
// through LoadMTF, so the price source can reuse bars already on hand instead
// of spending a rate-limited request.
func (c *Collector) OnIntraday(fn func(symbol string, bars []model.Bar)) {
	c.onIntraday = fn
}

// LoadMTF fetches all three series for a symbol. A timeframe that fails to
// fetch is left empty so downstream validation can name it; the call errors
// only when every timeframe fails.
func (c *Collector) LoadMTF(symbol string) (model.MTFData, error) {
	data := model.MTFData{Symbol: symbol}
	failures := 0
	for _, tf := range model.Timeframes {
		if r, ok := c.refills[refillKey(symbol, tf)]; ok && time.Since(r.fetchedAt) < refillTTL {
			data.SetSeries(tf, r.bars)
			c.notifyIntraday(symbol, tf, r.bars)
			continue
		}
		bars, err := c.fetcher.FetchBars(symbol, tf, defaultLimits[tf])
		if err != nil {
			c.log.Debug().Err(err).Str("symbol", symbol).Str("timeframe", string(tf)).Msg("fetch failed")
			failures++
			continue
		}
		data.SetSeries(tf, bars)
		c.notifyIntraday(symbol, tf, bars)
	}
	if failures == len(model.Timeframes) {
		return data, fmt.Errorf("all timeframes failed for %s", symbol)
	}
	return data, nil
}

func (c *Collector) notifyIntraday(symbol string, tf model.Timeframe, bars []model.Bar) {
	if c.onIntraday != nil && tf == model.Timeframe15Min && len(bars) > 0 {
		c.onIntraday(symbol, bars)
	}
}

// Refresh re-pulls the missing timeframes with doubled limits and keeps the
// result for subsequent LoadMTF calls. Reports whether any attempt was made.
func (c *Collector) Refresh(symbol string, missing []model.Timeframe) bool {
	attempted := false
	for _, tf := range missing {
		bars, err := c.fetcher.FetchBars(symbol, tf, defaultLimits[tf]*2)
		attempted = true
		if err != nil {
			c.log.Debug().Err(err).Str("symbol", symbol).Str("timeframe", string(tf)).Msg("refill failed")
			continue
		}
		c.refills[refillKey(symbol, tf)] = refill{bars: bars, fetchedAt: time.Now()}
	}
	return attempted
}

func refillKey(symbol string, tf model.Timeframe) string {
	return symbol + "/" + string(tf)
}
