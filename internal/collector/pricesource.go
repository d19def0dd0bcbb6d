package collector

import (
	"errors"
	"time"

	"github.com/rs/zerolog"

	"PaperTrader/internal/model"
)

var (
	// ErrNoPrice means no live or cached price exists for the symbol.
	ErrNoPrice = errors.New("no price available")
	// ErrStalePrice means the only available price is older than the
	// configured staleness bound and must not be used for trading.
	ErrStalePrice = errors.New("price too stale for trading")
)

// PriceSourceSettings bounds live-price usage.
type PriceSourceSettings struct {
	CacheTTL    time.Duration // reuse a live quote this long before refetching
	MaxPriceAge time.Duration // reject any fallback price older than this
	MaxRequests int           // provider request budget per window
	Window      time.Duration
}

// DefaultPriceSourceSettings mirrors the provider's documented rate limits
// conservatively.
func DefaultPriceSourceSettings() PriceSourceSettings {
	return PriceSourceSettings{
		CacheTTL:    30 * time.Second,
		MaxPriceAge: 24 * time.Hour,
		MaxRequests: 2,
		Window:      time.Second,
	}
}

type quote struct {
	price float64
	at    time.Time
}

// PriceSource serves the scan loop's price lookups: live quotes memoised for
// a short TTL, a local request counter against the provider's rate limit, and
// a bar-derived fallback that is rejected once it crosses the staleness bound.
// Accessed only from the scan loop goroutine.
type PriceSource struct {
	fetcher Fetcher
	cfg     PriceSourceSettings
	log     zerolog.Logger

	quotes      map[string]quote // live quotes
	fallbacks   map[string]quote // latest 15-minute closes seeded by the scan
	windowStart time.Time
	requests    int
}

// NewPriceSource creates a PriceSource over a fetcher.
func NewPriceSource(fetcher Fetcher, cfg PriceSourceSettings, logger zerolog.Logger) *PriceSource {
	return &PriceSource{
		fetcher:   fetcher,
		cfg:       cfg,
		log:       logger.With().Str("component", "prices").Logger(),
		quotes:    make(map[string]quote),
		fallbacks: make(map[string]quote),
	}
}

// Seed records the latest bar close as the fallback price for a symbol.
// Wired to the collector's intraday callback, so every 15-minute series
// loaded for analysis refreshes the fallback without a provider request;
// Price's last-resort fetch also lands here.
func (p *PriceSource) Seed(symbol string, bars []model.Bar) {
	if len(bars) == 0 {
		return
	}
	last := bars[len(bars)-1]
	p.fallbacks[symbol] = quote{price: last.Close, at: last.Time}
}

// Price returns the best usable price for the symbol at `now`:
// a fresh cached quote, then a live fetch within the rate budget, then the
// last known price if younger than the staleness bound.
func (p *PriceSource) Price(symbol string, now time.Time) (float64, error) {
	if q, ok := p.quotes[symbol]; ok && now.Sub(q.at) <= p.cfg.CacheTTL {
		return q.price, nil
	}

	if p.allow(now) {
		price, at, err := p.fetcher.FetchLatestPrice(symbol)
		if err == nil && price > 0 {
			if at.IsZero() {
				at = now
			}
			p.quotes[symbol] = quote{price: price, at: at}
			return price, nil
		}
		if err != nil {
			p.log.Debug().Err(err).Str("symbol", symbol).Msg("live price failed, falling back")
		}
	}

	best, ok := p.lastKnown(symbol)
	if !ok || now.Sub(best.at) > p.cfg.CacheTTL {
		// Last resort: the latest cached bar close, one request if the
		// budget allows it.
		if p.allow(now) {
			if bars, err := p.fetcher.FetchBars(symbol, model.Timeframe15Min, 2); err == nil {
				p.Seed(symbol, bars)
			}
		}
		best, ok = p.lastKnown(symbol)
	}
	if !ok {
		return 0, ErrNoPrice
	}
	if now.Sub(best.at) > p.cfg.MaxPriceAge {
		p.log.Warn().Str("symbol", symbol).
			Time("as_of", best.at).
			Dur("age", now.Sub(best.at)).
			Msg("rejecting stale fallback price")
		return 0, ErrStalePrice
	}
	return best.price, nil
}

func (p *PriceSource) lastKnown(symbol string) (quote, bool) {
	q, okQ := p.quotes[symbol]
	f, okF := p.fallbacks[symbol]
	switch {
	case okQ && okF:
		if f.at.After(q.at) {
			return f, true
		}
		return q, true
	case okQ:
		return q, true
	case okF:
		return f, true
	}
	return quote{}, false
}

// allow tracks the local request window; false means the budget for the
// current window is spent.
func (p *PriceSource) allow(now time.Time) bool {
	if now.Sub(p.windowStart) >= p.cfg.Window {
		p.windowStart = now
		p.requests = 0
	}
	if p.requests >= p.cfg.MaxRequests {
		return false
	}
	p.requests++
	return true
}
