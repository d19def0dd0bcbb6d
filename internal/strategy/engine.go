package strategy

import (
	"time"

	"github.com/rs/zerolog"

	"PaperTrader/internal/market"
	"PaperTrader/internal/model"
)

// DataLoader supplies multi-timeframe bar series for a symbol. Refresh asks
// the backing source to re-pull the named timeframes; it reports whether a
// refresh was attempted.
type DataLoader interface {
	LoadMTF(symbol string) (model.MTFData, error)
	Refresh(symbol string, missing []model.Timeframe) bool
}

// Engine turns synchronized multi-timeframe data into trading signals.
// Analyze never panics or aborts a cycle: data problems degrade to a HOLD
// signal carrying the reason.
type Engine struct {
	cfg    Settings
	loader DataLoader
	cal    *market.Calendar
	log    zerolog.Logger

	// Symbols whose insufficient-data condition was already reported, so the
	// warning fires once per symbol per process lifetime.
	insufficientLogged map[string]bool
}

// NewEngine creates an Engine with an immutable settings value.
func NewEngine(cfg Settings, loader DataLoader, cal *market.Calendar, logger zerolog.Logger) *Engine {
	return &Engine{
		cfg:                cfg,
		loader:             loader,
		cal:                cal,
		log:                logger.With().Str("component", "engine").Logger(),
		insufficientLogged: make(map[string]bool),
	}
}

// Analyze produces the signal for one symbol. The returned signal is always
// non-nil; on any data problem it is a HOLD with a machine-readable reason.
func (e *Engine) Analyze(symbol string) *model.Signal {
	hold := &model.Signal{
		Symbol:     symbol,
		Timestamp:  e.cal.Now(),
		Action:     model.ActionHold,
		Score:      50,
		Confidence: model.ConfidenceLow,
	}

	data, err := e.loader.LoadMTF(symbol)
	if err != nil {
		if !e.insufficientLogged[symbol] {
			e.log.Warn().Err(err).Str("symbol", symbol).Msg("load failed, holding")
			e.insufficientLogged[symbol] = true
		}
		hold.Reason = model.HoldAnalysisError
		return hold
	}
	data = Synchronize(data, e.cal)

	missing := e.validate(data)
	if len(missing) > 0 && !e.insufficientLogged[symbol] {
		// One refill attempt before the condition is suppressed for good.
		if e.loader.Refresh(symbol, missing) {
			if fresh, err := e.loader.LoadMTF(symbol); err == nil {
				data = Synchronize(fresh, e.cal)
				missing = e.validate(data)
			}
		}
	}
	if len(missing) > 0 {
		if !e.insufficientLogged[symbol] {
			e.log.Warn().Str("symbol", symbol).
				Interface("missing", missing).
				Msg("insufficient data, holding")
			e.insufficientLogged[symbol] = true
		}
		hold.Reason = model.HoldInsufficientData
		return hold
	}

	daily := AnalyzeDaily(data.Daily)
	hourly := AnalyzeHourly(data.Hourly)
	intraday := AnalyzeIntraday(data.Intraday)
	weights := SelectWeights(model.Closes(data.Intraday), e.cfg)
	currentPrice := data.Intraday[len(data.Intraday)-1].Close

	sig := Decide(symbol, daily, hourly, intraday, weights, currentPrice, e.cal.Now(), e.cfg)

	if sig.Action == model.ActionHold && sig.Reason != model.HoldNone {
		e.log.Debug().Str("symbol", symbol).
			Str("reason", string(sig.Reason)).
			Float64("score", sig.Score).
			Int("votes", sig.Votes).
			Msg("signal rejected")
	}
	return sig
}

func (e *Engine) validate(data model.MTFData) []model.Timeframe {
	var missing []model.Timeframe
	for _, tf := range model.Timeframes {
		if len(data.Series(tf)) < e.cfg.MinRowsFor(tf) {
			missing = append(missing, tf)
		}
	}
	return missing
}

// Decide is the pure decision function: component scores, regime weights, and
// the daily trend filter in, one Signal out.
func Decide(symbol string, daily, hourly, intraday model.AnalysisResult, weights model.Weights, currentPrice float64, now time.Time, s Settings) *model.Signal {
	var trendBias float64
	buyAllowed, sellAllowed := true, true
	switch daily.Trend {
	case model.TrendUp:
		trendBias = s.TrendBias
		sellAllowed = false
	case model.TrendDown:
		trendBias = -s.TrendBias
		buyAllowed = false
	}

	finalScore := daily.Score*weights.Daily +
		hourly.Score*weights.Hourly +
		intraday.Score*weights.Intraday +
		trendBias

	votes := 0
	for _, score := range []float64{daily.Score, hourly.Score, intraday.Score} {
		if score > 50 {
			votes++
		}
	}

	sig := &model.Signal{
		Symbol:    symbol,
		Timestamp: now,
		Action:    model.ActionHold,
		Score:     finalScore,
		Components: model.ComponentScores{
			Daily:    daily.Score,
			Hourly:   hourly.Score,
			Intraday: intraday.Score,
		},
		Votes:      votes,
		Confidence: model.ConfidenceLow,
		Trend:      daily.Trend,
		Weights:    weights,
	}

	switch {
	case votes >= s.MinVotes && finalScore >= s.BuyThreshold:
		if !buyAllowed {
			sig.Reason = model.HoldTrendFilter
			return sig
		}
		sig.Action = model.ActionBuy
		sig.Confidence = model.ConfidenceMedium
		if votes == 3 {
			sig.Confidence = model.ConfidenceHigh
		}
	case votes <= 1 && finalScore <= s.SellThreshold:
		if !sellAllowed {
			sig.Reason = model.HoldTrendFilter
			return sig
		}
		sig.Action = model.ActionSell
		sig.Confidence = model.ConfidenceMedium
		if votes == 0 {
			sig.Confidence = model.ConfidenceHigh
		}
	case votes >= s.MinVotes || votes <= 1:
		// Vote condition met on one side but the score never crossed its
		// threshold.
		sig.Reason = model.HoldThresholdMiss
		return sig
	default:
		sig.Reason = model.HoldInconclusive
		return sig
	}

	sig.EntryPrice = currentPrice
	if sig.Action == model.ActionBuy {
		if hourly.Support > 0 && hourly.Support < currentPrice {
			sig.StopLoss = hourly.Support
		} else {
			sig.StopLoss = currentPrice * (1 - s.StopPercent/100)
		}
		sig.Target = currentPrice * (1 + s.TargetPercent/100)
	} else {
		if hourly.Resistance > currentPrice {
			sig.StopLoss = hourly.Resistance
		} else {
			sig.StopLoss = currentPrice * (1 + s.StopPercent/100)
		}
		sig.Target = currentPrice * (1 - s.TargetPercent/100)
	}
	return sig
}
