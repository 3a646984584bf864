package pattern

import (
	"sort"

	"StockSentinel/internal/calculator"
	"StockSentinel/internal/model"
)

// Detect runs every detector against a series and its indicator history.
// Core kinds are always reported, with status none when absent; shapes are
// reported only when they match. The output is sorted by kind.
func Detect(series *model.BarSeries, ind *calculator.Series, opts Options) []model.PatternResult {
	opts = opts.withDefaults()
	if series == nil || ind == nil {
		return nil
	}
	closes := ind.Closes
	bars := series.Bars

	vcp := VolatilityContraction(bars, opts)
	out := []model.PatternResult{
		Divergence(model.KindRSIDivergence, closes, ind.RSI, opts),
		Divergence(model.KindMACDDivergence, closes, ind.MACD.Line, opts),
		Crossover(model.KindSMACrossover, ind.SMA20, ind.SMA50, opts),
		Crossover(model.KindMACDCrossover, ind.MACD.Line, ind.MACD.Signal, opts),
		vcp,
		BreakoutSetup(bars, vcp, opts),
	}
	out = append(out, ChartShapes(bars, opts)...)
	out = append(out, Candlesticks(bars)...)

	sort.SliceStable(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out
}

// Find returns the result for kind, if present.
func Find(results []model.PatternResult, kind model.PatternKind) (model.PatternResult, bool) {
	for _, r := range results {
		if r.Kind == kind {
			return r, true
		}
	}
	return model.PatternResult{}, false
}
