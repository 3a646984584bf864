package strategy

import (
	"fmt"
	"math"

	"StockSentinel/internal/calculator"
	"StockSentinel/internal/model"
	"StockSentinel/internal/pattern"
)

// Fixed factor weights in score points.
const (
	WeightRSI        = 15
	WeightMACDSign   = 10
	WeightMACDSlope  = 5
	WeightPriceVsMA  = 5
	WeightTrend      = 10
	WeightBollinger  = 5
	WeightStochastic = 5

	RSIOversold     = 30
	RSIOverbought   = 70
	StochOversold   = 20
	StochOverbought = 80
)

// horizon is one capped percentage-change term.
type horizon struct {
	name     string
	lookback int
	mult     float64
	limit    float64
}

var horizons = []horizon{
	{"1D Change", calculator.Lookback1D, 1.0, 3},
	{"1W Change", calculator.Lookback1W, 0.5, 4},
	{"1M Change", calculator.Lookback1M, 0.25, 5},
	{"6M Change", calculator.Lookback6M, 0.1, 5},
	{"1Y Change", calculator.Lookback1Y, 0.05, 5},
}

// patternWeights are the points awarded to core pattern kinds.
var patternWeights = map[model.PatternKind]float64{
	model.KindRSIDivergence:  20,
	model.KindMACDDivergence: 20,
	model.KindSMACrossover:   20,
	model.KindMACDCrossover:  20,
	model.KindVCP:            10,
	model.KindBreakoutSetup:  10,
}

// reliabilityPoints are the points for a chart or candlestick shape.
var reliabilityPoints = map[model.Reliability]float64{
	model.ReliabilityHigh:       6,
	model.ReliabilityMediumHigh: 4,
	model.ReliabilityMedium:     2,
	model.ReliabilityLowMedium:  1,
}

func factor(name string, raw, weight float64, commentary string) model.FactorScore {
	return model.FactorScore{
		Name:       name,
		RawScore:   raw,
		Weight:     weight,
		Weighted:   round2(raw * weight),
		Commentary: commentary,
	}
}

// scoreRSI: oversold below 30, overbought above 70.
func scoreRSI(ind *model.IndicatorSet) (model.FactorScore, bool) {
	if ind.RSI14 == nil {
		return model.FactorScore{}, false
	}
	rsi := *ind.RSI14
	switch {
	case rsi < RSIOversold:
		return factor("RSI", 1, WeightRSI, fmt.Sprintf("RSI=%.1f oversold", rsi)), true
	case rsi > RSIOverbought:
		return factor("RSI", -1, WeightRSI, fmt.Sprintf("RSI=%.1f overbought", rsi)), true
	}
	return model.FactorScore{}, false
}

// scoreMACD returns the histogram sign and momentum factors.
func scoreMACD(ind *model.IndicatorSet) []model.FactorScore {
	if ind.MACD == nil {
		return nil
	}
	var out []model.FactorScore
	h := ind.MACD.Histogram
	if s := sign(h); s != 0 {
		out = append(out, factor("MACD Histogram", s, WeightMACDSign, fmt.Sprintf("histogram %+.3f", h)))
	}
	if s := sign(ind.MACD.Slope); s != 0 {
		word := "rising"
		if s < 0 {
			word = "falling"
		}
		out = append(out, factor("MACD Momentum", s, WeightMACDSlope, "histogram "+word))
	}
	return out
}

// scoreMovingAverages compares price with each defined SMA and adds the
// trend alignment bonus when price and averages are strictly ordered.
func scoreMovingAverages(price float64, ind *model.IndicatorSet) []model.FactorScore {
	var out []model.FactorScore
	for _, ma := range []struct {
		name string
		v    *float64
	}{
		{"SMA20", ind.SMA20},
		{"SMA50", ind.SMA50},
		{"SMA200", ind.SMA200},
	} {
		if ma.v == nil {
			continue
		}
		if s := sign(price - *ma.v); s != 0 {
			word := "above"
			if s < 0 {
				word = "below"
			}
			out = append(out, factor("Price vs "+ma.name, s, WeightPriceVsMA,
				fmt.Sprintf("price %s %s %.2f", word, ma.name, *ma.v)))
		}
	}

	if ind.SMA20 == nil || ind.SMA50 == nil {
		return out
	}
	chain := []float64{price, *ind.SMA20, *ind.SMA50}
	label := "price > SMA20 > SMA50"
	if ind.SMA200 != nil {
		chain = append(chain, *ind.SMA200)
		label += " > SMA200"
	}
	switch {
	case ordered(chain, 1):
		out = append(out, factor("Trend Alignment", 1, WeightTrend, label))
	case ordered(chain, -1):
		out = append(out, factor("Trend Alignment", -1, WeightTrend, reverseLabel(ind.SMA200 != nil)))
	}
	return out
}

func ordered(chain []float64, dir float64) bool {
	for i := 1; i < len(chain); i++ {
		if (chain[i-1]-chain[i])*dir <= 0 {
			return false
		}
	}
	return true
}

func reverseLabel(long bool) string {
	if long {
		return "price < SMA20 < SMA50 < SMA200"
	}
	return "price < SMA20 < SMA50"
}

func scoreBollinger(price float64, ind *model.IndicatorSet) (model.FactorScore, bool) {
	b := ind.Bollinger
	if b == nil {
		return model.FactorScore{}, false
	}
	switch {
	case price < b.Lower:
		return factor("Bollinger Bands", 1, WeightBollinger, fmt.Sprintf("close below lower band %.2f", b.Lower)), true
	case price > b.Upper:
		return factor("Bollinger Bands", -1, WeightBollinger, fmt.Sprintf("close above upper band %.2f", b.Upper)), true
	}
	return model.FactorScore{}, false
}

func scoreStochastic(ind *model.IndicatorSet) (model.FactorScore, bool) {
	s := ind.Stochastic
	if s == nil {
		return model.FactorScore{}, false
	}
	switch {
	case s.K < StochOversold && s.D < StochOversold:
		return factor("Stochastic", 1, WeightStochastic, fmt.Sprintf("%%K=%.1f %%D=%.1f oversold", s.K, s.D)), true
	case s.K > StochOverbought && s.D > StochOverbought:
		return factor("Stochastic", -1, WeightStochastic, fmt.Sprintf("%%K=%.1f %%D=%.1f overbought", s.K, s.D)), true
	}
	return model.FactorScore{}, false
}

// scoreHorizons adds a capped term for each lookback the series covers.
func scoreHorizons(closes []float64) []model.FactorScore {
	var out []model.FactorScore
	for _, h := range horizons {
		pct, ok := calculator.PercentChange(closes, h.lookback)
		if !ok {
			continue
		}
		f := factor(h.name, pct, h.mult, fmt.Sprintf("%+.2f%% over %d bars", pct, h.lookback))
		f.Weighted = round2(math.Max(-h.limit, math.Min(h.limit, pct*h.mult)))
		if f.Weighted == 0 {
			continue
		}
		out = append(out, f)
	}
	return out
}

// scorePattern converts a detection into points. Shapes count only when
// includeShapes is set and their bias is directional.
func scorePattern(p model.PatternResult, includeShapes bool) (model.FactorScore, bool) {
	if !p.Detected() {
		return model.FactorScore{}, false
	}
	dir := biasSign(p.Bias)

	if w, ok := patternWeights[p.Kind]; ok {
		switch p.Kind {
		case model.KindSMACrossover, model.KindMACDCrossover:
			if p.Status != model.StatusConfirmed {
				return model.FactorScore{}, false
			}
		case model.KindVCP:
			if p.Status != model.StatusStrong {
				return model.FactorScore{}, false
			}
			dir = 1
		case model.KindBreakoutSetup:
			if p.Status != model.StatusSetup {
				return model.FactorScore{}, false
			}
			dir = 1
		}
		if dir == 0 {
			return model.FactorScore{}, false
		}
		return factor(p.Kind.Title(), dir, w, describe(p)), true
	}

	if !includeShapes || dir == 0 {
		return model.FactorScore{}, false
	}
	w, ok := reliabilityPoints[p.Reliability]
	if !ok {
		if e, found := pattern.Lookup(p.Kind); found {
			w = reliabilityPoints[e.Reliability]
		}
	}
	if w == 0 {
		return model.FactorScore{}, false
	}
	return factor(p.Kind.Title(), dir, w, describe(p)), true
}

func describe(p model.PatternResult) string {
	if p.Description != "" {
		return p.Description
	}
	return p.Status.String()
}

func biasSign(b model.Bias) float64 {
	switch b {
	case model.BiasBullish:
		return 1
	case model.BiasBearish:
		return -1
	default:
		return 0
	}
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
