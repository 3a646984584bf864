package pattern

import (
	"fmt"
	"math"

	"StockSentinel/internal/model"
)

// Divergence compares the two most recent price extrema inside the lookback
// with the indicator at the same bars. A lower price trough with a higher
// indicator reading is bullish; a higher price peak with a lower reading is
// bearish. When both are present the more recent one wins.
func Divergence(kind model.PatternKind, closes, indicator []float64, opts Options) model.PatternResult {
	opts = opts.withDefaults()
	res := model.PatternResult{Kind: kind, Status: model.StatusNone, Bias: model.BiasNeutral}
	n := len(closes)
	if n == 0 || len(indicator) != n {
		return res
	}
	start := max(0, n-opts.DivergenceLookback)

	bull, bullAt, bullMag := divergentPair(Troughs(closes, opts.ExtremumWindow), indicator, start, false)
	bear, bearAt, bearMag := divergentPair(Peaks(closes, opts.ExtremumWindow), indicator, start, true)
	if !bull && !bear {
		return res
	}

	mag := bullMag
	if bull && (!bear || bullAt >= bearAt) {
		res.Status, res.Bias = model.StatusBullish, model.BiasBullish
	} else {
		res.Status, res.Bias = model.StatusBearish, model.BiasBearish
		mag = bearMag
	}

	ratio := math.Inf(1)
	if sd := stdDev(indicator[start:]); sd > 0 {
		ratio = mag / sd
	}
	switch {
	case ratio >= 1:
		res.Confidence = model.ConfidenceHigh
	case ratio >= 0.5:
		res.Confidence = model.ConfidenceMedium
	default:
		res.Confidence = model.ConfidenceLow
	}
	res.Description = fmt.Sprintf("%s divergence: price makes a %s while %s does not (%.1fσ)",
		res.Bias, extremeWord(res.Bias), indicatorName(kind), ratio)
	return res
}

// divergentPair inspects the last two extrema after start where the
// indicator is defined.
func divergentPair(ex []Extremum, indicator []float64, start int, peaks bool) (ok bool, at int, magnitude float64) {
	var usable []Extremum
	for _, e := range since(ex, start) {
		if !math.IsNaN(indicator[e.Index]) {
			usable = append(usable, e)
		}
	}
	if len(usable) < 2 {
		return false, 0, 0
	}
	a, b := usable[len(usable)-2], usable[len(usable)-1]
	ia, ib := indicator[a.Index], indicator[b.Index]
	if peaks {
		ok = b.Value > a.Value && ib < ia
	} else {
		ok = b.Value < a.Value && ib > ia
	}
	return ok, b.Index, math.Abs(ib - ia)
}

func extremeWord(b model.Bias) string {
	if b == model.BiasBullish {
		return "lower low"
	}
	return "higher high"
}

func indicatorName(kind model.PatternKind) string {
	if kind == model.KindMACDDivergence {
		return "MACD"
	}
	return "RSI"
}
