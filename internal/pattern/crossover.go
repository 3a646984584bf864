package pattern

import (
	"fmt"
	"math"

	"StockSentinel/internal/model"
)

// Crossover finds the most recent bar where fast moved across slow.
// The cross is unconfirmed until the new relationship has held for
// ConfirmBars bars and is ignored once older than CrossoverMaxAge.
func Crossover(kind model.PatternKind, fast, slow []float64, opts Options) model.PatternResult {
	opts = opts.withDefaults()
	res := model.PatternResult{Kind: kind, Status: model.StatusNone, Bias: model.BiasNeutral}
	n := len(fast)
	if n < 2 || len(slow) != n {
		return res
	}

	crossAt, dir := -1, 0
	prev := 0
	for i := 0; i < n; i++ {
		if math.IsNaN(fast[i]) || math.IsNaN(slow[i]) {
			prev = 0
			continue
		}
		s := sign(fast[i] - slow[i])
		if s == 0 {
			continue
		}
		if prev != 0 && s != prev {
			crossAt, dir = i, s
		}
		prev = s
	}
	if crossAt < 0 {
		return res
	}

	// A cross older than CrossoverMaxAge reports none/neutral even while
	// fast is still on the same side of slow; an established trend is
	// scored by the moving-average factors, not as a fresh cross.
	held := n - 1 - crossAt
	if held > opts.CrossoverMaxAge {
		return res
	}

	if dir > 0 {
		res.Bias = model.BiasBullish
	} else {
		res.Bias = model.BiasBearish
	}
	switch {
	case held >= 2*opts.ConfirmBars:
		res.Status, res.Confidence = model.StatusConfirmed, model.ConfidenceHigh
	case held >= opts.ConfirmBars:
		res.Status, res.Confidence = model.StatusConfirmed, model.ConfidenceMedium
	default:
		res.Status, res.Confidence = model.StatusUnconfirmed, model.ConfidenceLow
	}

	fastName, slowName := "SMA20", "SMA50"
	if kind == model.KindMACDCrossover {
		fastName, slowName = "MACD", "signal"
	}
	word := "above"
	if dir < 0 {
		word = "below"
	}
	res.Description = fmt.Sprintf("%s crossed %s %s %d bars ago", fastName, word, slowName, held)
	return res
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
