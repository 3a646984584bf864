package strategy

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"StockSentinel/internal/calculator"
	"StockSentinel/internal/model"
)

// Score bounds and category thresholds.
const (
	MaxScore      = 100.0
	BuyThreshold  = 20.0
	SellThreshold = -20.0
)

// Options controls optional scoring inputs.
type Options struct {
	IncludeShapes bool // fold chart and candlestick shapes into the score
}

// Categorize maps a score to BUY, SELL or HOLD.
func Categorize(score float64) model.Category {
	switch {
	case score >= BuyThreshold:
		return model.CategoryBuy
	case score <= SellThreshold:
		return model.CategorySell
	default:
		return model.CategoryHold
	}
}

// Score computes the recommendation for one symbol. The result depends only
// on its inputs.
func Score(series *model.BarSeries, ind *model.IndicatorSet, patterns []model.PatternResult, opts Options) *model.Recommendation {
	if ind == nil {
		ind = &model.IndicatorSet{}
	}
	rec := &model.Recommendation{
		Indicators: *ind,
		Patterns:   patterns,
		Category:   model.CategoryHold,
	}
	if series == nil || series.Len() == 0 {
		rec.Reasoning = "no price data"
		return rec
	}

	closes := series.Closes()
	price := series.Last().Close
	rec.Symbol = series.Symbol
	rec.CompanyName = series.Meta.CompanyName
	rec.Price = price
	rec.Source = series.Meta.Source
	rec.Synthetic = series.Meta.Synthetic
	rec.DataNotice = series.Meta.Notice
	rec.BarCount = series.Len()
	if pct, ok := calculator.PercentChange(closes, 1); ok {
		rec.Change1D = round2(pct)
	}

	var factors []model.FactorScore
	add := func(f model.FactorScore, ok bool) {
		if ok {
			factors = append(factors, f)
		}
	}
	add(scoreRSI(ind))
	factors = append(factors, scoreMACD(ind)...)
	factors = append(factors, scoreMovingAverages(price, ind)...)
	add(scoreBollinger(price, ind))
	add(scoreStochastic(ind))
	factors = append(factors, scoreHorizons(closes)...)
	for _, p := range patterns {
		add(scorePattern(p, opts.IncludeShapes))
	}

	sort.SliceStable(factors, func(i, j int) bool {
		ai, aj := math.Abs(factors[i].Weighted), math.Abs(factors[j].Weighted)
		if ai != aj {
			return ai > aj
		}
		return factors[i].Name < factors[j].Name
	})

	var total float64
	for _, f := range factors {
		total += f.Weighted
	}
	rec.Score = round2(math.Max(-MaxScore, math.Min(MaxScore, total)))
	rec.Category = Categorize(rec.Score)
	rec.Factors = factors
	rec.Reasoning = reasoning(factors)
	return rec
}

func reasoning(factors []model.FactorScore) string {
	if len(factors) == 0 {
		return "no signals fired"
	}
	parts := make([]string, len(factors))
	for i, f := range factors {
		parts[i] = fmt.Sprintf("%s (%+g): %s", f.Name, f.Weighted, f.Commentary)
	}
	return strings.Join(parts, "; ")
}
