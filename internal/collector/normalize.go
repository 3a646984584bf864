package collector

import (
	"errors"
	"math"
	"sort"

	"StockSentinel/internal/model"
)

// ErrEmptySeries is returned when no usable bars survive normalization.
var ErrEmptySeries = errors.New("no usable bars")

// Normalize turns an adapter payload into a canonical BarSeries: symbol
// upper-cased, unusable bars dropped, OHLC envelope repaired, chronological
// order with unique timestamps, and meta prices derived from the bars.
func Normalize(raw *model.BarSeries) (*model.BarSeries, error) {
	if raw == nil || len(raw.Bars) == 0 {
		return nil, ErrEmptySeries
	}

	bars := make([]model.Bar, 0, len(raw.Bars))
	for _, b := range raw.Bars {
		if !validPrice(b.Close) || b.Time <= 0 {
			continue
		}
		if !validPrice(b.Open) {
			b.Open = b.Close
		}
		if !validPrice(b.High) {
			b.High = b.Close
		}
		if !validPrice(b.Low) {
			b.Low = b.Close
		}
		b.High = math.Max(b.High, math.Max(b.Open, b.Close))
		b.Low = math.Min(b.Low, math.Min(b.Open, b.Close))
		if b.Volume < 0 {
			b.Volume = 0
		}
		bars = append(bars, b)
	}
	if len(bars) == 0 {
		return nil, ErrEmptySeries
	}

	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time < bars[j].Time })
	deduped := bars[:0]
	for _, b := range bars {
		if n := len(deduped); n > 0 && deduped[n-1].Time == b.Time {
			deduped[n-1] = b // last write wins
			continue
		}
		deduped = append(deduped, b)
	}
	bars = deduped

	out := &model.BarSeries{
		Symbol: model.NormalizeSymbol(raw.Symbol),
		Period: raw.Period,
		Bars:   bars,
		Meta:   raw.Meta,
	}
	n := len(bars)
	out.Meta.CurrentPrice = bars[n-1].Close
	switch {
	case n >= 2:
		out.Meta.PreviousClose = bars[n-2].Close
	case !validPrice(out.Meta.PreviousClose):
		out.Meta.PreviousClose = bars[n-1].Close
	}
	if out.Meta.CompanyName == "" {
		out.Meta.CompanyName = out.Symbol
	}
	return out, nil
}

func validPrice(v float64) bool {
	return v > 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}
