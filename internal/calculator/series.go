package calculator

import "StockSentinel/internal/model"

// Standard indicator parameters.
const (
	RSIPeriod      = 14
	MACDFast       = 12
	MACDSlow       = 26
	MACDSignal     = 9
	BollingerN     = 20
	BollingerK     = 2.0
	StochK         = 14
	StochD         = 3
	ShortMAPeriod  = 20
	MediumMAPeriod = 50
	LongMAPeriod   = 200
)

// Series holds every indicator evaluated at every bar, index-aligned with
// the source bars. Undefined positions are NaN.
type Series struct {
	Closes []float64

	SMA20  []float64
	SMA50  []float64
	SMA200 []float64
	EMA12  []float64
	EMA26  []float64
	RSI    []float64
	MACD   MACDSeries
	Bands  BandSeries
	Stoch  StochSeries
}

// Compute evaluates all indicators over the bar series.
func Compute(s *model.BarSeries) *Series {
	closes := s.Closes()
	return &Series{
		Closes: closes,
		SMA20:  SMASeries(closes, ShortMAPeriod),
		SMA50:  SMASeries(closes, MediumMAPeriod),
		SMA200: SMASeries(closes, LongMAPeriod),
		EMA12:  EMASeries(closes, MACDFast),
		EMA26:  EMASeries(closes, MACDSlow),
		RSI:    RSISeries(closes, RSIPeriod),
		MACD:   MACD(closes, MACDFast, MACDSlow, MACDSignal),
		Bands:  Bollinger(closes, BollingerN, BollingerK),
		Stoch:  Stochastic(s.Highs(), s.Lows(), closes, StochK, StochD),
	}
}

// Len returns the number of aligned positions.
func (s *Series) Len() int { return len(s.Closes) }

// Snapshot converts the latest position of every indicator into an IndicatorSet.
func (s *Series) Snapshot() model.IndicatorSet {
	var set model.IndicatorSet
	set.RSI14 = optional(last(s.RSI))
	set.SMA20 = optional(last(s.SMA20))
	set.SMA50 = optional(last(s.SMA50))
	set.SMA200 = optional(last(s.SMA200))
	set.EMA12 = optional(last(s.EMA12))
	set.EMA26 = optional(last(s.EMA26))

	n := s.Len()
	if line, sig, hist := last(s.MACD.Line), last(s.MACD.Signal), last(s.MACD.Histogram); Defined(line) && Defined(sig) && Defined(hist) {
		v := &model.MACDValue{Line: line, Signal: sig, Histogram: hist}
		if n >= 2 && Defined(s.MACD.Histogram[n-2]) {
			v.Slope = hist - s.MACD.Histogram[n-2]
		}
		set.MACD = v
	}
	if up, mid, lo := last(s.Bands.Upper), last(s.Bands.Middle), last(s.Bands.Lower); Defined(mid) {
		set.Bollinger = &model.BandValue{Upper: up, Middle: mid, Lower: lo}
	}
	if k, d := last(s.Stoch.K), last(s.Stoch.D); Defined(k) && Defined(d) {
		set.Stochastic = &model.StochValue{K: k, D: d}
	}
	return set
}

func optional(v float64) *float64 {
	if !Defined(v) {
		return nil
	}
	return &v
}
