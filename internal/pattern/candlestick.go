package pattern

import (
	"math"

	"StockSentinel/internal/model"
)

type candle model.Bar

func (c candle) body() float64  { return math.Abs(c.Close - c.Open) }
func (c candle) span() float64  { return c.High - c.Low }
func (c candle) upper() float64 { return c.High - math.Max(c.Open, c.Close) }
func (c candle) lower() float64 { return math.Min(c.Open, c.Close) - c.Low }
func (c candle) bull() bool     { return c.Close > c.Open }
func (c candle) bear() bool     { return c.Close < c.Open }
func (c candle) mid() float64   { return (c.Open + c.Close) / 2 }

// long reports a body covering most of the range.
func (c candle) long() bool { return c.span() > 0 && c.body() >= 0.6*c.span() }

// priorTrend is the direction of closes over the five bars before start.
func priorTrend(bars []model.Bar, start int) int {
	if start < 2 {
		return 0
	}
	from := max(0, start-6)
	return sign(bars[start-1].Close - bars[from].Close)
}

// Candlesticks matches single, double and triple bar formations ending at
// the last bar.
func Candlesticks(bars []model.Bar) []model.PatternResult {
	n := len(bars)
	if n == 0 {
		return nil
	}
	var kinds []model.PatternKind

	c := candle(bars[n-1])
	if k, ok := singleBar(c, priorTrend(bars, n-1)); ok {
		kinds = append(kinds, k)
	}
	if n >= 2 {
		kinds = append(kinds, twoBar(candle(bars[n-2]), c, priorTrend(bars, n-2))...)
	}
	if n >= 3 {
		kinds = append(kinds, threeBar(candle(bars[n-3]), candle(bars[n-2]), c, priorTrend(bars, n-3))...)
	}

	out := make([]model.PatternResult, 0, len(kinds))
	for _, k := range kinds {
		e, _ := Lookup(k)
		out = append(out, shape(k, confidenceFor(e.Reliability), k.Title()+" on the last bar"))
	}
	return out
}

func singleBar(c candle, trend int) (model.PatternKind, bool) {
	r, b := c.span(), c.body()
	if r <= 0 {
		return 0, false
	}
	switch {
	case b <= 0.1*r:
		return model.KindDoji, true
	case b <= 0.3*r && c.upper() >= 0.35*r && c.lower() >= 0.35*r:
		return model.KindHighWave, true
	case b <= 0.3*r && c.upper() > b && c.lower() > b:
		return model.KindSpinningTop, true
	case c.lower() >= 2*b && c.upper() <= 0.1*r:
		if trend < 0 {
			return model.KindHammer, true
		}
		if trend > 0 {
			return model.KindHangingMan, true
		}
	case c.upper() >= 2*b && c.lower() <= 0.1*r:
		if trend < 0 {
			return model.KindInvertedHammer, true
		}
		if trend > 0 {
			return model.KindShootingStar, true
		}
	}
	return 0, false
}

func twoBar(a, b candle, trend int) []model.PatternKind {
	var out []model.PatternKind
	tweezer := 0.002 * b.Close
	if trend < 0 {
		switch {
		case a.bear() && b.bull() && b.Open <= a.Close && b.Close >= a.Open && b.body() > a.body():
			out = append(out, model.KindBullishEngulfing)
		case a.bear() && b.bull() && b.Open < a.Close && b.Close > a.mid() && b.Close < a.Open:
			out = append(out, model.KindPiercingLine)
		case a.bear() && a.long() && math.Max(b.Open, b.Close) < a.Open && math.Min(b.Open, b.Close) > a.Close && b.body() <= 0.5*a.body():
			out = append(out, model.KindBullishHarami)
		}
		if a.bear() && b.bull() && math.Abs(a.Low-b.Low) <= tweezer {
			out = append(out, model.KindTweezerBottom)
		}
	}
	if trend > 0 {
		switch {
		case a.bull() && b.bear() && b.Open >= a.Close && b.Close <= a.Open && b.body() > a.body():
			out = append(out, model.KindBearishEngulfing)
		case a.bull() && b.bear() && b.Open > a.Close && b.Close < a.mid() && b.Close > a.Open:
			out = append(out, model.KindDarkCloudCover)
		case a.bull() && a.long() && math.Max(b.Open, b.Close) < a.Close && math.Min(b.Open, b.Close) > a.Open && b.body() <= 0.5*a.body():
			out = append(out, model.KindBearishHarami)
		}
		if a.bull() && b.bear() && math.Abs(a.High-b.High) <= tweezer {
			out = append(out, model.KindTweezerTop)
		}
	}
	return out
}

func threeBar(a, b, c candle, trend int) []model.PatternKind {
	var out []model.PatternKind
	if trend < 0 && a.bear() && a.long() && b.body() <= 0.3*a.body() &&
		math.Max(b.Open, b.Close) <= a.Close && c.bull() && c.Close > a.mid() {
		out = append(out, model.KindMorningStar)
	}
	if trend > 0 && a.bull() && a.long() && b.body() <= 0.3*a.body() &&
		math.Min(b.Open, b.Close) >= a.Close && c.bear() && c.Close < a.mid() {
		out = append(out, model.KindEveningStar)
	}
	if soldiers(a, b, c, true) {
		out = append(out, model.KindThreeWhiteSoldiers)
	}
	if soldiers(a, b, c, false) {
		out = append(out, model.KindThreeBlackCrows)
	}
	return out
}

// soldiers matches three long same-colored bodies each opening inside the
// previous body and closing beyond it.
func soldiers(a, b, c candle, up bool) bool {
	bars := [3]candle{a, b, c}
	for i, x := range bars {
		if x.span() <= 0 || x.body() < 0.5*x.span() || x.bull() != up || x.bear() == up {
			return false
		}
		if i == 0 {
			continue
		}
		p := bars[i-1]
		if up && !(x.Open > p.Open && x.Open <= p.Close && x.Close > p.Close) {
			return false
		}
		if !up && !(x.Open < p.Open && x.Open >= p.Close && x.Close < p.Close) {
			return false
		}
	}
	return true
}

func confidenceFor(r model.Reliability) model.Confidence {
	switch r {
	case model.ReliabilityHigh:
		return model.ConfidenceHigh
	case model.ReliabilityMediumHigh:
		return model.ConfidenceMedium
	default:
		return model.ConfidenceLow
	}
}
