package calculator

import "math"

// MACDSeries holds MACD line, signal and histogram aligned to the input.
type MACDSeries struct {
	Line      []float64
	Signal    []float64
	Histogram []float64
}

// MACD computes EMA(fast)-EMA(slow), its EMA(signal) and the difference.
func MACD(closes []float64, fast, slow, signal int) MACDSeries {
	emaFast := EMASeries(closes, fast)
	emaSlow := EMASeries(closes, slow)

	line := nanSeries(len(closes))
	for i := range closes {
		if Defined(emaFast[i]) && Defined(emaSlow[i]) {
			line[i] = emaFast[i] - emaSlow[i]
		}
	}
	sig := EMASeries(line, signal)
	hist := nanSeries(len(closes))
	for i := range closes {
		if Defined(line[i]) && Defined(sig[i]) {
			hist[i] = line[i] - sig[i]
		}
	}
	return MACDSeries{Line: line, Signal: sig, Histogram: hist}
}

// BandSeries holds Bollinger bands aligned to the input.
type BandSeries struct {
	Upper  []float64
	Middle []float64
	Lower  []float64
}

// Bollinger computes SMA(period) ± mult × population standard deviation.
func Bollinger(closes []float64, period int, mult float64) BandSeries {
	middle := SMASeries(closes, period)
	upper := nanSeries(len(closes))
	lower := nanSeries(len(closes))
	for i := range closes {
		if !Defined(middle[i]) {
			continue
		}
		variance := 0.0
		for j := i - period + 1; j <= i; j++ {
			d := closes[j] - middle[i]
			variance += d * d
		}
		std := math.Sqrt(variance / float64(period))
		upper[i] = middle[i] + mult*std
		lower[i] = middle[i] - mult*std
	}
	return BandSeries{Upper: upper, Middle: middle, Lower: lower}
}

// StochSeries holds %K and %D aligned to the input.
type StochSeries struct {
	K []float64
	D []float64
}

// Stochastic computes %K over kPeriod bars and %D as SMA(dPeriod) of %K.
// A flat window (highest high == lowest low) yields %K = 50.
func Stochastic(highs, lows, closes []float64, kPeriod, dPeriod int) StochSeries {
	k := nanSeries(len(closes))
	if kPeriod <= 0 {
		return StochSeries{K: k, D: nanSeries(len(closes))}
	}
	for i := kPeriod - 1; i < len(closes); i++ {
		hh, ll := math.Inf(-1), math.Inf(1)
		for j := i - kPeriod + 1; j <= i; j++ {
			hh = math.Max(hh, highs[j])
			ll = math.Min(ll, lows[j])
		}
		if hh == ll {
			k[i] = 50
			continue
		}
		k[i] = 100 * (closes[i] - ll) / (hh - ll)
	}
	return StochSeries{K: k, D: SMASeries(k, dPeriod)}
}
