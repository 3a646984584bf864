// Package pattern detects divergences, crossovers, volatility contraction,
// breakout setups and classical chart and candlestick shapes. Every detector
// is a pure function of its inputs.
package pattern

import (
	"math"
	"sort"

	"StockSentinel/internal/model"
)

// Options tunes the detectors. Zero fields take the defaults.
type Options struct {
	ExtremumWindow     int     // bars on each side of a local extremum
	DivergenceLookback int     // bars searched for divergence extrema
	ConfirmBars        int     // bars a crossover must hold to be confirmed
	CrossoverMaxAge    int     // crosses older than this are ignored
	VolumeDecline      float64 // swing-over-swing volume drop required for a strong VCP
	BreakoutLookback   int     // bars defining the recent high
	BreakoutProximity  float64 // max distance below the recent high
	ShapeLookback      int     // bars searched for chart shapes
}

// DefaultOptions returns the standard detector settings.
func DefaultOptions() Options {
	return Options{
		ExtremumWindow:     3,
		DivergenceLookback: 60,
		ConfirmBars:        3,
		CrossoverMaxAge:    20,
		VolumeDecline:      0.20,
		BreakoutLookback:   50,
		BreakoutProximity:  0.03,
		ShapeLookback:      120,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.ExtremumWindow <= 0 {
		o.ExtremumWindow = d.ExtremumWindow
	}
	if o.DivergenceLookback <= 0 {
		o.DivergenceLookback = d.DivergenceLookback
	}
	if o.ConfirmBars <= 0 {
		o.ConfirmBars = d.ConfirmBars
	}
	if o.CrossoverMaxAge <= 0 {
		o.CrossoverMaxAge = d.CrossoverMaxAge
	}
	if o.VolumeDecline <= 0 {
		o.VolumeDecline = d.VolumeDecline
	}
	if o.BreakoutLookback <= 0 {
		o.BreakoutLookback = d.BreakoutLookback
	}
	if o.BreakoutProximity <= 0 {
		o.BreakoutProximity = d.BreakoutProximity
	}
	if o.ShapeLookback <= 0 {
		o.ShapeLookback = d.ShapeLookback
	}
	return o
}

// Extremum is a local peak or trough.
type Extremum struct {
	Index int
	Value float64
	Peak  bool
}

// Peaks returns local maxima of values. A point qualifies when it is strictly
// above the window bars before it and not below the window bars after it,
// so the first bar of a plateau wins. NaN neighbourhoods never qualify.
func Peaks(values []float64, window int) []Extremum {
	return extrema(values, window, true)
}

// Troughs returns local minima of values, mirroring Peaks.
func Troughs(values []float64, window int) []Extremum {
	return extrema(values, window, false)
}

func extrema(values []float64, window int, peak bool) []Extremum {
	if window <= 0 {
		window = 1
	}
	var out []Extremum
	for i := window; i+window < len(values); i++ {
		v := values[i]
		if math.IsNaN(v) {
			continue
		}
		ok := true
		for j := i - window; j <= i+window && ok; j++ {
			if j == i {
				continue
			}
			w := values[j]
			switch {
			case math.IsNaN(w):
				ok = false
			case peak && j < i:
				ok = v > w
			case peak:
				ok = v >= w
			case j < i:
				ok = v < w
			default:
				ok = v <= w
			}
		}
		if ok {
			out = append(out, Extremum{Index: i, Value: v, Peak: peak})
		}
	}
	return out
}

// Pivots merges peaks of highs and troughs of lows into an alternating
// sequence. Consecutive pivots of the same side keep the more extreme one.
func Pivots(bars []model.Bar, window int) []Extremum {
	highs := make([]float64, len(bars))
	lows := make([]float64, len(bars))
	for i, b := range bars {
		highs[i] = b.High
		lows[i] = b.Low
	}
	all := append(Peaks(highs, window), Troughs(lows, window)...)
	sort.SliceStable(all, func(i, j int) bool { return all[i].Index < all[j].Index })

	out := make([]Extremum, 0, len(all))
	for _, e := range all {
		n := len(out)
		if n > 0 && out[n-1].Peak == e.Peak {
			if (e.Peak && e.Value > out[n-1].Value) || (!e.Peak && e.Value < out[n-1].Value) {
				out[n-1] = e
			}
			continue
		}
		out = append(out, e)
	}
	return out
}

// since keeps extrema at or after index start.
func since(ex []Extremum, start int) []Extremum {
	i := sort.Search(len(ex), func(i int) bool { return ex[i].Index >= start })
	return ex[i:]
}

func stdDev(values []float64) float64 {
	var sum float64
	var n int
	for _, v := range values {
		if !math.IsNaN(v) {
			sum += v
			n++
		}
	}
	if n < 2 {
		return 0
	}
	mean := sum / float64(n)
	var sq float64
	for _, v := range values {
		if !math.IsNaN(v) {
			sq += (v - mean) * (v - mean)
		}
	}
	return math.Sqrt(sq / float64(n))
}

// slope is the least-squares slope of the extrema values against their index.
func slope(ex []Extremum) float64 {
	n := float64(len(ex))
	if n < 2 {
		return 0
	}
	var sx, sy, sxx, sxy float64
	for _, e := range ex {
		x := float64(e.Index)
		sx += x
		sy += e.Value
		sxx += x * x
		sxy += x * e.Value
	}
	den := n*sxx - sx*sx
	if den == 0 {
		return 0
	}
	return (n*sxy - sx*sy) / den
}

func lastN(ex []Extremum, n int) []Extremum {
	if len(ex) <= n {
		return ex
	}
	return ex[len(ex)-n:]
}

func filterSide(ex []Extremum, peak bool) []Extremum {
	var out []Extremum
	for _, e := range ex {
		if e.Peak == peak {
			out = append(out, e)
		}
	}
	return out
}
