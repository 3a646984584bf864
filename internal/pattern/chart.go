package pattern

import (
	"fmt"
	"math"

	"StockSentinel/internal/model"
)

const (
	peakTolerance     = 0.03   // max relative gap between matching peaks or troughs
	shoulderTolerance = 0.05   // max relative gap between shoulders
	minRetrace        = 0.05   // min depth of the valley between double tops
	flatSlope         = 0.0005 // per-bar slope, relative to price, treated as flat
	flagPole          = 10
	flagBody          = 10
	minPoleMove       = 0.08
)

type chartDetector func(w []model.Bar, pivots []Extremum) (model.PatternResult, bool)

// ChartShapes runs every chart-shape matcher over the most recent
// ShapeLookback bars and returns the matches.
func ChartShapes(bars []model.Bar, opts Options) []model.PatternResult {
	opts = opts.withDefaults()
	if len(bars) < 2*flagPole+opts.ExtremumWindow {
		return nil
	}
	w := bars[max(0, len(bars)-opts.ShapeLookback):]
	pivots := Pivots(w, opts.ExtremumWindow)

	detectors := []chartDetector{
		headAndShoulders,
		inverseHeadAndShoulders,
		cupAndHandle,
		doubleTop,
		doubleBottom,
		converging,
		flagOrPennant,
	}
	var out []model.PatternResult
	seen := make(map[model.PatternKind]bool)
	for _, d := range detectors {
		r, ok := d(w, pivots)
		if !ok {
			continue
		}
		// a cup's rims also satisfy the double top geometry
		if r.Kind == model.KindDoubleTop && seen[model.KindCupAndHandle] {
			continue
		}
		seen[r.Kind] = true
		out = append(out, r)
	}
	return out
}

// lastPivots returns the final count pivots of one side together with their
// positions in the alternating sequence.
func lastPivots(pivots []Extremum, peak bool, count int) ([]Extremum, []int) {
	var ex []Extremum
	var pos []int
	for i := len(pivots) - 1; i >= 0 && len(ex) < count; i-- {
		if pivots[i].Peak == peak {
			ex = append([]Extremum{pivots[i]}, ex...)
			pos = append([]int{i}, pos...)
		}
	}
	return ex, pos
}

func relDiff(a, b float64) float64 {
	return math.Abs(a-b) / math.Max(math.Abs(a), math.Abs(b))
}

func lastClose(w []model.Bar) float64 { return w[len(w)-1].Close }

func headAndShoulders(w []model.Bar, pivots []Extremum) (model.PatternResult, bool) {
	return headShoulders(w, pivots, true)
}

func inverseHeadAndShoulders(w []model.Bar, pivots []Extremum) (model.PatternResult, bool) {
	return headShoulders(w, pivots, false)
}

// headShoulders matches three peaks (or troughs) where the middle one
// extends beyond two roughly equal shoulders.
func headShoulders(w []model.Bar, pivots []Extremum, top bool) (model.PatternResult, bool) {
	ex, pos := lastPivots(pivots, top, 3)
	if len(ex) < 3 || pos[1]+1 >= len(pivots) || pos[0]+1 >= len(pivots) {
		return model.PatternResult{}, false
	}
	l, h, r := ex[0].Value, ex[1].Value, ex[2].Value
	n1, n2 := pivots[pos[0]+1].Value, pivots[pos[1]+1].Value
	last := lastClose(w)

	kind := model.KindHeadAndShoulders
	var head, beyondNeck bool
	var neck float64
	if top {
		head = h > l*(1+peakTolerance) && h > r*(1+peakTolerance)
		neck = math.Min(n1, n2)
		beyondNeck = last < neck
		if last >= r {
			return model.PatternResult{}, false
		}
	} else {
		kind = model.KindInverseHeadAndShoulders
		head = h < l*(1-peakTolerance) && h < r*(1-peakTolerance)
		neck = math.Max(n1, n2)
		beyondNeck = last > neck
		if last <= r {
			return model.PatternResult{}, false
		}
	}
	if !head || relDiff(l, r) > shoulderTolerance {
		return model.PatternResult{}, false
	}
	conf := model.ConfidenceMedium
	if beyondNeck {
		conf = model.ConfidenceHigh
	}
	return shape(kind, conf, fmt.Sprintf("shoulders %.2f/%.2f, head %.2f, neckline %.2f", l, r, h, neck)), true
}

func doubleTop(w []model.Bar, pivots []Extremum) (model.PatternResult, bool) {
	return double(w, pivots, true)
}

func doubleBottom(w []model.Bar, pivots []Extremum) (model.PatternResult, bool) {
	return double(w, pivots, false)
}

// double matches two nearly equal extremes separated by a meaningful
// retracement, with price already moving away from the second one.
func double(w []model.Bar, pivots []Extremum, top bool) (model.PatternResult, bool) {
	ex, pos := lastPivots(pivots, top, 2)
	if len(ex) < 2 || relDiff(ex[0].Value, ex[1].Value) > peakTolerance {
		return model.PatternResult{}, false
	}
	mid := pivots[pos[0]+1].Value
	last := lastClose(w)
	kind := model.KindDoubleTop
	var broke bool
	if top {
		if mid > math.Min(ex[0].Value, ex[1].Value)*(1-minRetrace) || last >= ex[1].Value {
			return model.PatternResult{}, false
		}
		broke = last < mid
	} else {
		kind = model.KindDoubleBottom
		if mid < math.Max(ex[0].Value, ex[1].Value)*(1+minRetrace) || last <= ex[1].Value {
			return model.PatternResult{}, false
		}
		broke = last > mid
	}
	conf := model.ConfidenceMedium
	if broke {
		conf = model.ConfidenceHigh
	}
	return shape(kind, conf, fmt.Sprintf("extremes %.2f and %.2f around %.2f", ex[0].Value, ex[1].Value, mid)), true
}

// cupAndHandle matches two rims of similar height around a 12-35% deep
// cup, followed by a shallow pullback from the right rim.
func cupAndHandle(w []model.Bar, pivots []Extremum) (model.PatternResult, bool) {
	ex, _ := lastPivots(pivots, true, 2)
	if len(ex) < 2 {
		return model.PatternResult{}, false
	}
	left, right := ex[0], ex[1]
	if right.Index-left.Index < 15 || relDiff(left.Value, right.Value) > shoulderTolerance {
		return model.PatternResult{}, false
	}
	if len(w)-1-right.Index > 20 || right.Index == len(w)-1 {
		return model.PatternResult{}, false
	}

	bottom := math.Inf(1)
	for _, b := range w[left.Index : right.Index+1] {
		bottom = math.Min(bottom, b.Low)
	}
	rim := math.Min(left.Value, right.Value)
	depth := (rim - bottom) / rim
	if depth < 0.12 || depth > 0.35 {
		return model.PatternResult{}, false
	}

	handleLow := math.Inf(1)
	for _, b := range w[right.Index+1:] {
		handleLow = math.Min(handleLow, b.Low)
	}
	handle := (right.Value - handleLow) / right.Value
	if handle <= 0 || handle > depth/2 {
		return model.PatternResult{}, false
	}
	return shape(model.KindCupAndHandle, model.ConfidenceMedium,
		fmt.Sprintf("cup depth %.1f%%, handle %.1f%%", depth*100, handle*100)), true
}

// converging classifies the recent envelope of highs and lows into
// triangles, wedges and rectangles by comparing their slopes.
func converging(w []model.Bar, pivots []Extremum) (model.PatternResult, bool) {
	recent := since(pivots, max(0, len(w)-60))
	highs := lastN(filterSide(recent, true), 3)
	lows := lastN(filterSide(recent, false), 3)
	if len(highs) < 2 || len(lows) < 2 {
		return model.PatternResult{}, false
	}

	var avg float64
	for _, e := range append(append([]Extremum(nil), highs...), lows...) {
		avg += e.Value
	}
	avg /= float64(len(highs) + len(lows))
	sh, sl := slope(highs)/avg, slope(lows)/avg

	flatH, flatL := math.Abs(sh) <= flatSlope, math.Abs(sl) <= flatSlope
	var kind model.PatternKind
	switch {
	case flatH && flatL:
		kind = model.KindRectangle
	case flatH && sl > flatSlope:
		kind = model.KindAscendingTriangle
	case sh < -flatSlope && flatL:
		kind = model.KindDescendingTriangle
	case sh < -flatSlope && sl > flatSlope:
		kind = model.KindSymmetricalTriangle
	case sh > flatSlope && sl > sh:
		kind = model.KindRisingWedge
	case sl < -flatSlope && sh < sl:
		kind = model.KindFallingWedge
	default:
		return model.PatternResult{}, false
	}

	conf := model.ConfidenceMedium
	if len(highs) >= 3 && len(lows) >= 3 {
		conf = model.ConfidenceHigh
	}
	return shape(kind, conf, fmt.Sprintf("upper line %+.2f%%/bar, lower line %+.2f%%/bar", sh*100, sl*100)), true
}

// flagOrPennant matches a sharp pole followed by a tight consolidation.
// A consolidation whose range narrows is a pennant, otherwise a flag.
func flagOrPennant(w []model.Bar, _ []Extremum) (model.PatternResult, bool) {
	n := len(w)
	if n < flagPole+flagBody+1 {
		return model.PatternResult{}, false
	}
	poleStart := w[n-1-flagBody-flagPole].Close
	poleEnd := w[n-1-flagBody].Close
	if poleStart <= 0 {
		return model.PatternResult{}, false
	}
	move := (poleEnd - poleStart) / poleStart
	if math.Abs(move) < minPoleMove {
		return model.PatternResult{}, false
	}

	body := w[n-flagBody:]
	hi, lo := envelope(body)
	if (hi-lo)/poleEnd > math.Abs(move)/2 {
		return model.PatternResult{}, false
	}
	h1, l1 := envelope(body[:flagBody/2])
	h2, l2 := envelope(body[flagBody/2:])
	desc := fmt.Sprintf("%+.1f%% pole, %.1f%% consolidation", move*100, (hi-lo)/poleEnd*100)

	if h2-l2 < (h1-l1)*0.6 {
		r := shape(model.KindPennant, model.ConfidenceMedium, desc)
		if move > 0 {
			r.Bias, r.Status = model.BiasBullish, model.StatusBullish
		} else {
			r.Bias, r.Status = model.BiasBearish, model.StatusBearish
		}
		return r, true
	}
	if move > 0 {
		return shape(model.KindBullFlag, model.ConfidenceMedium, desc), true
	}
	return shape(model.KindBearFlag, model.ConfidenceMedium, desc), true
}

func envelope(bars []model.Bar) (hi, lo float64) {
	hi, lo = math.Inf(-1), math.Inf(1)
	for _, b := range bars {
		hi = math.Max(hi, b.High)
		lo = math.Min(lo, b.Low)
	}
	return hi, lo
}
