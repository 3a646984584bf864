package pattern

import (
	"fmt"

	"StockSentinel/internal/calculator"
	"StockSentinel/internal/model"
)

// Swing is one peak-to-trough leg.
type Swing struct {
	Peak      Extremum
	Trough    Extremum
	Amplitude float64 // (peak - trough) / peak
	Volume    float64 // mean volume over the leg, both ends included
}

// Swings extracts the peak-to-trough legs of the pivot sequence.
func Swings(bars []model.Bar, window int) []Swing {
	pivots := Pivots(bars, window)
	var out []Swing
	for i := 0; i+1 < len(pivots); i++ {
		p, t := pivots[i], pivots[i+1]
		if !p.Peak || t.Peak || p.Value <= 0 {
			continue
		}
		var vol float64
		for j := p.Index; j <= t.Index; j++ {
			vol += float64(bars[j].Volume)
		}
		out = append(out, Swing{
			Peak:      p,
			Trough:    t,
			Amplitude: (p.Value - t.Value) / p.Value,
			Volume:    vol / float64(t.Index-p.Index+1),
		})
	}
	return out
}

// VolatilityContraction looks for a trailing run of swings whose amplitude
// and average volume both strictly decrease. Three or more swings with every
// volume step down by more than VolumeDecline is strong; two or more is weak.
func VolatilityContraction(bars []model.Bar, opts Options) model.PatternResult {
	opts = opts.withDefaults()
	res := model.PatternResult{Kind: model.KindVCP, Status: model.StatusNone, Bias: model.BiasNeutral}

	var swings []Swing
	start := max(0, len(bars)-opts.ShapeLookback)
	for _, s := range Swings(bars, opts.ExtremumWindow) {
		if s.Peak.Index >= start {
			swings = append(swings, s)
		}
	}
	if len(swings) < 2 {
		return res
	}

	run := 1
	for i := len(swings) - 1; i > 0; i-- {
		cur, prev := swings[i], swings[i-1]
		if cur.Amplitude < prev.Amplitude && cur.Volume < prev.Volume {
			run++
			continue
		}
		break
	}
	if run < 2 {
		return res
	}

	tail := swings[len(swings)-run:]
	steep := true
	for i := 1; i < len(tail); i++ {
		if tail[i].Volume >= tail[i-1].Volume*(1-opts.VolumeDecline) {
			steep = false
			break
		}
	}

	res.Bias = model.BiasBullish
	if run >= 3 && steep {
		res.Status, res.Confidence = model.StatusStrong, model.ConfidenceHigh
	} else {
		res.Status, res.Confidence = model.StatusWeak, model.ConfidenceMedium
	}
	res.Description = fmt.Sprintf("%d contracting swings, %.1f%% to %.1f%% depth",
		run, tail[0].Amplitude*100, tail[len(tail)-1].Amplitude*100)
	return res
}

// BreakoutSetup reports a setup when the close sits within BreakoutProximity
// of the recent high, a VCP is present and short-term volume is drying up.
func BreakoutSetup(bars []model.Bar, vcp model.PatternResult, opts Options) model.PatternResult {
	opts = opts.withDefaults()
	res := model.PatternResult{Kind: model.KindBreakoutSetup, Status: model.StatusNone, Bias: model.BiasNeutral}
	if vcp.Status != model.StatusWeak && vcp.Status != model.StatusStrong {
		return res
	}
	n := len(bars)
	high, _, err := calculator.HighLow(bars, opts.BreakoutLookback)
	if err != nil || high <= 0 {
		return res
	}
	last := bars[n-1].Close
	if last < high*(1-opts.BreakoutProximity) {
		return res
	}
	short, err := calculator.AverageVolume(bars, n, 5)
	if err != nil {
		return res
	}
	long, err := calculator.AverageVolume(bars, n, 20)
	if err != nil || short >= long {
		return res
	}

	res.Status, res.Bias = model.StatusSetup, model.BiasBullish
	res.Confidence = model.ConfidenceMedium
	if vcp.Status == model.StatusStrong {
		res.Confidence = model.ConfidenceHigh
	}
	res.Description = fmt.Sprintf("close %.2f is %.1f%% below the %d-bar high %.2f on light volume",
		last, (high-last)/high*100, opts.BreakoutLookback, high)
	return res
}
