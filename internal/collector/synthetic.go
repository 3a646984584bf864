package collector

import (
	"context"
	"errors"
	"hash/fnv"
	"math"
	"math/rand"
	"time"

	"StockSentinel/internal/model"
)

// SyntheticNotice is attached to every series produced by the generator.
const SyntheticNotice = "synthetic data: every market data source failed; prices are simulated and must not be used for trading decisions"

// SyntheticSource generates plausible, deterministic bars for a symbol when
// every real adapter has failed. The output is always flagged as synthetic.
type SyntheticSource struct {
	Now func() time.Time
}

// NewSyntheticSource creates a generator anchored to the wall clock.
func NewSyntheticSource() *SyntheticSource {
	return &SyntheticSource{Now: time.Now}
}

func (s *SyntheticSource) Name() string { return "synthetic" }

// Fetch satisfies SourceAdapter so the generator can sit at the end of a chain.
func (s *SyntheticSource) Fetch(ctx context.Context, symbol string, period model.Period, _ time.Duration) (*model.BarSeries, error) {
	if err := ctx.Err(); err != nil {
		return nil, failure(s.Name(), ReasonTimeout, err)
	}
	if !period.Valid() {
		return nil, failure(s.Name(), ReasonEmpty, errors.New("unknown period"))
	}
	return s.Generate(symbol, period), nil
}

// Generate builds the series. The same symbol, period and calendar day always
// produce the same bars.
func (s *SyntheticSource) Generate(symbol string, period model.Period) *model.BarSeries {
	rng := rand.New(rand.NewSource(seedFor(symbol, period)))
	basePrice := 100 + rng.Float64()*900

	count := period.TradingDays()
	if count < 21 {
		count = 21
	}
	times := tradingDays(s.now(), count)

	bars := make([]model.Bar, count)
	prev := basePrice
	for i := 0; i < count; i++ {
		ret := 0.0003 + 0.018*rng.NormFloat64()
		c := math.Max(prev*(1+ret), prev*0.5)
		o := prev * (1 + 0.003*rng.NormFloat64())
		h := math.Max(o, c) * (1 + math.Abs(rng.NormFloat64())*0.006)
		l := math.Min(o, c) * (1 - math.Abs(rng.NormFloat64())*0.006)
		bars[i] = model.Bar{
			Time:   times[i],
			Open:   round2(o),
			High:   round2(h),
			Low:    round2(l),
			Close:  round2(c),
			Volume: 1_000_000 + rng.Int63n(9_000_000),
		}
		prev = c
	}

	return &model.BarSeries{
		Symbol: symbol,
		Period: period,
		Bars:   bars,
		Meta: model.SeriesMeta{
			CompanyName: symbol + " (simulated)",
			Currency:    "USD",
			Source:      s.Name(),
			Synthetic:   true,
			Notice:      SyntheticNotice,
		},
	}
}

func (s *SyntheticSource) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func seedFor(symbol string, period model.Period) int64 {
	h := fnv.New64a()
	h.Write([]byte(symbol))
	h.Write([]byte{0})
	h.Write([]byte(period))
	return int64(h.Sum64())
}

// tradingDays returns count weekday midnights (UTC) ending at or before now.
func tradingDays(now time.Time, count int) []int64 {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	out := make([]int64, count)
	for i := count - 1; i >= 0; {
		if wd := day.Weekday(); wd != time.Saturday && wd != time.Sunday {
			out[i] = day.Unix()
			i--
		}
		day = day.AddDate(0, 0, -1)
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
