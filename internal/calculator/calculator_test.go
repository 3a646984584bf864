package calculator

import (
	"errors"
	"math"
	"testing"

	"StockSentinel/internal/model"
)

const eps = 1e-9

func assertClose(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > eps {
		t.Errorf("%s: got %.10f, want %.10f", name, got, want)
	}
}

func seriesFromCloses(closes []float64) *model.BarSeries {
	bars := make([]model.Bar, len(closes))
	for i, c := range closes {
		bars[i] = model.Bar{
			Time:   int64(1700000000 + i*86400),
			Open:   c,
			High:   c,
			Low:    c,
			Close:  c,
			Volume: 1000,
		}
	}
	return &model.BarSeries{Symbol: "TEST", Period: model.Period1Y, Bars: bars}
}

func linear(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

func TestSMASeries(t *testing.T) {
	got := SMASeries([]float64{1, 2, 3, 4, 5}, 3)
	if Defined(got[0]) || Defined(got[1]) {
		t.Fatalf("expected leading NaN, got %v", got[:2])
	}
	assertClose(t, "sma[2]", got[2], 2)
	assertClose(t, "sma[3]", got[3], 3)
	assertClose(t, "sma[4]", got[4], 4)
}

func TestCalculateSMA_Insufficient(t *testing.T) {
	if _, err := CalculateSMA([]float64{1, 2}, 3); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
	if _, err := CalculateSMA([]float64{1, 2}, 0); err == nil {
		t.Error("expected error for zero period")
	}
}

func TestEMASeries_SeededBySMA(t *testing.T) {
	got := EMASeries([]float64{1, 2, 3, 4, 5, 6}, 3)
	if Defined(got[1]) {
		t.Fatalf("expected NaN before seed, got %v", got[1])
	}
	assertClose(t, "seed", got[2], 2)
	assertClose(t, "ema[3]", got[3], 3)
	assertClose(t, "ema[4]", got[4], 4)
	assertClose(t, "ema[5]", got[5], 5)
}

func TestEMASeries_SkipsLeadingNaN(t *testing.T) {
	in := []float64{math.NaN(), math.NaN(), 2, 4, 6}
	got := EMASeries(in, 2)
	if Defined(got[2]) {
		t.Fatalf("expected NaN at 2, got %v", got[2])
	}
	assertClose(t, "seed", got[3], 3)
	// k = 2/3
	assertClose(t, "ema[4]", got[4], 3+(6-3)*2.0/3.0)
}

func TestRSI(t *testing.T) {
	tests := []struct {
		name   string
		closes []float64
		want   float64
	}{
		{"all gains", linear(20, 100, 1), 100},
		{"all losses", linear(20, 100, -1), 0},
		{"alternating", func() []float64 {
			out := make([]float64, 15)
			for i := range out {
				out[i] = 10 + float64(i%2)
			}
			return out
		}(), 50},
	}
	for _, tt := range tests {
		got, err := CalculateRSI(tt.closes, RSIPeriod)
		if err != nil {
			t.Fatalf("%s: unexpected error %v", tt.name, err)
		}
		assertClose(t, tt.name, got, tt.want)
	}
}

func TestRSI_WilderSmoothing(t *testing.T) {
	// 14 alternating changes give avgGain = avgLoss = 0.5, then one +2 change:
	// avgGain = (0.5*13+2)/14, avgLoss = 0.5*13/14.
	closes := make([]float64, 15)
	for i := range closes {
		closes[i] = 10 + float64(i%2)
	}
	closes = append(closes, closes[14]+2)
	avgGain := (0.5*13 + 2) / 14
	avgLoss := 0.5 * 13 / 14
	want := 100 - 100/(1+avgGain/avgLoss)

	got, err := CalculateRSI(closes, RSIPeriod)
	if err != nil {
		t.Fatal(err)
	}
	assertClose(t, "rsi", got, want)
}

func TestRSI_Absent(t *testing.T) {
	if _, err := CalculateRSI(linear(14, 1, 1), RSIPeriod); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData for 14 closes, got %v", err)
	}
	s := RSISeries(linear(15, 1, 1), RSIPeriod)
	if !Defined(s[14]) {
		t.Error("expected RSI defined at index 14 with 15 closes")
	}
}

func TestMACD_Availability(t *testing.T) {
	m := MACD(linear(33, 100, 0.5), MACDFast, MACDSlow, MACDSignal)
	if Defined(last(m.Signal)) {
		t.Error("signal should be undefined with 33 closes")
	}
	if !Defined(m.Line[25]) || Defined(m.Line[24]) {
		t.Error("MACD line should start at index 25")
	}

	m = MACD(linear(34, 100, 0.5), MACDFast, MACDSlow, MACDSignal)
	if !Defined(last(m.Signal)) || !Defined(last(m.Histogram)) {
		t.Error("signal and histogram should be defined with 34 closes")
	}
}

func TestMACD_ConstantSeries(t *testing.T) {
	m := MACD(linear(60, 42, 0), MACDFast, MACDSlow, MACDSignal)
	assertClose(t, "line", last(m.Line), 0)
	assertClose(t, "signal", last(m.Signal), 0)
	assertClose(t, "hist", last(m.Histogram), 0)
}

func TestMACD_HistogramSignFlipsAtCrossover(t *testing.T) {
	closes := append(linear(40, 100, -1), linear(30, 61, 2)...)
	m := MACD(closes, MACDFast, MACDSlow, MACDSignal)
	for i := 1; i < len(closes); i++ {
		if !Defined(m.Histogram[i-1]) || !Defined(m.Histogram[i]) {
			continue
		}
		prevAbove := m.Line[i-1] > m.Signal[i-1]
		nowAbove := m.Line[i] > m.Signal[i]
		prevPos := m.Histogram[i-1] > 0
		nowPos := m.Histogram[i] > 0
		if (prevAbove != nowAbove) != (prevPos != nowPos) {
			t.Fatalf("index %d: crossover and histogram sign flip disagree", i)
		}
	}
}

func TestBollinger(t *testing.T) {
	b := Bollinger(linear(20, 1, 1), BollingerN, BollingerK)
	std := math.Sqrt(399.0 / 12.0)
	assertClose(t, "middle", last(b.Middle), 10.5)
	assertClose(t, "upper", last(b.Upper), 10.5+2*std)
	assertClose(t, "lower", last(b.Lower), 10.5-2*std)

	flat := Bollinger(linear(25, 7, 0), BollingerN, BollingerK)
	assertClose(t, "flat upper", last(flat.Upper), 7)
	assertClose(t, "flat lower", last(flat.Lower), 7)
}

func TestStochastic(t *testing.T) {
	flat := linear(20, 5, 0)
	s := Stochastic(flat, flat, flat, StochK, StochD)
	assertClose(t, "flat K", last(s.K), 50)
	assertClose(t, "flat D", last(s.D), 50)

	closes := linear(20, 10, 1)
	highs := linear(20, 10, 1)
	lows := linear(20, 9, 1)
	s = Stochastic(highs, lows, closes, StochK, StochD)
	assertClose(t, "K at high", last(s.K), 100)
	if Defined(s.K[12]) || !Defined(s.K[13]) {
		t.Error("K should start at index 13")
	}
	if Defined(s.D[14]) || !Defined(s.D[15]) {
		t.Error("D should start at index 15")
	}
}

func TestSnapshot_ShortSeries(t *testing.T) {
	set := Compute(seriesFromCloses(linear(10, 100, 1))).Snapshot()
	if set.RSI14 != nil || set.SMA20 != nil || set.MACD != nil || set.Bollinger != nil || set.Stochastic != nil {
		t.Errorf("expected all indicators absent for 10 bars, got %+v", set)
	}
}

func TestSnapshot_SixtyBars(t *testing.T) {
	closes := linear(60, 100, 0.5)
	set := Compute(seriesFromCloses(closes)).Snapshot()
	if set.SMA20 == nil || set.SMA50 == nil {
		t.Fatal("expected SMA20 and SMA50 present")
	}
	if set.SMA200 != nil {
		t.Error("expected SMA200 absent for 60 bars")
	}
	if set.RSI14 == nil || *set.RSI14 != 100 {
		t.Errorf("expected RSI 100 for monotonic rise, got %v", set.RSI14)
	}
	if set.MACD == nil {
		t.Fatal("expected MACD present")
	}
	want, _ := CalculateSMA(closes, 20)
	assertClose(t, "sma20", *set.SMA20, want)
}

func TestPercentChange(t *testing.T) {
	closes := []float64{100, 110, 121}
	pct, ok := PercentChange(closes, 1)
	if !ok {
		t.Fatal("expected ok")
	}
	assertClose(t, "1 bar", pct, 10)
	pct, _ = PercentChange(closes, 2)
	assertClose(t, "2 bars", pct, 21)
	if _, ok := PercentChange(closes, 3); ok {
		t.Error("expected not ok when lookback exceeds series")
	}
}

func TestHighLowAndPosition(t *testing.T) {
	bars := seriesFromCloses([]float64{5, 9, 3, 7}).Bars
	high, low, err := HighLow(bars, 3)
	if err != nil {
		t.Fatal(err)
	}
	if high != 9 || low != 3 {
		t.Errorf("got high=%v low=%v", high, low)
	}
	pos, err := RangePosition(6, high, low)
	if err != nil {
		t.Fatal(err)
	}
	assertClose(t, "position", pos, 0.5)
	if _, _, err := HighLow(nil, 3); err == nil {
		t.Error("expected error for empty bars")
	}
}
