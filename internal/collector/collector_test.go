package collector

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"StockSentinel/internal/config"
	"StockSentinel/internal/model"
)

func TestNormalize(t *testing.T) {
	raw := &model.BarSeries{
		Symbol: " spy ",
		Bars: []model.Bar{
			{Time: 300, Open: 12, High: 11, Low: 13, Close: 12.5, Volume: -5},
			{Time: 100, Open: 10, High: 11, Low: 9, Close: 10, Volume: 100},
			{Time: 200, Open: 0, High: math.NaN(), Low: 0, Close: 11, Volume: 200},
			{Time: 200, Open: 11, High: 11.5, Low: 10.5, Close: 11.2, Volume: 250},
			{Time: 400, Close: 0},
			{Time: 0, Close: 14},
		},
	}

	got, err := Normalize(raw)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if got.Symbol != "SPY" {
		t.Errorf("symbol = %q", got.Symbol)
	}
	var times []int64
	for _, b := range got.Bars {
		times = append(times, b.Time)
	}
	if !reflect.DeepEqual(times, []int64{100, 200, 300}) {
		t.Fatalf("times = %v", times)
	}
	if got.Bars[1].Close != 11.2 {
		t.Errorf("duplicate timestamp should keep the later bar, got close %v", got.Bars[1].Close)
	}
	last := got.Bars[2]
	if last.High != 12.5 || last.Low != 12 || last.Volume != 0 {
		t.Errorf("envelope not repaired: %+v", last)
	}
	if got.Meta.CurrentPrice != 12.5 || got.Meta.PreviousClose != 11.2 {
		t.Errorf("meta prices = %v / %v", got.Meta.CurrentPrice, got.Meta.PreviousClose)
	}
	if got.Meta.CompanyName != "SPY" {
		t.Errorf("company name default = %q", got.Meta.CompanyName)
	}
}

func TestNormalize_Empty(t *testing.T) {
	tests := []*model.BarSeries{
		nil,
		{Symbol: "X"},
		{Symbol: "X", Bars: []model.Bar{{Time: 1, Close: math.NaN()}, {Time: 2, Close: -1}}},
	}
	for i, raw := range tests {
		if _, err := Normalize(raw); !errors.Is(err, ErrEmptySeries) {
			t.Errorf("case %d: expected ErrEmptySeries, got %v", i, err)
		}
	}
}

func TestNormalize_SingleBarKeepsPreviousClose(t *testing.T) {
	raw := &model.BarSeries{
		Symbol: "X",
		Bars:   []model.Bar{{Time: 1, Open: 5, High: 5, Low: 5, Close: 5}},
		Meta:   model.SeriesMeta{PreviousClose: 4.5},
	}
	got, err := Normalize(raw)
	if err != nil {
		t.Fatal(err)
	}
	if got.Meta.PreviousClose != 4.5 {
		t.Errorf("previous close = %v, want 4.5", got.Meta.PreviousClose)
	}
}

func TestSyntheticDeterministic(t *testing.T) {
	src := fixedSynthetic()
	a := src.Generate("AAPL", model.Period3Mo)
	b := src.Generate("AAPL", model.Period3Mo)
	if !reflect.DeepEqual(a, b) {
		t.Fatal("same symbol and period must produce identical bars")
	}
	c := src.Generate("MSFT", model.Period3Mo)
	if reflect.DeepEqual(a.Bars, c.Bars) {
		t.Error("different symbols should produce different bars")
	}
	if !a.Meta.Synthetic || a.Meta.Notice != SyntheticNotice {
		t.Errorf("meta not flagged: %+v", a.Meta)
	}
	if len(a.Bars) != model.Period3Mo.TradingDays() {
		t.Errorf("bar count = %d, want %d", len(a.Bars), model.Period3Mo.TradingDays())
	}
}

func TestSyntheticBars(t *testing.T) {
	series := fixedSynthetic().Generate("QQQ", model.Period1Mo)
	if len(series.Bars) != 21 {
		t.Fatalf("short periods are padded to 21 bars, got %d", len(series.Bars))
	}
	wantLast := time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC).Unix()
	if series.Last().Time != wantLast {
		t.Errorf("last bar at %v, want %v", series.Last().Timestamp(), time.Unix(wantLast, 0).UTC())
	}
	for i, b := range series.Bars {
		if wd := b.Timestamp().Weekday(); wd == time.Saturday || wd == time.Sunday {
			t.Errorf("bar %d falls on %s", i, wd)
		}
		if i > 0 && b.Time <= series.Bars[i-1].Time {
			t.Errorf("bar %d not after previous", i)
		}
		if b.High < math.Max(b.Open, b.Close) || b.Low > math.Min(b.Open, b.Close) || b.Low <= 0 {
			t.Errorf("bar %d violates OHLC envelope: %+v", i, b)
		}
		if b.Volume < 1_000_000 || b.Volume >= 10_000_000 {
			t.Errorf("bar %d volume out of range: %d", i, b.Volume)
		}
	}
}

func TestSyntheticFetch_InvalidPeriod(t *testing.T) {
	_, err := fixedSynthetic().Fetch(context.Background(), "X", model.Period("7d"), 0)
	if ReasonOf(err) != ReasonEmpty {
		t.Errorf("expected empty-result, got %v", err)
	}
}

type fakeBarsClient struct {
	bars  []marketdata.Bar
	err   error
	block bool
	req   marketdata.GetBarsRequest
}

func (f *fakeBarsClient) GetBars(symbol string, req marketdata.GetBarsRequest) ([]marketdata.Bar, error) {
	f.req = req
	if f.block {
		time.Sleep(time.Second)
	}
	return f.bars, f.err
}

func TestAlpacaFetch(t *testing.T) {
	now := time.Date(2024, 6, 14, 20, 0, 0, 0, time.UTC)
	fake := &fakeBarsClient{bars: []marketdata.Bar{
		{Timestamp: now.AddDate(0, 0, -1), Open: 10, High: 11, Low: 9, Close: 10.5, Volume: 1000},
		{Timestamp: now, Open: 10.5, High: 12, Low: 10, Close: 11.5, Volume: 2000},
	}}
	a := &AlpacaAdapter{client: fake, now: func() time.Time { return now }}

	got, err := a.Fetch(context.Background(), "AAPL", model.Period1Y, time.Second)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(got.Bars) != 2 || got.Bars[1].Close != 11.5 || got.Bars[1].Volume != 2000 {
		t.Errorf("unexpected bars %+v", got.Bars)
	}
	if !fake.req.Start.Equal(now.AddDate(0, 0, -365)) || fake.req.TimeFrame != marketdata.OneDay {
		t.Errorf("unexpected request %+v", fake.req)
	}

	fake.bars = nil
	if _, err := a.Fetch(context.Background(), "AAPL", model.Period1Y, time.Second); ReasonOf(err) != ReasonEmpty {
		t.Errorf("expected empty-result, got %v", err)
	}

	fake.err = errors.New("forbidden")
	if _, err := a.Fetch(context.Background(), "AAPL", model.Period1Y, time.Second); ReasonOf(err) != ReasonTransport {
		t.Errorf("expected transport-error, got %v", err)
	}

	fake.err = nil
	fake.block = true
	if _, err := a.Fetch(context.Background(), "AAPL", model.Period1Y, 20*time.Millisecond); ReasonOf(err) != ReasonTimeout {
		t.Errorf("expected timeout, got %v", err)
	}
}

func TestBuildAdapters(t *testing.T) {
	adapters, err := BuildAdapters(config.DefaultSources(), "")
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, a := range adapters {
		names = append(names, a.Name())
	}
	want := []string{"yahoo", "yahoo-allorigins", "yahoo-corsproxy", "finance-go"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("adapter chain = %v, want %v", names, want)
	}

	if _, err := BuildAdapters([]config.Source{{Name: "x", Kind: "nope"}}, ""); err == nil {
		t.Error("expected error for unknown kind")
	}
	if _, err := BuildAdapters([]config.Source{{Name: "y", Kind: config.SourceYahoo, Disabled: true}}, ""); err == nil {
		t.Error("expected error when every source is disabled")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly", 7, "exactly"},
		{"überlang", 3, "übe..."},
		{"日本語のエラー", 2, "日本..."},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}
