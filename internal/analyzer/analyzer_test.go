package analyzer

import (
	"context"
	"errors"
	"math"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"StockSentinel/internal/collector"
	"StockSentinel/internal/metrics"
	"StockSentinel/internal/model"
)

// fakeSource serves prepared series and tracks how many calls overlap.
type fakeSource struct {
	series map[string]*model.BarSeries
	errs   map[string]error
	panics map[string]bool
	delay  time.Duration

	mu       sync.Mutex
	calls    []string
	inflight atomic.Int32
	peak     atomic.Int32
}

func (f *fakeSource) Acquire(ctx context.Context, symbol string, _ model.Period) (*model.BarSeries, error) {
	f.mu.Lock()
	f.calls = append(f.calls, symbol)
	f.mu.Unlock()

	n := f.inflight.Add(1)
	defer f.inflight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.panics[symbol] {
		panic("boom")
	}
	if err, ok := f.errs[symbol]; ok {
		return nil, err
	}
	if s, ok := f.series[symbol]; ok {
		return s, nil
	}
	return wave(symbol, 80, 100, 0.5), nil
}

// wave builds n bars oscillating around base with a linear drift per bar.
func wave(symbol string, n int, base, drift float64) *model.BarSeries {
	bars := make([]model.Bar, n)
	for i := range bars {
		c := base + drift*float64(i) + 3*math.Sin(float64(i)/3)
		bars[i] = model.Bar{
			Time:   int64(1_700_000_000 + i*86400),
			Open:   c - 0.5,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: int64(1_000_000 + i*1000),
		}
	}
	return &model.BarSeries{Symbol: symbol, Period: model.Period6Mo, Bars: bars, Meta: model.SeriesMeta{Source: "fake"}}
}

func TestAnalyze_PartialFailure(t *testing.T) {
	src := &fakeSource{
		series: map[string]*model.BarSeries{
			"A": wave("A", 80, 100, 0.8),
			"C": wave("C", 80, 100, -0.8),
		},
		errs: map[string]error{"B": collector.ErrNoData},
	}
	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)
	a := New(src, Options{}, nil, m)

	res, err := a.Analyze(context.Background(), model.AnalyzeRequest{Symbols: []string{"A", "B", "C"}, Period: model.Period6Mo})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Succeeded) != 2 || len(res.Ranked) != 2 {
		t.Fatalf("expected 2 successes, got %d", len(res.Succeeded))
	}
	if !reflect.DeepEqual(res.Failed, []string{"B"}) {
		t.Errorf("expected B to fail, got %v", res.Failed)
	}
	if !strings.Contains(res.Failures["B"], StageAcquire) {
		t.Errorf("failure should name the stage: %q", res.Failures["B"])
	}
	if res.ID == "" || res.Period != model.Period6Mo {
		t.Errorf("batch metadata missing: %+v", res)
	}
	if res.Ranked[0].Score < res.Ranked[1].Score {
		t.Errorf("ranking not descending: %v then %v", res.Ranked[0].Score, res.Ranked[1].Score)
	}
	if got := testutil.ToFloat64(m.SymbolFailures.WithLabelValues(StageAcquire)); got != 1 {
		t.Errorf("expected 1 acquire failure metric, got %v", got)
	}
}

func TestAnalyze_SyntheticFallbackStillScores(t *testing.T) {
	synth := collector.NewSyntheticSource()
	coord := collector.NewCoordinator(nil, synth, time.Second, nil, nil)
	a := New(coord, Options{}, nil, nil)

	res, err := a.Analyze(context.Background(), model.AnalyzeRequest{Symbols: []string{"msft"}, Period: model.Period1Y})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rec, ok := res.Succeeded["MSFT"]
	if !ok {
		t.Fatalf("MSFT missing: failures=%v", res.Failures)
	}
	if !rec.Synthetic || rec.DataNotice == "" {
		t.Errorf("synthetic result must be flagged: %+v", rec)
	}
}

// routedAdapter serves the series it holds and fails every other symbol.
type routedAdapter struct {
	name   string
	series map[string]*model.BarSeries
}

func (r *routedAdapter) Name() string { return r.name }

func (r *routedAdapter) Fetch(_ context.Context, symbol string, _ model.Period, _ time.Duration) (*model.BarSeries, error) {
	if s, ok := r.series[symbol]; ok {
		return s, nil
	}
	return nil, errors.New("symbol not served")
}

// emptyFallback yields a series without bars.
type emptyFallback struct{}

func (emptyFallback) Name() string { return "empty" }

func (emptyFallback) Fetch(_ context.Context, symbol string, period model.Period, _ time.Duration) (*model.BarSeries, error) {
	return &model.BarSeries{Symbol: symbol, Period: period}, nil
}

func TestAnalyze_CoordinatorHardFailureIsPerSymbol(t *testing.T) {
	down := &routedAdapter{name: "down"}
	partial := &routedAdapter{name: "partial", series: map[string]*model.BarSeries{
		"A": wave("A", 80, 100, 0.8),
		"C": wave("C", 80, 100, -0.8),
	}}
	for _, s := range partial.series {
		s.Meta.Source = ""
	}
	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)
	coord := collector.NewCoordinator([]collector.SourceAdapter{down, partial}, emptyFallback{}, time.Second, nil, m)
	a := New(coord, Options{}, nil, m)

	res, err := a.Analyze(context.Background(), model.AnalyzeRequest{Symbols: []string{"A", "B", "C"}, Period: model.Period6Mo})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(res.Failed, []string{"B"}) {
		t.Fatalf("expected only B to fail, got %v", res.Failed)
	}
	if !strings.Contains(res.Failures["B"], StageAcquire) || !strings.Contains(res.Failures["B"], collector.ErrNoData.Error()) {
		t.Errorf("B failure should be a hard acquisition failure: %q", res.Failures["B"])
	}
	if len(res.Ranked) != 2 {
		t.Fatalf("A and C should still rank, got %d results", len(res.Ranked))
	}
	if _, ok := res.Succeeded["A"]; !ok {
		t.Error("A missing from results")
	}
	if _, ok := res.Succeeded["C"]; !ok {
		t.Error("C missing from results")
	}
	for _, rec := range res.Ranked {
		if rec.Synthetic || rec.Source != "partial" {
			t.Errorf("%s should come from the partial adapter, got source %q synthetic=%v", rec.Symbol, rec.Source, rec.Synthetic)
		}
	}
	if got := testutil.ToFloat64(m.SymbolFailures.WithLabelValues(StageAcquire)); got != 1 {
		t.Errorf("expected 1 acquire failure metric, got %v", got)
	}
}

// stubFundamentals returns fixed figures, or an error for symbols in fail.
type stubFundamentals struct {
	fail map[string]bool
}

func (s stubFundamentals) Fundamentals(_ context.Context, symbol string) (*model.Fundamentals, error) {
	if s.fail[symbol] {
		return nil, errors.New("quote unavailable")
	}
	return &model.Fundamentals{PERatio: model.Float(21.5), MarketCap: 5e11, Source: "stub"}, nil
}

func TestAnalyze_FundamentalsAreBestEffort(t *testing.T) {
	a := New(&fakeSource{}, Options{Fundamentals: stubFundamentals{fail: map[string]bool{"NOQ": true}}}, nil, nil)

	res, err := a.Analyze(context.Background(), model.AnalyzeRequest{Symbols: []string{"AAPL", "NOQ"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Failed) != 0 {
		t.Fatalf("a fundamentals error must not fail the symbol: %v", res.Failures)
	}
	if f := res.Succeeded["AAPL"].Fundamentals; f == nil || *f.PERatio != 21.5 {
		t.Errorf("AAPL fundamentals = %+v", f)
	}
	if f := res.Succeeded["NOQ"].Fundamentals; f != nil {
		t.Errorf("NOQ fundamentals should be nil, got %+v", f)
	}
}

func TestAnalyze_InsufficientBars(t *testing.T) {
	src := &fakeSource{series: map[string]*model.BarSeries{"TINY": wave("TINY", 19, 50, 0)}}
	a := New(src, Options{}, nil, nil)

	res, err := a.Analyze(context.Background(), model.AnalyzeRequest{Symbols: []string{"TINY"}, Period: model.Period1Mo})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Failed) != 1 || !strings.Contains(res.Failures["TINY"], StageData) {
		t.Errorf("expected insufficient-data failure, got %v", res.Failures)
	}
}

func TestAnalyze_PanicIsContained(t *testing.T) {
	src := &fakeSource{panics: map[string]bool{"BAD": true}}
	a := New(src, Options{}, nil, nil)

	res, err := a.Analyze(context.Background(), model.AnalyzeRequest{Symbols: []string{"BAD", "GOOD"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := res.Succeeded["GOOD"]; !ok {
		t.Error("GOOD should succeed alongside a panicking symbol")
	}
	if !strings.Contains(res.Failures["BAD"], StagePanic) {
		t.Errorf("expected panic failure, got %q", res.Failures["BAD"])
	}
	if res.Period != model.Period1Y {
		t.Errorf("empty period should default to 1y, got %s", res.Period)
	}
}

func TestAnalyze_Validation(t *testing.T) {
	a := New(&fakeSource{}, Options{}, nil, nil)
	tests := []struct {
		name string
		req  model.AnalyzeRequest
		want error
	}{
		{"no symbols", model.AnalyzeRequest{Period: model.Period1Y}, ErrNoSymbols},
		{"blank symbols", model.AnalyzeRequest{Symbols: []string{" ", ""}, Period: model.Period1Y}, ErrNoSymbols},
		{"bad period", model.AnalyzeRequest{Symbols: []string{"AAPL"}, Period: "7w"}, ErrUnknownPeriod},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := a.Analyze(context.Background(), tt.req); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestAnalyze_ConcurrencyCap(t *testing.T) {
	src := &fakeSource{delay: 20 * time.Millisecond}
	a := New(src, Options{Concurrency: 2}, nil, nil)

	symbols := []string{"A", "B", "C", "D", "E", "F", "G"}
	res, err := a.Analyze(context.Background(), model.AnalyzeRequest{Symbols: symbols, Period: model.Period6Mo})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Ranked) != len(symbols) {
		t.Fatalf("expected %d results, got %d (%v)", len(symbols), len(res.Ranked), res.Failures)
	}
	if p := src.peak.Load(); p > 2 {
		t.Errorf("at most 2 symbols may be in flight, saw %d", p)
	}
}

func TestAnalyze_DedupesSymbols(t *testing.T) {
	src := &fakeSource{}
	a := New(src, Options{}, nil, nil)

	res, err := a.Analyze(context.Background(), model.AnalyzeRequest{Symbols: []string{"aapl", " AAPL ", "msft"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(res.Requested, []string{"AAPL", "MSFT"}) {
		t.Errorf("requested = %v", res.Requested)
	}
	if len(src.calls) != 2 {
		t.Errorf("expected one acquisition per unique symbol, got %v", src.calls)
	}
}

func TestAnalyze_Deterministic(t *testing.T) {
	a := New(&fakeSource{}, Options{}, nil, nil)
	req := model.AnalyzeRequest{Symbols: []string{"X", "Y"}, Period: model.Period6Mo}

	r1, err := a.Analyze(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	r2, err := a.Analyze(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(r1.Ranked, r2.Ranked) {
		t.Error("identical inputs must produce identical recommendations")
	}
}

func TestAnalyze_SymbolTimeout(t *testing.T) {
	src := &fakeSource{delay: time.Second}
	a := New(src, Options{SymbolTimeout: 30 * time.Millisecond}, nil, nil)

	start := time.Now()
	res, err := a.Analyze(context.Background(), model.AnalyzeRequest{Symbols: []string{"SLOW"}})
	if err != nil {
		t.Fatal(err)
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Errorf("symbol timeout not enforced")
	}
	if len(res.Failed) != 1 {
		t.Errorf("expected SLOW to fail, got %+v", res)
	}
}

func TestSplitSymbols(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"aapl,msft", []string{"AAPL", "MSFT"}},
		{" aapl  msft\tnvda ", []string{"AAPL", "MSFT", "NVDA"}},
		{"aapl, AAPL;msft", []string{"AAPL", "MSFT"}},
		{"", []string{}},
	}
	for _, tt := range tests {
		if got := SplitSymbols(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("SplitSymbols(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
