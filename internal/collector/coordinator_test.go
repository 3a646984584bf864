package collector

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"StockSentinel/internal/metrics"
	"StockSentinel/internal/model"
)

type fakeAdapter struct {
	name   string
	series *model.BarSeries
	err    error
	delay  time.Duration
	calls  atomic.Int32
}

func (f *fakeAdapter) Name() string { return f.name }

func (f *fakeAdapter) Fetch(ctx context.Context, symbol string, period model.Period, timeout time.Duration) (*model.BarSeries, error) {
	f.calls.Add(1)
	ctx, cancel := withTimeout(ctx, timeout)
	defer cancel()
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, transportFailure(f.name, ctx, ctx.Err())
		case <-time.After(f.delay):
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.series, nil
}

func sampleSeries(symbol string, closes ...float64) *model.BarSeries {
	bars := make([]model.Bar, len(closes))
	for i, c := range closes {
		bars[i] = model.Bar{Time: int64(1700000000 + i*86400), Open: c, High: c, Low: c, Close: c, Volume: 100}
	}
	return &model.BarSeries{Symbol: symbol, Period: model.Period1Mo, Bars: bars}
}

func fixedSynthetic() *SyntheticSource {
	return &SyntheticSource{Now: func() time.Time { return time.Date(2024, 6, 14, 15, 0, 0, 0, time.UTC) }}
}

func TestAcquire_FirstSuccessWins(t *testing.T) {
	a := &fakeAdapter{name: "a", err: failure("a", ReasonTransport, errors.New("boom"))}
	b := &fakeAdapter{name: "b", series: sampleSeries("aapl", 10, 11, 12)}
	c := &fakeAdapter{name: "c", series: sampleSeries("aapl", 1, 2, 3)}

	coord := NewCoordinator([]SourceAdapter{a, b, c}, fixedSynthetic(), time.Second, nil, nil)
	got, err := coord.Acquire(context.Background(), "aapl", model.Period1Mo)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Meta.Source != "b" {
		t.Errorf("expected source b, got %s", got.Meta.Source)
	}
	if got.Symbol != "AAPL" {
		t.Errorf("expected upper-case symbol, got %s", got.Symbol)
	}
	if got.Meta.Synthetic {
		t.Error("real data must not be flagged synthetic")
	}
	if got.Meta.CurrentPrice != 12 || got.Meta.PreviousClose != 11 {
		t.Errorf("meta prices not derived from bars: %+v", got.Meta)
	}
	if c.calls.Load() != 0 {
		t.Error("adapter after the first success must not be called")
	}
}

func TestAcquire_SyntheticFallback(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)
	adapters := []SourceAdapter{
		&fakeAdapter{name: "a", err: failure("a", ReasonTimeout, context.DeadlineExceeded)},
		&fakeAdapter{name: "b", err: failure("b", ReasonMalformed, errors.New("bad json"))},
	}
	coord := NewCoordinator(adapters, fixedSynthetic(), time.Second, nil, m)

	got, err := coord.Acquire(context.Background(), "MSFT", model.Period3Mo)
	if err != nil {
		t.Fatalf("synthetic fallback should not fail: %v", err)
	}
	if !got.Meta.Synthetic || got.Meta.Notice == "" {
		t.Errorf("expected synthetic flag and notice, got %+v", got.Meta)
	}
	if len(got.Bars) == 0 {
		t.Fatal("expected synthetic bars")
	}
	if got.Meta.CurrentPrice != got.Last().Close {
		t.Error("current price must equal last close")
	}
	if v := testutil.ToFloat64(m.SyntheticFallback); v != 1 {
		t.Errorf("expected 1 synthetic fallback, got %v", v)
	}
	if v := testutil.ToFloat64(m.AdapterAttempts.WithLabelValues("a", string(ReasonTimeout))); v != 1 {
		t.Errorf("expected timeout attempt counted, got %v", v)
	}
}

func TestAcquire_NoFallback(t *testing.T) {
	a := &fakeAdapter{name: "a", err: failure("a", ReasonEmpty, errors.New("unknown symbol"))}
	coord := NewCoordinator([]SourceAdapter{a}, nil, time.Second, nil, nil)
	_, err := coord.Acquire(context.Background(), "ZZZZ", model.Period1Y)
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

func TestAcquire_EmptyFallback(t *testing.T) {
	a := &fakeAdapter{name: "a", err: failure("a", ReasonTransport, errors.New("down"))}
	empty := &fakeAdapter{name: "synthetic", series: &model.BarSeries{Symbol: "B"}}
	coord := NewCoordinator([]SourceAdapter{a}, empty, time.Second, nil, nil)
	_, err := coord.Acquire(context.Background(), "B", model.Period1Y)
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData for empty fallback, got %v", err)
	}
}

func TestAcquire_TimeoutMovesOn(t *testing.T) {
	slow := &fakeAdapter{name: "slow", delay: time.Second, series: sampleSeries("X", 1)}
	fast := &fakeAdapter{name: "fast", series: sampleSeries("X", 5, 6)}
	coord := NewCoordinator([]SourceAdapter{slow, fast}, nil, 30*time.Millisecond, nil, nil)

	start := time.Now()
	got, err := coord.Acquire(context.Background(), "X", model.Period1Mo)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Meta.Source != "fast" {
		t.Errorf("expected fast adapter, got %s", got.Meta.Source)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("timeout not enforced, took %v", elapsed)
	}
}

func TestAcquire_ZeroBarsIsFailure(t *testing.T) {
	empty := &fakeAdapter{name: "empty", series: &model.BarSeries{Symbol: "X"}}
	real := &fakeAdapter{name: "real", series: sampleSeries("X", 3, 4)}
	coord := NewCoordinator([]SourceAdapter{empty, real}, nil, time.Second, nil, nil)
	got, err := coord.Acquire(context.Background(), "X", model.Period1Mo)
	if err != nil {
		t.Fatal(err)
	}
	if got.Meta.Source != "real" {
		t.Errorf("expected fallback to real adapter, got %s", got.Meta.Source)
	}
}

func TestAcquire_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	a := &fakeAdapter{name: "a", series: sampleSeries("X", 1)}
	coord := NewCoordinator([]SourceAdapter{a}, fixedSynthetic(), time.Second, nil, nil)
	if _, err := coord.Acquire(ctx, "X", model.Period1Mo); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestReasonOf(t *testing.T) {
	tests := []struct {
		err  error
		want Reason
	}{
		{failure("x", ReasonMalformed, nil), ReasonMalformed},
		{context.DeadlineExceeded, ReasonTimeout},
		{errors.New("connection refused"), ReasonTransport},
	}
	for _, tt := range tests {
		if got := ReasonOf(tt.err); got != tt.want {
			t.Errorf("ReasonOf(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
}
