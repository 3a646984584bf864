package scheduler

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"StockSentinel/internal/config"
	"StockSentinel/internal/model"
	"StockSentinel/internal/notifier"
	"StockSentinel/internal/portfolio"
	"StockSentinel/internal/recorder"
)

type fakeAnalyzer struct {
	mu    sync.Mutex
	recs  []model.Recommendation
	calls int
	last  model.AnalyzeRequest
}

func (f *fakeAnalyzer) Analyze(_ context.Context, req model.AnalyzeRequest) (*model.BatchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.last = req
	if len(req.Symbols) == 0 {
		return nil, errors.New("no symbols requested")
	}
	res := &model.BatchResult{
		ID:        "batch",
		Period:    model.Period1Y,
		Requested: req.Symbols,
		Succeeded: map[string]model.Recommendation{},
		Failures:  map[string]string{},
	}
	for _, r := range f.recs {
		res.Ranked = append(res.Ranked, r)
		res.Succeeded[r.Symbol] = r
	}
	model.SortRecommendations(res.Ranked)
	return res, nil
}

type captureNotifier struct {
	sent []notifier.Message
	err  error
}

func (c *captureNotifier) Name() string { return "capture" }

func (c *captureNotifier) Send(_ context.Context, msg notifier.Message) error {
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, msg)
	return nil
}

func buy(sym string, score float64) model.Recommendation {
	return model.Recommendation{Symbol: sym, Score: score, Category: model.CategoryBuy, Price: 100}
}

// wednesday is a regular-session time in New York.
var wednesday = time.Date(2024, 6, 12, 14, 0, 0, 0, time.UTC)

func newTestScheduler(t *testing.T, recs []model.Recommendation) (*Scheduler, *fakeAnalyzer, *captureNotifier) {
	t.Helper()
	cfg := config.Default()
	fa := &fakeAnalyzer{recs: recs}
	cn := &captureNotifier{}
	s, err := NewScheduler(context.Background(), cfg, fa, nil, cn, recorder.NewNoopRecorder(), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	s.Now = func() time.Time { return wednesday }
	return s, fa, cn
}

func TestRunScan_OnlyNewSignalsNotify(t *testing.T) {
	recs := []model.Recommendation{
		buy("AAPL", 22),
		buy("NVDA", 35),
		{Symbol: "MSFT", Score: 15, Category: model.CategoryHold},
		{Symbol: "XOM", Score: -30, Category: model.CategorySell},
	}
	s, fa, cn := newTestScheduler(t, recs)
	ctx := context.Background()

	out, err := s.RunScan(ctx, ScanMarket)
	if err != nil {
		t.Fatal(err)
	}
	if len(out.New) != 2 || out.New[0].Symbol != "NVDA" {
		t.Fatalf("expected NVDA and AAPL as new, got %+v", out.New)
	}
	if len(cn.sent) != 1 || cn.sent[0].Title != "Market BUY Alerts" {
		t.Fatalf("expected one market alert, got %+v", cn.sent)
	}
	if !strings.Contains(cn.sent[0].Text, "NVDA BUY (score 35)") {
		t.Errorf("alert text: %q", cn.sent[0].Text)
	}
	if len(fa.last.Symbols) == 0 {
		t.Error("market context symbols were not passed to the analyzer")
	}

	// Same signals again: nothing new.
	out, err = s.RunScan(ctx, ScanMarket)
	if err != nil {
		t.Fatal(err)
	}
	if len(out.New) != 0 || len(cn.sent) != 1 {
		t.Errorf("repeat run must not notify: new=%d sent=%d", len(out.New), len(cn.sent))
	}

	// A changed score is a new key.
	fa.recs[0] = buy("AAPL", 24)
	out, _ = s.RunScan(ctx, ScanMarket)
	if len(out.New) != 1 || out.New[0].Symbol != "AAPL" {
		t.Errorf("expected AAPL re-alerted, got %+v", out.New)
	}
}

func TestRunScan_MarketHoursGate(t *testing.T) {
	s, fa, cn := newTestScheduler(t, []model.Recommendation{buy("SPY", 30)})
	s.Now = func() time.Time { return time.Date(2024, 6, 15, 15, 0, 0, 0, time.UTC) } // Saturday

	out, err := s.RunScan(context.Background(), ScanMarket)
	if err != nil {
		t.Fatal(err)
	}
	if !out.Skipped || fa.calls != 0 {
		t.Errorf("market scan should skip on weekends: %+v calls=%d", out, fa.calls)
	}

	// The ETF scan is not gated by default.
	out, err = s.RunScan(context.Background(), ScanETF)
	if err != nil {
		t.Fatal(err)
	}
	if out.Skipped || len(cn.sent) != 1 || cn.sent[0].Title != "ETF BUY Alerts" {
		t.Errorf("etf scan should run: %+v sent=%v", out, cn.sent)
	}
}

func TestRunScan_Filters(t *testing.T) {
	recs := []model.Recommendation{buy("AAPL", 22), buy("NVDA", 35), buy("AMD", 50)}
	s, _, _ := newTestScheduler(t, recs)

	pm, err := portfolio.NewManager(filepath.Join(t.TempDir(), "p.json"), []string{"AAPL", "NVDA"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	s.Portfolio = pm
	s.Config.Alerts.Market.PortfolioOnly = true
	s.Config.Alerts.Market.MinScore = 25
	s.Config.Alerts.Market.TopN = 5

	out, err := s.RunScan(context.Background(), ScanMarket)
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Candidates) != 1 || out.Candidates[0].Symbol != "NVDA" {
		t.Errorf("expected only NVDA, got %+v", out.Candidates)
	}
}

func TestRunScan_SendFailureKeepsKeys(t *testing.T) {
	s, _, cn := newTestScheduler(t, []model.Recommendation{buy("NVDA", 35)})
	cn.err = errors.New("offline")

	if _, err := s.RunScan(context.Background(), ScanMarket); err == nil {
		t.Fatal("expected send error")
	}
	cn.err = nil
	out, err := s.RunScan(context.Background(), ScanMarket)
	if err != nil {
		t.Fatal(err)
	}
	if len(out.New) != 1 {
		t.Errorf("unsent signal should be retried, got %+v", out.New)
	}
}

func TestRunScan_UnknownScan(t *testing.T) {
	s, _, _ := newTestScheduler(t, nil)
	if _, err := s.RunScan(context.Background(), "crypto"); err == nil {
		t.Error("expected error for unknown scan")
	}
}

func TestIsMarketHours(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatal(err)
	}
	at := func(day, h, m, s int) time.Time { return time.Date(2024, 6, day, h, m, s, 0, ny) }
	tests := []struct {
		name string
		t    time.Time
		want bool
	}{
		{"before open", at(12, 9, 29, 59), false},
		{"open", at(12, 9, 30, 0), true},
		{"midday", at(12, 12, 0, 0), true},
		{"close", at(12, 16, 0, 0), true},
		{"after close", at(12, 16, 0, 1), false},
		{"saturday", at(15, 11, 0, 0), false},
		{"sunday", at(16, 11, 0, 0), false},
	}
	for _, tt := range tests {
		if got := IsMarketHours(tt.t); got != tt.want {
			t.Errorf("%s: IsMarketHours = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestAlertKey(t *testing.T) {
	if got := AlertKey("market", buy("nvda", 35)); got != "market:NVDA:BUY:35" {
		t.Errorf("AlertKey = %q", got)
	}
	if got := AlertKey("etf", buy("SPY", 20.5)); got != "etf:SPY:BUY:20.5" {
		t.Errorf("AlertKey = %q", got)
	}
}

func TestHandleCommand(t *testing.T) {
	s, _, _ := newTestScheduler(t, []model.Recommendation{buy("AAPL", 30)})
	pm, err := portfolio.NewManager(filepath.Join(t.TempDir(), "p.json"), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	s.Portfolio = pm
	ctx := context.Background()

	if got := s.HandleCommand(ctx, "/add aapl msft"); !strings.Contains(got, "Added AAPL, MSFT") {
		t.Errorf("/add reply: %q", got)
	}
	if got := s.HandleCommand(ctx, "/holdings"); got != "Portfolio: AAPL, MSFT" {
		t.Errorf("/holdings reply: %q", got)
	}
	if got := s.HandleCommand(ctx, "/analyze aapl"); !strings.Contains(got, "Recommendation: BUY") {
		t.Errorf("/analyze reply: %q", got)
	}
	if got := s.HandleCommand(ctx, "/portfolio"); !strings.Contains(got, "Top BUY") {
		t.Errorf("/portfolio reply: %q", got)
	}
	if got := s.HandleCommand(ctx, "/scan@sentinel_bot market"); !strings.Contains(got, "sent 1 new alert") {
		t.Errorf("/scan reply: %q", got)
	}
	if got := s.HandleCommand(ctx, "hello"); got != helpText {
		t.Errorf("unknown command should return help, got %q", got)
	}
}
