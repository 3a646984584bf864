package collector

import (
	"context"
	"errors"
	"testing"
	"time"

	finance "github.com/piquette/finance-go"
)

func appleQuote() *finance.Equity {
	eq := &finance.Equity{
		TrailingPE:                  28.123,
		ForwardPE:                   25.4,
		PriceToBook:                 0,
		TrailingAnnualDividendYield: 0.0052,
		MarketCap:                   2_950_000_000_000,
		EpsTrailingTwelveMonths:     6.426,
	}
	eq.FiftyTwoWeekHigh = 199.62
	eq.FiftyTwoWeekLow = 124.17
	eq.AverageDailyVolume3Month = 55_000_000
	return eq
}

func TestFundamentalsFromEquity(t *testing.T) {
	f := FundamentalsFromEquity(appleQuote())

	if f.PERatio == nil || *f.PERatio != 28.12 {
		t.Errorf("pe = %v", f.PERatio)
	}
	if f.PBRatio != nil {
		t.Errorf("zero price/book should be unreported, got %v", *f.PBRatio)
	}
	if f.DividendYield == nil || *f.DividendYield != 0.52 {
		t.Errorf("dividend yield should be percent, got %v", f.DividendYield)
	}
	if f.EPS == nil || *f.EPS != 6.43 {
		t.Errorf("eps = %v", f.EPS)
	}
	if f.High52W == nil || *f.High52W != 199.62 || f.Low52W == nil || *f.Low52W != 124.17 {
		t.Errorf("52 week range = %v / %v", f.High52W, f.Low52W)
	}
	if f.AvgVolume == nil || *f.AvgVolume != 55_000_000 {
		t.Errorf("avg volume = %v", f.AvgVolume)
	}
	if f.Beta != nil || f.ROE != nil || f.RevenueGrowth != nil {
		t.Error("fields the quote endpoint lacks must stay nil")
	}
	if f.MarketCapText() != "$2.95T" {
		t.Errorf("market cap text = %s", f.MarketCapText())
	}

	noDiv := FundamentalsFromEquity(&finance.Equity{})
	if noDiv.DividendYield == nil || *noDiv.DividendYield != 0 {
		t.Errorf("non-payer should report a zero yield, got %v", noDiv.DividendYield)
	}
	if noDiv.PERatio != nil || noDiv.EPS != nil {
		t.Error("empty quote should report no ratios")
	}
}

func TestFinanceGoFundamentals(t *testing.T) {
	tests := []struct {
		name string
		get  func(string) (*finance.Equity, error)
		want Reason
	}{
		{"ok", func(string) (*finance.Equity, error) { return appleQuote(), nil }, ""},
		{"no quote", func(string) (*finance.Equity, error) { return nil, nil }, ReasonEmpty},
		{"remote error", func(string) (*finance.Equity, error) { return nil, errors.New("503") }, ReasonTransport},
		{"slow", func(string) (*finance.Equity, error) {
			time.Sleep(500 * time.Millisecond)
			return appleQuote(), nil
		}, ReasonTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &FinanceGoFundamentals{Timeout: 50 * time.Millisecond, get: tt.get}
			f, err := p.Fundamentals(context.Background(), "AAPL")
			if tt.want == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if f.Source != "finance-go" || f.PERatio == nil {
					t.Errorf("unexpected fundamentals %+v", f)
				}
				return
			}
			if got := ReasonOf(err); got != tt.want {
				t.Errorf("reason = %s, want %s (%v)", got, tt.want, err)
			}
		})
	}
}
