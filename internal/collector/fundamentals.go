package collector

import (
	"context"
	"fmt"
	"math"
	"time"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/equity"

	"StockSentinel/internal/model"
)

// FinanceGoFundamentals looks up valuation figures through the finance-go
// equity quote endpoint.
type FinanceGoFundamentals struct {
	Timeout time.Duration
	get     func(symbol string) (*finance.Equity, error)
}

// NewFinanceGoFundamentals creates a provider with the given per-call timeout.
func NewFinanceGoFundamentals(timeout time.Duration) *FinanceGoFundamentals {
	return &FinanceGoFundamentals{Timeout: timeout, get: equity.Get}
}

func (p *FinanceGoFundamentals) Name() string { return "finance-go" }

// Fundamentals fetches the quote for symbol. Fields the quote endpoint does
// not carry (growth, leverage, returns, margins, beta) stay nil.
func (p *FinanceGoFundamentals) Fundamentals(ctx context.Context, symbol string) (*model.Fundamentals, error) {
	ctx, cancel := withTimeout(ctx, p.Timeout)
	defer cancel()

	eq, err := runBlocking(ctx, func() (*finance.Equity, error) { return p.get(symbol) })
	if err != nil {
		return nil, transportFailure(p.Name(), ctx, err)
	}
	if eq == nil {
		return nil, failure(p.Name(), ReasonEmpty, fmt.Errorf("no quote for %s", symbol))
	}
	f := FundamentalsFromEquity(eq)
	f.Source = p.Name()
	return f, nil
}

// FundamentalsFromEquity maps a finance-go equity quote. Zero ratios are
// treated as unreported; a zero dividend yield is kept for non-payers.
func FundamentalsFromEquity(eq *finance.Equity) *model.Fundamentals {
	return &model.Fundamentals{
		PERatio:       positive(eq.TrailingPE),
		ForwardPE:     positive(eq.ForwardPE),
		PBRatio:       positive(eq.PriceToBook),
		DividendYield: percent(eq.TrailingAnnualDividendYield, true),
		MarketCap:     eq.MarketCap,
		EPS:           nonZero(eq.EpsTrailingTwelveMonths),
		High52W:       positive(eq.FiftyTwoWeekHigh),
		Low52W:        positive(eq.FiftyTwoWeekLow),
		AvgVolume:     positive(float64(eq.AverageDailyVolume3Month)),
	}
}

func positive(v float64) *float64 {
	if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	r := round2(v)
	return &r
}

func nonZero(v float64) *float64 {
	if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	r := round2(v)
	return &r
}

// percent converts a fraction (0.0052) to percent (0.52). Values already
// above 1 are taken as percent.
func percent(v float64, keepZero bool) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || (v == 0 && !keepZero) {
		return nil
	}
	if math.Abs(v) < 1 {
		v *= 100
	}
	r := round2(v)
	return &r
}
