package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/shopspring/decimal"

	"StockSentinel/internal/model"
)

// FinanceGoAdapter implements SourceAdapter on top of the finance-go chart client.
type FinanceGoAdapter struct {
	now func() time.Time
}

// NewFinanceGoAdapter creates a finance-go backed adapter.
func NewFinanceGoAdapter() *FinanceGoAdapter {
	return &FinanceGoAdapter{now: time.Now}
}

func (a *FinanceGoAdapter) Name() string { return "finance-go" }

// Fetch retrieves daily bars between period start and now.
func (a *FinanceGoAdapter) Fetch(ctx context.Context, symbol string, period model.Period, timeout time.Duration) (*model.BarSeries, error) {
	ctx, cancel := withTimeout(ctx, timeout)
	defer cancel()

	end := a.now()
	start := period.Start(end)
	bars, err := runBlocking(ctx, func() ([]model.Bar, error) {
		iter := chart.Get(&chart.Params{
			Symbol:   symbol,
			Start:    datetime.New(&start),
			End:      datetime.New(&end),
			Interval: datetime.OneDay,
		})
		var out []model.Bar
		for iter.Next() {
			b := iter.Bar()
			out = append(out, model.Bar{
				Time:   int64(b.Timestamp),
				Open:   toFloat(b.Open),
				High:   toFloat(b.High),
				Low:    toFloat(b.Low),
				Close:  toFloat(b.Close),
				Volume: int64(b.Volume),
			})
		}
		if err := iter.Err(); err != nil {
			return nil, fmt.Errorf("chart iterator: %w", err)
		}
		return out, nil
	})
	if err != nil {
		return nil, transportFailure(a.Name(), ctx, err)
	}
	if len(bars) == 0 {
		return nil, failure(a.Name(), ReasonEmpty, errors.New("no bars returned"))
	}
	return &model.BarSeries{
		Symbol: symbol,
		Period: period,
		Bars:   bars,
		Meta:   model.SeriesMeta{Source: a.Name()},
	}, nil
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
