package collector

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"StockSentinel/internal/model"
)

// barsClient is the subset of the Alpaca market data client used here.
type barsClient interface {
	GetBars(symbol string, req marketdata.GetBarsRequest) ([]marketdata.Bar, error)
}

// AlpacaAdapter implements SourceAdapter using Alpaca's market data API.
type AlpacaAdapter struct {
	client barsClient
	now    func() time.Time
}

// NewAlpacaAdapter creates an adapter for the given credentials.
func NewAlpacaAdapter(apiKey, apiSecret, baseURL string) *AlpacaAdapter {
	return &AlpacaAdapter{
		client: marketdata.NewClient(marketdata.ClientOpts{
			APIKey:     apiKey,
			APISecret:  apiSecret,
			BaseURL:    baseURL,
			RetryLimit: 1,
			HTTPClient: &http.Client{Timeout: 30 * time.Second},
		}),
		now: time.Now,
	}
}

func (a *AlpacaAdapter) Name() string { return "alpaca" }

// Fetch retrieves daily bars covering the period.
func (a *AlpacaAdapter) Fetch(ctx context.Context, symbol string, period model.Period, timeout time.Duration) (*model.BarSeries, error) {
	ctx, cancel := withTimeout(ctx, timeout)
	defer cancel()

	end := a.now().UTC()
	req := marketdata.GetBarsRequest{
		TimeFrame: marketdata.OneDay,
		Start:     period.Start(end),
		End:       end,
	}
	raw, err := runBlocking(ctx, func() ([]marketdata.Bar, error) {
		return a.client.GetBars(symbol, req)
	})
	if err != nil {
		return nil, transportFailure(a.Name(), ctx, err)
	}
	if len(raw) == 0 {
		return nil, failure(a.Name(), ReasonEmpty, errors.New("no bars returned"))
	}

	bars := make([]model.Bar, len(raw))
	for i, b := range raw {
		bars[i] = model.Bar{
			Time:   b.Timestamp.Unix(),
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: int64(b.Volume),
		}
	}
	return &model.BarSeries{
		Symbol: symbol,
		Period: period,
		Bars:   bars,
		Meta:   model.SeriesMeta{Currency: "USD", Source: a.Name()},
	}, nil
}
