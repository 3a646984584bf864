package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"StockSentinel/internal/model"
)

// BarAPIAdapter implements SourceAdapter for a generic REST bars API
// exposing GET /api/v1/bars/daily?symbol=&limit= with bearer auth.
type BarAPIAdapter struct {
	name    string
	BaseURL string
	APIKey  string
	client  *resty.Client
}

// NewBarAPIAdapter creates a new adapter with optional proxy support.
func NewBarAPIAdapter(name, baseURL, apiKey, proxyURL string) *BarAPIAdapter {
	if name == "" {
		name = "barapi"
	}
	client := resty.New()
	if proxyURL != "" {
		client.SetProxy(proxyURL)
	}
	if apiKey != "" {
		client.SetAuthToken(apiKey)
	}
	return &BarAPIAdapter{
		name:    name,
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		client:  client,
	}
}

func (a *BarAPIAdapter) Name() string { return a.name }

// apiBar is the expected JSON shape from the bars API.
type apiBar struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

// Fetch retrieves up to period.TradingDays() daily bars.
func (a *BarAPIAdapter) Fetch(ctx context.Context, symbol string, period model.Period, timeout time.Duration) (*model.BarSeries, error) {
	ctx, cancel := withTimeout(ctx, timeout)
	defer cancel()

	resp, err := a.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"symbol": symbol,
			"limit":  strconv.Itoa(period.TradingDays()),
		}).
		Get(a.BaseURL + "/api/v1/bars/daily")
	if err != nil {
		return nil, transportFailure(a.name, ctx, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, failure(a.name, ReasonEmpty, fmt.Errorf("symbol %s not found", symbol))
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, failure(a.name, ReasonTransport, fmt.Errorf("status %d, body: %s", resp.StatusCode(), truncate(resp.String(), 200)))
	}

	var raw []apiBar
	if err := json.Unmarshal(resp.Body(), &raw); err != nil {
		return nil, failure(a.name, ReasonMalformed, fmt.Errorf("decode bars: %w", err))
	}
	if len(raw) == 0 {
		return nil, failure(a.name, ReasonEmpty, errors.New("no bars returned"))
	}

	bars := make([]model.Bar, len(raw))
	for i, b := range raw {
		bars[i] = model.Bar{
			Time:   b.Timestamp,
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
		Meta:   model.SeriesMeta{Source: a.name},
	}, nil
}

// truncate keeps the first n characters of s.
func truncate(s string, n int) string {
	for i := range s {
		if n == 0 {
			return s[:i] + "..."
		}
		n--
	}
	return s
}
