package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/kaptinlin/jsonrepair"

	"StockSentinel/internal/model"
)

const defaultYahooBaseURL = "https://query1.finance.yahoo.com"

// Relay forwards the Yahoo chart request through an intermediary host.
type Relay struct {
	Name    string
	Prefix  string // target URL is appended to this prefix
	Encode  bool   // query-escape the target URL
	Wrapped bool   // response body is {"contents": "<payload>"}
}

// DefaultRelays are the public relays tried after the direct endpoint.
var DefaultRelays = []Relay{
	{Name: "allorigins", Prefix: "https://api.allorigins.win/get?url=", Encode: true, Wrapped: true},
	{Name: "corsproxy", Prefix: "https://corsproxy.io/?"},
}

// YahooAdapter implements SourceAdapter using the Yahoo Finance chart API,
// either directly or through a relay.
type YahooAdapter struct {
	BaseURL   string
	Relay     *Relay
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker
	client    *resty.Client
}

// NewYahooAdapter creates a direct Yahoo adapter with optional proxy support.
func NewYahooAdapter(proxyURL string) *YahooAdapter {
	client := resty.New()
	client.SetHeader("User-Agent", "Mozilla/5.0")
	client.SetHeader("Accept", "application/json")
	if proxyURL != "" {
		client.SetProxy(proxyURL)
	}
	return &YahooAdapter{
		BaseURL: defaultYahooBaseURL,
		client:  client,
		SymbolMap: map[string]string{
			"SPX500": "^GSPC",
			"SPX":    "^GSPC",
			"SP500":  "^GSPC",
			"NDX":    "^NDX",
			"DJI":    "^DJI",
			"VIX":    "^VIX",
		},
	}
}

// NewYahooRelayAdapter creates a Yahoo adapter that goes through relay.
func NewYahooRelayAdapter(relay Relay, proxyURL string) *YahooAdapter {
	a := NewYahooAdapter(proxyURL)
	a.Relay = &relay
	return a
}

func (a *YahooAdapter) Name() string {
	if a.Relay != nil {
		return "yahoo-" + a.Relay.Name
	}
	return "yahoo"
}

func (a *YahooAdapter) yahooSymbol(symbol string) string {
	if mapped, ok := a.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

// yahooChart is the response structure from the Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency           string  `json:"currency"`
				Symbol             string  `json:"symbol"`
				LongName           string  `json:"longName"`
				ShortName          string  `json:"shortName"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				ChartPreviousClose float64 `json:"chartPreviousClose"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// relayEnvelope is the body shape of wrapping relays.
type relayEnvelope struct {
	Contents string `json:"contents"`
}

func (a *YahooAdapter) chartURL(symbol string, period model.Period) string {
	target := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=%s",
		strings.TrimRight(a.BaseURL, "/"), url.PathEscape(a.yahooSymbol(symbol)), period)
	if a.Relay == nil {
		return target
	}
	if a.Relay.Encode {
		return a.Relay.Prefix + url.QueryEscape(target)
	}
	return a.Relay.Prefix + target
}

// Fetch retrieves daily bars for the period.
func (a *YahooAdapter) Fetch(ctx context.Context, symbol string, period model.Period, timeout time.Duration) (*model.BarSeries, error) {
	ctx, cancel := withTimeout(ctx, timeout)
	defer cancel()

	resp, err := a.client.R().SetContext(ctx).Get(a.chartURL(symbol, period))
	if err != nil {
		return nil, transportFailure(a.Name(), ctx, err)
	}

	body := resp.Body()
	if a.Relay != nil && a.Relay.Wrapped && resp.StatusCode() == http.StatusOK {
		var env relayEnvelope
		if err := decodeEnvelope(body, &env); err != nil {
			return nil, failure(a.Name(), ReasonMalformed, fmt.Errorf("relay envelope: %w", err))
		}
		if env.Contents == "" {
			return nil, failure(a.Name(), ReasonEmpty, errors.New("relay returned no contents"))
		}
		body = []byte(env.Contents)
	}

	var chart yahooChart
	decodeErr := json.Unmarshal(body, &chart)

	// Yahoo reports unknown symbols with a 404 and a chart.error envelope.
	if decodeErr == nil && chart.Chart.Error != nil {
		return nil, failure(a.Name(), ReasonEmpty, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description))
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, failure(a.Name(), ReasonTransport, fmt.Errorf("status %d", resp.StatusCode()))
	}
	if decodeErr != nil {
		return nil, failure(a.Name(), ReasonMalformed, decodeErr)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 {
		return nil, failure(a.Name(), ReasonEmpty, errors.New("no data returned"))
	}

	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, failure(a.Name(), ReasonMalformed, errors.New("missing quote block"))
	}
	quote := result.Indicators.Quote[0]
	bars := make([]model.Bar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		c := at(quote.Close, i)
		if c == nil {
			continue // null bars (holidays, halted sessions)
		}
		bar := model.Bar{Time: ts, Close: *c}
		bar.Open = orDefault(at(quote.Open, i), *c)
		bar.High = orDefault(at(quote.High, i), *c)
		bar.Low = orDefault(at(quote.Low, i), *c)
		bar.Volume = int64(orDefault(at(quote.Volume, i), 0))
		bars = append(bars, bar)
	}
	if len(bars) == 0 {
		return nil, failure(a.Name(), ReasonEmpty, errors.New("all bars null"))
	}

	name := result.Meta.LongName
	if name == "" {
		name = result.Meta.ShortName
	}
	return &model.BarSeries{
		Symbol: symbol,
		Period: period,
		Bars:   bars,
		Meta: model.SeriesMeta{
			CompanyName:   name,
			PreviousClose: result.Meta.ChartPreviousClose,
			Currency:      result.Meta.Currency,
			Source:        a.Name(),
		},
	}, nil
}

// decodeEnvelope unmarshals a relay envelope and retries once on a repaired
// body. Only the wrapper is repaired; the bar payload it carries is always
// decoded strictly so truncated history fails as malformed.
func decodeEnvelope(body []byte, v any) error {
	err := json.Unmarshal(body, v)
	if err == nil {
		return nil
	}
	repaired, rerr := jsonrepair.JSONRepair(string(body))
	if rerr != nil {
		return err
	}
	if err2 := json.Unmarshal([]byte(repaired), v); err2 != nil {
		return err
	}
	return nil
}

func at(values []*float64, i int) *float64 {
	if i >= len(values) {
		return nil
	}
	return values[i]
}

func orDefault(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}
