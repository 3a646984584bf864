package api

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"StockSentinel/internal/analyzer"
	"StockSentinel/internal/model"
	"StockSentinel/internal/pattern"
)

// Record is the wire form of one recommendation.
type Record struct {
	Symbol         string              `json:"symbol"`
	CompanyName    string              `json:"company_name"`
	Price          float64             `json:"price"`
	Change1D       float64             `json:"change_1d"`
	Score          float64             `json:"score"`
	Recommendation model.Category      `json:"recommendation"`
	Reasoning      string              `json:"reasoning"`
	Factors        []model.FactorScore `json:"factors"`
	Indicators     Indicators          `json:"indicators"`
	Patterns       []Pattern           `json:"patterns"`
	Source         string              `json:"source"`
	Synthetic      bool                `json:"synthetic"`
	DataNotice     string              `json:"data_notice,omitempty"`
	Bars           int                 `json:"bars"`
	Fundamental    *Fundamental        `json:"fundamental,omitempty"`
}

// Pattern is the wire form of a detector verdict. Detected patterns carry
// the catalog's reference text; Detail is specific to this detection.
type Pattern struct {
	Kind        model.PatternKind `json:"kind"`
	Name        string            `json:"name"`
	Type        string            `json:"type,omitempty"`
	Status      model.Status      `json:"status"`
	Confidence  model.Confidence  `json:"confidence,omitempty"`
	Bias        model.Bias        `json:"bias"`
	Reliability model.Reliability `json:"reliability,omitempty"`
	Detail      string            `json:"detail,omitempty"`
	Description string            `json:"description,omitempty"`
	Signals     []string          `json:"signals,omitempty"`
	Strategy    string            `json:"trading_strategy,omitempty"`
}

func newPatterns(in []model.PatternResult) []Pattern {
	out := make([]Pattern, 0, len(in))
	for _, p := range in {
		w := Pattern{
			Kind:        p.Kind,
			Name:        p.Kind.Title(),
			Status:      p.Status,
			Confidence:  p.Confidence,
			Bias:        p.Bias,
			Reliability: p.Reliability,
			Detail:      p.Description,
		}
		if e, ok := pattern.Lookup(p.Kind); ok {
			w.Name = e.Name
			if p.Detected() {
				w.Type = e.Type
				w.Description = e.Description
				w.Signals = e.Signals
				w.Strategy = e.Strategy
			}
		}
		out = append(out, w)
	}
	return out
}

// Fundamental is the wire form of valuation figures. Unreported values are null.
type Fundamental struct {
	PERatio        *float64 `json:"pe_ratio"`
	ForwardPE      *float64 `json:"forward_pe"`
	PBRatio        *float64 `json:"pb_ratio"`
	DividendYield  *float64 `json:"dividend_yield"`
	MarketCap      string   `json:"market_cap"`
	MarketCapRaw   int64    `json:"market_cap_raw"`
	EPS            *float64 `json:"eps"`
	RevenueGrowth  *float64 `json:"revenue_growth"`
	EarningsGrowth *float64 `json:"earnings_growth"`
	DebtToEquity   *float64 `json:"debt_to_equity"`
	ROE            *float64 `json:"roe"`
	ProfitMargin   *float64 `json:"profit_margin"`
	High52W        *float64 `json:"52_week_high"`
	Low52W         *float64 `json:"52_week_low"`
	AvgVolume      *float64 `json:"avg_volume"`
	Beta           *float64 `json:"beta"`
}

func newFundamental(f *model.Fundamentals) *Fundamental {
	if f == nil {
		return nil
	}
	return &Fundamental{
		PERatio:        roundPtr(f.PERatio),
		ForwardPE:      roundPtr(f.ForwardPE),
		PBRatio:        roundPtr(f.PBRatio),
		DividendYield:  roundPtr(f.DividendYield),
		MarketCap:      f.MarketCapText(),
		MarketCapRaw:   f.MarketCap,
		EPS:            roundPtr(f.EPS),
		RevenueGrowth:  roundPtr(f.RevenueGrowth),
		EarningsGrowth: roundPtr(f.EarningsGrowth),
		DebtToEquity:   roundPtr(f.DebtToEquity),
		ROE:            roundPtr(f.ROE),
		ProfitMargin:   roundPtr(f.ProfitMargin),
		High52W:        roundPtr(f.High52W),
		Low52W:         roundPtr(f.Low52W),
		AvgVolume:      roundPtr(f.AvgVolume),
		Beta:           roundPtr(f.Beta),
	}
}

// Indicators flattens the latest indicator values, rounded for display.
// Absent values are null.
type Indicators struct {
	RSI             *float64 `json:"rsi"`
	MACD            *float64 `json:"macd"`
	MACDSignal      *float64 `json:"macd_signal"`
	MACDHistogram   *float64 `json:"macd_histogram"`
	SMA20           *float64 `json:"sma_20"`
	SMA50           *float64 `json:"sma_50"`
	SMA200          *float64 `json:"sma_200"`
	EMA12           *float64 `json:"ema_12"`
	EMA26           *float64 `json:"ema_26"`
	BollingerUpper  *float64 `json:"bb_upper"`
	BollingerMiddle *float64 `json:"bb_middle"`
	BollingerLower  *float64 `json:"bb_lower"`
	StochK          *float64 `json:"stoch_k"`
	StochD          *float64 `json:"stoch_d"`
}

// BatchResponse is returned by the portfolio and context endpoints.
type BatchResponse struct {
	ID                  string             `json:"id"`
	Context             string             `json:"context,omitempty"`
	Period              model.Period       `json:"period"`
	Summary             model.BatchSummary `json:"summary"`
	Recommendations     []Record           `json:"recommendations"`
	BuyRecommendations  []Record           `json:"buy_recommendations"`
	SellRecommendations []Record           `json:"sell_recommendations"`
	Failed              []string           `json:"failed"`
	Failures            map[string]string  `json:"failures"`
	SyntheticWarning    string             `json:"synthetic_warning,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
	Stage string `json:"stage,omitempty"`
}

// round2 rounds half away from zero on the decimal value, not the binary one.
func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

func roundPtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	r := round2(*v)
	return &r
}

// NewRecord converts a recommendation to its wire form.
func NewRecord(rec model.Recommendation) Record {
	ind := rec.Indicators
	out := Record{
		Symbol:         rec.Symbol,
		CompanyName:    rec.CompanyName,
		Price:          round2(rec.Price),
		Change1D:       round2(rec.Change1D),
		Score:          round2(rec.Score),
		Recommendation: rec.Category,
		Reasoning:      rec.Reasoning,
		Factors:        rec.Factors,
		Patterns:       newPatterns(rec.Patterns),
		Source:         rec.Source,
		Synthetic:      rec.Synthetic,
		DataNotice:     rec.DataNotice,
		Bars:           rec.BarCount,
		Fundamental:    newFundamental(rec.Fundamentals),
		Indicators: Indicators{
			RSI:    roundPtr(ind.RSI14),
			SMA20:  roundPtr(ind.SMA20),
			SMA50:  roundPtr(ind.SMA50),
			SMA200: roundPtr(ind.SMA200),
			EMA12:  roundPtr(ind.EMA12),
			EMA26:  roundPtr(ind.EMA26),
		},
	}
	if out.Factors == nil {
		out.Factors = []model.FactorScore{}
	}
	if m := ind.MACD; m != nil {
		out.Indicators.MACD = roundPtr(&m.Line)
		out.Indicators.MACDSignal = roundPtr(&m.Signal)
		out.Indicators.MACDHistogram = roundPtr(&m.Histogram)
	}
	if b := ind.Bollinger; b != nil {
		out.Indicators.BollingerUpper = roundPtr(&b.Upper)
		out.Indicators.BollingerMiddle = roundPtr(&b.Middle)
		out.Indicators.BollingerLower = roundPtr(&b.Lower)
	}
	if s := ind.Stochastic; s != nil {
		out.Indicators.StochK = roundPtr(&s.K)
		out.Indicators.StochD = roundPtr(&s.D)
	}
	return out
}

func newRecords(recs []model.Recommendation) []Record {
	out := make([]Record, 0, len(recs))
	for _, r := range recs {
		out = append(out, NewRecord(r))
	}
	return out
}

// NewBatchResponse converts a batch result; topN bounds the BUY and SELL lists.
func NewBatchResponse(res *model.BatchResult, context string, topN int) BatchResponse {
	out := BatchResponse{
		ID:                  res.ID,
		Context:             context,
		Period:              res.Period,
		Summary:             res.Summary(),
		Recommendations:     newRecords(res.Ranked),
		BuyRecommendations:  newRecords(res.TopBuys(topN)),
		SellRecommendations: newRecords(res.TopSells(topN)),
		Failed:              res.Failed,
		Failures:            res.Failures,
	}
	out.Summary.AverageScore = round2(out.Summary.AverageScore)
	if out.Failed == nil {
		out.Failed = []string{}
	}
	if out.Failures == nil {
		out.Failures = map[string]string{}
	}
	if out.Summary.Synthetic > 0 {
		out.SyntheticWarning = "one or more results use synthetic data because every market data source failed"
	}
	return out
}

// symbolList accepts either a JSON array or a comma/space separated string.
type symbolList []string

func (s *symbolList) UnmarshalJSON(b []byte) error {
	var list []string
	if err := json.Unmarshal(b, &list); err == nil {
		*s = list
		return nil
	}
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return err
	}
	*s = analyzer.SplitSymbols(str)
	return nil
}
