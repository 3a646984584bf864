package model

import "sort"

// Category is the final recommendation bucket.
type Category string

const (
	CategoryBuy  Category = "BUY"
	CategorySell Category = "SELL"
	CategoryHold Category = "HOLD"
)

// FactorScore represents a single scoring factor that fired.
type FactorScore struct {
	Name       string  `json:"name"`
	RawScore   float64 `json:"raw_score"`
	Weight     float64 `json:"weight"`
	Weighted   float64 `json:"weighted"`
	Commentary string  `json:"commentary"`
}

// Recommendation is the scored verdict for one symbol.
type Recommendation struct {
	Symbol      string          `json:"symbol"`
	CompanyName string          `json:"company_name"`
	Price       float64         `json:"price"`
	Change1D    float64         `json:"change_1d"`
	Score       float64         `json:"score"`
	Category    Category        `json:"category"`
	Reasoning   string          `json:"reasoning"`
	Factors     []FactorScore   `json:"factors"`
	Indicators  IndicatorSet    `json:"indicators"`
	Patterns    []PatternResult `json:"patterns"`
	Source      string          `json:"source"`
	Synthetic   bool            `json:"synthetic"`
	DataNotice  string          `json:"data_notice,omitempty"`
	BarCount    int             `json:"bar_count"`

	Fundamentals *Fundamentals `json:"fundamentals,omitempty"`
}

// SortRecommendations orders by score descending, symbol ascending on ties.
func SortRecommendations(recs []Recommendation) {
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].Score != recs[j].Score {
			return recs[i].Score > recs[j].Score
		}
		return recs[i].Symbol < recs[j].Symbol
	})
}
