package model

import "fmt"

// Fundamentals holds valuation and balance-sheet figures for a symbol.
// A nil field means the provider did not report it. Percentages are
// expressed in percent (0.52 means 0.52%).
type Fundamentals struct {
	PERatio        *float64 `json:"pe_ratio"`
	ForwardPE      *float64 `json:"forward_pe"`
	PBRatio        *float64 `json:"pb_ratio"`
	DividendYield  *float64 `json:"dividend_yield"`
	MarketCap      int64    `json:"market_cap_raw"`
	EPS            *float64 `json:"eps"`
	RevenueGrowth  *float64 `json:"revenue_growth"`
	EarningsGrowth *float64 `json:"earnings_growth"`
	DebtToEquity   *float64 `json:"debt_to_equity"`
	ROE            *float64 `json:"roe"`
	ProfitMargin   *float64 `json:"profit_margin"`
	High52W        *float64 `json:"week52_high"`
	Low52W         *float64 `json:"week52_low"`
	AvgVolume      *float64 `json:"avg_volume"`
	Beta           *float64 `json:"beta"`
	Source         string   `json:"source"`
}

// MarketCapText renders the market cap as "$2.95T", "$812.40B", "$95.10M",
// or "N/A" when unknown.
func (f *Fundamentals) MarketCapText() string {
	if f == nil || f.MarketCap <= 0 {
		return "N/A"
	}
	v := float64(f.MarketCap)
	switch {
	case v >= 1e12:
		return fmt.Sprintf("$%.2fT", v/1e12)
	case v >= 1e9:
		return fmt.Sprintf("$%.2fB", v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("$%.2fM", v/1e6)
	default:
		return fmt.Sprintf("$%d", f.MarketCap)
	}
}
