package model

import (
	"fmt"
	"strings"
	"time"
)

// Bar represents a single daily OHLCV candle.
type Bar struct {
	Time   int64   `json:"time"` // unix seconds
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

// Timestamp returns the bar time as time.Time in UTC.
func (b Bar) Timestamp() time.Time {
	return time.Unix(b.Time, 0).UTC()
}

// Period is the requested lookback window.
type Period string

const (
	Period1Mo Period = "1mo"
	Period3Mo Period = "3mo"
	Period6Mo Period = "6mo"
	Period1Y  Period = "1y"
	Period2Y  Period = "2y"
	Period5Y  Period = "5y"
)

// Periods lists every supported period in ascending order.
var Periods = []Period{Period1Mo, Period3Mo, Period6Mo, Period1Y, Period2Y, Period5Y}

// ParsePeriod validates a period string. Empty input falls back to 1y.
func ParsePeriod(s string) (Period, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Period1Y, nil
	}
	for _, p := range Periods {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown period %q", s)
}

// Valid reports whether p is one of the supported periods.
func (p Period) Valid() bool {
	for _, v := range Periods {
		if v == p {
			return true
		}
	}
	return false
}

// CalendarDays returns the calendar span covered by the period.
func (p Period) CalendarDays() int {
	switch p {
	case Period1Mo:
		return 30
	case Period3Mo:
		return 90
	case Period6Mo:
		return 180
	case Period1Y:
		return 365
	case Period2Y:
		return 730
	case Period5Y:
		return 1825
	default:
		return 0
	}
}

// TradingDays approximates the number of daily bars in the period.
func (p Period) TradingDays() int {
	return p.CalendarDays() * 252 / 365
}

// Start returns the beginning of the period relative to now.
func (p Period) Start(now time.Time) time.Time {
	return now.AddDate(0, 0, -p.CalendarDays())
}

// SeriesMeta carries descriptive data about a series and its provenance.
type SeriesMeta struct {
	CompanyName   string  `json:"company_name"`
	CurrentPrice  float64 `json:"current_price"`
	PreviousClose float64 `json:"previous_close"`
	Currency      string  `json:"currency,omitempty"`
	Source        string  `json:"source"`
	Synthetic     bool    `json:"synthetic"`
	Notice        string  `json:"notice,omitempty"`
}

// BarSeries is the canonical, chronologically ordered bar set for one symbol.
type BarSeries struct {
	Symbol string     `json:"symbol"`
	Period Period     `json:"period"`
	Bars   []Bar      `json:"bars"`
	Meta   SeriesMeta `json:"meta"`
}

// Len returns the number of bars.
func (s *BarSeries) Len() int { return len(s.Bars) }

// Last returns the most recent bar. The series must not be empty.
func (s *BarSeries) Last() Bar { return s.Bars[len(s.Bars)-1] }

// Closes extracts close prices in chronological order.
func (s *BarSeries) Closes() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Close
	}
	return out
}

// Highs extracts high prices in chronological order.
func (s *BarSeries) Highs() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.High
	}
	return out
}

// Lows extracts low prices in chronological order.
func (s *BarSeries) Lows() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Low
	}
	return out
}

// Volumes extracts volumes as floats in chronological order.
func (s *BarSeries) Volumes() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = float64(b.Volume)
	}
	return out
}

// NormalizeSymbol trims and upper-cases a ticker.
func NormalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
