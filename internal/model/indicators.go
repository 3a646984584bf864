package model

// MACDValue is the latest MACD reading. Slope is the change of the
// histogram versus the previous bar, zero when unknown.
type MACDValue struct {
	Line      float64 `json:"line"`
	Signal    float64 `json:"signal"`
	Histogram float64 `json:"histogram"`
	Slope     float64 `json:"slope"`
}

// BandValue is the latest Bollinger band reading.
type BandValue struct {
	Upper  float64 `json:"upper"`
	Middle float64 `json:"middle"`
	Lower  float64 `json:"lower"`
}

// StochValue is the latest stochastic oscillator reading.
type StochValue struct {
	K float64 `json:"k"`
	D float64 `json:"d"`
}

// IndicatorSet holds the latest value of every indicator.
// A nil field means the series was too short for that indicator.
type IndicatorSet struct {
	RSI14      *float64    `json:"rsi14"`
	MACD       *MACDValue  `json:"macd"`
	SMA20      *float64    `json:"sma20"`
	SMA50      *float64    `json:"sma50"`
	SMA200     *float64    `json:"sma200"`
	EMA12      *float64    `json:"ema12"`
	EMA26      *float64    `json:"ema26"`
	Bollinger  *BandValue  `json:"bollinger"`
	Stochastic *StochValue `json:"stochastic"`
}

// Float returns a pointer to v, for building indicator sets.
func Float(v float64) *float64 { return &v }
