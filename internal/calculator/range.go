package calculator

import (
	"errors"
	"math"

	"StockSentinel/internal/model"
)

// Horizon lookbacks in trading days.
const (
	Lookback1D = 1
	Lookback1W = 5
	Lookback1M = 21
	Lookback6M = 126
	Lookback1Y = 252
)

// HighLow scans the most recent lookback bars and returns the high and low.
// A lookback <= 0 scans the whole series.
func HighLow(bars []model.Bar, lookback int) (high, low float64, err error) {
	if len(bars) == 0 {
		return 0, 0, errors.New("no bars provided")
	}
	n := len(bars)
	start := 0
	if lookback > 0 && n > lookback {
		start = n - lookback
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for i := start; i < n; i++ {
		if bars[i].High > high {
			high = bars[i].High
		}
		if bars[i].Low < low {
			low = bars[i].Low
		}
	}
	return high, low, nil
}

// RangePosition returns where current sits within [low, high] (0.0~1.0).
func RangePosition(current, high, low float64) (float64, error) {
	if high == low {
		return 0.5, nil
	}
	if high < low {
		return 0, errors.New("high must be >= low")
	}
	pos := (current - low) / (high - low)
	if pos < 0 {
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}
	return pos, nil
}

// PercentChange returns the percent change of the last close versus the close
// lookback bars earlier. ok is false when the series is too short.
func PercentChange(closes []float64, lookback int) (pct float64, ok bool) {
	n := len(closes)
	if lookback <= 0 || n <= lookback {
		return 0, false
	}
	base := closes[n-1-lookback]
	if base == 0 {
		return 0, false
	}
	return (closes[n-1] - base) / base * 100, true
}

// AverageVolume returns the mean volume of the last period bars ending at end (exclusive).
func AverageVolume(bars []model.Bar, end, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if end > len(bars) || end-period < 0 {
		return 0, ErrInsufficientData
	}
	sum := 0.0
	for i := end - period; i < end; i++ {
		sum += float64(bars[i].Volume)
	}
	return sum / float64(period), nil
}
