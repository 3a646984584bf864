package calculator

import (
	"errors"
	"math"
)

// ErrInsufficientData is returned when a series is shorter than an indicator's lookback.
var ErrInsufficientData = errors.New("not enough data")

// Defined reports whether v holds a computed indicator value.
func Defined(v float64) bool { return !math.IsNaN(v) }

func nanSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// CalculateSMA computes the simple moving average of the last period values.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, ErrInsufficientData
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}

// SMASeries returns the simple moving average at every position.
// Positions without a full window of defined inputs are NaN.
func SMASeries(values []float64, period int) []float64 {
	out := nanSeries(len(values))
	if period <= 0 {
		return out
	}
	for i := period - 1; i < len(values); i++ {
		sum := 0.0
		ok := true
		for j := i - period + 1; j <= i; j++ {
			if !Defined(values[j]) {
				ok = false
				break
			}
			sum += values[j]
		}
		if ok {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// EMASeries returns the exponential moving average with factor 2/(period+1),
// seeded by the SMA of the first period defined values. Leading NaN inputs
// are skipped so the function can be chained on derived series.
func EMASeries(values []float64, period int) []float64 {
	out := nanSeries(len(values))
	if period <= 0 {
		return out
	}
	start := 0
	for start < len(values) && !Defined(values[start]) {
		start++
	}
	seedAt := start + period - 1
	if seedAt >= len(values) {
		return out
	}

	sum := 0.0
	for i := start; i <= seedAt; i++ {
		if !Defined(values[i]) {
			return out
		}
		sum += values[i]
	}
	prev := sum / float64(period)
	out[seedAt] = prev

	k := 2.0 / float64(period+1)
	for i := seedAt + 1; i < len(values); i++ {
		if !Defined(values[i]) {
			break
		}
		prev = (values[i]-prev)*k + prev
		out[i] = prev
	}
	return out
}

// last returns the final element of a series, NaN for an empty one.
func last(series []float64) float64 {
	if len(series) == 0 {
		return math.NaN()
	}
	return series[len(series)-1]
}
