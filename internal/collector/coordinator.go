package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"StockSentinel/internal/metrics"
	"StockSentinel/internal/model"
)

// DefaultAdapterTimeout bounds a single adapter attempt.
const DefaultAdapterTimeout = 5 * time.Second

// ErrNoData is returned by Acquire when every adapter failed and no
// synthetic fallback is available.
var ErrNoData = errors.New("no market data available")

// Coordinator tries adapters in order and returns the first usable series.
type Coordinator struct {
	Adapters []SourceAdapter
	Fallback SourceAdapter // nil disables synthetic fallback
	Timeout  time.Duration
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// NewCoordinator creates a Coordinator. logger and m may be nil.
func NewCoordinator(adapters []SourceAdapter, fallback SourceAdapter, timeout time.Duration, logger *zap.Logger, m *metrics.Metrics) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = DefaultAdapterTimeout
	}
	return &Coordinator{
		Adapters: adapters,
		Fallback: fallback,
		Timeout:  timeout,
		logger:   logger.Named("collector"),
		metrics:  m,
	}
}

// Acquire returns a normalized series for symbol. Adapter failures are
// logged and absorbed; if all of them fail the fallback generator runs and
// its output is flagged synthetic. An error is returned only when no
// fallback is configured, the fallback yields nothing, or ctx is done.
func (c *Coordinator) Acquire(ctx context.Context, symbol string, period model.Period) (*model.BarSeries, error) {
	symbol = model.NormalizeSymbol(symbol)
	var lastErr error

	for _, a := range c.Adapters {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("acquire %s: %w", symbol, err)
		}
		series, err := c.attempt(ctx, a, symbol, period)
		if err == nil {
			return series, nil
		}
		lastErr = err
		c.logger.Warn("adapter failed",
			zap.String("adapter", a.Name()),
			zap.String("symbol", symbol),
			zap.String("reason", string(ReasonOf(err))),
			zap.Error(err),
		)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("acquire %s: %w", symbol, err)
	}
	if c.Fallback == nil {
		return nil, fmt.Errorf("acquire %s: %w (last error: %v)", symbol, ErrNoData, lastErr)
	}

	series, err := c.attempt(ctx, c.Fallback, symbol, period)
	if err != nil {
		return nil, fmt.Errorf("acquire %s: %w (fallback: %v)", symbol, ErrNoData, err)
	}
	series.Meta.Synthetic = true
	if series.Meta.Notice == "" {
		series.Meta.Notice = SyntheticNotice
	}
	c.metrics.IncSynthetic()
	c.logger.Warn("using synthetic data",
		zap.String("symbol", symbol),
		zap.String("period", string(period)),
		zap.Int("adapters_tried", len(c.Adapters)),
	)
	return series, nil
}

func (c *Coordinator) attempt(ctx context.Context, a SourceAdapter, symbol string, period model.Period) (*model.BarSeries, error) {
	start := time.Now()
	raw, err := a.Fetch(ctx, symbol, period, c.Timeout)
	if err == nil {
		var series *model.BarSeries
		if series, err = Normalize(raw); err == nil {
			series.Symbol = symbol
			series.Period = period
			if series.Meta.Source == "" {
				series.Meta.Source = a.Name()
			}
			c.metrics.ObserveAdapter(a.Name(), "ok", time.Since(start))
			c.logger.Debug("fetched bars",
				zap.String("adapter", a.Name()),
				zap.String("symbol", symbol),
				zap.Int("bars", len(series.Bars)),
			)
			return series, nil
		}
		err = failure(a.Name(), ReasonEmpty, err)
	}
	c.metrics.ObserveAdapter(a.Name(), string(ReasonOf(err)), time.Since(start))
	return nil, err
}
