// Package analyzer runs the acquire, compute, detect and score pipeline for
// batches of symbols with bounded parallelism.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"StockSentinel/internal/calculator"
	"StockSentinel/internal/metrics"
	"StockSentinel/internal/model"
	"StockSentinel/internal/pattern"
	"StockSentinel/internal/strategy"
)

// Defaults applied by New when an option is unset.
const (
	DefaultConcurrency = 5
	DefaultMinBars     = 20
)

var (
	// ErrNoSymbols is returned when a request names no usable symbol.
	ErrNoSymbols = errors.New("no symbols requested")
	// ErrUnknownPeriod is returned for a period outside the supported set.
	ErrUnknownPeriod = errors.New("unknown period")
)

// Acquirer supplies normalized bars for a symbol. *collector.Coordinator
// satisfies it.
type Acquirer interface {
	Acquire(ctx context.Context, symbol string, period model.Period) (*model.BarSeries, error)
}

// FundamentalsSource supplies valuation figures. Lookups are best effort:
// an error leaves Recommendation.Fundamentals nil and never fails the symbol.
type FundamentalsSource interface {
	Fundamentals(ctx context.Context, symbol string) (*model.Fundamentals, error)
}

// Failure stages.
const (
	StageAcquire = "acquire"
	StageData    = "insufficient-data"
	StagePanic   = "panic"
)

// SymbolFailure records why a symbol produced no recommendation.
type SymbolFailure struct {
	Symbol string
	Stage  string
	Err    error
}

func (f *SymbolFailure) Error() string {
	return fmt.Sprintf("%s: %s: %v", f.Symbol, f.Stage, f.Err)
}

func (f *SymbolFailure) Unwrap() error { return f.Err }

// Options tunes the analyzer.
type Options struct {
	Concurrency   int           // max symbols in flight across all batches
	MinBars       int           // fewer bars than this is a per-symbol failure
	SymbolTimeout time.Duration // zero means no per-symbol deadline
	Pattern       pattern.Options
	Strategy      strategy.Options
	Fundamentals  FundamentalsSource // nil skips the lookup
}

// Analyzer scores symbols. It is safe for concurrent use.
type Analyzer struct {
	source  Acquirer
	opts    Options
	sem     *semaphore.Weighted
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// New creates an Analyzer. logger and m may be nil.
func New(source Acquirer, opts Options, logger *zap.Logger, m *metrics.Metrics) *Analyzer {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.MinBars <= 0 {
		opts.MinBars = DefaultMinBars
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{
		source:  source,
		opts:    opts,
		sem:     semaphore.NewWeighted(int64(opts.Concurrency)),
		logger:  logger.Named("analyzer"),
		metrics: m,
	}
}

// Analyze validates the request and scores every symbol. Per-symbol
// failures are recorded in the result and never abort the batch; an error
// is returned only for an invalid request.
func (a *Analyzer) Analyze(ctx context.Context, req model.AnalyzeRequest) (*model.BatchResult, error) {
	period, err := model.ParsePeriod(string(req.Period))
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPeriod, req.Period)
	}
	symbols := CleanSymbols(req.Symbols)
	if len(symbols) == 0 {
		return nil, ErrNoSymbols
	}

	started := time.Now()
	result := &model.BatchResult{
		ID:        uuid.NewString(),
		Period:    period,
		Requested: symbols,
		Succeeded: make(map[string]model.Recommendation, len(symbols)),
		Failures:  map[string]string{},
		StartedAt: started.UTC(),
	}
	log := a.logger.With(zap.String("batch", result.ID))
	log.Info("batch started", zap.Int("symbols", len(symbols)), zap.String("period", string(period)))

	recs := make([]*model.Recommendation, len(symbols))
	errs := make([]error, len(symbols))
	var wg sync.WaitGroup
	for i, sym := range symbols {
		wg.Add(1)
		go func(i int, sym string) {
			defer wg.Done()
			recs[i], errs[i] = a.gated(ctx, sym, period)
		}(i, sym)
	}
	wg.Wait()

	for i, sym := range symbols {
		if errs[i] != nil {
			result.Failed = append(result.Failed, sym)
			result.Failures[sym] = errs[i].Error()
			continue
		}
		result.Succeeded[sym] = *recs[i]
		result.Ranked = append(result.Ranked, *recs[i])
	}
	model.SortRecommendations(result.Ranked)

	result.CompletedAt = time.Now().UTC()
	a.metrics.ObserveBatch(time.Since(started))
	log.Info("batch completed",
		zap.Int("succeeded", len(result.Ranked)),
		zap.Int("failed", len(result.Failed)),
		zap.Duration("elapsed", time.Since(started)),
	)
	return result, nil
}

// gated waits for a permit, then analyzes one symbol.
func (a *Analyzer) gated(ctx context.Context, symbol string, period model.Period) (*model.Recommendation, error) {
	if err := a.sem.Acquire(ctx, 1); err != nil {
		a.metrics.IncSymbolFailure(StageAcquire)
		return nil, &SymbolFailure{Symbol: symbol, Stage: StageAcquire, Err: err}
	}
	defer a.sem.Release(1)
	a.metrics.TrackInflight(1)
	defer a.metrics.TrackInflight(-1)
	return a.AnalyzeSymbol(ctx, symbol, period)
}

// AnalyzeSymbol runs the pipeline for a single symbol without taking a
// permit. Panics inside the pipeline are recovered as failures.
func (a *Analyzer) AnalyzeSymbol(ctx context.Context, symbol string, period model.Period) (rec *model.Recommendation, err error) {
	symbol = model.NormalizeSymbol(symbol)
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("symbol panicked", zap.String("symbol", symbol), zap.Any("panic", r))
			rec, err = nil, &SymbolFailure{Symbol: symbol, Stage: StagePanic, Err: fmt.Errorf("%v", r)}
		}
		if err != nil {
			var sf *SymbolFailure
			if errors.As(err, &sf) {
				a.metrics.IncSymbolFailure(sf.Stage)
			}
		}
	}()

	if a.opts.SymbolTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.opts.SymbolTimeout)
		defer cancel()
	}

	series, err := a.source.Acquire(ctx, symbol, period)
	if err != nil {
		a.logger.Warn("acquire failed", zap.String("symbol", symbol), zap.Error(err))
		return nil, &SymbolFailure{Symbol: symbol, Stage: StageAcquire, Err: err}
	}
	if series.Len() < a.opts.MinBars {
		return nil, &SymbolFailure{
			Symbol: symbol,
			Stage:  StageData,
			Err:    fmt.Errorf("%d bars, need %d", series.Len(), a.opts.MinBars),
		}
	}

	ind := calculator.Compute(series)
	snap := ind.Snapshot()
	patterns := pattern.Detect(series, ind, a.opts.Pattern)
	rec = strategy.Score(series, &snap, patterns, a.opts.Strategy)
	if a.opts.Fundamentals != nil {
		f, ferr := a.opts.Fundamentals.Fundamentals(ctx, symbol)
		if ferr != nil {
			a.logger.Warn("fundamentals unavailable", zap.String("symbol", symbol), zap.Error(ferr))
		} else {
			rec.Fundamentals = f
		}
	}

	a.metrics.IncAnalyzed(string(rec.Category))
	a.logger.Debug("symbol scored",
		zap.String("symbol", symbol),
		zap.Float64("score", rec.Score),
		zap.String("category", string(rec.Category)),
		zap.Bool("synthetic", rec.Synthetic),
	)
	return rec, nil
}

// CleanSymbols trims, upper-cases and de-duplicates symbols, keeping the
// first occurrence order. Blank entries are dropped.
func CleanSymbols(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = model.NormalizeSymbol(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// SplitSymbols splits a comma or whitespace separated symbol list.
func SplitSymbols(s string) []string {
	return CleanSymbols(strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';' || unicode.IsSpace(r)
	}))
}
