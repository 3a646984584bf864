package cli

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"StockSentinel/internal/analyzer"
	"StockSentinel/internal/collector"
	"StockSentinel/internal/config"
	"StockSentinel/internal/logging"
	"StockSentinel/internal/metrics"
	"StockSentinel/internal/pattern"
	"StockSentinel/internal/portfolio"
	"StockSentinel/internal/strategy"
)

// app holds the wired components shared by the subcommands.
type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	metrics   *metrics.Metrics
	analyzer  *analyzer.Analyzer
	portfolio *portfolio.Manager
}

type appOptions struct {
	configPath    string
	logLevel      string
	includeShapes bool
	registerer    prometheus.Registerer
}

func newApp(opts appOptions) (*app, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	if opts.includeShapes {
		cfg.Analysis.IncludeShapes = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return nil, err
	}
	m := metrics.NewMetrics(opts.registerer)

	adapters, err := collector.BuildAdapters(cfg.Sources, cfg.Proxy)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(adapters))
	for i, a := range adapters {
		names[i] = a.Name()
	}
	logger.Debug("data sources", zap.Strings("adapters", names), zap.Bool("synthetic_fallback", cfg.SyntheticAllowed()))

	var fallback collector.SourceAdapter
	if cfg.SyntheticAllowed() {
		fallback = collector.NewSyntheticSource()
	}
	coord := collector.NewCoordinator(adapters, fallback, cfg.Analysis.AdapterTimeout, logger, m)

	pm, err := portfolio.NewManager(cfg.Portfolio.StateFile, cfg.Contexts[portfolio.ContextName].Symbols, logger)
	if err != nil {
		return nil, fmt.Errorf("init portfolio: %w", err)
	}
	if cfg.Portfolio.File != "" {
		symbols, err := portfolio.ReadFile(cfg.Portfolio.File)
		if err != nil {
			return nil, fmt.Errorf("read portfolio file: %w", err)
		}
		if err := pm.Replace(symbols); err != nil {
			return nil, err
		}
	}

	popts := pattern.DefaultOptions()
	popts.ConfirmBars = cfg.Analysis.ConfirmBars
	aopts := analyzer.Options{
		Concurrency:   cfg.Analysis.Concurrency,
		MinBars:       cfg.Analysis.MinBars,
		SymbolTimeout: cfg.Analysis.SymbolTimeout,
		Pattern:       popts,
		Strategy:      strategy.Options{IncludeShapes: cfg.Analysis.IncludeShapes},
	}
	if cfg.FundamentalsEnabled() {
		aopts.Fundamentals = collector.NewFinanceGoFundamentals(cfg.Analysis.AdapterTimeout)
	}
	an := analyzer.New(coord, aopts, logger, m)

	return &app{cfg: cfg, logger: logger, metrics: m, analyzer: an, portfolio: pm}, nil
}

func (a *app) close() {
	_ = a.logger.Sync()
}
