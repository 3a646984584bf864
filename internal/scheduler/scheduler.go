// Package scheduler runs the cron-driven alert scans and answers chat commands.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"StockSentinel/internal/config"
	"StockSentinel/internal/metrics"
	"StockSentinel/internal/model"
	"StockSentinel/internal/notifier"
	"StockSentinel/internal/portfolio"
	"StockSentinel/internal/recorder"
)

// Scan names.
const (
	ScanMarket = "market"
	ScanETF    = "etf"
)

// BatchAnalyzer is the part of *analyzer.Analyzer the scheduler needs.
type BatchAnalyzer interface {
	Analyze(ctx context.Context, req model.AnalyzeRequest) (*model.BatchResult, error)
}

// Outcome summarizes one scan run.
type Outcome struct {
	Scan       string
	Skipped    bool // outside market hours
	Candidates []model.Recommendation
	New        []model.Recommendation
	BatchID    string
}

// Scheduler manages the alert cron tasks.
type Scheduler struct {
	Cron      *cron.Cron
	Analyzer  BatchAnalyzer
	Config    *config.Config
	Portfolio *portfolio.Manager
	Notifier  notifier.Notifier
	Recorder  recorder.Recorder
	Location  *time.Location
	Now       func() time.Time

	metrics *metrics.Metrics
	logger  *zap.Logger
	ctx     context.Context
}

// NewScheduler creates a new Scheduler. The alert timezone must already be
// validated by config.Validate.
func NewScheduler(ctx context.Context, cfg *config.Config, a BatchAnalyzer, pm *portfolio.Manager, n notifier.Notifier, rec recorder.Recorder, m *metrics.Metrics, logger *zap.Logger) (*Scheduler, error) {
	loc, err := time.LoadLocation(cfg.Alerts.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds(), cron.WithLocation(loc)),
		Analyzer:  a,
		Config:    cfg,
		Portfolio: pm,
		Notifier:  n,
		Recorder:  rec,
		Location:  loc,
		Now:       time.Now,
		metrics:   m,
		logger:    logger.Named("scheduler"),
		ctx:       ctx,
	}, nil
}

// RegisterAll registers every enabled scan.
func (s *Scheduler) RegisterAll() error {
	for _, name := range []string{ScanMarket, ScanETF} {
		scan := s.scanConfig(name)
		if scan.Disabled {
			continue
		}
		name := name
		if _, err := s.Cron.AddFunc(scan.Cron, func() { s.runLogged(name) }); err != nil {
			return fmt.Errorf("register %s scan: %w", name, err)
		}
		s.logger.Info("scan registered", zap.String("scan", name), zap.String("cron", scan.Cron))
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.logger.Info("scheduler started")
}

// Stop stops the cron scheduler and waits for running scans.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) runLogged(name string) {
	if _, err := s.RunScan(s.ctx, name); err != nil {
		s.logger.Error("scan failed", zap.String("scan", name), zap.Error(err))
	}
}

func (s *Scheduler) scanConfig(name string) config.Scan {
	if name == ScanETF {
		return s.Config.Alerts.ETF
	}
	return s.Config.Alerts.Market
}

// RunScan executes one scan: analyze the scan's context, keep BUY
// recommendations at or above the minimum score, and notify only the ones
// whose alert key was not present in the previous run.
func (s *Scheduler) RunScan(ctx context.Context, name string) (*Outcome, error) {
	if name != ScanMarket && name != ScanETF {
		return nil, fmt.Errorf("unknown scan %q", name)
	}
	scan := s.scanConfig(name)
	out := &Outcome{Scan: name}
	log := s.logger.With(zap.String("scan", name))

	now := s.Now().In(s.Location)
	if scan.MarketHours && !IsMarketHours(now) {
		log.Info("skipped outside market hours", zap.Time("now", now))
		out.Skipped = true
		return out, nil
	}

	req, err := s.Portfolio.ContextRequest(s.Config, scan.Context, "", 0)
	if err != nil {
		return nil, err
	}
	res, err := s.Analyzer.Analyze(ctx, req)
	if err != nil {
		s.recordRun(&recorder.ScanRun{Scan: name, StartedAt: now, Symbols: len(req.Symbols), Error: err.Error()})
		return nil, fmt.Errorf("analyze %s: %w", scan.Context, err)
	}
	out.BatchID = res.ID

	out.Candidates = s.filter(res.TopBuys(0), scan)
	last, err := s.Recorder.LastKeys(name)
	if err != nil {
		return nil, fmt.Errorf("load last keys: %w", err)
	}
	out.New = NewSignals(name, out.Candidates, last)

	run := &recorder.ScanRun{
		Scan:      name,
		BatchID:   res.ID,
		StartedAt: now,
		Symbols:   len(res.Requested),
		Matched:   len(out.Candidates),
		Alerted:   len(out.New),
		Synthetic: res.Summary().Synthetic,
	}

	if len(out.New) > 0 {
		msg := notifier.FormatAlert(name, out.New, scan.PortfolioOnly)
		if err := s.Notifier.Send(ctx, msg); err != nil {
			// Keys stay unchanged so the next run retries these signals.
			run.Error = err.Error()
			s.recordRun(run)
			return out, fmt.Errorf("send alert: %w", err)
		}
		s.metrics.IncAlerts(name, len(out.New))
		log.Info("alerts sent", zap.Int("count", len(out.New)))
	} else {
		log.Info("no new alerts", zap.Int("candidates", len(out.Candidates)))
	}

	if err := s.Recorder.SaveKeys(name, Keys(name, out.Candidates)); err != nil {
		log.Error("save alert keys", zap.Error(err))
	}
	s.recordRun(run)
	return out, nil
}

func (s *Scheduler) filter(buys []model.Recommendation, scan config.Scan) []model.Recommendation {
	var out []model.Recommendation
	for _, r := range buys {
		if r.Score < scan.MinScore {
			continue
		}
		if scan.PortfolioOnly && !s.Portfolio.Contains(r.Symbol) {
			continue
		}
		out = append(out, r)
		if scan.TopN > 0 && len(out) == scan.TopN {
			break
		}
	}
	return out
}

func (s *Scheduler) recordRun(run *recorder.ScanRun) {
	if err := s.Recorder.RecordRun(run); err != nil {
		s.logger.Error("record scan run", zap.Error(err))
	}
}

// IsMarketHours reports whether t, expressed in exchange time, falls within
// the regular US session (Mon-Fri, 09:30-16:00 inclusive).
func IsMarketHours(t time.Time) bool {
	if wd := t.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return false
	}
	minutes := t.Hour()*60 + t.Minute()
	if minutes == 16*60 && (t.Second() > 0 || t.Nanosecond() > 0) {
		return false
	}
	return minutes >= 9*60+30 && minutes <= 16*60
}

// AlertKey identifies a signal for de-duplication across runs.
func AlertKey(scan string, r model.Recommendation) string {
	return fmt.Sprintf("%s:%s:%s:%s", scan, strings.ToUpper(r.Symbol), r.Category, strconv.FormatFloat(r.Score, 'f', -1, 64))
}

// Keys returns the sorted alert keys of recs.
func Keys(scan string, recs []model.Recommendation) []string {
	keys := make([]string, 0, len(recs))
	for _, r := range recs {
		keys = append(keys, AlertKey(scan, r))
	}
	sort.Strings(keys)
	return keys
}

// NewSignals returns the recommendations whose key is absent from last,
// preserving their order.
func NewSignals(scan string, recs []model.Recommendation, last []string) []model.Recommendation {
	seen := make(map[string]bool, len(last))
	for _, k := range last {
		seen[k] = true
	}
	var out []model.Recommendation
	for _, r := range recs {
		if !seen[AlertKey(scan, r)] {
			out = append(out, r)
		}
	}
	return out
}
