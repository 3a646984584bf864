// Package cli implements the sentinel command line.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/tidwall/pretty"
	"go.uber.org/zap"

	"StockSentinel/internal/analyzer"
	"StockSentinel/internal/api"
	"StockSentinel/internal/model"
	"StockSentinel/internal/notifier"
	"StockSentinel/internal/portfolio"
	"StockSentinel/internal/recorder"
	"StockSentinel/internal/scheduler"
)

// Version is set at build time with -ldflags "-X StockSentinel/internal/cli.Version=...".
var Version = "dev"

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	var opts appOptions

	rootCmd := &cobra.Command{
		Use:   "sentinel",
		Short: "Stock Sentinel - technical analysis and BUY/SELL/HOLD scoring",
		Long: `Stock Sentinel fetches daily bars from a chain of market data sources, computes
technical indicators, detects chart patterns and scores every symbol as BUY, SELL or HOLD.`,
		SilenceUsage: true,
	}

	defaultConfig := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultConfig = v
	}
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", defaultConfig, "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Override the configured log level")

	rootCmd.AddCommand(newAnalyzeCmd(&opts))
	rootCmd.AddCommand(newServeCmd(&opts))
	rootCmd.AddCommand(newAlertsCmd(&opts))
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

type analyzeFlags struct {
	period  string
	topN    int
	context string
	file    string
	json    bool
	verbose bool
}

// newAnalyzeCmd creates the analyze command
func newAnalyzeCmd(opts *appOptions) *cobra.Command {
	var f analyzeFlags
	cmd := &cobra.Command{
		Use:   "analyze [SYMBOL...]",
		Short: "Score one or more symbols",
		Long: `Score symbols given as arguments, read from a portfolio file, or taken from a
named context (portfolio, watchlist, market, etf).
Example: sentinel analyze AAPL MSFT --period 6mo`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*opts)
			if err != nil {
				return err
			}
			defer a.close()
			return runAnalyze(cmd.Context(), a, f, args, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&f.period, "period", "", "Lookback period: 1mo, 3mo, 6mo, 1y, 2y, 5y")
	cmd.Flags().IntVar(&f.topN, "top-n", 10, "Number of top BUY and SELL names to list")
	cmd.Flags().StringVar(&f.context, "context", "", "Analyze a configured symbol universe")
	cmd.Flags().StringVar(&f.file, "file", "", "Portfolio file with one symbol per line")
	cmd.Flags().BoolVar(&f.json, "json", false, "Print JSON instead of a table")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "Show the signals behind each score")
	cmd.Flags().BoolVar(&opts.includeShapes, "shapes", false, "Include chart and candlestick shapes in the score")
	return cmd
}

func runAnalyze(ctx context.Context, a *app, f analyzeFlags, args []string, w io.Writer) error {
	var req model.AnalyzeRequest
	switch {
	case f.context != "":
		r, err := a.portfolio.ContextRequest(a.cfg, f.context, f.period, f.topN)
		if err != nil {
			return err
		}
		req = r
	case f.file != "":
		symbols, err := portfolio.ReadFile(f.file)
		if err != nil {
			return fmt.Errorf("read %s: %w", f.file, err)
		}
		req = model.AnalyzeRequest{Symbols: symbols}
	default:
		req = model.AnalyzeRequest{Symbols: args}
	}
	if len(args) > 0 && f.context != "" {
		req.Symbols = args
	}
	if f.period != "" {
		req.Period = model.Period(f.period)
	}
	if req.Period == "" {
		req.Period = model.Period(a.cfg.Analysis.DefaultPeriod)
	}
	if f.topN > 0 {
		req.TopN = f.topN
	}

	res, err := a.analyzer.Analyze(ctx, req)
	if err != nil {
		if errors.Is(err, analyzer.ErrNoSymbols) {
			return fmt.Errorf("%w: pass symbols as arguments, --file or --context", err)
		}
		return err
	}

	if f.json {
		body, err := json.Marshal(api.NewBatchResponse(res, f.context, req.TopN))
		if err != nil {
			return err
		}
		_, err = w.Write(pretty.Pretty(body))
		return err
	}
	_, err = io.WriteString(w, renderBatch(res, req.TopN, f.verbose))
	return err
}

// newServeCmd creates the serve command
func newServeCmd(opts *appOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			o := *opts
			o.registerer = prometheus.DefaultRegisterer
			a, err := newApp(o)
			if err != nil {
				return err
			}
			defer a.close()
			if addr == "" {
				addr = a.cfg.Server.Addr
			}

			srv := api.New(a.cfg, a.analyzer, a.portfolio, a.logger)
			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe(addr) }()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			select {
			case err := <-errCh:
				return fmt.Errorf("server run failure: %w", err)
			case sig := <-sigCh:
				a.logger.Info("received signal, exiting", zap.String("signal", sig.String()))
			}
			if err := srv.Shutdown(); err != nil {
				return fmt.Errorf("server shutdown failure: %w", err)
			}
			a.logger.Info("goodbye")
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	return cmd
}

// newAlertsCmd creates the alerts daemon and its one-shot run subcommand
func newAlertsCmd(opts *appOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "Run the scheduled BUY alert scans",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAlertsDaemon(*opts)
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:       "run [market|etf|all]",
		Short:     "Run alert scans once and exit",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{scheduler.ScanMarket, scheduler.ScanETF, "all"},
		RunE: func(cmd *cobra.Command, args []string) error {
			mode := "all"
			if len(args) == 1 {
				mode = args[0]
			}
			return runAlertsOnce(cmd.Context(), *opts, mode, cmd.OutOrStdout())
		},
	})
	return cmd
}

// alertStack wires the scheduler and its delivery and state dependencies.
type alertStack struct {
	*app
	sched    *scheduler.Scheduler
	telegram *notifier.TelegramNotifier
	rec      recorder.Recorder
}

func newAlertStack(ctx context.Context, opts appOptions) (*alertStack, error) {
	a, err := newApp(opts)
	if err != nil {
		return nil, err
	}
	if err := a.cfg.ValidateAlerts(); err != nil {
		return nil, err
	}

	st := &alertStack{app: a}
	multi := &notifier.Multi{MaxRetries: 3, Logger: a.logger}
	if a.cfg.Telegram.BotToken != "" && a.cfg.Telegram.ChatID != "" {
		st.telegram = notifier.NewTelegramNotifier(a.cfg.Telegram.BotToken, a.cfg.Telegram.ChatID, a.cfg.Proxy, a.logger)
		multi.Notifiers = append(multi.Notifiers, st.telegram)
	}
	if a.cfg.Pushover.AppToken != "" && a.cfg.Pushover.UserKey != "" {
		multi.Notifiers = append(multi.Notifiers, notifier.NewPushoverNotifier(a.cfg.Pushover.AppToken, a.cfg.Pushover.UserKey, a.cfg.Proxy))
	}

	if a.cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(a.cfg.Database.SQLitePath, a.logger)
		if err != nil {
			a.logger.Warn("init sqlite recorder failed, using noop", zap.Error(err))
			st.rec = recorder.NewNoopRecorder()
		} else {
			st.rec = sr
		}
	} else {
		st.rec = recorder.NewNoopRecorder()
	}

	st.sched, err = scheduler.NewScheduler(ctx, a.cfg, a.analyzer, a.portfolio, multi, st.rec, a.metrics, a.logger)
	if err != nil {
		st.rec.Close()
		return nil, err
	}
	return st, nil
}

func (st *alertStack) close() {
	if err := st.rec.Close(); err != nil {
		st.logger.Warn("close recorder", zap.Error(err))
	}
	st.app.close()
}

func runAlertsDaemon(opts appOptions) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := newAlertStack(ctx, opts)
	if err != nil {
		return err
	}
	defer st.close()

	if err := st.sched.RegisterAll(); err != nil {
		return fmt.Errorf("register cron tasks: %w", err)
	}
	st.sched.Start()
	defer st.sched.Stop()

	if st.telegram != nil {
		go st.telegram.StartPolling(ctx, st.sched.HandleCommand)
		st.logger.Info("telegram polling started")
	}
	st.logger.Info("alerts running, press Ctrl+C to stop")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	st.logger.Info("shutdown signal received, stopping")
	cancel()
	return nil
}

func runAlertsOnce(ctx context.Context, opts appOptions, mode string, w io.Writer) error {
	var scans []string
	switch mode {
	case "all":
		scans = []string{scheduler.ScanMarket, scheduler.ScanETF}
	case scheduler.ScanMarket, scheduler.ScanETF:
		scans = []string{mode}
	default:
		return fmt.Errorf("unknown mode %q: use market, etf or all", mode)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := newAlertStack(ctx, opts)
	if err != nil {
		return err
	}
	defer st.close()

	var errs []error
	for _, name := range scans {
		out, err := st.sched.RunScan(ctx, name)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		switch {
		case out.Skipped:
			fmt.Fprintf(w, "%s: skipped (outside US market hours)\n", name)
		case len(out.New) == 0:
			fmt.Fprintf(w, "%s: no new BUY alerts (candidates=%d)\n", name, len(out.Candidates))
		default:
			fmt.Fprintf(w, "%s: sent %d alerts\n", name, len(out.New))
		}
	}
	return errors.Join(errs...)
}

// newVersionCmd creates the version command
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "sentinel %s\n", Version)
		},
	}
}
