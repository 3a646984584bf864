package scheduler

import (
	"context"
	"fmt"
	"strings"

	"StockSentinel/internal/model"
	"StockSentinel/internal/notifier"
)

const helpText = `Available commands:
/analyze SYMBOL [period] - score one symbol
/market, /etf, /watchlist, /portfolio - rank a symbol universe
/scan market|etf - run an alert scan now
/holdings - list portfolio symbols
/add SYMBOL... - add to portfolio
/remove SYMBOL... - remove from portfolio`

// HandleCommand processes a chat command and returns the reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return helpText
	}
	// Telegram appends @botname to commands in groups.
	cmd := strings.ToLower(strings.SplitN(fields[0], "@", 2)[0])
	args := fields[1:]

	switch cmd {
	case "/analyze":
		return s.cmdAnalyze(ctx, args)
	case "/market", "/etf", "/watchlist", "/portfolio":
		return s.cmdContext(ctx, strings.TrimPrefix(cmd, "/"), args)
	case "/scan":
		return s.cmdScan(ctx, args)
	case "/holdings":
		held := s.Portfolio.Symbols()
		if len(held) == 0 {
			return "Portfolio is empty."
		}
		return "Portfolio: " + strings.Join(held, ", ")
	case "/add", "/remove":
		return s.cmdEdit(cmd, args)
	default:
		return helpText
	}
}

func (s *Scheduler) cmdAnalyze(ctx context.Context, args []string) string {
	if len(args) == 0 {
		return "Usage: /analyze SYMBOL [period]"
	}
	req := model.AnalyzeRequest{Symbols: []string{model.NormalizeSymbol(args[0])}, Period: model.Period(s.Config.Analysis.DefaultPeriod)}
	if len(args) > 1 {
		req.Period = model.Period(args[1])
	}
	res, err := s.Analyzer.Analyze(ctx, req)
	if err != nil {
		return "Error: " + err.Error()
	}
	sym := res.Requested[0]
	rec, ok := res.Succeeded[sym]
	if !ok {
		return fmt.Sprintf("Could not analyze %s: %s", sym, res.Failures[sym])
	}
	return notifier.FormatRecommendation(rec)
}

func (s *Scheduler) cmdContext(ctx context.Context, name string, args []string) string {
	period := ""
	if len(args) > 0 {
		period = args[0]
	}
	req, err := s.Portfolio.ContextRequest(s.Config, name, period, 0)
	if err != nil {
		return "Error: " + err.Error()
	}
	res, err := s.Analyzer.Analyze(ctx, req)
	if err != nil {
		return "Error: " + err.Error()
	}
	return notifier.FormatSummary(res, req.TopN)
}

func (s *Scheduler) cmdScan(ctx context.Context, args []string) string {
	name := ScanMarket
	if len(args) > 0 {
		name = strings.ToLower(args[0])
	}
	out, err := s.RunScan(ctx, name)
	if err != nil {
		return "Scan failed: " + err.Error()
	}
	switch {
	case out.Skipped:
		return fmt.Sprintf("%s scan skipped: outside US market hours.", name)
	case len(out.New) == 0:
		return fmt.Sprintf("%s scan: no new BUY alerts (%d candidates).", name, len(out.Candidates))
	default:
		return fmt.Sprintf("%s scan: sent %d new alert(s).", name, len(out.New))
	}
}

func (s *Scheduler) cmdEdit(cmd string, args []string) string {
	if s.Portfolio == nil {
		return "Portfolio is not configured."
	}
	if len(args) == 0 {
		return fmt.Sprintf("Usage: %s SYMBOL...", cmd)
	}
	var (
		changed []string
		err     error
	)
	if cmd == "/add" {
		changed, err = s.Portfolio.Add(args...)
	} else {
		changed, err = s.Portfolio.Remove(args...)
	}
	if err != nil {
		return "Error: " + err.Error()
	}
	if len(changed) == 0 {
		return "Nothing changed."
	}
	verb := "Added"
	if cmd == "/remove" {
		verb = "Removed"
	}
	return fmt.Sprintf("%s %s. Portfolio: %s", verb, strings.Join(changed, ", "), strings.Join(s.Portfolio.Symbols(), ", "))
}
