package notifier

import (
	"fmt"
	"strconv"
	"strings"

	"StockSentinel/internal/model"
)

// MaxAlertLines caps the recommendations listed in one alert.
const MaxAlertLines = 10

// FormatLine renders one recommendation as a single alert line.
func FormatLine(rec model.Recommendation) string {
	parts := []string{fmt.Sprintf("%s %s (score %g)", rec.Symbol, rec.Category, rec.Score)}
	if rec.Price > 0 {
		parts = append(parts, fmt.Sprintf("$%.2f", rec.Price))
	}
	if rec.Indicators.RSI14 != nil {
		parts = append(parts, fmt.Sprintf("RSI %.1f", *rec.Indicators.RSI14))
	}
	line := strings.Join(parts, " - ")
	if rec.Synthetic {
		line += " [SYNTHETIC]"
	}
	return line
}

// FormatAlert builds the notification for newly seen BUY signals of a scan.
func FormatAlert(scan string, recs []model.Recommendation, portfolioOnly bool) Message {
	title := strings.ToUpper(scan[:1]) + scan[1:] + " BUY Alerts"
	if scan == "etf" {
		title = "ETF BUY Alerts"
	}
	header := "New BUY signals"
	switch {
	case scan == "etf":
		header = "New ETF BUY signals"
	case portfolioOnly:
		header = "New BUY signals (portfolio-filtered)"
	}

	lines := []string{header}
	for i, r := range recs {
		if i == MaxAlertLines {
			lines = append(lines, fmt.Sprintf("... and %d more", len(recs)-MaxAlertLines))
			break
		}
		lines = append(lines, FormatLine(r))
	}
	return Message{Title: title, Text: strings.Join(lines, "\n")}
}

// FormatRecommendation renders a detailed single-symbol report.
func FormatRecommendation(rec model.Recommendation) string {
	var b strings.Builder

	name := rec.Symbol
	if rec.CompanyName != "" && rec.CompanyName != rec.Symbol {
		name = fmt.Sprintf("%s (%s)", rec.Symbol, rec.CompanyName)
	}
	fmt.Fprintf(&b, "%s\n", name)
	fmt.Fprintf(&b, "Price: %.2f (%+.2f%% 1D)\n", rec.Price, rec.Change1D)
	fmt.Fprintf(&b, "Recommendation: %s | Score %+g\n", rec.Category, rec.Score)

	if len(rec.Factors) > 0 {
		b.WriteString("\nSignals:\n")
		for i, f := range rec.Factors {
			if i == 6 {
				fmt.Fprintf(&b, "  ... %d more\n", len(rec.Factors)-6)
				break
			}
			fmt.Fprintf(&b, "  %+g %s: %s\n", f.Weighted, f.Name, f.Commentary)
		}
	}

	var found []string
	for _, p := range rec.Patterns {
		if p.Detected() {
			found = append(found, fmt.Sprintf("%s (%s)", p.Kind.Title(), p.Status))
		}
	}
	if len(found) > 0 {
		fmt.Fprintf(&b, "\nPatterns: %s\n", strings.Join(found, ", "))
	}

	if rec.Fundamentals != nil {
		fmt.Fprintf(&b, "\nFundamentals: %s\n", FormatFundamentals(rec.Fundamentals))
	}

	if rec.Synthetic {
		fmt.Fprintf(&b, "\nWARNING: %s\n", rec.DataNotice)
	}
	return b.String()
}

// FormatFundamentals renders the reported valuation figures on one line,
// e.g. "P/E 28.1 | Fwd P/E 25.4 | Div 0.52% | Cap $2.95T".
func FormatFundamentals(f *model.Fundamentals) string {
	if f == nil {
		return "N/A"
	}
	var parts []string
	add := func(label string, v *float64, suffix string) {
		if v != nil {
			parts = append(parts, fmt.Sprintf("%s %s%s", label, strconv.FormatFloat(*v, 'f', -1, 64), suffix))
		}
	}
	add("P/E", f.PERatio, "")
	add("Fwd P/E", f.ForwardPE, "")
	add("P/B", f.PBRatio, "")
	add("EPS", f.EPS, "")
	add("Div", f.DividendYield, "%")
	add("ROE", f.ROE, "%")
	add("Margin", f.ProfitMargin, "%")
	add("D/E", f.DebtToEquity, "")
	add("Beta", f.Beta, "")
	if f.High52W != nil && f.Low52W != nil {
		parts = append(parts, fmt.Sprintf("52W %s-%s",
			strconv.FormatFloat(*f.Low52W, 'f', -1, 64), strconv.FormatFloat(*f.High52W, 'f', -1, 64)))
	}
	if f.MarketCap > 0 {
		parts = append(parts, "Cap "+f.MarketCapText())
	}
	if len(parts) == 0 {
		return "N/A"
	}
	return strings.Join(parts, " | ")
}

// FormatSummary renders a batch overview with the strongest BUY and SELL names.
func FormatSummary(res *model.BatchResult, topN int) string {
	var b strings.Builder
	s := res.Summary()

	fmt.Fprintf(&b, "Analyzed %d/%d symbols (%s)\n", s.Analyzed, s.Total, res.Period)
	fmt.Fprintf(&b, "BUY %d | HOLD %d | SELL %d | avg score %+.2f\n", s.Buys, s.Holds, s.Sells, s.AverageScore)
	if s.Synthetic > 0 {
		fmt.Fprintf(&b, "WARNING: %d result(s) use synthetic data\n", s.Synthetic)
	}

	section := func(title string, recs []model.Recommendation) {
		if len(recs) == 0 {
			return
		}
		fmt.Fprintf(&b, "\n%s:\n", title)
		for _, r := range recs {
			b.WriteString("  " + FormatLine(r) + "\n")
		}
	}
	section("Top BUY", res.TopBuys(topN))
	section("Top SELL", res.TopSells(topN))

	if len(res.Failed) > 0 {
		fmt.Fprintf(&b, "\nFailed: %s\n", strings.Join(res.Failed, ", "))
	}
	return b.String()
}
