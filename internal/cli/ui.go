package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"StockSentinel/internal/model"
	"StockSentinel/internal/notifier"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")).
			Padding(0, 1)

	buyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	sellStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444")).
			Bold(true)

	holdStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F59E0B"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444")).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#EF4444")).
			Padding(0, 1)

	summaryStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3B82F6")).
			Padding(0, 1)
)

func categoryStyle(c model.Category) lipgloss.Style {
	switch c {
	case model.CategoryBuy:
		return buyStyle
	case model.CategorySell:
		return sellStyle
	default:
		return holdStyle
	}
}

func renderRow(rec model.Recommendation) string {
	cat := categoryStyle(rec.Category).Width(5).Render(string(rec.Category))
	row := fmt.Sprintf("%-8s %s %+7.2f  %10.2f  %+6.2f%%", rec.Symbol, cat, rec.Score, rec.Price, rec.Change1D)
	if rec.Synthetic {
		row += " " + sellStyle.Render("SYNTHETIC")
	}
	return row
}

// renderBatch formats a batch for the terminal. verbose adds the signal
// breakdown under each row.
func renderBatch(res *model.BatchResult, topN int, verbose bool) string {
	var b strings.Builder
	s := res.Summary()

	b.WriteString(titleStyle.Render(fmt.Sprintf("Stock Sentinel | %d symbols | %s", s.Total, res.Period)))
	b.WriteString("\n")

	if s.Synthetic > 0 {
		b.WriteString(warningStyle.Render(fmt.Sprintf("WARNING: %d result(s) use SYNTHETIC data. Every market data source failed for them; do not trade on these numbers.", s.Synthetic)))
		b.WriteString("\n")
	}

	b.WriteString(mutedStyle.Render(fmt.Sprintf("%-8s %-5s %7s  %10s  %7s", "SYMBOL", "REC", "SCORE", "PRICE", "1D")))
	b.WriteString("\n")
	for _, rec := range res.Ranked {
		b.WriteString(renderRow(rec))
		b.WriteString("\n")
		if verbose {
			if rec.Fundamentals != nil {
				b.WriteString(mutedStyle.Render("    " + notifier.FormatFundamentals(rec.Fundamentals)))
				b.WriteString("\n")
			}
			for _, f := range rec.Factors {
				b.WriteString(mutedStyle.Render(fmt.Sprintf("    %+6.2f %s: %s", f.Weighted, f.Name, f.Commentary)))
				b.WriteString("\n")
			}
		}
	}

	var lines []string
	lines = append(lines, fmt.Sprintf("BUY %d  HOLD %d  SELL %d  avg %+.2f", s.Buys, s.Holds, s.Sells, s.AverageScore))
	if buys := res.TopBuys(topN); len(buys) > 0 {
		lines = append(lines, "Top BUY:  "+symbols(buys))
	}
	if sells := res.TopSells(topN); len(sells) > 0 {
		lines = append(lines, "Top SELL: "+symbols(sells))
	}
	if len(res.Failed) > 0 {
		lines = append(lines, "Failed:   "+strings.Join(res.Failed, ", "))
	}
	b.WriteString(summaryStyle.Render(strings.Join(lines, "\n")))
	b.WriteString("\n")
	return b.String()
}

func symbols(recs []model.Recommendation) string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Symbol
	}
	return strings.Join(out, ", ")
}
