package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"PortfoLink/internal/model"
	"PortfoLink/internal/portfolio"
)

// NoHoldingsMessage is shown instead of a summary when no lots are recorded.
const NoHoldingsMessage = "📭 No holdings yet. Add a purchase with <code>portfolink add SYMBOL QTY PRICE</code>."

// FormatPortfolio formats a valued portfolio.
func FormatPortfolio(r *portfolio.Report, now time.Time) string {
	var b strings.Builder
	s := r.Summary

	fmt.Fprintf(&b, "💼 <b>Portfolio</b> | %s\n\n", now.Format("2006-01-02"))
	for _, row := range r.Rows {
		if row.PriceUnavailable {
			fmt.Fprintf(&b, "%s ×%g: price unavailable\n", html.EscapeString(row.Symbol), row.Quantity)
			continue
		}
		fmt.Fprintf(&b, "%s ×%g @ %.2f: %+.2f (%+.1f%%)\n",
			html.EscapeString(row.Symbol), row.Quantity, row.LatestPrice, row.PnL, row.PnLPct)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Invested: ₹%.0f\n", s.TotalInvested)
	fmt.Fprintf(&b, "Value: ₹%.0f\n", s.TotalValue)
	fmt.Fprintf(&b, "Net P&amp;L: ₹%+.0f (%+.2f%%)\n", s.NetPnL, s.ReturnPct)
	if s.BenchmarkReturnPct != nil {
		fmt.Fprintf(&b, "%s 1Y: %+.2f%%\n", html.EscapeString(s.BenchmarkSymbol), *s.BenchmarkReturnPct)
	}
	if s.UnpricedLots > 0 {
		fmt.Fprintf(&b, "\n⚠️ %d lot(s) valued at zero: latest price unavailable\n", s.UnpricedLots)
	}
	return b.String()
}

// FormatRecommendations formats ranked stock picks.
func FormatRecommendations(p model.Profile, picks []model.InstrumentCandidate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📈 <b>Stock picks</b> | %s horizon, %s risk\n", p.Horizon, p.Risk)
	if len(p.Sectors) > 0 {
		fmt.Fprintf(&b, "Sectors: %s\n", html.EscapeString(strings.Join(p.Sectors, ", ")))
	}
	b.WriteString("\n")
	if len(picks) == 0 {
		b.WriteString("No instrument matches this profile.")
		return b.String()
	}
	for i, c := range picks {
		fmt.Fprintf(&b, "%d. <b>%s</b> %s\n", i+1, html.EscapeString(c.Symbol), html.EscapeString(c.Name))
		fmt.Fprintf(&b, "   score %.3f | CAGR %.1f%% | vol %.1f%% | Sharpe %.2f\n",
			c.Score, *c.CAGR*100, *c.Volatility*100, *c.Sharpe)
	}
	return b.String()
}

// FormatFunds formats ranked mutual fund picks.
func FormatFunds(p model.Profile, picks []model.FundCandidate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🏦 <b>Fund picks</b> | %s risk\n\n", p.Risk)
	if len(picks) == 0 {
		b.WriteString("No funds available. Run a fund sync first.")
		return b.String()
	}
	for i, f := range picks {
		fmt.Fprintf(&b, "%d. %s\n", i+1, html.EscapeString(f.Name))
		if f.Category != "" {
			fmt.Fprintf(&b, "   %s\n", html.EscapeString(f.Category))
		}
	}
	return b.String()
}
