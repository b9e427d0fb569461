// Package export renders reports as CSV. Column order is part of the output
// contract; append new columns at the end.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/shopspring/decimal"

	"PortfoLink/internal/model"
	"PortfoLink/internal/portfolio"
)

var (
	RecommendationHeader = []string{"symbol", "name", "sector", "score", "cagr_pct", "volatility_pct", "sharpe"}
	FundHeader           = []string{"code", "name", "category", "score"}
	PortfolioHeader      = []string{"id", "symbol", "quantity", "buy_price", "buy_date", "latest_price", "invested", "current_value", "pnl", "pnl_pct", "price_unavailable", "cagr_1y_pct", "volatility_1y_pct", "sharpe_1y"}
	AllocationHeader     = []string{"symbol", "amount", "cagr_pct", "volatility_pct"}
)

// Label of the aggregate row in portfolio and allocation exports.
const TotalLabel = "TOTAL"

// WriteRecommendations writes ranked stock picks.
func WriteRecommendations(w io.Writer, cands []model.InstrumentCandidate) error {
	rows := make([][]string, 0, len(cands))
	for _, c := range cands {
		rows = append(rows, []string{
			c.Symbol, c.Name, c.Sector,
			fixed(c.Score, 4),
			optPct(c.CAGR),
			optPct(c.Volatility),
			optFixed(c.Sharpe, 3),
		})
	}
	return write(w, RecommendationHeader, rows)
}

// WriteFunds writes ranked fund picks.
func WriteFunds(w io.Writer, cands []model.FundCandidate) error {
	rows := make([][]string, 0, len(cands))
	for _, c := range cands {
		rows = append(rows, []string{c.Code, c.Name, c.Category, fixed(c.Score, 2)})
	}
	return write(w, FundHeader, rows)
}

// WritePortfolio writes one row per lot followed by a TOTAL row.
func WritePortfolio(w io.Writer, r *portfolio.Report) error {
	rows := make([][]string, 0, len(r.Rows)+1)
	for _, row := range r.Rows {
		rows = append(rows, []string{
			strconv.FormatInt(row.ID, 10),
			row.Symbol,
			decimal.NewFromFloat(row.Quantity).String(),
			money(row.BuyPrice),
			row.BuyDate.Format(model.DateLayout),
			money(row.LatestPrice),
			money(row.Invested),
			money(row.CurrentValue),
			money(row.PnL),
			fixed(row.PnLPct, 2),
			strconv.FormatBool(row.PriceUnavailable),
			optPct(row.Metrics.CAGR),
			optPct(row.Metrics.Volatility),
			optFixed(row.Metrics.Sharpe, 3),
		})
	}
	s := r.Summary
	rows = append(rows, []string{
		"", TotalLabel, "", "", "", "",
		money(s.TotalInvested),
		money(s.TotalValue),
		money(s.NetPnL),
		fixed(s.ReturnPct, 2),
		strconv.FormatBool(s.UnpricedLots > 0),
		"", "", "",
	})
	return write(w, PortfolioHeader, rows)
}

// WriteSimulation writes the allocation per pick followed by the expected
// portfolio figures.
func WriteSimulation(w io.Writer, sim *model.Simulation) error {
	rows := make([][]string, 0, len(sim.Allocations)+1)
	for _, a := range sim.Allocations {
		rows = append(rows, []string{a.Symbol, money(a.Amount), fixed(a.CAGRPct, 2), fixed(a.VolatilityPct, 2)})
	}
	rows = append(rows, []string{TotalLabel, money(sim.TotalCash), fixed(sim.ExpectedCAGRPct, 2), fixed(sim.ExpectedVolPct, 2)})
	return write(w, AllocationHeader, rows)
}

func write(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func money(v float64) string { return fixed(v, 2) }

func fixed(v float64, places int32) string {
	return decimal.NewFromFloat(v).StringFixed(places)
}

func optFixed(v *float64, places int32) string {
	if v == nil {
		return ""
	}
	return fixed(*v, places)
}

func optPct(v *float64) string {
	if v == nil {
		return ""
	}
	return decimal.NewFromFloat(*v).Shift(2).StringFixed(2)
}
