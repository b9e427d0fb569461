// Package portfolio values recorded lots against the latest prices.
package portfolio

import (
	"context"
	"errors"

	"PortfoLink/internal/calculator"
	"PortfoLink/internal/model"
)

// ErrNoHoldings means there are no lots to value. It is distinct from a
// portfolio whose return is genuinely 0%.
var ErrNoHoldings = errors.New("no holdings")

// DefaultBenchmark is the Nifty 50 index.
const DefaultBenchmark = "^NSEI"

// PriceSource provides latest prices and history. ok is false when data is
// missing.
type PriceSource interface {
	LatestPrice(ctx context.Context, symbol string) (float64, bool)
	Series(ctx context.Context, symbol string, period model.Period) (model.PriceSeries, bool)
}

// Options tune a valuation.
type Options struct {
	BenchmarkSymbol string // empty skips the benchmark
	RiskFreeRate    float64
	WithMetrics     bool // attach 1-year metrics to each row
}

// Report is a valued portfolio.
type Report struct {
	Rows    []model.LotRow         `json:"rows"`
	Summary model.PortfolioSummary `json:"summary"`
}

// Summarize values every lot at its latest price. A lot whose price cannot
// be fetched is reported with a zero price and PriceUnavailable set.
func Summarize(ctx context.Context, lots []model.Lot, src PriceSource, opts Options) (*Report, error) {
	if len(lots) == 0 {
		return nil, ErrNoHoldings
	}

	type quote struct {
		price   float64
		ok      bool
		metrics model.Metrics
	}
	quotes := make(map[string]quote)

	report := &Report{Rows: make([]model.LotRow, 0, len(lots))}
	sum := &report.Summary
	for _, lot := range lots {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		q, seen := quotes[lot.Symbol]
		if !seen {
			q.price, q.ok = src.LatestPrice(ctx, lot.Symbol)
			if !q.ok {
				q.price = 0
			}
			if opts.WithMetrics {
				if series, ok := src.Series(ctx, lot.Symbol, model.Period1Year); ok {
					q.metrics = calculator.Compute(series, opts.RiskFreeRate)
				}
			}
			quotes[lot.Symbol] = q
		}

		row := model.LotRow{
			Lot:              lot,
			LatestPrice:      q.price,
			Invested:         lot.Invested(),
			CurrentValue:     lot.Quantity * q.price,
			PriceUnavailable: !q.ok,
			Metrics:          q.metrics,
		}
		row.PnL = row.CurrentValue - row.Invested
		row.PnLPct = pct(row.PnL, row.Invested)
		report.Rows = append(report.Rows, row)

		sum.TotalInvested += row.Invested
		sum.TotalValue += row.CurrentValue
		if row.PriceUnavailable {
			sum.UnpricedLots++
		}
	}

	sum.NetPnL = sum.TotalValue - sum.TotalInvested
	if sum.TotalInvested != 0 {
		sum.ReturnPct = (sum.TotalValue/sum.TotalInvested - 1) * 100
	}

	if opts.BenchmarkSymbol != "" {
		sum.BenchmarkSymbol = opts.BenchmarkSymbol
		if series, ok := src.Series(ctx, opts.BenchmarkSymbol, model.Period1Year); ok {
			if r := calculator.PeriodReturn(series); r != nil {
				v := *r * 100
				sum.BenchmarkReturnPct = &v
			}
		}
	}
	return report, nil
}

func pct(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return part / whole * 100
}
