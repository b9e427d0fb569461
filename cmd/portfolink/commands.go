package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"PortfoLink/internal/app"
	"PortfoLink/internal/export"
	"PortfoLink/internal/model"
	"PortfoLink/internal/portfolio"
	"PortfoLink/internal/strategy"
)

func newAddCmd() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "add SYMBOL QUANTITY BUY_PRICE",
		Short: "Record a purchase lot",
		Example: `  portfolink add TCS.NS 10 3450.5
  portfolink add INFY.NS 5 1500 --date 2025-01-15`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			qty, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("quantity: %w", err)
			}
			price, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return fmt.Errorf("buy price: %w", err)
			}
			var buyDate *time.Time
			if date != "" {
				d, err := time.Parse(model.DateLayout, date)
				if err != nil {
					return fmt.Errorf("date must be YYYY-MM-DD: %w", err)
				}
				buyDate = &d
			}

			rt, err := bootstrap(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			lot, err := rt.svc.AddLot(cmd.Context(), args[0], qty, price, buyDate)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded lot #%d: %g %s @ %.2f on %s\n",
				lot.ID, lot.Quantity, lot.Symbol, lot.BuyPrice, lot.BuyDate.Format(model.DateLayout))
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Buy date (YYYY-MM-DD), defaults to today")
	return cmd
}

func newLotsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lots",
		Short: "List recorded lots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := bootstrap(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			lots, err := rt.svc.ListLots(cmd.Context())
			if err != nil {
				return err
			}
			if len(lots) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), noHoldingsHint)
				return nil
			}
			tw := newTable(cmd.OutOrStdout(), "ID", "SYMBOL", "QTY", "BUY PRICE", "BUY DATE")
			for _, l := range lots {
				fmt.Fprintf(tw, "%d\t%s\t%g\t%.2f\t%s\n", l.ID, l.Symbol, l.Quantity, l.BuyPrice, l.BuyDate.Format(model.DateLayout))
			}
			return tw.Flush()
		},
	}
}

const noHoldingsHint = "No holdings yet. Record one with: portfolink add SYMBOL QUANTITY BUY_PRICE"

func newSummaryCmd() *cobra.Command {
	var asCSV bool
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Value holdings at the latest prices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := bootstrap(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			report, err := rt.svc.Portfolio(cmd.Context())
			if errors.Is(err, portfolio.ErrNoHoldings) {
				fmt.Fprintln(cmd.OutOrStdout(), noHoldingsHint)
				return nil
			}
			if err != nil {
				return err
			}
			if asCSV {
				return export.WritePortfolio(cmd.OutOrStdout(), report)
			}
			printPortfolio(cmd.OutOrStdout(), report)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asCSV, "csv", false, "Write CSV instead of a table")
	return cmd
}

type profileFlags struct {
	horizon string
	risk    string
	sectors []string
	top     int
}

func (f *profileFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.horizon, "horizon", "", "Investment horizon: short, medium or long")
	cmd.Flags().StringVar(&f.risk, "risk", "", "Risk appetite: low, medium or high")
	cmd.Flags().StringSliceVar(&f.sectors, "sector", nil, "Sector filter, repeatable; defaults to the config list, \"\" disables filtering")
	cmd.Flags().IntVar(&f.top, "top", 0, "Number of picks (default from config)")
}

// profile resolves flags against the configured defaults.
func (f *profileFlags) profile(rt *runtime) (model.Profile, error) {
	horizon, risk, sectors := f.horizon, f.risk, f.sectors
	if horizon == "" {
		horizon = rt.cfg.Recommend.Horizon
	}
	if risk == "" {
		risk = rt.cfg.Recommend.Risk
	}
	if sectors == nil {
		sectors = rt.cfg.Recommend.Sectors
	}
	return model.NewProfile(horizon, risk, sectors)
}

func newRecommendCmd() *cobra.Command {
	var (
		pf    profileFlags
		asCSV bool
	)
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Rank stocks for a risk/horizon profile",
		Example: `  portfolink recommend --horizon long --risk low
  portfolink recommend --sector Technology --sector Pharma --top 3 --csv > picks.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := bootstrap(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			p, err := pf.profile(rt)
			if err != nil {
				return err
			}
			picks, err := rt.svc.Recommend(cmd.Context(), p, pf.top)
			if errors.Is(err, strategy.ErrEmptyUniverse) {
				return errors.New("the instrument universe is empty; add symbols under universe in the config")
			}
			if err != nil {
				return err
			}
			if asCSV {
				return export.WriteRecommendations(cmd.OutOrStdout(), picks)
			}
			printPicks(cmd.OutOrStdout(), p, picks)
			return nil
		},
	}
	pf.register(cmd)
	cmd.Flags().BoolVar(&asCSV, "csv", false, "Write CSV instead of a table")
	return cmd
}

func newFundsCmd() *cobra.Command {
	var (
		pf    profileFlags
		asCSV bool
	)
	cmd := &cobra.Command{
		Use:   "funds",
		Short: "Rank mutual funds for a risk profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := bootstrap(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			p, err := pf.profile(rt)
			if err != nil {
				return err
			}
			picks, err := rt.svc.RecommendFunds(cmd.Context(), p, pf.top)
			if err != nil {
				return err
			}
			if asCSV {
				return export.WriteFunds(cmd.OutOrStdout(), picks)
			}
			if len(picks) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No funds stored yet. Run: portfolink sync --funds")
				return nil
			}
			tw := newTable(cmd.OutOrStdout(), "#", "CODE", "NAME", "CATEGORY", "SCORE")
			for i, f := range picks {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%.1f\n", i+1, f.Code, f.Name, f.Category, f.Score)
			}
			return tw.Flush()
		},
	}
	pf.register(cmd)
	cmd.Flags().BoolVar(&asCSV, "csv", false, "Write CSV instead of a table")
	return cmd
}

func newSimulateCmd() *cobra.Command {
	var (
		pf     profileFlags
		amount float64
		asCSV  bool
	)
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Split cash equally across the top picks and estimate return and risk",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := bootstrap(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			p, err := pf.profile(rt)
			if err != nil {
				return err
			}
			sim, err := rt.svc.Simulate(cmd.Context(), p, pf.top, amount)
			if errors.Is(err, app.ErrNoCandidates) {
				fmt.Fprintln(cmd.OutOrStdout(), "No instrument matches this profile; nothing to allocate.")
				return nil
			}
			if err != nil {
				return err
			}
			if asCSV {
				return export.WriteSimulation(cmd.OutOrStdout(), sim)
			}
			out := cmd.OutOrStdout()
			tw := newTable(out, "SYMBOL", "AMOUNT", "CAGR %", "VOL %")
			for _, a := range sim.Allocations {
				fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%.2f\n", a.Symbol, a.Amount, a.CAGRPct, a.VolatilityPct)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(out, "\nExpected CAGR: %.2f%%  Expected volatility: %.2f%% (equal weight, returns assumed independent)\n",
				sim.ExpectedCAGRPct, sim.ExpectedVolPct)
			return nil
		},
	}
	pf.register(cmd)
	cmd.Flags().Float64Var(&amount, "amount", 100000, "Cash to allocate")
	cmd.Flags().BoolVar(&asCSV, "csv", false, "Write CSV instead of a table")
	return cmd
}

func newSyncCmd() *cobra.Command {
	var prices, funds bool
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Refresh price history and the mutual fund list",
		Long:  "Refresh price history for the universe, holdings and benchmark, and ingest the AMFI NAV feed. Without flags both run.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !prices && !funds {
				prices, funds = true, true
			}
			rt, err := bootstrap(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			out := cmd.OutOrStdout()
			if prices {
				res, err := rt.svc.SyncPrices(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Prices: %d symbols synced", len(res.Symbols))
				if len(res.Missing) > 0 {
					fmt.Fprintf(out, ", no data for %s", strings.Join(res.Missing, ", "))
				}
				fmt.Fprintln(out)
			}
			if funds {
				res, err := rt.svc.SyncFunds(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Funds: %d schemes stored, %d rows skipped\n", res.Funds, res.Skipped)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&prices, "prices", false, "Sync price history only")
	cmd.Flags().BoolVar(&funds, "funds", false, "Sync the mutual fund feed only")
	return cmd
}

func newTable(w io.Writer, headers ...string) *tabwriter.Writer {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	return tw
}

func printPortfolio(w io.Writer, r *portfolio.Report) {
	tw := newTable(w, "ID", "SYMBOL", "QTY", "BUY", "LATEST", "INVESTED", "VALUE", "P&L", "P&L %", "CAGR 1Y", "VOL 1Y", "SHARPE")
	for _, row := range r.Rows {
		latest := fmt.Sprintf("%.2f", row.LatestPrice)
		if row.PriceUnavailable {
			latest = "n/a"
		}
		fmt.Fprintf(tw, "%d\t%s\t%g\t%.2f\t%s\t%.2f\t%.2f\t%+.2f\t%+.2f\t%s\t%s\t%s\n",
			row.ID, row.Symbol, row.Quantity, row.BuyPrice, latest,
			row.Invested, row.CurrentValue, row.PnL, row.PnLPct,
			pctOrDash(row.Metrics.CAGR), pctOrDash(row.Metrics.Volatility), numOrDash(row.Metrics.Sharpe))
	}
	tw.Flush()

	s := r.Summary
	fmt.Fprintf(w, "\nInvested: %.2f  Value: %.2f  Net P&L: %+.2f (%+.2f%%)\n", s.TotalInvested, s.TotalValue, s.NetPnL, s.ReturnPct)
	if s.BenchmarkReturnPct != nil {
		fmt.Fprintf(w, "Benchmark %s 1Y: %+.2f%%\n", s.BenchmarkSymbol, *s.BenchmarkReturnPct)
	}
	if s.UnpricedLots > 0 {
		fmt.Fprintf(os.Stderr, "warning: %d lot(s) valued at zero because the latest price is unavailable\n", s.UnpricedLots)
	}
}

func printPicks(w io.Writer, p model.Profile, picks []model.InstrumentCandidate) {
	if len(picks) == 0 {
		fmt.Fprintf(w, "No instrument matches horizon=%s risk=%s sectors=%s\n", p.Horizon, p.Risk, strings.Join(p.Sectors, ","))
		return
	}
	tw := newTable(w, "#", "SYMBOL", "NAME", "SECTOR", "SCORE", "CAGR %", "VOL %", "SHARPE")
	for i, c := range picks {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%.3f\t%s\t%s\t%s\n",
			i+1, c.Symbol, c.Name, c.Sector, c.Score, pctOrDash(c.CAGR), pctOrDash(c.Volatility), numOrDash(c.Sharpe))
	}
	tw.Flush()
}

func pctOrDash(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v*100)
}

func numOrDash(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}
