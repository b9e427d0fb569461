package strategy

import (
	"context"
	"errors"
	"sort"

	"golang.org/x/sync/errgroup"

	"PortfoLink/internal/calculator"
	"PortfoLink/internal/model"
)

// ErrEmptyUniverse means there was nothing to score.
var ErrEmptyUniverse = errors.New("empty universe")

// SeriesSource provides price history. ok is false when data is missing.
type SeriesSource interface {
	Series(ctx context.Context, symbol string, period model.Period) (model.PriceSeries, bool)
}

// Options tune a scoring run.
type Options struct {
	TopN           int          // 0 keeps every candidate
	Period         model.Period // empty derives the lookback from the profile horizon
	RiskFreeRate   float64
	MaxConcurrency int
}

// ScoreCandidates ranks the universe against the profile, best first.
// Candidates outside the sector filter, with any undefined metric, or failing
// the risk gate are dropped. Equal scores keep their universe order.
func ScoreCandidates(ctx context.Context, profile model.Profile, universe []model.Instrument, source SeriesSource, opts Options) ([]model.InstrumentCandidate, error) {
	if len(universe) == 0 {
		return nil, ErrEmptyUniverse
	}

	eligible := make([]model.Instrument, 0, len(universe))
	for _, in := range universe {
		if profile.AllowsSector(in.Sector) {
			eligible = append(eligible, in)
		}
	}

	period := opts.Period
	if period == "" {
		period = profile.Horizon.Period()
	}

	// Fetches are independent; results land at their universe index so the
	// stable sort below still sees enumeration order.
	computed := make([]model.Metrics, len(eligible))
	var g errgroup.Group
	g.SetLimit(max(1, opts.MaxConcurrency))
	for i, in := range eligible {
		g.Go(func() error {
			if series, ok := source.Series(ctx, in.Symbol, period); ok {
				computed[i] = calculator.Compute(series, opts.RiskFreeRate)
			}
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	candidates := make([]model.InstrumentCandidate, 0, len(eligible))
	for i, in := range eligible {
		m := computed[i]
		if !m.Complete() {
			continue
		}
		if !passesRiskGate(profile.Risk, m) {
			continue
		}
		candidates = append(candidates, model.InstrumentCandidate{
			Symbol:  in.Symbol,
			Name:    in.Name,
			Sector:  in.Sector,
			Score:   compositeScore(m),
			Metrics: m,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].Score > candidates[j].Score })
	if opts.TopN > 0 && len(candidates) > opts.TopN {
		candidates = candidates[:opts.TopN]
	}
	return candidates, nil
}
