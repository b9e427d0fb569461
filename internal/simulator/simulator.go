// Package simulator estimates the outcome of splitting cash equally across
// recommended instruments.
package simulator

import (
	"math"

	"PortfoLink/internal/model"
)

// Simulate allocates totalCash equally across the candidates that have both
// CAGR and volatility defined. Returns are treated as independent, so the
// expected volatility ignores covariance. ok is false when no candidate
// qualifies.
func Simulate(candidates []model.InstrumentCandidate, totalCash float64) (*model.Simulation, bool) {
	usable := make([]model.InstrumentCandidate, 0, len(candidates))
	for _, c := range candidates {
		if c.CAGR != nil && c.Volatility != nil {
			usable = append(usable, c)
		}
	}
	if len(usable) == 0 {
		return nil, false
	}

	n := float64(len(usable))
	w := 1 / n
	sim := &model.Simulation{
		TotalCash:   totalCash,
		Allocations: make([]model.Allocation, 0, len(usable)),
	}
	var cagr, variance float64
	for _, c := range usable {
		cagr += w * *c.CAGR
		variance += w * w * *c.Volatility * *c.Volatility
		sim.Allocations = append(sim.Allocations, model.Allocation{
			Symbol:        c.Symbol,
			Amount:        totalCash / n,
			CAGRPct:       *c.CAGR * 100,
			VolatilityPct: *c.Volatility * 100,
		})
	}
	sim.ExpectedCAGRPct = cagr * 100
	sim.ExpectedVolPct = math.Sqrt(variance) * 100
	return sim, true
}
