package strategy

import (
	"PortfoLink/internal/model"
)

// Composite score weights. Sharpe dominates so risk-adjusted return wins ties
// against raw growth.
const (
	SharpeWeight = 0.6
	CAGRWeight   = 0.4

	// LowRiskMaxVolatility is the annualized volatility ceiling for low-risk profiles.
	LowRiskMaxVolatility = 0.30
)

// compositeScore combines Sharpe and scaled CAGR. m must be complete.
func compositeScore(m model.Metrics) float64 {
	return SharpeWeight*(*m.Sharpe) + CAGRWeight*scaledCAGR(*m.CAGR)
}

// scaledCAGR expresses CAGR in percentage points divided by ten, which puts
// it on roughly the same scale as a Sharpe ratio.
func scaledCAGR(cagr float64) float64 {
	return cagr * 100 / 10
}

// passesRiskGate applies the profile's volatility ceiling. Only low-risk
// profiles are capped; medium and high accept any volatility.
func passesRiskGate(risk model.Risk, m model.Metrics) bool {
	switch risk {
	case model.RiskLow:
		return *m.Volatility <= LowRiskMaxVolatility
	default:
		return true
	}
}
