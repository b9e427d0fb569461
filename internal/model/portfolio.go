package model

// LotRow is the valuation of one lot.
type LotRow struct {
	Lot
	LatestPrice      float64 `json:"latest_price"`
	Invested         float64 `json:"invested"`
	CurrentValue     float64 `json:"current_value"`
	PnL              float64 `json:"pnl"`
	PnLPct           float64 `json:"pnl_pct"`
	PriceUnavailable bool    `json:"price_unavailable"`
	Metrics          Metrics `json:"metrics"`
}

// PortfolioSummary aggregates the lot rows.
type PortfolioSummary struct {
	TotalInvested      float64  `json:"total_invested"`
	TotalValue         float64  `json:"total_value"`
	NetPnL             float64  `json:"net_pnl"`
	ReturnPct          float64  `json:"return_pct"`
	BenchmarkSymbol    string   `json:"benchmark_symbol,omitempty"`
	BenchmarkReturnPct *float64 `json:"benchmark_return_pct"`
	UnpricedLots       int      `json:"unpriced_lots"`
}

// Allocation is the simulated cash split for one pick.
type Allocation struct {
	Symbol        string  `json:"symbol"`
	Amount        float64 `json:"amount"`
	CAGRPct       float64 `json:"cagr_pct"`
	VolatilityPct float64 `json:"volatility_pct"`
}

// Simulation is the expected outcome of an equal-weight allocation.
type Simulation struct {
	TotalCash       float64      `json:"total_cash"`
	ExpectedCAGRPct float64      `json:"expected_cagr_pct"`
	ExpectedVolPct  float64      `json:"expected_vol_pct"`
	Allocations     []Allocation `json:"allocations"`
}
