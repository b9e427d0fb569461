package model

import "time"

// Instrument is a stock in the recommendation universe.
type Instrument struct {
	Symbol string `json:"symbol" yaml:"symbol"`
	Name   string `json:"name" yaml:"name"`
	Sector string `json:"sector" yaml:"sector"`
}

// Fund is a mutual fund scheme.
type Fund struct {
	Code      string `json:"code"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	RiskLevel string `json:"risk_level"`
}

// Metrics holds the derived risk/return figures of a price series.
// A nil field means the metric is undefined for that series.
type Metrics struct {
	CAGR       *float64 `json:"cagr"`
	Volatility *float64 `json:"volatility"`
	Sharpe     *float64 `json:"sharpe"`
}

// Complete reports whether all three metrics are defined.
func (m Metrics) Complete() bool {
	return m.CAGR != nil && m.Volatility != nil && m.Sharpe != nil
}

// InstrumentCandidate is a scored stock recommendation.
type InstrumentCandidate struct {
	Symbol string  `json:"symbol"`
	Name   string  `json:"name"`
	Sector string  `json:"sector"`
	Score  float64 `json:"score"`
	Metrics
}

// FundCandidate is a scored mutual fund recommendation.
type FundCandidate struct {
	Code     string  `json:"code"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Score    float64 `json:"score"`
}

// NAVQuote is a single published NAV for a fund scheme.
type NAVQuote struct {
	Code string
	Date time.Time
	NAV  float64
}
