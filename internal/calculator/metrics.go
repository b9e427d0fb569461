package calculator

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"PortfoLink/internal/model"
)

const (
	// TradingDaysPerYear annualizes daily figures.
	TradingDaysPerYear = 252
	// DaysPerYear converts elapsed calendar days to years for CAGR.
	DaysPerYear = 365.25
	// DefaultRiskFreeRate is the annual rate used when none is configured.
	DefaultRiskFreeRate = 0.05
)

// CAGR returns the compound annual growth rate between the first and last
// observation, or nil when the series spans no time or starts at a non-positive price.
func CAGR(series model.PriceSeries) *float64 {
	if series.Len() < 2 {
		return nil
	}
	first, last := series.First(), series.Last()
	days := int(last.Date.Sub(first.Date).Hours() / 24)
	years := float64(days) / DaysPerYear
	if first.Price <= 0 || years <= 0 {
		return nil
	}
	return finite(math.Pow(last.Price/first.Price, 1/years) - 1)
}

// DailyReturns converts closes to simple percentage changes p[i]/p[i-1] - 1.
// Returns nil if any divisor is non-positive.
func DailyReturns(series model.PriceSeries) []float64 {
	closes := series.Prices()
	if len(closes) < 2 {
		return nil
	}
	returns := make([]float64, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] <= 0 {
			return nil
		}
		returns[i-1] = closes[i]/closes[i-1] - 1
	}
	return returns
}

// AnnualizedVolatility is the population standard deviation of daily returns
// scaled by sqrt(252).
func AnnualizedVolatility(series model.PriceSeries) *float64 {
	returns := DailyReturns(series)
	if len(returns) < 1 {
		return nil
	}
	_, std := stat.PopMeanStdDev(returns, nil)
	return finite(std * math.Sqrt(TradingDaysPerYear))
}

// SharpeRatio computes (mean daily return * 252 - riskFreeRate) / annualized volatility.
// Undefined when volatility is zero or undefined.
func SharpeRatio(series model.PriceSeries, riskFreeRate float64) *float64 {
	vol := AnnualizedVolatility(series)
	if vol == nil || *vol == 0 {
		return nil
	}
	mean := stat.Mean(DailyReturns(series), nil)
	return finite((mean*TradingDaysPerYear - riskFreeRate) / *vol)
}

// Compute returns all three metrics for the series.
func Compute(series model.PriceSeries, riskFreeRate float64) model.Metrics {
	return model.Metrics{
		CAGR:       CAGR(series),
		Volatility: AnnualizedVolatility(series),
		Sharpe:     SharpeRatio(series, riskFreeRate),
	}
}

// PeriodReturn is the simple total return from the first to the last close.
func PeriodReturn(series model.PriceSeries) *float64 {
	if series.Len() < 2 || series.First().Price <= 0 {
		return nil
	}
	return finite(series.Last().Price/series.First().Price - 1)
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
