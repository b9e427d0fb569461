package calculator

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PortfoLink/internal/model"
)

var day0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func seriesOf(prices ...float64) model.PriceSeries {
	s := model.PriceSeries{Symbol: "TEST"}
	for i, p := range prices {
		s.Points = append(s.Points, model.PricePoint{Date: day0.AddDate(0, 0, i), Price: p})
	}
	return s
}

func TestMetrics_InsufficientHistory(t *testing.T) {
	for _, s := range []model.PriceSeries{seriesOf(), seriesOf(100)} {
		m := Compute(s, DefaultRiskFreeRate)
		assert.Nil(t, m.CAGR)
		assert.Nil(t, m.Volatility)
		assert.Nil(t, m.Sharpe)
		assert.False(t, m.Complete())
	}
}

func TestMetrics_ConstantSeries(t *testing.T) {
	s := seriesOf(50, 50, 50, 50, 50)
	// stretch the span so CAGR has elapsed time
	s.Points[len(s.Points)-1].Date = day0.AddDate(1, 0, 0)

	m := Compute(s, DefaultRiskFreeRate)
	require.NotNil(t, m.CAGR)
	require.NotNil(t, m.Volatility)
	assert.InDelta(t, 0, *m.CAGR, 1e-12)
	assert.InDelta(t, 0, *m.Volatility, 1e-12)
	assert.Nil(t, m.Sharpe, "zero volatility must leave Sharpe undefined")
}

func TestCAGR_DoublingOverOneYear(t *testing.T) {
	s := model.PriceSeries{Points: []model.PricePoint{
		{Date: day0, Price: 100},
		{Date: day0.AddDate(0, 0, 365), Price: 200},
	}}
	c := CAGR(s)
	require.NotNil(t, c)
	assert.InDelta(t, 1.0, *c, 0.01)
}

func TestCAGR_Undefined(t *testing.T) {
	tests := []struct {
		name   string
		series model.PriceSeries
	}{
		{"same day", model.PriceSeries{Points: []model.PricePoint{
			{Date: day0, Price: 100}, {Date: day0.Add(6 * time.Hour), Price: 110},
		}}},
		{"zero start", model.PriceSeries{Points: []model.PricePoint{
			{Date: day0, Price: 0}, {Date: day0.AddDate(1, 0, 0), Price: 110},
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, CAGR(tt.series))
		})
	}
}

func TestVolatilityAndSharpe_KnownReturns(t *testing.T) {
	// returns +10%, -10%: population std 0.1, mean 0
	s := seriesOf(100, 110, 99)

	vol := AnnualizedVolatility(s)
	require.NotNil(t, vol)
	assert.InDelta(t, 0.1*math.Sqrt(252), *vol, 1e-9)

	sharpe := SharpeRatio(s, 0.05)
	require.NotNil(t, sharpe)
	assert.InDelta(t, -0.05/(0.1*math.Sqrt(252)), *sharpe, 1e-9)
}

func TestVolatility_SingleReturnIsZero(t *testing.T) {
	vol := AnnualizedVolatility(seriesOf(100, 120))
	require.NotNil(t, vol)
	assert.Equal(t, 0.0, *vol)
	assert.Nil(t, SharpeRatio(seriesOf(100, 120), 0.05))
}

func TestDailyReturns_NonPositiveDivisor(t *testing.T) {
	assert.Nil(t, DailyReturns(seriesOf(100, 0, 50)))
	assert.Nil(t, AnnualizedVolatility(seriesOf(100, 0, 50)))
}

func TestMetrics_DoNotMutateInput(t *testing.T) {
	s := seriesOf(100, 101, 99, 104)
	before := append([]model.PricePoint(nil), s.Points...)
	_ = Compute(s, DefaultRiskFreeRate)
	assert.Equal(t, before, s.Points)
}

func TestMetrics_Deterministic(t *testing.T) {
	s := seriesOf(100, 103, 101, 107, 110)
	s.Points[len(s.Points)-1].Date = day0.AddDate(2, 0, 0)
	assert.Equal(t, Compute(s, 0.04), Compute(s, 0.04))
}

func TestPeriodReturn(t *testing.T) {
	r := PeriodReturn(seriesOf(200, 150, 220))
	require.NotNil(t, r)
	assert.InDelta(t, 0.1, *r, 1e-12)
	assert.Nil(t, PeriodReturn(seriesOf(10)))
}
