package collector

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"sync/atomic"
	"time"

	"PortfoLink/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Series map[string]model.PriceSeries
	Latest map[string]float64
	Errors map[string]error
	// Generate synthesizes a deterministic random walk for unknown symbols.
	Generate bool
	Now      time.Time

	calls atomic.Int64
}

func (m *MockFetcher) Name() string { return "mock" }

// Calls returns how many fetches were served.
func (m *MockFetcher) Calls() int { return int(m.calls.Load()) }

func (m *MockFetcher) FetchDailyCloses(_ context.Context, symbol string, period model.Period) (model.PriceSeries, error) {
	m.calls.Add(1)
	if err, ok := m.Errors[symbol]; ok {
		return model.PriceSeries{}, err
	}
	if s, ok := m.Series[symbol]; ok {
		return s, nil
	}
	if m.Generate {
		return generateMockSeries(symbol, period, m.now()), nil
	}
	return model.PriceSeries{}, fmt.Errorf("mock %s: %w", symbol, ErrNoData)
}

func (m *MockFetcher) FetchLatestPrice(_ context.Context, symbol string) (float64, error) {
	m.calls.Add(1)
	if err, ok := m.Errors[symbol]; ok {
		return 0, err
	}
	if p, ok := m.Latest[symbol]; ok {
		return p, nil
	}
	if s, ok := m.Series[symbol]; ok && s.Len() > 0 {
		return s.Last().Price, nil
	}
	if m.Generate {
		return generateMockSeries(symbol, model.Period1Month, m.now()).Last().Price, nil
	}
	return 0, fmt.Errorf("mock %s: %w", symbol, ErrNoData)
}

func (m *MockFetcher) now() time.Time {
	if m.Now.IsZero() {
		return model.Truncate(time.Now())
	}
	return m.Now
}

// generateMockSeries walks weekdays back from now with a drift and wobble
// derived from the symbol hash, so every run sees the same prices.
func generateMockSeries(symbol string, period model.Period, now time.Time) model.PriceSeries {
	h := fnv.New32a()
	h.Write([]byte(symbol))
	seed := h.Sum32()

	base := 100 + float64(seed%900)
	drift := (float64(seed%41) - 10) / 10000 // -0.10% .. +0.30% per day
	amp := 0.005 + float64(seed%7)/1000

	series := model.PriceSeries{Symbol: symbol, FetchedAt: now}
	start := model.Truncate(period.Since(now))
	price := base
	for i, d := 0, start; !d.After(now); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		price *= 1 + drift + amp*math.Sin(float64(i)*0.7+float64(seed%13))
		series.Points = append(series.Points, model.PricePoint{Date: d, Price: math.Round(price*100) / 100})
		i++
	}
	return series
}
