package collector

import (
	"context"

	"PortfoLink/internal/model"
)

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	FetchDailyCloses(ctx context.Context, symbol string, period model.Period) (model.PriceSeries, error)
	FetchLatestPrice(ctx context.Context, symbol string) (float64, error)
	Name() string
}
