package collector

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"PortfoLink/internal/metrics"
	"PortfoLink/internal/model"
)

// Collector is the fetch boundary: data source errors become "missing data"
// for that symbol and are logged, never propagated.
type Collector struct {
	Fetcher Fetcher

	metrics *metrics.Registry
	log     zerolog.Logger
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, reg *metrics.Registry, log zerolog.Logger) *Collector {
	return &Collector{
		Fetcher: fetcher,
		metrics: reg,
		log:     log.With().Str("component", "collector").Str("source", fetcher.Name()).Logger(),
	}
}

// Series fetches daily closes for the period. ok is false when the fetch
// failed or returned no observations.
func (c *Collector) Series(ctx context.Context, symbol string, period model.Period) (model.PriceSeries, bool) {
	start := time.Now()
	series, err := c.Fetcher.FetchDailyCloses(ctx, symbol, period)
	c.observe("series", start, err)
	if err != nil {
		c.log.Warn().Err(err).Str("symbol", symbol).Str("period", string(period)).Msg("price history unavailable")
		c.missing()
		return model.PriceSeries{}, false
	}
	series = series.Clean()
	if series.Len() == 0 {
		c.log.Warn().Str("symbol", symbol).Msg("price history empty")
		c.missing()
		return model.PriceSeries{}, false
	}
	return series, true
}

// LatestPrice fetches the most recent price. ok is false on any failure or a
// non-positive price.
func (c *Collector) LatestPrice(ctx context.Context, symbol string) (float64, bool) {
	start := time.Now()
	price, err := c.Fetcher.FetchLatestPrice(ctx, symbol)
	c.observe("latest", start, err)
	if err != nil {
		c.log.Warn().Err(err).Str("symbol", symbol).Msg("latest price unavailable")
		c.missing()
		return 0, false
	}
	if price <= 0 {
		c.log.Warn().Str("symbol", symbol).Float64("price", price).Msg("non-positive latest price")
		c.missing()
		return 0, false
	}
	return price, true
}

func (c *Collector) observe(kind string, start time.Time, err error) {
	if c.metrics == nil {
		return
	}
	source := c.Fetcher.Name()
	c.metrics.FetchTotal.WithLabelValues(source, kind, metrics.Result(err)).Inc()
	c.metrics.FetchDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())
}

func (c *Collector) missing() {
	if c.metrics != nil {
		c.metrics.MissingSeries.Inc()
	}
}
