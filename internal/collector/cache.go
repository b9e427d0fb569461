package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"PortfoLink/internal/model"
)

// PriceCache is the local price history store.
type PriceCache interface {
	LoadPrices(ctx context.Context, symbol string, since time.Time) (model.PriceSeries, error)
	SavePrices(ctx context.Context, series model.PriceSeries) error
}

const (
	// coverageSlack tolerates holidays at the start of a cached window.
	coverageSlack = 7 * 24 * time.Hour
	// weekendSlack tolerates the gap between Friday's close and Monday.
	weekendSlack = 3 * 24 * time.Hour
)

// CacheFetcher serves closes from the local cache and falls back to a remote
// fetcher, writing fresh remote data through to the cache.
type CacheFetcher struct {
	Cache  PriceCache
	Remote Fetcher // optional; nil means cache-only
	MaxAge time.Duration

	log zerolog.Logger
	now func() time.Time
}

// NewCacheFetcher creates a cache-first fetcher.
func NewCacheFetcher(cache PriceCache, remote Fetcher, maxAge time.Duration, log zerolog.Logger) *CacheFetcher {
	return &CacheFetcher{
		Cache:  cache,
		Remote: remote,
		MaxAge: maxAge,
		log:    log.With().Str("fetcher", "cache").Logger(),
		now:    time.Now,
	}
}

func (f *CacheFetcher) Name() string {
	if f.Remote == nil {
		return "cache"
	}
	return "cache+" + f.Remote.Name()
}

// FetchDailyCloses returns cached closes when they cover the period and are fresh.
func (f *CacheFetcher) FetchDailyCloses(ctx context.Context, symbol string, period model.Period) (model.PriceSeries, error) {
	now := f.now()
	since := model.Truncate(period.Since(now))

	cached, cacheErr := f.Cache.LoadPrices(ctx, symbol, since)
	if cacheErr != nil {
		f.log.Warn().Err(cacheErr).Str("symbol", symbol).Msg("cache read failed")
	}
	if cacheErr == nil && f.usable(cached, since, now) {
		return cached, nil
	}
	if f.Remote == nil {
		if cached.Len() > 0 {
			return cached, nil
		}
		return model.PriceSeries{}, fmt.Errorf("cache %s: %w", symbol, ErrNoData)
	}

	remote, err := f.Remote.FetchDailyCloses(ctx, symbol, period)
	if err != nil {
		if cached.Len() >= 2 {
			f.log.Warn().Err(err).Str("symbol", symbol).Msg("remote fetch failed, serving stale cache")
			return cached, nil
		}
		return model.PriceSeries{}, err
	}
	if err := f.Cache.SavePrices(ctx, remote); err != nil {
		f.log.Error().Err(err).Str("symbol", symbol).Msg("cache write failed")
	}
	return remote, nil
}

// FetchLatestPrice asks the remote first and falls back to the newest cached close.
func (f *CacheFetcher) FetchLatestPrice(ctx context.Context, symbol string) (float64, error) {
	var remoteErr error
	if f.Remote != nil {
		p, err := f.Remote.FetchLatestPrice(ctx, symbol)
		if err == nil {
			return p, nil
		}
		remoteErr = err
	}

	cached, err := f.Cache.LoadPrices(ctx, symbol, model.Truncate(f.now().Add(-f.MaxAge-coverageSlack)))
	if err != nil || cached.Len() == 0 {
		if remoteErr != nil {
			return 0, remoteErr
		}
		return 0, fmt.Errorf("cache %s: %w", symbol, ErrNoData)
	}
	if remoteErr != nil {
		f.log.Warn().Err(remoteErr).Str("symbol", symbol).Msg("latest price from cache")
	}
	return cached.Last().Price, nil
}

func (f *CacheFetcher) usable(s model.PriceSeries, since, now time.Time) bool {
	if s.Len() < 2 {
		return false
	}
	if s.First().Date.Sub(since) > coverageSlack {
		return false
	}
	return now.Sub(s.Last().Date) <= f.MaxAge+weekendSlack
}
