package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PortfoLink/internal/metrics"
	"PortfoLink/internal/model"
)

var d0 = time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)

func pts(symbol string, start time.Time, prices ...float64) model.PriceSeries {
	s := model.PriceSeries{Symbol: symbol}
	for i, p := range prices {
		s.Points = append(s.Points, model.PricePoint{Date: start.AddDate(0, 0, i), Price: p})
	}
	return s
}

func TestCollector_FailuresBecomeMissing(t *testing.T) {
	reg := metrics.New()
	mock := &MockFetcher{
		Series: map[string]model.PriceSeries{"OK": pts("OK", d0, 1, 2, 3)},
		Errors: map[string]error{"DOWN": errors.New("connection reset")},
		Latest: map[string]float64{"ZERO": 0},
	}
	c := NewCollector(mock, reg, zerolog.Nop())
	ctx := context.Background()

	s, ok := c.Series(ctx, "OK", model.Period1Year)
	require.True(t, ok)
	assert.Equal(t, 3, s.Len())

	_, ok = c.Series(ctx, "DOWN", model.Period1Year)
	assert.False(t, ok)
	_, ok = c.Series(ctx, "UNKNOWN", model.Period1Year)
	assert.False(t, ok)

	p, ok := c.LatestPrice(ctx, "OK")
	require.True(t, ok)
	assert.Equal(t, 3.0, p)
	_, ok = c.LatestPrice(ctx, "ZERO")
	assert.False(t, ok)
	_, ok = c.LatestPrice(ctx, "DOWN")
	assert.False(t, ok)

	assert.Equal(t, 4.0, testutil.ToFloat64(reg.MissingSeries))
	assert.Equal(t, 2.0, testutil.ToFloat64(reg.FetchTotal.WithLabelValues("mock", "series", "error")))
}

func TestMockFetcher_GenerateIsDeterministic(t *testing.T) {
	m := &MockFetcher{Generate: true, Now: d0}
	a, err := m.FetchDailyCloses(context.Background(), "TCS.NS", model.Period1Year)
	require.NoError(t, err)
	b, err := m.FetchDailyCloses(context.Background(), "TCS.NS", model.Period1Year)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Greater(t, a.Len(), 200)
	assert.Equal(t, 2, m.Calls())
}

const chartJSON = `{"chart":{"result":[{"meta":{"regularMarketPrice":%s},
"timestamp":[1740987000,1741073400,1741159800,1741246200],
"indicators":{"quote":[{"close":[100.5,null,102.25,101.0]}]}}],"error":null}}`

func TestYahooFetcher_DailyCloses(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotQuery = r.URL.Path, r.URL.RawQuery
		fmt.Fprintf(w, chartJSON, "0")
	}))
	defer srv.Close()

	f := NewYahooFetcher(YahooOptions{BaseURL: srv.URL, RatePerSec: 100}, zerolog.Nop())
	s, err := f.FetchDailyCloses(context.Background(), "NIFTY", model.Period1Year)
	require.NoError(t, err)

	assert.Equal(t, "/v8/finance/chart/^NSEI", gotPath)
	assert.Contains(t, gotQuery, "interval=1d")
	assert.Contains(t, gotQuery, "period1=")
	require.Equal(t, 3, s.Len(), "null close skipped")
	assert.Equal(t, 100.5, s.First().Price)
	assert.Equal(t, 101.0, s.Last().Price)
	assert.True(t, s.Points[0].Date.Before(s.Points[1].Date))
}

func TestYahooFetcher_LatestPrice(t *testing.T) {
	meta := "0"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, chartJSON, meta)
	}))
	defer srv.Close()
	f := NewYahooFetcher(YahooOptions{BaseURL: srv.URL, RatePerSec: 100}, zerolog.Nop())

	p, err := f.FetchLatestPrice(context.Background(), "TCS.NS")
	require.NoError(t, err)
	assert.Equal(t, 101.0, p, "falls back to last close")

	meta = "104.75"
	p, err = f.FetchLatestPrice(context.Background(), "TCS.NS")
	require.NoError(t, err)
	assert.Equal(t, 104.75, p)
}

func TestYahooFetcher_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		noData bool
	}{
		{"not found", http.StatusNotFound, `{}`, true},
		{"api error", http.StatusOK, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`, true},
		{"server error", http.StatusBadGateway, `oops`, false},
		{"bad json", http.StatusOK, `{`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			f := NewYahooFetcher(YahooOptions{BaseURL: srv.URL, RatePerSec: 100}, zerolog.Nop())
			_, err := f.FetchDailyCloses(context.Background(), "X", model.Period1Month)
			require.Error(t, err)
			assert.Equal(t, tt.noData, errors.Is(err, ErrNoData))
		})
	}
}

func TestYahooFetcher_BreakerOpens(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f := NewYahooFetcher(YahooOptions{BaseURL: srv.URL, RatePerSec: 1000}, zerolog.Nop())
	for i := 0; i < 8; i++ {
		_, err := f.FetchLatestPrice(context.Background(), "X")
		require.Error(t, err)
	}
	assert.Equal(t, 5, hits, "breaker stops calls after five consecutive failures")
}

type memCache struct {
	mu     sync.Mutex
	data   map[string]model.PriceSeries
	saves  int
	failOn string
}

func (m *memCache) LoadPrices(_ context.Context, symbol string, since time.Time) (model.PriceSeries, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if symbol == m.failOn {
		return model.PriceSeries{}, errors.New("disk on fire")
	}
	out := model.PriceSeries{Symbol: symbol}
	for _, p := range m.data[symbol].Points {
		if !p.Date.Before(since) {
			out.Points = append(out.Points, p)
		}
	}
	return out, nil
}

func (m *memCache) SavePrices(_ context.Context, s model.PriceSeries) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	m.data[s.Symbol] = s
	return nil
}

func dailyFrom(symbol string, start, end time.Time) model.PriceSeries {
	s := model.PriceSeries{Symbol: symbol}
	for d, i := start, 0; !d.After(end); d, i = d.AddDate(0, 0, 1), i+1 {
		s.Points = append(s.Points, model.PricePoint{Date: d, Price: 100 + float64(i)})
	}
	return s
}

func TestCacheFetcher(t *testing.T) {
	now := d0
	ctx := context.Background()
	fresh := dailyFrom("HIT", now.AddDate(0, -1, -1), now)
	stale := dailyFrom("STALE", now.AddDate(0, -1, -1), now.AddDate(0, 0, -20))

	newFetcher := func(remote Fetcher) (*CacheFetcher, *memCache) {
		cache := &memCache{data: map[string]model.PriceSeries{"HIT": fresh, "STALE": stale}}
		f := NewCacheFetcher(cache, remote, 24*time.Hour, zerolog.Nop())
		f.now = func() time.Time { return now }
		return f, cache
	}

	t.Run("fresh cache hit skips remote", func(t *testing.T) {
		remote := &MockFetcher{}
		f, _ := newFetcher(remote)
		s, err := f.FetchDailyCloses(ctx, "HIT", model.Period1Month)
		require.NoError(t, err)
		assert.Greater(t, s.Len(), 20)
		assert.Equal(t, 0, remote.Calls())
	})

	t.Run("stale cache refreshes and writes through", func(t *testing.T) {
		remote := &MockFetcher{Series: map[string]model.PriceSeries{"STALE": dailyFrom("STALE", now.AddDate(0, -1, 0), now)}}
		f, cache := newFetcher(remote)
		s, err := f.FetchDailyCloses(ctx, "STALE", model.Period1Month)
		require.NoError(t, err)
		assert.Equal(t, now, s.Last().Date)
		assert.Equal(t, 1, cache.saves)
	})

	t.Run("remote failure serves stale cache", func(t *testing.T) {
		remote := &MockFetcher{Errors: map[string]error{"STALE": errors.New("timeout")}}
		f, _ := newFetcher(remote)
		s, err := f.FetchDailyCloses(ctx, "STALE", model.Period1Month)
		require.NoError(t, err)
		assert.Equal(t, stale.Last().Date, s.Last().Date)
	})

	t.Run("cache only miss", func(t *testing.T) {
		f, _ := newFetcher(nil)
		_, err := f.FetchDailyCloses(ctx, "NOPE", model.Period1Month)
		assert.ErrorIs(t, err, ErrNoData)
		assert.Equal(t, "cache", f.Name())
	})

	t.Run("short cached window is a miss", func(t *testing.T) {
		remote := &MockFetcher{Series: map[string]model.PriceSeries{"HIT": dailyFrom("HIT", now.AddDate(-1, 0, 0), now)}}
		f, cache := newFetcher(remote)
		_, err := f.FetchDailyCloses(ctx, "HIT", model.Period1Year)
		require.NoError(t, err)
		assert.Equal(t, 1, remote.Calls())
		assert.Equal(t, 1, cache.saves)
	})

	t.Run("latest price falls back to cache", func(t *testing.T) {
		remote := &MockFetcher{Errors: map[string]error{"HIT": errors.New("timeout")}}
		f, _ := newFetcher(remote)
		p, err := f.FetchLatestPrice(ctx, "HIT")
		require.NoError(t, err)
		assert.Equal(t, fresh.Last().Price, p)

		_, err = f.FetchLatestPrice(ctx, "STALE")
		require.Error(t, err, "cached close older than max age is not a latest price")
		assert.True(t, strings.Contains(err.Error(), "timeout"))
	})
}
