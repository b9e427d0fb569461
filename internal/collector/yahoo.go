package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"PortfoLink/internal/model"
)

// DefaultYahooBaseURL is the public Yahoo Finance chart endpoint.
const DefaultYahooBaseURL = "https://query1.finance.yahoo.com"

// ErrNoData is returned when the data source has no observations for a symbol.
var ErrNoData = errors.New("no data returned")

// YahooFetcher implements Fetcher using the Yahoo Finance chart API.
type YahooFetcher struct {
	BaseURL   string
	Client    *http.Client
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker

	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	log     zerolog.Logger
	now     func() time.Time
}

// YahooOptions configures a YahooFetcher.
type YahooOptions struct {
	BaseURL    string
	ProxyURL   string
	Timeout    time.Duration
	RatePerSec float64
}

// NewYahooFetcher creates a new Yahoo Finance fetcher with optional proxy support.
func NewYahooFetcher(opts YahooOptions, log zerolog.Logger) *YahooFetcher {
	transport := &http.Transport{}
	if opts.ProxyURL != "" {
		if u, err := url.Parse(opts.ProxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultYahooBaseURL
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RatePerSec <= 0 {
		opts.RatePerSec = 2
	}

	f := &YahooFetcher{
		BaseURL: opts.BaseURL,
		Client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		SymbolMap: map[string]string{
			"NIFTY":   "^NSEI",
			"NIFTY50": "^NSEI",
			"SENSEX":  "^BSESN",
		},
		limiter: rate.NewLimiter(rate.Limit(opts.RatePerSec), 1),
		log:     log.With().Str("fetcher", "yahoo").Logger(),
		now:     time.Now,
	}

	f.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:     "yahoo",
		Interval: 60 * time.Second,
		Timeout:  60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			// a symbol without data is not an outage
			return err == nil || errors.Is(err, ErrNoData)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			f.log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
		},
	})
	return f
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (f *YahooFetcher) fetchChart(ctx context.Context, symbol string, query url.Values) (*yahooChart, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("yahoo rate limit: %w", err)
	}

	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s", f.BaseURL, url.PathEscape(f.yahooSymbol(symbol)), query.Encode())
	res, err := f.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", "Mozilla/5.0")

		resp, err := f.Client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("yahoo fetch: %w", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("yahoo read body: %w", err)
		}
		if resp.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("yahoo %s: %w", symbol, ErrNoData)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, string(body))
		}

		var chart yahooChart
		if err := json.Unmarshal(body, &chart); err != nil {
			return nil, fmt.Errorf("yahoo decode: %w", err)
		}
		if chart.Chart.Error != nil {
			return nil, fmt.Errorf("yahoo api error %s: %s: %w", chart.Chart.Error.Code, chart.Chart.Error.Description, ErrNoData)
		}
		if len(chart.Chart.Result) == 0 {
			return nil, fmt.Errorf("yahoo %s: %w", symbol, ErrNoData)
		}
		return &chart, nil
	})
	if err != nil {
		return nil, err
	}
	return res.(*yahooChart), nil
}

func (f *YahooFetcher) chartSeries(symbol string, chart *yahooChart) model.PriceSeries {
	result := chart.Chart.Result[0]
	series := model.PriceSeries{Symbol: symbol, FetchedAt: f.now()}
	if len(result.Indicators.Quote) == 0 {
		return series
	}
	closes := result.Indicators.Quote[0].Close
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue // null bars (holidays etc.)
		}
		series.Points = append(series.Points, model.PricePoint{
			Date:  time.Unix(ts, 0).UTC(),
			Price: *closes[i],
		})
	}
	return series.Clean()
}

// FetchDailyCloses returns daily closes covering the requested period.
func (f *YahooFetcher) FetchDailyCloses(ctx context.Context, symbol string, period model.Period) (model.PriceSeries, error) {
	now := f.now()
	q := url.Values{}
	q.Set("interval", "1d")
	q.Set("period1", fmt.Sprint(period.Since(now).Unix()))
	q.Set("period2", fmt.Sprint(now.Unix()))

	chart, err := f.fetchChart(ctx, symbol, q)
	if err != nil {
		return model.PriceSeries{}, err
	}
	series := f.chartSeries(symbol, chart)
	if series.Len() == 0 {
		return model.PriceSeries{}, fmt.Errorf("yahoo %s: %w", symbol, ErrNoData)
	}
	return series, nil
}

// FetchLatestPrice returns the most recent close, preferring the live market price.
func (f *YahooFetcher) FetchLatestPrice(ctx context.Context, symbol string) (float64, error) {
	q := url.Values{}
	q.Set("interval", "1d")
	q.Set("range", "5d")

	chart, err := f.fetchChart(ctx, symbol, q)
	if err != nil {
		return 0, err
	}
	if p := chart.Chart.Result[0].Meta.RegularMarketPrice; p > 0 {
		return p, nil
	}
	series := f.chartSeries(symbol, chart)
	if series.Len() == 0 {
		return 0, fmt.Errorf("yahoo %s: no price data: %w", symbol, ErrNoData)
	}
	return series.Last().Price, nil
}
