// Package app wires the stores, the fetch boundary and the scoring core into
// the request-level operations used by the CLI, HTTP API, scheduler and bot.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"PortfoLink/internal/fund"
	"PortfoLink/internal/metrics"
	"PortfoLink/internal/model"
	"PortfoLink/internal/portfolio"
	"PortfoLink/internal/simulator"
	"PortfoLink/internal/strategy"
)

// ErrNoCandidates means a simulation had no scored instrument to allocate to.
var ErrNoCandidates = errors.New("no candidates to allocate")

// Store is the persistence the service needs.
type Store interface {
	AddLot(ctx context.Context, lot model.Lot) (model.Lot, error)
	ListLots(ctx context.Context) ([]model.Lot, error)
	UpsertInstruments(ctx context.Context, instruments []model.Instrument) error
	ListUniverse(ctx context.Context, sectors []string) ([]model.Instrument, error)
	ListFunds(ctx context.Context) ([]model.Fund, error)
	SavePrices(ctx context.Context, series model.PriceSeries) error
}

// Prices is the fetch boundary; see collector.Collector.
type Prices interface {
	portfolio.PriceSource
}

// FundSyncer ingests the mutual fund feed.
type FundSyncer interface {
	Sync(ctx context.Context) (fund.SyncResult, error)
}

// Settings are the tunables taken from configuration.
type Settings struct {
	RiskFreeRate    float64
	BenchmarkSymbol string
	TopN            int
	MaxConcurrency  int
	Universe        []model.Instrument
	SyncPeriod      model.Period
}

// Service implements every user-facing operation. It holds no request state.
type Service struct {
	store    Store
	prices   Prices
	funds    FundSyncer
	metrics  *metrics.Registry
	settings Settings
	log      zerolog.Logger
	now      func() time.Time
}

// New creates a Service. funds and reg may be nil.
func New(store Store, prices Prices, funds FundSyncer, reg *metrics.Registry, settings Settings, log zerolog.Logger) *Service {
	if settings.TopN <= 0 {
		settings.TopN = 5
	}
	if settings.MaxConcurrency <= 0 {
		settings.MaxConcurrency = 4
	}
	if settings.SyncPeriod == "" {
		settings.SyncPeriod = model.Period5Years
	}
	return &Service{
		store:    store,
		prices:   prices,
		funds:    funds,
		metrics:  reg,
		settings: settings,
		log:      log.With().Str("component", "app").Logger(),
		now:      time.Now,
	}
}

// TopN is the default number of picks.
func (s *Service) TopN() int { return s.settings.TopN }

// AddLot validates and records a purchase. A nil buyDate means today.
func (s *Service) AddLot(ctx context.Context, symbol string, quantity, buyPrice float64, buyDate *time.Time) (model.Lot, error) {
	s.count("add_lot")
	lot, err := model.NewLot(symbol, quantity, buyPrice, buyDate, s.now())
	if err != nil {
		return model.Lot{}, err
	}
	saved, err := s.store.AddLot(ctx, lot)
	if err != nil {
		return model.Lot{}, err
	}
	s.log.Info().Int64("id", saved.ID).Str("symbol", saved.Symbol).Float64("qty", saved.Quantity).Msg("lot recorded")
	return saved, nil
}

// ListLots returns every recorded lot.
func (s *Service) ListLots(ctx context.Context) ([]model.Lot, error) {
	s.count("list_lots")
	return s.store.ListLots(ctx)
}

// Portfolio values the holdings. Returns portfolio.ErrNoHoldings when there
// are no lots.
func (s *Service) Portfolio(ctx context.Context) (*portfolio.Report, error) {
	s.count("portfolio")
	lots, err := s.store.ListLots(ctx)
	if err != nil {
		return nil, err
	}
	report, err := portfolio.Summarize(ctx, lots, s.prices, portfolio.Options{
		BenchmarkSymbol: s.settings.BenchmarkSymbol,
		RiskFreeRate:    s.settings.RiskFreeRate,
		WithMetrics:     true,
	})
	if err != nil {
		return nil, err
	}
	if n := report.Summary.UnpricedLots; n > 0 {
		s.log.Warn().Int("lots", n).Msg("portfolio valued with missing prices")
	}
	return report, nil
}

// Recommend scores the stored universe for the profile. topN <= 0 uses the
// configured default.
func (s *Service) Recommend(ctx context.Context, profile model.Profile, topN int) ([]model.InstrumentCandidate, error) {
	s.count("recommend")
	universe, err := s.store.ListUniverse(ctx, nil)
	if err != nil {
		return nil, err
	}
	picks, err := strategy.ScoreCandidates(ctx, profile, universe, s.prices, strategy.Options{
		TopN:           s.topN(topN),
		RiskFreeRate:   s.settings.RiskFreeRate,
		MaxConcurrency: s.settings.MaxConcurrency,
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().
		Str("horizon", string(profile.Horizon)).
		Str("risk", string(profile.Risk)).
		Strs("sectors", profile.Sectors).
		Int("universe", len(universe)).
		Int("picks", len(picks)).
		Msg("recommendations scored")
	return picks, nil
}

// RecommendFunds ranks the stored mutual funds for the profile.
func (s *Service) RecommendFunds(ctx context.Context, profile model.Profile, topN int) ([]model.FundCandidate, error) {
	s.count("recommend_funds")
	funds, err := s.store.ListFunds(ctx)
	if err != nil {
		return nil, err
	}
	return strategy.ScoreFunds(profile, funds, s.topN(topN)), nil
}

// Simulate splits cash equally across the profile's stock picks.
func (s *Service) Simulate(ctx context.Context, profile model.Profile, topN int, cash float64) (*model.Simulation, error) {
	if !(cash > 0) {
		return nil, fmt.Errorf("cash must be positive, got %v", cash)
	}
	picks, err := s.Recommend(ctx, profile, topN)
	if err != nil {
		return nil, err
	}
	s.count("simulate")
	sim, ok := simulator.Simulate(picks, cash)
	if !ok {
		return nil, ErrNoCandidates
	}
	return sim, nil
}

// SeedUniverse upserts the configured instrument list.
func (s *Service) SeedUniverse(ctx context.Context) error {
	if len(s.settings.Universe) == 0 {
		return nil
	}
	if err := s.store.UpsertInstruments(ctx, s.settings.Universe); err != nil {
		return fmt.Errorf("seed universe: %w", err)
	}
	s.log.Debug().Int("instruments", len(s.settings.Universe)).Msg("universe seeded")
	return nil
}

// PriceSyncResult summarises a price history sync.
type PriceSyncResult struct {
	Symbols []string `json:"symbols"`
	Missing []string `json:"missing"`
}

// SyncPrices refreshes price history for the universe, the held symbols and
// the benchmark. Missing symbols are reported, not fatal.
func (s *Service) SyncPrices(ctx context.Context) (PriceSyncResult, error) {
	s.count("sync_prices")
	var res PriceSyncResult

	universe, err := s.store.ListUniverse(ctx, nil)
	if err != nil {
		return res, err
	}
	lots, err := s.store.ListLots(ctx)
	if err != nil {
		return res, err
	}

	seen := make(map[string]bool)
	var symbols []string
	add := func(sym string) {
		if sym != "" && !seen[sym] {
			seen[sym] = true
			symbols = append(symbols, sym)
		}
	}
	for _, in := range universe {
		add(in.Symbol)
	}
	for _, l := range lots {
		add(l.Symbol)
	}
	add(s.settings.BenchmarkSymbol)

	for _, sym := range symbols {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		series, ok := s.prices.Series(ctx, sym, s.settings.SyncPeriod)
		if !ok {
			res.Missing = append(res.Missing, sym)
			continue
		}
		if err := s.store.SavePrices(ctx, series); err != nil {
			return res, fmt.Errorf("save prices %s: %w", sym, err)
		}
		res.Symbols = append(res.Symbols, sym)
	}
	s.log.Info().Int("synced", len(res.Symbols)).Strs("missing", res.Missing).Msg("price sync complete")
	return res, nil
}

// SyncFunds ingests the mutual fund feed.
func (s *Service) SyncFunds(ctx context.Context) (fund.SyncResult, error) {
	s.count("sync_funds")
	if s.funds == nil {
		return fund.SyncResult{}, errors.New("fund sync is not configured")
	}
	return s.funds.Sync(ctx)
}

func (s *Service) topN(n int) int {
	if n > 0 {
		return n
	}
	return s.settings.TopN
}

func (s *Service) count(op string) {
	if s.metrics != nil {
		s.metrics.Requests.WithLabelValues(op).Inc()
	}
}
