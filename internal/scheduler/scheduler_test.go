package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PortfoLink/internal/app"
	"PortfoLink/internal/fund"
	"PortfoLink/internal/metrics"
	"PortfoLink/internal/model"
	"PortfoLink/internal/portfolio"
	"PortfoLink/internal/strategy"
)

type fakeService struct {
	report       *portfolio.Report
	portfolioErr error
	picks        []model.InstrumentCandidate
	recommendErr error
	funds        []model.FundCandidate
	sync         app.PriceSyncResult
	fundErr      error

	profiles []model.Profile
}

func (f *fakeService) Portfolio(context.Context) (*portfolio.Report, error) {
	return f.report, f.portfolioErr
}

func (f *fakeService) Recommend(_ context.Context, p model.Profile, _ int) ([]model.InstrumentCandidate, error) {
	f.profiles = append(f.profiles, p)
	return f.picks, f.recommendErr
}

func (f *fakeService) RecommendFunds(_ context.Context, p model.Profile, _ int) ([]model.FundCandidate, error) {
	f.profiles = append(f.profiles, p)
	return f.funds, nil
}

func (f *fakeService) SyncPrices(context.Context) (app.PriceSyncResult, error) { return f.sync, nil }

func (f *fakeService) SyncFunds(context.Context) (fund.SyncResult, error) {
	return fund.SyncResult{}, f.fundErr
}

type fakeSender struct{ sent []string }

func (f *fakeSender) SendWithRetry(_ context.Context, text string, _ int) error {
	f.sent = append(f.sent, text)
	return nil
}

var defaultProfile = model.Profile{Horizon: model.HorizonMedium, Risk: model.RiskMedium}

func newTestScheduler(svc *fakeService) (*Scheduler, *fakeSender, *metrics.Registry) {
	sender := &fakeSender{}
	reg := metrics.New()
	return NewScheduler(context.Background(), svc, sender, defaultProfile, reg, zerolog.Nop()), sender, reg
}

func TestRegisterAll(t *testing.T) {
	s, _, _ := newTestScheduler(&fakeService{})
	require.NoError(t, s.RegisterAll("0 30 18 * * 1-5", "0 0 23 * * 1-5", "0 0 19 * * 1-5"))
	assert.Len(t, s.Cron.Entries(), 3)

	s, _, _ = newTestScheduler(&fakeService{})
	assert.Error(t, s.RegisterAll("not a cron", "0 0 23 * * 1-5", "0 0 19 * * 1-5"))
}

func TestDigest_NoHoldings(t *testing.T) {
	svc := &fakeService{portfolioErr: portfolio.ErrNoHoldings, recommendErr: strategy.ErrEmptyUniverse}
	s, sender, _ := newTestScheduler(svc)

	require.NoError(t, s.RunDigestNow())
	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0], "No holdings yet")
	assert.Contains(t, sender.sent[0], "universe is empty")
}

func TestJobs_RecordMetrics(t *testing.T) {
	svc := &fakeService{
		sync:    app.PriceSyncResult{Symbols: []string{"TCS.NS"}, Missing: []string{"GONE.NS"}},
		fundErr: errors.New("feed down"),
	}
	s, sender, reg := newTestScheduler(svc)

	s.job("price_sync", s.priceSync)()
	s.job("fund_sync", s.fundSync)()

	assert.Equal(t, 1.0, testutil.ToFloat64(reg.JobRuns.WithLabelValues("price_sync", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.JobRuns.WithLabelValues("fund_sync", "error")))
	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0], "GONE.NS")
}

func TestHandleCommand(t *testing.T) {
	svc := &fakeService{
		report: &portfolio.Report{Summary: model.PortfolioSummary{TotalInvested: 100, TotalValue: 110, NetPnL: 10, ReturnPct: 10}},
		funds:  []model.FundCandidate{{Code: "1", Name: "Liquid Fund"}},
	}
	s, _, _ := newTestScheduler(svc)
	ctx := context.Background()

	assert.Contains(t, s.HandleCommand(ctx, "/summary"), "Invested: ₹100")
	assert.Contains(t, s.HandleCommand(ctx, "/summary@PortfoLinkBot"), "Portfolio")
	assert.Contains(t, s.HandleCommand(ctx, "/help"), "Available commands")
	assert.Contains(t, s.HandleCommand(ctx, ""), "Available commands")

	assert.Contains(t, s.HandleCommand(ctx, "/recommend long low Banking Pharma"), "No instrument matches")
	assert.Equal(t, model.Profile{Horizon: model.HorizonLong, Risk: model.RiskLow, Sectors: []string{"Banking", "Pharma"}}, svc.profiles[0])

	assert.Contains(t, s.HandleCommand(ctx, "/recommend forever"), "unknown horizon")

	assert.Contains(t, s.HandleCommand(ctx, "/funds high"), "Liquid Fund")
	assert.Equal(t, model.RiskHigh, svc.profiles[1].Risk)
	assert.Contains(t, s.HandleCommand(ctx, "/funds maybe"), "unknown risk")

	svc.portfolioErr = errors.New("db locked")
	assert.Contains(t, s.HandleCommand(ctx, "/summary"), "Could not value")
}
