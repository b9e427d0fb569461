package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"PortfoLink/internal/app"
	"PortfoLink/internal/fund"
	"PortfoLink/internal/metrics"
	"PortfoLink/internal/model"
	"PortfoLink/internal/notifier"
	"PortfoLink/internal/portfolio"
	"PortfoLink/internal/strategy"
)

// Service is the subset of app.Service the jobs run against.
type Service interface {
	Portfolio(ctx context.Context) (*portfolio.Report, error)
	Recommend(ctx context.Context, profile model.Profile, topN int) ([]model.InstrumentCandidate, error)
	RecommendFunds(ctx context.Context, profile model.Profile, topN int) ([]model.FundCandidate, error)
	SyncPrices(ctx context.Context) (app.PriceSyncResult, error)
	SyncFunds(ctx context.Context) (fund.SyncResult, error)
}

// Sender delivers messages; see notifier.TelegramNotifier.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron    *cron.Cron
	Service Service
	Sender  Sender // optional
	Profile model.Profile
	Ctx     context.Context

	metrics *metrics.Registry
	log     zerolog.Logger
	now     func() time.Time
}

// NewScheduler creates a new Scheduler. sender and reg may be nil.
func NewScheduler(ctx context.Context, svc Service, sender Sender, profile model.Profile, reg *metrics.Registry, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		Cron:    cron.New(cron.WithSeconds()),
		Service: svc,
		Sender:  sender,
		Profile: profile,
		Ctx:     ctx,
		metrics: reg,
		log:     log.With().Str("component", "scheduler").Logger(),
		now:     time.Now,
	}
}

// RegisterAll registers the price sync, fund sync and digest jobs.
func (s *Scheduler) RegisterAll(priceCron, fundCron, digestCron string) error {
	if _, err := s.Cron.AddFunc(priceCron, s.job("price_sync", s.priceSync)); err != nil {
		return fmt.Errorf("register price sync: %w", err)
	}
	if _, err := s.Cron.AddFunc(fundCron, s.job("fund_sync", s.fundSync)); err != nil {
		return fmt.Errorf("register fund sync: %w", err)
	}
	if _, err := s.Cron.AddFunc(digestCron, s.job("digest", s.digest)); err != nil {
		return fmt.Errorf("register digest: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info().Int("jobs", len(s.Cron.Entries())).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.log.Info().Msg("scheduler stopped")
}

// RunDigestNow sends the digest immediately.
func (s *Scheduler) RunDigestNow() error {
	return s.digest(s.Ctx)
}

func (s *Scheduler) job(name string, fn func(ctx context.Context) error) func() {
	return func() {
		start := time.Now()
		s.log.Info().Str("job", name).Msg("running job")
		err := fn(s.Ctx)
		if s.metrics != nil {
			s.metrics.JobRuns.WithLabelValues(name, metrics.Result(err)).Inc()
		}
		if err != nil {
			s.log.Error().Err(err).Str("job", name).Msg("job failed")
			return
		}
		s.log.Info().Str("job", name).Dur("took", time.Since(start)).Msg("job done")
	}
}

func (s *Scheduler) priceSync(ctx context.Context) error {
	res, err := s.Service.SyncPrices(ctx)
	if err != nil {
		return err
	}
	if len(res.Missing) > 0 {
		s.trySend(fmt.Sprintf("⚠️ Price sync: no data for %s", strings.Join(res.Missing, ", ")))
	}
	return nil
}

func (s *Scheduler) fundSync(ctx context.Context) error {
	_, err := s.Service.SyncFunds(ctx)
	return err
}

func (s *Scheduler) digest(ctx context.Context) error {
	var parts []string

	summary, err := s.summary(ctx)
	if err != nil {
		return err
	}
	parts = append(parts, summary)

	picks, err := s.recommend(ctx, s.Profile)
	if err != nil {
		return err
	}
	parts = append(parts, picks)

	s.trySend(strings.Join(parts, "\n\n"))
	return nil
}

// HandleCommand processes a bot command and returns a reply.
//
//	/summary
//	/recommend [short|medium|long] [low|medium|high] [sector ...]
//	/funds [low|medium|high]
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return helpText
	}
	// "/summary@MyBot" in group chats
	name, _, _ := strings.Cut(fields[0], "@")
	args := fields[1:]

	switch name {
	case "/summary":
		out, err := s.summary(ctx)
		if err != nil {
			s.log.Error().Err(err).Msg("summary command")
			return "❌ Could not value the portfolio."
		}
		return out
	case "/recommend":
		p, err := s.profileFromArgs(args)
		if err != nil {
			return "❌ " + err.Error()
		}
		out, err := s.recommend(ctx, p)
		if err != nil {
			s.log.Error().Err(err).Msg("recommend command")
			return "❌ Could not score recommendations."
		}
		return out
	case "/funds":
		p := s.Profile
		if len(args) > 0 {
			r, err := model.ParseRisk(args[0])
			if err != nil {
				return "❌ " + err.Error()
			}
			p.Risk = r
		}
		funds, err := s.Service.RecommendFunds(ctx, p, 0)
		if err != nil {
			s.log.Error().Err(err).Msg("funds command")
			return "❌ Could not rank funds."
		}
		return notifier.FormatFunds(p, funds)
	default:
		return helpText
	}
}

const helpText = "Available commands:\n• /summary\n• /recommend [horizon] [risk] [sectors...]\n• /funds [risk]"

func (s *Scheduler) profileFromArgs(args []string) (model.Profile, error) {
	p := s.Profile
	if len(args) == 0 {
		return p, nil
	}
	h, err := model.ParseHorizon(args[0])
	if err != nil {
		return p, err
	}
	p.Horizon = h
	if len(args) > 1 {
		r, err := model.ParseRisk(args[1])
		if err != nil {
			return p, err
		}
		p.Risk = r
	}
	if len(args) > 2 {
		p.Sectors = args[2:]
	}
	return p, nil
}

func (s *Scheduler) summary(ctx context.Context) (string, error) {
	report, err := s.Service.Portfolio(ctx)
	if errors.Is(err, portfolio.ErrNoHoldings) {
		return notifier.NoHoldingsMessage, nil
	}
	if err != nil {
		return "", err
	}
	return notifier.FormatPortfolio(report, s.now()), nil
}

func (s *Scheduler) recommend(ctx context.Context, p model.Profile) (string, error) {
	picks, err := s.Service.Recommend(ctx, p, 0)
	if errors.Is(err, strategy.ErrEmptyUniverse) {
		return "📭 The instrument universe is empty. Run <code>portfolink sync</code> first.", nil
	}
	if err != nil {
		return "", err
	}
	return notifier.FormatRecommendations(p, picks), nil
}

func (s *Scheduler) trySend(text string) {
	if s.Sender == nil {
		s.log.Info().Str("message", text).Msg("no notifier configured; message not sent")
		return
	}
	if err := s.Sender.SendWithRetry(s.Ctx, text, 3); err != nil {
		s.log.Error().Err(err).Msg("send notification")
	}
}
