package main

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"PortfoLink/internal/notifier"
	"PortfoLink/internal/scheduler"
	"PortfoLink/internal/server"
)

func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, scheduled syncs and the Telegram bot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := bootstrap(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			ctx := cmd.Context()
			if addr == "" {
				addr = rt.cfg.Server.Addr
			}

			var sender scheduler.Sender
			var tn *notifier.TelegramNotifier
			if rt.cfg.TelegramEnabled() {
				tn = notifier.NewTelegramNotifier(rt.cfg.Telegram.BotToken, rt.cfg.Telegram.ChatID, rt.cfg.Proxy, rt.log)
				sender = tn
			} else {
				rt.log.Warn().Msg("telegram credentials missing; digest and bot disabled")
			}

			sched := scheduler.NewScheduler(ctx, rt.svc, sender, rt.cfg.DefaultProfile(), rt.reg, rt.log)
			s := rt.cfg.Schedule
			if err := sched.RegisterAll(s.PriceSyncCron, s.FundSyncCron, s.DigestCron); err != nil {
				return err
			}
			sched.Start()
			defer sched.Stop()

			if tn != nil {
				go tn.StartPolling(ctx, sched.HandleCommand)
			}

			if os.Getenv("RUN_ON_START") == "true" {
				rt.log.Info().Msg("RUN_ON_START enabled, sending digest now")
				go func() {
					if err := sched.RunDigestNow(); err != nil {
						rt.log.Error().Err(err).Msg("startup digest")
					}
				}()
			}

			srv := server.New(server.Config{Addr: addr, Log: rt.log, Service: rt.svc, Metrics: rt.reg})
			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start() }()
			rt.log.Info().Str("version", version).Msg("portfolink is running, press Ctrl+C to stop")

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			rt.log.Info().Msg("shutdown signal received, stopping")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	return cmd
}
