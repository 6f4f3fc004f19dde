package main

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"PriceLab/internal/config"
	"PriceLab/internal/notifier"
	"PriceLab/internal/scheduler"
	"PriceLab/internal/server"
)

func watchCmd(a *app) *cobra.Command {
	var (
		q          query
		runOnStart bool
		reload     bool
	)
	cmd := &cobra.Command{
		Use:   "watch [TICK...]",
		Short: "Refit the regime model on a schedule and notify when the regime changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := a.cfg
			if len(args) > 0 {
				cfg.Watch.Symbols = upperAll(args)
			}
			if err := cfg.ValidateWatch(); err != nil {
				return err
			}
			opts, err := a.regimeOptions(q)
			if err != nil {
				return err
			}

			tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
			sched := scheduler.NewScheduler(ctx, a.fetcher, tn, a.recorder, a.metrics)
			sched.Configure(cfg.Watch.Symbols, opts, cfg.Output.Dir)
			if err := sched.RegisterWatch(cfg.Watch.Cron); err != nil {
				return err
			}
			sched.Start()
			defer sched.Stop()

			if tn.Enabled() {
				go tn.StartPolling(ctx, sched.HandleCommand)
				log.Info().Msg("telegram polling started")
			}

			if cfg.MetricsAddr != "" {
				srv := server.New(cfg.MetricsAddr, sched, a.registry)
				go func() {
					if err := srv.Start(); err != nil {
						log.Error().Err(err).Msg("status server failed")
					}
				}()
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					srv.Shutdown(shutdownCtx)
				}()
			}

			if reload && len(args) == 0 {
				if _, err := os.Stat(a.configPath); err == nil {
					w := &config.Watcher{Path: a.configPath, Cooldown: time.Second}
					go func() {
						err := w.Start(ctx, func(next *config.Config) {
							if err := next.ValidateWatch(); err != nil {
								log.Warn().Err(err).Msg("reloaded watchlist ignored")
								return
							}
							sched.Configure(next.Watch.Symbols, opts, next.Output.Dir)
						})
						if err != nil {
							log.Warn().Err(err).Msg("config watcher stopped")
						}
					}()
				}
			}

			if runOnStart {
				go sched.RunNow()
			}

			log.Info().Strs("symbols", cfg.Watch.Symbols).Str("cron", cfg.Watch.Cron).
				Msg("watching. Press Ctrl+C to stop.")
			<-ctx.Done()
			log.Info().Msg("shutdown signal received, stopping...")
			return nil
		},
	}
	a.addQueryFlags(cmd, &q)
	cmd.Flags().BoolVar(&runOnStart, "run-now", os.Getenv("RUN_ON_START") == "true", "run once immediately")
	cmd.Flags().BoolVar(&reload, "reload", true, "reload the watchlist when the config file changes")
	return cmd
}
