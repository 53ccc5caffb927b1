package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/restovibe/internal/allowlist"
	"github.com/example/restovibe/internal/auth"
	"github.com/example/restovibe/internal/booking"
	"github.com/example/restovibe/internal/config"
	"github.com/example/restovibe/internal/db"
	"github.com/example/restovibe/internal/gcal"
	"github.com/example/restovibe/internal/mail"
	"github.com/example/restovibe/internal/migrate"
	"github.com/example/restovibe/internal/remind"
	"github.com/example/restovibe/internal/reservations"
	"github.com/example/restovibe/internal/web"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServerCmd() *cobra.Command {
	var migrateUp bool

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Run the RestoVibe web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			log, err := newLogger(cfg.DevMode)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			d, err := db.Open(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer d.Close()

			if err := d.Ping(ctx); err != nil {
				return fmt.Errorf("db ping: %w", err)
			}

			if migrateUp {
				if err := migrate.Up(ctx, d); err != nil {
					return err
				}
			}

			hashKey, blockKey, err := cfg.CookieKeys()
			if err != nil {
				return err
			}

			rules, err := buildRules(cfg)
			if err != nil {
				return err
			}

			var syncer gcal.Syncer = gcal.Disabled{}
			if cfg.GoogleRefreshToken != "" && cfg.GoogleCalendarID != "" {
				c, err := gcal.New(ctx, cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRefreshToken, cfg.GoogleCalendarID, cfg.CalendarTimezone)
				if err != nil {
					return fmt.Errorf("calendar: %w", err)
				}
				syncer = c
				log.Info("calendar sync enabled", zap.String("calendar", cfg.GoogleCalendarID))
			} else {
				log.Info("calendar sync disabled")
			}

			repo := reservations.NewRepo(d)
			sender := mail.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.MailFrom)

			if cfg.ReminderInterval > 0 {
				rem := &remind.Reminder{
					Repo:     repo,
					Mail:     sender,
					Log:      log,
					Interval: cfg.ReminderInterval,
				}
				go func() { _ = rem.Run(ctx) }()
			}

			srv := &web.Server{
				Log:          log,
				Sessions:     auth.NewSessions(hashKey, blockKey),
				Tokens:       auth.NewTokens(cfg.AuthSecret),
				Google:       auth.NewGoogle(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.BaseURL),
				Allow:        allowlist.NewStore(d),
				Reservations: repo,
				Calendar:     syncer,
				Mail:         sender,
				Rules:        rules,
				BaseURL:      cfg.BaseURL,
				AdminEmail:   cfg.AdminEmail,
				RatePerMin:   cfg.RateLimitPerMin,
			}

			log.Info("starting server", zap.String("addr", cfg.ListenAddr), zap.String("base_url", cfg.BaseURL))
			return web.Start(ctx, cfg.ListenAddr, srv.Routes())
		},
	}

	cmd.Flags().BoolVar(&migrateUp, "migrate", true, "run database migrations on startup")

	cmd.Flags().Lookup("migrate").NoOptDefVal = "true"
	return cmd
}

func newLogger(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func buildRules(cfg config.Config) (booking.Rules, error) {
	rules := booking.DefaultRules()
	rules.WeekendReduced = cfg.WeekendReduced
	for _, s := range cfg.BlockedDateList() {
		d, err := booking.ParseDate(s)
		if err != nil {
			return booking.Rules{}, fmt.Errorf("BLOCKED_DATES: %w", err)
		}
		rules.Block(d)
	}
	return rules, nil
}
