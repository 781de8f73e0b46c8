package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/soyeahso/guildboard/internal/config"
	"github.com/soyeahso/guildboard/internal/discord"
	"github.com/soyeahso/guildboard/internal/gateway"
	"github.com/soyeahso/guildboard/internal/hooks"
	"github.com/soyeahso/guildboard/internal/logging"
	"github.com/soyeahso/guildboard/internal/service"
	"github.com/soyeahso/guildboard/internal/store"
	"github.com/spf13/cobra"
)

// loadConfig reads the config file and applies the --log-level override.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(paths.Config)
	if err != nil {
		return cfg, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	return cfg, nil
}

// validateConfig logs every config issue and fails if there are any.
func validateConfig(cfg *config.Config) error {
	issues := config.Validate(cfg)
	if len(issues) > 0 {
		for _, issue := range issues {
			log.Error().Str("path", issue.Path).Msg(issue.Message)
		}
		return fmt.Errorf("config validation failed with %d issue(s)", len(issues))
	}
	return nil
}

// auditHooks records gateway lifecycle and failed logins on the audit logger.
func auditHooks(l *logging.Logger) *hooks.Manager {
	m := hooks.NewManager(l)
	audit := l.Sub("audit")
	for _, event := range hooks.AllEvents {
		m.On(event, "audit-log", func(_ context.Context, p hooks.Payload) error {
			ev := audit.Info()
			if p.Event == hooks.EventAuthFailed {
				ev = audit.Warn()
			}
			ev.Str("event", p.Event).Fields(p.Data).Msg("gateway event")
			return nil
		})
	}
	return m
}

func newServeCmd() *cobra.Command {
	var (
		port int
		bind string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP and WebSocket API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if port != 0 {
				cfg.Gateway.Port = port
			}
			if bind != "" {
				cfg.Gateway.Bind = bind
			}
			if err := validateConfig(&cfg); err != nil {
				return err
			}

			runLog, closeLog, err := logging.FromConfig(cfg.Logging)
			if err != nil {
				return err
			}
			defer closeLog()

			if err := paths.EnsureDirs(); err != nil {
				return fmt.Errorf("creating data directories: %w", err)
			}

			dbPath := paths.DBPath(cfg.Store)
			db, err := store.Open(dbPath, runLog)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer db.Close()
			runLog.Info().Str("path", dbPath).Msg("access store ready")

			if cfg.Discord.BotToken == "" {
				runLog.Warn().Msg("no bot token configured; guild operations will fail until one is set")
			}

			sessions := discord.NewSessionProvider(cfg.Discord, runLog)
			defer sessions.Close()

			svc := service.New(
				discord.NewAccounts(cfg.OAuth, store.NewAccessStore(db), runLog),
				discord.NewFetcher(sessions, cfg.Discord, cfg.Shuffle.Seed, runLog),
				runLog,
			)

			srv := gateway.New(cfg, svc, runLog,
				gateway.WithDiscordState(sessions.State),
				gateway.WithHooks(auditHooks(runLog)),
			)

			// Block until SIGINT/SIGTERM
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return srv.Start(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "override gateway port")
	cmd.Flags().StringVar(&bind, "bind", "", "override bind mode (auto, lan, loopback, custom)")

	return cmd
}
