package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	slacklib "github.com/slack-go/slack"

	"github.com/wardenhq/warden/internal/aggregate"
	"github.com/wardenhq/warden/internal/alert"
	"github.com/wardenhq/warden/internal/api/ws"
	"github.com/wardenhq/warden/internal/atmosphere"
	"github.com/wardenhq/warden/internal/auth"
	"github.com/wardenhq/warden/internal/command"
	"github.com/wardenhq/warden/internal/config"
	"github.com/wardenhq/warden/internal/domain"
	"github.com/wardenhq/warden/internal/evasion"
	"github.com/wardenhq/warden/internal/intake"
	"github.com/wardenhq/warden/internal/messenger/discord"
	"github.com/wardenhq/warden/internal/messenger/slack"
	"github.com/wardenhq/warden/internal/metrics"
	"github.com/wardenhq/warden/internal/moderation"
	platformdiscord "github.com/wardenhq/warden/internal/platform/discord"
	"github.com/wardenhq/warden/internal/server"
	"github.com/wardenhq/warden/internal/store/memory"
	"github.com/wardenhq/warden/internal/store/postgres"
	redisstore "github.com/wardenhq/warden/internal/store/redis"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
}

func run() error {
	// Initialize structured logging from environment.
	logLevel := os.Getenv("WARDEN_LOG_LEVEL")
	level, parseErr := zerolog.ParseLevel(logLevel)
	if parseErr != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	logFormat := os.Getenv("WARDEN_LOG_FORMAT")
	if logFormat == "text" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}

	ctx := context.Background()

	// Load configuration from environment.
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Select the storage driver.
	var (
		members domain.MemberRepository
		events  domain.EventRepository
	)
	switch cfg.Storage.Driver {
	case "postgres":
		if cfg.Database.MaxConns < 0 || cfg.Database.MaxConns > math.MaxInt32 {
			return fmt.Errorf("database max_conns %d out of int32 range", cfg.Database.MaxConns)
		}

		store, pgErr := postgres.New(ctx, cfg.Database.DSN(), int32(cfg.Database.MaxConns)) //nolint:gosec // bounds checked above
		if pgErr != nil {
			return pgErr
		}
		defer store.Close()

		if migrateErr := store.Migrate(ctx); migrateErr != nil {
			return migrateErr
		}

		members, events = store.Members(), store.Events()
	default:
		mem := memory.New()
		members, events = mem.Members(), mem.Events()
	}

	// Connect to Redis for the live feed.
	pubsub, err := redisstore.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return err
	}
	defer pubsub.Close()
	hub := ws.NewHub(pubsub)

	// Platform side-effect API and staff alert sinks.
	rest := platformdiscord.NewRestClient(cfg.Discord.BotToken)
	actions := platformdiscord.NewActions(rest, cfg.Discord.GuildID, cfg.Discord.RestrictionRoleID)
	discordMessenger := discord.NewDiscordMessenger(rest)

	var sinks alert.Multi
	if cfg.Discord.AlertChannelID != "" {
		sinks = append(sinks, alert.NewChannelNotifier(discordMessenger, cfg.Discord.AlertChannelID))
	}
	if cfg.Slack.BotToken != "" && cfg.Slack.AlertChannelID != "" {
		slackClient := slacklib.New(cfg.Slack.BotToken)
		sinks = append(sinks, alert.NewChannelNotifier(slack.NewSlackMessenger(slackClient), cfg.Slack.AlertChannelID))
	}
	if len(sinks) == 0 {
		log.Warn().Msg("no alert channel configured; staff alerts will be dropped")
	}

	// Metrics registry.
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	// Moderation pipeline.
	modSvc := moderation.NewService(members, events, actions, sinks,
		moderation.WithPublisher(hub),
		moderation.WithMetrics(m),
		moderation.WithActionTimeout(cfg.Moderation.ActionTimeout),
	)

	policy := evasion.NewNamePolicy()
	policy.MaxEditDistance = cfg.Detector.MaxEditDistance
	policy.MinNameLength = cfg.Detector.MinNameLength
	detector := evasion.NewDetector(members, events, modSvc, sinks, evasion.WithPolicy(policy))

	intakeSvc := intake.NewService(members, modSvc, sinks, intake.WithReporterNotifier(discordMessenger))
	aggSvc := aggregate.NewService(members, events)
	dispatcher := command.NewDispatcher(modSvc, intakeSvc, aggSvc, m)

	// Operator auth.
	authSvc := auth.NewService(cfg.Operators, cfg.JWT.Secret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)

	deps := server.Deps{
		Auth:       authSvc,
		Aggregator: aggSvc,
		Entries:    detector,
		Dispatcher: dispatcher,
		Hub:        hub,
		Registry:   registry,
	}

	if cfg.Atmosphere.BaseURL != "" {
		deps.Atmosphere = atmosphere.NewClient(cfg.Atmosphere.BaseURL, cfg.Atmosphere.Timeout)
	}

	if cfg.OAuth.ClientID != "" && cfg.OAuth.ClientSecret != "" {
		deps.OAuth = auth.NewDiscordProvider(cfg.OAuth.ClientID, cfg.OAuth.ClientSecret, cfg.OAuth.RedirectURL)
		deps.LoginExt = authSvc
	}

	// Graceful shutdown on SIGINT / SIGTERM.
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Create HTTP server with all routes wired.
	srv := server.New(ctx, cfg, deps)

	// Start server in background goroutine.
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Str("storage", cfg.Storage.Driver).Msg("starting server")
		if startErr := srv.Start(); startErr != nil {
			log.Error().Err(startErr).Msg("server error")
		}
	}()

	// Block until shutdown signal.
	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		return shutdownErr
	}

	log.Info().Msg("stopped")
	return nil
}
