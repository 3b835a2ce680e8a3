// Command server runs the agentbook CRM API.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"agentbook/internal/audit"
	"agentbook/internal/auth"
	"agentbook/internal/carrier"
	"agentbook/internal/carriersync"
	synchandler "agentbook/internal/carriersync/handler"
	syncmetrics "agentbook/internal/carriersync/metrics"
	"agentbook/internal/client"
	"agentbook/internal/conversation"
	"agentbook/internal/dashboard"
	"agentbook/internal/enrollment"
	"agentbook/internal/platform/config"
	"agentbook/internal/platform/httpserver"
	"agentbook/internal/platform/kafka"
	"agentbook/internal/platform/logger"
	"agentbook/internal/platform/metrics"
	"agentbook/internal/platform/postgres"
	"agentbook/internal/platform/redis"
	"agentbook/internal/portal"
	"agentbook/internal/transport/http/router"
	"agentbook/migrations"
)

const shutdownGrace = 15 * time.Second

func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.Logging)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := postgres.Ping(ctx, db); err != nil {
		return err
	}
	if err := migrations.Apply(ctx, db); err != nil {
		return err
	}
	log.Info("postgres connected")

	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		log.Info("redis connected")
	}

	producer, err := kafka.NewProducer(ctx, cfg.Kafka, log)
	if err != nil {
		return err
	}
	if producer != nil {
		defer producer.Close()
	}

	// Audit outbox. Events always land in Postgres; the worker only runs
	// when Kafka is configured.
	auditStore := audit.NewPostgres(db)
	auditPublisher := audit.NewPublisher(auditStore, log)
	if producer != nil {
		worker := audit.NewWorker(auditStore, producer, log,
			audit.WithInterval(cfg.Kafka.PollInterval))
		go func() {
			if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("audit worker stopped", "error", err)
			}
		}()
	}

	// Auth.
	tokens := auth.NewTokenManager(cfg.Server.JWTSigningKey, cfg.Server.SessionTTL)
	authSvc := auth.New(auth.NewPostgres(db), tokens,
		auth.WithLogger(log),
		auth.WithAuditPublisher(auditPublisher))
	if password := os.Getenv("AGENTBOOK_BOOTSTRAP_PASSWORD"); password != "" {
		username := envOr("AGENTBOOK_BOOTSTRAP_USERNAME", "agent")
		agency := os.Getenv("AGENTBOOK_AGENCY_NAME")
		if err := authSvc.Bootstrap(ctx, username, password, agency); err != nil {
			return err
		}
	}

	// CRM domains.
	carrierSvc := carrier.New(carrier.NewPostgres(db), carrier.WithLogger(log))
	clientSvc := client.New(client.NewPostgres(db),
		client.WithLogger(log),
		client.WithAuditPublisher(auditPublisher))
	enrollmentSvc := enrollment.New(enrollment.NewPostgres(db), clientSvc,
		enrollment.WithLogger(log),
		enrollment.WithAuditPublisher(auditPublisher))
	conversationSvc := conversation.New(conversation.NewPostgres(db),
		conversation.WithLogger(log))

	dashboardOpts := []dashboard.Option{dashboard.WithLogger(log)}
	if redisClient != nil {
		dashboardOpts = append(dashboardOpts,
			dashboard.WithCache(dashboard.NewRedisCache(redisClient.Client)))
	}
	dashboardSvc := dashboard.New(dashboard.NewPostgres(db), dashboardOpts...)

	// Portal sync engine.
	registry := portal.NewRegistry(
		[]portal.Adapter{portal.NewDevoted(), portal.NewHumana()},
		portal.WithLogger(log))
	syncSvc := carriersync.New(
		carriersync.NewPostgres(db),
		carriersync.NewPostgresTxRunner(db),
		carriersync.WithLogger(log),
		carriersync.WithAuditPublisher(auditPublisher),
		carriersync.WithMetrics(syncmetrics.New()),
		carriersync.WithPortalGateway(carrierSvc, registry))

	authHandler := auth.NewHandler(authSvc, log)
	health := map[string]router.HealthChecker{
		"postgres": func(ctx context.Context) error { return db.PingContext(ctx) },
	}
	if redisClient != nil {
		health["redis"] = redisClient.Health
	}

	r := router.New(router.Deps{
		Logger:  log,
		Metrics: metrics.New(),
		JWT:     tokens,
		Public:  []func(r chi.Router){authHandler.RegisterPublic},
		Protected: []router.Registerer{
			client.NewHandler(clientSvc, log),
			enrollment.NewHandler(enrollmentSvc, log),
			carrier.NewHandler(carrierSvc, log),
			conversation.NewHandler(conversationSvc, log),
			dashboard.NewHandler(dashboardSvc, log),
			synchandler.New(syncSvc, log),
		},
		ProtectedRoutes: []func(r chi.Router){authHandler.RegisterProtected},
		Health:          health,
	})

	server := httpserver.New(cfg.Server.Addr, r)
	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", "addr", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
