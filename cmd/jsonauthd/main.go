package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/larry-brewer/jsonauth/pkg/accounts"
	"github.com/larry-brewer/jsonauth/pkg/api"
	"github.com/larry-brewer/jsonauth/pkg/config"
	"github.com/larry-brewer/jsonauth/pkg/observability"
	"github.com/larry-brewer/jsonauth/pkg/provider"
	"github.com/larry-brewer/jsonauth/pkg/reconcile"
	"github.com/larry-brewer/jsonauth/pkg/sessions"
)

const groupCacheTTL = 5 * time.Minute

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		os.Stderr.WriteString("configuration error: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)
	logger.Info("Starting jsonauthd")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tracerProvider, err := observability.InitTracing(ctx, cfg.Observability.OTel, logger)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize tracing")
		os.Exit(1)
	}
	if tracerProvider != nil {
		defer observability.ShutdownTracing(context.Background(), tracerProvider, logger)
	}

	metricsRegistry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(metricsRegistry)

	store, err := accounts.OpenPostgres(cfg.Database)
	if err != nil {
		logger.WithError(err).Error("Failed to open forum database")
		os.Exit(1)
	}
	defer store.Close()
	logger.WithField("table_prefix", cfg.Database.TablePrefix).Info("Forum database connected")

	groups := accounts.NewCachedGroupDirectory(store, groupCacheTTL)
	reconciler := reconcile.NewReconciler(store, groups, logger).WithMetrics(metrics)

	prov, err := provider.NewJSONProvider(cfg.Provider, reconciler, logger, metrics)
	if err != nil {
		logger.WithError(err).Error("Failed to build session provider")
		os.Exit(1)
	}

	if cfg.ProviderSettingsPath != "" {
		watcher, err := config.WatchProviderSettings(cfg.ProviderSettingsPath, logger, prov.UpdateConfig)
		if err != nil {
			logger.WithError(err).Error("Failed to watch provider settings")
			os.Exit(1)
		}
		defer watcher.Close()
	}

	registry, redisClient, err := buildRegistry(ctx, cfg.Sessions, logger)
	if err != nil {
		logger.WithError(err).Error("Failed to build session registry")
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	if cfg.Sessions.RevalidateSchedule != "" {
		revalidator := sessions.NewRevalidator(registry, prov, cfg.Provider.SharedCookieName, logger).
			WithMetrics(metrics)
		if err := revalidator.Start(cfg.Sessions.RevalidateSchedule); err != nil {
			logger.WithError(err).Error("Failed to schedule session revalidation")
			os.Exit(1)
		}
		defer revalidator.Stop()
	}

	server := api.NewServer(api.Options{
		Provider:        prov,
		Registry:        registry,
		Logger:          logger,
		Metrics:         metrics,
		MetricsRegistry: metricsRegistry,
		Health:          observability.NewHealthChecker(store.DB(), redisClient),
	})

	addr := net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      server,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("addr", addr).Info("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		logger.WithError(err).Error("HTTP server failed")
		os.Exit(1)
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Graceful shutdown failed")
	}
}

// buildRegistry constructs the configured session registry. The returned
// client is non-nil only for the redis backend.
func buildRegistry(ctx context.Context, cfg config.SessionsConfig, logger *observability.Logger) (sessions.Registry, *redis.Client, error) {
	switch cfg.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisURL,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			client.Close()
			return nil, nil, err
		}
		logger.WithField("addr", cfg.RedisURL).Info("Redis session registry connected")
		return sessions.NewRedisRegistry(client, cfg.TTL), client, nil
	default:
		logger.Info("Using in-memory session registry")
		return sessions.NewMemoryRegistry(cfg.TTL), nil, nil
	}
}
