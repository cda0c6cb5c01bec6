package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/itayost/barber-shem-tov-sub000/internal/api/router"
	"github.com/itayost/barber-shem-tov-sub000/internal/app/bootstrap"
	appconfig "github.com/itayost/barber-shem-tov-sub000/internal/config"
	"github.com/itayost/barber-shem-tov-sub000/internal/leads"
	"github.com/itayost/barber-shem-tov-sub000/internal/observability/metrics"
	"github.com/itayost/barber-shem-tov-sub000/internal/tracking"
	"github.com/itayost/barber-shem-tov-sub000/pkg/logging"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.NewForEnv(cfg.Env, cfg.LogLevel)
	logger.Info("starting academy API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	fmt.Println("Server exited gracefully")
}

type appMetrics struct {
	handler  http.Handler
	leads    *metrics.LeadMetrics
	tracking *metrics.TrackingMetrics
}

func setupMetrics() appMetrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return appMetrics{
		handler:  promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		leads:    metrics.NewLeadMetrics(reg),
		tracking: metrics.NewTrackingMetrics(reg),
	}
}

type app struct {
	handler http.Handler
	tracker *tracking.Tracker
	closers []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func buildApp(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*app, error) {
	m := setupMetrics()
	a := &app{}
	checks := map[string]router.ReadinessCheck{}

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		a.closers = append(a.closers, func() { _ = redisClient.Close() })
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	deps := bootstrap.EventStorageDeps{}
	if redisClient != nil {
		deps.Redis = redisClient
	}
	storage, err := bootstrap.BuildEventStorage(ctx, cfg, deps, logger)
	if err != nil {
		a.close()
		return nil, err
	}
	a.tracker = bootstrap.BuildTracker(cfg, storage, bootstrap.BuildSinks(cfg, logger), m.tracking, logger)

	pool, err := bootstrap.BuildPostgresPool(ctx, cfg, logger)
	if err != nil {
		a.close()
		return nil, err
	}
	if pool != nil {
		a.closers = append(a.closers, pool.Close)
		checks["postgres"] = pool.Ping
	}
	repo := bootstrap.BuildLeadRepository(pool, logger)
	notifier := bootstrap.BuildLeadNotifier(bootstrap.BuildEmailSender(ctx, cfg, logger), cfg, logger)

	if cfg.AdminJWTSecret == "" {
		logger.Warn("ADMIN_JWT_SECRET not set; admin endpoints will reject every request")
	}

	a.handler = router.New(&router.Config{
		Context:            ctx,
		Logger:             logger,
		LeadsHandler:       leads.NewHandler(repo, notifier, logger, m.leads),
		TrackingHandler:    tracking.NewHandler(a.tracker, logger),
		MetricsHandler:     m.handler,
		AdminAuthSecret:    cfg.AdminJWTSecret,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		PublicRateLimit:    cfg.PublicRateLimit,
		PublicRateBurst:    cfg.PublicRateBurst,
		ReadinessChecks:    checks,
	})
	return a, nil
}

func run(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) error {
	a, err := buildApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      a.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := a.tracker.Flush(shutdownCtx); err != nil {
		logger.Warn("analytics sinks did not drain before shutdown", "error", err)
	}
	logger.Info("server stopped")
	return nil
}
