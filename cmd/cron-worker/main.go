package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/costumerental-backend/internal/cron"
	"github.com/angelmondragon/costumerental-backend/internal/rentals"
	"github.com/angelmondragon/costumerental-backend/pkg/config"
	"github.com/angelmondragon/costumerental-backend/pkg/db"
	"github.com/angelmondragon/costumerental-backend/pkg/logger"
	"github.com/angelmondragon/costumerental-backend/pkg/metrics"
	"github.com/angelmondragon/costumerental-backend/pkg/migrate"
	"github.com/angelmondragon/costumerental-backend/pkg/redis"
)

// Usage:
//
//	cron-worker                     run every job each COSTUMERZ_CRON_INTERVAL
//	cron-worker -once               run one cycle and exit
//	cron-worker -job overdue-sweep  run a single job and exit
func main() {
	once := flag.Bool("once", false, "run a single cycle and exit")
	jobName := flag.String("job", "", "run only the named job once and exit")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "cron-worker"})
	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *once, *jobName); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, once bool, jobName string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logg := logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx = logg.WithField(ctx, "env", cfg.App.Env)

	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		return fmt.Errorf("bootstrap database: %w", err)
	}
	defer closeLogged(ctx, logg, "database", dbClient.Close)

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return fmt.Errorf("dev migrations: %w", err)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return fmt.Errorf("bootstrap redis: %w", err)
	}
	defer closeLogged(ctx, logg, "redis", redisClient.Close)

	reg := metrics.NewRegistry()
	service, err := buildService(cfg, logg, dbClient, redisClient, reg)
	if err != nil {
		return err
	}

	if jobName != "" || once {
		var cycle cron.Cycle
		if jobName != "" {
			cycle, err = service.RunJob(ctx, jobName)
		} else {
			cycle, err = service.RunOnce(ctx)
		}
		return report(ctx, logg, cycle, err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           metricsMux(reg),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "metrics server stopped", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logg.Info(logg.WithField(ctx, "interval", cfg.Cron.Interval.String()), "starting cron worker")
	err = service.Run(ctx)
	logg.Info(ctx, "cron worker shutting down")
	return err
}

func buildService(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client, reg *prometheus.Registry) (*cron.Service, error) {
	lock, err := cron.NewRedisLock(redisClient, lockName(cfg.App.Env), cfg.Cron.LockTTL)
	if err != nil {
		return nil, fmt.Errorf("cron lock: %w", err)
	}
	overdue, err := cron.NewOverdueSweepJob(cron.OverdueSweepJobParams{
		Logger:  logg,
		Rentals: rentals.NewRepository(dbClient.DB()),
		Metrics: metrics.NewRentalMetrics(reg),
		Now:     time.Now,
	})
	if err != nil {
		return nil, fmt.Errorf("overdue sweep job: %w", err)
	}
	service, err := cron.NewService(cron.ServiceParams{
		Logger:     logg,
		Registry:   cron.NewRegistry(overdue),
		Lock:       lock,
		Metrics:    metrics.NewCronJobMetrics(reg),
		Interval:   cfg.Cron.Interval,
		JobTimeout: cfg.Cron.LockTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("cron service: %w", err)
	}
	return service, nil
}

// report turns a one-shot cycle into the process exit status.
func report(ctx context.Context, logg *logger.Logger, cycle cron.Cycle, err error) error {
	if err != nil {
		return err
	}
	logg.Info(logg.WithFields(ctx, map[string]any{
		"skipped": cycle.Skipped,
		"ran":     cycle.Ran,
		"failed":  cycle.Failed,
	}), "one-shot cycle finished")
	if len(cycle.Failed) > 0 {
		return fmt.Errorf("jobs failed: %v", cycle.Failed)
	}
	return nil
}

func closeLogged(ctx context.Context, logg *logger.Logger, what string, closeFn func() error) {
	if err := closeFn(); err != nil {
		logg.Error(ctx, "error closing "+what, err)
	}
}

// metricsMux serves the worker's own metrics and a liveness probe.
func metricsMux(reg *prometheus.Registry) http.Handler {
	r := chi.NewRouter()
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler(reg))
	return r
}

func lockName(env string) string {
	if env == "" {
		env = "local"
	}
	return "cron-worker:" + env
}
