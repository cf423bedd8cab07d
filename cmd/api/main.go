package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/angelmondragon/costumerental-backend/api/controllers"
	"github.com/angelmondragon/costumerental-backend/api/routes"
	"github.com/angelmondragon/costumerental-backend/internal/cart"
	"github.com/angelmondragon/costumerental-backend/internal/checkout"
	"github.com/angelmondragon/costumerental-backend/internal/costumes"
	"github.com/angelmondragon/costumerental-backend/internal/customers"
	"github.com/angelmondragon/costumerental-backend/internal/rentals"
	"github.com/angelmondragon/costumerental-backend/internal/reports"
	"github.com/angelmondragon/costumerental-backend/internal/shopclient"
	"github.com/angelmondragon/costumerental-backend/pkg/config"
	"github.com/angelmondragon/costumerental-backend/pkg/db"
	"github.com/angelmondragon/costumerental-backend/pkg/logger"
	"github.com/angelmondragon/costumerental-backend/pkg/metrics"
	"github.com/angelmondragon/costumerental-backend/pkg/migrate"
	"github.com/angelmondragon/costumerental-backend/pkg/redis"
	"github.com/angelmondragon/costumerental-backend/pkg/tracing"
	"github.com/joho/godotenv"
)

const shutdownTimeout = 15 * time.Second

// backends are the collaborators the handlers and the provisioner call,
// either in-process over the database or a remote shop backend.
type backends struct {
	costumes  costumes.Service
	customers customers.Service
	rentals   rentals.Service
}

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	shutdownTracing, err := tracing.InitTracing(context.Background(), logg, tracing.Config{
		ServiceName: "costumerz-api",
		Endpoint:    cfg.Tracing.Endpoint,
		Probability: cfg.Tracing.SampleRatio,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to init tracing", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logg.Error(context.Background(), "error flushing traces", err)
		}
	}()

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	readiness := map[string]controllers.Pinger{"redis": redisClient}
	now := time.Now

	var svc backends
	if cfg.Backend.Remote() {
		client, err := shopclient.New(shopclient.Options{
			BaseURL: cfg.Backend.URL,
			Token:   cfg.Backend.Token,
			Timeout: cfg.Backend.Timeout,
			Logger:  logg,
		})
		if err != nil {
			logg.Error(context.Background(), "failed to create shop backend client", err)
			os.Exit(1)
		}
		svc = backends{costumes: client.Costumes(), customers: client.Customers(), rentals: client.Rentals()}
		logg.Info(logg.WithField(context.Background(), "backend", cfg.Backend.URL), "using remote shop backend")
	} else {
		dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap database", err)
			os.Exit(1)
		}
		defer func() {
			if err := dbClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing database", err)
			}
		}()

		if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
			logg.Error(context.Background(), "failed to run dev migrations", err)
			os.Exit(1)
		}
		readiness["database"] = dbClient

		svc, err = localBackends(dbClient, now, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to create services", err)
			os.Exit(1)
		}
	}

	reg := metrics.NewRegistry()

	cartService, err := cart.NewService(redisClient, svc.costumes, cfg.Redis.CartTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}
	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		Customers: svc.customers,
		Rentals:   svc.rentals,
		Carts:     cartService,
		Logger:    logg,
		Metrics:   metrics.NewProvisioningMetrics(reg),
		Options: checkout.Options{
			UnitTimeout:   cfg.Provisioning.UnitTimeout,
			BatchDeadline: cfg.Provisioning.BatchDeadline,
		},
		Now: now,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}
	reportService, err := reports.NewService(svc.rentals, now)
	if err != nil {
		logg.Error(context.Background(), "failed to create report service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":    cfg.App.Env,
		"addr":   addr,
		"remote": cfg.Backend.Remote(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Params{
			Config:      cfg,
			Logger:      logg,
			Readiness:   readiness,
			Idempotency: redisClient,
			Registry:    reg,
			HTTPMetrics: metrics.NewHTTPMetrics(reg),
			Clock:       now,
			Costumes:    svc.costumes,
			Customers:   svc.customers,
			Rentals:     svc.rentals,
			Cart:        cartService,
			Checkout:    checkoutService,
			Reports:     reportService,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-sigCtx.Done():
		logg.Info(ctx, "api server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
		}
	}
}

func localBackends(dbClient *db.Client, now func() time.Time, logg *logger.Logger) (backends, error) {
	conn := dbClient.DB()
	costumeRepo := costumes.NewRepository(conn)
	customerRepo := customers.NewRepository(conn)

	costumeService, err := costumes.NewService(costumeRepo)
	if err != nil {
		return backends{}, err
	}
	customerService, err := customers.NewService(customerRepo)
	if err != nil {
		return backends{}, err
	}
	rentalService, err := rentals.NewService(rentals.ServiceParams{
		Repo:      rentals.NewRepository(conn),
		Costumes:  costumeRepo,
		Customers: customerRepo,
		Tx:        dbClient,
		Now:       now,
		Logger:    logg,
	})
	if err != nil {
		return backends{}, err
	}
	return backends{costumes: costumeService, customers: customerService, rentals: rentalService}, nil
}
