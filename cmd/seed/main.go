package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/angelmondragon/costumerental-backend/internal/catalog"
	"github.com/angelmondragon/costumerental-backend/internal/costumes"
	"github.com/angelmondragon/costumerental-backend/internal/shopclient"
	"github.com/angelmondragon/costumerental-backend/pkg/config"
	"github.com/angelmondragon/costumerental-backend/pkg/db"
	"github.com/angelmondragon/costumerental-backend/pkg/logger"
	"github.com/angelmondragon/costumerental-backend/pkg/migrate"
	"github.com/joho/godotenv"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "seed"})

	_ = godotenv.Load()

	path := flag.String("file", "", "catalog yaml file (defaults to COSTUMERZ_SEED_CATALOG_PATH)")
	dryRun := flag.Bool("dry-run", false, "parse and validate the catalog without writing")
	flag.Parse()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "seed",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	file := *path
	if file == "" {
		file = cfg.Seed.CatalogPath
	}
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "file": file})

	inputs, err := catalog.LoadFile(file)
	requireResource(ctx, logg, "catalog file", err)
	ctx = logg.WithField(ctx, "entries", len(inputs))

	if *dryRun {
		logg.Info(ctx, "catalog valid (dry run)")
		return
	}

	var svc costumes.Service
	if cfg.Backend.Remote() {
		client, err := shopclient.New(shopclient.Options{
			BaseURL: cfg.Backend.URL,
			Token:   cfg.Backend.Token,
			Timeout: cfg.Backend.Timeout,
			Logger:  logg,
		})
		requireResource(ctx, logg, "shop backend client", err)
		svc = client.Costumes()
		ctx = logg.WithField(ctx, "backend", cfg.Backend.URL)
	} else {
		dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
		requireResource(ctx, logg, "database", err)
		defer dbClient.Close()

		requireResource(ctx, logg, "migrations", migrate.MaybeRunDev(ctx, cfg, logg, dbClient))

		svc, err = costumes.NewService(costumes.NewRepository(dbClient.DB()))
		requireResource(ctx, logg, "costume service", err)
	}

	result, err := catalog.Seed(ctx, svc, logg, inputs)
	ctx = logg.WithFields(ctx, map[string]any{"created": result.Created, "updated": result.Updated})
	if err != nil {
		logg.Error(ctx, "catalog seed failed", err)
		os.Exit(1)
	}
	logg.Info(ctx, "catalog seeded")
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
