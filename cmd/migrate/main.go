package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/angelmondragon/costumerental-backend/pkg/config"
	"github.com/angelmondragon/costumerental-backend/pkg/db"
	"github.com/angelmondragon/costumerental-backend/pkg/logger"
	"github.com/angelmondragon/costumerental-backend/pkg/migrate"
	"github.com/joho/godotenv"
)

// goose commands that only need a connection and the migration source.
var passthrough = map[string]bool{"up": true, "down": true, "status": true, "reset": true, "redo": true}

func main() {
	cmd := flag.String("cmd", "up", "up|down|status|reset|redo|version|create|validate")
	dir := flag.String("dir", "", "migrations directory on disk (default: the set embedded in this binary)")
	name := flag.String("name", "", "migration name for -cmd=create")
	version := flag.String("version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "migrate"})
	ctx := logg.WithField(context.Background(), "cmd", *cmd)
	_ = godotenv.Load()

	switch *cmd {
	case "create":
		target := *dir
		if target == "" {
			target = migrate.DefaultDir
		}
		path, err := migrate.CreateSQLMigration(target, *name)
		exitOn(ctx, logg, "create migration", err)
		fmt.Println(path)
		return
	case "validate":
		var err error
		if *dir == "" {
			err = migrate.Validate(migrate.Embedded())
		} else {
			err = migrate.ValidateDir(*dir)
		}
		exitOn(ctx, logg, "validate migrations", err)
		logg.Info(ctx, "migrations valid")
		return
	}

	cfg, err := config.Load()
	exitOn(ctx, logg, "load config", err)
	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	exitOn(ctx, logg, "connect database", err)
	defer dbClient.Close()
	sqlDB, err := dbClient.DB().DB()
	exitOn(ctx, logg, "unwrap sql database", err)

	dialect := migrate.DialectFor(cfg.FeatureFlags.UseSQLite)
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "dialect": dialect, "dir": *dir})

	switch {
	case passthrough[*cmd]:
		err = migrate.Run(ctx, sqlDB, dialect, *dir, *cmd)
	case *cmd == "version":
		if *version == "" {
			err = fmt.Errorf("-version is required")
			break
		}
		err = migrate.MigrateToVersion(ctx, sqlDB, dialect, *dir, *version)
	default:
		err = fmt.Errorf("unknown -cmd %q", *cmd)
	}
	exitOn(ctx, logg, "migrate", err)
	logg.Info(ctx, "migrate finished")
}

func exitOn(ctx context.Context, logg *logger.Logger, step string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, step+" failed", err)
	os.Exit(1)
}
