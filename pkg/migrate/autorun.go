package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/costumerental-backend/pkg/config"
	"github.com/angelmondragon/costumerental-backend/pkg/db"
	"github.com/angelmondragon/costumerental-backend/pkg/logger"
)

// MaybeRunDev applies the embedded migrations on startup, only in dev and only
// when COSTUMERZ_AUTO_MIGRATE is set.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}
	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	dialect := DialectFor(cfg.FeatureFlags.UseSQLite)
	ctx = logg.WithFields(ctx, map[string]any{"dialect": dialect, "source": "embedded"})
	logg.Info(ctx, "applying schema migrations")
	if err := Run(ctx, sqlDB, dialect, "", "up"); err != nil {
		return err
	}
	logg.Info(ctx, "schema up to date")
	return nil
}
