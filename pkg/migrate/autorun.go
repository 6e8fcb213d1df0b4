package migrate

import (
	"context"
	"fmt"

	"github.com/plutocart/user-service/pkg/config"
	"github.com/plutocart/user-service/pkg/db"
	"github.com/plutocart/user-service/pkg/db/models"
	"github.com/plutocart/user-service/pkg/logger"
)

// MaybeRunDev applies the schema automatically when the app is running in dev
// mode and the feature flag is enabled. Postgres runs the goose migrations;
// the sqlite driver has no goose history and is migrated from the models.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "driver": cfg.DB.Driver})

	if cfg.DB.IsSQLite() {
		logg.Info(ctx, "auto-migrating sqlite schema from models")
		if err := AutoMigrateModels(ctx, client); err != nil {
			return err
		}
		return nil
	}

	sqlDB, err := client.SQL()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	logg.Info(ctx, "running embedded goose migrations (dev auto-run)")

	if err := Run(ctx, sqlDB, "", "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}

	logg.Info(ctx, "Goose migrations completed")
	return nil
}

// AutoMigrateModels creates the users table and its partial unique index from the gorm models.
func AutoMigrateModels(ctx context.Context, client *db.Client) error {
	if err := client.DB().WithContext(ctx).AutoMigrate(&models.User{}); err != nil {
		return fmt.Errorf("auto-migrating models: %w", err)
	}
	return nil
}
