package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/tabx/internal/shared"
)

// SetupDatabase writes a config file when none exists, then initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	var config *shared.Config
	if _, err := os.Stat(configPath); err == nil {
		if config, err = shared.LoadConfig(configPath); err != nil {
			return fmt.Errorf("failed to load %s: %w", configPath, err)
		}
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
		}
		config = shared.DefaultConfig()
	}
	config.ApplyEnv()
	r.config = config
	r.configPath = configPath

	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := r.openDatabase(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	version, err := shared.CurrentVersion(ctx, db)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	r.logger.Info("setup complete", "database", config.Database.Path, "schema_version", version)
	return r.writePlain("✓ Database ready at %s (schema v%d)\n", config.Database.Path, version)
}

// SetupRollback reverts the newest applied migration of the configured database.
func (r *Runner) SetupRollback(ctx context.Context, cmd *cli.Command) error {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := shared.RollbackMigration(ctx, db); err != nil {
		return err
	}

	version, err := shared.CurrentVersion(ctx, db)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	r.logger.Warn("rolled back migration", "database", r.config.Database.Path, "schema_version", version)
	return r.writePlain("✓ Rolled back to schema v%d\n", version)
}
