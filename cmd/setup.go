package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/desertthunder/spotauth/internal/shared"
	"github.com/desertthunder/spotauth/internal/ui"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the example configuration to the --config path.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if err := shared.CreateConfigFile(configPath); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", configPath)
	r.writePlain("%s Configuration written to %s\n", ui.OK("✓"), configPath)
	r.writePlain("%s\n", ui.Help("Fill in client_id and client_secret from the Spotify developer dashboard"))
	return nil
}

// SetupDatabase initializes the audit database and runs migrations.
//
// A missing config file falls back to the defaults. With --rollback the most recent
// migration is rolled back after the database is brought up to date.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	config, err := r.loadConfig(configPath)
	if errors.Is(err, shared.ErrMissingConfig) {
		r.logger.Warn("config file not found, using defaults", "path", configPath)
		config = r.config
	} else if err != nil {
		return err
	}

	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := shared.OpenEventDatabase(config.Database)
	if errors.Is(err, shared.ErrEventLogDisabled) {
		return fmt.Errorf("%w: database.path is empty", err)
	} else if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	if cmd.Bool("rollback") {
		if err := shared.RollbackMigration(db); err != nil {
			return err
		}

		versions, err := appliedVersions(db)
		if err != nil {
			return err
		}

		r.logger.Warn("rolled back latest migration", "path", config.Database.Path)
		return r.writePlain("%s Rolled back latest migration at %s (migrations %v)\n", ui.Warn("!"), config.Database.Path, versions)
	}

	versions, err := appliedVersions(db)
	if err != nil {
		return err
	}

	r.logger.Infof("setup complete for database: %v", config.Database.Path)
	return r.writePlain("%s Database ready at %s (migrations %v)\n", ui.OK("✓"), config.Database.Path, versions)
}

func appliedVersions(db *sql.DB) ([]int, error) {
	applied, err := shared.AppliedVersions(db)
	if err != nil {
		return nil, err
	}

	versions := make([]int, 0, len(applied))
	for v := range applied {
		versions = append(versions, v)
	}
	sort.Ints(versions)
	return versions, nil
}
