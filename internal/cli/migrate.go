package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/uptrace/bun/migrate"

	"zoo-quiz-service/internal/infra/sqlstore/migrations"
)

// NewMigrateCmd applies or rolls back database migrations.
func NewMigrateCmd(configPath *string) *cobra.Command {
	var down bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrations(cmd.Context(), *configPath, down)
		},
	}
	cmd.Flags().BoolVar(&down, "down", false, "roll back the last migration group")
	return cmd
}

func runMigrations(ctx context.Context, configPath string, down bool) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	if db == nil {
		return fmt.Errorf("no database configured: set postgres.url or sqlite.path")
	}
	defer db.Close()

	var group *migrate.MigrationGroup
	if down {
		group, err = migrations.Down(ctx, db)
	} else {
		group, err = migrations.Up(ctx, db)
	}
	if err != nil {
		return err
	}
	if group.IsZero() {
		log.Info("no migrations to run")
		return nil
	}
	if down {
		log.Info("migrations rolled back", "group", group.String())
	} else {
		log.Info("migrations applied", "group", group.String())
	}
	return nil
}
