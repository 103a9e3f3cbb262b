package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"zoo-quiz-service/internal/catalog"
	"zoo-quiz-service/internal/infra/sqlstore"
	"zoo-quiz-service/internal/infra/sqlstore/migrations"
)

// NewSeedCmd imports a question bank into the configured database.
func NewSeedCmd(configPath *string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Import subjects and questions (the built-in bank unless --file is given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), *configPath, file)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "question bank JSON file")
	return cmd
}

func runSeed(ctx context.Context, configPath, file string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	raw := catalog.DefaultBank()
	if file != "" {
		raw, err = os.ReadFile(file)
		if err != nil {
			return err
		}
	}

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	if db == nil {
		return fmt.Errorf("no database configured: set postgres.url or sqlite.path")
	}
	defer db.Close()

	if _, err := migrations.Up(ctx, db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	res, err := catalog.NewImporter(sqlstore.New(db)).ImportJSON(ctx, raw)
	if err != nil {
		return err
	}
	log.Info("question bank imported", "subjects", res.Subjects, "questions", res.Questions, "skipped", res.Skipped)
	return nil
}
