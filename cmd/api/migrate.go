package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/redmonkez12/go-auth-service/internal/config"
	"github.com/redmonkez12/go-auth-service/internal/database"
)

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(config.Options{Flags: cmd.Flags()})
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx := cmd.Context()

	cmd.Println("Connecting to database...")
	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	cmd.Println("Running migrations...")
	if err := database.Migrate(ctx, db.DB); err != nil {
		return err
	}

	cmd.Println("Migrations completed successfully")
	return nil
}
