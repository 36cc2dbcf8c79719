package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JaxJericho/josh-2.0-sub000/internal/store"
)

var errNoDatabase = errors.New("DATABASE_URL is required")

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the interview tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger := loadConfig()
		if cfg.DatabaseURL == "" {
			return errNoDatabase
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		db, err := store.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer db.Close()
		if err := db.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
		logger.Info("database migrated")
		return nil
	},
}
