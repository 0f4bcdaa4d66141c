package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/yukikurage/tasktag-api/internal/config"
	"github.com/yukikurage/tasktag-api/internal/database"
	"github.com/yukikurage/tasktag-api/internal/logger"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema and indexes",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		logger.Init(cfg)

		db, err := database.Connect(cfg)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}

		if err := database.MigrateDatabase(db); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}

		logrus.Info("Migrations completed")
		return nil
	},
}
