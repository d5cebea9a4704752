package main

import (
	"github.com/spf13/cobra"

	"github.com/dmehra2102/storefront/internal/store/postgres"
	"github.com/dmehra2102/storefront/pkg/logging"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the Postgres schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			log := logging.New(cfg.LogLevel)

			pool, err := postgres.Connect(cmd.Context(), cfg.PGURL)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := postgres.Migrate(cmd.Context(), pool); err != nil {
				return err
			}
			log.Info("schema applied")
			return nil
		},
	}
}
