package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"defi-hub/internal/storage/migrations"
	"defi-hub/internal/storage/postgres"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply Postgres and ClickHouse migrations and exit",
		Args:  cobra.NoArgs,
		RunE:  runMigrate,
	}
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Storage.UseMemory {
		return fmt.Errorf("migrate needs postgres; storage.use_memory is set")
	}

	pool, err := postgres.NewPool(ctx, cfg.Storage.PostgresDSN)
	if err != nil {
		return err
	}
	defer pool.Close()

	applied, err := migrations.RunPostgresMigrations(ctx, pool)
	if err != nil {
		return fmt.Errorf("postgres migrations: %w", err)
	}
	log.Info().Int("applied", applied).Msg("Postgres migrations complete")

	if cfg.Storage.ClickhouseDSN == "" {
		return nil
	}
	conn, err := migrations.RunClickhouseMigrations(ctx, cfg.Storage.ClickhouseDSN)
	if err != nil {
		return fmt.Errorf("clickhouse migrations: %w", err)
	}
	defer conn.Close()
	log.Info().Msg("ClickHouse migrations complete")
	return nil
}
