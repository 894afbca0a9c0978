package main

import (
	"context"

	"github.com/sifan077/PowerRead/internal/app/repository"
	"github.com/sifan077/PowerRead/internal/infra/logger"
	infraPostgres "github.com/sifan077/PowerRead/internal/infra/postgres"
	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd.Context())
		},
	}
}

func runMigrate(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	pool, err := infraPostgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return err
	}
	defer pool.Close()

	gormDB, err := infraPostgres.NewGorm(pool, log)
	if err != nil {
		return err
	}

	if err := infraPostgres.AutoMigrate(ctx, gormDB, repository.Models()...); err != nil {
		return err
	}
	log.Info("Database migrations executed successfully")
	return nil
}
