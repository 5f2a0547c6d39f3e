package main

import (
	"context"
	"fmt"
	"os"

	"github.com/danger-5344/templa-socialV2/config"
	"github.com/danger-5344/templa-socialV2/internal/infra/logger"
	infraPostgres "github.com/danger-5344/templa-socialV2/internal/infra/postgres"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:           "catalogctl",
	Short:         "Manage the offer catalog of templa-social",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("catalogctl %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(migrateCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openDatabase loads configuration, initializes logging and opens GORM.
func openDatabase() (*config.Config, *zap.Logger, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	log, err := logger.Init(logger.FromApp(cfg.App, "catalogctl"))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init logger: %w", err)
	}
	db, err := infraPostgres.NewGorm(cfg.Postgres, log)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, log, db, nil
}

func closeDatabase(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = logger.Sync()
}
