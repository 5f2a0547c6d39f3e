package main

import (
	"fmt"

	appmodel "github.com/danger-5344/templa-socialV2/internal/app/model"
	infraPostgres "github.com/danger-5344/templa-socialV2/internal/infra/postgres"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE:  runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	_, _, db, err := openDatabase()
	if err != nil {
		return err
	}
	defer closeDatabase(db)

	if err := infraPostgres.AutoMigrate(cmd.Context(), db, appmodel.All()...); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Migrations completed successfully")
	return nil
}
