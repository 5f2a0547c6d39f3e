package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/danger-5344/templa-socialV2/internal/app/importer"
	apprepository "github.com/danger-5344/templa-socialV2/internal/app/repository"
	"github.com/danger-5344/templa-socialV2/internal/app/service"
	infraPrometheus "github.com/danger-5344/templa-socialV2/internal/infra/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	importFile  string
	importUser  string
	importBatch int
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import offer networks, offers and links from a CSV or XLSX file",
	Long: `Reads rows with the columns network, offer, url and is_active and
reconciles them against the catalog in a single transaction.`,
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVarP(&importFile, "file", "f", "", "Path to the .csv or .xlsx file")
	importCmd.Flags().StringVarP(&importUser, "user", "u", "catalogctl", "User id recorded as the importer")
	importCmd.Flags().IntVar(&importBatch, "batch-size", 0, "Rows per INSERT (defaults to import.batch_size)")
	_ = importCmd.MarkFlagRequired("file")
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, log, db, err := openDatabase()
	if err != nil {
		return err
	}
	defer closeDatabase(db)

	f, err := os.Open(importFile)
	if err != nil {
		return fmt.Errorf("open %s: %w", importFile, err)
	}
	defer f.Close()

	rows, err := importer.Open(filepath.Base(importFile), f)
	if err != nil {
		return err
	}

	batch := importBatch
	if batch <= 0 {
		batch = cfg.Import.BatchSize
	}
	catalog := service.NewCatalogService(apprepository.NewCatalogRepository(db), service.CatalogOptions{
		BatchSize: batch,
		Logger:    log,
		Metrics:   infraPrometheus.NewMetrics(),
	})

	summary, err := catalog.Import(cmd.Context(), rows, importUser)
	if err != nil {
		log.Error("catalog import failed", zap.String("file", importFile), zap.Error(err))
		return fmt.Errorf("import failed: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), summary.Message())
	return nil
}
