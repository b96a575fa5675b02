// Command clean-images deletes stored product images that no product row
// references. Run it after bulk deletes or an interrupted product sync.
package main

import (
	"flag"
	"os"

	"go-inventory-odoo/internal/config"
	"go-inventory-odoo/internal/erpsync"
	"go-inventory-odoo/internal/repository"
	"go-inventory-odoo/internal/storage"
	"go-inventory-odoo/pkg/database"

	"github.com/rs/zerolog"
)

func main() {
	root := flag.String("root", "", "image storage root (default IMAGE_STORAGE_PATH)")
	flag.Parse()

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("cmd", "clean-images").Logger()

	cfg := config.Load()
	if *root == "" {
		*root = cfg.ImageStoragePath
	}

	store, err := storage.NewFileStore(*root)
	if err != nil {
		logger.Fatal().Err(err).Msg("Image storage unavailable")
	}
	db, err := database.ConnectDB(cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Database unavailable")
	}
	productRepo := repository.NewProductRepo(db)

	logger.Info().Str("root", *root).Msg("Cleaning orphaned images...")
	deleted, err := erpsync.NewImageReconciler(store, logger).CleanOrphans(productRepo)
	if err != nil {
		logger.Fatal().Err(err).Msg("Cleanup failed")
	}

	if len(deleted) == 0 {
		logger.Info().Msg("No orphaned images found")
		return
	}
	logger.Info().Int("deleted", len(deleted)).Msg("Cleanup complete")
}
