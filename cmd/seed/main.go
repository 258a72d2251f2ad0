// Command seed populates the database with the default expense categories.
// It is idempotent: a database that already has categories is left alone.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/spendbook/spendbook/internal/config"
	"github.com/spendbook/spendbook/internal/models"
	"github.com/spendbook/spendbook/internal/storage/sqlite"
	"github.com/spendbook/spendbook/pkg/logging"
)

var basicCategories = []string{
	"Food & Drinks",
	"Transport",
	"Housing",
	"Entertainment",
	"Shopping",
	"Health",
	"Travel",
	"Other",
}

func main() {
	// A missing .env is fine; the environment may be set directly.
	_ = godotenv.Load()
	logging.Setup()

	cfg := config.Load()

	store, err := sqlite.New(cfg.SQLiteDBPath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.SQLiteDBPath)

	ctx := context.Background()

	existing, err := store.ListCategories(ctx)
	if err != nil {
		slog.Error("Failed to list categories", "error", err)
		os.Exit(1)
	}
	if len(existing) > 0 {
		slog.Info("Categories already seeded", "count", len(existing))
		return
	}

	for _, name := range basicCategories {
		if err := store.InsertCategory(ctx, &models.ExpenseCategory{Name: name}); err != nil {
			slog.Error("Failed to insert category", "name", name, "error", err)
			os.Exit(1)
		}
	}
	slog.Info("Seeded expense categories", "count", len(basicCategories))
}
