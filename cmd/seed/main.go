package main

import (
	"context"
	"database/sql"
	"log/slog"
	"math/rand"
	"os"
	"time"

	_ "github.com/lib/pq"

	"github.com/gwangju-cafe/cafe-backend/internal/inventory"
)

// Seeds the product catalog. Safe to run repeatedly: existing products
// are left untouched.
func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	postgresURL := os.Getenv("POSTGRES_URL")
	if postgresURL == "" {
		logger.Error("POSTGRES_URL environment variable is required")
		os.Exit(1)
	}

	db, err := sql.Open("postgres", postgresURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	repo := inventory.NewRepository(db)
	catalog := inventory.GenerateCatalog(time.Now().UTC(), func() int { return rand.Intn(61) })

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	inserted, err := repo.Seed(ctx, catalog)
	if err != nil {
		logger.Error("failed to seed catalog", "error", err)
		os.Exit(1)
	}

	logger.Info("catalog seeded", "products", len(catalog), "inserted", inserted)
}
