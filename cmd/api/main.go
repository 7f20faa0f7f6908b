package main

import (
	"fmt"
	"log"
	"os"

	"github.com/okazaki0127/git-overtime-metrics/internal/aggregator"
	"github.com/okazaki0127/git-overtime-metrics/internal/api"
	"github.com/okazaki0127/git-overtime-metrics/internal/config"
	"github.com/okazaki0127/git-overtime-metrics/internal/storage"
	"github.com/okazaki0127/git-overtime-metrics/internal/storage/postgres"
	"github.com/okazaki0127/git-overtime-metrics/internal/storage/sqlite"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize storage
	var store storage.Store
	switch cfg.StorageType {
	case "postgres":
		store, err = postgres.NewPostgresStorage(cfg.PostgresURL)
		if err != nil {
			log.Fatalf("Failed to initialize PostgreSQL storage: %v", err)
		}
	default:
		store, err = sqlite.NewSQLiteStorage(cfg.SQLitePathFor("gitlab"))
		if err != nil {
			log.Fatalf("Failed to initialize SQLite storage: %v", err)
		}
	}
	defer store.Close()

	// Initialize aggregator and handler
	agg := aggregator.NewAggregator(store)
	handler := api.NewHandler(agg, store)

	// Setup routes
	router := api.SetupRoutes(handler)

	// Start server
	addr := fmt.Sprintf("%s:%s", cfg.APIHost, cfg.APIPort)
	fmt.Printf("Starting API server on %s\n", addr)
	fmt.Printf("Storage type: %s\n", cfg.StorageType)

	if err := router.Run(addr); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start server: %v\n", err)
		os.Exit(1)
	}
}
