package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/Moeabdelaziz007/amrikyy-content-agent/internal/config"
	"github.com/Moeabdelaziz007/amrikyy-content-agent/internal/infra/db/postgres"
)

// Sets up a clean, predictable database state for manual end-to-end testing:
// applies deploy/postgres/init.sql and wipes all job, result and quota data.
func main() {
	ctx := context.Background()

	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	schemaPath := flag.String("schema", "deploy/postgres/init.sql", "path to the schema file")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		log.Fatalf("config load: %v", err)
	}

	schema, err := os.ReadFile(*schemaPath)
	if err != nil {
		log.Fatalf("could not read schema file %s: %v", *schemaPath, err)
	}

	pool, err := postgres.NewPgxPool(ctx, cfg.Database.URL, 5)
	if err != nil {
		log.Fatalf("postgres connection failed: %v", err)
	}
	defer pool.Close()

	log.Println("--- Starting E2E Environment Setup ---")

	log.Println("[1/2] Ensuring schema...")
	if _, err := pool.Exec(ctx, string(schema)); err != nil {
		log.Fatalf("failed to create schema: %v", err)
	}

	log.Println("[2/2] Wiping existing data...")
	if _, err := pool.Exec(ctx, `TRUNCATE agent_jobs, agent_results, usage_quota RESTART IDENTITY CASCADE;`); err != nil {
		log.Fatalf("failed to truncate tables: %v", err)
	}

	log.Println("--- E2E Environment Setup Complete ---")
}
