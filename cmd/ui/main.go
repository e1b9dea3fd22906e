// The ui binary serves the HTML threshold report over stored results.
package main

import (
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"psychofit/adapters/postgres"
	"psychofit/internal"
	"psychofit/internal/config"
	"psychofit/ui"
)

func main() {
	_ = godotenv.Load()
	logger := internal.DefaultLogger

	cfg, err := config.Load()
	if err != nil {
		logger.Error("loading config: %v", err)
		os.Exit(1)
	}
	if cfg.Database.URL == "" {
		logger.Error("DATABASE_URL is not set")
		os.Exit(1)
	}

	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		logger.Error("connecting to database: %v", err)
		os.Exit(1)
	}
	defer db.Close()
	if _, err := db.Exec(postgres.Schema); err != nil {
		logger.Error("applying schema: %v", err)
		os.Exit(1)
	}

	appUI := ui.NewApp(postgres.NewResultRepository(db))
	if err := appUI.Serve(ui.Config{Port: cfg.Server.Port}); err != nil {
		logger.Error("server: %v", err)
		os.Exit(1)
	}
}
