package main

import (
	"database/sql"
	"os"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"

	"github.com/billpayhq/billpay-service/internal/config"
)

// Applies pending migrations from ./migrations. Pass "down" to roll back
// the most recent one.
func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	db, err := sql.Open("postgres", cfg.DBConn)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	dir := "migrations"
	if len(os.Args) > 1 && os.Args[1] == "down" {
		if err := goose.Down(db, dir); err != nil {
			logger.Fatalf("Migration rollback failed: %v", err)
		}
		logger.Info("Rolled back one migration")
		return
	}

	if err := goose.Up(db, dir); err != nil {
		logger.Fatalf("Migrations failed: %v", err)
	}
	logger.Info("Migrations applied")
}
