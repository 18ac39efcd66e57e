package main

import (
	"flag"
	"os"

	"studiora/backend/internal/config"
	"studiora/backend/internal/db"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg := config.MustLoad(*configPath)
	logger := config.NewLogger(cfg.LogLevel, os.Stdout)

	database, err := db.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		logger.Error("open database", "driver", cfg.DBDriver, "error", err)
		os.Exit(1)
	}
	defer database.Close()

	applied, err := db.RunMigrations(database, cfg.MigrationsDir)
	if err != nil {
		logger.Error("run migrations", "error", err)
		os.Exit(1)
	}

	if len(applied) == 0 {
		logger.Info("database is up to date")
		return
	}
	for _, name := range applied {
		logger.Info("applied migration", "name", name)
	}
}
