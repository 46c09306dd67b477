package main

import (
	"log"

	"github.com/syedzayyan/pomonotes/internal/config"
	"github.com/syedzayyan/pomonotes/internal/db"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	database, err := db.OpenSQLite(cfg.Server.DBPath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer database.Close()

	if err := db.RunMigrations(database, db.ServerMigrations()); err != nil {
		log.Fatalf("run migrations: %v", err)
	}

	log.Printf("migrations applied to %s", cfg.Server.DBPath)
}
