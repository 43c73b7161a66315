package main

import (
	"fmt"
	"log"
	"os"

	"soundpost-data/internal/config"
	"soundpost-data/internal/database"
)

// Applies every migrations/*.sql in lexical order against the configured
// database. An explicit directory argument overrides DB_MIGRATIONS_DIR.
func main() {
	cfg := config.Load()

	dir := cfg.Database.MigrationsDir
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Cannot connect to database: %v", err)
	}
	defer db.Close()

	fmt.Printf("Connected to database: %s\n", cfg.Database.Database)

	applied, err := database.ApplyMigrations(db, dir)
	if err != nil {
		log.Fatalf("Migration failed (applied %d files): %v", len(applied), err)
	}
	for _, name := range applied {
		fmt.Printf("Applied %s\n", name)
	}
	fmt.Println("Migration completed successfully")
}
