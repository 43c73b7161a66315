package database

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"soundpost-data/internal/config"
)

// NewPostgresDB opens the connection pool and verifies connectivity.
// Pool sizing is the only backpressure mechanism the service has, so the
// limits come straight from config.
func NewPostgresDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.MaxConns > 0 {
		db.SetMaxOpenConns(cfg.MaxConns)
	}
	if cfg.MaxIdle > 0 {
		db.SetMaxIdleConns(cfg.MaxIdle)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
