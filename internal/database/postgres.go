package database

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	"github.com/ledgerbank/backend/internal/config"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
)

//go:embed schema.sql
var schema string

// InitDB opens the connection pool and verifies it with a ping.
func InitDB(ctx context.Context, cfg config.DatabaseConfig, log zerolog.Logger) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	log.Info().Str("host", cfg.Host).Str("database", cfg.Name).Msg("database connection established")
	return db, nil
}

// Migrate applies the embedded schema. Every statement is idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Schema returns the embedded DDL.
func Schema() string {
	return schema
}
