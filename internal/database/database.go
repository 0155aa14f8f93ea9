package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/kkkkikiki/gameadmin/internal/config"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS documents (
	collection TEXT        NOT NULL,
	id         TEXT        NOT NULL,
	body       JSONB       NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (collection, id)
)`

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS documents (
	collection TEXT     NOT NULL,
	id         TEXT     NOT NULL,
	body       TEXT     NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	PRIMARY KEY (collection, id)
)`

// NewPostgres connects to PostgreSQL using config and migrates the documents table
func NewPostgres(ctx context.Context, cfg config.DatabaseConfig, log *zap.Logger) (*sqlx.DB, error) {
	postgres, err := sqlx.Connect("postgres", cfg.GetDatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	// Configure connection pool
	postgres.SetMaxOpenConns(cfg.MaxConns)
	postgres.SetMaxIdleConns(cfg.MinConns)
	postgres.SetConnMaxLifetime(time.Hour)

	if err := postgres.PingContext(ctx); err != nil {
		postgres.Close()
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}
	if err := Migrate(ctx, postgres); err != nil {
		postgres.Close()
		return nil, err
	}

	log.Info("connected to PostgreSQL", zap.String("host", cfg.Host), zap.String("database", cfg.Name))
	return postgres, nil
}

// NewSQLite opens (or creates) a SQLite database and migrates the documents table.
//
// DSN formats for modernc.org/sqlite:
//   - file:   "admin.db?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
//   - tests:  "file:name?mode=memory&cache=shared"
func NewSQLite(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite: %w", err)
	}
	if err := Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate creates the documents table for the connection's driver
func Migrate(ctx context.Context, db *sqlx.DB) error {
	schema := sqliteSchema
	if db.DriverName() == "postgres" {
		schema = postgresSchema
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate documents table: %w", err)
	}
	return nil
}
