package repository

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/tm-acme-shop/acme-shop-orders-users/internal/config"
	"github.com/tm-acme-shop/acme-shop-orders-users/internal/logging"
)

var schemas = map[string][]string{
	"postgres": {
		`CREATE TABLE IF NOT EXISTS orders (
			id       BIGSERIAL PRIMARY KEY,
			user_id  BIGINT NOT NULL,
			product  VARCHAR(255) NOT NULL,
			quantity INTEGER NOT NULL,
			status   VARCHAR(50) NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_user_id ON orders (user_id)`,
		`CREATE TABLE IF NOT EXISTS users (
			id            BIGSERIAL PRIMARY KEY,
			email         VARCHAR(255) NOT NULL UNIQUE,
			password_hash VARCHAR(255) NOT NULL,
			created_at    TIMESTAMPTZ NOT NULL
		)`,
	},
	"sqlite": {
		`CREATE TABLE IF NOT EXISTS orders (
			id       INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id  INTEGER NOT NULL,
			product  TEXT NOT NULL,
			quantity INTEGER NOT NULL,
			status   TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_user_id ON orders (user_id)`,
		`CREATE TABLE IF NOT EXISTS users (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			created_at    TIMESTAMP NOT NULL
		)`,
	},
}

// Database is the connection pool shared by a service's repositories.
type Database struct {
	db     *sql.DB
	driver string
}

// Open connects with the configured driver and verifies the connection.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*Database, error) {
	db, err := sql.Open(cfg.Driver, cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if cfg.Driver == "sqlite" {
		// One writer keeps in-memory databases shared across the pool.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.MaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	logging.Info("Database connected", logging.Fields{
		"driver": cfg.Driver,
		"host":   cfg.Host,
		"name":   cfg.Name,
	})

	return &Database{db: db, driver: cfg.Driver}, nil
}

// EnsureSchema creates missing tables. There is no migration versioning.
func (d *Database) EnsureSchema(ctx context.Context) error {
	stmts, ok := schemas[d.driver]
	if !ok {
		return fmt.Errorf("no schema for driver %q", d.driver)
	}
	for _, stmt := range stmts {
		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	return nil
}

// Ping runs SELECT 1 against the pool.
func (d *Database) Ping(ctx context.Context) error {
	_, err := d.db.ExecContext(ctx, "SELECT 1")
	return err
}

func (d *Database) Close() error {
	return d.db.Close()
}
