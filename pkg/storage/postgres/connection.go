// Package postgres manages PostgreSQL connections and pool budgets.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// Config holds database connection configuration
type Config struct {
	URL         string
	MaxConns    int
	MinConns    int
	Timeout     time.Duration
	MaxLifetime time.Duration
	MaxIdleTime time.Duration
}

// Connect opens and verifies a PostgreSQL connection pool
func Connect(cfg Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open connection: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConns)
	db.SetMaxIdleConns(cfg.MinConns)
	db.SetConnMaxLifetime(cfg.MaxLifetime)
	db.SetConnMaxIdleTime(cfg.MaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// ConnectAuditWriter opens a second, smaller pool for audit inserts.
// Audit writes happen after the caller's response is committed and hold
// connections slightly longer; giving them a separate budget keeps a burst
// of mutations from starving the request-serving pool.
func ConnectAuditWriter(cfg Config) (*sql.DB, error) {
	writerCfg := cfg
	writerCfg.MaxConns = cfg.MaxConns / 4
	if writerCfg.MaxConns < 2 {
		writerCfg.MaxConns = 2
	}
	writerCfg.MinConns = 1
	return Connect(writerCfg)
}
