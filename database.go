package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const incomeStatementSchema = `
CREATE TABLE IF NOT EXISTS income_statement (
	date             TEXT PRIMARY KEY,
	revenue          BIGINT NOT NULL,
	gross_profit     BIGINT NOT NULL,
	operating_income BIGINT NOT NULL,
	net_income       BIGINT NOT NULL,
	eps              DOUBLE PRECISION NOT NULL,
	last_updated     BIGINT NOT NULL
)`

// databaseDriver maps DATABASE_URL to a registered driver name and DSN.
// postgres:// and postgresql:// go to pgx, anything else is a SQLite path
// (an optional sqlite:// prefix is stripped).
func databaseDriver(databaseURL string) (string, string) {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return "pgx", databaseURL
	case strings.HasPrefix(databaseURL, "sqlite://"):
		databaseURL = strings.TrimPrefix(databaseURL, "sqlite://")
	}
	if databaseURL == ":memory:" {
		return "sqlite", databaseURL
	}
	return "sqlite", filepath.Clean(databaseURL) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
}

// openDatabase connects, tunes the pool and makes sure the income_statement
// table exists.
func openDatabase(ctx context.Context, cfg *Config) (*sqlx.DB, error) {
	driver, dsn := databaseDriver(cfg.DatabaseURL)

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s db: %w", driver, err)
	}

	if driver == "sqlite" && dsn == ":memory:" {
		// every sqlite connection to :memory: is a separate database, so
		// keep exactly one alive forever
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	} else {
		db.SetMaxOpenConns(cfg.DBMaxOpenConns)
		db.SetMaxIdleConns(cfg.DBMaxIdleConns)
		db.SetConnMaxLifetime(cfg.DBConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s db: %w", driver, err)
	}
	if _, err := db.ExecContext(ctx, incomeStatementSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create income_statement table: %w", err)
	}
	return db, nil
}
