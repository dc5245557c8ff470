package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	_ "modernc.org/sqlite"
)

// Config selects the tabular backend. The dialect is detected from the DSN.
type Config struct {
	DSN string `conf:"dsn" yaml:"dsn" json:"dsn"`
}

// Dialect is the supported database dialect.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// DetectDialect determines the dialect from a DSN string. Anything that is
// not a postgres URL is treated as sqlite (file path, file: URI, :memory:).
func DetectDialect(dsn string) Dialect {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return DialectPostgres
	}

	return DialectSQLite
}

// Open creates a bun.DB for the configured DSN and verifies connectivity.
func Open(cfg Config) (*bun.DB, error) {
	if cfg.DSN == "" {
		return nil, errors.New("store: dsn is required")
	}

	switch DetectDialect(cfg.DSN) {
	case DialectPostgres:
		return openPostgres(cfg.DSN)
	default:
		return openSQLite(cfg.DSN)
	}
}

func openPostgres(dsn string) (*bun.DB, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	sqldb.SetMaxOpenConns(25)
	sqldb.SetMaxIdleConns(25)

	db := bun.NewDB(sqldb, pgdialect.New())

	if err := db.PingContext(context.Background()); err != nil {
		_ = sqldb.Close()
		return nil, fmt.Errorf("store: ping postgres: %w", err)
	}

	return db, nil
}

func openSQLite(dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite: %w", err)
	}

	// Single writer connection; sqlite does not tolerate concurrent writers.
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		_ = sqldb.Close()
		return nil, fmt.Errorf("store: enable foreign keys: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = sqldb.Close()
		return nil, fmt.Errorf("store: ping sqlite: %w", err)
	}

	return db, nil
}

// Migrate creates the schema for all collections if missing.
func Migrate(ctx context.Context, db *bun.DB) error {
	models := []any{
		(*AuthUser)(nil),
		(*Organization)(nil),
		(*Profile)(nil),
		(*Setting)(nil),
	}

	for _, model := range models {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("store: create table for %T: %w", model, err)
		}
	}

	return nil
}

// IsNotFound reports whether err is the driver's empty-result error.
func IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
