package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

// ErrUnsupportedDSN is returned when the DSN scheme has no driver.
var ErrUnsupportedDSN = errors.New("index: unsupported dsn")

// Driver names a database backend.
type Driver string

const (
	DriverSQLite   Driver = "sqlite3"
	DriverPostgres Driver = "postgres"
)

// ParseDSN maps a configured DSN onto a driver and the connection string that
// driver expects. Accepted forms are ":memory:", "sqlite://path", "file:..."
// and "postgres://..." (or "postgresql://...").
func ParseDSN(dsn string) (Driver, string, error) {
	dsn = strings.TrimSpace(dsn)
	switch {
	case dsn == "" || dsn == ":memory:":
		return DriverSQLite, "file::memory:", nil
	case strings.HasPrefix(dsn, "sqlite://"):
		path := strings.TrimPrefix(dsn, "sqlite://")
		if path == "" {
			return "", "", fmt.Errorf("%w: %q has no path", ErrUnsupportedDSN, dsn)
		}
		if path == ":memory:" {
			return DriverSQLite, "file::memory:", nil
		}
		return DriverSQLite, "file:" + path, nil
	case strings.HasPrefix(dsn, "file:"):
		return DriverSQLite, dsn, nil
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return DriverPostgres, dsn, nil
	}
	return "", "", fmt.Errorf("%w: %q", ErrUnsupportedDSN, dsn)
}

// Open connects to the database named by dsn and creates the documents table
// when it does not exist.
func Open(ctx context.Context, dsn string) (*bun.DB, error) {
	driver, conn, err := ParseDSN(dsn)
	if err != nil {
		return nil, err
	}
	sqlDB, err := sql.Open(string(driver), conn)
	if err != nil {
		return nil, fmt.Errorf("index: open %s: %w", driver, err)
	}

	var db *bun.DB
	switch driver {
	case DriverPostgres:
		db = bun.NewDB(sqlDB, pgdialect.New())
	default:
		db = bun.NewDB(sqlDB, sqlitedialect.New())
		// A single connection keeps in-memory databases alive and serialises writers.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("index: ping %s: %w", driver, err)
	}
	if err := EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// EnsureSchema creates the documents table and its lookup indexes.
func EnsureSchema(ctx context.Context, db *bun.DB) error {
	if db == nil {
		return errors.New("index: database is nil")
	}
	if _, err := db.NewCreateTable().Model((*Entry)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("index: create documents table: %w", err)
	}
	for column, name := range map[string]string{
		"permalink":  "documents_permalink_idx",
		"collection": "documents_collection_idx",
	} {
		if _, err := db.NewCreateIndex().
			Model((*Entry)(nil)).
			Index(name).
			Column(column).
			IfNotExists().
			Exec(ctx); err != nil {
			return fmt.Errorf("index: create %s: %w", name, err)
		}
	}
	return nil
}
