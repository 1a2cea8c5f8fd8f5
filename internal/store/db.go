// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package store holds the relational schema and every query the blog runs.
package store

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/pressly/goose/v3"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

//go:embed migrations/sqlite/*.sql migrations/mysql/*.sql
var migrations embed.FS

// Supported database drivers.
const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

var (
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = errors.New("store: not found")
	// ErrDuplicate is returned when a unique constraint is violated.
	ErrDuplicate = errors.New("store: duplicate")
)

// DBConfig holds connection pool options.
type DBConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DefaultDBConfig returns pool defaults for the given driver.
func DefaultDBConfig(driver string) DBConfig {
	if driver == DriverMySQL {
		return DBConfig{
			MaxOpenConns:    25,
			MaxIdleConns:    10,
			ConnMaxLifetime: 5 * time.Minute,
			ConnMaxIdleTime: 5 * time.Minute,
		}
	}
	// WAL allows concurrent readers with a single writer.
	return DBConfig{
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
		ConnMaxIdleTime: 5 * time.Minute,
	}
}

// sqlitePragmas are applied on every pooled connection through the DSN.
var sqlitePragmas = []string{
	"journal_mode(WAL)",
	"busy_timeout(5000)",
	"synchronous(NORMAL)",
	"foreign_keys(1)",
	"temp_store(MEMORY)",
}

// SQLiteDSN builds a modernc DSN for a file path. Times are stored in the
// sqlite text format so pub_date comparisons work on the raw column.
func SQLiteDSN(path string) string {
	q := url.Values{}
	for _, p := range sqlitePragmas {
		q.Add("_pragma", p)
	}
	q.Set("_time_format", "sqlite")
	return "file:" + path + "?" + q.Encode()
}

// MySQLDSN normalises a MySQL DSN so DATETIME columns scan into time.Time in UTC.
func MySQLDSN(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("parsing mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.ClientFoundRows = true
	cfg.Loc = time.UTC
	if cfg.Params == nil {
		cfg.Params = map[string]string{}
	}
	cfg.Params["time_zone"] = "'+00:00'"
	return cfg.FormatDSN(), nil
}

// NewDB opens a SQLite database file with the default pool configuration.
func NewDB(path string) (*sql.DB, error) {
	return Open(DriverSQLite, path, DefaultDBConfig(DriverSQLite))
}

// Open connects to the configured database. For sqlite, source is a file
// path; for mysql it is a DSN.
func Open(driver, source string, cfg DBConfig) (*sql.DB, error) {
	var dsn string
	switch driver {
	case DriverSQLite, "":
		driver = DriverSQLite
		dsn = SQLiteDSN(source)
	case DriverMySQL:
		var err error
		if dsn, err = MySQLDSN(source); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return db, nil
}

// Migrate runs all pending migrations for the given driver.
func Migrate(db *sql.DB, driver string) error {
	dialect, dir := "sqlite3", "migrations/sqlite"
	if driver == DriverMySQL {
		dialect, dir = "mysql", "migrations/mysql"
	}

	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("setting dialect: %w", err)
	}

	if err := goose.Up(db, dir); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	return nil
}

// Optimize lets SQLite refresh query planner statistics. It is a no-op on MySQL.
func Optimize(db *sql.DB, driver string) error {
	if driver == DriverMySQL {
		return nil
	}
	if _, err := db.Exec("PRAGMA optimize"); err != nil {
		return fmt.Errorf("optimizing database: %w", err)
	}
	return nil
}

// notFound maps sql.ErrNoRows to ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return err
}

// duplicate maps unique constraint violations from either driver to ErrDuplicate.
func duplicate(err error) error {
	if err == nil {
		return nil
	}
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("%w: %w", ErrDuplicate, err)
		}
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
		return fmt.Errorf("%w: %w", ErrDuplicate, err)
	}
	return err
}
