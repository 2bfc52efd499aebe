// Package store provides the relational persistence layer for
// Holdfast: a driver-selecting DB wrapper, goose migrations, and a
// repository per entity (players, rooms, game objects, monster
// templates, session history). Unlike the teacher, which persists
// world state to ad hoc JSON files, every entity here round-trips
// through these repositories.
package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// DB wraps a database/sql handle along with the dialect it was opened
// with, since goose needs to know which SQL dialect to validate
// against.
type DB struct {
	*sql.DB
	dialect string
}

// Open opens a database connection. dsn beginning with "postgres://"
// or "postgresql://" selects the pgx stdlib driver; anything else is
// treated as a sqlite3 DSN (including the default "file:holdfast.db").
func Open(dsn string) (*DB, error) {
	driver := "sqlite3"
	dialect := "sqlite3"
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		driver = "pgx"
		dialect = "postgres"
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if driver == "sqlite3" {
		// sqlite3's driver serializes writers internally; a single
		// connection avoids "database is locked" under concurrent
		// access from multiple goroutines.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
	}
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &DB{DB: db, dialect: dialect}, nil
}

// Migrate applies all pending goose migrations embedded in this
// package.
func (d *DB) Migrate(ctx context.Context) error {
	goose.SetBaseFS(migrationFS)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect(d.dialect); err != nil {
		return fmt.Errorf("set migration dialect: %w", err)
	}

	if err := goose.UpContext(ctx, d.DB, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// Health pings the underlying connection.
func (d *DB) Health(ctx context.Context) error {
	return d.PingContext(ctx)
}

// WithTx runs fn inside a transaction, rolling back on error or panic.
func (d *DB) WithTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := d.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}
