// Package database opens the relational store behind the application.
//
// The engine is chosen once from configuration; schema, migrations and the
// data-access layer live with the caller.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/microsoft/go-mssqldb"
	_ "modernc.org/sqlite"
)

// Provider names a relational engine.
type Provider string

const (
	Postgres  Provider = "postgres"
	SQLite    Provider = "sqlite"
	SQLServer Provider = "sqlserver"
)

var (
	ErrUnknownProvider = errors.New("database: unknown provider")
	ErrEmptyDSN        = errors.New("database: empty connection string")
)

func (p Provider) Valid() bool {
	switch p {
	case Postgres, SQLite, SQLServer:
		return true
	}
	return false
}

// Driver returns the database/sql driver name registered for p.
func (p Provider) Driver() string {
	switch p {
	case Postgres:
		return "pgx"
	case SQLite:
		return "sqlite"
	case SQLServer:
		return "sqlserver"
	}
	return ""
}

// ParseProvider accepts the provider names case-insensitively, plus the
// common aliases "postgresql", "sqlite3" and "mssql".
func ParseProvider(s string) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "sqlserver", "mssql":
		return SQLServer, nil
	}
	return "", fmt.Errorf("%w %q", ErrUnknownProvider, s)
}

// Options configures database connection pooling.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration // 0 => 5s
}

// Open opens a database for p, applies options and pings it. The handle is
// closed again when the ping fails.
func Open(ctx context.Context, p Provider, dsn string, options Options) (*sql.DB, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%w %q", ErrUnknownProvider, string(p))
	}
	if strings.TrimSpace(dsn) == "" {
		return nil, ErrEmptyDSN
	}

	db, err := sql.Open(p.Driver(), dsn)
	if err != nil {
		return nil, fmt.Errorf("database: open %s: %w", p, err)
	}

	if options.MaxOpenConns > 0 {
		db.SetMaxOpenConns(options.MaxOpenConns)
	}
	if options.MaxIdleConns > 0 {
		db.SetMaxIdleConns(options.MaxIdleConns)
	}
	if options.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(options.ConnMaxLifetime)
	}
	if options.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(options.ConnMaxIdleTime)
	}

	pingTimeout := options.PingTimeout
	if pingTimeout == 0 {
		pingTimeout = 5 * time.Second
	}

	pctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("database: ping %s: %w", p, err)
	}

	return db, nil
}

// Initialiser prepares a freshly opened database: schema first, then seed
// data. Implementations belong to the persistence layer.
type Initialiser interface {
	Initialise(ctx context.Context) error
	Seed(ctx context.Context) error
}

// Initialise runs in.Initialise followed by in.Seed.
func Initialise(ctx context.Context, in Initialiser) error {
	if err := in.Initialise(ctx); err != nil {
		return fmt.Errorf("database: initialise: %w", err)
	}
	if err := in.Seed(ctx); err != nil {
		return fmt.Errorf("database: seed: %w", err)
	}
	return nil
}
