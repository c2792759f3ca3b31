package database

import (
	"context"
	"database/sql"
	"time"
)

// Interceptor observes every statement run through an Intercepted handle.
type Interceptor func(ctx context.Context, query string, args []any, duration time.Duration, err error)

// QueryDB is the subset of *sql.DB and *sql.Tx used by the data layer.
type QueryDB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var _ QueryDB = (*sql.DB)(nil)

// Intercepted wraps a QueryDB and reports each statement to its interceptors
// in order.
type Intercepted struct {
	DB           QueryDB
	Interceptors []Interceptor
}

var _ QueryDB = Intercepted{}

func Intercept(db QueryDB, in ...Interceptor) Intercepted {
	return Intercepted{DB: db, Interceptors: in}
}

func (i Intercepted) emit(ctx context.Context, query string, args []any, start time.Time, err error) {
	d := time.Since(start)
	for _, f := range i.Interceptors {
		f(ctx, query, args, d, err)
	}
}

func (i Intercepted) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	start := time.Now()
	res, err := i.DB.ExecContext(ctx, query, args...)
	i.emit(ctx, query, args, start, err)
	return res, err
}

func (i Intercepted) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	start := time.Now()
	rows, err := i.DB.QueryContext(ctx, query, args...)
	i.emit(ctx, query, args, start, err)
	return rows, err
}

// QueryRowContext reports a nil error; the row's error surfaces on Scan.
func (i Intercepted) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	start := time.Now()
	row := i.DB.QueryRowContext(ctx, query, args...)
	i.emit(ctx, query, args, start, nil)
	return row
}
