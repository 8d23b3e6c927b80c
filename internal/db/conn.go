// Package db wraps database/sql with the resource model spec.md §5
// describes: one logical connection per worker, used sequentially, with a
// live count of in-flight queries exposed for the full-reprocess driver's
// backpressure wait (spec.md §4.6.2 step 4) and for the
// "pending queries per connection" metric (spec.md §6.4).
package db

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"

	_ "github.com/go-sql-driver/mysql" // registers the "mysql" driver
)

// Config names a single MySQL endpoint: either the replica or the master.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

// dsn builds a go-sql-driver/mysql DSN from a Config.
func (c Config) dsn() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&multiStatements=true", c.User, c.Password, c.Host, c.Port, c.Database)
}

// Conn is a single logical MySQL connection, pinned to one underlying
// connection (SetMaxOpenConns(1)) so NumPendingQueries reflects real
// backpressure on that connection rather than pool-wide concurrency.
type Conn struct {
	db      *sql.DB
	pending atomic.Int64
	label   string
}

// Open dials a new Conn. label identifies the connection in log lines
// (e.g. "master", "replica", "worker-3").
func Open(cfg Config, label string) (*Conn, error) {
	sqlDB, err := sql.Open("mysql", cfg.dsn())
	if err != nil {
		return nil, fmt.Errorf("db: open %s: %w", label, err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	return &Conn{db: sqlDB, label: label}, nil
}

// Close releases the underlying connection.
func (c *Conn) Close() error {
	return c.db.Close()
}

// NumPendingQueries returns the number of Query/Exec/NonQueryBackground
// calls currently in flight on this connection.
func (c *Conn) NumPendingQueries() int64 {
	return c.pending.Load()
}

// Query runs a read query and returns the resulting rows. Callers must
// close the returned *sql.Rows.
func (c *Conn) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	c.pending.Add(1)
	defer c.pending.Add(-1)

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db: query on %s: %w", c.label, err)
	}
	return rows, nil
}

// Exec runs a write statement synchronously and returns once it completes.
func (c *Conn) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	c.pending.Add(1)
	defer c.pending.Add(-1)

	res, err := c.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db: exec on %s: %w", c.label, err)
	}
	return res, nil
}

// NonQueryBackground fires a write statement without waiting for it,
// matching CDatabaseConnection::NonQueryBackground in the reference. Errors
// are reported to errFn instead of being returned, since the caller has
// already moved on.
func (c *Conn) NonQueryBackground(ctx context.Context, query string, errFn func(error)) {
	c.pending.Add(1)
	go func() {
		defer c.pending.Add(-1)
		if _, err := c.db.ExecContext(ctx, query); err != nil && errFn != nil {
			errFn(fmt.Errorf("db: background exec on %s: %w", c.label, err))
		}
	}()
}
