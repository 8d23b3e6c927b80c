package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// NoCheckpoint is the sentinel Retrieve returns for an absent key.
const NoCheckpoint int64 = -1

// counterConn is the subset of *db.Conn Counters needs, narrowed so tests
// can supply a fake without a real MySQL connection.
type counterConn interface {
	Query(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	Exec(ctx context.Context, query string, args ...any) (sql.Result, error)
	NonQueryBackground(ctx context.Context, query string, errFn func(error))
}

// Counters is the checkpoint key-value store of spec.md §4.7 (component
// C7), backed by the osu_counts table.
type Counters struct {
	conn counterConn
}

// NewCounters wraps a connection for counter persistence. Writes use
// conn.NonQueryBackground to match CProcessor::StoreCount's fire-and-forget
// semantics; callers that need the write to be visible before continuing
// should use StoreSync.
func NewCounters(conn counterConn) *Counters {
	return &Counters{conn: conn}
}

// Store upserts key=value asynchronously.
func (c *Counters) Store(ctx context.Context, key string, value int64, errFn func(error)) {
	c.conn.NonQueryBackground(ctx, fmt.Sprintf(
		"INSERT INTO `osu_counts`(`name`,`count`) VALUES('%s',%d) "+
			"ON DUPLICATE KEY UPDATE `name`=VALUES(`name`),`count`=VALUES(`count`)",
		key, value,
	), errFn)
}

// StoreSync upserts key=value and waits for the write to complete, used
// where the caller's next step depends on the new value being durable
// (e.g. seeding the reprocess checkpoint before handing out work).
func (c *Counters) StoreSync(ctx context.Context, key string, value int64) error {
	_, err := c.conn.Exec(ctx, fmt.Sprintf(
		"INSERT INTO `osu_counts`(`name`,`count`) VALUES('%s',%d) "+
			"ON DUPLICATE KEY UPDATE `name`=VALUES(`name`),`count`=VALUES(`count`)",
		key, value,
	))
	if err != nil {
		return fmt.Errorf("repository: store counter %q: %w", key, err)
	}
	return nil
}

// Retrieve returns the stored value for key, or NoCheckpoint if absent.
func (c *Counters) Retrieve(ctx context.Context, key string) (int64, error) {
	rows, err := c.conn.Query(ctx, fmt.Sprintf("SELECT `count` FROM `osu_counts` WHERE `name`='%s'", key))
	if err != nil {
		return NoCheckpoint, fmt.Errorf("repository: retrieve counter %q: %w", key, err)
	}
	defer rows.Close()

	for rows.Next() {
		var value *int64
		if err := rows.Scan(&value); err != nil {
			return NoCheckpoint, fmt.Errorf("repository: scan counter row: %w", err)
		}
		if value != nil {
			return *value, nil
		}
	}
	if err := rows.Err(); err != nil {
		return NoCheckpoint, fmt.Errorf("repository: iterate counter rows: %w", err)
	}
	return NoCheckpoint, nil
}
