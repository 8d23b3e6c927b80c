// Package batch implements the update batcher (spec.md §4.4, component C4):
// accumulates SQL statements and flushes them against a db.Conn either when
// a size threshold is crossed or on explicit commit.
package batch

import (
	"context"
	"database/sql"
	"strings"
	"sync"

	"github.com/okian/osupp/pkg/logger"
)

// execer is the subset of *db.Conn a Batcher needs, narrowed so tests can
// supply a fake without standing up a real MySQL connection.
type execer interface {
	Exec(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Batcher accumulates SQL statements and flushes them in one round trip.
// Mu is exported so a caller (the per-user pipeline) can hold it across
// several Append calls so no other caller's statements interleave with them,
// e.g. every UPDATE for one user's scores (spec.md §4.5 step 3). Holding Mu
// does not delay a threshold flush: such a run can still be split across two
// flushes.
type Batcher struct {
	Mu sync.Mutex

	conn      execer
	log       logger.Logger
	threshold int

	statements []string
}

// New constructs a Batcher against conn. threshold is the statement count at
// which Append triggers an automatic flush; zero means "flush after every
// append".
func New(conn execer, threshold int, opts ...Option) *Batcher {
	b := &Batcher{
		conn:      conn,
		threshold: threshold,
		log:       logger.Named("batch"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Append stages one SQL statement. If the accumulated count reaches the
// threshold, it flushes immediately. Callers appending multiple statements
// that must stay contiguous should hold Mu for the duration.
func (b *Batcher) Append(ctx context.Context, statement string) error {
	b.statements = append(b.statements, statement)
	if b.threshold <= 0 || len(b.statements) >= b.threshold {
		return b.flushLocked(ctx)
	}
	return nil
}

// AppendAndCommit stages statement and flushes unconditionally, regardless
// of the configured threshold. Used for the single per-user UPDATE that must
// be visible before the pipeline moves to the next user (spec.md §4.4).
func (b *Batcher) AppendAndCommit(ctx context.Context, statement string) error {
	b.statements = append(b.statements, statement)
	return b.flushLocked(ctx)
}

// Flush forces out any statements accumulated so far, even below threshold.
func (b *Batcher) Flush(ctx context.Context) error {
	return b.flushLocked(ctx)
}

// Pending reports how many statements are staged but not yet flushed.
func (b *Batcher) Pending() int {
	return len(b.statements)
}

func (b *Batcher) flushLocked(ctx context.Context) error {
	if len(b.statements) == 0 {
		return nil
	}

	batch := strings.Join(b.statements, ";\n")
	b.statements = b.statements[:0]

	if _, err := b.conn.Exec(ctx, batch); err != nil {
		b.log.Error(ctx, "batch flush failed", logger.Error(err), logger.Int("statements", strings.Count(batch, ";\n")+1))
		return err
	}
	return nil
}
