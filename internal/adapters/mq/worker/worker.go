// Package worker implements the full-reprocess fan-out of spec.md §4.6.2
// (component C6): a fixed pool of workers, each owning its own pair of
// database connections (one for reads, one for the batched writes it
// drives), mirroring CProcessor::ProcessAllUsers's per-thread
// databaseConnections slice and thread-local slave connection.
package worker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/osupp/internal/adapters/batch"
	"github.com/okian/osupp/internal/db"
	"github.com/okian/osupp/pkg/logger"
	"github.com/okian/osupp/pkg/metrics"
)

const (
	defaultQueueDepth    = 4096
	metricsPushInterval  = 5 * time.Second
	workerDrainTimeout   = 30 * time.Second
)

// Job is one unit of reprocessing work: recompute every score for UserID.
type Job struct {
	UserID int64
}

// ProcessFunc processes one job against a worker's own connections and
// batchers. It mirrors ProcessSingleUser's (queryConn, writeConn,
// newUsers, newScores, userId) parameter list.
type ProcessFunc func(ctx context.Context, queryConn, writeConn *db.Conn, newUsers, newScores *batch.Batcher, userID int64) error

// Option configures a Worker at construction time.
type Option func(*Worker)

// WithLogger overrides a worker's logger.
func WithLogger(log logger.Logger) Option {
	return func(w *Worker) {
		if log != nil {
			w.log = log
		}
	}
}

// Worker owns one master connection (batched writes) and one replica
// connection (reads), living for the duration of a single full-reprocess
// run.
type Worker struct {
	name string

	query *db.Conn
	write *db.Conn

	newUsers  *batch.Batcher
	newScores *batch.Batcher
	process   ProcessFunc

	jobs   chan Job
	active atomic.Int64
	done   chan struct{}
	log    logger.Logger
}

func newWorker(name string, query, write *db.Conn, batchThreshold int, process ProcessFunc, opts ...Option) *Worker {
	w := &Worker{
		name:      name,
		query:     query,
		write:     write,
		newUsers:  batch.New(write, batchThreshold),
		newScores: batch.New(write, batchThreshold),
		process:   process,
		jobs:      make(chan Job, defaultQueueDepth),
		done:      make(chan struct{}),
		log:       logger.Named("worker").Named(name),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Worker) run(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-w.jobs:
			if !ok {
				return
			}
			w.active.Add(1)
			if err := w.process(ctx, w.query, w.write, w.newUsers, w.newScores, job.UserID); err != nil {
				w.log.Error(ctx, "process user failed", logger.Int64("user_id", job.UserID), logger.Error(err))
			}
			w.active.Add(-1)
		}
	}
}

// pendingQueries sums the in-flight query counters of both connections this
// worker owns.
func (w *Worker) pendingQueries() int64 {
	return w.query.NumPendingQueries() + w.write.NumPendingQueries()
}

// tasksInSystem counts queued-but-unstarted plus currently-processing jobs,
// mirroring CThreadPool::GetNumTasksInSystem.
func (w *Worker) tasksInSystem() int64 {
	return int64(len(w.jobs)) + w.active.Load()
}

func (w *Worker) close() {
	_ = w.query.Close()
	_ = w.write.Close()
}

// Pool fans reprocessing work out across a fixed number of workers, each
// with its own pair of connections (spec.md §4.6.2, §5's "each worker owns
// its own connection" resource model).
type Pool struct {
	mode    string
	workers []*Worker
	next    int
	mu      sync.Mutex

	metrics *metrics.Manager
	log     logger.Logger

	stop chan struct{}
	wg   sync.WaitGroup
}

// NewPool opens numWorkers pairs of (master, replica) connections and
// builds one Worker per pair. numWorkers is clamped to at least 1.
func NewPool(masterCfg, replicaCfg db.Config, numWorkers, batchThreshold int, mode string, process ProcessFunc, opts ...Option) (*Pool, error) {
	if numWorkers < 1 {
		numWorkers = 1
	}

	p := &Pool{
		mode:    mode,
		metrics: metrics.Global(),
		log:     logger.Named("worker-pool"),
		stop:    make(chan struct{}),
	}

	for i := 0; i < numWorkers; i++ {
		name := fmt.Sprintf("worker-%d", i)

		write, err := db.Open(masterCfg, name+"-master")
		if err != nil {
			p.closeOpened()
			return nil, fmt.Errorf("worker: open master connection %d: %w", i, err)
		}
		query, err := db.Open(replicaCfg, name+"-replica")
		if err != nil {
			_ = write.Close()
			p.closeOpened()
			return nil, fmt.Errorf("worker: open replica connection %d: %w", i, err)
		}

		p.workers = append(p.workers, newWorker(name, query, write, batchThreshold, process, opts...))
	}

	return p, nil
}

func (p *Pool) closeOpened() {
	for _, w := range p.workers {
		w.close()
	}
}

// Start launches every worker's run loop plus a background ticker that
// pushes aggregate pending-query counts into the metrics manager.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		p.wg.Add(1)
		go func(w *Worker) {
			defer p.wg.Done()
			w.run(ctx)
		}(w)
	}
	go p.reportMetrics(ctx)
}

func (p *Pool) reportMetrics(ctx context.Context) {
	ticker := time.NewTicker(metricsPushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stop:
			return
		case <-ticker.C:
			p.metrics.PendingQueries(p.mode, "background", p.PendingQueries())
		}
	}
}

// Dispatch enqueues job on the next worker in round-robin order, mirroring
// ProcessAllUsers's currentConnection cycling.
func (p *Pool) Dispatch(job Job) {
	p.mu.Lock()
	w := p.workers[p.next]
	p.next = (p.next + 1) % len(p.workers)
	p.mu.Unlock()

	w.jobs <- job
}

// PendingQueries sums in-flight queries across every worker's connections.
func (p *Pool) PendingQueries() int64 {
	var total int64
	for _, w := range p.workers {
		total += w.pendingQueries()
	}
	return total
}

// Idle reports whether every worker has no queued or in-flight jobs and no
// pending database queries: the backpressure condition ProcessAllUsers
// waits on before advancing and persisting its checkpoint (spec.md §4.6.2).
func (p *Pool) Idle() bool {
	for _, w := range p.workers {
		if w.tasksInSystem() > 0 {
			return false
		}
	}
	return p.PendingQueries() == 0
}

// Stop closes every worker's job channel, waits (up to a timeout) for
// in-flight jobs to drain, then closes every connection.
func (p *Pool) Stop() {
	close(p.stop)
	for _, w := range p.workers {
		close(w.jobs)
	}

	waitDone := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(waitDone)
	}()

	select {
	case <-waitDone:
	case <-time.After(workerDrainTimeout):
		p.log.Warn(context.Background(), "worker pool drain timed out")
	}

	p.closeOpened()
}
