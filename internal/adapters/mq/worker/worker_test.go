package worker

import (
	"testing"

	"github.com/okian/osupp/internal/db"
)

// openTestConn opens a Conn against a syntactically valid but unreachable
// DSN. go-sql-driver/mysql validates the DSN eagerly but only dials lazily,
// so this never touches the network.
func openTestConn(t *testing.T, label string) *db.Conn {
	t.Helper()
	conn, err := db.Open(db.Config{Host: "127.0.0.1", Port: 3306, User: "test", Password: "test", Database: "test"}, label)
	if err != nil {
		t.Fatalf("db.Open: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestPool_DispatchRoundRobin(t *testing.T) {
	w0 := &Worker{name: "w0", jobs: make(chan Job, 1)}
	w1 := &Worker{name: "w1", jobs: make(chan Job, 1)}
	p := &Pool{workers: []*Worker{w0, w1}}

	p.Dispatch(Job{UserID: 1})
	p.Dispatch(Job{UserID: 2})
	p.Dispatch(Job{UserID: 3})

	select {
	case j := <-w0.jobs:
		if j.UserID != 1 {
			t.Fatalf("w0 first job = %d, want 1", j.UserID)
		}
	default:
		t.Fatal("expected a job queued on w0")
	}
	select {
	case j := <-w1.jobs:
		if j.UserID != 2 {
			t.Fatalf("w1 job = %d, want 2", j.UserID)
		}
	default:
		t.Fatal("expected a job queued on w1")
	}
	select {
	case j := <-w0.jobs:
		if j.UserID != 3 {
			t.Fatalf("w0 second job = %d, want 3", j.UserID)
		}
	default:
		t.Fatal("expected dispatch to wrap back around to w0")
	}
}

func TestPool_IdleReflectsQueueAndActiveJobs(t *testing.T) {
	w := &Worker{
		name:  "w0",
		query: openTestConn(t, "query"),
		write: openTestConn(t, "write"),
		jobs:  make(chan Job, 4),
	}
	p := &Pool{workers: []*Worker{w}, metrics: nil}

	if !p.Idle() {
		t.Fatal("pool with no queued or active jobs should be idle")
	}

	w.jobs <- Job{UserID: 1}
	if p.Idle() {
		t.Fatal("pool with a queued job should not be idle")
	}
	<-w.jobs

	w.active.Add(1)
	if p.Idle() {
		t.Fatal("pool with an active job should not be idle")
	}
	w.active.Add(-1)

	if !p.Idle() {
		t.Fatal("pool should return to idle once drained")
	}
}

func TestWorker_TasksInSystemCountsQueuedAndActive(t *testing.T) {
	w := &Worker{jobs: make(chan Job, 4)}
	if w.tasksInSystem() != 0 {
		t.Fatalf("tasksInSystem = %d, want 0", w.tasksInSystem())
	}

	w.jobs <- Job{UserID: 1}
	w.jobs <- Job{UserID: 2}
	w.active.Add(1)

	if got := w.tasksInSystem(); got != 3 {
		t.Fatalf("tasksInSystem = %d, want 3", got)
	}
}
