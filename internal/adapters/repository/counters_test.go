package repository

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
)

type fakeCounterConn struct {
	mu        sync.Mutex
	queryErr  error
	execErr   error
	bgCalls   []string
	execCalls []string
}

func (f *fakeCounterConn) Query(_ context.Context, query string, _ ...any) (*sql.Rows, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return nil, errors.New("fakeCounterConn: Query not wired for row scanning in this test")
}

func (f *fakeCounterConn) Exec(_ context.Context, query string, _ ...any) (sql.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.execCalls = append(f.execCalls, query)
	return nil, f.execErr
}

func (f *fakeCounterConn) NonQueryBackground(_ context.Context, query string, errFn func(error)) {
	f.mu.Lock()
	f.bgCalls = append(f.bgCalls, query)
	f.mu.Unlock()
	if f.execErr != nil && errFn != nil {
		errFn(f.execErr)
	}
}

func TestCounters_Store_FiresBackground(t *testing.T) {
	conn := &fakeCounterConn{}
	c := NewCounters(conn)

	c.Store(context.Background(), "last_score_id:osu", 42, nil)

	conn.mu.Lock()
	defer conn.mu.Unlock()
	if len(conn.bgCalls) != 1 {
		t.Fatalf("expected one background call, got %d", len(conn.bgCalls))
	}
}

func TestCounters_StoreSync_PropagatesExecError(t *testing.T) {
	conn := &fakeCounterConn{execErr: errors.New("boom")}
	c := NewCounters(conn)

	if err := c.StoreSync(context.Background(), "last_user_id:osu", 0); err == nil {
		t.Fatal("expected error from StoreSync")
	}
}

func TestCounters_Retrieve_PropagatesQueryError(t *testing.T) {
	conn := &fakeCounterConn{queryErr: errors.New("connection refused")}
	c := NewCounters(conn)

	value, err := c.Retrieve(context.Background(), "last_score_id:osu")
	if err == nil {
		t.Fatal("expected error from Retrieve")
	}
	if value != NoCheckpoint {
		t.Fatalf("value = %d, want NoCheckpoint on error", value)
	}
}
