package session

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// fifoLock is a mutex whose waiters acquire it in arrival order. Waiting
// is canceled with the context, and a canceled waiter leaves the queue.
type fifoLock struct {
	sem     *semaphore.Weighted
	waiting atomic.Int32
}

func newFIFOLock() *fifoLock {
	return &fifoLock{sem: semaphore.NewWeighted(1)}
}

// Lock blocks until the lock is held or ctx is done.
func (l *fifoLock) Lock(ctx context.Context) error {
	l.waiting.Add(1)
	defer l.waiting.Add(-1)
	return l.sem.Acquire(ctx, 1)
}

// Waiting reports how many callers are inside Lock.
func (l *fifoLock) Waiting() int {
	return int(l.waiting.Load())
}

// Unlock hands the lock to the longest waiting caller, if any.
func (l *fifoLock) Unlock() {
	l.sem.Release(1)
}

// lockTable holds one fifoLock per project. Locks are created on first use
// and kept for the life of the process.
type lockTable struct {
	mu    sync.Mutex
	locks map[string]*fifoLock
}

func newLockTable() *lockTable {
	return &lockTable{locks: make(map[string]*fifoLock)}
}

func (t *lockTable) get(projectID string) *fifoLock {
	t.mu.Lock()
	defer t.mu.Unlock()

	lock, ok := t.locks[projectID]
	if !ok {
		lock = newFIFOLock()
		t.locks[projectID] = lock
	}
	return lock
}
