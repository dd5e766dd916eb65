package entity

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/semaphore"
)

// ErrMutexNotOwned is returned when releasing a Mutex that is not held by
// the caller.
var ErrMutexNotOwned = errors.New("mutex is not owned by the caller")

// Mutex is an AML mutex. AML mutexes are recursive: an owner that already
// holds the mutex may acquire it again and must release it the same number
// of times. Owners are opaque comparable values; the interpreter uses its
// own instance while host code picks any other token.
type Mutex struct {
	SyncLevel uint8

	once  sync.Once
	sem   *semaphore.Weighted
	mu    sync.Mutex
	owner interface{}
	depth int
}

// Type implements Value.
func (*Mutex) Type() Type { return TypeMutex }

func (m *Mutex) init() {
	m.once.Do(func() { m.sem = semaphore.NewWeighted(1) })
}

// Acquire blocks until the mutex is acquired by owner or ctx is done. It
// returns false if the mutex could not be acquired.
func (m *Mutex) Acquire(ctx context.Context, owner interface{}) bool {
	m.init()

	m.mu.Lock()
	if m.depth > 0 && m.owner == owner {
		m.depth++
		m.mu.Unlock()
		return true
	}
	m.mu.Unlock()

	if err := m.sem.Acquire(ctx, 1); err != nil {
		return false
	}

	m.mu.Lock()
	m.owner, m.depth = owner, 1
	m.mu.Unlock()
	return true
}

// Release releases one level of ownership held by owner.
func (m *Mutex) Release(owner interface{}) error {
	m.init()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.depth == 0 || m.owner != owner {
		return ErrMutexNotOwned
	}

	if m.depth--; m.depth == 0 {
		m.owner = nil
		m.sem.Release(1)
	}
	return nil
}

// Held returns true if the mutex is currently owned.
func (m *Mutex) Held() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.depth > 0
}

// Event is an AML event: a counting semaphore that starts unsignaled.
type Event struct {
	mu      sync.Mutex
	pending uint64
	wakeCh  chan struct{}
}

// Type implements Value.
func (*Event) Type() Type { return TypeEvent }

// Signal increments the signal count and wakes up any waiters.
func (e *Event) Signal() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.pending++
	if e.wakeCh != nil {
		close(e.wakeCh)
		e.wakeCh = nil
	}
}

// Reset clears any pending signals.
func (e *Event) Reset() {
	e.mu.Lock()
	e.pending = 0
	e.mu.Unlock()
}

// Wait blocks until the event is signaled or ctx is done. A successful wait
// consumes one signal. It returns false if ctx expired first.
func (e *Event) Wait(ctx context.Context) bool {
	for {
		e.mu.Lock()
		if e.pending > 0 {
			e.pending--
			e.mu.Unlock()
			return true
		}
		if e.wakeCh == nil {
			e.wakeCh = make(chan struct{})
		}
		wakeCh := e.wakeCh
		e.mu.Unlock()

		select {
		case <-wakeCh:
		case <-ctx.Done():
			return false
		}
	}
}
