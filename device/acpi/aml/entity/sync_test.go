package entity

import (
	"context"
	"testing"
	"time"
)

func TestMutex(t *testing.T) {
	var (
		m      Mutex
		ownerA = "A"
		ownerB = "B"
		ctx    = context.Background()
	)

	if !m.Acquire(ctx, ownerA) || !m.Acquire(ctx, ownerA) {
		t.Fatal("expected recursive acquire to succeed")
	}

	if !m.Held() {
		t.Fatal("expected mutex to be held")
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	if m.Acquire(timeoutCtx, ownerB) {
		t.Fatal("expected acquire by a different owner to time out")
	}

	if err := m.Release(ownerB); err != ErrMutexNotOwned {
		t.Fatalf("expected ErrMutexNotOwned; got %v", err)
	}

	if err := m.Release(ownerA); err != nil {
		t.Fatal(err)
	}
	if !m.Held() {
		t.Fatal("expected mutex to remain held after releasing one level")
	}

	acquired := make(chan bool)
	go func() { acquired <- m.Acquire(ctx, ownerB) }()

	if err := m.Release(ownerA); err != nil {
		t.Fatal(err)
	}

	if !<-acquired {
		t.Fatal("expected waiting owner to acquire the released mutex")
	}

	if err := m.Release(ownerB); err != nil {
		t.Fatal(err)
	}

	if err := m.Release(ownerB); err != ErrMutexNotOwned {
		t.Fatalf("expected ErrMutexNotOwned; got %v", err)
	}
}

func TestEvent(t *testing.T) {
	var ev Event

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if ev.Wait(ctx) {
		t.Fatal("expected wait on an unsignaled event to time out")
	}

	ev.Signal()
	ev.Signal()
	if !ev.Wait(context.Background()) || !ev.Wait(context.Background()) {
		t.Fatal("expected each signal to satisfy one wait")
	}

	ev.Signal()
	ev.Reset()
	ctx2, cancel2 := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel2()
	if ev.Wait(ctx2) {
		t.Fatal("expected Reset to clear pending signals")
	}

	done := make(chan bool)
	go func() { done <- ev.Wait(context.Background()) }()
	time.Sleep(5 * time.Millisecond)
	ev.Signal()
	if !<-done {
		t.Fatal("expected blocked waiter to wake up on Signal")
	}
}
