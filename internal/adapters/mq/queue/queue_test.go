package queue

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}

	if !q.Enqueue(ctx, Job{SeasonEndYear: 2026}) {
		t.Error("expected enqueue to succeed")
	}
	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	job := <-q.Dequeue(ctx)
	if job.SeasonEndYear != 2026 {
		t.Errorf("expected season 2026, got %d", job.SeasonEndYear)
	}
	if job.Enqueued.IsZero() {
		t.Error("expected enqueue time to be stamped")
	}
	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if !q.Enqueue(ctx, Job{SeasonEndYear: 2024}) || !q.Enqueue(ctx, Job{SeasonEndYear: 2025}) {
		t.Fatal("expected enqueue to succeed")
	}
	if q.Enqueue(ctx, Job{SeasonEndYear: 2026}) {
		t.Error("expected enqueue to fail when at capacity")
	}
}

func TestInMemoryQueue_Close(t *testing.T) {
	q := NewInMemoryQueue()
	ctx := context.Background()

	if !q.Enqueue(ctx, Job{SeasonEndYear: 2026}) {
		t.Fatal("expected enqueue to succeed")
	}
	if err := q.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := q.Close(); err != nil {
		t.Errorf("second close should be a no-op, got %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to be closed")
	}
	if q.Enqueue(ctx, Job{SeasonEndYear: 2027}) {
		t.Error("expected enqueue to fail after close")
	}

	// Jobs queued before Close are still delivered, then the channel closes.
	var got []int
	for j := range q.Dequeue(ctx) {
		got = append(got, j.SeasonEndYear)
	}
	if len(got) != 1 || got[0] != 2026 {
		t.Errorf("expected [2026], got %v", got)
	}
}

func TestInMemoryQueue_DequeueStopsOnCancel(t *testing.T) {
	q := NewInMemoryQueue()
	ctx, cancel := context.WithCancel(context.Background())
	ch := q.Dequeue(ctx)
	if !q.Enqueue(context.Background(), Job{SeasonEndYear: 2026}) {
		t.Fatal("expected enqueue to succeed")
	}
	cancel()
	_ = q.Close()

	select {
	case <-time.After(time.Second):
		t.Fatal("dequeue channel was not closed")
	case <-drain(ch):
	}
}

func TestInMemoryQueue_Concurrent(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(100))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.Enqueue(ctx, Job{SeasonEndYear: 2000 + i})
		}()
	}
	wg.Wait()

	if l := q.Len(ctx); l != 50 {
		t.Errorf("expected 50 queued jobs, got %d", l)
	}
}

func drain(ch <-chan Job) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		for range ch {
		}
		close(done)
	}()
	return done
}
