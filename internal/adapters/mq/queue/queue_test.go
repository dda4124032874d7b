package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okian/telcoguard/internal/domain/model"
)

func job(i int) Job {
	return Job{Index: i, Profile: model.CustomerProfile{TenureMonths: i}}
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
	if c := q.Cap(); c != 2 {
		t.Errorf("expected capacity 2, got %d", c)
	}

	if !q.Enqueue(ctx, job(7)) {
		t.Error("expected enqueue to succeed")
	}
	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	got := <-q.Dequeue(ctx)
	if got.Index != 7 || got.Profile.TenureMonths != 7 {
		t.Errorf("expected job 7, got %+v", got)
	}
	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if !q.Enqueue(ctx, job(1)) || !q.Enqueue(ctx, job(2)) {
		t.Fatal("expected first two enqueues to succeed")
	}
	if q.Enqueue(ctx, job(3)) {
		t.Error("expected enqueue to fail when full")
	}
	if l := q.Len(ctx); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}
}

func TestInMemoryQueue_EnqueueAll(t *testing.T) {
	ctx := context.Background()

	t.Run("all fit", func(t *testing.T) {
		q := NewInMemoryQueue(WithCapacity(3))
		if err := q.EnqueueAll(ctx, []Job{job(0), job(1), job(2)}); err != nil {
			t.Fatalf("expected batch to fit, got %v", err)
		}
		if l := q.Len(ctx); l != 3 {
			t.Errorf("expected length 3, got %d", l)
		}
	})

	t.Run("none enqueued when the batch does not fit", func(t *testing.T) {
		q := NewInMemoryQueue(WithCapacity(3))
		q.Enqueue(ctx, job(9))
		err := q.EnqueueAll(ctx, []Job{job(0), job(1), job(2)})
		if !errors.Is(err, ErrFull) {
			t.Fatalf("expected ErrFull, got %v", err)
		}
		if l := q.Len(ctx); l != 1 {
			t.Errorf("expected length 1 after rejection, got %d", l)
		}
	})

	t.Run("closed queue", func(t *testing.T) {
		q := NewInMemoryQueue(WithCapacity(3))
		_ = q.Close()
		if err := q.EnqueueAll(ctx, []Job{job(0)}); !errors.Is(err, ErrClosed) {
			t.Errorf("expected ErrClosed, got %v", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		q := NewInMemoryQueue(WithCapacity(3))
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		if err := q.EnqueueAll(cctx, []Job{job(0)}); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

func TestJob_Abandoned(t *testing.T) {
	if job(0).Abandoned() {
		t.Error("job without Done should never be abandoned")
	}
	done := make(chan struct{})
	j := Job{Done: done}
	if j.Abandoned() {
		t.Error("expected job to be live before Done closes")
	}
	close(done)
	if !j.Abandoned() {
		t.Error("expected job to be abandoned after Done closes")
	}
}

func TestInMemoryQueue_ConcurrentAccess(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(100))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	producers, perProducer := 10, 100

	var consumed sync.WaitGroup
	consumed.Add(producers * perProducer)
	for i := 0; i < producers; i++ {
		go func() {
			for range q.Dequeue(ctx) {
				consumed.Done()
			}
		}()
	}

	var produced sync.WaitGroup
	for i := 0; i < producers; i++ {
		produced.Add(1)
		go func(id int) {
			defer produced.Done()
			for j := 0; j < perProducer; j++ {
				for !q.Enqueue(ctx, job(id*perProducer+j)) {
					time.Sleep(time.Millisecond)
				}
			}
		}(i)
	}
	produced.Wait()

	waited := make(chan struct{})
	go func() {
		consumed.Wait()
		close(waited)
	}()
	select {
	case <-waited:
	case <-time.After(5 * time.Second):
		t.Fatal("consumers did not drain the queue")
	}
	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected final length 0, got %d", l)
	}
}

func TestInMemoryQueue_GracefulShutdown(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(10))
	ctx := context.Background()

	if !q.Enqueue(ctx, job(1)) || !q.Enqueue(ctx, job(2)) {
		t.Fatal("expected enqueue to succeed")
	}
	if q.IsClosed() {
		t.Error("expected queue to be open initially")
	}
	if err := q.Close(); err != nil {
		t.Errorf("expected close to succeed, got error: %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to be closed after Close()")
	}
	if q.Enqueue(ctx, job(3)) {
		t.Error("expected enqueue to fail after closing")
	}

	// Queued jobs are still delivered before the channel closes.
	var got []int
	timeout := time.After(time.Second)
	ch := q.Dequeue(ctx)
	for done := false; !done; {
		select {
		case j, ok := <-ch:
			if !ok {
				done = true
				break
			}
			got = append(got, j.Index)
		case <-timeout:
			t.Fatal("expected dequeue channel to close")
		}
	}
	if len(got) != 2 {
		t.Errorf("expected 2 drained jobs, got %v", got)
	}

	if err := q.Close(); err != nil {
		t.Errorf("expected second close to succeed, got error: %v", err)
	}
}
