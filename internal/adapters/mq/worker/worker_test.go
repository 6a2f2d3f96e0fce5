package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	queue "github.com/okian/mvpcast/internal/adapters/mq/queue"
	worker "github.com/okian/mvpcast/internal/adapters/mq/worker"
	"github.com/okian/mvpcast/internal/domain/types"
	logging "github.com/okian/mvpcast/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

// Mock implementations for testing.
type mockQueue struct {
	jobs chan queue.Job
	once sync.Once
}

func newMockQueue() *mockQueue {
	return &mockQueue{jobs: make(chan queue.Job, 10)}
}

func (mq *mockQueue) Dequeue(ctx context.Context) <-chan queue.Job {
	return mq.jobs
}

func (mq *mockQueue) Close() error {
	mq.once.Do(func() { close(mq.jobs) })
	return nil
}

type mockForecaster struct {
	mu     sync.Mutex
	calls  []int
	errors map[int]error
}

func (m *mockForecaster) Leaderboard(ctx context.Context, year int) ([]types.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, year)
	if err, ok := m.errors[year]; ok {
		return nil, err
	}
	return []types.Entry{{Rank: 1, Player: "A", SeasonEndYear: year}}, nil
}

func (m *mockForecaster) seen() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.calls...)
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a worker over a mock queue", t, func() {
		q := newMockQueue()
		f := &mockForecaster{errors: map[int]error{2031: errors.New("missing season")}}
		w := worker.NewInMemoryWorker(q, f, worker.WithName("test"), worker.WithLogger(logging.Nop()))
		ctx := context.Background()

		convey.Convey("When jobs are queued and the queue closes", func() {
			q.jobs <- queue.Job{SeasonEndYear: 2026, Enqueued: time.Now()}
			q.jobs <- queue.Job{SeasonEndYear: 2031, Enqueued: time.Now()}
			_ = q.Close()

			done := make(chan struct{})
			go func() {
				w.Run(ctx)
				close(done)
			}()

			convey.Convey("Then every job is forecast, failures included, and the worker exits", func() {
				exited := false
				select {
				case <-done:
					exited = true
				case <-time.After(2 * time.Second):
				}
				convey.So(exited, convey.ShouldBeTrue)
				convey.So(f.seen(), convey.ShouldResemble, []int{2026, 2031})
			})
		})

		convey.Convey("When shut down while idle", func() {
			go w.Run(ctx)
			sctx, cancel := context.WithTimeout(ctx, time.Second)
			defer cancel()

			convey.Convey("Then it stops without error", func() {
				convey.So(w.Shutdown(sctx), convey.ShouldBeNil)
			})
		})
	})
}

func TestPool(t *testing.T) {
	convey.Convey("Given a pool over the in-memory queue", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(8))
		f := &mockForecaster{errors: map[int]error{2031: errors.New("missing season")}}
		pool := worker.NewPool(3, q, f, worker.WithLogger(logging.Nop()))
		ctx := context.Background()

		convey.Convey("When seasons are enqueued and the pool drains them", func() {
			pool.Start(ctx)
			for _, y := range []int{2024, 2025, 2026, 2031} {
				convey.So(q.Enqueue(ctx, queue.Job{SeasonEndYear: y}), convey.ShouldBeTrue)
			}
			convey.So(q.Close(), convey.ShouldBeNil)

			wctx, cancel := context.WithTimeout(ctx, 2*time.Second)
			defer cancel()
			convey.So(pool.Wait(wctx), convey.ShouldBeNil)

			convey.Convey("Then successes and failures are counted", func() {
				processed, failed := pool.Stats()
				convey.So(processed, convey.ShouldEqual, 3)
				convey.So(failed, convey.ShouldEqual, 1)
				convey.So(f.seen(), convey.ShouldHaveLength, 4)
			})
		})

		convey.Convey("When shutting down", func() {
			pool.Start(ctx)
			convey.So(pool.Shutdown(ctx), convey.ShouldBeNil)

			convey.Convey("Then the queue refuses new jobs", func() {
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
				convey.So(q.Enqueue(ctx, queue.Job{SeasonEndYear: 2026}), convey.ShouldBeFalse)
			})
		})

		convey.Convey("When the worker count is not positive", func() {
			p := worker.NewPool(0, q, f)
			p.Start(ctx)
			_ = q.Close()
			wctx, cancel := context.WithTimeout(ctx, 2*time.Second)
			defer cancel()
			convey.So(p.Wait(wctx), convey.ShouldBeNil)
		})
	})
}
