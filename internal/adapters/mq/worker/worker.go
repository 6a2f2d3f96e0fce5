// Package worker runs forecast warm-up jobs off the queue so leaderboards
// are cached before the first request.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/okian/mvpcast/internal/adapters/mq/queue"
	"github.com/okian/mvpcast/internal/domain/types"
	"github.com/okian/mvpcast/pkg/logger"
	"github.com/okian/mvpcast/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerCount  = 2
	poolShutdownTimeout = 30 * time.Second
)

// Job is what workers read off the queue.
type Job = queue.Job

// Forecaster builds (or returns the cached) leaderboard of a season.
type Forecaster interface {
	Leaderboard(ctx context.Context, seasonEndYear int) ([]types.Entry, error)
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// Worker processes warm-up jobs.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker over a Forecaster.
type InMemoryWorker struct {
	queue      Queue
	forecaster Forecaster
	name       string

	processed atomic.Int64
	failed    atomic.Int64

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, f Forecaster, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:      q,
		forecaster: f,
		name:       "worker",
		shutdown:   make(chan struct{}),
		done:       make(chan struct{}),
		logger:     logger.Nop(),
	}

	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named(w.name)

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.process(ctx, job); err != nil {
				w.logger.Error(ctx, "warm-up failed", logger.Int("season", job.SeasonEndYear), logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) process(ctx context.Context, job Job) error {
	start := time.Now()
	entries, err := w.forecaster.Leaderboard(ctx, job.SeasonEndYear)
	if err != nil {
		w.failed.Add(1)
		metrics.RecordWarmupJob("error")
		metrics.RecordErrorByComponent("worker", "forecast")
		return fmt.Errorf("season %d: %w", job.SeasonEndYear, err)
	}
	w.processed.Add(1)
	metrics.RecordWarmupJob("success")
	w.logger.Info(ctx, "leaderboard warmed",
		logger.Int("season", job.SeasonEndYear),
		logger.Int("entries", len(entries)),
		logger.Duration("waited", start.Sub(job.Enqueued)),
		logger.Duration("took", time.Since(start)),
	)
	return nil
}

// Pool manages multiple workers sharing one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue

	logger logger.Logger
}

// NewPool creates a new worker pool.
func NewPool(workerCount int, q Queue, f Forecaster, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkerCount
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Nop(),
	}

	for i := 0; i < workerCount; i++ {
		wopts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		pool.workers[i] = NewInMemoryWorker(q, f, wopts...)
	}
	pool.logger = pool.workers[0].logger

	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, worker := range p.workers {
		go worker.Run(ctx)
	}
}

// Stats returns how many jobs succeeded and failed across the pool.
func (p *Pool) Stats() (processed, failed int64) {
	for _, w := range p.workers {
		processed += w.processed.Load()
		failed += w.failed.Load()
	}
	return processed, failed
}

// Wait blocks until every worker has exited.
func (p *Pool) Wait(ctx context.Context) error {
	for _, w := range p.workers {
		select {
		case <-w.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Shutdown closes the queue, then stops all workers.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	for _, w := range p.workers {
		close(w.shutdown)
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	return nil
}
