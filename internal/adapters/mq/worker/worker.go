// Package worker delivers queued results in the background.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/okian/agentpulse/internal/adapters/mq/queue"
	"github.com/okian/agentpulse/pkg/logger"
	"github.com/okian/agentpulse/pkg/metrics"
)

const (
	defaultWorkers      = 2
	poolShutdownTimeout = 10 * time.Second
)

// Delivery outcomes, used as metric labels.
const (
	OutcomeDelivered = "delivered"
	OutcomeFailed    = "failed"
)

// Poster sends one result to its destination.
type Poster interface {
	Post(ctx context.Context, item queue.Item) error
}

// Queue defines how workers receive items.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Item
}

// Worker drains a queue until it is closed or stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue is drained.
	Run(ctx context.Context)

	// Shutdown stops the worker without draining.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker posts every dequeued item once. Failures are logged and
// counted, never retried.
type InMemoryWorker struct {
	queue  Queue
	poster Poster
	name   string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker.
func NewInMemoryWorker(q Queue, poster Poster, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		poster:   poster,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	items := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case item, ok := <-items:
			if !ok {
				return
			}
			w.deliver(ctx, item)
		}
	}
}

// Shutdown stops the worker and waits for its loop to exit.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	select {
	case <-w.shutdown:
	default:
		close(w.shutdown)
	}

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) deliver(ctx context.Context, item queue.Item) { //nolint:gocritic // hugeParam: items arrive by value
	start := time.Now()
	err := w.poster.Post(ctx, item)
	metrics.RecordSinkLatency(float64(time.Since(start).Milliseconds()))

	if err != nil {
		metrics.RecordSinkDelivery(OutcomeFailed)
		metrics.RecordErrorByComponent("sink", "delivery_failed")
		w.logger.Warn(ctx, "result delivery failed",
			logger.String("job_id", item.JobID),
			logger.String("service", item.Service),
			logger.Error(err),
		)
		return
	}
	metrics.RecordSinkDelivery(OutcomeDelivered)
	w.logger.Debug(ctx, "result delivered",
		logger.String("job_id", item.JobID),
		logger.String("service", item.Service),
	)
}

// Pool runs several workers over one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates a worker pool. workerCount < 1 uses the default.
func NewPool(workerCount int, q Queue, poster Poster) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkers
	}
	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := range p.workers {
		p.workers[i] = NewInMemoryWorker(q, poster, WithName("sink-worker-"+strconv.Itoa(i)))
	}
	metrics.UpdateSinkWorkers(workerCount)
	return p
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue and lets the workers drain it. Workers still
// busy when ctx (or the pool timeout) expires are stopped.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	drainCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var err error
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-drainCtx.Done():
			p.logger.Warn(ctx, "worker drain timed out", logger.Int("worker_id", i))
			if serr := w.Shutdown(ctx); serr != nil && err == nil {
				err = serr
			}
		}
	}
	metrics.UpdateSinkWorkers(0)
	return err
}
