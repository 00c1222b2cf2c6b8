// Package sink mirrors job results to the result store webhook. Delivery is
// fire-and-forget: the caller's job never waits for or fails on it.
package sink

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/okian/agentpulse/internal/adapters/mq/queue"
	"github.com/okian/agentpulse/internal/adapters/mq/worker"
	"github.com/okian/agentpulse/internal/domain/dedupe"
	"github.com/okian/agentpulse/internal/domain/model"
	"github.com/okian/agentpulse/pkg/logger"
	"github.com/okian/agentpulse/pkg/metrics"
)

const (
	defaultTimeout    = 5 * time.Second
	defaultQueueSize  = 256
	defaultDedupeSize = 1024
	defaultWorkers    = 2
)

// Outcomes recorded for results that never reach a worker.
const (
	OutcomeSkipped   = "skipped"
	OutcomeDuplicate = "duplicate"
	OutcomeDropped   = "dropped"
)

// Sink accepts results and delivers them in the background.
type Sink struct {
	queue  *queue.InMemoryQueue
	pool   *worker.Pool
	seen   dedupe.Deduper
	poster worker.Poster
	logger logger.Logger
	now    func() time.Time

	url        string
	secret     string
	timeout    time.Duration
	queueSize  int
	dedupeSize int
	workers    int
}

// New creates a sink. Without a webhook URL the sink is disabled and every
// result is skipped.
func New(opts ...Option) *Sink {
	s := &Sink{
		now:        time.Now,
		timeout:    defaultTimeout,
		queueSize:  defaultQueueSize,
		dedupeSize: defaultDedupeSize,
		workers:    defaultWorkers,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("sink")
	}
	if !s.Enabled() {
		return s
	}
	if s.poster == nil {
		s.poster = NewWebhookPoster(s.url, s.secret, s.timeout, nil)
	}
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.seen = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.pool = worker.NewPool(s.workers, s.queue, s.poster)
	return s
}

// Enabled reports whether a webhook is configured.
func (s *Sink) Enabled() bool {
	return s.url != ""
}

// Start launches the delivery workers.
func (s *Sink) Start(ctx context.Context) {
	if !s.Enabled() {
		s.logger.Info(ctx, "webhook URL not configured, result delivery disabled")
		return
	}
	s.pool.Start(ctx)
}

// Deliver queues r for delivery and returns immediately. It never blocks on
// the network and never fails: problems are logged and counted.
// The returned job ID is the one the result was queued under.
func (s *Sink) Deliver(ctx context.Context, r model.Result) string { //nolint:gocritic // hugeParam: results are copied into the queue
	if r.JobID == "" {
		r.JobID = "job_" + uuid.NewString()
	}
	if r.Recommendations == nil {
		r.Recommendations = []string{}
	}
	log := s.logger.With(logger.String("job_id", r.JobID), logger.String("service", r.Service))

	if !s.Enabled() {
		metrics.RecordSinkDelivery(OutcomeSkipped)
		log.Debug(ctx, "webhook URL not configured, skipping")
		return r.JobID
	}
	if s.seen.SeenAndRecord(ctx, r.JobID) {
		metrics.RecordSinkDelivery(OutcomeDuplicate)
		log.Debug(ctx, "result already delivered")
		return r.JobID
	}
	if r.Timestamp == 0 {
		r.Timestamp = s.now().UnixMilli()
	}
	// The caller's context ends with its request; the queue must not see that.
	if !s.queue.Enqueue(context.WithoutCancel(ctx), r) {
		s.seen.Unrecord(ctx, r.JobID)
		metrics.RecordSinkDelivery(OutcomeDropped)
		log.Warn(ctx, "delivery queue full, result dropped")
	}
	return r.JobID
}

// Shutdown drains pending deliveries.
func (s *Sink) Shutdown(ctx context.Context) error {
	if !s.Enabled() {
		return nil
	}
	return s.pool.Shutdown(ctx)
}
