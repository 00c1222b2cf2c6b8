package sink

import (
	"time"

	"github.com/okian/agentpulse/internal/adapters/mq/worker"
	"github.com/okian/agentpulse/pkg/logger"
)

// Option configures a Sink.
type Option func(*Sink)

// WithWebhook sets the destination URL and the bearer secret.
func WithWebhook(url, secret string) Option {
	return func(s *Sink) {
		s.url = url
		s.secret = secret
	}
}

// WithTimeout sets the per-delivery timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Sink) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithQueueSize sets how many results may wait for delivery.
func WithQueueSize(n int) Option {
	return func(s *Sink) {
		if n > 0 {
			s.queueSize = n
		}
	}
}

// WithDedupeSize sets how many job IDs are remembered for duplicate suppression.
func WithDedupeSize(n int) Option {
	return func(s *Sink) {
		if n > 0 {
			s.dedupeSize = n
		}
	}
}

// WithWorkers sets the number of delivery workers.
func WithWorkers(n int) Option {
	return func(s *Sink) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithPoster replaces the webhook poster.
func WithPoster(p worker.Poster) Option {
	return func(s *Sink) {
		if p != nil {
			s.poster = p
		}
	}
}

// WithLogger sets the sink logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Sink) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the time source used to stamp results.
func WithClock(now func() time.Time) Option {
	return func(s *Sink) {
		if now != nil {
			s.now = now
		}
	}
}
