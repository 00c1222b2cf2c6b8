package repository

import "time"

// Option applies a configuration option to the FileStore.
type Option func(*FileStore)

// WithLimit sets how many results are kept. Older results are discarded.
func WithLimit(n int) Option {
	return func(s *FileStore) {
		if n > 0 {
			s.limit = n
		}
	}
}

// WithClock overrides the time source used to stamp results.
func WithClock(now func() time.Time) Option {
	return func(s *FileStore) {
		if now != nil {
			s.now = now
		}
	}
}
