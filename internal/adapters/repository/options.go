package repository

import "time"

const defaultMaxReports = 1_000

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithMaxReports bounds how many reports are kept. The oldest report is
// evicted first.
func WithMaxReports(n int) Option {
	return func(s *MemoryStore) {
		if n > 0 {
			s.maxReports = n
		}
	}
}

// WithClock overrides the time source used for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}
