package repository

import "github.com/okian/arena/pkg/logger"

// Option applies a configuration option to the TimelineStore.
type Option func(*TimelineStore)

// WithCapacity bounds the number of retained timelines.
func WithCapacity(n int) Option {
	return func(s *TimelineStore) {
		if n > 0 {
			s.capacity = n
		}
	}
}

// WithDecimationFactor keeps every n-th frame on save.
func WithDecimationFactor(n int) Option {
	return func(s *TimelineStore) {
		if n > 0 {
			s.factor = n
		}
	}
}

// WithBackend sets the blob backend. The store takes ownership and closes it.
func WithBackend(b Backend) Option {
	return func(s *TimelineStore) {
		if b != nil {
			s.backend = b
		}
	}
}

// WithCompressionLevel sets the zstd level of the blob codec.
func WithCompressionLevel(level int) Option {
	return func(s *TimelineStore) {
		if level > 0 {
			s.level = level
		}
	}
}

// WithLogger sets the store logger.
func WithLogger(l logger.Logger) Option {
	return func(s *TimelineStore) {
		if l != nil {
			s.logger = l
		}
	}
}
