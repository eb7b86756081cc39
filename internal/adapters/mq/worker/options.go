package worker

import (
	"github.com/okian/arena/internal/domain/model"
	"github.com/okian/arena/pkg/logger"
)

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithOnError registers a callback for timelines the saver rejected.
func WithOnError(fn func(tl *model.Timeline, err error)) Option {
	return func(w *InMemoryWorker) {
		w.onError = fn
	}
}
