package recorder

import (
	"time"

	"github.com/okian/arena/internal/domain/highlight"
	"github.com/okian/arena/internal/domain/scoring"
	"github.com/okian/arena/pkg/logger"
)

// Option applies a configuration option to the Recorder.
type Option func(*Recorder)

// WithSampleInterval sets the minimum spacing between accepted frames, in ms.
func WithSampleInterval(ms int64) Option {
	return func(r *Recorder) {
		if ms > 0 {
			r.sampleInterval = ms
		}
	}
}

// WithMinDamage sets the smallest damage amount that is logged as an event.
func WithMinDamage(amount float64) Option {
	return func(r *Recorder) {
		if amount >= 0 {
			r.minDamage = amount
		}
	}
}

// WithMaxFrames caps the number of frames kept for one match.
func WithMaxFrames(n int) Option {
	return func(r *Recorder) {
		if n > 0 {
			r.maxFrames = n
		}
	}
}

// WithMaxEvents caps the number of events kept for one match.
func WithMaxEvents(n int) Option {
	return func(r *Recorder) {
		if n > 0 {
			r.maxEvents = n
		}
	}
}

// WithHighlightOptions forwards options to the highlight pass run by Finalize.
func WithHighlightOptions(opts ...highlight.Option) Option {
	return func(r *Recorder) {
		r.highlightOpts = append(r.highlightOpts, opts...)
	}
}

// WithScorer sets the scorer used to pick the MVP.
func WithScorer(s *scoring.Scorer) Option {
	return func(r *Recorder) {
		if s != nil {
			r.scorer = s
		}
	}
}

// WithClock overrides the wall clock used for start and end times.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) {
		if now != nil {
			r.now = now
		}
	}
}

// WithIDGenerator overrides how timeline ids are minted.
func WithIDGenerator(gen func() string) Option {
	return func(r *Recorder) {
		if gen != nil {
			r.newID = gen
		}
	}
}

// WithLogger sets a custom logger for the recorder.
func WithLogger(l logger.Logger) Option {
	return func(r *Recorder) {
		if l != nil {
			r.logger = l
		}
	}
}
