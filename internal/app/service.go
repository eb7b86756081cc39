// Package service composes replay retention, the persistence queue and
// idempotent ingestion behind the operations the HTTP API needs.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	eventqueue "github.com/okian/arena/internal/adapters/mq/queue"
	workerpool "github.com/okian/arena/internal/adapters/mq/worker"
	repository "github.com/okian/arena/internal/adapters/repository"
	"github.com/okian/arena/internal/domain/dedupe"
	"github.com/okian/arena/internal/domain/highlight"
	"github.com/okian/arena/internal/domain/model"
	"github.com/okian/arena/internal/domain/playback"
	"github.com/okian/arena/internal/domain/recorder"
	"github.com/okian/arena/internal/domain/types"
	"github.com/okian/arena/pkg/logger"
	"github.com/okian/arena/pkg/metrics"
)

// Service implements the API dependencies for the replay system.
type Service struct {
	mu sync.RWMutex

	// Core components
	store   *repository.TimelineStore
	deduper dedupe.Deduper
	queue   *eventqueue.InMemoryQueue
	pool    *workerpool.Pool
	persist *persister

	// Configuration
	queueSize        int
	dedupeSize       int
	storeCapacity    int
	decimation       int
	compressionLevel int
	backend          repository.BackendConfig
	sampleInterval   int64
	minDamage        float64
	maxHighlights    int

	// State
	started bool

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithQueueSize sets the capacity of the persistence queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many recent replay ids are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithStoreCapacity bounds the number of retained replays.
func WithStoreCapacity(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.storeCapacity = n
		}
	}
}

// WithDecimationFactor keeps every n-th frame of stored replays.
func WithDecimationFactor(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.decimation = n
		}
	}
}

// WithCompressionLevel sets the zstd level for stored blobs.
func WithCompressionLevel(level int) Option {
	return func(s *Service) {
		if level > 0 {
			s.compressionLevel = level
		}
	}
}

// WithBackend selects the blob backend opened on Start.
func WithBackend(cfg repository.BackendConfig) Option {
	return func(s *Service) {
		s.backend = cfg
	}
}

// WithRecorderSettings configures recorders handed out by NewRecorder.
func WithRecorderSettings(sampleIntervalMS int64, minDamage float64, maxHighlights int) Option {
	return func(s *Service) {
		if sampleIntervalMS > 0 {
			s.sampleInterval = sampleIntervalMS
		}
		if minDamage >= 0 {
			s.minDamage = minDamage
		}
		if maxHighlights > 0 {
			s.maxHighlights = maxHighlights
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		queueSize:        eventqueue.DefaultCapacity,
		dedupeSize:       dedupe.DefaultMaxSize,
		storeCapacity:    repository.DefaultCapacity,
		decimation:       repository.DefaultDecimationFactor,
		compressionLevel: repository.DefaultCompressionLevel,
		backend:          repository.BackendConfig{Kind: repository.BackendMemory},
		sampleInterval:   recorder.DefaultSampleInterval,
		minDamage:        recorder.DefaultMinDamage,
		maxHighlights:    highlight.DefaultMaxHighlights,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens the backend, restores retained replays and starts the
// persistence worker.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting replay service...", logger.String("backend", s.backend.Kind))

	backend, err := repository.NewBackend(ctx, s.backend)
	if err != nil {
		return fmt.Errorf("service.start: %w", err)
	}
	store, err := repository.NewTimelineStore(
		repository.WithBackend(backend),
		repository.WithCapacity(s.storeCapacity),
		repository.WithDecimationFactor(s.decimation),
		repository.WithCompressionLevel(s.compressionLevel),
		repository.WithLogger(s.logger.Named("store")),
	)
	if err != nil {
		_ = backend.Close()
		return fmt.Errorf("service.start: %w", err)
	}

	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))

	loaded, err := store.Load(ctx)
	if err != nil {
		// A backend that cannot list keys still accepts writes.
		s.logger.Warn(ctx, "could not restore retained replays", logger.Error(err))
	}
	restored, _ := store.List(ctx)
	for i := len(restored) - 1; i >= 0; i-- {
		s.deduper.SeenAndRecord(ctx, restored[i].ID)
	}
	s.store = store

	s.queue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.persist = newPersister(s.store, s.logger)
	s.pool = workerpool.NewPool(1, s.queue, s.persist,
		workerpool.WithLogger(s.logger),
		workerpool.WithOnError(s.onPersistError),
	)
	// The worker outlives the start context; Stop drains it.
	s.pool.Start(context.WithoutCancel(ctx))

	s.started = true
	s.logger.Info(ctx, "replay service started",
		logger.Int("restored", loaded),
		logger.Int("storeCapacity", s.storeCapacity),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)
	return nil
}

// Stop closes the queue, waits for pending replays to be stored and closes
// the backend.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping replay service...", logger.Int("pending", s.queue.Len(ctx)))

	_ = s.queue.Close()
	var errs []error
	if err := s.pool.Drain(ctx); err != nil {
		errs = append(errs, err)
		_ = s.pool.Stop(ctx)
	}
	if err := s.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}

	s.started = false
	s.logger.Info(ctx, "replay service stopped")
	return errors.Join(errs...)
}

func (s *Service) onPersistError(tl *model.Timeline, err error) {
	ctx := context.Background()
	s.deduper.Unrecord(ctx, tl.ID)
	s.logger.Error(ctx, "replay could not be stored",
		logger.String("replay_id", tl.ID),
		logger.Error(err),
	)
}

// components returns the running store, failing when the service is down.
func (s *Service) components() (*repository.TimelineStore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.store, nil
}

// NewRecorder returns a recorder configured with the service's sampling and
// highlight settings. The caller owns it for the duration of one match.
func (s *Service) NewRecorder(opts ...recorder.Option) *recorder.Recorder {
	base := []recorder.Option{
		recorder.WithSampleInterval(s.sampleInterval),
		recorder.WithMinDamage(s.minDamage),
		recorder.WithHighlightOptions(highlight.WithMaxHighlights(s.maxHighlights)),
	}
	if s.logger != nil {
		base = append(base, recorder.WithLogger(s.logger.Named("recorder")))
	}
	return recorder.New(append(base, opts...)...)
}

// Submit validates a finalized replay and queues it for storage. Replays
// whose id was recently ingested are reported as duplicates and dropped.
func (s *Service) Submit(ctx context.Context, tl *model.Timeline) (types.SubmitResult, error) {
	const op = "service.submit"
	if tl == nil {
		metrics.RecordReplayRejected()
		return types.SubmitResult{}, fmt.Errorf("%s: %w", op, ErrNilReplay)
	}
	if err := tl.Validate(); err != nil {
		metrics.RecordReplayRejected()
		return types.SubmitResult{}, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return types.SubmitResult{}, fmt.Errorf("%s: %w", op, ErrNotStarted)
	}

	if s.deduper.SeenAndRecord(ctx, tl.ID) {
		metrics.RecordReplayDuplicate()
		s.logger.Debug(ctx, "duplicate replay skipped", logger.String("replay_id", tl.ID))
		return types.SubmitResult{ID: tl.ID, Status: types.StatusDuplicate}, nil
	}

	s.persist.track(tl.ID)
	if err := s.queue.Enqueue(ctx, tl); err != nil {
		s.persist.untrack(tl.ID)
		s.deduper.Unrecord(ctx, tl.ID)
		return types.SubmitResult{}, fmt.Errorf("%s: %w", op, err)
	}

	metrics.RecordReplaySubmitted()
	s.logger.Debug(ctx, "replay queued",
		logger.String("replay_id", tl.ID),
		logger.Int("frames", len(tl.Frames)),
		logger.Int("events", len(tl.Events)),
	)
	return types.SubmitResult{ID: tl.ID, Status: types.StatusAccepted}, nil
}

// List returns summaries of retained replays, most recent first.
func (s *Service) List(ctx context.Context) ([]model.TimelineInfo, error) {
	store, err := s.components()
	if err != nil {
		return nil, err
	}
	tls, err := store.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.TimelineInfo, len(tls))
	for i, tl := range tls {
		out[i] = tl.Info()
	}
	return out, nil
}

// Get returns the retained replay with id.
func (s *Service) Get(ctx context.Context, id string) (*model.Timeline, error) {
	store, err := s.components()
	if err != nil {
		return nil, err
	}
	return store.Get(ctx, id)
}

// Delete drops the replay with id and forgets it was ingested, so it may be
// submitted again. A copy still waiting in the queue is not stored.
func (s *Service) Delete(ctx context.Context, id string) error {
	s.mu.RLock()
	if !s.started {
		s.mu.RUnlock()
		return ErrNotStarted
	}
	store, persist := s.store, s.persist
	s.mu.RUnlock()

	cancelled, err := persist.drop(id, func() error { return store.Delete(ctx, id) })
	if err != nil {
		return err
	}
	if cancelled {
		s.logger.Debug(ctx, "queued replay cancelled", logger.String("replay_id", id))
	}
	s.deduper.Unrecord(ctx, id)
	return nil
}

// Highlights returns the ranked highlights of a replay.
func (s *Service) Highlights(ctx context.Context, id string) ([]model.Highlight, error) {
	tl, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return append([]model.Highlight{}, tl.Highlights...), nil
}

// NewPlayer opens a playback cursor over a retained replay.
func (s *Service) NewPlayer(ctx context.Context, id string, opts ...playback.Option) (*playback.Player, error) {
	tl, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	metrics.RecordPlayerCreated()
	return playback.New(tl, opts...), nil
}

// Events returns the replay events with timestamps in [from, to].
func (s *Service) Events(ctx context.Context, id string, from, to int64) ([]model.Event, error) {
	p, err := s.NewPlayer(ctx, id)
	if err != nil {
		return nil, err
	}
	return p.EventsInRange(from, to), nil
}

// Frame seeks a fresh player to t and returns what it shows.
func (s *Service) Frame(ctx context.Context, id string, t int64) (types.FrameView, error) {
	p, err := s.NewPlayer(ctx, id)
	if err != nil {
		return types.FrameView{}, err
	}
	p.SeekTo(t)
	st := p.State()
	return types.FrameView{
		Requested:       t,
		CurrentTime:     st.CurrentTime,
		Duration:        st.Duration,
		Frame:           st.Frame,
		ActiveHighlight: st.ActiveHighlight,
	}, nil
}

// Recap returns the top n highlights and the summary of a replay.
func (s *Service) Recap(ctx context.Context, id string, n int) (types.Recap, error) {
	tl, err := s.Get(ctx, id)
	if err != nil {
		return types.Recap{}, err
	}
	return types.NewRecap(tl, n), nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":    s.started,
		"queueSize":  s.queueSize,
		"dedupeSize": s.dedupeSize,
		"backend":    s.backend.Kind,
	}

	if s.started {
		queueLen := s.queue.Len(ctx)
		stats["queueLength"] = queueLen
		stats["persisted"] = s.pool.Processed()
		stats["pendingReplays"] = s.persist.queued()
		stats["dedupeEntries"] = s.deduper.Size()
		stats["store"] = s.store.Stats()

		metrics.UpdateQueueSize(queueLen)
	}
	return stats
}

// Size returns the current number of entries in the deduper.
func (s *Service) Size() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}
