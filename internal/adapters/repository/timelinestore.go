package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/okian/arena/internal/domain/model"
	"github.com/okian/arena/pkg/logger"
	"github.com/okian/arena/pkg/metrics"
)

// DefaultCapacity is the number of timelines retained by default.
const DefaultCapacity = 10

type entry struct {
	tl        *model.Timeline
	seq       uint64
	persisted bool
}

// Stats describes the retained set.
type Stats struct {
	Count      int    `json:"count"`
	Capacity   int    `json:"capacity"`
	Persisted  int    `json:"persisted"`
	MemoryOnly int    `json:"memoryOnly"`
	Backend    string `json:"backend"`
	Bytes      int64  `json:"bytes"`
}

// TimelineStore is the bounded Store implementation. Entries are kept oldest
// first so eviction re-slices the front instead of shifting.
type TimelineStore struct {
	mu      sync.Mutex
	entries []*entry
	byID    map[string]*entry
	seq     uint64

	capacity int
	factor   int
	level    int
	backend  Backend
	codec    *Codec
	logger   logger.Logger
}

var _ Store = (*TimelineStore)(nil)

// NewTimelineStore constructs a store. Without WithBackend an unbounded
// memory backend is used.
func NewTimelineStore(opts ...Option) (*TimelineStore, error) {
	s := &TimelineStore{
		byID:     make(map[string]*entry),
		capacity: DefaultCapacity,
		factor:   DefaultDecimationFactor,
		level:    DefaultCompressionLevel,
		logger:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.backend == nil {
		s.backend = NewMemoryBackend(0)
	}
	codec, err := NewCodec(s.level)
	if err != nil {
		return nil, err
	}
	s.codec = codec
	return s, nil
}

// Save implements Store.
func (s *TimelineStore) Save(ctx context.Context, tl *model.Timeline) error {
	const op = "repository.save"
	if tl == nil {
		return fmt.Errorf("%s: %w", op, ErrNilTimeline)
	}
	if tl.ID == "" {
		return fmt.Errorf("%s: %w", op, ErrEmptyID)
	}
	start := time.Now()

	// The Decimated flag on input is client data; every save decimates.
	stored := Decimate(tl, s.factor)
	metrics.RecordStoreDecimation()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.unlink(stored.ID)
	s.seq++
	e := &entry{tl: stored, seq: s.seq}
	s.entries = append(s.entries, e)
	s.byID[stored.ID] = e

	for len(s.entries) > s.capacity {
		victim := s.popOldest(ctx)
		metrics.RecordStoreEviction()
		s.logger.Debug(ctx, "timeline evicted", logger.String("timeline_id", victim.tl.ID))
	}

	s.persist(ctx, e)

	s.updateGauges()
	metrics.RecordStoreSaveLatency(float64(time.Since(start).Milliseconds()))
	return nil
}

// persist writes e through the backend, shrinking the retained set on
// failure until it fits or only e remains.
func (s *TimelineStore) persist(ctx context.Context, e *entry) {
	blob, err := s.codec.encode(record{Seq: e.seq, Timeline: e.tl})
	if err != nil {
		s.memoryOnly(ctx, e, err)
		return
	}

	for {
		err := s.backend.Put(ctx, e.tl.ID, blob)
		if err == nil {
			e.persisted = true
			return
		}
		metrics.RecordStoreBackendError(s.backend.Name(), "put")
		if len(s.entries) <= 1 || ctx.Err() != nil {
			s.memoryOnly(ctx, e, err)
			return
		}
		victim := s.popOldest(ctx)
		metrics.RecordStoreShrink()
		s.logger.Warn(ctx, "backend rejected timeline, dropping oldest",
			logger.String("timeline_id", e.tl.ID),
			logger.String("dropped_id", victim.tl.ID),
			logger.Int("retained", len(s.entries)),
			logger.Error(err),
		)
	}
}

func (s *TimelineStore) memoryOnly(ctx context.Context, e *entry, cause error) {
	e.persisted = false
	// A previous version under the same id must not come back on Load.
	_ = s.backend.Delete(ctx, e.tl.ID)
	metrics.RecordStoreMemoryOnly()
	s.logger.Warn(ctx, "timeline kept in memory only",
		logger.String("timeline_id", e.tl.ID),
		logger.String("backend", s.backend.Name()),
		logger.Error(cause),
	)
}

// popOldest removes the oldest entry and its blob. Callers hold mu.
func (s *TimelineStore) popOldest(ctx context.Context) *entry {
	victim := s.entries[0]
	s.entries[0] = nil
	s.entries = s.entries[1:]
	delete(s.byID, victim.tl.ID)
	s.deleteBlob(ctx, victim.tl.ID)
	return victim
}

// unlink drops id from the in-memory set without touching the backend.
func (s *TimelineStore) unlink(id string) bool {
	if _, ok := s.byID[id]; !ok {
		return false
	}
	delete(s.byID, id)
	kept := s.entries[:0]
	for _, e := range s.entries {
		if e.tl.ID != id {
			kept = append(kept, e)
		}
	}
	for i := len(kept); i < len(s.entries); i++ {
		s.entries[i] = nil
	}
	s.entries = kept
	return true
}

func (s *TimelineStore) deleteBlob(ctx context.Context, id string) {
	if err := s.backend.Delete(ctx, id); err != nil {
		metrics.RecordStoreBackendError(s.backend.Name(), "delete")
		s.logger.Warn(ctx, "failed to delete timeline blob",
			logger.String("timeline_id", id),
			logger.Error(err),
		)
	}
}

// List implements Store.
func (s *TimelineStore) List(ctx context.Context) ([]*model.Timeline, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.Timeline, 0, len(s.entries))
	for i := len(s.entries) - 1; i >= 0; i-- {
		out = append(out, s.entries[i].tl)
	}
	return out, nil
}

// Get implements Store.
func (s *TimelineStore) Get(ctx context.Context, id string) (*model.Timeline, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("repository.get %s: %w", id, ErrNotFound)
	}
	return e.tl, nil
}

// Delete implements Store.
func (s *TimelineStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.unlink(id) {
		return nil
	}
	s.deleteBlob(ctx, id)
	s.updateGauges()
	return nil
}

// Count implements Store.
func (s *TimelineStore) Count(_ context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Load rehydrates the retained set from the backend, ordered by the sequence
// number stored with each blob and trimmed to capacity. Unreadable blobs are
// skipped. It is meant to run once at startup.
func (s *TimelineStore) Load(ctx context.Context) (int, error) {
	keys, err := s.backend.Keys(ctx)
	if err != nil {
		metrics.RecordStoreBackendError(s.backend.Name(), "keys")
		return 0, fmt.Errorf("repository.load: %w", err)
	}

	var loaded []*entry
	for _, key := range keys {
		blob, err := s.backend.Get(ctx, key)
		if err != nil {
			metrics.RecordStoreBackendError(s.backend.Name(), "get")
			s.logger.Warn(ctx, "skipping unreadable timeline blob", logger.String("key", key), logger.Error(err))
			continue
		}
		rec, err := s.codec.decode(blob)
		if err != nil {
			s.logger.Warn(ctx, "skipping corrupt timeline blob", logger.String("key", key), logger.Error(err))
			continue
		}
		loaded = append(loaded, &entry{tl: rec.Timeline, seq: rec.Seq, persisted: true})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range loaded {
		if _, ok := s.byID[e.tl.ID]; ok {
			continue
		}
		s.entries = append(s.entries, e)
		s.byID[e.tl.ID] = e
		if e.seq > s.seq {
			s.seq = e.seq
		}
	}
	sort.SliceStable(s.entries, func(i, j int) bool { return s.entries[i].seq < s.entries[j].seq })
	for len(s.entries) > s.capacity {
		s.popOldest(ctx)
		metrics.RecordStoreEviction()
	}

	s.updateGauges()
	s.logger.Info(ctx, "timelines loaded",
		logger.String("backend", s.backend.Name()),
		logger.Int("blobs", len(keys)),
		logger.Int("retained", len(s.entries)),
	)
	return len(s.entries), nil
}

// Stats returns a snapshot of the retained set.
func (s *TimelineStore) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Stats{Count: len(s.entries), Capacity: s.capacity, Backend: s.backend.Name()}
	for _, e := range s.entries {
		if e.persisted {
			st.Persisted++
		} else {
			st.MemoryOnly++
		}
	}
	if sz, ok := s.backend.(Sizer); ok {
		st.Bytes = sz.Size()
	}
	return st
}

// Close releases the codec and the backend.
func (s *TimelineStore) Close() error {
	s.codec.Close()
	return s.backend.Close()
}

func (s *TimelineStore) updateGauges() {
	metrics.UpdateStoreSize(len(s.entries))
	if sz, ok := s.backend.(Sizer); ok {
		metrics.UpdateStoreBytes(sz.Size())
	}
}
