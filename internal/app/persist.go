package service

import (
	"context"
	"sync"

	workerpool "github.com/okian/arena/internal/adapters/mq/worker"
	"github.com/okian/arena/internal/domain/model"
	"github.com/okian/arena/pkg/logger"
)

// persister sits between the worker and the store. It tracks which replay
// ids are still queued so a Delete issued before the worker reaches a
// replay cancels the pending write. saveMu orders a delete after any
// save already in flight.
type persister struct {
	saveMu sync.Mutex

	mu        sync.Mutex
	pending   map[string]int
	cancelled map[string]struct{}

	saver  workerpool.Saver
	logger logger.Logger
}

func newPersister(saver workerpool.Saver, l logger.Logger) *persister {
	return &persister{
		pending:   make(map[string]int),
		cancelled: make(map[string]struct{}),
		saver:     saver,
		logger:    l,
	}
}

// track marks id as queued. A fresh submission overrides an earlier cancel.
func (p *persister) track(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending[id]++
	delete(p.cancelled, id)
}

// untrack reverts track when the enqueue failed.
func (p *persister) untrack(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.release(id)
}

// drop cancels queued copies of id and then runs del. It reports whether
// any copies were pending.
func (p *persister) drop(id string, del func() error) (bool, error) {
	p.saveMu.Lock()
	defer p.saveMu.Unlock()

	p.mu.Lock()
	cancelled := p.pending[id] > 0
	if cancelled {
		p.cancelled[id] = struct{}{}
	}
	p.mu.Unlock()

	return cancelled, del()
}

// Save implements workerpool.Saver.
func (p *persister) Save(ctx context.Context, tl *model.Timeline) error {
	p.saveMu.Lock()
	defer p.saveMu.Unlock()

	p.mu.Lock()
	_, skip := p.cancelled[tl.ID]
	p.release(tl.ID)
	p.mu.Unlock()

	if skip {
		p.logger.Debug(ctx, "deleted replay not stored", logger.String("replay_id", tl.ID))
		return nil
	}
	return p.saver.Save(ctx, tl)
}

// release must be called with mu held.
func (p *persister) release(id string) {
	if p.pending[id] <= 1 {
		delete(p.pending, id)
		delete(p.cancelled, id)
		return
	}
	p.pending[id]--
}

// queued returns the number of distinct ids awaiting storage.
func (p *persister) queued() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}
