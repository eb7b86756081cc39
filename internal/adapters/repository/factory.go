package repository

import (
	"context"
	"fmt"
)

// BackendConfig selects and configures a Backend.
type BackendConfig struct {
	Kind        string
	MemoryQuota int64
	BadgerPath  string
	RedisAddr   string
	RedisPrefix string
}

// NewBackend opens the backend named by cfg.Kind. An empty kind selects the
// memory backend.
func NewBackend(ctx context.Context, cfg BackendConfig) (Backend, error) {
	switch cfg.Kind {
	case "", BackendMemory:
		return NewMemoryBackend(cfg.MemoryQuota), nil
	case BackendBadger:
		b, err := NewBadgerBackend(cfg.BadgerPath)
		if err != nil {
			return nil, err
		}
		return b, nil
	case BackendRedis:
		r, err := NewRedisBackend(ctx, cfg.RedisAddr, cfg.RedisPrefix)
		if err != nil {
			return nil, err
		}
		return r, nil
	default:
		return nil, fmt.Errorf("repository.backend %q: %w", cfg.Kind, ErrUnknownStore)
	}
}
