package matchsim

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/arena/internal/domain/model"
	"github.com/okian/arena/internal/domain/recorder"
	"github.com/okian/arena/pkg/logger"
)

// Config holds the settings of a simulation run.
type Config struct {
	BaseURL       string        // replay service; empty runs offline
	Matches       int           // number of matches to simulate
	Seed          uint64        // seed of the first match, incremented per match
	Agents        int           // agents per match
	Workers       int           // concurrent submitters
	Timeout       time.Duration // HTTP request timeout
	OutputFile    string        // export path; empty skips the export
	WithTimelines bool          // embed full timelines in the export
}

// Stats holds run statistics.
type Stats struct {
	Generated int
	Kills     int
	Accepted  int64
	Duplicate int64
	Failed    int64
	Listed    int
	Duration  time.Duration
}

// Generate simulates n matches with consecutive seeds starting at seed.
func Generate(ctx context.Context, n int, seed uint64, recOpts []recorder.Option, simOpts ...Option) ([]*model.Timeline, error) {
	out := make([]*model.Timeline, 0, n)
	for i := 0; i < n; i++ {
		opts := append([]Option{WithSeed(seed + uint64(i))}, simOpts...)
		tl, err := New(opts...).Run(ctx, recorder.New(recOpts...))
		if err != nil {
			return out, err
		}
		out = append(out, tl)
	}
	return out, nil
}

// Run generates matches, exports them and, when a service URL is set,
// submits them concurrently.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	log := logger.Get()
	start := time.Now()
	stats := &Stats{}

	log.Info(ctx, "starting match simulation",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("matches", cfg.Matches),
		logger.Int("agents", cfg.Agents),
		logger.Int("workers", cfg.Workers),
		logger.Any("seed", cfg.Seed),
	)

	var client *Client
	if cfg.BaseURL != "" {
		client = NewClient(cfg.BaseURL, cfg.Timeout)
		if err := client.Health(ctx); err != nil {
			return nil, fmt.Errorf("service health check failed: %w", err)
		}
	}

	timelines, err := Generate(ctx, cfg.Matches, cfg.Seed, nil, WithAgents(cfg.Agents))
	if err != nil {
		return nil, fmt.Errorf("match generation failed: %w", err)
	}
	stats.Generated = len(timelines)
	for _, tl := range timelines {
		stats.Kills += tl.Summary.TotalKills
	}

	if cfg.OutputFile != "" {
		if err := ExportFile(cfg.OutputFile, timelines, cfg.WithTimelines); err != nil {
			log.Warn(ctx, "failed to export matches", logger.Error(err))
		} else {
			log.Info(ctx, "matches exported", logger.String("filename", cfg.OutputFile))
		}
	}

	if client != nil {
		submitAll(ctx, client, cfg.Workers, timelines, stats)
		if n, err := client.Count(ctx); err != nil {
			log.Warn(ctx, "failed to list replays", logger.Error(err))
		} else {
			stats.Listed = n
		}
	}

	stats.Duration = time.Since(start)
	log.Info(ctx, "final statistics",
		logger.Int("generated", stats.Generated),
		logger.Int("kills", stats.Kills),
		logger.Int64("accepted", stats.Accepted),
		logger.Int64("duplicate", stats.Duplicate),
		logger.Int64("failed", stats.Failed),
		logger.Int("listed", stats.Listed),
		logger.Duration("duration", stats.Duration),
	)
	return stats, nil
}

func submitAll(ctx context.Context, client *Client, workers int, timelines []*model.Timeline, stats *Stats) {
	if workers < 1 {
		workers = 1
	}
	log := logger.Get()
	jobs := make(chan *model.Timeline, workers*2)
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for tl := range jobs {
				result, err := client.Submit(ctx, tl)
				switch result {
				case ResultAccepted:
					atomic.AddInt64(&stats.Accepted, 1)
				case ResultDuplicate:
					atomic.AddInt64(&stats.Duplicate, 1)
				default:
					atomic.AddInt64(&stats.Failed, 1)
					log.Debug(ctx, "submission failed", logger.String("replay_id", tl.ID), logger.Error(err))
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, tl := range timelines {
			select {
			case <-ctx.Done():
				return
			case jobs <- tl:
			}
		}
	}()

	wg.Wait()
}
