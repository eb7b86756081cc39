package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/arena/internal/matchsim"
	"github.com/okian/arena/pkg/logger"
)

// Default configuration constants.
const (
	defaultMatches    = 20
	defaultTimeout    = 30 * time.Second
	defaultRunTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL   = flag.String("url", "http://localhost:9080", "Base URL of the replay service; empty runs offline")
		matches   = flag.Int("matches", defaultMatches, "Number of matches to simulate")
		seed      = flag.Uint64("seed", 1, "Seed of the first match")
		agents    = flag.Int("agents", matchsim.DefaultAgents, "Agents per match, 2 to 6")
		workers   = flag.Int("workers", runtime.NumCPU(), "Number of concurrent submitters")
		timeout   = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		output    = flag.String("output", "", "Export file, a JSON array of match recaps")
		timelines = flag.Bool("timelines", false, "Embed full timelines in the export")
		verbose   = flag.Bool("verbose", false, "Enable debug logging")
		help      = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		matchsim.ShowHelp()
		return
	}

	if err := logger.Init(); err != nil {
		_, _ = os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	cfg := &matchsim.Config{
		BaseURL:       *baseURL,
		Matches:       *matches,
		Seed:          *seed,
		Agents:        *agents,
		Workers:       *workers,
		Timeout:       *timeout,
		OutputFile:    *output,
		WithTimelines: *timelines,
	}

	stats, err := matchsim.Run(ctx, cfg)
	if err != nil {
		logger.Get().Error(ctx, "simulation failed", logger.Error(err))
		cancel()
		os.Exit(1)
	}
	if stats.Failed > 0 {
		cancel()
		os.Exit(2)
	}
}
