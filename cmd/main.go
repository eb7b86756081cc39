package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/arena/internal/adapters/http/api"
	"github.com/okian/arena/internal/adapters/http/site"
	"github.com/okian/arena/internal/adapters/http/swagger"
	"github.com/okian/arena/internal/adapters/repository"
	app "github.com/okian/arena/internal/app"
	"github.com/okian/arena/internal/config"
	"github.com/okian/arena/internal/matchsim"
	"github.com/okian/arena/pkg/logger"
	"github.com/okian/arena/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 30 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	serviceMetricsInterval = 5 * time.Second
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// Use stderr since the logger isn't configured yet
		_, _ = os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.InitWithFormat(cfg.LogFormat); err != nil {
		_, _ = os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	loggerInstance := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	// Collectors are rebuilt under the configured names before anything records.
	metrics.Configure(
		metrics.WithNamespace(cfg.MetricsNamespace),
		metrics.WithSubsystem(cfg.MetricsSubsystem),
	)

	svc := newService(cfg, loggerInstance)
	if err := svc.Start(ctx); err != nil {
		loggerInstance.Error(ctx, "failed to start service", logger.Error(err))
		os.Exit(1)
	}

	if cfg.DemoMatches > 0 {
		seedDemoMatches(ctx, svc, cfg.DemoMatches)
	}

	go startServiceMetricsUpdater(ctx, svc)

	// HTTP mux and routes.
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	site.Register(ctx, mux)
	api.NewServer(svc, svc).Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		loggerInstance.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			loggerInstance.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	loggerInstance.Info(context.Background(), "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(shutdownCtx, "server shutdown failed", logger.Error(err))
	}
	if err := svc.Stop(shutdownCtx); err != nil {
		loggerInstance.Error(shutdownCtx, "service shutdown failed", logger.Error(err))
	}

	loggerInstance.Info(shutdownCtx, "server stopped")
}

// newService maps the loaded configuration onto service options.
func newService(cfg *config.Config, l logger.Logger) *app.Service {
	return app.New(
		app.WithLogger(l),
		app.WithQueueSize(cfg.PersistQueueSize),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithStoreCapacity(cfg.StoreCapacity),
		app.WithDecimationFactor(cfg.DecimationFactor),
		app.WithCompressionLevel(cfg.CompressionLevel),
		app.WithRecorderSettings(cfg.SampleIntervalMS, cfg.MinDamage, cfg.MaxHighlights),
		app.WithBackend(repository.BackendConfig{
			Kind:        cfg.Backend,
			MemoryQuota: cfg.MemoryQuotaBytes,
			BadgerPath:  cfg.BadgerPath,
			RedisAddr:   cfg.RedisAddr,
			RedisPrefix: cfg.RedisPrefix,
		}),
	)
}

// seedDemoMatches records n simulated matches through the service so a fresh
// instance has replays to browse.
func seedDemoMatches(ctx context.Context, svc *app.Service, n int) {
	l := logger.Get()
	for i := 0; i < n; i++ {
		tl, err := matchsim.New(matchsim.WithSeed(uint64(time.Now().UnixNano()))).Run(ctx, svc.NewRecorder())
		if err != nil {
			l.Warn(ctx, "demo match failed", logger.Error(err))
			return
		}
		if _, err := svc.Submit(ctx, tl); err != nil {
			l.Warn(ctx, "demo match rejected", logger.String("replay_id", tl.ID), logger.Error(err))
		}
	}
	l.Info(ctx, "demo matches recorded", logger.Int("matches", n))
}

// startServiceMetricsUpdater refreshes service gauges until ctx is done.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			svc.GetStats()
		}
	}
}
