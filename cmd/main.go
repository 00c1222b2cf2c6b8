package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/agentpulse/internal/adapters/http/api"
	"github.com/okian/agentpulse/internal/adapters/http/site"
	"github.com/okian/agentpulse/internal/adapters/http/swagger"
	"github.com/okian/agentpulse/internal/adapters/marketplace"
	"github.com/okian/agentpulse/internal/adapters/repository"
	"github.com/okian/agentpulse/internal/adapters/sink"
	service "github.com/okian/agentpulse/internal/app"
	"github.com/okian/agentpulse/internal/config"
	"github.com/okian/agentpulse/pkg/logger"
	"github.com/okian/agentpulse/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout           = 10 * time.Second
	writeTimeout          = 60 * time.Second // deep dives fan out to a dozen peers
	idleTimeout           = 60 * time.Second
	readHeaderTimeout     = 5 * time.Second
	shutdownTimeout       = 30 * time.Second
	systemMetricsInterval = 10 * time.Second
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// defaults -> optional file -> env
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	client := marketplace.NewClient(
		marketplace.WithBaseURLs(cfg.MarketplaceURL, cfg.LeaderboardURL, cfg.ProfileURL),
		marketplace.WithUserAgent(cfg.UserAgent),
		marketplace.WithTimeouts(cfg.RequestTimeout(), cfg.LeaderboardTimeout()),
		marketplace.WithDefaultEpoch(cfg.DefaultEpoch),
		marketplace.WithPageSize(cfg.LeaderboardPageSize),
	)

	results := sink.New(
		sink.WithWebhook(cfg.WebhookURL, cfg.WebhookSecret),
		sink.WithTimeout(cfg.WebhookTimeout()),
		sink.WithQueueSize(cfg.SinkQueueSize),
		sink.WithDedupeSize(cfg.SinkDedupeSize),
		sink.WithWorkers(cfg.SinkWorkers),
	)
	results.Start(ctx)

	store, err := repository.NewFileStore(cfg.ResultsFile, repository.WithLimit(cfg.ResultsLimit))
	if err != nil {
		log.Error(ctx, "failed to open result store", logger.String("path", cfg.ResultsFile), logger.Error(err))
		os.Exit(1)
	}

	svc := service.New(client, service.WithSink(results))

	go startSystemMetricsUpdater(ctx)

	mux := http.NewServeMux()
	site.Register(ctx, mux)
	swagger.Register(ctx, mux)
	api.NewServer(svc, store, api.WithStoreSecret(cfg.StoreSecret)).Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server",
			logger.String("addr", cfg.Addr),
			logger.Int("offerings", len(svc.Offerings())),
			logger.Bool("webhook", results.Enabled()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info(context.Background(), "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "server shutdown failed", logger.Error(err))
	}
	if err := results.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "result sink did not drain", logger.Error(err))
	}

	log.Info(shutdownCtx, "server stopped")
}

// startSystemMetricsUpdater periodically refreshes process gauges.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			metrics.UpdateSystemMemoryUsage(m.Alloc)
			metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
		}
	}
}
