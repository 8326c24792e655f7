package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/questforge/internal/adapters/gamesource"
	"github.com/okian/questforge/internal/adapters/http/api"
	"github.com/okian/questforge/internal/adapters/http/swagger"
	"github.com/okian/questforge/internal/adapters/repository"
	"github.com/okian/questforge/internal/app"
	"github.com/okian/questforge/internal/config"
	"github.com/okian/questforge/internal/scheduler"
	"github.com/okian/questforge/pkg/logger"
	"github.com/okian/questforge/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// HTTP server timeout constants.
const (
	readTimeout           = 10 * time.Second
	writeTimeout          = 10 * time.Second
	idleTimeout           = 60 * time.Second
	readHeaderTimeout     = 5 * time.Second
	shutdownTimeout       = 30 * time.Second
	systemMetricsInterval = 10 * time.Second
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics
	// We collect our own custom system metrics instead
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Initialize logging
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	// Select the store: Postgres when a DSN is configured, in-memory
	// otherwise.
	var store repository.Store
	if cfg.DatabaseDSN != "" {
		pg, err := repository.NewPgStore(ctx, cfg.DatabaseDSN)
		if err != nil {
			os.Stderr.WriteString("failed to connect to database: " + err.Error() + "\n")
			return
		}
		if err := pg.Ping(ctx); err != nil {
			os.Stderr.WriteString("database ping failed: " + err.Error() + "\n")
			return
		}
		log.Info(ctx, "using postgres store")
		store = pg
	} else {
		store = repository.NewMemoryStore()
	}

	source := gamesource.NewClient(cfg.GameAPIBaseURL,
		gamesource.WithTimeout(cfg.GameAPITimeout()),
	)

	svc := app.New(
		app.WithLogger(log),
		app.WithStore(store),
		app.WithSnapshotSource(source),
		app.WithWindowLength(time.Duration(cfg.WindowDays)*24*time.Hour),
		app.WithEntryCap(cfg.LeaderboardEntryCap),
		app.WithLevelDivisor(cfg.SeasonLevelDivisor),
		app.WithFlagPriority(cfg.FlagPriority),
	)
	if err := svc.Start(ctx); err != nil {
		os.Stderr.WriteString("failed to start service: " + err.Error() + "\n")
		return
	}
	defer svc.Stop()

	// Scheduled runs: incremental on an interval, full snapshot daily.
	dailyAt, _ := cfg.DailyRunOffset()
	sched := scheduler.New(svc,
		scheduler.WithLogger(log),
		scheduler.WithInterval(cfg.BatchInterval()),
		scheduler.WithDailyAt(dailyAt),
	)
	sched.Start(ctx)
	defer sched.Stop()

	// Start system metrics updater
	go startSystemMetricsUpdater(ctx)

	// HTTP mux and routes.
	mux := http.NewServeMux()
	apiServer := api.NewServer(svc, svc, svc)
	apiServer.Register(ctx, mux)
	swagger.Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	// Start the HTTP server
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
			return
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
}
