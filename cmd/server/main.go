/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the ledger engine server. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Build the logger
  3. Initialize SQLite store (auto-migrates)
  4. Wire the posting pipeline (chart, classifier, engine, service)
  5. Pick a cache backend (in-process memory, or Redis when -redis is set)
  6. Start the report cache worker
  7. Start the HTTP server with graceful shutdown

COMMAND-LINE FLAGS:
  -port     HTTP server port (default: 8080)
  -db       SQLite database path (default: ledger.db)
            Use ":memory:" for an in-memory database
  -redis    Redis address for the shared report cache (default: off,
            in-process cache)
  -refresh  Scheduled full report refresh interval (default: 1h)
  -queue    Recompute queue buffer size (default: 64)
  -log      Log level (default: info)
  -dev      Console logging at debug level

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the worker, close the queue
  4. Close cache and database
  5. Exit

EXAMPLES:
  # Run with file database and in-process cache
  ./server -db="./data/ledger.db"

  # Run against Redis
  ./server -redis="localhost:6379"

SEE ALSO:
  - api/server.go: Router configuration
  - worker/worker.go: Async report refresh
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/warp/ledger-engine/api"
	"github.com/warp/ledger-engine/ledger"
	"github.com/warp/ledger-engine/logging"
	"github.com/warp/ledger-engine/reportcache"
	"github.com/warp/ledger-engine/store/sqlite"
	"github.com/warp/ledger-engine/worker"
)

func main() {
	// Flags
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "ledger.db", "SQLite database path")
	redisAddr := flag.String("redis", "", "Redis address for the report cache (empty = in-process)")
	refresh := flag.Duration("refresh", time.Hour, "Scheduled report refresh interval")
	queueSize := flag.Int("queue", 64, "Recompute queue buffer size")
	logLevel := flag.String("log", "info", "Log level (debug, info, warn, error)")
	dev := flag.Bool("dev", false, "Console logging at debug level")
	flag.Parse()

	// Logger
	logCfg := logging.DefaultConfig()
	logCfg.Level = *logLevel
	if *dev {
		logCfg = logging.DevelopmentConfig()
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer store.Close()

	// Posting pipeline
	chart := ledger.NewChart()
	queue := ledger.NewChannelQueue(*queueSize)
	classifier := ledger.NewClassifier(store)
	engine := ledger.NewEngine(store, chart, queue)
	service := ledger.NewService(store, classifier, engine)
	reporter := ledger.NewReporter(store)

	// Report cache: Redis behind a circuit breaker when configured, else an
	// in-process map. Either way a dead cache degrades to recompute-on-read.
	var cache reportcache.Layer
	if *redisAddr != "" {
		redisCache, err := reportcache.NewRedis(reportcache.DefaultRedisConfig(*redisAddr))
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.String("addr", *redisAddr), zap.Error(err))
		}
		cache = reportcache.NewResilient(redisCache, reportcache.DefaultResilientConfig(), logger)
	} else {
		cache = reportcache.NewMemory(reportcache.MemoryConfig{})
	}
	defer cache.Close()

	// Async report refresh
	w := worker.New(queue, reporter, cache, store, store, logger)
	w.RefreshInterval = *refresh
	w.Start()
	defer w.Stop()

	// HTTP
	handler := api.NewHandler(service, reporter, store, store, cache, logger)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Server starting",
			zap.Int("port", *port),
			zap.String("db", *dbPath),
			zap.Bool("redis", *redisAddr != ""),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server stopped")
}
