// Carpoold extracts ride requests and offers from WhatsApp chat exports.
//
// The daemon parses uploaded exports, classifies each message with an LLM
// (or a keyword heuristic when no API key is configured), keeps the
// extracted records in per-session memory, and pairs requests against
// offers on demand.
//
// Configuration is loaded from an optional YAML file and environment
// variables. See internal/config for details.
//
// Usage:
//
//	# Start with defaults (heuristic extraction, port 8002)
//	carpoold
//
//	# Configure via environment
//	SERVER_PORT=9090 EXTRACTION_PROVIDER=gemini EXTRACTION_API_KEY=... carpoold
//
//	# Or via file
//	carpoold -config carpoold.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/chat2carpool/carpoold/internal/config"
	"github.com/chat2carpool/carpoold/internal/extraction"
	"github.com/chat2carpool/carpoold/internal/httpapi"
	"github.com/chat2carpool/carpoold/internal/logging"
	"github.com/chat2carpool/carpoold/internal/match"
	"github.com/chat2carpool/carpoold/internal/metrics"
	"github.com/chat2carpool/carpoold/internal/notify"
	"github.com/chat2carpool/carpoold/internal/ridedb"
	"github.com/chat2carpool/carpoold/internal/store"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()
	args := flag.Args()

	if len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  carpoold           Start the carpoold daemon\n")
			fmt.Fprintf(os.Stderr, "  carpoold version   Show version information\n")
			os.Exit(1)
		}
	}

	// Setup signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server shutdown complete")
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("carpoold\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run starts the carpoold server and blocks until context is cancelled.
//
// Initialization order:
//  1. Load and validate configuration
//  2. Initialize logger and metrics
//  3. Connect optional infrastructure (Postgres, NATS)
//  4. Build the extraction engine, session store, and matcher
//  5. Start the HTTP server
//  6. Perform graceful shutdown on context cancellation
func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logging.Sync(logger)

	logger.Info("Starting carpoold",
		zap.String("version", version),
		zap.Int("port", cfg.Server.Port),
		zap.String("extraction_provider", cfg.Extraction.Provider),
		zap.Duration("shutdown_timeout", cfg.Server.ShutdownTimeout.Duration()))

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	deps, err := initDependencies(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer deps.Close()

	logger.Info("Dependencies initialized",
		zap.Bool("database_connected", deps.rides != nil),
		zap.Bool("nats_connected", deps.natsConn != nil))

	extractor, err := extraction.NewExtractor(extraction.Config{
		Provider:  cfg.Extraction.Provider,
		Model:     cfg.Extraction.Model,
		APIKey:    cfg.Extraction.APIKey.Value(),
		BaseURL:   cfg.Extraction.BaseURL,
		MaxTokens: cfg.Extraction.MaxTokens,
		Timeout:   cfg.Extraction.Timeout,
		BatchSize: cfg.Extraction.BatchSize,
	})
	if err != nil {
		return fmt.Errorf("failed to create extractor: %w", err)
	}

	engine := extraction.NewEngine(extractor, cfg.Extraction.BatchSize, logger, m)
	sessions := store.New(cfg.Store.SessionTTL.Duration(), cfg.Store.CleanupInterval.Duration(), logger)
	defer sessions.Close()
	matcher := match.New(m)

	srv, err := httpapi.NewServer(httpapi.Deps{
		Engine:    engine,
		Sessions:  sessions,
		Matcher:   matcher,
		Rides:     deps.rides,
		Publisher: deps.publisher,
		Metrics:   m,
		Registry:  registry,
	}, logger, &httpapi.Config{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		RequestTimeout: cfg.Server.RequestTimeout.Duration(),
	})
	if err != nil {
		return fmt.Errorf("failed to create http server: %w", err)
	}

	logger.Info("Server configured",
		zap.String("health_endpoint", fmt.Sprintf("http://%s:%d/health", cfg.Server.Host, cfg.Server.Port)),
		zap.String("metrics_endpoint", "/metrics"),
		zap.Bool("llm_available", extractor.Available()))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// dependencies holds optional infrastructure connections.
type dependencies struct {
	rides     *ridedb.Store
	natsConn  *nats.Conn
	publisher *notify.Publisher
}

// Close releases all infrastructure resources.
func (d *dependencies) Close() {
	if d.rides != nil {
		d.rides.Close()
	}
	if d.natsConn != nil {
		d.natsConn.Close()
	}
}

// initDependencies connects to Postgres and NATS when configured. Both are
// optional; the daemon degrades to in-memory operation without them.
func initDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*dependencies, error) {
	deps := &dependencies{}

	if url := cfg.Database.URL.Value(); url != "" {
		rides, err := ridedb.New(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := rides.Init(ctx); err != nil {
			rides.Close()
			return nil, fmt.Errorf("failed to initialize database schema: %w", err)
		}
		deps.rides = rides
		logger.Info("Connected to Postgres")
	}

	if cfg.NATS.URL != "" {
		nc, err := nats.Connect(cfg.NATS.URL,
			nats.RetryOnFailedConnect(true),
			nats.MaxReconnects(5),
			nats.ReconnectWait(1*time.Second),
		)
		if err != nil {
			deps.Close()
			return nil, fmt.Errorf("failed to connect to NATS at %s: %w", cfg.NATS.URL, err)
		}
		deps.natsConn = nc
		deps.publisher = notify.New(nc, cfg.NATS.Subject, logger)
		logger.Info("Connected to NATS",
			zap.String("url", cfg.NATS.URL),
			zap.String("subject", cfg.NATS.Subject))
	}

	return deps, nil
}
