// Knowledged is the knowledge-base daemon for the legal Q&A service.
//
// It ingests PDF documents into a vector store (extract, chunk, embed,
// upsert) and serves similarity-search queries that assemble a ranked
// context block for downstream answer generation.
//
// Configuration is loaded from an optional YAML file and KNOWLEDGED_*
// environment variables. See internal/config for details.
//
// Usage:
//
//	# Start with defaults (embedded chromem store, TEI embeddings)
//	knowledged
//
//	# Start with a config file
//	knowledged --config /etc/knowledged/config.yaml
//
//	# Configure via environment
//	KNOWLEDGED_SERVER_PORT=9700 knowledged
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/lexbase/knowledged/internal/config"
	"github.com/lexbase/knowledged/internal/embeddings"
	httpserver "github.com/lexbase/knowledged/internal/http"
	"github.com/lexbase/knowledged/internal/ingest"
	"github.com/lexbase/knowledged/internal/logging"
	"github.com/lexbase/knowledged/internal/retrieval"
	"github.com/lexbase/knowledged/internal/vectorstore"
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

	if args := flag.Args(); len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  knowledged           Start the knowledged daemon\n")
			fmt.Fprintf(os.Stderr, "  knowledged version   Show version information\n")
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server shutdown complete")
}

func printVersion() {
	fmt.Printf("knowledged\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run starts the knowledged server and blocks until the context is
// cancelled. It wires configuration, logger, embedding provider, vector
// store, ingestion pipeline, retriever and HTTP server, then performs a
// graceful shutdown.
func run(ctx context.Context, configPath string) error {
	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger, err := logging.NewLogger(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Fields: map[string]string{"service": "knowledged"},
	})
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info(ctx, "starting knowledged",
		zap.String("version", version),
		zap.String("commit", gitCommit),
	)

	provider, err := embeddings.NewProvider(cfg.Embeddings)
	if err != nil {
		return fmt.Errorf("initializing embedding provider: %w", err)
	}
	defer func() { _ = provider.Close() }()

	store, err := vectorstore.NewStore(cfg.VectorStore, logger.Named("vectorstore"))
	if err != nil {
		return fmt.Errorf("initializing vector store: %w", err)
	}
	defer func() { _ = store.Close() }()

	if err := store.EnsureCollection(ctx, cfg.VectorStore.VectorSize); err != nil {
		return fmt.Errorf("ensuring collection: %w", err)
	}

	pipeline := ingest.NewPipeline(provider, store, cfg.Ingest, logger.Named("ingest"))
	retriever := retrieval.NewRetriever(provider, store, retrieval.DefaultTopK, logger.Named("retrieval"))

	server, err := httpserver.NewServer(pipeline, retriever, logger.Named("http"), cfg.Server)
	if err != nil {
		return fmt.Errorf("initializing http server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	return nil
}
