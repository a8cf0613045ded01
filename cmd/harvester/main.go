// Package main provides the entry point for the PubMed harvester CLI.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/helixir/pubmed-harvester/internal/config"
	"github.com/helixir/pubmed-harvester/internal/entrez/pubmed"
	"github.com/helixir/pubmed-harvester/internal/observability"
	"github.com/helixir/pubmed-harvester/internal/processor"
	"github.com/helixir/pubmed-harvester/internal/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	query := flag.String("query", "", "PubMed search query (required)")
	maxResults := flag.Int("max-results", 0, "Maximum articles to process (0 uses the configured default)")
	flag.Parse()

	if *query == "" {
		flag.Usage()
		return errors.New("a search query is required")
	}

	// Load .env if present; real environment variables win.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := observability.NewLogger(observability.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		AddSource:  cfg.Logging.AddSource,
		TimeFormat: cfg.Logging.TimeFormat,
	})
	logger = logger.With().Str("component", "harvester").Logger()
	logger.Info().Msg("pubmed-harvester starting")

	// Set up context with graceful shutdown via OS signals.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := observability.NewMetrics("harvester")
	if cfg.Metrics.Enabled {
		startMetricsServer(cfg.Metrics, logger)
	}

	store, err := storage.New(cfg.Storage.BasePath, logger)
	if err != nil {
		return fmt.Errorf("provision storage: %w", err)
	}
	logger.Info().Str("base_path", store.BasePath()).Msg("blob store ready")

	client := pubmed.New(pubmed.Config{
		BaseURL:            cfg.Entrez.BaseURL,
		PMCBaseURL:         cfg.Entrez.PMCBaseURL,
		Tool:               cfg.Entrez.Tool,
		Email:              cfg.Entrez.Email,
		APIKey:             cfg.Entrez.APIKey,
		Timeout:            cfg.Entrez.Timeout,
		RequestInterval:    cfg.Entrez.RequestInterval,
		PDFRequestInterval: cfg.Entrez.PDFRequestInterval,
		MaxResults:         cfg.Entrez.MaxResults,
	}, logger, metrics)

	proc := processor.New(client, store, processor.Config{
		MaxResults:     cfg.Entrez.MaxResults,
		DownloadPDFs:   cfg.Harvest.DownloadPDFs,
		FetchSummaries: cfg.Harvest.FetchSummaries,
	}, logger, metrics)

	summary, err := proc.Process(ctx, *query, *maxResults)
	if err != nil {
		return fmt.Errorf("process batch: %w", err)
	}

	logger.Info().
		Str("search_id", summary.SearchID).
		Int("found", summary.TotalArticlesFound).
		Int("processed", summary.SuccessfullyProcessed).
		Int("failed", summary.FailedProcessing).
		Msg("harvest complete")
	return nil
}

// startMetricsServer exposes the Prometheus endpoint in the background. The
// CLI exits when the batch finishes, so the listener needs no shutdown
// choreography.
func startMetricsServer(cfg config.MetricsConfig, logger zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, promhttp.Handler())

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Int("port", cfg.Port).Str("path", cfg.Path).Msg("metrics server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics server failed")
		}
	}()
}
