// Package observability provides logging and metrics support for the
// harvester.
//
// # Overview
//
// The observability package provides:
//
//   - Structured logging with zerolog
//   - Prometheus metrics for searches, E-utilities requests, article
//     processing, PDF downloads, and blob store writes
//   - Context helpers for propagating run and batch identifiers
//
// # Logging
//
// Create a logger from configuration:
//
//	cfg := observability.LoggingConfig{
//	    Level:  "info",
//	    Format: "json",
//	    Output: "stdout",
//	}
//
//	logger := observability.NewLogger(cfg)
//	logger.Info().Str("query", query).Msg("batch started")
//
// Add batch context to a logger:
//
//	logger = observability.WithBatchContext(logger, batchID, query)
//
// # Metrics
//
// Initialize metrics:
//
//	metrics := observability.NewMetrics("harvester")
//
// Record metrics:
//
//	metrics.RecordSearchStarted()
//	metrics.RecordEntrezRequest("efetch")
//	metrics.RecordArticleProcessed()
//
// # Context Helpers
//
// Store and retrieve run context:
//
//	ctx = observability.WithRunID(ctx, runID)
//	ctx = observability.WithBatch(ctx, batchID, query)
//
//	runID := observability.RunIDFromContext(ctx)
//	batchID, query := observability.BatchFromContext(ctx)
//
// # Standard Fields
//
// Common fields used across the service:
//
//   - run_id: Process run correlation identifier
//   - batch_id: Search batch identifier
//   - query: Search query
//   - pmid: PubMed article identifier
//   - endpoint: E-utilities endpoint (esearch, efetch, esummary, elink)
//
// # Thread Safety
//
// All components are safe for concurrent use from multiple goroutines.
package observability
