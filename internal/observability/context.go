package observability

import (
	"context"
)

// Context keys for observability data.
type contextKey string

const (
	runIDKey   contextKey = "run_id"
	batchIDKey contextKey = "batch_id"
	queryKey   contextKey = "query"
)

// WithRunID adds a run correlation ID to the context.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// RunIDFromContext retrieves the run correlation ID from context.
// Returns empty string if not present.
func RunIDFromContext(ctx context.Context) string {
	if v := ctx.Value(runIDKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// WithBatch adds batch identifiers to the context.
func WithBatch(ctx context.Context, batchID, query string) context.Context {
	ctx = context.WithValue(ctx, batchIDKey, batchID)
	ctx = context.WithValue(ctx, queryKey, query)
	return ctx
}

// BatchFromContext retrieves batch identifiers from context.
// Returns empty strings if not present.
func BatchFromContext(ctx context.Context) (batchID, query string) {
	if v := ctx.Value(batchIDKey); v != nil {
		if id, ok := v.(string); ok {
			batchID = id
		}
	}
	if v := ctx.Value(queryKey); v != nil {
		if q, ok := v.(string); ok {
			query = q
		}
	}
	return batchID, query
}
