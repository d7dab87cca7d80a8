package logging

import (
	"context"
)

// Context keys for common log fields.
type contextKey string

const (
	// RequestIDKey is the context key for request IDs.
	RequestIDKey contextKey = "request_id"

	// CaseIDKey is the context key for case identifiers.
	CaseIDKey contextKey = "case_id"

	// SnapshotIDKey is the context key for snapshot identifiers.
	SnapshotIDKey contextKey = "snapshot_id"

	// AssessorKey is the context key for the assessing officer.
	AssessorKey contextKey = "assessor"

	// CatalogVersionKey is the context key for the program catalog version.
	CatalogVersionKey contextKey = "catalog_version"

	// TraceIDKey is the context key for trace IDs.
	TraceIDKey contextKey = "trace_id"
)

// fieldOrder is the order context fields appear in log records.
var fieldOrder = []contextKey{
	RequestIDKey,
	CaseIDKey,
	SnapshotIDKey,
	AssessorKey,
	CatalogVersionKey,
	TraceIDKey,
}

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	return getString(ctx, RequestIDKey)
}

// WithCase adds the case and snapshot identifiers to the context.
func WithCase(ctx context.Context, caseID, snapshotID string) context.Context {
	ctx = context.WithValue(ctx, CaseIDKey, caseID)
	if snapshotID != "" {
		ctx = context.WithValue(ctx, SnapshotIDKey, snapshotID)
	}
	return ctx
}

// GetCaseID retrieves the case identifier from the context.
func GetCaseID(ctx context.Context) string {
	return getString(ctx, CaseIDKey)
}

// GetSnapshotID retrieves the snapshot identifier from the context.
func GetSnapshotID(ctx context.Context) string {
	return getString(ctx, SnapshotIDKey)
}

// WithAssessor adds the assessing officer to the context.
func WithAssessor(ctx context.Context, assessor string) context.Context {
	return context.WithValue(ctx, AssessorKey, assessor)
}

// GetAssessor retrieves the assessing officer from the context.
func GetAssessor(ctx context.Context) string {
	return getString(ctx, AssessorKey)
}

// WithCatalogVersion adds the catalog version to the context.
func WithCatalogVersion(ctx context.Context, version string) context.Context {
	return context.WithValue(ctx, CatalogVersionKey, version)
}

// GetCatalogVersion retrieves the catalog version from the context.
func GetCatalogVersion(ctx context.Context) string {
	return getString(ctx, CatalogVersionKey)
}

// WithTraceID adds a trace ID to the context.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// GetTraceID retrieves the trace ID from the context.
func GetTraceID(ctx context.Context) string {
	return getString(ctx, TraceIDKey)
}

func getString(ctx context.Context, key contextKey) string {
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

// extractContextFields extracts common fields from context for logging.
// Returns a slice of key-value pairs suitable for logger.With().
func extractContextFields(ctx context.Context) []any {
	var fields []any
	for _, key := range fieldOrder {
		if v := getString(ctx, key); v != "" {
			fields = append(fields, string(key), v)
		}
	}
	return fields
}
