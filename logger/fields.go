package logger

import (
	"context"

	"go.uber.org/zap"
)

// Standard field names for consistent structured logging across shimgen.
const (
	FieldRunID     = "run_id"
	FieldComponent = "component"

	FieldType    = "type"     // implementation type FQN
	FieldClass   = "class"    // generated class name
	FieldPath    = "path"     // output file path
	FieldOldPath = "old_path" // relocation source
	FieldSource  = "source"   // source-relative path
	FieldHash    = "hash"
	FieldReason  = "reason"
	FieldPackage = "package"

	FieldError      = "error"
	FieldCount      = "count"
	FieldDurationMS = "duration_ms"
)

type contextKey string

const runIDKey contextKey = "logger_run_id"

// WithRunID adds a run ID to the context for logging
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// RunIDFromContext returns the run ID stored by WithRunID, if any
func RunIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey).(string)
	return id
}

// LoggerFromContext returns the given logger with the context's run id attached.
func LoggerFromContext(ctx context.Context, base *zap.SugaredLogger) *zap.SugaredLogger {
	if id := RunIDFromContext(ctx); id != "" {
		return base.With(FieldRunID, id)
	}
	return base
}
