package logging

import (
	"context"
	"log/slog"

	"textloom/internal/services"
)

const (
	// FieldFeature is the standardized structured logging key for feature names (grid/bridge/filters).
	FieldFeature = "feature"
	// FieldTaskKey is the standardized structured logging key for task cache keys.
	FieldTaskKey = "cache_key"
	// FieldRunID is the standardized structured logging key for generation run identifiers.
	FieldRunID = "run_id"
	// FieldEventType is the standardized structured logging key for machine-readable event markers.
	FieldEventType = "event_type"
	// FieldErrorHint is the standardized structured logging key for operator guidance on failures.
	FieldErrorHint = "error_hint"
	// FieldModel is the standardized structured logging key for generation model identifiers.
	FieldModel = "model"
	// FieldAttempt is the standardized structured logging key for retry attempt numbers.
	FieldAttempt = "attempt"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if feature, ok := services.FeatureFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldFeature, feature))
	}
	if key, ok := services.TaskKeyFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldTaskKey, key))
	}
	if id, ok := services.RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
