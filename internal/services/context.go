package services

import "context"

type contextKey string

const (
	featureKey contextKey = "feature"
	taskKey    contextKey = "task_key"
	runIDKey   contextKey = "run_id"
)

// WithFeature annotates context with the feature name (grid/bridge/filters).
func WithFeature(ctx context.Context, feature string) context.Context {
	if feature == "" {
		return ctx
	}
	return context.WithValue(ctx, featureKey, feature)
}

// FeatureFromContext returns the feature name if present.
func FeatureFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(featureKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithTaskKey annotates context with the cache key of the task being generated.
func WithTaskKey(ctx context.Context, key string) context.Context {
	if key == "" {
		return ctx
	}
	return context.WithValue(ctx, taskKey, key)
}

// TaskKeyFromContext returns the task cache key if present.
func TaskKeyFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(taskKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithRunID annotates context with the generation run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the generation run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
