package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation marks malformed caller input: bad intensity, unknown
	// filter, out-of-range coordinate or bridge position. Rejected before
	// any network call is made.
	ErrValidation = errors.New("validation error")
	// ErrConfiguration marks missing or unusable provider configuration.
	ErrConfiguration = errors.New("configuration error")
	// ErrDependencyNotReady marks an attempt to generate a derived variant
	// before its inputs exist in the cache. Correct planning makes this
	// unreachable; it fails loudly instead of producing garbage.
	ErrDependencyNotReady = errors.New("dependency not ready")
	// ErrProvider marks a transient generation-provider failure. Retryable.
	ErrProvider = errors.New("provider error")
	// ErrSafetyBlocked marks a refusal by the provider's safety layer.
	// Terminal; retrying is futile.
	ErrSafetyBlocked = errors.New("safety blocked")
	// ErrTokenLimit marks a prompt or completion exceeding the model's
	// token budget. Terminal; retrying is futile.
	ErrTokenLimit = errors.New("token limit exceeded")
	// ErrStorageUnavailable marks a session store that degraded to memory.
	// Non-fatal; callers log and continue.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrNotFound marks a missing session or cache entry.
	ErrNotFound = errors.New("not found")
)

// Wrap builds an error message that includes feature and operation context
// while tagging it with the provided marker for later classification. The
// marker should be one of the exported sentinel errors above.
func Wrap(marker error, feature, operation, message string, err error) error {
	detail := buildDetail(feature, operation, message)
	if marker == nil {
		marker = ErrProvider
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Retryable reports whether the executor should attempt the failed call
// again. Validation, configuration, safety, and token-limit failures are
// terminal; everything else is treated as transient.
func Retryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrConfiguration),
		errors.Is(err, ErrDependencyNotReady),
		errors.Is(err, ErrSafetyBlocked),
		errors.Is(err, ErrTokenLimit):
		return false
	default:
		return true
	}
}

// Details extracts the human-readable portion of a wrapped service error,
// stripping the sentinel prefix so status displays stay terse.
func Details(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	for _, marker := range []error{
		ErrValidation, ErrConfiguration, ErrDependencyNotReady,
		ErrProvider, ErrSafetyBlocked, ErrTokenLimit,
		ErrStorageUnavailable, ErrNotFound,
	} {
		prefix := marker.Error() + ": "
		if strings.HasPrefix(msg, prefix) {
			return strings.TrimPrefix(msg, prefix)
		}
	}
	return msg
}

func buildDetail(feature, operation, message string) string {
	parts := make([]string, 0, 3)
	if feature = strings.TrimSpace(feature); feature != "" {
		parts = append(parts, feature)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
