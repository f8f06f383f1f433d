package session

import (
	"log/slog"

	"textloom/internal/config"
	"textloom/internal/logging"
	"textloom/internal/services"
)

// OpenWithFallback opens the SQLite store, degrading to an in-memory store
// when the database is unusable. The returned error, when non-nil, is
// tagged services.ErrStorageUnavailable and describes the degradation; the
// returned Store is always usable.
func OpenWithFallback(cfg *config.Config, logger *slog.Logger) (Store, error) {
	store, err := Open(cfg)
	if err == nil {
		return store, nil
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	logger.Warn("session database unavailable; using in-memory store",
		logging.Error(err),
		logging.String(logging.FieldEventType, "storage_degraded"),
		logging.String(logging.FieldErrorHint, "state will be lost on exit; check data_dir permissions"),
	)
	return NewMemoryStore(), services.Wrap(services.ErrStorageUnavailable, "session", "open",
		"degraded to in-memory store", err)
}
