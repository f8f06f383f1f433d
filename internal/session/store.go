package session

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"

	_ "modernc.org/sqlite"

	"textloom/internal/config"
)

// Store is the persistence contract the feature controllers and the
// generation engine depend on. SQLStore implements it against SQLite;
// MemoryStore implements it for tests and for degraded operation.
type Store interface {
	// GetSession returns the stored session for a namespace, or nil when
	// none exists.
	GetSession(ctx context.Context, ns Namespace) (*Session, error)
	// SaveSession inserts or replaces the namespace's session.
	SaveSession(ctx context.Context, sess *Session) error
	// ClearSession removes the session, its cache, and its task states.
	ClearSession(ctx context.Context, ns Namespace) error
	// AddTokens bumps the namespace's aggregate token counters.
	AddTokens(ctx context.Context, ns Namespace, input, output int) error

	// Entry returns one cached variant.
	Entry(ctx context.Context, ns Namespace, key string) (string, bool, error)
	// PutEntry writes one variant through to storage.
	PutEntry(ctx context.Context, ns Namespace, key, text string) error
	// DeleteEntries removes the given cache keys and their task states.
	DeleteEntries(ctx context.Context, ns Namespace, keys ...string) error
	// Snapshot returns the namespace's full cache as key -> text.
	Snapshot(ctx context.Context, ns Namespace) (map[string]string, error)

	// SetTaskState upserts one key's generation status.
	SetTaskState(ctx context.Context, ns Namespace, key string, status Status, errorMessage string) error
	// TaskState returns one key's status; pending when never recorded.
	TaskState(ctx context.Context, ns Namespace, key string) (TaskState, error)
	// TaskStates returns every recorded status in the namespace.
	TaskStates(ctx context.Context, ns Namespace) (map[string]TaskState, error)

	Close() error
}

// SQLStore manages session persistence backed by SQLite.
type SQLStore struct {
	db   *sql.DB
	path string
}

var _ Store = (*SQLStore)(nil)

// Open initializes or connects to the session database.
func Open(cfg *config.Config) (*SQLStore, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.DataDir, "sessions.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &SQLStore{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *SQLStore) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *SQLStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
