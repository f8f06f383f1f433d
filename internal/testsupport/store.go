package testsupport

import (
	"testing"

	"textloom/internal/config"
	"textloom/internal/session"
)

// MustOpenStore opens a SQLite session store against the test config and
// registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *session.SQLStore {
	t.Helper()
	store, err := session.Open(cfg)
	if err != nil {
		t.Fatalf("open session store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close session store: %v", err)
		}
	})
	return store
}
