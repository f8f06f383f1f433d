package engine

import (
	"sync"

	"github.com/google/uuid"
)

// Guard decides whether a run may still write results. The engine
// consults it immediately before every cache write so late results
// from a superseded run are discarded.
type Guard interface {
	Active(runID string) bool
}

// TokenGuard issues run tokens and keeps only the newest one live.
// Beginning a run supersedes every earlier token, which is how a plan
// issued mid-flight cancels the writes of the plan it replaces.
type TokenGuard struct {
	mu      sync.Mutex
	current string
}

// Begin mints a fresh run token and invalidates all prior ones.
func (g *TokenGuard) Begin() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.current = uuid.NewString()
	return g.current
}

// Cancel invalidates the live token without starting a new run.
func (g *TokenGuard) Cancel() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.current = ""
}

// Active reports whether runID is the live token.
func (g *TokenGuard) Active(runID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return runID != "" && runID == g.current
}

// alwaysActive is used when a caller has no supersession semantics.
type alwaysActive struct{}

func (alwaysActive) Active(string) bool { return true }

// NoGuard returns a guard that never cancels anything.
func NoGuard() Guard { return alwaysActive{} }
