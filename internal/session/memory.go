package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps all session state in process memory. It backs tests and
// degraded operation when the SQLite database cannot be opened; state is
// lost when the process exits.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[Namespace]*Session
	entries  map[Namespace]map[string]string
	states   map[Namespace]map[string]TaskState
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[Namespace]*Session),
		entries:  make(map[Namespace]map[string]string),
		states:   make(map[Namespace]map[string]TaskState),
	}
}

func (m *MemoryStore) GetSession(_ context.Context, ns Namespace) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[ns]
	if !ok {
		return nil, nil
	}
	clone := *sess
	clone.Inputs = append([]byte(nil), sess.Inputs...)
	return &clone, nil
}

func (m *MemoryStore) SaveSession(_ context.Context, sess *Session) error {
	if sess == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	clone := *sess
	clone.Inputs = append([]byte(nil), sess.Inputs...)
	if clone.CreatedAt.IsZero() {
		clone.CreatedAt = now
	}
	clone.UpdatedAt = now
	m.sessions[sess.Namespace] = &clone
	return nil
}

func (m *MemoryStore) ClearSession(_ context.Context, ns Namespace) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, ns)
	delete(m.entries, ns)
	delete(m.states, ns)
	return nil
}

func (m *MemoryStore) AddTokens(_ context.Context, ns Namespace, input, output int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sess, ok := m.sessions[ns]; ok {
		sess.InputTokens += int64(input)
		sess.OutputTokens += int64(output)
		sess.UpdatedAt = time.Now().UTC()
	}
	return nil
}

func (m *MemoryStore) Entry(_ context.Context, ns Namespace, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	text, ok := m.entries[ns][key]
	return text, ok, nil
}

func (m *MemoryStore) PutEntry(_ context.Context, ns Namespace, key, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entries[ns] == nil {
		m.entries[ns] = make(map[string]string)
	}
	m.entries[ns][key] = text
	return nil
}

func (m *MemoryStore) DeleteEntries(_ context.Context, ns Namespace, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.entries[ns], key)
		delete(m.states[ns], key)
	}
	return nil
}

func (m *MemoryStore) Snapshot(_ context.Context, ns Namespace) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snapshot := make(map[string]string, len(m.entries[ns]))
	for key, text := range m.entries[ns] {
		snapshot[key] = text
	}
	return snapshot, nil
}

func (m *MemoryStore) SetTaskState(_ context.Context, ns Namespace, key string, status Status, errorMessage string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.states[ns] == nil {
		m.states[ns] = make(map[string]TaskState)
	}
	m.states[ns][key] = TaskState{
		Key:          key,
		Status:       status,
		ErrorMessage: errorMessage,
		UpdatedAt:    time.Now().UTC(),
	}
	return nil
}

func (m *MemoryStore) TaskState(_ context.Context, ns Namespace, key string) (TaskState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if state, ok := m.states[ns][key]; ok {
		return state, nil
	}
	return TaskState{Key: key, Status: StatusPending}, nil
}

func (m *MemoryStore) TaskStates(_ context.Context, ns Namespace) (map[string]TaskState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	states := make(map[string]TaskState, len(m.states[ns]))
	for key, state := range m.states[ns] {
		states[key] = state
	}
	return states, nil
}

func (m *MemoryStore) Close() error {
	return nil
}
