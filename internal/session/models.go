package session

import (
	"encoding/json"
	"time"
)

// Namespace identifies one feature's session slot.
type Namespace string

const (
	NamespaceGrid    Namespace = "grid"
	NamespaceBridge  Namespace = "bridge"
	NamespaceFilters Namespace = "filters"
)

// Namespaces lists every feature namespace.
var Namespaces = []Namespace{NamespaceGrid, NamespaceBridge, NamespaceFilters}

// Valid reports whether n names a known namespace.
func (n Namespace) Valid() bool {
	switch n {
	case NamespaceGrid, NamespaceBridge, NamespaceFilters:
		return true
	default:
		return false
	}
}

// Status represents the lifecycle of one generation task.
type Status string

const (
	StatusPending    Status = "pending"
	StatusGenerating Status = "generating"
	StatusComplete   Status = "complete"
	StatusError      Status = "error"
)

// Session is the externally visible unit of persistence: one feature's
// inputs plus token accounting. The feature layer owns the shape of Inputs;
// the store only compares and round-trips the raw JSON.
type Session struct {
	ID           string
	Namespace    Namespace
	Inputs       json.RawMessage
	InputTokens  int64
	OutputTokens int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TaskState is the persisted status of one cache key's generation task.
type TaskState struct {
	Key          string
	Status       Status
	ErrorMessage string
	UpdatedAt    time.Time
}
