// Package registry maps anchor identifiers to the labels shown for them.
package registry

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Unknown is returned for anchors that were never registered.
const Unknown = "Unknown"

// Policy decides what happens to old entries when a new batch starts.
type Policy string

const (
	// PolicyGrow keeps every entry for the lifetime of the registry.
	PolicyGrow Policy = "grow"
	// PolicyBatch clears the registry when a new placement batch begins.
	PolicyBatch Policy = "batch"
)

// ParsePolicy validates a policy name.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyGrow, PolicyBatch:
		return Policy(s), nil
	}
	return "", fmt.Errorf("unknown registry policy %q", s)
}

// Registry is written by the placement engine and read by renderers.
type Registry struct {
	mu     sync.RWMutex
	labels map[uuid.UUID]string
	policy Policy
}

// New creates an empty registry.
func New(policy Policy) *Registry {
	return &Registry{
		labels: make(map[uuid.UUID]string),
		policy: policy,
	}
}

// Register inserts or overwrites the label for an anchor.
func (r *Registry) Register(id uuid.UUID, label string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.labels[id] = label
}

// Lookup returns the label for an anchor, or Unknown.
func (r *Registry) Lookup(id uuid.UUID) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if label, ok := r.labels[id]; ok {
		return label
	}
	return Unknown
}

// BeginBatch applies the policy at the start of a placement batch.
// It returns the number of entries dropped.
func (r *Registry) BeginBatch() int {
	if r.policy != PolicyBatch {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.labels)
	r.labels = make(map[uuid.UUID]string)
	return n
}

// Len returns the number of registered anchors.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.labels)
}

// Snapshot returns a copy of all entries.
func (r *Registry) Snapshot() map[uuid.UUID]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[uuid.UUID]string, len(r.labels))
	for k, v := range r.labels {
		out[k] = v
	}
	return out
}

// Policy returns the configured policy.
func (r *Registry) Policy() Policy {
	return r.policy
}
