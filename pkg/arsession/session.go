// Package arsession is the boundary to the AR tracking session: the camera
// pose of the current frame and the set of world anchors.
package arsession

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"sightseer/pkg/placement"
)

// ErrDuplicateAnchor is returned when an anchor id is added twice.
var ErrDuplicateAnchor = errors.New("anchor already exists")

// Anchor is a world-space placement created by the engine.
type Anchor struct {
	ID        uuid.UUID           `json:"id"`
	Transform placement.Transform `json:"transform"`
	CreatedAt time.Time           `json:"created_at"`
}

// Session is implemented by tracking backends.
type Session interface {
	// CurrentPose returns the camera transform of the latest frame.
	// ok is false until the first frame arrives.
	CurrentPose() (pose *placement.Transform, ok bool)
	AddAnchor(a Anchor) error
}

// Memory is an in-process session. The pose is pushed by the client
// (or set by tests) and anchors are kept in insertion order.
type Memory struct {
	mu      sync.RWMutex
	pose    *placement.Transform
	anchors []Anchor
	ids     map[uuid.UUID]struct{}
}

var _ Session = (*Memory)(nil)

// NewMemory creates a session without a camera pose.
func NewMemory() *Memory {
	return &Memory{ids: make(map[uuid.UUID]struct{})}
}

// SetPose stores the camera transform of the latest frame.
func (m *Memory) SetPose(t placement.Transform) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pose = &t
}

// ClearPose drops the camera pose, as when tracking is lost.
func (m *Memory) ClearPose() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pose = nil
}

func (m *Memory) CurrentPose() (*placement.Transform, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.pose == nil {
		return nil, false
	}
	p := *m.pose
	return &p, true
}

func (m *Memory) AddAnchor(a Anchor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.ids[a.ID]; ok {
		return ErrDuplicateAnchor
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	m.ids[a.ID] = struct{}{}
	m.anchors = append(m.anchors, a)
	return nil
}

// Anchors returns a copy of all anchors in insertion order.
func (m *Memory) Anchors() []Anchor {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Anchor(nil), m.anchors...)
}

// Anchor looks up one anchor.
func (m *Memory) Anchor(id uuid.UUID) (Anchor, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.anchors {
		if a.ID == id {
			return a, true
		}
	}
	return Anchor{}, false
}
