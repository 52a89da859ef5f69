package arsession

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sightseer/pkg/placement"
)

func TestMemory_Pose(t *testing.T) {
	m := NewMemory()
	_, ok := m.CurrentPose()
	assert.False(t, ok)

	pose := placement.Identity()
	pose[3] = 1.5
	m.SetPose(pose)

	got, ok := m.CurrentPose()
	require.True(t, ok)
	assert.Equal(t, pose, *got)

	// Returned pose is a copy.
	got[3] = 99
	again, _ := m.CurrentPose()
	assert.Equal(t, 1.5, again[3])

	m.ClearPose()
	_, ok = m.CurrentPose()
	assert.False(t, ok)
}

func TestMemory_Anchors(t *testing.T) {
	m := NewMemory()
	a := Anchor{ID: uuid.New(), Transform: placement.TranslationZ(-5)}
	b := Anchor{ID: uuid.New(), Transform: placement.Identity()}

	require.NoError(t, m.AddAnchor(a))
	require.NoError(t, m.AddAnchor(b))
	assert.ErrorIs(t, m.AddAnchor(a), ErrDuplicateAnchor)

	anchors := m.Anchors()
	require.Len(t, anchors, 2)
	assert.Equal(t, a.ID, anchors[0].ID)
	assert.Equal(t, b.ID, anchors[1].ID)
	assert.False(t, anchors[0].CreatedAt.IsZero())

	got, ok := m.Anchor(a.ID)
	require.True(t, ok)
	assert.Equal(t, -5.0, got.Transform.Translation()[2])

	_, ok = m.Anchor(uuid.New())
	assert.False(t, ok)
}
