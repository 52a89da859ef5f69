package registry

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestLookup_Unregistered(t *testing.T) {
	r := New(PolicyGrow)
	assert.Equal(t, Unknown, r.Lookup(uuid.New()))
	assert.Equal(t, "Unknown", r.Lookup(uuid.Nil))
}

func TestRegister_Lookup(t *testing.T) {
	r := New(PolicyGrow)
	a, b := uuid.New(), uuid.New()

	r.Register(a, "Brandenburg Gate")
	r.Register(b, "Reichstag")

	assert.Equal(t, "Brandenburg Gate", r.Lookup(a))
	assert.Equal(t, "Reichstag", r.Lookup(b))

	// Overwrite replaces the label.
	r.Register(a, "Brandenburger Tor")
	assert.Equal(t, "Brandenburger Tor", r.Lookup(a))
	assert.Equal(t, 2, r.Len())

	// Empty labels are stored verbatim.
	r.Register(b, "")
	assert.Equal(t, "", r.Lookup(b))
}

func TestBeginBatch(t *testing.T) {
	tests := []struct {
		name        string
		policy      Policy
		wantDropped int
		wantLen     int
	}{
		{"Grow Keeps Entries", PolicyGrow, 0, 3},
		{"Batch Clears Entries", PolicyBatch, 3, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(tt.policy)
			ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
			for _, id := range ids {
				r.Register(id, "label")
			}

			assert.Equal(t, tt.wantDropped, r.BeginBatch())
			assert.Equal(t, tt.wantLen, r.Len())
		})
	}
}

func TestSnapshot_IsCopy(t *testing.T) {
	r := New(PolicyGrow)
	id := uuid.New()
	r.Register(id, "A")

	snap := r.Snapshot()
	snap[id] = "B"

	assert.Equal(t, "A", r.Lookup(id))
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("batch")
	assert.NoError(t, err)
	assert.Equal(t, PolicyBatch, p)

	_, err = ParsePolicy("forever")
	assert.Error(t, err)
}
