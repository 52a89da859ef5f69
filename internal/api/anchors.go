package api

import (
	"encoding/binary"
	"errors"
	"math/rand"
	"net/http"
	"time"

	"github.com/google/uuid"

	"sightseer/pkg/arsession"
	"sightseer/pkg/placement"
	"sightseer/pkg/registry"
	"sightseer/pkg/render"
)

// AnchorLister is satisfied by *arsession.Memory.
type AnchorLister interface {
	Anchors() []arsession.Anchor
	Anchor(id uuid.UUID) (arsession.Anchor, bool)
}

// AnchorDTO is an anchor with its label node.
type AnchorDTO struct {
	ID        uuid.UUID           `json:"id"`
	Label     string              `json:"label"`
	Transform placement.Transform `json:"transform"`
	Position  [3]float64          `json:"position"`
	CreatedAt time.Time           `json:"created_at"`
	Node      render.Node         `json:"node"`
}

// AnchorHandler serves the placed anchors and their labels.
type AnchorHandler struct {
	session  AnchorLister
	registry *registry.Registry
}

func NewAnchorHandler(s AnchorLister, reg *registry.Registry) *AnchorHandler {
	return &AnchorHandler{session: s, registry: reg}
}

// HandleList returns every anchor in placement order.
func (h *AnchorHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	anchors := h.session.Anchors()
	out := make([]AnchorDTO, 0, len(anchors))
	for _, a := range anchors {
		out = append(out, h.dto(a))
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleLabel returns the registry label for an anchor id. Unknown ids get
// the fallback label, matching what a renderer would draw.
func (h *AnchorHandler) HandleLabel(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid anchor id"))
		return
	}
	_, known := h.session.Anchor(id)
	writeJSON(w, http.StatusOK, map[string]any{
		"id":     id,
		"label":  h.registry.Lookup(id),
		"placed": known,
	})
}

func (h *AnchorHandler) dto(a arsession.Anchor) AnchorDTO {
	node := render.NodeFor(a.ID, h.registry, anchorRand(a.ID))
	return AnchorDTO{
		ID:        a.ID,
		Label:     node.Text,
		Transform: a.Transform,
		Position:  a.Transform.Translation(),
		CreatedAt: a.CreatedAt,
		Node:      node,
	}
}

// anchorRand seeds from the anchor id so a label keeps its color across requests.
// Seeding per anchor rather than drawing from one shared source is intentional:
// list and stream responses must agree on every anchor's hue.
func anchorRand(id uuid.UUID) *rand.Rand {
	return rand.New(rand.NewSource(int64(binary.BigEndian.Uint64(id[:8]))))
}
