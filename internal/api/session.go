package api

import (
	"errors"
	"fmt"
	"net/http"

	"sightseer/pkg/placement"
)

// PoseSetter is satisfied by *arsession.Memory.
type PoseSetter interface {
	SetPose(t placement.Transform)
	ClearPose()
}

// SessionHandler receives camera poses from the tracking client.
type SessionHandler struct {
	session PoseSetter
}

func NewSessionHandler(s PoseSetter) *SessionHandler {
	return &SessionHandler{session: s}
}

type poseRequest struct {
	Transform []float64 `json:"transform"` // row-major, translation at 3, 7, 11
}

// pose validates the matrix. A short array must not decode into a mostly
// zero pose, which would collapse every anchor composed against it.
func (p poseRequest) pose() (placement.Transform, error) {
	var t placement.Transform
	if len(p.Transform) != len(t) {
		return t, fmt.Errorf("transform must have %d elements, got %d", len(t), len(p.Transform))
	}
	copy(t[:], p.Transform)
	if t.At(3, 0) != 0 || t.At(3, 1) != 0 || t.At(3, 2) != 0 || t.At(3, 3) != 1 {
		return t, errors.New("transform bottom row must be 0, 0, 0, 1")
	}
	return t, nil
}

func (h *SessionHandler) HandlePose(w http.ResponseWriter, r *http.Request) {
	var req poseRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	pose, err := req.pose()
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	h.session.SetPose(pose)
	w.WriteHeader(http.StatusNoContent)
}

// HandleClearPose marks tracking as lost.
func (h *SessionHandler) HandleClearPose(w http.ResponseWriter, r *http.Request) {
	h.session.ClearPose()
	w.WriteHeader(http.StatusNoContent)
}
