package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"sightseer/pkg/model"
	"sightseer/pkg/store"
)

const (
	defaultSightingsLimit = 50
	maxSightingsLimit     = 500
)

// SightingsHandler serves the placement history.
type SightingsHandler struct {
	store store.SightingStore
}

func NewSightingsHandler(s store.SightingStore) *SightingsHandler {
	return &SightingsHandler{store: s}
}

type sightingsResponse struct {
	Total     int               `json:"total"`
	Sightings []*model.Sighting `json:"sightings"`
}

func (h *SightingsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit := defaultSightingsLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid limit %q", v))
			return
		}
		limit = min(n, maxSightingsLimit)
	}

	list, err := h.store.RecentSightings(r.Context(), limit)
	if err != nil {
		slog.Error("Failed to load sightings", "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	total, err := h.store.CountSightings(r.Context())
	if err != nil {
		slog.Error("Failed to count sightings", "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if list == nil {
		list = []*model.Sighting{}
	}

	writeJSON(w, http.StatusOK, sightingsResponse{Total: total, Sightings: list})
}
