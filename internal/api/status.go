package api

import (
	"net/http"

	"sightseer/pkg/core"
)

// StatusSource is satisfied by *core.Engine.
type StatusSource interface {
	Status() core.Status
}

// StatusHandler serves the engine snapshot.
type StatusHandler struct {
	src StatusSource
}

func NewStatusHandler(src StatusSource) *StatusHandler {
	return &StatusHandler{src: src}
}

func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.src.Status())
}
