package api

import (
	"errors"
	"net/http"

	"sightseer/pkg/geo"
	"sightseer/pkg/sensor"
	"sightseer/pkg/sensor/remote"
)

// SensorHandler feeds device readings into the remote sensor.
type SensorHandler struct {
	client *remote.Client
}

func NewSensorHandler(c *remote.Client) *SensorHandler {
	return &SensorHandler{client: c}
}

type locationRequest struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
}

type headingRequest struct {
	Heading *float64 `json:"heading"`
}

type errorRequest struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (h *SensorHandler) HandleLocation(w http.ResponseWriter, r *http.Request) {
	var req locationRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Lat == nil || req.Lon == nil {
		writeError(w, http.StatusBadRequest, errors.New("lat and lon are required"))
		return
	}
	if err := h.client.PushLocation(geo.Point{Lat: *req.Lat, Lon: *req.Lon}); err != nil {
		writeError(w, sensorStatus(err), err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// HandleHeading forwards a compass reading. accepted is false while the
// engine is not calibrating; clients should slow down until it flips.
func (h *SensorHandler) HandleHeading(w http.ResponseWriter, r *http.Request) {
	var req headingRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Heading == nil {
		writeError(w, http.StatusBadRequest, errors.New("heading is required"))
		return
	}
	accepted, err := h.client.PushHeading(*req.Heading)
	if err != nil {
		writeError(w, sensorStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"accepted": accepted})
}

func (h *SensorHandler) HandleHeadingState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"requested": h.client.HeadingRequested(),
		"dropped":   h.client.Dropped(),
	})
}

func (h *SensorHandler) HandleError(w http.ResponseWriter, r *http.Request) {
	var req errorRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.client.PushError(sensor.ParseError(req.Code, req.Message)); err != nil {
		writeError(w, sensorStatus(err), err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func sensorStatus(err error) int {
	if errors.Is(err, sensor.ErrNotStarted) {
		return http.StatusServiceUnavailable
	}
	return http.StatusUnprocessableEntity
}
