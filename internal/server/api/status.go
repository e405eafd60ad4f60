// Package api provides HTTP API handlers for handcount.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/ayusman/handcount/internal/detector"
	"github.com/ayusman/handcount/internal/vision"
)

// ResultSource provides the most recent frame result.
type ResultSource interface {
	Latest() (detector.Result, bool)
}

// StatusHandler serves the latest frame result.
type StatusHandler struct {
	source ResultSource
}

// NewStatusHandler creates a new StatusHandler reading from source.
func NewStatusHandler(source ResultSource) *StatusHandler {
	return &StatusHandler{source: source}
}

// Request and response types

type statusResponse struct {
	SessionID string          `json:"session_id"`
	Frame     int             `json:"frame"`
	Phase     string          `json:"phase"`
	Remaining int             `json:"remaining"`
	Detected  bool            `json:"detected"`
	Fingers   int             `json:"fingers"`
	Center    pointResponse   `json:"center"`
	Radius    int             `json:"radius"`
	Extremes  []pointResponse `json:"extremes,omitempty"`
	HullSize  int             `json:"hull_size"`
}

type pointResponse struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// toResponse converts a detector.Result to a statusResponse.
func toResponse(r detector.Result) statusResponse {
	phase := vision.Frozen
	if r.Calibrating {
		phase = vision.Calibrating
	}

	resp := statusResponse{
		SessionID: r.SessionID,
		Frame:     r.Frame,
		Phase:     phase.String(),
		Remaining: r.Remaining,
		Detected:  r.Detected,
		Fingers:   r.Fingers,
		Center:    pointResponse{X: r.Center.X, Y: r.Center.Y},
		Radius:    r.Radius,
		HullSize:  len(r.Hull),
	}
	if r.Detected {
		for _, p := range r.Extremes.Points() {
			resp.Extremes = append(resp.Extremes, pointResponse{X: p.X, Y: p.Y})
		}
	}
	return resp
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// ServeHTTP handles GET /api/status.
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	result, ok := h.source.Latest()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "No frames processed yet")
		return
	}

	writeJSON(w, http.StatusOK, toResponse(result))
}
