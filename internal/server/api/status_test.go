package api

import (
	"encoding/json"
	"image"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ayusman/handcount/internal/detector"
)

type staticSource struct {
	result detector.Result
	ready  bool
}

func (s staticSource) Latest() (detector.Result, bool) {
	return s.result, s.ready
}

func TestStatusHandler_NoFrames(t *testing.T) {
	h := NewStatusHandler(staticSource{})

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status %d, got %d", http.StatusServiceUnavailable, rec.Code)
	}

	var resp errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Error == "" {
		t.Error("expected error message")
	}
}

func TestStatusHandler_Calibrating(t *testing.T) {
	r := detector.CalibratingResult(12)
	r.Frame = 18
	h := NewStatusHandler(staticSource{result: r, ready: true})

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var resp statusResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Phase != "calibrating" {
		t.Errorf("expected phase calibrating, got %s", resp.Phase)
	}
	if resp.Remaining != 12 || resp.Frame != 18 {
		t.Errorf("expected frame 18 with 12 remaining, got frame %d with %d", resp.Frame, resp.Remaining)
	}
	if resp.Extremes != nil {
		t.Errorf("expected no extremes while calibrating, got %v", resp.Extremes)
	}
}

func TestStatusHandler_Detected(t *testing.T) {
	r := detector.OpenHandResult(image.Pt(100, 120), 4)
	h := NewStatusHandler(staticSource{result: r, ready: true})

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", ct)
	}

	var resp statusResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Phase != "frozen" || !resp.Detected || resp.Fingers != 4 {
		t.Errorf("unexpected response %+v", resp)
	}
	if resp.Center != (pointResponse{X: 100, Y: 120}) {
		t.Errorf("expected center (100,120), got %+v", resp.Center)
	}
	if len(resp.Extremes) != 4 {
		t.Errorf("expected 4 extremes, got %d", len(resp.Extremes))
	}
	if resp.HullSize != 4 {
		t.Errorf("expected hull of 4 points, got %d", resp.HullSize)
	}
}

func TestStatusHandler_MethodNotAllowed(t *testing.T) {
	h := NewStatusHandler(staticSource{ready: true})

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
		req := httptest.NewRequest(method, "/api/status", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("method %s: expected status %d, got %d", method, http.StatusMethodNotAllowed, rec.Code)
		}
	}
}
