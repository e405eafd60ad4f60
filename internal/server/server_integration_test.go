package server

import (
	"bufio"
	"context"
	"encoding/json"
	"image"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"gocv.io/x/gocv"

	"github.com/ayusman/handcount/internal/detector"
	"github.com/ayusman/handcount/internal/fixtures"
)

func TestAPI_HealthCheck(t *testing.T) {
	srv := New(Config{})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatalf("GET /api/health error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var health struct {
		Status string `json:"status"`
		Uptime string `json:"uptime"`
	}
	json.NewDecoder(resp.Body).Decode(&health)

	if health.Status != "ok" {
		t.Errorf("status = %s, want ok", health.Status)
	}
}

func TestHub_PublishWithoutFrame(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	if _, ok := hub.Latest(); ok {
		t.Error("Latest() should not be ready before Publish")
	}

	empty := gocv.NewMat()
	defer empty.Close()
	hub.Publish(detector.OpenHandResult(image.Pt(10, 10), 2), empty)

	r, ok := hub.Latest()
	if !ok || r.Fingers != 2 {
		t.Errorf("Latest() = %+v, %v", r, ok)
	}
	if jpeg, seq := hub.Frame(); jpeg != nil || seq != 0 {
		t.Errorf("empty frame should not be encoded, got %d bytes seq %d", len(jpeg), seq)
	}
}

func TestAPI_StatusAndStream(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	hub := NewHub()
	defer hub.Close()

	ts := httptest.NewServer(New(Config{Hub: hub}))
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/api/status")
	if err != nil {
		t.Fatalf("GET /api/status error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status before first frame = %d, want %d", resp.StatusCode, http.StatusServiceUnavailable)
	}

	frame := fixtures.SolidFrame(120, 160, 80)
	defer frame.Close()
	hub.Publish(detector.OpenHandResult(image.Pt(60, 60), 3), frame)

	jpeg, seq := hub.Frame()
	if seq != 1 || len(jpeg) < 4 || jpeg[0] != 0xFF || jpeg[1] != 0xD8 {
		t.Fatalf("expected one JPEG frame, got seq %d and %d bytes", seq, len(jpeg))
	}

	resp, err = ts.Client().Get(ts.URL + "/api/status")
	if err != nil {
		t.Fatalf("GET /api/status error = %v", err)
	}
	var status struct {
		Fingers  int  `json:"fingers"`
		Detected bool `json:"detected"`
	}
	json.NewDecoder(resp.Body).Decode(&status)
	resp.Body.Close()
	if !status.Detected || status.Fingers != 3 {
		t.Errorf("status = %+v, want 3 detected fingers", status)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/stream", nil)
	resp, err = ts.Client().Do(req)
	if err != nil {
		t.Fatalf("GET /api/stream error = %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "multipart/x-mixed-replace") {
		t.Errorf("Content-Type = %s", ct)
	}

	reader := bufio.NewReader(resp.Body)
	boundary, err := reader.ReadString('\n')
	if err != nil {
		t.Fatalf("reading stream: %v", err)
	}
	if strings.TrimSpace(boundary) != "--frame" {
		t.Errorf("first line = %q, want --frame", boundary)
	}
	partType, _ := reader.ReadString('\n')
	if strings.TrimSpace(partType) != "Content-Type: image/jpeg" {
		t.Errorf("part header = %q", partType)
	}
}

func TestAPI_ResultsWebSocket(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	ts := httptest.NewServer(New(Config{Hub: hub}))
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/results"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial error = %v", err)
	}
	defer conn.Close()

	// Wait until the handler registered the client.
	deadline := time.Now().Add(2 * time.Second)
	for hub.Clients() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if hub.Clients() != 1 {
		t.Fatalf("Clients() = %d, want 1", hub.Clients())
	}

	r := detector.OpenHandResult(image.Pt(40, 50), 5)
	r.SessionID = "session-1"
	r.Frame = 42
	empty := gocv.NewMat()
	defer empty.Close()
	hub.Publish(r, empty)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg struct {
		SessionID string `json:"session_id"`
		Frame     int    `json:"frame"`
		Fingers   int    `json:"fingers"`
		Timestamp int64  `json:"timestamp"`
	}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON error = %v", err)
	}

	if msg.SessionID != "session-1" || msg.Frame != 42 || msg.Fingers != 5 {
		t.Errorf("unexpected message %+v", msg)
	}
	if msg.Timestamp == 0 {
		t.Error("expected timestamp")
	}
}
