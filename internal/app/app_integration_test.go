package app

import (
	"context"
	"errors"
	"image"
	"sync"
	"testing"

	"gocv.io/x/gocv"

	"github.com/ayusman/handcount/internal/capture"
	"github.com/ayusman/handcount/internal/detector"
	"github.com/ayusman/handcount/internal/fixtures"
	"github.com/ayusman/handcount/internal/render"
)

const (
	sceneRows  = 600
	sceneCols  = 800
	background = 50
	skin       = 200
)

// handCenter is the palm center in raw frame coordinates. After the
// horizontal mirror it lands at (150, 180) inside the default ROI.
var handCenter = image.Pt(sceneCols-1-625, 205)

type recorder struct {
	mu      sync.Mutex
	results []detector.Result
}

func (r *recorder) Publish(res detector.Result, annotated gocv.Mat) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, res)
}

func (r *recorder) all() []detector.Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]detector.Result(nil), r.results...)
}

type quitAfter struct {
	render.Headless
	n int
}

func (q *quitAfter) Quit() bool { return q.Frames() >= q.n }

func testConfig(limit int) Config {
	cfg := DefaultConfig()
	cfg.Detector.Limit = limit
	return cfg
}

// sceneFrames returns limit empty frames followed by hands frames of an
// open hand with five fingers.
func sceneFrames(t *testing.T, limit, hands int) []*gocv.Mat {
	t.Helper()
	var frames []*gocv.Mat
	for i := 0; i < limit; i++ {
		f := fixtures.SolidFrame(sceneRows, sceneCols, background)
		frames = append(frames, &f)
	}
	for i := 0; i < hands; i++ {
		f := fixtures.HandFrame(sceneRows, sceneCols, background, skin, handCenter, 40, 10,
			fixtures.FanSpokes(5, 110, 50))
		frames = append(frames, &f)
	}
	t.Cleanup(func() {
		for _, f := range frames {
			f.Close()
		}
	})
	return frames
}

func TestNew_ConfigErrors(t *testing.T) {
	t.Run("width below minimum", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Width = 499
		_, err := New(cfg)
		if !errors.Is(err, capture.ErrWidthTooSmall) {
			t.Errorf("New() error = %v, want ErrWidthTooSmall", err)
		}
	})

	t.Run("invalid detector config", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Detector.Silhouette.BlurSize = 4
		if _, err := New(cfg); err == nil {
			t.Error("New() should reject an even blur size")
		}
	})

	t.Run("defaults", func(t *testing.T) {
		a, err := New(DefaultConfig())
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		defer a.Close()

		if a.ROI() != image.Rect(475, 25, 775, 330) {
			t.Errorf("ROI() = %v", a.ROI())
		}
		if a.ShowMask() {
			t.Error("mask display should be off by default")
		}
	})
}

func TestApp_Run_CountsFingers(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	const limit = 3
	a, err := New(testConfig(limit))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.Close()

	a.SetCamera(capture.NewMockCamera(sceneFrames(t, limit, 2), false))
	display := render.NewHeadless()
	a.SetDisplay(display)
	a.SetShowMask(true)
	rec := &recorder{}
	a.AddPublisher(rec)

	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	results := rec.all()
	if len(results) != limit+2 {
		t.Fatalf("published %d results, want %d", len(results), limit+2)
	}
	for i, r := range results[:limit] {
		if !r.Calibrating {
			t.Errorf("frame %d should be calibrating", i+1)
		}
	}
	for i, r := range results[limit:] {
		if !r.Detected {
			t.Errorf("frame %d: hand not detected", limit+i+1)
			continue
		}
		if r.Fingers != 5 {
			t.Errorf("frame %d: fingers = %d, want 5", limit+i+1, r.Fingers)
		}
		if r.HasMask() {
			t.Errorf("frame %d: published results must not carry the mask", limit+i+1)
		}
	}

	if display.Frames() != limit+2 {
		t.Errorf("displayed %d frames, want %d", display.Frames(), limit+2)
	}
	if display.Masks() != 2 {
		t.Errorf("displayed %d masks, want 2", display.Masks())
	}
	if last := a.LastResult(); last.Frame != limit+2 || last.Fingers != 5 {
		t.Errorf("LastResult() = frame %d fingers %d", last.Frame, last.Fingers)
	}
}

func TestApp_Run_StopsOnQuit(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	a, err := New(testConfig(30))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.Close()

	cam := capture.NewMockCamera(sceneFrames(t, 1, 0), true)
	a.SetCamera(cam)
	a.SetDisplay(&quitAfter{n: 4})

	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if cam.Reads() != 4 {
		t.Errorf("read %d frames, want 4", cam.Reads())
	}
}

func TestApp_Run_StopsOnCancel(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	a, err := New(testConfig(30))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.Close()

	cam := capture.NewMockCamera(sceneFrames(t, 1, 0), true)
	a.SetCamera(cam)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := a.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if cam.Reads() != 0 {
		t.Errorf("read %d frames after cancel, want 0", cam.Reads())
	}
}

func TestApp_Step_DetectorError(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	a, err := New(testConfig(30))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.Close()

	cam := capture.NewMockCamera(sceneFrames(t, 1, 0), true)
	cam.Open()
	a.SetCamera(cam)

	mock := detector.NewMockDetector()
	wantErr := errors.New("broken")
	mock.SetError(wantErr)
	a.SetDetector(mock)

	if err := a.Step(); !errors.Is(err, wantErr) {
		t.Errorf("Step() error = %v, want %v", err, wantErr)
	}
}

func TestApp_Step_MockDetector(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	a, err := New(testConfig(30))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.Close()

	cam := capture.NewMockCamera(sceneFrames(t, 1, 0), true)
	cam.Open()
	a.SetCamera(cam)

	mock := detector.NewMockDetector()
	mock.SetResults(detector.OpenHandResult(image.Pt(150, 150), 3))
	a.SetDetector(mock)

	rec := &recorder{}
	a.AddPublisher(rec)

	for i := 0; i < 2; i++ {
		if err := a.Step(); err != nil {
			t.Fatalf("Step() error = %v", err)
		}
	}

	if got := len(rec.all()); got != 2 {
		t.Fatalf("published %d results, want 2", got)
	}
	if last := a.LastResult(); last.Fingers != 3 || last.Frame != 2 {
		t.Errorf("LastResult() = frame %d fingers %d, want frame 2 fingers 3", last.Frame, last.Fingers)
	}
}
