package detector

import (
	"image"
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/handcount/internal/vision"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	results []Result
	index   int
	err     error
	calls   int
	mu      sync.Mutex
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetResults sets the results returned by successive Detect calls. The last
// result repeats once the sequence is exhausted.
func (m *MockDetector) SetResults(results ...Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = results
	m.index = 0
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect was called.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the next pre-configured result or error.
func (m *MockDetector) Detect(roi *gocv.Mat) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return Result{}, m.err
	}
	if len(m.results) == 0 {
		return Result{Frame: m.calls}, nil
	}

	r := m.results[m.index].Summary()
	if m.index < len(m.results)-1 {
		m.index++
	}
	r.Frame = m.calls
	return r, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// CalibratingResult returns a preset Result for a frame inside the
// calibration window.
func CalibratingResult(remaining int) Result {
	return Result{
		Calibrating: true,
		Remaining:   remaining,
	}
}

// OpenHandResult returns a preset Result of a detected hand with the given
// number of fingers, shaped as a square palm at the given center.
func OpenHandResult(center image.Point, fingers int) Result {
	contour := vision.Contour{
		center.Add(image.Pt(-30, -30)),
		center.Add(image.Pt(-30, 30)),
		center.Add(image.Pt(30, 30)),
		center.Add(image.Pt(30, -30)),
	}
	extremes := vision.FindExtremes(contour)

	return Result{
		Detected:     true,
		Fingers:      fingers,
		Center:       extremes.Center(),
		Radius:       30,
		Extremes:     extremes,
		HullExtremes: extremes,
		Contour:      contour,
		Hull:         contour.Clone(),
	}
}
